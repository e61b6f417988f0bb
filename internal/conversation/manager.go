package conversation

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/isndotbiz/spiritatlas/pkg/logging"
)

// ErrNotFound is returned by mutation paths when the conversation id is
// unknown. Read paths return (nil, nil) instead.
var ErrNotFound = errors.New("conversation: not found")

const (
	// lockStripes bounds the number of mutexes guarding read-modify-write
	// sequences. Appends to different conversations rarely contend.
	lockStripes = 64

	digestHeader     = "**Previous Discussion Summary:**"
	questionExcerpt  = 100
	answerExcerpt    = 150
	defaultKeepTurns = 6
)

// Manager is the only writer of conversation records. All mutations on the
// same id are serialized through a striped lock.
type Manager struct {
	store  Store
	logger *logging.Logger
	now    func() time.Time
	locks  [lockStripes]sync.Mutex
}

func NewManager(store Store, logger *logging.Logger) *Manager {
	if store == nil {
		panic("conversation: store is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{store: store, logger: logger, now: time.Now}
}

// WithClock overrides the time source. Used by tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

func (m *Manager) lock(id string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &m.locks[h.Sum32()%lockStripes]
}

// Create starts a new conversation for a profile. A non-empty system
// context becomes turn zero.
func (m *Manager) Create(ctx context.Context, profileID, systemContext string) (*Conversation, error) {
	now := m.now()
	conv := &Conversation{
		ID:          newConversationID(profileID, now),
		ProfileID:   profileID,
		CreatedAt:   now,
		LastUpdated: now,
		Turns:       []Turn{},
		Metadata:    map[string]string{},
	}
	if systemContext != "" {
		conv.Turns = append(conv.Turns, Turn{Role: RoleSystem, Content: systemContext, Timestamp: now})
	}
	if err := m.store.Save(ctx, conv); err != nil {
		return nil, err
	}
	m.logger.Info("conversation created", "conversation_id", conv.ID, "profile_id", profileID)
	return conv, nil
}

// AddUserMessage appends a user turn and persists the conversation.
func (m *Manager) AddUserMessage(ctx context.Context, id, content string) (*Conversation, error) {
	return m.appendTurn(ctx, id, RoleUser, content)
}

// AddAssistantResponse appends an assistant turn and persists.
func (m *Manager) AddAssistantResponse(ctx context.Context, id, content string) (*Conversation, error) {
	return m.appendTurn(ctx, id, RoleAssistant, content)
}

func (m *Manager) appendTurn(ctx context.Context, id, role, content string) (*Conversation, error) {
	mu := m.lock(id)
	mu.Lock()
	defer mu.Unlock()

	conv, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	now := m.now()
	conv.Turns = append(conv.Turns, Turn{Role: role, Content: content, Timestamp: now})
	conv.LastUpdated = now
	if err := m.store.Save(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// Load fetches a conversation, returning nil when the id is unknown.
func (m *Manager) Load(ctx context.Context, id string) (*Conversation, error) {
	return m.store.Load(ctx, id)
}

// ForProfile lists a profile's conversations, most recently updated first.
func (m *Manager) ForProfile(ctx context.Context, profileID string) ([]*Conversation, error) {
	convs, err := m.store.List(ctx, profileID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].LastUpdated.After(convs[j].LastUpdated)
	})
	return convs, nil
}

// Active returns the most recently updated conversation for a profile, or
// nil when the profile has none.
func (m *Manager) Active(ctx context.Context, profileID string) (*Conversation, error) {
	convs, err := m.ForProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if len(convs) == 0 {
		return nil, nil
	}
	return convs[0], nil
}

// Delete removes one conversation.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.store.Delete(ctx, id)
}

// Clear removes every conversation for a profile.
func (m *Manager) Clear(ctx context.Context, profileID string) error {
	return m.store.Clear(ctx, profileID)
}

// FormattedHistory returns the most recent maxTurns*2 non-system turns as
// role/content pairs for replay to a provider. This is read-time
// truncation only; nothing is deleted.
func FormattedHistory(conv *Conversation, maxTurns int) []HistoryEntry {
	if conv == nil {
		return nil
	}
	var entries []HistoryEntry
	for _, t := range conv.Turns {
		if t.Role == RoleSystem {
			continue
		}
		entries = append(entries, HistoryEntry{Role: strings.ToLower(t.Role), Content: t.Content})
	}
	limit := maxTurns * 2
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries
}

// Summarize bounds a conversation's growth: turns older than the most
// recent keepRecent are replaced by a single digest system turn. The
// primary system turn, if any, is preserved verbatim. A no-op when the
// conversation is already small enough.
func (m *Manager) Summarize(ctx context.Context, id string, keepRecent int) (*Conversation, error) {
	if keepRecent <= 0 {
		keepRecent = defaultKeepTurns
	}
	mu := m.lock(id)
	mu.Lock()
	defer mu.Unlock()

	conv, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if len(conv.Turns) <= keepRecent+1 {
		return conv, nil
	}

	recent := conv.Turns[len(conv.Turns)-keepRecent:]
	older := conv.Turns[:len(conv.Turns)-keepRecent]

	var systemTurn *Turn
	for i := range older {
		if older[i].Role == RoleSystem {
			systemTurn = &older[i]
			break
		}
	}

	var digest strings.Builder
	digest.WriteString(digestHeader)
	digest.WriteString("\n")
	for _, t := range older {
		switch t.Role {
		case RoleUser:
			digest.WriteString("Q: " + excerpt(t.Content, questionExcerpt) + "\n")
		case RoleAssistant:
			digest.WriteString("A: " + excerpt(t.Content, answerExcerpt) + "\n")
		}
	}

	digestTurn := Turn{
		Role:      RoleSystem,
		Content:   strings.TrimRight(digest.String(), "\n"),
		Timestamp: older[len(older)-1].Timestamp,
	}

	rebuilt := make([]Turn, 0, keepRecent+2)
	if systemTurn != nil {
		rebuilt = append(rebuilt, *systemTurn)
	}
	rebuilt = append(rebuilt, digestTurn)
	rebuilt = append(rebuilt, recent...)

	before := len(conv.Turns)
	conv.Turns = rebuilt
	conv.LastUpdated = m.now()
	if err := m.store.Save(ctx, conv); err != nil {
		return nil, err
	}
	m.logger.Info("conversation summarized",
		"conversation_id", id,
		"turns_before", before,
		"turns_after", len(conv.Turns),
		"estimated_tokens", conv.EstimateTokens())
	return conv, nil
}

func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
