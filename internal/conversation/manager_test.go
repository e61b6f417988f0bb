package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// memoryStore is a minimal in-process Store for manager tests.
type memoryStore struct {
	mu    sync.Mutex
	convs map[string]*Conversation
}

func newMemoryStore() *memoryStore {
	return &memoryStore{convs: make(map[string]*Conversation)}
}

func (s *memoryStore) Save(ctx context.Context, conv *Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *conv
	cp.Turns = append([]Turn(nil), conv.Turns...)
	s.convs[conv.ID] = &cp
	return nil
}

func (s *memoryStore) Load(ctx context.Context, id string) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[id]
	if !ok {
		return nil, nil
	}
	cp := *conv
	cp.Turns = append([]Turn(nil), conv.Turns...)
	return &cp, nil
}

func (s *memoryStore) List(ctx context.Context, profileID string) ([]*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Conversation
	for _, conv := range s.convs {
		if conv.ProfileID == profileID {
			cp := *conv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.convs, id)
	return nil
}

func (s *memoryStore) Clear(ctx context.Context, profileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, conv := range s.convs {
		if conv.ProfileID == profileID {
			delete(s.convs, id)
		}
	}
	return nil
}

func testManager(t *testing.T) (*Manager, *time.Time) {
	t.Helper()
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	m := NewManager(newMemoryStore(), nil).WithClock(func() time.Time { return now })
	return m, &now
}

func TestCreateSetsSystemTurn(t *testing.T) {
	m, _ := testManager(t)
	conv, err := m.Create(context.Background(), "profile-1", "You are a spiritual advisor.")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if conv.ProfileID != "profile-1" {
		t.Fatalf("profile = %s", conv.ProfileID)
	}
	if !strings.HasPrefix(conv.ID, "profile-1_") {
		t.Fatalf("id = %s, want profileID_millis form", conv.ID)
	}
	if len(conv.Turns) != 1 || conv.Turns[0].Role != RoleSystem {
		t.Fatalf("turns = %+v", conv.Turns)
	}
	if conv.SystemContext() != "You are a spiritual advisor." {
		t.Fatalf("system context = %q", conv.SystemContext())
	}
}

func TestCreateWithoutSystemContext(t *testing.T) {
	m, _ := testManager(t)
	conv, err := m.Create(context.Background(), "profile-1", "")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if len(conv.Turns) != 0 {
		t.Fatalf("expected no turns, got %d", len(conv.Turns))
	}
}

func TestAppendTurnsPreserveOrder(t *testing.T) {
	m, now := testManager(t)
	ctx := context.Background()
	conv, _ := m.Create(ctx, "p", "sys")

	for i, q := range []string{"q1", "q2"} {
		*now = now.Add(time.Minute)
		if _, err := m.AddUserMessage(ctx, conv.ID, q); err != nil {
			t.Fatalf("AddUserMessage %d: %v", i, err)
		}
		*now = now.Add(time.Minute)
		if _, err := m.AddAssistantResponse(ctx, conv.ID, "a"+q[1:]); err != nil {
			t.Fatalf("AddAssistantResponse %d: %v", i, err)
		}
	}

	got, err := m.Load(ctx, conv.ID)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	wantRoles := []string{RoleSystem, RoleUser, RoleAssistant, RoleUser, RoleAssistant}
	if len(got.Turns) != len(wantRoles) {
		t.Fatalf("turn count = %d, want %d", len(got.Turns), len(wantRoles))
	}
	for i, role := range wantRoles {
		if got.Turns[i].Role != role {
			t.Fatalf("turn %d role = %s, want %s", i, got.Turns[i].Role, role)
		}
	}
	if !got.LastUpdated.After(got.CreatedAt) {
		t.Fatal("LastUpdated not advanced")
	}
}

func TestAppendToUnknownConversation(t *testing.T) {
	m, _ := testManager(t)
	_, err := m.AddUserMessage(context.Background(), "missing", "hello")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestLoadUnknownReturnsNil(t *testing.T) {
	m, _ := testManager(t)
	conv, err := m.Load(context.Background(), "missing")
	if err != nil || conv != nil {
		t.Fatalf("Load = %v, %v; want nil, nil", conv, err)
	}
}

func TestFormattedHistory(t *testing.T) {
	conv := &Conversation{Turns: []Turn{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "q1"},
		{Role: RoleAssistant, Content: "a1"},
		{Role: RoleUser, Content: "q2"},
		{Role: RoleAssistant, Content: "a2"},
	}}

	entries := FormattedHistory(conv, 10)
	if len(entries) != 4 {
		t.Fatalf("entries = %d, want 4 (system excluded)", len(entries))
	}
	if entries[0].String() != "user: q1" {
		t.Fatalf("entry 0 = %q", entries[0].String())
	}
	if entries[3].String() != "assistant: a2" {
		t.Fatalf("entry 3 = %q", entries[3].String())
	}

	// maxTurns bounds the replay window from the tail.
	entries = FormattedHistory(conv, 1)
	if len(entries) != 2 || entries[0].Content != "q2" {
		t.Fatalf("bounded entries = %+v", entries)
	}
}

func TestFormattedHistoryNil(t *testing.T) {
	if got := FormattedHistory(nil, 5); got != nil {
		t.Fatalf("FormattedHistory(nil) = %v", got)
	}
}

func TestSummarizeNoOpWhenSmall(t *testing.T) {
	m, _ := testManager(t)
	ctx := context.Background()
	conv, _ := m.Create(ctx, "p", "sys")
	_, _ = m.AddUserMessage(ctx, conv.ID, "q1")
	_, _ = m.AddAssistantResponse(ctx, conv.ID, "a1")

	got, err := m.Summarize(ctx, conv.ID, 6)
	if err != nil {
		t.Fatalf("Summarize error: %v", err)
	}
	if len(got.Turns) != 3 {
		t.Fatalf("small conversation must not be rewritten: %d turns", len(got.Turns))
	}
}

func TestSummarizeReplacesOldTurns(t *testing.T) {
	m, now := testManager(t)
	ctx := context.Background()
	conv, _ := m.Create(ctx, "p", "primary system context")

	for i := 0; i < 6; i++ {
		*now = now.Add(time.Minute)
		_, _ = m.AddUserMessage(ctx, conv.ID, "question "+strings.Repeat("x", i))
		*now = now.Add(time.Minute)
		_, _ = m.AddAssistantResponse(ctx, conv.ID, "answer "+strings.Repeat("y", i))
	}
	before, _ := m.Load(ctx, conv.ID)
	tail := append([]Turn(nil), before.Turns[len(before.Turns)-4:]...)

	got, err := m.Summarize(ctx, conv.ID, 4)
	if err != nil {
		t.Fatalf("Summarize error: %v", err)
	}

	// keepRecent + primary system + digest
	if len(got.Turns) != 6 {
		t.Fatalf("turns after summarize = %d, want 6", len(got.Turns))
	}
	if got.Turns[0].Role != RoleSystem || got.Turns[0].Content != "primary system context" {
		t.Fatalf("primary system turn not preserved: %+v", got.Turns[0])
	}
	if !strings.HasPrefix(got.Turns[1].Content, digestHeader) {
		t.Fatalf("digest turn = %q", got.Turns[1].Content)
	}
	if !strings.Contains(got.Turns[1].Content, "Q: question") || !strings.Contains(got.Turns[1].Content, "A: answer") {
		t.Fatalf("digest missing excerpts: %q", got.Turns[1].Content)
	}
	for i, want := range tail {
		gotTurn := got.Turns[i+2]
		if gotTurn.Role != want.Role || gotTurn.Content != want.Content {
			t.Fatalf("recent turn %d changed: %+v vs %+v", i, gotTurn, want)
		}
	}
}

func TestSummarizeDigestTimestamp(t *testing.T) {
	m, now := testManager(t)
	ctx := context.Background()
	conv, _ := m.Create(ctx, "p", "")

	var lastOlder time.Time
	for i := 0; i < 8; i++ {
		*now = now.Add(time.Minute)
		_, _ = m.AddUserMessage(ctx, conv.ID, "q")
		if i == 3 {
			lastOlder = *now
		}
	}

	got, err := m.Summarize(ctx, conv.ID, 4)
	if err != nil {
		t.Fatalf("Summarize error: %v", err)
	}
	if !got.Turns[0].Timestamp.Equal(lastOlder) {
		t.Fatalf("digest timestamp = %v, want %v", got.Turns[0].Timestamp, lastOlder)
	}
}

func TestSummarizeExcerptTruncation(t *testing.T) {
	m, _ := testManager(t)
	ctx := context.Background()
	conv, _ := m.Create(ctx, "p", "")

	long := strings.Repeat("q", 300)
	for i := 0; i < 8; i++ {
		_, _ = m.AddUserMessage(ctx, conv.ID, long)
	}

	got, err := m.Summarize(ctx, conv.ID, 2)
	if err != nil {
		t.Fatalf("Summarize error: %v", err)
	}
	digest := got.Turns[0].Content
	for _, line := range strings.Split(digest, "\n")[1:] {
		body := strings.TrimPrefix(line, "Q: ")
		if len([]rune(body)) != questionExcerpt+3 || !strings.HasSuffix(body, "...") {
			t.Fatalf("excerpt line = %q", line)
		}
	}
}

func TestSummarizeUnknownConversation(t *testing.T) {
	m, _ := testManager(t)
	_, err := m.Summarize(context.Background(), "missing", 4)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestForProfileOrdersByRecency(t *testing.T) {
	m, now := testManager(t)
	ctx := context.Background()

	first, _ := m.Create(ctx, "p", "")
	*now = now.Add(time.Hour)
	second, _ := m.Create(ctx, "p", "")
	*now = now.Add(time.Hour)
	_, _ = m.Create(ctx, "other", "")

	convs, err := m.ForProfile(ctx, "p")
	if err != nil {
		t.Fatalf("ForProfile error: %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("conversations = %d, want 2", len(convs))
	}
	if convs[0].ID != second.ID || convs[1].ID != first.ID {
		t.Fatalf("order = [%s %s]", convs[0].ID, convs[1].ID)
	}

	active, err := m.Active(ctx, "p")
	if err != nil || active.ID != second.ID {
		t.Fatalf("Active = %v, %v", active, err)
	}
}

func TestDeleteAndClear(t *testing.T) {
	m, now := testManager(t)
	ctx := context.Background()
	a, _ := m.Create(ctx, "p", "")
	*now = now.Add(time.Minute)
	b, _ := m.Create(ctx, "p", "")

	if err := m.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if conv, _ := m.Load(ctx, a.ID); conv != nil {
		t.Fatal("deleted conversation still loadable")
	}
	if conv, _ := m.Load(ctx, b.ID); conv == nil {
		t.Fatal("other conversation lost")
	}

	if err := m.Clear(ctx, "p"); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	convs, _ := m.ForProfile(ctx, "p")
	if len(convs) != 0 {
		t.Fatalf("Clear left %d conversations", len(convs))
	}
}

func TestEstimateTokens(t *testing.T) {
	conv := &Conversation{Turns: []Turn{
		{Role: RoleUser, Content: strings.Repeat("a", 400)},
		{Role: RoleAssistant, Content: strings.Repeat("b", 200)},
	}}
	if got := conv.EstimateTokens(); got != 150 {
		t.Fatalf("EstimateTokens = %d, want 150", got)
	}
}
