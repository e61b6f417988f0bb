// Package conversation owns multi-turn session state per user profile:
// creation, turn appends, persistence, retrieval, and token-budget-aware
// summarization of old turns.
package conversation

import (
	"fmt"
	"time"
)

// Turn roles. At most one system turn is treated as primary context.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message within a conversation.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is an ordered, append-only sequence of turns for a profile.
// Summarization is the one operation allowed to rewrite history.
type Conversation struct {
	ID          string            `json:"id"`
	ProfileID   string            `json:"profileId"`
	CreatedAt   time.Time         `json:"createdAt"`
	LastUpdated time.Time         `json:"lastUpdated"`
	Turns       []Turn            `json:"turns"`
	Metadata    map[string]string `json:"metadata"`
}

// HistoryEntry is one role/content pair suitable for replay to a provider.
type HistoryEntry struct {
	Role    string
	Content string
}

func (e HistoryEntry) String() string {
	return fmt.Sprintf("%s: %s", e.Role, e.Content)
}

// newConversationID derives an id from the profile plus creation time, so
// ids stay unique per profile without coordination.
func newConversationID(profileID string, at time.Time) string {
	return fmt.Sprintf("%s_%d", profileID, at.UnixMilli())
}

// SystemContext returns the content of the first system turn, or "".
func (c *Conversation) SystemContext() string {
	for _, t := range c.Turns {
		if t.Role == RoleSystem {
			return t.Content
		}
	}
	return ""
}

// EstimateTokens is a coarse budgeting heuristic (chars / 4), not a real
// tokenizer count.
func (c *Conversation) EstimateTokens() int {
	total := 0
	for _, t := range c.Turns {
		total += len(t.Content) / 4
	}
	return total
}
