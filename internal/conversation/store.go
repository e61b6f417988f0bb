package conversation

import "context"

// Store is the persistence contract: one durable record per conversation,
// keyed by id. Load returns (nil, nil) on a miss so read paths can treat
// absence as a recoverable state rather than an error.
type Store interface {
	Save(ctx context.Context, conv *Conversation) error
	Load(ctx context.Context, id string) (*Conversation, error)
	List(ctx context.Context, profileID string) ([]*Conversation, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context, profileID string) error
}
