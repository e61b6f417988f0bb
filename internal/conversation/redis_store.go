package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("spiritatlas/conversation")

// RedisStore keeps one JSON document per conversation plus a per-profile
// index set so List does not need a SCAN.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore builds a store. ttl of zero means records never expire.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("conversation: redis client is required")
	}
	return &RedisStore{client: client, ttl: ttl}
}

func conversationKey(id string) string { return fmt.Sprintf("conversation:%s", id) }
func profileKey(profileID string) string {
	return fmt.Sprintf("profile_conversations:%s", profileID)
}

func (s *RedisStore) Save(ctx context.Context, conv *Conversation) error {
	ctx, span := tracer.Start(ctx, "RedisStore.Save", trace.WithAttributes(attribute.String("conversation.id", conv.ID)))
	defer span.End()

	payload, err := json.Marshal(conv)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: marshal %s: %w", conv.ID, err)
	}
	if err := s.client.Set(ctx, conversationKey(conv.ID), payload, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: save %s: %w", conv.ID, err)
	}
	if err := s.client.SAdd(ctx, profileKey(conv.ProfileID), conv.ID).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: index %s: %w", conv.ID, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Conversation, error) {
	ctx, span := tracer.Start(ctx, "RedisStore.Load", trace.WithAttributes(attribute.String("conversation.id", id)))
	defer span.End()

	raw, err := s.client.Get(ctx, conversationKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: load %s: %w", id, err)
	}
	var conv Conversation
	if err := json.Unmarshal(raw, &conv); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: decode %s: %w", id, err)
	}
	return &conv, nil
}

func (s *RedisStore) List(ctx context.Context, profileID string) ([]*Conversation, error) {
	ctx, span := tracer.Start(ctx, "RedisStore.List", trace.WithAttributes(attribute.String("profile.id", profileID)))
	defer span.End()

	ids, err := s.client.SMembers(ctx, profileKey(profileID)).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: list profile %s: %w", profileID, err)
	}
	out := make([]*Conversation, 0, len(ids))
	for _, id := range ids {
		conv, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if conv == nil {
			// Expired record still in the index.
			s.client.SRem(ctx, profileKey(profileID), id)
			continue
		}
		out = append(out, conv)
	}
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "RedisStore.Delete", trace.WithAttributes(attribute.String("conversation.id", id)))
	defer span.End()

	conv, err := s.Load(ctx, id)
	if err != nil {
		return err
	}
	if conv == nil {
		return nil
	}
	if err := s.client.Del(ctx, conversationKey(id)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: delete %s: %w", id, err)
	}
	if err := s.client.SRem(ctx, profileKey(conv.ProfileID), id).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: unindex %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, profileID string) error {
	ctx, span := tracer.Start(ctx, "RedisStore.Clear", trace.WithAttributes(attribute.String("profile.id", profileID)))
	defer span.End()

	ids, err := s.client.SMembers(ctx, profileKey(profileID)).Result()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: clear profile %s: %w", profileID, err)
	}
	for _, id := range ids {
		if err := s.client.Del(ctx, conversationKey(id)).Err(); err != nil {
			span.RecordError(err)
			return fmt.Errorf("conversation: clear %s: %w", id, err)
		}
	}
	if err := s.client.Del(ctx, profileKey(profileID)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: clear index %s: %w", profileID, err)
	}
	return nil
}
