package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PostgresStore persists conversations in a single table with the turn
// list and metadata as JSONB columns. Schema lives in migrations/.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	if db == nil {
		panic("conversation: db is required")
	}
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, conv *Conversation) error {
	turns, err := json.Marshal(conv.Turns)
	if err != nil {
		return fmt.Errorf("conversation: marshal turns %s: %w", conv.ID, err)
	}
	metadata, err := json.Marshal(conv.Metadata)
	if err != nil {
		return fmt.Errorf("conversation: marshal metadata %s: %w", conv.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, profile_id, created_at, last_updated, turns, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET last_updated = EXCLUDED.last_updated,
		    turns = EXCLUDED.turns,
		    metadata = EXCLUDED.metadata`,
		conv.ID, conv.ProfileID, conv.CreatedAt, conv.LastUpdated, turns, metadata)
	if err != nil {
		return fmt.Errorf("conversation: save %s: %w", conv.ID, err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, id string) (*Conversation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, profile_id, created_at, last_updated, turns, metadata
		FROM conversations WHERE id = $1`, id)
	conv, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("conversation: load %s: %w", id, err)
	}
	return conv, nil
}

func (s *PostgresStore) List(ctx context.Context, profileID string) ([]*Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, profile_id, created_at, last_updated, turns, metadata
		FROM conversations WHERE profile_id = $1
		ORDER BY last_updated DESC`, profileID)
	if err != nil {
		return nil, fmt.Errorf("conversation: list profile %s: %w", profileID, err)
	}
	defer rows.Close()

	var out []*Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("conversation: scan profile %s: %w", profileID, err)
		}
		out = append(out, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conversation: list profile %s: %w", profileID, err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("conversation: delete %s: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, profileID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE profile_id = $1`, profileID); err != nil {
		return fmt.Errorf("conversation: clear profile %s: %w", profileID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*Conversation, error) {
	var (
		conv     Conversation
		created  time.Time
		updated  time.Time
		turns    []byte
		metadata []byte
	)
	if err := row.Scan(&conv.ID, &conv.ProfileID, &created, &updated, &turns, &metadata); err != nil {
		return nil, err
	}
	conv.CreatedAt = created
	conv.LastUpdated = updated
	if err := json.Unmarshal(turns, &conv.Turns); err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &conv.Metadata); err != nil {
			return nil, err
		}
	}
	if conv.Metadata == nil {
		conv.Metadata = map[string]string{}
	}
	return &conv, nil
}
