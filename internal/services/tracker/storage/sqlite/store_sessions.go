package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/louisbranch/maze-tracker/internal/services/tracker/storage"
)

// GetSession fetches session metadata by id.
func (s *Store) GetSession(ctx context.Context, sessionID string) (storage.SessionRecord, error) {
	if err := s.ready(ctx, sessionID); err != nil {
		return storage.SessionRecord{}, err
	}

	var (
		rec       storage.SessionRecord
		createdAt int64
		updatedAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT id, actor_counter, created_at, updated_at
FROM sessions
WHERE id = ?
`, sessionID).Scan(&rec.ID, &rec.ActorCounter, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.SessionRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.SessionRecord{}, fmt.Errorf("get session: %w", err)
	}
	rec.CreatedAt = fromMillis(createdAt)
	rec.UpdatedAt = fromMillis(updatedAt)
	return rec, nil
}

// PutSession inserts or updates session metadata.
func (s *Store) PutSession(ctx context.Context, record storage.SessionRecord) error {
	if err := s.ready(ctx, record.ID); err != nil {
		return err
	}
	return putSession(ctx, s.sqlDB, record)
}

func putSession(ctx context.Context, db execer, record storage.SessionRecord) error {
	_, err := db.ExecContext(ctx, `
INSERT INTO sessions (id, actor_counter, created_at, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	actor_counter = excluded.actor_counter,
	updated_at = excluded.updated_at
`,
		record.ID,
		record.ActorCounter,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}
