package sqlite

import (
	"context"
	"fmt"

	"github.com/louisbranch/maze-tracker/internal/services/tracker/storage"
)

// ApplyBatch commits every write of batch in one transaction.
func (s *Store) ApplyBatch(ctx context.Context, sessionID string, batch storage.Batch) error {
	if err := s.ready(ctx, sessionID); err != nil {
		return err
	}
	if batch.Empty() {
		return nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	now := s.now()
	if batch.Session != nil {
		if err := putSession(ctx, tx, *batch.Session); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	for _, a := range batch.PutActors {
		if err := putActor(ctx, tx, sessionID, a, now); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	for _, actorID := range batch.DeleteActors {
		if err := deleteActor(ctx, tx, sessionID, actorID); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	for _, entry := range batch.AppendLogs {
		if err := appendLog(ctx, tx, sessionID, entry); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// ClearSession removes every actor and log entry of a session atomically.
func (s *Store) ClearSession(ctx context.Context, sessionID string) error {
	if err := s.ready(ctx, sessionID); err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM actors WHERE session_id = ?`, sessionID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear actors: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM logs WHERE session_id = ?`, sessionID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear logs: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear: %w", err)
	}
	return nil
}
