package sqlite

import (
	"context"
	"fmt"

	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/history"
)

// AppendLogs stores log entries. Entries are immutable; re-appending a
// sequence is ignored.
func (s *Store) AppendLogs(ctx context.Context, sessionID string, entries ...history.Entry) error {
	if err := s.ready(ctx, sessionID); err != nil {
		return err
	}
	for _, entry := range entries {
		if err := appendLog(ctx, s.sqlDB, sessionID, entry); err != nil {
			return err
		}
	}
	return nil
}

func appendLog(ctx context.Context, db execer, sessionID string, entry history.Entry) error {
	_, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO logs (session_id, seq, message, created_at)
VALUES (?, ?, ?, ?)
`,
		sessionID,
		entry.Sequence,
		entry.Message,
		toMillis(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

// ListLogs returns log entries newest first.
func (s *Store) ListLogs(ctx context.Context, sessionID string, limit int) ([]history.Entry, error) {
	if err := s.ready(ctx, sessionID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT seq, message, created_at
FROM logs
WHERE session_id = ?
ORDER BY seq DESC
LIMIT ?
`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()

	entries := []history.Entry{}
	for rows.Next() {
		var (
			entry     history.Entry
			createdAt int64
		)
		if err := rows.Scan(&entry.Sequence, &entry.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		entry.CreatedAt = fromMillis(createdAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate logs: %w", err)
	}
	return entries, nil
}
