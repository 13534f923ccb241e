package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/maze-tracker/internal/platform/errors"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/core/filter"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/actor"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/storage"
)

const actorColumns = `id, name, tier, initiative, actor_type, hp, max_hp, notes, statuses_json, tiebreak`

// PutActor inserts or replaces one actor.
func (s *Store) PutActor(ctx context.Context, sessionID string, a actor.Actor) error {
	if err := s.ready(ctx, sessionID); err != nil {
		return err
	}
	return putActor(ctx, s.sqlDB, sessionID, a, s.now())
}

func putActor(ctx context.Context, db execer, sessionID string, a actor.Actor, now time.Time) error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("actor id is required")
	}
	statuses, err := encodeStatuses(a.Statuses)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
INSERT INTO actors (
	session_id, id, name, tier, initiative, actor_type, hp, max_hp, notes, statuses_json, tiebreak, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(session_id, id) DO UPDATE SET
	name = excluded.name,
	tier = excluded.tier,
	initiative = excluded.initiative,
	actor_type = excluded.actor_type,
	hp = excluded.hp,
	max_hp = excluded.max_hp,
	notes = excluded.notes,
	statuses_json = excluded.statuses_json,
	tiebreak = excluded.tiebreak,
	updated_at = excluded.updated_at
`,
		sessionID,
		a.ID,
		a.Name,
		string(a.Tier),
		a.Initiative,
		string(a.Type),
		a.HP,
		a.MaxHP,
		a.Notes,
		statuses,
		a.Tiebreak,
		toMillis(now),
	)
	if err != nil {
		return fmt.Errorf("put actor: %w", err)
	}
	return nil
}

// GetActor fetches one actor.
func (s *Store) GetActor(ctx context.Context, sessionID, actorID string) (actor.Actor, error) {
	if err := s.ready(ctx, sessionID); err != nil {
		return actor.Actor{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+actorColumns+` FROM actors WHERE session_id = ? AND id = ?`,
		sessionID, actorID,
	)
	a, err := scanActor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return actor.Actor{}, storage.ErrNotFound
	}
	if err != nil {
		return actor.Actor{}, fmt.Errorf("get actor: %w", err)
	}
	return a, nil
}

// DeleteActor removes one actor. Missing actors are not an error.
func (s *Store) DeleteActor(ctx context.Context, sessionID, actorID string) error {
	if err := s.ready(ctx, sessionID); err != nil {
		return err
	}
	return deleteActor(ctx, s.sqlDB, sessionID, actorID)
}

func deleteActor(ctx context.Context, db execer, sessionID, actorID string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM actors WHERE session_id = ? AND id = ?`, sessionID, actorID); err != nil {
		return fmt.Errorf("delete actor: %w", err)
	}
	return nil
}

// ListActors returns actors of a session matching an AIP-160 filter.
func (s *Store) ListActors(ctx context.Context, sessionID string, filterStr string) ([]actor.Actor, error) {
	if err := s.ready(ctx, sessionID); err != nil {
		return nil, err
	}
	cond, err := filter.ParseActorFilter(filterStr)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidFilter, "invalid actor filter", err)
	}

	query := `SELECT ` + actorColumns + ` FROM actors WHERE session_id = ?`
	params := []any{sessionID}
	if !cond.Empty() {
		query += ` AND ` + cond.Clause
		params = append(params, cond.Params...)
	}
	query += ` ORDER BY tiebreak, id`

	rows, err := s.sqlDB.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("list actors: %w", err)
	}
	defer rows.Close()

	actors := []actor.Actor{}
	for rows.Next() {
		a, err := scanActor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan actor: %w", err)
		}
		actors = append(actors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate actors: %w", err)
	}
	return actors, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActor(row rowScanner) (actor.Actor, error) {
	var (
		a           actor.Actor
		tier        string
		actorType   string
		statusesRaw string
	)
	if err := row.Scan(
		&a.ID,
		&a.Name,
		&tier,
		&a.Initiative,
		&actorType,
		&a.HP,
		&a.MaxHP,
		&a.Notes,
		&statusesRaw,
		&a.Tiebreak,
	); err != nil {
		return actor.Actor{}, err
	}
	statuses, err := decodeStatuses(statusesRaw)
	if err != nil {
		return actor.Actor{}, err
	}
	a.Tier = actor.Tier(tier)
	a.Type = actor.Type(actorType)
	a.Statuses = statuses
	return a, nil
}
