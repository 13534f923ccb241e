package service

import (
	"context"

	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/actor"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/cycle"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/history"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/storage"
)

// RollAll rolls initiative for every actor. All actor writes and log lines
// are stored in one batch.
func (s *Service) RollAll(ctx context.Context, sessionID string) ([]history.Entry, error) {
	return s.bulk(ctx, "RollAll", sessionID, func(sess *session) cycle.Result {
		return sess.engine.RollAll(sess.roster, s.dice)
	})
}

// NextCycle advances the session by one round. All actor writes and log
// lines are stored in one batch.
func (s *Service) NextCycle(ctx context.Context, sessionID string) ([]history.Entry, error) {
	return s.bulk(ctx, "NextCycle", sessionID, func(sess *session) cycle.Result {
		return sess.engine.NextCycle(sess.roster)
	})
}

func (s *Service) bulk(ctx context.Context, name, sessionID string, run func(*session) cycle.Result) ([]history.Entry, error) {
	ctx, span := s.startSpan(ctx, name, sessionID)
	defer span.End()

	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, endSpan(span, err)
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	result := run(sess)
	if len(result.Events) == 0 && len(result.Changes) == 0 {
		return nil, nil
	}
	entries := s.record(ctx, sess, result.Events)
	s.publishSnapshot(sess)

	batch := storage.Batch{AppendLogs: entries}
	for _, change := range result.Changes {
		batch.PutActors = append(batch.PutActors, change.Actor)
	}
	err = s.persist(ctx, sess, storage.OperationBatch, storage.ActorsPath(sess.id), batchPayload(batch.PutActors), func(ctx context.Context) error {
		return s.store.ApplyBatch(ctx, sess.id, batch)
	})
	return entries, endSpan(span, err)
}

// ClearAll removes every actor and log line of the session in one store
// transaction. The clear entry is returned and published before the wipe,
// so it is seen live but is not kept in the log.
func (s *Service) ClearAll(ctx context.Context, sessionID string) ([]history.Entry, error) {
	ctx, span := s.startSpan(ctx, "ClearAll", sessionID)
	defer span.End()

	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, endSpan(span, err)
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	result := sess.engine.ClearAll(sess.roster)
	entries := s.record(ctx, sess, result.Events)
	sess.log.Clear()
	s.publishSnapshot(sess)

	err = s.persist(ctx, sess, storage.OperationDelete, storage.SessionPath(sess.id), nil, func(ctx context.Context) error {
		return s.store.ClearSession(ctx, sess.id)
	})
	return entries, endSpan(span, err)
}

// batchPayload summarizes a batch for write error reports.
func batchPayload(actors []actor.Actor) map[string]any {
	ids := make([]string, 0, len(actors))
	for _, a := range actors {
		ids = append(ids, a.ID)
	}
	return map[string]any{"actor_ids": ids}
}
