package service

import (
	"context"
	"strings"

	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/actor"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/history"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/roster"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/storage"
)

// AddActor adds an actor built from draft.
func (s *Service) AddActor(ctx context.Context, sessionID string, draft roster.Draft) (actor.Actor, error) {
	ctx, span := s.startSpan(ctx, "AddActor", sessionID)
	defer span.End()

	if err := draft.Validate(); err != nil {
		return actor.Actor{}, endSpan(span, err)
	}
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return actor.Actor{}, endSpan(span, err)
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if strings.TrimSpace(draft.Name) == "" {
		draft.Name = s.localizer(ctx).Format("tracker.actor.default_name", sess.roster.Counter()+1)
	}
	a, events := sess.roster.Add(draft)
	entries := s.record(ctx, sess, events)
	s.publishSnapshot(sess)

	if err := s.persistActor(ctx, sess, storage.OperationSet, a); err != nil {
		return a, endSpan(span, err)
	}
	now := s.now().UTC()
	counter := storage.SessionRecord{ID: sess.id, ActorCounter: sess.roster.Counter(), CreatedAt: sess.created, UpdatedAt: now}
	if err := s.persist(ctx, sess, storage.OperationUpdate, storage.SessionPath(sess.id), counter, func(ctx context.Context) error {
		return s.store.PutSession(ctx, counter)
	}); err != nil {
		return a, endSpan(span, err)
	}
	return a, endSpan(span, s.persistLogs(ctx, sess, entries))
}

// RemoveActor deletes an actor. Removing an unknown actor is a no-op.
func (s *Service) RemoveActor(ctx context.Context, sessionID, actorID string) error {
	ctx, span := s.startSpan(ctx, "RemoveActor", sessionID)
	defer span.End()

	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return endSpan(span, err)
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	events := sess.roster.Remove(actorID)
	if len(events) == 0 {
		return nil
	}
	entries := s.record(ctx, sess, events)
	s.publishSnapshot(sess)

	if err := s.persist(ctx, sess, storage.OperationDelete, storage.ActorPath(sess.id, actorID), nil, func(ctx context.Context) error {
		return s.store.DeleteActor(ctx, sess.id, actorID)
	}); err != nil {
		return endSpan(span, err)
	}
	return endSpan(span, s.persistLogs(ctx, sess, entries))
}

// UpdateActor merges patch into an actor. It reports false, without error,
// when the actor does not exist.
func (s *Service) UpdateActor(ctx context.Context, sessionID, actorID string, patch roster.Patch) (actor.Actor, bool, error) {
	if err := patch.Validate(); err != nil {
		return actor.Actor{}, false, err
	}
	return s.mutateActor(ctx, "UpdateActor", sessionID, func(r *roster.Roster) (actor.Actor, bool, []history.Event) {
		a, ok := r.Update(actorID, patch)
		return a, ok, nil
	})
}

// EditActorField applies an edit token ("+5", "-3", "8") to a numeric
// field. A token that does not parse leaves the actor unchanged and reports
// false without error.
func (s *Service) EditActorField(ctx context.Context, sessionID, actorID string, field actor.Field, token string) (actor.Actor, bool, error) {
	return s.mutateActor(ctx, "EditActorField", sessionID, func(r *roster.Roster) (actor.Actor, bool, []history.Event) {
		a, ok := r.EditNumber(actorID, field, token)
		return a, ok, nil
	})
}

// CycleActorType rotates an actor's classification.
func (s *Service) CycleActorType(ctx context.Context, sessionID, actorID string) (actor.Actor, bool, error) {
	return s.mutateActor(ctx, "CycleActorType", sessionID, func(r *roster.Roster) (actor.Actor, bool, []history.Event) {
		a, ok := r.CycleType(actorID)
		return a, ok, nil
	})
}

// AddStatus attaches a status to an actor.
func (s *Service) AddStatus(ctx context.Context, sessionID, actorID string, draft roster.StatusDraft) (actor.Actor, bool, error) {
	if strings.TrimSpace(draft.Name) == "" {
		draft.Name = s.localizer(ctx).Format("tracker.status.default_name")
	}
	return s.mutateActor(ctx, "AddStatus", sessionID, func(r *roster.Roster) (actor.Actor, bool, []history.Event) {
		a, events, ok := r.AddStatus(actorID, draft)
		return a, ok, events
	})
}

// UpdateStatus merges patch into one status of an actor.
func (s *Service) UpdateStatus(ctx context.Context, sessionID, actorID, statusID string, patch roster.StatusPatch) (actor.Actor, bool, error) {
	return s.mutateActor(ctx, "UpdateStatus", sessionID, func(r *roster.Roster) (actor.Actor, bool, []history.Event) {
		a, ok := r.UpdateStatus(actorID, statusID, patch)
		return a, ok, nil
	})
}

// EditStatusDuration applies an edit token to a status duration.
func (s *Service) EditStatusDuration(ctx context.Context, sessionID, actorID, statusID, token string) (actor.Actor, bool, error) {
	return s.mutateActor(ctx, "EditStatusDuration", sessionID, func(r *roster.Roster) (actor.Actor, bool, []history.Event) {
		a, ok := r.EditStatusDuration(actorID, statusID, token)
		return a, ok, nil
	})
}

// RemoveStatus deletes one status from an actor.
func (s *Service) RemoveStatus(ctx context.Context, sessionID, actorID, statusID string) (actor.Actor, bool, error) {
	return s.mutateActor(ctx, "RemoveStatus", sessionID, func(r *roster.Roster) (actor.Actor, bool, []history.Event) {
		a, ok := r.RemoveStatus(actorID, statusID)
		return a, ok, nil
	})
}

// mutateActor runs one per-actor edit under the session lock and writes the
// actor back when the edit applied.
func (s *Service) mutateActor(ctx context.Context, name, sessionID string, edit func(*roster.Roster) (actor.Actor, bool, []history.Event)) (actor.Actor, bool, error) {
	ctx, span := s.startSpan(ctx, name, sessionID)
	defer span.End()

	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return actor.Actor{}, false, endSpan(span, err)
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	a, applied, events := edit(sess.roster)
	if !applied {
		return a, false, nil
	}
	entries := s.record(ctx, sess, events)
	s.publishSnapshot(sess)

	if err := s.persistActor(ctx, sess, storage.OperationUpdate, a); err != nil {
		return a, true, endSpan(span, err)
	}
	return a, true, endSpan(span, s.persistLogs(ctx, sess, entries))
}
