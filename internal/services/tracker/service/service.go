package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/maze-tracker/internal/core/dice"
	apperrors "github.com/louisbranch/maze-tracker/internal/platform/errors"
	"github.com/louisbranch/maze-tracker/internal/platform/i18n/catalog"
	"github.com/louisbranch/maze-tracker/internal/platform/id"
	platformotel "github.com/louisbranch/maze-tracker/internal/platform/otel"
	"github.com/louisbranch/maze-tracker/internal/platform/timeouts"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/actor"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/cycle"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/history"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/roster"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"
)

// Snapshot is the visible state of a session.
type Snapshot struct {
	SessionID string        `json:"session_id"`
	Mode      string        `json:"mode"`
	Order     string        `json:"order"`
	Actors    []actor.Actor `json:"actors"`
}

// Option configures a Service.
type Option func(*Service)

// WithDice sets the random source used for initiative rolls.
func WithDice(src dice.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.dice = src
		}
	}
}

// WithOrder sets the turn-order direction of every session.
func WithOrder(order roster.Order) Option {
	return func(s *Service) { s.order = order }
}

// WithLocale sets the locale used when a request carries none.
func WithLocale(tag language.Tag) Option {
	return func(s *Service) { s.locale = tag }
}

// WithCatalog replaces the message catalog.
func WithCatalog(bundle *catalog.Bundle) Option {
	return func(s *Service) {
		if bundle != nil {
			s.catalog = bundle
		}
	}
}

// WithClock replaces the wall clock used for log timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDs replaces the identifier generator for actors and statuses.
func WithIDs(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// Service serves combat sessions backed by a store.
type Service struct {
	store   storage.Store
	dice    dice.Source
	catalog *catalog.Bundle
	order   roster.Order
	locale  language.Tag
	now     func() time.Time
	newID   func() string
	tracer  trace.Tracer
	hub     *hub

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	mu      sync.Mutex
	id      string
	loaded  bool
	created time.Time
	roster  *roster.Roster
	engine  cycle.Engine
	log     history.Log
}

// New builds a service over store.
func New(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		dice:     dice.NewSource(time.Now().UnixNano()),
		catalog:  catalog.Default(),
		locale:   language.MustParse(catalog.BaseLocale),
		now:      time.Now,
		newID:    id.New,
		tracer:   platformotel.Tracer(),
		hub:      newHub(),
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type localeKey struct{}

// ContextWithLocale returns a context that renders messages in tag.
func ContextWithLocale(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, localeKey{}, tag)
}

// LocaleFromContext returns the locale stored by ContextWithLocale.
func LocaleFromContext(ctx context.Context) (language.Tag, bool) {
	tag, ok := ctx.Value(localeKey{}).(language.Tag)
	return tag, ok
}

func (s *Service) localizer(ctx context.Context) *catalog.Localizer {
	if tag, ok := LocaleFromContext(ctx); ok {
		return s.catalog.Localizer(tag)
	}
	return s.catalog.Localizer(s.locale)
}

// CreateSession allocates a new session id and stores its metadata.
func (s *Service) CreateSession(ctx context.Context) (string, error) {
	sessionID, err := id.NewSessionID()
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	if _, err := s.session(ctx, sessionID); err != nil {
		return "", err
	}
	return sessionID, nil
}

// Subscribe registers for live updates of a session. The returned channel
// starts with a snapshot and is closed by cancel.
func (s *Service) Subscribe(ctx context.Context, sessionID string) (<-chan Update, func(), error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sub, cancel := s.hub.subscribe(sess.id)
	snapshot := s.snapshotLocked(sess)
	sub.updates <- Update{Kind: UpdateSnapshot, SessionID: sess.id, Snapshot: &snapshot}
	return sub.updates, cancel, nil
}

// Snapshot returns the ordered roster and mode of a session.
func (s *Service) Snapshot(ctx context.Context, sessionID string) (Snapshot, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.snapshotLocked(sess), nil
}

// GetActor returns one actor of a session.
func (s *Service) GetActor(ctx context.Context, sessionID, actorID string) (actor.Actor, bool, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return actor.Actor{}, false, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	a, ok := sess.roster.Get(actorID)
	return a, ok, nil
}

// Logs returns up to limit history entries newest first. A limit of zero or
// less returns everything.
func (s *Service) Logs(ctx context.Context, sessionID string, limit int) ([]history.Entry, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	entries := make([]history.Entry, 0, min(sess.log.Len(), max(limit, 0)))
	for entry := range sess.log.List() {
		if limit > 0 && len(entries) == limit {
			break
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ListActors returns the actors of a session in turn order. A non-empty
// AIP-160 filter is evaluated by the store.
func (s *Service) ListActors(ctx context.Context, sessionID, filter string) ([]actor.Actor, error) {
	ctx, span := s.startSpan(ctx, "ListActors", sessionID)
	defer span.End()

	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, endSpan(span, err)
	}
	if strings.TrimSpace(filter) == "" {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		return sess.roster.Ordered(), nil
	}

	storeCtx, cancel := context.WithTimeout(ctx, timeouts.StoreOp)
	defer cancel()
	actors, err := s.store.ListActors(storeCtx, sessionID, filter)
	if err != nil {
		return nil, endSpan(span, err)
	}
	sess.mu.Lock()
	compare := sess.roster.Compare
	sess.mu.Unlock()
	slices.SortFunc(actors, compare)
	return actors, nil
}

func (s *Service) snapshotLocked(sess *session) Snapshot {
	return Snapshot{
		SessionID: sess.id,
		Mode:      sess.engine.Mode.String(),
		Order:     sess.roster.Order().String(),
		Actors:    sess.roster.Ordered(),
	}
}

// session returns the loaded session for id, reading it from the store on
// first use.
func (s *Service) session(ctx context.Context, sessionID string) (*session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperrors.New(apperrors.CodeSessionIDEmpty, "session id is required")
	}
	if strings.ContainsAny(sessionID, "/?#") {
		return nil, apperrors.WithMetadata(apperrors.CodeSessionIDInvalid, "invalid session id", map[string]string{"session_id": sessionID})
	}

	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{id: sessionID}
		s.sessions[sessionID] = sess
	}
	s.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.loaded {
		return sess, nil
	}
	if err := s.load(ctx, sess); err != nil {
		return nil, err
	}
	sess.loaded = true
	return sess, nil
}

func (s *Service) load(ctx context.Context, sess *session) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.StoreOp)
	defer cancel()

	record, err := s.store.GetSession(ctx, sess.id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		now := s.now().UTC()
		record = storage.SessionRecord{ID: sess.id, CreatedAt: now, UpdatedAt: now}
		if err := s.store.PutSession(ctx, record); err != nil {
			return apperrors.Wrap(apperrors.CodeUnavailable, "create session", err)
		}
	case err != nil:
		return apperrors.Wrap(apperrors.CodeReadFailed, "load session", err)
	}

	actors, err := s.store.ListActors(ctx, sess.id, "")
	if err != nil {
		return apperrors.Wrap(apperrors.CodeReadFailed, "load actors", err)
	}
	entries, err := s.store.ListLogs(ctx, sess.id, 0)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeReadFailed, "load logs", err)
	}
	slices.Reverse(entries)

	sess.created = record.CreatedAt
	sess.roster = roster.New(roster.WithOrder(s.order), roster.WithIDs(s.newID))
	sess.roster.Restore(actors, record.ActorCounter)
	sess.log.Restore(entries)
	return nil
}

// record renders events, appends them to the session log and notifies
// subscribers. The caller persists the returned entries.
func (s *Service) record(ctx context.Context, sess *session, events []history.Event) []history.Entry {
	if len(events) == 0 {
		return nil
	}
	loc := s.localizer(ctx)
	now := s.now()
	entries := make([]history.Entry, 0, len(events))
	for _, event := range events {
		entry := sess.log.Append(history.Render(loc, event), now)
		entries = append(entries, entry)
		s.hub.publish(Update{Kind: UpdateLog, SessionID: sess.id, Entry: &entry})
	}
	return entries
}

func (s *Service) publishSnapshot(sess *session) {
	snapshot := s.snapshotLocked(sess)
	s.hub.publish(Update{Kind: UpdateSnapshot, SessionID: sess.id, Snapshot: &snapshot})
}

// persist runs write against the store. A failure becomes a WriteError that
// is logged, published and returned. Session state is not rolled back.
func (s *Service) persist(ctx context.Context, sess *session, op storage.Operation, path string, payload any, write func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.StoreOp)
	defer cancel()

	err := write(ctx)
	if err == nil {
		return nil
	}
	writeErr := &storage.WriteError{Path: path, Operation: op, Payload: payload, Err: err}
	log.Printf("session %s: write rejected: %v", sess.id, writeErr)
	s.hub.publish(Update{Kind: UpdateWriteError, SessionID: sess.id, WriteError: writeErr})
	return apperrors.Wrap(apperrors.CodeWriteFailed, "persist "+path, writeErr)
}

func (s *Service) persistLogs(ctx context.Context, sess *session, entries []history.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	return s.persist(ctx, sess, storage.OperationCreate, storage.LogsPath(sess.id), entries, func(ctx context.Context) error {
		return s.store.AppendLogs(ctx, sess.id, entries...)
	})
}

func (s *Service) persistActor(ctx context.Context, sess *session, op storage.Operation, a actor.Actor) error {
	return s.persist(ctx, sess, op, storage.ActorPath(sess.id, a.ID), a, func(ctx context.Context) error {
		return s.store.PutActor(ctx, sess.id, a)
	})
}

func (s *Service) startSpan(ctx context.Context, name, sessionID string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "tracker."+name, trace.WithAttributes(attribute.String("tracker.session_id", sessionID)))
}

func endSpan(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
