// Package roster holds the actors of one combat session.
//
// The roster owns its actors and hands out copies. Turn order is derived on
// demand from initiative and the tiebreak marker; it is never stored.
// Operations on unknown ids are no-ops so removal and edits stay idempotent.
package roster

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	apperrors "github.com/louisbranch/maze-tracker/internal/platform/errors"
	"github.com/louisbranch/maze-tracker/internal/platform/id"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/actor"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/history"
)

// Order is the primary turn-order direction.
type Order int

const (
	// Ascending lets the lowest initiative act first.
	Ascending Order = iota
	// Descending lets the highest initiative act first.
	Descending
)

// ParseOrder parses "asc" or "desc".
func ParseOrder(value string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return Ascending, fmt.Errorf("unknown turn order %q", value)
	}
}

func (o Order) String() string {
	if o == Descending {
		return "desc"
	}
	return "asc"
}

// Names supplies default labels for new actors and statuses.
type Names struct {
	Actor  func(n int) string
	Status string
}

// DefaultNames returns the English default labels.
func DefaultNames() Names {
	return Names{
		Actor:  func(n int) string { return fmt.Sprintf("New Actor %d", n) },
		Status: "New Status",
	}
}

// Option configures a Roster.
type Option func(*Roster)

// WithOrder sets the turn-order direction.
func WithOrder(order Order) Option {
	return func(r *Roster) { r.order = order }
}

// WithIDs replaces the identifier generator.
func WithIDs(newID func() string) Option {
	return func(r *Roster) {
		if newID != nil {
			r.newID = newID
		}
	}
}

// WithNames replaces the default labels.
func WithNames(names Names) Option {
	return func(r *Roster) {
		if names.Actor != nil {
			r.names.Actor = names.Actor
		}
		if names.Status != "" {
			r.names.Status = names.Status
		}
	}
}

// Roster is the set of actors in one session. It is not safe for concurrent
// use; callers serialize per session.
type Roster struct {
	actors  map[string]actor.Actor
	tick    int64
	counter int
	order   Order
	newID   func() string
	names   Names
}

// New creates an empty roster.
func New(opts ...Option) *Roster {
	r := &Roster{
		actors: map[string]actor.Actor{},
		newID:  id.New,
		names:  DefaultNames(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Order returns the configured turn-order direction.
func (r *Roster) Order() Order {
	return r.order
}

// Counter returns how many actors have been added to this session.
func (r *Roster) Counter() int {
	return r.counter
}

// Len returns the number of actors.
func (r *Roster) Len() int {
	return len(r.actors)
}

// Get returns a copy of the actor with id.
func (r *Roster) Get(actorID string) (actor.Actor, bool) {
	a, ok := r.actors[actorID]
	if !ok {
		return actor.Actor{}, false
	}
	return a.Clone(), true
}

// Draft carries the caller supplied fields of a new actor. Zero values take
// the defaults.
type Draft struct {
	Name  string
	Tier  actor.Tier
	Type  actor.Type
	MaxHP int
	Notes string
}

// Validate checks labels supplied by callers.
func (d Draft) Validate() error {
	if len(d.Name) > actor.MaxNameLength {
		return apperrors.WithMetadata(apperrors.CodeActorNameTooLong, "name too long", map[string]string{"limit": fmt.Sprint(actor.MaxNameLength)})
	}
	if d.Tier != "" {
		if _, err := actor.ParseTier(string(d.Tier)); err != nil {
			return err
		}
	}
	if d.Type != "" {
		if _, err := actor.ParseType(string(d.Type)); err != nil {
			return err
		}
	}
	return nil
}

// Add stores a new actor built from d and returns it with its log event.
func (r *Roster) Add(d Draft) (actor.Actor, []history.Event) {
	r.counter++
	a := actor.Actor{
		ID:       r.newID(),
		Name:     strings.TrimSpace(d.Name),
		HP:       actor.DefaultHP,
		MaxHP:    actor.DefaultHP,
		Notes:    d.Notes,
		Statuses: []actor.Status{},
		Tiebreak: r.nextTick(),
	}
	if a.Name == "" {
		a.Name = r.names.Actor(r.counter)
	}
	a.Tier = actor.DefaultTier
	if tier, err := actor.ParseTier(string(d.Tier)); err == nil {
		a.Tier = tier
	}
	a.Type = actor.DefaultType
	if typ, err := actor.ParseType(string(d.Type)); err == nil {
		a.Type = typ
	}
	if d.MaxHP > 0 {
		a.MaxHP = d.MaxHP
		a.HP = d.MaxHP
	}
	r.actors[a.ID] = a
	return a.Clone(), []history.Event{history.NewEvent(history.KeyActorAdded, a.Name)}
}

// Remove deletes the actor with id. Removing an unknown id does nothing and
// emits no event.
func (r *Roster) Remove(actorID string) []history.Event {
	a, ok := r.actors[actorID]
	if !ok {
		return nil
	}
	delete(r.actors, actorID)
	return []history.Event{history.NewEvent(history.KeyActorRemoved, a.Name)}
}

// Patch lists the fields to merge into an actor. Nil fields are untouched.
type Patch struct {
	Name       *string
	Tier       *actor.Tier
	Type       *actor.Type
	Initiative *int
	HP         *int
	MaxHP      *int
	Notes      *string
	Statuses   *[]actor.Status
}

// Validate checks labels supplied by callers.
func (p Patch) Validate() error {
	if p.Name != nil && len(*p.Name) > actor.MaxNameLength {
		return apperrors.WithMetadata(apperrors.CodeActorNameTooLong, "name too long", map[string]string{"limit": fmt.Sprint(actor.MaxNameLength)})
	}
	if p.Tier != nil {
		if _, err := actor.ParseTier(string(*p.Tier)); err != nil {
			return err
		}
	}
	if p.Type != nil {
		if _, err := actor.ParseType(string(*p.Type)); err != nil {
			return err
		}
	}
	return nil
}

// Update merges p into the actor with id. Tier and type labels that do not
// parse are ignored; callers run Validate first.
//
// MaxHP is applied before HP so a single patch can shrink both. Writing
// initiative refreshes the tiebreak marker, placing the actor after peers
// that reached the same value earlier.
func (r *Roster) Update(actorID string, p Patch) (actor.Actor, bool) {
	a, ok := r.actors[actorID]
	if !ok {
		return actor.Actor{}, false
	}
	a = a.Clone()
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Tier != nil {
		if tier, err := actor.ParseTier(string(*p.Tier)); err == nil {
			a.Tier = tier
		}
	}
	if p.Type != nil {
		if typ, err := actor.ParseType(string(*p.Type)); err == nil {
			a.Type = typ
		}
	}
	if p.Notes != nil {
		a.Notes = *p.Notes
	}
	if p.MaxHP != nil {
		a.SetMaxHP(*p.MaxHP)
	}
	if p.HP != nil {
		a.SetHP(*p.HP)
	}
	if p.Initiative != nil {
		a.Initiative = *p.Initiative
		a.Tiebreak = r.nextTick()
	}
	if p.Statuses != nil {
		a.Statuses = make([]actor.Status, len(*p.Statuses))
		copy(a.Statuses, *p.Statuses)
	}
	r.actors[actorID] = a
	return a.Clone(), true
}

// EditNumber applies an edit token to a numeric field. It reports false when
// the actor is unknown or the token does not parse.
func (r *Roster) EditNumber(actorID string, field actor.Field, token string) (actor.Actor, bool) {
	a, ok := r.actors[actorID]
	if !ok {
		return actor.Actor{}, false
	}
	value, ok := actor.ApplyToken(a.Value(field), token)
	if !ok {
		return a.Clone(), false
	}
	var p Patch
	switch field {
	case actor.FieldInitiative:
		p.Initiative = &value
	case actor.FieldHP:
		p.HP = &value
	case actor.FieldMaxHP:
		p.MaxHP = &value
	default:
		return a.Clone(), false
	}
	return r.Update(actorID, p)
}

// CycleType rotates the actor's classification.
func (r *Roster) CycleType(actorID string) (actor.Actor, bool) {
	a, ok := r.actors[actorID]
	if !ok {
		return actor.Actor{}, false
	}
	next := a.Type.Next()
	return r.Update(actorID, Patch{Type: &next})
}

// StatusDraft carries the caller supplied fields of a new status.
type StatusDraft struct {
	Name     string
	Duration *int
}

// AddStatus appends a status to the actor with id.
func (r *Roster) AddStatus(actorID string, d StatusDraft) (actor.Actor, []history.Event, bool) {
	a, ok := r.actors[actorID]
	if !ok {
		return actor.Actor{}, nil, false
	}
	status := actor.Status{
		ID:       r.newID(),
		Name:     strings.TrimSpace(d.Name),
		Duration: actor.DefaultStatusDuration,
	}
	if status.Name == "" {
		status.Name = r.names.Status
	}
	if d.Duration != nil {
		status.Duration = max(0, *d.Duration)
	}
	a = a.Clone()
	a.Statuses = append(a.Statuses, status)
	r.actors[actorID] = a
	return a.Clone(), []history.Event{history.NewEvent(history.KeyStatusAdded, a.Name)}, true
}

// StatusPatch lists the status fields to merge.
type StatusPatch struct {
	Name     *string
	Duration *int
}

// UpdateStatus merges p into one status. Durations are clamped at zero.
func (r *Roster) UpdateStatus(actorID, statusID string, p StatusPatch) (actor.Actor, bool) {
	a, ok := r.actors[actorID]
	if !ok {
		return actor.Actor{}, false
	}
	idx := a.StatusIndex(statusID)
	if idx < 0 {
		return a.Clone(), false
	}
	a = a.Clone()
	if p.Name != nil {
		a.Statuses[idx].Name = *p.Name
	}
	if p.Duration != nil {
		a.Statuses[idx].Duration = max(0, *p.Duration)
	}
	r.actors[actorID] = a
	return a.Clone(), true
}

// EditStatusDuration applies an edit token to a status duration.
func (r *Roster) EditStatusDuration(actorID, statusID, token string) (actor.Actor, bool) {
	a, ok := r.actors[actorID]
	if !ok {
		return actor.Actor{}, false
	}
	idx := a.StatusIndex(statusID)
	if idx < 0 {
		return a.Clone(), false
	}
	value, ok := actor.ApplyToken(a.Statuses[idx].Duration, token)
	if !ok {
		return a.Clone(), false
	}
	return r.UpdateStatus(actorID, statusID, StatusPatch{Duration: &value})
}

// RemoveStatus deletes one status. Unknown ids do nothing.
func (r *Roster) RemoveStatus(actorID, statusID string) (actor.Actor, bool) {
	a, ok := r.actors[actorID]
	if !ok {
		return actor.Actor{}, false
	}
	idx := a.StatusIndex(statusID)
	if idx < 0 {
		return a.Clone(), false
	}
	a = a.Clone()
	a.Statuses = slices.Delete(a.Statuses, idx, idx+1)
	r.actors[actorID] = a
	return a.Clone(), true
}

// Ordered returns copies of every actor in turn order.
func (r *Roster) Ordered() []actor.Actor {
	out := make([]actor.Actor, 0, len(r.actors))
	for _, a := range r.actors {
		out = append(out, a.Clone())
	}
	slices.SortFunc(out, r.Compare)
	return out
}

// Compare orders actors by initiative in the roster's direction, then by
// tiebreak ascending, then by id for a total order.
func (r *Roster) Compare(a, b actor.Actor) int {
	if c := cmp.Compare(a.Initiative, b.Initiative); c != 0 {
		if r.order == Descending {
			return -c
		}
		return c
	}
	if c := cmp.Compare(a.Tiebreak, b.Tiebreak); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// Clear removes every actor. The naming counter is kept.
func (r *Roster) Clear() {
	r.actors = map[string]actor.Actor{}
}

// Restore replaces the roster contents with previously stored actors.
func (r *Roster) Restore(actors []actor.Actor, counter int) {
	r.actors = make(map[string]actor.Actor, len(actors))
	for _, a := range actors {
		r.actors[a.ID] = a.Clone()
		r.tick = max(r.tick, a.Tiebreak)
	}
	r.counter = max(r.counter, counter)
}

func (r *Roster) nextTick() int64 {
	r.tick++
	return r.tick
}
