// Package storage defines the persistence contract for combat sessions.
//
// A session owns two sibling collections: actors keyed by session and id, and
// an append-only log read newest first. Bulk cycle operations land through
// ApplyBatch so every actor write and log line of one operation commits
// together or not at all.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/actor"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/history"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// SessionRecord stores per-session metadata.
type SessionRecord struct {
	ID           string
	ActorCounter int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Batch groups writes that must commit atomically.
type Batch struct {
	Session      *SessionRecord
	PutActors    []actor.Actor
	DeleteActors []string
	AppendLogs   []history.Entry
}

// Empty reports whether the batch carries no writes.
func (b Batch) Empty() bool {
	return b.Session == nil && len(b.PutActors) == 0 && len(b.DeleteActors) == 0 && len(b.AppendLogs) == 0
}

// SessionStore persists session metadata.
type SessionStore interface {
	GetSession(ctx context.Context, sessionID string) (SessionRecord, error)
	PutSession(ctx context.Context, record SessionRecord) error
}

// ActorStore persists actors of a session.
type ActorStore interface {
	PutActor(ctx context.Context, sessionID string, a actor.Actor) error
	GetActor(ctx context.Context, sessionID, actorID string) (actor.Actor, error)
	// DeleteActor is idempotent.
	DeleteActor(ctx context.Context, sessionID, actorID string) error
	// ListActors returns actors matching an AIP-160 filter, in tiebreak order.
	ListActors(ctx context.Context, sessionID string, filter string) ([]actor.Actor, error)
}

// LogStore persists the session history.
type LogStore interface {
	AppendLogs(ctx context.Context, sessionID string, entries ...history.Entry) error
	// ListLogs returns up to limit entries newest first. A limit of zero or
	// less returns every entry.
	ListLogs(ctx context.Context, sessionID string, limit int) ([]history.Entry, error)
}

// BatchStore applies multi-record writes atomically.
type BatchStore interface {
	ApplyBatch(ctx context.Context, sessionID string, batch Batch) error
	// ClearSession deletes every actor and log entry of the session in one
	// transaction. Session metadata is kept.
	ClearSession(ctx context.Context, sessionID string) error
}

// Store is the full persistence collaborator.
type Store interface {
	SessionStore
	ActorStore
	LogStore
	BatchStore
	Close() error
}

// Operation names the kind of write that failed.
type Operation string

const (
	OperationSet    Operation = "set"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
	OperationBatch  Operation = "batch"
	OperationCreate Operation = "create"
)

// WriteError reports a rejected write with enough context to display it.
type WriteError struct {
	Path      string    `json:"path"`
	Operation Operation `json:"operation"`
	Payload   any       `json:"request_resource_data,omitempty"`
	Err       error     `json:"-"`
}

func (e *WriteError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s rejected", e.Operation, e.Path)
	}
	return fmt.Sprintf("%s %s: %v", e.Operation, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// SessionPath returns the document path of a session.
func SessionPath(sessionID string) string {
	return "sessions/" + sessionID
}

// ActorsPath returns the collection path of a session's actors.
func ActorsPath(sessionID string) string {
	return SessionPath(sessionID) + "/actors"
}

// ActorPath returns the document path of one actor.
func ActorPath(sessionID, actorID string) string {
	return ActorsPath(sessionID) + "/" + actorID
}

// LogsPath returns the collection path of a session's log.
func LogsPath(sessionID string) string {
	return SessionPath(sessionID) + "/logs"
}
