// Package history records the human-readable event log of a combat session.
//
// Domain operations emit Events (a catalog key plus arguments). The session
// renders them through a Formatter for its locale and appends the rendered
// text to a Log. Entries are immutable and only disappear when the whole
// session is cleared.
package history

import (
	"fmt"
	"iter"
	"time"
)

// Event keys emitted by the roster and cycle engine.
const (
	KeyActorAdded     = "tracker.log.actor_added"
	KeyActorRemoved   = "tracker.log.actor_removed"
	KeyStatusAdded    = "tracker.log.status_added"
	KeyRollAll        = "tracker.log.roll_all"
	KeyActorRolled    = "tracker.log.actor_rolled"
	KeyCycleAdvanced  = "tracker.log.cycle_advanced"
	KeyStatusExpired  = "tracker.log.status_expired"
	KeySessionCleared = "tracker.log.session_cleared"
)

// Event is an unrendered log message.
type Event struct {
	Key  string
	Args []any
}

// NewEvent builds an event for key.
func NewEvent(key string, args ...any) Event {
	return Event{Key: key, Args: args}
}

// Formatter renders catalog keys.
type Formatter interface {
	Format(key string, args ...any) string
}

// Render returns the message for e using f. Without a formatter the key and
// arguments are printed as-is.
func Render(f Formatter, e Event) string {
	if f == nil {
		if len(e.Args) == 0 {
			return e.Key
		}
		return fmt.Sprint(append([]any{e.Key, " "}, e.Args...)...)
	}
	return f.Format(e.Key, e.Args...)
}

// Entry is one immutable log line.
type Entry struct {
	Sequence  int64     `json:"sequence"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Log is an append-only, in-memory history. It is not safe for concurrent
// use; sessions serialize access.
type Log struct {
	entries []Entry
	next    int64
}

// Append records message at the given time and returns the stored entry.
func (l *Log) Append(message string, at time.Time) Entry {
	l.next++
	entry := Entry{Sequence: l.next, Message: message, CreatedAt: at.UTC()}
	l.entries = append(l.entries, entry)
	return entry
}

// List yields entries newest first. Each call walks the current contents.
func (l *Log) List() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for i := len(l.entries) - 1; i >= 0; i-- {
			if !yield(l.entries[i]) {
				return
			}
		}
	}
}

// Len returns the number of entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// Clear removes every entry. Sequences keep increasing afterwards.
func (l *Log) Clear() {
	l.entries = nil
}

// Restore replaces the contents with entries given oldest first.
func (l *Log) Restore(entries []Entry) {
	l.entries = append([]Entry(nil), entries...)
	for _, entry := range entries {
		l.next = max(l.next, entry.Sequence)
	}
}

// LastSequence returns the highest sequence handed out so far.
func (l *Log) LastSequence() int64 {
	return l.next
}
