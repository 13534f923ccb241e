package service

import (
	"log"
	"sync"

	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/history"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/storage"
)

const subscriberBuffer = 64

// UpdateKind names the payload of an Update.
type UpdateKind string

const (
	UpdateSnapshot   UpdateKind = "snapshot"
	UpdateLog        UpdateKind = "log"
	UpdateWriteError UpdateKind = "write_error"
)

// Update is one live notification for a session.
type Update struct {
	Kind       UpdateKind          `json:"type"`
	SessionID  string              `json:"session_id"`
	Snapshot   *Snapshot           `json:"snapshot,omitempty"`
	Entry      *history.Entry      `json:"entry,omitempty"`
	WriteError *storage.WriteError `json:"write_error,omitempty"`
}

type subscriber struct {
	updates chan Update
}

// hub fans session updates out to subscribers. A slow subscriber never
// blocks the session: log and write_error updates are dropped when its buffer
// is full, while a snapshot evicts the oldest queued update so the subscriber
// always ends up with the latest roster.
type hub struct {
	mu       sync.Mutex
	sessions map[string]map[*subscriber]struct{}
}

func newHub() *hub {
	return &hub{sessions: make(map[string]map[*subscriber]struct{})}
}

func (h *hub) subscribe(sessionID string) (*subscriber, func()) {
	sub := &subscriber{updates: make(chan Update, subscriberBuffer)}

	h.mu.Lock()
	subs, ok := h.sessions[sessionID]
	if !ok {
		subs = make(map[*subscriber]struct{})
		h.sessions[sessionID] = subs
	}
	subs[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if subs, ok := h.sessions[sessionID]; ok {
				delete(subs, sub)
				if len(subs) == 0 {
					delete(h.sessions, sessionID)
				}
			}
			h.mu.Unlock()
			close(sub.updates)
		})
	}
	return sub, cancel
}

func (h *hub) publish(update Update) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.sessions[update.SessionID] {
		select {
		case sub.updates <- update:
			continue
		default:
		}
		if update.Kind != UpdateSnapshot {
			log.Printf("session %s: subscriber buffer full, dropping %s update", update.SessionID, update.Kind)
			continue
		}
		select {
		case dropped := <-sub.updates:
			log.Printf("session %s: subscriber buffer full, dropping queued %s update", update.SessionID, dropped.Kind)
		default:
		}
		select {
		case sub.updates <- update:
		default:
			log.Printf("session %s: subscriber buffer full, dropping snapshot", update.SessionID)
		}
	}
}

func (h *hub) subscriberCount(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions[sessionID])
}
