package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/net/websocket"

	apperrors "github.com/louisbranch/maze-tracker/internal/platform/errors"
)

type wsErrorFrame struct {
	Type  string       `json:"type"`
	Error errorPayload `json:"error"`
}

func (s *Server) wsHandler() http.Handler {
	return websocket.Handler(func(conn *websocket.Conn) {
		s.streamSession(conn)
	})
}

// streamSession writes every session update as one JSON frame until the
// client disconnects. Client frames are read and discarded.
func (s *Server) streamSession(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	request := conn.Request()
	ctx, cancel := context.WithCancel(request.Context())
	defer cancel()

	encoder := json.NewEncoder(conn)
	sessionID := mux.Vars(request)["session"]
	updates, unsubscribe, err := s.svc.Subscribe(ctx, sessionID)
	if err != nil {
		code := apperrors.GetCode(err)
		_ = encoder.Encode(wsErrorFrame{Type: "error", Error: errorPayload{Code: code, Message: s.message(request, code)}})
		return
	}
	defer unsubscribe()

	go func() {
		defer cancel()
		_, _ = io.Copy(io.Discard, conn)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := encoder.Encode(update); err != nil {
				log.Printf("session %s: websocket write: %v", sessionID, err)
				return
			}
		}
	}
}
