package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	apperrors "github.com/louisbranch/maze-tracker/internal/platform/errors"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/actor"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/history"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/roster"
)

// editToken accepts a JSON number or a string token such as "+5" or "-3".
type editToken string

func (t *editToken) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*t = editToken(text)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return err
	}
	*t = editToken(number.String())
	return nil
}

type addActorRequest struct {
	Name  string `json:"name"`
	Tier  string `json:"tier"`
	Type  string `json:"type"`
	MaxHP int    `json:"max_hp"`
	Notes string `json:"notes"`
}

type updateActorRequest struct {
	Name       *string    `json:"name"`
	Tier       *string    `json:"tier"`
	Type       *string    `json:"type"`
	Notes      *string    `json:"notes"`
	Initiative *editToken `json:"initiative"`
	HP         *editToken `json:"hp"`
	MaxHP      *editToken `json:"max_hp"`
}

func (req updateActorRequest) patch() (roster.Patch, bool) {
	patch := roster.Patch{Name: req.Name, Notes: req.Notes}
	if req.Tier != nil {
		tier := actor.Tier(*req.Tier)
		patch.Tier = &tier
	}
	if req.Type != nil {
		typ := actor.Type(*req.Type)
		patch.Type = &typ
	}
	return patch, req.Name != nil || req.Tier != nil || req.Type != nil || req.Notes != nil
}

type addStatusRequest struct {
	Name     string `json:"name"`
	Duration *int   `json:"duration"`
}

type updateStatusRequest struct {
	Name     *string    `json:"name"`
	Duration *editToken `json:"duration"`
}

type actorsResponse struct {
	Actors []actor.Actor `json:"actors"`
}

type entriesResponse struct {
	Entries []history.Entry `json:"entries"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := s.svc.CreateSession(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: sessionID})
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.ClearAll(r.Context(), mux.Vars(r)["session"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entriesResponse{Entries: nonNilEntries(entries)})
}

func (s *Server) handleListActors(w http.ResponseWriter, r *http.Request) {
	actors, err := s.svc.ListActors(r.Context(), mux.Vars(r)["session"], r.URL.Query().Get("filter"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if actors == nil {
		actors = []actor.Actor{}
	}
	writeJSON(w, http.StatusOK, actorsResponse{Actors: actors})
}

func (s *Server) handleAddActor(w http.ResponseWriter, r *http.Request) {
	var req addActorRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.svc.AddActor(r.Context(), mux.Vars(r)["session"], roster.Draft{
		Name:  req.Name,
		Tier:  actor.Tier(req.Tier),
		Type:  actor.Type(req.Type),
		MaxHP: req.MaxHP,
		Notes: req.Notes,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// handleUpdateActor merges labels first, then applies numeric edit tokens.
// Max HP is edited before HP so one request can shrink both. Tokens that do
// not parse leave their field unchanged.
func (s *Server) handleUpdateActor(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID, actorID := vars["session"], vars["actor"]

	var req updateActorRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	a, found, err := s.svc.GetActor(r.Context(), sessionID, actorID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !found {
		s.writeError(w, r, apperrors.New(apperrors.CodeNotFound, "actor not found"))
		return
	}

	if patch, ok := req.patch(); ok {
		if a, _, err = s.svc.UpdateActor(r.Context(), sessionID, actorID, patch); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	edits := []struct {
		field actor.Field
		token *editToken
	}{
		{actor.FieldMaxHP, req.MaxHP},
		{actor.FieldHP, req.HP},
		{actor.FieldInitiative, req.Initiative},
	}
	for _, edit := range edits {
		if edit.token == nil {
			continue
		}
		edited, applied, err := s.svc.EditActorField(r.Context(), sessionID, actorID, edit.field, string(*edit.token))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if applied {
			a = edited
		}
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleRemoveActor(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.svc.RemoveActor(r.Context(), vars["session"], vars["actor"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCycleType(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	a, found, err := s.svc.CycleActorType(r.Context(), vars["session"], vars["actor"])
	s.writeActor(w, r, http.StatusOK, a, found, err)
}

func (s *Server) handleAddStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req addStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	a, found, err := s.svc.AddStatus(r.Context(), vars["session"], vars["actor"], roster.StatusDraft{
		Name:     strings.TrimSpace(req.Name),
		Duration: req.Duration,
	})
	s.writeActor(w, r, http.StatusCreated, a, found, err)
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID, actorID, statusID := vars["session"], vars["actor"], vars["status"]

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	a, found, err := s.svc.GetActor(r.Context(), sessionID, actorID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !found || a.StatusIndex(statusID) < 0 {
		s.writeError(w, r, apperrors.New(apperrors.CodeNotFound, "status not found"))
		return
	}

	if req.Name != nil {
		if a, _, err = s.svc.UpdateStatus(r.Context(), sessionID, actorID, statusID, roster.StatusPatch{Name: req.Name}); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if req.Duration != nil {
		edited, applied, err := s.svc.EditStatusDuration(r.Context(), sessionID, actorID, statusID, string(*req.Duration))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if applied {
			a = edited
		}
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleRemoveStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if _, _, err := s.svc.RemoveStatus(r.Context(), vars["session"], vars["actor"], vars["status"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRollAll(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.RollAll(r.Context(), mux.Vars(r)["session"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entriesResponse{Entries: nonNilEntries(entries)})
}

func (s *Server) handleNextCycle(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.NextCycle(r.Context(), mux.Vars(r)["session"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entriesResponse{Entries: nonNilEntries(entries)})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.writeError(w, r, apperrors.WithMetadata(apperrors.CodeInvalidLimit, "invalid limit", map[string]string{"limit": raw}))
			return
		}
		limit = parsed
	}
	entries, err := s.svc.Logs(r.Context(), mux.Vars(r)["session"], limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entriesResponse{Entries: nonNilEntries(entries)})
}

func (s *Server) writeActor(w http.ResponseWriter, r *http.Request, status int, a actor.Actor, found bool, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !found {
		s.writeError(w, r, apperrors.New(apperrors.CodeNotFound, "actor not found"))
		return
	}
	writeJSON(w, status, a)
}

func nonNilEntries(entries []history.Entry) []history.Entry {
	if entries == nil {
		return []history.Entry{}
	}
	return entries
}
