package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	apperrors "github.com/louisbranch/maze-tracker/internal/platform/errors"
	"github.com/louisbranch/maze-tracker/internal/platform/i18n/catalog"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/actor"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/service"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/storage"
)

const maxBodyBytes = 64 << 10

type errorBody struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code       apperrors.Code      `json:"code"`
	Message    string              `json:"message"`
	Metadata   map[string]string   `json:"metadata,omitempty"`
	RedirectTo string              `json:"redirect_to,omitempty"`
	WriteError *storage.WriteError `json:"write_error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst unchanged.
func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.Wrap(apperrors.CodeDecodeFailed, "decode request body", err)
	}
	return nil
}

// writeError renders err with its status code and a localized message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.GetCode(err)
	status := code.HTTPStatus()
	payload := errorPayload{Code: code, Message: s.message(r, code)}

	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		payload.Metadata = domainErr.Metadata
	}
	var writeErr *storage.WriteError
	if errors.As(err, &writeErr) {
		payload.WriteError = writeErr
	}
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, errorBody{Error: payload})
}

func (s *Server) writeUnauthenticated(w http.ResponseWriter, r *http.Request) {
	code := apperrors.CodeUnauthenticated
	writeJSON(w, code.HTTPStatus(), errorBody{Error: errorPayload{
		Code:       code,
		Message:    s.message(r, code),
		RedirectTo: s.verifier.RedirectTarget(),
	}})
}

// message returns the catalog text for code, or the status text when the
// catalog has none.
func (s *Server) message(r *http.Request, code apperrors.Code) string {
	key := "errors." + string(code)
	if _, ok := s.catalog.Message(catalog.BaseLocale, key); !ok {
		return http.StatusText(code.HTTPStatus())
	}
	tag, _ := service.LocaleFromContext(r.Context())
	loc := s.catalog.Localizer(tag)
	if code == apperrors.CodeActorNameTooLong {
		return loc.Format(key, actor.MaxNameLength)
	}
	return loc.Format(key)
}
