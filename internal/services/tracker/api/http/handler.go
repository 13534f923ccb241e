package httpapi

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/louisbranch/maze-tracker/internal/platform/i18n/catalog"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/identity"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/service"
)

const (
	tokenCookieName  = "tracker_token"
	tokenQueryParam  = "access_token"
	localeQueryParam = "lang"
)

// Server routes HTTP requests to the session service.
type Server struct {
	svc      *service.Service
	verifier *identity.Verifier
	catalog  *catalog.Bundle
}

// Option configures a Server.
type Option func(*Server)

// WithVerifier requires signed-in callers on session routes.
func WithVerifier(v *identity.Verifier) Option {
	return func(s *Server) { s.verifier = v }
}

// WithCatalog replaces the message catalog used for error text.
func WithCatalog(bundle *catalog.Bundle) Option {
	return func(s *Server) {
		if bundle != nil {
			s.catalog = bundle
		}
	}
}

// NewHandler builds the tracker routes.
func NewHandler(svc *service.Service, opts ...Option) http.Handler {
	s := &Server{svc: svc, catalog: catalog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	r := mux.NewRouter()
	r.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	sessions := r.PathPrefix("/sessions").Subrouter()
	sessions.Use(s.withLocale, s.requireSignIn)
	sessions.HandleFunc("", s.handleCreateSession).Methods(http.MethodPost)
	sessions.HandleFunc("/{session}", s.handleClearSession).Methods(http.MethodDelete)
	sessions.HandleFunc("/{session}/actors", s.handleListActors).Methods(http.MethodGet)
	sessions.HandleFunc("/{session}/actors", s.handleAddActor).Methods(http.MethodPost)
	sessions.HandleFunc("/{session}/actors/{actor}", s.handleUpdateActor).Methods(http.MethodPatch)
	sessions.HandleFunc("/{session}/actors/{actor}", s.handleRemoveActor).Methods(http.MethodDelete)
	sessions.HandleFunc("/{session}/actors/{actor}/type:cycle", s.handleCycleType).Methods(http.MethodPost)
	sessions.HandleFunc("/{session}/actors/{actor}/statuses", s.handleAddStatus).Methods(http.MethodPost)
	sessions.HandleFunc("/{session}/actors/{actor}/statuses/{status}", s.handleUpdateStatus).Methods(http.MethodPatch)
	sessions.HandleFunc("/{session}/actors/{actor}/statuses/{status}", s.handleRemoveStatus).Methods(http.MethodDelete)
	sessions.HandleFunc("/{session}/roll", s.handleRollAll).Methods(http.MethodPost)
	sessions.HandleFunc("/{session}/cycle", s.handleNextCycle).Methods(http.MethodPost)
	sessions.HandleFunc("/{session}/logs", s.handleLogs).Methods(http.MethodGet)
	sessions.Handle("/{session}/ws", s.wsHandler()).Methods(http.MethodGet)
	return r
}

// withLocale resolves the request locale and stores it on the context.
func (s *Server) withLocale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		value := strings.TrimSpace(r.URL.Query().Get(localeQueryParam))
		if value == "" {
			value = r.Header.Get("Accept-Language")
		}
		tag := s.catalog.MatchString(value)
		w.Header().Set("Content-Language", tag.String())
		next.ServeHTTP(w, r.WithContext(service.ContextWithLocale(r.Context(), tag)))
	})
}

// requireSignIn rejects callers without a valid identity token.
func (s *Server) requireSignIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.verifier == nil || !s.verifier.Enabled() {
			next.ServeHTTP(w, r)
			return
		}
		if !s.verifier.SignedIn(accessTokenFromRequest(r)) {
			s.writeUnauthenticated(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// accessTokenFromRequest reads a bearer header, then the token cookie, then
// the query parameter browsers use for WebSocket upgrades.
func accessTokenFromRequest(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(tokenCookieName); err == nil {
		if token := strings.TrimSpace(cookie.Value); token != "" {
			return token
		}
	}
	return strings.TrimSpace(r.URL.Query().Get(tokenQueryParam))
}
