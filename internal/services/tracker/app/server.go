// Package server wires the tracker runtime: the HTTP/WebSocket API, the gRPC
// health endpoint and the SQLite store lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/text/language"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"

	platformgrpc "github.com/louisbranch/maze-tracker/internal/platform/grpc"
	"github.com/louisbranch/maze-tracker/internal/platform/timeouts"
	"github.com/louisbranch/maze-tracker/internal/random"
	httpapi "github.com/louisbranch/maze-tracker/internal/services/tracker/api/http"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/roster"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/identity"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/service"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/storage/sqlite"
)

// HealthService is the gRPC health service name the tracker reports.
const HealthService = "tracker"

// Config defines the inputs for the tracker runtime.
type Config struct {
	HTTPAddr          string
	GRPCAddr          string
	DBPath            string
	Order             roster.Order
	Locale            language.Tag
	DiceSeed          int64
	Identity          identity.Config
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server hosts the tracker HTTP API and gRPC health endpoint.
type Server struct {
	httpListener    net.Listener
	grpcListener    net.Listener
	httpServer      *http.Server
	grpcServer      *gogrpc.Server
	health          *health.Server
	store           *sqlite.Store
	shutdownTimeout time.Duration
}

// New opens the store and binds both listeners.
func New(cfg Config) (*Server, error) {
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = timeouts.Shutdown
	}

	store, err := openTrackerStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	src, err := random.NewDiceSource(cfg.DiceSeed)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("seed dice: %w", err)
	}

	httpListener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	}
	grpcListener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		_ = httpListener.Close()
		_ = store.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.GRPCAddr, err)
	}

	opts := []service.Option{service.WithDice(src), service.WithOrder(cfg.Order)}
	if cfg.Locale != language.Und {
		opts = append(opts, service.WithLocale(cfg.Locale))
	}
	svc := service.New(store, opts...)
	verifier := identity.NewVerifier(cfg.Identity)
	if verifier.Enabled() {
		log.Printf("identity verification enabled, sign-in at %s", verifier.RedirectTarget())
	}

	grpcServer, healthServer := platformgrpc.NewServer(HealthService)
	return &Server{
		httpListener: httpListener,
		grpcListener: grpcListener,
		httpServer: &http.Server{
			Handler:           httpapi.NewHandler(svc, httpapi.WithVerifier(verifier)),
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		},
		grpcServer:      grpcServer,
		health:          healthServer,
		store:           store,
		shutdownTimeout: cfg.ShutdownTimeout,
	}, nil
}

// HTTPAddr returns the bound HTTP address.
func (s *Server) HTTPAddr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// GRPCAddr returns the bound gRPC health address.
func (s *Server) GRPCAddr() string {
	if s == nil || s.grpcListener == nil {
		return ""
	}
	return s.grpcListener.Addr().String()
}

// Run creates and serves a tracker server until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve runs both listeners until ctx ends or one of them fails.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("tracker HTTP listening at %s", s.HTTPAddr())
	log.Printf("tracker health listening at %s", s.GRPCAddr())
	serveErr := make(chan error, 2)
	go func() {
		if err := s.httpServer.Serve(s.httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("serve http: %w", err)
			return
		}
		serveErr <- nil
	}()
	go func() {
		if err := s.grpcServer.Serve(s.grpcListener); err != nil && !errors.Is(err, gogrpc.ErrServerStopped) {
			serveErr <- fmt.Errorf("serve gRPC: %w", err)
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
		return s.shutdown()
	case err := <-serveErr:
		if shutdownErr := s.shutdown(); err == nil {
			err = shutdownErr
		}
		return err
	}
}

func (s *Server) shutdown() error {
	s.health.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	err := s.httpServer.Shutdown(shutdownCtx)
	s.grpcServer.GracefulStop()
	if err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	for _, listener := range []net.Listener{s.httpListener, s.grpcListener} {
		if listener != nil {
			_ = listener.Close()
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close tracker store: %v", err)
		}
	}
}

func openTrackerStore(path string) (*sqlite.Store, error) {
	if path == "" {
		path = filepath.Join("data", "tracker.db")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tracker sqlite store: %w", err)
	}
	return store, nil
}
