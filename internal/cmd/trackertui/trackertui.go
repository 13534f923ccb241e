// Package trackertui parses terminal UI flags and runs the local tracker
// client over a SQLite file.
package trackertui

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	entrypoint "github.com/louisbranch/maze-tracker/internal/platform/cmd"
	"github.com/louisbranch/maze-tracker/internal/platform/i18n/catalog"
	"github.com/louisbranch/maze-tracker/internal/platform/id"
	"github.com/louisbranch/maze-tracker/internal/random"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/roster"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/service"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/storage/sqlite"
)

// Config holds terminal UI configuration.
type Config struct {
	DBPath    string `env:"TRACKER_TUI_DB_PATH" envDefault:"data/tracker-tui.db"`
	SessionID string `env:"TRACKER_TUI_SESSION"`
	TurnOrder string `env:"TRACKER_TURN_ORDER"  envDefault:"asc"`
	Locale    string `env:"TRACKER_LOCALE"      envDefault:"en-US"`
	DiceSeed  int64  `env:"TRACKER_DICE_SEED"`
	LogPath   string `env:"TRACKER_TUI_LOG_PATH"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.SessionID, "session", cfg.SessionID, "session to open, a new one when empty")
	fs.StringVar(&cfg.TurnOrder, "turn-order", cfg.TurnOrder, "turn order direction (asc or desc)")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "message locale")
	fs.Int64Var(&cfg.DiceSeed, "dice-seed", cfg.DiceSeed, "fixed dice seed, 0 for random")
	fs.StringVar(&cfg.LogPath, "log-path", cfg.LogPath, "file receiving log output while the UI runs")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if _, err := roster.ParseOrder(cfg.TurnOrder); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run opens the store and drives the terminal UI until the user quits.
func Run(ctx context.Context, cfg Config) error {
	restoreLog, err := redirectLog(cfg.LogPath)
	if err != nil {
		return err
	}
	defer restoreLog()

	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceTUI, func(ctx context.Context) error {
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create storage dir: %w", err)
			}
		}
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open tracker sqlite store: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("close tracker store: %v", err)
			}
		}()

		order, err := roster.ParseOrder(cfg.TurnOrder)
		if err != nil {
			return err
		}
		src, err := random.NewDiceSource(cfg.DiceSeed)
		if err != nil {
			return fmt.Errorf("seed dice: %w", err)
		}
		bundle := catalog.Default()
		tag := bundle.MatchString(cfg.Locale)
		svc := service.New(store, service.WithDice(src), service.WithOrder(order), service.WithLocale(tag))

		sessionID := strings.TrimSpace(cfg.SessionID)
		if sessionID == "" {
			if sessionID, err = id.NewSessionID(); err != nil {
				return fmt.Errorf("generate session id: %w", err)
			}
		}
		m, err := newModel(service.ContextWithLocale(ctx, tag), svc, sessionID)
		if err != nil {
			return err
		}
		defer m.close()

		program := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("run terminal ui: %w", err)
		}
		return nil
	})
}

// redirectLog keeps log output from tearing the terminal UI. Without a log
// path, output is discarded.
func redirectLog(path string) (func(), error) {
	previous := log.Writer()
	if strings.TrimSpace(path) == "" {
		log.SetOutput(io.Discard)
		return func() { log.SetOutput(previous) }, nil
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(file)
	return func() {
		log.SetOutput(previous)
		_ = file.Close()
	}, nil
}
