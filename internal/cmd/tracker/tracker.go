// Package tracker parses tracker command flags and composes the runtime.
package tracker

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/maze-tracker/internal/platform/cmd"
	platformgrpc "github.com/louisbranch/maze-tracker/internal/platform/grpc"
	"github.com/louisbranch/maze-tracker/internal/platform/i18n/catalog"
	"github.com/louisbranch/maze-tracker/internal/platform/timeouts"
	server "github.com/louisbranch/maze-tracker/internal/services/tracker/app"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/roster"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/identity"
)

// Config holds tracker command configuration.
type Config struct {
	HTTPAddr  string `env:"TRACKER_HTTP_ADDR"  envDefault:":8090"`
	GRPCAddr  string `env:"TRACKER_GRPC_ADDR"  envDefault:":8091"`
	DBPath    string `env:"TRACKER_DB_PATH"    envDefault:"data/tracker.db"`
	TurnOrder string `env:"TRACKER_TURN_ORDER" envDefault:"asc"`
	Locale    string `env:"TRACKER_LOCALE"     envDefault:"en-US"`
	DiceSeed  int64  `env:"TRACKER_DICE_SEED"`

	// HealthCheck probes a running tracker instead of serving.
	HealthCheck bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "gRPC health listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.TurnOrder, "turn-order", cfg.TurnOrder, "turn order direction (asc or desc)")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "default message locale")
	fs.Int64Var(&cfg.DiceSeed, "dice-seed", cfg.DiceSeed, "fixed dice seed, 0 for random")
	fs.BoolVar(&cfg.HealthCheck, "healthcheck", false, "probe the gRPC health endpoint and exit")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if _, err := roster.ParseOrder(cfg.TurnOrder); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run serves the tracker, or probes a running one when HealthCheck is set.
func Run(ctx context.Context, cfg Config) error {
	if cfg.HealthCheck {
		return platformgrpc.Probe(ctx, probeAddr(cfg.GRPCAddr), server.HealthService, timeouts.HealthWait, log.Printf)
	}
	appCfg, err := cfg.serverConfig()
	if err != nil {
		return err
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceTracker, func(ctx context.Context) error {
		if err := server.Run(ctx, appCfg); err != nil {
			return fmt.Errorf("serve tracker: %w", err)
		}
		return nil
	})
}

func (c Config) serverConfig() (server.Config, error) {
	order, err := roster.ParseOrder(c.TurnOrder)
	if err != nil {
		return server.Config{}, err
	}
	identityCfg, err := identity.LoadConfigFromEnv(time.Now)
	if err != nil {
		return server.Config{}, err
	}
	return server.Config{
		HTTPAddr: c.HTTPAddr,
		GRPCAddr: c.GRPCAddr,
		DBPath:   c.DBPath,
		Order:    order,
		Locale:   catalog.Default().MatchString(c.Locale),
		DiceSeed: c.DiceSeed,
		Identity: identityCfg,
	}, nil
}

// probeAddr turns a listen address such as ":8091" into a dialable one.
func probeAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}
