package tracker

import (
	"flag"
	"testing"

	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/roster"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("tracker", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != ":8090" || cfg.GRPCAddr != ":8091" {
		t.Fatalf("unexpected addrs %q %q", cfg.HTTPAddr, cfg.GRPCAddr)
	}
	if cfg.TurnOrder != "asc" || cfg.Locale != "en-US" || cfg.DiceSeed != 0 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.HealthCheck {
		t.Fatal("expected healthcheck off by default")
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("TRACKER_HTTP_ADDR", "env-http")
	t.Setenv("TRACKER_TURN_ORDER", "desc")
	t.Setenv("TRACKER_DICE_SEED", "9")

	fs := flag.NewFlagSet("tracker", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-http-addr", "flag-http", "-locale", "pt-BR", "-healthcheck"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != "flag-http" {
		t.Fatalf("expected flag http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.TurnOrder != "desc" || cfg.DiceSeed != 9 || cfg.Locale != "pt-BR" || !cfg.HealthCheck {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestParseConfigRejectsUnknownOrder(t *testing.T) {
	fs := flag.NewFlagSet("tracker", flag.ContinueOnError)
	if _, err := ParseConfig(fs, []string{"-turn-order", "sideways"}); err == nil {
		t.Fatal("expected order error")
	}
}

func TestServerConfig(t *testing.T) {
	t.Setenv("TRACKER_IDENTITY_PUBLIC_KEY", "")
	cfg := Config{HTTPAddr: ":1", GRPCAddr: ":2", DBPath: "x.db", TurnOrder: "desc", Locale: "pt-BR"}
	appCfg, err := cfg.serverConfig()
	if err != nil {
		t.Fatalf("server config: %v", err)
	}
	if appCfg.Order != roster.Descending || appCfg.Locale.String() != "pt-BR" {
		t.Fatalf("unexpected app config %+v", appCfg)
	}
	if len(appCfg.Identity.Key) != 0 {
		t.Fatal("expected identity disabled")
	}
}

func TestProbeAddr(t *testing.T) {
	if got := probeAddr(":8091"); got != "localhost:8091" {
		t.Fatalf("probeAddr = %q", got)
	}
	if got := probeAddr("tracker:8091"); got != "tracker:8091" {
		t.Fatalf("probeAddr = %q", got)
	}
}
