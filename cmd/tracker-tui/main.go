// Package main runs the terminal combat tracker against a local SQLite file.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	trackertui "github.com/louisbranch/maze-tracker/internal/cmd/trackertui"
	entrypoint "github.com/louisbranch/maze-tracker/internal/platform/cmd"
)

func main() {
	cfg, err := trackertui.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix(entrypoint.LogPrefix(entrypoint.ServiceTUI))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := trackertui.Run(ctx, cfg); err != nil {
		log.Fatalf("tracker tui: %v", err)
	}
}
