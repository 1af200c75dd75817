// Package main implements the Stim Control Core entry point.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stim-control/scc/internal/audit"
	"github.com/stim-control/scc/internal/config"
	"github.com/stim-control/scc/internal/controller"
	"github.com/stim-control/scc/internal/device"
	"github.com/stim-control/scc/internal/gamefeed"
	"github.com/stim-control/scc/internal/telemetry"
)

const version = "1.0.0"

var (
	flagFeedURL string
	flagLogDir  string
	flagEnvFile string
)

func main() {
	root := &cobra.Command{
		Use:     "scc",
		Short:   "Stim control core: coordinates command sources against a two-channel device",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	root.Flags().StringVar(&flagFeedURL, "feed-url", "", "game stats WebSocket feed URL (empty disables the feed)")
	root.Flags().StringVar(&flagLogDir, "log-dir", "logs", "directory for the audit log")
	root.Flags().StringVar(&flagEnvFile, "env-file", "", "path to an env file with SCC_* overrides")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	log.Printf("Starting Stim Control Core v%s", version)

	settings, err := config.Load(flagEnvFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Println("Configuration loaded successfully")

	hub := telemetry.NewHub(settings.EventBufferSize())
	log.Println("Telemetry hub initialized")

	auditLogger, err := audit.NewLogger(flagLogDir)
	if err != nil {
		log.Fatalf("Failed to initialize audit logger: %v", err)
	}
	log.Println("Audit logger initialized")

	// The device transport is bound by the embedding application; standalone
	// runs log writes instead of sending them.
	var client device.Client = device.LogClient{}

	ctrl := controller.New(client, settings, hub, auditLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := ctrl.Start(ctx); err != nil {
		log.Fatalf("Failed to start controller: %v", err)
	}
	log.Println("Controller started")

	var feed *gamefeed.Client
	if flagFeedURL != "" {
		feed = gamefeed.New(flagFeedURL, ctrl, settings, hub)
		go feed.Run(ctx)
		log.Printf("Game feed client started for %s", flagFeedURL)
	}

	// Surface state events on the process log; the UI would subscribe the
	// same way.
	subID, events := hub.Subscribe()
	go func() {
		for event := range events {
			log.Printf("event %s: %v", event.Type, event.Data)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	sig := <-shutdown
	log.Printf("Received signal %v, initiating graceful shutdown...", sig)

	if feed != nil {
		if err := feed.Close(); err != nil {
			log.Printf("Error closing game feed: %v", err)
		}
	}

	ctrl.Cleanup()
	log.Println("Controller stopped")

	hub.Unsubscribe(subID)
	hub.Stop()
	log.Println("Telemetry hub stopped")

	if err := auditLogger.Close(); err != nil {
		log.Printf("Error closing audit logger: %v", err)
	}
	log.Println("Audit logger closed")

	log.Println("Stim Control Core shutdown complete")
	return nil
}
