// Command nexus runs the feed engine behind the terminal display.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/abelbrown/nexus/internal/app"
	"github.com/abelbrown/nexus/internal/config"
	"github.com/abelbrown/nexus/internal/logging"
	"github.com/abelbrown/nexus/internal/model"
	"github.com/abelbrown/nexus/internal/ui"
)

func main() {
	_ = godotenv.Load()

	if err := logging.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	defer logging.Close()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	opts := app.Options{}
	if f, err := app.OpenEventLog(); err != nil {
		logging.Warn("event log disabled", "error", err)
	} else {
		defer f.Close()
		opts.EventLog = f
	}

	engine, err := app.New(cfg, opts)
	if err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}
	defer engine.Close()

	if !cfg.HasSearchKey() {
		logging.Info("no search key; categories without a direct provider stay empty")
	}

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())

	program := tea.NewProgram(
		ui.NewApp(engine.Controller, engine.Aggregator.Snapshot, engine.Ring),
		tea.WithAltScreen(),
	)

	// The UI only ever sees copies delivered as messages.
	unsubscribeFeed := engine.Store.Subscribe(func(s model.Snapshot) {
		program.Send(ui.SnapshotUpdated{Snapshot: s})
	})
	unsubscribeMarket := engine.Market.Subscribe(func(prices []model.CryptoPrice) {
		program.Send(ui.PricesUpdated{Prices: prices, Updated: time.Now()})
	})

	engine.Start(ctx)

	// Run UI (blocks until quit)
	if _, err := program.Run(); err != nil {
		logging.Error("program exited with error", "error", err)
	}

	// Graceful shutdown
	unsubscribeFeed()
	unsubscribeMarket()
	cancel()
	engine.Wait()
}
