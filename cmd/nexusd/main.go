// Command nexusd runs the feed engine behind the JSON API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/abelbrown/nexus/internal/api"
	"github.com/abelbrown/nexus/internal/app"
	"github.com/abelbrown/nexus/internal/config"
	"github.com/abelbrown/nexus/internal/logging"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine.Start(ctx)

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := api.NewHandler(engine.Controller, engine.Aggregator, engine.Market, logging.Component("api"))
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewRouter(handler, cfg.HTTP.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info("api listening", "addr", cfg.HTTP.Addr, "cors", cfg.HTTP.CORSOrigins)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("api server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("api shutdown failed", "error", err)
	}
	engine.Wait()
}
