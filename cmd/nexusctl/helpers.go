package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/abelbrown/nexus/internal/config"
)

// eventLogPath returns the path to nexus.events.jsonl.
func eventLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("failed to get home directory: %v", err)
	}
	return filepath.Join(home, ".nexus", "logs", "nexus.events.jsonl")
}

// openEventLog opens the event log or exits with a hint.
func openEventLog() *os.File {
	path := eventLogPath()
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		fmt.Fprintf(os.Stderr, "  Event log not found at %s\n", path)
		fmt.Fprintf(os.Stderr, "  Run nexus or nexusd first to generate events.\n")
		os.Exit(1)
	}
	return f
}

// loadConfig loads ~/.nexus/config.json (defaults when absent) or fatals.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	return cfg
}

// truncate shortens a string to max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
