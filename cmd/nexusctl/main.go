// Command nexusctl is the debug CLI for the Nexus feed engine.
//
// Usage:
//
//	nexusctl                    Show help
//	nexusctl events             JSONL event log viewer
//	nexusctl stats              Fetch and fallback statistics from the event log
//	nexusctl probe <category>   One-shot fetch through the dispatcher
//	nexusctl prices             One-shot market ticker fetch
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

const usage = `nexusctl - Nexus debug CLI

Usage:
  nexusctl <command> [flags]

Commands:
  events      JSONL event log viewer
  stats       Fetch, fallback and market statistics from the event log
  probe       Fetch one page of a category through the provider waterfall
  prices      Fetch the market ticker once

Environment:
  GEMINI_API_KEY   Enables the search fallback for probe
  .env in the working directory is loaded first.

Run 'nexusctl <command> -h' for command-specific help.
`

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	cmd := os.Args[1]
	// Strip the program name + subcommand so flag sets see only their flags
	os.Args = os.Args[1:]

	switch cmd {
	case "events":
		runEvents()
	case "stats":
		runStats()
	case "probe":
		runProbe()
	case "prices":
		runPrices()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "nexusctl: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}
