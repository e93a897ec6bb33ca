package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/abelbrown/nexus/internal/app"
	"github.com/abelbrown/nexus/internal/dispatch"
	"github.com/abelbrown/nexus/internal/geo"
	"github.com/abelbrown/nexus/internal/market"
	"github.com/abelbrown/nexus/internal/model"
)

func runProbe() {
	fs := flag.NewFlagSet("probe", flag.ExitOnError)
	page := fs.Int("page", 1, "Page to request")
	timeout := fs.Duration("timeout", 2*time.Minute, "Overall deadline")
	fs.Parse(os.Args[1:])

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: nexusctl probe [-page N] <category>")
		os.Exit(2)
	}
	category, err := model.ParseCategory(fs.Arg(0))
	if err != nil || category.Composite() {
		fmt.Fprintf(os.Stderr, "error: %q is not a concrete category\n", fs.Arg(0))
		os.Exit(2)
	}

	cfg := loadConfig()
	d := dispatch.New(app.Adapters(cfg), nil, nil)
	fmt.Printf("Route %s: %v\n", category, d.Route(category))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	items, exhausted := d.Fetch(ctx, category, *page)
	fmt.Printf("Page %d: %d items in %s (exhausted=%v)\n\n", *page, len(items), time.Since(start).Round(time.Millisecond), exhausted)

	for i, it := range items {
		loc := "-"
		if k, ok := geo.Match(it.Text()); ok {
			loc = k.Name
		}
		fmt.Printf("%3d. %-14s %-10s %s\n", i+1, truncate(it.Source, 14), loc, truncate(it.Title, 90))
		fmt.Printf("     %s  %s\n", it.ID, it.Time)
	}
}

func runPrices() {
	fs := flag.NewFlagSet("prices", flag.ExitOnError)
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	provider := market.NewCoinGecko(cfg.Market.Endpoint, cfg.FetchTimeout(), 0)

	prices, err := provider.Prices(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	for _, p := range prices {
		fmt.Printf("%-4s $%-14s %+.2f%%\n", p.Symbol, humanize.CommafWithDigits(p.Price, 4), p.Change24h)
	}
}
