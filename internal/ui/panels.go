package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/abelbrown/nexus/internal/model"
	"github.com/abelbrown/nexus/internal/otel"
)

// renderHeader draws brand, category tabs, polling state and clock.
func renderHeader(current model.Category, live bool, now time.Time, width int) string {
	var tabs []string
	for _, c := range model.Tabs() {
		if c == current {
			tabs = append(tabs, ActiveTab.Render(c.Label()))
		} else {
			tabs = append(tabs, InactiveTab.Render(c.Label()))
		}
	}

	state := PausedBadge.Render("|| PAUSED")
	if live {
		state = LiveBadge.Render("● LIVE")
	}

	left := Brand.Render("NEXUS_TERMINAL v2.0") + "  " + strings.Join(tabs, "")
	right := state + "  " + Clock.Render(now.Format("15:04:05"))

	pad := width - lipgloss.Width(left) - lipgloss.Width(right)
	if pad < 1 {
		pad = 1
	}
	return left + strings.Repeat(" ", pad) + right
}

// renderTicker draws the latest headlines on one line.
func renderTicker(items []model.NewsItem, width int) string {
	if len(items) == 0 || width <= 0 {
		return ""
	}
	var parts []string
	for i, it := range items {
		if i == 5 {
			break
		}
		parts = append(parts, it.Title)
	}
	line := " LATEST ▸ " + strings.Join(parts, "  ///  ")
	return TickerLine.Width(width).Render(truncateRunes(line, width))
}

// renderMarket draws the price ticker panel.
func renderMarket(prices []model.CryptoPrice, updated time.Time, width int) string {
	lines := []string{PanelTitle.Render("MARKET")}
	if len(prices) == 0 {
		lines = append(lines, MetaItem.Render("waiting for prices..."))
	}
	for _, p := range prices {
		change := fmt.Sprintf("%+.2f%%", p.Change24h)
		if p.Change24h >= 0 {
			change = PriceUp.Render(change)
		} else {
			change = PriceDown.Render(change)
		}
		lines = append(lines, fmt.Sprintf("%-4s $%s %s", p.Symbol, formatPrice(p.Price), change))
	}
	if !updated.IsZero() {
		lines = append(lines, MetaItem.Render("updated "+humanize.Time(updated)))
	}
	return Panel.Width(width).Render(strings.Join(lines, "\n"))
}

// formatPrice groups thousands and keeps more precision for small prices.
func formatPrice(v float64) string {
	if v < 1 {
		return humanize.CommafWithDigits(v, 4)
	}
	return humanize.CommafWithDigits(v, 2)
}

// renderDetail draws the open item and its map point.
func renderDetail(item *model.NewsItem, point *model.MapDataPoint, width int) string {
	lines := []string{PanelTitle.Render("DETAIL")}
	if item == nil {
		lines = append(lines, MetaItem.Render("no item selected"))
		return Panel.Width(width).Render(strings.Join(lines, "\n"))
	}

	inner := width - 4
	if inner < 10 {
		inner = 10
	}
	lines = append(lines, NormalItem.Padding(0).Bold(true).Render(wrap(item.Title, inner)))
	lines = append(lines, MetaItem.Render(item.Source+" · "+item.Time+" · "+item.Category.Label()))
	lines = append(lines, "", wrap(item.Summary, inner))
	if item.URL != "" {
		lines = append(lines, "", MetaItem.Render(truncateRunes(item.URL, inner)))
	}

	lines = append(lines, "")
	if point != nil {
		lines = append(lines, fmt.Sprintf("◎ %s  %.4f, %.4f", point.Label, point.Lat, point.Lng))
	} else {
		lines = append(lines, MetaItem.Render("◎ no location"))
	}
	return Panel.Width(width).Render(strings.Join(lines, "\n"))
}

// renderAlerts draws recent warnings and errors from the event ring.
func renderAlerts(ring *otel.RingBuffer, n, width int) string {
	lines := []string{PanelTitle.Render("SYSTEM ALERTS")}
	var alerts []otel.Event
	if ring != nil {
		alerts = ring.LastMatching(n, otel.Event.Severe)
	}
	if len(alerts) == 0 {
		lines = append(lines, MetaItem.Render("all systems nominal"))
	}
	for i := len(alerts) - 1; i >= 0; i-- {
		e := alerts[i]
		text := string(e.Kind)
		if e.Adapter != "" {
			text += " " + e.Adapter
		}
		if e.Category != "" {
			text += " [" + e.Category + "]"
		}
		if e.Err != "" {
			text += ": " + e.Err
		}
		text = truncateRunes(e.Time.Format("15:04:05")+" "+text, width-4)
		if e.Level == otel.LevelError {
			lines = append(lines, AlertError.Render(text))
		} else {
			lines = append(lines, AlertWarn.Render(text))
		}
	}
	return Panel.Width(width).Render(strings.Join(lines, "\n"))
}

// wrap breaks s into lines of at most width runes on word boundaries.
func wrap(s string, width int) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	lineLen := 0
	for _, w := range words {
		wl := len([]rune(w))
		if lineLen > 0 && lineLen+1+wl > width {
			b.WriteString("\n")
			lineLen = 0
		} else if lineLen > 0 {
			b.WriteString(" ")
			lineLen++
		}
		b.WriteString(w)
		lineLen += wl
	}
	return b.String()
}
