package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/nexus/internal/model"
)

// sourceColWidth is the fixed width of the source column.
const sourceColWidth = 14

// timeColWidth is the fixed width of the right-aligned time column.
const timeColWidth = 8

// RenderStream renders the item list, scrolled so the cursor is visible.
func RenderStream(items []model.NewsItem, cursor, width, height int, footer string) string {
	if len(items) == 0 {
		return HelpStyle.Render("No items to display. Press 'r' to refresh.")
	}

	availableHeight := height
	if footer != "" {
		availableHeight--
	}
	if availableHeight < 1 {
		availableHeight = 1
	}

	offset := calcScrollOffset(cursor, len(items), availableHeight)

	var b strings.Builder
	for i := offset; i < len(items) && i < offset+availableHeight; i++ {
		b.WriteString(renderItemLine(items[i], i == cursor, width))
		b.WriteString("\n")
	}
	if footer != "" {
		b.WriteString(MetaItem.Render(footer))
		b.WriteString("\n")
	}
	return b.String()
}

// calcScrollOffset returns the first visible index that keeps cursor on
// screen.
func calcScrollOffset(cursor, total, availableHeight int) int {
	if total == 0 || cursor < 0 {
		return 0
	}
	if cursor >= total {
		cursor = total - 1
	}
	if cursor >= availableHeight {
		return cursor - availableHeight + 1
	}
	return 0
}

// renderItemLine renders one item: source column, title, dot leader, time.
func renderItemLine(item model.NewsItem, selected bool, width int) string {
	source := truncateRunes(item.Source, sourceColWidth)
	sourcePad := sourceColWidth - utf8.RuneCountInString(source)
	if sourcePad < 0 {
		sourcePad = 0
	}

	titleWidth := width - sourceColWidth - timeColWidth - 4
	if titleWidth < 20 {
		titleWidth = 20
	}
	title := truncateRunes(item.Title, titleWidth)

	at := truncateRunes(item.Time, timeColWidth)
	at = strings.Repeat(" ", timeColWidth-utf8.RuneCountInString(at)) + at

	plainLeft := source + strings.Repeat(" ", sourcePad) + " " + title
	dotCount := width - utf8.RuneCountInString(plainLeft) - timeColWidth - 3
	if dotCount < 0 {
		dotCount = 0
	}

	if selected {
		line := plainLeft + " " + fadeDots(dotCount) + " " + at
		return SelectedItem.Width(width).Render(line)
	}

	sourceStyle := lipgloss.NewStyle().Foreground(sourcePaletteColor(item.Source))
	return fmt.Sprintf("%s%s %s %s %s",
		sourceStyle.Render(source),
		strings.Repeat(" ", sourcePad),
		NormalItem.Padding(0).Render(title),
		MetaItem.Render(fadeDots(dotCount)),
		MetaItem.Render(at))
}

func fadeDots(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.Repeat(".", count-1) + " "
}

// truncateRunes shortens s to max runes, marking the cut with an ellipsis.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	if max == 1 {
		return string(runes[:1])
	}
	return string(runes[:max-1]) + "…"
}

func sourcePaletteColor(name string) lipgloss.Color {
	palette := []lipgloss.Color{
		lipgloss.Color("62"),
		lipgloss.Color("69"),
		lipgloss.Color("39"),
		lipgloss.Color("141"),
		lipgloss.Color("208"),
		lipgloss.Color("75"),
		lipgloss.Color("99"),
		lipgloss.Color("212"),
	}
	sum := 0
	for i := 0; i < len(name); i++ {
		sum += int(name[i])
	}
	return palette[sum%len(palette)]
}

// RenderStatusBar renders the bottom status bar with key hints and position.
func RenderStatusBar(cursor, total, width int, status string) string {
	position := fmt.Sprintf(" %d/%d ", cursor+1, total)
	if total == 0 {
		position = " 0/0 "
	}
	if status != "" {
		position += status + " "
	}

	keys := []string{
		StatusBarKey.Render("j/k") + StatusBarText.Render(":nav"),
		StatusBarKey.Render("Tab") + StatusBarText.Render(":category"),
		StatusBarKey.Render("Enter") + StatusBarText.Render(":open"),
		StatusBarKey.Render("r") + StatusBarText.Render(":refresh"),
		StatusBarKey.Render("m") + StatusBarText.Render(":more"),
		StatusBarKey.Render("l") + StatusBarText.Render(":live"),
		StatusBarKey.Render("D") + StatusBarText.Render(":debug"),
		StatusBarKey.Render("q") + StatusBarText.Render(":quit"),
	}
	keyHints := strings.Join(keys, " ")

	padding := width - lipgloss.Width(position) - lipgloss.Width(keyHints) - 2
	if padding < 0 {
		padding = 0
	}

	bar := position + strings.Repeat(" ", padding) + keyHints
	return StatusBar.Width(width).Render(bar)
}
