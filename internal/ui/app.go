package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/nexus/internal/geo"
	"github.com/abelbrown/nexus/internal/model"
	"github.com/abelbrown/nexus/internal/otel"
)

// loadMoreThreshold is how close to the end of the list the cursor must be
// before the next page is requested.
const loadMoreThreshold = 3

// alertLines is the number of alerts shown in the side panel.
const alertLines = 5

// Controls is the engine surface the App drives. Every call returns
// immediately; results arrive later as SnapshotUpdated messages.
type Controls interface {
	Category() model.Category
	SetCategory(c model.Category) bool
	RefreshNow() bool
	LoadMore() bool
	Toggle() bool
	Live() bool
}

// keyMap holds the App key bindings.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Home     key.Binding
	End      key.Binding
	NextTab  key.Binding
	PrevTab  key.Binding
	JumpTab  key.Binding
	Open     key.Binding
	Refresh  key.Binding
	LoadMore key.Binding
	Live     key.Binding
	Debug    key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k")),
	Down:     key.NewBinding(key.WithKeys("down", "j")),
	Home:     key.NewBinding(key.WithKeys("home", "g")),
	End:      key.NewBinding(key.WithKeys("end", "G")),
	NextTab:  key.NewBinding(key.WithKeys("tab", "right", "L")),
	PrevTab:  key.NewBinding(key.WithKeys("shift+tab", "left", "H")),
	JumpTab:  key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6")),
	Open:     key.NewBinding(key.WithKeys("enter")),
	Refresh:  key.NewBinding(key.WithKeys("r")),
	LoadMore: key.NewBinding(key.WithKeys("m")),
	Live:     key.NewBinding(key.WithKeys("l", " ")),
	Debug:    key.NewBinding(key.WithKeys("D")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c")),
}

// App is the root Bubble Tea model.
// IMPORTANT: App does NOT hold the feed store. It receives snapshots via messages.
type App struct {
	ctrl     Controls
	snapshot func(model.Category) model.Snapshot
	ring     *otel.RingBuffer

	category  model.Category
	live      bool
	snap      model.Snapshot
	cursor    int
	selection *geo.Selection
	open      *model.NewsItem

	prices        []model.CryptoPrice
	pricesUpdated time.Time

	spinner   spinner.Model
	now       time.Time
	width     int
	height    int
	ready     bool
	showDebug bool
}

// NewApp creates the App. snapshot reads the cached snapshot for a category
// when switching tabs; ring feeds the alerts panel and may be nil.
func NewApp(ctrl Controls, snapshot func(model.Category) model.Snapshot, ring *otel.RingBuffer) App {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = LiveBadge

	a := App{
		ctrl:      ctrl,
		snapshot:  snapshot,
		ring:      ring,
		category:  ctrl.Category(),
		live:      ctrl.Live(),
		selection: &geo.Selection{},
		spinner:   s,
		now:       time.Now(),
	}
	if snapshot != nil {
		a.snap = snapshot(a.category)
	}
	return a
}

// Init starts the spinner and the clock.
func (a App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, clockTick())
}

func clockTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return ClockTick(t)
	})
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		return a, nil

	case SnapshotUpdated:
		if msg.Snapshot.Category != a.category {
			return a, nil
		}
		a.snap = msg.Snapshot
		if a.cursor >= len(a.snap.Items) {
			a.cursor = max(len(a.snap.Items)-1, 0)
		}
		// Open the first item when nothing is open yet.
		if a.open == nil && len(a.snap.Items) > 0 {
			a.selectItem(a.snap.Items[0])
		}
		return a, nil

	case PricesUpdated:
		a.prices = msg.Prices
		a.pricesUpdated = msg.Updated
		return a, nil

	case ClockTick:
		a.now = time.Time(msg)
		a.live = a.ctrl.Live()
		return a, clockTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.showDebug {
		switch {
		case key.Matches(msg, keys.Debug):
			a.showDebug = false
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		}
		return a, nil
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, keys.Down):
		if a.cursor < len(a.snap.Items)-1 {
			a.cursor++
		}
		a.maybeLoadMore()

	case key.Matches(msg, keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}

	case key.Matches(msg, keys.Home):
		a.cursor = 0

	case key.Matches(msg, keys.End):
		if len(a.snap.Items) > 0 {
			a.cursor = len(a.snap.Items) - 1
		}
		a.maybeLoadMore()

	case key.Matches(msg, keys.NextTab):
		a.switchCategory(a.tabOffset(1))

	case key.Matches(msg, keys.PrevTab):
		a.switchCategory(a.tabOffset(-1))

	case key.Matches(msg, keys.JumpTab):
		tabs := model.Tabs()
		if i := int(msg.String()[0] - '1'); i >= 0 && i < len(tabs) {
			a.switchCategory(tabs[i])
		}

	case key.Matches(msg, keys.Open):
		if a.cursor < len(a.snap.Items) {
			a.selectItem(a.snap.Items[a.cursor])
		}

	case key.Matches(msg, keys.Refresh):
		a.ctrl.RefreshNow()

	case key.Matches(msg, keys.LoadMore):
		a.ctrl.LoadMore()

	case key.Matches(msg, keys.Live):
		a.live = a.ctrl.Toggle()

	case key.Matches(msg, keys.Debug):
		a.showDebug = true
	}

	return a, nil
}

// maybeLoadMore requests the next page when the cursor nears the end.
func (a *App) maybeLoadMore() {
	n := len(a.snap.Items)
	if n == 0 || a.cursor < n-loadMoreThreshold {
		return
	}
	if a.snap.Loading || a.snap.LoadingMore {
		return
	}
	a.ctrl.LoadMore()
}

func (a *App) tabOffset(delta int) model.Category {
	tabs := model.Tabs()
	idx := 0
	for i, c := range tabs {
		if c == a.category {
			idx = i
			break
		}
	}
	return tabs[(idx+delta+len(tabs))%len(tabs)]
}

func (a *App) switchCategory(c model.Category) {
	if c == a.category {
		return
	}
	a.category = c
	a.cursor = 0
	a.snap = model.Snapshot{Category: c}
	if a.snapshot != nil {
		a.snap = a.snapshot(c)
	}
	a.ctrl.SetCategory(c)
}

func (a *App) selectItem(item model.NewsItem) {
	a.open = &item
	a.selection.Select(item)
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	header := renderHeader(a.category, a.live, a.now, a.width)
	ticker := renderTicker(a.snap.Items, a.width)
	bodyHeight := a.height - 3

	var body string
	if a.showDebug {
		body = debugOverlay(a.ring, a.width, bodyHeight)
	} else {
		body = a.renderBody(bodyHeight)
	}

	status := a.renderStatus()
	if a.showDebug {
		status = debugStatusBar(a.width)
	}

	return strings.Join([]string{header, ticker, body, status}, "\n")
}

func (a App) renderBody(height int) string {
	sideWidth := a.width / 3
	if sideWidth < 30 {
		sideWidth = 30
	}
	listWidth := a.width - sideWidth - 1
	if listWidth < 40 {
		listWidth = 40
	}

	footer := ""
	switch {
	case a.snap.LoadingMore:
		footer = a.spinner.View() + " loading more..."
	case a.snap.Exhausted && len(a.snap.Items) > 0:
		footer = "no new items, scroll to retry"
	}

	var list string
	if a.snap.Loading && len(a.snap.Items) == 0 {
		list = HelpStyle.Render(a.spinner.View() + " fetching " + a.category.Label() + "...")
	} else {
		list = RenderStream(a.snap.Items, a.cursor, listWidth, height, footer)
	}

	var point *model.MapDataPoint
	if p, ok := a.selection.Current(); ok {
		point = &p
	}
	side := lipgloss.JoinVertical(lipgloss.Left,
		renderMarket(a.prices, a.pricesUpdated, sideWidth),
		renderDetail(a.open, point, sideWidth),
		renderAlerts(a.ring, alertLines, sideWidth),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(listWidth).Height(height).MaxHeight(height).Render(list),
		" ",
		lipgloss.NewStyle().MaxHeight(height).Render(side),
	)
}

func (a App) renderStatus() string {
	status := ""
	if a.snap.Loading {
		status = a.spinner.View() + " refreshing"
	}
	return RenderStatusBar(a.cursor, len(a.snap.Items), a.width, status)
}

// Cursor returns the current cursor position (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// Category returns the displayed category (for testing).
func (a App) Category() model.Category {
	return a.category
}

// Items returns the displayed items (for testing).
func (a App) Items() []model.NewsItem {
	return a.snap.Items
}

// OpenItem returns the item shown in the detail panel.
func (a App) OpenItem() (model.NewsItem, bool) {
	if a.open == nil {
		return model.NewsItem{}, false
	}
	return *a.open, true
}

// MapPoint returns the active map point of the open item.
func (a App) MapPoint() (model.MapDataPoint, bool) {
	return a.selection.Current()
}
