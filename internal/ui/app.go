package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/boardview/internal/chat"
	"github.com/abelbrown/boardview/internal/model"
	"github.com/abelbrown/boardview/internal/otel"
	"github.com/abelbrown/boardview/internal/ranking"
	"github.com/abelbrown/boardview/internal/search"
	"github.com/abelbrown/boardview/internal/status"
)

// Tab identifies one top-level view.
type Tab int

const (
	TabChat Tab = iota
	TabSearch
	TabOekaki
	TabRanking
	tabCount
)

func (t Tab) String() string {
	switch t {
	case TabChat:
		return "チャット"
	case TabSearch:
		return "検索"
	case TabOekaki:
		return "お絵かき"
	case TabRanking:
		return "ランキング"
	}
	return "?"
}

// Backend is everything the TUI needs from the board API.
// *api.Client satisfies it.
type Backend interface {
	chat.Asker
	search.Client
	ranking.Client
	Status(ctx context.Context) (model.IndexStatus, error)
	ImageURL(oekakiID int) string
}

// Options configures the root model.
type Options struct {
	Backend Backend
	Log     *otel.Logger
	Ring    *otel.RingBuffer

	// StatusInterval is the index status poll period; zero means
	// status.DefaultInterval.
	StatusInterval time.Duration
	// WebBaseURL prefixes shareable links.
	WebBaseURL string
	// Ctx bounds every request issued by the UI. Defaults to Background.
	Ctx context.Context
}

// App is the root Bubble Tea model.
// IMPORTANT: App never blocks in Update. All I/O runs in Cmds.
type App struct {
	backend Backend
	log     *otel.Logger
	ring    *otel.RingBuffer
	ctx     context.Context

	tab     Tab
	chat    chatModel
	search  searchModel
	gallery searchModel
	ranking rankingModel

	poller   *status.Poller
	statusG  *status.Generation
	status   status.Result
	haveStat bool

	debugVisible bool
	width        int
	height       int
	ready        bool
	quitting     bool
}

// NewApp builds the root model.
func NewApp(opts Options) App {
	ctx := opts.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	b := opts.Backend
	return App{
		backend: b,
		log:     opts.Log,
		ring:    opts.Ring,
		ctx:     ctx,
		tab:     TabChat,
		chat:    newChatModel(ctx, b, opts.Log),
		search:  newSearchModel(ctx, b, opts.Log, opts.WebBaseURL),
		gallery: newGalleryModel(ctx, b, b.ImageURL, opts.Log, opts.WebBaseURL),
		ranking: newRankingModel(ctx, b, opts.Log, opts.WebBaseURL),
		poller:  status.NewPoller(opts.StatusInterval, opts.Log),
		statusG: &status.Generation{},
	}
}

// Init starts the status poll for the initial tab.
func (a App) Init() tea.Cmd {
	a.log.Info(otel.KindStartup, "ui", "tui started")
	// The generation is shared through a pointer, so the bump survives the
	// value copy that Init receives.
	return a.startPolling()
}

// startPolling invalidates earlier ticks and fetches immediately.
func (a *App) startPolling() tea.Cmd {
	gen := a.statusG.Bump()
	return a.fetchStatus(gen)
}

// stopPolling makes every outstanding tick and fetch stale.
func (a *App) stopPolling() {
	a.statusG.Bump()
}

func (a App) fetchStatus(gen uint64) tea.Cmd {
	ctx, poller, backend := a.ctx, a.poller, a.backend
	return func() tea.Msg {
		r, ok := poller.Once(ctx, backend.Status)
		if !ok {
			return nil
		}
		return statusResultMsg{gen: gen, result: r}
	}
}

func (a App) scheduleStatus(gen uint64) tea.Cmd {
	return tea.Tick(a.poller.Interval, func(time.Time) tea.Msg {
		return statusTickMsg{gen: gen}
	})
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.resize()
		return a, nil

	case statusTickMsg:
		if !a.statusG.Live(msg.gen) {
			return a, nil
		}
		return a, a.fetchStatus(msg.gen)

	case statusResultMsg:
		if !a.statusG.Live(msg.gen) {
			return a, nil
		}
		a.status = msg.result
		a.haveStat = true
		return a, a.scheduleStatus(msg.gen)

	case searchDoneMsg:
		var cmd tea.Cmd
		if msg.oekaki {
			a.gallery, cmd = a.gallery.Update(msg)
		} else {
			a.search, cmd = a.search.Update(msg)
		}
		return a, cmd

	case rankingDoneMsg:
		var cmd tea.Cmd
		a.ranking, cmd = a.ranking.Update(msg)
		return a, cmd

	case jumpToSearchMsg:
		cmd := a.switchTab(TabSearch)
		var sub tea.Cmd
		a.search, sub = a.search.SubmitID(msg.id)
		return a, tea.Batch(cmd, sub)

	case chatStreamStartMsg, chatEventMsg, chatStreamEndMsg:
		// Stream messages belong to the chat model regardless of the visible tab.
		var cmd tea.Cmd
		a.chat, cmd = a.chat.Update(msg)
		return a, cmd
	}

	// The chat model keeps its spinner and prompt cursor alive on every tab;
	// the visible tab gets the message too, for its own cursor blinks.
	var cmd, sub tea.Cmd
	a.chat, cmd = a.chat.Update(msg)
	switch a.tab {
	case TabSearch:
		a.search, sub = a.search.Update(msg)
	case TabOekaki:
		a.gallery, sub = a.gallery.Update(msg)
	case TabRanking:
		a.ranking, sub = a.ranking.Update(msg)
	}
	return a, tea.Batch(cmd, sub)
}

// typing reports whether the visible tab has a focused text input.
func (a App) typing() bool {
	switch a.tab {
	case TabChat:
		return a.chat.Typing()
	case TabSearch:
		return a.search.Typing()
	case TabOekaki:
		return a.gallery.Typing()
	case TabRanking:
		return a.ranking.Typing()
	}
	return false
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.log.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindKeyPress, Comp: "ui", Msg: msg.String()})

	switch {
	case key.Matches(msg, keys.ForceQuit):
		return a.quit()
	case key.Matches(msg, keys.Debug):
		a.debugVisible = !a.debugVisible
		return a, nil
	case key.Matches(msg, keys.NextTab):
		return a, a.switchTab((a.tab + 1) % tabCount)
	case key.Matches(msg, keys.PrevTab):
		return a, a.switchTab((a.tab + tabCount - 1) % tabCount)
	}

	if !a.typing() {
		switch {
		case key.Matches(msg, keys.Quit):
			return a.quit()
		case key.Matches(msg, keys.CycleTab):
			return a, a.switchTab((a.tab + 1) % tabCount)
		case key.Matches(msg, keys.CycleBack):
			return a, a.switchTab((a.tab + tabCount - 1) % tabCount)
		}
		if t, ok := tabNumber(msg.String()); ok {
			return a, a.switchTab(t)
		}
	}

	var cmd tea.Cmd
	switch a.tab {
	case TabChat:
		a.chat, cmd = a.chat.Update(msg)
	case TabSearch:
		a.search, cmd = a.search.Update(msg)
	case TabOekaki:
		a.gallery, cmd = a.gallery.Update(msg)
	case TabRanking:
		a.ranking, cmd = a.ranking.Update(msg)
	}
	return a, cmd
}

// switchTab tears down the leaving view and sets up the entered one.
// The status poll lives on the chat tab.
func (a *App) switchTab(t Tab) tea.Cmd {
	if t == a.tab {
		return nil
	}
	a.log.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindTabSwitch, Comp: "ui", Msg: t.String()})
	if a.tab == TabChat {
		a.stopPolling()
	}
	a.tab = t

	switch t {
	case TabChat:
		return a.startPolling()
	case TabRanking:
		var cmd tea.Cmd
		a.ranking, cmd = a.ranking.EnsureLoaded()
		return cmd
	}
	return nil
}

func (a App) quit() (tea.Model, tea.Cmd) {
	a.stopPolling()
	a.chat.stop()
	a.quitting = true
	a.log.Info(otel.KindShutdown, "ui", "tui quit")
	return a, tea.Quit
}

// resize hands each tab the area left after the tab bar and status bar.
func (a *App) resize() {
	h := a.height - 3
	if h < 1 {
		h = 1
	}
	a.chat.SetSize(a.width, h)
	a.search.SetSize(a.width, h)
	a.gallery.SetSize(a.width, h)
	a.ranking.SetSize(a.width, h)
}

// View renders the UI.
func (a App) View() string {
	if a.quitting {
		return ""
	}
	if !a.ready {
		return "Loading..."
	}
	if a.debugVisible {
		return debugOverlay(a.ring, a.width, a.height-1) + "\n" + debugStatusBar(a.width)
	}

	var content string
	switch a.tab {
	case TabChat:
		content = a.chat.View()
	case TabSearch:
		content = a.search.View()
	case TabOekaki:
		content = a.gallery.View()
	case TabRanking:
		content = a.ranking.View()
	}

	return strings.Join([]string{a.tabBar(), content, a.statusBar()}, "\n")
}

func (a App) tabBar() string {
	var parts []string
	for t := TabChat; t < tabCount; t++ {
		label := " " + string(rune('1'+int(t))) + " " + t.String() + " "
		if t == a.tab {
			parts = append(parts, TabActive.Render(label))
		} else {
			parts = append(parts, TabInactive.Render(label))
		}
	}
	return strings.Join(parts, "")
}

func (a App) statusBar() string {
	left := ""
	if a.tab == TabChat && a.haveStat {
		left = IndexStatusStyle.Render(status.DescribeResult(a.status)) + "  "
	}
	help := StatusBarKey.Render("ctrl+n/p") + StatusBarText.Render(":tab ") +
		StatusBarKey.Render("/") + StatusBarText.Render(":edit ") +
		StatusBarKey.Render("ctrl+d") + StatusBarText.Render(":debug ") +
		StatusBarKey.Render("q") + StatusBarText.Render(":quit")
	return StatusBar.Width(a.width).Render(left + help)
}

// Tab returns the visible tab (for testing).
func (a App) Tab() Tab {
	return a.tab
}

// StatusResult returns the last applied status poll (for testing).
func (a App) StatusResult() (status.Result, bool) {
	return a.status, a.haveStat
}
