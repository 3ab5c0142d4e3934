// Package ui provides the terminal piano: a progress view while the note
// cache is built, then an on-screen keyboard.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/keypiano/internal/cache"
	"github.com/dgnsrekt/keypiano/internal/notes"
	"golang.org/x/time/rate"
)

const ellipsis = "…"

// NoteCache is what the UI needs from the note cache.
type NoteCache interface {
	Build(ctx context.Context, progress chan<- cache.Progress) (cache.BuildResult, error)
	Play(ctx context.Context, name string) error
	Watch(ctx context.Context) (<-chan cache.Event, error)
	Stats() (cache.Stats, error)
	Stop() error
	Dir() string
}

// state is the top-level application state.
type state int

const (
	stateUninitialized state = iota
	stateBuilding
	stateReady
)

func (s state) String() string {
	return map[state]string{
		stateUninitialized: "uninitialized",
		stateBuilding:      "building note cache",
		stateReady:         "ready",
	}[s]
}

type keyMap struct {
	Silence key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding  { return []key.Binding{k.Silence, k.Quit} }
func (k keyMap) FullHelp() [][]key.Binding { return [][]key.Binding{{k.Silence, k.Quit}} }

var keys = keyMap{
	Silence: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "silence"),
	),
	Quit: key.NewBinding(
		key.WithKeys("esc", "ctrl+c", "q"),
		key.WithHelp("esc/q", "quit"),
	),
}

type model struct {
	cfg   Config
	cache NoteCache
	table notes.Table

	ctx    context.Context
	cancel context.CancelFunc

	state    state
	fatalErr error
	width    int

	// Building
	progressCh chan cache.Progress
	progress   cache.Progress
	bar        progress.Model
	spinner    spinner.Model

	// Ready
	label       string
	active      rune
	unavailable map[string]bool
	limiters    map[rune]*rate.Limiter
	status      string
	stats       *cache.Stats
	events      <-chan cache.Event

	styles styles
	help   help.Model
}

// Run shows the piano until the user quits. A failed cache build is
// returned as an error.
func Run(cfg Config, c NoteCache, table notes.Table) error {
	opts := []tea.ProgramOption{}
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	switch {
	case cfg.EnableMouse && cfg.AltScreen:
		opts = append(opts, tea.WithMouseCellMotion())
	case cfg.EnableMouse:
		// Click positions are screen-relative; only the alt screen puts
		// the keyboard at a known row
		log.Warn("mouse support needs the alt screen, clicks are disabled")
	}

	m := newModel(cfg, c, table)
	defer m.cancel()

	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	if fm, ok := final.(model); ok && fm.fatalErr != nil {
		return fm.fatalErr
	}
	return nil
}

func newModel(cfg Config, c NoteCache, table notes.Table) model {
	ctx, cancel := context.WithCancel(context.Background())

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return model{
		cfg:         cfg,
		cache:       c,
		table:       table,
		ctx:         ctx,
		cancel:      cancel,
		state:       stateUninitialized,
		progressCh:  make(chan cache.Progress),
		progress:    cache.Progress{Total: table.Len()},
		bar:         progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		spinner:     sp,
		unavailable: make(map[string]bool),
		limiters:    make(map[rune]*rate.Limiter),
		styles:      newStyles(cfg.HighlightColor),
		help:        help.New(),
	}
}

func (m model) Init() tea.Cmd {
	log.Debug("starting note cache build", "dir", m.cache.Dir(), "notes", m.table.Len())
	return tea.Batch(
		func() tea.Msg { return buildStartedMsg{} },
		m.spinner.Tick,
		buildCmd(m.ctx, m.cache, m.progressCh),
		waitForProgress(m.progressCh),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// If there's been an error, any key exits
	if m.fatalErr != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.cancel()
			return m, tea.Quit
		}
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.cancel()
			return m, tea.Quit
		}
		if m.state != stateReady {
			return m, nil
		}
		if key.Matches(msg, keys.Silence) {
			m.active = 0
			return m, stopCmd(m.cache)
		}
		return m.handleNoteKey(msg)

	case tea.MouseMsg:
		if m.state != stateReady || msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		n, ok := m.keyAt(msg.X, msg.Y)
		if !ok {
			return m, nil
		}
		return m.playNote(n)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.bar.Width = min(max(msg.Width-8, 10), 60)

	case buildStartedMsg:
		if m.state == stateUninitialized {
			m.state = stateBuilding
		}

	case buildProgressMsg:
		if m.state == stateUninitialized {
			m.state = stateBuilding
		}
		if msg.Done > m.progress.Done {
			m.progress = cache.Progress(msg)
		}
		return m, waitForProgress(m.progressCh)

	case buildDoneMsg:
		if msg.err != nil {
			log.Error("note cache build failed", "error", msg.err)
			m.fatalErr = fmt.Errorf("unable to build note cache: %w", msg.err)
			return m, nil
		}
		log.Info("note cache ready", "written", msg.result.Written, "skipped", msg.result.Skipped)
		m.state = stateReady
		m.progress.Done = m.progress.Total
		m.label = "Press a key to play!"
		return m, tea.Batch(statsCmd(m.cache), watchCacheCmd(m.ctx, m.cache))

	case playDoneMsg:
		if msg.err != nil {
			log.Warn("unable to play note", "note", msg.note.Name, "error", msg.err)
			m.status = fmt.Sprintf("%s: %v", msg.note.Name, msg.err)
			if errors.Is(msg.err, cache.ErrMissingEntry) {
				m.unavailable[msg.note.Name] = true
			}
		}
		if m.active == msg.note.Key {
			m.active = 0
		}

	case watchStartedMsg:
		m.events = msg.events
		return m, waitForCacheEvent(m.events)

	case cacheEventMsg:
		return m.handleCacheEvent(cache.Event(msg))

	case statsMsg:
		s := cache.Stats(msg)
		m.stats = &s

	case errMsg:
		m.fatalErr = msg
		return m, nil

	case spinner.TickMsg:
		if m.state == stateReady {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleNoteKey plays the note bound to the pressed key, if any.
func (m model) handleNoteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return m, nil
	}

	n, ok := m.table.ByKey(msg.Runes[0])
	if !ok {
		return m, nil
	}
	return m.playNote(n)
}

// playNote plays n unless the same note was started too recently.
func (m model) playNote(n notes.Note) (tea.Model, tea.Cmd) {
	lim, ok := m.limiters[n.Key]
	if !ok {
		lim = rate.NewLimiter(rate.Every(m.cfg.KeyRepeatInterval), 1)
		m.limiters[n.Key] = lim
	}
	if !lim.Allow() {
		return m, nil
	}

	m.label = n.String()
	m.active = n.Key
	m.status = ""

	return m, playNoteCmd(m.ctx, m.cache, n)
}

func (m model) handleCacheEvent(ev cache.Event) (tea.Model, tea.Cmd) {
	switch ev.Kind {
	case cache.EntryRemoved:
		log.Warn("cache entry removed", "note", ev.Name)
		m.unavailable[ev.Name] = true
		m.status = fmt.Sprintf("%s.wav was removed from the cache", ev.Name)
	case cache.EntryWritten:
		log.Debug("cache entry written", "note", ev.Name)
		delete(m.unavailable, ev.Name)
	}

	return m, tea.Batch(statsCmd(m.cache), waitForCacheEvent(m.events))
}

// header is the title drawn above every non-error view.
func (m model) header() string {
	return "\n" + m.styles.title.Render("keypiano") + "\n\n"
}

func (m model) View() string {
	if m.fatalErr != nil {
		return m.errorView()
	}

	var b strings.Builder
	b.WriteString(m.header())

	switch m.state {
	case stateUninitialized, stateBuilding:
		b.WriteString(m.buildingView())
	case stateReady:
		b.WriteString(m.readyView())
	}

	return b.String()
}
