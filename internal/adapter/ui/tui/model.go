package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tejashwikalptaru/tunedeck/internal/adapter/render"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

const (
	volumeStep = 0.05
	seekStep   = 0.05
)

// Commands is the part of the presenter the terminal front end drives.
type Commands interface {
	OnPlayClicked()
	OnNextClicked()
	OnPreviousClicked()
	OnTrackSelected(index int)
	OnRemoveTrack(index int)
	OnMoveTrack(from, to int)
	OnShuffleClicked()
	OnClearPlaylist()
	OnFilesOpened(paths []string) domain.IngestResult
	OnVolumeStep(delta float64)
	OnMuteClicked()
	OnPlayModeClicked()
	OnSeekRequested(fraction float64)
	OnSearch(query string) domain.SearchResponse
	OnSearchResultSelected(result domain.SearchResult)
	OnSearchCleared()
	OnThemeToggled()
}

var _ Commands = (*render.Presenter)(nil)

// Focus areas
type focusArea int

const (
	focusPlaylist focusArea = iota
	focusSearch
	focusResults
	focusOpen
)

// Model is the Bubble Tea model of the player.
type Model struct {
	commands Commands
	sink     *Sink
	// dispatch runs a command off the update loop.
	dispatch func(fn func()) tea.Cmd

	state  state
	focus  focusArea
	cursor int
	result int

	searchInput textinput.Model
	openInput   textinput.Model

	width, height int
}

// NewModel creates a model that renders sink updates and drives commands.
func NewModel(commands Commands, sink *Sink) Model {
	search := textinput.New()
	search.Placeholder = "Search title or artist..."
	search.CharLimit = 156
	search.Prompt = "/ "

	open := textinput.New()
	open.Placeholder = "Path to an audio file"
	open.Prompt = "+ "

	return Model{
		commands:    commands,
		sink:        sink,
		dispatch:    background,
		state:       sink.snapshot(),
		searchInput: search,
		openInput:   open,
	}
}

func background(fn func()) tea.Cmd {
	return func() tea.Msg {
		fn()
		return nil
	}
}

// Init starts listening for sink updates.
func (m Model) Init() tea.Cmd {
	return m.sink.wait
}

// Update handles sink snapshots, resizes and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		m.state = state(msg)
		m.clampCursor()
		return m, m.sink.wait

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.focus {
		case focusSearch:
			return m.updateSearch(msg)
		case focusResults:
			return m.updateResults(msg)
		case focusOpen:
			return m.updateOpen(msg)
		default:
			return m.updatePlaylist(msg)
		}
	}
	return m, nil
}

func (m Model) updatePlaylist(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.commands
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.state.tracks)-1 {
			m.cursor++
		}
	case "enter":
		if len(m.state.tracks) > 0 {
			index := m.cursor
			return m, m.dispatch(func() { c.OnTrackSelected(index) })
		}
	case " ":
		return m, m.dispatch(c.OnPlayClicked)
	case "n":
		return m, m.dispatch(c.OnNextClicked)
	case "p":
		return m, m.dispatch(c.OnPreviousClicked)
	case "right", "l":
		return m, m.seek(seekStep)
	case "left", "h":
		return m, m.seek(-seekStep)
	case "+", "=":
		return m, m.dispatch(func() { c.OnVolumeStep(volumeStep) })
	case "-":
		return m, m.dispatch(func() { c.OnVolumeStep(-volumeStep) })
	case "m":
		return m, m.dispatch(c.OnMuteClicked)
	case "r":
		return m, m.dispatch(c.OnPlayModeClicked)
	case "s":
		return m, m.dispatch(c.OnShuffleClicked)
	case "t":
		return m, m.dispatch(c.OnThemeToggled)
	case "C":
		return m, m.dispatch(c.OnClearPlaylist)
	case "d", "delete":
		if len(m.state.tracks) > 0 {
			index := m.cursor
			return m, m.dispatch(func() { c.OnRemoveTrack(index) })
		}
	case "K":
		if m.cursor > 0 {
			from := m.cursor
			m.cursor--
			return m, m.dispatch(func() { c.OnMoveTrack(from, from-1) })
		}
	case "J":
		if m.cursor < len(m.state.tracks)-1 {
			from := m.cursor
			m.cursor++
			return m, m.dispatch(func() { c.OnMoveTrack(from, from+1) })
		}
	case "/":
		m.focus = focusSearch
		return m, m.searchInput.Focus()
	case "o":
		m.focus = focusOpen
		return m, m.openInput.Focus()
	case "tab":
		if len(m.state.results) > 0 {
			m.focus = focusResults
		}
	}
	return m, nil
}

func (m Model) seek(delta float64) tea.Cmd {
	if m.state.duration <= 0 {
		return nil
	}
	fraction := render.Fraction(m.state.position, m.state.duration) + delta
	c := m.commands
	return m.dispatch(func() { c.OnSeekRequested(fraction) })
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.commands
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.searchInput.SetValue("")
		m.searchInput.Blur()
		m.focus = focusPlaylist
		m.result = 0
		return m, m.dispatch(c.OnSearchCleared)
	case "enter":
		query := strings.TrimSpace(m.searchInput.Value())
		m.searchInput.Blur()
		m.focus = focusResults
		m.result = 0
		return m, m.dispatch(func() { c.OnSearch(query) })
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.commands
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "tab":
		m.focus = focusPlaylist
	case "/":
		m.focus = focusSearch
		return m, m.searchInput.Focus()
	case "up", "k":
		if m.result > 0 {
			m.result--
		}
	case "down", "j":
		if m.result < len(m.state.results)-1 {
			m.result++
		}
	case "enter":
		if m.result < len(m.state.results) {
			selected := m.state.results[m.result]
			m.focus = focusPlaylist
			return m, m.dispatch(func() { c.OnSearchResultSelected(selected) })
		}
	}
	return m, nil
}

func (m Model) updateOpen(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.commands
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.openInput.SetValue("")
		m.openInput.Blur()
		m.focus = focusPlaylist
		return m, nil
	case "enter":
		path := strings.TrimSpace(m.openInput.Value())
		m.openInput.SetValue("")
		m.openInput.Blur()
		m.focus = focusPlaylist
		if path == "" {
			return m, nil
		}
		return m, m.dispatch(func() { c.OnFilesOpened([]string{path}) })
	}

	var cmd tea.Cmd
	m.openInput, cmd = m.openInput.Update(msg)
	return m, cmd
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.state.tracks) {
		m.cursor = len(m.state.tracks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.result >= len(m.state.results) {
		m.result = 0
	}
	if m.focus == focusResults && len(m.state.results) == 0 && m.state.query == "" {
		m.focus = focusPlaylist
	}
}

// Run starts the terminal UI and blocks until the user quits.
func Run(commands Commands, sink *Sink) error {
	defer sink.Close()

	p := tea.NewProgram(NewModel(commands, sink), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
