package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/tejashwikalptaru/tunedeck/internal/adapter/render"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

const (
	defaultWidth  = 60
	defaultHeight = 24
	// chrome is the number of lines drawn around the playlist.
	chrome = 11
)

const helpText = "space play • n/p next/prev • ←/→ seek • +/- volume • m mute • r mode • / search • o open • q quit"

type palette struct {
	accent, text, muted, border lipgloss.Color
}

var palettes = map[domain.Theme]palette{
	domain.ThemeLight: {accent: "#1A73E8", text: "#202124", muted: "#5F6368", border: "#DADCE0"},
	domain.ThemeDark:  {accent: "#1DB954", text: "#FFFFFF", muted: "#B3B3B3", border: "#2A2A2A"},
}

type styles struct {
	title, current, selected, muted, notice, box lipgloss.Style
}

func newStyles(theme domain.Theme) styles {
	p, ok := palettes[theme]
	if !ok {
		p = palettes[domain.ThemeLight]
	}
	return styles{
		title:    lipgloss.NewStyle().Foreground(p.accent).Bold(true),
		current:  lipgloss.NewStyle().Foreground(p.accent).Bold(true),
		selected: lipgloss.NewStyle().Foreground(p.text).Reverse(true),
		muted:    lipgloss.NewStyle().Foreground(p.muted),
		notice:   lipgloss.NewStyle().Foreground(p.accent).Italic(true),
		box:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.border).Padding(0, 1),
	}
}

// truncate shortens s to at most width terminal cells.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// progressBar draws fraction as a bar of width cells.
func progressBar(fraction float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(fraction * float64(width))
	filled = max(0, min(filled, width))
	return strings.Repeat("━", filled) + strings.Repeat("─", width-filled)
}

// View renders the player.
func (m Model) View() string {
	width, height := m.width, m.height
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	inner := width - 4
	st := newStyles(m.state.theme)

	var lines []string
	lines = append(lines, st.title.Render(truncate("TuneDeck • "+m.nowPlaying(), inner)))

	position := render.FormatTime(m.state.position)
	total := render.FormatDuration(m.state.duration)
	barWidth := inner - runewidth.StringWidth(position) - runewidth.StringWidth(total) - 2
	lines = append(lines, fmt.Sprintf("%s %s %s", position, progressBar(render.Fraction(m.state.position, m.state.duration), barWidth), total))

	status := fmt.Sprintf("%s • volume %d%% • %s", m.state.playback, int(m.state.volume*100+0.5), m.state.mode.Label())
	lines = append(lines, st.muted.Render(truncate(status, inner)), "")

	lines = append(lines, m.playlistLines(st, inner, max(1, height-chrome-len(m.state.results)))...)
	lines = append(lines, "")

	switch m.focus {
	case focusSearch:
		lines = append(lines, m.searchInput.View())
	case focusOpen:
		lines = append(lines, m.openInput.View())
	default:
		if m.state.query != "" {
			lines = append(lines, st.muted.Render(truncate("Results for "+m.state.query, inner)))
		}
	}
	lines = append(lines, m.resultLines(st, inner)...)

	for _, n := range m.state.notifications {
		lines = append(lines, st.notice.Render(truncate(n, inner)))
	}
	lines = append(lines, st.muted.Render(truncate(helpText, inner)))

	return st.box.Width(width - 2).Render(strings.Join(lines, "\n"))
}

func (m Model) nowPlaying() string {
	if m.state.loaded == nil {
		return "Nothing loaded"
	}
	return m.state.loaded.DisplayName()
}

// playlistLines renders a window of the playlist that keeps the cursor visible.
func (m Model) playlistLines(st styles, width, rows int) []string {
	if len(m.state.tracks) == 0 {
		return []string{st.muted.Render("Playlist is empty. Press o to open a file.")}
	}

	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	end := min(start+rows, len(m.state.tracks))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		t := m.state.tracks[i]
		marker := "  "
		if i == m.state.current {
			marker = "♪ "
		}
		duration := render.FormatDuration(t.Duration)
		name := truncate(fmt.Sprintf("%s%d. %s", marker, i+1, t.DisplayName()), width-runewidth.StringWidth(duration)-1)
		line := runewidth.FillRight(name, width-runewidth.StringWidth(duration)) + duration

		switch {
		case i == m.cursor && m.focus == focusPlaylist:
			line = st.selected.Render(line)
		case i == m.state.current:
			line = st.current.Render(line)
		}
		lines = append(lines, line)
	}
	return lines
}

func (m Model) resultLines(st styles, width int) []string {
	lines := make([]string, 0, len(m.state.results))
	for i, r := range m.state.results {
		line := truncate("  "+r.Track.DisplayName(), width)
		if i == m.result && m.focus == focusResults {
			line = st.selected.Render(runewidth.FillRight(line, width))
		}
		lines = append(lines, line)
	}
	return lines
}
