package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/keypiano/internal/notes"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/truncate"
)

const indent = "  "

func (m model) buildingView() string {
	var b strings.Builder

	msg := "Rendering notes" + ellipsis
	if m.progress.Note != "" {
		msg = fmt.Sprintf("Rendering notes%s %s (%d/%d)", ellipsis, m.progress.Note, m.progress.Done, m.progress.Total)
	}

	b.WriteString(indent + m.spinner.View() + " " + m.fit(msg) + "\n\n")
	b.WriteString(indent + m.bar.ViewAs(m.progress.Percent()) + "\n")
	return b.String()
}

// readyHeader is everything the ready view draws above the keyboard.
func (m model) readyHeader() string {
	return indent + m.styles.label.Render(m.label) + "\n\n"
}

func (m model) readyView() string {
	var b strings.Builder

	b.WriteString(m.readyHeader())
	b.WriteString(indentBlock(m.keyboardView()))
	b.WriteString("\n\n")

	if m.status != "" {
		b.WriteString(indent + m.styles.status.Render(m.fit(m.status)) + "\n")
	}
	if m.stats != nil {
		footer := fmt.Sprintf("%d notes cached · %s in %s",
			m.stats.Entries, humanize.Bytes(uint64(m.stats.Bytes)), m.cache.Dir()) //nolint:gosec
		b.WriteString(indent + m.styles.footer.Render(m.fit(footer)) + "\n")
	}
	b.WriteString(indent + m.help.View(keys) + "\n")
	return b.String()
}

func (m model) keyBox(n notes.Note) string {
	style := m.styles.key
	switch {
	case m.unavailable[n.Name]:
		style = m.styles.missingKey
	case n.Key == m.active:
		style = m.styles.activeKey
	}
	return style.Render(strings.ToUpper(string(n.Key)) + "\n" + n.Name)
}

// keyboardLayout returns the size of one key box and how many boxes fit
// on a row. Every box has the same size.
func (m model) keyboardLayout() (width, height, perRow int) {
	all := m.table.Notes()
	if len(all) == 0 {
		return 0, 0, 1
	}

	box := m.keyBox(all[0])
	width, height = lipgloss.Width(box), lipgloss.Height(box)
	perRow = len(all)
	if m.width > 0 {
		perRow = max((m.width-len(indent))/width, 1)
	}
	return width, height, perRow
}

// keyboardView draws one box per note, wrapping onto more rows when the
// terminal is too narrow for a single one.
func (m model) keyboardView() string {
	all := m.table.Notes()
	boxes := make([]string, 0, len(all))
	for _, n := range all {
		boxes = append(boxes, m.keyBox(n))
	}

	_, _, perRow := m.keyboardLayout()

	var rows []string
	for start := 0; start < len(boxes); start += perRow {
		end := min(start+perRow, len(boxes))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, boxes[start:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// keyAt returns the note whose box covers screen cell (x, y).
func (m model) keyAt(x, y int) (notes.Note, bool) {
	width, height, perRow := m.keyboardLayout()
	x -= len(indent)
	y -= strings.Count(m.header()+m.readyHeader(), "\n")
	if width == 0 || x < 0 || y < 0 {
		return notes.Note{}, false
	}

	col, row := x/width, y/height
	if col >= perRow {
		return notes.Note{}, false
	}

	all := m.table.Notes()
	i := row*perRow + col
	if i >= len(all) {
		return notes.Note{}, false
	}
	return all[i], true
}

func (m model) errorView() string {
	var b strings.Builder
	b.WriteString("\n" + indent + m.styles.errorStatus.Render("Error: ") + m.fit(m.fatalErr.Error()) + "\n\n")
	b.WriteString(indent + m.styles.footer.Render("Press any key to exit.") + "\n")
	return b.String()
}

// fit truncates s to the terminal width.
func (m model) fit(s string) string {
	if m.width <= len(indent) {
		return s
	}
	return truncate.StringWithTail(s, uint(m.width-len(indent)), ellipsis) //nolint:gosec
}

func indentBlock(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = indent + l
	}
	return strings.Join(lines, "\n")
}
