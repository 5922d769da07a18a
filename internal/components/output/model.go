// Package output renders the latest action result: a scrollable, filterable
// view with line selection for the "...selected" action variants.
package output

import (
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/keyvc/vix/internal/theme"
	"github.com/keyvc/vix/internal/vcs"
)

// Model holds the displayed result. Filter and selection are presentation
// views over the result's lines; the result itself is never mutated, so
// clearing the filter always recovers the original content.
type Model struct {
	theme *theme.Theme

	result     vcs.Result
	title      string
	hasContent bool

	width  int
	height int

	scroll  int
	filter  string
	visible []int // indices into result.Lines that pass the filter

	selecting bool
	cursor    int          // position within visible
	selected  map[int]bool // keyed by underlying line index

	hlLines []string // chroma-highlighted diff lines, nil when not a diff
}

// New creates an empty output view.
func New(t *theme.Theme) Model {
	return Model{theme: t, selected: make(map[int]bool)}
}

// SetSize updates the viewport dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.clampScroll()
}

// SetContent replaces the displayed result and resets scroll, filter, and
// selection. Diff results get a chroma-highlighted rendering; everything
// else is styled per line kind.
func (m *Model) SetContent(title string, r vcs.Result, isDiff bool) {
	m.result = r
	m.title = title
	m.hasContent = true
	m.scroll = 0
	m.filter = ""
	m.cursor = 0
	m.selected = make(map[int]bool)
	m.refreshVisible()

	m.hlLines = nil
	if isDiff && r.OK {
		if hl, ok := theme.HighlightDiff(r.Text()); ok {
			m.hlLines = strings.Split(strings.TrimRight(hl, "\n"), "\n")
			if len(m.hlLines) != len(r.Lines) {
				// Highlighter changed the line structure; trust the tags.
				m.hlLines = nil
			}
		}
	}
}

// Title returns the name of the displayed action.
func (m *Model) Title() string { return m.title }

// Result returns the displayed result.
func (m *Model) Result() vcs.Result { return m.result }

// HasContent reports whether any result has been shown yet.
func (m *Model) HasContent() bool { return m.hasContent }

// VisibleLines returns the texts of the lines passing the filter, in order.
func (m *Model) VisibleLines() []string {
	lines := make([]string, len(m.visible))
	for i, idx := range m.visible {
		lines[i] = m.result.Lines[idx].Text
	}
	return lines
}

// ApplyFilter recomputes the visible lines as those containing text as a
// case-sensitive substring. The empty string is the identity transform.
func (m *Model) ApplyFilter(text string) {
	m.filter = text
	m.refreshVisible()
	m.clampScroll()
	if m.cursor >= len(m.visible) {
		m.cursor = max(0, len(m.visible)-1)
	}
}

// FilterText returns the applied filter.
func (m *Model) FilterText() string { return m.filter }

func (m *Model) refreshVisible() {
	m.visible = m.visible[:0]
	for i, l := range m.result.Lines {
		if m.filter == "" || strings.Contains(l.Text, m.filter) {
			m.visible = append(m.visible, i)
		}
	}
}

// Scroll moves the viewport by delta lines, clamped to the content.
func (m *Model) Scroll(delta int) {
	m.scroll += delta
	m.clampScroll()
}

// ScrollOffset returns the current scroll position.
func (m *Model) ScrollOffset() int { return m.scroll }

func (m *Model) clampScroll() {
	maxScroll := max(0, len(m.visible)-m.contentHeight())
	if m.scroll > maxScroll {
		m.scroll = maxScroll
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
}

func (m *Model) contentHeight() int {
	if m.height <= 0 {
		return 1
	}
	return m.height
}

// SetSelecting toggles selection mode. Leaving the mode keeps the
// selection so a subsequent "...selected" action can use it.
func (m *Model) SetSelecting(on bool) {
	m.selecting = on
	if on && m.cursor >= len(m.visible) {
		m.cursor = max(0, len(m.visible)-1)
	}
}

// Selecting reports whether selection mode is active.
func (m *Model) Selecting() bool { return m.selecting }

// HandleSelectKey processes one key while selecting: j/k or arrows move
// the cursor, space toggles the hovered line, a toggles all.
func (m *Model) HandleSelectKey(key string) {
	switch key {
	case "j", "down":
		m.MoveCursor(1)
	case "k", "up":
		m.MoveCursor(-1)
	case "ctrl+d", "pgdown":
		m.MoveCursor(m.contentHeight() / 2)
	case "ctrl+u", "pgup":
		m.MoveCursor(-m.contentHeight() / 2)
	case " ", "space":
		m.ToggleAtCursor()
	case "a":
		m.toggleAll()
	}
}

// MoveCursor moves the selection cursor, keeping it in view.
func (m *Model) MoveCursor(delta int) {
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.visible) {
		m.cursor = max(0, len(m.visible)-1)
	}
	if m.cursor < m.scroll {
		m.scroll = m.cursor
	} else if m.cursor >= m.scroll+m.contentHeight() {
		m.scroll = m.cursor - m.contentHeight() + 1
	}
}

// ToggleAtCursor flips selection of the hovered line. It is a no-op
// outside selection mode.
func (m *Model) ToggleAtCursor() {
	if !m.selecting || m.cursor >= len(m.visible) {
		return
	}
	idx := m.visible[m.cursor]
	if m.selected[idx] {
		delete(m.selected, idx)
	} else {
		m.selected[idx] = true
	}
}

func (m *Model) toggleAll() {
	if !m.selecting {
		return
	}
	// Mirror the first visible line's state onto all, like toggling a
	// select-all checkbox.
	allOn := len(m.visible) > 0
	for _, idx := range m.visible {
		if !m.selected[idx] {
			allOn = false
			break
		}
	}
	for _, idx := range m.visible {
		if allOn {
			delete(m.selected, idx)
		} else {
			m.selected[idx] = true
		}
	}
}

// SelectedRefs returns the refs of the selected lines, in content order,
// skipping lines that carry no ref.
func (m *Model) SelectedRefs() []string {
	var refs []string
	for i, l := range m.result.Lines {
		if m.selected[i] && l.Ref != "" {
			refs = append(refs, l.Ref)
		}
	}
	return refs
}

// SelectedCount returns how many lines are selected.
func (m *Model) SelectedCount() int { return len(m.selected) }

// View renders the visible window.
func (m *Model) View() string {
	if !m.hasContent {
		return m.theme.Help.Render("press ? for help")
	}

	var sb strings.Builder
	end := min(m.scroll+m.contentHeight(), len(m.visible))
	for vi := m.scroll; vi < end; vi++ {
		idx := m.visible[vi]
		line := m.result.Lines[idx]

		marker := "  "
		if m.selecting && vi == m.cursor {
			marker = "> "
		} else if m.selected[idx] {
			marker = "+ "
		}

		text := line.Text
		if m.width > 2 {
			text = ansi.Truncate(text, m.width-2, "")
		}

		switch {
		case m.selecting && vi == m.cursor:
			sb.WriteString(m.theme.LineCursor.Render(marker + text))
		case m.selected[idx]:
			sb.WriteString(m.theme.LineSelected.Render(marker + text))
		case m.hlLines != nil && m.filter == "":
			hl := m.hlLines[idx]
			if m.width > 2 {
				hl = ansi.Truncate(hl, m.width-2, "")
			}
			sb.WriteString(marker + hl)
		default:
			sb.WriteString(marker + m.theme.LineStyle(line.Kind).Render(text))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
