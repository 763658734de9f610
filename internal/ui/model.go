package ui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/gubarz/bibkit/internal/bibtex"
	"github.com/gubarz/bibkit/internal/config"
)

// maxResults caps the filtered list to keep rendering responsive.
const maxResults = 1000

// ============================================================================
// Entry Item
// ============================================================================

// entryItem wraps a Record with display metadata
type entryItem struct {
	record  *bibtex.Record
	title   string
	year    string
	authors string
	search  string // lower-cased text the filter matches against
}

// newEntryItem creates an entryItem from a Record
func newEntryItem(r *bibtex.Record) entryItem {
	title, _ := r.Fields.Get("title")
	year, _ := r.Fields.Get("year")
	author, _ := r.Fields.Get("author")
	authors := bibtex.FormatAuthors(author)
	title = strings.Join(strings.Fields(title), " ")

	search := strings.ToLower(strings.Join([]string{
		r.CitationKey, r.EntryType, title, year, authors,
	}, "\x00"))

	return entryItem{
		record:  r,
		title:   title,
		year:    year,
		authors: authors,
		search:  search,
	}
}

// matchesQuery checks if the item contains all (lower-cased) search words
func (item *entryItem) matchesQuery(words []string) bool {
	for _, word := range words {
		if !strings.Contains(item.search, word) {
			return false
		}
	}
	return true
}

// ============================================================================
// Column Config
// ============================================================================

// columnConfig holds display column widths
type columnConfig struct {
	keyWidth   int
	titleWidth int
	gap        int
}

func loadColumnConfig() columnConfig {
	return columnConfig{
		keyWidth:   config.GetColumnKey(),
		titleWidth: config.GetColumnTitle(),
		gap:        2,
	}
}

// ============================================================================
// Debounce
// ============================================================================

// filterMsg triggers filtering after debounce
type filterMsg struct{}

func debounceFilter() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg {
		return filterMsg{}
	})
}

// ============================================================================
// Browse Model
// ============================================================================

// browseModel is the Bubble Tea model for picking one entry of a bibliography
type browseModel struct {
	width     int
	height    int
	textInput textinput.Model
	quitting  bool

	items      []entryItem
	filtered   []entryItem
	cursor     int
	offset     int // viewport scroll offset
	selected   *bibtex.Record
	columns    columnConfig
	serializer bibtex.Serializer
}

func newBrowseModel(records []*bibtex.Record, serializer bibtex.Serializer) browseModel {
	ti := textinput.New()
	ti.Placeholder = "Type to search..."
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 50

	items := make([]entryItem, len(records))
	for i, r := range records {
		items[i] = newEntryItem(r)
	}

	return browseModel{
		items:      items,
		filtered:   items,
		textInput:  ti,
		columns:    loadColumnConfig(),
		serializer: serializer,
	}
}

// Init implements tea.Model
func (m browseModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = msg.Width - 4
	case tea.KeyMsg:
		if cmd := m.handleKey(msg); cmd != nil {
			return m, cmd
		}
	case filterMsg:
		m.filterItems()
		return m, nil
	}

	prevQuery := m.textInput.Value()
	var tiCmd tea.Cmd
	m.textInput, tiCmd = m.textInput.Update(msg)
	cmds = append(cmds, tiCmd)

	if m.textInput.Value() != prevQuery {
		cmds = append(cmds, debounceFilter())
	}

	return m, tea.Batch(cmds...)
}

// handleKey processes navigation keys. A nil return lets the key reach the input.
func (m *browseModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return tea.Quit
	case "enter":
		if m.cursor < len(m.filtered) {
			m.selected = m.filtered[m.cursor].record
			return tea.Quit
		}
	case "up", "ctrl+p":
		m.moveCursor(-1)
	case "down", "ctrl+n":
		m.moveCursor(1)
	case "pgup":
		m.moveCursor(-10)
	case "pgdown":
		m.moveCursor(10)
	case "home", "ctrl+a":
		m.cursor = 0
		m.adjustOffset()
	case "end", "ctrl+e":
		m.cursor = max(0, len(m.filtered)-1)
		m.adjustOffset()
	}
	return nil
}

func (m *browseModel) moveCursor(delta int) {
	m.cursor = clamp(m.cursor+delta, 0, max(0, len(m.filtered)-1))
	m.adjustOffset()
}

// adjustOffset ensures cursor is visible within viewport
func (m *browseModel) adjustOffset() {
	viewHeight := max(m.height-previewLines-inputLines, 3)
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+viewHeight {
		m.offset = m.cursor - viewHeight + 1
	}
	m.offset = clamp(m.offset, 0, max(0, len(m.filtered)-viewHeight))
}

// filterItems filters the entry list based on the search query
func (m *browseModel) filterItems() {
	query := strings.TrimSpace(m.textInput.Value())

	if query == "" {
		m.filtered = m.items
	} else {
		words := strings.Fields(strings.ToLower(query))
		m.filtered = make([]entryItem, 0, min(len(m.items), maxResults))
		for i := range m.items {
			if m.items[i].matchesQuery(words) {
				m.filtered = append(m.filtered, m.items[i])
				if len(m.filtered) >= maxResults {
					break
				}
			}
		}
	}

	m.cursor = clamp(m.cursor, 0, max(0, len(m.filtered)-1))
	m.adjustOffset()
}

// ============================================================================
// Rendering
// ============================================================================

const (
	previewLines = 10 // preview body plus divider
	inputLines   = 3  // divider + info + input
)

// View implements tea.Model
func (m browseModel) View() string {
	if m.quitting {
		return ""
	}

	width := max(m.width, 80)
	height := max(m.height, 24)

	preview := m.renderPreview(width)
	listHeight := max(height-previewLines-inputLines, 3)
	list := m.renderList(listHeight)
	padding := max(height-previewLines-countLines(list)-inputLines, 0)

	var b strings.Builder
	b.WriteString(preview)
	b.WriteString(list)
	b.WriteString(strings.Repeat("\n", padding))
	b.WriteString(m.renderInput(width))
	return b.String()
}

// renderPreview shows the highlighted entry as it would be emitted
func (m browseModel) renderPreview(width int) string {
	var b strings.Builder
	lines := 0
	const maxLines = previewLines - 1

	if m.cursor < len(m.filtered) {
		item := m.filtered[m.cursor]
		if item.authors != "" {
			b.WriteString(styles.PreviewKey.Render(runewidth.Truncate(item.authors, width, "…")))
			b.WriteString("\n")
			lines++
		}
		body := truncateLines(m.serializer.Serialize(item.record), maxLines-lines)
		b.WriteString(styles.PreviewBody.Render(body))
		b.WriteString("\n")
		lines += countLines(body)
	}

	for lines < maxLines {
		b.WriteString("\n")
		lines++
	}

	b.WriteString(styles.Divider.Render(strings.Repeat("─", width)))
	b.WriteString("\n")
	return b.String()
}

// renderList renders the scrollable list of entries
func (m browseModel) renderList(maxHeight int) string {
	if len(m.filtered) == 0 {
		return ""
	}

	offset := m.offset
	start, end := scrollWindow(m.cursor, len(m.filtered), maxHeight, &offset)

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(m.renderListItem(m.filtered[i], i == m.cursor))
		b.WriteString("\n")
	}
	return b.String()
}

// renderListItem renders key, type, year and title columns
func (m browseModel) renderListItem(item entryItem, selected bool) string {
	kStyle, typeStyle, yStyle, tStyle := itemStyles(selected)
	gapStyle := lipgloss.NewStyle()
	if selected {
		gapStyle = styles.Selected
	}
	gap := gapStyle.Render(strings.Repeat(" ", m.columns.gap))

	key := fitColumn(item.record.CitationKey, m.columns.keyWidth)
	kind := fitColumn(item.record.EntryType, 14)
	year := fitColumn(item.year, 4)
	title := runewidth.Truncate(item.title, m.titleWidth(), "…")

	line := kStyle.Render(key) + gap + typeStyle.Render(kind) + gap + yStyle.Render(year) + gap + tStyle.Render(title)
	if selected {
		return styles.Cursor.Render("▶ ") + line
	}
	return "  " + line
}

// itemStyles returns the column styles for a list row
func itemStyles(selected bool) (key, kind, year, title lipgloss.Style) {
	key, kind, year, title = styles.Key, styles.Type, styles.Dim, styles.Title
	if selected {
		key = styles.WithSelection(key)
		kind = styles.WithSelection(kind)
		year = styles.WithSelection(year)
		title = styles.WithSelection(title)
	}
	return
}

// titleWidth returns the space left for the title column
func (m browseModel) titleWidth() int {
	w := m.columns.titleWidth
	if m.width > 0 {
		used := 2 + m.columns.keyWidth + 14 + 4 + m.columns.gap*3
		if available := m.width - used; available > 0 && available < w {
			w = available
		}
	}
	return w
}

// renderInput renders the input section at the bottom
func (m browseModel) renderInput(width int) string {
	var b strings.Builder
	b.WriteString(styles.Divider.Render(strings.Repeat("─", width)))
	b.WriteString("\n")
	b.WriteString(styles.Dim.Render(fmt.Sprintf("  %d/%d", len(m.filtered), len(m.items))))
	b.WriteString(" • ")
	b.WriteString(styles.Dim.Render("Enter select"))
	b.WriteString(" • ")
	b.WriteString(styles.Dim.Render("ESC exit"))
	b.WriteString("\n")
	b.WriteString(m.textInput.View())
	return b.String()
}

// ============================================================================
// Run
// ============================================================================

// getTTY returns file handles for TUI input/output.
// Uses /dev/tty to bypass shell pipes and command substitution
func getTTY() (in *os.File, out *os.File, cleanup func()) {
	var closers []func()

	if fileInfo, _ := os.Stdout.Stat(); (fileInfo.Mode() & os.ModeCharDevice) == 0 {
		out, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
		if err != nil {
			out = os.Stderr
		} else {
			closers = append(closers, func() { out.Close() })
		}

		in, err := os.OpenFile("/dev/tty", os.O_RDONLY, 0)
		if err != nil {
			in = os.Stdin
		} else {
			closers = append(closers, func() { in.Close() })
		}

		// Tell lipgloss to use the TTY for color detection
		lipgloss.SetDefaultRenderer(lipgloss.NewRenderer(out))

		return in, out, func() {
			for _, c := range closers {
				c()
			}
		}
	}

	return os.Stdin, os.Stdout, func() {}
}

// Browse runs the picker and returns the chosen record, or nil when the user
// quit without choosing.
func Browse(records []*bibtex.Record, serializer bibtex.Serializer, initialQuery string) (*bibtex.Record, error) {
	if len(records) == 0 {
		return nil, bibtex.ErrNoEntries
	}

	m := newBrowseModel(records, serializer)
	if initialQuery != "" {
		m.textInput.SetValue(initialQuery)
		m.filterItems()
	}

	ttyIn, ttyOut, cleanup := getTTY()
	RefreshStyles() // after getTTY sets up the renderer
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithOutput(ttyOut), tea.WithInput(ttyIn))
	finalModel, err := p.Run()
	cleanup()
	if err != nil {
		return nil, err
	}

	return finalModel.(browseModel).selected, nil
}

// ============================================================================
// Helpers
// ============================================================================

// clamp restricts v to the range [minV, maxV]
func clamp(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// countLines counts the number of lines in a string
func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

// scrollWindow calculates the visible range for a scrollable list
func scrollWindow(cursor, total, height int, offset *int) (start, end int) {
	if cursor < *offset {
		*offset = cursor
	}
	if cursor >= *offset+height {
		*offset = cursor - height + 1
	}
	*offset = clamp(*offset, 0, max(0, total-height))

	start = *offset
	end = min(start+height, total)
	return
}

// fitColumn truncates or pads s to exactly width terminal cells
func fitColumn(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}

// truncateLines keeps the first maxLines lines of text
func truncateLines(text string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(text, "\n")
	if len(lines) > maxLines {
		text = strings.Join(lines[:maxLines], "\n") + "..."
	}
	return text
}
