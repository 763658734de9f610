package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gubarz/bibkit/internal/bibtex"
)

func testRecords(t *testing.T) []*bibtex.Record {
	t.Helper()
	res, err := bibtex.Parse(`
@article{smith2020,
  author = {Smith, John},
  title = {Deep {Learning} for Cats},
  year = 2020
}
@book{doe2019,
  author = {Doe, Jane and Roe, Richard},
  title = {A Book About Dogs},
  year = 2019
}
@misc{arxiv2021,
  title = {Preprint on Cats},
  year = 2021
}`)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return bibtex.Records(res)
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func TestNewEntryItem(t *testing.T) {
	item := newEntryItem(testRecords(t)[1])
	if item.title != "A Book About Dogs" {
		t.Errorf("expected title %q, got %q", "A Book About Dogs", item.title)
	}
	if item.year != "2019" {
		t.Errorf("expected year %q, got %q", "2019", item.year)
	}
	if item.authors != "Jane Doe and Richard Roe" {
		t.Errorf("expected authors %q, got %q", "Jane Doe and Richard Roe", item.authors)
	}
}

func TestFilterItems(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"smith2020", "doe2019", "arxiv2021"}},
		{"cats", []string{"smith2020", "arxiv2021"}},
		{"CATS 2021", []string{"arxiv2021"}},
		{"roe", []string{"doe2019"}},
		{"book", []string{"doe2019"}},
		{"nothing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			m := newBrowseModel(testRecords(t), bibtex.DefaultSerializer)
			m.textInput.SetValue(tt.query)
			m.filterItems()

			var got []string
			for _, item := range m.filtered {
				got = append(got, item.record.CitationKey)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestTypingFiltersAfterDebounce(t *testing.T) {
	m := newBrowseModel(testRecords(t), bibtex.DefaultSerializer)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("dogs")})
	m = updated.(browseModel)
	if cmd == nil {
		t.Fatal("expected a debounce command")
	}
	if len(m.filtered) != 3 {
		t.Errorf("expected filtering to wait for the debounce, got %d items", len(m.filtered))
	}

	updated, _ = m.Update(filterMsg{})
	m = updated.(browseModel)
	if len(m.filtered) != 1 || m.filtered[0].record.CitationKey != "doe2019" {
		t.Errorf("expected only doe2019, got %d items", len(m.filtered))
	}
}

func TestNavigationAndSelect(t *testing.T) {
	m := newBrowseModel(testRecords(t), bibtex.DefaultSerializer)

	for _, k := range []tea.KeyType{tea.KeyDown, tea.KeyDown, tea.KeyDown} {
		updated, _ := m.Update(key(k))
		m = updated.(browseModel)
	}
	if m.cursor != 2 {
		t.Errorf("expected cursor clamped at 2, got %d", m.cursor)
	}

	updated, _ := m.Update(key(tea.KeyUp))
	m = updated.(browseModel)
	if m.cursor != 1 {
		t.Errorf("expected cursor 1, got %d", m.cursor)
	}

	updated, cmd := m.Update(key(tea.KeyEnter))
	m = updated.(browseModel)
	if cmd == nil {
		t.Fatal("expected quit command on enter")
	}
	if m.selected == nil || m.selected.CitationKey != "doe2019" {
		t.Errorf("expected doe2019 selected, got %v", m.selected)
	}
}

func TestEscapeQuitsWithoutSelection(t *testing.T) {
	m := newBrowseModel(testRecords(t), bibtex.DefaultSerializer)
	updated, cmd := m.Update(key(tea.KeyEsc))
	m = updated.(browseModel)
	if cmd == nil || !m.quitting {
		t.Error("expected esc to quit")
	}
	if m.selected != nil {
		t.Error("expected no selection")
	}
	if m.View() != "" {
		t.Error("expected empty view after quitting")
	}
}

func TestEnterOnEmptyListDoesNothing(t *testing.T) {
	m := newBrowseModel(testRecords(t), bibtex.DefaultSerializer)
	m.textInput.SetValue("zzz")
	m.filterItems()

	updated, _ := m.Update(key(tea.KeyEnter))
	m = updated.(browseModel)
	if m.selected != nil || m.quitting {
		t.Error("expected enter to be ignored with no matches")
	}
}

func TestView(t *testing.T) {
	m := newBrowseModel(testRecords(t), bibtex.DefaultSerializer)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = updated.(browseModel)

	view := m.View()
	for _, want := range []string{"3/3", "smith2020", "@article{smith2020,", "John Smith"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestFitColumn(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"abc", 5, "abc  "},
		{"abcdefgh", 5, "abcd…"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := fitColumn(tt.in, tt.width); got != tt.want {
			t.Errorf("fitColumn(%q, %d): expected %q, got %q", tt.in, tt.width, tt.want, got)
		}
	}
}

func TestBrowseRequiresEntries(t *testing.T) {
	if _, err := Browse(nil, bibtex.DefaultSerializer, ""); err == nil {
		t.Error("expected an error without records")
	}
}

func TestItemStylesUseTypeStyle(t *testing.T) {
	saved := *styles
	t.Cleanup(func() { *styles = saved })

	styles.Type = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	styles.Dim = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	_, kind, year, _ := itemStyles(false)
	if got := kind.GetForeground(); got != lipgloss.Color("5") {
		t.Errorf("expected type column color 5, got %v", got)
	}
	if got := year.GetForeground(); got != lipgloss.Color("8") {
		t.Errorf("expected year column color 8, got %v", got)
	}

	_, kind, _, _ = itemStyles(true)
	if got := kind.GetBackground(); got != styles.SelectedBg {
		t.Errorf("expected selected background, got %v", got)
	}
}
