package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/gubarz/bibkit/internal/config"
)

// StyleManager encapsulates all TUI styles and provides methods for style operations
type StyleManager struct {
	// List view styles
	Key      lipgloss.Style
	Type     lipgloss.Style
	Title    lipgloss.Style
	Selected lipgloss.Style
	Cursor   lipgloss.Style
	Dim      lipgloss.Style

	// Preview styles
	PreviewKey  lipgloss.Style
	PreviewBody lipgloss.Style

	Divider lipgloss.Style

	// Colors for direct access
	SelectedBg lipgloss.Color
}

// DefaultStyles returns a StyleManager with default styles
func DefaultStyles() *StyleManager {
	return &StyleManager{
		Key:         lipgloss.NewStyle(),
		Type:        lipgloss.NewStyle(),
		Title:       lipgloss.NewStyle(),
		Selected:    lipgloss.NewStyle().Background(lipgloss.Color("236")),
		Cursor:      lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		Dim:         lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		PreviewKey:  lipgloss.NewStyle().Bold(true),
		PreviewBody: lipgloss.NewStyle(),
		Divider:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		SelectedBg:  lipgloss.Color("236"),
	}
}

// LoadFromConfig updates styles based on configuration
func (s *StyleManager) LoadFromConfig() {
	keyColor := parseANSIColor(config.GetColorKey())
	titleColor := parseANSIColor(config.GetColorTitle())
	dimColor := parseANSIColor(config.GetColorDim())

	s.Key = lipgloss.NewStyle().Foreground(keyColor)
	s.Type = lipgloss.NewStyle().Foreground(dimColor)
	s.Title = lipgloss.NewStyle().Foreground(titleColor)
	s.Dim = lipgloss.NewStyle().Foreground(dimColor)

	s.PreviewKey = lipgloss.NewStyle().Bold(true).Foreground(keyColor)
	s.PreviewBody = lipgloss.NewStyle()
}

// WithSelection returns a copy of the given style with the selected background applied
func (s *StyleManager) WithSelection(style lipgloss.Style) lipgloss.Style {
	return style.Background(s.SelectedBg)
}

// parseANSIColor converts ANSI color codes to lipgloss colors
func parseANSIColor(code string) lipgloss.Color {
	ansiToLipgloss := map[string]string{
		"30": "0", "31": "1", "32": "2", "33": "3",
		"34": "4", "35": "5", "36": "6", "37": "7",
		"90": "8", "91": "9", "92": "10", "93": "11",
		"94": "12", "95": "13", "96": "14", "97": "15",
	}
	if mapped, ok := ansiToLipgloss[code]; ok {
		return lipgloss.Color(mapped)
	}
	return lipgloss.Color(code)
}

var styles = DefaultStyles()

// RefreshStyles updates the global styles from config
func RefreshStyles() {
	styles.LoadFromConfig()
}
