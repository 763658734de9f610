package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"gopkg.in/yaml.v3"

	"github.com/gubarz/bibkit/internal/bibtex"
	"github.com/gubarz/bibkit/internal/config"
)

// ============================================================================
// Clipboard Interface
// ============================================================================

// Clipboard defines the interface for clipboard operations
type Clipboard interface {
	Copy(text string) error
}

// systemClipboard implements Clipboard using the platform clipboard
type systemClipboard struct{}

// Copy copies text to the system clipboard
func (c *systemClipboard) Copy(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("no clipboard utility available")
	}
	return clipboard.WriteAll(text)
}

// ============================================================================
// Formats
// ============================================================================

// Format is the text representation used for records
type Format string

const (
	FormatBibTeX Format = "bibtex"
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
)

// Render turns records into text. BibTeX entries are separated by a blank
// line; JSON and YAML emit a list.
func Render(records []*bibtex.Record, format Format, s bibtex.Serializer) (string, error) {
	switch format {
	case FormatBibTeX, "":
		parts := make([]string, len(records))
		for i, r := range records {
			parts[i] = s.Serialize(r)
		}
		return strings.Join(parts, "\n\n"), nil
	case FormatJSON:
		b, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode json: %w", err)
		}
		return string(b), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return "", fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return "", err
		}
		return strings.TrimSuffix(buf.String(), "\n"), nil
	default:
		return "", fmt.Errorf("unsupported format: %s (supported: bibtex, json, yaml)", format)
	}
}

// ============================================================================
// Writer
// ============================================================================

// Mode represents how rendered text should be handled
type Mode string

const (
	ModePrint Mode = "print"
	ModeCopy  Mode = "copy"
	ModeFile  Mode = "file"
)

// Writer delivers rendered text to stdout, the clipboard or a file
type Writer struct {
	stdout    io.Writer
	clipboard Clipboard
}

// NewWriter creates a writer using stdout and the system clipboard
func NewWriter() *Writer {
	return &Writer{
		stdout:    os.Stdout,
		clipboard: &systemClipboard{},
	}
}

// WithClipboard sets a custom clipboard implementation (useful for testing)
func (w *Writer) WithClipboard(c Clipboard) *Writer {
	w.clipboard = c
	return w
}

// WithStdout sets the destination of the print mode
func (w *Writer) WithStdout(out io.Writer) *Writer {
	w.stdout = out
	return w
}

// Output handles text based on the configured mode
func (w *Writer) Output(text string) error {
	return w.OutputWithMode(text, Mode(config.GetOutput()), config.GetOutFile())
}

// OutputWithMode handles text with an explicit mode. path is only used by
// ModeFile.
func (w *Writer) OutputWithMode(text string, mode Mode, path string) error {
	switch mode {
	case ModeCopy:
		return w.clipboard.Copy(text)
	case ModeFile:
		if path == "" {
			return fmt.Errorf("file output needs a path (--out-file)")
		}
		return os.WriteFile(path, []byte(text+"\n"), 0o644)
	case ModePrint, "":
		_, err := fmt.Fprintln(w.stdout, text)
		return err
	default:
		return fmt.Errorf("unsupported output mode: %s (supported: print, copy, file)", mode)
	}
}
