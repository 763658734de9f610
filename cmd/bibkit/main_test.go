package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/gubarz/bibkit/internal/bibtex"
	"github.com/gubarz/bibkit/internal/logging"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadInput(t *testing.T) {
	got, err := readInput("-", strings.NewReader("@misc{a,}"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "@misc{a,}" {
		t.Errorf("expected stdin content, got %q", got)
	}

	path := writeFile(t, t.TempDir(), "refs.bib", "@book{b,}")
	got, err = readInput(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "@book{b,}" {
		t.Errorf("expected file content, got %q", got)
	}

	if _, err := readInput(filepath.Join(t.TempDir(), "missing.bib"), nil); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestLoadRecords(t *testing.T) {
	records, err := loadRecords("", strings.NewReader("@ARTICLE{x, TITLE = {T}}"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].EntryType != "ARTICLE" {
		t.Fatalf("unexpected records %v", records)
	}
	if v, _ := records[0].Fields.Get("title"); v != "T" {
		t.Errorf("expected folded title field, got %q", v)
	}

	if _, err := loadRecords("", strings.NewReader("no entries here")); !errors.Is(err, bibtex.ErrNoEntries) {
		t.Errorf("expected ErrNoEntries, got %v", err)
	}
	if _, err := loadRecords("", strings.NewReader("@misc{a, title = {open")); !errors.Is(err, bibtex.ErrUnterminatedValue) {
		t.Errorf("expected ErrUnterminatedValue, got %v", err)
	}
}

func TestLoadRecordsTagsParserOnce(t *testing.T) {
	saved := logger
	t.Cleanup(func() { logger = saved })
	var logs bytes.Buffer
	logger = logging.New(&logs, "debug")

	if _, err := loadRecords("", strings.NewReader("@misc{a, title = {T}}")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var line string
	for _, l := range strings.Split(logs.String(), "\n") {
		if strings.Contains(l, "parse complete") {
			line = l
		}
	}
	if line == "" {
		t.Fatalf("expected a parse log line, got %q", logs.String())
	}
	if n := strings.Count(line, "component=bibtex"); n != 1 {
		t.Errorf("expected component=bibtex once, got %d in %q", n, line)
	}
}

func TestCheckFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.bib", `
@article{a, title = {One}}
@misc{b, note = {arXiv preprint arXiv:2101.00001}}`)
	bad := writeFile(t, dir, "bad.bib", "@article{c, title = {never closed")
	empty := writeFile(t, dir, "empty.bib", "% only a comment\n")

	var logs bytes.Buffer
	sum := checkFiles([]string{good, bad, empty, filepath.Join(dir, "missing.bib")}, logging.New(&logs, "info"))

	want := checkSummary{Files: 4, Failed: 3, Entries: 2, Preprints: 1}
	if sum != want {
		t.Errorf("expected %+v, got %+v", want, sum)
	}
	if !strings.Contains(logs.String(), "check failed") {
		t.Errorf("expected failures to be logged, got %q", logs.String())
	}
	if !strings.Contains(logs.String(), "preprint") {
		t.Errorf("expected the preprint to be logged, got %q", logs.String())
	}
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	a := writeFile(t, dir, "a.bib", "")
	b := writeFile(t, sub, "b.BIB", "")
	writeFile(t, sub, "notes.md", "")
	single := writeFile(t, t.TempDir(), "single.txt", "")
	missing := filepath.Join(dir, "missing.bib")

	got, err := collectFiles([]string{dir, single, missing})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{a, b, single, missing}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected %q, got %q", want, got)
	}
}

const sampleEntry = `@article{doe2020,
  author = {Doe, Jane and Roe, Richard},
  TITLE = {{A} Study},
  year = 2020
}`

func runWith(t *testing.T, run func(*cobra.Command, []string) error, args ...string) (string, error) {
	t.Helper()
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(sampleEntry))
	cmd.SetOut(&out)
	err := run(cmd, args)
	return out.String(), err
}

func TestLookupCommands(t *testing.T) {
	tests := []struct {
		name string
		run  func(*cobra.Command, []string) error
		args []string
		want string
	}{
		{"field", runField, []string{"title"}, "{A} Study\n"},
		{"field citation key", runField, []string{"citationKey"}, "doe2020\n"},
		{"authors", runAuthors, nil, "Jane Doe and Richard Roe\n"},
		{"rekey", runRekey, []string{"doe2020a"}, "@article{doe2020a,\n  author = {Doe, Jane and Roe, Richard},\n  year   = {2020},\n  title  = {{A} Study}\n}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := runWith(t, tt.run, tt.args...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFieldMissingFails(t *testing.T) {
	out, err := runWith(t, runField, "journal")
	if err == nil {
		t.Fatal("expected an error for a missing field")
	}
	if out != "" {
		t.Errorf("expected no output, got %q", out)
	}
}
