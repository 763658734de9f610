package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestInitDefaultsAndEnv(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BIBKIT_FORMAT", "yaml")

	if err := Init(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := GetOutput(); got != "print" {
		t.Errorf("expected default output %q, got %q", "print", got)
	}
	if got := GetFormat(); got != "yaml" {
		t.Errorf("expected env format %q, got %q", "yaml", got)
	}
	if !GetCollapseHyphens() {
		t.Error("expected hyphen collapsing on by default")
	}
	if got := GetTable(); got != "citations" {
		t.Errorf("expected default table, got %q", got)
	}
	if C.Format != "yaml" {
		t.Errorf("expected unmarshalled format %q, got %q", "yaml", C.Format)
	}
}

func TestInitReadsConfigFile(t *testing.T) {
	viper.Reset()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	content := "output: copy\ncollapse_hyphens: false\ncolumn_key: 12\n"
	if err := os.WriteFile(filepath.Join(dir, "bibkit.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Init(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := GetOutput(); got != "copy" {
		t.Errorf("expected output %q, got %q", "copy", got)
	}
	if GetCollapseHyphens() {
		t.Error("expected hyphen collapsing disabled by config file")
	}
	if got := GetColumnKey(); got != 12 {
		t.Errorf("expected column_key 12, got %d", got)
	}

	SetOutput("file")
	if GetOutput() != "file" || C.Output != "file" {
		t.Error("expected SetOutput to update viper and C")
	}
}

func TestExpandTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if got := expandTilde("~/refs.bib"); got != filepath.Join(home, "refs.bib") {
		t.Errorf("unexpected expansion %q", got)
	}
	if got := expandTilde("refs.bib"); got != "refs.bib" {
		t.Errorf("expected unchanged path, got %q", got)
	}
}
