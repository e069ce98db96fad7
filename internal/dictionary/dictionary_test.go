package dictionary

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	content := "stone\nSLATE\nat\n  tear  \n\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if d.Size() != 3 {
		t.Errorf("size = %d, want 3 (short and blank lines skipped)", d.Size())
	}
	if !d.Contains("stone") {
		t.Error("stone missing")
	}
	if !d.Contains("SLATE") {
		t.Error("lookup should be case-insensitive")
	}
	if !d.Contains("tear") {
		t.Error("whitespace should be trimmed on load")
	}
	if d.Contains("at") {
		t.Error("two-letter words must be dropped")
	}
}

func TestLoadEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(path, []byte("a\nbc\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for dictionary with no usable words")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFromWords(t *testing.T) {
	d := FromWords([]string{"Stone", "TEAR"})
	if !d.Contains("stone") || !d.Contains("tear") {
		t.Error("FromWords entries should be lowercased")
	}
	if d.Contains("slate") {
		t.Error("unexpected word present")
	}
}
