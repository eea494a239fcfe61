package output

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/docread/internal/extract"
	"go.uber.org/zap"
)

func TestPipeline_ChangedAndRemoved(t *testing.T) {
	src := t.TempDir()
	path := filepath.Join(src, "note.txt")
	if err := os.WriteFile(path, []byte("plain note"), 0600); err != nil {
		t.Fatal(err)
	}
	w, err := NewWriter(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatal(err)
	}
	p := NewPipeline(context.Background(), extract.NewExtractor(), w, zap.NewNop())

	p.Changed(path)
	data, err := os.ReadFile(w.PathFor(path))
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if string(data) != "plain note" {
		t.Errorf("output = %q", data)
	}

	p.Removed(path)
	if _, err := os.Stat(w.PathFor(path)); !os.IsNotExist(err) {
		t.Error("output should be removed with its source")
	}
	if s := p.Stats(); s.Extracted != 1 || s.Removed != 1 || s.Failed != 0 {
		t.Errorf("stats = %+v", s)
	}
}

func TestPipeline_failureKeepsPreviousOutput(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "broken.docx")
	if _, err := w.Write(path, "older text"); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not a zip"), 0600); err != nil {
		t.Fatal(err)
	}
	p := NewPipeline(context.Background(), extract.NewExtractor(), w, nil)
	p.Changed(path)

	data, err := os.ReadFile(w.PathFor(path))
	if err != nil || string(data) != "older text" {
		t.Errorf("previous output should survive a failed extraction: %q, %v", data, err)
	}
	if s := p.Stats(); s.Failed != 1 || s.Extracted != 0 {
		t.Errorf("stats = %+v", s)
	}
}

func TestPipeline_ignoresOwnOutput(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	if err != nil {
		t.Fatal(err)
	}
	own := filepath.Join(dir, "x.txt.abcdef012345.txt")
	if err := os.WriteFile(own, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	p := NewPipeline(context.Background(), extract.NewExtractor(), w, nil)
	p.Changed(own)
	if s := p.Stats(); s.Extracted != 0 || s.Failed != 0 {
		t.Errorf("own output should be skipped, stats = %+v", s)
	}
}
