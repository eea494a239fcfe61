// Package output persists extracted text: one file per source document in a flat
// output directory, named so that equal base names never collide.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/docread/internal/fileid"
)

// Writer writes extracted text into Dir.
type Writer struct {
	Dir string
}

// NewWriter creates dir if needed and returns a Writer for it.
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve output directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &Writer{Dir: abs}, nil
}

// PathFor returns the output path for source: <dir>/<base>.<shortid>.txt.
func (w *Writer) PathFor(source string) string {
	if abs, err := filepath.Abs(source); err == nil {
		source = abs
	}
	name := filepath.Base(source) + "." + fileid.Short(source) + ".txt"
	return filepath.Join(w.Dir, name)
}

// Write stores text for source. The file appears atomically: readers see either the
// previous content or the new content, never a partial write.
func (w *Writer) Write(source, text string) (string, error) {
	dst := w.PathFor(source)
	tmp, err := os.CreateTemp(w.Dir, ".docread-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }
	if _, err := tmp.WriteString(text); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		cleanup()
		return "", fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		cleanup()
		return "", fmt.Errorf("rename to %s: %w", dst, err)
	}
	return dst, nil
}

// Remove deletes the output for source. A missing output is not an error.
func (w *Writer) Remove(source string) error {
	err := os.Remove(w.PathFor(source))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// IsOutput reports whether path lies inside the output directory.
func (w *Writer) IsOutput(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(w.Dir, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
