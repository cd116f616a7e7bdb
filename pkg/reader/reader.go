// Package reader turns document files into plain text. Plain text and
// Markdown are read directly; binary formats (PDF, DOCX, XLSX, audio) go
// through externally registered converters, since format conversion is
// outside this system.
package reader

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// ErrFormat marks a path whose extension no reader accepts.
var ErrFormat = errors.New("unsupported document format")

// ReadFunc extracts plain text from the file at path.
type ReadFunc func(path string) (string, error)

// ReadText reads a plain-text or Markdown file.
func ReadText(path string) (string, error) {
	if err := CheckExt(path, ".txt", ".text", ".md", ".markdown"); err != nil {
		return "", err
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(buf), nil
}

// CheckExt fails fast when path carries none of the expected extensions.
func CheckExt(path string, exts ...string) error {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range exts {
		if ext == want {
			return nil
		}
	}
	return fmt.Errorf("%w: %s (expected %s)", ErrFormat, path, strings.Join(exts, ", "))
}

// Command adapts an external converter into a ReadFunc. The tool is run
// with the document path appended to args and must print the extracted
// text to stdout.
func Command(tool string, args ...string) ReadFunc {
	return func(path string) (string, error) {
		out, err := exec.Command(tool, append(args, path)...).Output()
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				return "", fmt.Errorf("convert %s with %s: %s", path, tool, strings.TrimSpace(string(exitErr.Stderr)))
			}
			return "", fmt.Errorf("convert %s with %s: %w", path, tool, err)
		}
		return string(out), nil
	}
}

// Registry dispatches paths to readers by extension.
type Registry struct {
	byExt map[string]ReadFunc
}

// NewRegistry returns a registry with the built-in text readers.
func NewRegistry() *Registry {
	r := &Registry{byExt: map[string]ReadFunc{}}
	for _, ext := range []string{".txt", ".text", ".md", ".markdown"} {
		r.byExt[ext] = ReadText
	}
	return r
}

// Register installs fn for ext, replacing any existing reader.
func (r *Registry) Register(ext string, fn ReadFunc) {
	r.byExt[strings.ToLower(ext)] = fn
}

// Supported lists the registered extensions, sorted.
func (r *Registry) Supported() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Read extracts text from path using the reader registered for its
// extension.
func (r *Registry) Read(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	fn, ok := r.byExt[ext]
	if !ok {
		return "", fmt.Errorf("%w: %s (supported: %s)", ErrFormat, path, strings.Join(r.Supported(), ", "))
	}
	return fn(path)
}
