// Package prompts loads the message templates sent to the generative
// backend. Templates ship embedded; a directory of overrides can shadow
// them for prompt iteration without rebuilding.
package prompts

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//go:embed templates/*.txt
var embedded embed.FS

// Library resolves prompt templates by name.
type Library struct {
	overrideDir string
}

// New returns a library. overrideDir may be empty, in which case only the
// embedded templates are used.
func New(overrideDir string) *Library {
	return &Library{overrideDir: overrideDir}
}

// Render loads the named template and substitutes every {key} placeholder
// with its replacement value.
func (l *Library) Render(name string, replacements map[string]string) (string, error) {
	text, err := l.load(name)
	if err != nil {
		return "", err
	}
	for key, value := range replacements {
		text = strings.ReplaceAll(text, "{"+key+"}", value)
	}
	return text, nil
}

func (l *Library) load(name string) (string, error) {
	if l.overrideDir != "" {
		path := filepath.Join(l.overrideDir, name+".txt")
		if buf, err := os.ReadFile(path); err == nil {
			return string(buf), nil
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("read prompt override %s: %w", path, err)
		}
	}
	buf, err := embedded.ReadFile("templates/" + name + ".txt")
	if err != nil {
		return "", fmt.Errorf("unknown prompt %q: %w", name, err)
	}
	return string(buf), nil
}
