package reader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadText(t *testing.T) {
	path := writeFile(t, "sow.txt", "build a portal")
	got, err := ReadText(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != "build a portal" {
		t.Errorf("got %q", got)
	}
}

func TestReadTextRejectsWrongExtension(t *testing.T) {
	path := writeFile(t, "sow.pdf", "%PDF-1.4")
	if _, err := ReadText(path); !errors.Is(err, ErrFormat) {
		t.Fatalf("want ErrFormat, got %v", err)
	}
}

func TestRegistryDispatch(t *testing.T) {
	r := NewRegistry()
	path := writeFile(t, "sow.md", "# SOW")
	got, err := r.Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != "# SOW" {
		t.Errorf("got %q", got)
	}
}

func TestRegistryUnknownExtension(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Read("sow.docx"); !errors.Is(err, ErrFormat) {
		t.Fatalf("want ErrFormat, got %v", err)
	}
}

func TestRegistryRegisterOverrides(t *testing.T) {
	r := NewRegistry()
	r.Register(".pdf", func(path string) (string, error) { return "converted", nil })

	got, err := r.Read("sow.PDF")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != "converted" {
		t.Errorf("got %q", got)
	}
}

func TestCommandReader(t *testing.T) {
	path := writeFile(t, "sow.doc", "hello from converter")
	fn := Command("cat")
	got, err := fn(path)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if got != "hello from converter" {
		t.Errorf("got %q", got)
	}
}

func TestCommandReaderFailure(t *testing.T) {
	fn := Command("false")
	if _, err := fn("whatever.pdf"); err == nil {
		t.Fatal("expected converter failure")
	}
}
