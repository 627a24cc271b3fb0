package app_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"teacher-assistant-bot/internal/app"
	"teacher-assistant-bot/internal/domain"
)

func TestLibraryListCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "materials")
	lib := app.NewLibrary(dir)

	names, err := lib.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("expected empty listing, got %v", names)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("expected directory created: %v", err)
	}
}

func TestLibrarySaveAndResolve(t *testing.T) {
	dir := t.TempDir()
	lib := app.NewLibrary(dir)
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if _, err := lib.Save("plan.pdf", strings.NewReader("lesson plan")); err != nil {
		t.Fatalf("save: %v", err)
	}
	names, _ := lib.List()
	if len(names) != 1 || names[0] != "plan.pdf" {
		t.Fatalf("expected only plan.pdf listed, got %v", names)
	}

	path, err := lib.Resolve("plan.pdf")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "lesson plan" {
		t.Fatalf("unexpected content %q", data)
	}

	for _, name := range []string{"missing.pdf", "../plan.pdf", "nested", "", ".."} {
		if _, err := lib.Resolve(name); !errors.Is(err, domain.ErrMaterialNotFound) {
			t.Fatalf("%q: expected ErrMaterialNotFound, got %v", name, err)
		}
	}
}
