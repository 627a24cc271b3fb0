package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"teacher-assistant-bot/internal/domain"
)

// Library serves shared documents from a single flat directory.
type Library struct {
	dir string
}

func NewLibrary(dir string) *Library {
	return &Library{dir: dir}
}

// List returns the regular files in the directory, sorted by name. The directory is
// created when missing.
func (l *Library) List() ([]string, error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create materials dir: %w", err)
	}
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read materials dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Resolve maps a filename to its path. Names that escape the directory or do not point
// at a regular file yield ErrMaterialNotFound.
func (l *Library) Resolve(name string) (string, error) {
	if !validName(name) {
		return "", domain.ErrMaterialNotFound
	}
	path := filepath.Join(l.dir, name)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", domain.ErrMaterialNotFound
	}
	return path, nil
}

// Save writes r to the directory under name, replacing an existing file atomically.
func (l *Library) Save(name string, r io.Reader) (string, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if !validName(name) {
		return "", domain.ErrMaterialNotFound
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", fmt.Errorf("create materials dir: %w", err)
	}
	tmp, err := os.CreateTemp(l.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write material: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close material: %w", err)
	}
	path := filepath.Join(l.dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("store material: %w", err)
	}
	return path, nil
}

func validName(name string) bool {
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}
