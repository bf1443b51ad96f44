package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	catalogFileName = "catalog.json"
	boardSuffix     = ".board.json"
)

type fileBackend struct {
	dir string
}

// NewFileStore keeps the catalog in catalog.json and each board in
// <id>.board.json under dir.
func NewFileStore(dir string) (*Catalog, error) {
	if dir == "" {
		return nil, errors.New("file store: no directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	return newCatalog(&fileBackend{dir: dir}), nil
}

func (f *fileBackend) catalogPath() string { return filepath.Join(f.dir, catalogFileName) }

func (f *fileBackend) boardPath(id string) string {
	return filepath.Join(f.dir, filepath.Base(id)+boardSuffix)
}

func (f *fileBackend) readCatalog() ([]ProjectMeta, error) {
	b, err := os.ReadFile(f.catalogPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []ProjectMeta
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, fmt.Errorf("read %s: %w", catalogFileName, err)
	}
	return list, nil
}

func (f *fileBackend) writeCatalog(list []ProjectMeta) error {
	b, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	return atomicWriteFile(f.dir, "catalog.*.tmp", f.catalogPath(), b)
}

func (f *fileBackend) putMeta(_ context.Context, m ProjectMeta) error {
	list, err := f.readCatalog()
	if err != nil {
		return err
	}
	replaced := false
	for i := range list {
		if list[i].ID == m.ID {
			list[i] = m
			replaced = true
		}
	}
	if !replaced {
		list = append(list, m)
	}
	return f.writeCatalog(list)
}

func (f *fileBackend) metas(context.Context) (map[string]ProjectMeta, error) {
	list, err := f.readCatalog()
	if err != nil {
		return nil, err
	}
	out := make(map[string]ProjectMeta, len(list))
	for _, m := range list {
		out[m.ID] = m
	}
	return out, nil
}

func (f *fileBackend) putContent(_ context.Context, id string, data []byte) error {
	return atomicWriteFile(f.dir, "board.*.tmp", f.boardPath(id), data)
}

func (f *fileBackend) content(_ context.Context, id string) ([]byte, error) {
	b, err := os.ReadFile(f.boardPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrProjectNotFound
	}
	return b, err
}

func (f *fileBackend) contentIDs(context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, boardSuffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, boardSuffix))
	}
	return ids, nil
}

func (f *fileBackend) remove(_ context.Context, id string) error {
	list, err := f.readCatalog()
	if err != nil {
		return err
	}
	kept := list[:0]
	for _, m := range list {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	if err := f.writeCatalog(kept); err != nil {
		return err
	}
	if err := os.Remove(f.boardPath(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (f *fileBackend) close() error { return nil }

func atomicWriteFile(dir, tmpPattern, path string, b []byte) error {
	tmpFile, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := tmpFile.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := tmpFile.Write(b); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, 0o644)
	return os.Rename(tmp, path)
}
