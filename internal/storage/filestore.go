package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists the snapshot as a single JSON document. Saves write a
// temporary file in the same directory and rename it over the target, so an
// interrupted write never leaves a torn file behind.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the JSON file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the whole account file. A missing file is created empty and
// yields an empty snapshot; malformed content is reported as an error so
// the caller can decide how to fall back.
func (s *FileStore) Load(_ context.Context) (Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		if err := s.writeAtomic([]byte("{}\n")); err != nil {
			return nil, fmt.Errorf("create account file: %w", err)
		}
		return Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read account file: %w", err)
	}

	snap := Snapshot{}
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode account file %s: %w", s.path, err)
	}
	return snap, nil
}

// Save overwrites the account file with the full snapshot.
func (s *FileStore) Save(_ context.Context, snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode accounts: %w", err)
	}
	if err := s.writeAtomic(append(data, '\n')); err != nil {
		return fmt.Errorf("write account file: %w", err)
	}
	return nil
}

// Ping verifies the containing directory is reachable.
func (s *FileStore) Ping(_ context.Context) error {
	_, err := os.Stat(filepath.Dir(s.path))
	return err
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
