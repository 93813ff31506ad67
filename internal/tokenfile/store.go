// Package tokenfile keeps the consolectl token pair in a JSON file.
package tokenfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dtroode/agentconsole/internal/model"
)

var _ model.SessionSink = (*Store)(nil)

type fileFormat struct {
	Access    string    `json:"access"`
	Refresh   string    `json:"refresh"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store reads and writes the token file. Writes replace the file atomically,
// so a reader never sees half of a pair.
type Store struct {
	path string
	mu   sync.Mutex
}

// New creates a Store for path.
func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load returns the stored pair, model.ErrNotFound when there is none.
func (s *Store) Load() (model.TokenPair, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.TokenPair{}, model.ErrNotFound
		}
		return model.TokenPair{}, fmt.Errorf("failed to read token file: %w", err)
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to parse token file: %w", err)
	}
	pair := model.TokenPair{Access: f.Access, Refresh: f.Refresh}
	if err := pair.Validate(); err != nil {
		return model.TokenPair{}, fmt.Errorf("token file %s: %w", s.path, err)
	}
	return pair, nil
}

// UpdateTokens writes pair to the file.
func (s *Store) UpdateTokens(_ context.Context, pair model.TokenPair) error {
	if err := pair.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(fileFormat{
		Access:    pair.Access,
		Refresh:   pair.Refresh,
		UpdatedAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tokens: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Remove deletes the token file. A missing file is not an error.
func (s *Store) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}
