package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/briefops/briefer/internal/brief"
)

// FileStore keeps one JSON document per user under a directory.
// Concurrent requests for the same user race on the read-modify-write
// cycle, so appends are serialized with a per-user mutex.
type FileStore struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type userData struct {
	Briefs []brief.FinalBrief `json:"briefs"`
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "./storage"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage dir: %w", err)
	}
	return &FileStore{dir: dir, locks: make(map[string]*sync.Mutex)}, nil
}

func (f *FileStore) LoadHistory(_ context.Context, userID string) ([]brief.FinalBrief, error) {
	path, err := f.userPath(userID)
	if err != nil {
		return nil, err
	}
	data, err := f.load(path)
	if err != nil {
		return nil, err
	}
	return data.Briefs, nil
}

func (f *FileStore) AppendBrief(_ context.Context, userID string, b brief.FinalBrief) error {
	path, err := f.userPath(userID)
	if err != nil {
		return err
	}
	lock := f.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	data, err := f.load(path)
	if err != nil {
		return err
	}
	if b.Timestamp.IsZero() {
		b.Timestamp = time.Now()
	}
	data.Briefs = append(data.Briefs, b)

	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling history for %s: %w", userID, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("writing history for %s: %w", userID, err)
	}
	return os.Rename(tmp, path)
}

func (f *FileStore) load(path string) (userData, error) {
	var data userData
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return data, nil
		}
		return data, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("decoding %s: %w", path, err)
	}
	return data, nil
}

func (f *FileStore) userPath(userID string) (string, error) {
	if userID == "" || strings.ContainsAny(userID, "/\\") || strings.Contains(userID, "..") {
		return "", fmt.Errorf("invalid user id %q", userID)
	}
	return filepath.Join(f.dir, userID+".json"), nil
}

func (f *FileStore) userLock(userID string) *sync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()
	lock, ok := f.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		f.locks[userID] = lock
	}
	return lock
}
