package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type fileEntry struct {
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FileCache keeps enrichment results in memory and persists them as a JSON
// file, so a single instance keeps its cache across restarts.
type FileCache struct {
	filePath string
	items    map[string]fileEntry
	mu       sync.RWMutex
	now      func() time.Time
}

func NewFileCache(filePath string) *FileCache {
	return &FileCache{
		filePath: filePath,
		items:    make(map[string]fileEntry),
		now:      time.Now,
	}
}

// Load reads the cache file, dropping expired entries. A missing file is not an error.
func (fc *FileCache) Load() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	data, err := os.ReadFile(fc.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read cache file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var items map[string]fileEntry
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to unmarshal cache: %w", err)
	}
	now := fc.now()
	for k, e := range items {
		if e.ExpiresAt.IsZero() || e.ExpiresAt.After(now) {
			fc.items[k] = e
		}
	}
	return nil
}

// Save writes the live entries to disk via a temp file and rename.
func (fc *FileCache) Save() error {
	fc.mu.RLock()
	now := fc.now()
	live := make(map[string]fileEntry, len(fc.items))
	for k, e := range fc.items {
		if e.ExpiresAt.IsZero() || e.ExpiresAt.After(now) {
			live[k] = e
		}
	}
	fc.mu.RUnlock()

	data, err := json.Marshal(live)
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}
	if dir := filepath.Dir(fc.filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create cache dir: %w", err)
		}
	}
	tmp := fc.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmp, fc.filePath); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}

func (fc *FileCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	e, ok := fc.items[key]
	if !ok {
		return nil, false, nil
	}
	if !e.ExpiresAt.IsZero() && !e.ExpiresAt.After(fc.now()) {
		return nil, false, nil
	}
	return e.Value, true, nil
}

// Set stores value; ttl <= 0 keeps it until overwritten.
func (fc *FileCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	e := fileEntry{Value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.ExpiresAt = fc.now().Add(ttl)
	}
	fc.items[key] = e
	return nil
}

// Close persists the cache.
func (fc *FileCache) Close() error {
	return fc.Save()
}
