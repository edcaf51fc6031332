package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// fileKV keeps every key in one JSON object and rewrites it on each Put.
// Writes go to a temp file first and are renamed into place.
type fileKV struct {
	log    zerolog.Logger
	path   string
	mu     sync.Mutex
	values map[string]string
	closed bool
}

func openFile(config Config, log zerolog.Logger) (KV, error) {
	path := strings.TrimSpace(config.Path)
	if path == "" {
		return nil, errors.New("open storage: path is required for file driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	store := &fileKV{
		log:    log.With().Str("component", "storage").Str("driver", "file").Logger(),
		path:   path,
		values: map[string]string{},
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read storage file: %w", err)
	case len(strings.TrimSpace(string(data))) > 0:
		if err := json.Unmarshal(data, &store.values); err != nil {
			store.log.Warn().Err(err).Str("path", path).Msg("storage file unreadable; starting empty")
			store.values = map[string]string{}
		}
	}
	return store, nil
}

func (store *fileKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		return nil, false, ErrClosed
	}
	value, ok := store.values[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(value), true, nil
}

func (store *fileKV) Put(_ context.Context, key string, value []byte) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		return ErrClosed
	}

	previous, existed := store.values[key]
	store.values[key] = string(value)
	if err := store.flushLocked(); err != nil {
		if existed {
			store.values[key] = previous
		} else {
			delete(store.values, key)
		}
		return err
	}
	return nil
}

func (store *fileKV) Close() error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.closed = true
	return nil
}

func (store *fileKV) flushLocked() error {
	serialized, err := json.MarshalIndent(store.values, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal storage file: %w", err)
	}

	temp, err := os.CreateTemp(filepath.Dir(store.path), ".gymtimer-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp storage file: %w", err)
	}
	tempPath := temp.Name()
	if _, err := temp.Write(serialized); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("write storage file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("close storage file: %w", err)
	}
	if err := os.Rename(tempPath, store.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("replace storage file: %w", err)
	}
	return nil
}
