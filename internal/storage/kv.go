package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrClosed indicates a store used after Close.
var ErrClosed = errors.New("store closed")

// KV persists opaque values under string keys.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Config selects a KV backend.
//
// Driver values:
//   - "file": one JSON document mapping keys to values
//   - "sqlite": SQLite database file
//   - "memory": nothing survives the process
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration
}

// Open initializes the configured store.
func Open(config Config, log zerolog.Logger) (KV, error) {
	driver := strings.ToLower(strings.TrimSpace(config.Driver))
	switch driver {
	case "", "file":
		return openFile(config, log)
	case "sqlite", "sqlite3":
		return openSQLite(config, log)
	case "memory", "none":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("open storage: unknown driver %q", driver)
	}
}

type memoryKV struct {
	mu     sync.Mutex
	values map[string][]byte
	closed bool
}

// NewMemory returns an in-process KV.
func NewMemory() KV {
	return &memoryKV{values: map[string][]byte{}}
}

func (store *memoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		return nil, false, ErrClosed
	}
	value, ok := store.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (store *memoryKV) Put(_ context.Context, key string, value []byte) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		return ErrClosed
	}
	store.values[key] = append([]byte(nil), value...)
	return nil
}

func (store *memoryKV) Close() error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.closed = true
	return nil
}
