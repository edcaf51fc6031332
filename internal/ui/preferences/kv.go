package preferences

import (
	"context"
	"errors"
	"sync"

	"fyne.io/fyne/v2"
)

// ErrKVClosed indicates use of a closed preferences store.
var ErrKVClosed = errors.New("preferences store closed")

// KV stores values in the Fyne app preferences, the desktop equivalent of
// browser local storage. Values are kept as strings.
type KV struct {
	mu     sync.Mutex
	prefs  fyne.Preferences
	closed bool
}

// NewKV wraps prefs.
func NewKV(prefs fyne.Preferences) *KV {
	return &KV{prefs: prefs}
}

// Get returns the value for key. An empty value reads as missing.
func (kv *KV) Get(_ context.Context, key string) ([]byte, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.closed {
		return nil, false, ErrKVClosed
	}
	value := kv.prefs.String(key)
	if value == "" {
		return nil, false, nil
	}
	return []byte(value), true, nil
}

// Put stores value under key.
func (kv *KV) Put(_ context.Context, key string, value []byte) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.closed {
		return ErrKVClosed
	}
	kv.prefs.SetString(key, string(value))
	return nil
}

// Close detaches the store. Fyne persists preferences itself.
func (kv *KV) Close() error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.closed = true
	return nil
}
