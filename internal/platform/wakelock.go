package platform

import (
	"fmt"
	"sync"

	"gymtimer/internal/core/timekeeper"
)

const wakeLockReason = "Interval workout in progress"

// inhibitor is a session connection able to suspend the screensaver.
type inhibitor interface {
	Inhibit(appName, reason string) (uint32, error)
	UnInhibit(cookie uint32) error
	Connected() bool
	Close() error
}

// ScreenWakeLock keeps the display awake through the desktop session.
type ScreenWakeLock struct {
	appName string
	dial    func() (inhibitor, error)

	mu     sync.Mutex
	conn   inhibitor
	cookie uint32
	held   bool
}

// NewWakeLock returns the platform wake lock. When disabled, or when the
// platform offers none, every Acquire reports timekeeper.ErrWakeLockUnsupported.
func NewWakeLock(appName string, enabled bool) timekeeper.WakeLock {
	dial := platformInhibitor()
	if !enabled || dial == nil {
		return unsupportedWakeLock{}
	}
	return &ScreenWakeLock{appName: appName, dial: dial}
}

// Acquire inhibits the screensaver, reconnecting if the session dropped.
func (lock *ScreenWakeLock) Acquire() error {
	lock.mu.Lock()
	defer lock.mu.Unlock()
	if lock.held && lock.conn != nil && lock.conn.Connected() {
		return nil
	}
	lock.held = false
	if lock.conn == nil || !lock.conn.Connected() {
		if lock.conn != nil {
			_ = lock.conn.Close()
			lock.conn = nil
		}
		conn, err := lock.dial()
		if err != nil {
			return fmt.Errorf("%w: %v", timekeeper.ErrWakeLockUnsupported, err)
		}
		lock.conn = conn
	}
	cookie, err := lock.conn.Inhibit(lock.appName, wakeLockReason)
	if err != nil {
		return fmt.Errorf("inhibit screensaver: %w", err)
	}
	lock.cookie = cookie
	lock.held = true
	return nil
}

// Release lifts the inhibition. Releasing an unheld lock is a no-op.
func (lock *ScreenWakeLock) Release() error {
	lock.mu.Lock()
	defer lock.mu.Unlock()
	if !lock.held {
		return nil
	}
	lock.held = false
	if lock.conn == nil || !lock.conn.Connected() {
		return nil
	}
	if err := lock.conn.UnInhibit(lock.cookie); err != nil {
		return fmt.Errorf("uninhibit screensaver: %w", err)
	}
	return nil
}

// Held reports whether the inhibition is still in place.
func (lock *ScreenWakeLock) Held() bool {
	lock.mu.Lock()
	defer lock.mu.Unlock()
	return lock.held && lock.conn != nil && lock.conn.Connected()
}

// Close releases the lock and drops the session connection.
func (lock *ScreenWakeLock) Close() error {
	releaseErr := lock.Release()
	lock.mu.Lock()
	defer lock.mu.Unlock()
	if lock.conn != nil {
		_ = lock.conn.Close()
		lock.conn = nil
	}
	return releaseErr
}

type unsupportedWakeLock struct{}

func (unsupportedWakeLock) Acquire() error { return timekeeper.ErrWakeLockUnsupported }
func (unsupportedWakeLock) Release() error { return nil }
func (unsupportedWakeLock) Held() bool     { return false }
