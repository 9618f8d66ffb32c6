package session

import (
	"sync"
	"time"
)

// Watchdog auto-stops a recording when no settled fragment arrives for the
// configured timeout. A zero or negative timeout disables it.
type Watchdog struct {
	timeout time.Duration

	mu       sync.Mutex
	timers   map[string]*time.Timer
	onExpire func(sessionID string)
}

func NewWatchdog(timeout time.Duration) *Watchdog {
	return &Watchdog{
		timeout: timeout,
		timers:  make(map[string]*time.Timer),
	}
}

// OnExpire registers the callback fired when a session's timer elapses.
func (w *Watchdog) OnExpire(callback func(sessionID string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onExpire = callback
}

// Arm starts (or restarts) the timer for a session.
func (w *Watchdog) Arm(sessionID string) {
	if w.timeout <= 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[sessionID]; ok {
		t.Stop()
	}
	w.timers[sessionID] = time.AfterFunc(w.timeout, func() {
		w.expire(sessionID)
	})
}

// Touch resets the timer for an armed session. Sessions that were never
// armed stay unarmed.
func (w *Watchdog) Touch(sessionID string) {
	if w.timeout <= 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	t, ok := w.timers[sessionID]
	if !ok {
		return
	}
	t.Stop()
	w.timers[sessionID] = time.AfterFunc(w.timeout, func() {
		w.expire(sessionID)
	})
}

// Disarm cancels the timer for a session.
func (w *Watchdog) Disarm(sessionID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[sessionID]; ok {
		t.Stop()
		delete(w.timers, sessionID)
	}
}

func (w *Watchdog) expire(sessionID string) {
	w.mu.Lock()
	callback := w.onExpire
	delete(w.timers, sessionID)
	w.mu.Unlock()

	if callback != nil {
		callback(sessionID)
	}
}
