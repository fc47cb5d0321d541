package session

import (
	"log/slog"
	"sync"
	"time"
)

// TimeoutManager owns at most one pending expiry timer per user. Arming a
// new timer always cancels the previous one, and a fired callback checks it
// still owns the slot before acting, so an expiry racing a concurrent cancel
// or re-arm becomes inert.
type TimeoutManager struct {
	mu     sync.Mutex
	timers map[int64]*flowTimer
	seq    uint64
	log    *slog.Logger
}

type flowTimer struct {
	timer *time.Timer
	seq   uint64
}

// NewTimeoutManager constructs an empty TimeoutManager.
func NewTimeoutManager(log *slog.Logger) *TimeoutManager {
	if log == nil {
		log = slog.Default()
	}

	return &TimeoutManager{
		timers: make(map[int64]*flowTimer),
		log:    log,
	}
}

// Arm cancels any existing timer for the user and schedules onExpire to run
// after d unless cancelled first. onExpire runs on the timer goroutine;
// callers that need serialization must hand off from inside the callback.
func (m *TimeoutManager) Arm(userID int64, d time.Duration, onExpire func()) {
	if onExpire == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.timers[userID]; ok {
		existing.timer.Stop()
	}

	m.seq++
	seq := m.seq

	timer := time.AfterFunc(d, func() {
		if !m.claim(userID, seq) {
			return
		}
		onExpire()
	})

	m.timers[userID] = &flowTimer{timer: timer, seq: seq}
}

// Cancel stops the user's pending timer if present, else no-op.
func (m *TimeoutManager) Cancel(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.timers[userID]; ok {
		existing.timer.Stop()
		delete(m.timers, userID)
	}
}

// Active reports the number of pending timers.
func (m *TimeoutManager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// claim removes the timer entry if it still belongs to the firing callback.
// A false return means the timer was cancelled or replaced after scheduling;
// time.Timer.Stop cannot prevent a callback that is already in flight.
func (m *TimeoutManager) claim(userID int64, seq uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.timers[userID]
	if !ok || existing.seq != seq {
		return false
	}

	delete(m.timers, userID)
	return true
}
