package session

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTimeoutManager_FiresAfterDelay(t *testing.T) {
	tm := NewTimeoutManager(testLogger())

	fired := make(chan struct{})
	tm.Arm(1, 20*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}

	if tm.Active() != 0 {
		t.Fatalf("expected fired timer removed, got %d active", tm.Active())
	}
}

func TestTimeoutManager_CancelPreventsFire(t *testing.T) {
	tm := NewTimeoutManager(testLogger())

	var fired atomic.Int32
	tm.Arm(1, 30*time.Millisecond, func() { fired.Add(1) })
	tm.Cancel(1)

	time.Sleep(100 * time.Millisecond)

	if fired.Load() != 0 {
		t.Fatal("cancelled timer fired")
	}
	if tm.Active() != 0 {
		t.Fatalf("expected no active timers, got %d", tm.Active())
	}
}

func TestTimeoutManager_RearmReplacesTimer(t *testing.T) {
	tm := NewTimeoutManager(testLogger())

	var first, second atomic.Int32
	tm.Arm(1, 30*time.Millisecond, func() { first.Add(1) })
	tm.Arm(1, 30*time.Millisecond, func() { second.Add(1) })

	if tm.Active() != 1 {
		t.Fatalf("expected a single pending timer, got %d", tm.Active())
	}

	time.Sleep(150 * time.Millisecond)

	if first.Load() != 0 {
		t.Fatal("replaced timer fired")
	}
	if second.Load() != 1 {
		t.Fatalf("expected replacement to fire once, fired %d times", second.Load())
	}
}

func TestTimeoutManager_IndependentUsers(t *testing.T) {
	tm := NewTimeoutManager(testLogger())

	var fired atomic.Int32
	tm.Arm(1, 20*time.Millisecond, func() { fired.Add(1) })
	tm.Arm(2, 20*time.Millisecond, func() { fired.Add(1) })
	tm.Cancel(1)

	time.Sleep(100 * time.Millisecond)

	if fired.Load() != 1 {
		t.Fatalf("expected only user 2's timer to fire, got %d fires", fired.Load())
	}
}
