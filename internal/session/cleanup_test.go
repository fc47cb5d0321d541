package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type failingDeleteTransport struct {
	fakeTransport
	mu      sync.Mutex
	failIDs map[int]bool
}

func (f *failingDeleteTransport) Delete(ctx context.Context, userID int64, messageID int) error {
	f.mu.Lock()
	fail := f.failIDs[messageID]
	f.mu.Unlock()

	if fail {
		return errors.New("message to delete not found")
	}
	return f.fakeTransport.Delete(ctx, userID, messageID)
}

func TestCoordinator_ClearDeletesTrackedMessages(t *testing.T) {
	log := testLogger()
	store := NewMemoryStore()
	timeouts := NewTimeoutManager(log)
	transport := &fakeTransport{}
	cleaner := NewCoordinator(store, timeouts, transport, log)

	store.Set(1, &Session{
		UserID:            1,
		Step:              StepAwaitingPhone,
		PendingMessageIDs: []int{10, 11, 12},
	})
	timeouts.Arm(1, time.Hour, func() {})

	cleaner.Clear(context.Background(), 1)

	if store.Get(1) != nil {
		t.Fatal("expected session removed")
	}
	if timeouts.Active() != 0 {
		t.Fatalf("expected timer cancelled, got %d", timeouts.Active())
	}
	for _, id := range []int{10, 11, 12} {
		if !transport.wasDeleted(id) {
			t.Fatalf("expected message %d deleted", id)
		}
	}
}

func TestCoordinator_ClearWithoutStateIsNoOp(t *testing.T) {
	log := testLogger()
	store := NewMemoryStore()
	transport := &fakeTransport{}
	cleaner := NewCoordinator(store, NewTimeoutManager(log), transport, log)

	cleaner.Clear(context.Background(), 99)

	if len(transport.deleted) != 0 {
		t.Fatalf("expected no deletions, got %d", len(transport.deleted))
	}
}

func TestCoordinator_DeleteFailureDoesNotAbortCleanup(t *testing.T) {
	log := testLogger()
	store := NewMemoryStore()
	timeouts := NewTimeoutManager(log)
	transport := &failingDeleteTransport{failIDs: map[int]bool{11: true}}
	cleaner := NewCoordinator(store, timeouts, transport, log)

	store.Set(1, &Session{
		UserID:            1,
		Step:              StepAwaitingCode,
		PendingMessageIDs: []int{10, 11, 12},
	})

	cleaner.Clear(context.Background(), 1)

	if store.Get(1) != nil {
		t.Fatal("expected session removed despite delete failure")
	}
	if !transport.wasDeleted(10) || !transport.wasDeleted(12) {
		t.Fatal("expected surviving messages deleted")
	}
}

func TestCoordinator_ClearIsIdempotent(t *testing.T) {
	log := testLogger()
	store := NewMemoryStore()
	transport := &fakeTransport{}
	cleaner := NewCoordinator(store, NewTimeoutManager(log), transport, log)

	store.Set(1, &Session{
		UserID:            1,
		Step:              StepAwaitingPhone,
		PendingMessageIDs: []int{10},
	})

	cleaner.Clear(context.Background(), 1)
	cleaner.Clear(context.Background(), 1)

	if len(transport.deleted) != 1 {
		t.Fatalf("expected a single deletion, got %d", len(transport.deleted))
	}
}
