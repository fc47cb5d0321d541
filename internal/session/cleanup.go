package session

import (
	"context"
	"log/slog"
)

// Coordinator tears down a flow on any terminating event: it cancels the
// user's timer, best-effort deletes every tracked transient message, and
// removes the store entry. Clearing a user with no state is a no-op, so
// every exit path may call it unconditionally.
type Coordinator struct {
	store     Store
	timeouts  *TimeoutManager
	transport Transport
	log       *slog.Logger
}

// NewCoordinator constructs a cleanup Coordinator.
func NewCoordinator(store Store, timeouts *TimeoutManager, transport Transport, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}

	return &Coordinator{
		store:     store,
		timeouts:  timeouts,
		transport: transport,
		log:       log,
	}
}

// Clear closes the user's flow. Deletion failures (message already gone,
// transport error) are logged and swallowed; they never abort cleanup.
func (c *Coordinator) Clear(ctx context.Context, userID int64) {
	c.timeouts.Cancel(userID)

	sess := c.store.Get(userID)
	if sess == nil {
		return
	}

	for _, messageID := range sess.PendingMessageIDs {
		if err := c.transport.Delete(ctx, userID, messageID); err != nil {
			cleanupRecorder("error")
			c.log.Warn("failed to delete transient message",
				slog.Int64("user_id", userID),
				slog.Int("message_id", messageID),
				slog.Any("error", err),
			)
			continue
		}
		cleanupRecorder("ok")
	}

	c.store.Remove(userID)
}
