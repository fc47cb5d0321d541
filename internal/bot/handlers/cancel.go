package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/sessionforge/session-bot/internal/session"
)

// NewCancelHandler discards the user's flow on explicit request.
func NewCancelHandler(machine *session.Machine, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			log.Warn("cancel handler invoked without sender")
			return nil
		}

		ctx := context.Background()
		userID := c.Sender().ID

		if err := machine.Cancel(ctx, userID); err != nil {
			log.Error("failed to cancel user flow", slog.Int64("user_id", userID), slog.Any("error", err))
			return err
		}

		return nil
	}
}
