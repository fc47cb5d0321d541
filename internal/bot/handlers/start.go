package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/sessionforge/session-bot/internal/bot/keyboard"
	"github.com/sessionforge/session-bot/internal/i18n"
	"github.com/sessionforge/session-bot/internal/session"
)

// NewStartHandler discards any in-progress flow and shows the welcome
// message with the start button. The flow itself only begins when the user
// presses the button.
func NewStartHandler(machine *session.Machine, kb *keyboard.Builder, tr i18n.Translator, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			log.Warn("start handler invoked without sender")
			return nil
		}

		ctx := context.Background()
		userID := c.Sender().ID

		if err := machine.Reset(ctx, userID); err != nil {
			log.Error("failed to reset user flow", slog.Int64("user_id", userID), slog.Any("error", err))
			return err
		}

		// Drop the /start command message itself; keeps the chat clean.
		if c.Message() != nil {
			if err := c.Delete(); err != nil {
				log.Warn("failed to delete start command message", slog.Int64("user_id", userID), slog.Any("error", err))
			}
		}

		return c.Send(tr.T("flow.welcome"), kb.Welcome(tr.T("flow.button_get_session")))
	}
}
