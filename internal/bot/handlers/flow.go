package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/sessionforge/session-bot/internal/session"
)

// NewGetSessionHandler starts the credential-exchange flow when the user
// presses the start button. The welcome message that carried the button is
// handed to the flow so it gets cleaned up on exit.
func NewGetSessionHandler(machine *session.Machine, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			log.Warn("get_session callback without sender")
			return nil
		}

		callback := c.Callback()
		if callback == nil {
			return nil
		}

		if err := c.Respond(&telebot.CallbackResponse{}); err != nil {
			log.Warn("failed to acknowledge callback", slog.Int64("user_id", c.Sender().ID), slog.Any("error", err))
		}

		var superseded []int
		if callback.Message != nil {
			superseded = append(superseded, callback.Message.ID)
		}

		return machine.StartFlow(context.Background(), c.Sender().ID, superseded...)
	}
}

// NewTextHandler feeds free-text messages into the user's flow. Messages
// from users with no active flow are ignored by the machine.
func NewTextHandler(machine *session.Machine) Handler {
	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil || c.Message() == nil {
			return nil
		}

		return machine.HandleText(context.Background(), c.Sender().ID, c.Message().ID, c.Text())
	}
}
