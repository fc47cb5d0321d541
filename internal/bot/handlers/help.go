package handlers

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/sessionforge/session-bot/internal/i18n"
)

// NewHelpHandler sends the usage guide.
func NewHelpHandler(tr i18n.Translator) Handler {
	return func(c telebot.Context) error {
		if c == nil || c.Sender() == nil {
			return nil
		}

		return c.Send(tr.T("help.text"))
	}
}
