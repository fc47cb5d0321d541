// Package keyboard builds inline keyboards for the bot's messages.
package keyboard

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"
)

// Builder creates inline keyboards.
type Builder struct {
	log *slog.Logger
}

// NewBuilder returns a new Builder instance.
func NewBuilder(log *slog.Logger) *Builder {
	return &Builder{log: log}
}

// Welcome builds the single-button markup that starts the flow.
func (b *Builder) Welcome(buttonText string) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	markup.InlineKeyboard = [][]telebot.InlineButton{
		{
			{
				Text: buttonText,
				Data: "get_session",
			},
		},
	}
	return markup
}
