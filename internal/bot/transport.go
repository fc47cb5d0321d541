package bot

import (
	"context"
	"log/slog"
	"strconv"

	telebot "gopkg.in/telebot.v3"

	apperrors "github.com/sessionforge/session-bot/internal/errors"
	"github.com/sessionforge/session-bot/internal/session"
)

// TelebotTransport implements session.Transport on top of telebot.
type TelebotTransport struct {
	bot *telebot.Bot
	log *slog.Logger
}

var _ session.Transport = (*TelebotTransport)(nil)

// NewTransport wraps the telebot instance as a flow transport.
func NewTransport(tb *telebot.Bot, log *slog.Logger) *TelebotTransport {
	if log == nil {
		log = slog.Default()
	}

	return &TelebotTransport{
		bot: tb,
		log: log,
	}
}

// Send delivers a text message and returns its identifier for later deletion.
func (t *TelebotTransport) Send(ctx context.Context, userID int64, text string, opts ...session.SendOption) (int, error) {
	options := session.ApplySendOptions(opts)

	var sendOpts []interface{}
	if options.Markdown {
		sendOpts = append(sendOpts, telebot.ModeMarkdown)
	}

	msg, err := t.bot.Send(&telebot.User{ID: userID}, text, sendOpts...)
	if err != nil {
		return 0, apperrors.NewTransportError("send", err)
	}

	return msg.ID, nil
}

// Edit replaces the text of a previously sent message.
func (t *TelebotTransport) Edit(ctx context.Context, userID int64, messageID int, text string) error {
	if _, err := t.bot.Edit(messageRef{messageID: messageID, chatID: userID}, text); err != nil {
		return apperrors.NewTransportError("edit", err)
	}

	return nil
}

// Delete removes a message by id.
func (t *TelebotTransport) Delete(ctx context.Context, userID int64, messageID int) error {
	if err := t.bot.Delete(messageRef{messageID: messageID, chatID: userID}); err != nil {
		return apperrors.NewTransportError("delete", err)
	}

	return nil
}

// messageRef satisfies telebot.Editable for messages we only know by id.
type messageRef struct {
	messageID int
	chatID    int64
}

func (m messageRef) MessageSig() (string, int64) {
	return strconv.Itoa(m.messageID), m.chatID
}
