package bot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/sessionforge/session-bot/internal/bot/handlers"
	apperrors "github.com/sessionforge/session-bot/internal/errors"
)

// RecoveryMiddleware converts panics in handlers into logged errors so a
// single bad update cannot take the poller down.
func RecoveryMiddleware(log *slog.Logger) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic in handler",
						slog.Any("panic", r),
						slog.Int64("user_id", senderID(c)),
						slog.String("stack", string(debug.Stack())),
					)
					err = apperrors.NewInternalError(fmt.Errorf("handler panic: %v", r))
				}
			}()

			return next(c)
		}
	}
}

// ErrorHandlingMiddleware is the last stop for handler errors: it logs and
// reports them, then replies with the user-safe message so errors never leak
// internals into the chat.
func ErrorHandlingMiddleware(handler *apperrors.Handler) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			userMsg, send := handler.Handle(contextOf(c), err)
			if send && userMsg != "" {
				if sendErr := c.Send(userMsg); sendErr != nil {
					return sendErr
				}
			}

			return nil
		}
	}
}

// LoggingMiddleware records every handled update with its latency.
func LoggingMiddleware(log *slog.Logger) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			attrs := []any{
				slog.Int64("user_id", senderID(c)),
				slog.String("kind", updateKind(c)),
				slog.Duration("duration", duration),
			}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
				log.Warn("update handled with error", attrs...)
				return err
			}

			log.Debug("update handled", attrs...)
			return nil
		}
	}
}

func contextOf(c telebot.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if ctx, ok := c.Get("ctx").(context.Context); ok && ctx != nil {
		return ctx
	}
	return context.Background()
}

func senderID(c telebot.Context) int64 {
	if c == nil || c.Sender() == nil {
		return 0
	}
	return c.Sender().ID
}

func updateKind(c telebot.Context) string {
	switch {
	case c.Callback() != nil:
		return "callback"
	case len(c.Text()) > 0 && c.Text()[0] == '/':
		return "command"
	default:
		return "text"
	}
}
