package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/sessionforge/session-bot/internal/bot/handlers"
	"github.com/sessionforge/session-bot/internal/idempotency"
)

const updateDedupTTL = 10 * time.Minute

// Idempotency drops duplicate update deliveries. Telegram re-sends updates
// after transport hiccups; each (user, update ID) pair is processed once.
func Idempotency(manager idempotency.Manager, log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) error {
			if manager == nil || c.Sender() == nil {
				return next(c)
			}

			key := idempotency.GenerateKey("update", c.Sender().ID, c.Update().ID)

			result, err := manager.Execute(context.Background(), key, updateDedupTTL, func(ctx context.Context) (interface{}, error) {
				return nil, next(c)
			})
			if err != nil {
				if errors.Is(err, idempotency.ErrRequestInProgress) {
					log.Debug("duplicate update dropped",
						slog.Int64("user_id", c.Sender().ID),
						slog.Int("update_id", c.Update().ID),
					)
					return nil
				}
				return err
			}

			if result != nil && result.FromCache {
				log.Debug("duplicate update dropped",
					slog.Int64("user_id", c.Sender().ID),
					slog.Int("update_id", c.Update().ID),
				)
			}

			return nil
		}
	}
}
