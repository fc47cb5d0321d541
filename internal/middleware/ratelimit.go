package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/sessionforge/session-bot/internal/ratelimit"
)

// RateLimitMiddleware throttles updates per user before they reach the
// router. Limiter failures fail open so a Redis outage does not silence the
// bot.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	rules   *ratelimit.Rules
	log     *slog.Logger
}

// NewRateLimitMiddleware builds the middleware from a limiter and rules.
func NewRateLimitMiddleware(limiter ratelimit.Limiter, rules *ratelimit.Rules, log *slog.Logger) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimitMiddleware{
		limiter: limiter,
		rules:   rules,
		log:     log,
	}
}

// Handle wraps a telebot handler with per-user rate limiting.
func (m *RateLimitMiddleware) Handle(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			return next(c)
		}

		if m.rules.IsWhitelisted(sender.ID) {
			return next(c)
		}

		limit, window, err := m.rules.GetPerUserLimit()
		if err != nil {
			m.log.Error("invalid rate limit rule", slog.String("error", err.Error()))
			return next(c)
		}

		key := fmt.Sprintf("user:%d", sender.ID)
		result, err := m.limiter.Check(context.Background(), key, limit, window)
		if err != nil {
			if errors.Is(err, ratelimit.ErrLimitExceeded) {
				attrs := []any{slog.Int64("user_id", sender.ID)}
				if result != nil {
					attrs = append(attrs, slog.Time("reset_at", result.ResetAt))
				}
				m.log.Info("rate limit exceeded", attrs...)
				return c.Send("Too many requests. Please slow down and try again in a moment.")
			}

			// Fail open on limiter errors.
			m.log.Warn("rate limiter check failed",
				slog.Int64("user_id", sender.ID),
				slog.String("error", err.Error()),
			)
			return next(c)
		}

		return next(c)
	}
}
