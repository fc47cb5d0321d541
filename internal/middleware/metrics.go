// Package middleware holds cross-cutting telebot middlewares wired in front
// of the router: metrics, rate limiting, and update deduplication.
package middleware

import (
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/sessionforge/session-bot/internal/bot/handlers"
	"github.com/sessionforge/session-bot/pkg/metrics"
)

// Metrics records a counter and latency histogram per handled update.
func Metrics() handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		return func(c telebot.Context) error {
			start := time.Now()
			err := next(c)

			status := "ok"
			if err != nil {
				status = "error"
			}
			metrics.RecordUpdate(kindOf(c), status, time.Since(start))

			return err
		}
	}
}

func kindOf(c telebot.Context) string {
	switch {
	case c.Callback() != nil:
		return "callback"
	case len(c.Text()) > 0 && c.Text()[0] == '/':
		return "command"
	default:
		return "text"
	}
}
