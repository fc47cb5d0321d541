// Package bot wires the Telegram transport: telebot construction, the
// router, middlewares, and the handlers around the conversation flow.
package bot

import (
	"fmt"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/sessionforge/session-bot/internal/bot/handlers"
	"github.com/sessionforge/session-bot/internal/bot/keyboard"
	apperrors "github.com/sessionforge/session-bot/internal/errors"
	"github.com/sessionforge/session-bot/internal/i18n"
	"github.com/sessionforge/session-bot/internal/idempotency"
	"github.com/sessionforge/session-bot/internal/middleware"
	"github.com/sessionforge/session-bot/internal/session"
	"github.com/sessionforge/session-bot/pkg/config"
)

// NewTelebot constructs the telebot instance in polling or webhook mode.
func NewTelebot(cfg config.BotConfig) (*telebot.Bot, error) {
	settings := telebot.Settings{
		Token: cfg.Token,
	}

	switch cfg.Mode {
	case "webhook":
		settings.Poller = &telebot.Webhook{
			Listen: cfg.Listen,
			Endpoint: &telebot.WebhookEndpoint{
				PublicURL: cfg.WebhookURL,
			},
		}
	default:
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		settings.Poller = &telebot.LongPoller{Timeout: timeout}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("create telebot: %w", err)
	}

	return tb, nil
}

// Bot owns the telebot instance and its routing.
type Bot struct {
	tb     *telebot.Bot
	router *Router
	log    *slog.Logger
}

// New assembles the router, middleware chain, and handlers around an
// already-constructed telebot and conversation machine.
func New(
	log *slog.Logger,
	tb *telebot.Bot,
	machine *session.Machine,
	tr i18n.Translator,
	errHandler *apperrors.Handler,
	rateLimitMw *middleware.RateLimitMiddleware,
	idem idempotency.Manager,
) *Bot {
	if log == nil {
		log = slog.Default()
	}

	router := NewRouter(log)

	router.Use(RecoveryMiddleware(log))
	router.Use(middleware.Idempotency(idem, log))
	router.Use(ErrorHandlingMiddleware(errHandler))
	router.Use(LoggingMiddleware(log))
	router.Use(middleware.Metrics())

	kb := keyboard.NewBuilder(log)

	router.RegisterCommand(CommandStart, handlers.NewStartHandler(machine, kb, tr, log))
	router.RegisterCommand(CommandHelp, handlers.NewHelpHandler(tr))
	router.RegisterCommand(CommandCancel, handlers.NewCancelHandler(machine, log))
	router.RegisterCallback(CallbackGetSession, handlers.NewGetSessionHandler(machine, log))
	router.SetDefault(handlers.NewTextHandler(machine))

	if rateLimitMw != nil {
		tb.Use(rateLimitMw.Handle)
	}

	tb.Handle(telebot.OnText, router.Route)
	tb.Handle(telebot.OnCallback, router.Route)

	return &Bot{
		tb:     tb,
		router: router,
		log:    log,
	}
}

// Start begins receiving updates. It blocks until Stop is called.
func (b *Bot) Start() {
	b.log.Info("bot starting", slog.String("username", b.tb.Me.Username))
	b.tb.Start()
}

// Stop halts the poller.
func (b *Bot) Stop() {
	b.log.Info("bot stopping")
	b.tb.Stop()
}

// Telebot exposes the underlying instance for health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.tb
}
