package session

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/sessionforge/session-bot/internal/dispatch"
	apperrors "github.com/sessionforge/session-bot/internal/errors"
	"github.com/sessionforge/session-bot/internal/i18n"
)

var (
	// International phone number: "+", first digit non-zero, 8-15 digits total.
	phonePattern = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)
	// Verification code: 5 or 6 digits.
	codePattern = regexp.MustCompile(`^\d{5,6}$`)
)

// Machine drives the conversation flow. Every public method hands its work
// to the dispatch shard owned by the user, so all events for one user
// (including timer expiry) are totally ordered while different users run
// concurrently.
type Machine struct {
	store       Store
	timeouts    *TimeoutManager
	cleaner     *Coordinator
	auth        Authenticator
	transport   Transport
	pool        *dispatch.Pool
	errHandler  *apperrors.Handler
	tr          i18n.Translator
	log         *slog.Logger
	stepTimeout time.Duration
}

// NewMachine wires the flow state machine.
func NewMachine(
	store Store,
	timeouts *TimeoutManager,
	cleaner *Coordinator,
	auth Authenticator,
	transport Transport,
	pool *dispatch.Pool,
	errHandler *apperrors.Handler,
	tr i18n.Translator,
	log *slog.Logger,
	stepTimeout time.Duration,
) *Machine {
	if log == nil {
		log = slog.Default()
	}
	if stepTimeout <= 0 {
		stepTimeout = 15 * time.Minute
	}

	return &Machine{
		store:       store,
		timeouts:    timeouts,
		cleaner:     cleaner,
		auth:        auth,
		transport:   transport,
		pool:        pool,
		errHandler:  errHandler,
		tr:          tr,
		log:         log,
		stepTimeout: stepTimeout,
	}
}

// ActiveFlows reports the number of users with a flow in progress.
func (m *Machine) ActiveFlows() int {
	return m.store.Len()
}

// StartFlow discards any prior flow for the user, creates a fresh entry in
// the awaiting-phone step, arms the expiry timer, and prompts for the phone
// number. supersededMsgIDs are earlier prompt messages (such as the welcome
// message whose button started the flow) that should be deleted on exit.
func (m *Machine) StartFlow(ctx context.Context, userID int64, supersededMsgIDs ...int) error {
	return m.pool.Run(ctx, userID, func() {
		m.startFlow(ctx, userID, supersededMsgIDs)
	})
}

// HandleText routes a free-text message into the user's current step. Text
// from users with no active flow is ignored.
func (m *Machine) HandleText(ctx context.Context, userID int64, messageID int, text string) error {
	return m.pool.Run(ctx, userID, func() {
		m.handleText(ctx, userID, messageID, text)
	})
}

// Cancel closes the user's flow on explicit request and notifies them.
// Cancelling a user with no flow is a no-op.
func (m *Machine) Cancel(ctx context.Context, userID int64) error {
	return m.pool.Run(ctx, userID, func() {
		sess := m.store.Get(userID)
		if sess == nil {
			return
		}

		from := string(sess.Step)
		m.cleaner.Clear(ctx, userID)
		transitionRecorder(from, stepNone)
		flowClosedRecorder(OutcomeCancelled)

		if _, err := m.transport.Send(ctx, userID, m.tr.T("flow.cancelled")); err != nil {
			m.logTransport(userID, "send", err)
		}
	})
}

// Reset silently discards any prior flow. Used by /start before showing the
// welcome message; the flow itself only re-enters via the start button.
func (m *Machine) Reset(ctx context.Context, userID int64) error {
	return m.pool.Run(ctx, userID, func() {
		sess := m.store.Get(userID)
		if sess == nil {
			return
		}

		from := string(sess.Step)
		m.cleaner.Clear(ctx, userID)
		transitionRecorder(from, stepNone)
		flowClosedRecorder(OutcomeRestarted)
	})
}

func (m *Machine) startFlow(ctx context.Context, userID int64, supersededMsgIDs []int) {
	// Starting over always wins: any prior flow is torn down first so the
	// store never holds two entries for one user.
	m.cleaner.Clear(ctx, userID)

	now := time.Now().UTC()
	sess := &Session{
		UserID:            userID,
		Step:              StepAwaitingPhone,
		PendingMessageIDs: append([]int(nil), supersededMsgIDs...),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if msgID, err := m.transport.Send(ctx, userID, m.tr.T("flow.phone_prompt")); err != nil {
		m.logTransport(userID, "send", err)
	} else {
		sess.PendingMessageIDs = append(sess.PendingMessageIDs, msgID)
	}

	m.store.Set(userID, sess)
	m.armStep(userID)
	transitionRecorder(stepNone, string(StepAwaitingPhone))

	m.log.Info("flow started", slog.Int64("user_id", userID))
}

func (m *Machine) handleText(ctx context.Context, userID int64, messageID int, text string) {
	sess := m.store.Get(userID)
	if sess == nil {
		return
	}

	// The message carries a credential; remove it from the chat right away.
	if messageID != 0 {
		if err := m.transport.Delete(ctx, userID, messageID); err != nil {
			m.logTransport(userID, "delete", err)
		}
	}

	switch sess.Step {
	case StepAwaitingPhone:
		m.handlePhone(ctx, sess, strings.TrimSpace(text))
	case StepAwaitingCode:
		m.handleCode(ctx, sess, strings.TrimSpace(text))
	}
}

func (m *Machine) handlePhone(ctx context.Context, sess *Session, phone string) {
	userID := sess.UserID

	if !phonePattern.MatchString(phone) {
		m.fail(ctx, userID, apperrors.NewValidationError(m.tr.T("flow.invalid_phone")), OutcomeValidationError)
		return
	}

	procID := m.sendTracked(ctx, sess, m.tr.T("flow.sending_code"))
	m.store.Set(userID, sess)

	// The service call is a suspension point: capture the step and
	// re-validate it after the call before applying the result.
	before := sess.Step
	err := m.auth.SendCode(ctx, phone)
	if !m.stillAt(userID, before) {
		m.log.Info("discarding send_code result, flow no longer active", slog.Int64("user_id", userID))
		return
	}

	if err != nil {
		m.fail(ctx, userID, err, OutcomeServiceError)
		return
	}

	sess.Phone = phone
	sess.Step = StepAwaitingCode
	sess.UpdatedAt = time.Now().UTC()
	m.store.Set(userID, sess)

	// Each step gets its own full timeout window.
	m.armStep(userID)
	transitionRecorder(string(StepAwaitingPhone), string(StepAwaitingCode))

	if procID != 0 {
		if err := m.transport.Edit(ctx, userID, procID, m.tr.T("flow.code_sent")); err != nil {
			m.logTransport(userID, "edit", err)
		}
	}
}

func (m *Machine) handleCode(ctx context.Context, sess *Session, code string) {
	userID := sess.UserID

	if !codePattern.MatchString(code) {
		m.fail(ctx, userID, apperrors.NewValidationError(m.tr.T("flow.invalid_code")), OutcomeValidationError)
		return
	}

	m.sendTracked(ctx, sess, m.tr.T("flow.creating_session"))
	m.store.Set(userID, sess)

	before := sess.Step
	artifact, err := m.auth.CreateSession(ctx, sess.Phone, code)
	if !m.stillAt(userID, before) {
		m.log.Info("discarding create_session result, flow no longer active", slog.Int64("user_id", userID))
		return
	}

	if err != nil {
		m.fail(ctx, userID, err, OutcomeServiceError)
		return
	}

	// Deliver the artifact before cleanup so it is never swept up with the
	// transient prompts. The flow closes regardless of delivery outcome.
	text := fmt.Sprintf(m.tr.T("flow.success"), artifact)
	if _, err := m.transport.Send(ctx, userID, text, WithMarkdown()); err != nil {
		m.logTransport(userID, "send", err)
	}

	m.cleaner.Clear(ctx, userID)
	transitionRecorder(string(StepAwaitingCode), stepNone)
	flowClosedRecorder(OutcomeSuccess)

	m.log.Info("flow completed", slog.Int64("user_id", userID))
}

// fail surfaces a human-readable error to the user and terminates the flow.
func (m *Machine) fail(ctx context.Context, userID int64, err error, outcome string) {
	userMsg, _ := m.errHandler.Handle(ctx, err)

	text := fmt.Sprintf(m.tr.T("flow.error"), userMsg)
	if _, sendErr := m.transport.Send(ctx, userID, text); sendErr != nil {
		m.logTransport(userID, "send", sendErr)
	}

	from := stepNone
	if sess := m.store.Get(userID); sess != nil {
		from = string(sess.Step)
	}

	m.cleaner.Clear(ctx, userID)
	transitionRecorder(from, stepNone)
	flowClosedRecorder(outcome)
}

// armStep schedules expiry for the current step. The timer callback hands
// off to the user's dispatch shard so it serializes with normal events, and
// re-checks that the flow still exists before acting.
func (m *Machine) armStep(userID int64) {
	m.timeouts.Arm(userID, m.stepTimeout, func() {
		submitted := m.pool.Submit(userID, func() {
			m.expire(context.Background(), userID)
		})
		if !submitted {
			m.log.Warn("dropping flow expiry, dispatch pool closed", slog.Int64("user_id", userID))
		}
	})
}

func (m *Machine) expire(ctx context.Context, userID int64) {
	sess := m.store.Get(userID)
	if sess == nil {
		// Cleared by a concurrent event after the timer fired.
		return
	}

	userMsg, _ := m.errHandler.Handle(ctx, apperrors.NewTimeoutError())
	if _, err := m.transport.Send(ctx, userID, userMsg); err != nil {
		m.logTransport(userID, "send", err)
	}

	from := string(sess.Step)
	m.cleaner.Clear(ctx, userID)
	transitionRecorder(from, stepNone)
	flowClosedRecorder(OutcomeTimeout)

	m.log.Info("flow timed out", slog.Int64("user_id", userID))
}

// sendTracked sends a transient message and records its id for cleanup.
// Send failures are swallowed; the flow proceeds without the message.
func (m *Machine) sendTracked(ctx context.Context, sess *Session, text string) int {
	msgID, err := m.transport.Send(ctx, sess.UserID, text)
	if err != nil {
		m.logTransport(sess.UserID, "send", err)
		return 0
	}

	sess.PendingMessageIDs = append(sess.PendingMessageIDs, msgID)
	return msgID
}

func (m *Machine) stillAt(userID int64, step Step) bool {
	current := m.store.Get(userID)
	return current != nil && current.Step == step
}

func (m *Machine) logTransport(userID int64, operation string, err error) {
	m.log.Warn("transport operation failed",
		slog.Int64("user_id", userID),
		slog.String("operation", operation),
		slog.Any("error", err),
	)
}
