// Package session implements the per-user conversation flow: an in-memory
// store of flow state, per-user expiry timers, cleanup of transient
// messages, and the state machine driving the phone → code → session exchange.
package session

import (
	"context"
	"time"
)

// Step represents the position of a flow within the state machine.
type Step string

const (
	// StepAwaitingPhone indicates that the user has been asked for a phone number.
	StepAwaitingPhone Step = "awaiting_phone"
	// StepAwaitingCode indicates that the user has been asked for a verification code.
	StepAwaitingCode Step = "awaiting_code"
)

// stepNone is the recorder label for the absence of a flow. It is never
// stored; completion and failure delete the entry instead.
const stepNone = "none"

// Session captures one user's in-flight flow. At most one exists per user.
type Session struct {
	UserID int64
	Step   Step
	// Phone is set if and only if Step == StepAwaitingCode.
	Phone string
	// PendingMessageIDs lists transient messages to delete on any exit path.
	PendingMessageIDs []int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Outcome labels for closed flows.
const (
	OutcomeSuccess         = "success"
	OutcomeValidationError = "validation_error"
	OutcomeServiceError    = "service_error"
	OutcomeTimeout         = "timeout"
	OutcomeCancelled       = "cancelled"
	OutcomeRestarted       = "restarted"
)

// Transport is the chat-side collaborator. All operations are best-effort
// from the flow's perspective; returned message identifiers are retained so
// transient messages can be deleted later.
type Transport interface {
	Send(ctx context.Context, userID int64, text string, opts ...SendOption) (int, error)
	Edit(ctx context.Context, userID int64, messageID int, text string) error
	Delete(ctx context.Context, userID int64, messageID int) error
}

// SendOptions collects optional send parameters.
type SendOptions struct {
	Markdown bool
}

// SendOption mutates SendOptions.
type SendOption func(*SendOptions)

// WithMarkdown requests markdown formatting for the outgoing message.
func WithMarkdown() SendOption {
	return func(o *SendOptions) {
		o.Markdown = true
	}
}

// ApplySendOptions folds the options into a SendOptions value.
func ApplySendOptions(opts []SendOption) SendOptions {
	var out SendOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&out)
		}
	}
	return out
}

// Authenticator is the external session-creation service.
type Authenticator interface {
	SendCode(ctx context.Context, phone string) error
	CreateSession(ctx context.Context, phone, code string) (string, error)
}

var (
	transitionRecorder = func(from, to string) {}
	flowClosedRecorder = func(outcome string) {}
	cleanupRecorder    = func(status string) {}
)

// RegisterTransitionRecorder allows external packages to observe step transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}

// RegisterFlowClosedRecorder allows external packages to observe flow outcomes.
func RegisterFlowClosedRecorder(recorder func(outcome string)) {
	if recorder == nil {
		flowClosedRecorder = func(string) {}
		return
	}

	flowClosedRecorder = recorder
}

// RegisterCleanupRecorder allows external packages to observe message deletions.
func RegisterCleanupRecorder(recorder func(status string)) {
	if recorder == nil {
		cleanupRecorder = func(string) {}
		return
	}

	cleanupRecorder = recorder
}
