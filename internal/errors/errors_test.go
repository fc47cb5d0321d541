package errors

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAppError_Unwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewServiceError("send_code", "", cause)

	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause reachable through errors.Is")
	}
}

func TestNewServiceError_UserMessage(t *testing.T) {
	testCases := []struct {
		name       string
		serviceMsg string
		want       string
	}{
		{
			name:       "service message surfaces verbatim",
			serviceMsg: "CODE_EXPIRED",
			want:       "CODE_EXPIRED",
		},
		{
			name:       "empty message gets generic text",
			serviceMsg: "",
			want:       "The service is temporarily unavailable. Please try again later.",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := NewServiceError("create_session", tc.serviceMsg, nil)
			if err.UserMessage != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, err.UserMessage)
			}
		})
	}
}

func TestHandler_ResolvesUserMessage(t *testing.T) {
	handler := NewHandler(testLogger(), false)
	ctx := context.Background()

	testCases := []struct {
		name          string
		err           error
		wantContains  string
		wantRetryable bool
	}{
		{
			name:         "validation error",
			err:          NewValidationError("Invalid phone number format"),
			wantContains: "Invalid phone number",
		},
		{
			name:         "timeout error",
			err:          NewTimeoutError(),
			wantContains: "timed out",
		},
		{
			name:          "internal error",
			err:           NewInternalError(stderrors.New("nil map write")),
			wantContains:  "Something went wrong",
			wantRetryable: true,
		},
		{
			name:         "unknown error gets generic text",
			err:          stderrors.New("unexpected"),
			wantContains: "Something went wrong",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			userMsg, retryable := handler.Handle(ctx, tc.err)
			if !strings.Contains(userMsg, tc.wantContains) {
				t.Fatalf("expected message containing %q, got %q", tc.wantContains, userMsg)
			}
			if retryable != tc.wantRetryable {
				t.Fatalf("expected retryable=%v, got %v", tc.wantRetryable, retryable)
			}
		})
	}
}

func TestHandler_NilError(t *testing.T) {
	handler := NewHandler(testLogger(), false)

	userMsg, retryable := handler.Handle(context.Background(), nil)
	if userMsg != "" || retryable {
		t.Fatalf("expected empty result for nil error, got %q %v", userMsg, retryable)
	}
}
