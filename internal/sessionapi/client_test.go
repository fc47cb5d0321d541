package sessionapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/sessionforge/session-bot/internal/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(srv.URL, 5*time.Second, testLogger())
}

func TestClient_SendCodeSuccess(t *testing.T) {
	var gotPath string
	var gotBody sendCodeRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(serviceResponse{Success: true})
	})

	if err := client.SendCode(context.Background(), "+15551234567"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/send_code" {
		t.Fatalf("expected /send_code, got %s", gotPath)
	}
	if gotBody.Phone != "+15551234567" {
		t.Fatalf("expected phone forwarded, got %q", gotBody.Phone)
	}
}

func TestClient_SendCodeServiceError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(serviceResponse{Success: false, Error: "PHONE_NUMBER_INVALID"})
	})

	err := client.SendCode(context.Background(), "+15551234567")
	if err == nil {
		t.Fatal("expected error")
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.UserMessage != "PHONE_NUMBER_INVALID" {
		t.Fatalf("expected service message surfaced, got %q", appErr.UserMessage)
	}
}

func TestClient_CreateSessionSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req createSessionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Phone != "+15551234567" || req.Code != "123456" {
			t.Errorf("unexpected request %+v", req)
		}
		_ = json.NewEncoder(w).Encode(serviceResponse{Success: true, Session: "1BVtsOH4ABC123"})
	})

	session, err := client.CreateSession(context.Background(), "+15551234567", "123456")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session != "1BVtsOH4ABC123" {
		t.Fatalf("expected session string, got %q", session)
	}
}

func TestClient_CreateSessionCodeExpired(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(serviceResponse{Success: false, Error: "CODE_EXPIRED"})
	})

	_, err := client.CreateSession(context.Background(), "+15551234567", "123456")

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.UserMessage != "CODE_EXPIRED" {
		t.Fatalf("expected CODE_EXPIRED surfaced, got %q", appErr.UserMessage)
	}
}

func TestClient_CreateSessionMissingArtifact(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(serviceResponse{Success: true})
	})

	_, err := client.CreateSession(context.Background(), "+15551234567", "123456")
	if err == nil {
		t.Fatal("expected error for success response without a session")
	}
}

func TestClient_TransportErrorWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, time.Second, testLogger())

	err := client.SendCode(context.Background(), "+15551234567")

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
}

func TestClient_MalformedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	if err := client.SendCode(context.Background(), "+15551234567"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestClient_HealthCheck(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_HealthCheckServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if err := client.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected error for 5xx status")
	}
}
