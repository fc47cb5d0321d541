package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticCheck struct {
	err error
}

func (c staticCheck) HealthCheck(context.Context) error {
	return c.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChecker_AllHealthy(t *testing.T) {
	checker := NewChecker(testLogger())
	checker.AddCheck("a", staticCheck{})
	checker.AddCheck("b", staticCheck{})

	results := checker.Check(context.Background())

	if results["a"] != "OK" || results["b"] != "OK" {
		t.Fatalf("expected all OK, got %v", results)
	}
}

func TestChecker_ReportsFailure(t *testing.T) {
	checker := NewChecker(testLogger())
	checker.AddCheck("redis", staticCheck{err: errors.New("connection refused")})

	results := checker.Check(context.Background())

	if results["redis"] != "connection refused" {
		t.Fatalf("expected failure message, got %v", results)
	}
}

func TestChecker_HandlerStatusCodes(t *testing.T) {
	testCases := []struct {
		name       string
		check      staticCheck
		wantStatus int
	}{
		{"healthy", staticCheck{}, http.StatusOK},
		{"unhealthy", staticCheck{err: errors.New("down")}, http.StatusServiceUnavailable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			checker := NewChecker(testLogger())
			checker.AddCheck("component", tc.check)

			rec := httptest.NewRecorder()
			checker.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rec.Code)
			}

			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if _, ok := body["component"]; !ok {
				t.Fatal("expected component in response body")
			}
		})
	}
}

func TestTelegramChecker_UninitializedBot(t *testing.T) {
	if err := NewTelegramChecker(nil).HealthCheck(context.Background()); err == nil {
		t.Fatal("expected error for missing bot")
	}
}
