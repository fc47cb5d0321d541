package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestMaskingHandler_MasksSensitiveAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewJSONHandler(&buf, nil)))

	log.Info("sending code",
		slog.String("phone", "+15551234567"),
		slog.String("code", "123456"),
		slog.Int64("user_id", 42),
	)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode log line: %v", err)
	}

	if record["phone"] != "***" {
		t.Fatalf("expected phone masked, got %v", record["phone"])
	}
	if record["code"] != "***" {
		t.Fatalf("expected code masked, got %v", record["code"])
	}
	if record["user_id"] != float64(42) {
		t.Fatalf("expected user_id untouched, got %v", record["user_id"])
	}
	if strings.Contains(buf.String(), "+15551234567") {
		t.Fatal("raw phone number leaked into log output")
	}
}

func TestMaskingHandler_MasksWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewJSONHandler(&buf, nil)))

	log.With(slog.String("session", "1BVtsOH4ABC")).Info("flow completed")

	if strings.Contains(buf.String(), "1BVtsOH4ABC") {
		t.Fatal("session string leaked into log output")
	}
	if !strings.Contains(buf.String(), "***") {
		t.Fatal("expected masked placeholder in output")
	}
}

func TestMaskingHandler_CaseInsensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewJSONHandler(&buf, nil)))

	log.Info("auth", slog.String("Token", "abc123"))

	if strings.Contains(buf.String(), "abc123") {
		t.Fatal("token leaked into log output")
	}
}
