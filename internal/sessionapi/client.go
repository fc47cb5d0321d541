// Package sessionapi is the HTTP client for the external session-creation
// service. The service is treated as an opaque API: non-success responses
// and transport failures are both surfaced as service errors carrying the
// service-provided message when one exists. Calls are never retried; a
// failure terminates the caller's flow.
package sessionapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	apperrors "github.com/sessionforge/session-bot/internal/errors"
)

const (
	sendCodePath      = "/send_code"
	createSessionPath = "/create_session"

	dialTimeout           = 5 * time.Second
	tlsHandshakeTimeout   = 5 * time.Second
	idleConnTimeout       = 30 * time.Second
	responseHeaderTimeout = 10 * time.Second
)

// Client calls the session service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient builds a Client with a transport tuned for short JSON calls.
func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ResponseHeaderTimeout: responseHeaderTimeout,
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		log: log,
	}
}

type sendCodeRequest struct {
	Phone string `json:"phone"`
}

type createSessionRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type serviceResponse struct {
	Success bool   `json:"success"`
	Session string `json:"session,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SendCode asks the service to deliver a verification code to the phone.
func (c *Client) SendCode(ctx context.Context, phone string) error {
	resp, err := c.post(ctx, sendCodePath, sendCodeRequest{Phone: phone})
	if err != nil {
		return apperrors.NewServiceError("send_code", "", err)
	}

	if !resp.Success {
		return apperrors.NewServiceError("send_code", resp.Error, nil)
	}

	return nil
}

// CreateSession exchanges the phone and code for a session string.
func (c *Client) CreateSession(ctx context.Context, phone, code string) (string, error) {
	resp, err := c.post(ctx, createSessionPath, createSessionRequest{Phone: phone, Code: code})
	if err != nil {
		return "", apperrors.NewServiceError("create_session", "", err)
	}

	if !resp.Success {
		return "", apperrors.NewServiceError("create_session", resp.Error, nil)
	}

	if resp.Session == "" {
		return "", apperrors.NewServiceError("create_session", "", fmt.Errorf("success response missing session"))
	}

	return resp.Session, nil
}

// HealthCheck probes the service base URL for reachability.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("session service returned status %d", resp.StatusCode)
	}

	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (*serviceResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		callRecorder(path, "transport_error", time.Since(start))
		c.log.Error("session service call failed", slog.String("path", path), slog.Any("error", err))
		return nil, err
	}
	defer resp.Body.Close()

	var decoded serviceResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		callRecorder(path, "decode_error", time.Since(start))
		c.log.Error("session service response unreadable",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("decode response: %w", err)
	}

	status := "ok"
	if !decoded.Success {
		status = "service_error"
	}
	callRecorder(path, status, time.Since(start))

	c.log.Debug("session service call finished",
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Bool("success", decoded.Success),
		slog.Duration("duration", time.Since(start)),
	)

	return &decoded, nil
}

var callRecorder = func(path, status string, duration time.Duration) {}

// RegisterCallRecorder allows external packages to observe service calls.
func RegisterCallRecorder(recorder func(path, status string, duration time.Duration)) {
	if recorder == nil {
		callRecorder = func(string, string, time.Duration) {}
		return
	}

	callRecorder = recorder
}
