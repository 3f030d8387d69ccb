package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/examwatch/proctor-admin/internal/auth"
	"github.com/examwatch/proctor-admin/internal/metrics"
)

const (
	defaultTimeout  = 30 * time.Second
	maxResponseSize = 8 << 20 // 8 MiB
)

// Client talks to the exam backend REST API. Every authenticated method takes the caller's
// credentials explicitly; the client holds no token of its own.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Now     func() time.Time
}

// New creates a backend client. timeout <= 0 falls back to the 30s transport default.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, errors.New("backend base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse backend base URL: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: timeout},
		Now:     time.Now,
	}, nil
}

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status   int
	Method   string
	Endpoint string
	Message  string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend %s %s failed: %d %s: %s", e.Method, e.Endpoint, e.Status, http.StatusText(e.Status), e.Message)
	}
	return fmt.Sprintf("backend %s %s failed: %d %s", e.Method, e.Endpoint, e.Status, http.StatusText(e.Status))
}

// Unwrap lets errors.Is(err, auth.ErrUnauthenticated) match a backend 401.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return auth.ErrUnauthenticated
	}
	return nil
}

// UserMessage is the text shown in error dialogs.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func (c *Client) ensureClient() error {
	if c.BaseURL == "" {
		return errors.New("backend base URL is required")
	}
	if c.HTTP == nil {
		return errors.New("backend http client is not configured")
	}
	return nil
}

func (c *Client) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Client) endpoint(path string, query url.Values) (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", err
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	u.Fragment = ""
	return u.String(), nil
}

type request struct {
	operation   string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	creds       *auth.Credentials
}

func jsonBody(v any) (io.Reader, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(raw), nil
}

// do performs one request and decodes a JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, r request, out any) error {
	if err := c.ensureClient(); err != nil {
		return err
	}

	var bearer string
	if r.creds != nil {
		token, err := r.creds.Bearer(c.now())
		if err != nil {
			return err
		}
		bearer = token
	}

	endpoint, err := c.endpoint(r.path, r.query)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, r.method, endpoint, r.body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "proctor-admin")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	metrics.BackendRequestDuration.WithLabelValues(r.operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(r.operation, "error").Inc()
		return fmt.Errorf("backend %s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()
	metrics.BackendRequestsTotal.WithLabelValues(r.operation, statusClass(resp.StatusCode)).Inc()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("backend %s %s: read body: %w", r.method, r.path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			Status:   resp.StatusCode,
			Method:   r.method,
			Endpoint: r.path,
			Message:  extractErrorMessage(body),
		}
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode backend %s %s: %w", r.method, r.path, err)
	}
	return nil
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

func extractErrorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := strings.TrimSpace(payload.Error); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(payload.Message); msg != "" {
			return msg
		}
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return ""
	}
	if strings.HasPrefix(msg, "<!DOCTYPE html") || strings.HasPrefix(msg, "<html") {
		return ""
	}
	msg = strings.Join(strings.Fields(msg), " ")
	const maxLen = 300
	if len(msg) > maxLen {
		msg = msg[:maxLen] + "…"
	}
	return msg
}
