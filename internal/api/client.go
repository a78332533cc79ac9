package api

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

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: backend error %d: %s", e.Method, e.Path, e.Code, e.Detail)
	}
	return fmt.Sprintf("%s %s: backend error %d", e.Method, e.Path, e.Code)
}

// IsNotFound reports whether err is a 404 from the interview API.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// Client talks to the remote interview API. Every call is a single
// request with no retry and no caching.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a Client for baseURL, e.g. "http://127.0.0.1:8000" or
// "https://example.com/api".
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// StartInterview creates a remote session and returns its id.
func (c *Client) StartInterview(ctx context.Context, userID, topic, level string) (string, error) {
	var resp startResponse
	req := startRequest{UserID: userID, Topic: topic, ExperienceLevel: level}
	if err := c.do(ctx, http.MethodPost, "/start_interview", req, &resp); err != nil {
		return "", fmt.Errorf("start interview: %w", err)
	}
	if resp.SessionID == "" {
		return "", errors.New("start interview: response has no session_id")
	}
	return resp.SessionID, nil
}

// GetNextQuestion fetches the next question for sessionID together with
// the session's full server-side history.
func (c *Client) GetNextQuestion(ctx context.Context, sessionID string) (*QuestionResponse, error) {
	var resp QuestionResponse
	path := "/get_question/" + url.PathEscape(sessionID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	if strings.TrimSpace(resp.Question) == "" {
		return nil, errors.New("get question: response has no question")
	}
	return &resp, nil
}

// SubmitAnswer sends answer for question and returns the server's evaluation.
func (c *Client) SubmitAnswer(ctx context.Context, sessionID, answer, question string) (*Evaluation, error) {
	var resp Evaluation
	req := submitRequest{SessionID: sessionID, Answer: answer, QuestionText: question}
	if err := c.do(ctx, http.MethodPost, "/submit_answer", req, &resp); err != nil {
		return nil, fmt.Errorf("submit answer: %w", err)
	}
	return &resp, nil
}

// MySessions lists the remote sessions owned by userID, newest first.
func (c *Client) MySessions(ctx context.Context, userID string) ([]RemoteSession, error) {
	var resp mySessionsResponse
	path := "/my_sessions/" + url.PathEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("list remote sessions: %w", err)
	}
	return resp.Sessions, nil
}

// Health checks the API.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var resp Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, fmt.Errorf("health check: %w", err)
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("method", method).Str("path", path).Str("request_id", requestID).Msg("api request failed")
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Detail: errorDetail(data)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorDetail extracts FastAPI's {"detail": ...} message when present.
func errorDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return strings.TrimSpace(string(body))
	}
	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}
	return string(payload.Detail)
}
