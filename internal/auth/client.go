package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/intervue-dev/intervue/internal/config"
	"github.com/intervue-dev/intervue/internal/log"
	"github.com/intervue-dev/intervue/internal/session"
)

var (
	// ErrInvalidCredentials is returned when the service rejects email/password.
	ErrInvalidCredentials = errors.New("invalid login credentials")
	// ErrNotSignedIn is returned when an operation needs a user and there is none.
	ErrNotSignedIn = errors.New("not signed in")
	// ErrPasswordMismatch is returned by ValidateSignUp.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrMissingFields is returned when a required form field is empty.
	ErrMissingFields = errors.New("email and password are required")
)

// ServiceError is a non-2xx response from the identity service.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("identity service returned %d", e.Status)
	}
	return e.Message
}

// CredentialStore persists the signed-in credential between runs.
type CredentialStore interface {
	SaveCredential(cred *session.Credential) error
	Credential() (*session.Credential, error)
	ClearCredential() error
}

// SignUpResult is the outcome of SignUp. When NeedsConfirmation is set the
// account exists but the user must verify their email before signing in.
type SignUpResult struct {
	User              *User
	NeedsConfirmation bool
}

// Client talks to the identity service's REST surface.
type Client struct {
	cfg        config.IdentityConfig
	store      CredentialStore
	state      *State
	httpClient *http.Client
	logger     zerolog.Logger
	events     *log.Logger
	now        func() time.Time
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

// WithEvents sets the product event log.
func WithEvents(l *log.Logger) Option {
	return func(c *Client) { c.events = l }
}

// WithState shares an existing State instead of creating one.
func WithState(s *State) Option {
	return func(c *Client) { c.state = s }
}

// NewClient creates a Client. store may be nil, in which case the sign-in
// only lives as long as the process.
func NewClient(cfg config.IdentityConfig, store CredentialStore, opts ...Option) *Client {
	c := &Client{
		cfg:        cfg,
		store:      store,
		httpClient: http.DefaultClient,
		logger:     zerolog.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.state == nil {
		c.state = NewState()
	}
	c.cfg.URL = strings.TrimRight(c.cfg.URL, "/")
	return c
}

// State returns the shared current-user holder.
func (c *Client) State() *State {
	return c.state
}

// Current returns the signed-in user, or nil.
func (c *Client) Current() *User {
	return c.state.User()
}

// Configured reports whether the identity service credentials are present.
func (c *Client) Configured() bool {
	return c.cfg.Configured()
}

// ValidateSignIn checks the sign-in form before any network call.
func ValidateSignIn(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return ErrMissingFields
	}
	return nil
}

// ValidateSignUp checks the sign-up form before any network call.
func ValidateSignUp(email, password, confirm string) error {
	if err := ValidateSignIn(email, password); err != nil {
		return err
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

// SignIn exchanges email and password for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*User, error) {
	if !c.Configured() {
		return nil, config.ErrIdentityNotConfigured
	}
	if err := ValidateSignIn(email, password); err != nil {
		return nil, err
	}

	body := map[string]string{"email": strings.TrimSpace(email), "password": password}
	var resp tokenResponse
	if err := c.post(ctx, "/auth/v1/token?grant_type=password", "", body, &resp); err != nil {
		var se *ServiceError
		if errors.As(err, &se) && (se.Status == http.StatusBadRequest || se.Status == http.StatusUnauthorized) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, se.Message)
		}
		return nil, fmt.Errorf("sign in: %w", err)
	}

	user, err := c.establish(&resp)
	if err != nil {
		return nil, err
	}
	c.logEvent(log.EventSignedIn, user.ID)
	return user, nil
}

// SignUp registers a new account with displayName stored as full_name.
func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (*SignUpResult, error) {
	if !c.Configured() {
		return nil, config.ErrIdentityNotConfigured
	}
	if err := ValidateSignIn(email, password); err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"email":    strings.TrimSpace(email),
		"password": password,
		"data":     map[string]string{"full_name": strings.TrimSpace(displayName)},
	}
	var resp tokenResponse
	if err := c.post(ctx, "/auth/v1/signup", "", body, &resp); err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}

	if resp.AccessToken == "" {
		u := resp.gotrueUser
		if resp.User != nil {
			u = *resp.User
		}
		user := u.toUser()
		c.logEvent(log.EventSignedUp, user.ID)
		return &SignUpResult{User: user, NeedsConfirmation: true}, nil
	}

	user, err := c.establish(&resp)
	if err != nil {
		return nil, err
	}
	c.logEvent(log.EventSignedUp, user.ID)
	return &SignUpResult{User: user}, nil
}

// SignOut ends the session. The remote logout is best-effort; the local
// credential is always removed.
func (c *Client) SignOut(ctx context.Context) error {
	user := c.state.User()
	if token := c.state.Token(); token != "" && c.Configured() {
		if err := c.post(ctx, "/auth/v1/logout", token, nil, nil); err != nil {
			c.logger.Warn().Err(err).Msg("remote logout failed")
		}
	}

	c.state.Clear()
	if c.store != nil {
		if err := c.store.ClearCredential(); err != nil {
			return fmt.Errorf("sign out: %w", err)
		}
	}
	if user != nil {
		c.logEvent(log.EventSignedOut, user.ID)
	}
	return nil
}

// Restore loads the persisted credential into State. An expired access
// token is refreshed once; if that fails the credential is discarded.
// Returns nil, nil when nobody is signed in.
func (c *Client) Restore(ctx context.Context) (*User, error) {
	if c.store == nil {
		return c.state.User(), nil
	}
	cred, err := c.store.Credential()
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	if cred == nil {
		return nil, nil
	}

	if !cred.Expired(c.now()) {
		user := &User{ID: cred.UserID, Email: cred.Email, DisplayName: cred.DisplayName}
		c.state.Set(user, cred.AccessToken)
		return user, nil
	}

	if cred.RefreshToken == "" || !c.Configured() {
		_ = c.store.ClearCredential()
		return nil, nil
	}

	var resp tokenResponse
	body := map[string]string{"refresh_token": cred.RefreshToken}
	if err := c.post(ctx, "/auth/v1/token?grant_type=refresh_token", "", body, &resp); err != nil {
		_ = c.store.ClearCredential()
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	return c.establish(&resp)
}

// Verify checks the current access token against the service and returns
// the user it belongs to. A rejected token signs the client out.
func (c *Client) Verify(ctx context.Context) (*User, error) {
	token := c.state.Token()
	if token == "" {
		return nil, ErrNotSignedIn
	}
	if !c.Configured() {
		return nil, config.ErrIdentityNotConfigured
	}

	var u gotrueUser
	if err := c.get(ctx, "/auth/v1/user", token, &u); err != nil {
		var se *ServiceError
		if errors.As(err, &se) && (se.Status == http.StatusUnauthorized || se.Status == http.StatusForbidden) {
			c.state.Clear()
			if c.store != nil {
				_ = c.store.ClearCredential()
			}
			return nil, ErrNotSignedIn
		}
		return nil, fmt.Errorf("verify session: %w", err)
	}
	return u.toUser(), nil
}

// establish stores the session from a token response and updates State.
func (c *Client) establish(resp *tokenResponse) (*User, error) {
	u := resp.gotrueUser
	if resp.User != nil {
		u = *resp.User
	}
	if u.ID == "" {
		return nil, errors.New("identity service returned no user")
	}
	user := u.toUser()

	if c.store != nil {
		cred := &session.Credential{
			UserID:       user.ID,
			Email:        user.Email,
			DisplayName:  user.DisplayName,
			AccessToken:  resp.AccessToken,
			RefreshToken: resp.RefreshToken,
			ExpiresAt:    resp.expiry(c.now()),
		}
		if err := c.store.SaveCredential(cred); err != nil {
			return nil, fmt.Errorf("save credential: %w", err)
		}
	}

	c.state.Set(user, resp.AccessToken)
	return user, nil
}

func (c *Client) logEvent(event, userID string) {
	if err := c.events.Append(log.LogEvent{Event: event, UserID: userID}); err != nil {
		c.logger.Warn().Err(err).Str("event", event).Msg("append event")
	}
}

func (c *Client) post(ctx context.Context, path, token string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, token, body, out)
}

func (c *Client) get(ctx context.Context, path, token string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, token, nil, out)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.URL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.cfg.AnonKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("identity request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServiceError{Status: resp.StatusCode, Message: errorMessage(data)}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
