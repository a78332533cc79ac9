package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/intervue-dev/intervue/internal/auth"
	"github.com/intervue-dev/intervue/internal/config"
)

// RESTError is a non-2xx response from the table API.
type RESTError struct {
	Status  int
	Message string
}

func (e *RESTError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("table api: status %d", e.Status)
	}
	return fmt.Sprintf("table api: %s (status %d)", e.Message, e.Status)
}

// RESTRepository talks to the PostgREST endpoint of the identity service.
// Rows are scoped by the service's row-level security to the bearer token.
type RESTRepository struct {
	baseURL       string
	anonKey       string
	sessionsTable string
	teamTable     string
	viewer        Viewer
	httpClient    *http.Client
	logger        zerolog.Logger
}

// RESTOption configures a RESTRepository.
type RESTOption func(*RESTRepository)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) RESTOption {
	return func(r *RESTRepository) { r.httpClient = hc }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l zerolog.Logger) RESTOption {
	return func(r *RESTRepository) { r.logger = l }
}

// NewRESTRepository creates a repository against {identity.url}/rest/v1.
func NewRESTRepository(identity config.IdentityConfig, db config.DatabaseConfig, viewer Viewer, opts ...RESTOption) *RESTRepository {
	r := &RESTRepository{
		baseURL:       identity.URL + "/rest/v1",
		anonKey:       identity.AnonKey,
		sessionsTable: db.SessionsTable,
		teamTable:     db.TeamTable,
		viewer:        viewer,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List returns the user's sessions, newest first.
func (r *RESTRepository) List(ctx context.Context, userID string) ([]Session, error) {
	token, err := r.token()
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", "eq."+userID)
	q.Set("order", "created_at.desc")

	var sessions []Session
	if err := r.do(ctx, http.MethodGet, r.sessionsTable, q, token, nil, &sessions); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	for i := range sessions {
		sessions[i].normalize()
	}
	return sessions, nil
}

// Get returns one session. A row hidden by row-level security is reported
// as ErrNotFound, same as a missing one.
func (r *RESTRepository) Get(ctx context.Context, id string) (*Session, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	token, err := r.token()
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("select", "*")
	q.Set("id", "eq."+id)
	q.Set("limit", "1")

	var sessions []Session
	if err := r.do(ctx, http.MethodGet, r.sessionsTable, q, token, nil, &sessions); err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if len(sessions) == 0 {
		return nil, ErrNotFound
	}
	s := sessions[0]
	s.normalize()
	return &s, nil
}

// Insert writes one session row and returns it as stored.
func (r *RESTRepository) Insert(ctx context.Context, ns NewSession) (*Session, error) {
	token, err := r.token()
	if err != nil {
		return nil, err
	}
	if ns.Questions == nil {
		ns.Questions = []QA{}
	}

	var created []Session
	if err := r.do(ctx, http.MethodPost, r.sessionsTable, nil, token, ns, &created); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	if len(created) == 0 {
		return nil, fmt.Errorf("save session: empty representation")
	}
	s := created[0]
	s.normalize()
	return &s, nil
}

// Delete removes one session row.
func (r *RESTRepository) Delete(ctx context.Context, id string) error {
	if err := validID(id); err != nil {
		return err
	}
	token, err := r.token()
	if err != nil {
		return err
	}
	q := url.Values{}
	q.Set("id", "eq."+id)

	var deleted []Session
	if err := r.do(ctx, http.MethodDelete, r.sessionsTable, q, token, nil, &deleted); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if len(deleted) == 0 {
		return ErrNotFound
	}
	return nil
}

// ListTeam returns team members ordered by display order. No sign-in needed.
func (r *RESTRepository) ListTeam(ctx context.Context) ([]TeamMember, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "display_order.asc")

	token := ""
	if r.viewer != nil {
		token = r.viewer.Token()
	}
	var members []TeamMember
	if err := r.do(ctx, http.MethodGet, r.teamTable, q, token, nil, &members); err != nil {
		return nil, fmt.Errorf("list team: %w", err)
	}
	return members, nil
}

// Close is a no-op; the REST backend holds no connections.
func (r *RESTRepository) Close() error {
	return nil
}

func (r *RESTRepository) token() (string, error) {
	if _, err := requireUser(r.viewer); err != nil {
		return "", err
	}
	token := r.viewer.Token()
	if token == "" {
		return "", auth.ErrNotSignedIn
	}
	return token, nil
}

func (r *RESTRepository) do(ctx context.Context, method, table string, q url.Values, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	u := r.baseURL + "/" + table
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", r.anonKey)
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	r.logger.Debug().Str("method", method).Str("table", table).Int("status", resp.StatusCode).Msg("table request")

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", auth.ErrNotSignedIn, restMessage(data))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RESTError{Status: resp.StatusCode, Message: restMessage(data)}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func restMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
		Details string `json:"details"`
	}
	if json.Unmarshal(body, &e) != nil {
		return ""
	}
	return e.Message
}
