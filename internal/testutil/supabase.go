package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// FakeSupabase is an in-memory stand-in for the identity service and its
// PostgREST table API. Rows in user-owned tables are only visible to the
// bearer token of the owning user.
type FakeSupabase struct {
	Server  *httptest.Server
	AnonKey string

	// RequireConfirmation makes sign-up return a bare user with no session.
	RequireConfirmation bool

	mu       sync.Mutex
	users    map[string]*fakeUser // by email
	tokens   map[string]string    // access token -> user id
	refresh  map[string]string    // refresh token -> user id
	tables   map[string][]map[string]interface{}
	owned    map[string]bool
	failures map[string]int // "METHOD /path" -> status
	calls    []string
}

type fakeUser struct {
	ID       string
	Email    string
	Password string
	FullName string
}

// NewFakeSupabase starts a fake service that is closed when the test ends.
func NewFakeSupabase(t *testing.T) *FakeSupabase {
	t.Helper()
	f := &FakeSupabase{
		AnonKey:  "anon-key",
		users:    make(map[string]*fakeUser),
		tokens:   make(map[string]string),
		refresh:  make(map[string]string),
		tables:   make(map[string][]map[string]interface{}),
		owned:    map[string]bool{"interview_sessions": true},
		failures: make(map[string]int),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base URL of the fake service.
func (f *FakeSupabase) URL() string {
	return f.Server.URL
}

// AddUser registers a confirmed user and returns its id.
func (f *FakeSupabase) AddUser(email, password, fullName string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &fakeUser{ID: uuid.New().String(), Email: email, Password: password, FullName: fullName}
	f.users[email] = u
	return u.ID
}

// IssueToken returns a fresh access token for userID.
func (f *FakeSupabase) IssueToken(userID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	token := "at-" + uuid.New().String()
	f.tokens[token] = userID
	return token
}

// ExpireTokens makes every access token issued so far invalid.
func (f *FakeSupabase) ExpireTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = make(map[string]string)
}

// SeedRow inserts row into table. Values are normalized through JSON so
// numbers compare like rows inserted over HTTP. id and created_at are filled
// in when absent.
func (f *FakeSupabase) SeedRow(table string, row map[string]interface{}) string {
	data, _ := json.Marshal(row)
	normalized := make(map[string]interface{})
	_ = json.Unmarshal(data, &normalized)

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insertLocked(table, normalized)
}

// Rows returns a copy of table's rows.
func (f *FakeSupabase) Rows(table string) []map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]interface{}, len(f.tables[table]))
	copy(out, f.tables[table])
	return out
}

// FailNext makes the next request matching method and path prefix return status.
func (f *FakeSupabase) FailNext(method, pathPrefix string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method+" "+pathPrefix] = status
}

// Calls returns "METHOD /path" for every request received.
func (f *FakeSupabase) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *FakeSupabase) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := r.Method + " " + r.URL.Path
	f.calls = append(f.calls, call)

	for key, status := range f.failures {
		if strings.HasPrefix(call, key) {
			delete(f.failures, key)
			writeJSON(w, status, map[string]string{"message": "injected failure"})
			return
		}
	}

	if r.Header.Get("apikey") != f.AnonKey {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid API key"})
		return
	}

	switch {
	case r.URL.Path == "/auth/v1/token":
		f.handleToken(w, r)
	case r.URL.Path == "/auth/v1/signup":
		f.handleSignUp(w, r)
	case r.URL.Path == "/auth/v1/logout":
		if uid := f.bearerUser(r); uid != "" {
			f.revokeLocked(uid)
		}
		w.WriteHeader(http.StatusNoContent)
	case r.URL.Path == "/auth/v1/user":
		uid := f.bearerUser(r)
		u := f.userByID(uid)
		if u == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "invalid JWT"})
			return
		}
		writeJSON(w, http.StatusOK, userJSON(u))
	case strings.HasPrefix(r.URL.Path, "/rest/v1/"):
		f.handleRest(w, r, strings.TrimPrefix(r.URL.Path, "/rest/v1/"))
	default:
		http.NotFound(w, r)
	}
}

func (f *FakeSupabase) handleToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email        string `json:"email"`
		Password     string `json:"password"`
		RefreshToken string `json:"refresh_token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	switch r.URL.Query().Get("grant_type") {
	case "password":
		u, ok := f.users[body.Email]
		if !ok || u.Password != body.Password {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error":             "invalid_grant",
				"error_description": "Invalid login credentials",
			})
			return
		}
		writeJSON(w, http.StatusOK, f.sessionLocked(u))
	case "refresh_token":
		uid, ok := f.refresh[body.RefreshToken]
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error_description": "Invalid Refresh Token"})
			return
		}
		delete(f.refresh, body.RefreshToken)
		writeJSON(w, http.StatusOK, f.sessionLocked(f.userByID(uid)))
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "unsupported grant_type"})
	}
}

func (f *FakeSupabase) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Data     struct {
			FullName string `json:"full_name"`
		} `json:"data"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	if _, exists := f.users[body.Email]; exists {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"msg": "User already registered"})
		return
	}
	if len(body.Password) < 6 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"msg": "Password should be at least 6 characters"})
		return
	}
	u := &fakeUser{ID: uuid.New().String(), Email: body.Email, Password: body.Password, FullName: body.Data.FullName}
	f.users[body.Email] = u

	if f.RequireConfirmation {
		writeJSON(w, http.StatusOK, userJSON(u))
		return
	}
	writeJSON(w, http.StatusOK, f.sessionLocked(u))
}

func (f *FakeSupabase) handleRest(w http.ResponseWriter, r *http.Request, table string) {
	uid := f.bearerUser(r)
	if uid == "" && !f.isAnon(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "JWT expired"})
		return
	}
	visible := func(row map[string]interface{}) bool {
		if !f.owned[table] {
			return true
		}
		return uid != "" && row["user_id"] == uid
	}
	q := r.URL.Query()

	switch r.Method {
	case http.MethodGet:
		var out []map[string]interface{}
		for _, row := range f.tables[table] {
			if visible(row) && matches(row, q) {
				out = append(out, row)
			}
		}
		sortRows(out, q.Get("order"))
		if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit < len(out) {
			out = out[:limit]
		}
		if out == nil {
			out = []map[string]interface{}{}
		}
		writeJSON(w, http.StatusOK, out)

	case http.MethodPost:
		var rows []map[string]interface{}
		var raw json.RawMessage
		_ = json.NewDecoder(r.Body).Decode(&raw)
		if err := json.Unmarshal(raw, &rows); err != nil {
			var single map[string]interface{}
			if err := json.Unmarshal(raw, &single); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
				return
			}
			rows = []map[string]interface{}{single}
		}
		var created []map[string]interface{}
		for _, row := range rows {
			if f.owned[table] && row["user_id"] != uid {
				writeJSON(w, http.StatusForbidden, map[string]string{"message": "new row violates row-level security policy"})
				return
			}
			f.insertLocked(table, row)
			created = append(created, row)
		}
		writeJSON(w, http.StatusCreated, created)

	case http.MethodDelete:
		var kept, deleted []map[string]interface{}
		for _, row := range f.tables[table] {
			if visible(row) && matches(row, q) {
				deleted = append(deleted, row)
				continue
			}
			kept = append(kept, row)
		}
		f.tables[table] = kept
		if deleted == nil {
			deleted = []map[string]interface{}{}
		}
		writeJSON(w, http.StatusOK, deleted)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *FakeSupabase) insertLocked(table string, row map[string]interface{}) string {
	id, _ := row["id"].(string)
	if id == "" {
		id = uuid.New().String()
		row["id"] = id
	}
	if _, ok := row["created_at"]; !ok {
		row["created_at"] = time.Now().UTC().Format(time.RFC3339Nano)
	}
	f.tables[table] = append(f.tables[table], row)
	return id
}

func (f *FakeSupabase) sessionLocked(u *fakeUser) map[string]interface{} {
	access := "at-" + uuid.New().String()
	refresh := "rt-" + uuid.New().String()
	f.tokens[access] = u.ID
	f.refresh[refresh] = u.ID
	return map[string]interface{}{
		"access_token":  access,
		"token_type":    "bearer",
		"expires_in":    3600,
		"refresh_token": refresh,
		"user":          userJSON(u),
	}
}

func (f *FakeSupabase) revokeLocked(uid string) {
	for token, id := range f.tokens {
		if id == uid {
			delete(f.tokens, token)
		}
	}
}

func (f *FakeSupabase) bearerUser(r *http.Request) string {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	return f.tokens[token]
}

func (f *FakeSupabase) isAnon(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return auth == "" || auth == "Bearer "+f.AnonKey
}

func (f *FakeSupabase) userByID(id string) *fakeUser {
	for _, u := range f.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func userJSON(u *fakeUser) map[string]interface{} {
	return map[string]interface{}{
		"id":            u.ID,
		"email":         u.Email,
		"user_metadata": map[string]string{"full_name": u.FullName},
	}
}

// matches applies PostgREST "col=eq.value" filters.
func matches(row map[string]interface{}, q map[string][]string) bool {
	for col, values := range q {
		switch col {
		case "select", "order", "limit":
			continue
		}
		for _, v := range values {
			want, ok := strings.CutPrefix(v, "eq.")
			if !ok {
				continue
			}
			if fmt.Sprint(row[col]) != want {
				return false
			}
		}
	}
	return true
}

// sortRows applies a PostgREST "col.asc" / "col.desc" order.
func sortRows(rows []map[string]interface{}, order string) {
	if order == "" {
		return
	}
	col, dir, _ := strings.Cut(order, ".")
	desc := dir == "desc"
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i][col], rows[j][col]
		var less bool
		af, aNum := a.(float64)
		bf, bNum := b.(float64)
		if aNum && bNum {
			less = af < bf
		} else {
			less = fmt.Sprint(a) < fmt.Sprint(b)
		}
		if desc {
			return !less && fmt.Sprint(a) != fmt.Sprint(b)
		}
		return less
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
