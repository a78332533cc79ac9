package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
)

// FakeInterviewAPI mimics the remote interview API. Sessions keep a history
// whose first element is the {"meta": "init"} entry, like the real server.
type FakeInterviewAPI struct {
	Server *httptest.Server

	// Questions are served in order, cycling when exhausted.
	Questions []string
	// Score and Feedback are returned for every submitted answer.
	Score    float64
	Feedback string

	mu       sync.Mutex
	sessions map[string]*FakeInterviewSession
	failures map[string]int
	calls    []string
}

// FakeInterviewSession is the server-side state of one session.
type FakeInterviewSession struct {
	UserID  string
	History []map[string]interface{}
	asked   int
}

// NewFakeInterviewAPI starts a fake API that is closed when the test ends.
func NewFakeInterviewAPI(t *testing.T) *FakeInterviewAPI {
	t.Helper()
	f := &FakeInterviewAPI{
		Questions: []string{"Explain Big-O of binary search"},
		Score:     8,
		Feedback:  "Correct, concise.",
		sessions:  make(map[string]*FakeInterviewSession),
		failures:  make(map[string]int),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base URL of the fake API.
func (f *FakeInterviewAPI) URL() string {
	return f.Server.URL
}

// SeedSession creates a session with an init entry and returns its id.
func (f *FakeInterviewAPI) SeedSession(userID, topic, level string, records ...map[string]interface{}) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New().String()
	history := []map[string]interface{}{{"meta": "init", "topic": topic, "level": level}}
	history = append(history, records...)
	f.sessions[id] = &FakeInterviewSession{UserID: userID, History: history}
	return id
}

// Session returns the server-side state of id, or nil.
func (f *FakeInterviewAPI) Session(id string) *FakeInterviewSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[id]
}

// FailNext makes the next request whose path starts with pathPrefix return status.
func (f *FakeInterviewAPI) FailNext(pathPrefix string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[pathPrefix] = status
}

// CallCount returns how many requests hit a path starting with pathPrefix.
func (f *FakeInterviewAPI) CallCount(pathPrefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, pathPrefix) {
			n++
		}
	}
	return n
}

func (f *FakeInterviewAPI) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, r.URL.Path)
	for prefix, status := range f.failures {
		if strings.HasPrefix(r.URL.Path, prefix) {
			delete(f.failures, prefix)
			writeJSON(w, status, map[string]string{"detail": "injected failure"})
			return
		}
	}

	switch {
	case r.Method == http.MethodGet && (r.URL.Path == "/health" || r.URL.Path == "/"):
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":     "ok",
			"message":    "Backend is running",
			"components": map[string]string{"database": "ok", "evaluator": "ok"},
		})

	case r.Method == http.MethodPost && r.URL.Path == "/start_interview":
		var req struct {
			UserID          string `json:"user_id"`
			Topic           string `json:"topic"`
			ExperienceLevel string `json:"experience_level"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		id := uuid.New().String()
		f.sessions[id] = &FakeInterviewSession{
			UserID:  req.UserID,
			History: []map[string]interface{}{{"meta": "init", "topic": req.Topic, "level": req.ExperienceLevel}},
		}
		writeJSON(w, http.StatusOK, map[string]string{"session_id": id, "message": "Interview Started"})

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/get_question/"):
		s, ok := f.sessions[strings.TrimPrefix(r.URL.Path, "/get_question/")]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Session not found"})
			return
		}
		q := f.Questions[s.asked%len(f.Questions)]
		s.asked++
		topic, _ := s.History[0]["topic"].(string)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"question":   q,
			"difficulty": "Easy",
			"topic":      topic,
			"history":    s.History,
		})

	case r.Method == http.MethodPost && r.URL.Path == "/submit_answer":
		var req struct {
			SessionID    string `json:"session_id"`
			Answer       string `json:"answer"`
			QuestionText string `json:"question_text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		s, ok := f.sessions[req.SessionID]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Session not found"})
			return
		}
		s.History = append(s.History, map[string]interface{}{
			"question": req.QuestionText,
			"answer":   req.Answer,
			"score":    f.Score,
			"feedback": f.Feedback,
		})
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"score":            f.Score,
			"feedback":         f.Feedback,
			"next_difficulty":  "Medium",
			"correct_solution": "",
		})

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/my_sessions/"):
		userID := strings.TrimPrefix(r.URL.Path, "/my_sessions/")
		var out []map[string]interface{}
		for id, s := range f.sessions {
			if s.UserID != userID {
				continue
			}
			topic, _ := s.History[0]["topic"].(string)
			out = append(out, map[string]interface{}{
				"session_id":      id,
				"topic":           topic,
				"created_at":      "2026-01-01T00:00:00",
				"questions_count": len(s.History) - 1,
				"difficulty":      "Easy",
			})
		}
		if out == nil {
			out = []map[string]interface{}{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": out})

	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": fmt.Sprintf("no route %s %s", r.Method, r.URL.Path)})
	}
}
