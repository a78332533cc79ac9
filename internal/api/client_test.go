package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStartInterview(t *testing.T) {
	var got startRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/start_interview" {
			t.Errorf("request: got %s %s, want POST /start_interview", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Request-Id") == "" {
			t.Error("missing X-Request-Id header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{"session_id":"abc-123","message":"Interview Started"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	id, err := c.StartInterview(context.Background(), "u-1", "Data Structures & Algo", "Fresher")
	if err != nil {
		t.Fatalf("StartInterview failed: %v", err)
	}
	if id != "abc-123" {
		t.Errorf("session id: got %q, want %q", id, "abc-123")
	}
	if got.UserID != "u-1" || got.Topic != "Data Structures & Algo" || got.ExperienceLevel != "Fresher" {
		t.Errorf("request body: got %+v", got)
	}
}

func TestStartInterviewEmptySessionID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).StartInterview(context.Background(), "u", "t", "l"); err == nil {
		t.Error("StartInterview: got nil error for empty session_id")
	}
}

func TestNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Session not found"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).GetNextQuestion(context.Background(), "missing")
	if err == nil {
		t.Fatal("GetNextQuestion: got nil error, want status error")
	}
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error type: got %T, want *StatusError", err)
	}
	if se.Code != 404 || se.Detail != "Session not found" {
		t.Errorf("StatusError: got code=%d detail=%q", se.Code, se.Detail)
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound: got false, want true")
	}
}

func TestGetNextQuestionWithHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/get_question/s-1" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"question": "Explain Big-O of binary search",
			"difficulty": "Easy",
			"topic": "Data Structures & Algo",
			"history": [
				{"meta": "init", "topic": "Data Structures & Algo", "level": "Fresher"},
				{"question": "What is a stack?", "answer": "LIFO", "score": 9, "feedback": "Good."}
			]
		}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL).GetNextQuestion(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("GetNextQuestion failed: %v", err)
	}
	if resp.Question != "Explain Big-O of binary search" {
		t.Errorf("question: got %q", resp.Question)
	}

	records, meta := SplitHistory(resp.History)
	if len(records) != 1 {
		t.Fatalf("records: got %d, want 1", len(records))
	}
	if records[0].Question != "What is a stack?" || records[0].Score != 9 {
		t.Errorf("record: got %+v", records[0])
	}
	if meta == nil || meta.Topic != "Data Structures & Algo" || meta.Level != "Fresher" {
		t.Errorf("meta: got %+v", meta)
	}
}

func TestSplitHistoryWithoutMeta(t *testing.T) {
	records, meta := SplitHistory([]HistoryEntry{
		{Question: "q1", Answer: "a1", Score: 4},
		{Meta: "other", Topic: "ignored"},
		{Question: "q2", Answer: "a2", Score: 6},
	})
	if meta != nil {
		t.Errorf("meta: got %+v, want nil", meta)
	}
	if len(records) != 2 {
		t.Fatalf("records: got %d, want 2", len(records))
	}
	for _, r := range records {
		if r.Question == "" {
			t.Errorf("metadata leaked into records: %+v", r)
		}
	}
}

func TestSubmitAnswer(t *testing.T) {
	var got submitRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"score":8,"feedback":"Correct, concise.","next_difficulty":"Medium","correct_solution":"O(log n)"}`))
	}))
	defer srv.Close()

	eval, err := NewClient(srv.URL).SubmitAnswer(context.Background(), "s-1", "O(log n)", "Explain Big-O of binary search")
	if err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}
	if eval.Score != 8 || eval.Feedback != "Correct, concise." || eval.NextDifficulty != "Medium" {
		t.Errorf("evaluation: got %+v", eval)
	}
	if got.SessionID != "s-1" || got.Answer != "O(log n)" || got.QuestionText != "Explain Big-O of binary search" {
		t.Errorf("request body: got %+v", got)
	}
}

func TestMySessionsAndHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/my_sessions/u-1":
			_, _ = w.Write([]byte(`{"sessions":[{"session_id":"s-2","topic":"NLP","created_at":"2026-01-02","questions_count":3,"difficulty":"Hard"}]}`))
		case "/health":
			_, _ = w.Write([]byte(`{"status":"ok","message":"Backend is running","components":{"database":"ok"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	sessions, err := c.MySessions(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("MySessions failed: %v", err)
	}
	if len(sessions) != 1 || sessions[0].SessionID != "s-2" || sessions[0].QuestionsCount != 3 {
		t.Errorf("sessions: got %+v", sessions)
	}

	h, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if h.Status != "ok" || h.Components["database"] != "ok" {
		t.Errorf("health: got %+v", h)
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).Health(context.Background())
	if err == nil {
		t.Fatal("Health: got nil error against closed server")
	}
	var se *StatusError
	if errors.As(err, &se) {
		t.Errorf("transport failure should not be a StatusError: %v", err)
	}
}
