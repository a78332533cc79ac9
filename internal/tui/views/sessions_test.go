package views

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/intervue-dev/intervue/internal/auth"
	"github.com/intervue-dev/intervue/internal/history"
	"github.com/intervue-dev/intervue/internal/tui"
)

// fakeRepo is an in-memory history.Repository.
type fakeRepo struct {
	rows      []history.Session
	deleteErr error
	deletes   int
}

func (f *fakeRepo) List(_ context.Context, userID string) ([]history.Session, error) {
	var out []history.Session
	for _, s := range f.rows {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeRepo) Get(_ context.Context, id string) (*history.Session, error) {
	for _, s := range f.rows {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, history.ErrNotFound
}

func (f *fakeRepo) Insert(_ context.Context, ns history.NewSession) (*history.Session, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	f.deletes++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.rows = history.Remove(f.rows, id)
	return nil
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func newLoadedSessions(t *testing.T, repo *fakeRepo) SessionsModel {
	t.Helper()
	users := auth.NewState()
	users.Set(&auth.User{ID: "u1", Email: "ada@example.com"}, "token")
	lister := history.NewLister(repo, users, nil)

	m := NewSessionsModel(lister, 100, 40)
	msg := m.Init()()
	loaded, ok := msg.(tui.SessionsLoadedMsg)
	if !ok {
		t.Fatalf("Init: got %T, want SessionsLoadedMsg", msg)
	}
	if loaded.Err != nil {
		t.Fatalf("Init: %v", loaded.Err)
	}
	m, _ = m.Update(loaded)
	return m
}

func sampleRows() []history.Session {
	return []history.Session{
		{ID: "s1", UserID: "u1", CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), Duration: "15 min", QuestionsAnswered: 3, AverageScore: 9},
		{ID: "s2", UserID: "u1", CreatedAt: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC), Duration: "15 min", QuestionsAnswered: 2, AverageScore: 6},
	}
}

func TestSessionsViewShowsStats(t *testing.T) {
	m := newLoadedSessions(t, &fakeRepo{rows: sampleRows()})

	if got := m.stats; got.Count != 2 || got.MeanScore != 8 || got.TotalQuestions != 5 {
		t.Errorf("stats: got %+v", got)
	}
	view := m.View()
	for _, want := range []string{"Your interview history", "8/10", "9/10", "6/10"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestSessionsViewEmpty(t *testing.T) {
	m := newLoadedSessions(t, &fakeRepo{})
	if !strings.Contains(m.View(), "No sessions yet") {
		t.Error("empty list: missing placeholder")
	}
	// Keys on an empty list must not panic.
	m, _ = m.Update(keyRune('d'))
	if m.confirming {
		t.Error("delete on empty list: got confirming")
	}
}

func TestSessionsViewDeleteNeedsConfirmation(t *testing.T) {
	repo := &fakeRepo{rows: sampleRows()}
	m := newLoadedSessions(t, repo)

	m, cmd := m.Update(keyRune('d'))
	if !m.confirming || cmd != nil {
		t.Fatalf("d: confirming=%v cmd=%v", m.confirming, cmd)
	}
	if !strings.Contains(m.View(), "(y/n)") {
		t.Error("confirm prompt not shown")
	}

	m, cmd = m.Update(keyRune('n'))
	if m.confirming || cmd != nil || repo.deletes != 0 {
		t.Fatalf("n: confirming=%v deletes=%d", m.confirming, repo.deletes)
	}

	m, _ = m.Update(keyRune('d'))
	m, cmd = m.Update(keyRune('y'))
	if cmd == nil {
		t.Fatal("y: got nil cmd")
	}
	deleted, ok := cmd().(tui.SessionDeletedMsg)
	if !ok || deleted.ID != "s1" || deleted.Err != nil {
		t.Fatalf("delete cmd: got %+v", deleted)
	}
	m, _ = m.Update(deleted)

	if len(m.sessions) != 1 || m.sessions[0].ID != "s2" {
		t.Errorf("sessions after delete: got %+v", m.sessions)
	}
	if m.stats.Count != 1 || m.stats.MeanScore != 6 {
		t.Errorf("stats after delete: got %+v", m.stats)
	}
}

func TestSessionsViewReloadClearsPendingDelete(t *testing.T) {
	repo := &fakeRepo{rows: sampleRows()}
	m := newLoadedSessions(t, repo)

	m, _ = m.Update(keyRune('d'))
	if !m.confirming {
		t.Fatal("d: got confirming=false")
	}

	m, _ = m.Update(tui.SessionsLoadedMsg{Sessions: []history.Session{}})
	if m.confirming {
		t.Error("reload: got confirming=true, want prompt cleared")
	}
	if !strings.Contains(m.View(), "No sessions yet") {
		t.Error("reload: missing empty placeholder")
	}

	m, cmd := m.Update(keyRune('y'))
	if cmd != nil || repo.deletes != 0 {
		t.Errorf("y after reload: cmd=%v deletes=%d, want no delete", cmd, repo.deletes)
	}
}

func TestSessionsViewDeleteFailureKeepsRow(t *testing.T) {
	repo := &fakeRepo{rows: sampleRows(), deleteErr: errors.New("network down")}
	m := newLoadedSessions(t, repo)

	m, _ = m.Update(keyRune('d'))
	_, cmd := m.Update(keyRune('y'))
	m, _ = m.Update(cmd())

	if len(m.sessions) != 2 {
		t.Errorf("sessions: got %d, want 2", len(m.sessions))
	}
	if !strings.Contains(m.err, "network down") {
		t.Errorf("err: got %q", m.err)
	}
}

func TestSessionsViewOpenDetail(t *testing.T) {
	m := newLoadedSessions(t, &fakeRepo{rows: sampleRows()})

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter: got nil cmd")
	}
	nav, ok := cmd().(tui.NavigateMsg)
	if !ok || nav.To != tui.StateDetail || nav.SessionID != "s2" {
		t.Errorf("enter: got %+v", nav)
	}
}

func TestDetailViewNotFound(t *testing.T) {
	m := NewDetailModel(&fakeRepo{}, "missing", 100, 40)
	m, _ = m.Update(m.Init()())
	if !strings.Contains(m.View(), "Session not found.") {
		t.Errorf("View() = %q", m.View())
	}
}

func TestDetailViewRendersQuestions(t *testing.T) {
	rows := sampleRows()
	rows[0].Questions = []history.QA{{
		Question:     "What is a mutex?",
		Answer:       "A lock",
		Score:        6,
		Feedback:     "Too brief.",
		Improvements: []string{"mention contention"},
	}}
	m := NewDetailModel(&fakeRepo{rows: rows}, "s1", 100, 60)
	m, _ = m.Update(m.Init()())

	view := m.View()
	for _, want := range []string{"Question 1", "What is a mutex?", "Too brief.", "mention contention"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"Data Structures", 6, "Data …"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
