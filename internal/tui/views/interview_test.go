package views

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/intervue-dev/intervue/internal/api"
	"github.com/intervue-dev/intervue/internal/auth"
	"github.com/intervue-dev/intervue/internal/config"
	"github.com/intervue-dev/intervue/internal/history"
	"github.com/intervue-dev/intervue/internal/interview"
	"github.com/intervue-dev/intervue/internal/speech"
	"github.com/intervue-dev/intervue/internal/testutil"
	"github.com/intervue-dev/intervue/internal/tui"
	"github.com/intervue-dev/intervue/internal/tui/commands"
)

// memRecorder keeps inserted session summaries in memory.
type memRecorder struct {
	rows []history.NewSession
}

func (r *memRecorder) Insert(_ context.Context, ns history.NewSession) (*history.Session, error) {
	r.rows = append(r.rows, ns)
	return &history.Session{
		ID:                uuid.NewString(),
		UserID:            ns.UserID,
		QuestionsAnswered: ns.QuestionsAnswered,
		AverageScore:      ns.AverageScore,
		Status:            ns.Status,
	}, nil
}

type practiceFixture struct {
	fake     *testutil.FakeInterviewAPI
	recorder *memRecorder
	ctrl     *interview.Controller
	m        InterviewModel
}

func newPracticeFixture(t *testing.T) *practiceFixture {
	t.Helper()
	fake := testutil.NewFakeInterviewAPI(t)
	users := auth.NewState()
	users.Set(&auth.User{ID: "user-1", Email: "ada@example.com"}, "token")

	catalog := config.DefaultConfig().Interview
	rec := &memRecorder{}
	ctrl := interview.New(interview.Deps{
		API:      api.NewClient(fake.URL()),
		Recorder: rec,
		Users:    users,
		Catalog:  catalog,
		Logger:   zerolog.Nop(),
	})
	return &practiceFixture{
		fake:     fake,
		recorder: rec,
		ctrl:     ctrl,
		m:        NewInterviewModel(ctrl, catalog, nil, nil, nil, 100, 40),
	}
}

// collect runs cmd and returns the messages it produces, expanding batches.
// Only pass commands that return immediately.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func findMsg[T tea.Msg](msgs []tea.Msg) (T, bool) {
	for _, msg := range msgs {
		if v, ok := msg.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func keyType(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

// startPractice picks the first domain, its first topic and the default
// level, then runs the start command and returns what it produced.
func (f *practiceFixture) startPractice(t *testing.T) []tea.Msg {
	t.Helper()
	var cmd tea.Cmd
	for i := 0; i < 3; i++ {
		f.m, cmd = f.m.Update(keyType(tea.KeyEnter))
	}
	if cmd == nil {
		t.Fatal("expected a start command after choosing the level")
	}
	if f.m.busyOp != commands.OpStart {
		t.Fatalf("expected busy start, got %q", f.m.busyOp)
	}
	return collect(cmd)
}

// loadQuestion starts a session and delivers the first question.
func (f *practiceFixture) loadQuestion(t *testing.T) {
	t.Helper()
	msgs := f.startPractice(t)
	loaded, ok := findMsg[tui.QuestionLoadedMsg](msgs)
	if !ok {
		t.Fatalf("expected QuestionLoadedMsg, got %#v", msgs)
	}
	f.m, _ = f.m.Update(loaded)
	if f.ctrl.Snapshot().State != interview.QuestionDisplayed {
		t.Fatalf("expected QuestionDisplayed, got %s", f.ctrl.Snapshot().State)
	}
}

func TestInterviewViewRejectsBlankAnswer(t *testing.T) {
	f := newPracticeFixture(t)
	f.loadQuestion(t)

	f.m, _ = f.m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("   ")})
	m, cmd := f.m.Update(keyType(tea.KeyCtrlS))
	if cmd != nil {
		t.Error("expected no command for a blank answer")
	}
	if !strings.Contains(m.err, "Please type an answer first.") {
		t.Errorf("expected blank-answer error, got %q", m.err)
	}
	if n := f.fake.CallCount("/submit_answer"); n != 0 {
		t.Errorf("expected no submit calls, got %d", n)
	}
	if m.busyOp != "" {
		t.Errorf("expected idle view, got busy %q", m.busyOp)
	}
}

func TestInterviewViewSubmitShowsScore(t *testing.T) {
	f := newPracticeFixture(t)
	f.loadQuestion(t)

	f.m, _ = f.m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("O(log n)")})
	var cmd tea.Cmd
	f.m, cmd = f.m.Update(keyType(tea.KeyCtrlS))
	if cmd == nil {
		t.Fatal("expected a submit command")
	}
	if f.m.busyOp != commands.OpSubmit {
		t.Errorf("expected busy submit, got %q", f.m.busyOp)
	}

	msgs := collect(cmd)
	scored, ok := findMsg[tui.AnswerScoredMsg](msgs)
	if !ok {
		t.Fatalf("expected AnswerScoredMsg, got %#v", msgs)
	}
	if scored.Evaluation == nil || scored.Evaluation.Score != 8 {
		t.Fatalf("unexpected evaluation: %+v", scored.Evaluation)
	}

	f.m, _ = f.m.Update(scored)
	if f.ctrl.Snapshot().State != interview.FeedbackDisplayed {
		t.Errorf("expected FeedbackDisplayed, got %s", f.ctrl.Snapshot().State)
	}
	view := f.m.View()
	if !strings.Contains(view, "Score: 8/10") {
		t.Errorf("view missing score: %s", view)
	}
	if !strings.Contains(view, "Correct, concise.") {
		t.Errorf("view missing feedback: %s", view)
	}
}

func TestInterviewViewSavedNavigatesToSessions(t *testing.T) {
	f := newPracticeFixture(t)

	_, cmd := f.m.Update(tui.SessionSavedMsg{Session: &history.Session{QuestionsAnswered: 2, AverageScore: 7}})
	msgs := collect(cmd)

	nav, ok := findMsg[tui.NavigateMsg](msgs)
	if !ok || nav.To != tui.StateSessions {
		t.Errorf("expected navigation to sessions, got %#v", msgs)
	}
	a, ok := findMsg[tui.AlertMsg](msgs)
	if !ok || a.Error || !strings.Contains(a.Text, "2 questions, average 7/10") {
		t.Errorf("unexpected alert: %#v", msgs)
	}
}

func TestInterviewViewSignedOutRoutesToSignIn(t *testing.T) {
	f := newPracticeFixture(t)

	_, cmd := f.m.Update(tui.InterviewErrorMsg{Op: commands.OpStart, Err: interview.ErrNotAuthenticated})
	msgs := collect(cmd)

	nav, ok := findMsg[tui.NavigateMsg](msgs)
	if !ok || nav.To != tui.StateSignIn {
		t.Errorf("expected navigation to sign-in, got %#v", msgs)
	}
	a, ok := findMsg[tui.AlertMsg](msgs)
	if !ok || !a.Error || a.Text != "Please sign in first!" {
		t.Errorf("unexpected alert: %#v", msgs)
	}
}

func TestInterviewViewTranscriptAppendsToAnswer(t *testing.T) {
	f := newPracticeFixture(t)
	f.loadQuestion(t)

	f.m, _ = f.m.Update(tui.TranscriptMsg{Result: speech.Result{Transcript: "first part"}})
	f.m, _ = f.m.Update(tui.TranscriptMsg{Result: speech.Result{Transcript: " second part "}})

	if got := f.m.answer.Value(); got != "first part second part" {
		t.Errorf("answer = %q", got)
	}
	if got := f.ctrl.Snapshot().Answer; got != "first part second part" {
		t.Errorf("controller answer = %q", got)
	}
}

func TestInterviewViewTranscriptErrorKeepsAnswer(t *testing.T) {
	f := newPracticeFixture(t)
	f.loadQuestion(t)

	f.m, _ = f.m.Update(tui.TranscriptMsg{Result: speech.Result{Transcript: "kept"}})
	f.m, _ = f.m.Update(tui.TranscriptMsg{Result: speech.Result{Err: speech.ErrNoSpeech}})

	if f.m.answer.Value() != "kept" {
		t.Errorf("answer = %q", f.m.answer.Value())
	}
	if f.m.err != "No speech detected. Try again." {
		t.Errorf("err = %q", f.m.err)
	}
}

func TestInterviewViewRetriesFailedQuestionFetch(t *testing.T) {
	f := newPracticeFixture(t)
	f.fake.FailNext("/get_question/", 500)

	msgs := f.startPractice(t)
	errMsg, ok := findMsg[tui.InterviewErrorMsg](msgs)
	if !ok || errMsg.Op != commands.OpNext {
		t.Fatalf("expected a next-question error, got %#v", msgs)
	}

	var cmd tea.Cmd
	f.m, cmd = f.m.Update(errMsg)
	if f.ctrl.Snapshot().State != interview.AwaitingQuestion {
		t.Fatalf("expected AwaitingQuestion, got %s", f.ctrl.Snapshot().State)
	}
	a, ok := findMsg[tui.AlertMsg](collect(cmd))
	if !ok || !a.Error || !strings.Contains(a.Text, "Could not load the next question") {
		t.Errorf("expected an error alert, got %#v", a)
	}
	if strings.Count(a.Text, "get question") != 1 {
		t.Errorf("error prefix repeated: %q", a.Text)
	}
	if !strings.Contains(f.m.View(), "No question loaded.") {
		t.Errorf("view should say no question is loaded: %s", f.m.View())
	}

	f.m, cmd = f.m.Update(keyType(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("Enter should retry the fetch")
	}
	loaded, ok := findMsg[tui.QuestionLoadedMsg](collect(cmd))
	if !ok {
		t.Fatal("expected QuestionLoadedMsg after retry")
	}
	f.m, _ = f.m.Update(loaded)
	if f.ctrl.Snapshot().State != interview.QuestionDisplayed {
		t.Errorf("expected QuestionDisplayed, got %s", f.ctrl.Snapshot().State)
	}
	if f.m.err != "" {
		t.Errorf("retry hint not cleared: %q", f.m.err)
	}
}

func TestInterviewViewEndsWithoutAnswers(t *testing.T) {
	f := newPracticeFixture(t)
	f.fake.FailNext("/get_question/", 500)

	errMsg, _ := findMsg[tui.InterviewErrorMsg](f.startPractice(t))
	f.m, _ = f.m.Update(errMsg)

	var cmd tea.Cmd
	f.m, cmd = f.m.Update(keyType(tea.KeyCtrlE))
	if cmd == nil {
		t.Fatal("Ctrl+E should end the session")
	}
	saved, ok := findMsg[tui.SessionSavedMsg](collect(cmd))
	if !ok {
		t.Fatal("expected SessionSavedMsg")
	}
	if saved.Session.QuestionsAnswered != 0 || saved.Session.AverageScore != 0 {
		t.Errorf("unexpected summary: %+v", saved.Session)
	}
	if len(f.recorder.rows) != 1 {
		t.Fatalf("expected one recorded row, got %d", len(f.recorder.rows))
	}
}

func TestInterviewViewDoubleEscAbandonsPendingSession(t *testing.T) {
	f := newPracticeFixture(t)
	f.fake.FailNext("/get_question/", 500)

	errMsg, _ := findMsg[tui.InterviewErrorMsg](f.startPractice(t))
	f.m, _ = f.m.Update(errMsg)

	f.m, _ = f.m.Update(keyType(tea.KeyEsc))
	if !f.m.escPending {
		t.Fatal("first Esc should arm the confirmation")
	}
	if f.ctrl.Snapshot().State != interview.AwaitingQuestion {
		t.Fatalf("first Esc should not reset, got %s", f.ctrl.Snapshot().State)
	}

	f.m, _ = f.m.Update(keyType(tea.KeyEsc))
	if f.ctrl.Snapshot().State != interview.NoSession {
		t.Errorf("expected NoSession, got %s", f.ctrl.Snapshot().State)
	}
	if len(f.recorder.rows) != 0 {
		t.Errorf("abandon should not record, got %d rows", len(f.recorder.rows))
	}
	if f.m.step != stepDomain {
		t.Errorf("expected the domain picker, got step %d", f.m.step)
	}
}
