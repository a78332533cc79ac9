package app

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/intervue-dev/intervue/internal/auth"
	"github.com/intervue-dev/intervue/internal/config"
	"github.com/intervue-dev/intervue/internal/history"
	"github.com/intervue-dev/intervue/internal/interview"
	"github.com/intervue-dev/intervue/internal/tui"
)

type emptyRepo struct{}

func (emptyRepo) List(context.Context, string) ([]history.Session, error) { return nil, nil }
func (emptyRepo) Get(context.Context, string) (*history.Session, error) {
	return nil, history.ErrNotFound
}
func (emptyRepo) Insert(context.Context, history.NewSession) (*history.Session, error) {
	return nil, history.ErrNotFound
}
func (emptyRepo) Delete(context.Context, string) error { return history.ErrNotFound }

func newTestApp(t *testing.T) (*App, *auth.State) {
	t.Helper()
	cfg := config.DefaultConfig()
	client := auth.NewClient(cfg.Identity, nil)
	users := client.State()

	a := New(tui.Services{
		Cfg:       cfg,
		Auth:      client,
		Lister:    history.NewLister(emptyRepo{}, users, nil),
		Interview: interview.New(interview.Deps{Users: users, Catalog: cfg.Interview}),
		Logger:    zerolog.Nop(),
	})
	return a, users
}

func TestRestoreWithoutUserShowsSignIn(t *testing.T) {
	a, _ := newTestApp(t)
	if a.Model().State != tui.StateRestoring {
		t.Fatalf("initial state: got %v", a.Model().State)
	}
	a.Update(tui.RestoredMsg{})
	if a.Model().State != tui.StateSignIn {
		t.Errorf("state: got %v, want StateSignIn", a.Model().State)
	}
}

func TestRestoreWithUserShowsPractice(t *testing.T) {
	a, users := newTestApp(t)
	u := &auth.User{ID: "u1", Email: "ada@example.com"}
	users.Set(u, "token")

	a.Update(tui.RestoredMsg{User: u})
	if a.Model().State != tui.StateInterview {
		t.Errorf("state: got %v, want StateInterview", a.Model().State)
	}
}

func TestProtectedViewNeedsSignIn(t *testing.T) {
	a, _ := newTestApp(t)
	a.Update(tui.RestoredMsg{})

	a.Update(tui.NavigateMsg{To: tui.StateSessions})
	if a.Model().State != tui.StateSignInRequired {
		t.Errorf("state: got %v, want StateSignInRequired", a.Model().State)
	}
	if a.Model().ActiveTab != tui.TabHistory {
		t.Errorf("tab: got %v, want History", a.Model().ActiveTab)
	}
}

func TestSignedInHistoryLoads(t *testing.T) {
	a, users := newTestApp(t)
	users.Set(&auth.User{ID: "u1", Email: "ada@example.com"}, "token")

	_, cmd := a.Update(tui.NavigateMsg{To: tui.StateSessions})
	if a.Model().State != tui.StateSessions {
		t.Fatalf("state: got %v, want StateSessions", a.Model().State)
	}
	if cmd == nil {
		t.Fatal("navigate: got nil cmd")
	}
	if _, ok := cmd().(tui.SessionsLoadedMsg); !ok {
		t.Error("navigate: cmd did not load sessions")
	}
}

func TestTabCyclesAfterSignIn(t *testing.T) {
	a, users := newTestApp(t)
	a.Update(tui.RestoredMsg{})

	// Tab moves between sign-in fields, not tabs.
	a.Update(tea.KeyMsg{Type: tea.KeyTab})
	if a.Model().State != tui.StateSignIn {
		t.Fatalf("tab on sign-in: state %v", a.Model().State)
	}

	users.Set(&auth.User{ID: "u1", Email: "ada@example.com"}, "token")
	a.Update(tui.NavigateMsg{To: tui.StateInterview})
	a.Update(tea.KeyMsg{Type: tea.KeyTab})
	if a.Model().ActiveTab != tui.TabHistory {
		t.Errorf("tab: got %v, want History", a.Model().ActiveTab)
	}
}

func TestDoubleCtrlCQuits(t *testing.T) {
	a, _ := newTestApp(t)
	a.Update(tui.RestoredMsg{})

	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !a.Model().CtrlCPending {
		t.Fatal("first ctrl+c: not pending")
	}
	if cmd == nil {
		t.Fatal("first ctrl+c: want reset tick")
	}

	_, cmd = a.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("second ctrl+c: got nil cmd")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("second ctrl+c: want tea.QuitMsg")
	}
}

func TestAlertDismissesBySequence(t *testing.T) {
	a, _ := newTestApp(t)
	a.Update(tui.AlertMsg{Text: "first"})
	a.Update(tui.AlertMsg{Text: "second"})

	a.Update(tui.AlertDismissMsg{Seq: 1})
	if a.Model().Alert == nil || a.Model().Alert.Text != "second" {
		t.Fatalf("stale dismiss removed the alert: %+v", a.Model().Alert)
	}
	a.Update(tui.AlertDismissMsg{Seq: 2})
	if a.Model().Alert != nil {
		t.Error("alert not dismissed")
	}
}

func TestErrorAlertBlocksUntilKey(t *testing.T) {
	a, _ := newTestApp(t)
	a.Update(tui.RestoredMsg{})

	_, cmd := a.Update(tui.AlertMsg{Text: "Could not load the next question", Error: true})
	if cmd != nil {
		t.Error("error alert should not time out")
	}

	// The dismissing key must not reach the sign-in view.
	_, cmd = a.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	if cmd != nil {
		t.Error("dismissing key was passed to the view")
	}
	if a.Model().Alert != nil {
		t.Error("alert not dismissed by key")
	}
	if a.Model().State != tui.StateSignIn {
		t.Errorf("state changed to %v", a.Model().State)
	}
}
