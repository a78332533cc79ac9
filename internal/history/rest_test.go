package history

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/intervue-dev/intervue/internal/auth"
	"github.com/intervue-dev/intervue/internal/config"
	"github.com/intervue-dev/intervue/internal/testutil"
)

type restFixture struct {
	fake  *testutil.FakeSupabase
	state *auth.State
	repo  *RESTRepository
	user  string
}

func newRESTFixture(t *testing.T) *restFixture {
	t.Helper()
	fake := testutil.NewFakeSupabase(t)
	uid := fake.AddUser("ada@example.com", "secret123", "Ada")

	state := auth.NewState()
	state.Set(&auth.User{ID: uid, Email: "ada@example.com"}, fake.IssueToken(uid))

	cfg := config.DefaultConfig()
	identity := config.IdentityConfig{URL: fake.URL(), AnonKey: fake.AnonKey}
	return &restFixture{
		fake:  fake,
		state: state,
		repo:  NewRESTRepository(identity, cfg.Database, state),
		user:  uid,
	}
}

func TestRESTListNewestFirst(t *testing.T) {
	f := newRESTFixture(t)
	f.fake.SeedRow("interview_sessions", testutil.SessionRow(f.user, "2026-01-01T10:00:00Z", 6))
	f.fake.SeedRow("interview_sessions", testutil.SessionRow(f.user, "2026-03-01T10:00:00Z", 9,
		testutil.QuestionRecord("Explain Big-O of binary search", "O(log n)", 9, "Correct.")))
	f.fake.SeedRow("interview_sessions", testutil.SessionRow(uuid.NewString(), "2026-04-01T10:00:00Z", 3))

	sessions, err := f.repo.List(context.Background(), f.user)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("List: got %d sessions, want 2 (other user's row hidden)", len(sessions))
	}
	if sessions[0].AverageScore != 9 || sessions[1].AverageScore != 6 {
		t.Errorf("order: got averages %v, %v; want 9, 6", sessions[0].AverageScore, sessions[1].AverageScore)
	}
	if got := sessions[0].Questions; len(got) != 1 || got[0].Answer != "O(log n)" {
		t.Errorf("questions: got %+v", got)
	}
}

func TestRESTListSignedOut(t *testing.T) {
	f := newRESTFixture(t)
	f.state.Clear()

	if _, err := f.repo.List(context.Background(), f.user); !errors.Is(err, auth.ErrNotSignedIn) {
		t.Errorf("List: got %v, want ErrNotSignedIn", err)
	}
	if n := len(f.fake.Calls()); n != 0 {
		t.Errorf("network calls: got %d, want 0", n)
	}
}

func TestRESTInsertAndGet(t *testing.T) {
	f := newRESTFixture(t)
	ctx := context.Background()

	created, err := f.repo.Insert(ctx, NewSession{
		UserID:            f.user,
		Duration:          "15 min",
		QuestionsAnswered: 1,
		AverageScore:      8,
		Status:            StatusCompleted,
		Questions:         []QA{{Question: "Explain Big-O of binary search", Answer: "O(log n)", Score: 8, Feedback: "Correct, concise."}},
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("Insert: got empty id")
	}

	got, err := f.repo.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.AverageScore != 8 || got.QuestionsAnswered != 1 || got.Duration != "15 min" {
		t.Errorf("Get: got %+v", got)
	}
	if len(got.Questions) != 1 || got.Questions[0].Feedback != "Correct, concise." {
		t.Errorf("questions: got %+v", got.Questions)
	}
}

func TestRESTGetErrors(t *testing.T) {
	f := newRESTFixture(t)
	ctx := context.Background()
	other := f.fake.SeedRow("interview_sessions", testutil.SessionRow(uuid.NewString(), "2026-01-01T10:00:00Z", 5))

	if _, err := f.repo.Get(ctx, "not-a-uuid"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Get(bad id): got %v, want ErrInvalidID", err)
	}
	if _, err := f.repo.Get(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing): got %v, want ErrNotFound", err)
	}
	if _, err := f.repo.Get(ctx, other); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(other user's row): got %v, want ErrNotFound", err)
	}

	f.state.Clear()
	if _, err := f.repo.Get(ctx, other); !errors.Is(err, auth.ErrNotSignedIn) {
		t.Errorf("Get(signed out): got %v, want ErrNotSignedIn", err)
	}
}

func TestRESTExpiredTokenIsNotSignedIn(t *testing.T) {
	f := newRESTFixture(t)
	f.fake.ExpireTokens()

	if _, err := f.repo.List(context.Background(), f.user); !errors.Is(err, auth.ErrNotSignedIn) {
		t.Errorf("List: got %v, want ErrNotSignedIn", err)
	}
}

func TestRESTDelete(t *testing.T) {
	f := newRESTFixture(t)
	ctx := context.Background()
	id := f.fake.SeedRow("interview_sessions", testutil.SessionRow(f.user, "2026-01-01T10:00:00Z", 5))

	if err := f.repo.Delete(ctx, id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n := len(f.fake.Rows("interview_sessions")); n != 0 {
		t.Errorf("rows after delete: got %d, want 0", n)
	}
	if err := f.repo.Delete(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete: got %v, want ErrNotFound", err)
	}
}

func TestRESTServerError(t *testing.T) {
	f := newRESTFixture(t)
	f.fake.FailNext("GET", "/rest/v1/interview_sessions", 500)

	_, err := f.repo.List(context.Background(), f.user)
	var re *RESTError
	if !errors.As(err, &re) || re.Status != 500 {
		t.Errorf("List: got %v, want RESTError 500", err)
	}
}

func TestRESTListTeam(t *testing.T) {
	f := newRESTFixture(t)
	f.fake.SeedRow("team_members", testutil.TeamRow("Grace", "Backend", 2))
	f.fake.SeedRow("team_members", testutil.TeamRow("Ada", "Lead", 1))
	f.fake.SeedRow("team_members", testutil.TeamRow("Linus", "Infra", 3))
	f.state.Clear()

	members, err := f.repo.ListTeam(context.Background())
	if err != nil {
		t.Fatalf("ListTeam failed: %v", err)
	}
	var names []string
	for _, m := range members {
		names = append(names, m.Name)
	}
	want := []string{"Ada", "Grace", "Linus"}
	if len(names) != len(want) {
		t.Fatalf("ListTeam: got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("ListTeam[%d]: got %q, want %q", i, names[i], want[i])
		}
	}
}

func TestOpenRequiresIdentity(t *testing.T) {
	cfg := config.DefaultConfig()
	if _, err := Open(cfg, auth.NewState(), zerolog.Nop()); !errors.Is(err, config.ErrIdentityNotConfigured) {
		t.Errorf("Open: got %v, want ErrIdentityNotConfigured", err)
	}

	cfg.Database.Backend = "mongo"
	if _, err := Open(cfg, auth.NewState(), zerolog.Nop()); err == nil {
		t.Error("Open with unknown backend: got nil error")
	}
}
