package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/intervue-dev/intervue/internal/testutil"
)

// resetFlags clears package-level flag values left over from an earlier
// Execute; cobra only assigns the flags present in the new args.
func resetFlags() {
	debug, homeDir = false, ""
	signinEmail, signupEmail, signupName = "", "", ""
	practiceDomain, practiceTopic, practiceLevel = "", "", ""
	practiceSession, practicePersona, practiceMute = "", "", false
	deleteYes, configForce, listVoices = false, false, false
	migrateURL = ""
}

func execute(t *testing.T, home, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	var out bytes.Buffer
	rootCmd.SetArgs(append([]string{"--home", home}, args...))
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	err := rootCmd.Execute()
	return out.String(), err
}

type cliFixture struct {
	home     string
	identity *testutil.FakeSupabase
	api      *testutil.FakeInterviewAPI
	userID   string
}

func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()
	identity := testutil.NewFakeSupabase(t)
	uid := identity.AddUser("ada@example.com", "secret123", "Ada Lovelace")
	fakeAPI := testutil.NewFakeInterviewAPI(t)

	home := testutil.TempHome(t, map[string]string{
		"config.yaml": testutil.ConfigYAML(fakeAPI.URL(), identity.URL(), identity.AnonKey),
	})
	return &cliFixture{home: home, identity: identity, api: fakeAPI, userID: uid}
}

func (f *cliFixture) signIn(t *testing.T) {
	t.Helper()
	out, err := execute(t, f.home, "ada@example.com\nsecret123\n", "signin")
	if err != nil {
		t.Fatalf("signin failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Signed in as Ada Lovelace") {
		t.Fatalf("signin output: got %q", out)
	}
}

func TestRootWithoutTTYShowsHelp(t *testing.T) {
	orig := isTerminal
	isTerminal = func() bool { return false }
	t.Cleanup(func() { isTerminal = orig })

	f := newCLIFixture(t)
	out, err := execute(t, f.home, "")
	if err != nil {
		t.Fatalf("root failed: %v", err)
	}
	if !strings.Contains(out, "practice") || !strings.Contains(out, "sessions") {
		t.Errorf("help output missing commands: %q", out)
	}
}

func TestSignInAndWhoami(t *testing.T) {
	f := newCLIFixture(t)

	out, err := execute(t, f.home, "", "whoami")
	if err != nil {
		t.Fatalf("whoami failed: %v", err)
	}
	if !strings.Contains(out, "Not signed in.") {
		t.Errorf("whoami before signin: got %q", out)
	}

	f.signIn(t)

	out, err = execute(t, f.home, "", "whoami")
	if err != nil {
		t.Fatalf("whoami failed: %v", err)
	}
	if !strings.Contains(out, "Ada Lovelace <ada@example.com>") || !strings.Contains(out, f.userID) {
		t.Errorf("whoami: got %q", out)
	}
	if !strings.Contains(out, "Last activity: signed in at ") {
		t.Errorf("whoami missing last activity: got %q", out)
	}

	if _, err := os.Stat(filepath.Join(f.home, stateFile)); err != nil {
		t.Errorf("state db not created: %v", err)
	}
}

func TestSignInWrongPassword(t *testing.T) {
	f := newCLIFixture(t)
	if _, err := execute(t, f.home, "ada@example.com\nnope\n", "signin"); err == nil {
		t.Error("signin with wrong password: got nil error")
	}
}

func TestCommandsRequireSignIn(t *testing.T) {
	f := newCLIFixture(t)
	for _, args := range [][]string{
		{"sessions"},
		{"resume"},
		{"practice", "--topic", "DBMS"},
	} {
		_, err := execute(t, f.home, "", args...)
		if err == nil || !strings.Contains(err.Error(), "intervue signin") {
			t.Errorf("%v: got %v, want sign-in hint", args, err)
		}
	}
}

func TestPracticeSavesSession(t *testing.T) {
	f := newCLIFixture(t)
	f.signIn(t)

	out, err := execute(t, f.home, "O(log n), halving the range each step\n/end\n",
		"practice", "--topic", "DBMS", "--level", "Fresher")
	if err != nil {
		t.Fatalf("practice failed: %v\n%s", err, out)
	}
	for _, want := range []string{"Explain Big-O of binary search", "Score: 8/10", "Saved session"} {
		if !strings.Contains(out, want) {
			t.Errorf("practice output missing %q:\n%s", want, out)
		}
	}

	rows := f.identity.Rows("interview_sessions")
	if len(rows) != 1 {
		t.Fatalf("saved rows: got %d, want 1", len(rows))
	}
	if rows[0]["user_id"] != f.userID {
		t.Errorf("saved row owner: got %v, want %s", rows[0]["user_id"], f.userID)
	}
}

func TestPracticeUnknownTopic(t *testing.T) {
	f := newCLIFixture(t)
	f.signIn(t)

	_, err := execute(t, f.home, "", "practice", "--topic", "Astrology")
	if err == nil || !strings.Contains(err.Error(), "unknown topic") {
		t.Errorf("practice: got %v, want unknown topic error", err)
	}
	if n := f.api.CallCount("/start_interview"); n != 0 {
		t.Errorf("start calls: got %d, want 0", n)
	}
}

func TestSessionsListShowDelete(t *testing.T) {
	f := newCLIFixture(t)
	f.signIn(t)
	id := f.identity.SeedRow("interview_sessions", testutil.SessionRow(f.userID, "2026-03-01T10:00:00Z", 9,
		testutil.QuestionRecord("What is normalization?", "Removing redundancy", 9, "Clear.")))

	out, err := execute(t, f.home, "", "sessions")
	if err != nil {
		t.Fatalf("sessions failed: %v", err)
	}
	if !strings.Contains(out, "1 sessions · average 9/10") || !strings.Contains(out, id) {
		t.Errorf("sessions: got %q", out)
	}

	out, err = execute(t, f.home, "", "sessions", "show", id)
	if err != nil {
		t.Fatalf("sessions show failed: %v", err)
	}
	if !strings.Contains(out, "Q1 (9/10): What is normalization?") || !strings.Contains(out, "Feedback: Clear.") {
		t.Errorf("sessions show: got %q", out)
	}

	out, err = execute(t, f.home, "n\n", "sessions", "delete", id)
	if err != nil {
		t.Fatalf("sessions delete failed: %v", err)
	}
	if !strings.Contains(out, "Cancelled.") || len(f.identity.Rows("interview_sessions")) != 1 {
		t.Errorf("declined delete: output %q, rows %d", out, len(f.identity.Rows("interview_sessions")))
	}

	if _, err := execute(t, f.home, "", "sessions", "delete", "--yes", id); err != nil {
		t.Fatalf("sessions delete --yes failed: %v", err)
	}
	if n := len(f.identity.Rows("interview_sessions")); n != 0 {
		t.Errorf("rows after delete: got %d, want 0", n)
	}
}

func TestSessionsEmpty(t *testing.T) {
	f := newCLIFixture(t)
	f.signIn(t)

	out, err := execute(t, f.home, "", "sessions")
	if err != nil {
		t.Fatalf("sessions failed: %v", err)
	}
	if !strings.Contains(out, "No sessions yet.") {
		t.Errorf("sessions: got %q", out)
	}
}

func TestResumeListsRemoteSessions(t *testing.T) {
	f := newCLIFixture(t)
	f.signIn(t)
	id := f.api.SeedSession(f.userID, "Operating Systems", "Fresher")

	out, err := execute(t, f.home, "", "resume")
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if !strings.Contains(out, "Operating Systems") || !strings.Contains(out, id) {
		t.Errorf("resume: got %q", out)
	}
}

func TestTeamOrdered(t *testing.T) {
	f := newCLIFixture(t)
	f.identity.SeedRow("team_members", testutil.TeamRow("Grace", "Backend", 2))
	f.identity.SeedRow("team_members", testutil.TeamRow("Ada", "Lead", 1))

	out, err := execute(t, f.home, "", "team")
	if err != nil {
		t.Fatalf("team failed: %v", err)
	}
	ada, grace := strings.Index(out, "Ada · Lead"), strings.Index(out, "Grace · Backend")
	if ada < 0 || grace < 0 || ada > grace {
		t.Errorf("team order: got %q", out)
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	home := t.TempDir()

	out, err := execute(t, home, "", "config", "init")
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, "config.yaml") {
		t.Errorf("config init: got %q", out)
	}

	if _, err := execute(t, home, "", "config", "init"); err == nil {
		t.Error("second config init: got nil error")
	}
	if _, err := execute(t, home, "", "config", "init", "--force"); err != nil {
		t.Errorf("config init --force: %v", err)
	}
}

func TestConfigShowMasksSecrets(t *testing.T) {
	f := newCLIFixture(t)
	out, err := execute(t, f.home, "", "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if strings.Contains(out, f.identity.AnonKey) {
		t.Errorf("config show leaked anon key: %q", out)
	}
	if !strings.Contains(out, f.api.URL()) {
		t.Errorf("config show missing api url: %q", out)
	}
}

func TestMask(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"abc", "****"},
		{"anon-key", "anon****"},
	}
	for _, tt := range tests {
		if got := mask(tt.in); got != tt.want {
			t.Errorf("mask(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDBMigrateRequiresURL(t *testing.T) {
	f := newCLIFixture(t)
	if _, err := execute(t, f.home, "", "db", "migrate"); err == nil {
		t.Error("db migrate without url: got nil error")
	}
}
