package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/rs/zerolog"

	"github.com/intervue-dev/intervue/internal/api"
	"github.com/intervue-dev/intervue/internal/auth"
	"github.com/intervue-dev/intervue/internal/config"
	"github.com/intervue-dev/intervue/internal/history"
	"github.com/intervue-dev/intervue/internal/interview"
	"github.com/intervue-dev/intervue/internal/session"
	"github.com/intervue-dev/intervue/internal/speech"
)

// ViewState represents the current state of the TUI.
type ViewState int

const (
	StateRestoring ViewState = iota // Checking the stored credential
	StateSignIn
	StateSignUp
	StateInterview
	StateSessions
	StateDetail
	StateResume
	StateTeam
	StateSignInRequired
)

// Protected reports whether the view needs a signed-in user.
func (s ViewState) Protected() bool {
	switch s {
	case StateSessions, StateDetail, StateResume:
		return true
	}
	return false
}

// Tab represents the active tab in the TUI.
type Tab int

const (
	TabPractice Tab = iota
	TabHistory
	TabResume
	TabTeam
)

// Tabs lists the tabs in display order.
var Tabs = []Tab{TabPractice, TabHistory, TabResume, TabTeam}

func (t Tab) String() string {
	switch t {
	case TabPractice:
		return "Practice"
	case TabHistory:
		return "History"
	case TabResume:
		return "Resume"
	case TabTeam:
		return "Team"
	}
	return ""
}

// State returns the view shown for the tab.
func (t Tab) State() ViewState {
	switch t {
	case TabHistory:
		return StateSessions
	case TabResume:
		return StateResume
	case TabTeam:
		return StateTeam
	}
	return StateInterview
}

// TabFor returns the tab a view belongs to.
func TabFor(s ViewState) Tab {
	switch s {
	case StateSessions, StateDetail:
		return TabHistory
	case StateResume:
		return TabResume
	case StateTeam:
		return TabTeam
	}
	return TabPractice
}

// Services are the long-lived collaborators created by the CLI. History,
// Lister, Practices, Player and Capture may be nil when not configured.
type Services struct {
	Cfg       *config.Config
	Auth      *auth.Client
	API       *api.Client
	History   history.Store
	Lister    *history.Lister
	Practices *session.Store
	Interview *interview.Controller
	Player    *speech.Player
	Capture   *speech.Capture
	Personas  []speech.Persona
	Logger    zerolog.Logger
}

// Model is the main TUI model that holds all application state.
type Model struct {
	Services

	// State management
	State     ViewState
	ActiveTab Tab
	Err       error

	Spinner spinner.Model

	// Transient notice
	Alert    *AlertMsg
	AlertSeq int

	// Terminal dimensions
	Width  int
	Height int

	// Ctrl+C confirmation state
	CtrlCPending bool // True when waiting for second Ctrl+C press
}

// NewModel creates a new Model with the given services.
func NewModel(s Services) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SelectedStyle

	return &Model{
		Services:  s,
		State:     StateRestoring,
		ActiveTab: TabPractice,
		Spinner:   sp,

		// Default dimensions (will be updated on WindowSizeMsg)
		Width:  80,
		Height: 24,
	}
}

// User returns the signed-in user, or nil.
func (m *Model) User() *auth.User {
	if m.Auth == nil {
		return nil
	}
	return m.Auth.Current()
}
