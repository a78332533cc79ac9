// Package app provides the main TUI application that wires all views together.
package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/intervue-dev/intervue/internal/tui"
	"github.com/intervue-dev/intervue/internal/tui/commands"
	"github.com/intervue-dev/intervue/internal/tui/views"
)

// alertTimeout is how long a notice stays on screen.
const alertTimeout = 4 * time.Second

// App is the main TUI application that wires all views together.
type App struct {
	model *tui.Model

	// View models
	signInView    views.SignInModel
	signUpView    views.SignUpModel
	interviewView views.InterviewModel
	sessionsView  views.SessionsModel
	detailView    views.DetailModel
	resumeView    views.ResumeModel
	teamView      views.TeamModel
	gateView      views.GateModel
}

// New creates a new App with the given services.
func New(s tui.Services) *App {
	return &App{model: tui.NewModel(s)}
}

// Model exposes the shared state, mainly for tests.
func (a *App) Model() *tui.Model {
	return a.model
}

// Init restores the stored credential before showing any view.
func (a *App) Init() tea.Cmd {
	return tea.Batch(commands.RestoreCmd(a.model.Auth), a.model.Spinner.Tick)
}

// Update handles messages and updates the application state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.model.Width = msg.Width
		a.model.Height = msg.Height
		return a, a.updateView(msg)

	case tea.KeyMsg:
		switch msg.String() {
		case tui.KeyCtrlC:
			if a.model.CtrlCPending {
				// Second press within timeout - exit
				a.shutdown()
				return a, tea.Quit
			}
			// First press - set pending and start timeout
			a.model.CtrlCPending = true
			return a, tea.Tick(time.Second, func(t time.Time) tea.Msg {
				return tui.CtrlCResetMsg{}
			})

		case tui.KeyTab:
			// Sign-in forms use Tab to move between fields.
			if a.tabsEnabled() {
				return a, a.cycleTab()
			}
		}
		if key.Matches(msg, tui.DefaultKeyMap.SignOut) && a.model.User() != nil && a.tabsEnabled() {
			return a, commands.SignOutCmd(a.model.Auth)
		}
		if a.model.Alert != nil {
			blocking := a.model.Alert.Error
			a.model.Alert = nil
			// An error alert holds the screen until a key dismisses it.
			if blocking {
				return a, nil
			}
		}

	case tui.CtrlCResetMsg:
		// Reset Ctrl+C confirmation state after timeout
		a.model.CtrlCPending = false
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		if a.model.State == tui.StateRestoring {
			a.model.Spinner, cmd = a.model.Spinner.Update(msg)
			return a, cmd
		}
		return a, a.updateView(msg)

	case tui.AlertMsg:
		a.model.AlertSeq++
		seq := a.model.AlertSeq
		a.model.Alert = &msg
		if msg.Error {
			return a, nil
		}
		return a, tea.Tick(alertTimeout, func(time.Time) tea.Msg {
			return tui.AlertDismissMsg{Seq: seq}
		})

	case tui.AlertDismissMsg:
		if msg.Seq == a.model.AlertSeq {
			a.model.Alert = nil
		}
		return a, nil

	case tui.NavigateMsg:
		return a, a.navigate(msg.To, msg.SessionID)

	case tui.RestoredMsg:
		if msg.Err != nil {
			a.model.Logger.Warn().Err(msg.Err).Msg("restoring credential failed")
		}
		if msg.User != nil {
			return a, a.navigate(tui.StateInterview, "")
		}
		return a, a.navigate(tui.StateSignIn, "")

	case tui.SignInSubmitMsg:
		return a, commands.SignInCmd(a.model.Auth, msg.Email, msg.Password)

	case tui.SignUpSubmitMsg:
		return a, commands.SignUpCmd(a.model.Auth, msg.Name, msg.Email, msg.Password)

	case tui.SignedInMsg:
		if msg.Err != nil {
			return a, a.updateView(msg)
		}
		return a, tea.Batch(
			a.navigate(tui.StateInterview, ""),
			a.alert("Welcome, "+msg.User.Name()+"!", false),
		)

	case tui.SignedUpMsg:
		switch {
		case msg.Err != nil:
			return a, a.updateView(msg)
		case msg.Result.NeedsConfirmation:
			cmd := a.navigate(tui.StateSignIn, "")
			a.signInView = a.signInView.WithNotice("Account created. Check your email to confirm it, then sign in.")
			return a, cmd
		}
		return a, tea.Batch(
			a.navigate(tui.StateInterview, ""),
			a.alert("Account created. Welcome!", false),
		)

	case tui.SignedOutMsg:
		if msg.Err != nil {
			return a, a.alert("Sign out failed: "+msg.Err.Error(), true)
		}
		a.shutdown()
		_ = a.model.Interview.Reset()
		return a, tea.Batch(a.navigate(tui.StateSignIn, ""), a.alert("Signed out.", false))

	case tui.ResumeMsg:
		cmd := a.navigate(tui.StateInterview, "")
		return a, tea.Batch(cmd, a.interviewView.Resume(msg.SessionID))

	case tui.ErrorMsg:
		a.model.Err = msg.Err
		return a, nil
	}

	return a, a.updateView(msg)
}

// updateView routes a message to the active view.
func (a *App) updateView(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.model.State {
	case tui.StateSignIn:
		a.signInView, cmd = a.signInView.Update(msg)
	case tui.StateSignUp:
		a.signUpView, cmd = a.signUpView.Update(msg)
	case tui.StateInterview:
		a.interviewView, cmd = a.interviewView.Update(msg)
	case tui.StateSessions:
		a.sessionsView, cmd = a.sessionsView.Update(msg)
	case tui.StateDetail:
		a.detailView, cmd = a.detailView.Update(msg)
	case tui.StateResume:
		a.resumeView, cmd = a.resumeView.Update(msg)
	case tui.StateTeam:
		a.teamView, cmd = a.teamView.Update(msg)
	case tui.StateSignInRequired:
		a.gateView, cmd = a.gateView.Update(msg)
	}
	return cmd
}

// navigate switches to the target view, building it fresh. Views that need a
// user show the sign-in-required screen instead.
func (a *App) navigate(to tui.ViewState, sessionID string) tea.Cmd {
	w, h := a.model.Width, a.model.Height

	if a.model.State == tui.StateInterview && to != tui.StateInterview {
		// Leaving the practice view ends voice capture and playback.
		a.shutdown()
	}

	if to.Protected() && (a.model.User() == nil || a.model.Lister == nil && to != tui.StateResume) {
		a.model.ActiveTab = tui.TabFor(to)
		a.model.State = tui.StateSignInRequired
		a.gateView = views.NewGateModel(gateTarget(to), w, h)
		return nil
	}

	a.model.State = to
	a.model.ActiveTab = tui.TabFor(to)

	switch to {
	case tui.StateSignIn:
		a.signInView = views.NewSignInModel(w, h)
		return a.signInView.Init()
	case tui.StateSignUp:
		a.signUpView = views.NewSignUpModel(w, h)
		return a.signUpView.Init()
	case tui.StateInterview:
		a.interviewView = views.NewInterviewModel(a.model.Interview, a.model.Cfg.Interview,
			a.model.Player, a.model.Capture, a.model.Personas, w, h)
		return a.interviewView.Init()
	case tui.StateSessions:
		a.sessionsView = views.NewSessionsModel(a.model.Lister, w, h)
		return a.sessionsView.Init()
	case tui.StateDetail:
		a.detailView = views.NewDetailModel(a.model.History, sessionID, w, h)
		return a.detailView.Init()
	case tui.StateResume:
		a.resumeView = views.NewResumeModel(a.model.API, a.model.Practices, a.model.User().ID, w, h)
		return a.resumeView.Init()
	case tui.StateTeam:
		a.teamView = views.NewTeamModel(a.model.History, w, h)
		return a.teamView.Init()
	}
	return nil
}

func gateTarget(s tui.ViewState) string {
	switch s {
	case tui.StateResume:
		return "open sessions"
	default:
		return "interview history"
	}
}

func (a *App) alert(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return tui.AlertMsg{Text: text, Error: isErr}
	}
}

// shutdown silences speech and stops listening.
func (a *App) shutdown() {
	a.model.Capture.Stop()
	a.model.Player.Stop()
}

// tabsEnabled reports whether Tab switches tabs in the current state.
func (a *App) tabsEnabled() bool {
	switch a.model.State {
	case tui.StateRestoring, tui.StateSignIn, tui.StateSignUp:
		return false
	}
	return true
}

// cycleTab moves to the next tab and returns the new view's init command.
func (a *App) cycleTab() tea.Cmd {
	next := tui.Tabs[(int(a.model.ActiveTab)+1)%len(tui.Tabs)]
	return a.navigate(next.State(), "")
}

// View renders the current application state.
func (a *App) View() string {
	var content string

	switch a.model.State {
	case tui.StateRestoring:
		content = fmt.Sprintf("%s Restoring your session...", a.model.Spinner.View())
	case tui.StateSignIn:
		content = a.signInView.View()
	case tui.StateSignUp:
		content = a.signUpView.View()
	case tui.StateInterview:
		content = a.interviewView.View()
	case tui.StateSessions:
		content = a.sessionsView.View()
	case tui.StateDetail:
		content = a.detailView.View()
	case tui.StateResume:
		content = a.resumeView.View()
	case tui.StateTeam:
		content = a.teamView.View()
	case tui.StateSignInRequired:
		content = a.gateView.View()
	default:
		content = "Unknown state"
	}

	if a.model.Alert != nil {
		content = lipgloss.JoinVertical(lipgloss.Center, a.renderAlert(), "", content)
	}

	// Add tab bar at bottom for applicable states
	if a.tabsEnabled() {
		content = lipgloss.JoinVertical(lipgloss.Center, content, "", a.renderTabBar(), a.renderStatus())
	}

	if a.model.CtrlCPending {
		content = lipgloss.JoinVertical(lipgloss.Center, content, "",
			tui.WarningStyle.Render("Press Ctrl+C again to exit"))
	}

	return a.centerContent(content)
}

// centerContent centers the given content both horizontally and vertically.
func (a *App) centerContent(content string) string {
	return lipgloss.Place(
		a.model.Width,
		a.model.Height,
		lipgloss.Center,
		lipgloss.Center,
		content,
	)
}

func (a *App) renderAlert() string {
	style := tui.AlertStyle
	text := a.model.Alert.Text
	if a.model.Alert.Error {
		style = style.BorderForeground(lipgloss.Color("#EF4444"))
		text = tui.ErrorStyle.Render(text)
	}
	return style.Render(text)
}

// renderTabBar renders the tab bar with the active tab highlighted.
func (a *App) renderTabBar() string {
	var rendered []string
	for _, t := range tui.Tabs {
		if t == a.model.ActiveTab {
			rendered = append(rendered, tui.ActiveTabStyle.Render(t.String()))
		} else {
			rendered = append(rendered, tui.InactiveTabStyle.Render(t.String()))
		}
	}

	tabBar := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
	return lipgloss.NewStyle().
		Width(a.model.Width).
		Align(lipgloss.Center).
		Render(tabBar)
}

// renderStatus shows who is signed in.
func (a *App) renderStatus() string {
	var parts []string
	if u := a.model.User(); u != nil {
		parts = append(parts, "Signed in as "+u.Name(), tui.HelpLine(tui.DefaultKeyMap.SignOut))
	} else {
		parts = append(parts, "Not signed in")
	}
	parts = append(parts, "Ctrl+C: Exit")
	return tui.StatusBarStyle.Render(strings.Join(parts, " · "))
}
