package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/intervue-dev/intervue/internal/api"
	"github.com/intervue-dev/intervue/internal/session"
	"github.com/intervue-dev/intervue/internal/tui"
	"github.com/intervue-dev/intervue/internal/tui/commands"
)

// ResumeModel lists the sessions the interview API still holds so the user
// can pick one up where they left off. The newest session still marked
// active on this machine is offered first.
type ResumeModel struct {
	client *api.Client
	userID string
	latest *session.Practice

	sessions []api.RemoteSession
	selected int
	loading  bool
	err      string
	width    int
	height   int
}

// NewResumeModel creates the resume view. practices may be nil.
func NewResumeModel(client *api.Client, practices *session.Store, userID string, width, height int) ResumeModel {
	m := ResumeModel{client: client, userID: userID, loading: true, width: width, height: height}
	if practices != nil {
		if p, err := practices.LatestActive(userID); err == nil {
			m.latest = p
		}
	}
	return m
}

// Init loads the remote session list.
func (m ResumeModel) Init() tea.Cmd {
	return commands.LoadRemoteSessionsCmd(m.client, m.userID)
}

// Update handles messages for the resume view.
func (m ResumeModel) Update(msg tea.Msg) (ResumeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tui.RemoteSessionsMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = "Could not reach the interview service: " + msg.Err.Error()
			return m, nil
		}
		m.err = ""
		m.sessions = msg.Sessions
		if m.selected >= len(m.sessions) {
			m.selected = 0
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if sel, ok := moveSelection(msg, m.selected, len(m.sessions)); ok {
			m.selected = sel
			return m, nil
		}
		switch msg.String() {
		case tui.KeyEnter:
			if len(m.sessions) == 0 {
				return m, nil
			}
			return m, resume(m.sessions[m.selected].SessionID)
		case "r", "R":
			if m.latest != nil {
				return m, resume(m.latest.ID)
			}
		case "ctrl+l":
			m.loading = true
			return m, commands.LoadRemoteSessionsCmd(m.client, m.userID)
		case tui.KeyEsc:
			return m, navigate(tui.StateInterview)
		}
	}
	return m, nil
}

func resume(id string) tea.Cmd {
	return func() tea.Msg {
		return tui.ResumeMsg{SessionID: id}
	}
}

// View renders the resume view.
func (m ResumeModel) View() string {
	var b strings.Builder

	b.WriteString(tui.TitleStyle.Render("Resume a session"))
	b.WriteString("\n\n")

	if m.latest != nil {
		resumeStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))
		b.WriteString(resumeStyle.Render(fmt.Sprintf("Continue: %s (%s, %d answered)",
			m.latest.Topic, m.latest.Level, m.latest.Answered)))
		b.WriteString(tui.DimStyle.Render(" (press 'r' to resume)"))
		b.WriteString("\n\n")
	}

	switch {
	case m.loading:
		b.WriteString(tui.DimStyle.Render("Loading sessions..."))
		b.WriteString("\n")
	case m.err != "":
		b.WriteString(tui.ErrorStyle.Render(m.err))
		b.WriteString("\n")
	case len(m.sessions) == 0:
		b.WriteString(tui.DimStyle.Render("The interview service holds no sessions for you."))
		b.WriteString("\n")
	default:
		labels := make([]string, len(m.sessions))
		for i, s := range m.sessions {
			label := fmt.Sprintf("%s · %d questions", truncate(s.Topic, 32), s.QuestionsCount)
			if s.Difficulty != "" {
				label += " · " + s.Difficulty
			}
			if s.CreatedAt != "" {
				label += " · " + s.CreatedAt
			}
			labels[i] = label
		}
		renderOptions(&b, labels, m.selected)
	}

	b.WriteString("\n")
	b.WriteString(tui.DimStyle.Render("Enter: resume · Ctrl+L: refresh · Tab: switch tabs"))
	return box(m.width, b.String())
}
