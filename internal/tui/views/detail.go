package views

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/intervue-dev/intervue/internal/history"
	"github.com/intervue-dev/intervue/internal/interview"
	"github.com/intervue-dev/intervue/internal/tui"
	"github.com/intervue-dev/intervue/internal/tui/commands"
)

// DetailModel shows one recorded session question by question.
type DetailModel struct {
	repo     history.Repository
	id       string
	session  *history.Session
	loading  bool
	err      string
	viewport viewport.Model
	width    int
	height   int
}

// NewDetailModel creates the detail view for session id.
func NewDetailModel(repo history.Repository, id string, width, height int) DetailModel {
	vp := viewport.New(boxWidth(width)-6, detailHeight(height))
	return DetailModel{repo: repo, id: id, loading: true, viewport: vp, width: width, height: height}
}

func detailHeight(height int) int {
	h := height - 12
	if h < 5 {
		h = 5
	}
	return h
}

// Init fetches the session.
func (m DetailModel) Init() tea.Cmd {
	return commands.LoadSessionCmd(m.repo, m.id)
}

// Update handles messages for the detail view.
func (m DetailModel) Update(msg tea.Msg) (DetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tui.SessionDetailMsg:
		m.loading = false
		switch {
		case errors.Is(msg.Err, history.ErrNotFound), errors.Is(msg.Err, history.ErrInvalidID):
			m.err = "Session not found."
		case msg.Err != nil:
			m.err = "Could not load session: " + msg.Err.Error()
		default:
			m.session = msg.Session
			m.viewport.SetContent(m.renderQuestions())
		}
		return m, nil

	case tui.CopiedMsg:
		if msg.Err != nil {
			return m, alert("Copy failed: "+msg.Err.Error(), true)
		}
		return m, alert("Copied "+msg.Text, false)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = boxWidth(msg.Width) - 6
		m.viewport.Height = detailHeight(msg.Height)
		if m.session != nil {
			m.viewport.SetContent(m.renderQuestions())
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case tui.KeyEsc, "backspace":
			return m, navigate(tui.StateSessions)
		case "c":
			return m, commands.CopyCmd(m.id)
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m DetailModel) renderQuestions() string {
	width := m.viewport.Width
	text := lipgloss.NewStyle().Width(width)
	label := lipgloss.NewStyle().Bold(true)

	if len(m.session.Questions) == 0 {
		return tui.DimStyle.Render("No questions were recorded for this session.")
	}

	var b strings.Builder
	for i, qa := range m.session.Questions {
		if i > 0 {
			b.WriteString(tui.DimStyle.Render(strings.Repeat("─", width)))
			b.WriteString("\n")
		}
		b.WriteString(tui.TitleStyle.Render(fmt.Sprintf("Question %d", i+1)))
		b.WriteString("  ")
		b.WriteString(tui.ScoreStyle(qa.Score).Render(interview.FormatScore(qa.Score) + "/10"))
		b.WriteString("\n")
		b.WriteString(text.Render(qa.Question))
		b.WriteString("\n\n")

		b.WriteString(label.Render("Your answer"))
		b.WriteString("\n")
		b.WriteString(text.Render(qa.Answer))
		b.WriteString("\n\n")

		b.WriteString(label.Render("Feedback"))
		b.WriteString("\n")
		b.WriteString(text.Render(qa.Feedback))
		b.WriteString("\n")

		writeBullets(&b, "Strengths", qa.Strengths, tui.SuccessStyle, width)
		writeBullets(&b, "To improve", qa.Improvements, tui.WarningStyle, width)
		b.WriteString("\n")
	}
	return b.String()
}

func writeBullets(b *strings.Builder, title string, items []string, style lipgloss.Style, width int) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n")
	b.WriteString(style.Render(title))
	b.WriteString("\n")
	for _, it := range items {
		b.WriteString(lipgloss.NewStyle().Width(width).Render("• " + it))
		b.WriteString("\n")
	}
}

// View renders the detail view.
func (m DetailModel) View() string {
	var b strings.Builder

	b.WriteString(tui.TitleStyle.Render("Session details"))
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString("\n")
		b.WriteString(tui.DimStyle.Render("Loading session..."))
		b.WriteString("\n")
	case m.err != "":
		b.WriteString("\n")
		b.WriteString(tui.ErrorStyle.Render(m.err))
		b.WriteString("\n")
	default:
		s := m.session
		b.WriteString(tui.DimStyle.Render(fmt.Sprintf("%s · %s · %d questions · ",
			shortDate(s.CreatedAt), s.Duration, s.QuestionsAnswered)))
		b.WriteString(tui.ScoreStyle(s.AverageScore).Render("average " + interview.FormatScore(s.AverageScore) + "/10"))
		b.WriteString("\n\n")
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(tui.DimStyle.Render("↑↓ scroll · c: copy id · Esc: back to history"))
	return box(m.width, b.String())
}
