package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/intervue-dev/intervue/internal/history"
	"github.com/intervue-dev/intervue/internal/interview"
	"github.com/intervue-dev/intervue/internal/tui"
	"github.com/intervue-dev/intervue/internal/tui/commands"
)

// ============================================================================
// SessionsModel
// ============================================================================

// SessionsModel lists the signed-in user's recorded sessions with summary
// statistics. Deletes are confirmed with y/n.
type SessionsModel struct {
	lister *history.Lister

	sessions   []history.Session
	stats      history.Stats
	selected   int
	loading    bool
	confirming bool   // waiting for y/n on the selected row
	deleting   string // id of the delete in flight
	err        string
	width      int
	height     int
}

// NewSessionsModel creates the history list. Rows already loaded by the
// lister are shown while the refresh runs.
func NewSessionsModel(lister *history.Lister, width, height int) SessionsModel {
	m := SessionsModel{lister: lister, width: width, height: height, loading: true}
	if lister.Loaded() {
		m.setSessions(lister.Sessions())
	}
	return m
}

// Init loads the list.
func (m SessionsModel) Init() tea.Cmd {
	return commands.LoadSessionsCmd(m.lister)
}

// Update handles messages for the history list.
func (m SessionsModel) Update(msg tea.Msg) (SessionsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tui.SessionsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = "Could not load sessions: " + msg.Err.Error()
			return m, nil
		}
		m.err = ""
		m.confirming = false
		m.setSessions(msg.Sessions)
		return m, nil

	case tui.SessionDeletedMsg:
		m.deleting = ""
		if msg.Err != nil {
			m.err = "Could not delete session: " + msg.Err.Error()
			return m, nil
		}
		m.err = ""
		m.setSessions(m.lister.Sessions())
		return m, alert("Session deleted.", false)

	case tui.CopiedMsg:
		if msg.Err != nil {
			return m, alert("Copy failed: "+msg.Err.Error(), true)
		}
		return m, alert("Copied "+msg.Text, false)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m SessionsModel) handleKey(msg tea.KeyMsg) (SessionsModel, tea.Cmd) {
	keys := tui.DefaultKeyMap

	if m.confirming {
		switch {
		case key.Matches(msg, keys.Confirm):
			m.confirming = false
			if m.selected >= len(m.sessions) {
				return m, nil
			}
			id := m.sessions[m.selected].ID
			m.deleting = id
			return m, commands.DeleteSessionCmd(m.lister, id)
		case key.Matches(msg, keys.Cancel):
			m.confirming = false
		}
		return m, nil
	}

	if sel, ok := moveSelection(msg, m.selected, len(m.sessions)); ok {
		m.selected = sel
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Refresh):
		m.loading = true
		return m, commands.LoadSessionsCmd(m.lister)
	case key.Matches(msg, keys.Escape):
		return m, navigate(tui.StateInterview)
	}

	if len(m.sessions) == 0 || m.deleting != "" {
		return m, nil
	}
	current := m.sessions[m.selected]

	switch {
	case key.Matches(msg, keys.Enter):
		id := current.ID
		return m, func() tea.Msg {
			return tui.NavigateMsg{To: tui.StateDetail, SessionID: id}
		}
	case key.Matches(msg, keys.Delete):
		m.confirming = true
		return m, nil
	case key.Matches(msg, keys.Copy):
		return m, commands.CopyCmd(current.ID)
	}
	return m, nil
}

func (m *SessionsModel) setSessions(sessions []history.Session) {
	m.sessions = sessions
	m.stats = history.Summarize(sessions)
	if m.selected >= len(sessions) {
		m.selected = len(sessions) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

// View renders the history list.
func (m SessionsModel) View() string {
	var b strings.Builder

	b.WriteString(tui.TitleStyle.Render("Your interview history"))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("%s sessions · %s average · %s questions answered",
		tui.SelectedStyle.Render(fmt.Sprint(m.stats.Count)),
		tui.ScoreStyle(float64(m.stats.MeanScore)).Render(fmt.Sprintf("%d/10", m.stats.MeanScore)),
		tui.SelectedStyle.Render(fmt.Sprint(m.stats.TotalQuestions)),
	))
	b.WriteString("\n\n")

	switch {
	case m.loading && len(m.sessions) == 0:
		b.WriteString(tui.DimStyle.Render("Loading sessions..."))
		b.WriteString("\n")
	case len(m.sessions) == 0:
		b.WriteString(tui.DimStyle.Render("No sessions yet. Finish a practice interview to see it here."))
		b.WriteString("\n")
	default:
		m.viewRows(&b)
	}

	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(tui.ErrorStyle.Render(m.err))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.confirming && m.selected < len(m.sessions) {
		s := m.sessions[m.selected]
		b.WriteString(tui.WarningStyle.Render(fmt.Sprintf(
			"Delete the session from %s? This cannot be undone. (y/n)", shortDate(s.CreatedAt))))
	} else {
		keys := tui.DefaultKeyMap
		b.WriteString(tui.DimStyle.Render(tui.HelpLine(keys.Enter, keys.Delete, keys.Copy, keys.Refresh, keys.Tab)))
	}
	return box(m.width, b.String())
}

func (m SessionsModel) viewRows(b *strings.Builder) {
	// Leave room for the header, stats and footer.
	visible := m.height - 14
	if visible < 3 {
		visible = 3
	}
	start := 0
	if m.selected >= visible {
		start = m.selected - visible + 1
	}
	end := start + visible
	if end > len(m.sessions) {
		end = len(m.sessions)
	}

	for i := start; i < end; i++ {
		s := m.sessions[i]
		if i == m.selected {
			b.WriteString("❯ ")
		} else {
			b.WriteString("  ")
		}

		line := fmt.Sprintf("%-18s %-7s %2d questions  %s/10",
			shortDate(s.CreatedAt), s.Duration, s.QuestionsAnswered, interview.FormatScore(s.AverageScore))
		if i == m.selected {
			line = tui.SelectedStyle.Render(line)
		}
		b.WriteString(tui.ScoreMarker(s.AverageScore))
		b.WriteString(" ")
		b.WriteString(line)
		if s.ID == m.deleting {
			b.WriteString(tui.DimStyle.Render("  deleting..."))
		}
		b.WriteString("\n")
	}
	if len(m.sessions) > end-start {
		b.WriteString(tui.DimStyle.Render(fmt.Sprintf("  %d of %d", m.selected+1, len(m.sessions))))
		b.WriteString("\n")
	}
}
