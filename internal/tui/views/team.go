package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/intervue-dev/intervue/internal/history"
	"github.com/intervue-dev/intervue/internal/tui"
	"github.com/intervue-dev/intervue/internal/tui/commands"
)

// TeamModel shows the team behind the product.
type TeamModel struct {
	repo     history.TeamRepository
	members  []history.TeamMember
	selected int
	loading  bool
	err      string
	width    int
	height   int
}

// NewTeamModel creates the team view. repo may be nil when no backend is
// configured.
func NewTeamModel(repo history.TeamRepository, width, height int) TeamModel {
	return TeamModel{repo: repo, loading: repo != nil, width: width, height: height}
}

// Init loads the team listing.
func (m TeamModel) Init() tea.Cmd {
	if m.repo == nil {
		return nil
	}
	return commands.LoadTeamCmd(m.repo)
}

// Update handles messages for the team view.
func (m TeamModel) Update(msg tea.Msg) (TeamModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tui.TeamLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = "Could not load the team: " + msg.Err.Error()
			return m, nil
		}
		m.members = msg.Members
		return m, nil

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
		if sel, ok := moveSelection(msg, m.selected, len(m.members)); ok {
			m.selected = sel
			return m, nil
		}
		switch msg.String() {
		case "c", tui.KeyEnter:
			if len(m.members) == 0 {
				return m, nil
			}
			mem := m.members[m.selected]
			link := mem.LinkedInURL
			if link == "" {
				link = mem.PortfolioURL
			}
			if link != "" {
				return m, commands.CopyCmd(link)
			}
		case tui.KeyEsc:
			return m, navigate(tui.StateInterview)
		}
	}
	return m, nil
}

// View renders the team view.
func (m TeamModel) View() string {
	var b strings.Builder

	b.WriteString(tui.TitleStyle.Render("Meet the team"))
	b.WriteString("\n\n")

	switch {
	case m.repo == nil:
		b.WriteString(tui.DimStyle.Render("No backend configured."))
		b.WriteString("\n")
	case m.loading:
		b.WriteString(tui.DimStyle.Render("Loading..."))
		b.WriteString("\n")
	case m.err != "":
		b.WriteString(tui.ErrorStyle.Render(m.err))
		b.WriteString("\n")
	case len(m.members) == 0:
		b.WriteString(tui.DimStyle.Render("No team members listed."))
		b.WriteString("\n")
	}

	width := boxWidth(m.width) - 6
	for i, mem := range m.members {
		marker := "  "
		name := lipgloss.NewStyle().Bold(true).Render(mem.Name)
		if i == m.selected {
			marker = "❯ "
			name = tui.SelectedStyle.Render(mem.Name)
		}
		b.WriteString(marker)
		b.WriteString(name)
		if mem.Role != "" {
			b.WriteString(tui.DimStyle.Render(" · " + mem.Role))
		}
		b.WriteString("\n")
		if i == m.selected {
			if mem.Bio != "" {
				b.WriteString(lipgloss.NewStyle().Width(width).PaddingLeft(2).Render(mem.Bio))
				b.WriteString("\n")
			}
			for _, link := range []string{mem.LinkedInURL, mem.PortfolioURL} {
				if link != "" {
					b.WriteString(tui.DimStyle.Render(fmt.Sprintf("  %s", link)))
					b.WriteString("\n")
				}
			}
		}
	}

	b.WriteString("\n")
	b.WriteString(tui.DimStyle.Render("↑↓ browse · c: copy link · Tab: switch tabs"))
	return box(m.width, b.String())
}
