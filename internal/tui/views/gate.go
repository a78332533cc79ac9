package views

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/intervue-dev/intervue/internal/tui"
)

// GateModel is shown in place of a view that needs a signed-in user.
type GateModel struct {
	target string
	width  int
	height int
}

// NewGateModel creates the sign-in-required screen for the named view.
func NewGateModel(target string, width, height int) GateModel {
	return GateModel{target: target, width: width, height: height}
}

// Update handles messages for the gate view.
func (m GateModel) Update(msg tea.Msg) (GateModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case tui.KeyEnter:
			return m, navigate(tui.StateSignIn)
		case tui.KeyEsc:
			return m, navigate(tui.StateInterview)
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

// View renders the gate view.
func (m GateModel) View() string {
	var b strings.Builder

	b.WriteString(tui.TitleStyle.Render("Sign in required"))
	b.WriteString("\n\n")
	b.WriteString("Please sign in to see your " + m.target + ".")
	b.WriteString("\n\n")
	b.WriteString(tui.DimStyle.Render("Enter: sign in · Esc: practice · Tab: switch tabs"))

	return box(m.width, b.String())
}
