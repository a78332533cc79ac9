package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/intervue-dev/intervue/internal/auth"
	"github.com/intervue-dev/intervue/internal/tui"
)

const (
	signUpName = iota
	signUpEmail
	signUpPassword
	signUpConfirm
)

// SignUpModel is the account registration form.
type SignUpModel struct {
	inputs  []textinput.Model
	focus   int
	err     string
	pending bool
	width   int
	height  int
}

// NewSignUpModel creates an empty registration form.
func NewSignUpModel(width, height int) SignUpModel {
	prompts := []string{"Full name ", "Email     ", "Password  ", "Confirm   "}
	placeholders := []string{"Ada Lovelace", "you@example.com", "password", "repeat password"}

	inputs := make([]textinput.Model, len(prompts))
	for i := range prompts {
		ti := textinput.New()
		ti.Prompt = prompts[i]
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 254
		if i >= signUpPassword {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
			ti.CharLimit = 128
		}
		inputs[i] = ti
	}
	inputs[signUpName].Focus()

	m := SignUpModel{inputs: inputs, width: width, height: height}
	for i := range m.inputs {
		m.inputs[i].Width = boxWidth(width) - 20
	}
	return m
}

// Init returns the initial command for the sign-up view.
func (m SignUpModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the sign-up view.
func (m SignUpModel) Update(msg tea.Msg) (SignUpModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tui.SignedUpMsg:
		m.pending = false
		if msg.Err != nil {
			m.err = msg.Err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		if m.pending {
			return m, nil
		}
		switch msg.String() {
		case tui.KeyTab, tui.KeyDown:
			return m, m.setFocus((m.focus + 1) % len(m.inputs))
		case "shift+tab", tui.KeyUp:
			return m, m.setFocus((m.focus + len(m.inputs) - 1) % len(m.inputs))
		case tui.KeyEsc:
			return m, navigate(tui.StateSignIn)
		case tui.KeyEnter:
			if m.focus < len(m.inputs)-1 {
				return m, m.setFocus(m.focus + 1)
			}
			return m.submit()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for i := range m.inputs {
			m.inputs[i].Width = boxWidth(msg.Width) - 20
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m SignUpModel) submit() (SignUpModel, tea.Cmd) {
	name := strings.TrimSpace(m.inputs[signUpName].Value())
	email := strings.TrimSpace(m.inputs[signUpEmail].Value())
	password := m.inputs[signUpPassword].Value()
	confirm := m.inputs[signUpConfirm].Value()

	if err := auth.ValidateSignUp(email, password, confirm); err != nil {
		m.err = err.Error()
		return m, nil
	}
	m.err = ""
	m.pending = true
	return m, func() tea.Msg {
		return tui.SignUpSubmitMsg{Name: name, Email: email, Password: password}
	}
}

func (m *SignUpModel) setFocus(i int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = i
	return m.inputs[m.focus].Focus()
}

// View renders the sign-up view.
func (m SignUpModel) View() string {
	var b strings.Builder

	b.WriteString(tui.TitleStyle.Render("Create your account"))
	b.WriteString("\n\n")

	for _, in := range m.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.pending:
		b.WriteString(tui.DimStyle.Render("Creating account..."))
		b.WriteString("\n\n")
	case m.err != "":
		b.WriteString(tui.ErrorStyle.Render(m.err))
		b.WriteString("\n\n")
	}

	b.WriteString(tui.DimStyle.Render("Enter: create account · Tab: next field · Esc: back to sign in"))
	return box(m.width, b.String())
}
