package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/intervue-dev/intervue/internal/auth"
	"github.com/intervue-dev/intervue/internal/tui"
)

const (
	signInEmail = iota
	signInPassword
)

// SignInModel is the email/password sign-in form.
type SignInModel struct {
	inputs  []textinput.Model
	focus   int
	err     string
	notice  string
	pending bool
	width   int
	height  int
}

// NewSignInModel creates an empty sign-in form.
func NewSignInModel(width, height int) SignInModel {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "Email     "
	email.CharLimit = 254
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "Password  "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128

	m := SignInModel{
		inputs: []textinput.Model{email, password},
		width:  width,
		height: height,
	}
	m.setWidth(width)
	return m
}

// WithNotice returns the form showing an informational line.
func (m SignInModel) WithNotice(notice string) SignInModel {
	m.notice = notice
	return m
}

// Init returns the initial command for the sign-in view.
func (m SignInModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the sign-in view.
func (m SignInModel) Update(msg tea.Msg) (SignInModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tui.SignedInMsg:
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
		case "ctrl+n":
			return m, navigate(tui.StateSignUp)
		case tui.KeyEsc:
			return m, navigate(tui.StateInterview)
		case tui.KeyEnter:
			if m.focus < len(m.inputs)-1 {
				return m, m.setFocus(m.focus + 1)
			}
			return m.submit()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.setWidth(msg.Width)
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m SignInModel) submit() (SignInModel, tea.Cmd) {
	email := strings.TrimSpace(m.inputs[signInEmail].Value())
	password := m.inputs[signInPassword].Value()
	if err := auth.ValidateSignIn(email, password); err != nil {
		m.err = err.Error()
		return m, nil
	}
	m.err = ""
	m.pending = true
	return m, func() tea.Msg {
		return tui.SignInSubmitMsg{Email: email, Password: password}
	}
}

func (m *SignInModel) setFocus(i int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = i
	return m.inputs[m.focus].Focus()
}

func (m *SignInModel) setWidth(width int) {
	for i := range m.inputs {
		m.inputs[i].Width = boxWidth(width) - 20
	}
}

// View renders the sign-in view.
func (m SignInModel) View() string {
	var b strings.Builder

	b.WriteString(tui.TitleStyle.Render("Sign in to intervue"))
	b.WriteString("\n\n")

	if m.notice != "" {
		b.WriteString(tui.SuccessStyle.Render(m.notice))
		b.WriteString("\n\n")
	}

	for _, in := range m.inputs {
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.pending:
		b.WriteString(tui.DimStyle.Render("Signing in..."))
		b.WriteString("\n\n")
	case m.err != "":
		b.WriteString(tui.ErrorStyle.Render(m.err))
		b.WriteString("\n\n")
	}

	b.WriteString(tui.DimStyle.Render("Enter: sign in · Tab: next field · Ctrl+N: create account · Esc: practice"))
	return box(m.width, b.String())
}
