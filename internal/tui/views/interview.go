package views

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/intervue-dev/intervue/internal/config"
	"github.com/intervue-dev/intervue/internal/interview"
	"github.com/intervue-dev/intervue/internal/speech"
	"github.com/intervue-dev/intervue/internal/tui"
	"github.com/intervue-dev/intervue/internal/tui/commands"
)

// ============================================================================
// InterviewModel
// ============================================================================

// selectStep is the position in the domain → topic → level picker.
type selectStep int

const (
	stepDomain selectStep = iota
	stepTopic
	stepLevel
)

// InterviewModel is the view model for the practice screen. The controller
// owns the session; the view owns the picker and the answer editor.
type InterviewModel struct {
	ctrl     *interview.Controller
	catalog  config.InterviewConfig
	player   *speech.Player
	capture  *speech.Capture
	personas []speech.Persona

	step     selectStep
	selected int
	domain   config.Domain
	topic    string

	answer    textarea.Model
	spinner   spinner.Model
	listening bool
	waiting   bool   // a WaitForTranscriptCmd is outstanding
	busyOp    string // operation behind the spinner
	err       string

	escPending bool
	width      int
	height     int
}

// NewInterviewModel creates the practice view. player and capture may be nil.
func NewInterviewModel(
	ctrl *interview.Controller,
	catalog config.InterviewConfig,
	player *speech.Player,
	capture *speech.Capture,
	personas []speech.Persona,
	width, height int,
) InterviewModel {
	ta := textarea.New()
	ta.Placeholder = "Type your answer, or press Ctrl+R to dictate..."
	ta.CharLimit = 5000
	ta.ShowLineNumbers = false
	ta.SetWidth(boxWidth(width) - 6)
	ta.SetHeight(6)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = tui.SelectedStyle

	m := InterviewModel{
		ctrl:     ctrl,
		catalog:  catalog,
		player:   player,
		capture:  capture,
		personas: personas,
		answer:   ta,
		spinner:  sp,
		width:    width,
		height:   height,
	}

	// Returning to the view shows the current session, or the picker
	// pre-set to the last selection.
	snap := ctrl.Snapshot()
	if snap.State == interview.QuestionDisplayed {
		m.answer.SetValue(snap.Answer)
		m.answer.Focus()
	}
	if snap.Busy {
		m.busyOp = "pending"
	}
	if d, ok := catalog.Domain(snap.Domain); ok {
		m.domain = d
		m.topic = snap.Topic
	}
	return m
}

// Init returns the initial command for the practice view.
func (m InterviewModel) Init() tea.Cmd {
	if m.ctrl.Snapshot().Busy {
		return m.spinner.Tick
	}
	if m.answer.Focused() {
		return textarea.Blink
	}
	return nil
}

// Resume reopens a remote session and starts the spinner.
func (m *InterviewModel) Resume(sessionID string) tea.Cmd {
	m.err = ""
	m.busyOp = commands.OpResume
	return tea.Batch(commands.ResumeInterviewCmd(m.ctrl, sessionID), m.spinner.Tick)
}

// Update handles messages for the practice view.
func (m InterviewModel) Update(msg tea.Msg) (InterviewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case EscResetMsg:
		m.escPending = false
		return m, nil

	case spinner.TickMsg:
		if m.busyOp == "" && !m.ctrl.Snapshot().Busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tui.QuestionLoadedMsg:
		m.busyOp = ""
		m.err = ""
		m.answer.Reset()
		return m, m.answer.Focus()

	case tui.AnswerScoredMsg:
		m.busyOp = ""
		m.err = ""
		m.answer.Blur()
		return m, nil

	case tui.SessionSavedMsg:
		m.busyOp = ""
		m.stopListening()
		m.answer.Reset()
		m.answer.Blur()
		m.step, m.selected = stepDomain, 0
		text := "Session saved."
		if msg.Session != nil {
			text = fmt.Sprintf("Session saved: %d questions, average %s/10.",
				msg.Session.QuestionsAnswered, interview.FormatScore(msg.Session.AverageScore))
		}
		return m, tea.Batch(alert(text, false), navigate(tui.StateSessions))

	case tui.InterviewErrorMsg:
		return m.handleError(msg)

	case tui.ListenMsg:
		m.listening = msg.Listening
		if msg.Err != nil {
			m.err = msg.Err.Error()
			if errors.Is(msg.Err, speech.ErrUnsupported) {
				m.err = "Voice input is not supported here. Set speech.recognize_command to enable it."
			}
			return m, nil
		}
		if m.listening && !m.waiting {
			m.waiting = true
			return m, commands.WaitForTranscriptCmd(m.capture)
		}
		return m, nil

	case tui.TranscriptMsg:
		m.waiting = false
		m.listening = m.capture.Listening()
		if msg.Result.Err != nil {
			if errors.Is(msg.Result.Err, speech.ErrNoSpeech) {
				m.err = "No speech detected. Try again."
			} else {
				m.err = "Voice capture failed: " + msg.Result.Err.Error()
			}
			return m, nil
		}
		if m.ctrl.Snapshot().State == interview.QuestionDisplayed {
			m.answer.SetValue(speech.AppendTranscript(m.answer.Value(), msg.Result.Transcript))
			m.answer.CursorEnd()
			_ = m.ctrl.SetAnswer(m.answer.Value())
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.answer.SetWidth(boxWidth(msg.Width) - 6)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.answer.Focused() {
		var cmd tea.Cmd
		m.answer, cmd = m.answer.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m InterviewModel) handleKey(msg tea.KeyMsg) (InterviewModel, tea.Cmd) {
	keys := tui.DefaultKeyMap
	snap := m.ctrl.Snapshot()

	// Speech toggles work in every state.
	switch {
	case key.Matches(msg, keys.Mute):
		m.player.ToggleMute()
		return m, nil
	case key.Matches(msg, keys.Persona):
		m.cyclePersona()
		return m, nil
	}

	if snap.Busy || m.busyOp != "" {
		return m, nil
	}

	switch snap.State {
	case interview.NoSession, interview.Ended:
		return m.handlePickerKey(msg)

	case interview.QuestionDisplayed:
		switch {
		case key.Matches(msg, keys.Submit):
			if strings.TrimSpace(m.answer.Value()) == "" {
				m.err = "Please type an answer first."
				return m, nil
			}
			m.err = ""
			m.busyOp = commands.OpSubmit
			m.stopListening()
			return m, tea.Batch(commands.SubmitAnswerCmd(m.ctrl, m.answer.Value()), m.spinner.Tick)
		case key.Matches(msg, keys.Mic):
			return m, commands.ToggleListenCmd(m.capture)
		case key.Matches(msg, keys.End):
			return m.end()
		case msg.String() == tui.KeyEsc:
			return m.abandon()
		}
		m.escPending = false
		var cmd tea.Cmd
		m.answer, cmd = m.answer.Update(msg)
		_ = m.ctrl.SetAnswer(m.answer.Value())
		return m, cmd

	case interview.FeedbackDisplayed, interview.AwaitingQuestion:
		// AwaitingQuestion is left behind by a failed fetch; Enter retries it.
		switch {
		case key.Matches(msg, keys.Next), msg.String() == tui.KeyEnter:
			m.err = ""
			m.escPending = false
			m.busyOp = commands.OpNext
			return m, tea.Batch(commands.NextQuestionCmd(m.ctrl), m.spinner.Tick)
		case key.Matches(msg, keys.End):
			return m.end()
		case msg.String() == tui.KeyEsc:
			return m.abandon()
		}
	}
	return m, nil
}

// end saves the session. A session with no scored answers is saved with
// an average of 0.
func (m InterviewModel) end() (InterviewModel, tea.Cmd) {
	m.stopListening()
	m.escPending = false
	m.err = ""
	m.busyOp = commands.OpEnd
	return m, tea.Batch(commands.EndInterviewCmd(m.ctrl), m.spinner.Tick)
}

// abandon drops the session after a second Esc press without saving.
func (m InterviewModel) abandon() (InterviewModel, tea.Cmd) {
	if !m.escPending {
		m.escPending = true
		return m, escResetTick()
	}
	m.escPending = false
	m.stopListening()
	m.player.Stop()
	if err := m.ctrl.Reset(); err != nil {
		m.err = err.Error()
		return m, nil
	}
	m.answer.Reset()
	m.answer.Blur()
	m.step, m.selected = stepDomain, 0
	return m, nil
}

func (m InterviewModel) handlePickerKey(msg tea.KeyMsg) (InterviewModel, tea.Cmd) {
	labels := m.pickerLabels()
	if sel, ok := moveSelection(msg, m.selected, len(labels)); ok {
		m.selected = sel
		return m, nil
	}

	switch msg.String() {
	case tui.KeyEnter, " ":
		if m.selected < 0 || m.selected >= len(labels) {
			return m, nil
		}
		return m.pick()
	case tui.KeyEsc, tui.KeyLeft:
		if m.step > stepDomain {
			m.step--
			m.selected = 0
			m.err = ""
		}
		return m, nil
	}
	return m, nil
}

func (m InterviewModel) pick() (InterviewModel, tea.Cmd) {
	switch m.step {
	case stepDomain:
		m.domain = m.catalog.Domains[m.selected]
		m.step, m.selected = stepTopic, 0
		return m, nil
	case stepTopic:
		m.topic = m.domain.Topics[m.selected]
		m.step, m.selected = stepLevel, 0
		for i, l := range m.catalog.Levels {
			if l == m.catalog.DefaultLevel {
				m.selected = i
			}
		}
		return m, nil
	}

	level := m.catalog.Levels[m.selected]
	if err := m.ctrl.Select(m.domain.ID, m.topic, level); err != nil {
		m.err = err.Error()
		return m, nil
	}
	m.err = ""
	m.busyOp = commands.OpStart
	return m, tea.Batch(commands.StartInterviewCmd(m.ctrl), m.spinner.Tick)
}

func (m InterviewModel) handleError(msg tui.InterviewErrorMsg) (InterviewModel, tea.Cmd) {
	m.busyOp = ""
	if errors.Is(msg.Err, interview.ErrNotAuthenticated) {
		m.err = ""
		return m, tea.Batch(alert("Please sign in first!", true), navigate(tui.StateSignIn))
	}

	var text string
	switch msg.Op {
	case commands.OpStart:
		text = "Could not start the interview: " + msg.Err.Error()
	case commands.OpResume:
		text = "Could not resume the session: " + msg.Err.Error()
	case commands.OpNext:
		text = "Could not load the next question: " + msg.Err.Error()
	case commands.OpSubmit:
		text = "Could not score your answer: " + msg.Err.Error()
	case commands.OpEnd:
		text = "Could not save the session: " + msg.Err.Error()
	default:
		text = msg.Err.Error()
	}
	// The alert carries the failure; the view keeps a hint for the retry.
	m.err = retryHint(msg.Op)
	if m.ctrl.Snapshot().State == interview.QuestionDisplayed {
		return m, tea.Batch(alert(text, true), m.answer.Focus())
	}
	return m, alert(text, true)
}

func retryHint(op string) string {
	switch op {
	case commands.OpStart, commands.OpResume:
		return "Press Enter to try again."
	case commands.OpNext:
		return "Press Enter to retry loading the question."
	case commands.OpSubmit:
		return "Your answer was kept. Press Ctrl+S to submit it again."
	case commands.OpEnd:
		return "Press Ctrl+E to try saving again."
	}
	return ""
}

func (m *InterviewModel) stopListening() {
	if m.listening {
		m.capture.Stop()
		m.listening = false
	}
}

func (m *InterviewModel) cyclePersona() {
	if len(m.personas) == 0 {
		return
	}
	current := m.player.Persona().ID
	next := 0
	for i, p := range m.personas {
		if p.ID == current {
			next = (i + 1) % len(m.personas)
		}
	}
	m.player.SetPersona(m.personas[next])
}

func (m InterviewModel) pickerLabels() []string {
	switch m.step {
	case stepTopic:
		return m.domain.Topics
	case stepLevel:
		return m.catalog.Levels
	}
	labels := make([]string, len(m.catalog.Domains))
	for i, d := range m.catalog.Domains {
		labels[i] = d.Name
	}
	return labels
}

// View renders the practice view.
func (m InterviewModel) View() string {
	snap := m.ctrl.Snapshot()

	var b strings.Builder
	b.WriteString(m.header(snap))
	b.WriteString("\n\n")

	switch {
	case snap.Busy || m.busyOp != "":
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(busyLabel(m.busyOp))
		b.WriteString("\n")
	case snap.State == interview.QuestionDisplayed:
		m.viewQuestion(&b, snap)
	case snap.State == interview.FeedbackDisplayed:
		m.viewFeedback(&b, snap)
	case snap.State == interview.AwaitingQuestion:
		b.WriteString(tui.DimStyle.Render("No question loaded."))
		b.WriteString("\n")
	default:
		m.viewPicker(&b)
	}

	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(tui.ErrorStyle.Render(m.err))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.footer(snap))
	return box(m.width, b.String())
}

func (m InterviewModel) header(snap interview.Snapshot) string {
	title := tui.TitleStyle.Render("Practice interview")
	if snap.SessionID != "" && snap.State != interview.Ended {
		title += tui.DimStyle.Render(fmt.Sprintf("  %s · %s · Q%d", snap.Topic, snap.Level, len(snap.Records)+1))
	}

	var voice string
	if m.player.Available() {
		voice = "🔊 " + m.player.Persona().Name
		if m.player.Muted() {
			voice = "🔇 muted"
		}
	} else {
		voice = "voice output unavailable"
	}
	return title + "\n" + tui.DimStyle.Render(voice)
}

func (m InterviewModel) viewPicker(b *strings.Builder) {
	var prompt string
	switch m.step {
	case stepDomain:
		prompt = "Choose a domain"
	case stepTopic:
		prompt = m.domain.Name + ": choose a topic"
	case stepLevel:
		prompt = m.topic + ": choose your experience level"
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(prompt))
	b.WriteString("\n\n")
	renderOptions(b, m.pickerLabels(), m.selected)
}

func (m InterviewModel) viewQuestion(b *strings.Builder, snap interview.Snapshot) {
	questionStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#E5E7EB")).
		Bold(true).
		Width(boxWidth(m.width) - 6)

	if snap.Difficulty != "" {
		b.WriteString(tui.WarningStyle.Render(strings.ToUpper(snap.Difficulty)))
		b.WriteString("\n")
	}
	b.WriteString(questionStyle.Render(snap.Question))
	b.WriteString("\n\n")
	b.WriteString(m.answer.View())
	b.WriteString("\n")

	switch {
	case m.listening:
		b.WriteString(tui.ErrorStyle.Render("● Listening..."))
		b.WriteString("\n")
	case !m.capture.Available():
		b.WriteString(tui.DimStyle.Render("Voice input not configured."))
		b.WriteString("\n")
	}
}

func (m InterviewModel) viewFeedback(b *strings.Builder, snap interview.Snapshot) {
	eval := snap.Evaluation
	if eval == nil {
		return
	}
	width := boxWidth(m.width) - 6

	score := fmt.Sprintf("Score: %s/10", interview.FormatScore(eval.Score))
	b.WriteString(tui.ScoreStyle(eval.Score).Bold(true).Render(score))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Width(width).Render(eval.Feedback))
	b.WriteString("\n")

	if eval.CorrectSolution != "" {
		b.WriteString("\n")
		b.WriteString(tui.TitleStyle.Render("Suggested answer"))
		b.WriteString("\n")
		b.WriteString(tui.DimStyle.Width(width).Render(eval.CorrectSolution))
		b.WriteString("\n")
	}
}

func (m InterviewModel) footer(snap interview.Snapshot) string {
	keys := tui.DefaultKeyMap
	voice := tui.DimStyle.Render(tui.HelpLine(keys.Mute, keys.Persona))
	if snap.Busy || m.busyOp != "" {
		return voice
	}

	switch snap.State {
	case interview.QuestionDisplayed:
		return tui.DimStyle.Render(tui.HelpLine(keys.Submit, keys.Mic, keys.End)+" · ") +
			escHint(m.escPending, "leave without saving") + "\n" + voice
	case interview.FeedbackDisplayed:
		return tui.DimStyle.Render(tui.HelpLine(keys.Next, keys.End)+" · ") +
			escHint(m.escPending, "leave without saving") + "\n" + voice
	case interview.AwaitingQuestion:
		return tui.DimStyle.Render("enter: retry · "+tui.HelpLine(keys.End)+" · ") +
			escHint(m.escPending, "leave without saving") + "\n" + voice
	case interview.NoSession, interview.Ended:
		return tui.DimStyle.Render("Enter to select · ↑↓ to navigate · Esc: back") + "\n" + voice
	}
	return voice
}

func busyLabel(op string) string {
	switch op {
	case commands.OpStart:
		return "Starting your interview..."
	case commands.OpResume:
		return "Reopening your session..."
	case commands.OpSubmit:
		return "Evaluating your answer..."
	case commands.OpNext:
		return "Generating the next question..."
	case commands.OpEnd:
		return "Saving your session..."
	}
	return "Working..."
}
