package commands

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/intervue-dev/intervue/internal/interview"
	"github.com/intervue-dev/intervue/internal/speech"
	"github.com/intervue-dev/intervue/internal/tui"
)

// requestTimeout bounds every network round trip started from the TUI.
// Scoring goes through a language model and can take a while.
const requestTimeout = 90 * time.Second

// Interview operation names carried by InterviewErrorMsg.
const (
	OpStart  = "start"
	OpResume = "resume"
	OpNext   = "next"
	OpSubmit = "submit"
	OpEnd    = "end"
)

// StartInterviewCmd starts a session for the controller's selection and
// loads its first question. Returns QuestionLoadedMsg or InterviewErrorMsg.
func StartInterviewCmd(c *interview.Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*requestTimeout)
		defer cancel()

		id, err := c.Start(ctx)
		if err != nil {
			return tui.InterviewErrorMsg{Op: OpStart, Err: err}
		}
		if err := c.LoadNext(ctx); err != nil {
			return tui.InterviewErrorMsg{Op: OpNext, Err: err}
		}
		return tui.QuestionLoadedMsg{SessionID: id}
	}
}

// ResumeInterviewCmd reopens a session the interview API still holds.
func ResumeInterviewCmd(c *interview.Controller, sessionID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := c.Resume(ctx, sessionID); err != nil {
			return tui.InterviewErrorMsg{Op: OpResume, Err: err}
		}
		return tui.QuestionLoadedMsg{SessionID: sessionID}
	}
}

// NextQuestionCmd fetches the next question.
func NextQuestionCmd(c *interview.Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := c.LoadNext(ctx); err != nil {
			return tui.InterviewErrorMsg{Op: OpNext, Err: err}
		}
		return tui.QuestionLoadedMsg{SessionID: c.Snapshot().SessionID}
	}
}

// SubmitAnswerCmd stores answer on the controller and submits it.
func SubmitAnswerCmd(c *interview.Controller, answer string) tea.Cmd {
	return func() tea.Msg {
		if err := c.SetAnswer(answer); err != nil {
			return tui.InterviewErrorMsg{Op: OpSubmit, Err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		eval, err := c.Submit(ctx)
		if err != nil {
			return tui.InterviewErrorMsg{Op: OpSubmit, Err: err}
		}
		return tui.AnswerScoredMsg{Evaluation: eval}
	}
}

// EndInterviewCmd records the session summary.
func EndInterviewCmd(c *interview.Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		saved, err := c.End(ctx)
		if err != nil {
			return tui.InterviewErrorMsg{Op: OpEnd, Err: err}
		}
		return tui.SessionSavedMsg{Session: saved}
	}
}

// ToggleListenCmd starts or stops voice capture.
func ToggleListenCmd(capture *speech.Capture) tea.Cmd {
	return func() tea.Msg {
		listening, err := capture.Toggle(context.Background())
		return tui.ListenMsg{Listening: listening, Err: err}
	}
}

// WaitForTranscriptCmd blocks until the next capture result arrives.
func WaitForTranscriptCmd(capture *speech.Capture) tea.Cmd {
	return func() tea.Msg {
		return tui.TranscriptMsg{Result: <-capture.Results()}
	}
}
