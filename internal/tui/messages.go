package tui

import (
	"github.com/intervue-dev/intervue/internal/api"
	"github.com/intervue-dev/intervue/internal/auth"
	"github.com/intervue-dev/intervue/internal/history"
	"github.com/intervue-dev/intervue/internal/speech"
)

// ============================================================================
// Navigation Messages
// ============================================================================

// NavigateMsg asks the app to switch views. SessionID is set for the
// detail view.
type NavigateMsg struct {
	To        ViewState
	SessionID string
}

// CtrlCResetMsg clears a pending Ctrl+C confirmation.
type CtrlCResetMsg struct{}

// AlertMsg shows a transient notice above the active view.
type AlertMsg struct {
	Text  string
	Error bool
}

// AlertDismissMsg hides the alert with the given sequence number.
type AlertDismissMsg struct {
	Seq int
}

// ============================================================================
// Identity Messages
// ============================================================================

// SignInSubmitMsg carries the sign-in form.
type SignInSubmitMsg struct {
	Email    string
	Password string
}

// SignUpSubmitMsg carries the sign-up form.
type SignUpSubmitMsg struct {
	Name     string
	Email    string
	Password string
}

// RestoredMsg reports the outcome of restoring a stored credential.
type RestoredMsg struct {
	User *auth.User
	Err  error
}

// SignedInMsg reports a sign-in result.
type SignedInMsg struct {
	User *auth.User
	Err  error
}

// SignedUpMsg reports a sign-up result.
type SignedUpMsg struct {
	Result *auth.SignUpResult
	Err    error
}

// SignedOutMsg reports that the user was signed out.
type SignedOutMsg struct {
	Err error
}

// ============================================================================
// Interview Messages
// ============================================================================

// QuestionLoadedMsg signals that the controller holds a new question.
type QuestionLoadedMsg struct {
	SessionID string
}

// AnswerScoredMsg carries the evaluation of a submitted answer.
type AnswerScoredMsg struct {
	Evaluation *api.Evaluation
}

// SessionSavedMsg signals that the finished session was recorded.
type SessionSavedMsg struct {
	Session *history.Session
}

// InterviewErrorMsg signals a failed interview operation.
type InterviewErrorMsg struct {
	Op  string
	Err error
}

// ResumeMsg asks the app to reopen a remote session in the practice view.
type ResumeMsg struct {
	SessionID string
}

// ListenMsg reports the capture state after a mic toggle.
type ListenMsg struct {
	Listening bool
	Err       error
}

// TranscriptMsg carries one recognition result.
type TranscriptMsg struct {
	Result speech.Result
}

// ============================================================================
// History Messages
// ============================================================================

// SessionsLoadedMsg carries the signed-in user's recorded sessions.
type SessionsLoadedMsg struct {
	Sessions []history.Session
	Err      error
}

// SessionDeletedMsg reports a delete result.
type SessionDeletedMsg struct {
	ID  string
	Err error
}

// SessionDetailMsg carries one recorded session.
type SessionDetailMsg struct {
	Session *history.Session
	Err     error
}

// RemoteSessionsMsg carries the sessions the interview API still holds.
type RemoteSessionsMsg struct {
	Sessions []api.RemoteSession
	Err      error
}

// TeamLoadedMsg carries the team listing.
type TeamLoadedMsg struct {
	Members []history.TeamMember
	Err     error
}

// CopiedMsg reports a clipboard write.
type CopiedMsg struct {
	Text string
	Err  error
}

// ============================================================================
// Utility Messages
// ============================================================================

// ErrorMsg is a generic error message for unrecoverable errors.
type ErrorMsg struct {
	Err error
}
