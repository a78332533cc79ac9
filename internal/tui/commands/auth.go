// Package commands provides Bubble Tea commands for TUI operations.
package commands

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/intervue-dev/intervue/internal/auth"
	"github.com/intervue-dev/intervue/internal/tui"
)

// RestoreCmd loads the persisted credential. Returns RestoredMsg with a nil
// user when nobody is signed in.
func RestoreCmd(client *auth.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		user, err := client.Restore(ctx)
		return tui.RestoredMsg{User: user, Err: err}
	}
}

// SignInCmd signs in with email and password.
func SignInCmd(client *auth.Client, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		user, err := client.SignIn(ctx, email, password)
		return tui.SignedInMsg{User: user, Err: err}
	}
}

// SignUpCmd registers a new account.
func SignUpCmd(client *auth.Client, name, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		res, err := client.SignUp(ctx, email, password, name)
		return tui.SignedUpMsg{Result: res, Err: err}
	}
}

// SignOutCmd ends the session.
func SignOutCmd(client *auth.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return tui.SignedOutMsg{Err: client.SignOut(ctx)}
	}
}
