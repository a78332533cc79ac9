package commands

import (
	"context"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/intervue-dev/intervue/internal/api"
	"github.com/intervue-dev/intervue/internal/history"
	"github.com/intervue-dev/intervue/internal/tui"
)

// LoadSessionsCmd loads the signed-in user's recorded sessions.
func LoadSessionsCmd(l *history.Lister) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		sessions, err := l.Load(ctx)
		return tui.SessionsLoadedMsg{Sessions: sessions, Err: err}
	}
}

// DeleteSessionCmd deletes a confirmed session.
func DeleteSessionCmd(l *history.Lister, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return tui.SessionDeletedMsg{ID: id, Err: l.Delete(ctx, id, true)}
	}
}

// LoadSessionCmd fetches one recorded session.
func LoadSessionCmd(repo history.Repository, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		s, err := repo.Get(ctx, id)
		return tui.SessionDetailMsg{Session: s, Err: err}
	}
}

// LoadRemoteSessionsCmd lists the sessions the interview API holds for userID.
func LoadRemoteSessionsCmd(client *api.Client, userID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		sessions, err := client.MySessions(ctx, userID)
		return tui.RemoteSessionsMsg{Sessions: sessions, Err: err}
	}
}

// LoadTeamCmd loads the team listing.
func LoadTeamCmd(repo history.TeamRepository) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		members, err := repo.ListTeam(ctx)
		return tui.TeamLoadedMsg{Members: members, Err: err}
	}
}

// CopyCmd writes text to the system clipboard.
func CopyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return tui.CopiedMsg{Text: text, Err: clipboard.WriteAll(text)}
	}
}
