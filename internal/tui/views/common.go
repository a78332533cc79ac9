// Package views provides TUI view components for the intervue application.
package views

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/intervue-dev/intervue/internal/tui"
)

// maxViewWidth is the maximum width for view boxes.
const maxViewWidth = 90

// EscResetMsg resets the Esc pending state after timeout.
type EscResetMsg struct{}

func escResetTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return EscResetMsg{}
	})
}

func navigate(to tui.ViewState) tea.Cmd {
	return func() tea.Msg {
		return tui.NavigateMsg{To: to}
	}
}

func alert(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return tui.AlertMsg{Text: text, Error: isErr}
	}
}

// boxWidth clamps the box to the terminal width.
func boxWidth(width int) int {
	w := maxViewWidth
	if width-4 < w {
		w = width - 4
	}
	if w < 20 {
		w = 20
	}
	return w
}

func box(width int, content string) string {
	return tui.BoxStyle.Width(boxWidth(width)).Render(content)
}

// renderOptions draws a numbered list with a ❯ marker on the selected row.
func renderOptions(b *strings.Builder, labels []string, selected int) {
	normalStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#9CA3AF"))

	for i, label := range labels {
		if i == selected {
			b.WriteString("❯ ")
		} else {
			b.WriteString("  ")
		}
		b.WriteString(fmt.Sprintf("%d. ", i+1))
		if i == selected {
			b.WriteString(tui.SelectedStyle.Render(label))
		} else {
			b.WriteString(normalStyle.Render(label))
		}
		b.WriteString("\n")
	}
}

// moveSelection handles ↑/↓ and number keys for an option list. It reports
// whether the key was consumed.
func moveSelection(msg tea.KeyMsg, selected, n int) (int, bool) {
	switch msg.String() {
	case tui.KeyUp, "k":
		if selected > 0 {
			selected--
		}
		return selected, true
	case tui.KeyDown, "j":
		if selected < n-1 {
			selected++
		}
		return selected, true
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		idx := int(msg.String()[0] - '1')
		if idx >= 0 && idx < n {
			selected = idx
		}
		return selected, true
	}
	return selected, false
}

// escHint renders the Esc footer, highlighting the pending second press.
func escHint(pending bool, action string) string {
	if pending {
		return tui.WarningStyle.Render("Press Esc again to " + action)
	}
	return tui.DimStyle.Render("Esc: " + action)
}

// shortDate formats a timestamp the way the history list shows it.
func shortDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("Jan 2, 2006 15:04")
}

// truncate shortens s to n runes with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
