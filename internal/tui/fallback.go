package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/intervue-dev/intervue/internal/config"
)

// FallbackRunner handles non-TTY execution by pointing users at the
// line-mode commands.
type FallbackRunner struct {
	cfg *config.Config
}

// NewFallbackRunner creates a new FallbackRunner.
func NewFallbackRunner(cfg *config.Config) *FallbackRunner {
	return &FallbackRunner{cfg: cfg}
}

// Run prints the available topics and the commands that work without a
// terminal.
func (f *FallbackRunner) Run(w io.Writer) error {
	fmt.Fprintln(w, "Non-TTY environment detected.")
	fmt.Fprintln(w, "Practice in line mode with:")
	fmt.Fprintln(w, "  intervue practice --domain <id> --topic <topic> [--level Fresher|Experienced]")
	fmt.Fprintln(w)

	if f.cfg != nil {
		for _, d := range f.cfg.Interview.Domains {
			fmt.Fprintf(w, "%-4s %s: %s\n", d.ID, d.Name, strings.Join(d.Topics, ", "))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Other commands: intervue sessions, intervue resume, intervue team, intervue --help")
	return nil
}
