package interview

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Line-mode commands.
const (
	CmdEnd  = "/end"
	CmdQuit = "/quit"
)

// Runner plays a session over plain text streams. Each input line is one
// answer; /end saves and exits, /quit exits without saving. At EOF the
// session is saved when at least one answer was scored. Failed requests are
// reported and the loop continues, so scored answers are never dropped.
type Runner struct {
	c   *Controller
	in  *bufio.Scanner
	out io.Writer
}

// NewRunner creates a Runner reading answers from in.
func NewRunner(c *Controller, in io.Reader, out io.Writer) *Runner {
	return &Runner{c: c, in: bufio.NewScanner(in), out: out}
}

// Run starts the session when needed and loops until EOF or a command.
// Only a failed start is returned as an error.
func (r *Runner) Run(ctx context.Context) error {
	switch r.c.Snapshot().State {
	case NoSession, Ended:
		id, err := r.c.Start(ctx)
		if err != nil {
			return err
		}
		r.printf("Session %s started.\n", id)
	}

	for {
		if r.c.Snapshot().State != QuestionDisplayed {
			if err := r.c.LoadNext(ctx); err != nil {
				r.printf("Could not load the next question: %v\n", err)
				r.printf("Press Enter to retry, %s to save, or %s to leave.\n> ", CmdEnd, CmdQuit)
				line, ok := r.readLine()
				if !ok {
					return r.finish(ctx, false)
				}
				switch strings.TrimSpace(line) {
				case CmdEnd:
					if done := r.end(ctx); done {
						return nil
					}
				case CmdQuit:
					r.printf("Left without saving.\n")
					return nil
				}
				continue
			}
		}

		snap := r.c.Snapshot()
		r.printQuestion(snap)

		line, ok := r.readLine()
		if !ok {
			return r.finish(ctx, false)
		}
		switch strings.TrimSpace(line) {
		case CmdEnd:
			if done := r.end(ctx); done {
				return nil
			}
			continue
		case CmdQuit:
			r.printf("Left without saving.\n")
			return nil
		}

		if err := r.c.SetAnswer(line); err != nil {
			r.printf("%v\n", err)
			continue
		}
		eval, err := r.c.Submit(ctx)
		if errors.Is(err, ErrEmptyAnswer) {
			r.printf("Please type an answer, or %s to finish.\n", CmdEnd)
			continue
		}
		if err != nil {
			r.printf("Could not score your answer: %v\nType it again to retry, or %s to finish.\n", err, CmdEnd)
			continue
		}
		r.printf("Score: %s/10\n%s\n", FormatScore(eval.Score), eval.Feedback)
		if eval.CorrectSolution != "" {
			r.printf("Suggested answer: %s\n", eval.CorrectSolution)
		}
	}
}

// end saves on /end and reports whether the loop is over. A failed save
// keeps the session so the user can try again.
func (r *Runner) end(ctx context.Context) bool {
	if err := r.finish(ctx, true); err != nil {
		r.printf("Could not save the session: %v\nType %s to try again.\n", err, CmdEnd)
		return false
	}
	return true
}

// finish records the session. An explicit /end saves even with no answers;
// EOF saves only when something was scored.
func (r *Runner) finish(ctx context.Context, explicit bool) error {
	snap := r.c.Snapshot()
	if !explicit && len(snap.Records) == 0 {
		r.printf("No answers recorded; nothing saved.\n")
		return nil
	}
	saved, err := r.c.End(ctx)
	if err != nil {
		return err
	}
	r.printf("Saved session %s: %d questions, average %s.\n",
		saved.ID, saved.QuestionsAnswered, FormatScore(saved.AverageScore))
	return nil
}

func (r *Runner) printQuestion(snap Snapshot) {
	r.printf("\n[%s · %s", snap.Topic, snap.Level)
	if snap.Difficulty != "" {
		r.printf(" · %s", snap.Difficulty)
	}
	r.printf("]\nQ%d: %s\n> ", len(snap.Records)+1, snap.Question)
}

func (r *Runner) readLine() (string, bool) {
	if !r.in.Scan() {
		return "", false
	}
	return r.in.Text(), true
}

func (r *Runner) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}
