package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/intervue-dev/intervue/internal/history"
	"github.com/intervue-dev/intervue/internal/interview"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List your recorded interview sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		if _, err := rt.requireUser(); err != nil {
			return err
		}
		store, err := rt.openHistory()
		if err != nil {
			return err
		}

		lister := history.NewLister(store, rt.auth.State(), rt.events)
		sessions, err := lister.Load(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions yet. Start one with: intervue practice --topic <topic>")
			return nil
		}

		stats := lister.Stats()
		fmt.Fprintf(out, "%d sessions · average %d/10 · %d questions answered\n\n",
			stats.Count, stats.MeanScore, stats.TotalQuestions)

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tDURATION\tQUESTIONS\tAVERAGE\tID")
		for _, s := range sessions {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s/10\t%s\n",
				s.CreatedAt.Local().Format("2006-01-02 15:04"), s.Duration, s.QuestionsAnswered,
				interview.FormatScore(s.AverageScore), s.ID)
		}
		return w.Flush()
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one session question by question",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		if _, err := rt.requireUser(); err != nil {
			return err
		}
		store, err := rt.openHistory()
		if err != nil {
			return err
		}

		s, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printSession(cmd.OutOrStdout(), s)
		return nil
	},
}

var deleteYes bool

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a recorded session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		if _, err := rt.requireUser(); err != nil {
			return err
		}
		store, err := rt.openHistory()
		if err != nil {
			return err
		}

		confirmed := deleteYes
		if !confirmed {
			p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			if confirmed, err = p.confirm("Delete session " + args[0] + "? This cannot be undone."); err != nil {
				return err
			}
		}

		lister := history.NewLister(store, rt.auth.State(), rt.events)
		err = lister.Delete(cmd.Context(), args[0], confirmed)
		if errors.Is(err, history.ErrNotConfirmed) {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Deleted.")
		return nil
	},
}

func init() {
	sessionsDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Delete without asking")
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
}

func printSession(out io.Writer, s *history.Session) {
	fmt.Fprintf(out, "Session %s\n", s.ID)
	fmt.Fprintf(out, "%s · %s · %d questions · average %s/10\n",
		s.CreatedAt.Local().Format("2006-01-02 15:04"), s.Duration, s.QuestionsAnswered,
		interview.FormatScore(s.AverageScore))

	if len(s.Questions) == 0 {
		fmt.Fprintln(out, "\nNo questions were recorded for this session.")
		return
	}
	for i, qa := range s.Questions {
		fmt.Fprintf(out, "\nQ%d (%s/10): %s\n", i+1, interview.FormatScore(qa.Score), qa.Question)
		fmt.Fprintf(out, "Answer:   %s\n", qa.Answer)
		fmt.Fprintf(out, "Feedback: %s\n", qa.Feedback)
		if len(qa.Strengths) > 0 {
			fmt.Fprintf(out, "Strengths:  %s\n", strings.Join(qa.Strengths, "; "))
		}
		if len(qa.Improvements) > 0 {
			fmt.Fprintf(out, "To improve: %s\n", strings.Join(qa.Improvements, "; "))
		}
	}
}
