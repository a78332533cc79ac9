package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/intervue-dev/intervue/internal/interview"
)

var (
	practiceDomain  string
	practiceTopic   string
	practiceLevel   string
	practiceSession string
	practicePersona string
	practiceMute    bool
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Run an interview in line mode",
	Long: `Run an interview over plain stdin/stdout. Each line you enter is one
answer. Type /end to save the session and exit, or /quit to leave without
saving. Use --session to continue a session the interview API still holds.`,
	Example: `  intervue practice --domain cs --topic DBMS --level Fresher
  intervue practice --topic "Machine Learning"
  intervue practice --session 3f2a...`,
	RunE: runPractice,
}

func init() {
	practiceCmd.Flags().StringVar(&practiceDomain, "domain", "", "Domain id (derived from --topic when empty)")
	practiceCmd.Flags().StringVar(&practiceTopic, "topic", "", "Interview topic")
	practiceCmd.Flags().StringVar(&practiceLevel, "level", "", "Experience level (default from config)")
	practiceCmd.Flags().StringVar(&practiceSession, "session", "", "Resume an existing session by id")
	practiceCmd.Flags().StringVar(&practicePersona, "persona", "", "Interviewer persona id (see: intervue personas)")
	practiceCmd.Flags().BoolVar(&practiceMute, "mute", false, "Do not speak questions and feedback")
}

func runPractice(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := openRuntime(ctx)
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

	player, _, _ := rt.speechStack(practicePersona, practiceMute)
	defer player.Stop()

	ctrl := rt.controller(store, player)
	runner := interview.NewRunner(ctrl, cmd.InOrStdin(), cmd.OutOrStdout())

	if practiceSession != "" {
		if err := ctrl.Resume(ctx, practiceSession); err != nil {
			return fmt.Errorf("resuming %s: %w", practiceSession, err)
		}
		snap := ctrl.Snapshot()
		fmt.Fprintf(cmd.OutOrStdout(), "Resumed %s (%s), %d answered so far.\n",
			snap.Topic, snap.Level, len(snap.Records))
		return runner.Run(ctx)
	}

	domain, level, err := practiceSelection(rt.cfg.Interview.DefaultLevel)
	if err != nil {
		return err
	}
	if domain == "" {
		d, ok := rt.cfg.Interview.DomainForTopic(practiceTopic)
		if !ok {
			return fmt.Errorf("unknown topic %q; available topics:\n%s", practiceTopic, topicList(rt))
		}
		domain = d.ID
	}
	if err := ctrl.Select(domain, practiceTopic, level); err != nil {
		return err
	}
	return runner.Run(ctx)
}

func practiceSelection(defaultLevel string) (domain, level string, err error) {
	if strings.TrimSpace(practiceTopic) == "" {
		return "", "", fmt.Errorf("--topic is required (or --session to resume)")
	}
	level = practiceLevel
	if level == "" {
		level = defaultLevel
	}
	return practiceDomain, level, nil
}

func topicList(rt *runtime) string {
	var b strings.Builder
	for _, d := range rt.cfg.Interview.Domains {
		fmt.Fprintf(&b, "  %s (%s): %s\n", d.ID, d.Name, strings.Join(d.Topics, ", "))
	}
	return b.String()
}
