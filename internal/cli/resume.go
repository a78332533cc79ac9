// resume.go implements the "intervue resume" command listing sessions that
// can be continued.
package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "List sessions you can continue",
	Long: `List the sessions the interview API still holds for you, newest
practice from this machine first. Continue one with:
  intervue practice --session <id>`,
	RunE: runResume,
}

func runResume(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	user, err := rt.requireUser()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if local, err := rt.store.LatestActive(user.ID); err == nil && local != nil {
		fmt.Fprintf(out, "Last unfinished on this machine: %s (%s), %d answered\n  intervue practice --session %s\n\n",
			local.Topic, local.Level, local.Answered, local.ID)
	}

	remote, err := rt.api.MySessions(cmd.Context(), user.ID)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}
	if len(remote) == 0 {
		fmt.Fprintln(out, "The interview service holds no sessions for you.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TOPIC\tQUESTIONS\tDIFFICULTY\tSTARTED\tID")
	for _, s := range remote {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", s.Topic, s.QuestionsCount, s.Difficulty, s.CreatedAt, s.SessionID)
	}
	return w.Flush()
}
