// status.go implements "intervue whoami" and "intervue health".
package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/intervue-dev/intervue/internal/log"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	Long: `Show the signed-in account. The stored token is checked against the
identity service; a rejected token signs you out.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		if rt.auth.Current() == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
			return nil
		}

		user, err := rt.auth.Verify(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\nUser ID: %s\n", user.Name(), user.Email, user.ID)

		active, err := rt.store.LatestActive(user.ID)
		if err == nil && active != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Unfinished practice: %s (%s), %d answered. Resume with: intervue practice --session %s\n",
				active.Topic, active.Level, active.Answered, active.ID)
		}

		if last := lastEvent(rt.events, user.ID); last != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Last activity: %s at %s\n",
				strings.ReplaceAll(last.Event, "_", " "), last.Time.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

// lastEvent returns the newest logged event for userID, or nil.
func lastEvent(events *log.Logger, userID string) *log.LogEvent {
	all, err := events.ReadAll()
	if err != nil {
		return nil
	}
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].UserID == userID {
			return &all[i]
		}
	}
	return nil
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the interview API",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		h, err := rt.api.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("interview API at %s is unreachable: %w", rt.api.BaseURL(), err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "API:    %s\n", rt.api.BaseURL())
		fmt.Fprintf(out, "Status: %s\n", h.Status)
		if h.Message != "" {
			fmt.Fprintf(out, "        %s\n", h.Message)
		}
		if h.APIKeyStatus != "" {
			fmt.Fprintf(out, "Key:    %s\n", h.APIKeyStatus)
		}

		names := make([]string, 0, len(h.Components))
		for name := range h.Components {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(out, "  %-12s %s\n", name, h.Components[name])
		}
		return nil
	},
}
