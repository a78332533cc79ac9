package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var teamCmd = &cobra.Command{
	Use:   "team",
	Short: "Show the team behind intervue",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		store, err := rt.openHistory()
		if err != nil {
			return err
		}
		members, err := store.ListTeam(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(members) == 0 {
			fmt.Fprintln(out, "No team members listed.")
			return nil
		}
		for _, m := range members {
			fmt.Fprintf(out, "%s", m.Name)
			if m.Role != "" {
				fmt.Fprintf(out, " · %s", m.Role)
			}
			fmt.Fprintln(out)
			if m.Bio != "" {
				fmt.Fprintf(out, "  %s\n", m.Bio)
			}
			for _, link := range []string{m.LinkedInURL, m.PortfolioURL} {
				if link != "" {
					fmt.Fprintf(out, "  %s\n", link)
				}
			}
		}
		return nil
	},
}
