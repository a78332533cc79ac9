package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/intervue-dev/intervue/internal/config"
	"github.com/intervue-dev/intervue/internal/history"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the session database",
}

var migrateURL string

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the interview_sessions and team_members tables",
	Long: `Apply the embedded schema migrations to a PostgreSQL database. The
database URL comes from --url, database.url in config.yaml, or
INTERVUE_DATABASE_URL.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		url := migrateURL
		if url == "" {
			home, err := resolveHome()
			if err != nil {
				return err
			}
			cfg, err := config.Load(home)
			if err != nil {
				return err
			}
			url = cfg.Database.URL
		}

		res, err := history.Migrate(url)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch {
		case res.Dirty:
			fmt.Fprintf(out, "Schema version %d is dirty; fix it by hand before migrating again.\n", res.Version)
		case res.Changed:
			fmt.Fprintf(out, "Migrated to schema version %d.\n", res.Version)
		default:
			fmt.Fprintf(out, "Schema is up to date (version %d).\n", res.Version)
		}
		return nil
	},
}

func init() {
	dbMigrateCmd.Flags().StringVar(&migrateURL, "url", "", "PostgreSQL connection URL")
	dbCmd.AddCommand(dbMigrateCmd)
}
