// Package cli defines Cobra command definitions for the intervue CLI.
// This file contains the root command, version flag, and help output.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/intervue-dev/intervue/internal/history"
	"github.com/intervue-dev/intervue/internal/tui"
	"github.com/intervue-dev/intervue/internal/tui/app"
)

var (
	debug   bool
	homeDir string
	version = "dev" // set via ldflags at build time

	isTerminal = tui.IsTTY
)

var rootCmd = &cobra.Command{
	Use:   "intervue",
	Short: "Practice technical interviews from the terminal",
	Long: `intervue runs mock technical interviews against the interview API.
Pick a domain, topic and experience level, answer generated questions by
typing or speaking, get scored feedback, and review past sessions.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// When no subcommand is provided, launch TUI if TTY, show help otherwise
		if !isTerminal() {
			return cmd.Help()
		}

		rt, err := openRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		services := tui.Services{
			Cfg:       rt.cfg,
			Auth:      rt.auth,
			API:       rt.api,
			Practices: rt.store,
			Logger:    rt.logger,
		}

		if store, err := rt.openHistory(); err != nil {
			rt.logger.Warn().Err(err).Msg("session history unavailable")
		} else {
			services.History = store
			services.Lister = history.NewLister(store, rt.auth.State(), rt.events)
		}

		player, capture, personas := rt.speechStack("", false)
		defer player.Stop()
		defer capture.Stop()
		services.Player, services.Capture, services.Personas = player, capture, personas

		services.Interview = rt.controller(services.History, player)

		return tui.Run(app.New(services), tui.NewFallbackRunner(rt.cfg))
	},
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Write debug-level diagnostics to debug.log")
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "Config and state directory (default $INTERVUE_HOME or ~/.intervue)")

	rootCmd.AddCommand(signinCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(signoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(teamCmd)
	rootCmd.AddCommand(personasCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dbCmd)
}
