package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/intervue-dev/intervue/internal/speech"
)

var listVoices bool

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List interviewer personas and detected speech engines",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		out := cmd.OutOrStdout()
		for _, p := range speech.PersonasFromConfig(rt.cfg.Speech.Personas) {
			marker := " "
			if p.ID == rt.cfg.Speech.Persona {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %-10s %-28s %s pitch %.2f rate %.2f\n", marker, p.ID, p.Name, p.Lang, p.Pitch, p.Rate)
		}

		caps := speech.Detect(rt.cfg.Speech, nil)
		fmt.Fprintln(out)
		if caps.Synth == nil {
			fmt.Fprintln(out, "Voice output: unavailable (install espeak-ng or set speech.synth_command)")
		} else {
			fmt.Fprintln(out, "Voice output: available")
		}
		if caps.Recog == nil {
			fmt.Fprintln(out, "Voice input:  unavailable (set speech.recognize_command)")
		} else {
			fmt.Fprintln(out, "Voice input:  available")
		}

		if listVoices && caps.Synth != nil {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			voices, err := caps.Synth.Voices(ctx)
			if err != nil {
				return fmt.Errorf("listing voices: %w", err)
			}
			fmt.Fprintln(out)
			for _, v := range voices {
				fmt.Fprintf(out, "  %-24s %-8s %s\n", v.ID, v.Lang, v.Name)
			}
		}
		return nil
	},
}

func init() {
	personasCmd.Flags().BoolVar(&listVoices, "voices", false, "Also list the synthesizer's voices")
}
