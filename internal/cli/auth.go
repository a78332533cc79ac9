package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/intervue-dev/intervue/internal/auth"
)

var signinEmail string

var signinCmd = &cobra.Command{
	Use:   "signin",
	Short: "Sign in with email and password",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		if err := rt.cfg.Validate(); err != nil {
			return err
		}

		p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
		email := signinEmail
		if email == "" {
			if email, err = p.line("Email: "); err != nil {
				return err
			}
		}
		password, err := p.password("Password: ")
		if err != nil {
			return err
		}

		user, err := rt.auth.SignIn(cmd.Context(), email, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s).\n", user.Name(), user.Email)
		return nil
	},
}

var (
	signupEmail string
	signupName  string
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		if err := rt.cfg.Validate(); err != nil {
			return err
		}

		p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
		name, email := signupName, signupEmail
		if name == "" {
			if name, err = p.line("Full name: "); err != nil {
				return err
			}
		}
		if email == "" {
			if email, err = p.line("Email: "); err != nil {
				return err
			}
		}
		password, err := p.password("Password: ")
		if err != nil {
			return err
		}
		confirm, err := p.password("Confirm password: ")
		if err != nil {
			return err
		}
		if err := auth.ValidateSignUp(email, password, confirm); err != nil {
			return err
		}

		res, err := rt.auth.SignUp(cmd.Context(), email, password, name)
		if err != nil {
			return err
		}
		if res.NeedsConfirmation {
			fmt.Fprintln(cmd.OutOrStdout(), "Account created. Check your email to confirm it, then run: intervue signin")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Account created. Signed in as %s.\n", res.User.Name())
		return nil
	},
}

var signoutCmd = &cobra.Command{
	Use:   "signout",
	Short: "Sign out and forget the stored credential",
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
		if err := rt.auth.SignOut(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

func init() {
	signinCmd.Flags().StringVar(&signinEmail, "email", "", "Account email (prompted when empty)")
	signupCmd.Flags().StringVar(&signupEmail, "email", "", "Account email (prompted when empty)")
	signupCmd.Flags().StringVar(&signupName, "name", "", "Display name (prompted when empty)")
}
