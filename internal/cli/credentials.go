package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func newCredentialsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "credentials <username> <token>",
		Short: "Store and verify Bitbucket credentials",
		Long: `Verify the username and app password against the Bitbucket API and store
them, together with the account UUID, in the state file.

Invalid credentials are reported and nothing is saved.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()
			return runCredentials(cmd.Context(), a, args[0], args[1])
		},
	}
}

func runCredentials(ctx context.Context, a *app, username, token string) error {
	user, err := a.clientFor(username, token).CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("verify credentials: %w", err)
	}
	if user.UUID == "" {
		return errors.New("verify credentials: account has no uuid")
	}

	a.state.Username = username
	a.state.Token = token
	a.state.UserUUID = user.UUID
	if err := a.save(); err != nil {
		return err
	}

	a.logger.Info("credentials stored", "user", user.DisplayName)
	a.printf("Credentials saved for %s\n", user.DisplayName)
	return nil
}

func newResetCommand(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the state file",
		Long:  `Delete credentials, watched repositories and read markers.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if !yes {
				confirmed := false
				err := huh.NewConfirm().
					Title(fmt.Sprintf("Delete %s?", a.store.Path())).
					Description("Credentials and every watched repository will be forgotten.").
					Value(&confirmed).
					Affirmative("Delete").
					Negative("Keep").
					Run()
				if err != nil {
					return fmt.Errorf("confirm reset: %w", err)
				}
				if !confirmed {
					a.printf("Reset cancelled\n")
					return nil
				}
			}

			if err := a.store.Remove(); err != nil {
				return err
			}
			a.logger.Info("state reset", "path", a.store.Path())
			a.printf("State reset\n")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}
