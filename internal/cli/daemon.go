package cli

import (
	"context"
	"errors"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/marcin-skalski/prinbox/internal/daemon"
	"github.com/marcin-skalski/prinbox/internal/tui"
)

func newDaemonCommand(opts *rootOptions) *cobra.Command {
	var noTUI bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Sync periodically and show a live dashboard",
		Long: `Sync every poll_interval until interrupted. When attached to a terminal
a dashboard lists watched pull requests and their unread counts; set
PRINBOX_TUI=0 or pass --no-tui to run headless.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enableTUI := !noTUI && os.Getenv("PRINBOX_TUI") != "0" &&
				isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())

			// The dashboard owns the terminal, so logs go to the file only.
			a, err := opts.open(cmd, !enableTUI)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.requireAuth(); err != nil {
				return err
			}

			ctx := cmd.Context()
			d := daemon.New(a.state, a.settings.PollInterval, a.syncer(), a.store, a.logger)

			if !enableTUI {
				a.logger.Info("prinbox starting (headless)", "state", a.store.Path())
				return d.Run(ctx)
			}

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("prinbox daemon starting in background", "state", a.store.Path())
				errCh <- d.Run(ctx)
			}()

			tuiErr := tui.Run(ctx, d, a.settings.TUI.RefreshInterval)
			cancel()
			return errors.Join(tuiErr, <-errCh)
		},
	}

	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "disable the dashboard")
	return cmd
}
