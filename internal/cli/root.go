package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/marcin-skalski/prinbox/internal/bitbucket"
	"github.com/marcin-skalski/prinbox/internal/config"
	"github.com/marcin-skalski/prinbox/internal/inbox"
	"github.com/marcin-skalski/prinbox/internal/logging"
	"github.com/marcin-skalski/prinbox/internal/store"
)

type rootOptions struct {
	configPath string
	statePath  string
}

// app is everything a command needs, built once per invocation.
type app struct {
	settings *config.Config
	store    *store.Store
	state    *inbox.State
	logger   *slog.Logger
	closer   io.Closer
	out      io.Writer
	now      func() time.Time
}

// NewRootCommand builds the prinbox command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "prinbox",
		Short: "Inbox for Bitbucket pull request activity",
		Long: `prinbox tracks open Bitbucket Cloud pull requests you authored or review
and shows which of them received approvals, comments or new commits since
you last looked.

State lives in a single JSON file; settings in a YAML file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath(), "path to settings file")
	root.PersistentFlags().StringVar(&opts.statePath, "state", "", "path to state file (overrides state_file)")

	root.AddCommand(
		newCredentialsCommand(opts),
		newResetCommand(opts),
		newWatchedCommand(opts),
		newWatchCommand(opts),
		newUnwatchCommand(opts),
		newUpdateCommand(opts),
		newUpdatesCommand(opts),
		newReadCommand(opts),
		newUnreadCommand(opts),
		newDaemonCommand(opts),
	)
	return root
}

// open loads settings, sets up logging and loads the state file. console
// controls whether log records are mirrored to stderr.
func (o *rootOptions) open(cmd *cobra.Command, console bool) (*app, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.statePath != "" {
		cfg.StateFile = o.statePath
	}

	logger, closer, err := logging.Setup(logging.Options{
		File:         cfg.LogFile,
		Level:        cfg.Log.Level,
		ConsoleLevel: cfg.Log.ConsoleLevel,
		Console:      console,
	})
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	st := store.New(cfg.StateFile)
	state, err := st.Load()
	if err != nil {
		closer.Close()
		return nil, err
	}

	return &app{
		settings: cfg,
		store:    st,
		state:    state,
		logger:   logger.With("cmd", cmd.Name()),
		closer:   closer,
		out:      cmd.OutOrStdout(),
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (a *app) Close() error {
	return a.closer.Close()
}

func (a *app) client() *bitbucket.Client {
	return a.clientFor(a.state.Username, a.state.Token)
}

func (a *app) clientFor(username, token string) *bitbucket.Client {
	return bitbucket.NewClient(bitbucket.Options{
		BaseURL:   a.settings.API.BaseURL,
		Username:  username,
		Token:     token,
		UserUUID:  a.state.UserUUID,
		Timeout:   a.settings.API.Timeout,
		RateLimit: a.settings.API.RateLimit,
		MaxPages:  a.settings.API.MaxPages,
	}, a.logger)
}

func (a *app) syncer() *inbox.Syncer {
	return inbox.NewSyncer(a.client(), a.logger).WithClock(a.now)
}

func (a *app) requireAuth() error {
	if !a.state.Authenticated() {
		return inbox.ErrNotAuthenticated
	}
	return nil
}

func (a *app) save() error {
	if err := a.store.Save(a.state); err != nil {
		return err
	}
	a.logger.Debug("state saved", "path", a.store.Path())
	return nil
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// repoName accepts "workspace/repo" or the two parts as separate arguments.
func repoName(args []string) (string, error) {
	name := strings.Join(args, "/")
	ws, slug, ok := strings.Cut(name, "/")
	if !ok || ws == "" || slug == "" || strings.Contains(slug, "/") {
		return "", errors.New("repository must be given as <workspace> <repo> or <workspace>/<repo>")
	}
	return name, nil
}
