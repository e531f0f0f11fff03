package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/marcin-skalski/prinbox/internal/inbox"
)

func newWatchedCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watched",
		Short: "List watched repositories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			names := a.state.RepositoryNames()
			if len(names) == 0 {
				a.printf("No watched repositories\n")
				return nil
			}
			for _, name := range names {
				a.printf("%s\n", name)
			}
			return nil
		},
	}
}

func newWatchCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <workspace> <repo>",
		Short: "Start tracking a repository",
		Long: `Fetch the repository and its open pull requests that you authored or
review, and add it to the watched set.

Example:
  prinbox watch acme api
  prinbox watch acme/api`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := repoName(args)
			if err != nil {
				return err
			}
			a, err := opts.open(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()
			return runWatch(cmd.Context(), a, name)
		},
	}
}

func runWatch(ctx context.Context, a *app, name string) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	if _, ok := a.state.Repositories[name]; ok {
		a.printf("Already watching %s\n", name)
		return nil
	}

	client := a.client()
	ws, slug := splitName(name)
	remote, err := client.GetRepository(ctx, ws, slug)
	if err != nil {
		return err
	}
	if remote.FullName != "" {
		name = remote.FullName
	}

	raw, err := client.RelevantPullRequests(ctx, name)
	if err != nil {
		return err
	}

	repo := &inbox.Repository{
		Name:         name,
		UUID:         remote.UUID,
		PullRequests: inbox.Reconcile(nil, raw, a.now()),
	}
	if !a.state.Watch(repo) {
		a.printf("Already watching %s\n", name)
		return nil
	}
	if err := a.save(); err != nil {
		return err
	}

	a.logger.Info("repository watched", "repo", name, "prs", len(repo.PullRequests))
	a.printf("Watching %s (%d open pull requests)\n", name, len(repo.PullRequests))
	return nil
}

func newUnwatchCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unwatch <workspace> <repo>",
		Short: "Stop tracking a repository",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := repoName(args)
			if err != nil {
				return err
			}
			a, err := opts.open(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.requireAuth(); err != nil {
				return err
			}
			if err := a.state.Unwatch(name); err != nil {
				return err
			}
			if err := a.save(); err != nil {
				return err
			}
			a.logger.Info("repository unwatched", "repo", name)
			a.printf("Stopped watching %s\n", name)
			return nil
		},
	}
}

func splitName(name string) (string, string) {
	repo := inbox.Repository{Name: name}
	return repo.Workspace(), repo.Slug()
}

