package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marcin-skalski/prinbox/internal/format"
)

func newUpdateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Fetch new activity for every watched repository",
		Long: `Run one sync cycle: refresh the open pull requests of every watched
repository and collect the activity since each was last read.

The state file is only written when the whole cycle succeeds.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.requireAuth(); err != nil {
				return err
			}
			if err := a.syncer().Sync(cmd.Context(), a.state); err != nil {
				return fmt.Errorf("update: %w", err)
			}
			if err := a.save(); err != nil {
				return err
			}
			a.printf("Update complete\n")
			return nil
		},
	}
}

func newUpdatesCommand(opts *rootOptions) *cobra.Command {
	var (
		count  bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "updates",
		Short: "Show pull requests with unread activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if count {
				a.printf("%d\n", a.state.UnreadCount())
				return nil
			}

			if output == "" {
				output = a.settings.Output.Format
			}
			f, err := format.Parse(output)
			if err != nil {
				return err
			}
			return format.Updates(a.out, f, a.state)
		},
	}

	cmd.Flags().BoolVarP(&count, "count", "c", false, "print only the number of unread updates")
	cmd.Flags().StringVarP(&output, "format", "f", "", "output format: plain, table or json (default from settings)")
	return cmd
}

func newReadCommand(opts *rootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "read <workspace/repo> [id]",
		Short: "Mark pull requests as read",
		Long: `Mark one pull request, or with --all every pull request of the
repository, as read.

Example:
  prinbox read acme/api 42
  prinbox read acme/api --all`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := repoName(args[:1])
			if err != nil {
				return err
			}
			var ids []int
			switch {
			case len(args) == 2 && all:
				return errors.New("give either a pull request id or --all")
			case len(args) == 2:
				id, err := parseID(args[1])
				if err != nil {
					return err
				}
				ids = append(ids, id)
			case !all:
				return errors.New("pull request id or --all required")
			}

			a, err := opts.open(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			repo, err := a.state.Repository(name)
			if err != nil {
				return err
			}
			if all {
				for _, pr := range repo.SortedPullRequests() {
					ids = append(ids, pr.ID)
				}
			}

			at := a.now()
			for _, id := range ids {
				pr, err := repo.PullRequest(id)
				if err != nil {
					return err
				}
				pr.MarkRead(at)
			}
			if err := a.save(); err != nil {
				return err
			}
			a.printf("Marked %d pull request(s) in %s as read\n", len(ids), name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "mark every pull request of the repository")
	return cmd
}

func newUnreadCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unread <workspace/repo> <id>",
		Short: "Mark a pull request as unread",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := repoName(args[:1])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}

			a, err := opts.open(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			repo, err := a.state.Repository(name)
			if err != nil {
				return err
			}
			pr, err := repo.PullRequest(id)
			if err != nil {
				return err
			}
			pr.MarkUnread()
			if err := a.save(); err != nil {
				return err
			}
			a.printf("Marked %s#%d as unread\n", name, id)
			return nil
		},
	}
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid pull request id %q", s)
	}
	return id, nil
}
