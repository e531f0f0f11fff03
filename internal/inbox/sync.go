package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RemoteAPI is the slice of the hosting API the syncer needs.
type RemoteAPI interface {
	RelevantPullRequests(ctx context.Context, repo string) ([]RawPullRequest, error)
	PullRequestActivity(ctx context.Context, repo string, id int) ([]RawEvent, error)
}

type Syncer struct {
	remote RemoteAPI
	logger *slog.Logger
	now    func() time.Time
}

func NewSyncer(remote RemoteAPI, logger *slog.Logger) *Syncer {
	return &Syncer{
		remote: remote,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source. Used by tests.
func (s *Syncer) WithClock(now func() time.Time) *Syncer {
	s.now = now
	return s
}

// Sync refreshes every watched repository of state in place. Repositories
// are processed one at a time in name order, pull requests in id order. The
// first failure aborts the cycle and leaves state partially updated, so the
// caller must discard it.
func (s *Syncer) Sync(ctx context.Context, state *State) error {
	if !state.Authenticated() {
		return ErrNotAuthenticated
	}

	start := s.now()
	for _, repo := range state.SortedRepositories() {
		if err := s.syncRepository(ctx, state.UserUUID, repo); err != nil {
			return err
		}
	}

	s.logger.Info("sync complete",
		"repos", len(state.Repositories),
		"unread", state.UnreadCount(),
		"took", s.now().Sub(start).Round(time.Millisecond))
	return nil
}

func (s *Syncer) syncRepository(ctx context.Context, currentUser string, repo *Repository) error {
	logger := s.logger.With("repo", repo.Name)

	remote, err := s.remote.RelevantPullRequests(ctx, repo.Name)
	if err != nil {
		return fmt.Errorf("%w: list pull requests of %s: %w", ErrTransport, repo.Name, err)
	}

	before := len(repo.PullRequests)
	repo.PullRequests = Reconcile(repo.PullRequests, remote, s.now())
	logger.Debug("reconciled pull requests", "before", before, "after", len(repo.PullRequests))

	for _, pr := range repo.SortedPullRequests() {
		if err := s.syncPullRequest(ctx, currentUser, repo.Name, pr); err != nil {
			return err
		}
	}
	return nil
}

func (s *Syncer) syncPullRequest(ctx context.Context, currentUser, repo string, pr *PullRequest) error {
	events, err := s.remote.PullRequestActivity(ctx, repo, pr.ID)
	if err != nil {
		return fmt.Errorf("%w: activity of %s#%d: %w", ErrTransport, repo, pr.ID, err)
	}

	updates, err := CollectUpdates(Classify(events, currentUser, pr.Author.UUID, pr.LastRead))
	if err != nil {
		return fmt.Errorf("classify %s#%d: %w", repo, pr.ID, err)
	}

	pr.Updates = updates
	pr.markUpdated(s.now())

	s.logger.Debug("pull request refreshed",
		"repo", repo, "pr", pr.ID, "events", len(events), "updates", len(updates))
	return nil
}
