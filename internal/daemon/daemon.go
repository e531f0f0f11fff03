package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/marcin-skalski/prinbox/internal/inbox"
	"github.com/marcin-skalski/prinbox/internal/tui"
)

type Syncer interface {
	Sync(ctx context.Context, state *inbox.State) error
}

type Saver interface {
	Save(state *inbox.State) error
}

// Daemon keeps the inbox state in memory and re-syncs it on a fixed interval.
type Daemon struct {
	interval time.Duration
	syncer   Syncer
	store    Saver
	logger   *slog.Logger
	now      func() time.Time

	group singleflight.Group

	mu       sync.Mutex
	state    *inbox.State
	syncing  bool
	pending  []func(*inbox.State) error
	lastSync time.Time
	lastErr  error
}

func New(state *inbox.State, interval time.Duration, syncer Syncer, store Saver, logger *slog.Logger) *Daemon {
	return &Daemon{
		interval: interval,
		syncer:   syncer,
		store:    store,
		logger:   logger,
		now:      time.Now,
		state:    state,
	}
}

func (d *Daemon) Run(ctx context.Context) error {
	d.logger.Info("daemon started", "poll_interval", d.interval, "repos", d.repoCount())

	// Initial poll
	d.poll(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("daemon stopped")
			return nil
		case <-ticker.C:
			d.poll(ctx)
		}
	}
}

func (d *Daemon) poll(ctx context.Context) {
	if err := d.Refresh(ctx); err != nil && ctx.Err() == nil {
		d.logger.Error("sync failed", "err", err)
	}
}

// Refresh runs one sync cycle now. Concurrent callers share a single cycle.
func (d *Daemon) Refresh(ctx context.Context) error {
	_, err, _ := d.group.Do("sync", func() (any, error) {
		return nil, d.syncOnce(ctx)
	})
	return err
}

// syncOnce syncs a copy of the state and swaps it in only on success. Marks
// made while the cycle runs are replayed onto the new state.
func (d *Daemon) syncOnce(ctx context.Context) error {
	d.mu.Lock()
	next := d.state.Clone()
	d.syncing = true
	d.mu.Unlock()

	err := d.syncer.Sync(ctx, next)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.syncing = false
	pending := d.pending
	d.pending = nil

	if err != nil {
		d.lastErr = err
		return err
	}

	for _, apply := range pending {
		if err := apply(next); err != nil {
			d.logger.Debug("dropped mark for pull request no longer tracked", "err", err)
		}
	}

	d.logNewActivity(d.state, next)
	d.state = next
	d.lastSync = d.now()
	d.lastErr = nil

	if err := d.store.Save(d.state); err != nil {
		d.lastErr = err
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (d *Daemon) logNewActivity(prev, next *inbox.State) {
	for _, repo := range next.SortedRepositories() {
		for _, pr := range repo.SortedPullRequests() {
			unread := len(pr.UnreadUpdates())
			if unread == 0 {
				continue
			}
			before := 0
			if old, ok := prev.Repositories[repo.Name]; ok {
				if oldPR, ok := old.PullRequests[pr.ID]; ok {
					before = len(oldPR.UnreadUpdates())
				}
			}
			if unread > before {
				d.logger.Info("→ new activity",
					"repo", repo.Name,
					"pr", pr.ID,
					"title", pr.Title,
					"unread", unread)
			}
		}
	}
}

func (d *Daemon) MarkRead(repo string, id int) error {
	at := d.now()
	markRead := func(s *inbox.State) (*inbox.PullRequest, error) {
		pr, err := lookup(s, repo, id)
		if err != nil {
			return nil, err
		}
		pr.MarkRead(at)
		return pr, nil
	}
	return d.mutate(func(s *inbox.State) error {
		_, err := markRead(s)
		return err
	}, func(s *inbox.State) error {
		// The synced updates were classified against the older read marker.
		pr, err := markRead(s)
		if err != nil {
			return err
		}
		pr.Updates = slices.DeleteFunc(pr.Updates, func(u inbox.Update) bool {
			return u.Date.Before(at)
		})
		return nil
	})
}

func (d *Daemon) MarkUnread(repo string, id int) error {
	markUnread := func(s *inbox.State) error {
		pr, err := lookup(s, repo, id)
		if err != nil {
			return err
		}
		pr.MarkUnread()
		return nil
	}
	return d.mutate(markUnread, markUnread)
}

// mutate applies a change to the live state and saves it. While a sync
// cycle runs, replay is queued for the state that cycle produces.
func (d *Daemon) mutate(apply, replay func(*inbox.State) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := apply(d.state); err != nil {
		return err
	}
	if d.syncing {
		d.pending = append(d.pending, replay)
	}
	if err := d.store.Save(d.state); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func lookup(s *inbox.State, repo string, id int) (*inbox.PullRequest, error) {
	r, err := s.Repository(repo)
	if err != nil {
		return nil, err
	}
	return r.PullRequest(id)
}

func (d *Daemon) repoCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.state.Repositories)
}

// State returns a copy of the current state.
func (d *Daemon) State() *inbox.State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.Clone()
}

func (d *Daemon) GetSnapshot() tui.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	snap := tui.Snapshot{
		Timestamp: d.now(),
		LastSync:  d.lastSync,
		Syncing:   d.syncing,
	}
	if d.lastErr != nil {
		snap.LastError = d.lastErr.Error()
	}

	for _, repo := range d.state.SortedRepositories() {
		rs := tui.RepoState{Name: repo.Name}
		for _, pr := range repo.SortedPullRequests() {
			role := "reviewer"
			if pr.IsAuthoredBy(d.state.UserUUID) {
				role = "author"
			}
			rs.PRs = append(rs.PRs, tui.PRState{
				ID:     pr.ID,
				Title:  pr.Title,
				Author: pr.Author.DisplayName,
				Role:   role,
				Unread: len(pr.UnreadUpdates()),
				URL:    pr.URL,
			})
		}
		snap.Repos = append(snap.Repos, rs)
	}
	return snap
}
