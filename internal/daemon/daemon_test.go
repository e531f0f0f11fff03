package daemon

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcin-skalski/prinbox/internal/inbox"
)

var (
	t0    = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	me    = inbox.User{UUID: "{me}", DisplayName: "Me"}
	other = inbox.User{UUID: "{other}", DisplayName: "Other"}
)

type syncFunc func(ctx context.Context, state *inbox.State) error

func (f syncFunc) Sync(ctx context.Context, state *inbox.State) error { return f(ctx, state) }

type memStore struct {
	mu    sync.Mutex
	saved []*inbox.State
}

func (m *memStore) Save(state *inbox.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, state.Clone())
	return nil
}

func (m *memStore) last() *inbox.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saved) == 0 {
		return nil
	}
	return m.saved[len(m.saved)-1]
}

func baseState() *inbox.State {
	s := inbox.NewState()
	s.Username, s.Token, s.UserUUID = "me", "secret", me.UUID
	s.Watch(&inbox.Repository{
		Name: "acme/api",
		PullRequests: map[int]*inbox.PullRequest{
			1: {ID: 1, Title: "Mine", Author: me, Updates: []inbox.Update{}, LastRead: t0, LastUpdated: t0},
			2: {ID: 2, Title: "Theirs", Author: other, Updates: []inbox.Update{}, LastRead: t0, LastUpdated: t0},
		},
	})
	return s
}

// addComment simulates a sync that finds one new comment on every pull request.
func addComment(at time.Time) syncFunc {
	return func(ctx context.Context, state *inbox.State) error {
		for _, repo := range state.Repositories {
			for _, pr := range repo.PullRequests {
				pr.Updates = []inbox.Update{{Date: at, Kind: inbox.KindComment, Author: other}}
				pr.LastUpdated = at
			}
		}
		return nil
	}
}

func newTestDaemon(state *inbox.State, s Syncer, st Saver) *Daemon {
	d := New(state, time.Minute, s, st, slog.New(slog.DiscardHandler))
	d.now = func() time.Time { return t0.Add(2 * time.Hour) }
	return d
}

func TestRefresh_SwapsAndSaves(t *testing.T) {
	st := &memStore{}
	d := newTestDaemon(baseState(), addComment(t0.Add(time.Hour)), st)

	require.NoError(t, d.Refresh(context.Background()))

	snap := d.GetSnapshot()
	assert.Empty(t, snap.LastError)
	assert.Equal(t, t0.Add(2*time.Hour), snap.LastSync)
	assert.Equal(t, 2, snap.UnreadCount())
	require.Len(t, snap.Repos, 1)
	assert.Equal(t, "author", snap.Repos[0].PRs[0].Role)
	assert.Equal(t, "reviewer", snap.Repos[0].PRs[1].Role)

	require.NotNil(t, st.last())
	assert.Equal(t, 2, st.last().UnreadCount())
}

func TestRefresh_FailureKeepsPreviousState(t *testing.T) {
	st := &memStore{}
	boom := errors.New("status 503")
	d := newTestDaemon(baseState(), syncFunc(func(ctx context.Context, state *inbox.State) error {
		// Half-applied changes must not leak into the daemon state.
		delete(state.Repositories, "acme/api")
		return boom
	}), st)

	err := d.Refresh(context.Background())
	assert.ErrorIs(t, err, boom)

	assert.Contains(t, d.State().Repositories, "acme/api")
	assert.Equal(t, "status 503", d.GetSnapshot().LastError)
	assert.Nil(t, st.last())
}

func TestRefresh_ReplaysMarksMadeDuringSync(t *testing.T) {
	st := &memStore{}
	var d *Daemon
	comment := addComment(t0.Add(time.Hour))
	d = newTestDaemon(baseState(), syncFunc(func(ctx context.Context, state *inbox.State) error {
		require.NoError(t, comment(ctx, state))
		assert.True(t, d.GetSnapshot().Syncing)
		require.NoError(t, d.MarkRead("acme/api", 2))
		return nil
	}), st)

	require.NoError(t, d.Refresh(context.Background()))

	state := d.State()
	assert.True(t, state.Repositories["acme/api"].PullRequests[1].HasUnread())
	assert.False(t, state.Repositories["acme/api"].PullRequests[2].HasUnread())
	assert.False(t, d.GetSnapshot().Syncing)
}

func TestMarkReadAndUnread(t *testing.T) {
	st := &memStore{}
	d := newTestDaemon(baseState(), addComment(t0.Add(time.Hour)), st)
	require.NoError(t, d.Refresh(context.Background()))

	require.NoError(t, d.MarkRead("acme/api", 1))
	assert.Equal(t, 1, d.GetSnapshot().UnreadCount())
	assert.Equal(t, 1, st.last().UnreadCount())

	require.NoError(t, d.MarkUnread("acme/api", 1))
	assert.Equal(t, 2, d.GetSnapshot().UnreadCount())

	assert.ErrorIs(t, d.MarkRead("acme/web", 1), inbox.ErrUnknownRepository)
	assert.ErrorIs(t, d.MarkUnread("acme/api", 99), inbox.ErrUnknownPullRequest)
}

func TestRun_StopsOnCancel(t *testing.T) {
	calls := 0
	ctx, cancel := context.WithCancel(context.Background())
	d := newTestDaemon(baseState(), syncFunc(func(ctx context.Context, state *inbox.State) error {
		calls++
		cancel()
		return nil
	}), &memStore{})

	require.NoError(t, d.Run(ctx))
	assert.Equal(t, 1, calls)
}

// heldRemote blocks the sync cycle inside the pull request listing until
// released, so marks can be made while a cycle is in flight.
type heldRemote struct {
	entered  chan struct{}
	release  chan struct{}
	activity map[int][]inbox.RawEvent
}

func (r *heldRemote) RelevantPullRequests(ctx context.Context, repo string) ([]inbox.RawPullRequest, error) {
	close(r.entered)
	<-r.release
	return []inbox.RawPullRequest{
		{ID: 1, Title: "Mine", Author: me},
		{ID: 2, Title: "Theirs", Author: other},
	}, nil
}

func (r *heldRemote) PullRequestActivity(ctx context.Context, repo string, id int) ([]inbox.RawEvent, error) {
	return r.activity[id], nil
}

func commentBy(at time.Time, by inbox.User) inbox.RawEvent {
	return inbox.RawEvent{Comment: &inbox.RawActivity{CreatedOn: at.Format(time.RFC3339Nano), User: &by}}
}

func TestRefresh_MarkReadDuringSyncHidesSeenUpdates(t *testing.T) {
	markAt := t0.Add(2 * time.Hour)
	remote := &heldRemote{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		activity: map[int][]inbox.RawEvent{
			1: {commentBy(markAt.Add(500*time.Millisecond), other), commentBy(t0.Add(time.Hour), other)},
			2: {commentBy(t0.Add(time.Hour), other)},
		},
	}
	syncer := inbox.NewSyncer(remote, slog.New(slog.DiscardHandler)).
		WithClock(func() time.Time { return markAt.Add(time.Second) })
	st := &memStore{}
	d := newTestDaemon(baseState(), syncer, st)

	done := make(chan error, 1)
	go func() { done <- d.Refresh(context.Background()) }()

	<-remote.entered
	require.NoError(t, d.MarkRead("acme/api", 1))
	require.NoError(t, d.MarkRead("acme/api", 2))
	close(remote.release)
	require.NoError(t, <-done)

	repo := d.State().Repositories["acme/api"]

	pr2 := repo.PullRequests[2]
	assert.Equal(t, markAt, pr2.LastRead)
	assert.Equal(t, markAt.Add(time.Second), pr2.LastUpdated)
	assert.Empty(t, pr2.Updates)
	assert.False(t, pr2.HasUnread())

	// Activity newer than the mark stays unread.
	pr1 := repo.PullRequests[1]
	require.Len(t, pr1.Updates, 1)
	assert.Equal(t, markAt.Add(500*time.Millisecond), pr1.Updates[0].Date)
	assert.True(t, pr1.HasUnread())

	assert.Equal(t, 1, st.last().UnreadCount())
}
