package inbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_WatchUnwatch(t *testing.T) {
	s := NewState()

	assert.True(t, s.Watch(&Repository{Name: "acme/api", UUID: "{a}"}))
	assert.False(t, s.Watch(&Repository{Name: "acme/api", UUID: "{other}"}))
	assert.Equal(t, "{a}", s.Repositories["acme/api"].UUID)
	assert.NotNil(t, s.Repositories["acme/api"].PullRequests)

	require.NoError(t, s.Unwatch("acme/api"))
	assert.ErrorIs(t, s.Unwatch("acme/api"), ErrUnknownRepository)
}

func TestState_Lookups(t *testing.T) {
	s := NewState()
	s.Watch(&Repository{Name: "acme/web", PullRequests: map[int]*PullRequest{3: trackedPR(3)}})
	s.Watch(&Repository{Name: "acme/api"})

	assert.Equal(t, []string{"acme/api", "acme/web"}, s.RepositoryNames())

	repo, err := s.Repository("acme/web")
	require.NoError(t, err)
	assert.Equal(t, "acme", repo.Workspace())
	assert.Equal(t, "web", repo.Slug())

	_, err = s.Repository("acme/nope")
	assert.ErrorIs(t, err, ErrUnknownRepository)

	pr, err := repo.PullRequest(3)
	require.NoError(t, err)
	assert.Equal(t, 3, pr.ID)

	_, err = repo.PullRequest(4)
	assert.ErrorIs(t, err, ErrUnknownPullRequest)
}

func TestState_UnreadCount(t *testing.T) {
	s := NewState()
	read := trackedPR(2)
	read.MarkRead(t2)
	s.Watch(&Repository{Name: "acme/api", PullRequests: map[int]*PullRequest{1: trackedPR(1), 2: read}})
	s.Watch(&Repository{Name: "acme/web", PullRequests: map[int]*PullRequest{5: trackedPR(5)}})

	assert.Equal(t, 2, s.UnreadCount())
}

func TestState_CloneIsDeep(t *testing.T) {
	s := authenticatedState()
	s.Watch(&Repository{Name: "acme/api", PullRequests: map[int]*PullRequest{1: trackedPR(1)}})

	c := s.Clone()
	assert.Equal(t, s, c)

	c.Repositories["acme/api"].PullRequests[1].MarkRead(t2)
	c.Repositories["acme/api"].PullRequests[1].Updates[0].Kind = KindApproval
	delete(c.Repositories["acme/api"].PullRequests, 1)
	c.Watch(&Repository{Name: "acme/web"})

	orig := s.Repositories["acme/api"].PullRequests[1]
	require.NotNil(t, orig)
	assert.Equal(t, t0, orig.LastRead)
	assert.Equal(t, KindComment, orig.Updates[0].Kind)
	assert.NotContains(t, s.Repositories, "acme/web")
}
