package format

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcin-skalski/prinbox/internal/inbox"
)

func testState() *inbox.State {
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	brian := inbox.User{UUID: "{u2}", DisplayName: "Brian"}
	comment := inbox.Update{Date: t1, Kind: inbox.KindComment, Author: brian}

	s := inbox.NewState()
	s.Watch(&inbox.Repository{
		Name: "acme/api",
		PullRequests: map[int]*inbox.PullRequest{
			7: {
				ID:          7,
				Title:       "Rework the session token refresh flow for mobile clients",
				URL:         "https://bitbucket.org/acme/api/pull-requests/7",
				Updates:     []inbox.Update{comment, comment},
				LastRead:    t0,
				LastUpdated: t1,
			},
			8: {
				ID:          8,
				Title:       "Already read",
				Updates:     []inbox.Update{comment},
				LastRead:    t1.Add(time.Minute),
				LastUpdated: t1,
			},
		},
	})
	s.Watch(&inbox.Repository{
		Name: "acme/web",
		PullRequests: map[int]*inbox.PullRequest{
			3: {
				ID:          3,
				Title:       "Fix footer",
				URL:         "https://bitbucket.org/acme/web/pull-requests/3",
				Updates:     []inbox.Update{comment},
				LastRead:    t0,
				LastUpdated: t1,
			},
		},
	})
	return s
}

func TestParse(t *testing.T) {
	for _, s := range []string{"plain", "table", "json"} {
		f, err := Parse(s)
		require.NoError(t, err)
		assert.Equal(t, Format(s), f)
	}

	_, err := Parse("xml")
	assert.Error(t, err)
}

func TestRows_OnlyUnread(t *testing.T) {
	rows := Rows(testState())

	assert.Equal(t, []Row{
		{Workspace: "acme", Repository: "api", Title: "Rework the session token refresh flow for mobile clients", UnreadCount: 2, Link: "https://bitbucket.org/acme/api/pull-requests/7"},
		{Workspace: "acme", Repository: "web", Title: "Fix footer", UnreadCount: 1, Link: "https://bitbucket.org/acme/web/pull-requests/3"},
	}, rows)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 35))
	assert.Equal(t, strings.Repeat("a", 35), Truncate(strings.Repeat("a", 35), 35))
	assert.Equal(t, strings.Repeat("a", 35)+"...", Truncate(strings.Repeat("a", 40), 35))
	assert.Equal(t, "日本...", Truncate("日本語のタイトル", 5))
}

func TestUpdates_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Updates(&buf, JSON, testState()))

	want := `[
    {
        "workspace": "acme",
        "name": "api",
        "pull_request": "Rework the session token refresh flow for mobile clients",
        "number_of_updates": 2,
        "link": "https://bitbucket.org/acme/api/pull-requests/7"
    },
    {
        "workspace": "acme",
        "name": "web",
        "pull_request": "Fix footer",
        "number_of_updates": 1,
        "link": "https://bitbucket.org/acme/web/pull-requests/3"
    }
]
`
	assert.Equal(t, want, buf.String())
}

func TestUpdates_JSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Updates(&buf, JSON, inbox.NewState()))
	assert.Equal(t, "[]\n", buf.String())
}

func TestUpdates_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Updates(&buf, Table, testState()))
	out := buf.String()

	assert.Contains(t, out, "workspace")
	assert.Contains(t, out, "# of updates")
	assert.Contains(t, out, "Rework the session token refresh fl...")
	assert.NotContains(t, out, "mobile clients")
	assert.Contains(t, out, "Fix footer")
	assert.NotContains(t, out, "Already read")
	assert.Contains(t, out, "|")
}

func TestUpdates_Plain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Updates(&buf, Plain, testState()))
	out := buf.String()

	assert.NotContains(t, out, "workspace")
	assert.Contains(t, out, "Fix footer")
	assert.Contains(t, out, "https://bitbucket.org/acme/web/pull-requests/3")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)
}

func TestUpdates_PlainEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Updates(&buf, Plain, inbox.NewState()))
	assert.Empty(t, buf.String())
}
