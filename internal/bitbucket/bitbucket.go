package bitbucket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/marcin-skalski/prinbox/internal/inbox"
)

const DefaultBaseURL = "https://api.bitbucket.org/2.0"

// StatusError is returned for any non-2xx API response.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bitbucket %s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

type Options struct {
	BaseURL  string
	Username string
	Token    string
	// UserUUID scopes RelevantPullRequests to the current user.
	UserUUID string
	Timeout  time.Duration
	// RateLimit is the sustained requests per second. Zero or negative disables limiting.
	RateLimit float64
	// MaxPages bounds how many result pages are followed per listing.
	MaxPages int
}

var _ inbox.RemoteAPI = (*Client)(nil)

type Client struct {
	opts       Options
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

func NewClient(opts Options, logger *slog.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxPages < 1 {
		opts.MaxPages = 1
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		burst := max(1, int(opts.RateLimit))
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    limiter,
		logger:     logger,
	}
}

// WithUser returns a copy of the client that acts on behalf of userUUID.
func (c *Client) WithUser(userUUID string) *Client {
	cc := *c
	cc.opts.UserUUID = userUUID
	return &cc
}

type Repository struct {
	FullName string `json:"full_name"`
	UUID     string `json:"uuid"`
}

// CurrentUser resolves the account behind the configured credentials.
func (c *Client) CurrentUser(ctx context.Context) (inbox.User, error) {
	var user inbox.User
	if err := c.getJSON(ctx, c.opts.BaseURL+"/user", &user); err != nil {
		return inbox.User{}, fmt.Errorf("get current user: %w", err)
	}
	return user, nil
}

func (c *Client) GetRepository(ctx context.Context, workspace, slug string) (*Repository, error) {
	var repo Repository
	u := fmt.Sprintf("%s/repositories/%s/%s", c.opts.BaseURL, url.PathEscape(workspace), url.PathEscape(slug))
	if err := c.getJSON(ctx, u, &repo); err != nil {
		return nil, fmt.Errorf("get repository %s/%s: %w", workspace, slug, err)
	}
	return &repo, nil
}

// RelevantPullRequests lists open pull requests of repo that the current
// user authored or is asked to review.
func (c *Client) RelevantPullRequests(ctx context.Context, repo string) ([]inbox.RawPullRequest, error) {
	if c.opts.UserUUID == "" {
		return nil, inbox.ErrNotAuthenticated
	}
	workspace, slug, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`state="OPEN" AND (author.uuid="%[1]s" OR reviewers.uuid="%[1]s")`, c.opts.UserUUID)
	params := url.Values{}
	params.Set("q", q)
	params.Set("pagelen", "50")
	u := fmt.Sprintf("%s/repositories/%s/%s/pullrequests?%s",
		c.opts.BaseURL, url.PathEscape(workspace), url.PathEscape(slug), params.Encode())

	prs, err := getPaged[inbox.RawPullRequest](ctx, c, u)
	if err != nil {
		return nil, fmt.Errorf("list pull requests of %s: %w", repo, err)
	}
	return prs, nil
}

// PullRequestActivity returns the activity feed of one pull request, newest first.
func (c *Client) PullRequestActivity(ctx context.Context, repo string, id int) ([]inbox.RawEvent, error) {
	workspace, slug, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/repositories/%s/%s/pullrequests/%d/activity?pagelen=50",
		c.opts.BaseURL, url.PathEscape(workspace), url.PathEscape(slug), id)

	events, err := getPaged[inbox.RawEvent](ctx, c, u)
	if err != nil {
		return nil, fmt.Errorf("activity of %s#%d: %w", repo, id, err)
	}
	return events, nil
}

type page[T any] struct {
	Values []T    `json:"values"`
	Next   string `json:"next"`
}

func getPaged[T any](ctx context.Context, c *Client, u string) ([]T, error) {
	var all []T
	for n := 0; u != "" && n < c.opts.MaxPages; n++ {
		var p page[T]
		if err := c.getJSON(ctx, u, &p); err != nil {
			return nil, err
		}
		all = append(all, p.Values...)
		u = p.Next
	}
	if u != "" {
		c.logger.Debug("results truncated", "max_pages", c.opts.MaxPages)
	}
	return all, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.opts.Username, c.opts.Token)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("bitbucket request", "url", u)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{
			Method:     req.Method,
			URL:        u,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func splitRepo(name string) (string, string, error) {
	workspace, slug, ok := strings.Cut(name, "/")
	if !ok || workspace == "" || slug == "" {
		return "", "", fmt.Errorf("invalid repository name %q (want workspace/repo)", name)
	}
	return workspace, slug, nil
}
