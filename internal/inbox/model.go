package inbox

import (
	"slices"
	"sort"
	"strings"
	"time"
)

// ActivityKind is the kind of a classified activity event.
type ActivityKind string

const (
	KindApproval ActivityKind = "approval"
	KindComment  ActivityKind = "comment"
	KindUpdate   ActivityKind = "update"
)

type User struct {
	UUID        string `json:"uuid"`
	DisplayName string `json:"display_name"`
}

// Update is one activity event that counts as news for the current user.
type Update struct {
	Date   time.Time    `json:"date"`
	Kind   ActivityKind `json:"activity_type"`
	Author User         `json:"author"`
}

type PullRequest struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Author      User      `json:"author"`
	URL         string    `json:"url,omitempty"`
	Updates     []Update  `json:"updates"`
	LastRead    time.Time `json:"last_read"`
	LastUpdated time.Time `json:"last_updated"`
}

// NewPullRequest builds a freshly tracked pull request. Both timestamps start at now.
func NewPullRequest(raw RawPullRequest, now time.Time) *PullRequest {
	now = now.UTC()
	return &PullRequest{
		ID:          raw.ID,
		Title:       raw.Title,
		Author:      raw.Author,
		URL:         raw.Links.HTML.Href,
		Updates:     []Update{},
		LastRead:    now,
		LastUpdated: now,
	}
}

func (p *PullRequest) IsAuthoredBy(uuid string) bool {
	return p.Author.UUID == uuid
}

type Repository struct {
	Name         string               `json:"name"`
	UUID         string               `json:"uuid"`
	PullRequests map[int]*PullRequest `json:"pull_requests"`
}

// Workspace and Slug split the full "workspace/repo_slug" name.
func (r *Repository) Workspace() string {
	ws, _, _ := strings.Cut(r.Name, "/")
	return ws
}

func (r *Repository) Slug() string {
	_, slug, _ := strings.Cut(r.Name, "/")
	return slug
}

// SortedPullRequests returns the pull requests ordered by ascending id.
func (r *Repository) SortedPullRequests() []*PullRequest {
	prs := make([]*PullRequest, 0, len(r.PullRequests))
	for _, pr := range r.PullRequests {
		prs = append(prs, pr)
	}
	sort.Slice(prs, func(i, j int) bool { return prs[i].ID < prs[j].ID })
	return prs
}

// PullRequest looks up a tracked pull request by id.
func (r *Repository) PullRequest(id int) (*PullRequest, error) {
	pr, ok := r.PullRequests[id]
	if !ok {
		return nil, unknownPullRequest(r.Name, id)
	}
	return pr, nil
}

// State is the whole persisted inbox: credentials, the resolved current
// user and every watched repository keyed by full name.
type State struct {
	Username     string                 `json:"username,omitempty"`
	Token        string                 `json:"token,omitempty"`
	UserUUID     string                 `json:"user_uuid,omitempty"`
	Repositories map[string]*Repository `json:"repositories"`
}

func NewState() *State {
	return &State{Repositories: make(map[string]*Repository)}
}

func (s *State) HasCredentials() bool {
	return s.Username != "" && s.Token != ""
}

// Authenticated reports whether a sync can run: credentials plus a resolved user.
func (s *State) Authenticated() bool {
	return s.HasCredentials() && s.UserUUID != ""
}

func (s *State) RepositoryNames() []string {
	names := make([]string, 0, len(s.Repositories))
	for name := range s.Repositories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SortedRepositories returns the watched repositories ordered by name.
func (s *State) SortedRepositories() []*Repository {
	names := s.RepositoryNames()
	repos := make([]*Repository, 0, len(names))
	for _, name := range names {
		repos = append(repos, s.Repositories[name])
	}
	return repos
}

func (s *State) Repository(name string) (*Repository, error) {
	repo, ok := s.Repositories[name]
	if !ok {
		return nil, unknownRepository(name)
	}
	return repo, nil
}

// Watch adds repo unless a repository with the same name is already watched.
// It reports whether the repository was added.
func (s *State) Watch(repo *Repository) bool {
	if _, ok := s.Repositories[repo.Name]; ok {
		return false
	}
	if repo.PullRequests == nil {
		repo.PullRequests = make(map[int]*PullRequest)
	}
	s.Repositories[repo.Name] = repo
	return true
}

func (s *State) Unwatch(name string) error {
	if _, ok := s.Repositories[name]; !ok {
		return unknownRepository(name)
	}
	delete(s.Repositories, name)
	return nil
}

// UnreadCount sums unread updates over every watched pull request.
func (s *State) UnreadCount() int {
	n := 0
	for _, repo := range s.Repositories {
		for _, pr := range repo.PullRequests {
			n += len(pr.UnreadUpdates())
		}
	}
	return n
}

// Clone returns a deep copy. Updates slices are copied; Update values are immutable.
func (s *State) Clone() *State {
	c := &State{
		Username:     s.Username,
		Token:        s.Token,
		UserUUID:     s.UserUUID,
		Repositories: make(map[string]*Repository, len(s.Repositories)),
	}
	for name, repo := range s.Repositories {
		rc := &Repository{
			Name:         repo.Name,
			UUID:         repo.UUID,
			PullRequests: make(map[int]*PullRequest, len(repo.PullRequests)),
		}
		for id, pr := range repo.PullRequests {
			pc := *pr
			pc.Updates = slices.Clone(pr.Updates)
			rc.PullRequests[id] = &pc
		}
		c.Repositories[name] = rc
	}
	return c
}
