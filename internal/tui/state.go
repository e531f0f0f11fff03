package tui

import "time"

type Snapshot struct {
	Timestamp time.Time
	LastSync  time.Time
	LastError string
	Syncing   bool
	Repos     []RepoState
}

type RepoState struct {
	Name string
	PRs  []PRState
}

type PRState struct {
	ID     int
	Title  string
	Author string
	Role   string // author|reviewer
	Unread int
	URL    string
}

func (s Snapshot) PRCount() int {
	n := 0
	for _, r := range s.Repos {
		n += len(r.PRs)
	}
	return n
}

func (s Snapshot) UnreadCount() int {
	n := 0
	for _, r := range s.Repos {
		for _, pr := range r.PRs {
			n += pr.Unread
		}
	}
	return n
}

// selection identifies a pull request row in the dashboard.
type selection struct {
	Repo string
	ID   int
}

func (s Snapshot) rows() []selection {
	var rows []selection
	for _, r := range s.Repos {
		for _, pr := range r.PRs {
			rows = append(rows, selection{Repo: r.Name, ID: pr.ID})
		}
	}
	return rows
}
