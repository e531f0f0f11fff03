package tui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

const maxTitleWidth = 60

func renderView(snap Snapshot, sel selection, status string) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("prinbox │ %d repos │ %d PRs │ %d unread",
		len(snap.Repos), snap.PRCount(), snap.UnreadCount())))
	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Inbox"))
	b.WriteString("\n")

	if len(snap.Repos) == 0 {
		b.WriteString(emptyStyle.Render("  (no watched repositories)"))
		b.WriteString("\n")
	}
	for i, repo := range snap.Repos {
		writeRepo(&b, repo, i == len(snap.Repos)-1, sel)
	}

	if snap.LastError != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("last sync failed: " + snap.LastError))
		b.WriteString("\n")
	}

	b.WriteString(footerStyle.Render(footer(snap, status)))
	return b.String()
}

func writeRepo(b *strings.Builder, repo RepoState, last bool, sel selection) {
	branch, indent := "├─", "│  "
	if last {
		branch, indent = "└─", "   "
	}

	unread := 0
	for _, pr := range repo.PRs {
		unread += pr.Unread
	}
	b.WriteString(repoStyle.Render(fmt.Sprintf("%s %s [%d PRs │ %d unread]", branch, repo.Name, len(repo.PRs), unread)))
	b.WriteString("\n")

	if len(repo.PRs) == 0 {
		b.WriteString(emptyStyle.Render(indent + "  (no open pull requests)"))
		b.WriteString("\n")
		return
	}

	for j, pr := range repo.PRs {
		leaf := "├─"
		if j == len(repo.PRs)-1 {
			leaf = "└─"
		}
		title := runewidth.Truncate(pr.Title, maxTitleWidth, "...")
		line := fmt.Sprintf("%s%s %s #%d %s (%s, %s)", indent, leaf, unreadBadge(pr.Unread), pr.ID, title, pr.Author, pr.Role)

		selected := sel.Repo == repo.Name && sel.ID == pr.ID
		b.WriteString(rowStyle(pr, selected).Render(line))
		b.WriteString("\n")
	}
}

func footer(snap Snapshot, status string) string {
	lastSync := "never"
	if !snap.LastSync.IsZero() {
		lastSync = snap.LastSync.Local().Format("15:04:05")
	}
	if snap.Syncing {
		lastSync += " (syncing)"
	}

	parts := []string{
		"last sync " + lastSync,
		"q quit  r refresh  j/k move  m read  u unread",
	}
	if status != "" {
		parts = append(parts, status)
	}
	return strings.Join(parts, " │ ")
}
