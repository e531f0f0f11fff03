package format

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"

	"github.com/marcin-skalski/prinbox/internal/inbox"
)

type Format string

const (
	Plain Format = "plain"
	Table Format = "table"
	JSON  Format = "json"
)

const maxTitleWidth = 35

type renderFunc func(w io.Writer, rows []Row) error

var renderers = map[Format]renderFunc{
	Plain: renderPlain,
	Table: renderTable,
	JSON:  renderJSON,
}

func Parse(s string) (Format, error) {
	f := Format(s)
	if _, ok := renderers[f]; !ok {
		return "", fmt.Errorf("unknown format %q (plain|table|json)", s)
	}
	return f, nil
}

// Row is one pull request with unread updates.
type Row struct {
	Workspace   string `json:"workspace"`
	Repository  string `json:"name"`
	Title       string `json:"pull_request"`
	UnreadCount int    `json:"number_of_updates"`
	Link        string `json:"link"`
}

// Rows lists every pull request with unread updates, by repository name then id.
func Rows(state *inbox.State) []Row {
	rows := []Row{}
	for _, repo := range state.SortedRepositories() {
		for _, pr := range repo.SortedPullRequests() {
			unread := pr.UnreadUpdates()
			if len(unread) == 0 {
				continue
			}
			rows = append(rows, Row{
				Workspace:   repo.Workspace(),
				Repository:  repo.Slug(),
				Title:       pr.Title,
				UnreadCount: len(unread),
				Link:        pr.URL,
			})
		}
	}
	return rows
}

// Updates renders the unread pull requests of state in format f.
func Updates(w io.Writer, f Format, state *inbox.State) error {
	render, ok := renderers[f]
	if !ok {
		return fmt.Errorf("unknown format %q", f)
	}
	return render(w, Rows(state))
}

// Truncate shortens s to width display columns, marking the cut with "...".
func Truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "") + "..."
}

func cells(rows []Row) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.Workspace,
			r.Repository,
			Truncate(r.Title, maxTitleWidth),
			fmt.Sprint(r.UnreadCount),
			r.Link,
		})
	}
	return out
}

func renderPlain(w io.Writer, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		StyleFunc(func(row, col int) lipgloss.Style { return cellStyle }).
		Rows(cells(rows)...)
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func renderTable(w io.Writer, rows []Row) error {
	t := table.New().
		Border(lipgloss.MarkdownBorder()).
		BorderTop(false).
		BorderBottom(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("workspace", "repository", "pull request", "# of updates", "link").
		Rows(cells(rows)...)
	_, err := fmt.Fprintln(w, t.String())
	return err
}

func renderJSON(w io.Writer, rows []Row) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(rows)
}

var (
	cellStyle   = lipgloss.NewStyle().PaddingRight(1)
	headerStyle = lipgloss.NewStyle().Bold(true).PaddingRight(1)
)
