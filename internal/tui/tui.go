package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type SnapshotProvider interface {
	GetSnapshot() Snapshot
	Refresh(ctx context.Context) error
	MarkRead(repo string, id int) error
	MarkUnread(repo string, id int) error
}

type Model struct {
	ctx             context.Context
	provider        SnapshotProvider
	snapshot        Snapshot
	refreshInterval time.Duration
	selected        int // index into snapshot.rows(), -1 = none
	status          string
}

type tickMsg time.Time

type refreshDoneMsg struct {
	err error
}

func NewModel(ctx context.Context, provider SnapshotProvider, refreshInterval time.Duration) Model {
	m := Model{
		ctx:             ctx,
		provider:        provider,
		snapshot:        provider.GetSnapshot(),
		refreshInterval: refreshInterval,
		selected:        -1,
	}
	m.clampSelection()
	return m
}

func (m Model) Init() tea.Cmd {
	return tickCmd(m.refreshInterval)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.status = "syncing..."
			return m, refreshCmd(m.ctx, m.provider)
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(m.snapshot.rows())-1 {
				m.selected++
			}
		case "enter", "m":
			m.mark(m.provider.MarkRead, "marked read")
		case "u":
			m.mark(m.provider.MarkUnread, "marked unread")
		}

	case refreshDoneMsg:
		if msg.err != nil {
			m.status = "sync failed: " + msg.err.Error()
		} else {
			m.status = "sync complete"
		}
		m.snapshot = m.provider.GetSnapshot()
		m.clampSelection()

	case tickMsg:
		m.snapshot = m.provider.GetSnapshot()
		m.clampSelection()
		return m, tickCmd(m.refreshInterval)
	}

	return m, nil
}

func (m *Model) mark(apply func(repo string, id int) error, done string) {
	sel, ok := m.current()
	if !ok {
		return
	}
	if err := apply(sel.Repo, sel.ID); err != nil {
		m.status = err.Error()
		return
	}
	m.status = fmt.Sprintf("%s#%d %s", sel.Repo, sel.ID, done)
	m.snapshot = m.provider.GetSnapshot()
	m.clampSelection()
}

func (m Model) current() (selection, bool) {
	rows := m.snapshot.rows()
	if m.selected < 0 || m.selected >= len(rows) {
		return selection{}, false
	}
	return rows[m.selected], true
}

// clampSelection keeps the cursor on an existing row after the snapshot changes.
func (m *Model) clampSelection() {
	n := len(m.snapshot.rows())
	switch {
	case n == 0:
		m.selected = -1
	case m.selected < 0:
		m.selected = 0
	case m.selected >= n:
		m.selected = n - 1
	}
}

func (m Model) View() string {
	sel, _ := m.current()
	return renderView(m.snapshot, sel, m.status)
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func refreshCmd(ctx context.Context, provider SnapshotProvider) tea.Cmd {
	return func() tea.Msg {
		return refreshDoneMsg{err: provider.Refresh(ctx)}
	}
}

// Run shows the dashboard until the user quits or ctx ends.
func Run(ctx context.Context, provider SnapshotProvider, refreshInterval time.Duration) error {
	p := tea.NewProgram(NewModel(ctx, provider, refreshInterval), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
