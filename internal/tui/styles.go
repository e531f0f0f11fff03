package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorAccent = lipgloss.Color("39")
	colorRepo   = lipgloss.Color("44")
	colorText   = lipgloss.Color("252")
	colorMuted  = lipgloss.Color("240")
	colorUnread = lipgloss.Color("214") // orange
	colorError  = lipgloss.Color("196")
	colorCursor = lipgloss.Color("237")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginTop(1)
	repoStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorRepo)
	prStyle     = lipgloss.NewStyle().Foreground(colorText)
	unreadStyle = lipgloss.NewStyle().Bold(true).Foreground(colorUnread)
	cursorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Background(colorCursor)
	errorStyle  = lipgloss.NewStyle().Foreground(colorError)
	footerStyle = lipgloss.NewStyle().Foreground(colorMuted).MarginTop(1)
	emptyStyle  = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)
)

// unreadBadge is a fixed-width marker so titles stay aligned.
func unreadBadge(n int) string {
	if n == 0 {
		return "   "
	}
	if n > 99 {
		return "●99"
	}
	return fmt.Sprintf("●%-2d", n)
}

func rowStyle(pr PRState, selected bool) lipgloss.Style {
	switch {
	case selected:
		return cursorStyle
	case pr.Unread > 0:
		return unreadStyle
	default:
		return prStyle
	}
}
