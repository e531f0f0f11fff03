package inbox

import "time"

// unreadMargin pushes LastRead behind LastUpdated when marking unread so
// clock skew cannot make the pull request read again.
const unreadMargin = time.Minute

// HasUnread reports whether the pull request carries updates newer than the
// last read. A read at exactly LastUpdated still counts as unread.
func (p *PullRequest) HasUnread() bool {
	return !p.LastRead.After(p.LastUpdated) && len(p.Updates) > 0
}

func (p *PullRequest) UnreadUpdates() []Update {
	if !p.HasUnread() {
		return nil
	}
	return p.Updates
}

func (p *PullRequest) MarkRead(at time.Time) {
	p.LastRead = at.UTC()
}

func (p *PullRequest) MarkUnread() {
	p.LastRead = p.LastUpdated.Add(-unreadMargin)
}

func (p *PullRequest) markUpdated(now time.Time) {
	p.LastUpdated = now.UTC()
}
