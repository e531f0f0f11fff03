package inbox

import (
	"fmt"
	"iter"
	"time"
)

// RawPullRequest is a pull request as listed by the remote API.
type RawPullRequest struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Author User   `json:"author"`
	Links  struct {
		HTML struct {
			Href string `json:"href"`
		} `json:"html"`
	} `json:"links"`
}

// RawActivity carries the fields of every activity kind. Approvals and
// updates are dated by Date, comments by CreatedOn. Approvals and comments
// name their author in User, updates in Author.
type RawActivity struct {
	Date      string `json:"date,omitempty"`
	CreatedOn string `json:"created_on,omitempty"`
	User      *User  `json:"user,omitempty"`
	Author    *User  `json:"author,omitempty"`
}

// RawEvent is one entry of a pull request activity feed. Exactly one of the
// kind fields is expected to be set.
type RawEvent struct {
	Approval *RawActivity `json:"approval,omitempty"`
	Comment  *RawActivity `json:"comment,omitempty"`
	Update   *RawActivity `json:"update,omitempty"`
}

func (e RawEvent) kind() (ActivityKind, *RawActivity, error) {
	var (
		kind  ActivityKind
		data  *RawActivity
		count int
	)
	if e.Approval != nil {
		kind, data = KindApproval, e.Approval
		count++
	}
	if e.Comment != nil {
		kind, data = KindComment, e.Comment
		count++
	}
	if e.Update != nil {
		kind, data = KindUpdate, e.Update
		count++
	}
	if count != 1 {
		return "", nil, fmt.Errorf("%w: event names %d activity kinds", ErrMalformedActivity, count)
	}
	return kind, data, nil
}

// dated resolves the kind and date of the event. The author is left to
// the caller so events past the read marker are never checked for one.
func (e RawEvent) dated() (ActivityKind, *RawActivity, time.Time, error) {
	kind, data, err := e.kind()
	if err != nil {
		return "", nil, time.Time{}, err
	}

	rawDate := data.Date
	if kind == KindComment {
		rawDate = data.CreatedOn
	}
	if rawDate == "" {
		return "", nil, time.Time{}, fmt.Errorf("%w: %s without date", ErrMalformedActivity, kind)
	}
	date, err := time.Parse(time.RFC3339Nano, rawDate)
	if err != nil {
		return "", nil, time.Time{}, fmt.Errorf("%w: %s date %q: %w", ErrMalformedActivity, kind, rawDate, err)
	}
	return kind, data, date.UTC(), nil
}

func author(kind ActivityKind, data *RawActivity) (User, error) {
	by := data.User
	if kind == KindUpdate {
		by = data.Author
	}
	if by == nil {
		return User{}, fmt.Errorf("%w: %s without author", ErrMalformedActivity, kind)
	}
	return *by, nil
}

// Classify turns a newest-first activity feed into the updates that matter
// to currentUser on a pull request authored by prAuthor.
//
// Iteration ends at the first event dated strictly before lastRead; nothing
// after it is examined, so an unordered feed loses updates. Self-authored
// events are skipped, and approvals are skipped unless currentUser authored
// the pull request. A malformed event yields ErrMalformedActivity and ends
// the sequence.
func Classify(events []RawEvent, currentUser, prAuthor string, lastRead time.Time) iter.Seq2[Update, error] {
	return func(yield func(Update, error) bool) {
		for _, ev := range events {
			kind, data, date, err := ev.dated()
			if err != nil {
				yield(Update{}, err)
				return
			}

			if date.Before(lastRead) {
				return
			}

			by, err := author(kind, data)
			if err != nil {
				yield(Update{}, err)
				return
			}

			if by.UUID == currentUser {
				continue
			}

			if kind == KindApproval && prAuthor != currentUser {
				continue
			}

			if !yield(Update{Date: date, Kind: kind, Author: by}, nil) {
				return
			}
		}
	}
}

// CollectUpdates drains a classified sequence into a fresh slice.
func CollectUpdates(seq iter.Seq2[Update, error]) ([]Update, error) {
	updates := []Update{}
	for u, err := range seq {
		if err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}
	return updates, nil
}
