package inbox

import "time"

// Reconcile computes the pull request set of a repository from the remote
// list of relevant pull requests. Known ids keep their existing object,
// including read state and updates; remote title or author changes are not
// applied. Unknown ids start fresh at now. Ids absent from remote are dropped.
func Reconcile(local map[int]*PullRequest, remote []RawPullRequest, now time.Time) map[int]*PullRequest {
	out := make(map[int]*PullRequest, len(remote))
	for _, raw := range remote {
		if pr, ok := local[raw.ID]; ok {
			out[raw.ID] = pr
			continue
		}
		if _, dup := out[raw.ID]; dup {
			continue
		}
		out[raw.ID] = NewPullRequest(raw, now)
	}
	return out
}
