package inbox

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated   = errors.New("not authenticated: configure credentials first")
	ErrTransport          = errors.New("remote request failed")
	ErrUnknownRepository  = errors.New("unknown repository")
	ErrUnknownPullRequest = errors.New("unknown pull request")
	ErrMalformedActivity  = errors.New("malformed activity")
)

func unknownRepository(name string) error {
	return fmt.Errorf("%w: %s", ErrUnknownRepository, name)
}

func unknownPullRequest(repo string, id int) error {
	return fmt.Errorf("%w: %s#%d", ErrUnknownPullRequest, repo, id)
}
