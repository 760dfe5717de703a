package provider

import (
	"errors"
	"fmt"
)

// ErrNoPullRequest is returned when a branch has no matching pull request.
var ErrNoPullRequest = errors.New("no pull request found")

// ResolutionError reports that an identifier could not be mapped to a pull
// request, neither by branch lookup nor by the direct fallback.
type ResolutionError struct {
	Identifier string
	Cause      error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving pull request %q: %v", e.Identifier, e.Cause)
}

func (e *ResolutionError) Unwrap() error { return e.Cause }

// FetchError reports that the core state of a pull request could not be
// fetched. It is fatal for the current poll.
type FetchError struct {
	ID    string
	Cause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching pull request %s: %v", e.ID, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }
