package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/alanmeadows/shipit/internal/review"
)

// shortRefPattern matches "owner/repo#123".
var shortRefPattern = regexp.MustCompile(`^[^/\s]+/[^/\s#]+#\d+$`)

// Fetcher builds review snapshots from a RemoteClient. Failures of the core
// pull request call are fatal; failures listing reviews or comments degrade
// to empty lists because the aggregate decision already travels with the
// core call.
type Fetcher struct {
	client RemoteClient
}

// NewFetcher creates a Fetcher backed by client.
func NewFetcher(client RemoteClient) *Fetcher {
	return &Fetcher{client: client}
}

// Client returns the underlying remote client.
func (f *Fetcher) Client() RemoteClient {
	return f.client
}

// IsPullRequestRef reports whether id names a pull request directly (a
// number, "owner/repo#N" or a pull request URL) rather than a branch.
func IsPullRequestRef(id string) bool {
	if _, err := strconv.Atoi(id); err == nil {
		return true
	}
	if shortRefPattern.MatchString(id) {
		return true
	}
	u, err := url.Parse(id)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	return len(parts) >= 4 && (parts[2] == "pull" || parts[2] == "pullrequest")
}

// Resolve maps a user supplied identifier to one GetPullRequest accepts.
// Pull request references pass through untouched. Branch names are looked
// up among open pull requests; when none matches, the branch itself is
// tried as an identifier. That fallback depends on the backend and is only
// best effort.
func (f *Fetcher) Resolve(ctx context.Context, identifier string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", &ResolutionError{Identifier: identifier, Cause: fmt.Errorf("empty identifier")}
	}
	if IsPullRequestRef(identifier) {
		return identifier, nil
	}

	slog.Info("finding pull request for branch", "branch", identifier, "backend", f.client.Name())
	number, found, err := f.client.FindPullRequestByBranch(ctx, identifier)
	if err != nil {
		slog.Warn("branch lookup failed", "branch", identifier, "error", err)
	}
	if found {
		slog.Info("found pull request", "branch", identifier, "number", number)
		return strconv.Itoa(number), nil
	}

	slog.Warn("no open pull request for branch, trying branch name directly", "branch", identifier)
	pr, ferr := f.client.GetPullRequest(ctx, identifier)
	if ferr != nil {
		var cause error
		if err != nil {
			cause = fmt.Errorf("%w (lookup: %v, direct: %v)", ErrNoPullRequest, err, ferr)
		} else {
			cause = fmt.Errorf("%w (direct: %v)", ErrNoPullRequest, ferr)
		}
		return "", &ResolutionError{Identifier: identifier, Cause: cause}
	}
	slog.Info("branch name accepted as identifier", "branch", identifier, "number", pr.Number, "state", pr.State)
	return strconv.Itoa(pr.Number), nil
}

// Snapshot fetches the current review state of the pull request id.
func (f *Fetcher) Snapshot(ctx context.Context, id string) (*review.Snapshot, error) {
	pr, err := f.client.GetPullRequest(ctx, id)
	if err != nil {
		return nil, &FetchError{ID: id, Cause: err}
	}

	reviews, err := f.client.ListReviews(ctx, pr.Repo, pr.Number)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &FetchError{ID: id, Cause: ctx.Err()}
		}
		slog.Warn("failed to list reviews, continuing without them", "pr", pr.Number, "error", err)
		reviews = nil
	}

	comments, err := f.client.ListReviewComments(ctx, pr.Repo, pr.Number)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &FetchError{ID: id, Cause: ctx.Err()}
		}
		slog.Warn("failed to list review comments, continuing without them", "pr", pr.Number, "error", err)
		comments = nil
	}

	return &review.Snapshot{
		Number:   pr.Number,
		URL:      pr.URL,
		State:    pr.State,
		Decision: pr.Decision,
		Commits:  append([]string(nil), pr.Commits...),
		Reviews:  reviews,
		Comments: comments,
	}, nil
}
