package provider

import (
	"context"
	"errors"

	"github.com/alanmeadows/shipit/internal/review"
)

// ErrUnsupported is returned when a backend doesn't support a given operation.
var ErrUnsupported = errors.New("operation not supported by this backend")

// RemoteClient is the capability interface shipit needs from a code hosting
// platform. Implementations wrap a specific API (REST, GraphQL, gh auth) and
// map its payloads onto the review package's types.
//
//go:generate mockgen -destination=../../mocks/mock_remote_client.go -package=mocks . RemoteClient
type RemoteClient interface {
	// Name returns the short identifier for this backend (e.g., "github", "gh").
	Name() string

	// MatchesURL returns true if the given URL belongs to this backend's hosting service.
	MatchesURL(url string) bool

	// GetPullRequest returns the core state of a pull request: lifecycle
	// state, aggregate review decision and commit history. id is a number,
	// "owner/repo#number", a PR URL, or (best effort) a head branch name.
	GetPullRequest(ctx context.Context, id string) (*PullRequest, error)

	// ListReviews returns every review submission on pull request number
	// of repo. A zero repo means the backend's own repository.
	ListReviews(ctx context.Context, repo Repository, number int) ([]review.Review, error)

	// ListReviewComments returns the inline review comments on pull request
	// number of repo. A zero repo means the backend's own repository.
	ListReviewComments(ctx context.Context, repo Repository, number int) ([]review.Comment, error)

	// FindPullRequestByBranch looks up the open pull request whose head is
	// branch. found is false when there is none.
	FindPullRequestByBranch(ctx context.Context, branch string) (number int, found bool, err error)

	// RepositoryIdentity returns the repository the backend talks to.
	RepositoryIdentity(ctx context.Context) (Repository, error)
}

// PRCreator is implemented by backends that can open pull requests.
type PRCreator interface {
	CreatePullRequest(ctx context.Context, req CreateRequest) (*PullRequest, error)
}

// PullRequest is the core (non-enrichment) state of a pull request.
type PullRequest struct {
	// Repo is the repository the pull request belongs to.
	Repo Repository
	// Number is the pull request number within Repo.
	Number int
	// State is OPEN, MERGED or CLOSED.
	State review.State
	// Decision is the platform's aggregate review decision.
	Decision review.Decision
	// Commits lists commit ids oldest first. Backends may return only the head.
	Commits []string
	// URL is the web URL to view the pull request.
	URL string
	// HeadBranch is the branch being merged from.
	HeadBranch string
	// Title is the pull request title.
	Title string
}

// Repository identifies a hosted repository.
type Repository struct {
	Owner string
	Name  string
}

// FullName returns "owner/name".
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// IsZero reports whether the identity is unknown.
func (r Repository) IsZero() bool {
	return r.Owner == "" || r.Name == ""
}

// CreateRequest contains the data needed to open a pull request.
type CreateRequest struct {
	Title string
	Body  string
	// Head is the branch with the changes.
	Head string
	// Base is the branch to merge into.
	Base string
}
