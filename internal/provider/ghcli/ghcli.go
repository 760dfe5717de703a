// Package ghcli implements a GitHub backend that borrows the gh CLI's
// authentication, host configuration and repository detection.
package ghcli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/cli/go-gh/v2/pkg/api"
	"github.com/cli/go-gh/v2/pkg/repository"
	graphql "github.com/cli/shurcooL-graphql"

	"github.com/alanmeadows/shipit/internal/provider"
	"github.com/alanmeadows/shipit/internal/review"
)

var linkRE = regexp.MustCompile(`<([^>]+)>;\s*rel="([^"]+)"`)

// Backend talks to GitHub through go-gh's REST and GraphQL clients.
type Backend struct {
	rest  *api.RESTClient
	gql   *api.GraphQLClient
	owner string
	repo  string
}

// NewBackend creates a backend using the gh CLI's stored credentials. When
// owner or repo is empty the repository is detected from GH_REPO or the
// git remotes of the working directory.
func NewBackend(owner, repo string) (*Backend, error) {
	if owner == "" || repo == "" {
		current, err := repository.Current()
		if err != nil {
			return nil, fmt.Errorf("failed to determine current repository: %w", err)
		}
		owner, repo = current.Owner, current.Name
	}

	rest, err := api.DefaultRESTClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create REST client: %w", err)
	}
	gql, err := api.DefaultGraphQLClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create GraphQL client: %w", err)
	}
	return &Backend{rest: rest, gql: gql, owner: owner, repo: repo}, nil
}

// NewBackendWithOptions creates a backend with explicit client options.
func NewBackendWithOptions(owner, repo string, opts api.ClientOptions) (*Backend, error) {
	rest, err := api.NewRESTClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create REST client: %w", err)
	}
	gql, err := api.NewGraphQLClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create GraphQL client: %w", err)
	}
	return &Backend{rest: rest, gql: gql, owner: owner, repo: repo}, nil
}

// Name returns "gh".
func (b *Backend) Name() string {
	return "gh"
}

// MatchesURL reports whether rawURL is a GitHub pull request URL.
func (b *Backend) MatchesURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Hostname(), "github.com")
}

// RepositoryIdentity returns the repository this backend is bound to.
func (b *Backend) RepositoryIdentity(_ context.Context) (provider.Repository, error) {
	r := provider.Repository{Owner: b.owner, Name: b.repo}
	if r.IsZero() {
		return r, fmt.Errorf("repository owner/name unknown")
	}
	return r, nil
}

// GetPullRequest fetches state, review decision and commits via GraphQL.
// A branch name resolves to the most recently updated pull request of any
// state with that head.
func (b *Backend) GetPullRequest(ctx context.Context, id string) (*provider.PullRequest, error) {
	owner, repo, number, err := b.parseRef(id)
	if err != nil {
		if provider.IsPullRequestRef(id) {
			return nil, err
		}
		number, err = b.latestForHead(ctx, id)
		if err != nil {
			return nil, err
		}
		owner, repo = b.owner, b.repo
	}

	var q struct {
		Repository struct {
			PullRequest struct {
				Number         int
				Title          string
				URL            string
				HeadRefName    string
				State          string
				ReviewDecision string
				Commits        struct {
					Nodes []struct {
						Commit struct {
							OID string `graphql:"oid"`
						}
					}
				} `graphql:"commits(last: $commits)"`
			} `graphql:"pullRequest(number: $number)"`
		} `graphql:"repository(owner: $owner, name: $repo)"`
	}
	variables := map[string]interface{}{
		"owner":   graphql.String(owner),
		"repo":    graphql.String(repo),
		"number":  graphql.Int(number),
		"commits": graphql.Int(100),
	}
	if err := b.gql.QueryWithContext(ctx, "PullRequestReviewState", &q, variables); err != nil {
		return nil, fmt.Errorf("failed to fetch pull request: %w", err)
	}

	p := q.Repository.PullRequest
	commits := make([]string, 0, len(p.Commits.Nodes))
	for _, n := range p.Commits.Nodes {
		commits = append(commits, n.Commit.OID)
	}
	return &provider.PullRequest{
		Repo:       provider.Repository{Owner: owner, Name: repo},
		Number:     p.Number,
		State:      review.State(p.State),
		Decision:   review.Decision(p.ReviewDecision),
		Commits:    commits,
		URL:        p.URL,
		HeadBranch: p.HeadRefName,
		Title:      p.Title,
	}, nil
}

type restUser struct {
	Login string `json:"login"`
}

type restReview struct {
	User     restUser `json:"user"`
	State    string   `json:"state"`
	Body     string   `json:"body"`
	CommitID string   `json:"commit_id"`
}

type restComment struct {
	User restUser `json:"user"`
	Body string   `json:"body"`
	Path string   `json:"path"`
	Line *int     `json:"line"`
}

type restPull struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	HTMLURL string `json:"html_url"`
	Head    struct {
		Ref string `json:"ref"`
		SHA string `json:"sha"`
	} `json:"head"`
}

// target falls back to the configured repository when repo is zero.
func (b *Backend) target(repo provider.Repository) provider.Repository {
	if repo.IsZero() {
		return provider.Repository{Owner: b.owner, Name: b.repo}
	}
	return repo
}

// ListReviews returns every review on the pull request, following pagination.
func (b *Backend) ListReviews(ctx context.Context, repo provider.Repository, number int) ([]review.Review, error) {
	repo = b.target(repo)
	path := fmt.Sprintf("repos/%s/%s/pulls/%d/reviews?per_page=100", repo.Owner, repo.Name, number)
	var reviews []review.Review
	err := b.paginate(ctx, path, func(dec *json.Decoder) error {
		var page []restReview
		if err := dec.Decode(&page); err != nil {
			return err
		}
		for _, r := range page {
			reviews = append(reviews, review.Review{
				Author:   r.User.Login,
				State:    review.SubmissionState(strings.ToUpper(r.State)),
				Body:     r.Body,
				CommitID: r.CommitID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reviews: %w", err)
	}
	return reviews, nil
}

// ListReviewComments returns the inline review comments, following pagination.
func (b *Backend) ListReviewComments(ctx context.Context, repo provider.Repository, number int) ([]review.Comment, error) {
	repo = b.target(repo)
	path := fmt.Sprintf("repos/%s/%s/pulls/%d/comments?per_page=100", repo.Owner, repo.Name, number)
	var comments []review.Comment
	err := b.paginate(ctx, path, func(dec *json.Decoder) error {
		var page []restComment
		if err := dec.Decode(&page); err != nil {
			return err
		}
		for _, c := range page {
			cm := review.Comment{Author: c.User.Login, Body: c.Body, Path: c.Path}
			if c.Line != nil {
				cm.Line = *c.Line
			}
			comments = append(comments, cm)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch review comments: %w", err)
	}
	return comments, nil
}

// FindPullRequestByBranch returns the open pull request whose head is branch.
func (b *Backend) FindPullRequestByBranch(ctx context.Context, branch string) (int, bool, error) {
	prs, err := b.listPulls(ctx, branch, "open")
	if err != nil {
		return 0, false, err
	}
	if len(prs) == 0 {
		return 0, false, nil
	}
	return prs[0].Number, true, nil
}

// CreatePullRequest opens a pull request from req.Head into req.Base.
func (b *Backend) CreatePullRequest(ctx context.Context, req provider.CreateRequest) (*provider.PullRequest, error) {
	body, err := json.Marshal(map[string]interface{}{
		"title": req.Title,
		"head":  req.Head,
		"base":  req.Base,
		"body":  req.Body,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	var pr restPull
	path := fmt.Sprintf("repos/%s/%s/pulls", b.owner, b.repo)
	if err := b.rest.DoWithContext(ctx, http.MethodPost, path, bytes.NewReader(body), &pr); err != nil {
		return nil, fmt.Errorf("failed to create pull request: %w", err)
	}
	return &provider.PullRequest{
		Repo:       provider.Repository{Owner: b.owner, Name: b.repo},
		Number:     pr.Number,
		State:      review.StateOpen,
		Commits:    []string{pr.Head.SHA},
		URL:        pr.HTMLURL,
		HeadBranch: pr.Head.Ref,
		Title:      pr.Title,
	}, nil
}

func (b *Backend) latestForHead(ctx context.Context, branch string) (int, error) {
	prs, err := b.listPulls(ctx, branch, "all")
	if err != nil {
		return 0, err
	}
	if len(prs) == 0 {
		return 0, fmt.Errorf("%w for branch %s", provider.ErrNoPullRequest, branch)
	}
	return prs[0].Number, nil
}

func (b *Backend) listPulls(ctx context.Context, branch, state string) ([]restPull, error) {
	q := url.Values{}
	q.Set("state", state)
	q.Set("head", b.owner+":"+branch)
	q.Set("sort", "updated")
	q.Set("direction", "desc")
	q.Set("per_page", "1")
	path := fmt.Sprintf("repos/%s/%s/pulls?%s", b.owner, b.repo, q.Encode())

	var prs []restPull
	if err := b.rest.DoWithContext(ctx, http.MethodGet, path, nil, &prs); err != nil {
		return nil, fmt.Errorf("failed to list pull requests for %s: %w", branch, err)
	}
	return prs, nil
}

// paginate GETs path and every page linked from it with rel="next".
func (b *Backend) paginate(ctx context.Context, path string, decode func(*json.Decoder) error) error {
	for page := 1; path != ""; page++ {
		resp, err := b.rest.RequestWithContext(ctx, http.MethodGet, path, nil)
		if err != nil {
			return err
		}
		err = decode(json.NewDecoder(resp.Body))
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to decode page %d: %w", page, err)
		}
		slog.Debug("gh api call", "path", path, "page", page)
		path = nextPage(resp)
	}
	return nil
}

func nextPage(resp *http.Response) string {
	for _, m := range linkRE.FindAllStringSubmatch(resp.Header.Get("Link"), -1) {
		if len(m) > 2 && m[2] == "next" {
			return m[1]
		}
	}
	return ""
}

// parseRef accepts a number, "owner/repo#N" or a pull request URL.
func (b *Backend) parseRef(id string) (owner, repo string, number int, err error) {
	if n, err := strconv.Atoi(id); err == nil {
		return b.owner, b.repo, n, nil
	}
	if before, after, ok := strings.Cut(id, "#"); ok {
		if o, r, ok := strings.Cut(before, "/"); ok {
			if n, err := strconv.Atoi(after); err == nil {
				return o, r, n, nil
			}
		}
	}
	if u, perr := url.Parse(id); perr == nil && u.Host != "" {
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) >= 4 && parts[2] == "pull" {
			if n, err := strconv.Atoi(parts[3]); err == nil {
				return parts[0], parts[1], n, nil
			}
		}
	}
	return "", "", 0, fmt.Errorf("could not parse PR identifier: %s", id)
}

var (
	_ provider.RemoteClient = (*Backend)(nil)
	_ provider.PRCreator    = (*Backend)(nil)
)
