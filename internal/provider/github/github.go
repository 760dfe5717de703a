package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	github_ratelimit "github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/alanmeadows/shipit/internal/provider"
	"github.com/alanmeadows/shipit/internal/review"
)

// commitWindow is how many trailing commits the GraphQL query asks for.
// Only the last one (the head) matters for staleness filtering.
const commitWindow = 100

// Backend implements provider.RemoteClient and provider.PRCreator for GitHub.
// Lifecycle state, the aggregate review decision and the commit list come
// from GraphQL; reviews, comments and branch lookups use REST.
type Backend struct {
	client    *gh.Client
	gqlOnce   sync.Once
	gqlClient *githubv4.Client
	owner     string
	repo      string
	token     string
	gqlURL    string // override for testing
}

// NewBackend creates a new GitHub backend for the given owner/repo.
// REST calls go through the go-github-ratelimit middleware and an ETag
// cache. Every GET revalidates, so each poll reaches GitHub and unchanged
// pages come back as 304s.
func NewBackend(owner, repo, token string) *Backend {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimiter := github_ratelimit.NewClient(&revalidatingTransport{next: cacheTransport})
	client := gh.NewClient(rateLimiter).WithAuthToken(token)
	return &Backend{
		client: client,
		owner:  owner,
		repo:   repo,
		token:  token,
	}
}

// revalidatingTransport marks GET requests max-age=0 so httpcache treats
// its stored copy as stale and sends a conditional request. GitHub marks
// REST responses fresh for 60s, longer than a poll interval.
type revalidatingTransport struct {
	next http.RoundTripper
}

func (t *revalidatingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet || req.Header.Get("Cache-Control") != "" {
		return t.next.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("Cache-Control", "max-age=0")
	return t.next.RoundTrip(r)
}

// Name returns "github".
func (b *Backend) Name() string {
	return "github"
}

// MatchesURL returns true if the URL belongs to GitHub.
func (b *Backend) MatchesURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "github.com" || host == "www.github.com"
}

// RepositoryIdentity returns the configured owner/repo.
func (b *Backend) RepositoryIdentity(_ context.Context) (provider.Repository, error) {
	r := provider.Repository{Owner: b.owner, Name: b.repo}
	if r.IsZero() {
		return r, fmt.Errorf("repository owner/name not configured")
	}
	return r, nil
}

// pullRequestQuery reads the fields REST does not expose together,
// notably reviewDecision.
type pullRequestQuery struct {
	Repository struct {
		PullRequest struct {
			Number         int
			Title          string
			URL            string
			HeadRefName    string
			State          githubv4.PullRequestState
			ReviewDecision *githubv4.PullRequestReviewDecision
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

// GetPullRequest retrieves the core state of a pull request. id may be a
// number, "owner/repo#number", a pull request URL, or a head branch name;
// a branch resolves to the most recently updated pull request of any state
// with that head.
func (b *Backend) GetPullRequest(ctx context.Context, id string) (*provider.PullRequest, error) {
	parsed, err := b.parsePRIdentifier(id)
	if err != nil {
		if provider.IsPullRequestRef(id) {
			return nil, fmt.Errorf("could not parse PR identifier %q: %w", id, err)
		}
		parsed, err = b.latestForHead(ctx, id)
		if err != nil {
			return nil, err
		}
	}

	var q pullRequestQuery
	vars := map[string]any{
		"owner":   githubv4.String(parsed.Owner),
		"repo":    githubv4.String(parsed.Repo),
		"number":  githubv4.Int(parsed.Number),
		"commits": githubv4.Int(commitWindow),
	}
	if err := b.getGraphQLClient(ctx).Query(ctx, &q, vars); err != nil {
		return nil, fmt.Errorf("failed to get PR: %w", err)
	}

	pr := mapPullRequest(&q)
	pr.Repo = provider.Repository{Owner: parsed.Owner, Name: parsed.Repo}
	return pr, nil
}

// target returns repo, or the configured repository when repo is zero.
func (b *Backend) target(repo provider.Repository) provider.Repository {
	if repo.IsZero() {
		return provider.Repository{Owner: b.owner, Name: b.repo}
	}
	return repo
}

// ListReviews returns every review submitted on the pull request.
func (b *Backend) ListReviews(ctx context.Context, repo provider.Repository, number int) ([]review.Review, error) {
	repo = b.target(repo)
	var reviews []review.Review
	opts := &gh.ListOptions{PerPage: 100}
	for {
		page, resp, err := b.client.PullRequests.ListReviews(ctx, repo.Owner, repo.Name, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list reviews: %w", err)
		}
		logRateLimit(resp, repo.FullName()+"/reviews", opts.Page, len(page))
		for _, r := range page {
			reviews = append(reviews, mapReview(r))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return reviews, nil
}

// ListReviewComments returns the inline review comments on the pull request.
func (b *Backend) ListReviewComments(ctx context.Context, repo provider.Repository, number int) ([]review.Comment, error) {
	repo = b.target(repo)
	var comments []review.Comment
	opts := &gh.PullRequestListCommentsOptions{
		ListOptions: gh.ListOptions{PerPage: 100},
	}
	for {
		page, resp, err := b.client.PullRequests.ListComments(ctx, repo.Owner, repo.Name, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list review comments: %w", err)
		}
		logRateLimit(resp, repo.FullName()+"/comments", opts.Page, len(page))
		for _, c := range page {
			comments = append(comments, review.Comment{
				Author: c.GetUser().GetLogin(),
				Body:   c.GetBody(),
				Path:   c.GetPath(),
				Line:   c.GetLine(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return comments, nil
}

// FindPullRequestByBranch returns the open pull request whose head is branch.
func (b *Backend) FindPullRequestByBranch(ctx context.Context, branch string) (int, bool, error) {
	prs, resp, err := b.client.PullRequests.List(ctx, b.owner, b.repo, &gh.PullRequestListOptions{
		State:       "open",
		Head:        b.owner + ":" + branch,
		ListOptions: gh.ListOptions{PerPage: 1},
	})
	if err != nil {
		return 0, false, fmt.Errorf("failed to list pull requests for %s: %w", branch, err)
	}
	logRateLimit(resp, b.owner+"/"+b.repo+"/pulls", 0, len(prs))
	if len(prs) == 0 {
		return 0, false, nil
	}
	return prs[0].GetNumber(), true, nil
}

// CreatePullRequest opens a pull request from req.Head into req.Base.
func (b *Backend) CreatePullRequest(ctx context.Context, req provider.CreateRequest) (*provider.PullRequest, error) {
	pr, resp, err := b.client.PullRequests.Create(ctx, b.owner, b.repo, &gh.NewPullRequest{
		Title: gh.Ptr(req.Title),
		Head:  gh.Ptr(req.Head),
		Base:  gh.Ptr(req.Base),
		Body:  gh.Ptr(req.Body),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create PR: %w", err)
	}
	logRateLimit(resp, b.owner+"/"+b.repo+"/create-pull", 0, 1)

	return &provider.PullRequest{
		Repo:       provider.Repository{Owner: b.owner, Name: b.repo},
		Number:     pr.GetNumber(),
		State:      review.StateOpen,
		Commits:    []string{pr.GetHead().GetSHA()},
		URL:        pr.GetHTMLURL(),
		HeadBranch: pr.GetHead().GetRef(),
		Title:      pr.GetTitle(),
	}, nil
}

// --- Internal helpers ---

// prIdentifier is a fully qualified pull request reference.
type prIdentifier struct {
	Owner  string
	Repo   string
	Number int
}

// latestForHead finds the most recently updated pull request of any state
// whose head is branch.
func (b *Backend) latestForHead(ctx context.Context, branch string) (*prIdentifier, error) {
	prs, resp, err := b.client.PullRequests.List(ctx, b.owner, b.repo, &gh.PullRequestListOptions{
		State:       "all",
		Head:        b.owner + ":" + branch,
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pull requests for %s: %w", branch, err)
	}
	logRateLimit(resp, b.owner+"/"+b.repo+"/pulls", 0, len(prs))
	if len(prs) == 0 {
		return nil, fmt.Errorf("%w for branch %s", provider.ErrNoPullRequest, branch)
	}
	return &prIdentifier{Owner: b.owner, Repo: b.repo, Number: prs[0].GetNumber()}, nil
}

// parsePRIdentifier extracts owner, repo, and PR number from a string.
// Accepts bare numbers, "owner/repo#number", or full GitHub URLs.
func (b *Backend) parsePRIdentifier(id string) (*prIdentifier, error) {
	if num, err := strconv.Atoi(id); err == nil {
		return &prIdentifier{Owner: b.owner, Repo: b.repo, Number: num}, nil
	}

	if parts := strings.SplitN(id, "#", 2); len(parts) == 2 {
		ownerRepo := strings.SplitN(parts[0], "/", 2)
		if len(ownerRepo) == 2 {
			num, err := strconv.Atoi(parts[1])
			if err == nil {
				return &prIdentifier{Owner: ownerRepo[0], Repo: ownerRepo[1], Number: num}, nil
			}
		}
	}

	u, err := url.Parse(id)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid PR identifier: %s", id)
	}

	pathParts := strings.Split(strings.Trim(u.Path, "/"), "/")
	// {owner}/{repo}/pull/{number}
	if len(pathParts) >= 4 && pathParts[2] == "pull" {
		num, err := strconv.Atoi(pathParts[3])
		if err != nil {
			return nil, fmt.Errorf("invalid PR number in URL: %s", pathParts[3])
		}
		return &prIdentifier{Owner: pathParts[0], Repo: pathParts[1], Number: num}, nil
	}

	return nil, fmt.Errorf("could not parse PR identifier: %s", id)
}

// mapPullRequest converts the GraphQL result into provider.PullRequest.
func mapPullRequest(q *pullRequestQuery) *provider.PullRequest {
	p := q.Repository.PullRequest
	commits := make([]string, 0, len(p.Commits.Nodes))
	for _, n := range p.Commits.Nodes {
		commits = append(commits, n.Commit.OID)
	}
	var decision review.Decision
	if p.ReviewDecision != nil {
		decision = review.Decision(*p.ReviewDecision)
	}
	return &provider.PullRequest{
		Number:     p.Number,
		State:      review.State(p.State),
		Decision:   decision,
		Commits:    commits,
		URL:        p.URL,
		HeadBranch: p.HeadRefName,
		Title:      p.Title,
	}
}

// mapReview converts a REST review. GitHub already reports states in the
// upper-case form the review package uses.
func mapReview(r *gh.PullRequestReview) review.Review {
	return review.Review{
		Author:   r.GetUser().GetLogin(),
		State:    review.SubmissionState(strings.ToUpper(r.GetState())),
		Body:     r.GetBody(),
		CommitID: r.GetCommitID(),
	}
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// getGraphQLClient returns (and lazily creates) the GitHub GraphQL client.
// Thread-safe via sync.Once.
func (b *Backend) getGraphQLClient(ctx context.Context) *githubv4.Client {
	b.gqlOnce.Do(func() {
		var httpClient *http.Client
		if b.token != "" {
			ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: b.token})
			httpClient = oauth2.NewClient(ctx, ts)
		}
		if b.gqlURL != "" {
			b.gqlClient = githubv4.NewEnterpriseClient(b.gqlURL, httpClient)
			return
		}
		b.gqlClient = githubv4.NewClient(httpClient)
	})
	return b.gqlClient
}

var (
	_ provider.RemoteClient = (*Backend)(nil)
	_ provider.PRCreator    = (*Backend)(nil)
)
