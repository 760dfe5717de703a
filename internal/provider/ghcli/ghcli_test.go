package ghcli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/cli/go-gh/v2/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanmeadows/shipit/internal/provider"
	"github.com/alanmeadows/shipit/internal/review"
)

// redirect sends every request to the test server regardless of host.
type redirect struct {
	target *url.URL
}

func (r redirect) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = r.target.Scheme
	req.URL.Host = r.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func newTestBackend(t *testing.T, handler http.Handler) *Backend {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	target, err := url.Parse(server.URL)
	require.NoError(t, err)

	b, err := NewBackendWithOptions("testowner", "testrepo", api.ClientOptions{
		Host:      "ghe.example.com",
		AuthToken: "test-token",
		Transport: redirect{target: target},
	})
	require.NoError(t, err)
	return b
}

func TestName(t *testing.T) {
	assert.Equal(t, "gh", (&Backend{}).Name())
}

func TestMatchesURL(t *testing.T) {
	b := &Backend{}
	assert.True(t, b.MatchesURL("https://github.com/o/r/pull/1"))
	assert.False(t, b.MatchesURL("https://gitlab.com/o/r"))
}

func TestParseRef(t *testing.T) {
	b := &Backend{owner: "o", repo: "r"}

	owner, repo, n, err := b.parseRef("12")
	require.NoError(t, err)
	assert.Equal(t, []any{"o", "r", 12}, []any{owner, repo, n})

	owner, repo, n, err = b.parseRef("x/y#3")
	require.NoError(t, err)
	assert.Equal(t, []any{"x", "y", 3}, []any{owner, repo, n})

	owner, repo, n, err = b.parseRef("https://github.com/a/b/pull/77")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b", 77}, []any{owner, repo, n})

	_, _, _, err = b.parseRef("feature/login")
	assert.Error(t, err)
}

func TestGetPullRequest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/graphql", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req struct {
			Variables map[string]any `json:"variables"`
		}
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "testowner", req.Variables["owner"])
		assert.EqualValues(t, 9, req.Variables["number"])

		fmt.Fprint(w, `{"data":{"repository":{"pullRequest":{
			"number":9,"title":"t","url":"https://github.com/testowner/testrepo/pull/9",
			"headRefName":"feature/a","state":"OPEN","reviewDecision":"APPROVED",
			"commits":{"nodes":[{"commit":{"oid":"old"}},{"commit":{"oid":"new"}}]}}}}}`)
	})

	b := newTestBackend(t, mux)
	pr, err := b.GetPullRequest(t.Context(), "9")
	require.NoError(t, err)
	assert.Equal(t, 9, pr.Number)
	assert.Equal(t, review.StateOpen, pr.State)
	assert.Equal(t, review.DecisionApproved, pr.Decision)
	assert.Equal(t, []string{"old", "new"}, pr.Commits)
	assert.Equal(t, "feature/a", pr.HeadBranch)
}

func TestGetPullRequest_NullDecision(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/graphql", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"repository":{"pullRequest":{
			"number":3,"state":"OPEN","reviewDecision":null,"commits":{"nodes":[]}}}}}`)
	})

	b := newTestBackend(t, mux)
	pr, err := b.GetPullRequest(t.Context(), "3")
	require.NoError(t, err)
	assert.Equal(t, review.DecisionNone, pr.Decision)
}

func TestGetPullRequest_Branch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v3/repos/testowner/testrepo/pulls", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "all", r.URL.Query().Get("state"))
		assert.Equal(t, "testowner:feature/a", r.URL.Query().Get("head"))
		fmt.Fprint(w, `[{"number":4}]`)
	})
	mux.HandleFunc("POST /api/graphql", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"repository":{"pullRequest":{"number":4,"state":"MERGED","commits":{"nodes":[]}}}}}`)
	})

	b := newTestBackend(t, mux)
	pr, err := b.GetPullRequest(t.Context(), "feature/a")
	require.NoError(t, err)
	assert.Equal(t, 4, pr.Number)
	assert.Equal(t, review.StateMerged, pr.State)
}

func TestGetPullRequest_BranchWithoutPR(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v3/repos/testowner/testrepo/pulls", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})

	b := newTestBackend(t, mux)
	_, err := b.GetPullRequest(t.Context(), "feature/none")
	assert.ErrorIs(t, err, provider.ErrNoPullRequest)
}

func TestListReviews_FollowsLinkHeader(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v3/repos/testowner/testrepo/pulls/9/reviews", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "" {
			w.Header().Set("Link", `<https://ghe.example.com/api/v3/repos/testowner/testrepo/pulls/9/reviews?page=2>; rel="next"`)
			fmt.Fprint(w, `[{"user":{"login":"alice"},"state":"COMMENTED","body":"hm","commit_id":"old"}]`)
			return
		}
		fmt.Fprint(w, `[{"user":{"login":"bob"},"state":"approved","commit_id":"new"}]`)
	})

	b := newTestBackend(t, mux)
	reviews, err := b.ListReviews(t.Context(), provider.Repository{}, 9)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, review.Review{Author: "alice", State: review.SubmissionCommented, Body: "hm", CommitID: "old"}, reviews[0])
	assert.Equal(t, review.SubmissionApproved, reviews[1].State)
}

func TestListReviewComments(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v3/repos/testowner/testrepo/pulls/9/comments", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"user":{"login":"carol"},"body":"nit","path":"a.go","line":5},
			{"user":{"login":"dave"},"body":"outdated","path":"b.go","line":null}]`)
	})

	b := newTestBackend(t, mux)
	comments, err := b.ListReviewComments(t.Context(), provider.Repository{}, 9)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, review.Comment{Author: "carol", Body: "nit", Path: "a.go", Line: 5}, comments[0])
	assert.Equal(t, 0, comments[1].Line)
}

func TestSnapshot_ForeignRepositoryReference(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/graphql", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"repository":{"pullRequest":{
			"number":5,"state":"OPEN","reviewDecision":"CHANGES_REQUESTED",
			"commits":{"nodes":[{"commit":{"oid":"h1"}}]}}}}}`)
	})
	mux.HandleFunc("GET /api/v3/repos/otherorg/otherrepo/pulls/5/reviews", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"user":{"login":"erin"},"state":"CHANGES_REQUESTED","commit_id":"h1"}]`)
	})
	mux.HandleFunc("GET /api/v3/repos/otherorg/otherrepo/pulls/5/comments", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"user":{"login":"erin"},"body":"right pr","path":"a.go","line":2}]`)
	})
	mux.HandleFunc("/api/v3/repos/testowner/", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to configured repository: %s", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	})

	b := newTestBackend(t, mux)
	snap, err := provider.NewFetcher(b).Snapshot(t.Context(), "otherorg/otherrepo#5")
	require.NoError(t, err)
	require.Len(t, snap.Reviews, 1)
	assert.Equal(t, "erin", snap.Reviews[0].Author)
	require.Len(t, snap.Comments, 1)
	assert.Equal(t, "right pr", snap.Comments[0].Body)
}

func TestListReviews_HTTPError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v3/repos/testowner/testrepo/pulls/9/reviews", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"message":"bad gateway"}`)
	})

	b := newTestBackend(t, mux)
	_, err := b.ListReviews(t.Context(), provider.Repository{}, 9)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch reviews")
}

func TestFindPullRequestByBranch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v3/repos/testowner/testrepo/pulls", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "open", r.URL.Query().Get("state"))
		if r.URL.Query().Get("head") == "testowner:feature/a" {
			fmt.Fprint(w, `[{"number":11}]`)
			return
		}
		fmt.Fprint(w, `[]`)
	})

	b := newTestBackend(t, mux)
	n, found, err := b.FindPullRequestByBranch(t.Context(), "feature/a")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 11, n)

	_, found, err = b.FindPullRequestByBranch(t.Context(), "feature/b")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCreatePullRequest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v3/repos/testowner/testrepo/pulls", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "feature/a", body["head"])
		assert.Equal(t, "develop", body["base"])
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"number":12,"title":"T","html_url":"https://github.com/testowner/testrepo/pull/12","head":{"ref":"feature/a","sha":"s"}}`)
	})

	b := newTestBackend(t, mux)
	pr, err := b.CreatePullRequest(t.Context(), provider.CreateRequest{Title: "T", Body: "B", Head: "feature/a", Base: "develop"})
	require.NoError(t, err)
	assert.Equal(t, 12, pr.Number)
	assert.Equal(t, "https://github.com/testowner/testrepo/pull/12", pr.URL)
}

func TestRepositoryIdentity(t *testing.T) {
	id, err := (&Backend{owner: "o", repo: "r"}).RepositoryIdentity(t.Context())
	require.NoError(t, err)
	assert.Equal(t, provider.Repository{Owner: "o", Name: "r"}, id)
}
