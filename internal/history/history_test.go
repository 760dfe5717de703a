package history

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanmeadows/shipit/internal/review"
	"github.com/alanmeadows/shipit/internal/watch"
)

var (
	started  = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	finished = started.Add(90 * time.Second)
)

func TestFromResult_ChangesNeeded(t *testing.T) {
	res := watch.Result{
		Status:     watch.StatusChangesNeeded,
		Identifier: "feature/login",
		ID:         "12",
		Iterations: 4,
		Snapshot: &review.Snapshot{
			URL:      "https://github.com/acme/app/pull/12",
			Decision: review.DecisionChangesRequested,
		},
		Classification: review.Classification{
			Outcome: review.OutcomeChangesNeeded,
			Reviews: []review.Review{{Author: "alice", State: review.SubmissionChangesRequested, Body: "fix"}},
		},
	}

	rec := FromResult(res, "acme/app", started, finished)
	assert.Equal(t, "feature/login", rec.Identifier)
	assert.Equal(t, "12", rec.PR)
	assert.Equal(t, "changes_needed", rec.Status)
	assert.Equal(t, "CHANGES_REQUESTED", rec.Decision)
	assert.Equal(t, "https://github.com/acme/app/pull/12", rec.URL)
	assert.Equal(t, []string{"alice (CHANGES_REQUESTED): fix"}, rec.Feedback)
	assert.Equal(t, 90*time.Second, rec.Duration())
}

func TestFromResult_ErrorWithoutResolution(t *testing.T) {
	res := watch.Result{Status: watch.StatusError, Identifier: "ghost", Err: errors.New("no pull request")}

	rec := FromResult(res, "", started, finished)
	assert.Equal(t, "ghost", rec.PR)
	assert.Equal(t, "error", rec.Status)
	assert.Equal(t, "no pull request", rec.Error)
	assert.Empty(t, rec.Decision)
	assert.Nil(t, rec.Feedback)
}

func TestSaveAndGet(t *testing.T) {
	h := New(t.TempDir())
	rec := Record{
		Identifier: "feature/login",
		PR:         "12",
		Repo:       "acme/app",
		URL:        "https://github.com/acme/app/pull/12",
		Status:     "changes_needed",
		Decision:   "CHANGES_REQUESTED",
		Iterations: 4,
		StartedAt:  started,
		FinishedAt: finished,
		Feedback:   []string{"alice (CHANGES_REQUESTED): fix", "bob [main.go:3]: typo"},
	}

	name, err := h.Save(t.Context(), rec)
	require.NoError(t, err)
	assert.Equal(t, "20260304T100130Z-pr-12", name)

	got, err := h.Get(t.Context(), name)
	require.NoError(t, err)
	rec.Name = name
	assert.Equal(t, rec.Identifier, got.Identifier)
	assert.Equal(t, rec.Repo, got.Repo)
	assert.Equal(t, rec.URL, got.URL)
	assert.Equal(t, rec.Status, got.Status)
	assert.Equal(t, rec.Decision, got.Decision)
	assert.Equal(t, rec.Iterations, got.Iterations)
	assert.True(t, rec.StartedAt.Equal(got.StartedAt))
	assert.True(t, rec.FinishedAt.Equal(got.FinishedAt))
	assert.Equal(t, rec.Feedback, got.Feedback)

	data, err := os.ReadFile(filepath.Join(h.Dir(), name+".md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "# PR 12: changes_needed")
	assert.Contains(t, string(data), "- bob [main.go:3]: typo")
}

func TestSaveSanitizesName(t *testing.T) {
	h := New(t.TempDir())
	name, err := h.Save(t.Context(), Record{PR: "https://github.com/acme/app/pull/9", FinishedAt: finished})
	require.NoError(t, err)
	assert.Equal(t, "20260304T100130Z-pr-https-github-com-acme-app-pull-9", name)
}

func TestListNewestFirst(t *testing.T) {
	h := New(t.TempDir())
	for i, pr := range []string{"1", "2", "3"} {
		_, err := h.Save(t.Context(), Record{
			PR:         pr,
			Status:     "merged",
			FinishedAt: finished.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	all, err := h.List(t.Context(), 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "3", all[0].PR)
	assert.Equal(t, "1", all[2].PR)

	limited, err := h.List(t.Context(), 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "2", limited[1].PR)
}

func TestListEmpty(t *testing.T) {
	recs, err := New(filepath.Join(t.TempDir(), "none")).List(t.Context(), 10)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
