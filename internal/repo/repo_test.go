package repo

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initRepo creates a repository with one commit on main and the given origin.
func initRepo(t *testing.T, origin string) string {
	t.Helper()
	dir := t.TempDir()

	r, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName("main")},
	})
	require.NoError(t, err)

	if origin != "" {
		_, err = r.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{origin}})
		require.NoError(t, err)
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hi\n"), 0644))
	wt, err := r.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir
}

func TestOpenFromSubdirectory(t *testing.T) {
	dir := initRepo(t, "git@github.com:acme/widgets.git")
	sub := filepath.Join(dir, "backlog", "000001-auth")
	require.NoError(t, os.MkdirAll(sub, 0755))

	r, err := Open(sub)
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(r.Root())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestOpenNotARepo(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.Error(t, err)
}

func TestCurrentBranchAndExists(t *testing.T) {
	r, err := Open(initRepo(t, ""))
	require.NoError(t, err)

	branch, err := r.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "main", branch)

	assert.True(t, r.BranchExists("main"))
	assert.False(t, r.BranchExists("feature/nope"))
}

func TestIdentity(t *testing.T) {
	r, err := Open(initRepo(t, "https://github.com/acme/widgets.git"))
	require.NoError(t, err)

	owner, name, err := r.Identity()
	require.NoError(t, err)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "widgets", name)
}

func TestIdentityWithoutOrigin(t *testing.T) {
	r, err := Open(initRepo(t, ""))
	require.NoError(t, err)

	_, _, err = r.Identity()
	assert.ErrorIs(t, err, ErrNoOrigin)
}

func TestParseRemoteURL(t *testing.T) {
	tests := []struct {
		url   string
		owner string
		name  string
		err   bool
	}{
		{"git@github.com:acme/widgets.git", "acme", "widgets", false},
		{"https://github.com/acme/widgets", "acme", "widgets", false},
		{"https://github.com/acme/widgets/", "acme", "widgets", false},
		{"https://token@github.com/acme/widgets.git", "acme", "widgets", false},
		{"ssh://git@github.com:22/acme/widgets.git", "acme", "widgets", false},
		{"http://ghe.internal/team/service", "team", "service", false},
		{"github.com", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			owner, name, err := ParseRemoteURL(tt.url)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.owner, owner)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestNormalizeGitURLVariants(t *testing.T) {
	urls := []string{
		"https://github.com/org/repo",
		"https://github.com/org/repo.git",
		"git@github.com:org/repo.git",
		"ssh://git@github.com/org/repo",
	}
	for _, u := range urls {
		assert.Equal(t, "github.com/org/repo", normalizeGitURL(u), u)
	}
}

func TestGitCommitAndCheckout(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
	dir := initRepo(t, "")
	g := NewGit(dir)
	ctx := t.Context()

	for _, kv := range [][2]string{{"user.name", "Test"}, {"user.email", "test@example.com"}, {"commit.gpgsign", "false"}} {
		cmd := exec.Command("git", "config", kv[0], kv[1])
		cmd.Dir = dir
		require.NoError(t, cmd.Run())
	}

	require.NoError(t, g.Checkout(ctx, "feature/000001-auth", true))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "auth.go"), []byte("package auth\n"), 0644))
	require.NoError(t, g.Add(ctx, "auth.go"))

	diff, err := g.StagedDiff(ctx)
	require.NoError(t, err)
	assert.Contains(t, diff, "auth.go")

	require.NoError(t, g.Commit(ctx, "Add auth\n\nLonger body line."))

	r, err := Open(dir)
	require.NoError(t, err)
	branch, err := r.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "feature/000001-auth", branch)

	branch, err = g.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "feature/000001-auth", branch)

	out, err := g.run(ctx, "log", "-1", "--format=%B")
	require.NoError(t, err)
	assert.Contains(t, out, "Longer body line.")
}

func TestGitAddRequiresFiles(t *testing.T) {
	err := NewGit(t.TempDir()).Add(t.Context())
	assert.Error(t, err)
}
