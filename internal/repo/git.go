package repo

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Git runs git commands in a working directory. Mutating operations shell
// out to the git binary so hooks, signing and credential helpers apply.
type Git struct {
	Dir string
}

// NewGit returns a Git rooted at dir.
func NewGit(dir string) *Git {
	return &Git{Dir: dir}
}

func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.Dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %s: %w", args[0], strings.TrimSpace(string(out)), err)
	}
	return string(out), nil
}

// Add stages the given paths.
func (g *Git) Add(ctx context.Context, files ...string) error {
	if len(files) == 0 {
		return fmt.Errorf("no files to stage")
	}
	_, err := g.run(ctx, append([]string{"add", "--"}, files...)...)
	return err
}

// StagedDiff returns the diff of the index against HEAD.
func (g *Git) StagedDiff(ctx context.Context) (string, error) {
	return g.run(ctx, "diff", "--staged")
}

// Commit records the staged changes. The message is passed through a
// temporary file so multi-line messages survive intact.
func (g *Git) Commit(ctx context.Context, message string) error {
	f, err := os.CreateTemp("", "shipit-commit-*.txt")
	if err != nil {
		return fmt.Errorf("creating commit message file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.WriteString(message); err != nil {
		f.Close()
		return fmt.Errorf("writing commit message: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing commit message file: %w", err)
	}

	_, err = g.run(ctx, "commit", "-F", f.Name())
	return err
}

// Push pushes branch to origin, setting upstream when requested.
func (g *Git) Push(ctx context.Context, branch string, setUpstream bool) error {
	args := []string{"push"}
	if setUpstream {
		args = append(args, "-u")
	}
	args = append(args, "origin", strings.TrimPrefix(branch, "refs/heads/"))
	_, err := g.run(ctx, args...)
	return err
}

// Checkout switches to branch, creating it from HEAD when create is set.
func (g *Git) Checkout(ctx context.Context, branch string, create bool) error {
	args := []string{"checkout"}
	if create {
		args = append(args, "-b")
	}
	args = append(args, branch)
	_, err := g.run(ctx, args...)
	return err
}

// CurrentBranch returns the checked-out branch, or "" on a detached HEAD.
func (g *Git) CurrentBranch(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "branch", "--show-current")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
