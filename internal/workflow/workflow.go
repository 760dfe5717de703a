// Package workflow stages, commits and pushes changes, then either finishes
// locally (terminal review mode) or opens a pull request and watches it
// until review resolves (pr review mode).
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/alanmeadows/shipit/internal/config"
	"github.com/alanmeadows/shipit/internal/provider"
	"github.com/alanmeadows/shipit/internal/watch"
)

var (
	// ErrMissingPRDetails is returned in pr mode without a title and description.
	ErrMissingPRDetails = errors.New("--pr-title and --pr-description are required in pr review mode")
	// ErrUnknownReviewMode is returned for a review_mode other than terminal or pr.
	ErrUnknownReviewMode = errors.New("unknown review mode")
	// ErrNoPullRequest is returned when a pull request could be neither found nor created.
	ErrNoPullRequest = errors.New("could not create or find pull request")
)

// Git is the subset of git the workflow drives. *repo.Git implements it.
type Git interface {
	Add(ctx context.Context, files ...string) error
	StagedDiff(ctx context.Context) (string, error)
	Commit(ctx context.Context, message string) error
	Push(ctx context.Context, branch string, setUpstream bool) error
	Checkout(ctx context.Context, branch string, create bool) error
	CurrentBranch(ctx context.Context) (string, error)
}

// BranchFinder looks up an open pull request by head branch.
// provider.RemoteClient implements it.
type BranchFinder interface {
	FindPullRequestByBranch(ctx context.Context, branch string) (int, bool, error)
}

// ConfirmFunc asks the user whether to commit the staged diff.
type ConfirmFunc func(ctx context.Context, diff string) (bool, error)

// Options are the per-invocation inputs.
type Options struct {
	Files         []string
	CommitMessage string
	PRTitle       string
	PRDescription string
	Context       string
}

// Result describes what a workflow run did.
type Result struct {
	Mode      config.ReviewMode
	Committed bool
	Pushed    bool
	Branch    string
	PR        int
	Created   bool
	// Watch is set in pr mode once polling has finished.
	Watch *watch.Result
}

// ExitCode maps the result onto the process exit contract. A declined
// commit is 1; in pr mode the watch outcome decides.
func (r *Result) ExitCode() int {
	if r.Watch != nil {
		return r.Watch.ExitCode()
	}
	if !r.Committed {
		return 1
	}
	return 0
}

// Workflow runs commit and review for one set of files.
type Workflow struct {
	Config  config.WorkflowConfig
	Git     Git
	Finder  BranchFinder
	Creator provider.PRCreator
	Driver  *watch.Driver
	Confirm ConfirmFunc
	Out     io.Writer
}

const rule = "======================================================================"

// Run executes the workflow for opts.
func (w *Workflow) Run(ctx context.Context, opts Options) (*Result, error) {
	mode := w.Config.ReviewMode
	if mode == "" {
		mode = config.ReviewModeTerminal
	}
	if mode != config.ReviewModeTerminal && mode != config.ReviewModePR {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReviewMode, mode)
	}
	if mode == config.ReviewModePR && (opts.PRTitle == "" || opts.PRDescription == "") {
		return nil, ErrMissingPRDetails
	}

	contextLine := opts.Context
	if contextLine == "" {
		contextLine = "N/A"
	}
	w.printf("%s", rule)
	w.printf("SHIPIT - COMMIT AND REVIEW")
	w.printf("%s", rule)
	w.printf("")
	w.printf("Mode: %s", strings.ToUpper(string(mode)))
	w.printf("Context: %s", contextLine)
	w.printf("Files: %d", len(opts.Files))

	w.printf("")
	w.printf("[STAGING] Adding %d file(s)...", len(opts.Files))
	for _, f := range opts.Files {
		w.printf("  - %s", f)
	}
	if err := w.Git.Add(ctx, opts.Files...); err != nil {
		return nil, fmt.Errorf("staging files: %w", err)
	}

	res := &Result{Mode: mode}
	if mode == config.ReviewModeTerminal {
		return res, w.runTerminal(ctx, opts, res)
	}
	return res, w.runPR(ctx, opts, res)
}

func (w *Workflow) runTerminal(ctx context.Context, opts Options, res *Result) error {
	diff, err := w.Git.StagedDiff(ctx)
	if err != nil {
		return fmt.Errorf("reading staged diff: %w", err)
	}

	w.printf("")
	w.printf("%s", rule)
	w.printf("CHANGES TO COMMIT:")
	w.printf("%s", rule)
	w.write(diff)
	w.printf("%s", rule)

	ok, err := w.confirm(ctx, diff)
	if err != nil {
		return fmt.Errorf("confirming commit: %w", err)
	}
	if !ok {
		w.printf("")
		w.printf("Commit cancelled by user")
		slog.Info("commit declined")
		return nil
	}

	if err := w.commit(ctx, opts.CommitMessage); err != nil {
		return err
	}
	res.Committed = true

	if w.Config.IsAutoPush() {
		branch, err := w.Git.CurrentBranch(ctx)
		if err != nil {
			return fmt.Errorf("reading current branch: %w", err)
		}
		res.Branch = branch
		if err := w.push(ctx, branch, false); err != nil {
			return err
		}
		res.Pushed = true
	}

	w.printf("")
	w.printf("Complete (terminal mode)")
	return nil
}

func (w *Workflow) runPR(ctx context.Context, opts Options, res *Result) error {
	current, err := w.Git.CurrentBranch(ctx)
	if err != nil {
		return fmt.Errorf("reading current branch: %w", err)
	}
	branch := DetermineBranch(current, opts.Files)
	res.Branch = branch

	if err := w.checkout(ctx, current, branch); err != nil {
		return err
	}
	if err := w.commit(ctx, opts.CommitMessage); err != nil {
		return err
	}
	res.Committed = true

	if err := w.push(ctx, branch, true); err != nil {
		return err
	}
	res.Pushed = true

	number, created, err := w.ensurePullRequest(ctx, branch, opts)
	if err != nil {
		return err
	}
	res.PR = number
	res.Created = created

	if w.Driver == nil {
		return nil
	}
	w.printf("")
	wr := w.Driver.Run(ctx, strconv.Itoa(number))
	res.Watch = &wr
	return nil
}

func (w *Workflow) checkout(ctx context.Context, current, branch string) error {
	if current == branch {
		w.printf("[BRANCH] Already on %s", branch)
		return nil
	}
	err := w.Git.Checkout(ctx, branch, false)
	if err == nil {
		w.printf("[BRANCH] Switched to existing branch: %s", branch)
		return nil
	}
	slog.Debug("checkout of existing branch failed, creating", "branch", branch, "error", err)

	w.printf("[BRANCH] Creating new branch: %s", branch)
	if err := w.Git.Checkout(ctx, branch, true); err != nil {
		return fmt.Errorf("creating branch %s: %w", branch, err)
	}
	return nil
}

func (w *Workflow) commit(ctx context.Context, message string) error {
	w.printf("")
	w.printf("[COMMIT] Creating commit...")
	if err := w.Git.Commit(ctx, message); err != nil {
		return fmt.Errorf("creating commit: %w", err)
	}
	w.printf("Commit created")
	return nil
}

func (w *Workflow) push(ctx context.Context, branch string, setUpstream bool) error {
	w.printf("")
	w.printf("[PUSH] Pushing to origin/%s...", branch)
	if err := w.Git.Push(ctx, branch, setUpstream); err != nil {
		return fmt.Errorf("pushing %s: %w", branch, err)
	}
	w.printf("Pushed to remote")
	return nil
}

// ensurePullRequest returns the open pull request for branch, creating one
// against the configured base branch when none exists.
func (w *Workflow) ensurePullRequest(ctx context.Context, branch string, opts Options) (int, bool, error) {
	if w.Finder != nil {
		number, found, err := w.Finder.FindPullRequestByBranch(ctx, branch)
		if err != nil {
			slog.Warn("looking up existing pull request failed", "branch", branch, "error", err)
		} else if found {
			w.printf("")
			w.printf("[PR] PR #%d already exists for this branch", number)
			w.printf("[PR] Pushing updates to existing PR...")
			return number, false, nil
		}
	}

	if w.Creator == nil {
		return 0, false, fmt.Errorf("%w: backend cannot create pull requests", ErrNoPullRequest)
	}

	w.printf("")
	w.printf("[PR] Creating new pull request...")
	base := w.Config.BaseBranch
	if base == "" {
		base = "main"
	}
	pr, err := w.Creator.CreatePullRequest(ctx, provider.CreateRequest{
		Title: opts.PRTitle,
		Body:  opts.PRDescription,
		Head:  branch,
		Base:  base,
	})
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", ErrNoPullRequest, err)
	}
	if pr == nil || pr.Number == 0 {
		return 0, false, ErrNoPullRequest
	}
	w.printf("Pull request created: %s", pr.URL)
	slog.Info("pull request created", "number", pr.Number, "branch", branch, "base", base)
	return pr.Number, true, nil
}

func (w *Workflow) confirm(ctx context.Context, diff string) (bool, error) {
	if w.Confirm != nil {
		return w.Confirm(ctx, diff)
	}
	return PromptConfirm(ctx, diff)
}

// PromptConfirm asks on the terminal whether to commit. Aborting the prompt
// counts as a decline.
func PromptConfirm(ctx context.Context, _ string) (bool, error) {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Commit these changes?").
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	)
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

func (w *Workflow) printf(format string, args ...any) {
	if w.Out == nil {
		return
	}
	fmt.Fprintf(w.Out, format+"\n", args...)
}

func (w *Workflow) write(s string) {
	if w.Out == nil || s == "" {
		return
	}
	io.WriteString(w.Out, s)
	if !strings.HasSuffix(s, "\n") {
		io.WriteString(w.Out, "\n")
	}
}
