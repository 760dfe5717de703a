// Package watch polls a pull request until its review state becomes
// actionable: merged, or changes needed.
package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/alanmeadows/shipit/internal/review"
)

// DefaultInterval is the pause between polls when none is configured.
const DefaultInterval = 30 * time.Second

const prefix = "[shipit]"

var bannerStyle = lipgloss.NewStyle().Bold(true)

// Source resolves identifiers and fetches review snapshots.
// *provider.Fetcher implements it.
type Source interface {
	Resolve(ctx context.Context, identifier string) (string, error)
	Snapshot(ctx context.Context, id string) (*review.Snapshot, error)
}

// Status is how a watch session ended.
type Status int

const (
	StatusMerged Status = iota
	StatusChangesNeeded
	StatusError
	StatusInterrupted
)

func (s Status) String() string {
	switch s {
	case StatusMerged:
		return "merged"
	case StatusChangesNeeded:
		return "changes_needed"
	case StatusError:
		return "error"
	case StatusInterrupted:
		return "interrupted"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is the terminal outcome of Driver.Run.
type Result struct {
	Status Status
	// Identifier is what the session was asked to watch; ID is what it
	// resolved to.
	Identifier string
	ID         string
	Iterations int
	// Snapshot is the last snapshot fetched, if any.
	Snapshot       *review.Snapshot
	Classification review.Classification
	Err            error
}

// ExitCode maps the result onto the process exit contract: 0 merged,
// 1 changes needed, 2 for errors and interruptions.
func (r Result) ExitCode() int {
	switch r.Status {
	case StatusMerged:
		return 0
	case StatusChangesNeeded:
		return 1
	default:
		return 2
	}
}

// Driver runs the fetch, classify, report, sleep loop for one pull request.
// A Driver holds no state between runs; independent sessions use separate
// Drivers.
type Driver struct {
	Source   Source
	Out      io.Writer
	Interval time.Duration

	// Now and Sleep default to the wall clock and a context-aware timer.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error

	// OnTerminal, if set, is called once with the final result.
	OnTerminal func(ctx context.Context, r Result)
}

// Run watches identifier until the pull request is merged, changes are
// needed, a fetch fails fatally or ctx is cancelled.
func (d *Driver) Run(ctx context.Context, identifier string) Result {
	r := d.run(ctx, identifier)
	r.Identifier = identifier
	if d.OnTerminal != nil {
		d.OnTerminal(context.WithoutCancel(ctx), r)
	}
	return r
}

func (d *Driver) run(ctx context.Context, identifier string) Result {
	interval := d.interval()
	d.printf("%s Starting for: %s", prefix, identifier)

	id, err := d.Source.Resolve(ctx, identifier)
	if err != nil {
		return d.fail(ctx, Result{}, err)
	}
	if id != identifier {
		d.printf("%s Watching PR #%s", prefix, id)
	}
	d.printf("%s Checking every %s", prefix, seconds(interval))
	d.printf("")

	res := Result{ID: id}
	urlShown := false
	for {
		res.Iterations++
		now := d.now().Format("15:04:05")

		snap, err := d.Source.Snapshot(ctx, id)
		if err != nil {
			return d.fail(ctx, res, err)
		}
		res.Snapshot = snap
		if !urlShown && snap.URL != "" {
			d.printf("%s URL: %s", prefix, snap.URL)
			urlShown = true
		}

		c := review.Classify(snap)
		res.Classification = c
		current := review.CurrentReviews(snap.Reviews, snap.HeadCommit())
		d.printf("[%s] Poll #%d: state=%s, decision=%s, reviews=%d/%d, comments=%d",
			now, res.Iterations, snap.State, snap.Decision, len(current), len(snap.Reviews), len(snap.Comments))

		switch c.Outcome {
		case review.OutcomeMerged:
			res.Status = StatusMerged
			d.printf("")
			d.printf("[%s] %s", now, bannerStyle.Render("PR MERGED!"))
			d.printf("%s Total polls: %d", prefix, res.Iterations)
			d.printf("%s Ready to proceed to next step", prefix)
			slog.Info("pull request merged", "pr", id, "polls", res.Iterations)
			return res

		case review.OutcomeChangesNeeded:
			res.Status = StatusChangesNeeded
			banner := "REVIEW SUBMITTED (on current commit)"
			if snap.Decision == review.DecisionChangesRequested {
				banner = "CHANGES REQUESTED"
			}
			d.printf("")
			d.printf("[%s] %s", now, bannerStyle.Render(banner))
			d.printf("")
			d.printf("Review comments:")
			for _, line := range review.FeedbackLines(c) {
				d.printf("%s", line)
			}
			d.printf("")
			d.printf("%s Address the feedback, push, and watch again", prefix)
			slog.Info("changes needed", "pr", id, "polls", res.Iterations,
				"reviews", len(c.Reviews), "comments", len(c.Comments))
			return res
		}

		d.printf("  Status: %s", statusHint(snap.Decision))
		d.printf("  Sleeping %s until next check...", seconds(interval))

		if err := d.sleep(ctx, interval); err != nil {
			return d.interrupted(res, err)
		}
	}
}

// fail terminates the session after a resolution or fetch error. A
// cancelled context turns the failure into an interruption.
func (d *Driver) fail(ctx context.Context, res Result, err error) Result {
	if ctx.Err() != nil {
		return d.interrupted(res, ctx.Err())
	}
	res.Status = StatusError
	res.Err = err
	slog.Error("watch failed", "iterations", res.Iterations, "error", err)
	return res
}

func (d *Driver) interrupted(res Result, err error) Result {
	res.Status = StatusInterrupted
	res.Err = err
	d.printf("")
	d.printf("%s Interrupted after %d polls", prefix, res.Iterations)
	slog.Warn("watch interrupted", "iterations", res.Iterations, "error", err)
	return res
}

func statusHint(decision review.Decision) string {
	switch decision {
	case review.DecisionApproved:
		return "PR approved, waiting for merge..."
	case review.DecisionNone:
		return "Waiting for review..."
	default:
		return string(decision)
	}
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%ds", int(d/time.Second))
}

func (d *Driver) interval() time.Duration {
	if d.Interval <= 0 {
		return DefaultInterval
	}
	return d.Interval
}

func (d *Driver) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Driver) sleep(ctx context.Context, dur time.Duration) error {
	if d.Sleep != nil {
		return d.Sleep(ctx, dur)
	}
	return SleepContext(ctx, dur)
}

// SleepContext blocks for d or until ctx is done, whichever comes first.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type flusher interface{ Flush() error }
type syncer interface{ Sync() error }

// printf writes one line and flushes it so progress is visible immediately.
func (d *Driver) printf(format string, args ...any) {
	if d.Out == nil {
		return
	}
	fmt.Fprintf(d.Out, format+"\n", args...)
	switch w := d.Out.(type) {
	case flusher:
		_ = w.Flush()
	case syncer:
		// Pipes and terminals reject fsync; the write itself is unbuffered.
		_ = w.Sync()
	}
}
