// Package history records the outcome of each watch session as a markdown
// document with YAML frontmatter.
package history

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/alanmeadows/shipit/internal/review"
	"github.com/alanmeadows/shipit/internal/store"
	"github.com/alanmeadows/shipit/internal/watch"
)

// Record is one finished watch session.
type Record struct {
	Name       string
	Identifier string
	PR         string
	Repo       string
	URL        string
	Status     string
	Decision   string
	Iterations int
	StartedAt  time.Time
	FinishedAt time.Time
	Error      string
	Feedback   []string
}

// Duration returns how long the session ran.
func (r Record) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// FromResult builds a Record from a watch result.
func FromResult(res watch.Result, repo string, started, finished time.Time) Record {
	rec := Record{
		Identifier: res.Identifier,
		PR:         res.ID,
		Repo:       repo,
		Status:     res.Status.String(),
		Iterations: res.Iterations,
		StartedAt:  started,
		FinishedAt: finished,
	}
	if rec.PR == "" {
		rec.PR = res.Identifier
	}
	if res.Snapshot != nil {
		rec.URL = res.Snapshot.URL
		rec.Decision = res.Snapshot.Decision.String()
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	if res.Status == watch.StatusChangesNeeded {
		rec.Feedback = review.FeedbackLines(res.Classification)
	}
	return rec
}

// History is a directory of session records.
type History struct {
	store *store.Store
}

// New returns a History stored under dir.
func New(dir string) *History {
	return &History{store: store.New(dir)}
}

// Dir returns the directory records are written to.
func (h *History) Dir() string {
	return h.store.Dir()
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func recordName(rec Record) string {
	ts := rec.FinishedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	id := strings.Trim(unsafeChars.ReplaceAllString(rec.PR, "-"), "-")
	if id == "" {
		id = "unknown"
	}
	return ts.UTC().Format("20060102T150405Z") + "-pr-" + id
}

// Save writes rec and returns the name it was stored under.
func (h *History) Save(ctx context.Context, rec Record) (string, error) {
	name := recordName(rec)
	fm := map[string]any{
		"identifier": rec.Identifier,
		"pr":         rec.PR,
		"status":     rec.Status,
		"iterations": rec.Iterations,
		"finished":   store.FormatTime(rec.FinishedAt),
	}
	if !rec.StartedAt.IsZero() {
		fm["started"] = store.FormatTime(rec.StartedAt)
	}
	if rec.Repo != "" {
		fm["repo"] = rec.Repo
	}
	if rec.URL != "" {
		fm["url"] = rec.URL
	}
	if rec.Decision != "" {
		fm["decision"] = rec.Decision
	}
	if rec.Error != "" {
		fm["error"] = rec.Error
	}
	if len(rec.Feedback) > 0 {
		fm["feedback"] = rec.Feedback
	}

	doc := &store.Document{Frontmatter: fm, Body: renderBody(rec)}
	if err := h.store.Put(ctx, name, doc); err != nil {
		return "", fmt.Errorf("saving history record: %w", err)
	}
	return name, nil
}

func renderBody(rec Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# PR %s: %s\n\n", rec.PR, rec.Status)
	fmt.Fprintf(&b, "Watched `%s` for %d polls.\n", rec.Identifier, rec.Iterations)
	if rec.Error != "" {
		fmt.Fprintf(&b, "\nError: %s\n", rec.Error)
	}
	if len(rec.Feedback) > 0 {
		b.WriteString("\n## Feedback\n\n")
		for _, line := range rec.Feedback {
			fmt.Fprintf(&b, "- %s\n", strings.TrimSpace(line))
		}
	}
	return b.String()
}

// Get reads a single record by name.
func (h *History) Get(ctx context.Context, name string) (Record, error) {
	doc, err := h.store.Get(ctx, name)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Name:       name,
		Identifier: doc.String("identifier"),
		PR:         doc.String("pr"),
		Repo:       doc.String("repo"),
		URL:        doc.String("url"),
		Status:     doc.String("status"),
		Decision:   doc.String("decision"),
		Iterations: doc.Int("iterations"),
		StartedAt:  doc.Time("started"),
		FinishedAt: doc.Time("finished"),
		Error:      doc.String("error"),
		Feedback:   doc.Strings("feedback"),
	}, nil
}

// List returns up to limit records, newest first. A limit <= 0 returns all.
func (h *History) List(ctx context.Context, limit int) ([]Record, error) {
	names, err := h.store.List()
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}

	records := make([]Record, 0, len(names))
	for _, name := range names {
		rec, err := h.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
