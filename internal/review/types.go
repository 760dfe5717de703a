// Package review reconciles the review signals of a pull request into a
// single actionable classification. Nothing in this package performs I/O.
package review

// State is the lifecycle state of a pull request.
type State string

const (
	StateOpen   State = "OPEN"
	StateMerged State = "MERGED"
	StateClosed State = "CLOSED"
)

// Decision is the hosting platform's aggregate review verdict. The empty
// value means no decision has been recorded; platforms may report other
// values (e.g. REVIEW_REQUIRED) which are carried through verbatim.
type Decision string

const (
	DecisionNone             Decision = ""
	DecisionApproved         Decision = "APPROVED"
	DecisionChangesRequested Decision = "CHANGES_REQUESTED"
	DecisionReviewRequired   Decision = "REVIEW_REQUIRED"
)

// String returns the decision, or "NONE" when no decision is recorded.
func (d Decision) String() string {
	if d == DecisionNone {
		return "NONE"
	}
	return string(d)
}

// SubmissionState is the state of an individual review submission.
type SubmissionState string

const (
	// SubmissionPending is an unsubmitted draft review. It is never a signal.
	SubmissionPending          SubmissionState = "PENDING"
	SubmissionCommented        SubmissionState = "COMMENTED"
	SubmissionApproved         SubmissionState = "APPROVED"
	SubmissionChangesRequested SubmissionState = "CHANGES_REQUESTED"
	SubmissionDismissed        SubmissionState = "DISMISSED"
)

// Review is a formal review submission on a pull request.
type Review struct {
	Author string
	State  SubmissionState
	Body   string
	// CommitID is the commit the reviewer was looking at.
	CommitID string
}

// Comment is an inline review comment. Comments carry no commit reference
// and are always attributed to the snapshot they were fetched with.
type Comment struct {
	Author string
	Body   string
	// Path is empty for comments not attached to a file.
	Path string
	// Line is 0 when the comment is not attached to a line.
	Line int
}

// Snapshot is the review state of one pull request at one point in time.
type Snapshot struct {
	Number   int
	URL      string
	State    State
	Decision Decision
	// Commits holds commit ids oldest first; the last one is the head.
	Commits  []string
	Reviews  []Review
	Comments []Comment
}

// HeadCommit returns the most recent commit of the pull request, or "" when
// the commit history is unknown.
func (s *Snapshot) HeadCommit() string {
	if len(s.Commits) == 0 {
		return ""
	}
	return s.Commits[len(s.Commits)-1]
}

// Outcome is the result of classifying a snapshot.
type Outcome int

const (
	// OutcomePending means nothing actionable yet; keep waiting.
	OutcomePending Outcome = iota
	// OutcomeMerged means the pull request has been merged.
	OutcomeMerged
	// OutcomeChangesNeeded means reviewers have given feedback on the head commit.
	OutcomeChangesNeeded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMerged:
		return "merged"
	case OutcomeChangesNeeded:
		return "changes_needed"
	default:
		return "pending"
	}
}

// Classification is the engine's verdict for one snapshot. Reviews holds the
// current (non-draft, head-commit) reviews and Comments all inline comments;
// both are only populated for OutcomeChangesNeeded.
type Classification struct {
	Outcome  Outcome
	Reviews  []Review
	Comments []Comment
}
