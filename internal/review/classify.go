package review

// Classify reduces a snapshot to a single outcome.
//
// A merged pull request is always OutcomeMerged. Otherwise the aggregate
// CHANGES_REQUESTED decision wins, followed by any submitted review on the
// head commit that is not backed by an aggregate approval. Reviews on older
// commits and draft reviews never count on their own.
func Classify(s *Snapshot) Classification {
	if s.State == StateMerged {
		return Classification{Outcome: OutcomeMerged}
	}

	current := CurrentReviews(s.Reviews, s.HeadCommit())

	if s.Decision == DecisionChangesRequested {
		return changesNeeded(current, s.Comments)
	}
	if len(current) > 0 && s.Decision != DecisionApproved {
		return changesNeeded(current, s.Comments)
	}
	return Classification{Outcome: OutcomePending}
}

// CurrentReviews returns the submitted reviews made against head. When head
// is empty the commit history is unknown and every submitted review is
// treated as current.
func CurrentReviews(reviews []Review, head string) []Review {
	var current []Review
	for _, r := range reviews {
		if r.State == SubmissionPending {
			continue
		}
		if head != "" && r.CommitID != head {
			continue
		}
		current = append(current, r)
	}
	return current
}

func changesNeeded(reviews []Review, comments []Comment) Classification {
	c := Classification{Outcome: OutcomeChangesNeeded}
	if len(reviews) > 0 {
		c.Reviews = append([]Review(nil), reviews...)
	}
	if len(comments) > 0 {
		c.Comments = append([]Comment(nil), comments...)
	}
	return c
}
