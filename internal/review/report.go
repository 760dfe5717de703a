package review

import (
	"fmt"
	"strconv"
	"strings"
)

// NoFeedback is rendered when a classification carries no reviews or comments.
const NoFeedback = "No comments yet"

// FeedbackLines renders the details of a classification, one line per
// current review followed by one line per inline comment.
func FeedbackLines(c Classification) []string {
	lines := make([]string, 0, len(c.Reviews)+len(c.Comments))
	for _, r := range c.Reviews {
		lines = append(lines, fmt.Sprintf("%s (%s): %s", author(r.Author), r.State, body(r.Body)))
	}
	for _, cm := range c.Comments {
		lines = append(lines, fmt.Sprintf("%s [%s]: %s", author(cm.Author), Location(cm), body(cm.Body)))
	}
	if len(lines) == 0 {
		return []string{NoFeedback}
	}
	return lines
}

// Location returns "path:line" for a comment anchored to a line, or
// "general" otherwise.
func Location(c Comment) string {
	if c.Path == "" || c.Line <= 0 {
		return "general"
	}
	return c.Path + ":" + strconv.Itoa(c.Line)
}

func author(login string) string {
	if login == "" {
		return "unknown"
	}
	return login
}

func body(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(no comment)"
	}
	return s
}
