package config

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Config is the top-level shipit configuration.
type Config struct {
	// Provider selects the remote backend: "github" or "gh".
	Provider      string              `json:"provider"`
	GitHub        GitHubConfig        `json:"github"`
	Watch         WatchConfig         `json:"watch"`
	Workflow      WorkflowConfig      `json:"workflow"`
	History       HistoryConfig       `json:"history"`
	Notifications NotificationsConfig `json:"notifications"`
}

// GitHubConfig holds GitHub settings. Owner and Repo default to the origin
// remote of the current repository.
type GitHubConfig struct {
	Owner string `json:"owner,omitempty"`
	Repo  string `json:"repo,omitempty"`
	Token string `json:"token,omitempty"`
}

// WatchConfig controls the review polling loop.
type WatchConfig struct {
	PollInterval Interval `json:"poll_interval"`
}

// Interval is a poll interval as written in config: a Go duration string
// ("45s") or a number of seconds, quoted or not.
type Interval string

// UnmarshalJSON accepts both JSON strings and numbers.
func (i *Interval) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*i = Interval(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*i = Interval(n.String())
	return nil
}

// DefaultPollInterval is used when poll_interval is unset or invalid.
const DefaultPollInterval = 30 * time.Second

// ParsePollInterval returns the poll interval as a time.Duration. Both Go
// durations ("45s") and bare seconds ("45") are accepted.
func (w WatchConfig) ParsePollInterval() time.Duration {
	s := strings.TrimSpace(string(w.PollInterval))
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return DefaultPollInterval
}

// ReviewMode selects how changes are reviewed after commit.
type ReviewMode string

const (
	// ReviewModeTerminal confirms the staged diff interactively and commits
	// in place.
	ReviewModeTerminal ReviewMode = "terminal"
	// ReviewModePR pushes a branch, opens a pull request and watches it.
	ReviewModePR ReviewMode = "pr"
)

// WorkflowConfig holds the commit/review workflow settings.
type WorkflowConfig struct {
	ReviewMode ReviewMode `json:"review_mode"`
	AutoPush   *bool      `json:"auto_push"`
	BaseBranch string     `json:"base_branch"`
}

// IsAutoPush reports whether terminal mode pushes after committing.
// Defaults to true when not explicitly set.
func (w WorkflowConfig) IsAutoPush() bool {
	if w.AutoPush == nil {
		return true
	}
	return *w.AutoPush
}

// HistoryConfig controls where session records are kept.
type HistoryConfig struct {
	Dir string `json:"dir"`
}

// NotificationsConfig holds notification settings.
type NotificationsConfig struct {
	TeamsWebhookURL string   `json:"teams_webhook_url"`
	Events          []string `json:"events"`
}

// boolPtr returns a pointer to the given bool value.
func boolPtr(b bool) *bool {
	return &b
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "github",
		Watch: WatchConfig{
			PollInterval: "30s",
		},
		Workflow: WorkflowConfig{
			ReviewMode: ReviewModeTerminal,
			AutoPush:   boolPtr(true),
			BaseBranch: "main",
		},
		History: HistoryConfig{
			Dir: "~/.local/share/shipit/history",
		},
	}
}
