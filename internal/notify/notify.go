// Package notify posts watch outcomes to a Teams (Power Automate) webhook
// as adaptive cards.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/alanmeadows/shipit/internal/config"
	"github.com/alanmeadows/shipit/internal/watch"
)

// Event names a terminal watch outcome. Values match watch.Status strings
// so they can be listed in the notifications.events config.
type Event string

const (
	EventMerged        Event = "merged"
	EventChangesNeeded Event = "changes_needed"
	EventError         Event = "error"
	EventInterrupted   Event = "interrupted"
)

// Payload carries details about a notification event.
type Payload struct {
	Event    Event
	Title    string
	URL      string
	Repo     string
	Decision string
	Polls    int
	Feedback int
	Error    string
}

// FromResult builds a payload from a finished watch session.
func FromResult(res watch.Result, repo string) Payload {
	p := Payload{
		Event: Event(res.Status.String()),
		Title: "PR " + res.ID,
		Repo:  repo,
		Polls: res.Iterations,
	}
	if res.ID == "" {
		p.Title = res.Identifier
	}
	if res.Snapshot != nil {
		p.URL = res.Snapshot.URL
		p.Decision = res.Snapshot.Decision.String()
	}
	if res.Status == watch.StatusChangesNeeded {
		p.Feedback = len(res.Classification.Reviews) + len(res.Classification.Comments)
	}
	if res.Err != nil {
		p.Error = res.Err.Error()
	}
	return p
}

// Notifier sends payloads to a webhook.
type Notifier struct {
	webhookURL string
	events     []string
	client     *http.Client
}

// New returns a Notifier for cfg. A Notifier with no webhook is a no-op.
func New(cfg config.NotificationsConfig) *Notifier {
	return &Notifier{
		webhookURL: cfg.TeamsWebhookURL,
		events:     cfg.Events,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

// Enabled reports whether a webhook is configured.
func (n *Notifier) Enabled() bool {
	return n.webhookURL != ""
}

// Send posts payload to the webhook. Returns nil immediately if no webhook
// is configured or the event is filtered out. An empty events list allows
// every event.
func (n *Notifier) Send(ctx context.Context, payload Payload) error {
	if !n.Enabled() {
		return nil
	}
	if len(n.events) > 0 && !slices.Contains(n.events, string(payload.Event)) {
		slog.Debug("notification event filtered out", "event", string(payload.Event))
		return nil
	}

	body, err := json.Marshal(buildAdaptiveCard(payload))
	if err != nil {
		return fmt.Errorf("marshaling notification payload: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	slog.Debug("sending notification", "event", string(payload.Event), "title", payload.Title)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification webhook returned status %d: %s", resp.StatusCode, string(respBody))
	}

	slog.Debug("notification sent", "event", string(payload.Event))
	return nil
}

func header(e Event) string {
	switch e {
	case EventMerged:
		return "✅ PR Merged"
	case EventChangesNeeded:
		return "📝 Changes Needed"
	case EventError:
		return "❌ Watch Failed"
	case EventInterrupted:
		return "⏹ Watch Interrupted"
	default:
		return string(e)
	}
}

// buildAdaptiveCard wraps an adaptive card in the Power Automate envelope.
func buildAdaptiveCard(p Payload) map[string]any {
	facts := []map[string]any{}
	addFact := func(title, value string) {
		if value != "" {
			facts = append(facts, map[string]any{"title": title, "value": value})
		}
	}
	addFact("Pull Request", p.Title)
	addFact("Repository", p.Repo)
	addFact("Decision", p.Decision)
	if p.Polls > 0 {
		addFact("Polls", fmt.Sprintf("%d", p.Polls))
	}
	if p.Feedback > 0 {
		addFact("Feedback Items", fmt.Sprintf("%d", p.Feedback))
	}

	cardBody := []map[string]any{
		{
			"type":   "TextBlock",
			"size":   "Medium",
			"weight": "Bolder",
			"text":   header(p.Event),
		},
	}
	if len(facts) > 0 {
		cardBody = append(cardBody, map[string]any{
			"type":  "FactSet",
			"facts": facts,
		})
	}
	if p.Error != "" {
		cardBody = append(cardBody, map[string]any{
			"type":   "TextBlock",
			"text":   fmt.Sprintf("⚠️ %s", p.Error),
			"color":  "Attention",
			"wrap":   true,
			"weight": "Bolder",
		})
	}

	card := map[string]any{
		"$schema": "http://adaptivecards.io/schemas/adaptive-card.json",
		"type":    "AdaptiveCard",
		"version": "1.4",
		"body":    cardBody,
	}
	if p.URL != "" {
		card["actions"] = []map[string]any{{
			"type":  "Action.OpenUrl",
			"title": "Open",
			"url":   p.URL,
		}}
	}

	return map[string]any{
		"type": "message",
		"attachments": []map[string]any{
			{
				"contentType": "application/vnd.microsoft.card.adaptive",
				"content":     card,
			},
		},
	}
}
