package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/alanmeadows/shipit/internal/config"
	"github.com/alanmeadows/shipit/internal/history"
	"github.com/alanmeadows/shipit/internal/notify"
	"github.com/alanmeadows/shipit/internal/provider"
	ghbackend "github.com/alanmeadows/shipit/internal/provider/github"
	"github.com/alanmeadows/shipit/internal/provider/ghcli"
	"github.com/alanmeadows/shipit/internal/repo"
	"github.com/alanmeadows/shipit/internal/watch"
)

// githubToken returns the configured token, falling back to `gh auth token`.
func githubToken(cfg *config.Config) string {
	if cfg.GitHub.Token != "" {
		return cfg.GitHub.Token
	}
	if out, err := exec.Command("gh", "auth", "token").Output(); err == nil {
		return strings.TrimSpace(string(out))
	}
	return ""
}

// repoIdentity returns owner/name from config, or from the origin remote of
// the current repository.
func repoIdentity(cfg *config.Config) (owner, name string) {
	owner, name = cfg.GitHub.Owner, cfg.GitHub.Repo
	if owner != "" && name != "" {
		return owner, name
	}
	r, err := repo.Open(".")
	if err != nil {
		slog.Debug("not in a git repository", "error", err)
		return owner, name
	}
	o, n, err := r.Identity()
	if err != nil {
		slog.Debug("could not read repository identity from origin", "error", err)
		return owner, name
	}
	if owner == "" {
		owner = o
	}
	if name == "" {
		name = n
	}
	return owner, name
}

// buildRegistry creates a provider registry with every backend that can be
// constructed in this environment.
func buildRegistry(cfg *config.Config) *provider.Registry {
	reg := provider.NewRegistry()
	owner, name := repoIdentity(cfg)

	reg.Register(ghbackend.NewBackend(owner, name, githubToken(cfg)))

	if b, err := ghcli.NewBackend(owner, name); err == nil {
		reg.Register(b)
	} else {
		slog.Debug("gh backend unavailable", "error", err)
	}

	return reg
}

// selectBackend returns the backend named by the provider config key.
func selectBackend(cfg *config.Config) (provider.RemoteClient, error) {
	name := cfg.Provider
	if name == "" {
		name = "github"
	}
	b, err := buildRegistry(cfg).Get(name)
	if err != nil {
		return nil, fmt.Errorf("selecting provider: %w", err)
	}
	return b, nil
}

// warnIdentity prints a warning when the backend cannot say which
// repository it talks to. The session continues regardless.
func warnIdentity(ctx context.Context, w io.Writer, client provider.RemoteClient) string {
	id, err := client.RepositoryIdentity(ctx)
	if err != nil || id.IsZero() {
		fmt.Fprintln(w, "[shipit] Warning: could not determine repository owner/name; PR URLs may be incomplete")
		return ""
	}
	return id.FullName()
}

// sessionHook returns a watch.Driver OnTerminal hook that records history
// and sends notifications. Failures are logged and never change the outcome.
func sessionHook(cfg *config.Config, repoName string, started time.Time) func(context.Context, watch.Result) {
	hist := history.New(config.ExpandHome(cfg.History.Dir))
	notifier := notify.New(cfg.Notifications)

	return func(ctx context.Context, r watch.Result) {
		rec := history.FromResult(r, repoName, started, time.Now())
		if name, err := hist.Save(ctx, rec); err != nil {
			slog.Warn("failed to record session history", "error", err)
		} else {
			slog.Debug("session recorded", "name", name, "dir", hist.Dir())
		}

		if err := notifier.Send(ctx, notify.FromResult(r, repoName)); err != nil {
			slog.Warn("failed to send notification", "error", err)
		}
	}
}
