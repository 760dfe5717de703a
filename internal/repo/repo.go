// Package repo inspects the local git repository: its root, the current
// branch and the hosted owner/name behind the origin remote.
package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ErrNoOrigin is returned when the repository has no origin remote.
var ErrNoOrigin = errors.New("no origin remote")

// Repo is an opened local git repository.
type Repo struct {
	root string
	repo *git.Repository
}

// Open opens the repository containing dir, walking up to find .git.
func Open(dir string) (*Repo, error) {
	r, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", dir, err)
	}
	wt, err := r.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open worktree: %w", err)
	}
	return &Repo{root: wt.Filesystem.Root(), repo: r}, nil
}

// Root returns the top-level directory of the working tree.
func (r *Repo) Root() string {
	return r.root
}

// CurrentBranch returns the short name of the checked-out branch.
func (r *Repo) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolving HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is detached at %s", head.Hash().String()[:7])
	}
	return head.Name().Short(), nil
}

// BranchExists reports whether a local branch named name exists.
func (r *Repo) BranchExists(name string) bool {
	_, err := r.repo.Reference(plumbing.NewBranchReferenceName(name), false)
	return err == nil
}

// OriginURL returns the first URL of the origin remote.
func (r *Repo) OriginURL() (string, error) {
	remote, err := r.repo.Remote("origin")
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return "", ErrNoOrigin
		}
		return "", fmt.Errorf("reading origin remote: %w", err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", ErrNoOrigin
	}
	return urls[0], nil
}

// Identity returns the owner and name of the hosted repository behind origin.
func (r *Repo) Identity() (owner, name string, err error) {
	u, err := r.OriginURL()
	if err != nil {
		return "", "", err
	}
	return ParseRemoteURL(u)
}

// ParseRemoteURL extracts owner and repository name from an SSH or HTTPS
// remote URL such as git@github.com:owner/repo.git or
// https://github.com/owner/repo.
func ParseRemoteURL(remote string) (owner, name string, err error) {
	path := normalizeGitURL(remote)
	// host/owner/name[/...]
	parts := strings.Split(path, "/")
	if len(parts) < 3 || parts[1] == "" || parts[2] == "" {
		return "", "", fmt.Errorf("cannot determine owner/repo from remote %q", remote)
	}
	return parts[1], parts[2], nil
}

// normalizeGitURL reduces a git URL to host/path form without scheme,
// user info, .git suffix or trailing slash.
func normalizeGitURL(url string) string {
	url = strings.TrimSpace(url)
	url = strings.TrimSuffix(url, "/")
	url = strings.TrimSuffix(url, ".git")

	// git@host:owner/repo -> host/owner/repo
	if strings.HasPrefix(url, "git@") {
		url = strings.TrimPrefix(url, "git@")
		url = strings.Replace(url, ":", "/", 1)
	}

	for _, scheme := range []string{"https://", "http://", "ssh://", "git://"} {
		url = strings.TrimPrefix(url, scheme)
	}
	if at := strings.Index(url, "@"); at >= 0 && at < strings.Index(url+"/", "/") {
		url = url[at+1:]
	}
	// ssh://git@host:22/owner/repo keeps a port on the host.
	if host, rest, ok := strings.Cut(url, "/"); ok {
		if h, _, ok := strings.Cut(host, ":"); ok {
			url = h + "/" + rest
		}
	}

	return url
}
