package workflow

import "strings"

// DetermineBranch picks the branch changes are committed on in pr mode.
// A current feature/ or task/ branch is kept. Otherwise the first file
// under backlog/<id>-<name>/ yields feature/<id>-<name>. Failing both, the
// current branch is used.
func DetermineBranch(current string, files []string) string {
	if strings.HasPrefix(current, "feature/") || strings.HasPrefix(current, "task/") {
		return current
	}

	for _, f := range files {
		_, rest, ok := strings.Cut(f, "backlog/")
		if !ok {
			continue
		}
		dir, _, _ := strings.Cut(rest, "/")
		if dir == "" {
			continue
		}
		id, name, hasName := strings.Cut(dir, "-")
		if !hasName || name == "" {
			return "feature/" + id
		}
		return "feature/" + id + "-" + name
	}

	return current
}
