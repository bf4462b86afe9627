// Package gitrepo wraps the few git commands devcode needs: initializing a
// freshly scaffolded project and checking whether a project has
// uncommitted changes before it is rewritten for release.
//
// It shells out to the git CLI (via os/exec) so the user's own git
// configuration, hooks and credential helpers apply unchanged.
package gitrepo

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/shinji-kodama/devcode/internal/model"
)

// StatusEntry is one line of `git status --porcelain` output.
//
// Example porcelain output:
//
//	 M package.json
//	?? notes.md
//	R  old.ts -> new.ts
type StatusEntry struct {
	// Code is the two-letter XY status ("M ", " M", "??", ...).
	Code string

	// Path is the file path relative to the repository root. For renames
	// it is the new path.
	Path string
}

// Untracked reports whether the entry is a file git does not track.
func (e StatusEntry) Untracked() bool {
	return e.Code == "??"
}

// Manager runs git commands. It holds no state; every method receives the
// directory to operate in.
type Manager struct{}

// NewManager creates a new Manager.
func NewManager() *Manager {
	return &Manager{}
}

// IsRepo reports whether path is inside a git working tree.
func (m *Manager) IsRepo(path string) bool {
	out, err := runGit(path, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

// RepoRoot returns the top-level directory of the working tree containing
// path.
func (m *Manager) RepoRoot(path string) (string, error) {
	out, err := runGit(path, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Status returns the uncommitted changes under path, including untracked
// files. Paths outside path are not reported.
func (m *Manager) Status(path string) ([]StatusEntry, error) {
	out, err := runGit(path, "status", "--porcelain", "--", ".")
	if err != nil {
		return nil, err
	}
	return parseStatus(out), nil
}

// IsClean reports whether path has no uncommitted changes.
func (m *Manager) IsClean(path string) (bool, error) {
	entries, err := m.Status(path)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}

// Init creates an empty repository in path with the given initial branch.
// An empty branch leaves the choice to the user's git configuration.
func (m *Manager) Init(path, branch string) error {
	args := []string{"init", "--quiet"}
	if branch != "" {
		args = append(args, "--initial-branch", branch)
	}
	_, err := runGit(path, args...)
	return err
}

// runGit executes git with -C repoPath and returns stdout. Failures are
// wrapped in a CLIError carrying ExitGitError and git's stderr.
func runGit(repoPath string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", repoPath}, args...)

	// #nosec G204 -- args are constructed internally, not from user input
	cmd := exec.Command("git", fullArgs...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		message := fmt.Sprintf("git %s failed", strings.Join(args, " "))
		if s := strings.TrimSpace(stderr.String()); s != "" {
			message = fmt.Sprintf("%s: %s", message, s)
		}
		return "", model.WrapCLIError(model.ExitGitError, message, err)
	}
	return stdout.String(), nil
}

// parseStatus parses `git status --porcelain` (v1) output.
func parseStatus(output string) []StatusEntry {
	var entries []StatusEntry
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if len(line) < 4 {
			continue
		}
		entry := StatusEntry{Code: line[:2], Path: line[3:]}
		if _, to, ok := strings.Cut(entry.Path, " -> "); ok {
			entry.Path = to
		}
		entry.Path = strings.Trim(entry.Path, `"`)
		entries = append(entries, entry)
	}
	return entries
}
