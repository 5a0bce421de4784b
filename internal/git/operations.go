// Package git reads the repository state that verification runs are tagged with.
package git

import (
	"os/exec"
	"strings"
)

// Operations defines the git queries scopeline needs.
// This allows mocking git commands in tests.
type Operations interface {
	// CurrentBranch returns the current branch name.
	// For detached HEAD, returns "detached-{short-hash}".
	// Returns "" outside a git repository.
	CurrentBranch(projectPath string) string

	// HeadCommit returns the full hash of HEAD, or "" when there is none.
	HeadCommit(projectPath string) string

	// WorktreeRoot returns the git worktree root path.
	// Falls back to projectPath if not a git repository.
	WorktreeRoot(projectPath string) string
}

// gitOps is the real implementation using exec.Command.
type gitOps struct{}

// NewOperations returns the default git operations implementation.
func NewOperations() Operations {
	return &gitOps{}
}

func (g *gitOps) CurrentBranch(projectPath string) string {
	if branch, err := run(projectPath, "branch", "--show-current"); err == nil && branch != "" {
		return branch
	}
	// Might be detached HEAD
	hash, err := run(projectPath, "rev-parse", "--short", "HEAD")
	if err != nil || hash == "" {
		return ""
	}
	return "detached-" + hash
}

func (g *gitOps) HeadCommit(projectPath string) string {
	hash, err := run(projectPath, "rev-parse", "HEAD")
	if err != nil {
		return ""
	}
	return hash
}

func (g *gitOps) WorktreeRoot(projectPath string) string {
	root, err := run(projectPath, "rev-parse", "--show-toplevel")
	if err != nil || root == "" {
		return projectPath
	}
	return root
}

func run(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}
