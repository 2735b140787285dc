// Package git publishes generated documentation: it writes documents
// into the devlog repository, commits them with varied human-sounding
// messages, and optionally pushes to a remote.
package git

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Git wraps the git CLI. All operations take the repository path
// explicitly via -C so one instance serves any number of checkouts.
type Git struct {
	gitPath string
}

// NewGit creates a new Git instance and verifies git is available.
func NewGit(ctx context.Context) (*Git, error) {
	gitPath, err := exec.LookPath("git")
	if err != nil {
		return nil, fmt.Errorf("git not found in PATH: %w", err)
	}
	cmd := exec.CommandContext(ctx, gitPath, "version")
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git command failed: %w", err)
	}
	return &Git{gitPath: gitPath}, nil
}

// EnsureRepo initializes repoPath as a git repository if it is not one
// already. The directory must exist.
func (g *Git) EnsureRepo(ctx context.Context, repoPath string) error {
	check := exec.CommandContext(ctx, g.gitPath, "-C", repoPath, "rev-parse", "--git-dir")
	if check.Run() == nil {
		return nil
	}
	initCmd := exec.CommandContext(ctx, g.gitPath, "-C", repoPath, "init")
	if out, err := initCmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git init failed in %s: %w (%s)", repoPath, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// HasUncommittedChanges checks if there are staged or unstaged changes.
func (g *Git) HasUncommittedChanges(ctx context.Context, repoPath string) (bool, error) {
	cmd := exec.CommandContext(ctx, g.gitPath, "-C", repoPath, "status", "--porcelain")
	output, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("git status failed in %s: %w", repoPath, err)
	}
	return len(strings.TrimSpace(string(output))) > 0, nil
}

// Commit stages everything and creates a commit, returning the hash.
// Committing with nothing to commit is an error; callers check
// HasUncommittedChanges first when that is expected.
func (g *Git) Commit(ctx context.Context, repoPath, message string) (string, error) {
	if message == "" {
		return "", fmt.Errorf("commit message is required")
	}

	addCmd := exec.CommandContext(ctx, g.gitPath, "-C", repoPath, "add", "-A")
	if err := addCmd.Run(); err != nil {
		return "", fmt.Errorf("git add failed in %s: %w", repoPath, err)
	}

	commitCmd := exec.CommandContext(ctx, g.gitPath, "-C", repoPath, "commit", "-m", message)
	if out, err := commitCmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("git commit failed in %s: %w (%s)", repoPath, err, strings.TrimSpace(string(out)))
	}

	hashCmd := exec.CommandContext(ctx, g.gitPath, "-C", repoPath, "rev-parse", "HEAD")
	hashOutput, err := hashCmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get commit hash in %s: %w", repoPath, err)
	}
	return strings.TrimSpace(string(hashOutput)), nil
}

// Push pushes the branch to the remote, retrying transient network
// failures with a linearly growing delay. Rejection and conflict
// errors are returned immediately; retrying those cannot help.
func (g *Git) Push(ctx context.Context, repoPath, remote, branch string, maxRetries int, retryDelay time.Duration) error {
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		cmd := exec.CommandContext(ctx, g.gitPath, "-C", repoPath, "push", remote, branch)
		out, err := cmd.CombinedOutput()
		if err == nil {
			return nil
		}

		msg := strings.ToLower(string(out))
		lastErr = fmt.Errorf("git push failed: %w (%s)", err, strings.TrimSpace(string(out)))

		if strings.Contains(msg, "conflict") || strings.Contains(msg, "rejected") {
			return fmt.Errorf("push rejected, manual intervention needed: %w", lastErr)
		}
		if !TransientPushError(msg) {
			return lastErr
		}

		select {
		case <-time.After(retryDelay * time.Duration(attempt+1)):
		case <-ctx.Done():
			return fmt.Errorf("push canceled: %w", ctx.Err())
		}
	}
	return fmt.Errorf("push failed after %d retries: %w", maxRetries, lastErr)
}

// TransientPushError reports whether a push failure is a network blip
// worth retrying.
func TransientPushError(msg string) bool {
	patterns := []string{
		"connection reset",
		"connection refused",
		"connection timed out",
		"network unreachable",
		"could not resolve host",
		"ssl",
		"temporary failure",
	}
	msg = strings.ToLower(msg)
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
