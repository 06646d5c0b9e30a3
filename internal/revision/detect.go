// Package revision reads branch metadata for plot labels from git.
package revision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Fallback labels used when git cannot describe the tree.
const (
	FallbackBranch = "branch"
	FallbackSHA    = "unknown"
)

// Info identifies the revision a tree was built from.
type Info struct {
	Branch string
	SHA    string
}

// Detect asks git for the current branch and short commit of dir. Fields
// git cannot answer take the fallback labels; the error reports why.
func Detect(ctx context.Context, dir string) (Info, error) {
	info := Info{Branch: FallbackBranch, SHA: FallbackSHA}

	branch, err := runCommand(ctx, dir, "git", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return info, fmt.Errorf("detect branch: %w", err)
	}
	// A detached head has no branch name.
	if branch != "" && branch != "HEAD" {
		info.Branch = branch
	}

	sha, err := runCommand(ctx, dir, "git", "rev-parse", "--short", "HEAD")
	if err != nil {
		return info, fmt.Errorf("detect revision: %w", err)
	}
	if sha != "" {
		info.SHA = sha
	}
	return info, nil
}

// Resolve fills empty fields of configured from git, leaving set fields alone.
// It never fails; the returned error is informational.
func Resolve(ctx context.Context, dir string, configured Info) (Info, error) {
	if configured.Branch != "" && configured.SHA != "" {
		return configured, nil
	}
	detected, err := Detect(ctx, dir)
	if configured.Branch == "" {
		configured.Branch = detected.Branch
	}
	if configured.SHA == "" {
		configured.SHA = detected.SHA
	}
	return configured, err
}

func runCommand(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdin = nil
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w", msg, err)
		}
		return "", err
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Missing reports whether the command failed because git is not installed.
func Missing(cmdErr error) bool {
	return errors.Is(cmdErr, exec.ErrNotFound)
}
