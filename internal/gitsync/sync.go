// Package gitsync keeps the application checkout in sync with its
// remote: a fresh clone when the target directory does not exist, a
// fast-forward pull when it does.
//
// All git invocations go through the shared runner so the exact argv
// is observable in tests, and every failure is wrapped in a CLIError
// with the git exit class — network trouble and non-fast-forward
// histories are both fatal to the run.
package gitsync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mmr-tortoise/preflight/internal/model"
	"github.com/mmr-tortoise/preflight/internal/runner"
)

// Syncer performs repository sync operations by invoking the git CLI.
// It is stateless; the struct exists as a receiver so a custom git
// binary path or similar options can be added without breaking callers.
type Syncer struct{}

// NewSyncer creates a new Syncer.
func NewSyncer() *Syncer {
	return &Syncer{}
}

// Sync brings dir to the current state of url. A missing directory is
// cloned (honoring ref when set); an existing checkout is fetched and
// fast-forwarded on its current branch. The result records which
// branch was taken and where HEAD ended up.
func (s *Syncer) Sync(ctx context.Context, url, ref, dir string) (model.SyncResult, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return model.SyncResult{}, model.WrapCLIError(model.ExitGitError,
			fmt.Sprintf("resolving checkout path %q", dir), err)
	}

	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		return s.clone(ctx, url, ref, abs)
	}
	return s.update(ctx, ref, abs)
}

// clone performs a fresh clone into dir.
func (s *Syncer) clone(ctx context.Context, url, ref, dir string) (model.SyncResult, error) {
	args := []string{"clone"}
	if ref != "" {
		args = append(args, "--branch", ref)
	}
	args = append(args, url, dir)

	if _, err := runGit(ctx, "", args...); err != nil {
		return model.SyncResult{}, err
	}
	return s.describe(ctx, model.SyncCloned, dir)
}

// update fetches and fast-forwards an existing checkout. A directory
// that exists but is not a git checkout is an error rather than a
// silent re-clone: it may hold unrelated data.
func (s *Syncer) update(ctx context.Context, ref, dir string) (model.SyncResult, error) {
	if !IsCheckout(dir) {
		return model.SyncResult{}, model.NewCLIError(model.ExitGitError,
			fmt.Sprintf("%s exists but is not a git checkout — remove it or point repo.dir elsewhere", dir))
	}

	fetchArgs := []string{"fetch", "origin"}
	if ref != "" {
		fetchArgs = append(fetchArgs, ref)
	}
	if _, err := runGit(ctx, dir, fetchArgs...); err != nil {
		return model.SyncResult{}, err
	}

	// Only fast-forward merges: a diverged local branch is a situation
	// the user has to resolve, not something to merge over.
	if _, err := runGit(ctx, dir, "pull", "--ff-only"); err != nil {
		return model.SyncResult{}, err
	}

	return s.describe(ctx, model.SyncUpdated, dir)
}

// describe fills a SyncResult with the checkout's branch and HEAD.
func (s *Syncer) describe(ctx context.Context, action model.SyncAction, dir string) (model.SyncResult, error) {
	result := model.SyncResult{Action: action, Path: dir}

	branch, err := runGit(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return result, err
	}
	result.Ref = strings.TrimSpace(branch)

	head, err := runGit(ctx, dir, "rev-parse", "--short", "HEAD")
	if err != nil {
		return result, err
	}
	result.HeadSHA = strings.TrimSpace(head)

	return result, nil
}

// IsCheckout reports whether dir holds a git working tree. Both a
// .git directory (regular checkout) and a .git file (worktree or
// submodule) count.
func IsCheckout(dir string) bool {
	_, err := os.Lstat(filepath.Join(dir, ".git"))
	return err == nil
}

// runGit executes a git command through the runner. When dir is
// non-empty it is passed with -C so git operates there without
// changing the process working directory. Failures come back as a
// CLIError with git's stderr folded into the message.
func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	fullArgs := args
	if dir != "" {
		fullArgs = append([]string{"-C", dir}, args...)
	}

	out, err := runner.RunOut(exec.CommandContext(ctx, "git", fullArgs...))
	if err != nil {
		message := fmt.Sprintf("git %s failed", strings.Join(args, " "))
		var cmdErr *runner.CmdError
		if errors.As(err, &cmdErr) && cmdErr.Stderr() != "" {
			message = fmt.Sprintf("%s: %s", message, cmdErr.Stderr())
		}
		return "", model.WrapCLIError(model.ExitGitError, message, err)
	}

	return string(out), nil
}
