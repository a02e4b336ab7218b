package gitsync

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/preflight/internal/model"
	"github.com/mmr-tortoise/preflight/internal/runner"
)

// setupOriginRepo creates a local repository with one commit to act as
// the clone remote. Local-path URLs exercise the same clone/fetch/pull
// plumbing as network remotes without touching the network.
func setupOriginRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	runTestGit(t, dir, "init", "-b", "main")
	runTestGit(t, dir, "config", "user.email", "test@example.com")
	runTestGit(t, dir, "config", "user.name", "Test User")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# origin\n"), 0644))
	runTestGit(t, dir, "add", ".")
	runTestGit(t, dir, "commit", "-m", "initial commit")

	return dir
}

// runTestGit runs a git command in dir and fails the test on a
// non-zero exit.
func runTestGit(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, string(output))
	return string(output)
}

// TestSyncClonesWhenAbsent verifies the clone branch: the target does
// not exist, so Sync performs a fresh clone and reports it.
func TestSyncClonesWhenAbsent(t *testing.T) {
	origin := setupOriginRepo(t)
	target := filepath.Join(t.TempDir(), "checkout")

	result, err := NewSyncer().Sync(context.Background(), origin, "", target)
	require.NoError(t, err)

	assert.Equal(t, model.SyncCloned, result.Action)
	assert.Equal(t, target, result.Path)
	assert.Equal(t, "main", result.Ref)
	assert.NotEmpty(t, result.HeadSHA)

	assert.FileExists(t, filepath.Join(target, "README.md"))
	assert.True(t, IsCheckout(target))
}

// TestSyncUpdatesWhenPresent verifies the pull branch: an existing
// checkout fast-forwards to new upstream commits.
func TestSyncUpdatesWhenPresent(t *testing.T) {
	origin := setupOriginRepo(t)
	target := filepath.Join(t.TempDir(), "checkout")
	syncer := NewSyncer()

	_, err := syncer.Sync(context.Background(), origin, "", target)
	require.NoError(t, err)

	// Advance the origin so the second sync has something to pull.
	require.NoError(t, os.WriteFile(filepath.Join(origin, "new.txt"), []byte("more\n"), 0644))
	runTestGit(t, origin, "add", ".")
	runTestGit(t, origin, "commit", "-m", "second commit")

	result, err := syncer.Sync(context.Background(), origin, "", target)
	require.NoError(t, err)

	assert.Equal(t, model.SyncUpdated, result.Action)
	assert.FileExists(t, filepath.Join(target, "new.txt"))

	// HEAD now matches the origin's HEAD.
	originHead := runTestGit(t, origin, "rev-parse", "--short", "HEAD")
	assert.Contains(t, originHead, result.HeadSHA)
}

// TestSyncClonesBranch verifies that a configured ref selects the
// branch at clone time.
func TestSyncClonesBranch(t *testing.T) {
	origin := setupOriginRepo(t)
	runTestGit(t, origin, "branch", "develop")
	target := filepath.Join(t.TempDir(), "checkout")

	result, err := NewSyncer().Sync(context.Background(), origin, "develop", target)
	require.NoError(t, err)

	assert.Equal(t, model.SyncCloned, result.Action)
	assert.Equal(t, "develop", result.Ref)
}

// TestSyncRejectsNonCheckout verifies that an existing directory
// without a .git entry is an error, not a silent re-clone.
func TestSyncRejectsNonCheckout(t *testing.T) {
	target := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(target, "data.txt"), []byte("x"), 0644))

	_, err := NewSyncer().Sync(context.Background(), "https://example.invalid/repo.git", "", target)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitGitError, cliErr.Code)
	assert.Contains(t, cliErr.Message, "not a git checkout")
}

// TestSyncCloneFailurePropagates verifies that a failing clone surfaces
// as a git-class CLIError carrying git's stderr.
func TestSyncCloneFailurePropagates(t *testing.T) {
	target := filepath.Join(t.TempDir(), "never-created")

	_, err := NewSyncer().Sync(context.Background(), filepath.Join(t.TempDir(), "no-such-origin"), "", target)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitGitError, cliErr.Code)
	assert.Contains(t, cliErr.Message, "git clone")
}

// TestSyncArgvShapes pins the exact git invocations for both branches
// using a scripted runner.
func TestSyncArgvShapes(t *testing.T) {
	target := filepath.Join(t.TempDir(), "checkout")

	fake := runner.NewFake().
		ExpectOut("git clone --branch main https://example.com/acme/app.git "+target, "").
		ExpectOut("git -C "+target+" rev-parse --abbrev-ref HEAD", "main\n").
		ExpectOut("git -C "+target+" rev-parse --short HEAD", "abc1234\n")
	runner.Default = fake
	t.Cleanup(func() { runner.Default = &runner.Commander{} })

	result, err := NewSyncer().Sync(context.Background(), "https://example.com/acme/app.git", "main", target)
	require.NoError(t, err)
	require.NoError(t, fake.Done())

	assert.Equal(t, model.SyncCloned, result.Action)
	assert.Equal(t, "main", result.Ref)
	assert.Equal(t, "abc1234", result.HeadSHA)
}

// TestIsCheckout covers the .git directory, .git file, and missing
// cases.
func TestIsCheckout(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, IsCheckout(dir))

	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0755))
	assert.True(t, IsCheckout(dir))

	fileDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(fileDir, ".git"), []byte("gitdir: ../.git/worktrees/x\n"), 0644))
	assert.True(t, IsCheckout(fileDir))
}
