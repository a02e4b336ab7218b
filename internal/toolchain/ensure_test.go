package toolchain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/preflight/internal/model"
	"github.com/mmr-tortoise/preflight/internal/runner"
)

// recordingManager is a pkgmgr.Manager that records install calls and
// returns a scripted error.
type recordingManager struct {
	name     string
	installs []string
	err      error
}

func (m *recordingManager) Name() string { return m.name }

func (m *recordingManager) Install(_ context.Context, pkgID string) error {
	m.installs = append(m.installs, pkgID)
	return m.err
}

// fastOpts keeps the re-probe loop near-instant in tests.
func fastOpts() EnsureOptions {
	return EnsureOptions{Retries: 3, RetryInterval: time.Millisecond}
}

// TestEnsureAlreadySatisfied verifies that a satisfied probe never
// touches the installer.
func TestEnsureAlreadySatisfied(t *testing.T) {
	stubLookPath(t, map[string]string{"python3": "/usr/bin/python3"})
	withFakeRunner(t, runner.NewFake().ExpectOut("/usr/bin/python3 --version", "Python 3.11.4\n"))

	mgr := &recordingManager{name: "apt"}
	result, err := Ensure(context.Background(), pythonSpec("3.8.0"), mgr, fastOpts())

	require.NoError(t, err)
	assert.True(t, result.Satisfied())
	assert.Empty(t, mgr.installs)
}

// TestEnsureInstallsOnceAndReprobes verifies the install branch: the
// installer runs exactly once, and a later probe success ends the loop.
func TestEnsureInstallsOnceAndReprobes(t *testing.T) {
	stubLookPath(t, map[string]string{"python3": "/usr/bin/python3"})
	// First probe: absent (version command fails). After install, one
	// more failing probe, then success on the second re-probe.
	withFakeRunner(t, runner.NewFake().
		ExpectOutErr("/usr/bin/python3 --version", "", errors.New("exit status 127")).
		ExpectOutErr("/usr/bin/python3 --version", "", errors.New("exit status 127")).
		ExpectOut("/usr/bin/python3 --version", "Python 3.11.4\n"))

	mgr := &recordingManager{name: "apt"}
	result, err := Ensure(context.Background(), pythonSpec("3.8.0"), mgr, fastOpts())

	require.NoError(t, err)
	assert.True(t, result.Satisfied())
	assert.Equal(t, []string{"python3"}, mgr.installs)
}

// TestEnsureRetriesBounded verifies that the re-probe loop gives up and
// the error carries the fresh-shell hint plus the install-failed code.
func TestEnsureRetriesBounded(t *testing.T) {
	stubLookPath(t, nil)
	withFakeRunner(t, runner.NewFake())

	mgr := &recordingManager{name: "apt"}
	opts := fastOpts()
	opts.Retries = 2

	_, err := Ensure(context.Background(), pythonSpec("3.8.0"), mgr, opts)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitInstallFailed, cliErr.Code)
	assert.Contains(t, cliErr.Message, "open a fresh shell")
	assert.Equal(t, []string{"python3"}, mgr.installs)
}

// TestEnsureInstallerFailure verifies that a package manager failure
// propagates without any re-probe.
func TestEnsureInstallerFailure(t *testing.T) {
	stubLookPath(t, nil)
	withFakeRunner(t, runner.NewFake())

	mgr := &recordingManager{name: "apt", err: errors.New("dpkg lock held")}
	_, err := Ensure(context.Background(), pythonSpec("3.8.0"), mgr, fastOpts())
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitInstallFailed, cliErr.Code)
	assert.Contains(t, err.Error(), "dpkg lock held")
}

// TestEnsureNoPackageForManager verifies the "install manually" path
// when the spec has no identifier for the detected manager.
func TestEnsureNoPackageForManager(t *testing.T) {
	stubLookPath(t, nil)
	withFakeRunner(t, runner.NewFake())

	spec := pythonSpec("3.8.0")
	spec.Packages = map[string]string{"winget": "Python.Python.3.12"}

	mgr := &recordingManager{name: "apt"}
	_, err := Ensure(context.Background(), spec, mgr, fastOpts())
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitToolMissing, cliErr.Code)
	assert.Contains(t, cliErr.Message, "install it manually")
	assert.Empty(t, mgr.installs)
}

// TestEnsureDeclinedConfirmation verifies the user-cancelled path.
func TestEnsureDeclinedConfirmation(t *testing.T) {
	stubLookPath(t, nil)
	withFakeRunner(t, runner.NewFake())

	opts := fastOpts()
	var asked string
	opts.Confirm = func(message string) (bool, error) {
		asked = message
		return false, nil
	}

	mgr := &recordingManager{name: "apt"}
	_, err := Ensure(context.Background(), pythonSpec("3.8.0"), mgr, opts)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitUserCancelled, cliErr.Code)
	assert.Contains(t, asked, "python is not installed")
	assert.Empty(t, mgr.installs)
}
