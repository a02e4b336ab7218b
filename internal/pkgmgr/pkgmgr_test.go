package pkgmgr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/preflight/internal/runner"
)

// withFakeRunner installs a scripted runner for the duration of a test
// and asserts the full script ran.
func withFakeRunner(t *testing.T, fake *runner.FakeRunner) {
	t.Helper()
	runner.Default = fake
	t.Cleanup(func() {
		assert.NoError(t, fake.Done())
		runner.Default = &runner.Commander{}
	})
}

// TestWingetInstallArgs pins the non-interactive winget invocation.
func TestWingetInstallArgs(t *testing.T) {
	fake := runner.NewFake().
		Expect("winget install -e --id Git.Git --accept-package-agreements --accept-source-agreements")
	withFakeRunner(t, fake)

	require.NoError(t, (&winget{}).Install(context.Background(), "Git.Git"))
}

// TestBrewInstallArgs pins the Homebrew invocation.
func TestBrewInstallArgs(t *testing.T) {
	fake := runner.NewFake().Expect("brew install python@3.12")
	withFakeRunner(t, fake)

	require.NoError(t, (&brew{}).Install(context.Background(), "python@3.12"))
}

// TestAptInstallArgs pins the apt-get invocation with and without the
// sudo prefix.
func TestAptInstallArgs(t *testing.T) {
	fake := runner.NewFake().
		Expect("sudo apt-get install -y docker.io").
		Expect("apt-get install -y docker.io")
	withFakeRunner(t, fake)

	require.NoError(t, (&aptGet{sudo: true}).Install(context.Background(), "docker.io"))
	require.NoError(t, (&aptGet{sudo: false}).Install(context.Background(), "docker.io"))
}

// TestInstallFailureCarriesOutput verifies that a failing manager
// surfaces its own diagnostics in the returned error.
func TestInstallFailureCarriesOutput(t *testing.T) {
	cause := errors.New("exit status 100")
	fake := runner.NewFake().
		ExpectOutErr("apt-get install -y docker.io", "E: Unable to locate package docker.io\n", cause)
	withFakeRunner(t, fake)

	err := (&aptGet{sudo: false}).Install(context.Background(), "docker.io")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "installing docker.io")
	assert.Contains(t, err.Error(), "Unable to locate package")
	assert.ErrorIs(t, err, cause)
}

// TestManagerNames keeps the names aligned with the per-manager package
// identifier keys used by tool specs.
func TestManagerNames(t *testing.T) {
	assert.Equal(t, "winget", (&winget{}).Name())
	assert.Equal(t, "brew", (&brew{}).Name())
	assert.Equal(t, "apt", (&aptGet{}).Name())
}
