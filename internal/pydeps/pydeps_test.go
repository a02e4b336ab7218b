package pydeps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/preflight/internal/model"
	"github.com/mmr-tortoise/preflight/internal/runner"
)

// pythonProbe is a satisfied probe result pointing at a fake binary.
var pythonProbe = model.ProbeResult{
	Tool:       "python",
	BinaryPath: "/usr/bin/python3",
	Status:     model.StatusPresent,
}

// setupCheckout creates a checkout directory containing the named
// manifest file.
func setupCheckout(t *testing.T, manifest string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, manifest), []byte("flask==3.0.0\n"), 0644))
	return dir
}

// TestInstallArgv pins the pip invocation shape.
func TestInstallArgv(t *testing.T) {
	checkout := setupCheckout(t, "requirements.txt")
	manifestPath := filepath.Join(checkout, "requirements.txt")

	fake := runner.NewFake().Expect("/usr/bin/python3 -m pip install -r " + manifestPath)
	runner.Default = fake
	t.Cleanup(func() { runner.Default = &runner.Commander{} })

	err := NewInstaller().Install(context.Background(), pythonProbe, checkout, "requirements.txt")
	require.NoError(t, err)
	require.NoError(t, fake.Done())
}

// TestInstallSkipsEmptyManifest verifies the explicit skip: an empty
// manifest name runs nothing.
func TestInstallSkipsEmptyManifest(t *testing.T) {
	fake := runner.NewFake()
	runner.Default = fake
	t.Cleanup(func() { runner.Default = &runner.Commander{} })

	err := NewInstaller().Install(context.Background(), pythonProbe, t.TempDir(), "")
	require.NoError(t, err)
	require.NoError(t, fake.Done())
}

// TestInstallMissingManifest verifies that a configured but absent
// manifest is an error, not a silent no-op.
func TestInstallMissingManifest(t *testing.T) {
	err := NewInstaller().Install(context.Background(), pythonProbe, t.TempDir(), "requirements.txt")
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitDepsFailed, cliErr.Code)
	assert.Contains(t, cliErr.Message, "manifest not found")
}

// TestInstallFailurePropagates verifies that a pip failure surfaces
// with the deps exit class and pip's own diagnostics.
func TestInstallFailurePropagates(t *testing.T) {
	checkout := setupCheckout(t, "requirements.txt")
	manifestPath := filepath.Join(checkout, "requirements.txt")

	fake := runner.NewFake().ExpectOutErr(
		"/usr/bin/python3 -m pip install -r "+manifestPath,
		"ERROR: No matching distribution found for flask==3.0.0\n",
		errors.New("exit status 1"))
	runner.Default = fake
	t.Cleanup(func() { runner.Default = &runner.Commander{} })

	err := NewInstaller().Install(context.Background(), pythonProbe, checkout, "requirements.txt")
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitDepsFailed, cliErr.Code)
	assert.Contains(t, cliErr.Message, "No matching distribution")
}

// TestLastLines trims long transcripts to their tail.
func TestLastLines(t *testing.T) {
	assert.Equal(t, "a\nb", lastLines("a\nb", 5))
	assert.Equal(t, "d\ne\nf", lastLines("a\nb\nc\nd\ne\nf", 3))
}
