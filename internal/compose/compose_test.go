package compose

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

// TestUpArgv pins the full "up" invocation with files, project, and
// rebuild.
func TestUpArgv(t *testing.T) {
	fake := runner.NewFake().
		Expect("docker compose -f a.yml -f b.yml -p monitor up -d --build")
	withFakeRunner(t, fake)

	err := Up(context.Background(), t.TempDir(), []string{"a.yml", "b.yml"}, "monitor", nil, true)
	require.NoError(t, err)
}

// TestUpDefaultLookup verifies that no -f flags appear when no files
// are configured, leaving compose to its own file lookup.
func TestUpDefaultLookup(t *testing.T) {
	fake := runner.NewFake().Expect("docker compose -p monitor up -d")
	withFakeRunner(t, fake)

	err := Up(context.Background(), t.TempDir(), nil, "monitor", nil, false)
	require.NoError(t, err)
}

// TestDownArgv pins "down" with and without volume removal.
func TestDownArgv(t *testing.T) {
	fake := runner.NewFake().
		Expect("docker compose -p monitor down").
		Expect("docker compose -p monitor down -v")
	withFakeRunner(t, fake)

	require.NoError(t, Down(context.Background(), t.TempDir(), nil, "monitor", nil, false))
	require.NoError(t, Down(context.Background(), t.TempDir(), nil, "monitor", nil, true))
}

// TestUpFailurePropagates verifies that a compose failure carries the
// compose exit class and compose's own output.
func TestUpFailurePropagates(t *testing.T) {
	fake := runner.NewFake().ExpectOutErr(
		"docker compose up -d",
		"no configuration file provided: not found\n",
		errors.New("exit status 14"))
	withFakeRunner(t, fake)

	err := Up(context.Background(), t.TempDir(), nil, "", nil, false)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitComposeFailed, cliErr.Code)
	assert.Contains(t, cliErr.Message, "no configuration file provided")
}

// TestLoadEnvFile covers present, missing, and malformed env files.
func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("DB_PORT=5432\nAPP_ENV=dev\n"), 0644))

	vars, err := LoadEnvFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"DB_PORT": "5432", "APP_ENV": "dev"}, vars)

	// Missing file: nil map, no error.
	vars, err = LoadEnvFile(filepath.Join(dir, "absent.env"))
	require.NoError(t, err)
	assert.Nil(t, vars)

	// Empty path disables the load.
	vars, err = LoadEnvFile("")
	require.NoError(t, err)
	assert.Nil(t, vars)
}

// TestMergeEnv verifies override and ordering semantics.
func TestMergeEnv(t *testing.T) {
	base := []string{"PATH=/usr/bin", "APP_ENV=prod", "HOME=/root"}

	merged := MergeEnv(base, map[string]string{"APP_ENV": "dev", "DB_PORT": "5432"})

	assert.Equal(t, []string{
		"PATH=/usr/bin",
		"HOME=/root",
		"APP_ENV=dev",
		"DB_PORT=5432",
	}, merged)

	// No extras: the base comes back untouched.
	assert.Equal(t, base, MergeEnv(base, nil))
}
