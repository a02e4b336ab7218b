// Package compose drives docker compose for the managed stack: "up -d"
// with an optional rebuild, and "down" with optional volume removal.
//
// Compose is invoked as the docker plugin subcommand ("docker compose"),
// never the legacy docker-compose binary. Every invocation goes through
// the shared runner with merged output, and a non-zero exit is fatal
// with the compose exit class — compose diagnostics arrive interleaved
// on both streams and only make sense together.
package compose

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/mmr-tortoise/preflight/internal/model"
	"github.com/mmr-tortoise/preflight/internal/runner"
)

// Up starts the stack: "docker compose [-f file]... [-p project] up -d
// [--build]" in dir, with env merged over the process environment.
func Up(ctx context.Context, dir string, files []string, project string, env map[string]string, build bool) error {
	args := composeArgs(files, project)
	args = append(args, "up", "-d")
	if build {
		args = append(args, "--build")
	}
	return run(ctx, dir, args, env)
}

// Down stops and removes the stack's containers and networks, and with
// removeVolumes also its volumes.
func Down(ctx context.Context, dir string, files []string, project string, env map[string]string, removeVolumes bool) error {
	args := composeArgs(files, project)
	args = append(args, "down")
	if removeVolumes {
		args = append(args, "-v")
	}
	return run(ctx, dir, args, env)
}

// composeArgs builds the shared flag prefix. Compose merges -f files
// in order, later files overriding earlier ones; no -f at all lets
// compose run its own default file lookup in the working directory.
func composeArgs(files []string, project string) []string {
	args := []string{"compose"}
	for _, f := range files {
		args = append(args, "-f", f)
	}
	if project != "" {
		args = append(args, "-p", project)
	}
	return args
}

// run executes the compose command in dir with the merged environment.
func run(ctx context.Context, dir string, args []string, env map[string]string) error {
	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Dir = dir
	cmd.Env = MergeEnv(os.Environ(), env)

	out, err := runner.RunCombined(cmd)
	if err != nil {
		message := fmt.Sprintf("docker %s failed", strings.Join(args, " "))
		if detail := strings.TrimSpace(string(out)); detail != "" {
			message = fmt.Sprintf("%s: %s", message, detail)
		}
		return model.WrapCLIError(model.ExitComposeFailed, message, err)
	}
	return nil
}

// LoadEnvFile reads a dotenv file into a map. A missing file is not an
// error — the stack simply runs without it, matching compose's own
// treatment of a missing .env.
func LoadEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logrus.Debugf("compose: env file %s not present, skipping", path)
		return nil, nil
	}

	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("parsing env file %s", path), err)
	}
	return vars, nil
}

// MergeEnv overlays extra variables on a base environment in
// KEY=VALUE form. Extra keys replace base entries of the same name,
// and the overlay is applied in sorted key order so the result is
// deterministic.
func MergeEnv(base []string, extra map[string]string) []string {
	if len(extra) == 0 {
		return base
	}

	merged := make([]string, 0, len(base)+len(extra))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, shadowed := extra[key]; shadowed {
			continue
		}
		merged = append(merged, kv)
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		merged = append(merged, k+"="+extra[k])
	}
	return merged
}
