// Package cli — up.go implements "preflight up", the full bootstrap:
// ensure tools, reach the daemon, sync the repository, install Python
// dependencies, and start the compose stack.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/preflight/internal/compose"
	"github.com/mmr-tortoise/preflight/internal/config"
	"github.com/mmr-tortoise/preflight/internal/docker"
	"github.com/mmr-tortoise/preflight/internal/gitsync"
	"github.com/mmr-tortoise/preflight/internal/model"
	"github.com/mmr-tortoise/preflight/internal/output"
	"github.com/mmr-tortoise/preflight/internal/pkgmgr"
	"github.com/mmr-tortoise/preflight/internal/portcheck"
	"github.com/mmr-tortoise/preflight/internal/pydeps"
	"github.com/mmr-tortoise/preflight/internal/runner"
	"github.com/mmr-tortoise/preflight/internal/toolchain"
)

// defaultComposeNames are the file names compose itself looks for, in
// its own precedence order. The port check needs real file paths even
// when the config leaves the lookup to compose.
var defaultComposeNames = []string{
	"compose.yaml",
	"compose.yml",
	"docker-compose.yml",
	"docker-compose.yaml",
}

// upFlags holds the flag values for the up command.
type upFlags struct {
	noStart   bool // --no-start: everything except the compose step
	skipTools bool // --skip-tools: probe but never install
}

// upResult is the machine-readable summary of a completed run.
type upResult struct {
	Tools   []model.ProbeResult `json:"tools"`
	Sync    model.SyncResult    `json:"sync"`
	Project string              `json:"project"`
	Started bool                `json:"started"`
}

// NewUpCommand creates the "up" cobra command.
func NewUpCommand() *cobra.Command {
	flags := &upFlags{}

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Prepare the host and start the stack",
		Long: `Run the full bootstrap: ensure Python, Docker, and git are installed,
verify the Docker daemon is reachable, clone or update the application
repository, install its Python dependencies, and start the stack with
docker compose.

Examples:
  preflight up
  preflight up --yes
  preflight up --no-start
  preflight up --skip-tools`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runUp(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.noStart, "no-start", false, "Prepare everything but do not start the stack")
	cmd.Flags().BoolVar(&flags.skipTools, "skip-tools", false, "Probe tools but never install; a missing tool is fatal")

	return cmd
}

// runUp orchestrates the bootstrap. Steps run strictly in sequence;
// every subprocess result is checked and the first failure ends the
// run. Completed steps stay in place — each one is idempotent, so a
// repaired host can simply re-run.
func runUp(ctx context.Context, flags *upFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Step 1: prerequisite tools.
	stepHeader(os.Stdout, "Checking prerequisite tools")
	tools, err := ensureTools(ctx, cfg, flags.skipTools)
	if err != nil {
		return err
	}

	// Step 2: daemon reachability, before any long-running work.
	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()
	if err := cli.Ping(ctx); err != nil {
		return err
	}

	// Step 3: repository sync.
	stepHeader(os.Stdout, "Syncing %s", cfg.Repo.URL)
	syncResult, err := gitsync.NewSyncer().Sync(ctx, cfg.Repo.URL, cfg.Repo.Ref, cfg.Repo.Dir)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s (%s @ %s)\n", syncResult.Action, syncResult.Path, syncResult.Ref, syncResult.HeadSHA)

	// Step 4: directories the stack expects to exist.
	for _, dir := range cfg.EnsureDirs {
		path := filepath.Join(cfg.Repo.Dir, dir)
		if err := os.MkdirAll(path, 0o777); err != nil {
			return model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("creating directory %s", path), err)
		}
		logrus.Debugf("ensured directory %s", path)
	}

	// Step 5: Python dependencies.
	if manifest := *cfg.Python.Requirements; manifest != "" {
		stepHeader(os.Stdout, "Installing Python dependencies (%s)", manifest)
		python := findTool(tools, "python")
		if err := pydeps.NewInstaller().Install(ctx, python, cfg.Repo.Dir, manifest); err != nil {
			return err
		}
	}

	result := upResult{Tools: tools, Sync: syncResult, Project: cfg.Compose.Project}

	// Step 6: the stack itself.
	if flags.noStart {
		output.Fprintln(os.Stdout, output.Yellow, "Skipping stack start (--no-start)")
		printUpResult(result)
		return nil
	}

	if err := checkPorts(ctx, cli, cfg); err != nil {
		return err
	}

	env, err := loadComposeEnv(cfg)
	if err != nil {
		return err
	}

	stepHeader(os.Stdout, "Starting stack %q", cfg.Compose.Project)
	err = compose.Up(ctx, cfg.Repo.Dir, cfg.ComposeFilePaths(), cfg.Compose.Project, env, *cfg.Compose.Build)
	if err != nil {
		return err
	}
	result.Started = true

	// Step 7: post-up hooks.
	if err := runPostUpHooks(ctx, cfg); err != nil {
		return err
	}

	printUpResult(result)
	return nil
}

// ensureTools brings every prerequisite up to its spec. With skipTools
// the tools are only probed, and any unsatisfied one is fatal. The
// package manager is detected lazily — a fully provisioned host never
// needs one.
func ensureTools(ctx context.Context, cfg *config.Config, skipTools bool) ([]model.ProbeResult, error) {
	specs, err := toolSpecs(cfg)
	if err != nil {
		return nil, err
	}

	var mgr pkgmgr.Manager
	results := make([]model.ProbeResult, 0, len(specs))

	for _, spec := range specs {
		result := toolchain.Probe(ctx, spec)

		if !result.Satisfied() && !skipTools {
			if mgr == nil {
				mgr, err = pkgmgr.Detect()
				if err != nil {
					return nil, model.WrapCLIError(model.ExitToolMissing,
						fmt.Sprintf("%s is %s and it cannot be installed automatically — install it manually and re-run",
							spec.Name, result.Status), err)
				}
			}
			result, err = toolchain.Ensure(ctx, spec, mgr, toolchain.EnsureOptions{Confirm: confirmFunc()})
			if err != nil {
				return nil, err
			}
		}

		printProbeLine(os.Stdout, result)
		if !result.Satisfied() {
			return nil, model.NewCLIError(model.ExitToolMissing,
				fmt.Sprintf("%s is %s (--skip-tools disables installation)", spec.Name, result.Status))
		}
		results = append(results, result)
	}

	return results, nil
}

// checkPorts verifies the stack's fixed host ports are free. The check
// only runs when the project has no containers — an existing stack
// legitimately holds its own ports, and compose will recreate it.
func checkPorts(ctx context.Context, cli *docker.Client, cfg *config.Config) error {
	existing, err := docker.ListProjectContainers(ctx, cli, cfg.Compose.Project)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logrus.Debugf("project %s already has %d container(s), skipping port check",
			cfg.Compose.Project, len(existing))
		return nil
	}

	files := cfg.ComposeFilePaths()
	if len(files) == 0 {
		files = findDefaultComposeFiles(cfg.Repo.Dir)
	}
	if len(files) == 0 {
		return nil
	}

	bindings, err := portcheck.CollectPublishedPorts(files)
	if err != nil {
		return err
	}

	conflicts := portcheck.NewScanner().Check(bindings)
	if len(conflicts) == 0 {
		return nil
	}

	lines := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		lines = append(lines, "  "+c.String())
	}
	return model.NewCLIError(model.ExitComposeFailed,
		fmt.Sprintf("host ports already in use:\n%s\nfree them or change the compose port mappings",
			strings.Join(lines, "\n")))
}

// findDefaultComposeFiles returns the first compose file compose's own
// lookup would find in the checkout, or nothing.
func findDefaultComposeFiles(dir string) []string {
	for _, name := range defaultComposeNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return []string{path}
		}
	}
	return nil
}

// loadComposeEnv reads the configured env file, resolved against the
// checkout. A missing file is fine; a configured empty string disables
// the load.
func loadComposeEnv(cfg *config.Config) (map[string]string, error) {
	envFile := *cfg.Compose.EnvFile
	if envFile == "" {
		return nil, nil
	}
	if !filepath.IsAbs(envFile) {
		envFile = filepath.Join(cfg.Repo.Dir, envFile)
	}
	return compose.LoadEnvFile(envFile)
}

// runPostUpHooks runs each configured hook in the checkout. Hooks are
// split with shell quoting rules, not handed to a shell.
func runPostUpHooks(ctx context.Context, cfg *config.Config) error {
	for _, hook := range cfg.Hooks.PostUp {
		words, err := shellquote.Split(hook)
		if err != nil {
			return model.WrapCLIError(model.ExitConfigError,
				fmt.Sprintf("parsing postUp hook %q", hook), err)
		}
		if len(words) == 0 {
			continue
		}

		stepHeader(os.Stdout, "Running hook: %s", hook)
		cmd := exec.CommandContext(ctx, words[0], words[1:]...)
		cmd.Dir = cfg.Repo.Dir

		out, err := runner.RunCombined(cmd)
		if err != nil {
			message := fmt.Sprintf("postUp hook %q failed", hook)
			if detail := strings.TrimSpace(string(out)); detail != "" {
				message = fmt.Sprintf("%s: %s", message, detail)
			}
			return model.WrapCLIError(model.ExitGeneralError, message, err)
		}
		if detail := strings.TrimSpace(string(out)); detail != "" {
			fmt.Println(detail)
		}
	}
	return nil
}

// findTool returns the probe result for the named tool.
func findTool(tools []model.ProbeResult, name string) model.ProbeResult {
	for _, tool := range tools {
		if tool.Tool == name {
			return tool
		}
	}
	return model.ProbeResult{Tool: name, Status: model.StatusAbsent}
}

// printUpResult renders the run summary in the selected format.
func printUpResult(result upResult) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Println()
	if result.Started {
		output.Fprintf(os.Stdout, output.Green, "Stack %q is up", result.Project)
		fmt.Println()
	} else {
		output.Fprintf(os.Stdout, output.Yellow, "Stack %q prepared but not started", result.Project)
		fmt.Println()
	}
	fmt.Printf("  Checkout: %s (%s @ %s)\n", result.Sync.Path, result.Sync.Ref, result.Sync.HeadSHA)
}
