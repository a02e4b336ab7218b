// Package cli — doctor.go implements "preflight doctor", the read-only
// health report: one status line per prerequisite, the daemon, and
// (when a config is present) the stack's host ports.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/preflight/internal/config"
	"github.com/mmr-tortoise/preflight/internal/docker"
	"github.com/mmr-tortoise/preflight/internal/model"
	"github.com/mmr-tortoise/preflight/internal/output"
	"github.com/mmr-tortoise/preflight/internal/portcheck"
	"github.com/mmr-tortoise/preflight/internal/toolchain"
)

// doctorReport is the machine-readable doctor output.
type doctorReport struct {
	Tools         []model.ProbeResult `json:"tools"`
	Daemon        bool                `json:"daemon"`
	PortConflicts []model.PortBinding `json:"portConflicts,omitempty"`
}

// NewDoctorCommand creates the "doctor" cobra command.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Report the host's readiness without changing anything",
		Long: `Probe every prerequisite tool, check that the Docker daemon responds,
and (when a config is present) verify the stack's fixed host ports are
free. Nothing is installed or modified.

The exit code is zero only when every check passes.`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context())
		},
	}
}

// runDoctor probes everything, reports every result, and only then
// returns the most severe failure — a half-broken host should see its
// whole report, not just the first problem.
func runDoctor(ctx context.Context) error {
	cfg, err := findConfig()
	if err != nil {
		return err
	}

	specs, err := toolSpecs(cfg)
	if err != nil {
		return err
	}

	report := doctorReport{Tools: toolchain.ProbeAll(ctx, specs)}

	var failure error
	for _, tool := range report.Tools {
		if !IsJSONOutput() {
			printProbeLine(os.Stdout, tool)
		}
		if !tool.Satisfied() && failure == nil {
			failure = model.NewCLIError(model.ExitToolMissing,
				fmt.Sprintf("%s is %s — run \"preflight up\" to install it", tool.Tool, tool.Status))
		}
	}

	report.Daemon = pingDaemon(ctx)
	if !IsJSONOutput() {
		if report.Daemon {
			output.Fprintln(os.Stdout, output.Green, "✓ docker daemon responding")
		} else {
			output.Fprintln(os.Stdout, output.Red, "✗ docker daemon not responding")
		}
	}
	if !report.Daemon && failure == nil {
		failure = model.NewCLIError(model.ExitDockerUnavailable,
			"Docker daemon is not responding — is Docker running?")
	}

	// Port conflicts are reported as warnings: a running stack of our
	// own holds its ports legitimately, which doctor cannot tell apart
	// cheaply. Only tool and daemon problems fail the check-up.
	if cfg != nil {
		report.PortConflicts = collectPortConflicts(cfg)
		if !IsJSONOutput() {
			for _, c := range report.PortConflicts {
				output.Fprintf(os.Stdout, output.Yellow, "! port in use — %s\n", c.String())
			}
		}
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(data))
	}

	return failure
}

// pingDaemon reports whether the Docker daemon answers. Every failure
// mode (no socket, no client, no pong) reads as "not responding".
func pingDaemon(ctx context.Context) bool {
	cli, err := docker.NewClient()
	if err != nil {
		return false
	}
	defer func() { _ = cli.Close() }()
	return cli.Ping(ctx) == nil
}

// collectPortConflicts checks the configured stack's fixed ports.
// Errors are swallowed into "no conflicts found": doctor stays usable
// before the first sync, when the compose files do not exist yet.
func collectPortConflicts(cfg *config.Config) []model.PortBinding {
	files := cfg.ComposeFilePaths()
	if len(files) == 0 {
		return nil
	}

	bindings, err := portcheck.CollectPublishedPorts(files)
	if err != nil {
		return nil
	}
	return portcheck.NewScanner().Check(bindings)
}
