// Package cli — status.go implements "preflight status", the runtime
// view of the managed stack read back from the Docker API.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/preflight/internal/docker"
	"github.com/mmr-tortoise/preflight/internal/output"
)

// NewStatusCommand creates the "status" cobra command.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stack's containers",
		Long: `List the containers of the configured compose project: service name,
container, state, status, and published ports. State is read from the
Docker API through the labels compose writes, so the report reflects
what is actually running, not what a previous run recorded.

Examples:
  preflight status
  preflight status --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context())
		},
	}
}

// runStatus connects to the daemon and prints the project's containers.
func runStatus(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}

	services, err := docker.ListProjectContainers(ctx, cli, cfg.Compose.Project)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(services, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	if len(services) == 0 {
		output.Fprintf(os.Stdout, output.Yellow, "No containers for project %q — run \"preflight up\"\n", cfg.Compose.Project)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tCONTAINER\tSTATE\tSTATUS\tPORTS")
	for _, s := range services {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			s.Service, s.ContainerName, s.State, s.Status, strings.Join(s.Ports, ", "))
	}
	return w.Flush()
}
