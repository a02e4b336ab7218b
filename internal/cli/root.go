// Package cli implements the cobra-based commands of the preflight CLI.
//
// Each subcommand (up, doctor, sync, status, down, init) is defined in
// its own file within this package. This file defines the root command
// with the global flags and the exit-code translation in Execute.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/preflight/internal/model"
)

// Global flag variables bound to cobra persistent flags on the root
// command, available to every subcommand.
var (
	// configPath is an explicit config file path (--config). Empty
	// means the default search order in the working directory.
	configPath string

	// jsonOutput switches command output to JSON for machine
	// consumption.
	jsonOutput bool

	// verbose raises the log level to debug: every subprocess argv and
	// its output lands on stderr.
	verbose bool

	// assumeYes skips every interactive confirmation (--yes).
	assumeYes bool
)

// version, commit, and date are set at build time via ldflags and
// injected from the main package.
var (
	// Version is the semantic version of the binary.
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command. The
// root itself performs no action; functionality lives in subcommands.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "preflight",
		Short: "Idempotent host bootstrap for a compose-based stack",
		Long: `preflight prepares a host to run a containerized application:
it probes the prerequisite tools (Python, Docker, git), installs missing
ones through the platform package manager, clones or updates the
application repository, installs its Python dependencies, and starts
the stack with docker compose.

Every step is idempotent — a failed run is safe to repeat.`,

		// Errors are formatted by Execute; cobra's own printing is off.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default: preflight.{yaml,yml,jsonc,json})")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Answer yes to every confirmation")

	rootCmd.AddCommand(NewUpCommand())
	rootCmd.AddCommand(NewDoctorCommand())
	rootCmd.AddCommand(NewSyncCommand())
	rootCmd.AddCommand(NewStatusCommand())
	rootCmd.AddCommand(NewDownCommand())
	rootCmd.AddCommand(NewInitCommand())

	return rootCmd
}

// Execute runs the root command and translates errors into process
// exit codes. CLIError values carry their own code; anything else is
// the general failure code.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		var cliErr *model.CLIError
		if errors.As(err, &cliErr) {
			printError(cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}

		printError(err.Error(), nil)
		os.Exit(int(model.ExitGeneralError))
	}
}

// printError writes an error in the selected format. Errors always go
// to stderr — stdout is reserved for command output, even in JSON mode.
func printError(message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			errObj["error"].(map[string]interface{})["detail"] = underlying.Error()
		}
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
		return
	}

	if underlying != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", message)
	}
}

// IsJSONOutput returns whether the --json flag is set.
func IsJSONOutput() bool {
	return jsonOutput
}
