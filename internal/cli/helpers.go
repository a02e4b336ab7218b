package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/blang/semver"

	"github.com/mmr-tortoise/preflight/internal/config"
	"github.com/mmr-tortoise/preflight/internal/model"
	"github.com/mmr-tortoise/preflight/internal/output"
	"github.com/mmr-tortoise/preflight/internal/prompt"
	"github.com/mmr-tortoise/preflight/internal/toolchain"
)

// loadConfig locates and loads the configuration, honoring --config.
// Commands that cannot run without one get a config-class error
// pointing at "preflight init".
func loadConfig() (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "determining working directory", err)
	}

	path, err := config.Find(configPath, cwd)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, model.NewCLIError(model.ExitConfigError,
			"no preflight config found — run \"preflight init\" to create one")
	}

	return config.Load(path)
}

// findConfig is the optional variant: commands like doctor work
// without a config and simply skip the config-dependent checks.
func findConfig() (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "determining working directory", err)
	}

	path, err := config.Find(configPath, cwd)
	if err != nil || path == "" {
		return nil, err
	}
	return config.Load(path)
}

// toolSpecs merges the config's per-tool overrides over the built-in
// prerequisite specs.
func toolSpecs(cfg *config.Config) ([]toolchain.Spec, error) {
	specs := toolchain.Defaults()
	if cfg == nil || len(cfg.Tools) == 0 {
		return specs, nil
	}

	for i, spec := range specs {
		raw, ok := cfg.Tools[spec.Name]
		if !ok {
			continue
		}

		override := toolchain.Override{
			Packages: map[string]string{
				"winget": raw.Package.Winget,
				"brew":   raw.Package.Brew,
				"apt":    raw.Package.Apt,
			},
		}
		if raw.MinVersion != "" {
			min, err := semver.ParseTolerant(raw.MinVersion)
			if err != nil {
				return nil, model.WrapCLIError(model.ExitConfigError,
					fmt.Sprintf("config: tools.%s.minVersion %q is not a version", spec.Name, raw.MinVersion), err)
			}
			override.MinVersion = min
		}

		specs[i] = spec.Apply(override)
	}
	return specs, nil
}

// confirmFunc returns the confirmation hook for installs and other
// guarded steps: nil under --yes, nil when stdin is not a terminal (a
// piped or CI run has nobody to answer), the survey prompt otherwise.
func confirmFunc() func(string) (bool, error) {
	if assumeYes || !output.IsTerminal(os.Stdin) {
		return nil
	}
	return func(message string) (bool, error) {
		return prompt.Confirm(message, true)
	}
}

// printProbeLine renders one colored tool status line:
//
//	✓ python 3.11.4 (/usr/bin/python3)
//	✗ docker not found
//	! git 2.20.0 (required >= 2.30.0)
func printProbeLine(w io.Writer, r model.ProbeResult) {
	switch r.Status {
	case model.StatusPresent:
		output.Fprintf(w, output.Green, "✓ %s", r.Tool)
		if r.VersionString != "" {
			fmt.Fprintf(w, " %s", r.VersionString)
		}
		if r.BinaryPath != "" {
			fmt.Fprintf(w, " (%s)", r.BinaryPath)
		}
		fmt.Fprintln(w)

	case model.StatusOutdated:
		output.Fprintf(w, output.Yellow, "! %s %s", r.Tool, r.VersionString)
		fmt.Fprintf(w, " (required >= %s)\n", r.MinVersion)

	default:
		output.Fprintf(w, output.Red, "✗ %s", r.Tool)
		fmt.Fprintln(w, " not found")
	}
}

// stepHeader prints a cyan step banner for the long-running commands.
func stepHeader(w io.Writer, format string, args ...interface{}) {
	output.Fprintf(w, output.Cyan, "==> "+format+"\n", args...)
}
