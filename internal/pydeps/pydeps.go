// Package pydeps installs the application's Python dependency manifest
// with pip, using whichever Python binary the toolchain probe selected.
package pydeps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mmr-tortoise/preflight/internal/model"
	"github.com/mmr-tortoise/preflight/internal/runner"
)

// Installer runs pip against a requirements manifest.
type Installer struct{}

// NewInstaller creates a new Installer.
func NewInstaller() *Installer {
	return &Installer{}
}

// Install runs "<python> -m pip install -r <manifest>" in the checkout
// directory. An empty manifest skips the step entirely; a configured
// manifest that does not exist is an explicit error rather than a
// silent no-op. pip failures are fatal with the deps exit class.
func (i *Installer) Install(ctx context.Context, python model.ProbeResult, checkout, manifest string) error {
	if manifest == "" {
		logrus.Debug("pydeps: no requirements manifest configured, skipping")
		return nil
	}
	if python.BinaryPath == "" {
		return model.NewCLIError(model.ExitDepsFailed, "pydeps: no Python binary available")
	}

	path := manifest
	if !filepath.IsAbs(path) {
		path = filepath.Join(checkout, manifest)
	}
	if _, err := os.Stat(path); err != nil {
		return model.WrapCLIError(model.ExitDepsFailed,
			fmt.Sprintf("requirements manifest not found: %s", path), err)
	}

	// "-m pip" instead of a bare pip binary: it guarantees the install
	// lands in the same interpreter the probe found.
	cmd := exec.CommandContext(ctx, python.BinaryPath, "-m", "pip", "install", "-r", path)
	cmd.Dir = checkout

	out, err := runner.RunCombined(cmd)
	if err != nil {
		message := "pip install failed"
		var cmdErr *runner.CmdError
		if errors.As(err, &cmdErr) {
			if detail := strings.TrimSpace(string(out)); detail != "" {
				message = fmt.Sprintf("%s: %s", message, lastLines(detail, 5))
			}
		}
		return model.WrapCLIError(model.ExitDepsFailed, message, err)
	}

	logrus.Debugf("pydeps: installed %s", path)
	return nil
}

// lastLines returns the trailing n lines of s. pip prints its actual
// failure at the end of a long transcript, so the tail is the part
// worth surfacing.
func lastLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
