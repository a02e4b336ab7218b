// Package pkgmgr abstracts the host package manager behind a small
// capability interface: install a package by its manager-specific
// identifier. One implementation exists per supported platform —
// winget on Windows, Homebrew on macOS, apt-get on Debian-family
// Linux — and Detect picks the right one at runtime.
//
// Installing the package managers themselves is out of scope: when no
// manager is usable the caller gets ErrNoManager and falls back to
// "install manually" messaging.
package pkgmgr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/mmr-tortoise/preflight/internal/runner"
)

// ErrNoManager indicates that no supported package manager is usable
// on this host.
var ErrNoManager = errors.New("no supported package manager found")

// Manager installs packages through one host package manager.
type Manager interface {
	// Name identifies the manager ("winget", "brew", "apt"). It doubles
	// as the key for per-manager package identifiers in tool specs.
	Name() string

	// Install installs the package with the given manager-specific
	// identifier. A non-zero exit from the manager propagates as an
	// error carrying the manager's combined output.
	Install(ctx context.Context, pkgID string) error
}

// lookPath is a seam for tests; production code resolves binaries on
// the real PATH.
var lookPath = exec.LookPath

// geteuid is a seam for tests covering the apt sudo decision.
var geteuid = os.Geteuid

// Detect returns the package manager for the current platform, or
// ErrNoManager (wrapped with detail) when the platform is unsupported
// or the manager binary is not on PATH.
func Detect() (Manager, error) {
	switch runtime.GOOS {
	case "windows":
		if _, err := lookPath("winget"); err != nil {
			return nil, fmt.Errorf("%w: winget is not on PATH", ErrNoManager)
		}
		return &winget{}, nil

	case "darwin":
		if _, err := lookPath("brew"); err != nil {
			return nil, fmt.Errorf("%w: Homebrew is not on PATH", ErrNoManager)
		}
		return &brew{}, nil

	case "linux":
		if _, err := lookPath("apt-get"); err != nil {
			return nil, fmt.Errorf("%w: apt-get is not on PATH (only Debian-family Linux is supported)", ErrNoManager)
		}
		// apt-get needs root; go through sudo when we don't have it.
		return &aptGet{sudo: geteuid() != 0}, nil

	default:
		return nil, fmt.Errorf("%w: unsupported platform %s", ErrNoManager, runtime.GOOS)
	}
}

// winget installs through the Windows Package Manager. The agreement
// flags keep the invocation non-interactive.
type winget struct{}

func (*winget) Name() string { return "winget" }

func (*winget) Install(ctx context.Context, pkgID string) error {
	cmd := exec.CommandContext(ctx, "winget", "install", "-e", "--id", pkgID,
		"--accept-package-agreements", "--accept-source-agreements")
	return runInstall(cmd, pkgID)
}

// brew installs through Homebrew.
type brew struct{}

func (*brew) Name() string { return "brew" }

func (*brew) Install(ctx context.Context, pkgID string) error {
	cmd := exec.CommandContext(ctx, "brew", "install", pkgID)
	return runInstall(cmd, pkgID)
}

// aptGet installs through apt-get, via sudo when not running as root.
type aptGet struct {
	sudo bool
}

func (*aptGet) Name() string { return "apt" }

func (a *aptGet) Install(ctx context.Context, pkgID string) error {
	args := []string{"apt-get", "install", "-y", pkgID}
	if a.sudo {
		args = append([]string{"sudo"}, args...)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Env = append(os.Environ(), "DEBIAN_FRONTEND=noninteractive")
	return runInstall(cmd, pkgID)
}

// runInstall executes the manager command with merged output and folds
// the output into the error on failure, so the user sees what the
// manager itself reported.
func runInstall(cmd *exec.Cmd, pkgID string) error {
	out, err := runner.RunCombined(cmd)
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return fmt.Errorf("installing %s: %w\n%s", pkgID, err, msg)
		}
		return fmt.Errorf("installing %s: %w", pkgID, err)
	}
	return nil
}
