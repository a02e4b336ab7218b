package toolchain

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/mmr-tortoise/preflight/internal/model"
	"github.com/mmr-tortoise/preflight/internal/pkgmgr"
)

const (
	// defaultRetries bounds the post-install re-probe loop.
	defaultRetries = 3

	// defaultRetryInterval is the pause between re-probes, giving the
	// installer's PATH updates a moment to land.
	defaultRetryInterval = 2 * time.Second
)

// EnsureOptions adjusts Ensure's behavior.
type EnsureOptions struct {
	// Confirm is asked before installing. nil means install without
	// asking (the --yes path). A declined confirmation cancels the run.
	Confirm func(message string) (bool, error)

	// Retries bounds the post-install re-probe loop. Zero means the
	// default.
	Retries uint64

	// RetryInterval is the pause between re-probes. Zero means the
	// default; tests set a negligible interval.
	RetryInterval time.Duration
}

// Ensure brings one prerequisite up to its spec: probe, and when the
// probe is unsatisfied, install through the package manager and
// re-probe on a bounded schedule until the tool answers.
//
// Installers frequently update PATH for new shells only, so when the
// re-probes exhaust, the returned error tells the user to open a fresh
// shell and re-run — the recovery of last resort, not the first.
func Ensure(ctx context.Context, spec Spec, mgr pkgmgr.Manager, opts EnsureOptions) (model.ProbeResult, error) {
	result := Probe(ctx, spec)
	if result.Satisfied() {
		return result, nil
	}

	pkgID, ok := spec.Packages[mgr.Name()]
	if !ok || pkgID == "" {
		return result, model.NewCLIError(model.ExitToolMissing,
			fmt.Sprintf("%s is %s and no %s package is known for it — install it manually and re-run",
				spec.Name, result.Status, mgr.Name()))
	}

	if opts.Confirm != nil {
		confirmed, err := opts.Confirm(installPrompt(spec, result, mgr, pkgID))
		if err != nil {
			return result, model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("confirming %s install", spec.Name), err)
		}
		if !confirmed {
			return result, model.NewCLIError(model.ExitUserCancelled,
				fmt.Sprintf("%s install declined", spec.Name))
		}
	}

	logrus.Debugf("installing %s via %s (%s)", spec.Name, mgr.Name(), pkgID)
	if err := mgr.Install(ctx, pkgID); err != nil {
		return result, model.WrapCLIError(model.ExitInstallFailed,
			fmt.Sprintf("installing %s via %s", spec.Name, mgr.Name()), err)
	}

	result, err := reprobe(ctx, spec, opts)
	if err != nil {
		return result, model.WrapCLIError(model.ExitInstallFailed,
			fmt.Sprintf("%s was installed but is still %s — the installer may have updated PATH for new shells only; open a fresh shell and re-run",
				spec.Name, result.Status), err)
	}
	return result, nil
}

// reprobe retries the probe on a constant schedule until the spec is
// satisfied or the retries exhaust. The last probe result is returned
// either way.
func reprobe(ctx context.Context, spec Spec, opts EnsureOptions) (model.ProbeResult, error) {
	retries := opts.Retries
	if retries == 0 {
		retries = defaultRetries
	}
	interval := opts.RetryInterval
	if interval == 0 {
		interval = defaultRetryInterval
	}

	var last model.ProbeResult
	schedule := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), retries),
		ctx,
	)

	err := backoff.Retry(func() error {
		last = Probe(ctx, spec)
		if !last.Satisfied() {
			return fmt.Errorf("%s is still %s", spec.Name, last.Status)
		}
		return nil
	}, schedule)

	return last, err
}

// installPrompt renders the confirmation question for one install.
func installPrompt(spec Spec, result model.ProbeResult, mgr pkgmgr.Manager, pkgID string) string {
	if result.Status == model.StatusOutdated {
		return fmt.Sprintf("%s %s is below the required %s — install %s via %s?",
			spec.Name, result.VersionString, spec.MinVersion, pkgID, mgr.Name())
	}
	return fmt.Sprintf("%s is not installed — install %s via %s?", spec.Name, pkgID, mgr.Name())
}
