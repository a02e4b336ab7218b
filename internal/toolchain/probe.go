package toolchain

import (
	"context"
	"os/exec"
	"strings"

	"github.com/blang/semver"
	"github.com/sirupsen/logrus"

	"github.com/mmr-tortoise/preflight/internal/model"
	"github.com/mmr-tortoise/preflight/internal/runner"
)

// lookPath is a seam for tests; production code resolves binaries on
// the real PATH.
var lookPath = exec.LookPath

// Probe checks one prerequisite against the host.
//
// The contract follows the rest of the codebase's probe semantics:
// Probe never returns a Go error. A binary that is not on PATH, fails
// its version command, or (when a minimum is required) prints something
// unrecognizable is reported as absent, and the caller decides whether
// that is fatal.
func Probe(ctx context.Context, spec Spec) model.ProbeResult {
	result := model.ProbeResult{
		Tool:       spec.Name,
		Status:     model.StatusAbsent,
		MinVersion: spec.MinVersion,
	}

	binary, found := resolveBinary(spec.Binaries)
	if !found {
		logrus.Debugf("probe %s: no candidate binary on PATH (%v)", spec.Name, spec.Binaries)
		return result
	}
	result.BinaryPath = binary

	out, err := runner.RunOut(exec.CommandContext(ctx, binary, spec.VersionArgs...))
	if err != nil {
		// Present on PATH but unable to report a version: the binary
		// cannot be trusted to run, which the probe contract reports
		// as absent.
		logrus.Debugf("probe %s: version command failed: %v", spec.Name, err)
		return result
	}
	result.RawOutput = firstLine(out)

	version, ok := parseVersion(spec, result.RawOutput)
	if !ok {
		if spec.HasMinVersion() {
			// A requirement we cannot verify is treated as unmet.
			logrus.Debugf("probe %s: unparseable version output %q", spec.Name, result.RawOutput)
			return result
		}
		// No requirement: a binary that answers its version command at
		// all is good enough.
		result.Status = model.StatusPresent
		return result
	}
	result.Version = version
	result.VersionString = version.String()

	if spec.HasMinVersion() && version.LT(spec.MinVersion) {
		result.Status = model.StatusOutdated
		return result
	}

	result.Status = model.StatusPresent
	return result
}

// ProbeAll probes every spec in order and returns the results.
func ProbeAll(ctx context.Context, specs []Spec) []model.ProbeResult {
	results := make([]model.ProbeResult, 0, len(specs))
	for _, spec := range specs {
		results = append(results, Probe(ctx, spec))
	}
	return results
}

// resolveBinary returns the first candidate binary found on PATH.
func resolveBinary(candidates []string) (string, bool) {
	for _, name := range candidates {
		if path, err := lookPath(name); err == nil {
			return path, true
		}
	}
	return "", false
}

// parseVersion extracts and parses the version number from a version
// banner, tolerating partial versions like "3.11".
func parseVersion(spec Spec, banner string) (semver.Version, bool) {
	match := spec.pattern().FindString(banner)
	if match == "" {
		return semver.Version{}, false
	}
	version, err := semver.ParseTolerant(match)
	if err != nil {
		return semver.Version{}, false
	}
	return version, true
}

// firstLine returns the first output line, trimmed. Version banners
// are single-line for every tool we probe; anything after the first
// line is noise.
func firstLine(out []byte) string {
	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line)
}
