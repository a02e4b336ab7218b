package toolchain

import (
	"regexp"
	"runtime"

	"github.com/blang/semver"
)

// versionPattern extracts the first dotted version number from a
// tool's version banner ("Python 3.11.4", "git version 2.43.0",
// "Docker version 27.0.1, build ...").
var versionPattern = regexp.MustCompile(`(\d+\.\d+(?:\.\d+)?)`)

// Spec declaratively describes one prerequisite tool.
type Spec struct {
	// Name is the logical tool name ("python", "docker", "git").
	Name string

	// Binaries lists candidate binary names in preference order; the
	// first one found on PATH is probed.
	Binaries []string

	// VersionArgs are the arguments that make the binary print its
	// version ("--version" everywhere we care about).
	VersionArgs []string

	// VersionPattern extracts the version number from the command
	// output. nil falls back to the shared default pattern.
	VersionPattern *regexp.Regexp

	// MinVersion is the minimum acceptable version. The zero version
	// means any working binary satisfies the spec.
	MinVersion semver.Version

	// Packages maps a package manager name ("winget", "brew", "apt")
	// to the identifier that installs this tool there.
	Packages map[string]string
}

// HasMinVersion reports whether the spec carries a version requirement.
func (s Spec) HasMinVersion() bool {
	return !s.MinVersion.Equals(semver.Version{})
}

// pattern returns the version-extraction regex, falling back to the
// shared default.
func (s Spec) pattern() *regexp.Regexp {
	if s.VersionPattern != nil {
		return s.VersionPattern
	}
	return versionPattern
}

// Override adjusts a built-in spec from user configuration. Zero-value
// fields keep the built-in behavior.
type Override struct {
	// MinVersion replaces the minimum version requirement when set.
	MinVersion semver.Version

	// Packages replaces individual per-manager package identifiers.
	Packages map[string]string
}

// Defaults returns the built-in prerequisite specs for the current
// platform: a Python runtime, the Docker engine CLI, and git.
func Defaults() []Spec {
	return []Spec{
		{
			Name:        "python",
			Binaries:    pythonBinaries(),
			VersionArgs: []string{"--version"},
			MinVersion:  semver.MustParse("3.8.0"),
			Packages: map[string]string{
				"winget": "Python.Python.3.12",
				"brew":   "python@3.12",
				"apt":    "python3",
			},
		},
		{
			Name:        "docker",
			Binaries:    []string{"docker"},
			VersionArgs: []string{"--version"},
			Packages: map[string]string{
				"winget": "Docker.DockerDesktop",
				"brew":   "docker",
				"apt":    "docker.io",
			},
		},
		{
			Name:        "git",
			Binaries:    []string{"git"},
			VersionArgs: []string{"--version"},
			Packages: map[string]string{
				"winget": "Git.Git",
				"brew":   "git",
				"apt":    "git",
			},
		},
	}
}

// pythonBinaries returns the Python binary candidates for the current
// platform. Unix systems usually ship "python3" with "python" as an
// optional alias; Windows installs "python" with "py" as the launcher.
func pythonBinaries() []string {
	if runtime.GOOS == "windows" {
		return []string{"python", "py"}
	}
	return []string{"python3", "python"}
}

// Apply merges an override into the spec and returns the result.
func (s Spec) Apply(o Override) Spec {
	if !o.MinVersion.Equals(semver.Version{}) {
		s.MinVersion = o.MinVersion
	}
	if len(o.Packages) > 0 {
		merged := make(map[string]string, len(s.Packages))
		for k, v := range s.Packages {
			merged[k] = v
		}
		for k, v := range o.Packages {
			if v != "" {
				merged[k] = v
			}
		}
		s.Packages = merged
	}
	return s
}
