// Package config loads and validates the preflight configuration file.
//
// The file describes everything a host needs to run the stack: the
// repository to check out, the Python dependency manifest, the compose
// invocation, and optional per-tool overrides. Both YAML and JSONC are
// accepted; JSONC gets the same comment-stripping treatment that
// devcontainer.json files receive elsewhere in this org's tooling.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/preflight/internal/model"
)

// DefaultFileNames is the search order used when no --config path is
// given. The first existing file in the working directory wins.
var DefaultFileNames = []string{
	"preflight.yaml",
	"preflight.yml",
	"preflight.jsonc",
	"preflight.json",
}

// Config is the parsed and default-filled preflight configuration.
type Config struct {
	// Repo describes the repository to clone or update.
	Repo RepoConfig `json:"repo" yaml:"repo"`

	// Python configures the dependency-install step.
	Python PythonConfig `json:"python" yaml:"python"`

	// Compose configures the docker compose invocation.
	Compose ComposeConfig `json:"compose" yaml:"compose"`

	// Tools holds per-tool overrides keyed by tool name
	// ("python", "docker", "git"), merged over built-in defaults.
	Tools map[string]ToolOverride `json:"tools,omitempty" yaml:"tools,omitempty"`

	// EnsureDirs lists directories, relative to the checkout, created
	// before the stack starts.
	EnsureDirs []string `json:"ensureDirs,omitempty" yaml:"ensureDirs,omitempty"`

	// Hooks holds commands run around the lifecycle steps.
	Hooks HooksConfig `json:"hooks,omitempty" yaml:"hooks,omitempty"`
}

// RepoConfig identifies the repository preflight keeps in sync.
type RepoConfig struct {
	// URL is the clone URL. Required.
	URL string `json:"url" yaml:"url"`

	// Ref is the branch to clone. Empty means the remote default.
	Ref string `json:"ref,omitempty" yaml:"ref,omitempty"`

	// Dir is the checkout directory. A leading "~" is expanded.
	// Defaults to "~/<repo-name>" derived from URL.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// PythonConfig configures the pip install step.
type PythonConfig struct {
	// Requirements is the manifest path, relative to the checkout.
	// nil defaults to "requirements.txt"; an explicit empty string
	// skips the step entirely.
	Requirements *string `json:"requirements,omitempty" yaml:"requirements,omitempty"`
}

// ComposeConfig configures the docker compose invocation.
type ComposeConfig struct {
	// Files lists compose files passed with -f, relative to the
	// checkout. Empty means compose's own default file lookup.
	Files []string `json:"files,omitempty" yaml:"files,omitempty"`

	// Project is the compose project name (-p). Defaults to the
	// checkout directory's base name.
	Project string `json:"project,omitempty" yaml:"project,omitempty"`

	// EnvFile is a dotenv file, relative to the checkout, loaded into
	// the compose process environment. nil defaults to ".env"; a
	// missing file is not an error. An explicit empty string disables
	// the load.
	EnvFile *string `json:"envFile,omitempty" yaml:"envFile,omitempty"`

	// Build controls the --build flag on "up". nil defaults to true.
	Build *bool `json:"build,omitempty" yaml:"build,omitempty"`
}

// ToolOverride adjusts one prerequisite tool's built-in defaults.
type ToolOverride struct {
	// MinVersion replaces the built-in minimum version requirement.
	MinVersion string `json:"minVersion,omitempty" yaml:"minVersion,omitempty"`

	// Package replaces the per-manager package identifiers.
	Package PackageIDs `json:"package,omitempty" yaml:"package,omitempty"`
}

// PackageIDs names the package per host package manager. Empty fields
// keep the built-in identifier.
type PackageIDs struct {
	Winget string `json:"winget,omitempty" yaml:"winget,omitempty"`
	Brew   string `json:"brew,omitempty" yaml:"brew,omitempty"`
	Apt    string `json:"apt,omitempty" yaml:"apt,omitempty"`
}

// HooksConfig holds user-supplied lifecycle commands.
type HooksConfig struct {
	// PostUp commands run in the checkout after the stack is up.
	// Each entry is split with shell quoting rules before execution.
	PostUp []string `json:"postUp,omitempty" yaml:"postUp,omitempty"`
}

// Find locates the configuration file. An explicit path is returned
// as-is (its absence is an error); otherwise the default names are
// searched in dir and the empty string means "no config present".
func Find(explicit, dir string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", model.WrapCLIError(model.ExitConfigError,
				fmt.Sprintf("config file not found: %s", explicit), err)
		}
		return explicit, nil
	}

	for _, name := range DefaultFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

// Load reads, parses, validates, and default-fills the configuration
// at path. The format is chosen by file extension: .yaml/.yml through
// yaml.v3, anything else through the JSONC-tolerant JSON path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("reading config %s", path), err)
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, model.WrapCLIError(model.ExitConfigError,
				fmt.Sprintf("parsing config %s", path), err)
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
			return nil, model.WrapCLIError(model.ExitConfigError,
				fmt.Sprintf("parsing config %s", path), err)
		}
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults validates required fields and fills every optional
// field with its documented default, so callers never re-check nil.
func (c *Config) applyDefaults() error {
	if c.Repo.URL == "" {
		return model.NewCLIError(model.ExitConfigError, "config: repo.url is required")
	}

	if c.Repo.Dir == "" {
		c.Repo.Dir = "~/" + RepoName(c.Repo.URL)
	}
	dir, err := homedir.Expand(c.Repo.Dir)
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("config: expanding repo.dir %q", c.Repo.Dir), err)
	}
	c.Repo.Dir = dir

	if c.Python.Requirements == nil {
		manifest := "requirements.txt"
		c.Python.Requirements = &manifest
	}

	if c.Compose.Project == "" {
		c.Compose.Project = filepath.Base(c.Repo.Dir)
	}
	if c.Compose.EnvFile == nil {
		envFile := ".env"
		c.Compose.EnvFile = &envFile
	}
	if c.Compose.Build == nil {
		build := true
		c.Compose.Build = &build
	}

	return nil
}

// RepoName derives a repository name from its clone URL: the last path
// segment with any ".git" suffix removed.
func RepoName(url string) string {
	name := strings.TrimSuffix(url, "/")
	name = strings.TrimSuffix(name, ".git")
	if idx := strings.LastIndexAny(name, "/:"); idx >= 0 {
		name = name[idx+1:]
	}
	if name == "" {
		name = "app"
	}
	return name
}

// ComposeFilePaths resolves the configured compose files against the
// checkout directory. Absolute entries are kept as-is.
func (c *Config) ComposeFilePaths() []string {
	paths := make([]string, 0, len(c.Compose.Files))
	for _, f := range c.Compose.Files {
		if filepath.IsAbs(f) {
			paths = append(paths, f)
			continue
		}
		paths = append(paths, filepath.Join(c.Repo.Dir, f))
	}
	return paths
}
