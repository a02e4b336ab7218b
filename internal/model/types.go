package model

import (
	"fmt"
	"strings"

	"github.com/blang/semver"
)

// ToolStatus represents the outcome of probing one prerequisite tool.
//
//	absent   — no candidate binary found on PATH, or the version command failed
//	outdated — binary found, but its version is below the configured minimum
//	present  — binary found and satisfies the version requirement
type ToolStatus string

const (
	// StatusPresent indicates the tool is installed and satisfies the
	// minimum version requirement (if one is configured).
	StatusPresent ToolStatus = "present"

	// StatusAbsent indicates no usable binary was found on PATH.
	// A binary that exists but fails its version command is also
	// reported as absent: it cannot be trusted to run.
	StatusAbsent ToolStatus = "absent"

	// StatusOutdated indicates the tool is installed but its reported
	// version is below the configured minimum.
	StatusOutdated ToolStatus = "outdated"
)

// String returns the string representation of ToolStatus,
// satisfying fmt.Stringer for CLI and log output.
func (s ToolStatus) String() string {
	return string(s)
}

// IsValid checks whether the ToolStatus value is one of the
// predefined states.
func (s ToolStatus) IsValid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusOutdated:
		return true
	default:
		return false
	}
}

// ParseToolStatus converts a string to a ToolStatus.
// Returns an error if the string does not match any valid status.
func ParseToolStatus(s string) (ToolStatus, error) {
	status := ToolStatus(strings.ToLower(s))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid tool status: %q (valid: present, absent, outdated)", s)
	}
	return status, nil
}

// ProbeResult holds everything learned from probing a single tool.
//
// The probe contract: probing never fails with a Go error. An unreachable
// or broken binary is reported as StatusAbsent, and the caller decides
// whether that is fatal.
type ProbeResult struct {
	// Tool is the logical tool name ("python", "docker", "git").
	Tool string `json:"tool"`

	// BinaryPath is the absolute path of the binary that was probed.
	// Empty when Status is StatusAbsent because no binary was found.
	BinaryPath string `json:"binaryPath,omitempty"`

	// Status is the probe outcome.
	Status ToolStatus `json:"status"`

	// RawOutput is the unmodified first line of the version command's
	// output, kept for display and diagnostics.
	RawOutput string `json:"rawOutput,omitempty"`

	// Version is the parsed semantic version. Zero when the output
	// could not be parsed.
	Version semver.Version `json:"-"`

	// VersionString is Version rendered for JSON output, or "" when
	// no version could be parsed.
	VersionString string `json:"version,omitempty"`

	// MinVersion is the required minimum, zero when the tool has no
	// version requirement.
	MinVersion semver.Version `json:"-"`
}

// Satisfied reports whether the probed tool fulfils its requirement.
// Only StatusPresent satisfies; both absent and outdated tools need
// installer attention.
func (p ProbeResult) Satisfied() bool {
	return p.Status == StatusPresent
}

// SyncAction identifies which branch the repository sync took.
type SyncAction string

const (
	// SyncCloned means the target directory did not exist and a fresh
	// clone was performed.
	SyncCloned SyncAction = "cloned"

	// SyncUpdated means the target directory already held a checkout
	// and it was fast-forwarded from its remote.
	SyncUpdated SyncAction = "updated"
)

// String returns the string representation of SyncAction.
func (a SyncAction) String() string {
	return string(a)
}

// SyncResult describes the state of the checkout after a successful
// repository sync.
type SyncResult struct {
	// Action is the branch taken: cloned or updated.
	Action SyncAction `json:"action"`

	// Path is the absolute path of the checkout directory.
	Path string `json:"path"`

	// Ref is the branch the checkout is on after the sync.
	Ref string `json:"ref,omitempty"`

	// HeadSHA is the abbreviated commit the checkout points at.
	HeadSHA string `json:"head,omitempty"`
}

// ServiceInfo holds runtime information about one container of the
// managed compose stack. This data is fetched from the Docker API on
// demand, never persisted.
type ServiceInfo struct {
	// ContainerID is the Docker container identifier.
	ContainerID string `json:"containerId"`

	// ContainerName is the human-readable container name, without the
	// leading "/" the Docker API prepends.
	ContainerName string `json:"containerName"`

	// Service is the compose service name, taken from the
	// com.docker.compose.service label.
	Service string `json:"service"`

	// State is the container state ("running", "exited", "created").
	State string `json:"state"`

	// Status is the human-readable status line ("Up 2 hours",
	// "Exited (0) 3 minutes ago").
	Status string `json:"status"`

	// Ports lists the published port bindings formatted as
	// "host:container/proto".
	Ports []string `json:"ports,omitempty"`
}

// PortBinding is a fixed host-port publication extracted from a compose
// file, used by the pre-start port availability check.
type PortBinding struct {
	// Service is the compose service that declares the binding.
	Service string `json:"service"`

	// HostIP is the bind address, empty for all interfaces.
	HostIP string `json:"hostIp,omitempty"`

	// HostPort is the fixed port on the host (1-65535).
	HostPort int `json:"hostPort"`

	// ContainerPort is the port inside the container.
	ContainerPort int `json:"containerPort"`

	// Protocol is "tcp" or "udp"; defaults to "tcp".
	Protocol string `json:"protocol"`
}

// String returns a human-readable representation of the binding.
// Format: "service: host:port → container/proto".
func (b PortBinding) String() string {
	proto := b.Protocol
	if proto == "" {
		proto = "tcp"
	}
	host := b.HostIP
	if host == "" {
		host = "0.0.0.0"
	}
	return fmt.Sprintf("%s: %s:%d → %d/%s", b.Service, host, b.HostPort, b.ContainerPort, proto)
}

// Validate checks the PortBinding field ranges.
func (b *PortBinding) Validate() error {
	if b.HostPort < 1 || b.HostPort > 65535 {
		return fmt.Errorf("port binding: host port %d out of range (1-65535)", b.HostPort)
	}
	if b.ContainerPort < 1 || b.ContainerPort > 65535 {
		return fmt.Errorf("port binding: container port %d out of range (1-65535)", b.ContainerPort)
	}
	if b.Protocol == "" {
		b.Protocol = "tcp"
	}
	if b.Protocol != "tcp" && b.Protocol != "udp" {
		return fmt.Errorf("port binding: invalid protocol %q (valid: tcp, udp)", b.Protocol)
	}
	return nil
}

// ExitCode defines the process exit codes the CLI reports. Scripts and
// CI systems use these to distinguish failure classes without parsing
// error text.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigError indicates the configuration file is missing,
	// unparseable, or invalid.
	ExitConfigError ExitCode = 2

	// ExitToolMissing indicates a prerequisite tool is absent or
	// outdated and installation was declined or disabled.
	ExitToolMissing ExitCode = 3

	// ExitInstallFailed indicates the package manager failed to install
	// a tool, or the tool stayed undetectable after installation.
	ExitInstallFailed ExitCode = 4

	// ExitDockerUnavailable indicates the Docker daemon is not
	// reachable (socket missing or ping failed).
	ExitDockerUnavailable ExitCode = 5

	// ExitGitError indicates a git operation (clone/pull) failed.
	ExitGitError ExitCode = 6

	// ExitDepsFailed indicates the Python dependency install failed.
	ExitDepsFailed ExitCode = 7

	// ExitComposeFailed indicates a docker compose invocation failed,
	// or the pre-start port check found conflicts.
	ExitComposeFailed ExitCode = 8

	// ExitUserCancelled indicates the user declined an interactive
	// confirmation.
	ExitUserCancelled ExitCode = 9
)

// CLIError is an error that carries a process exit code. The CLI layer
// translates it in Execute; every package below cli returns its failures
// wrapped in one so the failure class survives to the process boundary.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the message,
// optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
