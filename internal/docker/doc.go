// Package docker wraps the Docker Engine SDK client for the preflight
// CLI.
//
// This package handles:
//   - Docker client initialization with automatic socket detection
//     (Linux, macOS, Windows)
//   - Daemon reachability checks — the "binary installed, daemon
//     stopped" case a plain version probe cannot catch
//   - Listing the managed stack's containers through the labels
//     Docker Compose writes on everything it creates
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
// Starting and stopping the stack itself is the compose package's job;
// this package only reads daemon state.
package docker
