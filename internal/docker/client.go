package docker

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/docker/docker/client"

	"github.com/mmr-tortoise/preflight/internal/model"
)

// defaultPingTimeout bounds the daemon reachability check. 5 seconds
// is generous enough for Docker Desktop on macOS, which responds
// slower than native Linux Docker.
const defaultPingTimeout = 5 * time.Second

// windowsPipeHost is the Docker Desktop default named pipe.
const windowsPipeHost = "npipe:////./pipe/docker_engine"

// Client wraps the Docker Engine SDK client. It handles automatic
// socket detection across platforms and verifies daemon connectivity.
//
// Usage:
//
//	c, err := docker.NewClient()
//	if err != nil { /* handle */ }
//	defer c.Close()
//	if err := c.Ping(ctx); err != nil { /* daemon not running */ }
type Client struct {
	// inner is the underlying Docker SDK client. Wrapped rather than
	// embedded to control the exposed API surface.
	inner *client.Client
}

// NewClient creates a Docker client with automatic socket detection.
//
// Detection priority:
//  1. DOCKER_HOST environment variable (used as-is when set)
//  2. Platform defaults:
//     - Linux: /var/run/docker.sock
//     - macOS: /var/run/docker.sock, then ~/.docker/run/docker.sock
//     - Windows: npipe:////./pipe/docker_engine
//
// Returns a CLIError with ExitDockerUnavailable when no socket is
// found or the client cannot be created.
func NewClient() (*Client, error) {
	if dockerHost := os.Getenv("DOCKER_HOST"); dockerHost != "" {
		return newClientWithHost(dockerHost)
	}

	host, err := detectDockerHost()
	if err != nil {
		return nil, model.WrapCLIError(model.ExitDockerUnavailable, "Docker socket not found", err)
	}
	return newClientWithHost(host)
}

// newClientWithHost creates a client connected to the given Docker
// connection string. API version negotiation keeps the client
// compatible with whatever daemon version the host runs.
func newClientWithHost(host string) (*Client, error) {
	c, err := client.NewClientWithOpts(
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitDockerUnavailable,
			fmt.Sprintf("creating Docker client for host %q", host), err)
	}
	return &Client{inner: c}, nil
}

// goos is a seam for tests; production code detects the real platform.
var goos = runtime.GOOS

// detectDockerHost determines the Docker socket for the current
// platform. Unix sockets are probed by file existence — fast, and a
// missing daemon is caught by Ping anyway. Windows named pipes cannot
// be probed through the net package at all, so the default pipe is
// returned unprobed and Ping reports a stopped daemon.
func detectDockerHost() (string, error) {
	switch goos {
	case "linux":
		return detectUnixSocket([]string{
			"/var/run/docker.sock",
		})

	case "darwin":
		// Docker Desktop normally symlinks /var/run/docker.sock, but
		// newer versions may only create the per-user socket.
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return detectUnixSocket([]string{
				"/var/run/docker.sock",
			})
		}
		return detectUnixSocket([]string{
			"/var/run/docker.sock",
			homeDir + "/.docker/run/docker.sock",
		})

	case "windows":
		return windowsPipeHost, nil

	default:
		return "", fmt.Errorf("unsupported platform: %s", goos)
	}
}

// detectUnixSocket returns the Docker host URI for the first socket
// path that exists, in preference order.
func detectUnixSocket(paths []string) (string, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return "unix://" + path, nil
		}
	}
	return "", fmt.Errorf("Docker socket not found at any of: %v — is Docker running?", paths)
}

// Ping verifies that the Docker daemon is reachable and responsive,
// waiting up to defaultPingTimeout. This catches the case the version
// probe cannot: the docker binary is installed but the daemon is
// stopped or paused.
func (c *Client) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	if _, err := c.inner.Ping(pingCtx); err != nil {
		return model.WrapCLIError(model.ExitDockerUnavailable,
			"Docker daemon is not responding — is Docker running?", err)
	}
	return nil
}

// Close releases the client's resources. Safe to call multiple times.
func (c *Client) Close() error {
	if c.inner != nil {
		return c.inner.Close()
	}
	return nil
}

// Inner exposes the underlying SDK client for operations not wrapped
// here. Callers should prefer Client methods when one exists.
func (c *Client) Inner() *client.Client {
	return c.inner
}
