package docker

import (
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/stretchr/testify/assert"
)

// TestServiceInfoMapping verifies the API-to-domain mapping: name
// prefix stripped, compose service read from labels, ports formatted.
func TestServiceInfoMapping(t *testing.T) {
	c := types.Container{
		ID:     "abc123def456",
		Names:  []string{"/monitor-web-1"},
		State:  "running",
		Status: "Up 2 hours",
		Labels: map[string]string{
			LabelComposeProject: "monitor",
			LabelComposeService: "web",
		},
		Ports: []types.Port{
			{IP: "0.0.0.0", PrivatePort: 80, PublicPort: 8080, Type: "tcp"},
			{IP: "::", PrivatePort: 80, PublicPort: 8080, Type: "tcp"},
		},
	}

	info := serviceInfo(c)

	assert.Equal(t, "abc123def456", info.ContainerID)
	assert.Equal(t, "monitor-web-1", info.ContainerName)
	assert.Equal(t, "web", info.Service)
	assert.Equal(t, "running", info.State)
	assert.Equal(t, "Up 2 hours", info.Status)
	assert.Equal(t, []string{"8080:80/tcp"}, info.Ports)
}

// TestServiceInfoNoNames tolerates the API returning no names.
func TestServiceInfoNoNames(t *testing.T) {
	info := serviceInfo(types.Container{ID: "abc"})
	assert.Equal(t, "", info.ContainerName)
	assert.Empty(t, info.Ports)
}

// TestFormatPortsSkipsUnpublished verifies that container-only ports
// are dropped and published ones sort stably.
func TestFormatPortsSkipsUnpublished(t *testing.T) {
	formatted := formatPorts([]types.Port{
		{PrivatePort: 9090, Type: "tcp"},
		{IP: "0.0.0.0", PrivatePort: 5432, PublicPort: 5432, Type: "tcp"},
		{IP: "0.0.0.0", PrivatePort: 80, PublicPort: 8080, Type: "tcp"},
	})

	assert.Equal(t, []string{"5432:5432/tcp", "8080:80/tcp"}, formatted)
}
