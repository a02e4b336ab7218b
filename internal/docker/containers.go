package docker

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"

	"github.com/mmr-tortoise/preflight/internal/model"
)

// Compose writes these labels on every container it creates. preflight
// never invents its own label schema: the stack's state is read back
// through what compose already recorded.
const (
	// LabelComposeProject holds the compose project name.
	LabelComposeProject = "com.docker.compose.project"

	// LabelComposeService holds the service name from the compose file.
	LabelComposeService = "com.docker.compose.service"
)

// ListProjectContainers returns every container belonging to the given
// compose project, including stopped ones — a stopped service is
// exactly what status reporting needs to show.
func ListProjectContainers(ctx context.Context, cli *Client, project string) ([]model.ServiceInfo, error) {
	// Server-side label filtering: cheaper than listing everything and
	// filtering here, and the daemon indexes labels anyway.
	filterArgs := filters.NewArgs(
		filters.Arg("label", LabelComposeProject+"="+project),
	)

	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, model.WrapCLIError(model.ExitDockerUnavailable,
			"listing stack containers", err)
	}

	services := make([]model.ServiceInfo, 0, len(containers))
	for _, c := range containers {
		services = append(services, serviceInfo(c))
	}

	// Stable ordering by service name keeps the status table and JSON
	// output deterministic across runs.
	sort.Slice(services, func(i, j int) bool {
		if services[i].Service != services[j].Service {
			return services[i].Service < services[j].Service
		}
		return services[i].ContainerName < services[j].ContainerName
	})

	return services, nil
}

// serviceInfo maps one Docker API container to the domain type. Pure
// mapping, no side effects.
func serviceInfo(c types.Container) model.ServiceInfo {
	// The API returns names with a leading "/" artifact.
	name := ""
	if len(c.Names) > 0 {
		name = strings.TrimPrefix(c.Names[0], "/")
	}

	return model.ServiceInfo{
		ContainerID:   c.ID,
		ContainerName: name,
		Service:       c.Labels[LabelComposeService],
		State:         c.State,
		Status:        c.Status,
		Ports:         formatPorts(c.Ports),
	}
}

// formatPorts renders published bindings as "host:container/proto",
// deduplicated — the daemon reports one entry per bind address, which
// collapses v4/v6 duplicates into noise.
func formatPorts(ports []types.Port) []string {
	seen := make(map[string]struct{}, len(ports))
	var formatted []string

	for _, p := range ports {
		if p.PublicPort == 0 {
			// Unpublished container port: nothing reachable to show.
			continue
		}
		entry := fmt.Sprintf("%d:%d/%s", p.PublicPort, p.PrivatePort, p.Type)
		if _, dup := seen[entry]; dup {
			continue
		}
		seen[entry] = struct{}{}
		formatted = append(formatted, entry)
	}

	sort.Strings(formatted)
	return formatted
}
