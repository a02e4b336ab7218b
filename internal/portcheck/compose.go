// Package portcheck verifies that the fixed host ports a compose stack
// publishes are actually free before the stack starts. Catching a
// taken port up front beats letting "compose up" fail after minutes of
// image building.
//
// The check has two halves: CollectPublishedPorts parses the compose
// files for fixed host-port publications, and Scanner asks the OS
// whether each one can still be bound.
package portcheck

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/preflight/internal/model"
)

// composeFile is the subset of the compose schema the port check needs.
// Port entries are kept as raw YAML nodes because the schema allows
// both the short string syntax and the long mapping syntax.
type composeFile struct {
	Services map[string]composeService `yaml:"services"`
}

type composeService struct {
	Ports []yaml.Node `yaml:"ports"`
}

// longPort is the compose long port syntax. Published may be a number
// or a string (it supports ranges in string form), so it is decoded
// loosely and normalized afterwards.
type longPort struct {
	Published interface{} `yaml:"published"`
	Target    int         `yaml:"target"`
	Protocol  string      `yaml:"protocol"`
	HostIP    string      `yaml:"host_ip"`
}

// publishedString normalizes the published field to its string form.
func (p longPort) publishedString() string {
	switch v := p.Published.(type) {
	case int:
		return strconv.Itoa(v)
	case string:
		return v
	default:
		return ""
	}
}

// CollectPublishedPorts parses the compose files and returns every
// binding with a fixed host port. Container-only entries, ephemeral
// publications, and port ranges carry no fixed host port to check and
// are skipped.
func CollectPublishedPorts(files []string) ([]model.PortBinding, error) {
	var bindings []model.PortBinding

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, model.WrapCLIError(model.ExitComposeFailed,
				fmt.Sprintf("reading compose file %s", file), err)
		}

		var parsed composeFile
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return nil, model.WrapCLIError(model.ExitComposeFailed,
				fmt.Sprintf("parsing compose file %s", file), err)
		}

		for service, svc := range parsed.Services {
			for i := range svc.Ports {
				binding, ok, err := decodePort(service, &svc.Ports[i])
				if err != nil {
					return nil, model.WrapCLIError(model.ExitComposeFailed,
						fmt.Sprintf("parsing ports of service %q in %s", service, file), err)
				}
				if ok {
					bindings = append(bindings, binding)
				}
			}
		}
	}

	return bindings, nil
}

// decodePort turns one YAML ports entry into a PortBinding. The second
// return is false when the entry has no fixed host port.
func decodePort(service string, node *yaml.Node) (model.PortBinding, bool, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		var short string
		if err := node.Decode(&short); err != nil {
			return model.PortBinding{}, false, err
		}
		return parseShortPort(service, short)

	case yaml.MappingNode:
		var long longPort
		if err := node.Decode(&long); err != nil {
			return model.PortBinding{}, false, err
		}
		return parseLongPort(service, long)

	default:
		return model.PortBinding{}, false, fmt.Errorf("unsupported ports entry (YAML kind %d)", node.Kind)
	}
}

// parseShortPort handles the short syntax:
//
//	"80"                      container only → nothing to check
//	"8080:80"                 fixed host port
//	"127.0.0.1:5432:5432"     bind address + fixed host port
//	"8080:80/udp"             protocol suffix
//
// Ranges ("8000-8010:8000-8010") are skipped: compose resolves them
// itself and no single fixed port exists to probe. IPv6 bind addresses
// ("::1:5432:5432") are skipped too — compose accepts them, but their
// extra colons make the host port ambiguous to split out.
func parseShortPort(service, entry string) (model.PortBinding, bool, error) {
	spec := entry
	protocol := "tcp"
	if base, proto, found := strings.Cut(spec, "/"); found {
		spec = base
		protocol = proto
	}

	parts := strings.Split(spec, ":")
	var hostIP, hostPart, containerPart string
	switch len(parts) {
	case 1:
		// Container-only publication: the host port is ephemeral.
		return model.PortBinding{}, false, nil
	case 2:
		hostPart, containerPart = parts[0], parts[1]
	case 3:
		hostIP, hostPart, containerPart = parts[0], parts[1], parts[2]
	default:
		// An IPv6 bind address; valid to compose, nothing to probe here.
		return model.PortBinding{}, false, nil
	}

	if hostPart == "" || strings.Contains(hostPart, "-") {
		// Empty host part or a range: no single fixed port to check.
		return model.PortBinding{}, false, nil
	}

	hostPort, err := strconv.Atoi(hostPart)
	if err != nil {
		return model.PortBinding{}, false, fmt.Errorf("invalid host port in %q", entry)
	}
	containerPort, err := strconv.Atoi(strings.Split(containerPart, "-")[0])
	if err != nil {
		return model.PortBinding{}, false, fmt.Errorf("invalid container port in %q", entry)
	}

	binding := model.PortBinding{
		Service:       service,
		HostIP:        hostIP,
		HostPort:      hostPort,
		ContainerPort: containerPort,
		Protocol:      protocol,
	}
	if err := binding.Validate(); err != nil {
		return model.PortBinding{}, false, err
	}
	return binding, true, nil
}

// parseLongPort handles the long mapping syntax.
func parseLongPort(service string, long longPort) (model.PortBinding, bool, error) {
	published := long.publishedString()
	if published == "" || strings.Contains(published, "-") {
		return model.PortBinding{}, false, nil
	}

	hostPort, err := strconv.Atoi(published)
	if err != nil {
		return model.PortBinding{}, false, fmt.Errorf("invalid published port %q", published)
	}

	protocol := long.Protocol
	if protocol == "" {
		protocol = "tcp"
	}

	binding := model.PortBinding{
		Service:       service,
		HostIP:        long.HostIP,
		HostPort:      hostPort,
		ContainerPort: long.Target,
		Protocol:      protocol,
	}
	if err := binding.Validate(); err != nil {
		return model.PortBinding{}, false, err
	}
	return binding, true, nil
}
