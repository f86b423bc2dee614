// Package docker discovers running containers via the Docker Engine API,
// resolving each one's cgroup location for collection.
package docker

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/radvisor/radvisor/internal/radvisor/cgroupfs"
	"github.com/radvisor/radvisor/internal/radvisor/target"
)

// defaultCgroupParent is the cgroup directory dockerd nests containers
// under when no custom --cgroup-parent was given at container creation.
const defaultCgroupParent = "docker"

// Provider implements target.Provider over a Docker Engine API client.
type Provider struct {
	cli *client.Client
}

// New connects to the Docker daemon using the standard environment
// variables (DOCKER_HOST, DOCKER_API_VERSION), negotiating the API version
// against whatever the daemon actually supports.
func New() (*Provider, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker: connecting to daemon: %w", err)
	}
	return &Provider{cli: cli}, nil
}

func (p *Provider) Name() string { return "docker" }

// Fetch lists running containers and resolves each one's cgroup path.
func (p *Provider) Fetch(ctx context.Context) ([]target.ProviderTarget, error) {
	containers, err := p.cli.ContainerList(ctx, container.ListOptions{All: false})
	if err != nil {
		return nil, fmt.Errorf("docker: listing containers: %w", err)
	}

	targets := make([]target.ProviderTarget, 0, len(containers))
	for _, c := range containers {
		name := c.ID
		if len(c.Names) > 0 {
			name = c.Names[0]
		}

		parent := defaultCgroupParent
		if details, err := p.cli.ContainerInspect(ctx, c.ID); err == nil {
			if details.HostConfig != nil && details.HostConfig.CgroupParent != "" {
				parent = details.HostConfig.CgroupParent
			}
		}

		path, err := cgroupfs.Resolve(cgroupfs.Slices{
			Cgroupfs: []string{parent, c.ID},
			Systemd:  []string{parent, "docker-" + c.ID},
		})
		if err != nil {
			continue
		}

		targets = append(targets, target.ProviderTarget{
			ID:       c.ID,
			Name:     name,
			Metadata: map[string]any{"Image": c.Image},
			Method:   target.CollectionMethod{Path: path},
		})
	}
	return targets, nil
}
