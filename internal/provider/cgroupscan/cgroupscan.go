// Package cgroupscan discovers collection targets by walking the cgroup
// mount directly, for hosts where neither a Docker socket nor a Kubernetes
// API is reachable.
package cgroupscan

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/radvisor/radvisor/internal/radvisor/cgroupfs"
	"github.com/radvisor/radvisor/internal/radvisor/target"
)

// Provider implements target.Provider by listing leaf directories under a
// configured root within the cgroup hierarchy (e.g. "docker" or
// "kubepods.slice"), one level deep — each leaf directory is a target.
type Provider struct {
	// Roots are the cgroupfs-relative directories to scan, e.g.
	// []string{"docker"} or []string{"kubepods.slice"}.
	Roots []string
}

// New builds a Provider scanning the given root directories.
func New(roots []string) *Provider {
	return &Provider{Roots: roots}
}

func (p *Provider) Name() string { return "cgroup" }

// Fetch lists every leaf directory found directly under each configured
// root, for whichever cgroup version is mounted.
func (p *Provider) Fetch(ctx context.Context) ([]target.ProviderTarget, error) {
	version, err := cgroupfs.DetectVersion()
	if err != nil {
		return nil, err
	}

	var targets []target.ProviderTarget
	for _, root := range p.Roots {
		leaves, err := leafDirs(root, version)
		if err != nil {
			continue
		}
		for _, id := range leaves {
			targets = append(targets, target.ProviderTarget{
				ID:   id,
				Name: path.Join(root, id),
				Method: target.CollectionMethod{
					Path: cgroupfs.Path{
						Path:    filepath.Join(root, id),
						Driver:  cgroupfs.Cgroupfs,
						Version: version,
					},
				},
			})
		}
	}
	return targets, nil
}

// leafDirs lists the immediate subdirectories of root under the mount,
// choosing the v1 subsystem-relative path or the v2 unified path as
// appropriate.
func leafDirs(root string, version cgroupfs.Version) ([]string, error) {
	var base string
	if version == cgroupfs.V2 {
		base = filepath.Join(cgroupfs.MountRoot(), root)
	} else {
		base = filepath.Join(cgroupfs.MountRoot(), cgroupfs.V1Subsystems[0], root)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, err
	}

	var leaves []string
	for _, e := range entries {
		if e.IsDir() {
			leaves = append(leaves, e.Name())
		}
	}
	return leaves, nil
}
