// Package cgroupfs resolves a target's cgroup path, driver, and version
// against the host's mounted cgroup hierarchy.
package cgroupfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Driver is the container-runtime convention used to name and nest cgroup
// directories.
type Driver int

const (
	Cgroupfs Driver = iota
	Systemd
)

func (d Driver) String() string {
	switch d {
	case Systemd:
		return "systemd"
	default:
		return "cgroupfs"
	}
}

// Version is the cgroup hierarchy layout in use.
type Version int

const (
	V1 Version = iota
	V2
)

func (v Version) String() string {
	switch v {
	case V2:
		return "v2"
	default:
		return "v1"
	}
}

// defaultMountRoot is where cgroups are expected to be mounted.
// See https://man7.org/linux/man-pages/man7/cgroups.7.html
const defaultMountRoot = "/sys/fs/cgroup"

// MountRoot returns the cgroup mount root, honoring RADVISOR_CGROUP_ROOT
// (checked fresh on every call, same as the teacher's CLK_TCK/PAGE_SIZE env
// overrides) so tests can point it at a throwaway directory.
func MountRoot() string {
	if root := os.Getenv("RADVISOR_CGROUP_ROOT"); root != "" {
		return root
	}
	return defaultMountRoot
}

// V2ControllersFile returns the path to the file whose existence signals a
// cgroup v2 unified hierarchy, under the current MountRoot().
func V2ControllersFile() string {
	return filepath.Join(MountRoot(), "cgroup.controllers")
}

// V1Subsystems lists the standard cgroup v1 controllers, cpuacct first
// since it is the most likely to exist (checked first by Exists).
var V1Subsystems = []string{
	"cpuacct",
	"cpu",
	"cpuset",
	"memory",
	"devices",
	"freezer",
	"net_cls",
	"blkio",
	"perf_event",
	"net_prio",
	"hugetlb",
	"pids",
	"rdma",
}

// ErrUnsupportedAt returns the error reported when neither cgroup v1 nor v2
// appears mounted at root.
func ErrUnsupportedAt(root string) error {
	return fmt.Errorf("cgroupfs: neither v1 nor v2 cgroup hierarchy is mounted at %s", root)
}

// ErrUnsupported is the error DetectVersion reports against the default
// (non-overridden) mount root.
var ErrUnsupported = ErrUnsupportedAt(defaultMountRoot)

// Path is a resolved, existing cgroup location.
type Path struct {
	Path    string
	Driver  Driver
	Version Version
}

// MountedProperly reports whether cgroups are mounted at all at the
// standard location.
func MountedProperly() bool {
	_, err := os.Stat(MountRoot())
	return err == nil
}

// DetectVersion resolves which cgroup hierarchy layout the host exposes,
// preferring v2 when both the v2 controllers file and v1 subsystem
// directories are present (hybrid hosts mount v1 controllers alongside a v2
// unified hierarchy; the spec only names v1/v2, so hybrid resolves to v2).
func DetectVersion() (Version, error) {
	if _, err := os.Stat(V2ControllersFile()); err == nil {
		return V2, nil
	}
	if Exists(nil, V1) {
		return V1, nil
	}
	if root := MountRoot(); root != defaultMountRoot {
		return 0, ErrUnsupportedAt(root)
	}
	return 0, ErrUnsupported
}

// Exists reports whether the given relative cgroup path exists under the
// current mount root, for the given version. A nil rel checks the root
// subsystem directories themselves.
func Exists(rel []string, version Version) bool {
	root := MountRoot()
	switch version {
	case V2:
		full := filepath.Join(append([]string{root}, rel...)...)
		_, err := os.Stat(full)
		return err == nil
	default:
		for _, subsystem := range V1Subsystems {
			parts := append([]string{root, subsystem}, rel...)
			full := filepath.Join(parts...)
			if _, err := os.Stat(full); err == nil {
				return true
			}
		}
		return false
	}
}

// Slices bundles the two alternate slice-name lists a caller supplies to
// Resolve: one for the cgroupfs driver (joined verbatim) and one for the
// systemd driver (escaped and suffixed as .slice, hierarchically).
type Slices struct {
	Cgroupfs []string
	Systemd  []string
}

// Resolve selects a driver (systemd first, falling back to cgroupfs) and
// returns the first one whose joined path exists under the detected cgroup
// version, as per spec.md's detection algorithm.
func Resolve(slices Slices) (Path, error) {
	version, err := DetectVersion()
	if err != nil {
		return Path{}, err
	}

	systemdHierarchy := BuildSystemdHierarchy(slices.Systemd)
	if Exists(systemdHierarchy, version) {
		return Path{
			Path:    filepath.Join(systemdHierarchy...),
			Driver:  Systemd,
			Version: version,
		}, nil
	}

	if Exists(slices.Cgroupfs, version) {
		return Path{
			Path:    filepath.Join(slices.Cgroupfs...),
			Driver:  Cgroupfs,
			Version: version,
		}, nil
	}

	return Path{}, fmt.Errorf("cgroupfs: cgroup not found for systemd slices %v or cgroupfs path %v", slices.Systemd, slices.Cgroupfs)
}

// SubsystemPath joins a v1 cgroup path onto one subsystem's mount point,
// e.g. "/sys/fs/cgroup/memory/docker/<id>".
func SubsystemPath(p Path, subsystem string) string {
	return filepath.Join(MountRoot(), subsystem, p.Path)
}

// UnifiedPath joins a v2 cgroup path onto the unified mount point,
// e.g. "/sys/fs/cgroup/docker/<id>".
func UnifiedPath(p Path) string {
	return filepath.Join(MountRoot(), p.Path)
}

// BuildSystemdHierarchy converts a list of slice name components, such as
// ["kubepods", "burstable", "pod1234-5678"], into the systemd-style
// hierarchical slice names:
//
//	["kubepods.slice", "kubepods-burstable.slice", "kubepods-burstable-pod1234_5678.slice"]
//
// mirroring kubernetes/kubelet/cm/cgroup_manager_linux.go's ToSystemd().
func BuildSystemdHierarchy(names []string) []string {
	if len(names) == 0 || (len(names) == 1 && names[0] == "") {
		return nil
	}

	hierarchy := make([]string, 0, len(names))
	accumulator := ""
	for _, name := range names {
		escaped := EscapeSystemd(name)
		hierarchy = append(hierarchy, accumulator+escaped+".slice")
		accumulator += escaped + "-"
	}
	return hierarchy
}

// EscapeSystemd escapes a cgroup slice name component to be systemd-safe,
// mirroring escapeSystemdCgroupName(): hyphens become underscores so they
// are not mistaken for hierarchy separators.
func EscapeSystemd(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}
