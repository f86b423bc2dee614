// Package collector implements the cgroup v1 and v2 stat collectors behind
// a common Collector contract, plus the Handle that wraps one collector per
// target with its output sink.
package collector

import (
	"fmt"

	"github.com/radvisor/radvisor/internal/radvisor/buffers"
	"github.com/radvisor/radvisor/internal/radvisor/cgroupfs"
)

// Collector is the per-target stats source contract. A future provider
// (cgroup-less proc scraping, BPF) is added by introducing a new
// implementation and a new case in New, not a new interface family.
type Collector interface {
	// Metadata returns collector-specific YAML header metadata (cgroup path
	// and driver), or nil if unavailable.
	Metadata() map[string]any
	// TableMetadata describes the CSV schema for the YAML header's
	// PerfTable section.
	TableMetadata() TableMetadata
	// Type returns the static collector type string written to the header
	// ("cgroups_v1" or "cgroup_v2").
	Type() string
	// HeaderColumns returns the fixed, ordered CSV column names.
	HeaderColumns() []string
	// Init opens the collector's long-lived file handles and examines any
	// variable-layout stat files. Called once, after the header is written.
	Init() error
	// Collect appends one row's worth of fields to wb.Record. Returns
	// discard=true if the row should not be committed (cgroup v2 only,
	// when every primitive in this tick returned Empty).
	Collect(wb *buffers.WorkingBuffers) (discard bool)
	// Close releases any held file handles.
	Close()
}

// New constructs the collector implementation appropriate for path's
// detected cgroup version.
func New(path cgroupfs.Path) (Collector, error) {
	switch path.Version {
	case cgroupfs.V1:
		return newV1Collector(path), nil
	case cgroupfs.V2:
		return newV2Collector(path), nil
	default:
		return nil, fmt.Errorf("collector: unsupported cgroup version %v", path.Version)
	}
}
