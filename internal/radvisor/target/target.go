// Package target defines the shapes shared between providers, the poller,
// and the collection engine: what a provider discovers, and what the engine
// tracks for an active collection target.
package target

import (
	"context"

	"github.com/radvisor/radvisor/internal/radvisor/cgroupfs"
)

// Provider discovers the set of containers/pods currently eligible for
// collection. Implementations (docker, kubernetes, cgroupscan) are narrow
// wrappers over a single external client call.
type Provider interface {
	// Name identifies the provider in logs and in a target's CollectionTarget.Provider.
	Name() string
	Fetch(ctx context.Context) ([]ProviderTarget, error)
}

// ProviderTarget is one container/pod a Provider's Fetch call discovered.
// The cgroup version embedded in Method.Path determines which collector
// implementation Handle construction picks.
type ProviderTarget struct {
	ID       string
	Name     string
	Metadata map[string]any
	Method   CollectionMethod
}

// CollectionMethod names where a target's cgroup lives and how it was
// resolved (driver/version already known, from cgroupfs.Resolve).
type CollectionMethod struct {
	Path cgroupfs.Path
}

// CollectionTarget is what the engine holds for a target once collection
// has started: the provider-supplied identity plus when it was first polled.
type CollectionTarget struct {
	ID           string
	Provider     string
	Metadata     map[string]any
	Method       CollectionMethod
	PollTimeNano int64
}
