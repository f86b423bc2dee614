// Package poller periodically asks a Provider for the current set of
// collection targets and reports which IDs appeared or disappeared since
// the last poll.
package poller

// ItemPool tracks a set of string IDs across polls and diffs consecutive
// snapshots in one pass.
type ItemPool struct {
	items map[string]struct{}
}

// NewItemPool returns an empty pool.
func NewItemPool() *ItemPool {
	return &ItemPool{items: make(map[string]struct{})}
}

// Update replaces the pool's contents with ids, returning the IDs that are
// new (added) and the IDs that were present before but are absent now
// (removed). Order within each returned slice is unspecified.
func (p *ItemPool) Update(ids []string) (added, removed []string) {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
		if _, ok := p.items[id]; !ok {
			added = append(added, id)
		}
	}
	for id := range p.items {
		if _, ok := seen[id]; !ok {
			removed = append(removed, id)
		}
	}
	p.items = seen
	return added, removed
}
