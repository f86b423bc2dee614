package poller

import (
	"context"
	"log/slog"
	"time"

	"github.com/radvisor/radvisor/internal/radvisor/interval"
	"github.com/radvisor/radvisor/internal/radvisor/target"
)

// Event reports that a target started or stopped being eligible for
// collection, as observed on one poll.
type Event struct {
	Started bool
	Target  target.ProviderTarget
}

// Poller periodically calls a Provider and emits one Event per ID that
// appeared or disappeared since the previous poll.
type Poller struct {
	provider target.Provider
	pool     *ItemPool
	log      *slog.Logger

	Events chan Event
}

// New builds a Poller that will tick at period once Run is called.
func New(provider target.Provider, log *slog.Logger) *Poller {
	return &Poller{
		provider: provider,
		pool:     NewItemPool(),
		log:      log,
		Events:   make(chan Event, 64),
	}
}

// Run blocks, polling at period until ctx is canceled, then closes Events.
func (p *Poller) Run(ctx context.Context, period time.Duration) {
	timer, stop := interval.New(period)
	defer stop.Stop()
	defer close(p.Events)

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	targets, err := p.provider.Fetch(ctx)
	if err != nil {
		p.log.Warn("provider fetch failed", slog.String("provider", p.provider.Name()), slog.String("err", err.Error()))
		return
	}

	byID := make(map[string]target.ProviderTarget, len(targets))
	ids := make([]string, 0, len(targets))
	for _, t := range targets {
		byID[t.ID] = t
		ids = append(ids, t.ID)
	}

	added, removed := p.pool.Update(ids)
	for _, id := range added {
		p.Events <- Event{Started: true, Target: byID[id]}
	}
	for _, id := range removed {
		p.Events <- Event{Started: false, Target: target.ProviderTarget{ID: id}}
	}
}
