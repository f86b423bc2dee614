package poller

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/radvisor/radvisor/internal/radvisor/target"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	calls   atomic.Int32
	batches [][]target.ProviderTarget
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Fetch(ctx context.Context) ([]target.ProviderTarget, error) {
	i := f.calls.Add(1) - 1
	if int(i) >= len(f.batches) {
		return f.batches[len(f.batches)-1], nil
	}
	return f.batches[i], nil
}

func TestPollerEmitsStartAndStopEvents(t *testing.T) {
	provider := &fakeProvider{
		batches: [][]target.ProviderTarget{
			{{ID: "a"}, {ID: "b"}},
			{{ID: "b"}},
		},
	}
	p := New(provider, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	go p.Run(ctx, time.Millisecond)

	var started, stopped int
	timeout := time.After(2 * time.Second)
	for started < 2 || stopped < 1 {
		select {
		case ev := <-p.Events:
			if ev.Started {
				started++
			} else {
				stopped++
				assert.Equal(t, "a", ev.Target.ID)
			}
		case <-timeout:
			t.Fatal("timed out waiting for poller events")
		}
	}
	cancel()
}

func TestPollerClosesEventsOnCancel(t *testing.T) {
	provider := &fakeProvider{batches: [][]target.ProviderTarget{{}}}
	p := New(provider, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	_, ok := <-p.Events
	require.False(t, ok)
}
