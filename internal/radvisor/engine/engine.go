// Package engine runs the steady-state collection loop: one shared working
// buffer, a map of active per-target collector handles, and a shutdown
// protocol that flushes every open log file before the process exits.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/radvisor/radvisor/internal/radvisor/buffers"
	"github.com/radvisor/radvisor/internal/radvisor/collector"
	"github.com/radvisor/radvisor/internal/radvisor/flushlog"
	"github.com/radvisor/radvisor/internal/radvisor/interval"
	"github.com/radvisor/radvisor/internal/radvisor/poller"
	"github.com/radvisor/radvisor/internal/radvisor/target"
)

// status tracks the engine's Idle/Collecting/Terminating state machine.
// Both flags unset is Idle (between ticks). A tick either runs to completion
// (Collecting) or is skipped entirely because shutdown has already begun
// (Terminating).
type status struct {
	mu          sync.Mutex
	collecting  bool
	terminating bool
}

func (s *status) beginTick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminating {
		return false
	}
	s.collecting = true
	return true
}

func (s *status) endTick() {
	s.mu.Lock()
	s.collecting = false
	s.mu.Unlock()
}

// beginTerminating marks the engine as shutting down and reports whether a
// tick is currently in flight (the caller should wait for it to finish
// before flushing).
func (s *status) beginTerminating() (wasCollecting bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terminating = true
	return s.collecting
}

// Engine owns every active target's Handle and drives one shared
// WorkingBuffers through each of them, once per tick.
type Engine struct {
	logsDir        string
	bufferCapacity int
	eventLog       *flushlog.Log
	log            *slog.Logger

	status  status
	mu      sync.Mutex
	handles map[string]*collector.Handle

	wb *buffers.WorkingBuffers
}

// New builds an Engine. eventLog may be nil to disable flush auditing.
func New(logsDir string, bufferCapacity int, eventLog *flushlog.Log, log *slog.Logger) *Engine {
	return &Engine{
		logsDir:        logsDir,
		bufferCapacity: bufferCapacity,
		eventLog:       eventLog,
		log:            log,
		handles:        make(map[string]*collector.Handle),
		wb:             buffers.New(),
	}
}

// Run drives the collection loop at period, consuming target lifecycle
// events from events, until ctx is canceled. On return, every open handle
// has been flushed and closed, and the flush-event log (if any) has been
// written.
func (e *Engine) Run(ctx context.Context, events <-chan poller.Event, period time.Duration) error {
	timer, stop := interval.New(period)
	defer stop.Stop()

	for {
		select {
		case <-ctx.Done():
			e.shutdown()
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			e.handleEvent(ev)
		case <-timer.C:
			e.tick()
		}
	}
}

func (e *Engine) handleEvent(ev poller.Event) {
	if ev.Started {
		e.startTarget(ev.Target)
		return
	}
	e.stopTarget(ev.Target.ID)
}

func (e *Engine) startTarget(pt target.ProviderTarget) {
	tgt := target.CollectionTarget{
		ID:       pt.ID,
		Provider: pt.Name,
		Metadata: pt.Metadata,
		Method:   pt.Method,
	}

	h, err := collector.NewHandle(e.logsDir, tgt, e.bufferCapacity, e.eventLog)
	if err != nil {
		e.log.Error("failed to start collection target",
			slog.String("target_id", pt.ID), slog.String("err", err.Error()))
		return
	}

	e.mu.Lock()
	e.handles[pt.ID] = h
	e.mu.Unlock()
	e.log.Info("started collection target", slog.String("target_id", pt.ID))
}

func (e *Engine) stopTarget(id string) {
	e.mu.Lock()
	h, ok := e.handles[id]
	if ok {
		delete(e.handles, id)
	}
	e.mu.Unlock()

	if !ok {
		return
	}
	h.Active = false
	if err := h.Close(); err != nil {
		e.log.Error("error closing collection target",
			slog.String("target_id", id), slog.String("err", err.Error()))
	}
	e.log.Info("stopped collection target", slog.String("target_id", id))
}

// tick runs one collection pass across every active handle, skipping
// entirely if shutdown has already begun.
func (e *Engine) tick() {
	if !e.status.beginTick() {
		return
	}
	defer e.status.endTick()

	e.mu.Lock()
	handles := make([]*collector.Handle, 0, len(e.handles))
	for _, h := range e.handles {
		handles = append(handles, h)
	}
	e.mu.Unlock()

	for _, h := range handles {
		if err := h.Collect(e.wb); err != nil {
			e.log.Error("collection tick failed",
				slog.String("target_id", h.Target.ID), slog.String("err", err.Error()))
		}
	}
}

// shutdown transitions to Terminating and flushes/closes every handle.
func (e *Engine) shutdown() {
	e.status.beginTerminating()

	e.mu.Lock()
	handles := make([]*collector.Handle, 0, len(e.handles))
	for id, h := range e.handles {
		handles = append(handles, h)
		delete(e.handles, id)
	}
	e.mu.Unlock()

	for _, h := range handles {
		if err := h.Close(); err != nil {
			e.log.Error("error closing collection target on shutdown",
				slog.String("target_id", h.Target.ID), slog.String("err", err.Error()))
		}
	}

	if e.eventLog != nil {
		if _, err := e.eventLog.Write(); err != nil {
			e.log.Error("error writing flush-event log", slog.String("err", err.Error()))
		}
	}
}
