// Package flushlog records when a collector's writer flushes its buffered
// rows to disk, optionally, for operators who want to audit write cadence
// and success separately from the CSV logs themselves.
package flushlog

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/radvisor/radvisor/internal/radvisor/cgroupread"
)

// targetIDMaxLength truncates an overlong target ID the same way the
// original bounded buffer did, so one misbehaving target can't grow a
// flush-event row without bound.
const targetIDMaxLength = 64

// Event records one write call made through a Logger: when it happened,
// which target it belongs to, how many bytes were written, and whether the
// underlying write succeeded.
type Event struct {
	TimestampNanos int64
	TargetID       string
	Written        int
	Success        bool
}

func newEvent(targetID string, n int, err error) Event {
	id := targetID
	if len(id) > targetIDMaxLength {
		id = id[:targetIDMaxLength]
	}
	return Event{
		TimestampNanos: cgroupread.NanoTS(),
		TargetID:       id,
		Written:        n,
		Success:        err == nil,
	}
}

// Log accumulates Events in memory under a mutex and serializes them to CSV
// once, at shutdown. It is shared across every target's Logger.
type Log struct {
	mu     sync.Mutex
	path   string
	events []Event
}

// NewLog creates an empty flush-event log that will be written to path.
// capacity pre-sizes the backing slice to avoid reallocation during a run.
func NewLog(path string, capacity int) *Log {
	return &Log{path: path, events: make([]Event, 0, capacity)}
}

func (l *Log) record(e Event) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

// Write serializes and clears the accumulated events, returning the count
// written. Intended to be called exactly once, during engine shutdown.
func (l *Log) Write() (int, error) {
	l.mu.Lock()
	events := l.events
	l.events = nil
	l.mu.Unlock()

	f, err := os.Create(l.path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"timestamp", "target_id", "written", "success"}); err != nil {
		return 0, err
	}
	for _, e := range events {
		row := []string{
			strconv.FormatInt(e.TimestampNanos, 10),
			e.TargetID,
			strconv.Itoa(e.Written),
			strconv.FormatBool(e.Success),
		}
		if err := w.Write(row); err != nil {
			return 0, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, err
	}
	return len(events), nil
}

// Logger wraps an io.Writer, recording one Event per underlying Write call
// into an optional shared Log. A nil Log makes this a transparent passthrough
// with no recording overhead beyond the nil check.
type Logger struct {
	w        io.Writer
	targetID string
	log      *Log
}

// New wraps w so that every write is optionally recorded to log. log may be
// nil, in which case Logger is a plain passthrough.
func New(w io.Writer, targetID string, log *Log) *Logger {
	return &Logger{w: w, targetID: targetID, log: log}
}

func (l *Logger) Write(p []byte) (int, error) {
	n, err := l.w.Write(p)
	if l.log != nil {
		l.log.record(newEvent(l.targetID, n, err))
	}
	return n, err
}
