package collector

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/radvisor/radvisor/internal/radvisor/buffers"
	"github.com/radvisor/radvisor/internal/radvisor/cgroupread"
	"github.com/radvisor/radvisor/internal/radvisor/csvrow"
	"github.com/radvisor/radvisor/internal/radvisor/flushlog"
	"github.com/radvisor/radvisor/internal/radvisor/target"
	"github.com/radvisor/radvisor/internal/sysinfo"
	"gopkg.in/yaml.v3"
)

// Version is the build version string written into every log file header,
// overridden at build time via -ldflags.
var Version = "unknown"

// logFileHeader bundles everything written into a log file's YAML header,
// before the "---" document separator and the CSV header row.
type logFileHeader struct {
	Version           string         `yaml:"Version"`
	Provider          string         `yaml:"Provider"`
	Metadata          map[string]any `yaml:"Metadata,omitempty"`
	PerfTable         TableMetadata  `yaml:"PerfTable"`
	System            sysinfo.Info   `yaml:"System"`
	CollectorType     string         `yaml:"CollectorType"`
	CollectorMetadata map[string]any `yaml:"CollectorMetadata,omitempty"`
	PolledAt          int64          `yaml:"PolledAt"`
	InitializedAt     int64          `yaml:"InitializedAt"`
}

// Handle wraps one Collector with its open log file. Active is toggled false
// by the engine once the poller reports the underlying target gone, right
// before the engine removes and closes this Handle.
type Handle struct {
	Collector Collector
	Target    target.CollectionTarget
	Active    bool

	file   *os.File
	writer *bufio.Writer
}

// NewHandle creates the target's log file (making logsDir as needed), writes
// the YAML header followed by the CSV header row, and initializes the
// collector's long-lived file handles. eventLog may be nil to disable flush
// auditing.
func NewHandle(logsDir string, tgt target.CollectionTarget, bufferCapacity int, eventLog *flushlog.Log) (*Handle, error) {
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, fmt.Errorf("collector: creating log directory: %w", err)
	}

	path := constructLogPath(tgt.ID, logsDir)
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("collector: opening log file: %w", err)
	}

	coll, err := New(tgt.Method.Path)
	if err != nil {
		file.Close()
		return nil, err
	}

	header := logFileHeader{
		Version:           Version,
		Provider:          tgt.Provider,
		Metadata:          tgt.Metadata,
		PerfTable:         coll.TableMetadata(),
		System:            sysinfo.Get(),
		CollectorType:     coll.Type(),
		CollectorMetadata: coll.Metadata(),
		PolledAt:          tgt.PollTimeNano,
		InitializedAt:     cgroupread.NanoTS(),
	}
	headerBytes, err := yaml.Marshal(&header)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("collector: marshaling log header: %w", err)
	}
	if _, err := file.Write(headerBytes); err != nil {
		file.Close()
		return nil, fmt.Errorf("collector: writing log header: %w", err)
	}
	if _, err := file.WriteString("---\n"); err != nil {
		file.Close()
		return nil, fmt.Errorf("collector: writing header separator: %w", err)
	}

	logged := flushlog.New(file, tgt.ID, eventLog)
	writer := bufio.NewWriterSize(logged, bufferCapacity)

	if _, err := csvrow.WriteHeader(writer, coll.HeaderColumns()); err != nil {
		file.Close()
		return nil, fmt.Errorf("collector: writing CSV header row: %w", err)
	}

	if err := coll.Init(); err != nil {
		file.Close()
		return nil, fmt.Errorf("collector: initializing collector: %w", err)
	}

	return &Handle{
		Collector: coll,
		Target:    tgt,
		Active:    true,
		file:      file,
		writer:    writer,
	}, nil
}

// Collect runs one tick: the collector appends its row's fields to
// wb.Record, and unless the row is discarded (cgroup v2's all-empty case),
// the record is written and cleared.
func (h *Handle) Collect(wb *buffers.WorkingBuffers) error {
	discard := h.Collector.Collect(wb)
	if discard {
		wb.Record.Clear()
		return nil
	}
	_, err := wb.Record.WriteRow(h.writer)
	wb.Record.Clear()
	return err
}

// Flush pushes any buffered rows to the underlying file.
func (h *Handle) Flush() error {
	return h.writer.Flush()
}

// Close flushes, closes the collector's own file handles, and closes the
// log file.
func (h *Handle) Close() error {
	flushErr := h.writer.Flush()
	h.Collector.Close()
	closeErr := h.file.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

// constructLogPath builds "<logsDir>/<id>_<unix-seconds>.log", matching the
// historical naming scheme so a recreated target with the same ID gets a new
// file. Two handles for the same ID created within the same second share one
// path (the file is opened in append mode).
func constructLogPath(id string, logsDir string) string {
	filename := id + "_" + strconv.FormatInt(cgroupread.SecondTS(), 10) + ".log"
	return filepath.Join(logsDir, filename)
}
