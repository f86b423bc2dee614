// Command radvisor samples per-container/per-pod cgroup resource counters
// at high frequency and writes per-target CSV log files with YAML headers.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/radvisor/radvisor/internal/config"
	"github.com/radvisor/radvisor/internal/provider/cgroupscan"
	"github.com/radvisor/radvisor/internal/provider/docker"
	"github.com/radvisor/radvisor/internal/provider/kubernetes"
	"github.com/radvisor/radvisor/internal/radvisor/collector"
	"github.com/radvisor/radvisor/internal/radvisor/engine"
	"github.com/radvisor/radvisor/internal/radvisor/flushlog"
	"github.com/radvisor/radvisor/internal/radvisor/poller"
	"github.com/radvisor/radvisor/internal/radvisor/target"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

type runOpts struct {
	directory      string
	interval       time.Duration
	pollInterval   time.Duration
	flushLogPath   string
	bufferCapacity int
	provider       string
	logLevel       string
	configPath     string
}

func main() {
	var o runOpts

	root := &cobra.Command{
		Use:   "radvisor",
		Short: "Samples cgroup resource counters into per-container CSV logs",
		Long: `radvisor is a Linux-resident agent that samples per-container/per-pod
cgroup v1/v2 resource counters at high frequency and writes per-target CSV
log files with YAML headers, for Docker, Kubernetes, or bare cgroup
hierarchies.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, o)
		},
	}

	root.Flags().StringVarP(&o.directory, "directory", "d", "/var/log/radvisor/stats", "directory to write target log files into")
	root.Flags().DurationVarP(&o.interval, "interval", "i", 50*time.Millisecond, "collection tick interval")
	root.Flags().DurationVarP(&o.pollInterval, "poll", "p", time.Second, "target discovery poll interval")
	root.Flags().StringVar(&o.provider, "provider", "docker", "target discovery provider (docker|kubernetes|cgroup)")
	root.Flags().StringVar(&o.flushLogPath, "flush-log", "", "optional path to write the flush-event audit log to on shutdown")
	root.Flags().IntVar(&o.bufferCapacity, "buffer-capacity", 64*1024, "per-target log file write-buffer size, in bytes")
	root.Flags().StringVar(&o.logLevel, "log-level", "info", "log level (debug|info|warn|error)")
	root.Flags().StringVar(&o.configPath, "config", "", "optional YAML config file; flags take precedence over its values")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version)
			return nil
		},
	})

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, o runOpts) error {
	overlay, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	applyOverlay(cmd, &o, overlay)

	level, err := parseLogLevel(o.logLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	collector.Version = version

	targetProvider, err := buildProvider(o.provider)
	if err != nil {
		return fmt.Errorf("building provider %q: %w", o.provider, err)
	}

	var eventLog *flushlog.Log
	if o.flushLogPath != "" {
		eventLog = flushlog.NewLog(o.flushLogPath, 1024)
	}

	eng := engine.New(o.directory, o.bufferCapacity, eventLog, logger)
	p := poller.New(targetProvider, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go p.Run(ctx, o.pollInterval)

	logger.Info("radvisor starting",
		slog.String("provider", o.provider),
		slog.String("directory", o.directory),
		slog.Duration("interval", o.interval))

	return eng.Run(ctx, p.Events, o.interval)
}

// applyOverlay fills any flag the user did not explicitly set on the command
// line from the config file overlay, so flags always win.
func applyOverlay(cmd *cobra.Command, o *runOpts, overlay config.Options) {
	changed := cmd.Flags().Changed
	if overlay.Directory != "" && !changed("directory") {
		o.directory = overlay.Directory
	}
	if overlay.Interval != 0 && !changed("interval") {
		o.interval = overlay.Interval
	}
	if overlay.PollInterval != 0 && !changed("poll") {
		o.pollInterval = overlay.PollInterval
	}
	if overlay.FlushLogPath != "" && !changed("flush-log") {
		o.flushLogPath = overlay.FlushLogPath
	}
	if overlay.BufferCapacity != 0 && !changed("buffer-capacity") {
		o.bufferCapacity = overlay.BufferCapacity
	}
	if overlay.Provider != "" && !changed("provider") {
		o.provider = overlay.Provider
	}
	if overlay.LogLevel != "" && !changed("log-level") {
		o.logLevel = overlay.LogLevel
	}
}

func parseLogLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

func buildProvider(name string) (target.Provider, error) {
	switch name {
	case "docker":
		return docker.New()
	case "kubernetes":
		return kubernetes.New("")
	case "cgroup":
		return cgroupscan.New([]string{"docker"}), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want docker, kubernetes, or cgroup)", name)
	}
}
