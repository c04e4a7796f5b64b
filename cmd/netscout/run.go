package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nao1215/netscout/internal/config"
	"github.com/nao1215/netscout/internal/engine"
	"github.com/nao1215/netscout/internal/enumerate"
	netlog "github.com/nao1215/netscout/internal/log"
	"github.com/nao1215/netscout/internal/model"
	"github.com/nao1215/netscout/internal/probe"
	"github.com/nao1215/netscout/internal/report"
	"github.com/nao1215/netscout/internal/sink"
)

// runProbes is the shared execution path behind every probing
// subcommand: it expands targets and ports, assembles the sink chain for
// the requested output format, runs the dispatcher with signal handling,
// and renders the report.
func runProbes(ctx context.Context, cfg *config.Config, transport model.Transport, hint string, defaultPorts []uint16) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := netlog.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	targets, err := resolveTargets(cfg)
	if err != nil {
		return err
	}
	ports, err := resolvePorts(cfg, defaultPorts)
	if err != nil {
		return err
	}
	source := enumerate.NewSource(targets, ports, transport, hint)

	output, closeOutput, err := openOutput(cfg.OutputFile)
	if err != nil {
		return err
	}
	defer closeOutput()

	memory := sink.NewMemory()
	sinks := []sink.Sink{memory}

	switch cfg.Format {
	case config.FormatJSONL:
		sinks = append(sinks, sink.NewJSONL(output))
	case config.FormatCSV:
		sinks = append(sinks, sink.NewCSV(output))
	}

	var db *sink.SQLite
	if cfg.SaveToDB {
		dbDir := cfg.DBDir
		if dbDir == "" {
			dbDir = config.XDGDataDir()
		}
		db, err = sink.OpenSQLite(dbDir, sink.DefaultSQLiteOptions())
		if err != nil {
			return fmt.Errorf("failed to open results database: %w", err)
		}
		defer func() { _ = db.Close() }()
		sinks = append(sinks, db)
		logger.Info("results database opened", "path", db.Path())
	}

	dispatcher, err := engine.NewDispatcher(cfg.EngineOptions(), buildMux(cfg), sink.NewMulti(sinks...), logger)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopSignals(runCtx, cancel, dispatcher, logger)

	fmt.Fprintf(os.Stderr, "Probing %d targets, %d ports (%d tasks)...\n",
		len(targets), len(ports), source.Len())
	startTime := time.Now()

	summary, runErr := dispatcher.Run(runCtx, source)

	elapsed := time.Since(startTime)
	fmt.Fprintf(os.Stderr, "Run %s finished in %s\n", summary.RunID, elapsed.Round(time.Millisecond))

	if db != nil {
		if err := db.FinalizeRun(context.WithoutCancel(runCtx), summary); err != nil {
			logger.Error("failed to finalize run in database", "run_id", summary.RunID, "error", err)
		}
	}

	if err := renderReport(cfg, output, summary, memory.Records()); err != nil {
		return err
	}
	return runErr
}

// stopSignals installs two-stage interrupt handling: the first signal
// requests a graceful drain, the second aborts the run.
func stopSignals(ctx context.Context, cancel context.CancelFunc, dispatcher *engine.Dispatcher, logger *slog.Logger) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)

		select {
		case <-sigCh:
			logger.Info("received shutdown signal, draining in-flight probes (interrupt again to abort)")
			dispatcher.Stop()
		case <-ctx.Done():
			return
		}

		select {
		case <-sigCh:
			logger.Info("second signal, aborting run")
			cancel()
		case <-ctx.Done():
		}
	}()
}

// resolveTargets expands CLI targets and the optional target file into
// concrete probe targets.
func resolveTargets(cfg *config.Config) ([]model.Target, error) {
	var targets []model.Target
	for _, raw := range cfg.Targets {
		expanded, err := enumerate.ExpandTarget(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid target %q: %w", raw, err)
		}
		targets = append(targets, expanded...)
	}
	if cfg.TargetFile != "" {
		fromFile, err := enumerate.ReadTargetsFile(cfg.TargetFile)
		if err != nil {
			return nil, err
		}
		targets = append(targets, fromFile...)
	}
	return targets, nil
}

// resolvePorts selects the port list: --top-ports, then the port
// specification, then the subcommand's default set.
func resolvePorts(cfg *config.Config, defaultPorts []uint16) ([]uint16, error) {
	if cfg.TopPorts > 0 {
		return enumerate.TopPorts(cfg.TopPorts), nil
	}
	if cfg.Ports != "" {
		return enumerate.ParsePorts(cfg.Ports)
	}
	if len(defaultPorts) > 0 {
		return defaultPorts, nil
	}
	return enumerate.DefaultPorts(), nil
}

// buildMux assembles the executor mux with every probe kind registered,
// so a single run (or a target file mixing hints) can exercise them all.
func buildMux(cfg *config.Config) *probe.Mux {
	mux := probe.NewMux()

	connect := probe.NewConnect()
	mux.Register("connect", connect)
	mux.RegisterFallback(connect)

	mux.Register("discovery", probe.NewLiveness())
	mux.Register("banner", probe.NewBanner(probe.WithUserAgent(cfg.UserAgent)))

	udp := probe.NewUDP(probe.WithSNMPCommunity(cfg.SNMPCommunity))
	for _, hint := range []string{"udp", "dns", "ntp", "snmp"} {
		mux.Register(hint, udp)
	}
	return mux
}

// openOutput returns the result destination: stdout by default, or the
// named file created with owner-only permissions.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // path comes from the operator's own flag
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// renderReport writes the whole-run report for formats that render at
// finalize. Streaming formats (jsonl, csv) already wrote their records
// through the sink chain.
func renderReport(cfg *config.Config, output io.Writer, summary *model.RunSummary, records []model.ResultRecord) error {
	var writer report.Writer
	switch cfg.Format {
	case config.FormatText:
		writer = report.NewTextWriter(output)
	case config.FormatMarkdown:
		writer = report.NewMarkdownWriter(output)
	default:
		return nil
	}

	if _, err := writer.Write(summary, records); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}
