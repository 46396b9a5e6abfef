package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tensorscan/internal/config"
	"tensorscan/internal/dispatch"
	"tensorscan/internal/filelock"
	"tensorscan/internal/fileutil"
	"tensorscan/internal/history"
	"tensorscan/internal/logger"
	"tensorscan/internal/modelcard"
	"tensorscan/internal/safetensors"
)

// runLockTimeout bounds how long a scan waits for a concurrent scan to
// release the history database.
const runLockTimeout = 10 * time.Second

// scanLogger is the logging surface shared by the console and file loggers.
type scanLogger interface {
	Tracef(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	LogScanSummary(processed, failed, skipped int, duration time.Duration)
}

// runScan implements the root scan command logic
func runScan(cmd *cobra.Command, args []string) error {
	// A missing target is not an error: print usage and exit clean
	if len(args) == 0 {
		return cmd.Help()
	}
	raw := args[0]

	cfg, err := loadScanConfig(cmd)
	if err != nil {
		return err
	}

	// Get flag values
	extFlag, _ := cmd.Flags().GetString("ext")
	logLevelFlag, _ := cmd.Flags().GetString("log-level")
	noColorFlag, _ := cmd.Flags().GetBool("no-color")
	sidecarDirFlag, _ := cmd.Flags().GetString("sidecar-dir")
	dryRunFlag, _ := cmd.Flags().GetBool("dry-run")
	noHistoryFlag, _ := cmd.Flags().GetBool("no-history")

	// Build flag pointers for merge (only explicitly set values override)
	var extPtr, logLevelPtr, sidecarDirPtr *string
	var noColorPtr, dryRunPtr, historyEnabledPtr *bool

	if cmd.Flags().Changed("ext") {
		extPtr = &extFlag
	}
	if cmd.Flags().Changed("log-level") {
		logLevelPtr = &logLevelFlag
	}
	if cmd.Flags().Changed("no-color") {
		noColorPtr = &noColorFlag
	}
	if cmd.Flags().Changed("sidecar-dir") {
		sidecarDirPtr = &sidecarDirFlag
	}
	if cmd.Flags().Changed("dry-run") {
		dryRunPtr = &dryRunFlag
	}
	if cmd.Flags().Changed("no-history") {
		historyEnabled := !noHistoryFlag
		historyEnabledPtr = &historyEnabled
	}

	// Merge CLI flags with config (flags take precedence)
	cfg.MergeWithFlags(extPtr, logLevelPtr, noColorPtr, sidecarDirPtr, dryRunPtr, historyEnabledPtr)

	// Validate merged configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Console logger for diagnostics, on stderr so data output stays clean
	level := logger.ResolveLevel("", cfg.LogLevel)
	consoleLog := logger.NewConsoleLogger(cmd.ErrOrStderr(), level)
	if cfg.NoColor {
		consoleLog.DisableColor()
	}

	// File logger for the persistent run log
	logDir := cfg.LogDir
	if logDir == "" {
		logDir, err = config.GetLogDir()
		if err != nil {
			return fmt.Errorf("failed to resolve log directory: %w", err)
		}
	}
	fileLog, err := logger.NewFileLogger(logDir, level)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer fileLog.Close()

	multiLog := &multiLogger{loggers: []scanLogger{consoleLog, fileLog}}

	ctx := context.Background()
	mode := dispatch.Mode(raw)

	// Reject malformed patterns before a run row is written
	if mode == dispatch.ModeGlob && !fileutil.ValidPattern(raw) {
		return fmt.Errorf("scan failed: %w", &fileutil.GlobSyntaxError{Pattern: raw})
	}

	// Surface the model card when scanning a directory root
	if mode == dispatch.ModeDirectory {
		card, cardErr := modelcard.Load(raw)
		switch {
		case cardErr != nil:
			multiLog.Debugf("model card unavailable: %v", cardErr)
		case card != nil && card.Title != "":
			if card.License != "" {
				multiLog.Infof("Model card: %s (license %s)", card.Title, card.License)
			} else {
				multiLog.Infof("Model card: %s", card.Title)
			}
		}
	}

	// Set up history recording unless disabled or dry-running
	var recorder dispatch.Recorder
	var store *history.Store
	var runID string

	if cfg.History.Enabled && !cfg.DryRun {
		dbPath := cfg.History.DBPath
		if dbPath == "" {
			dbPath, err = config.GetHistoryDBPath()
			if err != nil {
				return fmt.Errorf("failed to resolve history database path: %w", err)
			}
		}

		// One writing scan per history database at a time
		lock := filelock.NewFileLock(dbPath + ".lock")
		if err := lock.LockWithTimeout(runLockTimeout); err != nil {
			return fmt.Errorf("history database is busy: %w", err)
		}
		defer lock.Unlock()

		store, err = history.NewStore(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open history store: %w", err)
		}
		defer store.Close()

		runID, err = store.BeginRun(ctx, raw, mode, cfg.Extension)
		if err != nil {
			return fmt.Errorf("failed to record run start: %w", err)
		}
		recorder = &runRecorder{ctx: ctx, store: store, runID: runID}
	}

	// Dry runs list candidates without touching them
	var handler dispatch.Handler
	if cfg.DryRun {
		handler = dispatch.HandlerFunc(func(ctx context.Context, path string) error {
			multiLog.Infof("would scan %s", path)
			return nil
		})
	} else {
		handler = safetensors.NewInspector(multiLog, cfg.SidecarDir)
	}

	start := time.Now()
	d := &dispatch.Dispatcher{
		Handler:  handler,
		Logger:   multiLog,
		Recorder: recorder,
	}
	stats, scanErr := d.Dispatch(ctx, raw, cfg.Extension)

	if store != nil {
		if finishErr := store.FinishRun(ctx, runID, stats.Processed, stats.Failed, stats.Skipped); finishErr != nil {
			multiLog.Warnf("Failed to finalize run history: %v", finishErr)
		}
	}

	multiLog.LogScanSummary(stats.Processed, stats.Failed, stats.Skipped, time.Since(start))

	// Per-file failures are already accounted for in the summary; only a
	// structural failure makes the scan itself fail
	if scanErr != nil {
		return fmt.Errorf("scan failed: %w", scanErr)
	}
	return nil
}

// loadScanConfig loads the config file named by --config, falling back to
// .tensorscan/config.yaml in the working directory and then the tensorscan
// home. A missing file yields defaults.
func loadScanConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath != "" {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
		return cfg, nil
	}

	resolved, err := config.ResolveConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	cfg, err := config.LoadConfig(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// runRecorder adapts the history store to the dispatch.Recorder interface,
// binding every outcome to one run. The context is carried here because
// recording happens inside dispatch callbacks that do not thread one.
type runRecorder struct {
	ctx   context.Context
	store *history.Store
	runID string
}

// RecordFile persists a single per-file outcome.
func (r *runRecorder) RecordFile(path, status, detail string) error {
	return r.store.RecordFile(r.ctx, r.runID, path, status, detail)
}

// multiLogger fans every log call out to all attached loggers.
type multiLogger struct {
	loggers []scanLogger
}

// Tracef forwards to all loggers
func (ml *multiLogger) Tracef(format string, args ...interface{}) {
	for _, l := range ml.loggers {
		l.Tracef(format, args...)
	}
}

// Debugf forwards to all loggers
func (ml *multiLogger) Debugf(format string, args ...interface{}) {
	for _, l := range ml.loggers {
		l.Debugf(format, args...)
	}
}

// Infof forwards to all loggers
func (ml *multiLogger) Infof(format string, args ...interface{}) {
	for _, l := range ml.loggers {
		l.Infof(format, args...)
	}
}

// Warnf forwards to all loggers
func (ml *multiLogger) Warnf(format string, args ...interface{}) {
	for _, l := range ml.loggers {
		l.Warnf(format, args...)
	}
}

// Errorf forwards to all loggers
func (ml *multiLogger) Errorf(format string, args ...interface{}) {
	for _, l := range ml.loggers {
		l.Errorf(format, args...)
	}
}

// LogScanSummary forwards to all loggers
func (ml *multiLogger) LogScanSummary(processed, failed, skipped int, duration time.Duration) {
	for _, l := range ml.loggers {
		l.LogScanSummary(processed, failed, skipped, duration)
	}
}
