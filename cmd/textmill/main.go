package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/textmill/textmill/pkg/core/pipeline"
	"github.com/textmill/textmill/pkg/infrastructure/config"
	"github.com/textmill/textmill/pkg/infrastructure/logging"
	"github.com/textmill/textmill/pkg/util"
)

func main() {
	var (
		configFile = flag.String("config", "", "Configuration file path")
		numWorkers = flag.Int("workers", 0, "Number of workers (overrides config)")
		numTasks   = flag.Int("tasks", -1, "Number of tasks (overrides config)")
		output     = flag.String("output", "", "Output file path (overrides config)")
		format     = flag.String("format", "", "Output format: text or json (overrides config)")
		input      = flag.String("input", "", "Payload source file, one payload per line (overrides config)")
		logLevel   = flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	)

	flag.Parse()

	// Load configuration
	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Apply command-line overrides
	if *numWorkers != 0 {
		cfg.Pipeline.NumWorkers = *numWorkers
	}
	if *numTasks >= 0 {
		cfg.Pipeline.NumTasks = *numTasks
	}
	if *output != "" {
		cfg.Output.Path = *output
	}
	if *format != "" {
		cfg.Output.Format = *format
	}
	if *input != "" {
		cfg.Pipeline.InputFile = *input
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		// Interrupts and write failures degrade to partial output; the
		// process still exits cleanly after the write attempt.
		fmt.Fprintln(os.Stderr, util.FormatError(err))
	}
}

// run executes one pipeline batch and hands the finished sink to the output
// writer. It returns an error for reporting only; no pipeline outcome is
// treated as fatal.
func run(cfg *config.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional payload source file; the generated batch is used otherwise.
	var payloads []string
	if cfg.Pipeline.InputFile != "" {
		var err error
		payloads, err = util.ReadPayloadLines(cfg.Pipeline.InputFile)
		if err != nil {
			return util.WrapErrorWithSuggestion(err, "check the -input path, or omit it to use generated payloads")
		}
	}

	p, err := pipeline.New(pipeline.Config{
		NumWorkers:    cfg.Pipeline.NumWorkers,
		NumTasks:      cfg.Pipeline.NumTasks,
		QueueCapacity: cfg.Pipeline.QueueCapacity,
		MinDelay:      time.Duration(cfg.Pipeline.MinDelayMs) * time.Millisecond,
		MaxDelay:      time.Duration(cfg.Pipeline.MaxDelayMs) * time.Millisecond,
		JoinTimeout:   time.Duration(cfg.Pipeline.JoinTimeoutSecs) * time.Second,
		Payloads:      payloads,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	stats, runErr := p.Run(ctx)

	// Write whatever results exist, even after a timeout or interrupt.
	logger.Infof("Writing results to file: %s", cfg.Output.Path)
	var writeErr error
	switch cfg.Output.Format {
	case "json":
		writeErr = util.WriteResultsJSON(cfg.Output.Path, stats.RunID, p.Sink().Results())
	default:
		writeErr = util.WriteResults(cfg.Output.Path, p.Sink().Lines())
	}
	if writeErr != nil {
		logger.Errorf("Error writing results to file: %v", writeErr)
	} else {
		logger.Infof("Results successfully written to %s", cfg.Output.Path)
	}

	showStats(stats)

	return runErr
}

// loadConfig loads configuration from file or uses defaults. An explicitly
// requested file must exist; the implicit default path may be absent.
func loadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadConfigFile(configPath)
	}

	// Try default config path
	defaultPath, err := config.GetDefaultConfigPath()
	if err == nil {
		configPath = defaultPath
	}

	return config.LoadConfig(configPath)
}

// buildLogger constructs the process logger from the logging configuration.
func buildLogger(cfg *config.Config) (*logging.Logger, error) {
	level, err := logging.ParseLogLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = level

	if cfg.Logging.Output == "file" {
		output, err := logging.CreateCombinedOutput(cfg.Logging.File)
		if err != nil {
			return nil, err
		}
		logCfg.Output = output
	}

	logger := logging.NewLogger(logCfg)
	logging.InitGlobalLogger(logCfg)
	return logger, nil
}

// showStats displays the outcome of the run
func showStats(stats *pipeline.RunStats) {
	fmt.Println("\n--- Run Summary ---")
	fmt.Printf("Run ID: %s\n", stats.RunID)
	fmt.Printf("Workers: %d\n", stats.NumWorkers)
	fmt.Printf("Tasks: %d enqueued, %d processed, %d failed\n",
		stats.TasksEnqueued, stats.ResultsCollected, stats.TasksFailed)
	fmt.Printf("Elapsed: %s\n", stats.Elapsed.Round(time.Millisecond))

	if stats.TimedOut {
		fmt.Println("Warning: timed out waiting for workers; results are partial")
	}
}
