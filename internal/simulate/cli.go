package simulate

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/duelo/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string, verbose bool) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		if err := logger.SetLevelString("debug"); err != nil {
			return err
		}
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "simulate_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the simulation tool.
func ShowHelp() {
	os.Stdout.WriteString(`Duelo Rating Simulator
======================

Plays a synthetic comparison session against the rating engine: items
with hidden skills, a noisy judge, undo churn, and a restart to verify
persistence, then reports how well the learned ranking recovered the
true one.

Usage:
  go run cmd/simulate/main.go [options]

Options:
  -items int
        Number of items in the synthetic corpus (default 50)
  -rounds int
        Number of comparison rounds to play (default 2000)
  -seed int
        Randomness seed for a reproducible run (default 1)
  -data string
        Snapshot file the session persists to (default "simulate.json")
  -top int
        Number of top entries to report (default 10)
  -draws float
        Probability a round ends in a draw (default 0.05)
  -undos float
        Probability a judgment is undone and replayed (default 0.02)
  -sharpness float
        Judge accuracy; higher means fewer upsets (default 1.5)
  -timeout duration
        Overall run timeout (default 5m)
  -log string
        Log file for run output (default: simulate_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Simulate with default settings
  go run cmd/simulate/main.go

  # Large corpus, long run, fixed seed
  go run cmd/simulate/main.go -items 200 -rounds 20000 -seed 42

  # Noisier judge with more draws
  go run cmd/simulate/main.go -sharpness 0.8 -draws 0.15
`)
}
