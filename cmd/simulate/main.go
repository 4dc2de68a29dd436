package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/duelo/internal/simulate"
)

// Default configuration constants.
const (
	defaultNumItems   = 50
	defaultNumRounds  = 2000
	defaultSeed       = 1
	defaultTopN       = 10
	defaultDrawRate   = 0.05
	defaultUndoRate   = 0.02
	defaultSharpness  = 1.5
	defaultRunTimeout = 5 * time.Minute
)

func main() {
	var (
		numItems  = flag.Int("items", defaultNumItems, "Number of items in the synthetic corpus")
		numRounds = flag.Int("rounds", defaultNumRounds, "Number of comparison rounds to play")
		seed      = flag.Int64("seed", defaultSeed, "Randomness seed for a reproducible run")
		dataFile  = flag.String("data", "simulate.json", "Snapshot file the session persists to")
		topN      = flag.Int("top", defaultTopN, "Number of top entries to report")
		drawRate  = flag.Float64("draws", defaultDrawRate, "Probability a round ends in a draw")
		undoRate  = flag.Float64("undos", defaultUndoRate, "Probability a judgment is undone and replayed")
		sharpness = flag.Float64("sharpness", defaultSharpness, "Judge accuracy; higher means fewer upsets")
		timeout   = flag.Duration("timeout", defaultRunTimeout, "Overall run timeout")
		logFile   = flag.String("log", "", "Log file for run output (default: simulate_TIMESTAMP.log)")
		verbose   = flag.Bool("verbose", false, "Enable verbose logging")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp()
		return
	}

	if err := simulate.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	config := &simulate.Config{
		NumItems:  *numItems,
		NumRounds: *numRounds,
		Seed:      *seed,
		DataFile:  *dataFile,
		TopN:      *topN,
		DrawRate:  *drawRate,
		UndoRate:  *undoRate,
		Sharpness: *sharpness,
		LogFile:   *logFile,
		Verbose:   *verbose,
		Timeout:   *timeout,
	}

	if err := simulate.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		return
	}
}
