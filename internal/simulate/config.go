package simulate

import "time"

// Config holds configuration for a simulation run.
type Config struct {
	NumItems  int           // Number of items in the simulated corpus
	NumRounds int           // Number of comparison rounds to play
	Seed      int64         // Randomness seed for a reproducible run
	DataFile  string        // Snapshot file the session persists to
	TopN      int           // Number of top entries to report
	DrawRate  float64       // Probability a round ends in a draw
	UndoRate  float64       // Probability a judgment is undone and replayed
	Sharpness float64       // Judge accuracy: higher means fewer upsets
	LogFile   string        // Log file for run output
	Verbose   bool          // Enable verbose logging
	Timeout   time.Duration // Overall run timeout
}

// item is a simulated corpus member with a hidden true skill the judge
// consults. The session only ever sees the id.
type item struct {
	Name  string
	ID    string
	Skill float64
}

// Stats holds simulation statistics.
type Stats struct {
	ItemsCreated     int
	RoundsPlayed     int
	JudgmentsApplied int
	Draws            int
	Undos            int
	EmptyRounds      int
	KendallTau       float64
	TopOverlap       float64
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
