package orchestrate

import "time"

// RunOutcome captures aggregated orchestration metrics for observability.
type RunOutcome struct {
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	TaskCount      int
	CompletedCount int
	SkippedCount   int
	FailureCount   int
}

// Result is the terminal bundle-or-failure value returned to the caller.
// Partial completion is communicated through FinalStatusPartialSuccess plus
// the skipped set, never as an error.
type Result struct {
	Bundle      map[string]string
	FinalStatus FinalStatus
	Skipped     []string
	Errors      []ErrorEntry
	Outcome     RunOutcome
}
