package chartrunner

import (
	"fmt"
	"strings"
	"time"

	"github.com/tyemirov/helmsmith/internal/orchestrate"
)

const durationRounding = time.Millisecond

// RenderSummaryLine returns the summary line printed after chart runs.
func RenderSummaryLine(result orchestrate.Result) string {
	if result.Outcome.TaskCount == 0 {
		return ""
	}

	parts := []string{
		fmt.Sprintf("Summary: tasks=%d", result.Outcome.TaskCount),
		fmt.Sprintf("completed=%d", result.Outcome.CompletedCount),
		fmt.Sprintf("skipped=%d", result.Outcome.SkippedCount),
		fmt.Sprintf("failures=%d", result.Outcome.FailureCount),
	}

	if len(result.FinalStatus) > 0 {
		parts = append(parts, fmt.Sprintf("status=%s", result.FinalStatus))
	}

	durationHuman := result.Outcome.Duration.Round(durationRounding).String()
	parts = append(parts, fmt.Sprintf("duration_human=%s", durationHuman))
	parts = append(parts, fmt.Sprintf("duration_ms=%d", result.Outcome.Duration.Milliseconds()))

	return strings.Join(parts, " ")
}
