package chartrunner

import (
	"context"
	"fmt"
	"strings"

	"github.com/tyemirov/helmsmith/internal/orchestrate"
	"github.com/tyemirov/helmsmith/internal/plan"
)

const (
	planResolutionErrorTemplateConstant      = "chartrunner.plan: %w"
	orchestratorCreationErrorTemplateConstant = "chartrunner.orchestrator: %w"
)

// Options configure one chart generation run.
type Options struct {
	// MaxRetries bounds per-task retry attempts. The zero value selects
	// orchestrate.DefaultMaxRetries; orchestrate.NoRetries disables retries.
	MaxRetries int
	// Backoff optionally delays retry attempts. Nil disables backoff.
	Backoff orchestrate.BackoffFunc
	// DisableSummary suppresses the post-run summary line.
	DisableSummary bool
}

// Run resolves the plan into a task graph, executes it, and prints the run
// summary. The returned result carries the assembled bundle and the final
// status even when the run fails.
func Run(executionContext context.Context, resourcePlan plan.ResourcePlan, dependencies Dependencies, options Options) (orchestrate.Result, error) {
	resolved, dependenciesError := resolveDependencies(resourcePlan, dependencies)
	if dependenciesError != nil {
		return orchestrate.Result{}, dependenciesError
	}

	resolution, resolutionError := plan.Resolve(resourcePlan)
	if resolutionError != nil {
		return orchestrate.Result{}, fmt.Errorf(planResolutionErrorTemplateConstant, resolutionError)
	}

	orchestrator, orchestratorError := orchestrate.NewOrchestrator(
		resolved.registry,
		resolved.assembler,
		orchestrate.Options{MaxRetries: options.MaxRetries, Backoff: options.Backoff},
		resolved.logger,
	)
	if orchestratorError != nil {
		return orchestrate.Result{}, fmt.Errorf(orchestratorCreationErrorTemplateConstant, orchestratorError)
	}

	result, runError := orchestrator.Run(executionContext, resolution.Graph)

	if !options.DisableSummary {
		summaryLine := RenderSummaryLine(result)
		if len(strings.TrimSpace(summaryLine)) > 0 {
			fmt.Fprintln(resolved.errors, summaryLine)
		}
	}

	return result, runError
}
