package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	orchestratorMissingRegistryMessageConstant  = "orchestrator requires a producer registry"
	orchestratorMissingAssemblerMessageConstant = "orchestrator requires a bundle assembler"
	orchestratorCancelledTemplateConstant       = "orchestration run cancelled: %w"
	orchestratorScheduleErrorTemplateConstant   = "orchestration scheduling failed: %w"
	orchestratorRunnerErrorTemplateConstant     = "orchestration task execution failed: %w"
	orchestratorGovernorErrorTemplateConstant   = "orchestration retry governance failed: %w"
	orchestratorAssemblyErrorTemplateConstant   = "orchestration bundle assembly failed: %w"
	orchestratorStateErrorTemplateConstant      = "orchestration state construction failed: %w"
	orchestratorUnexpectedHaltMessageConstant   = "scheduler halted before aggregation produced a bundle"
	orchestratorPhaseLogMessageConstant         = "run_phase_advanced"
	orchestratorCompletedLogMessageConstant     = "run_completed"
	orchestratorLogFieldPhaseConstant           = "phase"
	orchestratorLogFieldStatusConstant          = "final_status"
	orchestratorLogFieldSkippedConstant         = "skipped_count"
	orchestratorLogFieldErrorsConstant          = "error_count"
	orchestratorLogFieldDurationConstant        = "duration"
)

// BundleAssembler lays out the produced artifacts into their final addressable
// paths once every phase is satisfied.
type BundleAssembler interface {
	Assemble(state *State) (map[string]string, error)
}

// Options tune a single orchestrator instance.
type Options struct {
	// MaxRetries bounds per-task retry attempts. The zero value selects
	// DefaultMaxRetries; NoRetries skips failed tasks on their first failure.
	MaxRetries int
	// Backoff optionally delays retry attempts. Nil disables backoff.
	Backoff BackoffFunc
}

// Orchestrator owns the sequential scheduler/runner/governor loop for one or
// more runs. At most one task is RUNNING at any instant.
type Orchestrator struct {
	scheduler Scheduler
	runner    *Runner
	governor  Governor
	assembler BundleAssembler
	logger    *zap.Logger
}

// NewOrchestrator wires the orchestration trio around the supplied registry
// and bundle assembler.
func NewOrchestrator(registry ProducerRegistry, assembler BundleAssembler, options Options, logger *zap.Logger) (*Orchestrator, error) {
	if registry == nil {
		return nil, errors.New(orchestratorMissingRegistryMessageConstant)
	}
	if assembler == nil {
		return nil, errors.New(orchestratorMissingAssemblerMessageConstant)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Orchestrator{
		scheduler: NewScheduler(),
		runner:    NewRunner(registry, logger),
		governor:  NewGovernor(options.MaxRetries, options.Backoff, logger),
		assembler: assembler,
		logger:    logger,
	}, nil
}

// Run executes the resolved task graph to termination. Recoverable producer
// failures are absorbed by the governor; only the fatal error kinds terminate
// the run early, always with FinalStatusFailed.
func (orchestrator *Orchestrator) Run(executionContext context.Context, graph TaskGraph) (Result, error) {
	startTime := time.Now()

	state, stateError := NewState(graph)
	if stateError != nil {
		return Result{FinalStatus: FinalStatusFailed}, fmt.Errorf(orchestratorStateErrorTemplateConstant, stateError)
	}

	for {
		select {
		case <-executionContext.Done():
			return orchestrator.failRun(state, startTime, fmt.Errorf(orchestratorCancelledTemplateConstant, executionContext.Err()))
		default:
		}

		decision, scheduleError := orchestrator.scheduler.Next(state)
		if scheduleError != nil {
			return orchestrator.failRun(state, startTime, fmt.Errorf(orchestratorScheduleErrorTemplateConstant, scheduleError))
		}

		switch decision.Kind {
		case DecisionRunTask:
			if executeError := orchestrator.runner.Execute(executionContext, state, decision.TaskID); executeError != nil {
				return orchestrator.failRun(state, startTime, fmt.Errorf(orchestratorRunnerErrorTemplateConstant, executeError))
			}
			if state.Tasks[decision.TaskID].Status == TaskStatusFailed {
				if _, governError := orchestrator.governor.Resolve(executionContext, state, decision.TaskID); governError != nil {
					return orchestrator.failRun(state, startTime, fmt.Errorf(orchestratorGovernorErrorTemplateConstant, governError))
				}
			}

		case DecisionAdvancePhase:
			if advanceError := state.AdvancePhase(decision.NextPhase); advanceError != nil {
				return orchestrator.failRun(state, startTime, fmt.Errorf(orchestratorScheduleErrorTemplateConstant, advanceError))
			}
			orchestrator.logger.Debug(
				orchestratorPhaseLogMessageConstant,
				zap.String(orchestratorLogFieldPhaseConstant, string(state.CurrentPhase)),
			)

		case DecisionAggregate:
			return orchestrator.aggregate(state, startTime)

		case DecisionHalt:
			return orchestrator.failRun(state, startTime, InternalConsistencyError{Reason: orchestratorUnexpectedHaltMessageConstant})
		}
	}
}

// aggregate invokes the bundle assembler exactly once and records the
// write-once terminal status.
func (orchestrator *Orchestrator) aggregate(state *State, startTime time.Time) (Result, error) {
	bundle, assemblyError := orchestrator.assembler.Assemble(state)
	if assemblyError != nil {
		return orchestrator.failRun(state, startTime, fmt.Errorf(orchestratorAssemblyErrorTemplateConstant, assemblyError))
	}

	finalStatus := FinalStatusSuccess
	if len(state.Skipped) > 0 {
		finalStatus = FinalStatusPartialSuccess
	}
	if statusError := state.SetFinalStatus(finalStatus); statusError != nil {
		return orchestrator.failRun(state, startTime, InternalConsistencyError{Reason: statusError.Error()})
	}
	if advanceError := state.AdvancePhase(RunPhaseCompleted); advanceError != nil {
		return orchestrator.failRun(state, startTime, fmt.Errorf(orchestratorScheduleErrorTemplateConstant, advanceError))
	}

	result := Result{
		Bundle:      bundle,
		FinalStatus: finalStatus,
		Skipped:     state.SkippedTaskIDs(),
		Errors:      append([]ErrorEntry(nil), state.Errors...),
		Outcome:     orchestrator.buildOutcome(state, startTime),
	}

	orchestrator.logger.Info(
		orchestratorCompletedLogMessageConstant,
		zap.String(orchestratorLogFieldStatusConstant, string(finalStatus)),
		zap.Int(orchestratorLogFieldSkippedConstant, len(result.Skipped)),
		zap.Int(orchestratorLogFieldErrorsConstant, len(result.Errors)),
		zap.Duration(orchestratorLogFieldDurationConstant, result.Outcome.Duration),
	)
	return result, nil
}

// failRun records the fatal terminal status when it has not been written yet
// and returns the structured failure to the caller.
func (orchestrator *Orchestrator) failRun(state *State, startTime time.Time, runError error) (Result, error) {
	if state.FinalStatus() == FinalStatusUnset {
		_ = state.SetFinalStatus(FinalStatusFailed)
	}
	result := Result{
		FinalStatus: FinalStatusFailed,
		Skipped:     state.SkippedTaskIDs(),
		Errors:      append([]ErrorEntry(nil), state.Errors...),
		Outcome:     orchestrator.buildOutcome(state, startTime),
	}
	return result, runError
}

func (orchestrator *Orchestrator) buildOutcome(state *State, startTime time.Time) RunOutcome {
	endTime := time.Now()
	outcome := RunOutcome{
		StartTime:    startTime,
		EndTime:      endTime,
		Duration:     endTime.Sub(startTime),
		TaskCount:    len(state.Tasks),
		SkippedCount: len(state.Skipped),
		FailureCount: len(state.Errors),
	}
	for _, task := range state.Tasks {
		if task.Status == TaskStatusCompleted {
			outcome.CompletedCount++
		}
	}
	return outcome
}
