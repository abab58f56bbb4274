package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

const (
	runnerUnknownTaskTemplateConstant     = "task runner selected unknown task %q"
	runnerTaskNotPendingTemplateConstant  = "task %q is %s; only pending tasks may run"
	runnerMissingProducerTemplateConstant = "no producer registered for task %q"
	runnerEmptyProductionMessageConstant  = "producer returned no artifacts"
	runnerTaskFailedLogMessageConstant    = "task_producer_failed"
	runnerTaskCompletedLogMessageConstant = "task_completed"
	runnerLogFieldTaskConstant            = "task"
	runnerLogFieldRetryCountConstant      = "retry_count"
	runnerLogFieldArtifactCountConstant   = "artifact_count"
	runnerLogFieldErrorConstant           = "error"
)

// Producer generates one or more named artifacts from a read-only snapshot of
// previously produced artifacts, or fails.
type Producer interface {
	Produce(executionContext context.Context, snapshot ArtifactSnapshot) (map[string]string, error)
}

// ProducerRegistry resolves a task identifier to its producer. The mapping is
// fixed after construction.
type ProducerRegistry interface {
	Lookup(taskID string) (Producer, bool)
}

// Runner executes a single scheduled task and converts the producer outcome
// into a state delta. Retry policy belongs entirely to the Governor.
type Runner struct {
	registry ProducerRegistry
	logger   *zap.Logger
}

// NewRunner constructs a Runner with the supplied registry and logger.
func NewRunner(registry ProducerRegistry, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{registry: registry, logger: logger}
}

// Execute runs the selected task's producer. Producer failures are recorded in
// the state and leave the task FAILED for the governor; only contract
// violations (unknown task, missing producer, duplicate artifact write) are
// returned as fatal errors.
func (runner *Runner) Execute(executionContext context.Context, state *State, taskID string) error {
	task, exists := state.Tasks[taskID]
	if !exists {
		return InternalConsistencyError{Reason: fmt.Sprintf(runnerUnknownTaskTemplateConstant, taskID)}
	}
	if task.Status != TaskStatusPending {
		return InternalConsistencyError{Reason: fmt.Sprintf(runnerTaskNotPendingTemplateConstant, taskID, task.Status)}
	}

	producer, producerExists := runner.registry.Lookup(taskID)
	if !producerExists {
		return InternalConsistencyError{Reason: fmt.Sprintf(runnerMissingProducerTemplateConstant, taskID)}
	}

	task.Status = TaskStatusRunning

	artifacts, productionError := producer.Produce(executionContext, state.ArtifactSnapshot())
	if productionError == nil && len(artifacts) == 0 {
		productionError = errors.New(runnerEmptyProductionMessageConstant)
	}
	if productionError != nil {
		failure := ProducerFailureError{TaskID: taskID, Cause: productionError}
		state.RecordFailure(taskID, productionError.Error())
		task.Status = TaskStatusFailed
		runner.logger.Warn(
			runnerTaskFailedLogMessageConstant,
			zap.String(runnerLogFieldTaskConstant, taskID),
			zap.Int(runnerLogFieldRetryCountConstant, state.RetryCounts[taskID]),
			zap.Error(failure),
		)
		return nil
	}

	artifactNames := make([]string, 0, len(artifacts))
	for artifactName := range artifacts {
		artifactNames = append(artifactNames, artifactName)
	}
	sort.Strings(artifactNames)

	for _, artifactName := range artifactNames {
		if writeError := state.RecordArtifact(taskID, artifactName, artifacts[artifactName]); writeError != nil {
			return writeError
		}
	}

	task.Status = TaskStatusCompleted
	runner.logger.Debug(
		runnerTaskCompletedLogMessageConstant,
		zap.String(runnerLogFieldTaskConstant, taskID),
		zap.Int(runnerLogFieldArtifactCountConstant, len(artifactNames)),
	)
	return nil
}
