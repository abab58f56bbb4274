package orchestrate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultMaxRetries bounds per-task retry attempts when no limit is configured.
	DefaultMaxRetries = 3

	// NoRetries disables retry attempts entirely; failed tasks are skipped on
	// their first failure.
	NoRetries = -1

	governorTaskNotFailedTemplateConstant = "governor consulted for task %q in status %s; only failed tasks are governed"
	governorRetryLogMessageConstant       = "task_retry_scheduled"
	governorSkipLogMessageConstant        = "task_retries_exhausted"
	governorLogFieldTaskConstant          = "task"
	governorLogFieldRetryCountConstant    = "retry_count"
	governorLogFieldMaxRetriesConstant    = "max_retries"
)

// GovernorAction reports how a failed task was resolved.
type GovernorAction string

// Governor resolutions.
const (
	GovernorActionRetry GovernorAction = "retry"
	GovernorActionSkip  GovernorAction = "skip"
)

// BackoffFunc computes an optional delay before a retry attempt. A nil
// function disables backoff; delay belongs to the producer/transport boundary
// in the minimal contract.
type BackoffFunc func(attempt int) time.Duration

// Governor decides between retrying and skipping a failed task. It never
// aborts the whole run on a single task's exhaustion.
type Governor struct {
	maxRetries int
	backoff    BackoffFunc
	logger     *zap.Logger
}

// NewGovernor constructs a Governor. A zero retry limit is treated as unset
// and falls back to DefaultMaxRetries; NoRetries and every other negative
// value disable retries entirely.
func NewGovernor(maxRetries int, backoff BackoffFunc, logger *zap.Logger) Governor {
	switch {
	case maxRetries == 0:
		maxRetries = DefaultMaxRetries
	case maxRetries < 0:
		maxRetries = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return Governor{maxRetries: maxRetries, backoff: backoff, logger: logger}
}

// MaxRetries exposes the configured retry bound.
func (governor Governor) MaxRetries() int {
	return governor.maxRetries
}

// Resolve inspects the failed task's retry budget and either returns it to
// PENDING for re-selection or marks it SKIPPED so forward progress continues
// without its artifacts.
func (governor Governor) Resolve(executionContext context.Context, state *State, taskID string) (GovernorAction, error) {
	task, exists := state.Tasks[taskID]
	if !exists {
		return "", InternalConsistencyError{Reason: fmt.Sprintf(stateUnknownTaskTemplateConstant, taskID)}
	}
	if task.Status != TaskStatusFailed {
		return "", InternalConsistencyError{Reason: fmt.Sprintf(governorTaskNotFailedTemplateConstant, taskID, task.Status)}
	}

	retryCount := state.RetryCounts[taskID]
	if retryCount < governor.maxRetries {
		state.RetryCounts[taskID] = retryCount + 1
		task.Status = TaskStatusPending
		governor.logger.Info(
			governorRetryLogMessageConstant,
			zap.String(governorLogFieldTaskConstant, taskID),
			zap.Int(governorLogFieldRetryCountConstant, state.RetryCounts[taskID]),
			zap.Int(governorLogFieldMaxRetriesConstant, governor.maxRetries),
		)
		if waitError := governor.wait(executionContext, state.RetryCounts[taskID]); waitError != nil {
			return "", waitError
		}
		return GovernorActionRetry, nil
	}

	if skipError := state.MarkSkipped(taskID); skipError != nil {
		return "", skipError
	}
	governor.logger.Warn(
		governorSkipLogMessageConstant,
		zap.String(governorLogFieldTaskConstant, taskID),
		zap.Int(governorLogFieldRetryCountConstant, retryCount),
		zap.Int(governorLogFieldMaxRetriesConstant, governor.maxRetries),
	)
	return GovernorActionSkip, nil
}

func (governor Governor) wait(executionContext context.Context, attempt int) error {
	if governor.backoff == nil {
		return nil
	}
	delay := governor.backoff(attempt)
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-executionContext.Done():
		return executionContext.Err()
	case <-timer.C:
		return nil
	}
}
