package orchestrate

import (
	"fmt"
	"strings"
)

const (
	dependencyDeadlockTemplateConstant     = "dependency deadlock in phase %s: tasks %s are pending with unsatisfiable dependencies"
	duplicateArtifactWriteTemplateConstant = "task %s attempted a second write to artifact %q"
	internalConsistencyTemplateConstant    = "internal consistency violation: %s"
	producerFailureTemplateConstant        = "producer for task %s failed: %v"
)

// DependencyDeadlockError reports pending tasks whose dependencies can no
// longer be satisfied. The resolver's construction makes this unreachable; it
// exists as a defensive guard against resolver contract violations.
type DependencyDeadlockError struct {
	Phase          RunPhase
	PendingTaskIDs []string
}

// Error implements the error interface.
func (errorDetails DependencyDeadlockError) Error() string {
	return fmt.Sprintf(dependencyDeadlockTemplateConstant, errorDetails.Phase, strings.Join(errorDetails.PendingTaskIDs, ", "))
}

// DuplicateArtifactWriteError reports a second write to an artifact key.
type DuplicateArtifactWriteError struct {
	TaskID       string
	ArtifactName string
}

// Error implements the error interface.
func (errorDetails DuplicateArtifactWriteError) Error() string {
	return fmt.Sprintf(duplicateArtifactWriteTemplateConstant, errorDetails.TaskID, errorDetails.ArtifactName)
}

// InternalConsistencyError reports a contract violation detected after the
// loop already accepted the task graph, such as a required core artifact
// missing at aggregation time.
type InternalConsistencyError struct {
	Reason string
}

// Error implements the error interface.
func (errorDetails InternalConsistencyError) Error() string {
	return fmt.Sprintf(internalConsistencyTemplateConstant, errorDetails.Reason)
}

// ProducerFailureError wraps an error signalled by an artifact producer. It is
// absorbed by the retry governor and never escapes the orchestration loop.
type ProducerFailureError struct {
	TaskID string
	Cause  error
}

// Error implements the error interface.
func (errorDetails ProducerFailureError) Error() string {
	return fmt.Sprintf(producerFailureTemplateConstant, errorDetails.TaskID, errorDetails.Cause)
}

// Unwrap exposes the producer error for errors.Is and errors.As inspection.
func (errorDetails ProducerFailureError) Unwrap() error {
	return errorDetails.Cause
}
