// Package orchestrate drives dependency-aware, phase-gated chart generation.
// A resolved task graph is executed by a single-threaded scheduler/runner/
// governor loop that absorbs producer failures with bounded retry and hands a
// terminal state to a bundle assembler once every phase is satisfied.
package orchestrate

// TaskPhase assigns a task to one of the coarse-grained generation phases.
type TaskPhase string

// Task phases in execution order.
const (
	TaskPhaseCore          TaskPhase = "core"
	TaskPhaseConditional   TaskPhase = "conditional"
	TaskPhaseDocumentation TaskPhase = "documentation"
)

// TaskStatus captures the lifecycle state of a single task.
type TaskStatus string

// Task statuses. Transitions move forward only, except the explicit
// running→pending retry edge driven by the Governor.
const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusSkipped   TaskStatus = "skipped"
)

// TaskSpec describes one task produced by the dependency resolver.
type TaskSpec struct {
	ID           string
	Phase        TaskPhase
	Dependencies []string
}

// TaskGraph is the resolver output consumed by the orchestration loop. Specs
// are ordered: the fixed core structural order first, conditional tasks in
// registration order next, then the values summary and documentation tasks.
type TaskGraph struct {
	Specs               []TaskSpec
	SummaryTaskID       string
	DocumentationTaskID string
}

// Task tracks the mutable execution state for one unit of artifact production.
type Task struct {
	ID           string
	Phase        TaskPhase
	Dependencies []string
	Status       TaskStatus
}

// Terminal reports whether the task reached a state that satisfies dependants.
func (task *Task) Terminal() bool {
	return task.Status == TaskStatusCompleted || task.Status == TaskStatusSkipped
}
