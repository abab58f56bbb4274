package orchestrate

import "fmt"

const (
	schedulerUnknownPhaseTemplateConstant = "scheduler observed unknown run phase %q"
)

// DecisionKind enumerates the possible scheduler verdicts.
type DecisionKind string

// Scheduler verdict kinds.
const (
	DecisionRunTask      DecisionKind = "run_task"
	DecisionAdvancePhase DecisionKind = "advance_phase"
	DecisionAggregate    DecisionKind = "aggregate"
	DecisionHalt         DecisionKind = "halt"
)

// Decision is the scheduler output for one loop iteration.
type Decision struct {
	Kind      DecisionKind
	TaskID    string
	NextPhase RunPhase
}

// Scheduler is a pure decision function over orchestration state. It selects
// the next runnable task, advances the run phase, or hands off to aggregation.
type Scheduler struct{}

// NewScheduler constructs a Scheduler.
func NewScheduler() Scheduler {
	return Scheduler{}
}

// Next inspects the state and returns the next decision. A RUNNING task is
// never re-selected; the runner/governor pair returns it to a terminal or
// retry-pending status before the scheduler is consulted again.
func (scheduler Scheduler) Next(state *State) (Decision, error) {
	switch state.CurrentPhase {
	case RunPhaseCoreTemplates:
		return scheduler.selectFromOrder(state, state.CoreOrder, RunPhaseConditionalTemplates)
	case RunPhaseConditionalTemplates:
		return scheduler.selectConditional(state)
	case RunPhaseDocumentation:
		return scheduler.selectDocumentation(state)
	case RunPhaseAggregation:
		return Decision{Kind: DecisionAggregate}, nil
	case RunPhaseCompleted:
		return Decision{Kind: DecisionHalt}, nil
	default:
		return Decision{}, fmt.Errorf(schedulerUnknownPhaseTemplateConstant, state.CurrentPhase)
	}
}

// selectFromOrder scans the fixed task order and selects the first pending
// task with satisfied dependencies. When every task is terminal the phase
// advances; pending tasks without a runnable candidate signal a deadlock.
func (scheduler Scheduler) selectFromOrder(state *State, order []string, nextPhase RunPhase) (Decision, error) {
	pendingIdentifiers := make([]string, 0)
	for _, taskID := range order {
		task, exists := state.Tasks[taskID]
		if !exists {
			continue
		}
		if task.Status != TaskStatusPending {
			continue
		}
		if state.DependenciesSatisfied(task) {
			return Decision{Kind: DecisionRunTask, TaskID: taskID}, nil
		}
		pendingIdentifiers = append(pendingIdentifiers, taskID)
	}

	if len(pendingIdentifiers) > 0 {
		return Decision{}, DependencyDeadlockError{Phase: state.CurrentPhase, PendingTaskIDs: pendingIdentifiers}
	}

	return Decision{Kind: DecisionAdvancePhase, NextPhase: nextPhase}, nil
}

// selectConditional schedules conditional template tasks in registration
// order, then gates the values summary behind their completion.
func (scheduler Scheduler) selectConditional(state *State) (Decision, error) {
	decision, selectionError := scheduler.selectFromOrder(state, state.ConditionalOrder, RunPhaseDocumentation)
	if selectionError != nil {
		return Decision{}, selectionError
	}
	if decision.Kind == DecisionRunTask {
		return decision, nil
	}

	summaryTask, exists := state.Tasks[state.SummaryTaskID]
	if !exists {
		return Decision{}, InternalConsistencyError{Reason: fmt.Sprintf("values summary task %q is absent", state.SummaryTaskID)}
	}
	if summaryTask.Status == TaskStatusPending {
		if state.DependenciesSatisfied(summaryTask) {
			return Decision{Kind: DecisionRunTask, TaskID: summaryTask.ID}, nil
		}
		return Decision{}, DependencyDeadlockError{Phase: state.CurrentPhase, PendingTaskIDs: []string{summaryTask.ID}}
	}

	return Decision{Kind: DecisionAdvancePhase, NextPhase: RunPhaseDocumentation}, nil
}

// selectDocumentation schedules the documentation task, then advances the run
// to aggregation.
func (scheduler Scheduler) selectDocumentation(state *State) (Decision, error) {
	documentationTask, exists := state.Tasks[state.DocumentationTaskID]
	if !exists {
		return Decision{}, InternalConsistencyError{Reason: fmt.Sprintf("documentation task %q is absent", state.DocumentationTaskID)}
	}
	if documentationTask.Status == TaskStatusPending {
		if state.DependenciesSatisfied(documentationTask) {
			return Decision{Kind: DecisionRunTask, TaskID: documentationTask.ID}, nil
		}
		return Decision{}, DependencyDeadlockError{Phase: state.CurrentPhase, PendingTaskIDs: []string{documentationTask.ID}}
	}

	return Decision{Kind: DecisionAdvancePhase, NextPhase: RunPhaseAggregation}, nil
}
