package orchestrate

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	stateEmptyGraphMessageConstant          = "task graph must define at least one task"
	stateMissingSummaryMessageConstant      = "task graph must identify the values summary task"
	stateMissingDocumentationConstant       = "task graph must identify the documentation task"
	stateDuplicateTaskTemplateConstant      = "task %q defined multiple times"
	stateBlankTaskIdentifierConstant        = "task graph contains a task without an identifier"
	stateUnknownDependencyTemplateConstant  = "task %q depends on unknown task %q"
	stateSelfDependencyTemplateConstant     = "task %q cannot depend on itself"
	stateUnknownPhaseTemplateConstant       = "task %q declares unknown phase %q"
	statePhaseRegressionTemplateConstant    = "phase cannot move backward from %s to %s"
	statePhaseSkipTemplateConstant          = "phase cannot skip from %s to %s; phases advance one step at a time"
	stateUnknownRunPhaseTemplateConstant    = "unknown run phase %q"
	stateFinalStatusRewriteMessageConstant  = "final status is written exactly once"
	stateUnknownTaskTemplateConstant        = "unknown task %q"
	stateSummaryPhaseMismatchConstant       = "values summary task must belong to the conditional phase"
	stateDocumentationPhaseMismatchConstant = "documentation task must belong to the documentation phase"
)

// RunPhase identifies the coarse-grained stage of one orchestration run.
type RunPhase string

// Run phases in their strict forward order.
const (
	RunPhaseCoreTemplates        RunPhase = "core_templates"
	RunPhaseConditionalTemplates RunPhase = "conditional_templates"
	RunPhaseDocumentation        RunPhase = "documentation"
	RunPhaseAggregation          RunPhase = "aggregation"
	RunPhaseCompleted            RunPhase = "completed"
)

var runPhaseOrder = []RunPhase{
	RunPhaseCoreTemplates,
	RunPhaseConditionalTemplates,
	RunPhaseDocumentation,
	RunPhaseAggregation,
	RunPhaseCompleted,
}

func runPhaseRank(phase RunPhase) (int, error) {
	for phaseIndex := range runPhaseOrder {
		if runPhaseOrder[phaseIndex] == phase {
			return phaseIndex, nil
		}
	}
	return -1, fmt.Errorf(stateUnknownRunPhaseTemplateConstant, phase)
}

// FinalStatus is the terminal verdict of an orchestration run.
type FinalStatus string

// Final statuses. The empty value means the run has not terminated yet.
const (
	FinalStatusUnset          FinalStatus = ""
	FinalStatusSuccess        FinalStatus = "success"
	FinalStatusPartialSuccess FinalStatus = "partial_success"
	FinalStatusFailed         FinalStatus = "failed"
)

// ErrorEntry records one producer failure observed during the run.
type ErrorEntry struct {
	TaskID     string
	Message    string
	RetryCount int
}

// ArtifactSnapshot is a read-only copy of produced artifacts handed to
// producers. Mutating a snapshot never affects orchestration state.
type ArtifactSnapshot map[string]string

// State is the single mutable aggregate owned by the orchestration loop. It is
// never shared outside the scheduler/runner/governor trio during a run.
type State struct {
	CurrentPhase        RunPhase
	Tasks               map[string]*Task
	CoreOrder           []string
	ConditionalOrder    []string
	SummaryTaskID       string
	DocumentationTaskID string
	Artifacts           map[string]string
	Errors              []ErrorEntry
	RetryCounts         map[string]int
	Skipped             map[string]struct{}

	finalStatus    FinalStatus
	finalStatusSet bool
}

// NewState validates the resolved task graph and builds the initial
// orchestration state positioned at the core templates phase.
func NewState(graph TaskGraph) (*State, error) {
	if len(graph.Specs) == 0 {
		return nil, errors.New(stateEmptyGraphMessageConstant)
	}
	if len(strings.TrimSpace(graph.SummaryTaskID)) == 0 {
		return nil, errors.New(stateMissingSummaryMessageConstant)
	}
	if len(strings.TrimSpace(graph.DocumentationTaskID)) == 0 {
		return nil, errors.New(stateMissingDocumentationConstant)
	}

	state := &State{
		CurrentPhase:        RunPhaseCoreTemplates,
		Tasks:               make(map[string]*Task, len(graph.Specs)),
		SummaryTaskID:       graph.SummaryTaskID,
		DocumentationTaskID: graph.DocumentationTaskID,
		Artifacts:           make(map[string]string),
		RetryCounts:         make(map[string]int, len(graph.Specs)),
		Skipped:             make(map[string]struct{}),
	}

	for specIndex := range graph.Specs {
		spec := graph.Specs[specIndex]
		identifier := strings.TrimSpace(spec.ID)
		if len(identifier) == 0 {
			return nil, errors.New(stateBlankTaskIdentifierConstant)
		}
		if _, exists := state.Tasks[identifier]; exists {
			return nil, fmt.Errorf(stateDuplicateTaskTemplateConstant, identifier)
		}

		switch spec.Phase {
		case TaskPhaseCore, TaskPhaseConditional, TaskPhaseDocumentation:
		default:
			return nil, fmt.Errorf(stateUnknownPhaseTemplateConstant, identifier, spec.Phase)
		}

		dependencies := make([]string, 0, len(spec.Dependencies))
		for dependencyIndex := range spec.Dependencies {
			dependencyName := strings.TrimSpace(spec.Dependencies[dependencyIndex])
			if len(dependencyName) == 0 {
				continue
			}
			if dependencyName == identifier {
				return nil, fmt.Errorf(stateSelfDependencyTemplateConstant, identifier)
			}
			dependencies = append(dependencies, dependencyName)
		}

		state.Tasks[identifier] = &Task{
			ID:           identifier,
			Phase:        spec.Phase,
			Dependencies: dependencies,
			Status:       TaskStatusPending,
		}
		state.RetryCounts[identifier] = 0

		switch spec.Phase {
		case TaskPhaseCore:
			state.CoreOrder = append(state.CoreOrder, identifier)
		case TaskPhaseConditional:
			if identifier != graph.SummaryTaskID {
				state.ConditionalOrder = append(state.ConditionalOrder, identifier)
			}
		}
	}

	summaryTask, summaryExists := state.Tasks[graph.SummaryTaskID]
	if !summaryExists || summaryTask.Phase != TaskPhaseConditional {
		return nil, errors.New(stateSummaryPhaseMismatchConstant)
	}
	documentationTask, documentationExists := state.Tasks[graph.DocumentationTaskID]
	if !documentationExists || documentationTask.Phase != TaskPhaseDocumentation {
		return nil, errors.New(stateDocumentationPhaseMismatchConstant)
	}

	for _, task := range state.Tasks {
		for _, dependencyName := range task.Dependencies {
			if _, exists := state.Tasks[dependencyName]; !exists {
				return nil, fmt.Errorf(stateUnknownDependencyTemplateConstant, task.ID, dependencyName)
			}
		}
	}

	return state, nil
}

// AdvancePhase moves the run phase to its immediate successor. Backward and
// phase-skipping transitions are rejected, including re-entering the current
// phase.
func (state *State) AdvancePhase(nextPhase RunPhase) error {
	currentRank, currentError := runPhaseRank(state.CurrentPhase)
	if currentError != nil {
		return currentError
	}
	nextRank, nextError := runPhaseRank(nextPhase)
	if nextError != nil {
		return nextError
	}
	if nextRank <= currentRank {
		return fmt.Errorf(statePhaseRegressionTemplateConstant, state.CurrentPhase, nextPhase)
	}
	if nextRank != currentRank+1 {
		return fmt.Errorf(statePhaseSkipTemplateConstant, state.CurrentPhase, nextPhase)
	}
	state.CurrentPhase = nextPhase
	return nil
}

// DependenciesSatisfied reports whether every dependency of the task reached a
// terminal status.
func (state *State) DependenciesSatisfied(task *Task) bool {
	for _, dependencyName := range task.Dependencies {
		dependency, exists := state.Tasks[dependencyName]
		if !exists || !dependency.Terminal() {
			return false
		}
	}
	return true
}

// RecordArtifact appends a produced artifact. A second write to the same key
// is a contract violation reported as DuplicateArtifactWriteError.
func (state *State) RecordArtifact(taskID string, artifactName string, content string) error {
	if _, exists := state.Artifacts[artifactName]; exists {
		return DuplicateArtifactWriteError{TaskID: taskID, ArtifactName: artifactName}
	}
	state.Artifacts[artifactName] = content
	return nil
}

// ArtifactSnapshot returns a defensive copy of the artifacts produced so far.
func (state *State) ArtifactSnapshot() ArtifactSnapshot {
	snapshot := make(ArtifactSnapshot, len(state.Artifacts))
	for artifactName, content := range state.Artifacts {
		snapshot[artifactName] = content
	}
	return snapshot
}

// RecordFailure appends a failure entry carrying the retry count observed at
// failure time.
func (state *State) RecordFailure(taskID string, message string) {
	state.Errors = append(state.Errors, ErrorEntry{
		TaskID:     taskID,
		Message:    message,
		RetryCount: state.RetryCounts[taskID],
	})
}

// MarkSkipped records terminal non-completion for a task that exhausted its
// retry budget.
func (state *State) MarkSkipped(taskID string) error {
	task, exists := state.Tasks[taskID]
	if !exists {
		return fmt.Errorf(stateUnknownTaskTemplateConstant, taskID)
	}
	task.Status = TaskStatusSkipped
	state.Skipped[taskID] = struct{}{}
	return nil
}

// SkippedTaskIDs returns the skipped set in deterministic order.
func (state *State) SkippedTaskIDs() []string {
	identifiers := make([]string, 0, len(state.Skipped))
	for identifier := range state.Skipped {
		identifiers = append(identifiers, identifier)
	}
	sort.Strings(identifiers)
	return identifiers
}

// SetFinalStatus records the terminal verdict. It may be written exactly once.
func (state *State) SetFinalStatus(status FinalStatus) error {
	if state.finalStatusSet {
		return errors.New(stateFinalStatusRewriteMessageConstant)
	}
	state.finalStatus = status
	state.finalStatusSet = true
	return nil
}

// FinalStatus returns the recorded terminal verdict, or FinalStatusUnset while
// the run is still in flight.
func (state *State) FinalStatus() FinalStatus {
	return state.finalStatus
}
