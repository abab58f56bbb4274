package orchestrate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/helmsmith/internal/orchestrate"
)

func TestSchedulerSelectsCoreTasksInDependencyOrder(testInstance *testing.T) {
	state, stateError := orchestrate.NewState(buildLinearGraph())
	require.NoError(testInstance, stateError)
	scheduler := orchestrate.NewScheduler()

	decision, decisionError := scheduler.Next(state)
	require.NoError(testInstance, decisionError)
	require.Equal(testInstance, orchestrate.DecisionRunTask, decision.Kind)
	require.Equal(testInstance, "render-helpers", decision.TaskID)

	state.Tasks["render-helpers"].Status = orchestrate.TaskStatusCompleted

	decision, decisionError = scheduler.Next(state)
	require.NoError(testInstance, decisionError)
	require.Equal(testInstance, orchestrate.DecisionRunTask, decision.Kind)
	require.Equal(testInstance, "render-deployment", decision.TaskID)
}

func TestSchedulerAdvancesPhaseWhenCoreTasksTerminal(testInstance *testing.T) {
	state, stateError := orchestrate.NewState(buildLinearGraph())
	require.NoError(testInstance, stateError)
	scheduler := orchestrate.NewScheduler()

	state.Tasks["render-helpers"].Status = orchestrate.TaskStatusCompleted
	state.Tasks["render-deployment"].Status = orchestrate.TaskStatusCompleted

	decision, decisionError := scheduler.Next(state)
	require.NoError(testInstance, decisionError)
	require.Equal(testInstance, orchestrate.DecisionAdvancePhase, decision.Kind)
	require.Equal(testInstance, orchestrate.RunPhaseConditionalTemplates, decision.NextPhase)
}

func TestSchedulerGatesSummaryBehindConditionalTasks(testInstance *testing.T) {
	state, stateError := orchestrate.NewState(buildLinearGraph())
	require.NoError(testInstance, stateError)
	scheduler := orchestrate.NewScheduler()

	state.Tasks["render-helpers"].Status = orchestrate.TaskStatusCompleted
	state.Tasks["render-deployment"].Status = orchestrate.TaskStatusCompleted
	require.NoError(testInstance, state.AdvancePhase(orchestrate.RunPhaseConditionalTemplates))

	decision, decisionError := scheduler.Next(state)
	require.NoError(testInstance, decisionError)
	require.Equal(testInstance, orchestrate.DecisionRunTask, decision.Kind)
	require.Equal(testInstance, "render-ingress", decision.TaskID)

	state.Tasks["render-ingress"].Status = orchestrate.TaskStatusSkipped

	decision, decisionError = scheduler.Next(state)
	require.NoError(testInstance, decisionError)
	require.Equal(testInstance, orchestrate.DecisionRunTask, decision.Kind)
	require.Equal(testInstance, "summarize-values", decision.TaskID)
}

func TestSchedulerReportsDeadlockForUnsatisfiableDependencies(testInstance *testing.T) {
	graph := orchestrate.TaskGraph{
		Specs: []orchestrate.TaskSpec{
			{ID: "render-a", Phase: orchestrate.TaskPhaseCore, Dependencies: []string{"render-b"}},
			{ID: "render-b", Phase: orchestrate.TaskPhaseCore, Dependencies: []string{"render-a"}},
			{ID: "summarize-values", Phase: orchestrate.TaskPhaseConditional},
			{ID: "render-docs", Phase: orchestrate.TaskPhaseDocumentation},
		},
		SummaryTaskID:       "summarize-values",
		DocumentationTaskID: "render-docs",
	}

	state, stateError := orchestrate.NewState(graph)
	require.NoError(testInstance, stateError)

	_, decisionError := orchestrate.NewScheduler().Next(state)
	require.Error(testInstance, decisionError)

	var deadlockError orchestrate.DependencyDeadlockError
	require.ErrorAs(testInstance, decisionError, &deadlockError)
	require.Equal(testInstance, orchestrate.RunPhaseCoreTemplates, deadlockError.Phase)
	require.ElementsMatch(testInstance, []string{"render-a", "render-b"}, deadlockError.PendingTaskIDs)
}

func TestSchedulerDrivesDocumentationAndAggregation(testInstance *testing.T) {
	state, stateError := orchestrate.NewState(buildLinearGraph())
	require.NoError(testInstance, stateError)
	scheduler := orchestrate.NewScheduler()

	for _, taskID := range []string{"render-helpers", "render-deployment", "render-ingress", "summarize-values"} {
		state.Tasks[taskID].Status = orchestrate.TaskStatusCompleted
	}
	require.NoError(testInstance, state.AdvancePhase(orchestrate.RunPhaseConditionalTemplates))
	require.NoError(testInstance, state.AdvancePhase(orchestrate.RunPhaseDocumentation))

	decision, decisionError := scheduler.Next(state)
	require.NoError(testInstance, decisionError)
	require.Equal(testInstance, orchestrate.DecisionRunTask, decision.Kind)
	require.Equal(testInstance, "render-docs", decision.TaskID)

	state.Tasks["render-docs"].Status = orchestrate.TaskStatusCompleted

	decision, decisionError = scheduler.Next(state)
	require.NoError(testInstance, decisionError)
	require.Equal(testInstance, orchestrate.DecisionAdvancePhase, decision.Kind)
	require.Equal(testInstance, orchestrate.RunPhaseAggregation, decision.NextPhase)

	require.NoError(testInstance, state.AdvancePhase(orchestrate.RunPhaseAggregation))
	decision, decisionError = scheduler.Next(state)
	require.NoError(testInstance, decisionError)
	require.Equal(testInstance, orchestrate.DecisionAggregate, decision.Kind)
}
