package orchestrate_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/helmsmith/internal/orchestrate"
)

func TestGovernorRetriesUntilBudgetExhausted(testInstance *testing.T) {
	state, stateError := orchestrate.NewState(buildLinearGraph())
	require.NoError(testInstance, stateError)
	governor := orchestrate.NewGovernor(2, nil, nil)

	for attemptIndex := 0; attemptIndex < 2; attemptIndex++ {
		state.Tasks["render-ingress"].Status = orchestrate.TaskStatusFailed

		action, resolveError := governor.Resolve(context.Background(), state, "render-ingress")
		require.NoError(testInstance, resolveError)
		require.Equal(testInstance, orchestrate.GovernorActionRetry, action)
		require.Equal(testInstance, orchestrate.TaskStatusPending, state.Tasks["render-ingress"].Status)
	}

	state.Tasks["render-ingress"].Status = orchestrate.TaskStatusFailed
	action, resolveError := governor.Resolve(context.Background(), state, "render-ingress")
	require.NoError(testInstance, resolveError)
	require.Equal(testInstance, orchestrate.GovernorActionSkip, action)
	require.Equal(testInstance, orchestrate.TaskStatusSkipped, state.Tasks["render-ingress"].Status)
	require.Equal(testInstance, []string{"render-ingress"}, state.SkippedTaskIDs())
}

func TestGovernorTreatsZeroRetryLimitAsDefault(testInstance *testing.T) {
	governor := orchestrate.NewGovernor(0, nil, nil)
	require.Equal(testInstance, orchestrate.DefaultMaxRetries, governor.MaxRetries())
}

func TestGovernorNoRetriesSkipsImmediately(testInstance *testing.T) {
	state, stateError := orchestrate.NewState(buildLinearGraph())
	require.NoError(testInstance, stateError)
	governor := orchestrate.NewGovernor(orchestrate.NoRetries, nil, nil)
	require.Zero(testInstance, governor.MaxRetries())

	state.Tasks["render-ingress"].Status = orchestrate.TaskStatusFailed
	action, resolveError := governor.Resolve(context.Background(), state, "render-ingress")
	require.NoError(testInstance, resolveError)
	require.Equal(testInstance, orchestrate.GovernorActionSkip, action)
}

func TestGovernorRejectsTasksThatAreNotFailed(testInstance *testing.T) {
	state, stateError := orchestrate.NewState(buildLinearGraph())
	require.NoError(testInstance, stateError)
	governor := orchestrate.NewGovernor(3, nil, nil)

	_, resolveError := governor.Resolve(context.Background(), state, "render-ingress")
	require.Error(testInstance, resolveError)

	var consistencyError orchestrate.InternalConsistencyError
	require.ErrorAs(testInstance, resolveError, &consistencyError)
}

func TestGovernorBackoffHonorsContextCancellation(testInstance *testing.T) {
	state, stateError := orchestrate.NewState(buildLinearGraph())
	require.NoError(testInstance, stateError)

	governor := orchestrate.NewGovernor(3, func(int) time.Duration { return time.Minute }, nil)
	state.Tasks["render-ingress"].Status = orchestrate.TaskStatusFailed

	cancelledContext, cancelFunction := context.WithCancel(context.Background())
	cancelFunction()

	_, resolveError := governor.Resolve(cancelledContext, state, "render-ingress")
	require.ErrorIs(testInstance, resolveError, context.Canceled)
}
