package cli_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tyemirov/helmsmith/cmd/cli"
	"github.com/tyemirov/helmsmith/internal/orchestrate"
	"github.com/tyemirov/helmsmith/internal/plan"
	"github.com/tyemirov/helmsmith/pkg/chartrunner"
)

const testPlanDocument = `chart:
  name: demo
  version: 1.0.0
resources:
  core:
    - type: deployment
      name: demo
      image: demo:1.0.0
    - type: service
      name: demo
      port: 80
`

func writeTestPlan(testInstance *testing.T) string {
	planDirectory := testInstance.TempDir()
	planFilePath := filepath.Join(planDirectory, "plan.yaml")
	require.NoError(testInstance, os.WriteFile(planFilePath, []byte(testPlanDocument), 0o600))
	return planFilePath
}

func TestGenerateCommandWritesBundle(testInstance *testing.T) {
	planFilePath := writeTestPlan(testInstance)
	outputDirectory := filepath.Join(testInstance.TempDir(), "chart")

	var capturedOptions chartrunner.Options
	builder := cli.GenerateCommandBuilder{
		LoggerProvider: func() *zap.Logger { return zap.NewNop() },
		Runner: func(command *cobra.Command, resourcePlan plan.ResourcePlan, options chartrunner.Options) (orchestrate.Result, error) {
			capturedOptions = options
			require.Equal(testInstance, "demo", resourcePlan.Chart.Name)
			return orchestrate.Result{
				Bundle: map[string]string{
					"Chart.yaml":                "apiVersion: v2\n",
					"templates/deployment.yaml": "kind: Deployment\n",
				},
				FinalStatus: orchestrate.FinalStatusSuccess,
			}, nil
		},
	}

	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(&bytes.Buffer{})
	command.SetArgs([]string{planFilePath, "--output", outputDirectory, "--max-retries", "2"})

	require.NoError(testInstance, command.Execute())
	require.Equal(testInstance, 2, capturedOptions.MaxRetries)

	deploymentContent, readError := os.ReadFile(filepath.Join(outputDirectory, "templates", "deployment.yaml"))
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "kind: Deployment\n", string(deploymentContent))
	require.Contains(testInstance, outputBuffer.String(), outputDirectory)
}

func TestGenerateCommandPropagatesRunFailure(testInstance *testing.T) {
	planFilePath := writeTestPlan(testInstance)

	runFailure := errors.New("orchestration rejected the graph")
	builder := cli.GenerateCommandBuilder{
		LoggerProvider: func() *zap.Logger { return zap.NewNop() },
		Runner: func(command *cobra.Command, resourcePlan plan.ResourcePlan, options chartrunner.Options) (orchestrate.Result, error) {
			return orchestrate.Result{FinalStatus: orchestrate.FinalStatusFailed}, runFailure
		},
	}

	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	command.SetOut(&bytes.Buffer{})
	command.SetErr(&bytes.Buffer{})
	command.SetArgs([]string{planFilePath, "--output", filepath.Join(testInstance.TempDir(), "chart")})

	require.ErrorIs(testInstance, command.Execute(), runFailure)
}

func TestGenerateCommandRejectsMissingPlanFile(testInstance *testing.T) {
	builder := cli.GenerateCommandBuilder{
		LoggerProvider: func() *zap.Logger { return zap.NewNop() },
	}

	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	command.SetOut(&bytes.Buffer{})
	command.SetErr(&bytes.Buffer{})
	command.SetArgs([]string{filepath.Join(testInstance.TempDir(), "absent.yaml")})

	require.Error(testInstance, command.Execute())
}
