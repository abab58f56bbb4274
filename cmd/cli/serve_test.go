package cli_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tyemirov/helmsmith/cmd/cli"
	"github.com/tyemirov/helmsmith/internal/orchestrate"
	"github.com/tyemirov/helmsmith/internal/plan"
	"github.com/tyemirov/helmsmith/internal/preview"
	"github.com/tyemirov/helmsmith/pkg/chartrunner"
)

func TestServeCommandServesRenderedBundle(testInstance *testing.T) {
	planFilePath := writeTestPlan(testInstance)

	var capturedAddress string
	var capturedServer *preview.Server
	builder := cli.ServeCommandBuilder{
		LoggerProvider: func() *zap.Logger { return zap.NewNop() },
		Runner: func(command *cobra.Command, resourcePlan plan.ResourcePlan, options chartrunner.Options) (orchestrate.Result, error) {
			return orchestrate.Result{
				Bundle: map[string]string{
					"Chart.yaml":                "apiVersion: v2\n",
					"templates/deployment.yaml": "kind: Deployment\n",
				},
				FinalStatus: orchestrate.FinalStatusSuccess,
			}, nil
		},
		Listener: func(server *preview.Server, listenAddress string) error {
			capturedServer = server
			capturedAddress = listenAddress
			return nil
		},
	}

	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	command.SetOut(&bytes.Buffer{})
	command.SetErr(&bytes.Buffer{})
	command.SetArgs([]string{planFilePath, "--address", "127.0.0.1:9999"})

	require.NoError(testInstance, command.Execute())
	require.Equal(testInstance, "127.0.0.1:9999", capturedAddress)
	require.NotNil(testInstance, capturedServer)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/chart/templates/deployment.yaml", nil)
	capturedServer.Router().ServeHTTP(recorder, request)

	require.Equal(testInstance, http.StatusOK, recorder.Code)
	require.Equal(testInstance, "kind: Deployment\n", recorder.Body.String())
}

func TestServeCommandUsesConfiguredAddress(testInstance *testing.T) {
	planFilePath := writeTestPlan(testInstance)

	var capturedAddress string
	builder := cli.ServeCommandBuilder{
		LoggerProvider: func() *zap.Logger { return zap.NewNop() },
		ConfigurationProvider: func() cli.ApplicationServeConfiguration {
			return cli.ApplicationServeConfiguration{Address: ":7070"}
		},
		Runner: func(command *cobra.Command, resourcePlan plan.ResourcePlan, options chartrunner.Options) (orchestrate.Result, error) {
			return orchestrate.Result{Bundle: map[string]string{"Chart.yaml": "apiVersion: v2\n"}}, nil
		},
		Listener: func(server *preview.Server, listenAddress string) error {
			capturedAddress = listenAddress
			return nil
		},
	}

	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	command.SetOut(&bytes.Buffer{})
	command.SetErr(&bytes.Buffer{})
	command.SetArgs([]string{planFilePath})

	require.NoError(testInstance, command.Execute())
	require.Equal(testInstance, ":7070", capturedAddress)
}
