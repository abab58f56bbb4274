package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/helmsmith/internal/orchestrate"
	"github.com/tyemirov/helmsmith/internal/plan"
	"github.com/tyemirov/helmsmith/internal/preview"
	"github.com/tyemirov/helmsmith/pkg/chartrunner"
)

const (
	serveCommandUseName          = "serve <plan-file>"
	serveCommandShortDescription = "Render a chart bundle and serve it over HTTP"
	serveCommandLongDescription  = "serve renders the chart bundle in memory and exposes the generated files through a preview HTTP endpoint."
	addressFlagName              = "address"
	addressFlagUsage             = "Listen address for the preview server"

	servePreviewStartingMessage = "preview server starting"
	serveLogFieldAddress        = "listen_address"
	serveLogFieldFileCount      = "file_count"
)

// ServeCommandBuilder assembles the serve command.
type ServeCommandBuilder struct {
	LoggerProvider        func() *zap.Logger
	ConfigurationProvider func() ApplicationServeConfiguration
	OrchestrationProvider func() ApplicationOrchestrationConfiguration
	Runner                func(command *cobra.Command, resourcePlan plan.ResourcePlan, options chartrunner.Options) (orchestrate.Result, error)
	Listener              func(server *preview.Server, listenAddress string) error
}

// Build constructs the serve command.
func (builder *ServeCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           serveCommandUseName,
		Short:         serveCommandShortDescription,
		Long:          serveCommandLongDescription,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          builder.run,
	}

	command.Flags().String(addressFlagName, "", addressFlagUsage)
	command.Flags().Int(maxRetriesFlagName, -1, maxRetriesFlagUsage)

	return command, nil
}

func (builder *ServeCommandBuilder) run(command *cobra.Command, arguments []string) error {
	planFilePath := strings.TrimSpace(arguments[0])
	if len(planFilePath) == 0 {
		return errors.New(planPathRequiredMessage)
	}

	resourcePlan, planError := plan.LoadPlan(planFilePath)
	if planError != nil {
		return planError
	}

	listenAddress := builder.resolveConfiguration().Address
	if flagValue, flagError := command.Flags().GetString(addressFlagName); flagError == nil && command.Flags().Changed(addressFlagName) {
		listenAddress = strings.TrimSpace(flagValue)
	}

	maxRetries := defaultMaxRetriesConfigurationConstant
	if builder.OrchestrationProvider != nil {
		maxRetries = builder.OrchestrationProvider().MaxRetries
	}
	if flagValue, flagError := command.Flags().GetInt(maxRetriesFlagName); flagError == nil && command.Flags().Changed(maxRetriesFlagName) {
		maxRetries = flagValue
	}

	runner := builder.Runner
	if runner == nil {
		runner = func(runCommand *cobra.Command, runPlan plan.ResourcePlan, runOptions chartrunner.Options) (orchestrate.Result, error) {
			return chartrunner.Run(
				runCommand.Context(),
				runPlan,
				chartrunner.Dependencies{
					LoggerProvider: builder.LoggerProvider,
					Output:         runCommand.OutOrStdout(),
					Errors:         runCommand.ErrOrStderr(),
				},
				runOptions,
			)
		}
	}

	result, runError := runner(command, resourcePlan, chartrunner.Options{MaxRetries: maxRetries})
	if runError != nil {
		return runError
	}

	logger := builder.resolveLogger()
	logger.Info(
		servePreviewStartingMessage,
		zap.String(serveLogFieldAddress, listenAddress),
		zap.Int(serveLogFieldFileCount, len(result.Bundle)),
	)

	previewServer := preview.NewServer(result.Bundle, logger)

	listener := builder.Listener
	if listener == nil {
		listener = func(server *preview.Server, address string) error {
			return server.ListenAndServe(address)
		}
	}

	return listener(previewServer, listenAddress)
}

func (builder *ServeCommandBuilder) resolveConfiguration() ApplicationServeConfiguration {
	if builder.ConfigurationProvider == nil {
		return ApplicationServeConfiguration{Address: defaultServeAddressConstant}
	}
	return builder.ConfigurationProvider()
}

func (builder *ServeCommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
