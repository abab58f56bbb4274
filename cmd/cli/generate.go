package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/helmsmith/internal/bundle"
	"github.com/tyemirov/helmsmith/internal/orchestrate"
	"github.com/tyemirov/helmsmith/internal/plan"
	"github.com/tyemirov/helmsmith/internal/utils"
	"github.com/tyemirov/helmsmith/pkg/chartrunner"
)

const (
	generateCommandUseName          = "generate <plan-file>"
	generateCommandShortDescription = "Render a Helm chart bundle from a resource plan"
	generateCommandLongDescription  = "generate resolves the resource plan into a task graph, renders every chart artifact, and writes the assembled bundle to the output directory."
	outputFlagName                  = "output"
	outputFlagUsage                 = "Directory receiving the chart bundle"
	maxRetriesFlagName              = "max-retries"
	maxRetriesFlagUsage             = "Override the per-task retry budget"

	generateBundleWrittenMessage  = "chart bundle written"
	generateLogFieldOutput        = "output_directory"
	generateLogFieldFileCount     = "file_count"
	generateLogFieldPlanFile      = "plan_file"
	generateOutputWrittenTemplate = "Chart bundle written to %s (%d files)\n"

	planPathRequiredMessage = "resource plan path cannot be empty"
)

// GenerateCommandBuilder assembles the generate command.
type GenerateCommandBuilder struct {
	LoggerProvider        func() *zap.Logger
	ConfigurationProvider func() ApplicationGenerateConfiguration
	ContextAccessor       utils.CommandContextAccessor
	OrchestrationProvider func() ApplicationOrchestrationConfiguration
	Runner                func(command *cobra.Command, resourcePlan plan.ResourcePlan, options chartrunner.Options) (orchestrate.Result, error)
}

// Build constructs the generate command.
func (builder *GenerateCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           generateCommandUseName,
		Short:         generateCommandShortDescription,
		Long:          generateCommandLongDescription,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          builder.run,
	}

	command.Flags().String(outputFlagName, "", outputFlagUsage)
	command.Flags().Int(maxRetriesFlagName, -1, maxRetriesFlagUsage)

	return command, nil
}

func (builder *GenerateCommandBuilder) run(command *cobra.Command, arguments []string) error {
	planFilePath := strings.TrimSpace(arguments[0])
	if len(planFilePath) == 0 {
		return errors.New(planPathRequiredMessage)
	}

	resourcePlan, planError := plan.LoadPlan(planFilePath)
	if planError != nil {
		return planError
	}

	configuration := builder.resolveConfiguration()

	outputDirectory := configuration.Output
	if flagValue, flagError := command.Flags().GetString(outputFlagName); flagError == nil && command.Flags().Changed(outputFlagName) {
		outputDirectory = strings.TrimSpace(flagValue)
	}

	maxRetries := builder.resolveMaxRetries(command)

	updatedContext := builder.ContextAccessor.WithPlanFilePath(command.Context(), planFilePath)
	command.SetContext(updatedContext)

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

	if writeError := bundle.Write(outputDirectory, result.Bundle); writeError != nil {
		return writeError
	}

	builder.logBundleWritten(planFilePath, outputDirectory, len(result.Bundle))
	fmt.Fprintf(command.OutOrStdout(), generateOutputWrittenTemplate, outputDirectory, len(result.Bundle))

	return nil
}

func (builder *GenerateCommandBuilder) resolveConfiguration() ApplicationGenerateConfiguration {
	if builder.ConfigurationProvider == nil {
		return ApplicationGenerateConfiguration{Output: defaultGenerateOutputConstant}
	}
	return builder.ConfigurationProvider()
}

func (builder *GenerateCommandBuilder) resolveMaxRetries(command *cobra.Command) int {
	maxRetries := defaultMaxRetriesConfigurationConstant
	if builder.OrchestrationProvider != nil {
		maxRetries = builder.OrchestrationProvider().MaxRetries
	}
	if flagValue, flagError := command.Flags().GetInt(maxRetriesFlagName); flagError == nil && command.Flags().Changed(maxRetriesFlagName) {
		maxRetries = flagValue
	}
	return maxRetries
}

func (builder *GenerateCommandBuilder) logBundleWritten(planFilePath string, outputDirectory string, fileCount int) {
	if builder.LoggerProvider == nil {
		return
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return
	}

	logger.Info(
		generateBundleWrittenMessage,
		zap.String(generateLogFieldPlanFile, planFilePath),
		zap.String(generateLogFieldOutput, outputDirectory),
		zap.Int(generateLogFieldFileCount, fileCount),
	)
}
