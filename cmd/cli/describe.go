package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/helmsmith/internal/chartdoc"
	"github.com/tyemirov/helmsmith/internal/orchestrate"
	"github.com/tyemirov/helmsmith/internal/plan"
	"github.com/tyemirov/helmsmith/pkg/chartrunner"
	"github.com/tyemirov/utils/llm"
)

const (
	describeCommandUseName          = "describe <plan-file>"
	describeCommandShortDescription = "Generate a chart description with the configured language model"
	describeCommandLongDescription  = "describe renders the chart bundle in memory and asks the configured language model for a concise chart description."
	modelFlagName                   = "model"
	modelFlagUsage                  = "Override the model identifier"
	baseURLFlagName                 = "base-url"
	baseURLFlagUsage                = "Override the LLM base URL"
	apiKeyEnvFlagName               = "api-key-env"
	apiKeyEnvFlagUsage              = "Environment variable providing the LLM API key"
	describeMaxTokensFlagName       = "max-tokens"
	describeMaxTokensFlagUsage      = "Override the maximum completion tokens"
	temperatureFlagName             = "temperature"
	temperatureFlagUsage            = "Override the sampling temperature (0-2)"
	timeoutFlagName                 = "timeout-seconds"
	timeoutFlagUsage                = "Override the LLM request timeout in seconds"

	describeModelRequiredMessage       = "model identifier must be provided via configuration or --model"
	describeAPIKeyMissingTemplate      = "environment variable %s must be set with an API key"
	describeTimeoutPositiveMessage     = "timeout-seconds must be positive"
	describeMaxTokensNegativeMessage   = "max-tokens must be zero or positive"
	describeTemperatureNegativeMessage = "temperature cannot be negative"

	chartTemplatePathPrefix = "templates/"
)

// ClientFactory builds chat clients from configuration.
type ClientFactory func(config llm.Config) (llm.ChatClient, error)

// EnvironmentLookup resolves environment variable values.
type EnvironmentLookup func(name string) (string, bool)

// DescribeCommandBuilder assembles the describe command.
type DescribeCommandBuilder struct {
	LoggerProvider        func() *zap.Logger
	ConfigurationProvider func() ApplicationDescribeConfiguration
	OrchestrationProvider func() ApplicationOrchestrationConfiguration
	ClientFactory         ClientFactory
	EnvironmentLookup     EnvironmentLookup
	Runner                func(command *cobra.Command, resourcePlan plan.ResourcePlan, options chartrunner.Options) (orchestrate.Result, error)
}

// Build constructs the describe command.
func (builder *DescribeCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           describeCommandUseName,
		Short:         describeCommandShortDescription,
		Long:          describeCommandLongDescription,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          builder.run,
	}

	command.Flags().String(modelFlagName, "", modelFlagUsage)
	command.Flags().String(baseURLFlagName, "", baseURLFlagUsage)
	command.Flags().String(apiKeyEnvFlagName, "", apiKeyEnvFlagUsage)
	command.Flags().Int(describeMaxTokensFlagName, 0, describeMaxTokensFlagUsage)
	command.Flags().Float64(temperatureFlagName, 0, temperatureFlagUsage)
	command.Flags().Int(timeoutFlagName, 0, timeoutFlagUsage)

	return command, nil
}

func (builder *DescribeCommandBuilder) run(command *cobra.Command, arguments []string) error {
	planFilePath := strings.TrimSpace(arguments[0])
	if len(planFilePath) == 0 {
		return errors.New(planPathRequiredMessage)
	}

	resourcePlan, planError := plan.LoadPlan(planFilePath)
	if planError != nil {
		return planError
	}

	configuration := builder.resolveConfiguration()

	modelIdentifier := configuration.Model
	if flagValue, flagError := command.Flags().GetString(modelFlagName); flagError == nil && command.Flags().Changed(modelFlagName) {
		modelIdentifier = strings.TrimSpace(flagValue)
	}
	if modelIdentifier == "" {
		return errors.New(describeModelRequiredMessage)
	}

	baseURL := configuration.BaseURL
	if flagValue, flagError := command.Flags().GetString(baseURLFlagName); flagError == nil && command.Flags().Changed(baseURLFlagName) {
		baseURL = strings.TrimSpace(flagValue)
	}

	apiKeyEnv := configuration.APIKeyEnv
	if flagValue, flagError := command.Flags().GetString(apiKeyEnvFlagName); flagError == nil && command.Flags().Changed(apiKeyEnvFlagName) {
		apiKeyEnv = strings.TrimSpace(flagValue)
	}
	if apiKeyEnv == "" {
		apiKeyEnv = defaultDescribeAPIKeyEnvConstant
	}

	lookupEnvironment := builder.EnvironmentLookup
	if lookupEnvironment == nil {
		lookupEnvironment = lookupEnvironmentValue
	}
	apiKey, apiKeyPresent := lookupEnvironment(apiKeyEnv)
	if !apiKeyPresent || apiKey == "" {
		return fmt.Errorf(describeAPIKeyMissingTemplate, apiKeyEnv)
	}

	maxTokens := configuration.MaxCompletionTokens
	if flagValue, flagError := command.Flags().GetInt(describeMaxTokensFlagName); flagError == nil && command.Flags().Changed(describeMaxTokensFlagName) {
		if flagValue < 0 {
			return errors.New(describeMaxTokensNegativeMessage)
		}
		maxTokens = flagValue
	}

	temperaturePointer, temperatureError := builder.resolveTemperature(command, configuration)
	if temperatureError != nil {
		return temperatureError
	}

	timeout := time.Duration(configuration.TimeoutSeconds) * time.Second
	if flagValue, flagError := command.Flags().GetInt(timeoutFlagName); flagError == nil && command.Flags().Changed(timeoutFlagName) {
		if flagValue <= 0 {
			return errors.New(describeTimeoutPositiveMessage)
		}
		timeout = time.Duration(flagValue) * time.Second
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

	maxRetries := defaultMaxRetriesConfigurationConstant
	if builder.OrchestrationProvider != nil {
		maxRetries = builder.OrchestrationProvider().MaxRetries
	}

	result, runError := runner(command, resourcePlan, chartrunner.Options{MaxRetries: maxRetries, DisableSummary: true})
	if runError != nil {
		return runError
	}

	clientFactory := builder.ClientFactory
	if clientFactory == nil {
		clientFactory = func(config llm.Config) (llm.ChatClient, error) {
			return llm.NewFactory(config)
		}
	}

	client, clientError := clientFactory(llm.Config{
		BaseURL:             baseURL,
		APIKey:              apiKey,
		Model:               modelIdentifier,
		MaxCompletionTokens: maxTokens,
		Temperature:         configuration.Temperature,
		RequestTimeout:      timeout,
	})
	if clientError != nil {
		return clientError
	}

	generator := chartdoc.Generator{Client: client, Logger: builder.resolveLogger()}
	generationResult, generationError := generator.Generate(command.Context(), chartdoc.Options{
		ChartName:         resourcePlan.Chart.Name,
		ChartDescription:  resourcePlan.Chart.Description,
		TemplateArtifacts: collectTemplateArtifacts(result.Bundle),
		MaxTokens:         maxTokens,
		Temperature:       temperaturePointer,
	})
	if generationError != nil {
		return generationError
	}

	fmt.Fprintln(command.OutOrStdout(), generationResult.Description)

	return nil
}

func (builder *DescribeCommandBuilder) resolveConfiguration() ApplicationDescribeConfiguration {
	if builder.ConfigurationProvider == nil {
		return ApplicationDescribeConfiguration{
			APIKeyEnv:           defaultDescribeAPIKeyEnvConstant,
			MaxCompletionTokens: defaultDescribeMaxTokensConstant,
			TimeoutSeconds:      defaultDescribeTimeoutSecondsConstant,
		}
	}
	return builder.ConfigurationProvider()
}

func (builder *DescribeCommandBuilder) resolveTemperature(command *cobra.Command, configuration ApplicationDescribeConfiguration) (*float64, error) {
	if flagValue, flagError := command.Flags().GetFloat64(temperatureFlagName); flagError == nil && command.Flags().Changed(temperatureFlagName) {
		if flagValue < 0 {
			return nil, errors.New(describeTemperatureNegativeMessage)
		}
		return &flagValue, nil
	}
	if configuration.Temperature != 0 {
		value := configuration.Temperature
		if value < 0 {
			return nil, errors.New(describeTemperatureNegativeMessage)
		}
		return &value, nil
	}
	return nil, nil
}

func (builder *DescribeCommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func lookupEnvironmentValue(name string) (string, bool) {
	return os.LookupEnv(name)
}

func collectTemplateArtifacts(assembledBundle map[string]string) map[string]string {
	templateArtifacts := make(map[string]string)
	for filePath, fileContent := range assembledBundle {
		if !strings.HasPrefix(filePath, chartTemplatePathPrefix) {
			continue
		}
		templateArtifacts[strings.TrimPrefix(filePath, chartTemplatePathPrefix)] = fileContent
	}
	return templateArtifacts
}
