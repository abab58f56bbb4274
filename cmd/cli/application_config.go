package cli

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common        ApplicationCommonConfiguration        `mapstructure:"common"`
	Orchestration ApplicationOrchestrationConfiguration `mapstructure:"orchestration"`
	Generate      ApplicationGenerateConfiguration      `mapstructure:"generate"`
	Serve         ApplicationServeConfiguration         `mapstructure:"serve"`
	Describe      ApplicationDescribeConfiguration      `mapstructure:"describe"`
}

// ApplicationCommonConfiguration stores logging defaults shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationOrchestrationConfiguration tunes chart task execution.
type ApplicationOrchestrationConfiguration struct {
	MaxRetries int `mapstructure:"max_retries"`
}

// ApplicationGenerateConfiguration stores defaults for the generate command.
type ApplicationGenerateConfiguration struct {
	Output string `mapstructure:"output"`
}

// ApplicationServeConfiguration stores defaults for the serve command.
type ApplicationServeConfiguration struct {
	Address string `mapstructure:"address"`
}

// ApplicationDescribeConfiguration stores defaults for the describe command.
type ApplicationDescribeConfiguration struct {
	Model               string  `mapstructure:"model"`
	BaseURL             string  `mapstructure:"base_url"`
	APIKeyEnv           string  `mapstructure:"api_key_env"`
	MaxCompletionTokens int     `mapstructure:"max_completion_tokens"`
	TimeoutSeconds      int     `mapstructure:"timeout_seconds"`
	Temperature         float64 `mapstructure:"temperature"`
}

type configurationInitializationPlan struct {
	DirectoryPath string
	FilePath      string
}
