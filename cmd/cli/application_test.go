package cli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tyemirov/helmsmith/cmd/cli"
)

const (
	searchPathEnvironmentVariable = "HELMSMITH_CONFIG_SEARCH_PATH"
	configurationFileName         = "config.yaml"
)

func TestInitializeForCommandWithoutConfigurationFile(testInstance *testing.T) {
	emptyDirectory := testInstance.TempDir()
	testInstance.Setenv(searchPathEnvironmentVariable, emptyDirectory)

	application := cli.NewApplication()
	initializationError := application.InitializeForCommand("helmsmith")

	require.NoError(testInstance, initializationError)
	require.Empty(testInstance, application.ConfigFileUsed())
}

func TestInitializeForCommandReadsConfigurationFile(testInstance *testing.T) {
	configurationDirectory := testInstance.TempDir()
	configurationFilePath := filepath.Join(configurationDirectory, configurationFileName)
	configurationDocument := "common:\n  log_level: debug\n  log_format: console\n"
	require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(configurationDocument), 0o600))
	testInstance.Setenv(searchPathEnvironmentVariable, configurationDirectory)

	application := cli.NewApplication()
	initializationError := application.InitializeForCommand("helmsmith")

	require.NoError(testInstance, initializationError)
	require.Equal(testInstance, configurationFilePath, application.ConfigFileUsed())
}

func TestInitializeForCommandRejectsUnknownLogLevel(testInstance *testing.T) {
	configurationDirectory := testInstance.TempDir()
	configurationFilePath := filepath.Join(configurationDirectory, configurationFileName)
	configurationDocument := "common:\n  log_level: loudest\n"
	require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(configurationDocument), 0o600))
	testInstance.Setenv(searchPathEnvironmentVariable, configurationDirectory)

	application := cli.NewApplication()
	initializationError := application.InitializeForCommand("helmsmith")

	require.Error(testInstance, initializationError)
	require.Contains(testInstance, initializationError.Error(), "unable to create logger")
}

func TestEmbeddedDefaultConfigurationParses(testInstance *testing.T) {
	configurationContent, configurationType := cli.EmbeddedDefaultConfiguration()

	require.NotEmpty(testInstance, configurationContent)
	require.Equal(testInstance, "yaml", configurationType)

	var decodedConfiguration struct {
		Common struct {
			LogLevel  string `yaml:"log_level"`
			LogFormat string `yaml:"log_format"`
		} `yaml:"common"`
		Orchestration struct {
			MaxRetries int `yaml:"max_retries"`
		} `yaml:"orchestration"`
	}
	require.NoError(testInstance, yaml.Unmarshal(configurationContent, &decodedConfiguration))
	require.Equal(testInstance, "error", decodedConfiguration.Common.LogLevel)
	require.Equal(testInstance, "structured", decodedConfiguration.Common.LogFormat)
	require.Equal(testInstance, 3, decodedConfiguration.Orchestration.MaxRetries)
}
