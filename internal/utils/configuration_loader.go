package utils

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	environmentKeySeparatorConstant        = "_"
	configurationKeySeparatorConstant      = "."
	embeddedConfigurationReadTemplate      = "failed to read embedded configuration: %w"
	embeddedConfigurationMergeTemplate     = "failed to merge embedded configuration: %w"
	configurationFileMergeTemplateConstant = "failed to load configuration file: %w"
	configurationDecodeTemplateConstant    = "failed to decode configuration: %w"
)

// LoadedConfiguration reports details about a completed configuration load.
type LoadedConfiguration struct {
	ConfigFileUsed string
}

// ConfigurationLoader layers configuration from defaults, an embedded
// document, configuration files discovered on the search paths, and
// prefixed environment variables.
type ConfigurationLoader struct {
	configurationName         string
	configurationType         string
	environmentPrefix         string
	searchPaths               []string
	embeddedConfiguration     []byte
	embeddedConfigurationType string
}

// NewConfigurationLoader constructs a loader for the named configuration.
// Search paths are consulted in order; the first directory containing the
// configuration file wins.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		configurationName: configurationName,
		configurationType: configurationType,
		environmentPrefix: environmentPrefix,
		searchPaths:       append([]string(nil), searchPaths...),
	}
}

// SetEmbeddedConfiguration registers an embedded configuration document that
// overrides defaults but yields to configuration files and environment
// variables.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(embeddedConfiguration []byte, embeddedConfigurationType string) {
	loader.embeddedConfiguration = embeddedConfiguration
	loader.embeddedConfigurationType = embeddedConfigurationType
}

// LoadConfiguration resolves the configuration into target. When
// explicitFilePath is non-empty it is read instead of searching the
// configured paths.
func (loader *ConfigurationLoader) LoadConfiguration(explicitFilePath string, defaultValues map[string]any, target any) (LoadedConfiguration, error) {
	viperInstance := viper.New()
	for defaultKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(defaultKey, defaultValue)
	}

	if len(loader.embeddedConfiguration) > 0 {
		embeddedViper := viper.New()
		embeddedViper.SetConfigType(loader.embeddedConfigurationType)
		if readError := embeddedViper.ReadConfig(bytes.NewReader(loader.embeddedConfiguration)); readError != nil {
			return LoadedConfiguration{}, fmt.Errorf(embeddedConfigurationReadTemplate, readError)
		}
		if mergeError := viperInstance.MergeConfigMap(embeddedViper.AllSettings()); mergeError != nil {
			return LoadedConfiguration{}, fmt.Errorf(embeddedConfigurationMergeTemplate, mergeError)
		}
	}

	trimmedExplicitPath := strings.TrimSpace(explicitFilePath)
	if len(trimmedExplicitPath) > 0 {
		viperInstance.SetConfigFile(trimmedExplicitPath)
	} else {
		viperInstance.SetConfigName(loader.configurationName)
		viperInstance.SetConfigType(loader.configurationType)
		for _, searchPath := range loader.searchPaths {
			viperInstance.AddConfigPath(searchPath)
		}
	}

	configurationFileUsed := ""
	mergeError := viperInstance.MergeInConfig()
	switch {
	case mergeError == nil:
		configurationFileUsed = viperInstance.ConfigFileUsed()
	case errors.As(mergeError, &viper.ConfigFileNotFoundError{}) && len(trimmedExplicitPath) == 0:
		// Absent configuration files are acceptable when searching.
	default:
		return LoadedConfiguration{}, fmt.Errorf(configurationFileMergeTemplateConstant, mergeError)
	}

	viperInstance.SetEnvPrefix(loader.environmentPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(configurationKeySeparatorConstant, environmentKeySeparatorConstant))
	viperInstance.AutomaticEnv()

	if decodeError := viperInstance.Unmarshal(target); decodeError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationDecodeTemplateConstant, decodeError)
	}

	return LoadedConfiguration{ConfigFileUsed: configurationFileUsed}, nil
}
