package cli

import _ "embed"

//go:embed defaults.yaml
var embeddedDefaultConfigurationContent []byte

// EmbeddedDefaultConfiguration returns the default configuration document and its format.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return embeddedDefaultConfigurationContent, configurationTypeConstant
}
