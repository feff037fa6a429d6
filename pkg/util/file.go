package util

import (
	"os"
	"strings"
)

// We have to manually swap out environment variables,
// as Viper's AutomaticEnv() doesn't work with Unmarshal() and the workarounds do not work for nested structures.
// See https://github.com/spf13/viper/issues/761
func ReplaceEnvVariablesFromPath(filePath string, envVarPrefix string) ([]byte, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	return []byte(ReplaceEnvVariables(string(content), envVarPrefix)), nil
}

// ReplaceEnvVariables substitutes ${NAME} and bare NAME tokens of every set
// environment variable starting with envVarPrefix.
func ReplaceEnvVariables(content string, envVarPrefix string) string {
	for _, envVarValPair := range os.Environ() {
		if !strings.HasPrefix(envVarValPair, envVarPrefix) {
			continue
		}
		envVar := strings.SplitN(envVarValPair, "=", 2)[0]
		value := os.Getenv(envVar)
		content = strings.ReplaceAll(content, "${"+envVar+"}", value)
		content = strings.ReplaceAll(content, envVar, value)
	}

	return content
}
