package common

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const configFileSuffix = "config.json"

func CreateDirectoryIfNotExists(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return os.MkdirAll(dirPath, 0770)
	}

	return nil
}

func LoadJSON[TReturn any](path string) (*TReturn, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	defer f.Close()

	var value TReturn

	decoder := json.NewDecoder(f)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return &value, nil
}

// LoadConfig loads the config from configPath or, when it is empty,
// from (prefix)_config.json next to the executable
func LoadConfig[TReturn any](configPath string, configPrefix string) (*TReturn, error) {
	if configPath == "" {
		ex, err := os.Executable()
		if err != nil {
			return nil, err
		}

		configPath = filepath.Join(filepath.Dir(ex), DefaultConfigFileName(configPrefix))
	}

	return LoadJSON[TReturn](configPath)
}

func DefaultConfigFileName(configPrefix string) string {
	if strings.TrimSpace(configPrefix) == "" {
		return configFileSuffix
	}

	return strings.Join([]string{configPrefix, configFileSuffix}, "_")
}
