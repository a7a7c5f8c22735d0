package clirelayer

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	configFlag = "config"
	runAPIFlag = "run-api"

	configFlagDesc = "path to config json file, relayer_config.json next to the executable when not set"
	runAPIFlagDesc = "specifies whether the api should be run, overrides the config value"
)

type initParams struct {
	config string
	runAPI bool
}

func (ip *initParams) validateFlags() error {
	if ip.config == "" {
		return nil
	}

	if _, err := os.Stat(ip.config); err != nil {
		return fmt.Errorf("invalid --%s flag: %w", configFlag, err)
	}

	return nil
}

func (ip *initParams) setFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(
		&ip.config,
		configFlag,
		"",
		configFlagDesc,
	)

	cmd.Flags().BoolVar(
		&ip.runAPI,
		runAPIFlag,
		false,
		runAPIFlagDesc,
	)
}
