package clirelayer

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	loggerInfra "github.com/Ethernal-Tech/cardano-infrastructure/logger"
	"github.com/Ethernal-Tech/deposit-relayer/common"
	relayerCore "github.com/Ethernal-Tech/deposit-relayer/relayer/core"
	"github.com/Ethernal-Tech/deposit-relayer/relayer/relayer_manager"
	"github.com/spf13/cobra"
)

const configPrefix = "relayer"

var initParamsData = &initParams{}

func GetRunRelayerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run-relayer",
		Short:   "runs the deposit relayer for every configured source/destination pair",
		PreRunE: runPreRun,
		Run:     runCommand,
	}

	initParamsData.setFlags(cmd)

	return cmd
}

func runPreRun(_ *cobra.Command, _ []string) error {
	return initParamsData.validateFlags()
}

func runCommand(cmd *cobra.Command, _ []string) {
	outputter := common.InitializeOutputter(cmd)
	defer outputter.WriteOutput()

	config, err := loadConfig(initParamsData)
	if err != nil {
		outputter.SetError(err)

		return
	}

	logger, err := loggerInfra.NewLogger(config.Logger)
	if err != nil {
		outputter.SetError(err)

		return
	}

	relayerManager, err := relayer_manager.NewRelayerManager(config, logger)
	if err != nil {
		logger.Error("relayer manager creation failed", "err", err)
		outputter.SetError(err)

		return
	}

	if err := relayerManager.Start(); err != nil {
		logger.Error("relayer manager start failed", "err", err)
		outputter.SetError(err)

		return
	}

	signalChannel := make(chan os.Signal, 1)
	// Notify the signalChannel when the interrupt signal is received (Ctrl+C)
	signal.Notify(signalChannel, os.Interrupt, syscall.SIGTERM)

	select {
	case <-signalChannel:
	case err = <-relayerManager.ErrorCh():
		outputter.SetError(err)
	}

	if stopErr := relayerManager.Stop(); stopErr != nil {
		logger.Error("relayer manager stop failed", "err", stopErr)

		if err == nil {
			outputter.SetError(stopErr)

			return
		}
	}

	if err != nil {
		return
	}

	pairIDs := make([]string, 0, len(config.Pairs))
	for pairID := range config.Pairs {
		pairIDs = append(pairIDs, pairID)
	}

	sort.Strings(pairIDs)

	outputter.SetCommandResult(&CmdResult{pairIDs: pairIDs})
}

func loadConfig(initParamsData *initParams) (*relayerCore.RelayerManagerConfiguration, error) {
	config, err := common.LoadConfig[relayerCore.RelayerManagerConfiguration](initParamsData.config, configPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if initParamsData.runAPI {
		config.RunAPI = true
	}

	config.SetDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}
