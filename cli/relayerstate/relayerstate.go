package clirelayerstate

import (
	"path/filepath"
	"strings"

	"github.com/Ethernal-Tech/deposit-relayer/common"
	databaseaccess "github.com/Ethernal-Tech/deposit-relayer/relayer/database_access"
	"github.com/Ethernal-Tech/deposit-relayer/relayer/relayer"
	"github.com/spf13/cobra"
)

var paramsData = &stateParams{}

func GetRelayerStateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "relayer-state",
		Short:   "prints the persisted state of a source/destination pair",
		PreRunE: runPreRun,
		Run:     runCommand,
	}

	paramsData.setFlags(cmd)
	common.RegisterJSONOutputFlag(cmd)

	return cmd
}

func runPreRun(_ *cobra.Command, _ []string) error {
	return paramsData.validateFlags()
}

func runCommand(cmd *cobra.Command, _ []string) {
	outputter := common.InitializeOutputter(cmd)
	defer outputter.WriteOutput()

	db, err := databaseaccess.NewReadOnlyDatabase(paramsData.db)
	if err != nil {
		outputter.SetError(err)

		return
	}

	defer db.Close()

	pairID := paramsData.pair
	if pairID == "" {
		pairID = strings.TrimSuffix(filepath.Base(paramsData.db), filepath.Ext(paramsData.db))
	}

	state, err := relayer.ReadState(pairID, paramsData.startBlock, db)
	if err != nil {
		outputter.SetError(err)

		return
	}

	outputter.SetCommandResult(&CmdResult{RelayerState: state})
}
