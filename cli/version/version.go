package cliversion

import (
	"github.com/Ethernal-Tech/deposit-relayer/common"
	"github.com/Ethernal-Tech/deposit-relayer/versioning"
	"github.com/spf13/cobra"
)

func GetVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Returns the current deposit relayer version",
		Args:  cobra.NoArgs,
		Run:   runCommand,
	}

	common.RegisterJSONOutputFlag(cmd)

	return cmd
}

func runCommand(cmd *cobra.Command, _ []string) {
	outputter := common.InitializeOutputter(cmd)
	defer outputter.WriteOutput()

	outputter.SetCommandResult(
		&versionCmdResult{
			Commit:    versioning.Commit,
			Branch:    versioning.Branch,
			BuildTime: versioning.BuildTime,
		},
	)
}
