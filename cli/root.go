package cli

import (
	"fmt"
	"os"

	clirelayer "github.com/Ethernal-Tech/deposit-relayer/cli/relayer"
	clirelayerstate "github.com/Ethernal-Tech/deposit-relayer/cli/relayerstate"
	cliversion "github.com/Ethernal-Tech/deposit-relayer/cli/version"
	"github.com/spf13/cobra"
)

type RootCommand struct {
	baseCmd *cobra.Command
}

func NewRootCommand() *RootCommand {
	rootCommand := &RootCommand{
		baseCmd: &cobra.Command{
			Short: "cli commands for the deposit relayer",
		},
	}

	rootCommand.registerSubCommands()

	return rootCommand
}

func (rc *RootCommand) registerSubCommands() {
	rc.baseCmd.AddCommand(
		clirelayer.GetRunRelayerCommand(),
		clirelayerstate.GetRelayerStateCommand(),
		cliversion.GetVersionCommand(),
	)
}

func (rc *RootCommand) Execute() {
	if err := rc.baseCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)

		os.Exit(1)
	}
}
