package clirelayerstate

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	dbFlag         = "db"
	pairFlag       = "pair"
	startBlockFlag = "start-block"

	dbFlagDesc         = "path to the relayer database file of the pair"
	pairFlagDesc       = "pair id shown in the output"
	startBlockFlagDesc = "block reported as last scanned when nothing has been scanned yet"
)

type stateParams struct {
	db         string
	pair       string
	startBlock uint64
}

func (ip *stateParams) validateFlags() error {
	if ip.db == "" {
		return errors.New("--db flag not specified")
	}

	info, err := os.Stat(ip.db)
	if err != nil {
		return fmt.Errorf("invalid --%s flag: %w", dbFlag, err)
	}

	if info.IsDir() {
		return fmt.Errorf("invalid --%s flag: %s is a directory", dbFlag, ip.db)
	}

	return nil
}

func (ip *stateParams) setFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(
		&ip.db,
		dbFlag,
		"",
		dbFlagDesc,
	)
	cmd.Flags().StringVar(
		&ip.pair,
		pairFlag,
		"",
		pairFlagDesc,
	)
	cmd.Flags().Uint64Var(
		&ip.startBlock,
		startBlockFlag,
		0,
		startBlockFlagDesc,
	)
}
