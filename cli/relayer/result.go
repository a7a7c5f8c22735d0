package clirelayer

import (
	"fmt"
	"strings"

	"github.com/Ethernal-Tech/deposit-relayer/common"
)

type CmdResult struct {
	pairIDs []string
}

func (r CmdResult) GetOutput() string {
	return common.FormatKV([]string{
		"Relayer|stopped",
		fmt.Sprintf("Pairs|%s", strings.Join(r.pairIDs, ", ")),
	})
}
