package cliversion

import (
	"fmt"

	"github.com/Ethernal-Tech/deposit-relayer/common"
)

type versionCmdResult struct {
	Commit    string `json:"commit"`
	Branch    string `json:"branch"`
	BuildTime string `json:"buildTime"`
}

func (r *versionCmdResult) GetOutput() string {
	return common.FormatKV([]string{
		fmt.Sprintf("Commit|%s", valueOrUnknown(r.Commit)),
		fmt.Sprintf("Branch|%s", valueOrUnknown(r.Branch)),
		fmt.Sprintf("Build time|%s", valueOrUnknown(r.BuildTime)),
	})
}

func valueOrUnknown(value string) string {
	if value == "" {
		return "unknown"
	}

	return value
}
