package common

import (
	"encoding/json"
	"fmt"

	"github.com/ryanuber/columnize"
	"github.com/spf13/cobra"
)

const jsonOutputFlag = "json"

type ICommandResult interface {
	GetOutput() string
}

type OutputFormatter interface {
	SetError(err error)
	SetCommandResult(result ICommandResult)
	WriteOutput()
}

type cliOutput struct {
	cmd        *cobra.Command
	err        error
	result     ICommandResult
	jsonOutput bool
}

// InitializeOutputter returns an outputter that writes to the command output streams.
// Results are written as json when the command has a set --json flag.
func InitializeOutputter(cmd *cobra.Command) OutputFormatter {
	jsonOutput, _ := cmd.Flags().GetBool(jsonOutputFlag)

	return &cliOutput{
		cmd:        cmd,
		jsonOutput: jsonOutput,
	}
}

// RegisterJSONOutputFlag adds the --json flag to the command
func RegisterJSONOutputFlag(cmd *cobra.Command) {
	cmd.Flags().Bool(jsonOutputFlag, false, "write the command result as json")
}

func (o *cliOutput) SetError(err error) {
	o.err = err
}

func (o *cliOutput) SetCommandResult(result ICommandResult) {
	o.result = result
}

func (o *cliOutput) WriteOutput() {
	if o.err != nil {
		_, _ = fmt.Fprintf(o.cmd.ErrOrStderr(), "error: %v\n", o.err)

		return
	}

	if o.result == nil {
		return
	}

	if o.jsonOutput {
		bytes, err := json.MarshalIndent(o.result, "", "  ")
		if err != nil {
			_, _ = fmt.Fprintf(o.cmd.ErrOrStderr(), "error: %v\n", err)

			return
		}

		_, _ = fmt.Fprintln(o.cmd.OutOrStdout(), string(bytes))

		return
	}

	_, _ = fmt.Fprint(o.cmd.OutOrStdout(), o.result.GetOutput())
}

// FormatKV aligns "Key|Value" rows, one row per line
func FormatKV(rows []string) string {
	columnConf := columnize.DefaultConfig()
	columnConf.Empty = "<none>"
	columnConf.Glue = " = "

	return columnize.Format(rows, columnConf) + "\n"
}
