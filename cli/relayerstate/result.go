package clirelayerstate

import (
	"bytes"
	"fmt"

	"github.com/Ethernal-Tech/deposit-relayer/common"
	"github.com/Ethernal-Tech/deposit-relayer/relayer/core"
)

type CmdResult struct {
	*core.RelayerState
}

func (r CmdResult) GetOutput() string {
	var buffer bytes.Buffer

	buffer.WriteString(common.FormatKV([]string{
		fmt.Sprintf("Pair|%s", r.PairID),
		fmt.Sprintf("Last scanned block|%d", r.LastScannedBlock),
		fmt.Sprintf("Processed nonces|%d", r.ProcessedCount),
		fmt.Sprintf("Pending events|%d", len(r.PendingEvents)),
		fmt.Sprintf("Escalated events|%d", len(r.EscalatedEvents)),
		fmt.Sprintf("Failed submissions|%d", len(r.FailedSubmissions)),
	}))

	writePending := func(title string, events []*core.PendingEvent) {
		if len(events) == 0 {
			return
		}

		buffer.WriteString(fmt.Sprintf("\n[%s]\n", title))

		for _, ev := range events {
			buffer.WriteString(fmt.Sprintf("%s, attempts = %d\n", ev.Event, ev.Attempts))
		}
	}

	writePending("Pending events", r.PendingEvents)
	writePending("Escalated events", r.EscalatedEvents)

	if len(r.FailedSubmissions) > 0 {
		buffer.WriteString("\n[Failed submissions]\n")

		for _, failed := range r.FailedSubmissions {
			buffer.WriteString(fmt.Sprintf("%s, error = %s\n", failed.Event, failed.Error))
		}
	}

	return buffer.String()
}
