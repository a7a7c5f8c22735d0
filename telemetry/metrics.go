package telemetry

import (
	"strconv"

	"github.com/armon/go-metrics"
)

const (
	relayerMetricsPrefix = "relayer"
)

func UpdateRelayerDecisionsCounter(pair string, decision string, reason string) {
	labels := []metrics.Label{
		{Name: "pair", Value: pair},
		{Name: "decision", Value: decision},
	}

	if reason != "" {
		labels = append(labels, metrics.Label{Name: "reason", Value: reason})
	}

	metrics.IncrCounterWithLabels([]string{relayerMetricsPrefix, "decisions"}, 1, labels)
}

func UpdateRelayerLastScannedBlock(pair string, block uint64) {
	metrics.SetGaugeWithLabels([]string{relayerMetricsPrefix, "last_scanned_block"}, float32(block),
		[]metrics.Label{{Name: "pair", Value: pair}})
}

func UpdateRelayerPendingEvents(pair string, cnt int) {
	metrics.SetGaugeWithLabels([]string{relayerMetricsPrefix, "pending_events"}, float32(cnt),
		[]metrics.Label{{Name: "pair", Value: pair}})
}

func UpdateRelayerTickFailedCounter(pair string, retriable bool) {
	metrics.IncrCounterWithLabels([]string{relayerMetricsPrefix, "tick_failed"}, 1,
		[]metrics.Label{
			{Name: "pair", Value: pair},
			{Name: "retriable", Value: strconv.FormatBool(retriable)},
		})
}
