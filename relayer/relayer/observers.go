package relayer

import (
	"sync"

	"github.com/Ethernal-Tech/deposit-relayer/relayer/core"
	"github.com/Ethernal-Tech/deposit-relayer/telemetry"
	"github.com/hashicorp/go-hclog"
)

const defaultDecisionHistorySize = 100

func logDecision(logger hclog.Logger, record core.DecisionRecord) {
	args := []interface{}{"nonce", record.Nonce, "block", record.BlockNumber, "decision", record.Decision}
	if record.Reason != "" {
		args = append(args, "reason", record.Reason)
	}

	if record.TxHash != "" {
		args = append(args, "hash", record.TxHash)
	}

	switch record.Decision {
	case core.RecordEscalated:
		logger.Error("Relay decision", args...)
	case core.RecordDeferred:
		logger.Warn("Relay decision", args...)
	default:
		logger.Info("Relay decision", args...)
	}
}

// MetricsObserver counts decisions per pair, decision and reason
type MetricsObserver struct{}

var _ core.DecisionObserver = (*MetricsObserver)(nil)

func (MetricsObserver) OnDecision(record core.DecisionRecord) {
	telemetry.UpdateRelayerDecisionsCounter(record.PairID, record.Decision, record.Reason)
}

// DecisionHistory keeps the most recent decision records
type DecisionHistory struct {
	records []core.DecisionRecord
	next    int
	full    bool
	lock    sync.RWMutex
}

var _ core.DecisionObserver = (*DecisionHistory)(nil)

func NewDecisionHistory(size int) *DecisionHistory {
	if size <= 0 {
		size = defaultDecisionHistorySize
	}

	return &DecisionHistory{
		records: make([]core.DecisionRecord, size),
	}
}

func (h *DecisionHistory) OnDecision(record core.DecisionRecord) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.records[h.next] = record
	h.next = (h.next + 1) % len(h.records)

	if h.next == 0 {
		h.full = true
	}
}

// GetRecords returns the stored records, oldest first
func (h *DecisionHistory) GetRecords() []core.DecisionRecord {
	h.lock.RLock()
	defer h.lock.RUnlock()

	if !h.full {
		return append([]core.DecisionRecord(nil), h.records[:h.next]...)
	}

	result := make([]core.DecisionRecord, 0, len(h.records))
	result = append(result, h.records[h.next:]...)

	return append(result, h.records[:h.next]...)
}
