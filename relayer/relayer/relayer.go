package relayer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Ethernal-Tech/deposit-relayer/relayer/core"
	"github.com/Ethernal-Tech/deposit-relayer/telemetry"
	"github.com/hashicorp/go-hclog"
)

type RelayerImpl struct {
	config      *core.RelayerConfiguration
	scanner     core.EventScanner
	validator   core.RelayValidator
	destination core.DestinationChain
	db          core.Database
	observers   []core.DecisionObserver
	logger      hclog.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
}

var _ core.Relayer = (*RelayerImpl)(nil)

func NewRelayer(
	config *core.RelayerConfiguration,
	scanner core.EventScanner,
	validator core.RelayValidator,
	destination core.DestinationChain,
	db core.Database,
	observers []core.DecisionObserver,
	logger hclog.Logger,
) *RelayerImpl {
	return &RelayerImpl{
		config:      config,
		scanner:     scanner,
		validator:   validator,
		destination: destination,
		db:          db,
		observers:   observers,
		logger:      logger,
		stopCh:      make(chan struct{}),
	}
}

// Start runs ticks until the context is done, Stop is called or a fatal error occurs
func (r *RelayerImpl) Start(ctx context.Context) error {
	r.logger.Debug("Relayer started", "pollInterval", r.config.PollInterval())
	defer r.logger.Debug("Relayer stopped")

	for {
		if r.isStopped(ctx) {
			return nil
		}

		if err := r.Tick(ctx); err != nil {
			switch {
			case core.IsFatalError(err):
				r.logger.Error("Relayer can not continue", "err", err)

				return err
			case ctx.Err() != nil:
			case core.IsRetriableError(err):
				r.logger.Warn("execute failed, retrying on next tick", "err", err)
				telemetry.UpdateRelayerTickFailedCounter(r.config.PairID, true)
			default:
				r.logger.Error("execute failed", "err", err)
				telemetry.UpdateRelayerTickFailedCounter(r.config.PairID, false)
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-r.stopCh:
			return nil
		case <-time.After(r.config.PollInterval()):
		}
	}
}

func (r *RelayerImpl) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
}

// Tick scans the next block window and processes every pending event in (block, nonce) order.
// A retriable error aborts the rest of the tick, decisions made before it are kept.
func (r *RelayerImpl) Tick(ctx context.Context) error {
	if _, err := r.scanner.Scan(ctx); err != nil {
		return fmt.Errorf("failed to scan source chain: %w", err)
	}

	pendingEvents, err := r.db.GetPendingEvents()
	if err != nil {
		return fmt.Errorf("failed to retrieve pending events: %w", err)
	}

	sortPendingEvents(pendingEvents)

	telemetry.UpdateRelayerLastScannedBlock(r.config.PairID, r.scanner.LastScannedBlock())
	defer func() {
		if cnt, err := r.pendingEventsCount(); err == nil {
			telemetry.UpdateRelayerPendingEvents(r.config.PairID, cnt)
		}
	}()

	for i, pending := range pendingEvents {
		if err := ctx.Err(); err != nil {
			return err
		}

		if r.isStopped(ctx) {
			r.logger.Debug("Relayer stopped, events left pending", "count", len(pendingEvents)-i)

			return nil
		}

		if err := r.processEvent(ctx, pending); err != nil {
			return fmt.Errorf("failed to process event with nonce %d: %w", pending.Event.Nonce, err)
		}
	}

	return r.pruneProcessedNonces()
}

func (r *RelayerImpl) GetState() (*core.RelayerState, error) {
	return ReadState(r.config.PairID, r.config.Pair.StartBlock, r.db)
}

// ReadState reads the persisted state of a pair, startBlock is reported when nothing has been scanned yet
func ReadState(pairID string, startBlock uint64, db core.Database) (*core.RelayerState, error) {
	lastScannedBlock, exists, err := db.GetLastScannedBlock()
	if err != nil {
		return nil, err
	}

	if !exists {
		lastScannedBlock = startBlock
	}

	processedCount, err := db.GetProcessedNoncesCount()
	if err != nil {
		return nil, err
	}

	pending, err := db.GetPendingEvents()
	if err != nil {
		return nil, err
	}

	escalated, err := db.GetEscalatedEvents()
	if err != nil {
		return nil, err
	}

	failed, err := db.GetFailedSubmissions()
	if err != nil {
		return nil, err
	}

	sortPendingEvents(pending)

	return &core.RelayerState{
		PairID:            pairID,
		LastScannedBlock:  lastScannedBlock,
		ProcessedCount:    processedCount,
		PendingEvents:     pending,
		EscalatedEvents:   escalated,
		FailedSubmissions: failed,
	}, nil
}

func (r *RelayerImpl) processEvent(ctx context.Context, pending *core.PendingEvent) error {
	ev := pending.Event

	decision, err := r.validator.Process(ctx, ev)
	if err != nil {
		return err
	}

	switch decision.Kind {
	case core.DecisionDispatched:
		return r.dispatch(ctx, ev, decision.Call)
	case core.DecisionRejected:
		if err := r.db.RemovePendingEvent(ev.Nonce); err != nil {
			return fmt.Errorf("failed to remove pending event: %w", err)
		}

		r.emit(ev, core.RecordRejected, decision.Reason, "")

		return nil
	case core.DecisionDeferred:
		// compliance call interrupted by shutdown is not a deferral attempt
		if err := ctx.Err(); err != nil {
			return err
		}

		if r.isStopped(ctx) {
			return nil
		}

		return r.deferEvent(pending, decision.Reason)
	default:
		return core.NewFatalError("process event", fmt.Errorf("unknown decision: %s", decision.Kind))
	}
}

func (r *RelayerImpl) dispatch(ctx context.Context, ev *core.ChainEvent, call *core.ReleaseCall) error {
	txHandle, submitErr := r.submit(ctx, call)
	if submitErr != nil {
		r.logger.Error("Failed to submit release, requires manual intervention",
			"nonce", ev.Nonce, "recipient", call.Recipient, "amount", call.Amount, "err", submitErr)

		err := r.db.AddFailedSubmission(&core.FailedSubmission{
			Call:     call,
			Event:    ev,
			Error:    submitErr.Error(),
			FailedAt: time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("failed to store failed submission: %w", err)
		}
	}

	if err := r.db.RemovePendingEvent(ev.Nonce); err != nil {
		return fmt.Errorf("failed to remove pending event: %w", err)
	}

	if submitErr != nil {
		r.emit(ev, core.RecordDispatched, core.ReasonSubmissionFailed, "")
	} else {
		r.emit(ev, core.RecordDispatched, core.ReasonNone, string(txHandle))
	}

	return nil
}

func (r *RelayerImpl) submit(ctx context.Context, call *core.ReleaseCall) (core.TxHandle, error) {
	if timeout := r.config.OperationTimeout(); timeout > 0 {
		var cancelFn context.CancelFunc

		ctx, cancelFn = context.WithTimeout(ctx, timeout)
		defer cancelFn()
	}

	txHandle, err := r.destination.Submit(ctx, call)
	if err != nil && !errors.Is(err, core.ErrSubmission) {
		err = core.NewSubmissionError("submit release", err)
	}

	return txHandle, err
}

func (r *RelayerImpl) deferEvent(pending *core.PendingEvent, reason core.DecisionReason) error {
	pending.Attempts++
	pending.LastDeferredAt = time.Now().UTC()

	maxAttempts := r.config.Pair.MaxDeferredAttempts
	if maxAttempts > 0 && pending.Attempts >= maxAttempts {
		if err := r.db.EscalatePendingEvent(pending); err != nil {
			return fmt.Errorf("failed to escalate pending event: %w", err)
		}

		r.logger.Error("Event deferred too many times, requires manual intervention",
			"nonce", pending.Event.Nonce, "attempts", pending.Attempts, "reason", reason)

		r.emit(pending.Event, core.RecordEscalated, core.ReasonDeferralLimitReached, "")

		return nil
	}

	if err := r.db.UpdatePendingEvent(pending); err != nil {
		return fmt.Errorf("failed to update pending event: %w", err)
	}

	r.emit(pending.Event, core.RecordDeferred, reason, "")

	return nil
}

func (r *RelayerImpl) pruneProcessedNonces() error {
	retention := r.config.Pair.NonceRetentionBlocks
	lastScanned := r.scanner.LastScannedBlock()

	if retention == 0 || lastScanned <= retention {
		return nil
	}

	count, err := r.db.PruneProcessedNonces(lastScanned - retention)
	if err != nil {
		return fmt.Errorf("failed to prune processed nonces: %w", err)
	}

	if count > 0 {
		r.logger.Debug("Processed nonces pruned", "count", count, "belowBlock", lastScanned-retention)
	}

	return nil
}

func (r *RelayerImpl) emit(ev *core.ChainEvent, decision string, reason core.DecisionReason, txHash string) {
	record := core.DecisionRecord{
		PairID:      r.config.PairID,
		Nonce:       ev.Nonce,
		BlockNumber: ev.BlockNumber,
		Decision:    decision,
		Reason:      string(reason),
		TxHash:      txHash,
		Time:        time.Now().UTC(),
	}

	logDecision(r.logger, record)

	for _, observer := range r.observers {
		observer.OnDecision(record)
	}
}

func (r *RelayerImpl) pendingEventsCount() (int, error) {
	pending, err := r.db.GetPendingEvents()

	return len(pending), err
}

func (r *RelayerImpl) isStopped(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-r.stopCh:
		return true
	default:
		return false
	}
}

func sortPendingEvents(events []*core.PendingEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Event.BlockNumber != events[j].Event.BlockNumber {
			return events[i].Event.BlockNumber < events[j].Event.BlockNumber
		}

		return events[i].Event.Nonce < events[j].Event.Nonce
	})
}
