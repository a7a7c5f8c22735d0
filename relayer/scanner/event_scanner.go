package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Ethernal-Tech/deposit-relayer/relayer/core"
	"github.com/hashicorp/go-hclog"
)

type EventScannerConfig struct {
	ConfirmationDepth uint64
	StartBlock        uint64
	// 0 means unlimited
	MaxBlockRange    uint64
	OperationTimeout time.Duration
}

// EventScannerImpl reads DepositMade events from blocks that are at least
// ConfirmationDepth blocks behind the source chain head
type EventScannerImpl struct {
	config EventScannerConfig
	source core.SourceChain
	db     core.ScanStateStore
	logger hclog.Logger

	lastScannedBlock uint64
}

var _ core.EventScanner = (*EventScannerImpl)(nil)

func NewEventScanner(
	config EventScannerConfig, source core.SourceChain, db core.ScanStateStore, logger hclog.Logger,
) (*EventScannerImpl, error) {
	lastScannedBlock, exists, err := db.GetLastScannedBlock()
	if err != nil {
		return nil, fmt.Errorf("failed to load last scanned block: %w", err)
	}

	if !exists {
		lastScannedBlock = config.StartBlock
	}

	logger.Debug("Event scanner created", "lastScannedBlock", lastScannedBlock, "fromDb", exists)

	return &EventScannerImpl{
		config:           config,
		source:           source,
		db:               db,
		logger:           logger,
		lastScannedBlock: lastScannedBlock,
	}, nil
}

func (s *EventScannerImpl) LastScannedBlock() uint64 {
	return s.lastScannedBlock
}

// Scan returns the events of the next confirmed block window ordered by (block number, nonce).
// The cursor and the events are persisted together and only after the query succeeded.
func (s *EventScannerImpl) Scan(ctx context.Context) ([]*core.ChainEvent, error) {
	latest, err := s.latestBlockNumber(ctx)
	if err != nil {
		return nil, err
	}

	if latest < s.config.ConfirmationDepth {
		s.logger.Debug("Not enough confirmed blocks", "latest", latest, "depth", s.config.ConfirmationDepth)

		return nil, nil
	}

	safeHead := latest - s.config.ConfirmationDepth
	fromBlock := s.lastScannedBlock + 1

	if safeHead < fromBlock {
		s.logger.Debug("No new confirmed blocks", "safeHead", safeHead, "lastScanned", s.lastScannedBlock)

		return nil, nil
	}

	toBlock := safeHead
	if s.config.MaxBlockRange > 0 && toBlock-fromBlock+1 > s.config.MaxBlockRange {
		toBlock = fromBlock + s.config.MaxBlockRange - 1
	}

	events, err := s.getEvents(ctx, fromBlock, toBlock)
	if err != nil {
		return nil, err
	}

	core.SortChainEvents(events)

	if err := s.db.SaveScanResult(toBlock, events); err != nil {
		return nil, fmt.Errorf("failed to save scan result for blocks [%d, %d]: %w", fromBlock, toBlock, err)
	}

	s.lastScannedBlock = toBlock

	s.logger.Debug("Blocks scanned", "from", fromBlock, "to", toBlock, "events", len(events))

	return events, nil
}

func (s *EventScannerImpl) latestBlockNumber(ctx context.Context) (uint64, error) {
	ctx, cancelFn := s.withTimeout(ctx)
	defer cancelFn()

	latest, err := s.source.LatestBlockNumber(ctx)
	if err != nil {
		return 0, classifyError("failed to retrieve latest block number", err)
	}

	return latest, nil
}

func (s *EventScannerImpl) getEvents(ctx context.Context, from, to uint64) ([]*core.ChainEvent, error) {
	ctx, cancelFn := s.withTimeout(ctx)
	defer cancelFn()

	events, err := s.source.GetEvents(ctx, from, to, core.DepositMadeEventName)
	if err != nil {
		return nil, classifyError(fmt.Sprintf("failed to retrieve events for blocks [%d, %d]", from, to), err)
	}

	return events, nil
}

func (s *EventScannerImpl) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.OperationTimeout == 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, s.config.OperationTimeout)
}

// classifyError keeps chain errors that are already classified and treats everything else
// as a connectivity failure
func classifyError(msg string, err error) error {
	if errors.Is(err, core.ErrConnectivity) || errors.Is(err, core.ErrQuery) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", msg, err)
	}

	return core.NewConnectivityError(msg, err)
}
