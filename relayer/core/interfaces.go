package core

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

type RelayerManager interface {
	Start() error
	Stop() error
	ErrorCh() <-chan error
}

// RelayerStateProvider exposes per pair state to the api
type RelayerStateProvider interface {
	GetRelayerState(pairID string) (*RelayerState, error)
	GetDecisions(pairID string) ([]DecisionRecord, error)
}

type Relayer interface {
	Start(ctx context.Context) error
	Stop()
	Tick(ctx context.Context) error
	GetState() (*RelayerState, error)
}

type SourceChain interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	// GetEvents returns events with the given name from the inclusive block range [from, to]
	GetEvents(ctx context.Context, from, to uint64, eventName string) ([]*ChainEvent, error)
}

type DestinationChain interface {
	Submit(ctx context.Context, call *ReleaseCall) (TxHandle, error)
}

type ComplianceService interface {
	Check(ctx context.Context, address common.Address) (*ComplianceResult, error)
}

type EventScanner interface {
	Scan(ctx context.Context) ([]*ChainEvent, error)
	LastScannedBlock() uint64
}

type RelayValidator interface {
	Process(ctx context.Context, event *ChainEvent) (RelayDecision, error)
}

type DecisionObserver interface {
	OnDecision(record DecisionRecord)
}

type ScanStateStore interface {
	// GetLastScannedBlock returns false when no cursor has been stored yet
	GetLastScannedBlock() (uint64, bool, error)
	// SaveScanResult stores the cursor and adds the events as pending in one transaction.
	// Events that are already pending keep their attempt count.
	SaveScanResult(lastScannedBlock uint64, events []*ChainEvent) error
}

type ProcessedNonceStore interface {
	IsNonceProcessed(nonce uint64) (bool, error)
	// AddProcessedNonce returns ErrNonceAlreadyProcessed if the nonce is already in the set
	AddProcessedNonce(entry *ProcessedNonce) error
	GetProcessedNonce(nonce uint64) (*ProcessedNonce, error)
	GetProcessedNoncesCount() (int, error)
	// PruneProcessedNonces removes entries whose event block is lower than belowBlock
	PruneProcessedNonces(belowBlock uint64) (int, error)
}

type PendingEventStore interface {
	GetPendingEvents() ([]*PendingEvent, error)
	UpdatePendingEvent(event *PendingEvent) error
	RemovePendingEvent(nonce uint64) error
	// EscalatePendingEvent moves the event from pending to escalated
	EscalatePendingEvent(event *PendingEvent) error
	GetEscalatedEvents() ([]*PendingEvent, error)
	AddFailedSubmission(failed *FailedSubmission) error
	GetFailedSubmissions() ([]*FailedSubmission, error)
}

type Database interface {
	ScanStateStore
	ProcessedNonceStore
	PendingEventStore
	Init(filePath string) error
	Close() error
}
