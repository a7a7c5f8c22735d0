package core

import (
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	DepositMadeEventName      = "DepositMade"
	ReleaseTokensFunctionName = "releaseTokens"
)

// ChainEvent is a DepositMade event read from the source chain
type ChainEvent struct {
	Nonce              uint64         `json:"nonce"`
	Sender             common.Address `json:"sender"`
	Recipient          common.Address `json:"recipient"`
	Amount             *big.Int       `json:"amount"`
	DestinationChainID *big.Int       `json:"destinationChainId,omitempty"`
	BlockNumber        uint64         `json:"blockNumber"`
	TxHash             common.Hash    `json:"txHash"`
	LogIndex           uint           `json:"logIndex"`
}

func (ev ChainEvent) String() string {
	return fmt.Sprintf("nonce = %d, block = %d, sender = %s, recipient = %s, amount = %s",
		ev.Nonce, ev.BlockNumber, ev.Sender, ev.Recipient, ev.Amount)
}

// SortChainEvents orders events by block number and then by nonce
func SortChainEvents(events []*ChainEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].BlockNumber != events[j].BlockNumber {
			return events[i].BlockNumber < events[j].BlockNumber
		}

		return events[i].Nonce < events[j].Nonce
	})
}

// ReleaseCall describes the destination chain call for a relayed deposit
type ReleaseCall struct {
	Function    string         `json:"function"`
	Recipient   common.Address `json:"recipient"`
	Amount      *big.Int       `json:"amount"`
	SourceNonce uint64         `json:"sourceNonce"`
}

func NewReleaseCall(ev *ChainEvent) *ReleaseCall {
	return &ReleaseCall{
		Function:    ReleaseTokensFunctionName,
		Recipient:   ev.Recipient,
		Amount:      new(big.Int).Set(ev.Amount),
		SourceNonce: ev.Nonce,
	}
}

type TxHandle string

type ComplianceResult struct {
	Approved bool   `json:"approved"`
	Details  string `json:"details"`
}

type DecisionKind int

const (
	DecisionDispatched DecisionKind = iota
	DecisionRejected
	DecisionDeferred
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionDispatched:
		return "dispatched"
	case DecisionRejected:
		return "rejected"
	case DecisionDeferred:
		return "deferred"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

type DecisionReason string

const (
	ReasonNone                   DecisionReason = ""
	ReasonDuplicate              DecisionReason = "duplicate"
	ReasonNonCompliant           DecisionReason = "non-compliant"
	ReasonComplianceUnavailable  DecisionReason = "compliance-unavailable"
	ReasonInvalidEvent           DecisionReason = "invalid-event"
	ReasonUnsupportedDestination DecisionReason = "unsupported-destination"
	ReasonSubmissionFailed       DecisionReason = "submission-failed"
	ReasonDeferralLimitReached   DecisionReason = "deferral-limit-reached"
)

// RelayDecision is the result of validating one event.
// Call is set only for dispatched decisions.
type RelayDecision struct {
	Kind   DecisionKind
	Call   *ReleaseCall
	Reason DecisionReason
}

func Dispatched(call *ReleaseCall) RelayDecision {
	return RelayDecision{Kind: DecisionDispatched, Call: call}
}

func Rejected(reason DecisionReason) RelayDecision {
	return RelayDecision{Kind: DecisionRejected, Reason: reason}
}

func Deferred(reason DecisionReason) RelayDecision {
	return RelayDecision{Kind: DecisionDeferred, Reason: reason}
}

// ProcessedNonce is an entry of the processed nonce set
type ProcessedNonce struct {
	Nonce       uint64         `json:"nonce"`
	BlockNumber uint64         `json:"blockNumber"`
	Decision    string         `json:"decision"`
	Reason      DecisionReason `json:"reason,omitempty"`
	ProcessedAt time.Time      `json:"processedAt"`
}

// PendingEvent is a scanned event that has not reached a terminal decision yet
type PendingEvent struct {
	Event          *ChainEvent `json:"event"`
	Attempts       int         `json:"attempts"`
	LastDeferredAt time.Time   `json:"lastDeferredAt,omitempty"`
}

type FailedSubmission struct {
	Call     *ReleaseCall `json:"call"`
	Event    *ChainEvent  `json:"event"`
	Error    string       `json:"error"`
	FailedAt time.Time    `json:"failedAt"`
}

const (
	RecordDispatched = "dispatched"
	RecordRejected   = "rejected"
	RecordDeferred   = "deferred"
	RecordEscalated  = "escalated"
)

// DecisionRecord is emitted once per decision to every DecisionObserver
type DecisionRecord struct {
	PairID      string    `json:"pairId"`
	Nonce       uint64    `json:"nonce"`
	BlockNumber uint64    `json:"blockNumber"`
	Decision    string    `json:"decision"`
	Reason      string    `json:"reason,omitempty"`
	TxHash      string    `json:"txHash,omitempty"`
	Time        time.Time `json:"time"`
}

type RelayerState struct {
	PairID            string              `json:"pairId"`
	LastScannedBlock  uint64              `json:"lastScannedBlock"`
	ProcessedCount    int                 `json:"processedCount"`
	PendingEvents     []*PendingEvent     `json:"pendingEvents"`
	EscalatedEvents   []*PendingEvent     `json:"escalatedEvents"`
	FailedSubmissions []*FailedSubmission `json:"failedSubmissions"`
}
