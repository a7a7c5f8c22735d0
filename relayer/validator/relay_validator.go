package validator

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/Ethernal-Tech/deposit-relayer/relayer/core"
	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-hclog"
)

type RelayValidatorConfig struct {
	// nil disables the destination chain check
	DestinationChainID *big.Int
	OperationTimeout   time.Duration
}

type RelayValidatorImpl struct {
	config     RelayValidatorConfig
	compliance core.ComplianceService
	db         core.ProcessedNonceStore
	logger     hclog.Logger
}

var _ core.RelayValidator = (*RelayValidatorImpl)(nil)

func NewRelayValidator(
	config RelayValidatorConfig, compliance core.ComplianceService,
	db core.ProcessedNonceStore, logger hclog.Logger,
) *RelayValidatorImpl {
	return &RelayValidatorImpl{
		config:     config,
		compliance: compliance,
		db:         db,
		logger:     logger,
	}
}

// Process decides what happens with a single event. A returned error means the
// processed nonce store failed and nothing was decided.
func (v *RelayValidatorImpl) Process(ctx context.Context, event *core.ChainEvent) (core.RelayDecision, error) {
	processed, err := v.db.IsNonceProcessed(event.Nonce)
	if err != nil {
		return core.RelayDecision{}, fmt.Errorf("failed to check nonce %d: %w", event.Nonce, err)
	}

	if processed {
		return core.Rejected(core.ReasonDuplicate), nil
	}

	if !isValidEvent(event) {
		return v.reject(event, core.ReasonInvalidEvent)
	}

	if v.config.DestinationChainID != nil &&
		(event.DestinationChainID == nil || event.DestinationChainID.Cmp(v.config.DestinationChainID) != 0) {
		return v.reject(event, core.ReasonUnsupportedDestination)
	}

	result, err := v.checkCompliance(ctx, event.Sender)
	if err != nil {
		v.logger.Warn("Compliance check failed", "nonce", event.Nonce, "sender", event.Sender, "err", err)

		return core.Deferred(core.ReasonComplianceUnavailable), nil
	}

	if !result.Approved {
		v.logger.Info("Sender not compliant", "nonce", event.Nonce, "sender", event.Sender, "details", result.Details)

		return v.reject(event, core.ReasonNonCompliant)
	}

	if err := v.markProcessed(event, core.RecordDispatched, core.ReasonNone); err != nil {
		return core.RelayDecision{}, err
	}

	return core.Dispatched(core.NewReleaseCall(event)), nil
}

func (v *RelayValidatorImpl) checkCompliance(
	ctx context.Context, sender common.Address,
) (*core.ComplianceResult, error) {
	if v.config.OperationTimeout > 0 {
		var cancelFn context.CancelFunc

		ctx, cancelFn = context.WithTimeout(ctx, v.config.OperationTimeout)
		defer cancelFn()
	}

	result, err := v.compliance.Check(ctx, sender)
	if err != nil {
		return nil, err
	}

	if result == nil {
		return nil, core.NewServiceUnavailableError("compliance check", fmt.Errorf("empty result"))
	}

	return result, nil
}

func (v *RelayValidatorImpl) reject(event *core.ChainEvent, reason core.DecisionReason) (core.RelayDecision, error) {
	if err := v.markProcessed(event, core.RecordRejected, reason); err != nil {
		return core.RelayDecision{}, err
	}

	return core.Rejected(reason), nil
}

func (v *RelayValidatorImpl) markProcessed(
	event *core.ChainEvent, decision string, reason core.DecisionReason,
) error {
	err := v.db.AddProcessedNonce(&core.ProcessedNonce{
		Nonce:       event.Nonce,
		BlockNumber: event.BlockNumber,
		Decision:    decision,
		Reason:      reason,
		ProcessedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to mark nonce %d as processed: %w", event.Nonce, err)
	}

	return nil
}

func isValidEvent(event *core.ChainEvent) bool {
	return event.Sender != (common.Address{}) &&
		event.Recipient != (common.Address{}) &&
		event.Amount != nil && event.Amount.Sign() > 0
}
