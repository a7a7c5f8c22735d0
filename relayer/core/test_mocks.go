package core

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"
)

type SourceChainMock struct {
	mock.Mock
}

var _ SourceChain = (*SourceChainMock)(nil)

func (m *SourceChainMock) LatestBlockNumber(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)

	return args.Get(0).(uint64), args.Error(1) //nolint:forcetypeassert
}

func (m *SourceChainMock) GetEvents(
	ctx context.Context, from, to uint64, eventName string,
) ([]*ChainEvent, error) {
	args := m.Called(ctx, from, to, eventName)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*ChainEvent), args.Error(1) //nolint:forcetypeassert
}

type DestinationChainMock struct {
	mock.Mock
}

var _ DestinationChain = (*DestinationChainMock)(nil)

func (m *DestinationChainMock) Submit(ctx context.Context, call *ReleaseCall) (TxHandle, error) {
	args := m.Called(ctx, call)

	return args.Get(0).(TxHandle), args.Error(1) //nolint:forcetypeassert
}

type ComplianceServiceMock struct {
	mock.Mock
}

var _ ComplianceService = (*ComplianceServiceMock)(nil)

func (m *ComplianceServiceMock) Check(ctx context.Context, address common.Address) (*ComplianceResult, error) {
	args := m.Called(ctx, address)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*ComplianceResult), args.Error(1) //nolint:forcetypeassert
}

type EventScannerMock struct {
	mock.Mock
}

var _ EventScanner = (*EventScannerMock)(nil)

func (m *EventScannerMock) Scan(ctx context.Context) ([]*ChainEvent, error) {
	args := m.Called(ctx)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*ChainEvent), args.Error(1) //nolint:forcetypeassert
}

func (m *EventScannerMock) LastScannedBlock() uint64 {
	return m.Called().Get(0).(uint64) //nolint:forcetypeassert
}

type RelayValidatorMock struct {
	mock.Mock
}

var _ RelayValidator = (*RelayValidatorMock)(nil)

func (m *RelayValidatorMock) Process(ctx context.Context, event *ChainEvent) (RelayDecision, error) {
	args := m.Called(ctx, event)

	return args.Get(0).(RelayDecision), args.Error(1) //nolint:forcetypeassert
}

type DecisionObserverMock struct {
	mock.Mock
}

var _ DecisionObserver = (*DecisionObserverMock)(nil)

func (m *DecisionObserverMock) OnDecision(record DecisionRecord) {
	m.Called(record)
}

type RelayerStateProviderMock struct {
	mock.Mock
}

var _ RelayerStateProvider = (*RelayerStateProviderMock)(nil)

func (m *RelayerStateProviderMock) GetRelayerState(pairID string) (*RelayerState, error) {
	args := m.Called(pairID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*RelayerState), args.Error(1) //nolint:forcetypeassert
}

func (m *RelayerStateProviderMock) GetDecisions(pairID string) ([]DecisionRecord, error) {
	args := m.Called(pairID)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]DecisionRecord), args.Error(1) //nolint:forcetypeassert
}
