package eth

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Ethernal-Tech/deposit-relayer/relayer/core"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/hashicorp/go-hclog"
)

type EVMSourceChain struct {
	wrapper         *EthClientWrapper
	contractAddress common.Address
	contractABI     *abi.ABI
	logger          hclog.Logger
}

var _ core.SourceChain = (*EVMSourceChain)(nil)

func NewEVMSourceChain(
	config core.SourceChainConfig, logger hclog.Logger,
) (*EVMSourceChain, error) {
	contractABI, err := GetBridgeContractABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse bridge contract abi: %w", err)
	}

	return &EVMSourceChain{
		wrapper:         NewEthClientWrapper(config.NodeURL, logger),
		contractAddress: common.HexToAddress(config.BridgeContractAddress),
		contractABI:     contractABI,
		logger:          logger,
	}, nil
}

func (s *EVMSourceChain) LatestBlockNumber(ctx context.Context) (uint64, error) {
	client, err := s.wrapper.GetClient(ctx)
	if err != nil {
		return 0, core.NewConnectivityError("eth_blockNumber", err)
	}

	blockNumber, err := client.BlockNumber(ctx)
	if err != nil {
		return 0, classifyReadError("eth_blockNumber", s.wrapper.ProcessError(err))
	}

	return blockNumber, nil
}

func (s *EVMSourceChain) GetEvents(
	ctx context.Context, from, to uint64, eventName string,
) ([]*core.ChainEvent, error) {
	event, exists := s.contractABI.Events[eventName]
	if !exists {
		return nil, core.NewQueryError("eth_getLogs", fmt.Errorf("unknown event: %s", eventName))
	}

	client, err := s.wrapper.GetClient(ctx)
	if err != nil {
		return nil, core.NewConnectivityError("eth_getLogs", err)
	}

	logs, err := client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{s.contractAddress},
		Topics:    [][]common.Hash{{event.ID}},
	})
	if err != nil {
		return nil, classifyReadError("eth_getLogs", s.wrapper.ProcessError(err))
	}

	events := make([]*core.ChainEvent, 0, len(logs))

	for _, log := range logs {
		if log.Removed {
			s.logger.Debug("Skipping removed log", "tx", log.TxHash, "index", log.Index)

			continue
		}

		ev, err := decodeDepositLog(s.contractABI, &event, log)
		if err != nil {
			return nil, core.NewQueryError(
				fmt.Sprintf("failed to decode %s log %s:%d", eventName, log.TxHash, log.Index), err)
		}

		events = append(events, ev)
	}

	return events, nil
}

func decodeDepositLog(contractABI *abi.ABI, event *abi.Event, log types.Log) (*core.ChainEvent, error) {
	indexed := abi.Arguments{}

	for _, arg := range event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}

	if len(log.Topics) != len(indexed)+1 || log.Topics[0] != event.ID {
		return nil, fmt.Errorf("unexpected topics: %v", log.Topics)
	}

	values := map[string]interface{}{}

	if err := contractABI.UnpackIntoMap(values, event.Name, log.Data); err != nil {
		return nil, err
	}

	if err := abi.ParseTopicsIntoMap(values, indexed, log.Topics[1:]); err != nil {
		return nil, err
	}

	sender, senderOk := values["sender"].(common.Address)
	recipient, recipientOk := values["recipient"].(common.Address)
	amount, amountOk := values["amount"].(*big.Int)
	destinationChainID, destinationOk := values["destinationChainId"].(*big.Int)
	nonce, nonceOk := values["nonce"].(*big.Int)

	if !senderOk || !recipientOk || !amountOk || !destinationOk || !nonceOk {
		return nil, fmt.Errorf("unexpected event fields: %v", values)
	}

	if !nonce.IsUint64() {
		return nil, fmt.Errorf("nonce does not fit in 64 bits: %s", nonce)
	}

	return &core.ChainEvent{
		Nonce:              nonce.Uint64(),
		Sender:             sender,
		Recipient:          recipient,
		Amount:             amount,
		DestinationChainID: destinationChainID,
		BlockNumber:        log.BlockNumber,
		TxHash:             log.TxHash,
		LogIndex:           log.Index,
	}, nil
}

func (s *EVMSourceChain) Close() {
	s.wrapper.Close()
}
