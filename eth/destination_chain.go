package eth

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Ethernal-Tech/deposit-relayer/relayer/core"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/hashicorp/go-hclog"
)

// EVMDestinationChain sends releaseTokens transactions with eth_sendTransaction.
// The relayer account must be managed and unlocked by the node.
type EVMDestinationChain struct {
	wrapper         *EthClientWrapper
	contractAddress common.Address
	relayerAddress  common.Address
	gasLimit        uint64
	contractABI     *abi.ABI
	logger          hclog.Logger
}

var _ core.DestinationChain = (*EVMDestinationChain)(nil)

type sendTxArgs struct {
	From common.Address  `json:"from"`
	To   common.Address  `json:"to"`
	Gas  *hexutil.Uint64 `json:"gas,omitempty"`
	Data hexutil.Bytes   `json:"data"`
}

func NewEVMDestinationChain(
	config core.DestinationChainConfig, logger hclog.Logger,
) (*EVMDestinationChain, error) {
	contractABI, err := GetBridgeContractABI()
	if err != nil {
		return nil, fmt.Errorf("failed to parse bridge contract abi: %w", err)
	}

	return &EVMDestinationChain{
		wrapper:         NewEthClientWrapper(config.NodeURL, logger),
		contractAddress: common.HexToAddress(config.BridgeContractAddress),
		relayerAddress:  common.HexToAddress(config.RelayerAddress),
		gasLimit:        config.GasLimit,
		contractABI:     contractABI,
		logger:          logger,
	}, nil
}

func (d *EVMDestinationChain) Submit(ctx context.Context, call *core.ReleaseCall) (core.TxHandle, error) {
	data, err := d.contractABI.Pack(
		call.Function, call.Recipient, call.Amount, new(big.Int).SetUint64(call.SourceNonce))
	if err != nil {
		return "", core.NewSubmissionError("failed to pack "+call.Function, err)
	}

	client, err := d.wrapper.GetClient(ctx)
	if err != nil {
		return "", core.NewSubmissionError("eth_sendTransaction", err)
	}

	args := sendTxArgs{
		From: d.relayerAddress,
		To:   d.contractAddress,
		Data: data,
	}

	if d.gasLimit > 0 {
		gas := hexutil.Uint64(d.gasLimit)
		args.Gas = &gas
	}

	var txHash common.Hash

	if err := client.Client().CallContext(ctx, &txHash, "eth_sendTransaction", args); err != nil {
		return "", core.NewSubmissionError("eth_sendTransaction", d.wrapper.ProcessError(err))
	}

	d.logger.Info("tx has been sent", "hash", txHash, "nonce", call.SourceNonce,
		"recipient", call.Recipient, "amount", call.Amount)

	return core.TxHandle(txHash.Hex()), nil
}

func (d *EVMDestinationChain) Close() {
	d.wrapper.Close()
}
