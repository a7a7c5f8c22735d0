package eth

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/Ethernal-Tech/deposit-relayer/relayer/core"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"
)

var (
	testBridgeAddress = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	testSender        = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	testRecipient     = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
)

func TestEVMSourceChain(t *testing.T) {
	ctx := context.Background()

	newSourceChain := func(t *testing.T, url string) *EVMSourceChain {
		t.Helper()

		source, err := NewEVMSourceChain(core.SourceChainConfig{
			NodeURL:               url,
			BridgeContractAddress: testBridgeAddress.String(),
		}, hclog.NewNullLogger())
		require.NoError(t, err)

		t.Cleanup(source.Close)

		return source
	}

	t.Run("LatestBlockNumber", func(t *testing.T) {
		server := newTestRPCServer(t)
		server.Handle("eth_blockNumber", func([]json.RawMessage) (interface{}, *rpcError) {
			return hexutil.Uint64(0x1234), nil
		})

		latest, err := newSourceChain(t, server.URL()).LatestBlockNumber(ctx)
		require.NoError(t, err)
		require.Equal(t, uint64(0x1234), latest)
	})

	t.Run("LatestBlockNumber node error", func(t *testing.T) {
		server := newTestRPCServer(t)
		server.Handle("eth_blockNumber", func([]json.RawMessage) (interface{}, *rpcError) {
			return nil, &rpcError{Code: -32000, Message: "internal error"}
		})

		_, err := newSourceChain(t, server.URL()).LatestBlockNumber(ctx)
		require.ErrorIs(t, err, core.ErrQuery)
	})

	t.Run("LatestBlockNumber unreachable node", func(t *testing.T) {
		server := newTestRPCServer(t)
		url := server.URL()
		server.server.Close()

		_, err := newSourceChain(t, url).LatestBlockNumber(ctx)
		require.ErrorIs(t, err, core.ErrConnectivity)
	})

	t.Run("GetEvents", func(t *testing.T) {
		server := newTestRPCServer(t)
		server.Handle("eth_getLogs", func([]json.RawMessage) (interface{}, *rpcError) {
			removed := newDepositLog(t, 3, 105, 1)
			removed.Removed = true

			return []types.Log{
				newDepositLog(t, 7, 101, 0),
				removed,
				newDepositLog(t, 8, 102, 2),
			}, nil
		})

		events, err := newSourceChain(t, server.URL()).GetEvents(ctx, 101, 110, core.DepositMadeEventName)
		require.NoError(t, err)
		require.Len(t, events, 2)

		require.Equal(t, uint64(7), events[0].Nonce)
		require.Equal(t, testSender, events[0].Sender)
		require.Equal(t, testRecipient, events[0].Recipient)
		require.Equal(t, big.NewInt(7000), events[0].Amount)
		require.Equal(t, big.NewInt(137), events[0].DestinationChainID)
		require.Equal(t, uint64(101), events[0].BlockNumber)
		require.Equal(t, uint64(8), events[1].Nonce)
		require.Equal(t, uint(2), events[1].LogIndex)

		calls := server.Calls("eth_getLogs")
		require.Len(t, calls, 1)

		var filter struct {
			FromBlock string          `json:"fromBlock"`
			ToBlock   string          `json:"toBlock"`
			Address   []string        `json:"address"`
			Topics    [][]common.Hash `json:"topics"`
		}

		require.NoError(t, json.Unmarshal(calls[0][0], &filter))
		require.Equal(t, "0x65", filter.FromBlock)
		require.Equal(t, "0x6e", filter.ToBlock)
		require.Len(t, filter.Address, 1)
		require.Equal(t, testBridgeAddress, common.HexToAddress(filter.Address[0]))

		contractABI, err := GetBridgeContractABI()
		require.NoError(t, err)
		require.Equal(t, [][]common.Hash{{contractABI.Events[core.DepositMadeEventName].ID}}, filter.Topics)
	})

	t.Run("GetEvents nonce overflow", func(t *testing.T) {
		server := newTestRPCServer(t)
		server.Handle("eth_getLogs", func([]json.RawMessage) (interface{}, *rpcError) {
			log := newDepositLog(t, 1, 101, 0)
			log.Data = packDepositData(t, big.NewInt(1), big.NewInt(1), new(big.Int).Lsh(big.NewInt(1), 64))

			return []types.Log{log}, nil
		})

		_, err := newSourceChain(t, server.URL()).GetEvents(ctx, 101, 101, core.DepositMadeEventName)
		require.ErrorIs(t, err, core.ErrQuery)
		require.ErrorContains(t, err, "nonce does not fit")
	})

	t.Run("GetEvents malformed log", func(t *testing.T) {
		server := newTestRPCServer(t)
		server.Handle("eth_getLogs", func([]json.RawMessage) (interface{}, *rpcError) {
			log := newDepositLog(t, 1, 101, 0)
			log.Topics = log.Topics[:2]

			return []types.Log{log}, nil
		})

		_, err := newSourceChain(t, server.URL()).GetEvents(ctx, 101, 101, core.DepositMadeEventName)
		require.ErrorIs(t, err, core.ErrQuery)
	})

	t.Run("GetEvents unknown event", func(t *testing.T) {
		server := newTestRPCServer(t)

		_, err := newSourceChain(t, server.URL()).GetEvents(ctx, 1, 2, "Unknown")
		require.ErrorIs(t, err, core.ErrQuery)
		require.Empty(t, server.Calls("eth_getLogs"))
	})

	t.Run("GetEvents node error", func(t *testing.T) {
		server := newTestRPCServer(t)
		server.Handle("eth_getLogs", func([]json.RawMessage) (interface{}, *rpcError) {
			return nil, &rpcError{Code: -32005, Message: "query returned more than 10000 results"}
		})

		_, err := newSourceChain(t, server.URL()).GetEvents(ctx, 1, 100000, core.DepositMadeEventName)
		require.ErrorIs(t, err, core.ErrQuery)
		require.True(t, core.IsRetriableError(err))
	})
}

func newDepositLog(t *testing.T, nonce uint64, block uint64, index uint) types.Log {
	t.Helper()

	contractABI, err := GetBridgeContractABI()
	require.NoError(t, err)

	return types.Log{
		Address: testBridgeAddress,
		Topics: []common.Hash{
			contractABI.Events[core.DepositMadeEventName].ID,
			common.BytesToHash(testSender.Bytes()),
			common.BytesToHash(testRecipient.Bytes()),
		},
		Data: packDepositData(t,
			new(big.Int).SetUint64(nonce*1000), big.NewInt(137), new(big.Int).SetUint64(nonce)),
		BlockNumber: block,
		TxHash:      common.BigToHash(new(big.Int).SetUint64(nonce)),
		Index:       index,
	}
}

func packDepositData(t *testing.T, amount, destinationChainID, nonce *big.Int) []byte {
	t.Helper()

	contractABI, err := GetBridgeContractABI()
	require.NoError(t, err)

	data, err := contractABI.Events[core.DepositMadeEventName].Inputs.NonIndexed().Pack(
		amount, destinationChainID, nonce)
	require.NoError(t, err)

	return data
}
