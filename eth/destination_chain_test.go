package eth

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/Ethernal-Tech/deposit-relayer/relayer/core"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"
)

func TestEVMDestinationChain(t *testing.T) {
	ctx := context.Background()
	relayerAddress := common.HexToAddress("0x90F79bf6EB2c4f870365E785982E1f101E93b906")
	txHash := common.HexToHash("0xabcdef0000000000000000000000000000000000000000000000000000000001")
	call := &core.ReleaseCall{
		Function:    core.ReleaseTokensFunctionName,
		Recipient:   testRecipient,
		Amount:      big.NewInt(5000),
		SourceNonce: 42,
	}

	newDestinationChain := func(t *testing.T, url string, gasLimit uint64) *EVMDestinationChain {
		t.Helper()

		destination, err := NewEVMDestinationChain(core.DestinationChainConfig{
			NodeURL:               url,
			BridgeContractAddress: testBridgeAddress.String(),
			RelayerAddress:        relayerAddress.String(),
			GasLimit:              gasLimit,
		}, hclog.NewNullLogger())
		require.NoError(t, err)

		t.Cleanup(destination.Close)

		return destination
	}

	t.Run("Submit", func(t *testing.T) {
		server := newTestRPCServer(t)
		server.Handle("eth_sendTransaction", func([]json.RawMessage) (interface{}, *rpcError) {
			return txHash, nil
		})

		handle, err := newDestinationChain(t, server.URL(), 300_000).Submit(ctx, call)
		require.NoError(t, err)
		require.Equal(t, core.TxHandle(txHash.Hex()), handle)

		calls := server.Calls("eth_sendTransaction")
		require.Len(t, calls, 1)

		var args struct {
			From common.Address `json:"from"`
			To   common.Address `json:"to"`
			Gas  hexutil.Uint64 `json:"gas"`
			Data hexutil.Bytes  `json:"data"`
		}

		require.NoError(t, json.Unmarshal(calls[0][0], &args))
		require.Equal(t, relayerAddress, args.From)
		require.Equal(t, testBridgeAddress, args.To)
		require.Equal(t, hexutil.Uint64(300_000), args.Gas)

		contractABI, err := GetBridgeContractABI()
		require.NoError(t, err)

		method := contractABI.Methods[core.ReleaseTokensFunctionName]
		require.Equal(t, method.ID, []byte(args.Data[:4]))

		values, err := method.Inputs.Unpack(args.Data[4:])
		require.NoError(t, err)
		require.Equal(t, []interface{}{testRecipient, big.NewInt(5000), big.NewInt(42)}, values)
	})

	t.Run("Submit without gas limit", func(t *testing.T) {
		server := newTestRPCServer(t)
		server.Handle("eth_sendTransaction", func([]json.RawMessage) (interface{}, *rpcError) {
			return txHash, nil
		})

		_, err := newDestinationChain(t, server.URL(), 0).Submit(ctx, call)
		require.NoError(t, err)

		var args map[string]interface{}

		require.NoError(t, json.Unmarshal(server.Calls("eth_sendTransaction")[0][0], &args))
		require.NotContains(t, args, "gas")
	})

	t.Run("Submit rejected by node", func(t *testing.T) {
		server := newTestRPCServer(t)
		server.Handle("eth_sendTransaction", func([]json.RawMessage) (interface{}, *rpcError) {
			return nil, &rpcError{Code: -32000, Message: "insufficient funds for gas * price + value"}
		})

		_, err := newDestinationChain(t, server.URL(), 0).Submit(ctx, call)
		require.ErrorIs(t, err, core.ErrSubmission)
		require.False(t, core.IsRetriableError(err))
	})

	t.Run("Submit unknown function", func(t *testing.T) {
		server := newTestRPCServer(t)

		_, err := newDestinationChain(t, server.URL(), 0).Submit(ctx, &core.ReleaseCall{
			Function: "unknown", Recipient: testRecipient, Amount: big.NewInt(1),
		})
		require.ErrorIs(t, err, core.ErrSubmission)
		require.Empty(t, server.Calls("eth_sendTransaction"))
	})
}
