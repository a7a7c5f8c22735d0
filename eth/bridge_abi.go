package eth

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const BridgeContractABI = `[
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "internalType": "address", "name": "sender", "type": "address"},
			{"indexed": true, "internalType": "address", "name": "recipient", "type": "address"},
			{"indexed": false, "internalType": "uint256", "name": "amount", "type": "uint256"},
			{"indexed": false, "internalType": "uint256", "name": "destinationChainId", "type": "uint256"},
			{"indexed": false, "internalType": "uint256", "name": "nonce", "type": "uint256"}
		],
		"name": "DepositMade",
		"type": "event"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "recipient", "type": "address"},
			{"internalType": "uint256", "name": "amount", "type": "uint256"},
			{"internalType": "uint256", "name": "sourceNonce", "type": "uint256"}
		],
		"name": "releaseTokens",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

var (
	bridgeABI     abi.ABI
	bridgeABIErr  error
	bridgeABIOnce sync.Once
)

func GetBridgeContractABI() (*abi.ABI, error) {
	bridgeABIOnce.Do(func() {
		bridgeABI, bridgeABIErr = abi.JSON(strings.NewReader(BridgeContractABI))
	})

	return &bridgeABI, bridgeABIErr
}
