package clirelayer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Ethernal-Tech/deposit-relayer/relayer/core"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	writeConfig := func(t *testing.T, content string) string {
		t.Helper()

		path := filepath.Join(t.TempDir(), "relayer_config.json")
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))

		return path
	}

	t.Run("valid", func(t *testing.T) {
		path := writeConfig(t, `{
			"pairs": {
				"eth_polygon": {
					"source": {
						"nodeUrl": "http://localhost:8545",
						"bridgeContractAddress": "0x5FbDB2315678afecb367f032d93F642f64180aa3"
					},
					"destination": {
						"nodeUrl": "http://localhost:8546",
						"bridgeContractAddress": "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512",
						"relayerAddress": "0x90F79bf6EB2c4f870365E785982E1f101E93b906",
						"gasLimit": 300000
					},
					"confirmationDepth": 0,
					"startBlock": 100
				}
			},
			"dbsPath": "./dbs",
			"compliance": {
				"url": "http://localhost:9000/check",
				"deniedAddresses": ["0x000000000000000000000000000000000000dEaD"]
			}
		}`)

		config, err := loadConfig(&initParams{config: path, runAPI: true})
		require.NoError(t, err)

		require.True(t, config.RunAPI)
		require.Equal(t, core.DefaultPullTimeMilis, config.PullTimeMilis)
		require.Equal(t, core.DefaultComplianceAPIKeyName, config.Compliance.APIKeyHeader)

		pair := config.Pairs["eth_polygon"]
		require.Equal(t, "eth_polygon", pair.PairID)
		require.Equal(t, uint64(0), pair.GetConfirmationDepth())
		require.Equal(t, uint64(100), pair.StartBlock)
		require.Equal(t, uint64(300000), pair.Destination.GasLimit)
		require.Equal(t, core.DefaultMaxDeferredAttempts, pair.MaxDeferredAttempts)
	})

	t.Run("unknown field", func(t *testing.T) {
		path := writeConfig(t, `{"pairs": {}, "unknown": 1}`)

		_, err := loadConfig(&initParams{config: path})
		require.Error(t, err)
	})

	t.Run("invalid", func(t *testing.T) {
		path := writeConfig(t, `{"pairs": {}}`)

		_, err := loadConfig(&initParams{config: path})
		require.ErrorContains(t, err, "invalid config")
	})

	t.Run("missing file flag", func(t *testing.T) {
		ip := &initParams{config: filepath.Join(t.TempDir(), "missing.json")}

		require.Error(t, ip.validateFlags())
	})
}
