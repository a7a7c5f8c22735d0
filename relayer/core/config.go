package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/Ethernal-Tech/cardano-infrastructure/logger"
	apiCore "github.com/Ethernal-Tech/deposit-relayer/api/core"
	"github.com/Ethernal-Tech/deposit-relayer/common"
	"github.com/Ethernal-Tech/deposit-relayer/telemetry"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

const (
	DefaultConfirmationDepth     = uint64(6)
	DefaultPullTimeMilis         = uint64(15_000)
	DefaultOperationTimeoutMilis = uint64(30_000)
	DefaultMaxDeferredAttempts   = 20
	DefaultComplianceMaxRetries  = uint64(3)
	DefaultComplianceRetryMilis  = uint64(500)
	DefaultComplianceAPIKeyName  = "X-API-Key"
)

type SourceChainConfig struct {
	NodeURL               string `json:"nodeUrl"`
	BridgeContractAddress string `json:"bridgeContractAddress"`
}

type DestinationChainConfig struct {
	NodeURL               string `json:"nodeUrl"`
	BridgeContractAddress string `json:"bridgeContractAddress"`
	// account that sends releaseTokens transactions, must be unlocked on the node
	RelayerAddress string `json:"relayerAddress"`
	GasLimit       uint64 `json:"gasLimit"`
}

type ComplianceConfig struct {
	URL               string   `json:"url"`
	APIKey            string   `json:"apiKey"`
	APIKeyHeader      string   `json:"apiKeyHeader"`
	DeniedAddresses   []string `json:"deniedAddresses"`
	MaxRetries        uint64   `json:"maxRetries"`
	RetryWaitMilis    uint64   `json:"retryWaitTime"`
	RequestsPerSecond float64  `json:"requestsPerSecond"` // 0 means no limit
	Burst             int      `json:"burst"`
}

type PairConfig struct {
	PairID      string                 `json:"-"`
	Source      SourceChainConfig      `json:"source"`
	Destination DestinationChainConfig `json:"destination"`
	// nil means DefaultConfirmationDepth, zero is a valid value
	ConfirmationDepth    *uint64 `json:"confirmationDepth,omitempty"`
	StartBlock           uint64  `json:"startBlock"`
	MaxBlockRange        uint64  `json:"maxBlockRange"`
	MaxDeferredAttempts  int     `json:"maxDeferredAttempts"`
	NonceRetentionBlocks uint64  `json:"nonceRetentionBlocks"`
	// 0 disables the destination chain filter
	DestinationChainID uint64 `json:"destinationChainId"`
	PullTimeMilis      uint64 `json:"pullTime"`
}

func (pc PairConfig) GetConfirmationDepth() uint64 {
	if pc.ConfirmationDepth == nil {
		return DefaultConfirmationDepth
	}

	return *pc.ConfirmationDepth
}

type RelayerConfiguration struct {
	PairID                string     `json:"pairId"`
	Pair                  PairConfig `json:"pair"`
	PullTimeMilis         uint64     `json:"pullTime"`
	OperationTimeoutMilis uint64     `json:"operationTimeout"`
}

func (rc RelayerConfiguration) PollInterval() time.Duration {
	return time.Millisecond * time.Duration(rc.PullTimeMilis)
}

func (rc RelayerConfiguration) OperationTimeout() time.Duration {
	return time.Millisecond * time.Duration(rc.OperationTimeoutMilis)
}

type RelayerManagerConfiguration struct {
	Pairs                 map[string]PairConfig     `json:"pairs"`
	PullTimeMilis         uint64                    `json:"pullTime"`
	OperationTimeoutMilis uint64                    `json:"operationTimeout"`
	DbsPath               string                    `json:"dbsPath"`
	Compliance            ComplianceConfig          `json:"compliance"`
	Telemetry             telemetry.TelemetryConfig `json:"telemetry"`
	APIConfig             apiCore.APIConfig         `json:"api"`
	RunAPI                bool                      `json:"runApi"`
	Logger                logger.LoggerConfig       `json:"logger"`
}

func (c *RelayerManagerConfiguration) SetDefaults() {
	if c.PullTimeMilis == 0 {
		c.PullTimeMilis = DefaultPullTimeMilis
	}

	if c.OperationTimeoutMilis == 0 {
		c.OperationTimeoutMilis = DefaultOperationTimeoutMilis
	}

	if c.Compliance.APIKeyHeader == "" {
		c.Compliance.APIKeyHeader = DefaultComplianceAPIKeyName
	}

	if c.Compliance.RetryWaitMilis == 0 {
		c.Compliance.RetryWaitMilis = DefaultComplianceRetryMilis
	}

	if c.Compliance.MaxRetries == 0 {
		c.Compliance.MaxRetries = DefaultComplianceMaxRetries
	}

	for pairID, pair := range c.Pairs {
		pair.PairID = pairID

		if pair.MaxDeferredAttempts == 0 {
			pair.MaxDeferredAttempts = DefaultMaxDeferredAttempts
		}

		if pair.PullTimeMilis == 0 {
			pair.PullTimeMilis = c.PullTimeMilis
		}

		c.Pairs[pairID] = pair
	}
}

func (c *RelayerManagerConfiguration) Validate() error {
	if len(c.Pairs) == 0 {
		return errors.New("no source/destination pairs configured")
	}

	if c.PullTimeMilis == 0 {
		return errors.New("pull time must be greater than zero")
	}

	if !common.IsValidURL(c.Compliance.URL) {
		return fmt.Errorf("invalid compliance service url: %s", c.Compliance.URL)
	}

	for _, addr := range c.Compliance.DeniedAddresses {
		if !ethcommon.IsHexAddress(addr) {
			return fmt.Errorf("invalid denied address: %s", addr)
		}
	}

	for pairID, pair := range c.Pairs {
		if err := pair.validate(); err != nil {
			return fmt.Errorf("invalid configuration for pair %s: %w", pairID, err)
		}
	}

	return nil
}

func (c *RelayerManagerConfiguration) GetRelayerConfig(pairID string) *RelayerConfiguration {
	pair := c.Pairs[pairID]
	pair.PairID = pairID

	pullTime := pair.PullTimeMilis
	if pullTime == 0 {
		pullTime = c.PullTimeMilis
	}

	return &RelayerConfiguration{
		PairID:                pairID,
		Pair:                  pair,
		PullTimeMilis:         pullTime,
		OperationTimeoutMilis: c.OperationTimeoutMilis,
	}
}

func (pc PairConfig) validate() error {
	if !common.IsValidURL(pc.Source.NodeURL) {
		return fmt.Errorf("invalid source node url: %s", pc.Source.NodeURL)
	}

	if !common.IsValidURL(pc.Destination.NodeURL) {
		return fmt.Errorf("invalid destination node url: %s", pc.Destination.NodeURL)
	}

	for name, addr := range map[string]string{
		"source bridge contract":      pc.Source.BridgeContractAddress,
		"destination bridge contract": pc.Destination.BridgeContractAddress,
		"relayer":                     pc.Destination.RelayerAddress,
	} {
		if !ethcommon.IsHexAddress(addr) {
			return fmt.Errorf("invalid %s address: %s", name, addr)
		}
	}

	if pc.MaxDeferredAttempts < 0 {
		return fmt.Errorf("max deferred attempts can not be negative: %d", pc.MaxDeferredAttempts)
	}

	return nil
}
