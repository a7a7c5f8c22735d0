package compliance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Ethernal-Tech/deposit-relayer/relayer/core"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"
)

const (
	sanctionsCheckType = "sanctions"
	requestIDHeader    = "X-Request-ID"
	maxResponseSize    = 1 << 20
)

type checkRequest struct {
	Address   string `json:"address"`
	CheckType string `json:"checkType"`
}

type checkResponse struct {
	Approved *bool  `json:"approved"`
	Details  string `json:"details"`
}

// ComplianceClient checks addresses against a remote compliance service
type ComplianceClient struct {
	config     core.ComplianceConfig
	httpClient *http.Client
	denied     map[common.Address]struct{}
	limiter    *rate.Limiter
	logger     hclog.Logger
}

var _ core.ComplianceService = (*ComplianceClient)(nil)

func NewComplianceClient(
	config core.ComplianceConfig, httpClient *http.Client, logger hclog.Logger,
) *ComplianceClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	denied := make(map[common.Address]struct{}, len(config.DeniedAddresses))
	for _, addr := range config.DeniedAddresses {
		denied[common.HexToAddress(addr)] = struct{}{}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), max(config.Burst, 1))
	}

	return &ComplianceClient{
		config:     config,
		httpClient: httpClient,
		denied:     denied,
		limiter:    limiter,
		logger:     logger,
	}
}

// Check returns the compliance result for the address. Every failure to obtain
// an answer is returned as ErrServiceUnavailable.
func (c *ComplianceClient) Check(ctx context.Context, address common.Address) (*core.ComplianceResult, error) {
	if _, exists := c.denied[address]; exists {
		return &core.ComplianceResult{Approved: false, Details: "address is on the local deny list"}, nil
	}

	var result *core.ComplianceResult

	backoff := retry.WithMaxRetries(c.config.MaxRetries,
		retry.NewFibonacci(time.Millisecond*time.Duration(max(c.config.RetryWaitMilis, 1))))

	err := retry.Do(ctx, backoff, func(ctx context.Context) (err error) {
		result, err = c.check(ctx, address)

		return err
	})
	if err != nil {
		return nil, core.NewServiceUnavailableError("compliance check of "+address.String(), err)
	}

	return result, nil
}

func (c *ComplianceClient) check(ctx context.Context, address common.Address) (*core.ComplianceResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(checkRequest{
		Address:   address.String(),
		CheckType: sanctionsCheckType,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestIDHeader, requestID)

	if c.config.APIKey != "" {
		req.Header.Set(c.config.APIKeyHeader, c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}

		c.logger.Debug("Compliance request failed", "requestId", requestID, "err", err)

		return nil, retry.RetryableError(err)
	}

	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, retry.RetryableError(err)
	}

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		c.logger.Debug("Compliance service error", "requestId", requestID, "status", resp.StatusCode)

		return nil, retry.RetryableError(
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var response checkResponse

	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("invalid response: %w", err)
	}

	if response.Approved == nil {
		return nil, errors.New("invalid response: approved field missing")
	}

	return &core.ComplianceResult{
		Approved: *response.Approved,
		Details:  response.Details,
	}, nil
}
