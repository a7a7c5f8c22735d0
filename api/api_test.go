package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Ethernal-Tech/deposit-relayer/api/controllers"
	apiCore "github.com/Ethernal-Tech/deposit-relayer/api/core"
	apiUtils "github.com/Ethernal-Tech/deposit-relayer/api/utils"
	"github.com/Ethernal-Tech/deposit-relayer/relayer/core"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"
)

func TestAPI_RelayerState(t *testing.T) {
	const apiKey = "test_api_key"

	apiConfig := apiCore.APIConfig{
		PathPrefix:     "api",
		AllowedHeaders: []string{"Content-Type"},
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
		APIKeyHeader:   "X-API-Key",
		APIKeys:        []string{apiKey},
	}

	state := &core.RelayerState{
		PairID:           "eth_polygon",
		LastScannedBlock: 1200,
		ProcessedCount:   7,
		PendingEvents: []*core.PendingEvent{
			{Event: &core.ChainEvent{Nonce: 8, BlockNumber: 1190}, Attempts: 2},
		},
	}
	records := []core.DecisionRecord{
		{PairID: "eth_polygon", Nonce: 6, BlockNumber: 1100, Decision: core.RecordDispatched, TxHash: "0x01"},
		{PairID: "eth_polygon", Nonce: 7, BlockNumber: 1110, Decision: core.RecordRejected, Reason: "non-compliant"},
	}

	provider := &core.RelayerStateProviderMock{}
	provider.On("GetRelayerState", "eth_polygon").Return(state, nil)
	provider.On("GetRelayerState", "unknown").Return(nil, core.ErrPairNotFound)
	provider.On("GetRelayerState", "broken").Return(nil, errors.New("db closed"))
	provider.On("GetDecisions", "eth_polygon").Return(records, nil)
	provider.On("GetDecisions", "empty").Return(nil, nil)

	api, err := NewAPI(context.Background(), apiConfig, []apiCore.APIController{
		controllers.NewRelayerStateController(provider, hclog.NewNullLogger()),
	}, hclog.NewNullLogger())
	require.NoError(t, err)

	server := httptest.NewServer(api.Handler())
	defer server.Close()

	get := func(t *testing.T, path string, key string) *http.Response {
		t.Helper()

		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL+path, nil)
		require.NoError(t, err)

		if key != "" {
			req.Header.Set(apiConfig.APIKeyHeader, key)
		}

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)

		t.Cleanup(func() { _ = resp.Body.Close() })

		return resp
	}

	t.Run("get state", func(t *testing.T) {
		resp := get(t, "/api/RelayerState/Get?pairId=eth_polygon", apiKey)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

		var result core.RelayerState

		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		require.Equal(t, *state, result)
	})

	t.Run("get decisions", func(t *testing.T) {
		resp := get(t, "/api/RelayerState/Decisions?pairId=eth_polygon", apiKey)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result []core.DecisionRecord

		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		require.Equal(t, records, result)
	})

	t.Run("no decisions yet", func(t *testing.T) {
		resp := get(t, "/api/RelayerState/Decisions?pairId=empty", apiKey)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result []core.DecisionRecord

		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		require.NotNil(t, result)
		require.Empty(t, result)
	})

	t.Run("missing pair id", func(t *testing.T) {
		resp := get(t, "/api/RelayerState/Get", apiKey)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var result apiUtils.ErrorResponse

		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		require.Equal(t, "pairId missing from query", result.Err)
	})

	t.Run("unknown pair", func(t *testing.T) {
		resp := get(t, "/api/RelayerState/Get?pairId=unknown", apiKey)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("state error", func(t *testing.T) {
		resp := get(t, "/api/RelayerState/Get?pairId=broken", apiKey)
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})

	t.Run("missing api key", func(t *testing.T) {
		resp := get(t, "/api/RelayerState/Get?pairId=eth_polygon", "")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("wrong api key", func(t *testing.T) {
		resp := get(t, "/api/RelayerState/Get?pairId=eth_polygon", "wrong")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown endpoint", func(t *testing.T) {
		resp := get(t, "/api/RelayerState/Unknown", apiKey)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestNewAPI_InvalidConfig(t *testing.T) {
	_, err := NewAPI(context.Background(), apiCore.APIConfig{APIKeys: []string{"key"}}, nil, hclog.NewNullLogger())
	require.Error(t, err)
}

func TestAPI_DisposeNotStarted(t *testing.T) {
	api, err := NewAPI(context.Background(), apiCore.APIConfig{}, nil, hclog.NewNullLogger())
	require.NoError(t, err)
	require.NoError(t, api.Dispose())
}
