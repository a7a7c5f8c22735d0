package compliance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Ethernal-Tech/deposit-relayer/relayer/core"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAddress = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")

func TestComplianceClient(t *testing.T) {
	ctx := context.Background()

	newConfig := func(url string) core.ComplianceConfig {
		return core.ComplianceConfig{
			URL:            url,
			APIKey:         "secret",
			APIKeyHeader:   "X-API-Key",
			MaxRetries:     2,
			RetryWaitMilis: 1,
		}
	}

	t.Run("approved", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			_, err := uuid.Parse(r.Header.Get(requestIDHeader))
			assert.NoError(t, err)

			var req checkRequest

			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, checkRequest{Address: testAddress.String(), CheckType: "sanctions"}, req)

			_, _ = w.Write([]byte(`{"approved": true, "details": "clean"}`))
		}))
		defer server.Close()

		result, err := NewComplianceClient(newConfig(server.URL), nil, hclog.NewNullLogger()).Check(ctx, testAddress)
		require.NoError(t, err)
		require.Equal(t, &core.ComplianceResult{Approved: true, Details: "clean"}, result)
	})

	t.Run("not approved", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"approved": false, "details": "sanctioned entity"}`))
		}))
		defer server.Close()

		result, err := NewComplianceClient(newConfig(server.URL), nil, hclog.NewNullLogger()).Check(ctx, testAddress)
		require.NoError(t, err)
		require.False(t, result.Approved)
		require.Equal(t, "sanctioned entity", result.Details)
	})

	t.Run("denied locally", func(t *testing.T) {
		var calls atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		}))
		defer server.Close()

		config := newConfig(server.URL)
		config.DeniedAddresses = []string{"0x000000000000000000000000000000000000dEaD"}

		result, err := NewComplianceClient(config, nil, hclog.NewNullLogger()).
			Check(ctx, common.HexToAddress("0x000000000000000000000000000000000000dead"))
		require.NoError(t, err)
		require.False(t, result.Approved)
		require.Equal(t, int32(0), calls.Load())
	})

	t.Run("retries server errors", func(t *testing.T) {
		var calls atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)

				return
			}

			_, _ = w.Write([]byte(`{"approved": true}`))
		}))
		defer server.Close()

		result, err := NewComplianceClient(newConfig(server.URL), nil, hclog.NewNullLogger()).Check(ctx, testAddress)
		require.NoError(t, err)
		require.True(t, result.Approved)
		require.Equal(t, int32(3), calls.Load())
	})

	t.Run("unavailable after retries", func(t *testing.T) {
		var calls atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := NewComplianceClient(newConfig(server.URL), nil, hclog.NewNullLogger()).Check(ctx, testAddress)
		require.ErrorIs(t, err, core.ErrServiceUnavailable)
		require.Equal(t, int32(3), calls.Load())
	})

	t.Run("client error is not retried", func(t *testing.T) {
		var calls atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		_, err := NewComplianceClient(newConfig(server.URL), nil, hclog.NewNullLogger()).Check(ctx, testAddress)
		require.ErrorIs(t, err, core.ErrServiceUnavailable)
		require.Equal(t, int32(1), calls.Load())
	})

	t.Run("malformed response", func(t *testing.T) {
		for name, body := range map[string]string{
			"invalid json":     `{"approved": tru`,
			"missing approved": `{"details": "x"}`,
		} {
			t.Run(name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					_, _ = w.Write([]byte(body))
				}))
				defer server.Close()

				_, err := NewComplianceClient(newConfig(server.URL), nil, hclog.NewNullLogger()).Check(ctx, testAddress)
				require.ErrorIs(t, err, core.ErrServiceUnavailable)
			})
		}
	})

	t.Run("timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}))
		defer server.Close()

		ctx, cancelFn := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancelFn()

		_, err := NewComplianceClient(newConfig(server.URL), nil, hclog.NewNullLogger()).Check(ctx, testAddress)
		require.ErrorIs(t, err, core.ErrServiceUnavailable)
		require.True(t, core.IsRetriableError(err))
	})

	t.Run("rate limited", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"approved": true}`))
		}))
		defer server.Close()

		config := newConfig(server.URL)
		config.RequestsPerSecond = 20
		config.Burst = 1

		client := NewComplianceClient(config, nil, hclog.NewNullLogger())
		start := time.Now()

		for i := 0; i < 3; i++ {
			_, err := client.Check(ctx, testAddress)
			require.NoError(t, err)
		}

		require.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	})
}
