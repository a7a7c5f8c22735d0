package eth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/Ethernal-Tech/deposit-relayer/common"
	"github.com/Ethernal-Tech/deposit-relayer/relayer/core"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/hashicorp/go-hclog"
)

// EthClientWrapper dials the node lazily and drops the connection after network errors
// so the next call dials again
type EthClientWrapper struct {
	nodeURL string
	client  *ethclient.Client
	lock    sync.Mutex
	logger  hclog.Logger
}

func NewEthClientWrapper(nodeURL string, logger hclog.Logger) *EthClientWrapper {
	return &EthClientWrapper{
		nodeURL: nodeURL,
		logger:  logger,
	}
}

func (e *EthClientWrapper) GetClient(ctx context.Context) (*ethclient.Client, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.client != nil {
		return e.client, nil
	}

	rpcClient, err := rpc.DialContext(ctx, e.nodeURL)
	if err != nil {
		return nil, fmt.Errorf("error while dialing %s: %w", e.nodeURL, err)
	}

	e.logger.Debug("Connected to node", "url", e.nodeURL)

	e.client = ethclient.NewClient(rpcClient)

	return e.client, nil
}

func (e *EthClientWrapper) ProcessError(err error) error {
	var netErr net.Error

	if errors.Is(err, net.ErrClosed) || common.IsContextDoneErr(err) || errors.As(err, &netErr) {
		e.lock.Lock()

		if e.client != nil {
			e.client.Close()
			e.client = nil
		}

		e.lock.Unlock()
	}

	return err
}

func (e *EthClientWrapper) Close() {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.client != nil {
		e.client.Close()
		e.client = nil
	}
}

// classifyReadError maps node errors to query errors and everything else to connectivity errors
func classifyReadError(op string, err error) error {
	var (
		rpcErr  rpc.Error
		httpErr rpc.HTTPError
	)

	switch {
	case errors.As(err, &rpcErr):
		return core.NewQueryError(op, err)
	case errors.As(err, &httpErr) && httpErr.StatusCode < http.StatusInternalServerError &&
		httpErr.StatusCode != http.StatusTooManyRequests:
		return core.NewQueryError(op, err)
	default:
		return core.NewConnectivityError(op, err)
	}
}
