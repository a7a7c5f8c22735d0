// @title Deposit Relayer API
// @version 1.0
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/Ethernal-Tech/deposit-relayer/api/core"
	"github.com/Ethernal-Tech/deposit-relayer/api/utils"
	"github.com/Ethernal-Tech/deposit-relayer/common"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"
)

const (
	apiStartDelay    = 5 * time.Second
	apiDisposeWait   = 5 * time.Second
	apiHeaderTimeout = 3 * time.Second
)

type APIImpl struct {
	ctx       context.Context
	apiConfig core.APIConfig
	handler   http.Handler
	server    *http.Server
	logger    hclog.Logger

	serverClosedCh chan bool
}

var _ core.API = (*APIImpl)(nil)

func NewAPI(
	ctx context.Context, apiConfig core.APIConfig,
	controllers []core.APIController, logger hclog.Logger,
) (
	*APIImpl, error,
) {
	if apiConfig.APIKeyHeader == "" && len(apiConfig.APIKeys) > 0 {
		return nil, errors.New("api key header must be set when api keys are configured")
	}

	return &APIImpl{
		ctx:       ctx,
		apiConfig: apiConfig,
		handler:   newHandler(apiConfig, controllers, logger),
		logger:    logger,
	}, nil
}

// Handler returns the router wrapped with the CORS handler
func (api *APIImpl) Handler() http.Handler {
	return api.handler
}

func (api *APIImpl) Start() {
	// delay api start a bit, in case OS has not released port yet from a previous run
	select {
	case <-api.ctx.Done():
		return
	case <-time.After(apiStartDelay):
	}

	api.logger.Debug("Checking process running on port",
		"port", api.apiConfig.Port, "process", utils.FormatProcessOnPort(api.apiConfig.Port))

	api.serverClosedCh = make(chan bool, 1)

	err := common.RetryForever(api.ctx, apiStartDelay, func(ctx context.Context) error {
		api.logger.Debug("Trying to start api")

		srvCtx, cancelFunc := context.WithCancel(ctx)
		defer cancelFunc()

		api.server = &http.Server{
			Addr:              fmt.Sprintf(":%d", api.apiConfig.Port),
			Handler:           api.handler,
			ReadHeaderTimeout: apiHeaderTimeout,
			ConnContext:       func(ctx context.Context, c net.Conn) context.Context { return srvCtx },
			BaseContext:       func(l net.Listener) context.Context { return srvCtx },
		}

		err := api.server.ListenAndServe()
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		api.logger.Error("Error while trying to start api. Retrying...", "err", err,
			"process", utils.FormatProcessOnPort(api.apiConfig.Port))

		_ = api.server.Close()

		return err
	})
	if err != nil && !common.IsContextDoneErr(err) {
		api.logger.Error("error after api ListenAndServe", "err", err)
	}

	api.logger.Debug("Stopped api")
	api.serverClosedCh <- true
}

func (api *APIImpl) Dispose() error {
	var apiErrors []error

	if api.server == nil {
		return nil
	}

	if err := api.server.Shutdown(context.Background()); err != nil {
		apiErrors = append(apiErrors, fmt.Errorf("error while trying to shutdown api server. err %w", err))
	}

	api.logger.Debug("Called api shutdown")

	select {
	case <-time.After(apiDisposeWait):
		api.logger.Debug("api not closed after a timeout")

		if err := api.server.Close(); err != nil {
			apiErrors = append(apiErrors, fmt.Errorf("error while trying to close api server. err: %w", err))
		}
	case <-api.serverClosedCh:
	}

	api.logger.Debug("Finished disposing")

	return errors.Join(apiErrors...)
}

func newHandler(apiConfig core.APIConfig, controllers []core.APIController, logger hclog.Logger) http.Handler {
	router := mux.NewRouter().StrictSlash(true)

	for _, controller := range controllers {
		for _, endpoint := range controller.GetEndpoints() {
			endpointPath := fmt.Sprintf("/%s/%s/%s", apiConfig.PathPrefix, controller.GetPathPrefix(), endpoint.Path)

			endpointHandler := endpoint.Handler
			if endpoint.APIKeyAuth {
				endpointHandler = withAPIKeyAuth(apiConfig, endpointHandler, logger)
			}

			router.HandleFunc(endpointPath, endpointWrapper(endpoint.Path, endpointHandler, logger)).
				Methods(endpoint.Method)

			logger.Debug("Registered api endpoint", "endpoint", endpointPath, "method", endpoint.Method)
		}
	}

	return handlers.CORS(
		handlers.AllowedOrigins(apiConfig.AllowedOrigins),
		handlers.AllowedHeaders(apiConfig.AllowedHeaders),
		handlers.AllowedMethods(apiConfig.AllowedMethods),
	)(router)
}

func endpointWrapper(path string, handler core.APIEndpointHandler, logger hclog.Logger) core.APIEndpointHandler {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("endpoint called", "path", path, "url", r.URL)
		handler(w, r)
		logger.Debug("endpoint call finished", "path", path, "url", r.URL)
	}
}

func withAPIKeyAuth(
	apiConfig core.APIConfig, handler core.APIEndpointHandler, logger hclog.Logger,
) core.APIEndpointHandler {
	return func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get(apiConfig.APIKeyHeader)
		if apiKey == "" || !slices.Contains(apiConfig.APIKeys, apiKey) {
			utils.WriteUnauthorizedResponse(w, r, logger)

			return
		}

		handler(w, r)
	}
}
