package controllers

import (
	"errors"
	"net/http"

	apiCore "github.com/Ethernal-Tech/deposit-relayer/api/core"
	apiUtils "github.com/Ethernal-Tech/deposit-relayer/api/utils"
	"github.com/Ethernal-Tech/deposit-relayer/relayer/core"
	"github.com/hashicorp/go-hclog"
)

const pairIDQueryParam = "pairId"

type RelayerStateControllerImpl struct {
	stateProvider core.RelayerStateProvider
	logger        hclog.Logger
}

var _ apiCore.APIController = (*RelayerStateControllerImpl)(nil)

func NewRelayerStateController(
	stateProvider core.RelayerStateProvider,
	logger hclog.Logger,
) *RelayerStateControllerImpl {
	return &RelayerStateControllerImpl{
		stateProvider: stateProvider,
		logger:        logger,
	}
}

func (*RelayerStateControllerImpl) GetPathPrefix() string {
	return "RelayerState"
}

func (c *RelayerStateControllerImpl) GetEndpoints() []*apiCore.APIEndpoint {
	return []*apiCore.APIEndpoint{
		{Path: "Get", Method: http.MethodGet, Handler: c.get, APIKeyAuth: true},
		{Path: "Decisions", Method: http.MethodGet, Handler: c.getDecisions, APIKeyAuth: true},
	}
}

// @Summary Get relayer state of a source/destination pair
// @Description Returns the scan cursor, pending, escalated and failed events and the processed nonce count.
// @Tags RelayerState
// @Produce json
// @Param pairId query string true "Pair ID"
// @Success 200 {object} core.RelayerState "OK - Returns relayer state."
// @Failure 400 {object} apiUtils.ErrorResponse "Bad Request – pairId missing."
// @Failure 404 {object} apiUtils.ErrorResponse "Not Found – pair is not configured."
// @Failure 401 {object} apiUtils.ErrorResponse "Unauthorized – API key missing or invalid."
// @Security ApiKeyAuth
// @Router /RelayerState/Get [get]
func (c *RelayerStateControllerImpl) get(w http.ResponseWriter, r *http.Request) {
	pairID, ok := apiUtils.GetQueryParam(w, r, pairIDQueryParam, c.logger)
	if !ok {
		return
	}

	state, err := c.stateProvider.GetRelayerState(pairID)
	if err != nil {
		apiUtils.WriteErrorResponse(w, r, errorStatus(err), err, c.logger)

		return
	}

	apiUtils.WriteResponse(w, r, http.StatusOK, state, c.logger)
}

// @Summary Get recent relay decisions of a source/destination pair
// @Description Returns the most recent decision records, oldest first.
// @Tags RelayerState
// @Produce json
// @Param pairId query string true "Pair ID"
// @Success 200 {array} core.DecisionRecord "OK - Returns decision records."
// @Failure 400 {object} apiUtils.ErrorResponse "Bad Request – pairId missing."
// @Failure 404 {object} apiUtils.ErrorResponse "Not Found – pair is not configured."
// @Failure 401 {object} apiUtils.ErrorResponse "Unauthorized – API key missing or invalid."
// @Security ApiKeyAuth
// @Router /RelayerState/Decisions [get]
func (c *RelayerStateControllerImpl) getDecisions(w http.ResponseWriter, r *http.Request) {
	pairID, ok := apiUtils.GetQueryParam(w, r, pairIDQueryParam, c.logger)
	if !ok {
		return
	}

	records, err := c.stateProvider.GetDecisions(pairID)
	if err != nil {
		apiUtils.WriteErrorResponse(w, r, errorStatus(err), err, c.logger)

		return
	}

	if records == nil {
		records = []core.DecisionRecord{}
	}

	apiUtils.WriteResponse(w, r, http.StatusOK, records, c.logger)
}

func errorStatus(err error) int {
	if errors.Is(err, core.ErrPairNotFound) {
		return http.StatusNotFound
	}

	return http.StatusInternalServerError
}
