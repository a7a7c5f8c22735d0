package relayer_manager

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Ethernal-Tech/deposit-relayer/api"
	"github.com/Ethernal-Tech/deposit-relayer/api/controllers"
	apiCore "github.com/Ethernal-Tech/deposit-relayer/api/core"
	"github.com/Ethernal-Tech/deposit-relayer/compliance"
	"github.com/Ethernal-Tech/deposit-relayer/eth"
	"github.com/Ethernal-Tech/deposit-relayer/relayer/core"
	databaseaccess "github.com/Ethernal-Tech/deposit-relayer/relayer/database_access"
	"github.com/Ethernal-Tech/deposit-relayer/relayer/relayer"
	"github.com/Ethernal-Tech/deposit-relayer/relayer/scanner"
	"github.com/Ethernal-Tech/deposit-relayer/relayer/validator"
	"github.com/Ethernal-Tech/deposit-relayer/telemetry"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"
)

type pairRelayer struct {
	relayer core.Relayer
	db      core.Database
	history *relayer.DecisionHistory
	closers []func()
}

type RelayerManagerImpl struct {
	config    *core.RelayerManagerConfiguration
	relayers  map[string]*pairRelayer
	telemetry *telemetry.Telemetry
	api       apiCore.API
	logger    hclog.Logger

	ctx       context.Context
	cancelCtx context.CancelFunc
	group     *errgroup.Group
	errorCh   chan error
	stopOnce  sync.Once
	stopErr   error
}

var (
	_ core.RelayerManager       = (*RelayerManagerImpl)(nil)
	_ core.RelayerStateProvider = (*RelayerManagerImpl)(nil)
)

func NewRelayerManager(
	config *core.RelayerManagerConfiguration,
	logger hclog.Logger,
) (*RelayerManagerImpl, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid relayer configuration: %w", err)
	}

	relayers := make(map[string]*pairRelayer, len(config.Pairs))

	for _, pairID := range sortedPairIDs(config) {
		pr, err := newPairRelayer(config, pairID, logger.Named(strings.ToUpper(pairID)))
		if err != nil {
			_ = closePairRelayers(relayers, logger)

			return nil, fmt.Errorf("failed to create relayer for pair %s: %w", pairID, err)
		}

		relayers[pairID] = pr
	}

	rm := newRelayerManager(config, relayers, logger)

	if config.RunAPI {
		apiObj, err := api.NewAPI(rm.ctx, config.APIConfig, []apiCore.APIController{
			controllers.NewRelayerStateController(rm, logger.Named("relayer_state_controller")),
		}, logger.Named("api"))
		if err != nil {
			_ = closePairRelayers(relayers, logger)

			return nil, fmt.Errorf("failed to create api: %w", err)
		}

		rm.api = apiObj
	}

	return rm, nil
}

func newRelayerManager(
	config *core.RelayerManagerConfiguration, relayers map[string]*pairRelayer, logger hclog.Logger,
) *RelayerManagerImpl {
	ctx, cancelCtx := context.WithCancel(context.Background())

	return &RelayerManagerImpl{
		config:    config,
		relayers:  relayers,
		telemetry: telemetry.NewTelemetry(config.Telemetry, logger.Named("telemetry")),
		logger:    logger,
		ctx:       ctx,
		cancelCtx: cancelCtx,
		group:     &errgroup.Group{},
		errorCh:   make(chan error, 1),
	}
}

func (rm *RelayerManagerImpl) Start() error {
	rm.logger.Debug("Starting relayer manager", "pairs", len(rm.relayers))

	if err := rm.telemetry.Start(); err != nil {
		return fmt.Errorf("failed to start telemetry: %w", err)
	}

	for pairID, pr := range rm.relayers {
		pairID, pr := pairID, pr

		rm.group.Go(func() error {
			if err := pr.relayer.Start(rm.ctx); err != nil {
				rm.logger.Error("Relayer stopped", "pair", pairID, "err", err)

				return fmt.Errorf("relayer for pair %s: %w", pairID, err)
			}

			return nil
		})
	}

	if rm.api != nil {
		go rm.api.Start()
	}

	go func() {
		err := rm.group.Wait()

		// every relayer has stopped on its own
		if rm.ctx.Err() == nil {
			rm.errorCh <- errors.Join(errors.New("all relayers stopped"), err)
		}
	}()

	rm.logger.Debug("Started relayer manager")

	return nil
}

// Stop cancels every relayer, waits for them and releases their resources
func (rm *RelayerManagerImpl) Stop() error {
	rm.stopOnce.Do(func() {
		rm.logger.Info("Stopping relayer manager")

		rm.cancelCtx()

		for _, pr := range rm.relayers {
			pr.relayer.Stop()
		}

		errs := make([]error, 0)

		if err := rm.group.Wait(); err != nil {
			errs = append(errs, err)
		}

		if rm.api != nil {
			if err := rm.api.Dispose(); err != nil {
				rm.logger.Error("error while disposing api", "err", err)
				errs = append(errs, fmt.Errorf("error while disposing api. err: %w", err))
			}
		}

		if err := closePairRelayers(rm.relayers, rm.logger); err != nil {
			errs = append(errs, err)
		}

		if err := rm.telemetry.Close(context.Background()); err != nil {
			rm.logger.Error("Failed to close telemetry", "err", err)
			errs = append(errs, fmt.Errorf("failed to close telemetry. err: %w", err))
		}

		rm.stopErr = errors.Join(errs...)

		rm.logger.Info("Relayer manager stopped")
	})

	return rm.stopErr
}

// ErrorCh receives an error when every relayer has stopped without Stop being called
func (rm *RelayerManagerImpl) ErrorCh() <-chan error {
	return rm.errorCh
}

func (rm *RelayerManagerImpl) GetRelayerState(pairID string) (*core.RelayerState, error) {
	pr, exists := rm.relayers[pairID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", core.ErrPairNotFound, pairID)
	}

	return pr.relayer.GetState()
}

func (rm *RelayerManagerImpl) GetDecisions(pairID string) ([]core.DecisionRecord, error) {
	pr, exists := rm.relayers[pairID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", core.ErrPairNotFound, pairID)
	}

	if pr.history == nil {
		return []core.DecisionRecord{}, nil
	}

	return pr.history.GetRecords(), nil
}

func newPairRelayer(
	config *core.RelayerManagerConfiguration, pairID string, logger hclog.Logger,
) (*pairRelayer, error) {
	relayerConfig := config.GetRelayerConfig(pairID)
	pair := relayerConfig.Pair

	dbPath := ""
	if config.DbsPath != "" {
		dbPath = filepath.Join(config.DbsPath, pairID+".db")
	}

	db, err := databaseaccess.NewDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pr := &pairRelayer{
		db:      db,
		history: relayer.NewDecisionHistory(0),
	}

	source, err := eth.NewEVMSourceChain(pair.Source, logger.Named("source"))
	if err != nil {
		_ = db.Close()

		return nil, err
	}

	pr.closers = append(pr.closers, source.Close)

	destination, err := eth.NewEVMDestinationChain(pair.Destination, logger.Named("destination"))
	if err != nil {
		_ = pr.close()

		return nil, err
	}

	pr.closers = append(pr.closers, destination.Close)

	eventScanner, err := scanner.NewEventScanner(scanner.EventScannerConfig{
		ConfirmationDepth: pair.GetConfirmationDepth(),
		StartBlock:        pair.StartBlock,
		MaxBlockRange:     pair.MaxBlockRange,
		OperationTimeout:  relayerConfig.OperationTimeout(),
	}, source, db, logger.Named("scanner"))
	if err != nil {
		_ = pr.close()

		return nil, err
	}

	validatorConfig := validator.RelayValidatorConfig{
		OperationTimeout: relayerConfig.OperationTimeout(),
	}

	if pair.DestinationChainID != 0 {
		validatorConfig.DestinationChainID = new(big.Int).SetUint64(pair.DestinationChainID)
	}

	relayValidator := validator.NewRelayValidator(
		validatorConfig,
		compliance.NewComplianceClient(config.Compliance, nil, logger.Named("compliance")),
		db, logger.Named("validator"))

	pr.relayer = relayer.NewRelayer(
		relayerConfig, eventScanner, relayValidator, destination, db,
		[]core.DecisionObserver{relayer.MetricsObserver{}, pr.history}, logger)

	return pr, nil
}

func (pr *pairRelayer) close() error {
	for _, closer := range pr.closers {
		closer()
	}

	return pr.db.Close()
}

func closePairRelayers(relayers map[string]*pairRelayer, logger hclog.Logger) error {
	errs := make([]error, 0)

	for pairID, pr := range relayers {
		if err := pr.close(); err != nil {
			logger.Error("Failed to close relayer database", "pair", pairID, "err", err)
			errs = append(errs, fmt.Errorf("failed to close database for pair %s: %w", pairID, err))
		}
	}

	return errors.Join(errs...)
}

func sortedPairIDs(config *core.RelayerManagerConfiguration) []string {
	pairIDs := make([]string, 0, len(config.Pairs))
	for pairID := range config.Pairs {
		pairIDs = append(pairIDs, pairID)
	}

	sort.Strings(pairIDs)

	return pairIDs
}
