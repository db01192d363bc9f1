package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Alwanly/service-feed-ingest/internal/feed"
	"github.com/Alwanly/service-feed-ingest/internal/models"
	"github.com/Alwanly/service-feed-ingest/internal/server/pool/dto"
	"github.com/Alwanly/service-feed-ingest/internal/server/pool/repository"
	"github.com/Alwanly/service-feed-ingest/pkg/logger"
	"github.com/Alwanly/service-feed-ingest/pkg/metrics"
	"github.com/Alwanly/service-feed-ingest/pkg/poll"
	"github.com/Alwanly/service-feed-ingest/pkg/validator"
	"github.com/Alwanly/service-feed-ingest/pkg/wrapper"
)

// AgencyPoller runs one cycle for one agency.
type AgencyPoller interface {
	Poll(ctx context.Context, agency feed.Agency, timeout time.Duration) (models.FetchResult, error)
}

// ErrShuttingDown is returned by AddAgency once Shutdown has started.
var ErrShuttingDown = errors.New("worker pool is shutting down")

type UseCaseInterface interface {
	StartCatalog(agencies []feed.Agency)
	AddAgency(ctx context.Context, info models.AgencyInfo) (dto.AddAgencyResponse, error)
	ListAgencies(ctx context.Context) dto.ListAgenciesResponse
	RemoveAgency(feedID string) bool
	Health() dto.HealthResponse
	Shutdown()
}

type UseCase struct {
	Repo   repository.IRepository
	Poller AgencyPoller
	Config poll.Config
	Logger *logger.CanonicalLogger

	// workers live as long as base, not as long as the request that added them
	base    context.Context
	workers sync.WaitGroup

	// lifeMu orders worker starts against Shutdown: no worker is added to
	// the WaitGroup or the registry once closed is set.
	lifeMu sync.Mutex
	closed bool
}

func NewUseCase(base context.Context, repo repository.IRepository, poller AgencyPoller, cfg poll.Config, log *logger.CanonicalLogger) *UseCase {
	return &UseCase{
		Repo:   repo,
		Poller: poller,
		Config: cfg,
		Logger: log.Component("pool"),
		base:   base,
	}
}

// StartCatalog starts one persistent worker per catalog agency. Catalog
// agencies are tracked in the handle registry only, so they do not appear
// in ListAgencies.
func (uc *UseCase) StartCatalog(agencies []feed.Agency) {
	for _, agency := range agencies {
		stored, err := uc.start(agency)
		if err != nil {
			return
		}
		if !stored {
			uc.Logger.WithFeedID(agency.Info.ID).Warn("duplicate catalog agency ignored")
		}
	}
	uc.Logger.Info("catalog workers started", logger.Int(logger.FieldAgencies, uc.Repo.HandleCount()))
}

// AddAgency starts a worker for info unless an agency with the same id is
// already running. Duplicates return StatusAgencyExists with a nil error;
// an error means info was rejected before anything was recorded.
func (uc *UseCase) AddAgency(ctx context.Context, info models.AgencyInfo) (dto.AddAgencyResponse, error) {
	logger.AddToContext(ctx, logger.String(logger.FieldFeedID, info.ID))

	if err := validator.ValidateStruct(info); err != nil {
		return dto.AddAgencyResponse{}, fmt.Errorf("invalid agency: %s", validator.Describe(err))
	}
	agency, err := feed.NewAgency(info)
	if err != nil {
		return dto.AddAgencyResponse{}, fmt.Errorf("invalid agency: %w", err)
	}

	if uc.Repo.HasHandle(info.ID) || !uc.Repo.AddAgency(info) {
		logger.AddToContext(ctx, logger.Bool(logger.FieldSuccess, false))
		return dto.AddAgencyResponse{Status: dto.StatusAgencyExists}, nil
	}

	stored, err := uc.start(agency)
	if err != nil {
		return dto.AddAgencyResponse{}, err
	}
	if !stored {
		// a catalog worker registered the same id between the checks
		return dto.AddAgencyResponse{Status: dto.StatusAgencyExists}, nil
	}

	logger.AddToContext(ctx, logger.Bool(logger.FieldSuccess, true))
	uc.Logger.WithFeedID(info.ID).Info("agency added", logger.String("transform", agency.Transform.Kind.String()))
	return dto.AddAgencyResponse{Status: dto.StatusAgencyAdded}, nil
}

// ListAgencies returns the dynamically added agencies.
func (uc *UseCase) ListAgencies(ctx context.Context) dto.ListAgenciesResponse {
	agencies := uc.Repo.Agencies()
	logger.AddToContext(ctx, logger.Int(logger.FieldAgencies, len(agencies)))
	return dto.ListAgenciesResponse{Agencies: agencies}
}

func (uc *UseCase) Health() dto.HealthResponse {
	return dto.HealthResponse{
		Status:  "ok",
		Workers: uc.Repo.HandleCount(),
		Dynamic: len(uc.Repo.Agencies()),
	}
}

// AddAgencyResult wraps AddAgency for the HTTP surface.
func (uc *UseCase) AddAgencyResult(ctx context.Context, info models.AgencyInfo) wrapper.JSONResult {
	res, err := uc.AddAgency(ctx, info)
	if errors.Is(err, ErrShuttingDown) {
		return wrapper.ResponseFailed(http.StatusServiceUnavailable, err.Error(), nil)
	}
	if err != nil {
		return wrapper.ResponseFailed(http.StatusBadRequest, err.Error(), nil)
	}
	if res.Status == dto.StatusAgencyExists {
		return wrapper.ResponseFailed(http.StatusConflict, res.Status, res)
	}
	return wrapper.ResponseSuccess(http.StatusCreated, res)
}

// Shutdown cancels every worker and waits for them to finish their current
// iteration.
func (uc *UseCase) Shutdown() {
	uc.lifeMu.Lock()
	uc.closed = true
	uc.lifeMu.Unlock()

	uc.Repo.CancelAll()
	uc.workers.Wait()
	uc.Logger.Info("all workers stopped")
}

// RemoveAgency stops the worker for feedID and drops it from the dynamic
// set so it can be added again. No control-plane action calls it.
func (uc *UseCase) RemoveAgency(feedID string) bool {
	cancelled := uc.Repo.Cancel(feedID)
	removed := uc.Repo.RemoveAgency(feedID)
	return cancelled || removed
}

// start spawns a worker and stores its handle as one step with respect to
// Shutdown. stored is false when a handle for the id already exists.
func (uc *UseCase) start(agency feed.Agency) (stored bool, err error) {
	uc.lifeMu.Lock()
	defer uc.lifeMu.Unlock()

	if uc.closed {
		return false, ErrShuttingDown
	}
	h := uc.spawn(agency)
	if !uc.Repo.StoreHandle(h) {
		h.Cancel()
		return false, nil
	}
	return true, nil
}

func (uc *UseCase) spawn(agency feed.Agency) repository.WorkerHandle {
	ctx, cancel := context.WithCancel(uc.base)

	runner := poll.NewLoop(agency.Info.ID, uc.Config, func(ctx context.Context, timeout time.Duration) error {
		_, err := uc.Poller.Poll(ctx, agency, timeout)
		return err
	}, uc.Logger)

	uc.workers.Add(1)
	metrics.WorkerStarted()
	go func() {
		defer uc.workers.Done()
		defer metrics.WorkerStopped()
		runner.Run(ctx)
	}()

	return repository.WorkerHandle{
		FeedID:    agency.Info.ID,
		StartedAt: time.Now(),
		Cancel:    cancel,
	}
}
