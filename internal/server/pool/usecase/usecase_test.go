package usecase

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alwanly/service-feed-ingest/internal/feed"
	"github.com/Alwanly/service-feed-ingest/internal/models"
	"github.com/Alwanly/service-feed-ingest/internal/server/pool/dto"
	"github.com/Alwanly/service-feed-ingest/internal/server/pool/repository"
	"github.com/Alwanly/service-feed-ingest/pkg/logger"
	"github.com/Alwanly/service-feed-ingest/pkg/poll"
)

type countingPoller struct {
	mu    sync.Mutex
	calls map[string]int
}

func newCountingPoller() *countingPoller {
	return &countingPoller{calls: make(map[string]int)}
}

func (p *countingPoller) Poll(_ context.Context, agency feed.Agency, _ time.Duration) (models.FetchResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[agency.Info.ID]++
	return models.FetchResult{}, nil
}

func (p *countingPoller) count(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[id]
}

func newTestUseCase(t *testing.T) (*UseCase, *countingPoller) {
	t.Helper()
	poller := newCountingPoller()
	uc := NewUseCase(context.Background(), repository.NewRepository(), poller,
		poll.Config{Delay: time.Millisecond, Timeout: time.Second}, logger.NewNop())
	t.Cleanup(uc.Shutdown)
	return uc, poller
}

func TestAddAgency_AddsOnceAndRejectsDuplicate(t *testing.T) {
	uc, poller := newTestUseCase(t)
	ctx := context.Background()
	info := models.AgencyInfo{ID: "f-dyn~rt", VehiclesURL: "https://dyn.test/vp"}

	res, err := uc.AddAgency(ctx, info)
	require.NoError(t, err)
	assert.Equal(t, dto.StatusAgencyAdded, res.Status)

	res, err = uc.AddAgency(ctx, info)
	require.NoError(t, err)
	assert.Equal(t, dto.StatusAgencyExists, res.Status)

	assert.Len(t, uc.ListAgencies(ctx).Agencies, 1)
	assert.Equal(t, 1, uc.Repo.HandleCount())

	require.Eventually(t, func() bool { return poller.count("f-dyn~rt") > 0 }, time.Second, 5*time.Millisecond)
}

func TestAddAgency_CatalogAgencyCountsAsExisting(t *testing.T) {
	uc, _ := newTestUseCase(t)
	uc.StartCatalog([]feed.Agency{{Info: models.AgencyInfo{ID: "f-cat~rt"}, Transform: feed.Passthrough}})

	res, err := uc.AddAgency(context.Background(), models.AgencyInfo{ID: "f-cat~rt"})
	require.NoError(t, err)
	assert.Equal(t, dto.StatusAgencyExists, res.Status)

	// catalog agencies are not part of the dynamic set
	assert.Empty(t, uc.ListAgencies(context.Background()).Agencies)
	assert.Equal(t, 1, uc.Repo.HandleCount())
}

func TestAddAgency_InvalidConfig(t *testing.T) {
	uc, _ := newTestUseCase(t)

	_, err := uc.AddAgency(context.Background(), models.AgencyInfo{})
	require.Error(t, err)

	_, err = uc.AddAgency(context.Background(), models.AgencyInfo{ID: "f-rot~rt", RotationCredentials: []string{}})
	require.Error(t, err)

	assert.Empty(t, uc.ListAgencies(context.Background()).Agencies)
	assert.Zero(t, uc.Repo.HandleCount())
}

func TestAddAgencyResult_StatusCodes(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	assert.Equal(t, http.StatusCreated, uc.AddAgencyResult(ctx, models.AgencyInfo{ID: "f-a~rt"}).Code)
	assert.Equal(t, http.StatusConflict, uc.AddAgencyResult(ctx, models.AgencyInfo{ID: "f-a~rt"}).Code)
	assert.Equal(t, http.StatusBadRequest, uc.AddAgencyResult(ctx, models.AgencyInfo{}).Code)
}

func TestCancel_StopsOnlyThatWorker(t *testing.T) {
	uc, poller := newTestUseCase(t)
	uc.StartCatalog([]feed.Agency{
		{Info: models.AgencyInfo{ID: "f-a~rt"}, Transform: feed.Passthrough},
		{Info: models.AgencyInfo{ID: "f-b~rt"}, Transform: feed.Passthrough},
	})
	require.Eventually(t, func() bool { return poller.count("f-a~rt") > 0 }, time.Second, 5*time.Millisecond)

	require.True(t, uc.Repo.Cancel("f-a~rt"))

	// allow the in-flight iteration to finish, then the count must stop moving
	time.Sleep(20 * time.Millisecond)
	stopped := poller.count("f-a~rt")
	before := poller.count("f-b~rt")
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, stopped, poller.count("f-a~rt"))
	assert.Greater(t, poller.count("f-b~rt"), before)
}

func TestWorkerOutlivesRequestContext(t *testing.T) {
	uc, poller := newTestUseCase(t)

	reqCtx, cancel := context.WithCancel(context.Background())
	_, err := uc.AddAgency(reqCtx, models.AgencyInfo{ID: "f-long~rt"})
	require.NoError(t, err)
	cancel()

	seen := poller.count("f-long~rt")
	require.Eventually(t, func() bool { return poller.count("f-long~rt") > seen+2 }, time.Second, 5*time.Millisecond)
}

func TestAddAgency_AfterShutdownIsRejected(t *testing.T) {
	uc, _ := newTestUseCase(t)
	uc.Shutdown()

	_, err := uc.AddAgency(context.Background(), models.AgencyInfo{ID: "f-late~rt"})
	require.ErrorIs(t, err, ErrShuttingDown)
	assert.Zero(t, uc.Repo.HandleCount())

	res := uc.AddAgencyResult(context.Background(), models.AgencyInfo{ID: "f-later~rt"})
	assert.Equal(t, http.StatusServiceUnavailable, res.Code)
}

func TestShutdown_RacingAddsLeaveNoWorkers(t *testing.T) {
	uc, poller := newTestUseCase(t)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := uc.AddAgency(context.Background(), models.AgencyInfo{ID: fmt.Sprintf("f-race%d~rt", i)})
			if err != nil {
				assert.ErrorIs(t, err, ErrShuttingDown)
			}
		}(i)
	}
	uc.Shutdown()
	wg.Wait()

	assert.Zero(t, uc.Repo.HandleCount())

	total := func() int {
		sum := 0
		for i := 0; i < 40; i++ {
			sum += poller.count(fmt.Sprintf("f-race%d~rt", i))
		}
		return sum
	}
	settled := total()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, total())
}

func TestRemoveAgency_AllowsReAdd(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()
	info := models.AgencyInfo{ID: "f-again~rt"}

	_, err := uc.AddAgency(ctx, info)
	require.NoError(t, err)

	// cancelling alone keeps the id reserved
	require.True(t, uc.Repo.Cancel(info.ID))
	res, err := uc.AddAgency(ctx, info)
	require.NoError(t, err)
	assert.Equal(t, dto.StatusAgencyExists, res.Status)

	require.True(t, uc.RemoveAgency(info.ID))
	assert.Empty(t, uc.ListAgencies(ctx).Agencies)

	res, err = uc.AddAgency(ctx, info)
	require.NoError(t, err)
	assert.Equal(t, dto.StatusAgencyAdded, res.Status)
	assert.Equal(t, 1, uc.Repo.HandleCount())

	assert.False(t, uc.RemoveAgency("f-unknown~rt"))
}
