package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Alwanly/service-feed-ingest/internal/models"
	"github.com/Alwanly/service-feed-ingest/pkg/logger"
	"github.com/Alwanly/service-feed-ingest/pkg/metrics"
	"github.com/Alwanly/service-feed-ingest/pkg/sink"
)

// Poller runs one fetch-persist-forward cycle for an agency.
type Poller struct {
	fetcher    *Fetcher
	store      sink.Store
	forwarder  sink.Forwarder
	reconciler Reconciler
	logger     *logger.CanonicalLogger
}

type PollerOption func(*Poller)

// WithReconciler replaces the reconciler used by cross-checked agencies.
func WithReconciler(r Reconciler) PollerOption {
	return func(p *Poller) {
		p.reconciler = r
	}
}

func NewPoller(fetcher *Fetcher, store sink.Store, forwarder sink.Forwarder, log *logger.CanonicalLogger, opts ...PollerOption) *Poller {
	p := &Poller{
		fetcher:    fetcher,
		store:      store,
		forwarder:  forwarder,
		reconciler: PrimaryReconciler{},
		logger:     log.Component("poller"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Poll fetches the agency's three channels concurrently, stores every
// present payload and forwards the cycle. The only error that stops a cycle
// before any fetch is an empty rotation list. Store failures are logged and
// do not prevent the forward; a forward failure is returned after the
// writes have happened.
func (p *Poller) Poll(ctx context.Context, agency Agency, timeout time.Duration) (models.FetchResult, error) {
	info := agency.Info
	log := p.logger.WithFeedID(info.ID)

	credential, err := SelectCredential(info)
	if err != nil {
		return models.FetchResult{}, fmt.Errorf("agency %s: %w", info.ID, err)
	}
	urls := BuildURLs(info, credential)

	result := p.fetchAll(ctx, info, urls, credential, timeout)

	if agency.Transform.Kind == TransformReferenceCrossCheck && result.Vehicles != nil {
		p.crossCheck(ctx, log, agency.Transform.ReferenceURL, result.Vehicles, timeout)
	}

	for _, kind := range models.Kinds {
		payload := result.For(kind)
		if payload == nil {
			continue
		}
		if err := p.store.Put(ctx, info.ID, kind, payload); err != nil {
			metrics.RecordSinkWrite("put", metrics.OutcomeFailed)
			log.WithError(err).Error("failed to store payload", logger.String(logger.FieldKind, string(kind)))
			continue
		}
		metrics.RecordSinkWrite("put", metrics.OutcomeOK)
	}

	fwd := sink.Forward{
		FeedID:             info.ID,
		Vehicles:           result.Vehicles,
		Trips:              result.Trips,
		Alerts:             result.Alerts,
		VehiclesConfigured: info.VehiclesURL != "",
		TripsConfigured:    info.TripsURL != "",
		AlertsConfigured:   info.AlertsURL != "",
		Immediate:          true,
	}
	if err := p.forwarder.Publish(ctx, fwd); err != nil {
		metrics.RecordSinkWrite("forward", metrics.OutcomeFailed)
		return result, fmt.Errorf("forward %s: %w", info.ID, err)
	}
	metrics.RecordSinkWrite("forward", metrics.OutcomeOK)

	return result, nil
}

func (p *Poller) fetchAll(ctx context.Context, info models.AgencyInfo, urls models.AgencyURLs, credential string, timeout time.Duration) models.FetchResult {
	var (
		wg      sync.WaitGroup
		payload [3][]byte
	)
	for i, kind := range models.Kinds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			payload[i] = p.fetcher.Fetch(ctx, Endpoint{
				Kind:       kind,
				URL:        urls.For(kind),
				AuthType:   info.AuthType,
				AuthHeader: info.AuthHeader,
				Credential: credential,
			}, timeout)
		}()
	}
	wg.Wait()

	return models.FetchResult{Vehicles: payload[0], Trips: payload[1], Alerts: payload[2]}
}

// crossCheck fetches the reference copy and reconciles it with primary. The
// outcome is only logged.
func (p *Poller) crossCheck(ctx context.Context, log *logger.CanonicalLogger, referenceURL string, primary []byte, timeout time.Duration) {
	reference := p.fetcher.Fetch(ctx, Endpoint{Kind: models.KindVehicles, URL: referenceURL, MetricKind: metrics.KindReference}, timeout)
	if reference == nil {
		log.Debug("reference feed unavailable", logger.String(logger.FieldURL, referenceURL))
		return
	}

	primaryMsg, err := decodeFeedMessage(primary)
	if err != nil {
		log.WithError(err).Warn("failed to decode primary vehicle positions")
		return
	}
	referenceMsg, err := decodeFeedMessage(reference)
	if err != nil {
		log.WithError(err).Warn("failed to decode reference vehicle positions")
		return
	}

	merged, err := p.reconciler.Reconcile(primaryMsg, referenceMsg)
	if err != nil {
		log.WithError(err).Warn("reconcile failed")
		return
	}
	log.Debug("reconciled vehicle positions",
		logger.Int("primary_entities", len(primaryMsg.GetEntity())),
		logger.Int("reference_entities", len(referenceMsg.GetEntity())),
		logger.Int("merged_entities", len(merged.GetEntity())),
	)
}
