package feed

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/Alwanly/service-feed-ingest/internal/models"
	"github.com/Alwanly/service-feed-ingest/pkg/logger"
	"github.com/Alwanly/service-feed-ingest/pkg/metrics"
)

// Endpoint is one fetch request for one channel of a feed.
type Endpoint struct {
	Kind       models.FeedKind
	URL        string
	AuthType   string
	AuthHeader string
	Credential string
	// MetricKind replaces Kind as the metric and log label when set.
	MetricKind string
}

// Fetcher performs single timed GETs over a shared client.
type Fetcher struct {
	client *http.Client
	logger *logger.CanonicalLogger
}

func NewFetcher(client *http.Client, log *logger.CanonicalLogger) *Fetcher {
	return &Fetcher{
		client: client,
		logger: log.Component("fetcher"),
	}
}

// Fetch returns the raw response body, or nil when the endpoint is not
// configured, the request fails, times out, or the status is not 2xx.
// Failures are logged and counted; no error is returned to the caller.
func (f *Fetcher) Fetch(ctx context.Context, ep Endpoint, timeout time.Duration) []byte {
	kind := string(ep.Kind)
	if ep.MetricKind != "" {
		kind = ep.MetricKind
	}
	if ep.URL == "" {
		metrics.RecordFetch(kind, metrics.OutcomeSkipped, 0, 0)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	body, status, err := f.get(ctx, ep)
	if err != nil {
		f.logger.Debug("fetch failed",
			logger.String(logger.FieldKind, kind),
			logger.String(logger.FieldURL, ep.URL),
			logger.Error(err),
		)
		metrics.RecordFetch(kind, metrics.OutcomeFailed, 0, 0)
		return nil
	}
	if status < 200 || status > 299 {
		f.logger.Debug("fetch returned non-success status",
			logger.String(logger.FieldKind, kind),
			logger.String(logger.FieldURL, ep.URL),
			logger.Int(logger.FieldStatus, status),
		)
		metrics.RecordFetch(kind, metrics.OutcomeFailed, 0, 0)
		return nil
	}

	metrics.RecordFetch(kind, metrics.OutcomeOK, len(body), time.Since(start))
	return body
}

func (f *Fetcher) get(ctx context.Context, ep Endpoint) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.URL, nil)
	if err != nil {
		return nil, 0, err
	}
	if ep.AuthType == models.AuthTypeHeader && ep.AuthHeader != "" {
		req.Header.Set(ep.AuthHeader, ep.Credential)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
