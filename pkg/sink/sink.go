package sink

import (
	"context"

	"github.com/Alwanly/service-feed-ingest/internal/models"
)

// Store persists the latest raw payload per (feed, kind). Put overwrites;
// there is no versioning.
type Store interface {
	Put(ctx context.Context, feedID string, kind models.FeedKind, payload []byte) error
}

// Forward is one cycle's hand-off to the downstream distribution service.
// Payload fields are nil when absent; the Configured flags report which
// channels the catalog lists, regardless of fetch success.
type Forward struct {
	FeedID             string `cbor:"feed_id"`
	Vehicles           []byte `cbor:"vehicles,omitempty"`
	Trips              []byte `cbor:"trips,omitempty"`
	Alerts             []byte `cbor:"alerts,omitempty"`
	VehiclesConfigured bool   `cbor:"vehicles_configured"`
	TripsConfigured    bool   `cbor:"trips_configured"`
	AlertsConfigured   bool   `cbor:"alerts_configured"`
	Immediate          bool   `cbor:"immediate"`
}

// Forwarder hands a cycle's results to the downstream service. A failed
// publish never undoes the Store writes that preceded it.
type Forwarder interface {
	Publish(ctx context.Context, fwd Forward) error
}

// NopForwarder drops every forward. Used when no downstream is configured.
type NopForwarder struct{}

func (NopForwarder) Publish(context.Context, Forward) error { return nil }
