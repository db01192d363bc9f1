package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const prefix = "feed_ingest_"

const (
	OutcomeOK          = "ok"
	OutcomeFailed      = "failed"
	OutcomeSkipped     = "skipped"
	OutcomeUnavailable = "unavailable"
)

// KindReference labels cross-check reference fetches so they are not
// counted as vehicle positions.
const KindReference = "vehicles_reference"

// FetchesTotal counts endpoint fetches by kind and outcome.
var FetchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: prefix + "fetches_total",
		Help: "Endpoint fetches by channel kind and outcome",
	},
	[]string{"kind", "outcome"},
)

var fetchBytesCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: prefix + "fetched_bytes_total",
		Help: "Raw payload bytes fetched by channel kind",
	},
	[]string{"kind"},
)

var fetchDurationHist = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    prefix + "fetch_duration_seconds",
		Help:    "Duration of a single endpoint fetch",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
	},
	[]string{"kind"},
)

var sinkWriteCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: prefix + "sink_writes_total",
		Help: "Store writes and forwards by operation and outcome",
	},
	[]string{"operation", "outcome"},
)

var roundDurationHist = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    prefix + "round_duration_seconds",
		Help:    "Duration of one batch round from start to drain",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	},
)

var workersGauge = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: prefix + "workers",
		Help: "Persistent per-agency workers currently running",
	},
)

func RecordFetch(kind, outcome string, size int, duration time.Duration) {
	FetchesTotal.With(prometheus.Labels{"kind": kind, "outcome": outcome}).Inc()
	if outcome == OutcomeOK {
		fetchBytesCounter.With(prometheus.Labels{"kind": kind}).Add(float64(size))
		fetchDurationHist.With(prometheus.Labels{"kind": kind}).Observe(duration.Seconds())
	}
}

func RecordSinkWrite(operation, outcome string) {
	sinkWriteCounter.With(prometheus.Labels{"operation": operation, "outcome": outcome}).Inc()
}

func RecordRound(duration time.Duration) {
	roundDurationHist.Observe(duration.Seconds())
}

func WorkerStarted() {
	workersGauge.Inc()
}

func WorkerStopped() {
	workersGauge.Dec()
}
