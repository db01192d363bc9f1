package feed

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"github.com/Alwanly/service-feed-ingest/internal/models"
	"github.com/Alwanly/service-feed-ingest/pkg/logger"
	"github.com/Alwanly/service-feed-ingest/pkg/metrics"
	"github.com/Alwanly/service-feed-ingest/pkg/sink"
)

type putCall struct {
	feedID  string
	kind    models.FeedKind
	payload []byte
}

type memoryStore struct {
	mu    sync.Mutex
	puts  []putCall
	fails bool
}

func (s *memoryStore) Put(_ context.Context, feedID string, kind models.FeedKind, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fails {
		return errors.New("store down")
	}
	s.puts = append(s.puts, putCall{feedID: feedID, kind: kind, payload: payload})
	return nil
}

type memoryForwarder struct {
	mu       sync.Mutex
	forwards []sink.Forward
}

func (f *memoryForwarder) Publish(_ context.Context, fwd sink.Forward) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forwards = append(f.forwards, fwd)
	return nil
}

type recordingReconciler struct {
	calls atomic.Int32
}

func (r *recordingReconciler) Reconcile(primary, reference *gtfs.FeedMessage) (*gtfs.FeedMessage, error) {
	r.calls.Add(1)
	return primary, nil
}

func newTestPoller(store sink.Store, fwd sink.Forwarder, opts ...PollerOption) *Poller {
	log := logger.NewNop()
	return NewPoller(NewFetcher(NewHTTPClient(), log), store, fwd, log, opts...)
}

func feedBytes(t *testing.T, entities int) []byte {
	t.Helper()
	msg := &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{GtfsRealtimeVersion: proto.String("2.0")},
	}
	for i := 0; i < entities; i++ {
		msg.Entity = append(msg.Entity, &gtfs.FeedEntity{Id: proto.String(string(rune('a' + i)))})
	}
	raw, err := proto.Marshal(msg)
	require.NoError(t, err)
	return raw
}

func TestPoll_PartialSuccess(t *testing.T) {
	vehicles := bytes.Repeat([]byte{0x42}, 32)
	mux := http.NewServeMux()
	mux.HandleFunc("/vp", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write(vehicles) })
	mux.HandleFunc("/tu", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) })
	mux.HandleFunc("/al", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) })
	ts := httptest.NewServer(mux)
	defer ts.Close()

	agency, err := NewAgency(models.AgencyInfo{
		ID:          "f-test~rt",
		VehiclesURL: ts.URL + "/vp",
		TripsURL:    ts.URL + "/tu",
		AlertsURL:   ts.URL + "/al",
	})
	require.NoError(t, err)

	store := &memoryStore{}
	fwd := &memoryForwarder{}
	result, err := newTestPoller(store, fwd).Poll(context.Background(), agency, time.Second)
	require.NoError(t, err)

	assert.Equal(t, vehicles, result.Vehicles)
	assert.Nil(t, result.Trips)
	assert.Nil(t, result.Alerts)

	require.Len(t, store.puts, 1)
	assert.Equal(t, putCall{feedID: "f-test~rt", kind: models.KindVehicles, payload: vehicles}, store.puts[0])

	require.Len(t, fwd.forwards, 1)
	got := fwd.forwards[0]
	assert.Equal(t, "f-test~rt", got.FeedID)
	assert.Equal(t, vehicles, got.Vehicles)
	assert.Nil(t, got.Trips)
	assert.Nil(t, got.Alerts)
	assert.True(t, got.VehiclesConfigured)
	assert.True(t, got.TripsConfigured)
	assert.True(t, got.AlertsConfigured)
	assert.True(t, got.Immediate)
}

func TestPoll_VehiclesOnlyAgency(t *testing.T) {
	var requests atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte("vp"))
	}))
	defer ts.Close()

	agency, err := NewAgency(models.AgencyInfo{ID: "f-vonly~rt", VehiclesURL: ts.URL})
	require.NoError(t, err)

	store := &memoryStore{}
	fwd := &memoryForwarder{}
	_, err = newTestPoller(store, fwd).Poll(context.Background(), agency, time.Second)
	require.NoError(t, err)

	assert.Equal(t, int32(1), requests.Load())
	require.Len(t, store.puts, 1)
	require.Len(t, fwd.forwards, 1)
	assert.True(t, fwd.forwards[0].VehiclesConfigured)
	assert.False(t, fwd.forwards[0].TripsConfigured)
	assert.False(t, fwd.forwards[0].AlertsConfigured)
}

func TestPoll_EmptyRotationFailsBeforeFetching(t *testing.T) {
	var requests atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer ts.Close()

	agency := Agency{
		Info:      models.AgencyInfo{ID: "f-rot~rt", VehiclesURL: ts.URL, RotationCredentials: []string{}},
		Transform: Passthrough,
	}
	store := &memoryStore{}
	fwd := &memoryForwarder{}

	_, err := newTestPoller(store, fwd).Poll(context.Background(), agency, time.Second)
	require.ErrorIs(t, err, ErrEmptyRotation)
	assert.Zero(t, requests.Load())
	assert.Empty(t, store.puts)
	assert.Empty(t, fwd.forwards)
}

func TestPoll_StoreFailureStillForwards(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer ts.Close()

	agency, err := NewAgency(models.AgencyInfo{ID: "f-a~rt", VehiclesURL: ts.URL, AlertsURL: ts.URL})
	require.NoError(t, err)

	fwd := &memoryForwarder{}
	_, err = newTestPoller(&memoryStore{fails: true}, fwd).Poll(context.Background(), agency, time.Second)
	require.NoError(t, err)
	require.Len(t, fwd.forwards, 1)
	assert.Equal(t, []byte("payload"), fwd.forwards[0].Alerts)
}

func TestPoll_RotatedCredentialReachesURL(t *testing.T) {
	var seen atomic.Value
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.URL.Query().Get("key"))
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	agency, err := NewAgency(models.AgencyInfo{
		ID:                  "f-rot~rt",
		AuthType:            models.AuthTypeURL,
		VehiclesURL:         ts.URL + "/vp?key=PASSWORD",
		RotationCredentials: []string{"only"},
	})
	require.NoError(t, err)

	_, err = newTestPoller(&memoryStore{}, &memoryForwarder{}).Poll(context.Background(), agency, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "only", seen.Load())
}

func TestPoll_CrossCheckRunsReconcilerAndPersistsOriginal(t *testing.T) {
	primary := feedBytes(t, 2)
	reference := feedBytes(t, 3)

	var referenceHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/vp", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write(primary) })
	mux.HandleFunc("/ref", func(w http.ResponseWriter, r *http.Request) {
		referenceHits.Add(1)
		if r.Header.Get("x-api-key") != "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write(reference)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	agency := Agency{
		Info: models.AgencyInfo{
			ID:           "f-cross~rt",
			VehiclesURL:  ts.URL + "/vp",
			AuthType:     models.AuthTypeHeader,
			AuthHeader:   "x-api-key",
			AuthPassword: "secret",
		},
		Transform: CrossCheck(ts.URL + "/ref"),
	}

	vehiclesOK := metrics.FetchesTotal.WithLabelValues(string(models.KindVehicles), metrics.OutcomeOK)
	referenceOK := metrics.FetchesTotal.WithLabelValues(metrics.KindReference, metrics.OutcomeOK)
	vehiclesBefore := testutil.ToFloat64(vehiclesOK)
	referenceBefore := testutil.ToFloat64(referenceOK)

	rec := &recordingReconciler{}
	store := &memoryStore{}
	_, err := newTestPoller(store, &memoryForwarder{}, WithReconciler(rec)).Poll(context.Background(), agency, time.Second)
	require.NoError(t, err)

	// the reference fetch has its own label
	assert.Equal(t, vehiclesBefore+1, testutil.ToFloat64(vehiclesOK))
	assert.Equal(t, referenceBefore+1, testutil.ToFloat64(referenceOK))

	assert.Equal(t, int32(1), referenceHits.Load())
	assert.Equal(t, int32(1), rec.calls.Load())
	require.Len(t, store.puts, 1)
	assert.Equal(t, primary, store.puts[0].payload)
}

func TestPoll_CrossCheckSkippedWithoutPrimary(t *testing.T) {
	var referenceHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/vp", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) })
	mux.HandleFunc("/ref", func(w http.ResponseWriter, r *http.Request) { referenceHits.Add(1) })
	ts := httptest.NewServer(mux)
	defer ts.Close()

	agency := Agency{
		Info:      models.AgencyInfo{ID: "f-cross~rt", VehiclesURL: ts.URL + "/vp"},
		Transform: CrossCheck(ts.URL + "/ref"),
	}
	rec := &recordingReconciler{}
	_, err := newTestPoller(&memoryStore{}, &memoryForwarder{}, WithReconciler(rec)).Poll(context.Background(), agency, time.Second)
	require.NoError(t, err)

	assert.Zero(t, referenceHits.Load())
	assert.Zero(t, rec.calls.Load())
}
