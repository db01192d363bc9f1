package repository

import (
	"context"
	"sync"
	"time"

	"github.com/Alwanly/service-feed-ingest/internal/models"
)

// WorkerHandle is a running per-agency task and the function that stops it.
type WorkerHandle struct {
	FeedID    string
	StartedAt time.Time
	Cancel    context.CancelFunc
}

// Repository holds the dynamically added agency set and the registry of
// running worker handles. Each is guarded by its own mutex, held only for
// a single map operation.
type Repository struct {
	agencyMu sync.Mutex
	agencies map[string]models.AgencyInfo
	order    []string

	handleMu sync.Mutex
	handles  map[string]WorkerHandle
}

type IRepository interface {
	AddAgency(info models.AgencyInfo) bool
	RemoveAgency(feedID string) bool
	Agencies() []models.AgencyInfo
	HasHandle(feedID string) bool
	StoreHandle(h WorkerHandle) bool
	HandleCount() int
	Cancel(feedID string) bool
	CancelAll()
}

func NewRepository() *Repository {
	return &Repository{
		agencies: make(map[string]models.AgencyInfo),
		handles:  make(map[string]WorkerHandle),
	}
}

// AddAgency records info in the dynamic set. It returns false, leaving the
// set unchanged, when an agency with the same id is already recorded.
func (r *Repository) AddAgency(info models.AgencyInfo) bool {
	r.agencyMu.Lock()
	defer r.agencyMu.Unlock()

	if _, ok := r.agencies[info.ID]; ok {
		return false
	}
	r.agencies[info.ID] = info
	r.order = append(r.order, info.ID)
	return true
}

// RemoveAgency drops feedID from the dynamic set. It does not touch the
// worker; pair it with Cancel.
func (r *Repository) RemoveAgency(feedID string) bool {
	r.agencyMu.Lock()
	defer r.agencyMu.Unlock()

	if _, ok := r.agencies[feedID]; !ok {
		return false
	}
	delete(r.agencies, feedID)
	for i, id := range r.order {
		if id == feedID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Agencies returns the dynamic set in insertion order.
func (r *Repository) Agencies() []models.AgencyInfo {
	r.agencyMu.Lock()
	defer r.agencyMu.Unlock()

	out := make([]models.AgencyInfo, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.agencies[id])
	}
	return out
}

func (r *Repository) HasHandle(feedID string) bool {
	r.handleMu.Lock()
	defer r.handleMu.Unlock()
	_, ok := r.handles[feedID]
	return ok
}

// StoreHandle records h unless a handle for the same feed exists.
func (r *Repository) StoreHandle(h WorkerHandle) bool {
	r.handleMu.Lock()
	defer r.handleMu.Unlock()

	if _, ok := r.handles[h.FeedID]; ok {
		return false
	}
	r.handles[h.FeedID] = h
	return true
}

func (r *Repository) HandleCount() int {
	r.handleMu.Lock()
	defer r.handleMu.Unlock()
	return len(r.handles)
}

// Cancel stops the worker for feedID and forgets its handle. The agency
// stays in the dynamic set, so AddAgency keeps reporting it as existing
// until RemoveAgency is called as well. A remove operation must do both;
// UseCase.RemoveAgency does.
func (r *Repository) Cancel(feedID string) bool {
	r.handleMu.Lock()
	h, ok := r.handles[feedID]
	delete(r.handles, feedID)
	r.handleMu.Unlock()

	if ok && h.Cancel != nil {
		h.Cancel()
	}
	return ok
}

// CancelAll stops every worker. Used on shutdown.
func (r *Repository) CancelAll() {
	r.handleMu.Lock()
	handles := r.handles
	r.handles = make(map[string]WorkerHandle)
	r.handleMu.Unlock()

	for _, h := range handles {
		if h.Cancel != nil {
			h.Cancel()
		}
	}
}
