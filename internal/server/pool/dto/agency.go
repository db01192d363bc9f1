package dto

import "github.com/Alwanly/service-feed-ingest/internal/models"

// Status strings returned by addagency.
const (
	StatusAgencyAdded  = "Agency added"
	StatusAgencyExists = "Error: Agency Exists"
)

// AddAgencyResponse reports the outcome of an add. A duplicate is a normal
// outcome, not an error.
type AddAgencyResponse struct {
	Status string `json:"status" cbor:"status"`
}

// ListAgenciesResponse is a snapshot of the dynamically added agencies.
type ListAgenciesResponse struct {
	Agencies []models.AgencyInfo `json:"agencies" cbor:"agencies"`
}

// RPC action names served by the pool.
const (
	ActionAgencies  = "agencies"
	ActionAddAgency = "addagency"
)
