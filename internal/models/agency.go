package models

// AgencyInfo describes one agency's realtime feed endpoints and credentials.
// Identity is by ID. An empty endpoint URL means the agency does not publish
// that channel. RotationCredentials, when non-nil, must be non-empty.
type AgencyInfo struct {
	ID                   string   `json:"onetrip" cbor:"onetrip" validate:"required"`
	VehiclesURL          string   `json:"realtime_vehicle_positions" cbor:"realtime_vehicle_positions"`
	TripsURL             string   `json:"realtime_trip_updates" cbor:"realtime_trip_updates"`
	AlertsURL            string   `json:"realtime_alerts" cbor:"realtime_alerts"`
	HasAuth              bool     `json:"has_auth" cbor:"has_auth"`
	AuthType             string   `json:"auth_type" cbor:"auth_type"`
	AuthHeader           string   `json:"auth_header" cbor:"auth_header"`
	AuthPassword         string   `json:"auth_password" cbor:"auth_password"`
	FetchIntervalSeconds float64  `json:"fetch_interval" cbor:"fetch_interval" validate:"gte=0"`
	RotationCredentials  []string `json:"multiauth,omitempty" cbor:"multiauth,omitempty" validate:"omitempty,min=1"`
}

// URLFor returns the configured URL template for kind.
func (a AgencyInfo) URLFor(kind FeedKind) string {
	switch kind {
	case KindVehicles:
		return a.VehiclesURL
	case KindTrips:
		return a.TripsURL
	case KindAlerts:
		return a.AlertsURL
	}
	return ""
}

// AgencyURLs is the per-cycle set of resolved endpoint URLs. An empty string
// means the endpoint is not configured.
type AgencyURLs struct {
	Vehicles string
	Trips    string
	Alerts   string
}

func (u AgencyURLs) For(kind FeedKind) string {
	switch kind {
	case KindVehicles:
		return u.Vehicles
	case KindTrips:
		return u.Trips
	case KindAlerts:
		return u.Alerts
	}
	return ""
}

// FetchResult holds the raw payload of each endpoint for one cycle. A nil
// slice means no data: either not configured or the fetch failed.
type FetchResult struct {
	Vehicles []byte
	Trips    []byte
	Alerts   []byte
}

func (r FetchResult) For(kind FeedKind) []byte {
	switch kind {
	case KindVehicles:
		return r.Vehicles
	case KindTrips:
		return r.Trips
	case KindAlerts:
		return r.Alerts
	}
	return nil
}
