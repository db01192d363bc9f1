package models

// FeedKind names one realtime channel of a feed
type FeedKind string

const (
	KindVehicles FeedKind = "vehicles"
	KindTrips    FeedKind = "trips"
	KindAlerts   FeedKind = "alerts"
)

// Kinds lists every channel in fetch order
var Kinds = []FeedKind{KindVehicles, KindTrips, KindAlerts}

// Auth types understood by the URL builder and the fetcher
const (
	AuthTypeHeader = "header"
	AuthTypeURL    = "url"
)

// URLPasswordPlaceholder is replaced with the chosen credential when AuthType is "url"
const URLPasswordPlaceholder = "PASSWORD"
