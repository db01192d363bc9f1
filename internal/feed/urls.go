package feed

import (
	"strings"

	"github.com/Alwanly/service-feed-ingest/internal/models"
)

// BuildURLs resolves the agency's URL templates for one cycle. Templates of
// agencies using URL auth have the password placeholder replaced by
// credential. Unconfigured channels stay empty.
func BuildURLs(agency models.AgencyInfo, credential string) models.AgencyURLs {
	return models.AgencyURLs{
		Vehicles: buildURL(agency.VehiclesURL, agency.AuthType, credential),
		Trips:    buildURL(agency.TripsURL, agency.AuthType, credential),
		Alerts:   buildURL(agency.AlertsURL, agency.AuthType, credential),
	}
}

func buildURL(template, authType, credential string) string {
	if template == "" {
		return ""
	}
	if authType == models.AuthTypeURL && credential != "" {
		return strings.ReplaceAll(template, models.URLPasswordPlaceholder, credential)
	}
	return template
}
