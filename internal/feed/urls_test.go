package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alwanly/service-feed-ingest/internal/models"
)

func TestBuildURLs(t *testing.T) {
	tests := []struct {
		name       string
		agency     models.AgencyInfo
		credential string
		want       models.AgencyURLs
	}{
		{
			name: "url auth substitutes placeholder",
			agency: models.AgencyInfo{
				AuthType:    models.AuthTypeURL,
				VehiclesURL: "https://x.test/vp?key=PASSWORD",
				AlertsURL:   "https://x.test/alerts?key=PASSWORD&k2=PASSWORD",
			},
			credential: "k1",
			want: models.AgencyURLs{
				Vehicles: "https://x.test/vp?key=k1",
				Alerts:   "https://x.test/alerts?key=k1&k2=k1",
			},
		},
		{
			name: "header auth leaves templates alone",
			agency: models.AgencyInfo{
				AuthType:    models.AuthTypeHeader,
				VehiclesURL: "https://x.test/vp?key=PASSWORD",
				TripsURL:    "https://x.test/tu",
			},
			credential: "k1",
			want: models.AgencyURLs{
				Vehicles: "https://x.test/vp?key=PASSWORD",
				Trips:    "https://x.test/tu",
			},
		},
		{
			name:   "nothing configured",
			agency: models.AgencyInfo{AuthType: models.AuthTypeURL},
			want:   models.AgencyURLs{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildURLs(tt.agency, tt.credential))
		})
	}
}
