package feed

import (
	"errors"
	"math/rand/v2"

	"github.com/Alwanly/service-feed-ingest/internal/models"
)

// ErrEmptyRotation reports an agency whose rotation credential list is
// present but has no entries.
var ErrEmptyRotation = errors.New("feed: rotation credential list is present but empty")

// SelectCredential returns the credential to use for one cycle. With a
// rotation list, each call picks an entry uniformly at random, independent
// of earlier calls. Without one, the single auth password is used.
func SelectCredential(agency models.AgencyInfo) (string, error) {
	if agency.RotationCredentials == nil {
		return agency.AuthPassword, nil
	}
	if len(agency.RotationCredentials) == 0 {
		return "", ErrEmptyRotation
	}
	return agency.RotationCredentials[rand.IntN(len(agency.RotationCredentials))], nil
}
