package feed

import (
	"fmt"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/Alwanly/service-feed-ingest/internal/models"
)

// TransformKind tags the post-processing applied to an agency's payloads.
type TransformKind int

const (
	// TransformPassthrough persists every payload unmodified.
	TransformPassthrough TransformKind = iota
	// TransformReferenceCrossCheck fetches an unauthenticated reference copy
	// of the vehicle positions feed and reconciles it with the primary one.
	TransformReferenceCrossCheck
)

func (k TransformKind) String() string {
	switch k {
	case TransformPassthrough:
		return "passthrough"
	case TransformReferenceCrossCheck:
		return "reference_cross_check"
	}
	return fmt.Sprintf("transform(%d)", int(k))
}

// Transform is resolved once per agency when it enters the catalog or the
// dynamic registry, never per cycle.
type Transform struct {
	Kind         TransformKind
	ReferenceURL string
}

// Passthrough is the transform of every agency without a special case.
var Passthrough = Transform{Kind: TransformPassthrough}

// CrossCheck builds a reference cross-check transform against referenceURL.
func CrossCheck(referenceURL string) Transform {
	return Transform{Kind: TransformReferenceCrossCheck, ReferenceURL: referenceURL}
}

// crossCheckFeeds lists the feeds whose vehicle positions are cross-checked
// against the operator's own raw feed.
var crossCheckFeeds = map[string]string{
	"f-octa~rt": "https://api.octa.net/GTFSRealTime/protoBuf/VehiclePositions.aspx",
}

// ResolveTransform returns the transform for the agency with the given id.
func ResolveTransform(feedID string) Transform {
	if ref, ok := crossCheckFeeds[feedID]; ok {
		return CrossCheck(ref)
	}
	return Passthrough
}

// Agency is an agency ready to be polled: its catalog entry plus its
// resolved transform.
type Agency struct {
	Info      models.AgencyInfo
	Transform Transform
}

// NewAgency validates info and resolves its transform.
func NewAgency(info models.AgencyInfo) (Agency, error) {
	if info.ID == "" {
		return Agency{}, fmt.Errorf("feed: agency id is required")
	}
	if info.RotationCredentials != nil && len(info.RotationCredentials) == 0 {
		return Agency{}, fmt.Errorf("agency %s: %w", info.ID, ErrEmptyRotation)
	}
	return Agency{Info: info, Transform: ResolveTransform(info.ID)}, nil
}

// Reconciler merges a primary vehicle positions feed with a reference copy
// of the same feed.
//
// Contract: the poller calls Reconcile only when both payloads were fetched
// and decoded. The returned message is computed and then discarded: the
// primary bytes are what get persisted and forwarded. Persisting the
// reconciled message requires a new requirement and a change to the
// poller, not a different Reconciler.
type Reconciler interface {
	Reconcile(primary, reference *gtfs.FeedMessage) (*gtfs.FeedMessage, error)
}

// PrimaryReconciler keeps the primary feed as is.
type PrimaryReconciler struct{}

func (PrimaryReconciler) Reconcile(primary, _ *gtfs.FeedMessage) (*gtfs.FeedMessage, error) {
	return proto.Clone(primary).(*gtfs.FeedMessage), nil
}

func decodeFeedMessage(raw []byte) (*gtfs.FeedMessage, error) {
	msg := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(raw, msg); err != nil {
		return nil, err
	}
	return msg, nil
}
