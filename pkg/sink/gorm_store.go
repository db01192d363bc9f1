package sink

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Alwanly/service-feed-ingest/internal/models"
)

// GormStore keeps one feed_snapshots row per (feed, kind).
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, now: time.Now}
}

func (s *GormStore) Put(ctx context.Context, feedID string, kind models.FeedKind, payload []byte) error {
	row := models.FeedSnapshot{
		FeedID:    feedID,
		Kind:      string(kind),
		Payload:   payload,
		FetchedAt: s.now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "feed_id"}, {Name: "kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "fetched_at", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("store snapshot %s/%s: %w", feedID, kind, err)
	}
	return nil
}

// Get returns the stored snapshot, or nil when none exists.
func (s *GormStore) Get(ctx context.Context, feedID string, kind models.FeedKind) (*models.FeedSnapshot, error) {
	var row models.FeedSnapshot
	err := s.db.WithContext(ctx).Where("feed_id = ? AND kind = ?", feedID, string(kind)).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s/%s: %w", feedID, kind, err)
	}
	return &row, nil
}
