package models

import "time"

// FeedSnapshot is the latest raw payload of one feed channel. Rows are
// overwritten in place; there is no history.
type FeedSnapshot struct {
	FeedID    string    `gorm:"primaryKey;column:feed_id"`
	Kind      string    `gorm:"primaryKey;column:kind"`
	Payload   []byte    `gorm:"column:payload"`
	FetchedAt time.Time `gorm:"column:fetched_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (FeedSnapshot) TableName() string {
	return "feed_snapshots"
}
