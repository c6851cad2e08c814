package store

import (
	"time"
)

// SchemaVersion tags every persisted document. Loaders that meet a newer
// version than they understand must treat the document as absent.
const SchemaVersion = 1

// Document keys, one per persisted entity. The value layout under each key
// matches the browser-storage layout the service replaces: gameHistory is a
// JSON array (most-recent-first), the other three are JSON arrays of
// [key, value] pairs.
const (
	KeyGameHistory    = "gameHistory"
	KeyPlayerStats    = "playerStats"
	KeyPlayerBalances = "playerBalances"
	KeyUserProfiles   = "userProfiles"
)

type Document struct {
	Key       string    `gorm:"column:key;primaryKey;type:varchar(64)"`
	Version   int       `gorm:"column:version;not null;default:1"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (Document) TableName() string { return "documents" }
