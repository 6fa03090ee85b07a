package models

import (
	"time"
)

// FolderSyncState is the per-folder checkpoint for incremental providers.
// UID-based backends (IMAP) resume from LastUID; page-based backends only
// stamp LastSync.
type FolderSyncState struct {
	ID         string    `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	AccountID  string    `gorm:"column:account_id;type:varchar(50);index;not null"`
	FolderName string    `gorm:"column:folder_name;type:varchar(255);index;not null"`
	LastUID    uint32    `gorm:"column:last_uid;not null"`
	LastSync   time.Time `gorm:"column:last_sync;type:timestamp;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
	UpdatedAt  time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp"`
}

func (FolderSyncState) TableName() string {
	return "folder_sync_states"
}
