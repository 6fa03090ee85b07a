package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/ricardag/mailmirror/internal/utils"
)

// Folder mirrors one node of a remote folder hierarchy. RemoteID is unique
// within an account; the parent link forms a tree rooted at folders with no
// parent. Path is the materialized path used for alphabetic ordering.
type Folder struct {
	ID          string     `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	AccountID   string     `gorm:"column:account_id;type:varchar(50);uniqueIndex:uq_folder_remote_account;index;not null" json:"accountId"`
	RemoteID    string     `gorm:"column:remote_id;type:varchar(256);uniqueIndex:uq_folder_remote_account;not null" json:"remoteId"`
	Path        string     `gorm:"column:path;type:varchar(1024);index;not null" json:"path"`
	DisplayName string     `gorm:"column:display_name;type:varchar(255);not null" json:"displayName"`
	TotalCount  int        `gorm:"column:total_count" json:"totalCount"`
	UnreadCount int        `gorm:"column:unread_count" json:"unreadCount"`
	SyncedAt    *time.Time `gorm:"column:synced_at;type:timestamp" json:"syncedAt"`

	// ParentRemoteID is empty for root folders.
	ParentRemoteID string `gorm:"column:parent_remote_id;type:varchar(256);index" json:"parentRemoteId"`

	// Children is assembled in memory from ParentRemoteID, ordered by Path.
	Children []*Folder `gorm:"-" json:"children,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (Folder) TableName() string {
	return "folders"
}

func (f *Folder) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = utils.GenerateNanoIDWithPrefix("fldr", 16)
	}
	f.CreatedAt = utils.Now()
	return nil
}
