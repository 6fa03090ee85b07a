package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/ricardag/mailmirror/internal/enum"
	"github.com/ricardag/mailmirror/internal/utils"
)

// Account is a configured mailbox identity. Deleting an account cascades to
// its folders and messages.
type Account struct {
	ID           string               `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	Provider     enum.AccountProvider `gorm:"column:provider;type:varchar(50);index;not null" json:"provider"`
	Name         string               `gorm:"column:name;type:varchar(255);not null" json:"name"`
	UserName     string               `gorm:"column:user_name;type:varchar(255)" json:"userName"`
	EmailAddress string               `gorm:"column:email_address;type:varchar(255);uniqueIndex;not null" json:"emailAddress"`

	// Status information
	LastSyncedAt *time.Time `gorm:"column:last_synced_at;type:timestamp" json:"lastSyncedAt"`
	SyncStatus   string     `gorm:"column:sync_status;type:varchar(50)" json:"syncStatus"`
	ErrorMessage string     `gorm:"column:error_message;type:text" json:"errorMessage"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (Account) TableName() string {
	return "accounts"
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = utils.GenerateNanoIDWithPrefix("acct", 16)
	}
	a.CreatedAt = utils.Now()
	return nil
}
