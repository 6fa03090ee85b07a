package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/ricardag/mailmirror/config"
	"github.com/ricardag/mailmirror/interfaces"
	"github.com/ricardag/mailmirror/internal/models"
)

type Repositories struct {
	AccountRepository         interfaces.AccountRepository
	FolderRepository          interfaces.FolderRepository
	MessageRepository         interfaces.MessageRepository
	FolderSyncStateRepository interfaces.FolderSyncStateRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		AccountRepository:         NewAccountRepository(db),
		FolderRepository:          NewFolderRepository(db),
		MessageRepository:         NewMessageRepository(db),
		FolderSyncStateRepository: NewFolderSyncStateRepository(db),
	}
}

func MigrateDB(dbConfig *config.DatabaseConfig, gormDB *gorm.DB) error {
	db, err := gormDB.DB()
	if err != nil {
		return err
	}

	db.SetMaxOpenConns(5)

	err = gormDB.AutoMigrate(
		&models.Account{},
		&models.Folder{},
		&models.Message{},
		&models.FolderSyncState{},
	)

	db.Close()

	db, _ = gormDB.DB()
	db.SetMaxIdleConns(dbConfig.MaxIdleConn)
	db.SetMaxOpenConns(dbConfig.MaxConn)
	db.SetConnMaxLifetime(time.Duration(dbConfig.ConnMaxLifetime) * time.Minute)

	return err
}
