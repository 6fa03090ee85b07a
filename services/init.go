package services

import (
	"github.com/ricardag/mailmirror/config"
	"github.com/ricardag/mailmirror/interfaces"
	"github.com/ricardag/mailmirror/internal/logger"
	"github.com/ricardag/mailmirror/internal/repository"
	"github.com/ricardag/mailmirror/services/account"
	"github.com/ricardag/mailmirror/services/auth"
	"github.com/ricardag/mailmirror/services/events"
	"github.com/ricardag/mailmirror/services/storage"
	"github.com/ricardag/mailmirror/services/sync"
)

type Services struct {
	TokenCache      *auth.TokenCache
	ClientFactory   interfaces.MailClientFactory
	EventPublisher  interfaces.EventPublisher
	AccountService  interfaces.AccountService
	SyncService     interfaces.SyncService
	AttachmentStore *storage.AttachmentStore
}

func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) (*Services, error) {
	tokenCache, err := auth.NewTokenCache(cfg.AuthConfig.TokenDir)
	if err != nil {
		return nil, err
	}

	clientFactory := auth.NewMailClientFactory(cfg, tokenCache, log)

	var publisher interfaces.EventPublisher
	if cfg.AppConfig.RabbitMQURL != "" {
		rabbitPublisher, err := events.NewRabbitMQPublisher(cfg.AppConfig.RabbitMQURL, cfg.AppConfig.AppSource, log, nil)
		if err != nil {
			return nil, err
		}
		publisher = rabbitPublisher
	}

	var attachmentStorage interfaces.StorageService
	if cfg.R2StorageConfig.AccountID != "" {
		attachmentStorage = storage.NewR2StorageService(
			cfg.R2StorageConfig.AccountID,
			cfg.R2StorageConfig.AccessKeyID,
			cfg.R2StorageConfig.AccessKeySecret,
			cfg.R2StorageConfig.AttachmentBucket,
			false, // private access
		)
	}

	services := Services{
		TokenCache:      tokenCache,
		ClientFactory:   clientFactory,
		EventPublisher:  publisher,
		AccountService:  account.NewAccountService(repos, tokenCache, log),
		SyncService:     sync.NewSyncService(repos, clientFactory, publisher, cfg.SyncConfig, log),
		AttachmentStore: storage.NewAttachmentStore(attachmentStorage, clientFactory, log),
	}

	return &services, nil
}
