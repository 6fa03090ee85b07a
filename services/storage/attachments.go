package storage

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/ricardag/mailmirror/interfaces"
	"github.com/ricardag/mailmirror/internal/logger"
	"github.com/ricardag/mailmirror/internal/models"
	"github.com/ricardag/mailmirror/internal/tracing"
	"github.com/ricardag/mailmirror/internal/utils"
)

// AttachmentStore serves attachment content. Metadata lives on the message
// row; blobs are fetched from the provider on first access and cached in
// object storage.
type AttachmentStore struct {
	storage interfaces.StorageService
	factory interfaces.MailClientFactory
	log     logger.Logger
}

func NewAttachmentStore(storage interfaces.StorageService, factory interfaces.MailClientFactory, log logger.Logger) *AttachmentStore {
	return &AttachmentStore{
		storage: storage,
		factory: factory,
		log:     log,
	}
}

// Fetch returns an attachment's content and content type, reading the blob
// cache first and falling back to the provider.
func (s *AttachmentStore) Fetch(ctx context.Context, account *models.Account, message *models.Message, attachmentID string) ([]byte, string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AttachmentStore.Fetch")
	defer span.Finish()
	tracing.TagComponentService(span)
	tracing.TagAccount(span, account.ID)
	tracing.TagEntity(span, message.ID)

	var info *models.AttachmentInfo
	for i := range message.Attachments {
		if message.Attachments[i].ID == attachmentID {
			info = &message.Attachments[i]
			break
		}
	}
	if info == nil {
		err := errors.Errorf("attachment %s not found on message %s", attachmentID, message.ID)
		tracing.TraceErr(span, err)
		return nil, "", err
	}

	key := attachmentKey(account.ID, message.ID, info)

	if s.storage != nil {
		if content, err := s.storage.Download(ctx, key); err == nil && len(content) > 0 {
			span.SetTag("cache-hit", true)
			return content, info.ContentType, nil
		}
	}

	client, err := s.factory.ClientFor(ctx, account)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, "", err
	}

	content, contentType, err := client.FetchAttachment(ctx, message.ProviderID, attachmentID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, "", err
	}
	if contentType == "" {
		contentType = info.ContentType
	}

	if s.storage != nil {
		if err := s.storage.Upload(ctx, key, content, contentType); err != nil {
			s.log.Warnf("failed to cache attachment %s: %v", key, err)
		}
	}

	return content, contentType, nil
}

func attachmentKey(accountID, messageID string, info *models.AttachmentInfo) string {
	extension := utils.GetFileExtensionFromContentType(info.ContentType)
	return fmt.Sprintf("%s/%s/%s.%s", accountID, messageID, info.ID, extension)
}
