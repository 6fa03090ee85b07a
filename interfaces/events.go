package interfaces

import (
	"context"

	"github.com/ricardag/mailmirror/internal/models"
)

type EventPublisher interface {
	PublishEmailMirrored(ctx context.Context, message *models.Message, created bool) error
	PublishFolderTreeSynced(ctx context.Context, accountID string, folderCount int) error
	Close() error
}
