package interfaces

import (
	"context"

	"github.com/ricardag/mailmirror/internal/models"
)

type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) (string, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmailAddress(ctx context.Context, emailAddress string) (*models.Account, error)
	List(ctx context.Context) ([]*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
	SetSyncStatus(ctx context.Context, id, status, errorMessage string) error
	// Delete removes the account and cascades to its folders and messages.
	Delete(ctx context.Context, id string) error
}

type FolderRepository interface {
	GetByRemoteID(ctx context.Context, accountID, remoteID string) (*models.Folder, error)
	// ListByAccount returns all folders of an account ordered by path.
	ListByAccount(ctx context.Context, accountID string) ([]*models.Folder, error)
	// ListTree returns the account's folders assembled into a tree, roots
	// ordered by path.
	ListTree(ctx context.Context, accountID string) ([]*models.Folder, error)
	// UpsertTree replaces the mirrored counts and names for the given
	// folders, keyed by (account, remote id), within one transaction.
	UpsertTree(ctx context.Context, accountID string, folders []*models.Folder) error
	DeleteByAccount(ctx context.Context, accountID string) error
}

type MessageRepository interface {
	GetByID(ctx context.Context, id string) (*models.Message, error)
	GetByMessageKey(ctx context.Context, accountID, messageKey string) (*models.Message, error)
	Create(ctx context.Context, message *models.Message) error
	// UpdateStatusFields overwrites only the mutable status projection:
	// is_read, is_draft, has_attachments, importance, flag_status.
	UpdateStatusFields(ctx context.Context, message *models.Message) error
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*models.Message, int64, error)
	ListByFolder(ctx context.Context, accountID, parentFolderID string, limit, offset int) ([]*models.Message, int64, error)
	CountByAccount(ctx context.Context, accountID string) (int64, error)
	DeleteByAccount(ctx context.Context, accountID string) error
	// WithTx runs fn against a repository bound to one transaction; the
	// transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(MessageRepository) error) error
}

type FolderSyncStateRepository interface {
	GetSyncState(ctx context.Context, accountID, folderName string) (*models.FolderSyncState, error)
	SaveSyncState(ctx context.Context, state *models.FolderSyncState) error
	DeleteSyncStates(ctx context.Context, accountID string) error
	GetSyncStates(ctx context.Context, accountID string) (map[string]uint32, error)
}
