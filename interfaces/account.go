package interfaces

import (
	"context"

	"github.com/ricardag/mailmirror/internal/models"
)

// AccountService owns account lifecycle and validation.
type AccountService interface {
	// CreateAccount validates and stores a new account: syntactically valid
	// unique email address, unique display name, provider selected.
	CreateAccount(ctx context.Context, account *models.Account) (string, error)
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]*models.Account, error)
	UpdateAccount(ctx context.Context, account *models.Account) error
	// DeleteAccount removes the account, its mirrored data and its cached
	// credentials.
	DeleteAccount(ctx context.Context, id string) error
}
