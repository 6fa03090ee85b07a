package account

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mirror_errors "github.com/ricardag/mailmirror/errors"
	"github.com/ricardag/mailmirror/internal/enum"
	"github.com/ricardag/mailmirror/internal/logger"
	"github.com/ricardag/mailmirror/internal/models"
	"github.com/ricardag/mailmirror/internal/repository"
	"github.com/ricardag/mailmirror/internal/utils"
)

type fakeAccountRepository struct {
	accounts map[string]*models.Account
	deleted  []string
}

func newFakeAccountRepository() *fakeAccountRepository {
	return &fakeAccountRepository{accounts: make(map[string]*models.Account)}
}

func (r *fakeAccountRepository) Create(ctx context.Context, account *models.Account) (string, error) {
	if account.ID == "" {
		account.ID = utils.GenerateNanoIDWithPrefix("acct", 16)
	}
	copied := *account
	r.accounts[account.ID] = &copied
	return account.ID, nil
}

func (r *fakeAccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return r.accounts[id], nil
}

func (r *fakeAccountRepository) GetByEmailAddress(ctx context.Context, emailAddress string) (*models.Account, error) {
	for _, a := range r.accounts {
		if strings.EqualFold(a.EmailAddress, emailAddress) {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeAccountRepository) List(ctx context.Context) ([]*models.Account, error) {
	var out []*models.Account
	for _, a := range r.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeAccountRepository) Update(ctx context.Context, account *models.Account) error {
	copied := *account
	r.accounts[account.ID] = &copied
	return nil
}

func (r *fakeAccountRepository) SetSyncStatus(ctx context.Context, id, status, errorMessage string) error {
	return nil
}

func (r *fakeAccountRepository) Delete(ctx context.Context, id string) error {
	delete(r.accounts, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func newFixture() (*fakeAccountRepository, *accountService) {
	repo := newFakeAccountRepository()
	service := &accountService{
		repositories: &repository.Repositories{AccountRepository: repo},
		log:          getLogger(),
	}
	return repo, service
}

func validAccount() *models.Account {
	return &models.Account{
		Name:         "Work",
		EmailAddress: "user@example.com",
		Provider:     enum.ProviderOutlook,
	}
}

func TestCreateAccount_Valid(t *testing.T) {
	repo, service := newFixture()

	id, err := service.CreateAccount(context.Background(), validAccount())

	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Len(t, repo.accounts, 1)
}

func TestCreateAccount_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(a *models.Account)
		wantErr string
	}{
		{
			name:    "missing name",
			mutate:  func(a *models.Account) { a.Name = "  " },
			wantErr: "name is required",
		},
		{
			name:    "missing email",
			mutate:  func(a *models.Account) { a.EmailAddress = "" },
			wantErr: "email address is required",
		},
		{
			name:    "invalid email syntax",
			mutate:  func(a *models.Account) { a.EmailAddress = "not-an-address" },
			wantErr: "invalid email address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, service := newFixture()
			account := validAccount()
			tt.mutate(account)

			_, err := service.CreateAccount(context.Background(), account)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCreateAccount_ProviderMustBeSelected(t *testing.T) {
	_, service := newFixture()

	account := validAccount()
	account.Provider = enum.ProviderUnselected

	_, err := service.CreateAccount(context.Background(), account)
	assert.ErrorIs(t, err, mirror_errors.ErrProviderUnselected)

	account.Provider = ""
	_, err = service.CreateAccount(context.Background(), account)
	assert.ErrorIs(t, err, mirror_errors.ErrProviderUnselected)
}

func TestCreateAccount_DuplicateEmail(t *testing.T) {
	_, service := newFixture()

	_, err := service.CreateAccount(context.Background(), validAccount())
	require.NoError(t, err)

	duplicate := validAccount()
	duplicate.Name = "Other Name"
	duplicate.EmailAddress = "USER@Example.com"

	_, err = service.CreateAccount(context.Background(), duplicate)
	assert.ErrorIs(t, err, mirror_errors.ErrAccountExists)
}

func TestCreateAccount_DuplicateName(t *testing.T) {
	_, service := newFixture()

	_, err := service.CreateAccount(context.Background(), validAccount())
	require.NoError(t, err)

	duplicate := validAccount()
	duplicate.Name = "work"
	duplicate.EmailAddress = "other@example.com"

	_, err = service.CreateAccount(context.Background(), duplicate)
	assert.ErrorIs(t, err, mirror_errors.ErrAccountExists)
}

func TestUpdateAccount_DoesNotCollideWithItself(t *testing.T) {
	_, service := newFixture()

	account := validAccount()
	id, err := service.CreateAccount(context.Background(), account)
	require.NoError(t, err)

	account.ID = id
	account.UserName = "user"

	err = service.UpdateAccount(context.Background(), account)
	assert.NoError(t, err)
}

func TestUpdateAccount_UnknownAccount(t *testing.T) {
	_, service := newFixture()

	account := validAccount()
	account.ID = "acct_missing"

	err := service.UpdateAccount(context.Background(), account)
	assert.ErrorIs(t, err, mirror_errors.ErrAccountNotFound)
}

func TestGetAccount_Unknown(t *testing.T) {
	_, service := newFixture()

	account, err := service.GetAccount(context.Background(), "acct_missing")

	assert.Nil(t, account)
	assert.ErrorIs(t, err, mirror_errors.ErrAccountNotFound)
}

func TestDeleteAccount_RemovesAccount(t *testing.T) {
	repo, service := newFixture()

	id, err := service.CreateAccount(context.Background(), validAccount())
	require.NoError(t, err)

	err = service.DeleteAccount(context.Background(), id)

	require.NoError(t, err)
	assert.Empty(t, repo.accounts)
	assert.Equal(t, []string{id}, repo.deleted)
}
