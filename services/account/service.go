package account

import (
	"context"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	mirror_errors "github.com/ricardag/mailmirror/errors"
	"github.com/ricardag/mailmirror/interfaces"
	"github.com/ricardag/mailmirror/internal/enum"
	"github.com/ricardag/mailmirror/internal/logger"
	"github.com/ricardag/mailmirror/internal/models"
	"github.com/ricardag/mailmirror/internal/repository"
	"github.com/ricardag/mailmirror/internal/tracing"
	"github.com/ricardag/mailmirror/internal/utils"
	"github.com/ricardag/mailmirror/services/auth"
)

type accountService struct {
	repositories *repository.Repositories
	tokenCache   *auth.TokenCache
	log          logger.Logger
}

func NewAccountService(repositories *repository.Repositories, tokenCache *auth.TokenCache, log logger.Logger) interfaces.AccountService {
	return &accountService{
		repositories: repositories,
		tokenCache:   tokenCache,
		log:          log,
	}
}

func (s *accountService) CreateAccount(ctx context.Context, account *models.Account) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AccountService.CreateAccount")
	defer span.Finish()
	tracing.TagComponentService(span)

	if err := s.validate(ctx, account, ""); err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}

	id, err := s.repositories.AccountRepository.Create(ctx, account)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}

	s.log.Infof("created account %s for %s", id, account.EmailAddress)
	return id, nil
}

func (s *accountService) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AccountService.GetAccount")
	defer span.Finish()
	tracing.TagComponentService(span)
	tracing.TagAccount(span, id)

	account, err := s.repositories.AccountRepository.GetByID(ctx, id)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if account == nil {
		return nil, mirror_errors.ErrAccountNotFound
	}
	return account, nil
}

func (s *accountService) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AccountService.ListAccounts")
	defer span.Finish()
	tracing.TagComponentService(span)

	return s.repositories.AccountRepository.List(ctx)
}

func (s *accountService) UpdateAccount(ctx context.Context, account *models.Account) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AccountService.UpdateAccount")
	defer span.Finish()
	tracing.TagComponentService(span)
	tracing.TagAccount(span, account.ID)

	existing, err := s.repositories.AccountRepository.GetByID(ctx, account.ID)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if existing == nil {
		return mirror_errors.ErrAccountNotFound
	}

	if err := s.validate(ctx, account, account.ID); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	return s.repositories.AccountRepository.Update(ctx, account)
}

func (s *accountService) DeleteAccount(ctx context.Context, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AccountService.DeleteAccount")
	defer span.Finish()
	tracing.TagComponentService(span)
	tracing.TagAccount(span, id)

	if err := s.repositories.AccountRepository.Delete(ctx, id); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	if s.tokenCache != nil {
		if err := s.tokenCache.Delete(id); err != nil {
			s.log.Warnf("failed to drop cached credentials for account %s: %v", id, err)
		}
	}

	s.log.Infof("deleted account %s", id)
	return nil
}

// validate enforces the account form rules. selfID is set on updates so the
// account does not collide with itself.
func (s *accountService) validate(ctx context.Context, account *models.Account, selfID string) error {
	if account == nil {
		return errors.New("account is required")
	}

	account.Name = strings.TrimSpace(account.Name)
	account.EmailAddress = strings.ToLower(strings.TrimSpace(account.EmailAddress))

	if account.Name == "" {
		return errors.New("account name is required")
	}
	if account.EmailAddress == "" {
		return errors.New("email address is required")
	}
	if !utils.IsValidEmailAddress(account.EmailAddress) {
		return errors.Errorf("invalid email address %q", account.EmailAddress)
	}
	if account.Provider == "" || account.Provider == enum.ProviderUnselected {
		return mirror_errors.ErrProviderUnselected
	}

	byEmail, err := s.repositories.AccountRepository.GetByEmailAddress(ctx, account.EmailAddress)
	if err != nil {
		return err
	}
	if byEmail != nil && byEmail.ID != selfID {
		return mirror_errors.ErrAccountExists
	}

	accounts, err := s.repositories.AccountRepository.List(ctx)
	if err != nil {
		return err
	}
	for _, other := range accounts {
		if other.ID != selfID && strings.EqualFold(other.Name, account.Name) {
			return mirror_errors.ErrAccountExists
		}
	}

	return nil
}
