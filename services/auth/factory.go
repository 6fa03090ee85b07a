package auth

import (
	"context"
	"net/http"

	"github.com/opentracing/opentracing-go"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/ricardag/mailmirror/config"
	mirror_errors "github.com/ricardag/mailmirror/errors"
	"github.com/ricardag/mailmirror/interfaces"
	"github.com/ricardag/mailmirror/internal/enum"
	"github.com/ricardag/mailmirror/internal/logger"
	"github.com/ricardag/mailmirror/internal/models"
	"github.com/ricardag/mailmirror/internal/tracing"
	"github.com/ricardag/mailmirror/services/providers/gmail"
	"github.com/ricardag/mailmirror/services/providers/imapcli"
	"github.com/ricardag/mailmirror/services/providers/outlook"
)

const graphMailScope = "https://graph.microsoft.com/Mail.Read"

type clientFactory struct {
	cfg   *config.Config
	cache *TokenCache
	log   logger.Logger
}

func NewMailClientFactory(cfg *config.Config, cache *TokenCache, log logger.Logger) interfaces.MailClientFactory {
	return &clientFactory{
		cfg:   cfg,
		cache: cache,
		log:   log,
	}
}

// ClientFor resolves an authenticated client for the account from the local
// credential cache.
func (f *clientFactory) ClientFor(ctx context.Context, account *models.Account) (interfaces.MailClient, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ClientFactory.ClientFor")
	defer span.Finish()
	tracing.TagComponentService(span)
	tracing.TagAccount(span, account.ID)
	tracing.TagProvider(span, string(account.Provider))

	switch account.Provider {
	case enum.ProviderOutlook:
		httpClient, err := f.oauthHTTPClient(ctx, account.ID, f.outlookOAuthConfig())
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
		return outlook.NewOutlookClient(f.cfg.OutlookConfig, f.cfg.SyncConfig, httpClient, f.log), nil

	case enum.ProviderGmail:
		httpClient, err := f.oauthHTTPClient(ctx, account.ID, f.gmailOAuthConfig())
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
		return gmail.NewGmailClient(f.cfg.GmailConfig, f.cfg.SyncConfig, httpClient, f.log), nil

	case enum.ProviderIMAP:
		creds, err := f.cache.LoadIMAPCredentials(account.ID)
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
		if creds == nil {
			tracing.TraceErr(span, mirror_errors.ErrNoUsableClient)
			return nil, mirror_errors.ErrNoUsableClient
		}
		return imapcli.NewIMAPClient(*creds, f.log), nil

	default:
		tracing.TraceErr(span, mirror_errors.ErrProviderUnselected)
		return nil, mirror_errors.ErrProviderUnselected
	}
}

func (f *clientFactory) outlookOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID: f.cfg.OutlookConfig.ClientID,
		Endpoint: endpoints.AzureAD(f.cfg.OutlookConfig.TenantID),
		Scopes:   []string{graphMailScope, "offline_access"},
	}
}

func (f *clientFactory) gmailOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     f.cfg.GmailConfig.ClientID,
		ClientSecret: f.cfg.GmailConfig.ClientSecret,
		Endpoint:     endpoints.Google,
		Scopes:       []string{"https://www.googleapis.com/auth/gmail.readonly"},
	}
}

// oauthHTTPClient builds an http client around the cached token. Refreshed
// tokens are written back to the cache.
func (f *clientFactory) oauthHTTPClient(ctx context.Context, accountID string, oauthConfig *oauth2.Config) (*http.Client, error) {
	token, err := f.cache.LoadToken(accountID)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, mirror_errors.ErrNoUsableClient
	}

	source := &savingTokenSource{
		accountID: accountID,
		cache:     f.cache,
		log:       f.log,
		wrapped:   oauthConfig.TokenSource(ctx, token),
		last:      token,
	}
	return oauth2.NewClient(ctx, source), nil
}

type savingTokenSource struct {
	accountID string
	cache     *TokenCache
	log       logger.Logger
	wrapped   oauth2.TokenSource
	last      *oauth2.Token
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.wrapped.Token()
	if err != nil {
		return nil, err
	}
	if s.last == nil || token.AccessToken != s.last.AccessToken {
		if err := s.cache.SaveToken(s.accountID, token); err != nil {
			s.log.Warnf("failed to persist refreshed token for account %s: %v", s.accountID, err)
		}
		s.last = token
	}
	return token, nil
}
