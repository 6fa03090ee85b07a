package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	custom_err "github.com/ricardag/mailmirror/api/errors"
	"github.com/ricardag/mailmirror/interfaces"
	"github.com/ricardag/mailmirror/internal/enum"
	"github.com/ricardag/mailmirror/internal/models"
	"github.com/ricardag/mailmirror/internal/repository"
	"github.com/ricardag/mailmirror/internal/tracing"
	"github.com/ricardag/mailmirror/services"
	"github.com/ricardag/mailmirror/services/auth"
	"github.com/ricardag/mailmirror/services/providers/imapcli"
)

type AccountsHandler struct {
	accountService interfaces.AccountService
	syncService    interfaces.SyncService
	tokenCache     *auth.TokenCache
	repositories   *repository.Repositories
}

func NewAccountsHandler(s *services.Services, r *repository.Repositories) *AccountsHandler {
	return &AccountsHandler{
		accountService: s.AccountService,
		syncService:    s.SyncService,
		tokenCache:     s.TokenCache,
		repositories:   r,
	}
}

type AccountRequest struct {
	Name         string `json:"name"`
	UserName     string `json:"userName"`
	EmailAddress string `json:"emailAddress"`
	Provider     string `json:"provider"`
}

type IMAPCredentialsRequest struct {
	Server   string `json:"server"`
	Port     int    `json:"port"`
	TLS      bool   `json:"tls"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type OAuthTokenRequest struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	TokenType    string    `json:"tokenType"`
	Expiry       time.Time `json:"expiry"`
}

// List returns all configured accounts
func (h *AccountsHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		accounts, err := h.accountService.ListAccounts(ctx)
		if err != nil {
			c.JSON(custom_err.StatusFor(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"accounts": accounts})
	}
}

// Get returns one account by id
func (h *AccountsHandler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		account, err := h.accountService.GetAccount(ctx, c.Param("id"))
		if err != nil {
			c.JSON(custom_err.StatusFor(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, account)
	}
}

// Create registers a new account
func (h *AccountsHandler) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "AccountsHandler.Create", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		request, err := h.validateAccountRequest(c)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		account := models.Account{
			Name:         request.Name,
			UserName:     request.UserName,
			EmailAddress: request.EmailAddress,
			Provider:     enum.DecodeAccountProvider(request.Provider),
		}

		id, err := h.accountService.CreateAccount(ctx, &account)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(custom_err.StatusFor(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"status": "account created", "id": id})
	}
}

// Update modifies an existing account
func (h *AccountsHandler) Update() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "AccountsHandler.Update", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)
		tracing.TagEntity(span, c.Param("id"))

		request, err := h.validateAccountRequest(c)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		account := models.Account{
			ID:           c.Param("id"),
			Name:         request.Name,
			UserName:     request.UserName,
			EmailAddress: request.EmailAddress,
			Provider:     enum.DecodeAccountProvider(request.Provider),
		}

		if err := h.accountService.UpdateAccount(ctx, &account); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(custom_err.StatusFor(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "account updated", "id": account.ID})
	}
}

// Delete removes an account with its mirrored folders, messages and cached
// credentials
func (h *AccountsHandler) Delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "AccountsHandler.Delete", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)
		tracing.TagEntity(span, c.Param("id"))

		id := c.Param("id")
		if err := h.accountService.DeleteAccount(ctx, id); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(custom_err.StatusFor(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "account removed", "id": id})
	}
}

// Sync triggers one fetch-then-reconcile cycle and returns its report
func (h *AccountsHandler) Sync() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "AccountsHandler.Sync", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)
		tracing.TagAccount(span, c.Param("id"))

		report, err := h.syncService.SyncAccount(ctx, c.Param("id"))
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(custom_err.StatusFor(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, report)
	}
}

// SetIMAPCredentials stores IMAP connection credentials for an account
func (h *AccountsHandler) SetIMAPCredentials() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "AccountsHandler.SetIMAPCredentials", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)
		tracing.TagAccount(span, c.Param("id"))

		account, err := h.accountService.GetAccount(ctx, c.Param("id"))
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(custom_err.StatusFor(err), gin.H{"error": err.Error()})
			return
		}

		var request IMAPCredentialsRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if request.Server == "" || request.Username == "" || request.Password == "" {
			err := errors.New("server, username and password are required")
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if request.Port == 0 {
			request.Port = 993
			request.TLS = true
		}

		creds := imapcli.Credentials{
			Server:   request.Server,
			Port:     request.Port,
			TLS:      request.TLS,
			Username: request.Username,
			Password: request.Password,
		}
		if err := h.tokenCache.SaveIMAPCredentials(account.ID, &creds); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "credentials stored", "id": account.ID})
	}
}

// SetOAuthToken stores an OAuth token for an outlook or gmail account
func (h *AccountsHandler) SetOAuthToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "AccountsHandler.SetOAuthToken", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)
		tracing.TagAccount(span, c.Param("id"))

		account, err := h.accountService.GetAccount(ctx, c.Param("id"))
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(custom_err.StatusFor(err), gin.H{"error": err.Error()})
			return
		}

		var request OAuthTokenRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if request.RefreshToken == "" && request.AccessToken == "" {
			err := errors.New("accessToken or refreshToken is required")
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		token := oauth2.Token{
			AccessToken:  request.AccessToken,
			RefreshToken: request.RefreshToken,
			TokenType:    request.TokenType,
			Expiry:       request.Expiry,
		}
		if err := h.tokenCache.SaveToken(account.ID, &token); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "token stored", "id": account.ID})
	}
}

func (h *AccountsHandler) validateAccountRequest(c *gin.Context) (*AccountRequest, error) {
	errs := custom_err.NewMultiErrors()

	var request AccountRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		errs.Add("request", "please provide a valid request payload", errors.New("cannot parse request"))
		return nil, errs
	}

	if request.Name == "" {
		errs.Add("name", "display name is required", errors.New("missing name"))
	}
	if request.EmailAddress == "" {
		errs.Add("emailAddress", "email address is required", errors.New("missing email address"))
	}
	if enum.DecodeAccountProvider(request.Provider) == enum.ProviderUnselected {
		errs.Add("provider", "provider must be one of outlook, gmail, imap", errors.New("invalid provider"))
	}

	if errs.HasErrors() {
		return nil, errs
	}
	return &request, nil
}
