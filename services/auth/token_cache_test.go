package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/ricardag/mailmirror/services/providers/imapcli"
)

func newTestCache(t *testing.T) *TokenCache {
	cache, err := NewTokenCache(t.TempDir())
	require.NoError(t, err)
	return cache
}

func TestTokenCache_SaveAndLoadToken(t *testing.T) {
	cache := newTestCache(t)

	token := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, cache.SaveToken("acct_1", token))

	loaded, err := cache.LoadToken("acct_1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "access", loaded.AccessToken)
	assert.Equal(t, "refresh", loaded.RefreshToken)
	assert.True(t, token.Expiry.Equal(loaded.Expiry))
}

func TestTokenCache_LoadMissingToken(t *testing.T) {
	cache := newTestCache(t)

	token, err := cache.LoadToken("acct_unknown")

	assert.NoError(t, err)
	assert.Nil(t, token)
}

func TestTokenCache_SaveAndLoadIMAPCredentials(t *testing.T) {
	cache := newTestCache(t)

	creds := &imapcli.Credentials{
		Server:   "imap.example.com",
		Port:     993,
		TLS:      true,
		Username: "user@example.com",
		Password: "secret",
	}
	require.NoError(t, cache.SaveIMAPCredentials("acct_1", creds))

	loaded, err := cache.LoadIMAPCredentials("acct_1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "imap.example.com", loaded.Server)
	assert.Equal(t, 993, loaded.Port)
	assert.True(t, loaded.TLS)
}

func TestTokenCache_DeleteRemovesBothKinds(t *testing.T) {
	cache := newTestCache(t)

	require.NoError(t, cache.SaveToken("acct_1", &oauth2.Token{AccessToken: "access"}))
	require.NoError(t, cache.SaveIMAPCredentials("acct_1", &imapcli.Credentials{Server: "imap.example.com"}))

	require.NoError(t, cache.Delete("acct_1"))

	token, err := cache.LoadToken("acct_1")
	assert.NoError(t, err)
	assert.Nil(t, token)

	creds, err := cache.LoadIMAPCredentials("acct_1")
	assert.NoError(t, err)
	assert.Nil(t, creds)
}
