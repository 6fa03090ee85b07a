package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/ricardag/mailmirror/services/providers/imapcli"
)

// TokenCache stores one credential file per account under a local directory.
// OAuth providers cache an oauth2 token, IMAP accounts their connection
// settings.
type TokenCache struct {
	dir string
}

func NewTokenCache(dir string) (*TokenCache, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "failed to create token directory")
	}
	return &TokenCache{dir: dir}, nil
}

func (c *TokenCache) tokenPath(accountID string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s.token.json", accountID))
}

func (c *TokenCache) credentialsPath(accountID string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s.imap.json", accountID))
}

// LoadToken returns the cached OAuth token, or nil when none exists.
func (c *TokenCache) LoadToken(accountID string) (*oauth2.Token, error) {
	data, err := os.ReadFile(c.tokenPath(accountID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read token file")
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, errors.Wrap(err, "failed to parse token file")
	}
	return &token, nil
}

func (c *TokenCache) SaveToken(accountID string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal token")
	}
	if err := os.WriteFile(c.tokenPath(accountID), data, 0o600); err != nil {
		return errors.Wrap(err, "failed to write token file")
	}
	return nil
}

// LoadIMAPCredentials returns the cached IMAP settings, or nil when none
// exist.
func (c *TokenCache) LoadIMAPCredentials(accountID string) (*imapcli.Credentials, error) {
	data, err := os.ReadFile(c.credentialsPath(accountID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read credentials file")
	}

	var creds imapcli.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, errors.Wrap(err, "failed to parse credentials file")
	}
	return &creds, nil
}

func (c *TokenCache) SaveIMAPCredentials(accountID string, creds *imapcli.Credentials) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal credentials")
	}
	if err := os.WriteFile(c.credentialsPath(accountID), data, 0o600); err != nil {
		return errors.Wrap(err, "failed to write credentials file")
	}
	return nil
}

// Delete drops every cached credential of the account.
func (c *TokenCache) Delete(accountID string) error {
	for _, path := range []string{c.tokenPath(accountID), c.credentialsPath(accountID)} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, "failed to remove credential file")
		}
	}
	return nil
}
