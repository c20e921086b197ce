package google

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// Credentials selects how the Drive connector authenticates.
// A service account key takes precedence over a saved user token.
type Credentials struct {
	// ServiceAccountFile is a JSON key for a service account.
	ServiceAccountFile string

	// TokenFile holds a saved oauth2.Token as JSON. ClientID and
	// ClientSecret are required to refresh it.
	TokenFile    string
	ClientID     string
	ClientSecret string
}

// Scopes requested by the connector.
var Scopes = []string{drive.DriveReadonlyScope}

// NewTokenSource creates a refreshing oauth2.TokenSource from creds.
func NewTokenSource(ctx context.Context, creds Credentials) (oauth2.TokenSource, error) {
	switch {
	case creds.ServiceAccountFile != "":
		data, err := os.ReadFile(creds.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account key: %w", err)
		}
		c, err := googleoauth.CredentialsFromJSON(ctx, data, Scopes...)
		if err != nil {
			return nil, fmt.Errorf("%w: parse service account key: %v", domain.ErrConfiguration, err)
		}
		return c.TokenSource, nil

	case creds.TokenFile != "":
		tok, err := LoadToken(creds.TokenFile)
		if err != nil {
			return nil, err
		}
		cfg := &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint:     googleoauth.Endpoint,
			Scopes:       Scopes,
		}
		return cfg.TokenSource(ctx, tok), nil

	default:
		return nil, fmt.Errorf("%w: drive credentials are not configured", domain.ErrConfiguration)
	}
}

// LoadToken reads a JSON encoded oauth2.Token.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("%w: parse token file: %v", domain.ErrConfiguration, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token file has neither access nor refresh token", domain.ErrConfiguration)
	}
	return &tok, nil
}

// SaveToken writes tok to path as JSON, readable only by the owner.
func SaveToken(path string, tok *oauth2.Token) error {
	if tok == nil {
		return fmt.Errorf("%w: token is nil", domain.ErrInvalidInput)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}
