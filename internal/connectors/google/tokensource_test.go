package google

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

func TestNewTokenSource_SavedToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"access_token":"ya29.abc","token_type":"Bearer","expiry":"2999-01-01T00:00:00Z"}`), 0o600))

	ts, err := NewTokenSource(context.Background(), Credentials{TokenFile: path, ClientID: "id", ClientSecret: "secret"})
	require.NoError(t, err)

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "ya29.abc", tok.AccessToken)
}

func TestNewTokenSource_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewTokenSource(ctx, Credentials{})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	empty := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{}`), 0o600))
	_, err = NewTokenSource(ctx, Credentials{TokenFile: empty})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = NewTokenSource(ctx, Credentials{TokenFile: filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(bad, []byte(`not json`), 0o600))
	_, err = NewTokenSource(ctx, Credentials{ServiceAccountFile: bad})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestSaveToken_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	tok := &oauth2.Token{AccessToken: "ya29.saved", RefreshToken: "1//refresh", TokenType: "Bearer"}

	require.NoError(t, SaveToken(path, tok))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "ya29.saved", loaded.AccessToken)
	assert.Equal(t, "1//refresh", loaded.RefreshToken)
}

func TestSaveToken_Nil(t *testing.T) {
	err := SaveToken(filepath.Join(t.TempDir(), "token.json"), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
