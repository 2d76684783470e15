package google

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestTokenFileRoundTrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "google.token")
	a := NewFlowAuthorizer("id", "secret", file, nil)

	require.NoError(t, a.writeToken(&oauth2.Token{
		AccessToken:  "access-abc",
		RefreshToken: "refresh-xyz",
	}))

	tok, err := a.readToken()
	require.NoError(t, err)
	assert.Equal(t, "access-abc", tok.AccessToken)
	assert.Equal(t, "refresh-xyz", tok.RefreshToken)
	assert.True(t, tok.Expiry.Before(time.Now()),
		"cached tokens must read back expired so the token source refreshes them")
}

func TestReadTokenRejectsMalformedFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "google.token")
	require.NoError(t, os.WriteFile(file, []byte("only-one-field"), 0600))

	a := NewFlowAuthorizer("id", "secret", file, nil)
	_, err := a.readToken()
	assert.Error(t, err)
}

func TestReadTokenMissingFile(t *testing.T) {
	a := NewFlowAuthorizer("id", "secret", filepath.Join(t.TempDir(), "absent"), nil)
	_, err := a.readToken()
	assert.Error(t, err)
}

func TestDefaultTokenFileRespectsXDGCacheHome(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/cache")
	assert.Equal(t, filepath.Join("/tmp/cache", "sitecal", "google.token"), DefaultTokenFile())
}
