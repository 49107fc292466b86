package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

func writeClientSecrets(t *testing.T, tokenURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "client_secrets.json")
	content := fmt.Sprintf(`{
  "installed": {
    "client_id": "test-client.apps.googleusercontent.com",
    "client_secret": "test-secret",
    "auth_uri": "https://accounts.example.com/o/oauth2/auth",
    "token_uri": %q,
    "redirect_uris": ["http://localhost"]
  }
}`, tokenURL)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// completeConsent plays the browser: it calls the redirect URI from the
// consent URL with the given code and state.
func completeConsent(code string, overrideState string) func(string) error {
	return func(authURL string) error {
		u, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		q := u.Query()
		state := q.Get("state")
		if overrideState != "" {
			state = overrideState
		}
		callback := q.Get("redirect_uri") + "?" + url.Values{"code": {code}, "state": {state}}.Encode()
		resp, err := http.Get(callback)
		if err != nil {
			return err
		}
		return resp.Body.Close()
	}
}

func TestOAuthFlow_Interactive(t *testing.T) {
	idToken := mintIDToken(t, "oauth@example.com", time.Now().Add(time.Hour))
	server := newTokenServer(t, map[string]any{
		"access_token":  "access-1",
		"refresh_token": "refresh-1",
		"token_type":    "Bearer",
		"expires_in":    3600,
		"id_token":      idToken,
	})

	var out bytes.Buffer
	var consentURL string
	store := NewStore(filepath.Join(t.TempDir(), "credentials.json"))
	flow := &OAuthFlow{
		ClientSecretsPath: writeClientSecrets(t, server.URL),
		Store:             store,
		Out:               &out,
		OpenBrowser: func(u string) error {
			consentURL = u
			return completeConsent("auth-code", "")(u)
		},
	}

	creds, err := flow.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-1", creds.Token)
	assert.Equal(t, "refresh-1", creds.RefreshToken)
	assert.Equal(t, idToken, creds.IDToken)
	assert.Equal(t, "oauth@example.com", creds.UserEmail)
	assert.Equal(t, server.URL, creds.TokenURI)
	assert.ElementsMatch(t, RequiredScopes, creds.Scopes)

	u, err := url.Parse(consentURL)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Contains(t, q.Get("redirect_uri"), "http://127.0.0.1:")
	assert.Contains(t, out.String(), consentURL)

	req := server.lastRequest()
	assert.Equal(t, "authorization_code", req["grant_type"])
	assert.Equal(t, "auth-code", req["code"])
	assert.NotEmpty(t, req["code_verifier"])

	saved, ok := store.Load()
	require.True(t, ok)
	assert.Equal(t, "refresh-1", saved.RefreshToken)
}

func TestOAuthFlow_StateMismatch(t *testing.T) {
	server := newTokenServer(t, map[string]any{})
	flow := &OAuthFlow{
		ClientSecretsPath: writeClientSecrets(t, server.URL),
		Store:             NewStore(filepath.Join(t.TempDir(), "credentials.json")),
		Out:               &bytes.Buffer{},
		OpenBrowser:       completeConsent("auth-code", "forged"),
	}

	_, err := flow.Run(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, err.Error(), "state mismatch")
	assert.Equal(t, 0, server.requestCount())
}

func TestOAuthFlow_CancelledWhileWaiting(t *testing.T) {
	server := newTokenServer(t, map[string]any{})
	ctx, cancel := context.WithCancel(context.Background())

	flow := &OAuthFlow{
		ClientSecretsPath: writeClientSecrets(t, server.URL),
		Out:               &bytes.Buffer{},
		OpenBrowser: func(string) error {
			cancel()
			return nil
		},
	}

	_, err := flow.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, IsAuthError(err))
}

func TestOAuthFlow_ExchangeFailure(t *testing.T) {
	server := newTokenServer(t, map[string]any{"error": "invalid_grant"})
	server.status = 400

	flow := &OAuthFlow{
		ClientSecretsPath: writeClientSecrets(t, server.URL),
		Out:               &bytes.Buffer{},
		OpenBrowser:       completeConsent("bad-code", ""),
	}

	_, err := flow.Run(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.NotNil(t, authErr.Cause)
}

func TestOAuthFlow_InvalidClientSecrets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client_secrets.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"unexpected": true}`), 0o600))

	_, err := (&OAuthFlow{ClientSecretsPath: path}).Run(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Message, "Invalid client secrets")
}

func TestOAuthFlow_AmbientCredentials(t *testing.T) {
	idToken := mintIDToken(t, "adc@example.com", time.Now().Add(time.Hour))
	tok := (&oauth2.Token{
		AccessToken: "adc-access",
		Expiry:      time.Now().Add(time.Hour),
	}).WithExtra(map[string]any{"id_token": idToken})

	var gotScopes []string
	store := NewStore(filepath.Join(t.TempDir(), "credentials.json"))
	flow := &OAuthFlow{
		// A configured but missing secrets file falls back as well.
		ClientSecretsPath: filepath.Join(t.TempDir(), "missing.json"),
		Store:             store,
		FindDefault: func(_ context.Context, scopes ...string) (*google.Credentials, error) {
			gotScopes = scopes
			return &google.Credentials{TokenSource: oauth2.StaticTokenSource(tok)}, nil
		},
	}

	creds, source, err := flow.run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceAmbient, source)
	assert.Equal(t, "adc-access", creds.Token)
	assert.Equal(t, idToken, creds.IDToken)
	assert.Equal(t, RequiredScopes, gotScopes)

	_, ok := store.Load()
	assert.False(t, ok, "ambient credentials are not persisted")
}

func TestOAuthFlow_NoAmbientCredentials(t *testing.T) {
	flow := &OAuthFlow{
		FindDefault: func(context.Context, ...string) (*google.Credentials, error) {
			return nil, errors.New("google: could not find default credentials")
		},
	}

	_, err := flow.Run(context.Background())
	var notFound *CredentialsNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Contains(t, notFound.Message, "client secrets")
	assert.Contains(t, notFound.Message, "application-default")
}
