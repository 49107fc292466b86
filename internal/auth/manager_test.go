package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2/google"
)

type managerFixture struct {
	manager      *Manager
	runner       *fakeRunner
	ambientCalls int
}

func newManagerFixture(t *testing.T, runner *fakeRunner) *managerFixture {
	t.Helper()
	f := &managerFixture{runner: runner}
	f.manager = NewManager(Config{
		CredentialsPath: filepath.Join(t.TempDir(), "credentials.json"),
		Runner:          runner,
		OpenBrowser: func(string) error {
			t.Fatal("browser must not be opened")
			return nil
		},
		FindDefault: func(context.Context, ...string) (*google.Credentials, error) {
			f.ambientCalls++
			return nil, errors.New("could not find default credentials")
		},
	})
	return f
}

func TestManager_GcloudSuccessSkipsOAuth(t *testing.T) {
	f := newManagerFixture(t, newFakeRunner().
		on(gcloudTokenArgs, "abc.def", "", 0).
		on(gcloudAccountArgs, "user@example.com", "", 0))

	token, email, err := f.manager.Authenticate(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)
	assert.Equal(t, "user@example.com", email)
	assert.Equal(t, 0, f.ambientCalls)
	assert.Equal(t, SourceExternal, f.manager.Session().Source)
}

func TestManager_NothingConfigured(t *testing.T) {
	f := newManagerFixture(t, notLoggedInRunner())

	_, _, err := f.manager.Authenticate(context.Background(), false)
	require.Error(t, err)

	var notFound *CredentialsNotFoundError
	require.True(t, errors.As(err, &notFound), "expected *CredentialsNotFoundError, got %T: %v", err, err)
	assert.True(t, IsAuthError(err))
	assert.Equal(t, 1, f.ambientCalls)
}

func TestManager_RefreshesExpiredStoredCredentials(t *testing.T) {
	newID := mintIDToken(t, "refreshed@example.com", time.Now().Add(time.Hour))
	server := newTokenServer(t, map[string]any{
		"access_token": "new-access",
		"token_type":   "Bearer",
		"expires_in":   3600,
		"id_token":     newID,
	})

	f := newManagerFixture(t, notLoggedInRunner())
	stored := &Credentials{
		Token:        "old-access",
		RefreshToken: "refresh-1",
		IDToken:      mintIDToken(t, "old@example.com", time.Now().Add(-time.Hour)),
		TokenURI:     server.URL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Scopes:       RequiredScopes,
		Expiry:       time.Now().Add(-time.Minute),
	}
	require.NoError(t, f.manager.Store().Save(stored))

	token, email, err := f.manager.Authenticate(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, newID, token)
	assert.Equal(t, "refreshed@example.com", email)
	assert.Equal(t, 0, f.ambientCalls)

	req := server.lastRequest()
	assert.Equal(t, "refresh_token", req["grant_type"])
	assert.Equal(t, "refresh-1", req["refresh_token"])
	assert.Equal(t, "client-id", req["client_id"])

	persisted, ok := f.manager.Store().Load()
	require.True(t, ok)
	assert.Equal(t, newID, persisted.IDToken)
	assert.Equal(t, "new-access", persisted.Token)
	assert.Equal(t, "refresh-1", persisted.RefreshToken)
	assert.False(t, persisted.Expired(time.Now()))
}

func TestManager_RefreshWithoutIdentityTokenFails(t *testing.T) {
	server := newTokenServer(t, map[string]any{
		"access_token": "new-access",
		"token_type":   "Bearer",
		"expires_in":   3600,
	})

	f := newManagerFixture(t, notLoggedInRunner())
	expiredID := mintIDToken(t, "old@example.com", time.Now().Add(-time.Hour))
	require.NoError(t, f.manager.Store().Save(&Credentials{
		Token:        "old-access",
		RefreshToken: "refresh-1",
		IDToken:      expiredID,
		TokenURI:     server.URL,
		ClientID:     "client-id",
		Scopes:       RequiredScopes,
		Expiry:       time.Now().Add(time.Hour),
	}))

	token, _, err := f.manager.Authenticate(context.Background(), false)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Message, "ID token")
	assert.Empty(t, token)
	assert.Equal(t, 1, server.requestCount())

	_, _, err = f.manager.Authenticate(context.Background(), false)
	require.Error(t, err)
	assert.Equal(t, 1, server.requestCount(), "a record without an identity token is not refreshed again")

	persisted, ok := f.manager.Store().Load()
	require.True(t, ok)
	assert.NotEqual(t, expiredID, persisted.IDToken)
	assert.False(t, f.manager.IsAuthenticated(context.Background()))
}

func TestManager_UsesValidStoredCredentialsWithoutRefresh(t *testing.T) {
	server := newTokenServer(t, map[string]any{})
	f := newManagerFixture(t, notLoggedInRunner())

	idToken := mintIDToken(t, "stored@example.com", time.Now().Add(time.Hour))
	require.NoError(t, f.manager.Store().Save(&Credentials{
		Token:        "access",
		RefreshToken: "refresh",
		IDToken:      idToken,
		TokenURI:     server.URL,
		Expiry:       time.Now().Add(time.Hour),
	}))

	token, email, err := f.manager.Authenticate(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, idToken, token)
	assert.Equal(t, "stored@example.com", email)
	assert.Equal(t, 0, server.requestCount())
	assert.Equal(t, SourceStored, f.manager.Session().Source)
}

func TestManager_RefreshFailureIsTerminal(t *testing.T) {
	server := newTokenServer(t, map[string]any{"error": "invalid_grant"})
	server.status = 400

	f := newManagerFixture(t, notLoggedInRunner())
	require.NoError(t, f.manager.Store().Save(&Credentials{
		Token:        "old",
		RefreshToken: "revoked",
		IDToken:      "a.b.c",
		TokenURI:     server.URL,
		Expiry:       time.Now().Add(-time.Hour),
	}))

	_, _, err := f.manager.Authenticate(context.Background(), false)
	require.Error(t, err)

	var refreshErr *TokenRefreshError
	require.True(t, errors.As(err, &refreshErr), "expected *TokenRefreshError, got %T", err)
	var authErr *AuthError
	assert.True(t, errors.As(err, &authErr))
	assert.Equal(t, 1, server.requestCount())
	assert.Equal(t, 0, f.ambientCalls, "a failed refresh must not fall through to a new login")
}

func TestManager_ExpiredWithoutRefreshTokenRunsLogin(t *testing.T) {
	f := newManagerFixture(t, notLoggedInRunner())
	require.NoError(t, f.manager.Store().Save(&Credentials{
		Token:  "old",
		Expiry: time.Now().Add(-time.Hour),
	}))

	_, _, err := f.manager.Authenticate(context.Background(), false)
	var notFound *CredentialsNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, 1, f.ambientCalls)
}

func TestManager_ForceReauthSkipsStoredCredentials(t *testing.T) {
	f := newManagerFixture(t, notLoggedInRunner())
	require.NoError(t, f.manager.Store().Save(&Credentials{
		Token:   "access",
		IDToken: mintIDToken(t, "stored@example.com", time.Now().Add(time.Hour)),
	}))

	_, _, err := f.manager.Authenticate(context.Background(), true)
	require.Error(t, err)
	assert.Equal(t, 1, f.ambientCalls)
}

func TestManager_MissingIdentityToken(t *testing.T) {
	f := newManagerFixture(t, notLoggedInRunner())
	require.NoError(t, f.manager.Store().Save(&Credentials{Token: "access-only"}))

	_, _, err := f.manager.Authenticate(context.Background(), false)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Message, "ID token")
}

func TestManager_EmailFallsBackToStoredRecord(t *testing.T) {
	f := newManagerFixture(t, notLoggedInRunner())
	require.NoError(t, f.manager.Store().Save(&Credentials{
		Token:     "access",
		IDToken:   "opaque-token-without-claims",
		UserEmail: "saved@example.com",
	}))

	_, email, err := f.manager.Authenticate(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "saved@example.com", email)
}

func TestManager_UnresolvableEmail(t *testing.T) {
	f := newManagerFixture(t, notLoggedInRunner())
	require.NoError(t, f.manager.Store().Save(&Credentials{
		Token:   "access",
		IDToken: mintIDToken(t, "", time.Now().Add(time.Hour)),
	}))

	_, _, err := f.manager.Authenticate(context.Background(), false)
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Message, "email")
}

func TestManager_AuthHeaders(t *testing.T) {
	f := newManagerFixture(t, newFakeRunner().
		on(gcloudTokenArgs, "abc.def", "", 0).
		on(gcloudAccountArgs, "user@example.com", "", 0))

	headers, err := f.manager.AuthHeaders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc.def", headers.Get(HeaderAuthorization))
	assert.Equal(t, "user@example.com", headers.Get(HeaderUserEmail))
}

func TestManager_IsAuthenticated(t *testing.T) {
	f := newManagerFixture(t, notLoggedInRunner())
	assert.False(t, f.manager.IsAuthenticated(context.Background()), "nothing stored")

	require.NoError(t, f.manager.Store().Save(&Credentials{
		Token:   "access",
		IDToken: mintIDToken(t, "stored@example.com", time.Now().Add(time.Hour)),
	}))
	assert.True(t, f.manager.IsAuthenticated(context.Background()))
	assert.Empty(t, f.runner.calls, "the probe must not call gcloud")
}

func TestManager_IsAuthenticatedFailedRefreshIsFalse(t *testing.T) {
	server := newTokenServer(t, map[string]any{"error": "invalid_grant"})
	server.status = 400

	f := newManagerFixture(t, notLoggedInRunner())
	require.NoError(t, f.manager.Store().Save(&Credentials{
		Token:        "old",
		RefreshToken: "revoked",
		IDToken:      "a.b.c",
		TokenURI:     server.URL,
		Expiry:       time.Now().Add(-time.Hour),
	}))

	assert.False(t, f.manager.IsAuthenticated(context.Background()))
}

func TestManager_LogoutThenIsAuthenticated(t *testing.T) {
	f := newManagerFixture(t, notLoggedInRunner())
	require.NoError(t, f.manager.Store().Save(&Credentials{
		Token:   "access",
		IDToken: mintIDToken(t, "stored@example.com", time.Now().Add(time.Hour)),
	}))
	require.True(t, f.manager.IsAuthenticated(context.Background()))

	require.NoError(t, f.manager.Logout())
	assert.False(t, f.manager.IsAuthenticated(context.Background()))
	assert.Equal(t, Session{}, f.manager.Session())

	assert.NoError(t, f.manager.Logout(), "logout is idempotent")
}
