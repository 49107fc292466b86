package auth

import (
	"context"
	"io"
	"net/http"
	"time"

	"gcphcp/internal/utils"
	"gcphcp/pkg/logging"
)

const managerSubsystem = "AuthManager"

// Header names produced for API requests.
const (
	HeaderAuthorization = "Authorization"
	HeaderUserEmail     = "X-User-Email"
)

// TokenSource is one authentication strategy. Fetch receives the current
// session and returns the session that should replace it. An error wrapped by
// unavailable lets the manager move on to the next strategy; any other error
// ends the attempt.
type TokenSource interface {
	Name() string
	Fetch(ctx context.Context, s Session) (Session, error)
}

// Config configures a Manager.
type Config struct {
	CredentialsPath   string
	ClientSecretsPath string
	Runner            utils.CommandRunner
	// Prompt receives the interactive login instructions.
	Prompt      io.Writer
	OpenBrowser func(url string) error
	FindDefault FindDefaultFunc
}

// Manager decides which credential source to use for one CLI invocation and
// produces the token and email every API call needs.
type Manager struct {
	store   *Store
	gcloud  *GcloudSource
	flow    *OAuthFlow
	session Session

	refresh func(ctx context.Context, creds *Credentials) (*Credentials, error)
	now     func() time.Time
}

// NewManager builds a Manager from cfg.
func NewManager(cfg Config) *Manager {
	store := NewStore(cfg.CredentialsPath)
	return &Manager{
		store:  store,
		gcloud: NewGcloudSource(cfg.Runner),
		flow: &OAuthFlow{
			ClientSecretsPath: cfg.ClientSecretsPath,
			Store:             store,
			Out:               cfg.Prompt,
			OpenBrowser:       cfg.OpenBrowser,
			FindDefault:       cfg.FindDefault,
		},
		refresh: refreshCredentials,
		now:     time.Now,
	}
}

// Store returns the credential store the manager persists to.
func (m *Manager) Store() *Store {
	return m.store
}

// Session returns the current in-memory session.
func (m *Manager) Session() Session {
	return m.session
}

// strategies returns the token sources in priority order.
func (m *Manager) strategies(forceReauth bool) []TokenSource {
	sources := []TokenSource{&gcloudStrategy{src: m.gcloud}}
	if !forceReauth {
		sources = append(sources, &storedStrategy{store: m.store, now: m.now})
	}
	return append(sources, &oauthStrategy{flow: m.flow})
}

// Authenticate returns an identity token and the caller's email.
// gcloud is tried first; otherwise stored credentials are used, or a new
// OAuth flow is run when forceReauth is set or nothing usable is stored.
func (m *Manager) Authenticate(ctx context.Context, forceReauth bool) (string, string, error) {
	var lastErr error
	for _, src := range m.strategies(forceReauth) {
		next, err := src.Fetch(ctx, m.session)
		if err != nil {
			if isUnavailable(err) {
				if src.Name() == gcloudStrategyName {
					logging.Warn(managerSubsystem, "gcloud authentication failed, falling back to OAuth: %v", err)
				} else {
					logging.Debug(managerSubsystem, "%s unavailable: %v", src.Name(), err)
				}
				lastErr = err
				continue
			}
			return "", "", err
		}

		if next.Source == SourceExternal {
			m.session = next
			logging.Debug(managerSubsystem, "Authenticated via gcloud as %s", next.Email)
			return next.token(), next.Email, nil
		}

		completed, err := m.complete(ctx, next)
		if err != nil {
			return "", "", err
		}
		m.session = completed
		logging.Debug(managerSubsystem, "Authenticated via %s as %s", completed.Source, completed.Email)
		return completed.token(), completed.Email, nil
	}

	return "", "", newAuthError(lastErr, "No usable credentials found. Please run 'gcphcp auth login'.")
}

// complete refreshes an expired session, then resolves the identity token and
// email.
func (m *Manager) complete(ctx context.Context, s Session) (Session, error) {
	if s.Credentials.Expired(m.now()) {
		var err error
		if s, err = m.refreshSession(ctx, s); err != nil {
			return Session{}, err
		}
	}

	if s.token() == "" {
		return Session{}, newAuthError(nil, "Failed to obtain ID token from credentials")
	}

	if s.Email == "" {
		if email, ok := ExtractEmail(s.token()); ok {
			s.Email = email
		} else if s.Credentials.UserEmail != "" {
			s.Email = s.Credentials.UserEmail
		}
	}
	if s.Email == "" {
		return Session{}, newAuthError(nil, "Failed to extract user email from credentials")
	}
	return s, nil
}

func (m *Manager) refreshSession(ctx context.Context, s Session) (Session, error) {
	if !s.Credentials.Refreshable() {
		return Session{}, newRefreshError(nil, "Credentials have expired and cannot be refreshed. Please run 'gcphcp auth login'.")
	}

	logging.Info(managerSubsystem, "Refreshing expired credentials")
	creds, err := m.refresh(ctx, s.Credentials)
	if err != nil {
		return Session{}, newRefreshError(err, "Failed to refresh credentials. Please run 'gcphcp auth login'.")
	}

	if s.Source != SourceAmbient {
		if err := m.store.Save(creds); err != nil {
			logging.Warn(managerSubsystem, "Failed to save refreshed credentials: %v", err)
		}
	}
	return s.refreshed(creds), nil
}

// AuthHeaders returns the headers to attach to API requests.
func (m *Manager) AuthHeaders(ctx context.Context) (http.Header, error) {
	token, email, err := m.Authenticate(ctx, false)
	if err != nil {
		return nil, err
	}
	h := make(http.Header)
	h.Set(HeaderAuthorization, "Bearer "+token)
	h.Set(HeaderUserEmail, email)
	return h, nil
}

// IsAuthenticated reports whether a usable token is available without
// running any interactive step. Failures are reported as false.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	s := m.session
	if s.Credentials == nil {
		creds, ok := m.store.Load()
		if !ok {
			return false
		}
		s = Session{Credentials: creds, Source: SourceStored}
	}

	if s.Credentials.Expired(m.now()) {
		refreshed, err := m.refreshSession(ctx, s)
		if err != nil {
			logging.Debug(managerSubsystem, "Authentication probe failed: %v", err)
			return false
		}
		s = refreshed
	}

	m.session = s
	return s.token() != ""
}

// Logout deletes the stored credentials and clears the session.
func (m *Manager) Logout() error {
	m.session = Session{}
	if err := m.store.Delete(); err != nil {
		return newAuthError(err, "Failed to remove stored credentials")
	}
	logging.Info(managerSubsystem, "Logged out")
	return nil
}

const (
	gcloudStrategyName = "gcloud"
	storedStrategyName = "stored credentials"
	oauthStrategyName  = "oauth"
)

type gcloudStrategy struct {
	src *GcloudSource
}

func (g *gcloudStrategy) Name() string { return gcloudStrategyName }

func (g *gcloudStrategy) Fetch(ctx context.Context, _ Session) (Session, error) {
	token, email, err := g.src.Fetch(ctx)
	if err != nil {
		return Session{}, unavailable(err)
	}
	return Session{
		Credentials: &Credentials{Token: token, IDToken: token, UserEmail: email},
		Email:       email,
		Source:      SourceExternal,
	}, nil
}

// storedStrategy reuses credentials already held by the session, else loads
// the credential file. Records that are expired with no way to refresh are
// skipped so a new login runs.
type storedStrategy struct {
	store *Store
	now   func() time.Time
}

func (s *storedStrategy) Name() string { return storedStrategyName }

func (s *storedStrategy) Fetch(_ context.Context, cur Session) (Session, error) {
	if cur.Credentials != nil && cur.Source != SourceExternal {
		return cur, nil
	}

	creds, ok := s.store.Load()
	if !ok {
		return Session{}, unavailable(errNoStoredCredentials)
	}
	if creds.Expired(s.now()) && !creds.Refreshable() {
		return Session{}, unavailable(newAuthError(nil, "stored credentials expired without refresh token"))
	}
	return Session{Credentials: creds, Source: SourceStored}, nil
}

type oauthStrategy struct {
	flow *OAuthFlow
}

func (o *oauthStrategy) Name() string { return oauthStrategyName }

func (o *oauthStrategy) Fetch(ctx context.Context, _ Session) (Session, error) {
	creds, source, err := o.flow.run(ctx)
	if err != nil {
		return Session{}, err
	}
	return Session{Credentials: creds, Source: source}, nil
}
