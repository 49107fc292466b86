package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"gcphcp/internal/utils"
	"gcphcp/pkg/logging"
)

const oauthSubsystem = "OAuth"

// FindDefaultFunc discovers ambient credentials. google.FindDefaultCredentials
// satisfies it.
type FindDefaultFunc func(ctx context.Context, scopes ...string) (*google.Credentials, error)

// OAuthFlow mints new credentials, either through an interactive browser
// consent or from application default credentials when no client secrets are
// configured.
type OAuthFlow struct {
	ClientSecretsPath string
	Store             *Store
	Scopes            []string
	// Out receives the consent URL and progress messages.
	Out         io.Writer
	OpenBrowser func(url string) error
	FindDefault FindDefaultFunc
	// ListenAddr is the loopback address of the callback listener.
	ListenAddr string
}

// Run obtains a new Credential Record. Interactive results are saved through
// the store before returning; ambient credentials are not persisted.
func (f *OAuthFlow) Run(ctx context.Context) (*Credentials, error) {
	creds, _, err := f.run(ctx)
	return creds, err
}

func (f *OAuthFlow) run(ctx context.Context) (*Credentials, Source, error) {
	if f.ClientSecretsPath == "" {
		logging.Debug(oauthSubsystem, "No client secrets configured, trying application default credentials")
		creds, err := f.ambient(ctx)
		return creds, SourceAmbient, err
	}

	data, err := os.ReadFile(f.ClientSecretsPath)
	if errors.Is(err, os.ErrNotExist) {
		logging.Warn(oauthSubsystem, "Client secrets file %s not found, trying application default credentials", f.ClientSecretsPath)
		creds, err := f.ambient(ctx)
		return creds, SourceAmbient, err
	}
	if err != nil {
		return nil, SourceNone, newAuthError(err, "Failed to read client secrets file %s", f.ClientSecretsPath)
	}

	cfg, err := google.ConfigFromJSON(data, f.scopes()...)
	if err != nil {
		return nil, SourceNone, newAuthError(err, "Invalid client secrets file %s", f.ClientSecretsPath)
	}

	creds, err := f.interactive(ctx, cfg)
	if err != nil {
		return nil, SourceNone, err
	}
	if f.Store != nil {
		if err := f.Store.Save(creds); err != nil {
			logging.Warn(oauthSubsystem, "Failed to save credentials: %v", err)
		}
	}
	return creds, SourceOAuth, nil
}

func (f *OAuthFlow) scopes() []string {
	if len(f.Scopes) == 0 {
		return slices.Clone(RequiredScopes)
	}
	return f.Scopes
}

func (f *OAuthFlow) ambient(ctx context.Context) (*Credentials, error) {
	find := f.FindDefault
	if find == nil {
		find = google.FindDefaultCredentials
	}

	gc, err := find(ctx, f.scopes()...)
	if err != nil {
		return nil, &CredentialsNotFoundError{AuthError{
			Message: "No credentials available. Configure a client secrets file with " +
				"'gcphcp config set client_secrets <path>', or set up application default " +
				"credentials with 'gcloud auth application-default login'.",
			Cause: err,
		}}
	}

	tok, err := gc.TokenSource.Token()
	if err != nil {
		return nil, newAuthError(err, "Failed to obtain token from application default credentials")
	}

	creds := credentialsFromToken(tok, nil)
	creds.Scopes = f.scopes()
	logging.Info(oauthSubsystem, "Using application default credentials")
	return creds, nil
}

type callbackResult struct {
	code string
	err  error
}

func (f *OAuthFlow) interactive(ctx context.Context, cfg *oauth2.Config) (*Credentials, error) {
	addr := f.ListenAddr
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, newAuthError(err, "Failed to start local callback listener")
	}
	defer ln.Close()

	cfg.RedirectURL = fmt.Sprintf("http://%s/", ln.Addr().String())
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	resultCh := make(chan callbackResult, 1)
	deliver := func(res callbackResult) {
		select {
		case resultCh <- res:
		default:
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if e := q.Get("error"); e != "" {
			http.Error(w, "authorization failed: "+e, http.StatusBadRequest)
			deliver(callbackResult{err: fmt.Errorf("authorization denied: %s", e)})
			return
		}
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			deliver(callbackResult{err: errors.New("state mismatch in OAuth callback")})
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			deliver(callbackResult{err: errors.New("missing authorization code")})
			return
		}
		_, _ = io.WriteString(w, "gcphcp authentication complete. You can close this window.")
		deliver(callbackResult{code: code})
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		_ = srv.Serve(ln)
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.S256ChallengeOption(verifier),
	)

	out := f.Out
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprintln(out, "Open this URL in your browser to authenticate:")
	fmt.Fprintln(out, authURL)

	open := f.OpenBrowser
	if open == nil {
		open = utils.OpenBrowser
	}
	if err := open(authURL); err != nil {
		fmt.Fprintf(out, "Could not open a browser automatically: %v\n", err)
	}

	var res callbackResult
	select {
	case res = <-resultCh:
	case <-ctx.Done():
		return nil, newAuthError(ctx.Err(), "Authentication cancelled")
	}
	if res.err != nil {
		return nil, newAuthError(res.err, "OAuth authentication failed")
	}

	tok, err := cfg.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, newAuthError(err, "Failed to exchange authorization code for tokens")
	}

	creds := credentialsFromToken(tok, cfg)
	if email, ok := ExtractEmail(creds.IDToken); ok {
		creds.UserEmail = email
	}
	logging.Info(oauthSubsystem, "OAuth authentication completed")
	return creds, nil
}
