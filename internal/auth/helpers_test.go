package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"gcphcp/internal/utils"
)

type fakeResponse struct {
	result utils.CommandResult
	err    error
}

// fakeRunner answers commands by their joined argument vector.
type fakeRunner struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	calls     []string
	timeouts  map[string]time.Duration
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		responses: make(map[string]fakeResponse),
		timeouts:  make(map[string]time.Duration),
	}
}

func (f *fakeRunner) on(args string, stdout, stderr string, exitCode int) *fakeRunner {
	f.responses[args] = fakeResponse{result: utils.CommandResult{Stdout: stdout, Stderr: stderr, ExitCode: exitCode}}
	return f
}

func (f *fakeRunner) fail(args string, err error) *fakeRunner {
	f.responses[args] = fakeResponse{err: err}
	return f
}

func (f *fakeRunner) Run(_ context.Context, timeout time.Duration, name string, args ...string) (utils.CommandResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.Join(args, " ")
	f.calls = append(f.calls, name+" "+key)
	f.timeouts[key] = timeout

	resp, ok := f.responses[key]
	if !ok {
		return utils.CommandResult{}, fmt.Errorf("failed to execute '%s': %w", name, exec.ErrNotFound)
	}
	return resp.result, resp.err
}

const (
	gcloudTokenArgs   = "auth print-identity-token"
	gcloudAccountArgs = "config get-value account"
)

// notLoggedInRunner behaves like gcloud with no active account.
func notLoggedInRunner() *fakeRunner {
	return newFakeRunner().on(gcloudTokenArgs, "",
		"ERROR: (gcloud.auth.print-identity-token) You do not currently have an active account. Not logged in.", 1)
}

// mintIDToken returns an HS256 JWT. Only the payload matters to the code
// under test, which never checks this signature.
func mintIDToken(t *testing.T, email string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"iss": GoogleIssuer,
		"sub": "1234567890",
		"aud": "test-client",
		"exp": exp.Unix(),
		"iat": time.Now().Unix(),
	}
	if email != "" {
		claims["email"] = email
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

// tokenServer is an OAuth token endpoint that records the forms it receives.
type tokenServer struct {
	*httptest.Server
	mu       sync.Mutex
	requests []map[string]string
	status   int
	response map[string]any
}

func newTokenServer(t *testing.T, response map[string]any) *tokenServer {
	t.Helper()
	ts := &tokenServer{status: http.StatusOK, response: response}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		form := make(map[string]string)
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}

		ts.mu.Lock()
		ts.requests = append(ts.requests, form)
		status, body := ts.status, ts.response
		ts.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *tokenServer) lastRequest() map[string]string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if len(ts.requests) == 0 {
		return nil
	}
	return ts.requests[len(ts.requests)-1]
}

func (ts *tokenServer) requestCount() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.requests)
}
