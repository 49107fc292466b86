package auth

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"gcphcp/internal/utils"
	"gcphcp/pkg/logging"
)

const gcloudSubsystem = "Gcloud"

const (
	defaultGcloudBinary         = "gcloud"
	defaultGcloudTokenTimeout   = 30 * time.Second
	defaultGcloudAccountTimeout = 10 * time.Second
)

// notLoggedInMarkers are stderr fragments gcloud prints when no account is
// active. Matched case-insensitively.
var notLoggedInMarkers = []string{
	"not logged in",
	"no active account",
	"do not currently have an active account",
}

// GcloudSource obtains an identity token from an already authenticated
// gcloud installation.
type GcloudSource struct {
	Binary         string
	Runner         utils.CommandRunner
	TokenTimeout   time.Duration
	AccountTimeout time.Duration
}

// NewGcloudSource returns a GcloudSource using runner and the default timeouts.
func NewGcloudSource(runner utils.CommandRunner) *GcloudSource {
	if runner == nil {
		runner = utils.ExecRunner{}
	}
	return &GcloudSource{
		Binary:         defaultGcloudBinary,
		Runner:         runner,
		TokenTimeout:   defaultGcloudTokenTimeout,
		AccountTimeout: defaultGcloudAccountTimeout,
	}
}

// Fetch returns the identity token and the active account. The account is
// best effort and falls back to PlaceholderEmail.
func (g *GcloudSource) Fetch(ctx context.Context) (string, string, error) {
	res, err := g.Runner.Run(ctx, g.TokenTimeout, g.Binary, "auth", "print-identity-token")
	if err != nil {
		return "", "", g.classifyRunError(err)
	}
	if res.ExitCode != 0 {
		stderr := strings.TrimSpace(res.Stderr)
		lower := strings.ToLower(stderr)
		for _, marker := range notLoggedInMarkers {
			if strings.Contains(lower, marker) {
				return "", "", newAuthError(nil,
					"Not authenticated with gcloud. Please run 'gcloud auth login' first, or use 'gcphcp auth login' for OAuth flow.")
			}
		}
		if stderr == "" {
			stderr = "unknown error"
		}
		return "", "", newAuthError(nil, "gcloud auth print-identity-token failed: %s", stderr)
	}

	token := strings.TrimSpace(res.Stdout)
	if token == "" {
		return "", "", newAuthError(nil, "gcloud returned empty identity token")
	}

	return token, g.account(ctx), nil
}

func (g *GcloudSource) account(ctx context.Context) string {
	res, err := g.Runner.Run(ctx, g.AccountTimeout, g.Binary, "config", "get-value", "account")
	if err != nil {
		logging.Debug(gcloudSubsystem, "Could not read gcloud account: %v", err)
		return PlaceholderEmail
	}
	if res.ExitCode != 0 {
		logging.Debug(gcloudSubsystem, "gcloud config get-value account exited %d", res.ExitCode)
		return PlaceholderEmail
	}
	email := strings.TrimSpace(res.Stdout)
	if email == "" {
		return PlaceholderEmail
	}
	return email
}

func (g *GcloudSource) classifyRunError(err error) error {
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return newAuthError(err, "gcloud command not found. Install Google Cloud SDK or use OAuth flow.")
	case errors.Is(err, utils.ErrCommandTimeout):
		return newAuthError(err, "Timeout while calling gcloud command")
	default:
		return newAuthError(err, "Failed to run gcloud")
	}
}
