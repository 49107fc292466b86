package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
)

// GoogleIssuer is the issuer of Google identity tokens.
const GoogleIssuer = "https://accounts.google.com"

// VerifiedIdentity is the result of a successful signature check.
type VerifiedIdentity struct {
	Claims   IdentityClaims
	Issuer   string
	Audience []string
	Expiry   time.Time
}

// Verifier checks identity token signatures against the issuer's published
// keys. Unlike ExtractEmail its results can be trusted.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewVerifier discovers the issuer's configuration. An empty clientID skips
// the audience check, which is needed for gcloud tokens minted for gcloud's
// own client.
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider for %s: %w", issuer, err)
	}
	return &Verifier{verifier: provider.Verifier(verifierConfig(clientID))}, nil
}

// NewVerifierWithKeySet builds a Verifier from a fixed key set, without
// discovery.
func NewVerifierWithKeySet(issuer string, keySet oidc.KeySet, clientID string) *Verifier {
	return &Verifier{verifier: oidc.NewVerifier(issuer, keySet, verifierConfig(clientID))}
}

func verifierConfig(clientID string) *oidc.Config {
	return &oidc.Config{
		ClientID:          clientID,
		SkipClientIDCheck: clientID == "",
	}
}

// Verify checks the token signature, issuer, expiry and, when configured, the
// audience.
func (v *Verifier) Verify(ctx context.Context, rawIDToken string) (*VerifiedIdentity, error) {
	tok, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, newAuthError(err, "Identity token verification failed")
	}

	var claims IdentityClaims
	if err := tok.Claims(&claims); err != nil {
		return nil, newAuthError(err, "Failed to decode identity token claims")
	}

	return &VerifiedIdentity{
		Claims:   claims,
		Issuer:   tok.Issuer,
		Audience: tok.Audience,
		Expiry:   tok.Expiry,
	}, nil
}
