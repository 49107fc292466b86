package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IdentityClaims is the subset of identity token claims the CLI reads.
type IdentityClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Subject       string `json:"sub,omitempty"`
	Name          string `json:"name,omitempty"`
}

// ExtractEmail reads the email claim from an identity token.
//
// The signature is NOT verified. Claims read here are only as trustworthy as
// the channel the token arrived on; use them for display and request headers,
// never for authorization decisions. Any malformed input yields ("", false).
func ExtractEmail(idToken string) (string, bool) {
	claims, ok := decodeClaims(idToken)
	if !ok || claims.Email == "" {
		return "", false
	}
	return claims.Email, true
}

func decodeClaims(idToken string) (IdentityClaims, bool) {
	parts := strings.Split(idToken, ".")
	if len(parts) < 2 {
		return IdentityClaims{}, false
	}

	payload := parts[1]
	if rem := len(payload) % 4; rem != 0 {
		payload += strings.Repeat("=", 4-rem)
	}

	decoded, err := base64.URLEncoding.DecodeString(payload)
	if err != nil {
		return IdentityClaims{}, false
	}

	var claims IdentityClaims
	if err := json.Unmarshal(decoded, &claims); err != nil {
		return IdentityClaims{}, false
	}
	return claims, true
}

// IdentityTokenExpiry returns the unverified exp claim of a JWT.
func IdentityTokenExpiry(idToken string) (time.Time, bool) {
	if idToken == "" {
		return time.Time{}, false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
