package auth

import (
	"slices"
	"time"

	"golang.org/x/oauth2"
)

// RequiredScopes is the fixed scope set requested from the OAuth provider.
var RequiredScopes = []string{
	"openid",
	"email",
	"profile",
	"https://www.googleapis.com/auth/cloud-platform",
}

const (
	// DefaultTokenURI is used when a stored record does not name a token endpoint.
	DefaultTokenURI = "https://oauth2.googleapis.com/token"

	// PlaceholderEmail stands in when gcloud returns a token but the active
	// account cannot be read.
	PlaceholderEmail = "unknown@example.com"

	// expirySkew treats a token as expired slightly before it actually is, so
	// it does not expire in flight.
	expirySkew = 10 * time.Second
)

// Credentials is the credential record persisted by the Store.
type Credentials struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	IDToken      string    `json:"id_token,omitempty"`
	TokenURI     string    `json:"token_uri"`
	ClientID     string    `json:"client_id,omitempty"`
	ClientSecret string    `json:"client_secret,omitempty"`
	Scopes       []string  `json:"scopes"`
	UserEmail    string    `json:"user_email,omitempty"`
	Expiry       time.Time `json:"expiry,omitzero"`
}

// Refreshable reports whether a refresh token is available. Without one,
// expiry is terminal and a new interactive login is needed.
func (c *Credentials) Refreshable() bool {
	return c != nil && c.RefreshToken != ""
}

// Expired reports whether the access token expiry or the identity token's
// exp claim has passed. A record with neither is never considered expired.
func (c *Credentials) Expired(now time.Time) bool {
	if c == nil {
		return false
	}
	if !c.Expiry.IsZero() && !now.Add(expirySkew).Before(c.Expiry) {
		return true
	}
	if exp, ok := IdentityTokenExpiry(c.IDToken); ok && !now.Add(expirySkew).Before(exp) {
		return true
	}
	return false
}

func (c *Credentials) clone() *Credentials {
	if c == nil {
		return nil
	}
	out := *c
	out.Scopes = slices.Clone(c.Scopes)
	return &out
}

func (c *Credentials) applyDefaults() {
	if c.TokenURI == "" {
		c.TokenURI = DefaultTokenURI
	}
	if len(c.Scopes) == 0 {
		c.Scopes = slices.Clone(RequiredScopes)
	}
}

// credentialsFromToken builds a record from an oauth2 token response.
// The identity token travels in the response extras.
func credentialsFromToken(tok *oauth2.Token, cfg *oauth2.Config) *Credentials {
	creds := &Credentials{
		Token:        tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		creds.IDToken = idToken
	}
	if cfg != nil {
		creds.TokenURI = cfg.Endpoint.TokenURL
		creds.ClientID = cfg.ClientID
		creds.ClientSecret = cfg.ClientSecret
		creds.Scopes = slices.Clone(cfg.Scopes)
	}
	creds.applyDefaults()
	return creds
}

// Source names where the session's credentials came from.
type Source string

const (
	SourceNone     Source = ""
	SourceExternal Source = "gcloud"
	SourceStored   Source = "stored"
	SourceOAuth    Source = "oauth"
	SourceAmbient  Source = "application-default"
)

// Session is the in-memory authentication state of one CLI invocation.
// It is replaced as a whole on every transition; nothing mutates it in place.
type Session struct {
	Credentials *Credentials
	Email       string
	Source      Source
}

// refreshed returns the session after a token refresh. The cached email is
// dropped so it is derived again from the new identity token.
func (s Session) refreshed(creds *Credentials) Session {
	return Session{Credentials: creds, Source: s.Source}
}

func (s Session) token() string {
	if s.Credentials == nil {
		return ""
	}
	return s.Credentials.IDToken
}
