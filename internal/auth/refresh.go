package auth

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
)

// refreshCredentials exchanges the refresh token for a new access token at the
// record's token endpoint. The returned record is a copy whose identity token
// is the one the endpoint sent, or empty when it sent none. A rotated refresh
// token replaces the old refresh token.
func refreshCredentials(ctx context.Context, creds *Credentials) (*Credentials, error) {
	if !creds.Refreshable() {
		return nil, errors.New("no refresh token available")
	}

	cfg := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Scopes:       creds.Scopes,
		Endpoint: oauth2.Endpoint{
			TokenURL:  creds.TokenURI,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	tok, err := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken}).Token()
	if err != nil {
		return nil, err
	}

	out := creds.clone()
	out.Token = tok.AccessToken
	out.Expiry = tok.Expiry
	if tok.RefreshToken != "" {
		out.RefreshToken = tok.RefreshToken
	}
	// The old identity token may be the expired one that caused the refresh.
	out.IDToken, _ = tok.Extra("id_token").(string)
	return out, nil
}
