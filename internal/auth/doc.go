// Package auth authenticates the CLI user against Google Cloud.
//
// The Manager tries its token sources in order: an identity token from an
// authenticated gcloud installation, then credentials saved by a previous
// login, then a new OAuth login (interactive when client secrets are
// configured, application default credentials otherwise). Expired OAuth
// credentials are refreshed once and saved again.
//
// Credentials are stored as JSON in a single file readable only by its owner.
// The email sent with API requests is read from the identity token without
// verifying its signature; Verifier performs a full check when needed.
package auth
