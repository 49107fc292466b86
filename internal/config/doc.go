// Package config manages the gcphcp configuration file.
//
// The file lives at ~/.gcphcp/config.yaml unless --config points elsewhere.
// It is a plain YAML document; nested values are addressed with dotted keys:
//
//	api_endpoint: https://api.gcphcp.example.com
//	default_project: my-project
//	client_secrets_path: ~/.gcphcp/client_secrets.json
//
// The typed accessors (APIEndpoint, CredentialsPath, ClientSecretsPath,
// DefaultProject, Audience) apply defaults, and GCPHCP_API_ENDPOINT and
// GCPHCP_CLIENT_SECRETS override the file.
//
// A missing or malformed file is treated as empty so that `gcphcp config set`
// can always repair it.
package config
