package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"gcphcp/internal/auth"
	"gcphcp/internal/client"
	"gcphcp/internal/config"
	"gcphcp/internal/output"
	"gcphcp/internal/utils"
)

// authenticator is the part of auth.Manager the commands use.
type authenticator interface {
	Authenticate(ctx context.Context, forceReauth bool) (string, string, error)
	AuthHeaders(ctx context.Context) (http.Header, error)
	IsAuthenticated(ctx context.Context) bool
	Logout() error
	Session() auth.Session
}

// For mocking in tests
var newAuthenticator = func(cfg auth.Config) authenticator {
	return auth.NewManager(cfg)
}

// cliContext is the state shared by the commands of one invocation.
type cliContext struct {
	cfg     *config.Config
	printer *output.Printer
	errOut  io.Writer
	in      *bufio.Reader
	quiet   bool

	endpoint string
	project  string
	version  string

	auth authenticator
	api  *client.Client
}

func newCLIContext(cmd *cobra.Command, opts *globalOptions) (*cliContext, error) {
	format, err := output.ParseFormat(opts.outputFormat)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	endpoint := opts.apiEndpoint
	if endpoint == "" {
		endpoint = cfg.APIEndpoint()
	}
	project := opts.project
	if project == "" {
		project = cfg.DefaultProject()
	}

	return &cliContext{
		cfg:      cfg,
		printer:  output.New(cmd.OutOrStdout(), format),
		errOut:   cmd.ErrOrStderr(),
		in:       bufio.NewReader(cmd.InOrStdin()),
		quiet:    opts.quiet,
		endpoint: endpoint,
		project:  project,
		version:  cmd.Root().Version,
	}, nil
}

// authManager returns the authenticator, creating it on first use.
func (c *cliContext) authManager() authenticator {
	if c.auth == nil {
		c.auth = newAuthenticator(auth.Config{
			CredentialsPath:   c.cfg.CredentialsPath(),
			ClientSecretsPath: c.cfg.ClientSecretsPath(),
			Runner:            utils.ExecRunner{},
			Prompt:            c.errOut,
		})
	}
	return c.auth
}

// apiClient returns the API client, creating it on first use.
func (c *cliContext) apiClient() *client.Client {
	if c.api == nil {
		c.api = client.New(c.endpoint, c.authManager(), client.WithUserAgent(userAgent(c.version)))
	}
	return c.api
}

// info prints a styled status line unless --quiet is set.
func (c *cliContext) info(style lipgloss.Style, format string, args ...any) {
	if c.quiet {
		return
	}
	c.printer.Notice(style, format, args...)
}

// confirm asks a yes/no question on stderr; anything but y/yes is a no.
func (c *cliContext) confirm(question string) (bool, error) {
	fmt.Fprintf(c.errOut, "%s [y/N]: ", question)
	answer, err := c.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// prompt asks for a value on stderr, returning def on an empty answer.
func (c *cliContext) prompt(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(c.errOut, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(c.errOut, "%s: ", label)
	}
	answer, err := c.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	if answer = strings.TrimSpace(answer); answer == "" {
		return def, nil
	}
	return answer, nil
}

// resolveCluster turns a user supplied identifier into a cluster ID.
func (c *cliContext) resolveCluster(ctx context.Context, identifier string) (string, error) {
	return c.apiClient().ResolveCluster(ctx, identifier)
}
