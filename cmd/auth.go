package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"gcphcp/internal/auth"
	"gcphcp/internal/color"
	"gcphcp/internal/output"
)

// For mocking in tests
var (
	copyToClipboard = clipboard.WriteAll
	newVerifier     = func(ctx context.Context, audience string) (identityVerifier, error) {
		return auth.NewVerifier(ctx, auth.GoogleIssuer, audience)
	}
)

type identityVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*auth.VerifiedIdentity, error)
}

func newAuthCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication and authorization",
		Long: `Manage authentication with Google Cloud.

gcphcp uses the active gcloud account when one is available, then stored
OAuth credentials, then an interactive browser login.`,
	}

	cmd.AddCommand(newAuthLoginCmd(opts))
	cmd.AddCommand(newAuthLogoutCmd(opts))
	cmd.AddCommand(newAuthStatusCmd(opts))
	cmd.AddCommand(newAuthTokenCmd(opts))
	return cmd
}

func newAuthLoginCmd(opts *globalOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with Google Cloud Platform",
		Long: `Authenticate with Google Cloud Platform.

Without an active gcloud account this opens a web browser to complete the
OAuth 2.0 flow and stores the credentials for future use.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthLogin(cmd.Context(), opts.cli, force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Force re-authentication even if already logged in")
	return cmd
}

func runAuthLogin(ctx context.Context, cli *cliContext, force bool) error {
	m := cli.authManager()
	if !force && m.IsAuthenticated(ctx) {
		cli.info(color.SuccessStyle, "✓ Already authenticated. Use --force to re-authenticate.")
		return nil
	}

	cli.info(color.PlainStyle, "🔐 Starting authentication flow...")
	_, email, err := m.Authenticate(ctx, force)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	if !cli.quiet {
		body := color.SuccessStyle.Bold(true).Render("✓ Authentication successful!") + "\n\n" +
			color.InfoStyle.Render("User: "+email) + "\n" +
			color.DimStyle.Render(sourceNote(m.Session().Source))
		cli.printer.PrintPanel("Authentication Complete", body, color.Success)
	}
	return nil
}

func sourceNote(source auth.Source) string {
	switch source {
	case auth.SourceExternal:
		return "Using the active gcloud account."
	case auth.SourceAmbient:
		return "Using application default credentials."
	default:
		return "Credentials have been saved for future use."
	}
}

func newAuthLogoutCmd(opts *globalOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove stored authentication credentials",
		Long: `Remove stored authentication credentials.

This will require you to run 'gcphcp auth login' again before making API calls.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthLogout(cmd.Context(), opts.cli, yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")
	return cmd
}

func runAuthLogout(ctx context.Context, cli *cliContext, yes bool) error {
	m := cli.authManager()
	if !m.IsAuthenticated(ctx) {
		cli.info(color.WarningStyle, "No active authentication found.")
		return nil
	}

	if !yes && !cli.quiet {
		ok, err := cli.confirm("Are you sure you want to logout?")
		if err != nil {
			return err
		}
		if !ok {
			cli.info(color.PlainStyle, "Logout cancelled.")
			return nil
		}
	}

	if err := m.Logout(); err != nil {
		return fmt.Errorf("error during logout: %w", err)
	}
	cli.info(color.SuccessStyle, "✓ Successfully logged out.")
	return nil
}

func newAuthStatusCmd(opts *globalOptions) *cobra.Command {
	var verify bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show current authentication status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthStatus(cmd.Context(), opts.cli, verify)
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "Verify the identity token signature with Google")
	return cmd
}

// authStatus is the structured form of auth status.
type authStatus struct {
	Authenticated bool   `json:"authenticated"`
	User          string `json:"user,omitempty"`
	Source        string `json:"source,omitempty"`
	Verified      *bool  `json:"verified,omitempty"`
	Issuer        string `json:"issuer,omitempty"`
	Expiry        string `json:"expiry,omitempty"`
	Warning       string `json:"warning,omitempty"`
}

func runAuthStatus(ctx context.Context, cli *cliContext, verify bool) error {
	m := cli.authManager()
	st := authStatus{Authenticated: m.IsAuthenticated(ctx)}

	if st.Authenticated {
		headers, err := m.AuthHeaders(ctx)
		if err != nil {
			st.Warning = err.Error()
		} else {
			st.User = headers.Get(auth.HeaderUserEmail)
			st.Source = string(m.Session().Source)
		}
		if verify && err == nil {
			verifyIdentity(ctx, cli, m.Session(), &st)
		}
	}

	if !cli.printer.IsTable() {
		return cli.printer.PrintData(st)
	}

	switch {
	case !st.Authenticated:
		body := color.ErrorStyle.Bold(true).Render("✗ Not authenticated") + "\n\n" +
			color.DimStyle.Render("Run 'gcphcp auth login' to authenticate.")
		cli.printer.PrintPanel("Authentication Status", body, color.Error)
	case st.Warning != "":
		body := color.WarningStyle.Bold(true).Render("⚠ Authenticated (with issues)") + "\n\n" +
			color.WarningStyle.Render("Warning: "+st.Warning) + "\n" +
			color.DimStyle.Render("You may need to re-authenticate.")
		cli.printer.PrintPanel("Authentication Status", body, color.Warning)
	default:
		lines := []string{
			color.SuccessStyle.Bold(true).Render("✓ Authenticated"),
			"",
			color.InfoStyle.Render("User: " + st.User),
		}
		if st.Verified != nil {
			lines = append(lines, color.InfoStyle.Render(fmt.Sprintf("Signature verified: %s (expires %s)", st.Issuer, st.Expiry)))
		}
		lines = append(lines, color.DimStyle.Render("Ready to make API calls."))
		cli.printer.PrintPanel("Authentication Status", strings.Join(lines, "\n"), color.Success)
	}
	return nil
}

func verifyIdentity(ctx context.Context, cli *cliContext, s auth.Session, st *authStatus) {
	if s.Credentials == nil || s.Credentials.IDToken == "" {
		st.Warning = "no identity token to verify"
		return
	}
	v, err := newVerifier(ctx, cli.cfg.Audience())
	if err != nil {
		st.Warning = err.Error()
		return
	}
	id, err := v.Verify(ctx, s.Credentials.IDToken)
	if err != nil {
		st.Warning = err.Error()
		return
	}
	verified := true
	st.Verified = &verified
	st.Issuer = id.Issuer
	st.Expiry = output.FormatDateTime(&id.Expiry)
}

const (
	tokenFormatToken   = "token"
	tokenFormatHeaders = "headers"
)

func newAuthTokenCmd(opts *globalOptions) *cobra.Command {
	var (
		format    string
		copyToken bool
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Display the current identity token or authentication headers",
		Long: `Display the current identity token or authentication headers.

This is useful for debugging or integration with other tools.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthToken(cmd.Context(), opts.cli, strings.ToLower(format), copyToken)
		},
	}
	cmd.Flags().StringVar(&format, "format", tokenFormatToken, "Output format for token information (token, headers)")
	cmd.Flags().BoolVar(&copyToken, "copy", false, "Copy the token to the clipboard")
	return cmd
}

func runAuthToken(ctx context.Context, cli *cliContext, format string, copyToken bool) error {
	if format != tokenFormatToken && format != tokenFormatHeaders {
		return fmt.Errorf("invalid token format %q (expected token or headers)", format)
	}

	m := cli.authManager()
	if !m.IsAuthenticated(ctx) {
		return fmt.Errorf("not authenticated. Run 'gcphcp auth login' first")
	}

	out := cli.printer.Writer()
	if format == tokenFormatHeaders {
		headers, err := m.AuthHeaders(ctx)
		if err != nil {
			return fmt.Errorf("error retrieving token: %w", err)
		}
		names := make([]string, 0, len(headers))
		for name := range headers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(out, "%s: %s\n", name, headers.Get(name))
		}
		return nil
	}

	token, _, err := m.Authenticate(ctx, false)
	if err != nil {
		return fmt.Errorf("error retrieving token: %w", err)
	}
	fmt.Fprintln(out, token)

	if copyToken {
		if err := copyToClipboard(token); err != nil {
			return fmt.Errorf("failed to copy token to clipboard: %w", err)
		}
		fmt.Fprintln(cli.errOut, color.SuccessStyle.Render("Token copied to clipboard."))
	}
	return nil
}
