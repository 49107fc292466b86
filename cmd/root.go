package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"gcphcp/internal/color"
	"gcphcp/internal/output"
	"gcphcp/pkg/logging"
)

// Exit codes
const (
	exitError       = 1
	exitInterrupted = 130
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath   string
	apiEndpoint  string
	project      string
	outputFormat string
	verbosity    int
	quiet        bool

	// cli is built once the flags are parsed.
	cli *cliContext
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "gcphcp",
		Short: "Manage Google Cloud hosted control plane clusters",
		Long: `gcphcp is the command-line interface for Google Cloud Platform hosted
control planes. It authenticates with your Google account and manages
clusters and nodepools through the GCP HCP API with gcloud-style commands
and output formatting.`,
		// SilenceUsage is set to true to prevent printing usage message on errors
		// handled by us (e.g. invalid arguments, failed API calls)
		SilenceUsage: true,
		// Errors are printed by Execute so interrupts can be reported differently.
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.InitForCLI(logging.LevelFromVerbosity(opts.verbosity), cmd.ErrOrStderr())

			cli, err := newCLIContext(cmd, opts)
			if err != nil {
				return err
			}
			opts.cli = cli
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to configuration file (default is $HOME/.gcphcp/config.yaml)")
	flags.StringVar(&opts.apiEndpoint, "api-endpoint", "", "API endpoint URL")
	flags.StringVar(&opts.project, "project", "", "Default project ID")
	flags.StringVar(&opts.outputFormat, "format", string(output.FormatTable), "Output format (table, json, yaml, csv, value)")
	flags.CountVarP(&opts.verbosity, "verbose", "v", "Increase verbosity (use -v or -vv)")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress non-essential output")

	cmd.AddCommand(newAuthCmd(opts))
	cmd.AddCommand(newClustersCmd(opts))
	cmd.AddCommand(newNodePoolsCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newSelfUpdateCmd())

	return cmd
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = resolveVersion(v)
}

// Execute runs the root command with a context that is cancelled on
// SIGINT/SIGTERM, then exits with 1 on errors and 130 on interrupts.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "gcphcp version %s\n" .Version}}`)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if code := exitCode(ctx, err, os.Stderr); code != 0 {
		os.Exit(code)
	}
}

// exitCode reports err on w and maps it to the process exit code.
func exitCode(ctx context.Context, err error, w io.Writer) int {
	if err == nil {
		return 0
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		fmt.Fprintln(w, color.WarningStyle.Render("\nOperation cancelled by user"))
		return exitInterrupted
	}
	fmt.Fprintln(w, color.ErrorStyle.Render("Error: "+err.Error()))
	return exitError
}
