package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

const devVersion = "dev"

func newVersionCmd() *cobra.Command {
	var details bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of gcphcp",
		Long:  `Print the version of gcphcp and, with --details, the build platform.`,
		Args:  cobra.NoArgs,
		// Skip loading configuration for this command.
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			v := cmd.Root().Version
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "gcphcp version %s\n", v)
			if details {
				fmt.Fprintf(w, "Go version: %s\n", runtime.Version())
				fmt.Fprintf(w, "Platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
				fmt.Fprintf(w, "User agent: %s\n", userAgent(v))
			}
		},
	}
	cmd.Flags().BoolVar(&details, "details", false, "Show build details")
	return cmd
}

// userAgent is sent with every API request.
func userAgent(version string) string {
	if version == "" {
		version = devVersion
	}
	return "gcphcp-cli/" + version
}

// resolveVersion prefers the ldflags version and falls back to the module
// version recorded by "go install".
func resolveVersion(v string) string {
	if v != "" && v != devVersion {
		return v
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return devVersion
}
