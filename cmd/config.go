package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"gcphcp/internal/color"
	"gcphcp/internal/config"
	"gcphcp/internal/output"
)

func newConfigCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long: `Manage the gcphcp configuration file.

Keys may be nested with dots, for example 'defaults.region'.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show current configuration values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(opts.cli)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Get a specific configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(opts.cli, args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

The values true and false are stored as booleans and digit strings as
integers; everything else is stored as a string.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(opts.cli, args[0], args[1])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "unset <key>",
		Short: "Remove a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigUnset(opts.cli, args[0])
		},
	})
	cmd.AddCommand(newConfigInitCmd(opts))
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the path to the configuration file",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(opts.cli.printer.Writer(), opts.cli.cfg.Path())
		},
	})
	return cmd
}

func runConfigList(cli *cliContext) error {
	all := cli.cfg.All()
	if !cli.printer.IsTable() {
		return cli.printer.PrintData(all)
	}

	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := output.Table{Title: "Configuration", Columns: []string{"SETTING", "VALUE", "SOURCE"}}
	for _, k := range keys {
		value := config.FormatValue(all[k])
		switch {
		case config.IsSensitiveKey(k):
			value = "[hidden]"
		case all[k] == nil:
			value = "[not set]"
		}
		t.Rows = append(t.Rows, []string{k, value, "config file"})
	}
	return cli.printer.PrintTable(t)
}

func runConfigGet(cli *cliContext, key string) error {
	value, ok := cli.cfg.Get(key)
	if !ok || value == nil {
		cli.info(color.WarningStyle, "Configuration key '%s' is not set.", key)
		return nil
	}

	out := cli.printer.Writer()
	if cli.printer.Format() == output.FormatValue {
		fmt.Fprintln(out, config.FormatValue(value))
		return nil
	}
	fmt.Fprintf(out, "%s: %s\n", key, config.FormatValue(value))
	return nil
}

func runConfigSet(cli *cliContext, key, value string) error {
	if err := cli.cfg.Set(key, config.ParseValue(value)); err != nil {
		return err
	}
	if err := cli.cfg.Save(); err != nil {
		return err
	}
	cli.info(color.SuccessStyle, "✓ Set %s = %s", key, value)
	return nil
}

func runConfigUnset(cli *cliContext, key string) error {
	if !cli.cfg.Unset(key) {
		cli.info(color.WarningStyle, "Configuration key '%s' is not set.", key)
		return nil
	}
	if err := cli.cfg.Save(); err != nil {
		return err
	}
	cli.info(color.SuccessStyle, "✓ Unset %s", key)
	return nil
}

func newConfigInitCmd(opts *globalOptions) *cobra.Command {
	var endpoint, project string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration with interactive prompts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(opts.cli, endpoint, project)
		},
	}
	cmd.Flags().StringVar(&endpoint, "api-endpoint", "", "API endpoint URL")
	cmd.Flags().StringVar(&project, "project", "", "Default project ID")
	return cmd
}

func runConfigInit(cli *cliContext, endpoint, project string) error {
	var err error
	if endpoint == "" {
		if endpoint, err = cli.prompt("API endpoint URL", cli.cfg.APIEndpoint()); err != nil {
			return err
		}
	}
	if project == "" {
		if project, err = cli.prompt("Default project ID", cli.cfg.DefaultProject()); err != nil {
			return err
		}
	}

	if err := cli.cfg.Set(config.KeyAPIEndpoint, endpoint); err != nil {
		return err
	}
	if project != "" {
		if err := cli.cfg.Set(config.KeyDefaultProject, project); err != nil {
			return err
		}
	}
	if err := cli.cfg.Save(); err != nil {
		return fmt.Errorf("error initializing configuration: %w", err)
	}

	if !cli.quiet {
		body := color.SuccessStyle.Bold(true).Render("✓ Configuration initialized successfully!") + "\n\n" +
			"API Endpoint: " + endpoint + "\n" +
			"Default Project: " + project + "\n\n" +
			"Configuration saved to: " + cli.cfg.Path() + "\n\n" +
			"Next steps:\n" +
			"1. Run 'gcphcp auth login' to authenticate\n" +
			"2. Run 'gcphcp clusters list' to test the connection"
		cli.printer.PrintPanel("Configuration Complete", body, color.Success)
	}
	return nil
}
