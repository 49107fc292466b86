package cmd

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gcphcp/internal/client"
	"gcphcp/internal/color"
	"gcphcp/internal/models"
	"gcphcp/internal/output"
	"gcphcp/internal/watch"
	"gcphcp/pkg/logging"
)

const defaultListLimit = 10

func newClustersCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "clusters",
		Aliases: []string{"cluster"},
		Short:   "Manage clusters",
		Long: `Manage hosted control plane clusters.

Clusters can be referred to by name, by an ID prefix or by their full ID.`,
	}

	cmd.AddCommand(newClustersListCmd(opts))
	cmd.AddCommand(newClustersStatusCmd(opts))
	cmd.AddCommand(newClustersCreateCmd(opts))
	cmd.AddCommand(newClustersDeleteCmd(opts))
	return cmd
}

type clustersListOptions struct {
	limit  int
	offset int
	status string
}

func newClustersListCmd(opts *globalOptions) *cobra.Command {
	lo := clustersListOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clusters",
		Long:  `List clusters with their name, ID, status, project and creation time.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClustersList(cmd.Context(), opts.cli, lo)
		},
	}
	cmd.Flags().IntVar(&lo.limit, "limit", defaultListLimit, "Maximum number of clusters to list")
	cmd.Flags().IntVar(&lo.offset, "offset", 0, "Number of clusters to skip")
	cmd.Flags().StringVar(&lo.status, "status", "", "Filter by status ("+strings.Join(models.KnownPhases, ", ")+")")
	return cmd
}

func runClustersList(ctx context.Context, cli *cliContext, lo clustersListOptions) error {
	if lo.status != "" && !slices.Contains(models.KnownPhases, lo.status) {
		return fmt.Errorf("invalid status %q (expected one of: %s)", lo.status, strings.Join(models.KnownPhases, ", "))
	}
	if lo.limit <= 0 {
		return fmt.Errorf("--limit must be positive")
	}

	list, err := cli.apiClient().ListClusters(ctx, client.ListClustersOptions{
		Limit:  lo.limit,
		Offset: lo.offset,
		Status: lo.status,
	})
	if err != nil {
		return err
	}

	if len(list.Clusters) == 0 {
		msg := "No clusters found"
		if lo.status != "" {
			msg += fmt.Sprintf(" with status '%s'", lo.status)
		}
		cli.info(color.WarningStyle, "%s.", msg)
		return nil
	}

	if !cli.printer.IsTable() {
		return cli.printer.PrintData(list.Clusters)
	}

	t := output.Table{
		Title:   fmt.Sprintf("Clusters (%d/%d)", len(list.Clusters), list.Total),
		Columns: []string{"NAME", "ID", "STATUS", "PROJECT", "CREATED"},
	}
	for _, c := range list.Clusters {
		phase := c.DisplayStatus()
		t.Rows = append(t.Rows, []string{
			c.Name,
			c.ID,
			color.Phase(phase).Render(phase),
			c.TargetProjectID,
			output.FormatDateTime(c.CreatedAt),
		})
	}
	if err := cli.printer.PrintTable(t); err != nil {
		return err
	}

	if list.Total > lo.limit {
		if remaining := list.Total - lo.offset - len(list.Clusters); remaining > 0 {
			cli.info(color.DimStyle, "Showing %d of %d clusters. Use --offset %d to see more.",
				len(list.Clusters), list.Total, lo.offset+lo.limit)
		}
	}
	return nil
}

type clustersStatusOptions struct {
	watch    bool
	interval int
	all      bool
}

func newClustersStatusCmd(opts *globalOptions) *cobra.Command {
	so := clustersStatusOptions{}
	cmd := &cobra.Command{
		Use:   "status <cluster>",
		Short: "Show detailed information and status for a cluster",
		Long: `Show detailed information and status for a cluster.

Displays current status, conditions and platform configuration. Use --all to
include the controller status and the resources the controllers manage.

Examples:
  gcphcp clusters status demo08
  gcphcp clusters status demo08 --all
  gcphcp clusters status 3c7f2227 --watch --interval 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClustersStatus(cmd.Context(), opts.cli, args[0], so)
		},
	}
	cmd.Flags().BoolVarP(&so.watch, "watch", "w", false, "Watch for status changes in real-time")
	cmd.Flags().IntVar(&so.interval, "interval", 5, "Polling interval in seconds for watch mode")
	cmd.Flags().BoolVarP(&so.all, "all", "a", false, "Show controller status and resource details")
	return cmd
}

func runClustersStatus(ctx context.Context, cli *cliContext, identifier string, so clustersStatusOptions) error {
	if so.interval <= 0 {
		return fmt.Errorf("--interval must be positive")
	}

	id, err := cli.resolveCluster(ctx, identifier)
	if err != nil {
		return err
	}

	fetch := func(ctx context.Context) (output.ClusterStatusView, error) {
		return fetchClusterStatus(ctx, cli, id, so.all)
	}

	if !so.watch {
		view, err := fetch(ctx)
		if err != nil {
			return err
		}
		return cli.printer.PrintClusterStatus(view)
	}

	interval := time.Duration(so.interval) * time.Second
	if cli.printer.IsTable() {
		return watch.Run(ctx, func(ctx context.Context) (string, error) {
			view, err := fetch(ctx)
			if err != nil {
				return "", err
			}
			return output.RenderClusterStatus(view), nil
		}, interval, cli.printer.Writer())
	}

	cli.info(color.KeyStyle, "Watching cluster status (press Ctrl+C to stop)...")
	err = watch.Poll(ctx, interval, func(ctx context.Context) error {
		view, err := fetch(ctx)
		if err != nil {
			return err
		}
		if err := cli.printer.PrintClusterStatus(view); err != nil {
			return err
		}
		cli.info(color.DimStyle, "Next update in %d seconds...", so.interval)
		return nil
	})
	if err == nil {
		cli.info(color.WarningStyle, "Status monitoring stopped.")
	}
	return err
}

func fetchClusterStatus(ctx context.Context, cli *cliContext, id string, all bool) (output.ClusterStatusView, error) {
	api := cli.apiClient()
	cluster, err := api.GetCluster(ctx, id)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return output.ClusterStatusView{}, fmt.Errorf("cluster not found: %s", id)
		}
		return output.ClusterStatusView{}, err
	}

	view := output.ClusterStatusView{ID: id, Cluster: cluster}
	if all {
		detail, err := api.GetClusterStatus(ctx, id)
		if err != nil {
			// The status endpoint is optional; show what we have.
			logging.Debug("Clusters", "Status endpoint failed for %s: %v", id, err)
			if !cli.quiet {
				fmt.Fprintln(cli.errOut, color.WarningStyle.Render("Warning: Could not fetch status: "+err.Error()))
			}
		} else {
			view.Detail = detail
		}
	}
	return view, nil
}

type clustersCreateOptions struct {
	project     string
	description string
	dryRun      bool
}

func newClustersCreateCmd(opts *globalOptions) *cobra.Command {
	co := clustersCreateOptions{}
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new cluster",
		Long: `Create a new cluster.

The name must be a DNS-1123 label: lower case letters, digits and '-'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if co.project == "" {
				co.project = opts.cli.project
			}
			return runClustersCreate(cmd.Context(), opts.cli, args[0], co)
		},
	}
	cmd.Flags().StringVar(&co.project, "project", "", "Target project ID (overrides default)")
	cmd.Flags().StringVar(&co.description, "description", "", "Description for the cluster")
	cmd.Flags().BoolVar(&co.dryRun, "dry-run", false, "Show what would be created without actually creating")
	return cmd
}

func runClustersCreate(ctx context.Context, cli *cliContext, name string, co clustersCreateOptions) error {
	if err := models.ValidateClusterName(name); err != nil {
		return err
	}
	if co.project == "" {
		return errors.New("project ID required. Use --project or set default_project")
	}

	req := models.CreateClusterRequest{
		Name:            name,
		TargetProjectID: co.project,
		Description:     co.description,
	}

	if co.dryRun {
		cli.info(color.WarningStyle, "Dry run - would create:")
		return cli.printer.PrintData(req)
	}

	cli.info(color.PlainStyle, "Creating cluster '%s' in project '%s'...", name, co.project)
	cluster, err := cli.apiClient().CreateCluster(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to create cluster: %w", err)
	}

	if cli.quiet || !cli.printer.IsTable() {
		return cli.printer.PrintData(cluster)
	}
	body := color.SuccessStyle.Bold(true).Render("✓ Cluster created successfully!") + "\n\n" +
		color.InfoStyle.Render("Name: "+cluster.Name) + "\n" +
		color.DimStyle.Render("ID: "+cluster.ID) + "\n" +
		color.DimStyle.Render("Status: "+cluster.DisplayStatus())
	cli.printer.PrintPanel("Cluster Created", body, color.Success)
	return nil
}

func newClustersDeleteCmd(opts *globalOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <cluster>",
		Short: "Delete a cluster",
		Long: `Delete a cluster.

WARNING: This action cannot be undone. The cluster and all its resources
will be permanently deleted.

Examples:
  gcphcp clusters delete demo08
  gcphcp clusters delete 3c7f2227 --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClustersDelete(cmd.Context(), opts.cli, args[0], yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")
	return cmd
}

func runClustersDelete(ctx context.Context, cli *cliContext, identifier string, yes bool) error {
	api := cli.apiClient()
	id, err := cli.resolveCluster(ctx, identifier)
	if err != nil {
		return err
	}
	cluster, err := api.GetCluster(ctx, id)
	if err != nil {
		return err
	}
	name := cluster.Name
	if name == "" {
		name = id
	}

	if !yes && !cli.quiet {
		cli.printer.Notice(color.ErrorStyle, "About to delete cluster '%s' (%s).", name, id)
		ok, err := cli.confirm("This action cannot be undone. Continue?")
		if err != nil {
			return err
		}
		if !ok {
			cli.info(color.PlainStyle, "Deletion cancelled.")
			return nil
		}
	}

	cli.info(color.PlainStyle, "Deleting cluster '%s'...", name)
	if err := api.DeleteCluster(ctx, id); err != nil {
		return fmt.Errorf("failed to delete cluster: %w", err)
	}
	cli.info(color.SuccessStyle, "✓ Cluster '%s' deleted successfully.", name)
	return nil
}
