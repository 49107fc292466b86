package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"gcphcp/internal/client"
	"gcphcp/internal/color"
	"gcphcp/internal/models"
	"gcphcp/internal/output"
)

func newNodePoolsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "nodepools",
		Aliases: []string{"nodepool", "np"},
		Short:   "Manage nodepools",
		Long:    `Manage the worker nodepools of hosted control plane clusters.`,
	}

	cmd.AddCommand(newNodePoolsListCmd(opts))
	cmd.AddCommand(newNodePoolsStatusCmd(opts))
	cmd.AddCommand(newNodePoolsCreateCmd(opts))
	cmd.AddCommand(newNodePoolsDeleteCmd(opts))
	return cmd
}

func newNodePoolsListCmd(opts *globalOptions) *cobra.Command {
	var cluster string
	cmd := &cobra.Command{
		Use:   "list --cluster <cluster>",
		Short: "List the nodepools of a cluster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNodePoolsList(cmd.Context(), opts.cli, cluster)
		},
	}
	cmd.Flags().StringVar(&cluster, "cluster", "", "Cluster name, ID prefix or ID")
	_ = cmd.MarkFlagRequired("cluster")
	return cmd
}

func runNodePoolsList(ctx context.Context, cli *cliContext, identifier string) error {
	clusterID, err := cli.resolveCluster(ctx, identifier)
	if err != nil {
		return err
	}

	list, err := cli.apiClient().ListNodePools(ctx, clusterID)
	if err != nil {
		return err
	}
	if len(list.NodePools) == 0 {
		cli.info(color.WarningStyle, "No nodepools found for cluster '%s'.", identifier)
		return nil
	}

	if !cli.printer.IsTable() {
		return cli.printer.PrintData(list.NodePools)
	}

	t := output.Table{
		Title:   fmt.Sprintf("NodePools (%d/%d)", len(list.NodePools), list.Total),
		Columns: []string{"NAME", "ID", "STATUS", "NODES", "MACHINE TYPE", "CREATED"},
	}
	for _, np := range list.NodePools {
		phase := np.DisplayStatus()
		machineType := ""
		if np.Spec != nil {
			machineType = np.Spec.MachineType
		}
		t.Rows = append(t.Rows, []string{
			np.Name,
			np.ID,
			color.Phase(phase).Render(phase),
			np.NodeInfo(),
			machineType,
			output.FormatDateTime(np.CreatedAt),
		})
	}
	return cli.printer.PrintTable(t)
}

func newNodePoolsStatusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <nodepool-id>",
		Short: "Show detailed information and status for a nodepool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			np, err := opts.cli.apiClient().GetNodePool(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, client.ErrNotFound) {
					return fmt.Errorf("nodepool not found: %s", args[0])
				}
				return err
			}
			return opts.cli.printer.PrintNodePoolStatus(np)
		},
	}
}

type nodePoolsCreateOptions struct {
	cluster     string
	machineType string
	diskSize    int
	nodeCount   int
	minNodes    int
	maxNodes    int
	labels      map[string]string
	dryRun      bool
}

func newNodePoolsCreateCmd(opts *globalOptions) *cobra.Command {
	co := nodePoolsCreateOptions{}
	cmd := &cobra.Command{
		Use:   "create <name> --cluster <cluster>",
		Short: "Create a nodepool",
		Long: `Create a nodepool in a cluster.

Set --min-nodes and --max-nodes together to enable autoscaling.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNodePoolsCreate(cmd.Context(), opts.cli, args[0], co)
		},
	}
	cmd.Flags().StringVar(&co.cluster, "cluster", "", "Cluster name, ID prefix or ID")
	cmd.Flags().StringVar(&co.machineType, "machine-type", "n1-standard-4", "Machine type of the nodes")
	cmd.Flags().IntVar(&co.diskSize, "disk-size", 100, "Boot disk size in GB")
	cmd.Flags().IntVar(&co.nodeCount, "node-count", 3, "Number of nodes")
	cmd.Flags().IntVar(&co.minNodes, "min-nodes", 0, "Minimum number of nodes when autoscaling")
	cmd.Flags().IntVar(&co.maxNodes, "max-nodes", 0, "Maximum number of nodes when autoscaling")
	cmd.Flags().StringToStringVar(&co.labels, "labels", nil, "Node labels as key=value pairs")
	cmd.Flags().BoolVar(&co.dryRun, "dry-run", false, "Show what would be created without actually creating")
	_ = cmd.MarkFlagRequired("cluster")
	return cmd
}

func runNodePoolsCreate(ctx context.Context, cli *cliContext, name string, co nodePoolsCreateOptions) error {
	if err := models.ValidateNodePoolName(name); err != nil {
		return err
	}
	if co.nodeCount < 0 || co.diskSize <= 0 {
		return errors.New("--node-count must not be negative and --disk-size must be positive")
	}
	if (co.minNodes > 0) != (co.maxNodes > 0) || co.minNodes > co.maxNodes {
		return errors.New("--min-nodes and --max-nodes must be set together, with min <= max")
	}

	clusterID := co.cluster
	if !co.dryRun {
		id, err := cli.resolveCluster(ctx, co.cluster)
		if err != nil {
			return err
		}
		clusterID = id
	}

	spec := models.NodePoolSpec{
		ClusterID:   clusterID,
		MachineType: co.machineType,
		DiskSize:    co.diskSize,
		NodeCount:   models.IntPtr(co.nodeCount),
		Labels:      co.labels,
	}
	if co.maxNodes > 0 {
		spec.MinNodeCount = models.IntPtr(co.minNodes)
		spec.MaxNodeCount = models.IntPtr(co.maxNodes)
	}
	req := models.CreateNodePoolRequest{Name: name, ClusterID: clusterID, Spec: spec}

	if co.dryRun {
		cli.info(color.WarningStyle, "Dry run - would create:")
		return cli.printer.PrintData(req)
	}

	cli.info(color.PlainStyle, "Creating nodepool '%s' in cluster '%s'...", name, co.cluster)
	np, err := cli.apiClient().CreateNodePool(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to create nodepool: %w", err)
	}

	if cli.quiet || !cli.printer.IsTable() {
		return cli.printer.PrintData(np)
	}
	body := color.SuccessStyle.Bold(true).Render("✓ NodePool created successfully!") + "\n\n" +
		color.InfoStyle.Render("Name: "+np.Name) + "\n" +
		color.DimStyle.Render("ID: "+np.ID) + "\n" +
		color.DimStyle.Render("Status: "+np.DisplayStatus())
	cli.printer.PrintPanel("NodePool Created", body, color.Success)
	return nil
}

func newNodePoolsDeleteCmd(opts *globalOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <nodepool-id>",
		Short: "Delete a nodepool",
		Long: `Delete a nodepool.

WARNING: This action cannot be undone. The nodes of the nodepool will be
permanently deleted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNodePoolsDelete(cmd.Context(), opts.cli, args[0], yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")
	return cmd
}

func runNodePoolsDelete(ctx context.Context, cli *cliContext, id string, yes bool) error {
	api := cli.apiClient()
	np, err := api.GetNodePool(ctx, id)
	if err != nil {
		return err
	}
	name := np.Name
	if name == "" {
		name = id
	}

	if !yes && !cli.quiet {
		cli.printer.Notice(color.ErrorStyle, "About to delete nodepool '%s' (%s).", name, id)
		ok, err := cli.confirm("This action cannot be undone. Continue?")
		if err != nil {
			return err
		}
		if !ok {
			cli.info(color.PlainStyle, "Deletion cancelled.")
			return nil
		}
	}

	cli.info(color.PlainStyle, "Deleting nodepool '%s'...", name)
	if err := api.DeleteNodePool(ctx, id); err != nil {
		return fmt.Errorf("failed to delete nodepool: %w", err)
	}
	cli.info(color.SuccessStyle, "✓ NodePool '%s' deleted successfully.", name)
	return nil
}
