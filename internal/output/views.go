package output

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"

	"gcphcp/internal/color"
	"gcphcp/internal/models"
)

const (
	// MaxMessageWidth bounds condition messages in the controller view.
	MaxMessageWidth = 80

	keyColumnWidth = 20
	dateTimeLayout = "2006-01-02 15:04:05"
)

// hostedClusterConditions are the hosted cluster conditions worth showing.
var hostedClusterConditions = map[string]bool{
	"Available":                true,
	"Progressing":              true,
	"Degraded":                 true,
	"ClusterVersionSucceeding": true,
}

// FormatDateTime renders t in UTC, or "" when unset.
func FormatDateTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeLayout) + " UTC"
}

// Truncate shortens s to width terminal cells, ending in "...".
func Truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}

// Panel renders body in a rounded box with a bold title line.
func Panel(title, body string, border lipgloss.TerminalColor) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
	content := body
	if title != "" {
		content = lipgloss.NewStyle().Bold(true).Foreground(border).Render(title) + "\n\n" + body
	}
	return style.Render(content)
}

// PrintPanel prints a panel.
func (p *Printer) PrintPanel(title, body string, border lipgloss.TerminalColor) {
	fmt.Fprintln(p.out, Panel(title, body, border))
}

// details is a borderless two column key/value listing.
type details struct {
	title string
	rows  [][2]string
}

func newDetails(title string) *details {
	return &details{title: title}
}

func (d *details) add(key, value string) {
	d.rows = append(d.rows, [2]string{key, value})
}

func (d *details) section(name string) {
	if len(d.rows) > 0 {
		d.add("", "")
	}
	d.add(color.BoldStyle.Render(name), "")
}

func (d *details) render() string {
	style := table.StyleLight
	style.Options = table.Options{}
	style.Format.Header = text.FormatDefault

	tw := table.NewWriter()
	tw.SetStyle(style)
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 1, WidthMin: keyColumnWidth}})
	for _, r := range d.rows {
		key := r[0]
		if key != "" {
			key = color.KeyStyle.Render(key)
		}
		tw.AppendRow(table.Row{key, r[1]})
	}
	return withTitle(d.title, tw.Render())
}

// ClusterStatusView is everything shown by a cluster status call.
type ClusterStatusView struct {
	ID      string
	Cluster *models.Cluster
	// Detail is set when controller status was requested and available.
	Detail *models.ClusterStatusDetail
}

// PrintClusterStatus prints the cluster status view. Structured formats get
// the raw status along with the time it was checked.
func (p *Printer) PrintClusterStatus(v ClusterStatusView) error {
	if p.format != FormatTable {
		return p.PrintData(p.clusterStatusData(v))
	}
	fmt.Fprintln(p.out, RenderClusterStatus(v))
	return nil
}

func (p *Printer) clusterStatusData(v ClusterStatusView) map[string]any {
	name := models.PhaseUnknown
	if v.Cluster.Name != "" {
		name = v.Cluster.Name
	}
	out := map[string]any{
		"cluster_id":   v.ID,
		"cluster_name": name,
		"status":       v.Cluster.Status,
		"last_checked": p.now().UTC().Format(dateTimeLayout) + " UTC",
	}
	if v.Cluster.Status == nil {
		out["status"] = map[string]any{}
	}
	if v.Detail != nil {
		out["controller_status"] = v.Detail.ControllerStatus
		out["detailed_status"] = v.Detail.Status
	}
	return out
}

// RenderClusterStatus renders the table form of the cluster status view.
func RenderClusterStatus(v ClusterStatusView) string {
	c := v.Cluster
	title := c.Name
	if title == "" {
		title = v.ID
	}

	d := newDetails("Status: " + title)
	d.add("Cluster ID", v.ID)
	d.add("Cluster Name", orUnknown(c.Name))
	d.add("Project", orUnknown(c.TargetProjectID))
	d.add("Created By", orUnknown(c.CreatedBy))

	if s := c.Status; s != nil {
		d.section("Current Status")
		phase := c.DisplayStatus()
		d.add("  Phase", color.Phase(phase).Render(phase))
		if s.ObservedGeneration != 0 {
			desired := c.Generation
			if desired == 0 {
				desired = s.ObservedGeneration
			}
			if s.ObservedGeneration == desired {
				d.add("  Generation", color.SuccessStyle.Render(fmt.Sprint(s.ObservedGeneration))+" (up to date)")
			} else {
				d.add("  Generation", color.WarningStyle.Render(fmt.Sprint(s.ObservedGeneration))+fmt.Sprintf(" (desired: %d)", desired))
			}
		}
		if s.Message != "" {
			d.add("  Message", s.Message)
		}
		if s.Reason != "" {
			d.add("  Reason", s.Reason)
		}
		if s.LastUpdateTime != nil {
			d.add("  Last Update", FormatDateTime(s.LastUpdateTime))
		}
		if len(s.Conditions) > 0 {
			d.section("Conditions")
			for _, cond := range s.Conditions {
				d.add("  "+orUnknown(cond.Type), conditionText(cond, 0))
				if cond.LastTransitionTime != nil {
					d.add("    Last Transition", color.DimStyle.Render(FormatDateTime(cond.LastTransitionTime)))
				}
			}
		}
	}

	if c.Spec != nil && c.Spec.Platform != nil {
		d.section("Platform")
		d.add("  Type", orUnknown(c.Spec.Platform.Type))
		if gcp := c.Spec.Platform.GCP; gcp != nil {
			d.add("  GCP Project", orUnknown(gcp.ProjectID))
			d.add("  GCP Region", orUnknown(gcp.Region))
		}
	}

	out := d.render()
	if v.Detail != nil && len(v.Detail.ControllerStatus) > 0 {
		out += "\n\n" + RenderControllerStatus(v.Detail)
	}
	return out
}

// RenderControllerStatus renders per-controller conditions and the
// resources each controller manages.
func RenderControllerStatus(detail *models.ClusterStatusDetail) string {
	d := newDetails(color.BoldStyle.Render("Controller Status Details"))
	for i, ctrl := range detail.ControllerStatus {
		if i > 0 {
			d.add("", "")
		}
		d.add(color.BoldStyle.Render(fmt.Sprintf("Controller %d", i+1)), color.BoldStyle.Render(orUnknown(ctrl.ControllerName)))
		if ctrl.ObservedGeneration != 0 {
			d.add("  Observed Generation", fmt.Sprint(ctrl.ObservedGeneration))
		}
		if ctrl.LastUpdated != nil {
			d.add("  Last Updated", FormatDateTime(ctrl.LastUpdated))
		}
		if len(ctrl.Conditions) > 0 {
			d.add("  Conditions", "")
			for _, cond := range ctrl.Conditions {
				d.add("    "+orUnknown(cond.Type), conditionText(cond, MaxMessageWidth))
			}
		}

		resources, _ := ctrl.Metadata["resources"].(map[string]any)
		if len(resources) == 0 {
			continue
		}
		d.add("  Resources", "")
		names := make([]string, 0, len(resources))
		for name := range resources {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			res, _ := resources[name].(map[string]any)
			status := stringField(res, "status")
			d.add("    "+capitalize(name), color.ResourceStatus(status).Render(status))
			if name == "hostedcluster" {
				addHostedConditions(d, res)
			}
		}
	}
	return d.render()
}

func addHostedConditions(d *details, res map[string]any) {
	rs, _ := res["resource_status"].(map[string]any)
	conds, _ := rs["conditions"].([]any)
	for _, c := range conds {
		cond, _ := c.(map[string]any)
		typ := stringField(cond, "type")
		if !hostedClusterConditions[typ] {
			continue
		}
		status := stringField(cond, "status")
		value := color.HostedCondition(typ, status).Render(status)
		if reason, _ := cond["reason"].(string); reason != "" {
			value += " (" + reason + ")"
		}
		d.add("      "+typ, value)
	}
}

// PrintNodePoolStatus prints one nodepool.
func (p *Printer) PrintNodePoolStatus(np *models.NodePool) error {
	if p.format != FormatTable {
		return p.PrintData(np)
	}
	fmt.Fprintln(p.out, RenderNodePoolStatus(np, p.now()))
	return nil
}

// RenderNodePoolStatus renders the table form of a nodepool.
func RenderNodePoolStatus(np *models.NodePool, now time.Time) string {
	d := newDetails("NodePool: " + np.Name)
	d.add("ID", np.ID)
	d.add("Name", np.Name)
	d.add("Cluster ID", np.ClusterID)
	d.add("Created By", orUnknown(np.CreatedBy))
	d.add("Created", FormatDateTime(np.CreatedAt))
	d.add("Age", np.Age(now))

	if s := np.Spec; s != nil {
		d.section("Specification")
		d.add("  Machine Type", orUnknown(s.MachineType))
		if s.DiskSize > 0 {
			d.add("  Disk Size", fmt.Sprintf("%d GB", s.DiskSize))
		}
		if s.MinNodeCount != nil && s.MaxNodeCount != nil {
			d.add("  Autoscaling", fmt.Sprintf("%d-%d nodes", *s.MinNodeCount, *s.MaxNodeCount))
		}
		if len(s.Labels) > 0 {
			keys := make([]string, 0, len(s.Labels))
			for k := range s.Labels {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			pairs := make([]string, len(keys))
			for i, k := range keys {
				pairs[i] = k + "=" + s.Labels[k]
			}
			d.add("  Labels", strings.Join(pairs, ", "))
		}
		for _, t := range s.Taints {
			d.add("  Taint", fmt.Sprintf("%s=%s:%s", t.Key, t.Value, t.Effect))
		}
	}

	d.section("Current Status")
	phase := np.DisplayStatus()
	d.add("  Phase", color.Phase(phase).Render(phase))
	d.add("  Nodes", np.NodeInfo())
	if np.Status != nil {
		if np.Status.Message != "" {
			d.add("  Message", np.Status.Message)
		}
		for _, cond := range np.Status.Conditions {
			d.add("  "+orUnknown(cond.Type), conditionText(cond, MaxMessageWidth))
		}
	}
	return d.render()
}

func conditionText(c models.Condition, maxMessage int) string {
	status := c.Status
	if status == "" {
		status = models.PhaseUnknown
	}
	out := color.ConditionStatus(status).Render(status)
	if c.Message != "" {
		msg := c.Message
		if maxMessage > 0 {
			msg = Truncate(msg, maxMessage)
		}
		out += " - " + msg
	}
	return out
}

func orUnknown(s string) string {
	if s == "" {
		return models.PhaseUnknown
	}
	return s
}

func stringField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return models.PhaseUnknown
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
