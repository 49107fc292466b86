package output

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"gcphcp/internal/color"
)

// Format is an output format selected with --format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatCSV   Format = "csv"
	FormatValue Format = "value"
)

// Formats lists the accepted --format values.
var Formats = []string{string(FormatTable), string(FormatJSON), string(FormatYAML), string(FormatCSV), string(FormatValue)}

// ParseFormat validates a --format value. Matching is case-insensitive.
func ParseFormat(s string) (Format, error) {
	f := strings.ToLower(strings.TrimSpace(s))
	if f == "" {
		return FormatTable, nil
	}
	if !slices.Contains(Formats, f) {
		return "", fmt.Errorf("unsupported output format %q (expected one of: %s)", s, strings.Join(Formats, ", "))
	}
	return Format(f), nil
}

// Printer writes results in one format.
type Printer struct {
	out    io.Writer
	format Format
	now    func() time.Time
}

// New returns a printer writing to out.
func New(out io.Writer, format Format) *Printer {
	if format == "" {
		format = FormatTable
	}
	return &Printer{out: out, format: format, now: time.Now}
}

// Format returns the output format.
func (p *Printer) Format() Format { return p.format }

// IsTable reports whether the human readable table format is selected.
func (p *Printer) IsTable() bool { return p.format == FormatTable }

// Writer returns the destination of the printer.
func (p *Printer) Writer() io.Writer { return p.out }

// Table is a titled set of rows for the table format.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// PrintTable prints t. Outside the table format each row becomes an object
// keyed by column name.
func (p *Printer) PrintTable(t Table) error {
	if len(t.Rows) == 0 {
		if t.Title != "" {
			p.Notice(color.WarningStyle, "No data found for %s", t.Title)
		}
		return nil
	}
	if p.format != FormatTable {
		items := make([]any, 0, len(t.Rows))
		for _, r := range t.Rows {
			item := make(map[string]any, len(t.Columns))
			for i, col := range t.Columns {
				if i < len(r) {
					item[col] = r[i]
				}
			}
			items = append(items, item)
		}
		return p.PrintData(items)
	}
	fmt.Fprintln(p.out, RenderTable(t))
	return nil
}

// titleStyle renders table titles on their own line; go-pretty titles wrap
// to the table width.
var titleStyle = color.BoldStyle.Foreground(color.Accent)

func withTitle(title, body string) string {
	if title == "" {
		return body
	}
	return titleStyle.Render(title) + "\n" + body
}

// RenderTable renders t with rounded borders below its title.
func RenderTable(t Table) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	header := make(table.Row, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
	}
	tw.AppendHeader(header)
	for _, r := range t.Rows {
		row := make(table.Row, len(r))
		for i, cell := range r {
			row[i] = cell
		}
		tw.AppendRow(row)
	}
	return withTitle(t.Title, tw.Render())
}

// PrintData prints any JSON-encodable value.
func (p *Printer) PrintData(v any) error {
	data, err := toGeneric(v)
	if err != nil {
		return err
	}

	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("failed to convert to YAML: %w", err)
		}
		return enc.Close()
	case FormatCSV:
		p.printCSV(data)
		return nil
	case FormatValue:
		p.printValue(data)
		return nil
	default:
		p.printGenericTable(data)
		return nil
	}
}

// Notice prints a styled line.
func (p *Printer) Notice(style lipgloss.Style, format string, args ...any) {
	fmt.Fprintln(p.out, style.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) printCSV(data any) {
	items, ok := data.([]any)
	if !ok || len(items) == 0 {
		fmt.Fprintln(p.out, cellString(data))
		return
	}
	first, ok := items[0].(map[string]any)
	if !ok {
		for _, item := range items {
			fmt.Fprintln(p.out, cellString(item))
		}
		return
	}

	keys := sortedKeys(first)
	tw := table.NewWriter()
	tw.SetOutputMirror(p.out)
	header := make(table.Row, len(keys))
	for i, k := range keys {
		header[i] = k
	}
	tw.AppendHeader(header)
	for _, item := range items {
		m, _ := item.(map[string]any)
		row := make(table.Row, len(keys))
		for i, k := range keys {
			row[i] = cellString(m[k])
		}
		tw.AppendRow(row)
	}
	tw.RenderCSV()
}

func (p *Printer) printValue(data any) {
	switch d := data.(type) {
	case []any:
		for _, item := range d {
			if m, ok := item.(map[string]any); ok {
				fmt.Fprintln(p.out, strings.Join(mapValues(m), "\t"))
				continue
			}
			fmt.Fprintln(p.out, cellString(item))
		}
	case map[string]any:
		for _, v := range mapValues(d) {
			fmt.Fprintln(p.out, v)
		}
	default:
		fmt.Fprintln(p.out, cellString(d))
	}
}

func (p *Printer) printGenericTable(data any) {
	switch d := data.(type) {
	case []any:
		if len(d) == 0 {
			p.Notice(color.WarningStyle, "No items found")
			return
		}
		first, ok := d[0].(map[string]any)
		if !ok {
			for _, item := range d {
				fmt.Fprintln(p.out, cellString(item))
			}
			return
		}
		t := Table{Columns: sortedKeys(first)}
		for _, item := range d {
			m, _ := item.(map[string]any)
			row := make([]string, len(t.Columns))
			for i, col := range t.Columns {
				row[i] = summarize(m[col])
			}
			t.Rows = append(t.Rows, row)
		}
		fmt.Fprintln(p.out, RenderTable(t))
	case map[string]any:
		d2 := newDetails("")
		for _, k := range sortedKeys(d) {
			d2.add(k, summarize(d[k]))
		}
		fmt.Fprintln(p.out, d2.render())
	default:
		fmt.Fprintln(p.out, cellString(d))
	}
}

// toGeneric converts v to the maps, slices and scalars of its JSON form.
func toGeneric(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}
	return out, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func mapValues(m map[string]any) []string {
	keys := sortedKeys(m)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = cellString(m[k])
	}
	return out
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(raw)
	}
}

// summarize shortens nested values for table cells.
func summarize(v any) string {
	switch t := v.(type) {
	case map[string]any:
		return color.DimStyle.Render("[map]")
	case []any:
		return color.DimStyle.Render(fmt.Sprintf("[%d items]", len(t)))
	default:
		return cellString(t)
	}
}
