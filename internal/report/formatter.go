// Package report renders run results for the terminal and writes the
// optional on-disk run report.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/ralt/metasync/internal/models"
)

// Format is an output format
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// maxCellWidth truncates long descriptions in table cells
const maxCellWidth = 60

// Formatter renders a run result
type Formatter interface {
	Format(w io.Writer, result *models.RunResult) error
}

// NewFormatter creates the formatter for format, defaulting to a table
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: "  "}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TableFormatter{}
	}
}

// DetectFormat returns explicit when set, a table on a terminal, and JSON
// when stdout is piped or redirected
func DetectFormat(explicit string) Format {
	if explicit != "" {
		return Format(strings.ToLower(explicit))
	}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return FormatTable
	}
	return FormatJSON
}

// ParseFormat validates a user supplied format; empty means auto-detect
func ParseFormat(s string) (Format, error) {
	format := Format(strings.ToLower(strings.TrimSpace(s)))
	switch format {
	case FormatTable, FormatJSON, FormatYAML, "":
		return format, nil
	default:
		return "", fmt.Errorf("invalid format %q: must be one of: table, json, yaml", s)
	}
}

// JSONFormatter outputs JSON
type JSONFormatter struct {
	Indent string
}

// Format implements Formatter
func (f *JSONFormatter) Format(w io.Writer, result *models.RunResult) error {
	encoder := json.NewEncoder(w)
	if f.Indent != "" {
		encoder.SetIndent("", f.Indent)
	}
	return encoder.Encode(result)
}

// YAMLFormatter outputs YAML
type YAMLFormatter struct{}

// Format implements Formatter
func (f *YAMLFormatter) Format(w io.Writer, result *models.RunResult) error {
	data, err := yaml.MarshalWithOptions(result,
		yaml.Indent(2),
		yaml.IndentSequence(false),
	)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// TableFormatter prints one row per field followed by warnings and a summary
type TableFormatter struct{}

// Format implements Formatter
func (f *TableFormatter) Format(w io.Writer, result *models.RunResult) error {
	fmt.Fprintf(w, "Repository: %s (%s)\n", result.Identifier, result.Platform)

	config := tablewriter.Config{}
	config.Row.Alignment = tw.CellAlignment{Global: tw.AlignLeft}
	table := tablewriter.NewTable(w, tablewriter.WithConfig(config))
	table.Header("Field", "Canonical", "Remote", "Drift", "Apply", "Verify")

	for _, row := range Rows(result) {
		cells := make([]any, len(row))
		for i, cell := range row {
			cells[i] = cell
		}
		if err := table.Append(cells...); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	if result.VerifyError != "" {
		fmt.Fprintf(w, "verify: %s\n", result.VerifyError)
	}
	_, err := fmt.Fprintln(w, result.Summary())
	return err
}

var tableFields = []models.Field{
	models.FieldName,
	models.FieldRepository,
	models.FieldHomepage,
	models.FieldDescription,
	models.FieldTopics,
}

// Rows returns the per-field breakdown of result: field, canonical value,
// remote value, drift, apply outcome, verify outcome
func Rows(result *models.RunResult) [][]string {
	rows := make([][]string, 0, len(tableFields))
	for _, field := range tableFields {
		var canonical, remote string
		if result.Canonical != nil {
			canonical = result.Canonical.Value(field)
		}
		if result.Remote != nil {
			remote = result.Remote.Value(field)
		}
		rows = append(rows, []string{
			string(field),
			cell(canonical),
			cell(remote),
			driftCell(result, field),
			applyCell(result, field),
			verifyCell(result, field),
		})
	}
	return rows
}

func driftCell(result *models.RunResult, field models.Field) string {
	if field == models.FieldName || field == models.FieldRepository {
		return "identity"
	}
	entry, ok := result.Diff[field]
	if !ok {
		if result.Canonical != nil && !result.Canonical.Manages(field) {
			return "unmanaged"
		}
		return "-"
	}
	if field == models.FieldTopics {
		return "missing " + strings.Join(entry.Missing, ",")
	}
	return "yes"
}

func applyCell(result *models.RunResult, field models.Field) string {
	res, ok := result.Apply.Result(field)
	if !ok {
		if result.DryRun {
			if _, drifted := result.Diff[field]; drifted {
				return "would apply"
			}
		}
		return ""
	}
	if res.Status == models.StatusFailed {
		return fmt.Sprintf("failed after %d: %s", res.Attempts, cell(res.Reason))
	}
	return string(res.Status)
}

func verifyCell(result *models.RunResult, field models.Field) string {
	if result.Verify == nil {
		return ""
	}
	for _, fv := range result.Verify.Fields {
		if fv.Field == field {
			return string(fv.Status)
		}
	}
	return ""
}

func cell(s string) string {
	if s == "" {
		return "-"
	}
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > maxCellWidth {
		return string(r[:maxCellWidth-3]) + "..."
	}
	return s
}
