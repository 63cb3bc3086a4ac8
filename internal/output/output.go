// Package output formats command results as tables, JSON, YAML or CSV.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

// Format selects how a result is written.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatCSV   Format = "csv"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch format := Format(strings.ToLower(strings.TrimSpace(name))); format {
	case FormatTable, FormatJSON, FormatYAML, FormatCSV:
		return format, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (use table, json, yaml or csv)", name)
	}
}

// Encode writes value as indented JSON or YAML.
func Encode(w io.Writer, format Format, value any) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(value)
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(value); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// Table is a boxed text table with a coloured header row.
type Table struct {
	Headers []string
	Rows    [][]string
}

// NewTable creates a table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{Headers: headers}
}

// AddRow appends a row; missing cells render empty.
func (table *Table) AddRow(cells ...string) {
	table.Rows = append(table.Rows, cells)
}

// Render writes the table followed by a row count.
func (table *Table) Render(w io.Writer) {
	if len(table.Headers) == 0 || len(table.Rows) == 0 {
		fmt.Fprintf(w, "No results (%d rows)\n", len(table.Rows))
		return
	}

	widths := make([]int, len(table.Headers))
	for index, header := range table.Headers {
		widths[index] = utf8.RuneCountInString(header)
	}
	for _, row := range table.Rows {
		for index := range widths {
			if width := utf8.RuneCountInString(cell(row, index)); width > widths[index] {
				widths[index] = width
			}
		}
	}

	var separator strings.Builder
	separator.WriteString("+")
	for _, width := range widths {
		separator.WriteString(strings.Repeat("-", width+2))
		separator.WriteString("+")
	}
	separator.WriteString("\n")

	headerColor := color.New(color.Bold, color.FgCyan)
	fmt.Fprint(w, separator.String())
	fmt.Fprint(w, "|")
	for index, header := range table.Headers {
		fmt.Fprint(w, " ")
		headerColor.Fprint(w, padRight(header, widths[index]))
		fmt.Fprint(w, " |")
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, separator.String())

	for _, row := range table.Rows {
		fmt.Fprint(w, "|")
		for index := range widths {
			fmt.Fprintf(w, " %s |", padRight(cell(row, index), widths[index]))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprint(w, separator.String())
	fmt.Fprintf(w, "%d rows\n", len(table.Rows))
}

// RenderCSV writes the table as CSV with a header record.
func (table *Table) RenderCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(table.Headers); err != nil {
		return err
	}
	for _, row := range table.Rows {
		record := make([]string, len(table.Headers))
		for index := range record {
			record[index] = cell(row, index)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// KeyValues writes aligned "key: value" lines with coloured keys.
func KeyValues(w io.Writer, pairs [][2]string) {
	keyWidth := 0
	for _, pair := range pairs {
		keyWidth = max(keyWidth, utf8.RuneCountInString(pair[0])+1)
	}
	keyColor := color.New(color.FgCyan)
	for _, pair := range pairs {
		keyColor.Fprint(w, padRight(pair[0]+":", keyWidth))
		fmt.Fprintf(w, " %s\n", pair[1])
	}
}

// Heading writes a bold title line.
func Heading(w io.Writer, title string) {
	color.New(color.Bold, color.FgCyan).Fprintln(w, title)
}

// Error writes a red error line.
func Error(w io.Writer, err error) {
	color.New(color.FgRed, color.Bold).Fprint(w, "❌ ERROR: ")
	color.New(color.FgRed).Fprintln(w, err.Error())
}

// Warning writes a yellow warning line.
func Warning(w io.Writer, message string) {
	color.New(color.FgYellow).Fprintf(w, "⚠️  %s\n", message)
}

// Success writes a green status line.
func Success(w io.Writer, message string) {
	color.New(color.FgGreen, color.Bold).Fprintf(w, "✓ %s\n", message)
}

func cell(row []string, index int) string {
	if index < len(row) {
		return row[index]
	}
	return ""
}

func padRight(text string, width int) string {
	if padding := width - utf8.RuneCountInString(text); padding > 0 {
		return text + strings.Repeat(" ", padding)
	}
	return text
}
