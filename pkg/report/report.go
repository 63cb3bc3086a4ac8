// Package report renders extracted legislation metadata as PDF, Markdown or
// HTML documents.
package report

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/coolbeans/clmlkit/pkg/clml"
	"github.com/coolbeans/clmlkit/pkg/schema"
)

const (
	// DefaultMaxSections is how many sections the key sections table lists.
	DefaultMaxSections = 20

	maxSectionTitleLength   = 80
	maxAmendmentDescription = 120
	maxAffectingURITail     = 40
)

// ErrNoDocument is returned when Data carries no document.
var ErrNoDocument = errors.New("report has no document")

// Data is everything a report shows.
type Data struct {
	Document *clml.LegislationDocument

	// Validation is optional; nil omits the validation summary.
	Validation *schema.Report

	// Warnings are the non-fatal extraction diagnostics.
	Warnings []*clml.UnresolvedSectionWarning

	GeneratedAt time.Time

	// MaxSections caps the key sections table; zero means DefaultMaxSections.
	MaxSections int
}

// Renderer writes a report in one output format.
type Renderer interface {
	Render(w io.Writer, data Data) error

	// Extension is the file extension for the format, without the dot.
	Extension() string
}

var renderers = map[string]func() Renderer{
	"pdf":      func() Renderer { return &PDFRenderer{} },
	"markdown": func() Renderer { return &MarkdownRenderer{} },
	"md":       func() Renderer { return &MarkdownRenderer{} },
	"html":     func() Renderer { return &HTMLRenderer{} },
}

// ForFormat returns the renderer for a format name.
func ForFormat(format string) (Renderer, error) {
	constructor, ok := renderers[strings.ToLower(strings.TrimSpace(format))]
	if !ok {
		return nil, fmt.Errorf("unknown report format %q (supported: %s)", format, strings.Join(Formats(), ", "))
	}
	return constructor(), nil
}

// Formats lists the supported format names.
func Formats() []string {
	formats := make([]string, 0, len(renderers))
	for format := range renderers {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

// FileName returns the conventional report file name for a document,
// e.g. "ukpga_2020_7_report.pdf".
func FileName(document *clml.LegislationDocument, renderer Renderer) string {
	return fmt.Sprintf("%s_%d_%d_report.%s", document.Type, document.Year, document.Number, renderer.Extension())
}

type labelledValue struct {
	label string
	value string
}

func basicInformation(data Data) []labelledValue {
	document := data.Document
	generatedAt := data.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}
	return []labelledValue{
		{"Year", strconv.Itoa(document.Year)},
		{"Legislation Type", string(document.Type)},
		{"Number", strconv.Itoa(document.Number)},
		{"Sections Count", strconv.Itoa(document.CountKind(clml.SectionKindSection))},
		{"Schedules Count", strconv.Itoa(document.CountKind(clml.SectionKindSchedule))},
		{"Document URI", document.DocumentURI},
		{"Generated", generatedAt.Format("2006-01-02 15:04:05")},
	}
}

type sectionRow struct {
	identifier string
	title      string
}

func keySections(data Data) []sectionRow {
	limit := data.MaxSections
	if limit <= 0 {
		limit = DefaultMaxSections
	}

	var rows []sectionRow
	for _, section := range data.Document.Sections {
		if len(rows) == limit {
			break
		}
		rows = append(rows, sectionRow{
			identifier: section.Identifier,
			title:      truncateRunes(section.Title, maxSectionTitleLength),
		})
	}
	return rows
}

type amendmentRow struct {
	amendmentType string
	description   string
	affectingURI  string
}

func amendmentRows(data Data) []amendmentRow {
	rows := make([]amendmentRow, 0, len(data.Document.Amendments))
	for _, amendment := range data.Document.Amendments {
		row := amendmentRow{
			amendmentType: valueOr(amendment.Type, "Unknown"),
			description:   truncateRunes(valueOr(amendment.Description, "No description"), maxAmendmentDescription),
			affectingURI:  valueOr(amendment.AffectingURI, "No URI"),
		}
		if runes := []rune(row.affectingURI); len(runes) > maxAffectingURITail {
			row.affectingURI = "..." + string(runes[len(runes)-maxAffectingURITail:])
		}
		rows = append(rows, row)
	}
	return rows
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

func valueOr(value string, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
