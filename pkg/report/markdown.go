package report

import (
	"fmt"
	"io"
	"strings"
)

// MarkdownRenderer renders a report as GitHub-flavoured Markdown.
type MarkdownRenderer struct{}

func (renderer *MarkdownRenderer) Extension() string { return "md" }

// Render writes the Markdown report to w.
func (renderer *MarkdownRenderer) Render(w io.Writer, data Data) error {
	if data.Document == nil {
		return fmt.Errorf("rendering markdown report: %w", ErrNoDocument)
	}
	var markdownBuilder strings.Builder

	markdownBuilder.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdownCell(data.Document.Title)))

	markdownBuilder.WriteString("## Basic Information\n\n")
	markdownBuilder.WriteString("| Field | Value |\n")
	markdownBuilder.WriteString("|-------|-------|\n")
	for _, row := range basicInformation(data) {
		markdownBuilder.WriteString(fmt.Sprintf("| **%s** | %s |\n", row.label, escapeMarkdownCell(row.value)))
	}
	markdownBuilder.WriteString("\n")

	if data.Document.LongTitle != "" {
		markdownBuilder.WriteString("## Long Title\n\n")
		markdownBuilder.WriteString(data.Document.LongTitle + "\n\n")
	}

	markdownBuilder.WriteString("## Key Sections\n\n")
	if sections := keySections(data); len(sections) > 0 {
		markdownBuilder.WriteString("| Number | Title |\n")
		markdownBuilder.WriteString("|--------|-------|\n")
		for _, section := range sections {
			markdownBuilder.WriteString(fmt.Sprintf("| %s | %s |\n",
				escapeMarkdownCell(section.identifier), escapeMarkdownCell(section.title)))
		}
		if remaining := len(data.Document.Sections) - len(sections); remaining > 0 {
			markdownBuilder.WriteString(fmt.Sprintf("\n*... and %d more*\n", remaining))
		}
	} else {
		markdownBuilder.WriteString("No key sections extracted.\n")
	}
	markdownBuilder.WriteString("\n")

	markdownBuilder.WriteString("## Amendments\n\n")
	if amendments := amendmentRows(data); len(amendments) > 0 {
		markdownBuilder.WriteString("| Type | Description | Affecting URI |\n")
		markdownBuilder.WriteString("|------|-------------|---------------|\n")
		for _, amendment := range amendments {
			markdownBuilder.WriteString(fmt.Sprintf("| %s | %s | %s |\n",
				escapeMarkdownCell(amendment.amendmentType),
				escapeMarkdownCell(amendment.description),
				escapeMarkdownCell(amendment.affectingURI)))
		}
	} else {
		markdownBuilder.WriteString("No amendments data available.\n")
	}
	markdownBuilder.WriteString("\n")

	if data.Validation != nil {
		status := "✅ Valid"
		if !data.Validation.Valid {
			status = "❌ Invalid"
		}
		markdownBuilder.WriteString("## Schema Validation\n\n")
		markdownBuilder.WriteString(fmt.Sprintf("**Status:** %s (%s)\n\n", status, data.Validation.Backend))
		for _, message := range data.Validation.Errors {
			markdownBuilder.WriteString(fmt.Sprintf("- ❌ %s\n", message))
		}
		for _, message := range data.Validation.Warnings {
			markdownBuilder.WriteString(fmt.Sprintf("- ⚠️ %s\n", message))
		}
		markdownBuilder.WriteString("\n")
	}

	if len(data.Warnings) > 0 {
		markdownBuilder.WriteString("## Extraction Warnings\n\n")
		for _, warning := range data.Warnings {
			markdownBuilder.WriteString(fmt.Sprintf("- `%s`\n", warning.Error()))
		}
		markdownBuilder.WriteString("\n")
	}

	_, err := io.WriteString(w, markdownBuilder.String())
	return err
}

// escapeMarkdownCell keeps pipes and newlines from breaking table rows.
func escapeMarkdownCell(text string) string {
	text = strings.ReplaceAll(text, "|", "\\|")
	return strings.ReplaceAll(text, "\n", " ")
}
