package report

import (
	"fmt"
	"html"
	"io"
	"strings"
)

// HTMLRenderer renders a self-contained HTML report with inline CSS.
type HTMLRenderer struct{}

func (renderer *HTMLRenderer) Extension() string { return "html" }

// Render writes the HTML report to w.
func (renderer *HTMLRenderer) Render(w io.Writer, data Data) error {
	if data.Document == nil {
		return fmt.Errorf("rendering html report: %w", ErrNoDocument)
	}
	var htmlBuilder strings.Builder
	title := html.EscapeString(data.Document.Title)

	htmlBuilder.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	htmlBuilder.WriteString("<meta charset=\"UTF-8\">\n")
	htmlBuilder.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	htmlBuilder.WriteString(fmt.Sprintf("<title>%s</title>\n", title))
	htmlBuilder.WriteString(reportHTMLStyles())
	htmlBuilder.WriteString("</head>\n<body>\n<div class=\"container\">\n")
	htmlBuilder.WriteString(fmt.Sprintf("<h1>%s</h1>\n\n", title))

	htmlBuilder.WriteString("<div class=\"section\">\n<h2>Basic Information</h2>\n<table class=\"info\">\n")
	for _, row := range basicInformation(data) {
		htmlBuilder.WriteString(fmt.Sprintf("<tr><th>%s:</th><td>%s</td></tr>\n",
			row.label, html.EscapeString(row.value)))
	}
	htmlBuilder.WriteString("</table>\n</div>\n\n")

	if data.Document.LongTitle != "" {
		htmlBuilder.WriteString("<div class=\"section\">\n<h2>Long Title</h2>\n")
		htmlBuilder.WriteString(fmt.Sprintf("<p>%s</p>\n</div>\n\n", html.EscapeString(data.Document.LongTitle)))
	}

	htmlBuilder.WriteString("<div class=\"section\">\n<h2>Key Sections</h2>\n")
	if sections := keySections(data); len(sections) > 0 {
		htmlBuilder.WriteString("<table>\n<tr><th>Number</th><th>Title</th></tr>\n")
		for _, section := range sections {
			htmlBuilder.WriteString(fmt.Sprintf("<tr><td>%s</td><td>%s</td></tr>\n",
				html.EscapeString(section.identifier), html.EscapeString(section.title)))
		}
		htmlBuilder.WriteString("</table>\n")
	} else {
		htmlBuilder.WriteString("<p class=\"empty\">No key sections extracted.</p>\n")
	}
	htmlBuilder.WriteString("</div>\n\n")

	htmlBuilder.WriteString("<div class=\"section\">\n<h2>Amendments</h2>\n")
	if amendments := amendmentRows(data); len(amendments) > 0 {
		htmlBuilder.WriteString("<table>\n<tr><th>Type</th><th>Description</th><th>Affecting URI</th></tr>\n")
		for _, amendment := range amendments {
			htmlBuilder.WriteString(fmt.Sprintf("<tr><td>%s</td><td>%s</td><td class=\"uri\">%s</td></tr>\n",
				html.EscapeString(amendment.amendmentType),
				html.EscapeString(amendment.description),
				html.EscapeString(amendment.affectingURI)))
		}
		htmlBuilder.WriteString("</table>\n")
	} else {
		htmlBuilder.WriteString("<p class=\"empty\">No amendments data available.</p>\n")
	}
	htmlBuilder.WriteString("</div>\n\n")

	if data.Validation != nil {
		statusClass, statusLabel := "valid", "Valid"
		if !data.Validation.Valid {
			statusClass, statusLabel = "invalid", "Invalid"
		}
		htmlBuilder.WriteString("<details class=\"section\" open>\n<summary><h2>Schema Validation</h2></summary>\n")
		htmlBuilder.WriteString(fmt.Sprintf("<span class=\"status %s\">%s</span> <span class=\"badge\">%s</span>\n",
			statusClass, statusLabel, html.EscapeString(data.Validation.Backend)))
		if len(data.Validation.Errors)+len(data.Validation.Warnings) > 0 {
			htmlBuilder.WriteString("<ul>\n")
			for _, message := range data.Validation.Errors {
				htmlBuilder.WriteString(fmt.Sprintf("<li class=\"error\">%s</li>\n", html.EscapeString(message)))
			}
			for _, message := range data.Validation.Warnings {
				htmlBuilder.WriteString(fmt.Sprintf("<li class=\"warning\">%s</li>\n", html.EscapeString(message)))
			}
			htmlBuilder.WriteString("</ul>\n")
		}
		htmlBuilder.WriteString("</details>\n\n")
	}

	if len(data.Warnings) > 0 {
		htmlBuilder.WriteString("<details class=\"section\">\n<summary><h2>Extraction Warnings</h2></summary>\n<ul>\n")
		for _, warning := range data.Warnings {
			htmlBuilder.WriteString(fmt.Sprintf("<li class=\"warning\">%s</li>\n", html.EscapeString(warning.Error())))
		}
		htmlBuilder.WriteString("</ul>\n</details>\n\n")
	}

	htmlBuilder.WriteString("</div>\n</body>\n</html>\n")

	_, err := io.WriteString(w, htmlBuilder.String())
	return err
}

func reportHTMLStyles() string {
	return `<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; margin: 0; background: #f5f5f5; color: #222; }
.container { max-width: 900px; margin: 0 auto; padding: 24px; background: #fff; }
h1 { border-bottom: 2px solid #333; padding-bottom: 8px; }
.section { margin-top: 24px; }
summary h2 { display: inline; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #000; padding: 4px 8px; text-align: left; vertical-align: top; }
th { background: #d3d3d3; }
table.info th { width: 30%; text-align: right; }
td.uri { font-family: monospace; font-size: 0.85em; }
.empty { color: #777; font-style: italic; }
.status { color: #fff; padding: 2px 10px; border-radius: 4px; font-weight: bold; }
.status.valid { background: #2e7d32; }
.status.invalid { background: #c62828; }
.badge { background: #eee; padding: 2px 8px; border-radius: 4px; font-size: 0.85em; }
li.error { color: #c62828; }
li.warning { color: #b26a00; }
</style>
`
}
