package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/coolbeans/clmlkit/internal/output"
	"github.com/coolbeans/clmlkit/pkg/feed"
	"github.com/coolbeans/clmlkit/pkg/pipeline"
	"github.com/coolbeans/clmlkit/pkg/schema"
	"github.com/coolbeans/clmlkit/pkg/ukleg"
)

// structuralBackend is the schema.Report backend name for checks without XSD.
const structuralBackend = "structural"

func isEncoded(format output.Format) bool {
	return format == output.FormatJSON || format == output.FormatYAML
}

func printOutcome(w io.Writer, format output.Format, outcome *pipeline.Outcome, showWarnings bool) error {
	if isEncoded(format) {
		return output.Encode(w, format, outcome)
	}

	document := outcome.Document
	sections := output.NewTable("#", "Identifier", "Kind", "Title", "Source")
	for _, section := range document.Sections {
		sections.AddRow(strconv.Itoa(section.OrdinalPosition), section.Identifier, string(section.Kind), section.Title, string(section.TitleSource))
	}
	if format == output.FormatCSV {
		return sections.RenderCSV(w)
	}

	output.Heading(w, document.Title)
	output.KeyValues(w, [][2]string{
		{"Identifier", document.Identifier()},
		{"URI", document.DocumentURI},
		{"Status", document.Status},
		{"Category", document.Category},
		{"Enacted", document.EnactmentDate},
		{"Sections", strconv.Itoa(len(document.Sections))},
		{"Amendments", strconv.Itoa(len(document.Amendments))},
		{"Run", outcome.RunID},
	})
	fmt.Fprintln(w)
	sections.Render(w)

	if len(document.Amendments) > 0 {
		fmt.Fprintln(w)
		amendments := output.NewTable("Type", "Date", "Affected", "Description")
		for _, amendment := range document.Amendments {
			amendments.AddRow(amendment.Type, amendment.Date, amendment.AffectedProvisions, amendment.Description)
		}
		amendments.Render(w)
	}

	if outcome.Validation != nil {
		fmt.Fprintln(w)
		printValidationSummary(w, outcome.Validation)
	} else if outcome.ValidationErr != "" {
		output.Warning(w, "schema validation did not complete: "+outcome.ValidationErr)
	}

	if len(outcome.Warnings) > 0 {
		if showWarnings {
			fmt.Fprintln(w)
			for _, warning := range outcome.Warnings {
				output.Warning(w, warning.Error())
			}
		} else {
			output.Warning(w, fmt.Sprintf("%d sections skipped or degraded (use --warnings to list them)", len(outcome.Warnings)))
		}
	}
	return nil
}

func printValidation(w io.Writer, format output.Format, validationReport *schema.Report) error {
	if isEncoded(format) {
		return output.Encode(w, format, validationReport)
	}
	if format == output.FormatCSV {
		table := output.NewTable("Severity", "Message")
		for _, message := range validationReport.Errors {
			table.AddRow("error", message)
		}
		for _, message := range validationReport.Warnings {
			table.AddRow("warning", message)
		}
		return table.RenderCSV(w)
	}
	printValidationSummary(w, validationReport)
	if validationReport.Backend == structuralBackend {
		fmt.Fprintln(w, `Structural checks only; set "schema.backend: xsd" for schema conformance.`)
	}
	return nil
}

func printValidationSummary(w io.Writer, validationReport *schema.Report) {
	if validationReport.Valid {
		output.Success(w, fmt.Sprintf("Valid (%s)", validationReport.Backend))
	} else {
		output.Error(w, fmt.Errorf("invalid (%s): %d errors", validationReport.Backend, len(validationReport.Errors)))
	}
	if validationReport.SchemaVersion != "" {
		output.KeyValues(w, [][2]string{{"Schema Version", validationReport.SchemaVersion}})
	}
	for _, message := range validationReport.Errors {
		fmt.Fprintf(w, "  - %s\n", message)
	}
	for _, message := range validationReport.Warnings {
		output.Warning(w, message)
	}
}

func printFeed(w io.Writer, format output.Format, parsedFeed *feed.Feed) error {
	if isEncoded(format) {
		return output.Encode(w, format, parsedFeed)
	}

	table := output.NewTable("Identifier", "Title", "Updated")
	for _, entry := range parsedFeed.Entries {
		identifier := entry.URI
		if entry.Legislation != nil {
			identifier = entry.Legislation.ID()
		}
		table.AddRow(identifier, entry.Title, entry.Updated.Format("2006-01-02"))
	}
	if format == output.FormatCSV {
		return table.RenderCSV(w)
	}

	output.Heading(w, parsedFeed.Title)
	table.Render(w)
	for _, warning := range parsedFeed.Warnings {
		output.Warning(w, warning.String())
	}
	if parsedFeed.NextPage != "" {
		fmt.Fprintf(w, "Next page: %s\n", parsedFeed.NextPage)
	}
	return nil
}

func printBatch(w io.Writer, format output.Format, batchReport *pipeline.BatchReport) error {
	if isEncoded(format) {
		return output.Encode(w, format, batchReport)
	}

	table := output.NewTable("Identifier", "Status", "Sections", "Title")
	for _, entry := range batchReport.Entries {
		if entry.Outcome == nil {
			table.AddRow(entry.LegislationID, entry.Status, "", entry.Error)
			continue
		}
		document := entry.Outcome.Document
		table.AddRow(entry.LegislationID, entry.Status, strconv.Itoa(len(document.Sections)), document.Title)
	}
	if format == output.FormatCSV {
		return table.RenderCSV(w)
	}

	table.Render(w)
	output.KeyValues(w, [][2]string{
		{"Attempted", strconv.Itoa(batchReport.Attempted)},
		{"Succeeded", strconv.Itoa(batchReport.Succeeded)},
		{"Failed", strconv.Itoa(batchReport.Failed)},
	})
	return nil
}

func printURIChecks(w io.Writer, format output.Format, results []*ukleg.ValidationResult) error {
	if isEncoded(format) {
		return output.Encode(w, format, results)
	}

	table := output.NewTable("URI", "Valid", "Status", "Error")
	for _, result := range results {
		status := ""
		if result.StatusCode != 0 {
			status = strconv.Itoa(result.StatusCode)
		}
		table.AddRow(result.URI, strconv.FormatBool(result.Valid), status, result.Error)
	}
	if format == output.FormatCSV {
		return table.RenderCSV(w)
	}
	table.Render(w)
	return nil
}
