package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

// Layout in millimetres on US Letter with one-inch margins.
const (
	pdfMargin      = 25.4
	pdfContentWide = 215.9 - 2*pdfMargin
	pdfLineHeight  = 6.0
)

// PDFRenderer renders a printable report.
type PDFRenderer struct {
	// CreationDate, when set, is stamped into the PDF metadata.
	CreationDate time.Time
}

func (renderer *PDFRenderer) Extension() string { return "pdf" }

// Render writes the PDF report to w.
func (renderer *PDFRenderer) Render(w io.Writer, data Data) error {
	if data.Document == nil {
		return fmt.Errorf("rendering pdf report: %w", ErrNoDocument)
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetTitle(data.Document.Title, true)
	pdf.SetCreator("clmlkit", false)
	if !renderer.CreationDate.IsZero() {
		pdf.SetCreationDate(renderer.CreationDate)
	}
	translate := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(pdfContentWide, 9, translate(data.Document.Title), "", "L", false)
	pdf.Ln(4)

	writeHeading(pdf, "Basic Information")
	pdf.SetFillColor(211, 211, 211)
	for _, row := range basicInformation(data) {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(50, pdfLineHeight, translate(row.label+":"), "1", 0, "R", true, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(pdfContentWide-50, pdfLineHeight, translate(row.value), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(8)

	if data.Document.LongTitle != "" {
		writeHeading(pdf, "Long Title")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(pdfContentWide, 5, translate(data.Document.LongTitle), "", "L", false)
		pdf.Ln(8)
	}

	writeHeading(pdf, "Key Sections")
	if sections := keySections(data); len(sections) > 0 {
		widths := []float64{35, pdfContentWide - 35}
		writeTableHeader(pdf, widths, "Number", "Title")
		for _, section := range sections {
			writeTableRow(pdf, translate, widths, section.identifier, section.title)
		}
	} else {
		writeEmptyNote(pdf, "No key sections extracted.")
	}
	pdf.Ln(8)

	writeHeading(pdf, "Amendments")
	if amendments := amendmentRows(data); len(amendments) > 0 {
		widths := []float64{30, pdfContentWide - 30 - 55, 55}
		writeTableHeader(pdf, widths, "Type", "Description", "Affecting URI")
		for _, amendment := range amendments {
			writeTableRow(pdf, translate, widths, amendment.amendmentType, amendment.description, amendment.affectingURI)
		}
	} else {
		writeEmptyNote(pdf, "No amendments data available.")
	}

	if data.Validation != nil {
		pdf.Ln(8)
		writeHeading(pdf, "Schema Validation")
		status := "Valid"
		if !data.Validation.Valid {
			status = "Invalid"
		}
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(pdfContentWide, 5, translate(fmt.Sprintf("Status: %s (%s backend), %d errors, %d warnings",
			status, data.Validation.Backend, len(data.Validation.Errors), len(data.Validation.Warnings))), "", "L", false)
		for _, message := range data.Validation.Errors {
			pdf.MultiCell(pdfContentWide, 5, translate("- "+message), "", "L", false)
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("rendering pdf report: %w", err)
	}
	return pdf.Output(w)
}

func writeHeading(pdf *fpdf.Fpdf, heading string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(pdfContentWide, 8, heading, "", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func writeEmptyNote(pdf *fpdf.Fpdf, note string) {
	pdf.SetFont("Helvetica", "I", 10)
	pdf.CellFormat(pdfContentWide, pdfLineHeight, note, "", 1, "L", false, 0, "")
}

func writeTableHeader(pdf *fpdf.Fpdf, widths []float64, headers ...string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(211, 211, 211)
	for index, header := range headers {
		pdf.CellFormat(widths[index], pdfLineHeight, header, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

// writeTableRow draws one bordered row whose height fits the longest
// wrapped cell.
func writeTableRow(pdf *fpdf.Fpdf, translate func(string) string, widths []float64, cells ...string) {
	pdf.SetFont("Helvetica", "", 9)

	wrapped := make([][]string, len(cells))
	lineCount := 1
	for index, cell := range cells {
		wrapped[index] = wrapText(pdf, translate(cell), widths[index]-2)
		if len(wrapped[index]) > lineCount {
			lineCount = len(wrapped[index])
		}
	}
	rowHeight := float64(lineCount) * 5

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottomMargin := pdf.GetMargins()
	if pdf.GetY()+rowHeight > pageHeight-bottomMargin {
		pdf.AddPage()
	}

	left, top := pdf.GetX(), pdf.GetY()
	for index, lines := range wrapped {
		pdf.Rect(left, top, widths[index], rowHeight, "D")
		for lineIndex, line := range lines {
			pdf.SetXY(left+1, top+float64(lineIndex)*5)
			pdf.CellFormat(widths[index]-2, 5, line, "", 0, "L", false, 0, "")
		}
		left += widths[index]
	}
	pdf.SetXY(pdfMargin, top+rowHeight)
}

// wrapText breaks already-translated text into lines no wider than width
// in the current font. A single word wider than width gets its own line.
func wrapText(pdf *fpdf.Fpdf, text string, width float64) []string {
	var lines []string
	var current string
	for _, word := range strings.Fields(text) {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if current != "" && pdf.GetStringWidth(candidate) > width {
			lines = append(lines, current)
			candidate = word
		}
		current = candidate
	}
	if current != "" || len(lines) == 0 {
		lines = append(lines, current)
	}
	return lines
}
