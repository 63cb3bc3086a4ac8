package report

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/clmlkit/pkg/clml"
	"github.com/coolbeans/clmlkit/pkg/schema"
	"github.com/coolbeans/clmlkit/pkg/ukleg"
)

func sampleData(sectionCount int) Data {
	document := &clml.LegislationDocument{
		Type:        ukleg.LegislationTypeUKPGA,
		Year:        2020,
		Number:      7,
		Title:       "Coronavirus Act 2020",
		LongTitle:   "An Act to make provision in connection with coronavirus; and for connected purposes.",
		DocumentURI: "http://www.legislation.gov.uk/ukpga/2020/7",
		Amendments: []clml.Amendment{{
			Type:         "repealed",
			Description:  strings.Repeat("d", 150),
			AffectingURI: "http://www.legislation.gov.uk/id/uksi/2022/1234/regulation/2",
		}},
	}
	for index := 0; index < sectionCount; index++ {
		document.Sections = append(document.Sections, clml.Section{
			Identifier:      fmt.Sprint(index + 1),
			Title:           fmt.Sprintf("Section title %d", index+1),
			OrdinalPosition: index,
			Kind:            clml.SectionKindSection,
		})
	}
	document.Sections = append(document.Sections, clml.Section{
		Identifier: "Schedule 1", Title: "Emergency registration | nurses", Kind: clml.SectionKindSchedule,
		OrdinalPosition: sectionCount,
	})

	return Data{
		Document:    document,
		GeneratedAt: time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC),
	}
}

func TestForFormat(t *testing.T) {
	cases := map[string]string{
		"pdf":      "pdf",
		"markdown": "md",
		"MD":       "md",
		" html ":   "html",
	}
	for format, extension := range cases {
		renderer, err := ForFormat(format)
		require.NoError(t, err, format)
		assert.Equal(t, extension, renderer.Extension())
	}

	_, err := ForFormat("docx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "html, markdown, md, pdf")
}

func TestFileName(t *testing.T) {
	renderer, err := ForFormat("pdf")
	require.NoError(t, err)
	assert.Equal(t, "ukpga_2020_7_report.pdf", FileName(sampleData(1).Document, renderer))
}

func TestKeySectionsAndAmendmentRows(t *testing.T) {
	data := sampleData(30)
	data.Document.Sections[0].Title = strings.Repeat("t", 100)

	sections := keySections(data)
	require.Len(t, sections, DefaultMaxSections)
	assert.Equal(t, strings.Repeat("t", 80)+"...", sections[0].title)
	assert.Equal(t, "20", sections[19].identifier)

	data.MaxSections = 5
	assert.Len(t, keySections(data), 5)

	rows := amendmentRows(data)
	require.Len(t, rows, 1)
	assert.Equal(t, strings.Repeat("d", 120)+"...", rows[0].description)
	assert.Equal(t, "...on.gov.uk/id/uksi/2022/1234/regulation/2", rows[0].affectingURI)
}

func TestAmendmentRows_Defaults(t *testing.T) {
	data := sampleData(0)
	data.Document.Amendments = []clml.Amendment{{}}

	rows := amendmentRows(data)
	assert.Equal(t, amendmentRow{amendmentType: "Unknown", description: "No description", affectingURI: "No URI"}, rows[0])
}

func TestMarkdownRenderer(t *testing.T) {
	data := sampleData(3)
	data.Validation = &schema.Report{Valid: false, Backend: "xsd", Errors: []string{"Element 'Bogus': not expected."}}
	data.Warnings = []*clml.UnresolvedSectionWarning{{Path: "/Legislation/Primary/Body/P1[2]", Reason: clml.ReasonNoIdentifier}}

	var output bytes.Buffer
	require.NoError(t, (&MarkdownRenderer{}).Render(&output, data))
	markdown := output.String()

	assert.True(t, strings.HasPrefix(markdown, "# Coronavirus Act 2020\n"))
	assert.Contains(t, markdown, "| **Sections Count** | 3 |")
	assert.Contains(t, markdown, "| **Schedules Count** | 1 |")
	assert.Contains(t, markdown, "| **Generated** | 2024-05-01 12:30:00 |")
	assert.Contains(t, markdown, "## Long Title")
	assert.Contains(t, markdown, "| 2 | Section title 2 |")
	assert.Contains(t, markdown, `| Schedule 1 | Emergency registration \| nurses |`)
	assert.Contains(t, markdown, "| repealed |")
	assert.Contains(t, markdown, "❌ Invalid (xsd)")
	assert.Contains(t, markdown, "- ❌ Element 'Bogus': not expected.")
	assert.Contains(t, markdown, "## Extraction Warnings")
}

func TestMarkdownRenderer_EmptySections(t *testing.T) {
	data := Data{Document: &clml.LegislationDocument{Type: ukleg.LegislationTypeASP, Year: 2010, Number: 13, Title: "Empty"}}

	var output bytes.Buffer
	require.NoError(t, (&MarkdownRenderer{}).Render(&output, data))
	assert.Contains(t, output.String(), "No key sections extracted.")
	assert.Contains(t, output.String(), "No amendments data available.")
	assert.NotContains(t, output.String(), "## Schema Validation")
	assert.NotContains(t, output.String(), "## Long Title")
}

func TestHTMLRenderer_EscapesContent(t *testing.T) {
	data := sampleData(2)
	data.Document.Title = "Act <script>alert(1)</script> & more"
	data.Validation = &schema.Report{Valid: true, Backend: "structural", Warnings: []string{"Metadata element Year not found"}}

	var output bytes.Buffer
	require.NoError(t, (&HTMLRenderer{}).Render(&output, data))
	page := output.String()

	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.NotContains(t, page, "<script>")
	assert.Contains(t, page, "Act &lt;script&gt;alert(1)&lt;/script&gt; &amp; more")
	assert.Contains(t, page, "<tr><td>Schedule 1</td><td>Emergency registration | nurses</td></tr>")
	assert.Contains(t, page, `<span class="status valid">Valid</span>`)
	assert.Contains(t, page, `<li class="warning">Metadata element Year not found</li>`)
	assert.True(t, strings.HasSuffix(page, "</html>\n"))
}

func TestPDFRenderer(t *testing.T) {
	data := sampleData(40)
	data.Document.Title = "Deddf Coronafeirws 2020 – café"
	data.Validation = &schema.Report{Valid: true, Backend: "structural"}

	var output bytes.Buffer
	renderer := &PDFRenderer{CreationDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, renderer.Render(&output, data))

	assert.True(t, bytes.HasPrefix(output.Bytes(), []byte("%PDF-")))
	assert.True(t, bytes.Contains(output.Bytes(), []byte("%%EOF")))
}

func TestRenderers_RequireDocument(t *testing.T) {
	for _, format := range []string{"pdf", "markdown", "html"} {
		renderer, err := ForFormat(format)
		require.NoError(t, err)
		err = renderer.Render(&bytes.Buffer{}, Data{})
		assert.ErrorIs(t, err, ErrNoDocument, format)
	}
}
