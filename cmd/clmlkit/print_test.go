package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/clmlkit/internal/output"
	"github.com/coolbeans/clmlkit/pkg/clml"
	"github.com/coolbeans/clmlkit/pkg/pipeline"
	"github.com/coolbeans/clmlkit/pkg/schema"
	"github.com/coolbeans/clmlkit/pkg/ukleg"
)

func sampleOutcome() *pipeline.Outcome {
	return &pipeline.Outcome{
		RunID:  "run-1",
		Source: "ukpga/2020/7",
		Document: &clml.LegislationDocument{
			Type:   ukleg.LegislationTypeUKPGA,
			Year:   2020,
			Number: 7,
			Title:  "Coronavirus Act 2020",
			Sections: []clml.Section{
				{Identifier: "1", Title: "Meaning of coronavirus", Kind: clml.SectionKindSection, TitleSource: clml.TitleSourceHeading},
				{Identifier: "Schedule 1", Title: "Emergency registration of nurses", OrdinalPosition: 1, Kind: clml.SectionKindSchedule, TitleSource: clml.TitleSourceHeading},
			},
		},
		Warnings:   []*clml.UnresolvedSectionWarning{{Path: "/Legislation/Primary/Body/P1[3]", Reason: clml.ReasonNoIdentifier}},
		Validation: &schema.Report{Valid: true, Backend: "structural"},
	}
}

func TestPrintOutcome_Table(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buffer bytes.Buffer
	require.NoError(t, printOutcome(&buffer, output.FormatTable, sampleOutcome(), false))
	text := buffer.String()

	assert.Contains(t, text, "Coronavirus Act 2020")
	assert.Contains(t, text, "ukpga/2020/7")
	assert.Contains(t, text, "| 1 | Schedule 1 | schedule | Emergency registration of nurses | heading |")
	assert.Contains(t, text, "✓ Valid (structural)")
	assert.Contains(t, text, "1 sections skipped or degraded")
}

func TestPrintOutcome_JSON(t *testing.T) {
	var buffer bytes.Buffer
	require.NoError(t, printOutcome(&buffer, output.FormatJSON, sampleOutcome(), false))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
	document := decoded["document"].(map[string]any)
	assert.Len(t, document["sections"], 2)
}

func TestPrintOutcome_CSV(t *testing.T) {
	var buffer bytes.Buffer
	require.NoError(t, printOutcome(&buffer, output.FormatCSV, sampleOutcome(), false))
	assert.Equal(t, "#,Identifier,Kind,Title,Source\n0,1,section,Meaning of coronavirus,heading\n1,Schedule 1,schedule,Emergency registration of nurses,heading\n", buffer.String())
}

func TestPrintURIChecks_CSV(t *testing.T) {
	results := []*ukleg.ValidationResult{
		{URI: "https://www.legislation.gov.uk/ukpga/2020/7", Valid: true, StatusCode: 200},
		{URI: "https://www.legislation.gov.uk/ukpga/1800/1", Error: "dial tcp: timeout"},
	}

	var buffer bytes.Buffer
	require.NoError(t, printURIChecks(&buffer, output.FormatCSV, results))
	assert.Equal(t, "URI,Valid,Status,Error\n"+
		"https://www.legislation.gov.uk/ukpga/2020/7,true,200,\n"+
		"https://www.legislation.gov.uk/ukpga/1800/1,false,,dial tcp: timeout\n", buffer.String())
}

func TestPrintValidation_StructuralNote(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buffer bytes.Buffer
	require.NoError(t, printValidation(&buffer, output.FormatTable, &schema.Report{Valid: true, Backend: "structural"}))
	assert.Contains(t, buffer.String(), `set "schema.backend: xsd"`)

	buffer.Reset()
	require.NoError(t, printValidation(&buffer, output.FormatTable, &schema.Report{Valid: true, Backend: "xsd"}))
	assert.NotContains(t, buffer.String(), "Structural checks only")
}

func TestValidateCmd_HelpNamesXSDBackend(t *testing.T) {
	help := validateCmd(&app{}).Long
	assert.Contains(t, help, "schema.backend: xsd")
	assert.Contains(t, help, "does not prove conformance")
}
