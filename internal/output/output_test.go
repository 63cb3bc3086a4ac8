package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func disableColor(t *testing.T) {
	t.Helper()
	previous := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = previous })
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"table": FormatTable,
		"JSON":  FormatJSON,
		"yml":   FormatYAML,
		" csv ": FormatCSV,
	}
	for name, expected := range cases {
		format, err := ParseFormat(name)
		require.NoError(t, err, name)
		assert.Equal(t, expected, format)
	}

	_, err := ParseFormat("turtle")
	assert.Error(t, err)
}

func TestEncode(t *testing.T) {
	value := map[string]any{"identifier": "ukpga/2020/7", "sections": 102}

	var jsonOutput bytes.Buffer
	require.NoError(t, Encode(&jsonOutput, FormatJSON, value))
	assert.Equal(t, "{\n  \"identifier\": \"ukpga/2020/7\",\n  \"sections\": 102\n}\n", jsonOutput.String())

	var yamlOutput bytes.Buffer
	require.NoError(t, Encode(&yamlOutput, FormatYAML, value))
	assert.Equal(t, "identifier: ukpga/2020/7\nsections: 102\n", yamlOutput.String())

	assert.Error(t, Encode(&bytes.Buffer{}, FormatTable, value))
}

func TestTableRender(t *testing.T) {
	disableColor(t)

	table := NewTable("Identifier", "Title")
	table.AddRow("1", "Emergency registration of nurses")
	table.AddRow("Schedule 1")

	var buffer bytes.Buffer
	table.Render(&buffer)

	lines := strings.Split(strings.TrimRight(buffer.String(), "\n"), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "+------------+----------------------------------+", lines[0])
	assert.Equal(t, "| Identifier | Title                            |", lines[1])
	assert.Equal(t, "| 1          | Emergency registration of nurses |", lines[3])
	assert.Equal(t, "| Schedule 1 |                                  |", lines[4])
	assert.Equal(t, "2 rows", lines[6])
}

func TestTableRender_Empty(t *testing.T) {
	var buffer bytes.Buffer
	NewTable("Identifier").Render(&buffer)
	assert.Equal(t, "No results (0 rows)\n", buffer.String())
}

func TestTableRenderCSV(t *testing.T) {
	table := NewTable("Identifier", "Title")
	table.AddRow("1", "Interpretation, general")

	var buffer bytes.Buffer
	require.NoError(t, table.RenderCSV(&buffer))
	assert.Equal(t, "Identifier,Title\n1,\"Interpretation, general\"\n", buffer.String())
}

func TestKeyValuesAndMessages(t *testing.T) {
	disableColor(t)

	var buffer bytes.Buffer
	KeyValues(&buffer, [][2]string{{"Type", "ukpga"}, {"Year", "2020"}, {"Sections", "102"}})
	assert.Equal(t, "Type:     ukpga\nYear:     2020\nSections: 102\n", buffer.String())

	buffer.Reset()
	Error(&buffer, errors.New("legislation not found"))
	assert.Equal(t, "❌ ERROR: legislation not found\n", buffer.String())
}
