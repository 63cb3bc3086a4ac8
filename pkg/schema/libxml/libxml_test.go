//go:build cgo

package libxml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yearSchema = `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="Legislation">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="Year" type="xs:positiveInteger"/>
        <xs:element name="Number" type="xs:positiveInteger"/>
      </xs:sequence>
    </xs:complexType>
  </xs:element>
</xs:schema>`

func writeSchema(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "legislation.xsd")
	require.NoError(t, os.WriteFile(path, []byte(yearSchema), 0o644))
	return path
}

func TestBackend_Validate(t *testing.T) {
	schemaPath := writeSchema(t)
	backend := New()
	defer backend.Close()

	cases := []struct {
		name    string
		content string
		invalid bool
	}{
		{"valid", `<Legislation><Year>2020</Year><Number>7</Number></Legislation>`, false},
		{"bad year", `<Legislation><Year>twenty</Year><Number>7</Number></Legislation>`, true},
		{"missing number", `<Legislation><Year>2020</Year></Legislation>`, true},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			violations, err := backend.Validate(schemaPath, []byte(testCase.content))
			require.NoError(t, err)
			if testCase.invalid {
				assert.NotEmpty(t, violations)
			} else {
				assert.Empty(t, violations)
			}
		})
	}
}

func TestBackend_CachesCompiledSchemas(t *testing.T) {
	schemaPath := writeSchema(t)
	backend := New()

	for attempt := 0; attempt < 2; attempt++ {
		_, err := backend.Validate(schemaPath, []byte(`<Legislation><Year>2020</Year><Number>7</Number></Legislation>`))
		require.NoError(t, err)
	}
	assert.Len(t, backend.schemas, 1)

	backend.Close()
	assert.Empty(t, backend.schemas)
}

func TestBackend_MissingSchema(t *testing.T) {
	backend := New()
	defer backend.Close()

	_, err := backend.Validate(filepath.Join(t.TempDir(), "absent.xsd"), []byte(`<Legislation/>`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compiling schema")
	assert.Empty(t, backend.schemas)
}
