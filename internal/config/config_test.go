package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/clmlkit/pkg/clml"
	"github.com/coolbeans/clmlkit/pkg/ukleg"
)

// clearEnvironment keeps the developer's environment out of the tests.
func clearEnvironment(t *testing.T) {
	t.Helper()
	for _, name := range []string{"LEGISLATION_API_KEY", "CLMLKIT_API_KEY", "CLMLKIT_API_RATE_LIMIT", "CLMLKIT_LOG_LEVEL", "CLMLKIT_REPORT_FORMAT"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnvironment(t)
	t.Chdir(t.TempDir())

	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ukleg.DefaultBaseURL, config.API.BaseURL)
	assert.Equal(t, ukleg.DefaultRequestInterval, config.API.RateLimit)
	assert.Equal(t, ukleg.DefaultCacheTTL, config.API.CacheTTL)
	assert.Empty(t, config.API.Key)
	assert.Equal(t, BackendStructural, config.Schema.Backend)
	assert.Equal(t, clml.DefaultMaxTitleLength, config.Extract.MaxTitleLength)
	assert.Equal(t, "pdf", config.Report.Format)
	assert.Equal(t, 20, config.Report.MaxSections)
	assert.Equal(t, "info", config.Log.Level)

	assert.Equal(t, Default(), config)
}

func TestLoad_ConfigFileAndEnvironment(t *testing.T) {
	clearEnvironment(t)
	t.Chdir(t.TempDir())

	configContent := `
api:
  base_url: https://legislation.example.test
  rate_limit: 250ms
  timeout: 5s
schema:
  backend: xsd
  cache_dir: cache/schemas
extract:
  max_title_length: 60
  container_rules:
    - leg:P1=section
    - leg:Schedule=schedule
report:
  format: html
log:
  level: debug
  development: true
`
	require.NoError(t, os.WriteFile("clmlkit.yaml", []byte(configContent), 0o644))
	t.Setenv("CLMLKIT_REPORT_FORMAT", "markdown")

	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://legislation.example.test", config.API.BaseURL)
	assert.Equal(t, 250*time.Millisecond, config.API.RateLimit)
	assert.Equal(t, 5*time.Second, config.API.Timeout)
	assert.Equal(t, BackendXSD, config.Schema.Backend)
	assert.Equal(t, "cache/schemas", config.Schema.CacheDir)
	assert.Equal(t, "markdown", config.Report.Format, "environment overrides the file")
	assert.True(t, config.Log.Development)

	extractorConfig, err := config.ExtractorConfig()
	require.NoError(t, err)
	assert.Equal(t, 60, extractorConfig.MaxTitleLength)
	require.Len(t, extractorConfig.ContainerRules, 2)
	assert.Equal(t, clml.SectionKindSchedule, extractorConfig.ContainerRules[1].Kind)
	assert.Equal(t, clml.DefaultOpaqueElements(), extractorConfig.OpaqueElements)

	clientConfig := config.ClientConfig(nil)
	assert.Equal(t, 250*time.Millisecond, clientConfig.RateLimit)
	assert.Equal(t, "cache/schemas", config.ValidatorConfig(nil).CacheDir)
}

func TestLoad_APIKeyFromDotEnv(t *testing.T) {
	clearEnvironment(t)
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile(".env", []byte("LEGISLATION_API_KEY=secret-from-dotenv\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("LEGISLATION_API_KEY") })

	config, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "secret-from-dotenv", config.API.Key)
	assert.Equal(t, "secret-from-dotenv", config.ClientConfig(nil).APIKey)
}

func TestLoad_PrefixedKeyWins(t *testing.T) {
	clearEnvironment(t)
	t.Chdir(t.TempDir())
	t.Setenv("CLMLKIT_API_KEY", "prefixed")
	t.Setenv("LEGISLATION_API_KEY", "legacy")

	config, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "prefixed", config.API.Key)
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	clearEnvironment(t)
	t.Chdir(t.TempDir())

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidate(t *testing.T) {
	cases := map[string]struct {
		mutate   func(config *Config)
		contains string
	}{
		"relative base url": {func(config *Config) { config.API.BaseURL = "legislation.gov.uk" }, "api.base_url"},
		"negative rate":     {func(config *Config) { config.API.RateLimit = -time.Second }, "api.rate_limit"},
		"unknown backend":   {func(config *Config) { config.Schema.Backend = "xerces" }, "schema.backend"},
		"zero title length": {func(config *Config) { config.Extract.MaxTitleLength = 0 }, "extract.max_title_length"},
		"bad rule":          {func(config *Config) { config.Extract.ContainerRules = []string{"leg:P1"} }, "extract.container_rules"},
		"bad opaque name":   {func(config *Config) { config.Extract.OpaqueElements = []string{"xx:Block"} }, "extract.opaque_elements"},
		"bad format":        {func(config *Config) { config.Report.Format = "docx" }, "report.format"},
		"zero max sections": {func(config *Config) { config.Report.MaxSections = 0 }, "report.max_sections"},
	}

	require.NoError(t, Default().Validate())
	for name, testCase := range cases {
		t.Run(name, func(t *testing.T) {
			config := Default()
			testCase.mutate(config)
			err := config.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), testCase.contains)
		})
	}
}
