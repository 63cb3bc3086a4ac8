// Package config loads clmlkit settings from clmlkit.yaml, the environment
// and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/coolbeans/clmlkit/pkg/clml"
	"github.com/coolbeans/clmlkit/pkg/report"
	"github.com/coolbeans/clmlkit/pkg/schema"
	"github.com/coolbeans/clmlkit/pkg/ukleg"
)

// EnvPrefix prefixes environment overrides, e.g. CLMLKIT_API_RATE_LIMIT.
const EnvPrefix = "CLMLKIT"

// Schema backend names.
const (
	BackendStructural = "structural"
	BackendXSD        = "xsd"
)

// Config is the full clmlkit configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Schema  SchemaConfig  `mapstructure:"schema"`
	Extract ExtractConfig `mapstructure:"extract"`
	Report  ReportConfig  `mapstructure:"report"`
	Log     LogConfig     `mapstructure:"log"`
}

// APIConfig configures the legislation.gov.uk client.
type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Key       string        `mapstructure:"key"`
	RateLimit time.Duration `mapstructure:"rate_limit"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
}

// SchemaConfig configures schema validation.
type SchemaConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	CacheDir string `mapstructure:"cache_dir"`
	Backend  string `mapstructure:"backend"`
}

// ExtractConfig configures section discovery.
type ExtractConfig struct {
	MaxTitleLength int      `mapstructure:"max_title_length"`
	ContainerRules []string `mapstructure:"container_rules"`

	// OpaqueElements are not searched for sections, e.g. quoted amendments.
	OpaqueElements []string `mapstructure:"opaque_elements"`
}

// ReportConfig configures report output.
type ReportConfig struct {
	Format      string `mapstructure:"format"`
	OutputDir   string `mapstructure:"output_dir"`
	MaxSections int    `mapstructure:"max_sections"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load reads configuration. When configFile is empty, clmlkit.yaml (or .yml)
// in the working directory is used if present. A .env file in the working
// directory is loaded first and never overrides variables already set.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("clmlkit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("api.key", EnvPrefix+"_API_KEY", "LEGISLATION_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind api key environment: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	_ = v.Unmarshal(&config)
	return &config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", ukleg.DefaultBaseURL)
	v.SetDefault("api.key", "")
	v.SetDefault("api.rate_limit", ukleg.DefaultRequestInterval)
	v.SetDefault("api.timeout", ukleg.DefaultRequestTimeout)
	v.SetDefault("api.user_agent", ukleg.DefaultUserAgent)
	v.SetDefault("api.cache_ttl", ukleg.DefaultCacheTTL)

	v.SetDefault("schema.base_url", schema.DefaultBaseURL)
	v.SetDefault("schema.cache_dir", schema.DefaultCacheDir)
	v.SetDefault("schema.backend", BackendStructural)

	v.SetDefault("extract.max_title_length", clml.DefaultMaxTitleLength)
	v.SetDefault("extract.container_rules", []string{})
	v.SetDefault("extract.opaque_elements", []string{"leg:BlockAmendment", "leg:BlockExtract"})

	v.SetDefault("report.format", "pdf")
	v.SetDefault("report.output_dir", "reports")
	v.SetDefault("report.max_sections", report.DefaultMaxSections)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Validate checks the configuration for values that cannot work.
func (config *Config) Validate() error {
	if err := requireAbsoluteURL("api.base_url", config.API.BaseURL); err != nil {
		return err
	}
	if err := requireAbsoluteURL("schema.base_url", config.Schema.BaseURL); err != nil {
		return err
	}
	if config.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit must not be negative, got: %s", config.API.RateLimit)
	}
	if config.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative, got: %s", config.API.Timeout)
	}
	switch config.Schema.Backend {
	case BackendStructural, BackendXSD:
	default:
		return fmt.Errorf("schema.backend must be %q or %q, got: %q", BackendStructural, BackendXSD, config.Schema.Backend)
	}
	if config.Extract.MaxTitleLength <= 0 {
		return fmt.Errorf("extract.max_title_length must be positive, got: %d", config.Extract.MaxTitleLength)
	}
	if _, err := config.ContainerRules(); err != nil {
		return err
	}
	if _, err := config.OpaqueElements(); err != nil {
		return err
	}
	if _, err := report.ForFormat(config.Report.Format); err != nil {
		return fmt.Errorf("report.format: %w", err)
	}
	if config.Report.MaxSections <= 0 {
		return fmt.Errorf("report.max_sections must be positive, got: %d", config.Report.MaxSections)
	}
	return nil
}

func requireAbsoluteURL(name string, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got: %q", name, rawURL)
	}
	return nil
}

// ContainerRules parses extract.container_rules. An empty list yields the
// default rules.
func (config *Config) ContainerRules() ([]clml.ContainerRule, error) {
	if len(config.Extract.ContainerRules) == 0 {
		return clml.DefaultContainerRules(), nil
	}
	rules := make([]clml.ContainerRule, 0, len(config.Extract.ContainerRules))
	for _, ruleText := range config.Extract.ContainerRules {
		rule, err := clml.ParseContainerRule(ruleText)
		if err != nil {
			return nil, fmt.Errorf("extract.container_rules: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// OpaqueElements parses extract.opaque_elements. An empty list means every
// subtree is searched.
func (config *Config) OpaqueElements() ([]clml.QName, error) {
	names := make([]clml.QName, 0, len(config.Extract.OpaqueElements))
	for _, nameText := range config.Extract.OpaqueElements {
		name, err := clml.ParseQName(nameText)
		if err != nil {
			return nil, fmt.Errorf("extract.opaque_elements: %w", err)
		}
		names = append(names, name)
	}
	return names, nil
}

// ExtractorConfig converts the extract section for clml.NewExtractor.
func (config *Config) ExtractorConfig() (clml.Config, error) {
	rules, err := config.ContainerRules()
	if err != nil {
		return clml.Config{}, err
	}
	opaque, err := config.OpaqueElements()
	if err != nil {
		return clml.Config{}, err
	}
	return clml.Config{
		ContainerRules: rules,
		OpaqueElements: opaque,
		MaxTitleLength: config.Extract.MaxTitleLength,
	}, nil
}

// ClientConfig converts the api section for ukleg.NewClient.
func (config *Config) ClientConfig(logger *zap.Logger) ukleg.ClientConfig {
	return ukleg.ClientConfig{
		BaseURL:   config.API.BaseURL,
		APIKey:    config.API.Key,
		RateLimit: config.API.RateLimit,
		Timeout:   config.API.Timeout,
		CacheTTL:  config.API.CacheTTL,
		UserAgent: config.API.UserAgent,
		Logger:    logger,
	}
}

// ValidatorConfig converts the schema section for schema.NewValidator. The
// backend is left for the caller, which owns its lifetime.
func (config *Config) ValidatorConfig(logger *zap.Logger) schema.Config {
	return schema.Config{
		BaseURL:  config.Schema.BaseURL,
		CacheDir: config.Schema.CacheDir,
		Timeout:  config.API.Timeout,
		Logger:   logger,
	}
}
