// Package schema validates CLML documents against the published
// legislation.gov.uk XML schemas. Validation is independent of extraction.
package schema

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/coolbeans/clmlkit/pkg/ukleg"
)

const (
	// DefaultBaseURL is where the CLML schemas are published.
	DefaultBaseURL = "https://www.legislation.gov.uk/schema"

	// DefaultCacheDir holds downloaded schema files.
	DefaultCacheDir = "data/raw/schemas"

	// MainSchema is the entry point schema; it imports the other two.
	MainSchema = "legislation.xsd"

	namespaceLegislation = "http://www.legislation.gov.uk/namespaces/legislation"
	namespaceMetadata    = "http://www.legislation.gov.uk/namespaces/metadata"
)

// SchemaFiles lists the schema files kept in the cache directory.
var SchemaFiles = []string{MainSchema, "schemaLegislationCore.xsd", "schemaLegislationMetadata.xsd"}

// expectedNamespaces must be declared on the document element.
var expectedNamespaces = []struct{ prefix, uri string }{
	{"leg", namespaceLegislation},
	{"ukm", namespaceMetadata},
}

// metadataElements are expected somewhere in the ukm namespace.
var metadataElements = []string{"DocumentMainType", "DocumentStatus", "DocumentCategory", "Year", "Number"}

// Backend validates content against an XSD file.
type Backend interface {
	// Validate returns one message per schema violation. The error is
	// reserved for failures to run validation at all.
	Validate(schemaPath string, content []byte) ([]string, error)
}

// ErrBackendUnavailable is returned by backends that cannot run in the
// current build.
var ErrBackendUnavailable = errors.New("schema validation backend unavailable")

// Report is the outcome of ValidateAgainstCLML.
type Report struct {
	Valid         bool              `json:"valid" yaml:"valid"`
	Errors        []string          `json:"errors" yaml:"errors"`
	Warnings      []string          `json:"warnings" yaml:"warnings"`
	SchemaVersion string            `json:"schema_version,omitempty" yaml:"schema_version,omitempty"`
	Namespaces    map[string]string `json:"namespaces" yaml:"namespaces"`
	Backend       string            `json:"backend" yaml:"backend"`
}

// Config holds validator settings.
type Config struct {
	BaseURL    string
	CacheDir   string
	HTTPClient ukleg.HTTPClient
	Timeout    time.Duration

	// Backend performs XSD validation. When nil only the structural checks
	// run and no schema is downloaded.
	Backend Backend

	Logger *zap.Logger
}

// DefaultConfig returns the default validator configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:  DefaultBaseURL,
		CacheDir: DefaultCacheDir,
		Timeout:  ukleg.DefaultRequestTimeout,
	}
}

// Validator checks CLML documents. It is safe for concurrent use.
type Validator struct {
	baseURL    string
	cacheDir   string
	httpClient ukleg.HTTPClient
	timeout    time.Duration
	backend    Backend
	logger     *zap.Logger

	downloadMutex sync.Mutex
}

// NewValidator creates a Validator, filling unset fields from DefaultConfig.
func NewValidator(config Config) *Validator {
	defaults := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.CacheDir == "" {
		config.CacheDir = defaults.CacheDir
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return &Validator{
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		cacheDir:   config.CacheDir,
		httpClient: config.HTTPClient,
		timeout:    config.Timeout,
		backend:    config.Backend,
		logger:     config.Logger,
	}
}

// ValidateAgainstCLML runs the namespace checks, schema validation, and (when
// checkMetadata is set and the document is valid) metadata presence checks.
// Problems with the document are reported in the Report; the error is only
// for a cancelled context.
func (validator *Validator) ValidateAgainstCLML(ctx context.Context, content []byte, checkMetadata bool) (*Report, error) {
	report := &Report{
		Valid:      true,
		Errors:     []string{},
		Warnings:   []string{},
		Namespaces: map[string]string{},
		Backend:    validator.backendName(),
	}

	document := etree.NewDocument()
	document.ReadSettings.ValidateInput = true
	if err := document.ReadFromBytes(content); err != nil {
		report.fail(fmt.Sprintf("validation failed: %v", err))
		return report, nil
	}
	root := document.Root()
	if root == nil {
		report.fail("validation failed: no root element")
		return report, nil
	}

	report.Namespaces = declaredNamespaces(root)
	report.SchemaVersion = schemaVersion(root)
	for _, expected := range expectedNamespaces {
		if !containsValue(report.Namespaces, expected.uri) {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("Expected namespace %s:%s not found", expected.prefix, expected.uri))
		}
	}

	if validator.backend == nil {
		for _, message := range structuralErrors(root) {
			report.fail(message)
		}
	} else {
		messages, err := validator.validateWithSchema(ctx, content)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			report.fail(fmt.Sprintf("validation failed: %v", err))
		}
		for _, message := range messages {
			report.fail(message)
		}
	}

	if checkMetadata && report.Valid {
		for _, name := range metadataElements {
			if !hasMetadataElement(root, name) {
				report.Warnings = append(report.Warnings, fmt.Sprintf("Metadata element %s not found", name))
			}
		}
	}

	validator.logger.Debug("validated document",
		zap.Bool("valid", report.Valid),
		zap.Int("errors", len(report.Errors)),
		zap.Int("warnings", len(report.Warnings)),
		zap.String("backend", report.Backend))
	return report, nil
}

func (report *Report) fail(message string) {
	report.Valid = false
	report.Errors = append(report.Errors, message)
}

func (validator *Validator) backendName() string {
	if validator.backend == nil {
		return "structural"
	}
	return "xsd"
}

func (validator *Validator) validateWithSchema(ctx context.Context, content []byte) ([]string, error) {
	schemaPath, err := validator.EnsureSchemas(ctx)
	if err != nil {
		return nil, err
	}
	return validator.backend.Validate(schemaPath, content)
}

// EnsureSchemas downloads any schema file missing from the cache directory
// and returns the path of the main schema.
func (validator *Validator) EnsureSchemas(ctx context.Context) (string, error) {
	validator.downloadMutex.Lock()
	defer validator.downloadMutex.Unlock()

	if err := os.MkdirAll(validator.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("creating schema cache %s: %w", validator.cacheDir, err)
	}

	for _, name := range SchemaFiles {
		schemaPath := filepath.Join(validator.cacheDir, name)
		if _, err := os.Stat(schemaPath); err == nil {
			continue
		}
		if err := validator.downloadSchema(ctx, name, schemaPath); err != nil {
			return "", err
		}
	}
	return filepath.Join(validator.cacheDir, MainSchema), nil
}

func (validator *Validator) downloadSchema(ctx context.Context, name string, destination string) error {
	ctx, cancel := context.WithTimeout(ctx, validator.timeout)
	defer cancel()

	schemaURL := validator.baseURL + "/" + name
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, schemaURL, nil)
	if err != nil {
		return fmt.Errorf("creating request for schema %s: %w", name, err)
	}
	req.Header.Set("User-Agent", ukleg.DefaultUserAgent)

	resp, err := validator.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("downloading schema %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading schema %s: %w", name, &ukleg.HTTPStatusError{URL: schemaURL, StatusCode: resp.StatusCode})
	}

	temporary, err := os.CreateTemp(validator.cacheDir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("caching schema %s: %w", name, err)
	}
	defer os.Remove(temporary.Name())

	if _, err := io.Copy(temporary, resp.Body); err != nil {
		temporary.Close()
		return fmt.Errorf("caching schema %s: %w", name, err)
	}
	if err := temporary.Close(); err != nil {
		return fmt.Errorf("caching schema %s: %w", name, err)
	}
	if err := os.Rename(temporary.Name(), destination); err != nil {
		return fmt.Errorf("caching schema %s: %w", name, err)
	}

	validator.logger.Info("downloaded schema", zap.String("schema", name), zap.String("path", destination))
	return nil
}

// declaredNamespaces maps each xmlns declaration on root to its URI. The
// default namespace is keyed by "".
func declaredNamespaces(root *etree.Element) map[string]string {
	namespaces := make(map[string]string)
	for _, attribute := range root.Attr {
		switch {
		case attribute.Space == "xmlns":
			namespaces[attribute.Key] = attribute.Value
		case attribute.Space == "" && attribute.Key == "xmlns":
			namespaces[""] = attribute.Value
		}
	}
	return namespaces
}

func schemaVersion(root *etree.Element) string {
	if version := root.SelectAttrValue("SchemaVersion", ""); version != "" {
		return version
	}
	fields := strings.Fields(root.SelectAttrValue("xsi:schemaLocation", ""))
	if len(fields) == 0 {
		return ""
	}
	location := fields[len(fields)-1]
	return location[strings.LastIndex(location, "/")+1:]
}

func containsValue(values map[string]string, want string) bool {
	for _, value := range values {
		if value == want {
			return true
		}
	}
	return false
}

func hasMetadataElement(root *etree.Element, name string) bool {
	for _, element := range root.FindElements("//" + name) {
		if element.NamespaceURI() == namespaceMetadata {
			return true
		}
	}
	return false
}

// structuralErrors checks the outline every CLML document shares: a
// leg:Legislation root with a metadata block and a body.
func structuralErrors(root *etree.Element) []string {
	var messages []string
	if root.Tag != "Legislation" || root.NamespaceURI() != namespaceLegislation {
		messages = append(messages, fmt.Sprintf("root element {%s}%s is not leg:Legislation", root.NamespaceURI(), root.Tag))
		return messages
	}

	var children []string
	hasMetadata, hasBody := false, false
	for _, child := range root.ChildElements() {
		children = append(children, child.Tag)
		switch {
		case child.Tag == "Metadata" && child.NamespaceURI() == namespaceMetadata:
			hasMetadata = true
		case child.NamespaceURI() == namespaceLegislation && isBodyElement(child.Tag):
			hasBody = true
		}
	}
	if !hasMetadata {
		messages = append(messages, "missing ukm:Metadata element")
	}
	if !hasBody {
		sort.Strings(children)
		messages = append(messages, fmt.Sprintf("missing body element (Primary, Secondary or EURetained); found [%s]", strings.Join(children, ", ")))
	}
	return messages
}

func isBodyElement(tag string) bool {
	switch tag {
	case "Primary", "Secondary", "EURetained":
		return true
	}
	return false
}
