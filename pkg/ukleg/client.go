package ukleg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultUserAgent is the default User-Agent header sent with legislation.gov.uk requests.
const DefaultUserAgent = "clmlkit-ukleg-connector/1.0"

// DefaultBaseURL is the root of the legislation.gov.uk API.
const DefaultBaseURL = "https://www.legislation.gov.uk"

// DefaultRequestTimeout is the default per-request timeout.
const DefaultRequestTimeout = 30 * time.Second

// MaxResponseBytes caps the size of a response body read into memory.
const MaxResponseBytes = 64 << 20

// ErrNotFound is matched by errors.Is for HTTP 404 responses.
var ErrNotFound = errors.New("legislation not found")

// HTTPStatusError reports a non-success response from legislation.gov.uk.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (statusError *HTTPStatusError) Error() string {
	return fmt.Sprintf("legislation.gov.uk returned HTTP %d for %s", statusError.StatusCode, statusError.URL)
}

func (statusError *HTTPStatusError) Is(target error) bool {
	return target == ErrNotFound && statusError.StatusCode == http.StatusNotFound
}

// ClientConfig holds configuration for a Client.
type ClientConfig struct {
	// BaseURL is the API root. Default: https://www.legislation.gov.uk.
	BaseURL string

	// APIKey is sent as X-API-Key when non-empty.
	APIKey string

	// RateLimit is the minimum interval between HTTP requests to legislation.gov.uk.
	// Default: 1 second.
	RateLimit time.Duration

	// Timeout bounds each request. Zero means no per-request timeout.
	Timeout time.Duration

	// CacheTTL is the time-to-live for cached validation results.
	// Default: 1 hour.
	CacheTTL time.Duration

	// HTTPClient is the underlying HTTP client used for requests.
	// If nil, http.DefaultClient is used (wrapped with rate limiting).
	HTTPClient HTTPClient

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// Logger receives request failures. Default: no-op.
	Logger *zap.Logger
}

// DefaultConfig returns a ClientConfig with sensible defaults.
func DefaultConfig() ClientConfig {
	return ClientConfig{
		BaseURL:   DefaultBaseURL,
		RateLimit: DefaultRequestInterval,
		Timeout:   DefaultRequestTimeout,
		CacheTTL:  DefaultCacheTTL,
		UserAgent: DefaultUserAgent,
	}
}

// Client provides legislation.gov.uk connectivity: CLML XML and Atom feed
// retrieval, URI validation, and document metadata, with rate limiting and caching.
type Client struct {
	httpClient HTTPClient
	cache      *ValidationCache
	baseURL    string
	apiKey     string
	userAgent  string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewClient creates a new Client with the given configuration.
// If config.HTTPClient is nil, http.DefaultClient is used and wrapped with rate limiting.
func NewClient(config ClientConfig) *Client {
	underlyingClient := config.HTTPClient
	if underlyingClient == nil {
		underlyingClient = http.DefaultClient
	}

	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		httpClient: NewRateLimitedHTTPClient(underlyingClient, config.RateLimit),
		cache:      NewValidationCache(config.CacheTTL),
		baseURL:    baseURL,
		apiKey:     config.APIKey,
		userAgent:  userAgent,
		timeout:    config.Timeout,
		logger:     logger,
	}
}

// FetchXML downloads the CLML XML for a legislation item.
func (client *Client) FetchXML(ctx context.Context, legislationURI LegislationURI) ([]byte, error) {
	return client.get(ctx, legislationURI.DataXMLPath(), nil)
}

// FetchAtomFeed downloads the legislation.gov.uk Atom feed, optionally
// filtered by a title query.
func (client *Client) FetchAtomFeed(ctx context.Context, titleQuery string) ([]byte, error) {
	var params url.Values
	if titleQuery != "" {
		params = url.Values{"title": []string{titleQuery}}
	}
	return client.get(ctx, "data.feed", params)
}

// FetchMetadata downloads the CLML XML for legislationURI and reports what
// was retrieved. Structured metadata is produced by the clml extractor.
func (client *Client) FetchMetadata(ctx context.Context, legislationURI LegislationURI) (*DocumentMetadata, error) {
	content, err := client.FetchXML(ctx, legislationURI)
	if err != nil {
		return nil, err
	}

	return &DocumentMetadata{
		LegislationType: string(legislationURI.LegislationType),
		Year:            legislationURI.Year,
		Number:          legislationURI.Number,
		URI:             legislationURI.String(),
		ContentLength:   len(content),
		RetrievedAt:     time.Now(),
	}, nil
}

// ValidateURI performs an HTTP HEAD request to the given URI to check if the
// resource exists on legislation.gov.uk. Results are cached for the configured TTL.
//
// A status code < 400 is considered valid (includes 200, 301, 302 redirects).
// Network errors and status codes >= 400 are considered invalid. A cancelled
// ctx returns its error and caches nothing.
func (client *Client) ValidateURI(ctx context.Context, uri string) (*ValidationResult, error) {
	if cachedResult, found := client.cache.Get(uri); found {
		return &cachedResult, nil
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodHead, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", uri, err)
	}
	request.Header.Set("User-Agent", client.userAgent)

	response, err := client.httpClient.Do(request)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("checking %s: %w", uri, ctx.Err())
		}
		// A network failure is a validation outcome, not a Go error.
		networkErrorResult := ValidationResult{
			URI:       uri,
			Valid:     false,
			CheckedAt: time.Now(),
			Error:     err.Error(),
		}
		client.cache.Set(uri, networkErrorResult)
		return &networkErrorResult, nil
	}
	defer response.Body.Close()

	validationResult := ValidationResult{
		URI:        uri,
		Valid:      response.StatusCode < 400,
		StatusCode: response.StatusCode,
		CheckedAt:  time.Now(),
	}

	client.cache.Set(uri, validationResult)
	return &validationResult, nil
}

// get performs a GET against the API and returns the response body.
func (client *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	requestURL := client.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	if client.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, client.timeout)
		defer cancel()
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", requestURL, err)
	}
	request.Header.Set("User-Agent", client.userAgent)
	request.Header.Set("Accept", "application/xml")
	if client.apiKey != "" {
		request.Header.Set("X-API-Key", client.apiKey)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		client.logger.Error("legislation.gov.uk request failed",
			zap.String("url", requestURL), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch %s: %w", requestURL, err)
	}
	defer response.Body.Close()

	if response.StatusCode >= 400 {
		client.logger.Error("legislation.gov.uk returned an error status",
			zap.String("url", requestURL), zap.Int("status", response.StatusCode))
		return nil, &HTTPStatusError{URL: requestURL, StatusCode: response.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, MaxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", requestURL, err)
	}

	client.logger.Debug("fetched from legislation.gov.uk",
		zap.String("url", requestURL), zap.Int("bytes", len(body)))
	return body, nil
}
