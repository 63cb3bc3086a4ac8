package ukleg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

// MockHTTPClient implements HTTPClient for testing.
type MockHTTPClient struct {
	DoFunc func(req *http.Request) (*http.Response, error)
}

func (mockClient *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return mockClient.DoFunc(req)
}

// newTestClient creates a Client with a mock HTTP client and no rate limiting.
func newTestClient(mockClient *MockHTTPClient) *Client {
	return &Client{
		httpClient: mockClient,
		cache:      NewValidationCache(1 * time.Hour),
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
		logger:     zap.NewNop(),
	}
}

func bodyResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestFetchXML_RequestShape(t *testing.T) {
	var captured *http.Request
	mockClient := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			captured = req
			return bodyResponse(http.StatusOK, "<Legislation/>"), nil
		},
	}

	client := newTestClient(mockClient)
	client.apiKey = "secret-key"

	content, err := client.FetchXML(context.Background(), LegislationURI{
		LegislationType: LegislationTypeUKPGA,
		Year:            "2020",
		Number:          "7",
	})
	if err != nil {
		t.Fatalf("FetchXML failed: %v", err)
	}

	if string(content) != "<Legislation/>" {
		t.Errorf("content: got %q", content)
	}
	if captured.URL.String() != "https://www.legislation.gov.uk/ukpga/2020/7/data.xml" {
		t.Errorf("URL: got %q", captured.URL.String())
	}
	if captured.Header.Get("Accept") != "application/xml" {
		t.Errorf("Accept: got %q", captured.Header.Get("Accept"))
	}
	if captured.Header.Get("X-API-Key") != "secret-key" {
		t.Errorf("X-API-Key: got %q", captured.Header.Get("X-API-Key"))
	}
	if captured.Header.Get("User-Agent") != DefaultUserAgent {
		t.Errorf("User-Agent: got %q", captured.Header.Get("User-Agent"))
	}
}

func TestFetchXML_NoAPIKeyHeaderWhenUnset(t *testing.T) {
	mockClient := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			if _, present := req.Header["X-Api-Key"]; present {
				t.Error("X-API-Key must not be sent without a configured key")
			}
			return bodyResponse(http.StatusOK, "<Legislation/>"), nil
		},
	}

	_, err := newTestClient(mockClient).FetchXML(context.Background(), LegislationURI{
		LegislationType: LegislationTypeUKSI, Year: "2020", Number: "350",
	})
	if err != nil {
		t.Fatalf("FetchXML failed: %v", err)
	}
}

func TestFetchXML_NotFound(t *testing.T) {
	mockClient := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return bodyResponse(http.StatusNotFound, ""), nil
		},
	}

	_, err := newTestClient(mockClient).FetchXML(context.Background(), LegislationURI{
		LegislationType: LegislationTypeUKPGA, Year: "2099", Number: "999",
	})
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected errors.Is(err, ErrNotFound), got %v", err)
	}

	var statusError *HTTPStatusError
	if !errors.As(err, &statusError) || statusError.StatusCode != http.StatusNotFound {
		t.Errorf("expected HTTPStatusError with 404, got %v", err)
	}
}

func TestFetchXML_ServerError(t *testing.T) {
	mockClient := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return bodyResponse(http.StatusServiceUnavailable, ""), nil
		},
	}

	_, err := newTestClient(mockClient).FetchXML(context.Background(), LegislationURI{
		LegislationType: LegislationTypeUKPGA, Year: "2020", Number: "7",
	})
	if err == nil {
		t.Fatal("expected error for 503")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("503 must not match ErrNotFound")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("error should mention status, got %q", err.Error())
	}
}

func TestFetchXML_NetworkError(t *testing.T) {
	mockClient := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return nil, fmt.Errorf("connection refused")
		},
	}

	_, err := newTestClient(mockClient).FetchXML(context.Background(), LegislationURI{
		LegislationType: LegislationTypeUKPGA, Year: "2020", Number: "7",
	})
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("expected wrapped network error, got %v", err)
	}
}

func TestFetchAtomFeed_TitleQuery(t *testing.T) {
	var capturedURL string
	mockClient := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			capturedURL = req.URL.String()
			return bodyResponse(http.StatusOK, "<feed/>"), nil
		},
	}

	client := newTestClient(mockClient)
	if _, err := client.FetchAtomFeed(context.Background(), "coronavirus act"); err != nil {
		t.Fatalf("FetchAtomFeed failed: %v", err)
	}
	if capturedURL != "https://www.legislation.gov.uk/data.feed?title=coronavirus+act" {
		t.Errorf("URL: got %q", capturedURL)
	}

	if _, err := client.FetchAtomFeed(context.Background(), ""); err != nil {
		t.Fatalf("FetchAtomFeed failed: %v", err)
	}
	if capturedURL != "https://www.legislation.gov.uk/data.feed" {
		t.Errorf("URL without query: got %q", capturedURL)
	}
}

func TestFetchMetadata_Success(t *testing.T) {
	mockClient := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return bodyResponse(http.StatusOK, "<Legislation>0123456789</Legislation>"), nil
		},
	}

	metadata, err := newTestClient(mockClient).FetchMetadata(context.Background(), LegislationURI{
		LegislationType: LegislationTypeUKPGA, Year: "2018", Number: "12",
	})
	if err != nil {
		t.Fatalf("FetchMetadata failed: %v", err)
	}

	if metadata.LegislationType != "ukpga" || metadata.Year != "2018" || metadata.Number != "12" {
		t.Errorf("triple: got %s/%s/%s", metadata.LegislationType, metadata.Year, metadata.Number)
	}
	if metadata.URI != "https://www.legislation.gov.uk/ukpga/2018/12" {
		t.Errorf("URI: got %q", metadata.URI)
	}
	if metadata.ContentLength != len("<Legislation>0123456789</Legislation>") {
		t.Errorf("ContentLength: got %d", metadata.ContentLength)
	}
	if metadata.RetrievedAt.IsZero() {
		t.Error("RetrievedAt should be set")
	}
}

func TestValidateURI_StatusCodes(t *testing.T) {
	cases := []struct {
		name       string
		statusCode int
		wantValid  bool
	}{
		{"200 OK", http.StatusOK, true},
		{"301 redirect", http.StatusMovedPermanently, true},
		{"404 not found", http.StatusNotFound, false},
		{"500 server error", http.StatusInternalServerError, false},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			mockClient := &MockHTTPClient{
				DoFunc: func(req *http.Request) (*http.Response, error) {
					if req.Method != http.MethodHead {
						t.Errorf("method: got %s, want HEAD", req.Method)
					}
					return &http.Response{StatusCode: testCase.statusCode, Body: http.NoBody}, nil
				},
			}

			result, err := newTestClient(mockClient).ValidateURI(context.Background(),
				"https://www.legislation.gov.uk/ukpga/2020/7")
			if err != nil {
				t.Fatalf("ValidateURI failed: %v", err)
			}
			if result.Valid != testCase.wantValid {
				t.Errorf("Valid: got %v, want %v", result.Valid, testCase.wantValid)
			}
			if result.StatusCode != testCase.statusCode {
				t.Errorf("StatusCode: got %d, want %d", result.StatusCode, testCase.statusCode)
			}
		})
	}
}

func TestValidateURI_NetworkError(t *testing.T) {
	mockClient := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return nil, fmt.Errorf("connection refused")
		},
	}

	result, err := newTestClient(mockClient).ValidateURI(context.Background(),
		"https://www.legislation.gov.uk/ukpga/2020/7")
	if err != nil {
		t.Fatalf("ValidateURI should not return Go error for network failures: %v", err)
	}
	if result.Valid {
		t.Error("Expected Valid to be false for network error")
	}
	if !strings.Contains(result.Error, "connection refused") {
		t.Errorf("Error should contain underlying error message, got %q", result.Error)
	}
}

func TestValidateURI_Caching(t *testing.T) {
	var requestCount atomic.Int32
	mockClient := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			requestCount.Add(1)
			return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
		},
	}

	client := newTestClient(mockClient)
	targetURI := "https://www.legislation.gov.uk/ukpga/2020/7"

	for attempt := 0; attempt < 3; attempt++ {
		result, err := client.ValidateURI(context.Background(), targetURI)
		if err != nil {
			t.Fatalf("attempt %d: ValidateURI failed: %v", attempt, err)
		}
		if !result.Valid {
			t.Errorf("attempt %d: expected Valid", attempt)
		}
	}

	if requestCount.Load() != 1 {
		t.Errorf("Expected 1 HTTP request (later calls cached), got %d", requestCount.Load())
	}
}

func TestValidateURI_CancelledContextNotCached(t *testing.T) {
	mockClient := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			if err := req.Context().Err(); err != nil {
				return nil, err
			}
			return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
		},
	}

	client := newTestClient(mockClient)
	targetURI := "https://www.legislation.gov.uk/ukpga/2020/7"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.ValidateURI(ctx, targetURI); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if client.cache.Len() != 0 {
		t.Errorf("cancelled check should not be cached, cache holds %d", client.cache.Len())
	}

	result, err := client.ValidateURI(context.Background(), targetURI)
	if err != nil {
		t.Fatalf("ValidateURI failed: %v", err)
	}
	if !result.Valid {
		t.Error("expected Valid after a cancelled attempt")
	}
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(ClientConfig{BaseURL: "http://localhost:8080/"})

	if client.baseURL != "http://localhost:8080" {
		t.Errorf("baseURL: got %q, want trailing slash trimmed", client.baseURL)
	}
	if client.userAgent != DefaultUserAgent {
		t.Errorf("userAgent: got %q", client.userAgent)
	}
	if client.logger == nil {
		t.Error("logger should default to a no-op logger")
	}
	if _, ok := client.httpClient.(*RateLimitedHTTPClient); !ok {
		t.Errorf("httpClient should be rate limited, got %T", client.httpClient)
	}
}

func TestRateLimitedHTTPClient_HonoursContext(t *testing.T) {
	var requestCount atomic.Int32
	mockClient := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			requestCount.Add(1)
			return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
		},
	}

	rateLimited := NewRateLimitedHTTPClient(mockClient, time.Hour)

	first, _ := http.NewRequest(http.MethodGet, "https://www.legislation.gov.uk/", nil)
	if _, err := rateLimited.Do(first); err != nil {
		t.Fatalf("first request should pass the limiter: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	second, _ := http.NewRequestWithContext(ctx, http.MethodGet, "https://www.legislation.gov.uk/", nil)
	if _, err := rateLimited.Do(second); err == nil {
		t.Error("second request should fail while waiting for the limiter")
	}

	if requestCount.Load() != 1 {
		t.Errorf("expected 1 request to reach the underlying client, got %d", requestCount.Load())
	}
}
