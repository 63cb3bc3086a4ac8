//go:build !cgo

// Package libxml implements schema.Backend with libxml2's XSD validator.
// This build has no cgo, so validation reports schema.ErrBackendUnavailable.
package libxml

import (
	"fmt"

	"github.com/coolbeans/clmlkit/pkg/schema"
)

// Backend is unavailable without cgo.
type Backend struct{}

// New creates a backend that always fails.
func New() *Backend {
	return &Backend{}
}

// Validate reports that libxml2 is not compiled in.
func (backend *Backend) Validate(schemaPath string, content []byte) ([]string, error) {
	return nil, fmt.Errorf("libxml2 requires cgo: %w", schema.ErrBackendUnavailable)
}

// Close is a no-op.
func (backend *Backend) Close() {}
