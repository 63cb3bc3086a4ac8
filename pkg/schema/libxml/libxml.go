//go:build cgo

// Package libxml implements schema.Backend with libxml2's XSD validator.
package libxml

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lestrrat-go/libxml2"
	"github.com/lestrrat-go/libxml2/xsd"
)

// Backend validates documents with libxml2. Compiled schemas are kept per
// path until Close.
type Backend struct {
	mutex   sync.Mutex
	schemas map[string]*xsd.Schema
}

// New creates a libxml2 backend.
func New() *Backend {
	return &Backend{schemas: make(map[string]*xsd.Schema)}
}

// Validate checks content against the schema at schemaPath.
func (backend *Backend) Validate(schemaPath string, content []byte) ([]string, error) {
	schema, err := backend.schema(schemaPath)
	if err != nil {
		return nil, err
	}

	document, err := libxml2.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	defer document.Free()

	backend.mutex.Lock()
	defer backend.mutex.Unlock()

	err = schema.Validate(document)
	if err == nil {
		return nil, nil
	}

	var violations interface{ Errors() []error }
	if !errors.As(err, &violations) {
		return nil, fmt.Errorf("running schema validation: %w", err)
	}
	messages := make([]string, 0, len(violations.Errors()))
	for _, violation := range violations.Errors() {
		messages = append(messages, violation.Error())
	}
	return messages, nil
}

func (backend *Backend) schema(schemaPath string) (*xsd.Schema, error) {
	backend.mutex.Lock()
	defer backend.mutex.Unlock()

	if schema, ok := backend.schemas[schemaPath]; ok {
		return schema, nil
	}
	schema, err := xsd.ParseFromFile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("compiling schema %s: %w", schemaPath, err)
	}
	backend.schemas[schemaPath] = schema
	return schema, nil
}

// Close frees every compiled schema.
func (backend *Backend) Close() {
	backend.mutex.Lock()
	defer backend.mutex.Unlock()

	for schemaPath, schema := range backend.schemas {
		schema.Free()
		delete(backend.schemas, schemaPath)
	}
}
