package clml

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is matching.
var (
	ErrParse              = errors.New("malformed legislation XML")
	ErrUnknownNamespace   = errors.New("unknown namespace prefix")
	ErrIncompleteMetadata = errors.New("incomplete legislation metadata")
)

// ParseError reports content that is not well-formed XML.
type ParseError struct {
	Line int // line reported by the decoder, when known
	Err  error
}

func (parseError *ParseError) Error() string {
	if parseError.Line > 0 {
		return fmt.Sprintf("%v at line %d: %v", ErrParse, parseError.Line, parseError.Err)
	}
	return fmt.Sprintf("%v: %v", ErrParse, parseError.Err)
}

func (parseError *ParseError) Unwrap() error { return parseError.Err }

func (parseError *ParseError) Is(target error) bool { return target == ErrParse }

// UnknownNamespaceError reports a prefix outside the namespace registry.
type UnknownNamespaceError struct {
	Prefix string
}

func (namespaceError *UnknownNamespaceError) Error() string {
	return fmt.Sprintf("%v: %q (known: %s)", ErrUnknownNamespace, namespaceError.Prefix,
		strings.Join(NamespacePrefixes(), ", "))
}

func (namespaceError *UnknownNamespaceError) Is(target error) bool {
	return target == ErrUnknownNamespace
}

// IncompleteMetadataError reports that the document identity could not be
// determined. No LegislationDocument is produced alongside it.
type IncompleteMetadataError struct {
	// Missing lists the unresolved fields ("type", "year", "number").
	Missing []string

	// Partial identity resolved before failing; zero values mean unresolved.
	Type   string
	Year   int
	Number int

	// Consulted lists the node paths that were inspected.
	Consulted []string
}

func (metadataError *IncompleteMetadataError) Error() string {
	return fmt.Sprintf("%v: missing %s (resolved %s; consulted %s)",
		ErrIncompleteMetadata,
		strings.Join(metadataError.Missing, ", "),
		metadataError.partialTriple(),
		strings.Join(metadataError.Consulted, ", "))
}

func (metadataError *IncompleteMetadataError) Is(target error) bool {
	return target == ErrIncompleteMetadata
}

func (metadataError *IncompleteMetadataError) partialTriple() string {
	part := func(value string) string {
		if value == "" || value == "0" {
			return "?"
		}
		return value
	}
	return fmt.Sprintf("%s/%s/%s", part(metadataError.Type),
		part(fmt.Sprint(metadataError.Year)), part(fmt.Sprint(metadataError.Number)))
}

// UnresolvedSectionWarning is a non-fatal diagnostic for a container that was
// skipped or given a placeholder. Warnings are collected, never raised.
type UnresolvedSectionWarning struct {
	Path       string
	Identifier string
	Reason     string
}

func (warning *UnresolvedSectionWarning) Error() string {
	if warning.Identifier != "" {
		return fmt.Sprintf("%s (%s): %s", warning.Path, warning.Identifier, warning.Reason)
	}
	return fmt.Sprintf("%s: %s", warning.Path, warning.Reason)
}

// Warning reasons.
const (
	ReasonNoIdentifier        = "no resolvable identifier; container skipped"
	ReasonDuplicateIdentifier = "duplicate identifier; container skipped"
	ReasonPlaceholderTitle    = "no title text; placeholder used"
)
