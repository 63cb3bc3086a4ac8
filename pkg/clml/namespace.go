// Package clml extracts structured metadata from Crown Legislation Markup
// Language (CLML) documents published by legislation.gov.uk.
//
// Extraction is a pure function of its input bytes: the document is parsed
// into a transient tree, its section and schedule containers are walked in
// document order, a title is resolved for each one, and the document-level
// identity (type, year, number) is assembled into a LegislationDocument.
// Non-fatal problems are returned alongside the result as warnings.
package clml

import (
	"strings"
)

// Namespace URIs used by CLML documents.
const (
	NamespaceLegislation = "http://www.legislation.gov.uk/namespaces/legislation"
	NamespaceMetadata    = "http://www.legislation.gov.uk/namespaces/metadata"
	NamespaceDublinCore  = "http://purl.org/dc/elements/1.1/"
	NamespaceXSI         = "http://www.w3.org/2001/XMLSchema-instance"
)

// namespaceRegistry maps the recognised short prefixes to their URIs.
// It is never mutated after package initialisation.
var namespaceRegistry = map[string]string{
	"leg": NamespaceLegislation,
	"ukm": NamespaceMetadata,
	"dc":  NamespaceDublinCore,
	"xsi": NamespaceXSI,
}

// LookupNamespace returns the namespace URI registered for prefix.
func LookupNamespace(prefix string) (string, error) {
	uri, ok := namespaceRegistry[prefix]
	if !ok {
		return "", &UnknownNamespaceError{Prefix: prefix}
	}
	return uri, nil
}

// NamespacePrefixes returns the recognised prefixes in a stable order.
func NamespacePrefixes() []string {
	return []string{"leg", "dc", "xsi", "ukm"}
}

// QName is a namespace-qualified element name.
type QName struct {
	Space string // namespace URI
	Local string
}

// String renders the name with its registered prefix when one exists,
// otherwise in Clark notation.
func (qualifiedName QName) String() string {
	for prefix, uri := range namespaceRegistry {
		if uri == qualifiedName.Space {
			return prefix + ":" + qualifiedName.Local
		}
	}
	if qualifiedName.Space == "" {
		return qualifiedName.Local
	}
	return "{" + qualifiedName.Space + "}" + qualifiedName.Local
}

// NewQName resolves prefix through the registry and returns the qualified name.
func NewQName(prefix string, local string) (QName, error) {
	uri, err := LookupNamespace(prefix)
	if err != nil {
		return QName{}, err
	}
	return QName{Space: uri, Local: local}, nil
}

// MustQName is like NewQName but panics on an unknown prefix. It is intended
// for package-level tables only.
func MustQName(prefix string, local string) QName {
	qualifiedName, err := NewQName(prefix, local)
	if err != nil {
		panic(err)
	}
	return qualifiedName
}

// ParseQName parses a prefixed name such as "leg:P1".
func ParseQName(prefixed string) (QName, error) {
	prefix, local, found := strings.Cut(prefixed, ":")
	if !found || prefix == "" || local == "" {
		return QName{}, &UnknownNamespaceError{Prefix: prefixed}
	}
	return NewQName(prefix, local)
}

// Frequently used names.
var (
	legTitle       = MustQName("leg", "Title")
	legTitleBlock  = MustQName("leg", "TitleBlock")
	legHeading     = MustQName("leg", "Heading")
	legPnumber     = MustQName("leg", "Pnumber")
	legNumber      = MustQName("leg", "Number")
	legP1group     = MustQName("leg", "P1group")
	legYear        = MustQName("leg", "Year")
	legLongTitle   = MustQName("leg", "LongTitle")
	legPrelims     = MustQName("leg", "PrimaryPrelims")
	legSecPrelims  = MustQName("leg", "SecondaryPrelims")
	legAmendment   = MustQName("leg", "Amendment")
	legDate        = MustQName("leg", "Date")
	legDescription = MustQName("leg", "Description")

	ukmMetadata         = MustQName("ukm", "Metadata")
	ukmDocumentMainType = MustQName("ukm", "DocumentMainType")
	ukmDocumentStatus   = MustQName("ukm", "DocumentStatus")
	ukmDocumentCategory = MustQName("ukm", "DocumentCategory")
	ukmYear             = MustQName("ukm", "Year")
	ukmNumber           = MustQName("ukm", "Number")
	ukmEnactmentDate    = MustQName("ukm", "EnactmentDate")
	ukmMadeDate         = MustQName("ukm", "Made")
	ukmUnappliedEffect  = MustQName("ukm", "UnappliedEffect")
	ukmAffectingTitle   = MustQName("ukm", "AffectingTitle")

	dcTitle      = MustQName("dc", "title")
	dcIdentifier = MustQName("dc", "identifier")
)
