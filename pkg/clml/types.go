package clml

import (
	"fmt"

	"github.com/coolbeans/clmlkit/pkg/ukleg"
)

// SectionKind classifies a structural unit.
type SectionKind string

const (
	SectionKindSection   SectionKind = "section"
	SectionKindSchedule  SectionKind = "schedule"
	SectionKindParagraph SectionKind = "paragraph"
)

// TitleSource records which resolution step produced a title.
type TitleSource string

const (
	TitleSourceHeading        TitleSource = "heading"
	TitleSourceGroupHeading   TitleSource = "group_heading"
	TitleSourceMetadata       TitleSource = "metadata"
	TitleSourceDescendantText TitleSource = "descendant_text"
	TitleSourcePlaceholder    TitleSource = "placeholder"
)

// Section is one structural unit of a document. Sections are owned by the
// enclosing LegislationDocument and never shared between documents.
type Section struct {
	// Identifier is unique within the document, e.g. "1", "Schedule 2".
	Identifier string `json:"identifier" yaml:"identifier"`

	// Title is the authored title or a placeholder such as "Section 15".
	Title string `json:"title" yaml:"title"`

	// OrdinalPosition is the zero-based index in document order.
	OrdinalPosition int `json:"ordinal_position" yaml:"ordinal_position"`

	Kind        SectionKind `json:"kind" yaml:"kind"`
	Number      string      `json:"number,omitempty" yaml:"number,omitempty"`
	TitleSource TitleSource `json:"title_source" yaml:"title_source"`
	Path        string      `json:"path" yaml:"path"`
}

// Amendment is an effect recorded against the document: an unapplied
// ukm:UnappliedEffect, or a leg:Amendment in older documents.
type Amendment struct {
	ID                 string `json:"id,omitempty" yaml:"id,omitempty"`
	Type               string `json:"type" yaml:"type"`
	Date               string `json:"date,omitempty" yaml:"date,omitempty"`
	Description        string `json:"description,omitempty" yaml:"description,omitempty"`
	AffectingURI       string `json:"affecting_uri,omitempty" yaml:"affecting_uri,omitempty"`
	AffectedProvisions string `json:"affected_provisions,omitempty" yaml:"affected_provisions,omitempty"`
}

// LegislationDocument identifies one legislation item and carries its
// section sequence. It is built once by the Assembler and not modified after.
type LegislationDocument struct {
	Type   ukleg.LegislationType `json:"type" yaml:"type"`
	Year   int                   `json:"year" yaml:"year"`
	Number int                   `json:"number" yaml:"number"`
	Title  string                `json:"title" yaml:"title"`

	LongTitle     string `json:"long_title,omitempty" yaml:"long_title,omitempty"`
	DocumentURI   string `json:"document_uri,omitempty" yaml:"document_uri,omitempty"`
	Status        string `json:"status,omitempty" yaml:"status,omitempty"`
	Category      string `json:"category,omitempty" yaml:"category,omitempty"`
	EnactmentDate string `json:"enactment_date,omitempty" yaml:"enactment_date,omitempty"`

	Sections   []Section   `json:"sections" yaml:"sections"`
	Amendments []Amendment `json:"amendments,omitempty" yaml:"amendments,omitempty"`
}

// Identifier returns the type/year/number triple used in legislation.gov.uk
// request paths, e.g. "ukpga/2020/7".
func (document *LegislationDocument) Identifier() string {
	return fmt.Sprintf("%s/%d/%d", document.Type, document.Year, document.Number)
}

// URI returns the structured legislation.gov.uk URI for the document.
func (document *LegislationDocument) URI() ukleg.LegislationURI {
	return ukleg.LegislationURI{
		LegislationType: document.Type,
		Year:            fmt.Sprint(document.Year),
		Number:          fmt.Sprint(document.Number),
	}
}

// CountKind returns the number of sections of the given kind.
func (document *LegislationDocument) CountKind(kind SectionKind) int {
	count := 0
	for _, section := range document.Sections {
		if section.Kind == kind {
			count++
		}
	}
	return count
}
