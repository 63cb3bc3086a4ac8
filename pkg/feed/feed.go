// Package feed parses legislation.gov.uk Atom search feeds.
package feed

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"

	"github.com/coolbeans/clmlkit/pkg/ukleg"
)

// NamespaceAtom is the Atom syndication namespace.
const NamespaceAtom = "http://www.w3.org/2005/Atom"

// ErrMalformedFeed is returned for content that is not a well-formed feed.
var ErrMalformedFeed = errors.New("malformed Atom feed")

var (
	entryPath = etree.MustCompilePath("./entry[namespace-uri()='" + NamespaceAtom + "']")
	linkPath  = etree.MustCompilePath("./link[namespace-uri()='" + NamespaceAtom + "']")
)

// Feed is a parsed search result page.
type Feed struct {
	ID       string    `json:"id" yaml:"id"`
	Title    string    `json:"title" yaml:"title"`
	Updated  time.Time `json:"updated" yaml:"updated"`
	NextPage string    `json:"next_page,omitempty" yaml:"next_page,omitempty"`
	Entries  []Entry   `json:"entries" yaml:"entries"`

	// Warnings lists entries that were skipped.
	Warnings []EntryWarning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Entry is one feed item.
type Entry struct {
	URI     string    `json:"uri" yaml:"uri"`
	Title   string    `json:"title" yaml:"title"`
	Updated time.Time `json:"updated" yaml:"updated"`
	Summary string    `json:"summary,omitempty" yaml:"summary,omitempty"`

	// Legislation is the triple parsed from URI, nil when URI does not name
	// a legislation item.
	Legislation *ukleg.LegislationURI `json:"legislation,omitempty" yaml:"legislation,omitempty"`
}

// EntryWarning describes an entry skipped for missing or invalid fields.
type EntryWarning struct {
	Index  int    `json:"index" yaml:"index"`
	Reason string `json:"reason" yaml:"reason"`
}

func (warning EntryWarning) String() string {
	return fmt.Sprintf("entry %d: %s", warning.Index, warning.Reason)
}

// Parse reads an Atom feed. Entries without id, title or a valid updated
// timestamp are skipped and reported in Feed.Warnings.
func Parse(content []byte) (*Feed, error) {
	document := etree.NewDocument()
	document.ReadSettings.CharsetReader = charset.NewReaderLabel
	document.ReadSettings.ValidateInput = true
	if err := document.ReadFromBytes(content); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}

	root := document.Root()
	if root == nil || root.Tag != "feed" || root.NamespaceURI() != NamespaceAtom {
		return nil, fmt.Errorf("%w: root element is not an Atom feed", ErrMalformedFeed)
	}

	feed := &Feed{
		ID:      childText(root, "id"),
		Title:   childText(root, "title"),
		Entries: []Entry{},
	}
	if updated, err := parseTimestamp(childText(root, "updated")); err == nil {
		feed.Updated = updated
	}
	for _, link := range root.FindElementsPath(linkPath) {
		if link.SelectAttrValue("rel", "") == "next" {
			feed.NextPage = link.SelectAttrValue("href", "")
		}
	}

	for index, entryElement := range root.FindElementsPath(entryPath) {
		entry, reason := parseEntry(entryElement)
		if reason != "" {
			feed.Warnings = append(feed.Warnings, EntryWarning{Index: index, Reason: reason})
			continue
		}
		feed.Entries = append(feed.Entries, entry)
	}

	return feed, nil
}

func parseEntry(entryElement *etree.Element) (Entry, string) {
	entry := Entry{
		URI:     childText(entryElement, "id"),
		Title:   childText(entryElement, "title"),
		Summary: childText(entryElement, "summary"),
	}

	var missing []string
	if entry.URI == "" {
		missing = append(missing, "id")
	}
	if entry.Title == "" {
		missing = append(missing, "title")
	}
	rawUpdated := childText(entryElement, "updated")
	if rawUpdated == "" {
		missing = append(missing, "updated")
	}
	if len(missing) > 0 {
		return Entry{}, "missing " + strings.Join(missing, ", ")
	}

	updated, err := parseTimestamp(rawUpdated)
	if err != nil {
		return Entry{}, fmt.Sprintf("invalid updated timestamp %q", rawUpdated)
	}
	entry.Updated = updated

	if legislationURI, err := ukleg.ParseLegislationURI(entry.URI); err == nil {
		entry.Legislation = &legislationURI
	}
	return entry, ""
}

// childText returns the collapsed text of the first Atom child named tag.
func childText(parent *etree.Element, tag string) string {
	for _, child := range parent.SelectElements(tag) {
		if child.NamespaceURI() == NamespaceAtom {
			return strings.Join(strings.Fields(child.Text()), " ")
		}
	}
	return ""
}

func parseTimestamp(value string) (time.Time, error) {
	if updated, err := time.Parse(time.RFC3339, value); err == nil {
		return updated, nil
	}
	return time.Parse("2006-01-02", value)
}

// LegislationIDs returns the type/year/number identifiers of entries that
// name legislation items, in feed order and without duplicates.
func (feed *Feed) LegislationIDs() []string {
	var identifiers []string
	seen := make(map[string]struct{})
	for _, entry := range feed.Entries {
		if entry.Legislation == nil {
			continue
		}
		identifier := entry.Legislation.ID()
		if _, duplicate := seen[identifier]; duplicate {
			continue
		}
		seen[identifier] = struct{}{}
		identifiers = append(identifiers, identifier)
	}
	return identifiers
}
