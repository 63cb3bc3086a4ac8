package clml

import (
	"iter"
	"strconv"
	"strings"

	"github.com/coolbeans/clmlkit/pkg/ukleg"
)

// Assembler combines document identity with the resolved section sequence.
type Assembler struct {
	titles *TitleResolver
}

// NewAssembler creates an Assembler that resolves titles with titles.
func NewAssembler(titles *TitleResolver) *Assembler {
	if titles == nil {
		titles = NewTitleResolver(DefaultMaxTitleLength)
	}
	return &Assembler{titles: titles}
}

// documentIdentity is the type/year/number triple as it is being resolved.
type documentIdentity struct {
	legislationType ukleg.LegislationType
	year            int
	number          int
	consulted       []string
}

// Assemble builds the LegislationDocument for tree. Identity is resolved
// before any section is consumed; a document without a full identity yields
// *IncompleteMetadataError and no document.
func (assembler *Assembler) Assemble(tree *Tree, sections iter.Seq2[RawSection, *UnresolvedSectionWarning]) (*LegislationDocument, []*UnresolvedSectionWarning, error) {
	root := tree.Root()
	metadata := firstChild(root, ukmMetadata)

	identity := resolveIdentity(root, metadata)
	if missing := identity.missing(); len(missing) > 0 {
		return nil, nil, &IncompleteMetadataError{
			Missing:   missing,
			Type:      string(identity.legislationType),
			Year:      identity.year,
			Number:    identity.number,
			Consulted: identity.consulted,
		}
	}

	document := &LegislationDocument{
		Type:   identity.legislationType,
		Year:   identity.year,
		Number: identity.number,
	}
	populateDescriptive(document, root, metadata)
	document.Title = assembler.documentTitle(document, root, metadata)
	document.Amendments = extractAmendments(root, metadata)

	var warnings []*UnresolvedSectionWarning
	seen := make(map[string]struct{})
	document.Sections = []Section{}

	for raw, warning := range sections {
		if warning != nil {
			warnings = append(warnings, warning)
			continue
		}
		if _, duplicate := seen[raw.Identifier]; duplicate {
			warnings = append(warnings, &UnresolvedSectionWarning{
				Path:       raw.Path,
				Identifier: raw.Identifier,
				Reason:     ReasonDuplicateIdentifier,
			})
			continue
		}
		seen[raw.Identifier] = struct{}{}

		title, source := assembler.titles.ResolveWithSource(raw)
		if source == TitleSourcePlaceholder {
			warnings = append(warnings, &UnresolvedSectionWarning{
				Path:       raw.Path,
				Identifier: raw.Identifier,
				Reason:     ReasonPlaceholderTitle,
			})
		}

		document.Sections = append(document.Sections, Section{
			Identifier:      raw.Identifier,
			Title:           title,
			OrdinalPosition: len(document.Sections),
			Kind:            raw.Kind,
			Number:          raw.Number,
			TitleSource:     source,
			Path:            raw.Path,
		})
	}

	return document, warnings, nil
}

func (identity *documentIdentity) missing() []string {
	var missing []string
	if identity.legislationType == "" {
		missing = append(missing, "type")
	}
	if identity.year <= 0 {
		missing = append(missing, "year")
	}
	if identity.number <= 0 {
		missing = append(missing, "number")
	}
	return missing
}

// resolveIdentity reads type, year and number from the metadata block, with
// leg:Year for the year, then fills any gap from the document URI.
func resolveIdentity(root Node, metadata Node) *documentIdentity {
	identity := &documentIdentity{}
	scope := metadata
	if scope == nil {
		scope = root
	}

	identity.consult("ukm:DocumentMainType/@Value")
	if mainType := findFirst(scope, ukmDocumentMainType); mainType != nil {
		if legislationType, found := ukleg.TypeForDocumentMainType(mainType.Attr("Value")); found {
			identity.legislationType = legislationType
		}
	}

	identity.consult("ukm:Year/@Value")
	if year := findFirst(scope, ukmYear); year != nil {
		identity.year = positiveInteger(year.Attr("Value"))
	}
	if identity.year <= 0 {
		identity.consult("leg:Year")
		if year := findFirst(root, legYear); year != nil {
			identity.year = positiveInteger(TextContent(year))
		}
	}

	identity.consult("ukm:Number/@Value")
	if number := findFirst(scope, ukmNumber); number != nil {
		identity.number = positiveInteger(number.Attr("Value"))
	}

	if len(identity.missing()) > 0 {
		identity.fillFromURI(root, scope)
	}
	return identity
}

// fillFromURI parses the triple from the root IdURI/DocumentURI attributes or
// dc:identifier and uses it for fields still unresolved.
func (identity *documentIdentity) fillFromURI(root Node, scope Node) {
	candidates := []uriCandidate{
		{Path(root) + "/@IdURI", root.Attr("IdURI")},
		{Path(root) + "/@DocumentURI", root.Attr("DocumentURI")},
		{descriptor: "dc:identifier"},
	}
	if identifier := findFirst(scope, dcIdentifier); identifier != nil {
		candidates[2].value = TextContent(identifier)
	}

	for _, candidate := range candidates {
		identity.consult(candidate.descriptor)
		if candidate.value == "" {
			continue
		}
		legislationURI, err := ukleg.ParseLegislationURI(candidate.value)
		if err != nil {
			continue
		}
		if identity.legislationType == "" {
			identity.legislationType = legislationURI.LegislationType
		}
		if identity.year <= 0 {
			identity.year = positiveInteger(legislationURI.Year)
		}
		if identity.number <= 0 {
			identity.number = positiveInteger(legislationURI.Number)
		}
		if len(identity.missing()) == 0 {
			return
		}
	}
}

type uriCandidate struct {
	descriptor string
	value      string
}

func (identity *documentIdentity) consult(descriptor string) {
	identity.consulted = append(identity.consulted, descriptor)
}

// populateDescriptive fills the optional descriptive fields.
func populateDescriptive(document *LegislationDocument, root Node, metadata Node) {
	document.DocumentURI = firstNonEmpty(root.Attr("DocumentURI"), root.Attr("IdURI"))

	if prelims := prelimsNode(root); prelims != nil {
		if longTitle := firstChild(prelims, legLongTitle); longTitle != nil {
			document.LongTitle = TextContent(longTitle)
		}
	}

	if metadata == nil {
		return
	}
	if status := findFirst(metadata, ukmDocumentStatus); status != nil {
		document.Status = status.Attr("Value")
	}
	if category := findFirst(metadata, ukmDocumentCategory); category != nil {
		document.Category = category.Attr("Value")
	}
	if enacted := findFirst(metadata, ukmEnactmentDate); enacted != nil {
		document.EnactmentDate = enacted.Attr("Date")
	} else if made := findFirst(metadata, ukmMadeDate); made != nil {
		document.EnactmentDate = made.Attr("Date")
	}
}

// documentTitle applies dc:title, then the prelims title, then the section
// title chain on the root with a "type year/number" placeholder.
func (assembler *Assembler) documentTitle(document *LegislationDocument, root Node, metadata Node) string {
	if metadata != nil {
		if title := firstChild(metadata, dcTitle); title != nil {
			if text := TextContent(title); text != "" {
				return text
			}
		}
	}

	if prelims := prelimsNode(root); prelims != nil {
		if title := firstChild(prelims, legTitle); title != nil {
			if text := TextContent(title); text != "" {
				return text
			}
		}
	}

	placeholder := string(document.Type) + " " + strconv.Itoa(document.Year) + "/" + strconv.Itoa(document.Number)
	title, _ := assembler.titles.resolveNode(root, placeholder)
	return title
}

func prelimsNode(root Node) Node {
	if prelims := findFirst(root, legPrelims); prelims != nil {
		return prelims
	}
	return findFirst(root, legSecPrelims)
}

func positiveInteger(text string) int {
	value, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || value <= 0 {
		return 0
	}
	return value
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
