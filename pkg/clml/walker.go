package clml

import (
	"fmt"
	"iter"
	"strings"
)

// ContainerRule recognises one kind of structural container.
type ContainerRule struct {
	Name QName
	Kind SectionKind

	// RequireHeading restricts the rule to elements with a direct title child.
	RequireHeading bool
}

// DefaultContainerRules returns the rules used when none are configured:
// legacy leg:Section, modern leg:P1 sections, schedules, and headed paragraphs.
func DefaultContainerRules() []ContainerRule {
	return []ContainerRule{
		{Name: MustQName("leg", "Section"), Kind: SectionKindSection},
		{Name: MustQName("leg", "P1"), Kind: SectionKindSection},
		{Name: MustQName("leg", "Schedule"), Kind: SectionKindSchedule},
		{Name: MustQName("leg", "Paragraph"), Kind: SectionKindParagraph, RequireHeading: true},
	}
}

// DefaultOpaqueElements returns the elements the walker does not descend
// into: quoted text from other legislation, whose provisions are not part of
// the document's own structure.
func DefaultOpaqueElements() []QName {
	return []QName{
		MustQName("leg", "BlockAmendment"),
		MustQName("leg", "BlockExtract"),
	}
}

// ParseContainerRule parses a rule written as "prefix:Local=kind", with an
// optional "+heading" suffix, e.g. "leg:Pblock=paragraph+heading".
func ParseContainerRule(rule string) (ContainerRule, error) {
	name, kindSpec, found := strings.Cut(strings.TrimSpace(rule), "=")
	if !found {
		return ContainerRule{}, fmt.Errorf("container rule %q must have the form prefix:Name=kind", rule)
	}

	qualifiedName, err := ParseQName(name)
	if err != nil {
		return ContainerRule{}, fmt.Errorf("container rule %q: %w", rule, err)
	}

	kindName, requireHeading := strings.CutSuffix(kindSpec, "+heading")
	kind := SectionKind(kindName)
	switch kind {
	case SectionKindSection, SectionKindSchedule, SectionKindParagraph:
	default:
		return ContainerRule{}, fmt.Errorf("container rule %q: unknown kind %q", rule, kindName)
	}

	return ContainerRule{Name: qualifiedName, Kind: kind, RequireHeading: requireHeading}, nil
}

// RawSection is a recognised container before title resolution.
type RawSection struct {
	Node Node
	Kind SectionKind

	// Number is the local number, e.g. "15" or "2" for Schedule 2.
	Number string

	// Identifier is the document-scoped identifier, e.g. "15", "Schedule 2",
	// "Schedule 2 paragraph 3".
	Identifier string

	Path string
}

// SectionWalker discovers section containers in document order.
type SectionWalker struct {
	rules  []ContainerRule
	opaque []QName
}

// NewSectionWalker creates a walker for rules, or DefaultContainerRules when
// none are given. It skips DefaultOpaqueElements.
func NewSectionWalker(rules ...ContainerRule) *SectionWalker {
	if len(rules) == 0 {
		rules = DefaultContainerRules()
	}
	return &SectionWalker{
		rules:  append([]ContainerRule(nil), rules...),
		opaque: DefaultOpaqueElements(),
	}
}

// WithOpaqueElements returns a copy of walker that skips the subtrees of
// names instead of the defaults. No names means every subtree is walked.
func (walker *SectionWalker) WithOpaqueElements(names ...QName) *SectionWalker {
	return &SectionWalker{
		rules:  walker.rules,
		opaque: append([]QName(nil), names...),
	}
}

// Walk returns the containers under root in depth-first pre-order. Each
// container is yielded once; a nested container never suppresses its parent.
// A container without a resolvable identifier is yielded with a non-nil
// warning and an empty identifier, and the walk continues past it. Opaque
// elements and everything below them are skipped.
//
// The sequence is lazy (the tree is descended only as far as the consumer
// ranges) and restartable (ranging again yields the same sequence).
func (walker *SectionWalker) Walk(root Node) iter.Seq2[RawSection, *UnresolvedSectionWarning] {
	return func(yield func(RawSection, *UnresolvedSectionWarning) bool) {
		stack := []Node{root}
		for len(stack) > 0 {
			node := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if rule, matched := walker.match(node); matched {
				section, warning := walker.resolve(node, rule)
				if !yield(section, warning) {
					return
				}
			}

			children := node.Children()
			for index := len(children) - 1; index >= 0; index-- {
				if walker.isOpaque(children[index]) {
					continue
				}
				stack = append(stack, children[index])
			}
		}
	}
}

func (walker *SectionWalker) isOpaque(node Node) bool {
	for _, name := range walker.opaque {
		if matchesName(node.Name(), name) {
			return true
		}
	}
	return false
}

func (walker *SectionWalker) match(node Node) (ContainerRule, bool) {
	for _, rule := range walker.rules {
		if !matchesName(node.Name(), rule.Name) {
			continue
		}
		if rule.RequireHeading && directTitleNode(node) == nil {
			continue
		}
		return rule, true
	}
	return ContainerRule{}, false
}

// resolve determines the kind, number and identifier of a matched container.
func (walker *SectionWalker) resolve(node Node, rule ContainerRule) (RawSection, *UnresolvedSectionWarning) {
	section := RawSection{Node: node, Kind: rule.Kind, Path: Path(node)}

	number, resolved := containerNumber(node, rule.Kind)
	if !resolved {
		return section, &UnresolvedSectionWarning{Path: section.Path, Reason: ReasonNoIdentifier}
	}
	section.Number = number

	switch rule.Kind {
	case SectionKindSchedule:
		section.Identifier = scheduleIdentifier(number)
	default:
		enclosing, inSchedule := walker.enclosingSchedule(node)
		if inSchedule {
			section.Kind = SectionKindParagraph
			section.Identifier = enclosing + " paragraph " + number
		} else if rule.Kind == SectionKindParagraph {
			section.Identifier = "Paragraph " + number
		} else {
			section.Identifier = number
		}
	}

	return section, nil
}

// enclosingSchedule returns the identifier of the nearest schedule container
// above node.
func (walker *SectionWalker) enclosingSchedule(node Node) (string, bool) {
	for ancestor := node.Parent(); ancestor != nil; ancestor = ancestor.Parent() {
		rule, matched := walker.match(ancestor)
		if !matched || rule.Kind != SectionKindSchedule {
			continue
		}
		number, _ := containerNumber(ancestor, SectionKindSchedule)
		return scheduleIdentifier(number), true
	}
	return "", false
}

// containerNumber reads the local number from a Pnumber/Number child, falling
// back to the id attribute. The boolean is false when neither is present.
func containerNumber(node Node, kind SectionKind) (string, bool) {
	if numberNode := firstChild(node, legPnumber, legNumber); numberNode != nil {
		if text := TextContent(numberNode); text != "" {
			return normalizeNumber(text, kind), true
		}
	}

	if id := strings.TrimSpace(node.Attr("id")); id != "" {
		return numberFromID(id, kind), true
	}

	return "", false
}

// normalizeNumber strips the container label and trailing punctuation from
// number text: "SCHEDULE 2" → "2", "15." → "15".
func normalizeNumber(text string, kind SectionKind) string {
	number := cleanXMLText(text)
	if kind == SectionKindSchedule {
		if len(number) >= len("schedule") && strings.EqualFold(number[:len("schedule")], "schedule") {
			number = strings.TrimSpace(number[len("schedule"):])
		}
	}
	return strings.TrimRight(number, ".")
}

// numberFromID derives a number from ids such as "section-15",
// "schedule-2" or "schedule-1-paragraph-3".
func numberFromID(id string, kind SectionKind) string {
	if kind == SectionKindSchedule && strings.EqualFold(id, "schedule") {
		return ""
	}
	for _, marker := range []string{"paragraph-", "section-", "schedule-"} {
		if index := strings.LastIndex(id, marker); index >= 0 {
			return id[index+len(marker):]
		}
	}
	return id
}

// scheduleIdentifier renders a schedule identifier; a document with a single
// unnumbered schedule yields "Schedule".
func scheduleIdentifier(number string) string {
	if number == "" {
		return "Schedule"
	}
	return "Schedule " + number
}
