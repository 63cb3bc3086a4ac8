package clml

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxTitleLength caps titles recovered from descendant text.
const DefaultMaxTitleLength = 120

const truncationMarker = "..."

// TitleStrategy is one independent step of title resolution. Resolve reports
// false when the strategy has nothing to offer for node.
type TitleStrategy struct {
	Source  TitleSource
	Resolve func(node Node) (string, bool)
}

// TitleResolver tries its strategies in order and falls back to a
// deterministic placeholder, so resolution never fails.
type TitleResolver struct {
	strategies []TitleStrategy
}

// NewTitleResolver builds the default chain: direct heading, enclosing group
// heading, then truncated descendant text.
func NewTitleResolver(maxTitleLength int) *TitleResolver {
	if maxTitleLength <= 0 {
		maxTitleLength = DefaultMaxTitleLength
	}
	return NewTitleResolverWithStrategies(
		TitleStrategy{Source: TitleSourceHeading, Resolve: headingTitle},
		TitleStrategy{Source: TitleSourceGroupHeading, Resolve: groupHeadingTitle},
		TitleStrategy{Source: TitleSourceDescendantText, Resolve: descendantTextTitle(maxTitleLength)},
	)
}

// NewTitleResolverWithStrategies builds a resolver from a custom chain.
func NewTitleResolverWithStrategies(strategies ...TitleStrategy) *TitleResolver {
	return &TitleResolver{strategies: append([]TitleStrategy(nil), strategies...)}
}

// Resolve returns the title of a discovered section. The result is never empty.
func (titleResolver *TitleResolver) Resolve(section RawSection) string {
	title, _ := titleResolver.ResolveWithSource(section)
	return title
}

// ResolveWithSource is Resolve plus the step that produced the title.
func (titleResolver *TitleResolver) ResolveWithSource(section RawSection) (string, TitleSource) {
	return titleResolver.resolveNode(section.Node, placeholderTitle(section))
}

func (titleResolver *TitleResolver) resolveNode(node Node, placeholder string) (string, TitleSource) {
	for _, strategy := range titleResolver.strategies {
		if title, ok := strategy.Resolve(node); ok && title != "" {
			return title, strategy.Source
		}
	}
	return placeholder, TitleSourcePlaceholder
}

// placeholderTitle renders "Section 15", "Schedule 2" or "Paragraph 3", or
// the bare label when the section has no number.
func placeholderTitle(section RawSection) string {
	switch section.Kind {
	case SectionKindSchedule:
		return scheduleIdentifier(section.Number)
	case SectionKindParagraph:
		return labelled("Paragraph", section.Number)
	default:
		return labelled("Section", section.Identifier)
	}
}

func labelled(label string, value string) string {
	if value == "" {
		return label
	}
	return label + " " + value
}

// directTitleNode returns the title-tagged child of node, if any.
func directTitleNode(node Node) Node {
	if title := firstChild(node, legTitle, legHeading); title != nil {
		return title
	}
	if block := firstChild(node, legTitleBlock); block != nil {
		return firstChild(block, legTitle)
	}
	return nil
}

func headingTitle(node Node) (string, bool) {
	title := directTitleNode(node)
	if title == nil {
		return "", false
	}
	text := TextContent(title)
	return text, text != ""
}

// groupHeadingTitle uses the title of an enclosing P1group, where modern
// documents carry section headings, when node is the group's first P1.
func groupHeadingTitle(node Node) (string, bool) {
	parent := node.Parent()
	if parent == nil || !matchesName(parent.Name(), legP1group) {
		return "", false
	}
	for _, sibling := range parent.Children() {
		if !matchesName(sibling.Name(), node.Name()) {
			continue
		}
		if sibling != node {
			return "", false
		}
		break
	}
	return headingTitle(parent)
}

func descendantTextTitle(maxTitleLength int) func(Node) (string, bool) {
	return func(node Node) (string, bool) {
		textNode := firstTextBearing(node)
		if textNode == nil {
			return "", false
		}
		return truncateTitle(TextContent(textNode), maxTitleLength), true
	}
}

// firstTextBearing returns the first descendant in pre-order with its own
// non-blank text, skipping identifier tags and the metadata block.
func firstTextBearing(node Node) Node {
	var stack []Node
	push := func(parent Node) {
		children := parent.Children()
		for index := len(children) - 1; index >= 0; index-- {
			stack = append(stack, children[index])
		}
	}
	push(node)

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		name := current.Name()
		if matchesName(name, legPnumber) || matchesName(name, legNumber) || matchesName(name, ukmMetadata) {
			continue
		}
		if strings.TrimSpace(current.Text()) != "" {
			return current
		}
		push(current)
	}
	return nil
}

// truncateTitle cuts text to maxLength runes and appends a marker when cut.
func truncateTitle(text string, maxLength int) string {
	if utf8.RuneCountInString(text) <= maxLength {
		return text
	}
	runes := []rune(text)
	return strings.TrimRight(string(runes[:maxLength]), " ") + truncationMarker
}
