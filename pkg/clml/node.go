package clml

import (
	"fmt"
	"strings"
)

// Node is the minimal tree capability the extraction engine needs. Any tree
// representation that can report a node's name, children, own text, and
// attributes can be walked.
type Node interface {
	// Name returns the namespace-qualified element name.
	Name() QName

	// Parent returns the enclosing element, or nil at the root.
	Parent() Node

	// Children returns the child elements in document order.
	Children() []Node

	// Text returns the node's own character data, excluding descendants.
	Text() string

	// Attr returns the value of an unqualified attribute, or "".
	Attr(local string) string
}

// textContenter is implemented by nodes that can report their descendant
// text with inline markup interleaved in source order.
type textContenter interface {
	TextContent() string
}

// TextContent returns all descendant character data of node in document
// order with whitespace runs collapsed to single spaces.
func TextContent(node Node) string {
	if contenter, ok := node.(textContenter); ok {
		return cleanXMLText(contenter.TextContent())
	}

	var builder strings.Builder
	stack := []Node{node}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if text := current.Text(); text != "" {
			builder.WriteString(text)
			builder.WriteByte(' ')
		}
		children := current.Children()
		for index := len(children) - 1; index >= 0; index-- {
			stack = append(stack, children[index])
		}
	}
	return cleanXMLText(builder.String())
}

// Path returns an XPath-like location of node, e.g. /Legislation/Primary/Body/P1[3].
// Sibling indexes are only added when a parent has several children of the same name.
func Path(node Node) string {
	var segments []string
	for current := node; current != nil; current = current.Parent() {
		segment := current.Name().Local
		if parent := current.Parent(); parent != nil {
			position, total := 0, 0
			for _, sibling := range parent.Children() {
				if sibling.Name() == current.Name() {
					total++
					if sibling == current {
						position = total
					}
				}
			}
			if total > 1 {
				segment = fmt.Sprintf("%s[%d]", segment, position)
			}
		}
		segments = append(segments, segment)
	}

	var builder strings.Builder
	for index := len(segments) - 1; index >= 0; index-- {
		builder.WriteByte('/')
		builder.WriteString(segments[index])
	}
	return builder.String()
}

// firstChild returns the first direct child matching any of names.
func firstChild(node Node, names ...QName) Node {
	for _, child := range node.Children() {
		for _, name := range names {
			if matchesName(child.Name(), name) {
				return child
			}
		}
	}
	return nil
}

// findFirst returns the first descendant of node, in pre-order, named name.
func findFirst(node Node, name QName) Node {
	var found Node
	forEachDescendant(node, func(descendant Node) bool {
		if matchesName(descendant.Name(), name) {
			found = descendant
			return false
		}
		return true
	})
	return found
}

// findAll returns every descendant of node named name, in document order.
func findAll(node Node, name QName) []Node {
	var matches []Node
	forEachDescendant(node, func(descendant Node) bool {
		if matchesName(descendant.Name(), name) {
			matches = append(matches, descendant)
		}
		return true
	})
	return matches
}

// forEachDescendant visits the descendants of node (excluding node) in
// depth-first pre-order until visit returns false.
func forEachDescendant(node Node, visit func(Node) bool) {
	children := node.Children()
	stack := make([]Node, 0, len(children))
	for index := len(children) - 1; index >= 0; index-- {
		stack = append(stack, children[index])
	}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !visit(current) {
			return
		}
		grandchildren := current.Children()
		for index := len(grandchildren) - 1; index >= 0; index-- {
			stack = append(stack, grandchildren[index])
		}
	}
}

// matchesName reports whether name is want. An un-namespaced name matches
// any namespace, since older documents sometimes omit the default xmlns.
func matchesName(name QName, want QName) bool {
	return name.Local == want.Local && (name.Space == want.Space || name.Space == "")
}

// cleanXMLText trims text and collapses internal whitespace.
func cleanXMLText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
