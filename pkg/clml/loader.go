package clml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

// Tree is a parsed legislation document. It is owned by the call that loaded
// it and is not safe for concurrent use.
type Tree struct {
	root *elementNode
}

// Root returns the document element.
func (tree *Tree) Root() Node {
	return tree.root
}

// Load parses raw XML content into a Tree. It does not validate against any
// schema; content only has to be well-formed.
func Load(content []byte) (*Tree, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, &ParseError{Err: errors.New("empty document")}
	}

	document := etree.NewDocument()
	document.ReadSettings.CharsetReader = charset.NewReaderLabel
	document.ReadSettings.ValidateInput = true
	if err := document.ReadFromBytes(content); err != nil {
		parseError := &ParseError{Err: err}
		var syntaxError *xml.SyntaxError
		if errors.As(err, &syntaxError) {
			parseError.Line = syntaxError.Line
		}
		return nil, parseError
	}

	root := document.Root()
	if root == nil {
		return nil, &ParseError{Err: errors.New("no root element")}
	}

	return &Tree{root: newElementNode(root, nil)}, nil
}

// elementNode adapts an etree element to Node. Children are wrapped on first
// access so a walk only pays for the part of the tree it descends into.
type elementNode struct {
	element  *etree.Element
	parent   *elementNode
	name     QName
	children []Node
	expanded bool
}

func newElementNode(element *etree.Element, parent *elementNode) *elementNode {
	return &elementNode{
		element: element,
		parent:  parent,
		name:    QName{Space: element.NamespaceURI(), Local: element.Tag},
	}
}

func (node *elementNode) Name() QName { return node.name }

func (node *elementNode) Parent() Node {
	if node.parent == nil {
		return nil
	}
	return node.parent
}

func (node *elementNode) Children() []Node {
	if !node.expanded {
		childElements := node.element.ChildElements()
		node.children = make([]Node, 0, len(childElements))
		for _, childElement := range childElements {
			node.children = append(node.children, newElementNode(childElement, node))
		}
		node.expanded = true
	}
	return node.children
}

func (node *elementNode) Text() string {
	var builder strings.Builder
	for _, token := range node.element.Child {
		if charData, ok := token.(*etree.CharData); ok {
			builder.WriteString(charData.Data)
		}
	}
	return builder.String()
}

func (node *elementNode) Attr(local string) string {
	for _, attribute := range node.element.Attr {
		if attribute.Space == "" && attribute.Key == local {
			return attribute.Value
		}
	}
	return ""
}

// TextContent concatenates descendant character data in source order so that
// inline markup (emphasis, citations) does not split words.
func (node *elementNode) TextContent() string {
	var builder strings.Builder
	stack := make([]etree.Token, 0, len(node.element.Child))
	for index := len(node.element.Child) - 1; index >= 0; index-- {
		stack = append(stack, node.element.Child[index])
	}

	for len(stack) > 0 {
		token := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch typed := token.(type) {
		case *etree.CharData:
			builder.WriteString(typed.Data)
		case *etree.Element:
			for index := len(typed.Child) - 1; index >= 0; index-- {
				stack = append(stack, typed.Child[index])
			}
		}
	}
	return builder.String()
}
