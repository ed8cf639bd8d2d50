// Package rst reads the subset of reStructuredText found in legacy site
// content into a docutils-shaped node tree and renders it to HTML.
package rst

import "strings"

type Kind string

const (
	KindDocument     Kind = "document"
	KindSection      Kind = "section"
	KindTitle        Kind = "title"
	KindParagraph    Kind = "paragraph"
	KindBlockQuote   Kind = "block_quote"
	KindBulletList   Kind = "bullet_list"
	KindListItem     Kind = "list_item"
	KindLiteralBlock Kind = "literal_block"
	KindTransition   Kind = "transition"
	KindImage        Kind = "image"
	KindFieldList    Kind = "field_list"
	KindField        Kind = "field"
	KindFieldName    Kind = "field_name"
	KindFieldBody    Kind = "field_body"
	KindDocinfo      Kind = "docinfo"
	KindAuthor       Kind = "author"
	KindDate         Kind = "date"

	KindText           Kind = "#text"
	KindEmphasis       Kind = "emphasis"
	KindStrong         Kind = "strong"
	KindLiteral        Kind = "literal"
	KindReference      Kind = "reference"
	KindTitleReference Kind = "title_reference"
)

type Node struct {
	Kind     Kind
	Value    string
	Attrs    map[string]string
	Children []*Node
}

func newNode(kind Kind, children ...*Node) *Node {
	return &Node{Kind: kind, Children: children}
}

func textNode(value string) *Node {
	return &Node{Kind: KindText, Value: value}
}

func (n *Node) Attr(key string) string {
	if n.Attrs == nil {
		return ""
	}
	return n.Attrs[key]
}

func (n *Node) SetAttr(key, value string) {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[key] = value
}

// IsBlock reports whether the node is a body element rather than inline
// markup.
func (n *Node) IsBlock() bool {
	switch n.Kind {
	case KindText, KindEmphasis, KindStrong, KindLiteral, KindReference, KindTitleReference:
		return false
	}
	return true
}

// Text returns the concatenated text of the node. Sibling body elements are
// separated by a blank line, inline children are joined directly.
func (n *Node) Text() string {
	if len(n.Children) == 0 {
		return n.Value
	}

	sep := ""
	for _, c := range n.Children {
		if c.IsBlock() {
			sep = "\n\n"
			break
		}
	}

	parts := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		parts = append(parts, c.Text())
	}
	return strings.Join(parts, sep)
}

// Walk visits n and its descendants depth-first. Returning false from fn
// stops the whole traversal; Walk reports whether it ran to completion.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

func (n *Node) child(kind Kind) *Node {
	for _, c := range n.Children {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}
