package rst

import (
	"fmt"
	"html"
	"strings"
)

// ToHTML parses source and renders the body fragment.
func ToHTML(source string) string {
	return RenderHTML(Parse(source))
}

// RenderHTML renders a parsed tree as an HTML fragment. Output is a pure
// function of the tree.
func RenderHTML(doc *Node) string {
	var b strings.Builder
	r := &renderer{b: &b}
	r.render(doc)
	return b.String()
}

type renderer struct {
	b     *strings.Builder
	depth int
}

func (r *renderer) children(n *Node) {
	for _, c := range n.Children {
		r.render(c)
	}
}

func (r *renderer) render(n *Node) {
	b := r.b
	switch n.Kind {
	case KindDocument:
		r.children(n)
	case KindSection:
		r.depth++
		fmt.Fprintf(b, "<div class=\"section\" id=\"%s\">\n", html.EscapeString(n.Attr("id")))
		r.children(n)
		b.WriteString("</div>\n")
		r.depth--
	case KindTitle:
		level := min(max(r.depth, 1), 6)
		fmt.Fprintf(b, "<h%d>", level)
		r.children(n)
		fmt.Fprintf(b, "</h%d>\n", level)
	case KindParagraph:
		b.WriteString("<p>")
		r.children(n)
		b.WriteString("</p>\n")
	case KindBlockQuote:
		b.WriteString("<blockquote>\n")
		r.children(n)
		b.WriteString("</blockquote>\n")
	case KindBulletList:
		b.WriteString("<ul>\n")
		r.children(n)
		b.WriteString("</ul>\n")
	case KindListItem:
		b.WriteString("<li>")
		r.compact(n)
		b.WriteString("</li>\n")
	case KindLiteralBlock:
		b.WriteString("<pre class=\"literal-block\">")
		b.WriteString(html.EscapeString(n.Value))
		b.WriteString("</pre>\n")
	case KindTransition:
		b.WriteString("<hr class=\"docutils\" />\n")
	case KindImage:
		alt := n.Attr("alt")
		if alt == "" {
			alt = n.Attr("uri")
		}
		fmt.Fprintf(b, "<img alt=\"%s\" src=\"%s\" />\n", html.EscapeString(alt), html.EscapeString(n.Attr("uri")))
	case KindFieldList:
		b.WriteString("<table class=\"field-list\">\n<tbody>\n")
		r.children(n)
		b.WriteString("</tbody>\n</table>\n")
	case KindDocinfo:
		b.WriteString("<table class=\"docinfo\">\n<tbody>\n")
		r.children(n)
		b.WriteString("</tbody>\n</table>\n")
	case KindField:
		name := n.child(KindFieldName)
		body := n.child(KindFieldBody)
		fmt.Fprintf(b, "<tr class=\"field\"><th class=\"field-name\">%s:</th><td class=\"field-body\">", html.EscapeString(name.Text()))
		r.compact(body)
		b.WriteString("</td></tr>\n")
	case KindAuthor, KindDate:
		label := strings.ToUpper(string(n.Kind[:1])) + string(n.Kind[1:])
		fmt.Fprintf(b, "<tr><th class=\"docinfo-name\">%s:</th><td>", label)
		r.compact(n)
		b.WriteString("</td></tr>\n")
	case KindText:
		b.WriteString(html.EscapeString(n.Value))
	case KindEmphasis:
		r.wrap("em", n)
	case KindStrong:
		r.wrap("strong", n)
	case KindLiteral:
		r.wrap("code", n)
	case KindTitleReference:
		r.wrap("cite", n)
	case KindReference:
		if uri := n.Attr("refuri"); uri != "" {
			fmt.Fprintf(b, "<a class=\"reference external\" href=\"%s\">", html.EscapeString(uri))
			r.children(n)
			b.WriteString("</a>")
			return
		}
		r.children(n)
	default:
		r.children(n)
	}
}

func (r *renderer) wrap(tag string, n *Node) {
	fmt.Fprintf(r.b, "<%s>", tag)
	r.children(n)
	fmt.Fprintf(r.b, "</%s>", tag)
}

// compact renders a lone paragraph without its <p> wrapper, as docutils
// does for simple list items and field bodies.
func (r *renderer) compact(n *Node) {
	if len(n.Children) == 1 && n.Children[0].Kind == KindParagraph {
		r.children(n.Children[0])
		return
	}
	r.children(n)
}
