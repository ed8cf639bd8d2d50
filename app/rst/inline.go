package rst

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	urlRe       = regexp.MustCompile(`https?://[^\s<>"]*[^\s<>".,;:!?)\]]`)
	refTargetRe = regexp.MustCompile(`(?s)^(.*?)\s*<([^<>]+)>$`)
)

const startPrecedes = " \n'\"([{<-/:"

type inlineParser struct {
	src   string
	nodes []*Node
	buf   strings.Builder
}

func parseInline(text string) []*Node {
	p := &inlineParser{src: text}
	p.run()
	return p.nodes
}

func (p *inlineParser) run() {
	i := 0
	for i < len(p.src) {
		if p.canStart(i) {
			if node, next, ok := p.markup(i); ok {
				p.flush()
				p.nodes = append(p.nodes, node)
				i = next
				continue
			}
		}
		p.buf.WriteByte(p.src[i])
		i++
	}
	p.flush()
}

// canStart applies the inline start-string rule: markup must follow
// whitespace or opening punctuation.
func (p *inlineParser) canStart(i int) bool {
	switch p.src[i] {
	case '*', '`':
	default:
		return false
	}
	if i == 0 {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(p.src[:i])
	return strings.ContainsRune(startPrecedes, prev) || unicode.IsSpace(prev)
}

func (p *inlineParser) markup(i int) (*Node, int, bool) {
	rest := p.src[i:]
	switch {
	case strings.HasPrefix(rest, "``"):
		return p.span(i, "``", "``", KindLiteral)
	case strings.HasPrefix(rest, "**"):
		return p.span(i, "**", "**", KindStrong)
	case strings.HasPrefix(rest, "*"):
		return p.span(i, "*", "*", KindEmphasis)
	case strings.HasPrefix(rest, "`"):
		return p.interpreted(i)
	}
	return nil, i, false
}

func (p *inlineParser) span(i int, open, close string, kind Kind) (*Node, int, bool) {
	start := i + len(open)
	content, end, ok := p.findClose(start, close)
	if !ok {
		return nil, i, false
	}
	return newNode(kind, textNode(content)), end, true
}

// findClose locates close after start. The content must not begin or end
// with whitespace.
func (p *inlineParser) findClose(start int, close string) (string, int, bool) {
	if start >= len(p.src) || unicode.IsSpace(rune(p.src[start])) {
		return "", start, false
	}
	rel := strings.Index(p.src[start+1:], close)
	if rel < 0 {
		return "", start, false
	}
	pos := start + 1 + rel
	content := p.src[start:pos]
	if strings.TrimRightFunc(content, unicode.IsSpace) != content {
		return "", start, false
	}
	return content, pos + len(close), true
}

func (p *inlineParser) interpreted(i int) (*Node, int, bool) {
	content, end, ok := p.findClose(i+1, "`")
	if !ok {
		return nil, i, false
	}

	anonymous := strings.HasPrefix(p.src[end:], "__")
	if !anonymous && !strings.HasPrefix(p.src[end:], "_") {
		return newNode(KindTitleReference, textNode(content)), end, true
	}
	if anonymous {
		end += 2
	} else {
		end++
	}

	ref := newNode(KindReference)
	if m := refTargetRe.FindStringSubmatch(content); m != nil {
		label := m[1]
		if label == "" {
			label = m[2]
		}
		ref.Children = []*Node{textNode(label)}
		ref.SetAttr("refuri", strings.Join(strings.Fields(m[2]), ""))
	} else {
		ref.Children = []*Node{textNode(content)}
	}
	return ref, end, true
}

// flush emits buffered plain text, turning standalone URLs into references.
func (p *inlineParser) flush() {
	if p.buf.Len() == 0 {
		return
	}
	text := p.buf.String()
	p.buf.Reset()

	last := 0
	for _, loc := range urlRe.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			p.nodes = append(p.nodes, textNode(text[last:loc[0]]))
		}
		uri := text[loc[0]:loc[1]]
		ref := newNode(KindReference, textNode(uri))
		ref.SetAttr("refuri", uri)
		p.nodes = append(p.nodes, ref)
		last = loc[1]
	}
	if last < len(text) {
		p.nodes = append(p.nodes, textNode(text[last:]))
	}
}
