package rst

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	fieldRe     = regexp.MustCompile(`^:([^:\s][^:]*):(?:\s+(.*))?$`)
	bulletRe    = regexp.MustCompile(`^([-*+])(?:\s+(.*))?$`)
	directiveRe = regexp.MustCompile(`^\.\.\s+([A-Za-z][\w-]*)::\s*(.*)$`)
	slugRe      = regexp.MustCompile(`[^a-z0-9]+`)
)

const adornmentChars = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// bibliographic fields promoted to their own nodes inside docinfo
var bibliographic = map[string]Kind{
	"author": KindAuthor,
	"date":   KindDate,
}

// Parse reads source into a document tree. It never fails: constructs it
// does not recognise are kept as paragraphs or dropped.
func Parse(source string) *Node {
	doc := newNode(KindDocument)
	buildSections(doc, parseBlocks(splitLines(source)))
	applyDocinfo(doc)
	return doc
}

func splitLines(source string) []string {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	source = strings.ReplaceAll(source, "\r", "\n")
	source = strings.ReplaceAll(source, "\t", "        ")
	lines := strings.Split(source, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return lines
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " "))
}

func isAdornment(line string) bool {
	if utf8.RuneCountInString(line) < 3 || indentOf(line) > 0 {
		return false
	}
	c := line[0]
	if !strings.ContainsRune(adornmentChars, rune(c)) {
		return false
	}
	for i := 1; i < len(line); i++ {
		if line[i] != c {
			return false
		}
	}
	return true
}

// collectIndented returns the indented lines starting at start, including
// interior blank lines, and the index of the first line after the block.
func collectIndented(lines []string, start int) ([]string, int) {
	end := start
	for j := start; j < len(lines); j++ {
		if isBlank(lines[j]) {
			continue
		}
		if indentOf(lines[j]) == 0 {
			break
		}
		end = j + 1
	}
	return lines[start:end], end
}

func dedent(lines []string) []string {
	width := -1
	for _, l := range lines {
		if isBlank(l) {
			continue
		}
		if ind := indentOf(l); width < 0 || ind < width {
			width = ind
		}
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		if width > 0 && len(l) >= width {
			out[i] = l[width:]
		} else {
			out[i] = strings.TrimLeft(l, " ")
		}
	}
	return out
}

func nextNonBlank(lines []string, i int) int {
	for i < len(lines) && isBlank(lines[i]) {
		i++
	}
	return i
}

func parseBlocks(lines []string) []*Node {
	var blocks []*Node
	i := 0
	for i < len(lines) {
		line := lines[i]
		if isBlank(line) {
			i++
			continue
		}

		if indentOf(line) > 0 {
			block, next := collectIndented(lines, i)
			blocks = append(blocks, newNode(KindBlockQuote, parseBlocks(dedent(block))...))
			i = next
			continue
		}

		if title, next, ok := matchTitle(lines, i); ok {
			blocks = append(blocks, title)
			i = next
			continue
		}

		if isAdornment(line) {
			blocks = append(blocks, newNode(KindTransition))
			i++
			continue
		}

		if fieldRe.MatchString(line) {
			var list *Node
			list, i = parseFieldList(lines, i)
			blocks = append(blocks, list)
			continue
		}

		if bulletRe.MatchString(line) {
			var list *Node
			list, i = parseBulletList(lines, i)
			blocks = append(blocks, list)
			continue
		}

		if line == ".." || strings.HasPrefix(line, ".. ") {
			var node *Node
			node, i = parseExplicit(lines, i)
			if node != nil {
				blocks = append(blocks, node)
			}
			continue
		}

		var para []*Node
		para, i = parseParagraph(lines, i)
		blocks = append(blocks, para...)
	}
	return blocks
}

func matchTitle(lines []string, i int) (*Node, int, bool) {
	line := lines[i]

	// overline and underline
	if isAdornment(line) && i+2 < len(lines) && !isBlank(lines[i+1]) && strings.TrimSpace(lines[i+2]) == line {
		title := newNode(KindTitle, parseInline(strings.TrimSpace(lines[i+1]))...)
		title.SetAttr("style", "o"+line[:1])
		return title, i + 3, true
	}

	if !isAdornment(line) && i+1 < len(lines) && isAdornment(lines[i+1]) {
		title := newNode(KindTitle, parseInline(strings.TrimSpace(line))...)
		title.SetAttr("style", "u"+lines[i+1][:1])
		return title, i + 2, true
	}

	return nil, i, false
}

func parseFieldList(lines []string, i int) (*Node, int) {
	list := newNode(KindFieldList)
	for i < len(lines) {
		m := fieldRe.FindStringSubmatch(lines[i])
		if m == nil {
			break
		}
		cont, next := collectIndented(lines, i+1)
		bodyLines := dedent(cont)
		if first := strings.TrimSpace(m[2]); first != "" {
			bodyLines = append([]string{first}, bodyLines...)
		}

		field := newNode(KindField,
			newNode(KindFieldName, textNode(strings.TrimSpace(m[1]))),
			newNode(KindFieldBody, parseBlocks(bodyLines)...),
		)
		list.Children = append(list.Children, field)

		i = next
		if j := nextNonBlank(lines, i); j < len(lines) && fieldRe.MatchString(lines[j]) {
			i = j
			continue
		}
		break
	}
	return list, i
}

func parseBulletList(lines []string, i int) (*Node, int) {
	list := newNode(KindBulletList)
	marker := bulletRe.FindStringSubmatch(lines[i])[1]
	for i < len(lines) {
		m := bulletRe.FindStringSubmatch(lines[i])
		if m == nil || m[1] != marker {
			break
		}
		cont, next := collectIndented(lines, i+1)
		itemLines := append([]string{m[2]}, dedent(cont)...)
		list.Children = append(list.Children, newNode(KindListItem, parseBlocks(itemLines)...))

		i = next
		if j := nextNonBlank(lines, i); j < len(lines) {
			if m := bulletRe.FindStringSubmatch(lines[j]); m != nil && m[1] == marker {
				i = j
				continue
			}
		}
		break
	}
	return list, i
}

// parseExplicit handles ".." markup: image and code directives are kept,
// comments and other directives are skipped with their indented content.
func parseExplicit(lines []string, i int) (*Node, int) {
	m := directiveRe.FindStringSubmatch(lines[i])
	block, next := collectIndented(lines, i+1)
	if m == nil {
		return nil, next
	}

	name, arg := strings.ToLower(m[1]), strings.TrimSpace(m[2])
	content := dedent(block)

	switch name {
	case "image", "figure":
		img := newNode(KindImage)
		img.SetAttr("uri", arg)
		for _, l := range content {
			if fm := fieldRe.FindStringSubmatch(l); fm != nil {
				img.SetAttr(strings.ToLower(fm[1]), strings.TrimSpace(fm[2]))
			}
		}
		return img, next
	case "code", "code-block", "sourcecode":
		for len(content) > 0 && (isBlank(content[0]) || fieldRe.MatchString(content[0])) {
			content = content[1:]
		}
		lit := &Node{Kind: KindLiteralBlock, Value: strings.Join(trimBlankEdges(content), "\n")}
		if arg != "" {
			lit.SetAttr("language", arg)
		}
		return lit, next
	}
	return nil, next
}

func parseParagraph(lines []string, i int) ([]*Node, int) {
	var text []string
	for i < len(lines) && !isBlank(lines[i]) {
		if len(text) > 0 && i+1 < len(lines) && isAdornment(lines[i+1]) && !isAdornment(lines[i]) {
			break
		}
		text = append(text, strings.TrimSpace(lines[i]))
		i++
	}

	joined := strings.Join(text, "\n")
	if !strings.HasSuffix(joined, "::") {
		return []*Node{newNode(KindParagraph, parseInline(joined)...)}, i
	}

	var nodes []*Node
	switch {
	case joined == "::":
	case strings.HasSuffix(joined, " ::"):
		nodes = append(nodes, newNode(KindParagraph, parseInline(strings.TrimSuffix(joined, " ::"))...))
	default:
		nodes = append(nodes, newNode(KindParagraph, parseInline(strings.TrimSuffix(joined, ":"))...))
	}

	j := nextNonBlank(lines, i)
	if j < len(lines) && indentOf(lines[j]) > 0 {
		block, next := collectIndented(lines, j)
		nodes = append(nodes, &Node{Kind: KindLiteralBlock, Value: strings.Join(trimBlankEdges(dedent(block)), "\n")})
		i = next
	}
	return nodes, i
}

func trimBlankEdges(lines []string) []string {
	for len(lines) > 0 && isBlank(lines[0]) {
		lines = lines[1:]
	}
	for len(lines) > 0 && isBlank(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// buildSections nests the flat block list under section nodes. Heading
// levels follow the order in which adornment styles are first seen.
func buildSections(doc *Node, blocks []*Node) {
	type frame struct {
		node  *Node
		level int
	}
	stack := []frame{{node: doc, level: -1}}
	var styles []string

	for _, b := range blocks {
		if b.Kind != KindTitle {
			top := stack[len(stack)-1].node
			top.Children = append(top.Children, b)
			continue
		}

		style := b.Attr("style")
		level := -1
		for idx, s := range styles {
			if s == style {
				level = idx
				break
			}
		}
		if level < 0 {
			styles = append(styles, style)
			level = len(styles) - 1
		}

		for len(stack) > 1 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}

		section := newNode(KindSection, b)
		section.SetAttr("id", slugify(b.Text()))
		parent := stack[len(stack)-1].node
		parent.Children = append(parent.Children, section)
		stack = append(stack, frame{node: section, level: level})
	}
}

func slugify(s string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// applyDocinfo turns a field list that opens the document, or directly
// follows the document title, into docinfo.
func applyDocinfo(doc *Node) {
	container, idx := doc, 0
	if len(doc.Children) > 0 && doc.Children[0].Kind == KindSection {
		container, idx = doc.Children[0], 1
	}
	if idx >= len(container.Children) || container.Children[idx].Kind != KindFieldList {
		return
	}

	list := container.Children[idx]
	list.Kind = KindDocinfo
	for i, field := range list.Children {
		name := strings.ToLower(field.child(KindFieldName).Text())
		kind, ok := bibliographic[name]
		if !ok {
			continue
		}
		body := field.child(KindFieldBody)
		children := body.Children
		if len(children) == 1 && children[0].Kind == KindParagraph {
			children = children[0].Children
		}
		list.Children[i] = newNode(kind, children...)
	}
}
