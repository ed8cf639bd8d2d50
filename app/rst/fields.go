package rst

import (
	"iter"
	"strings"
)

// ExtractFields yields (name, value) for every field node in source, with the
// name case-folded, and (tag, text) for every author and date node. Pairs
// come out in document order and are not deduplicated. The sequence parses
// source on each iteration, so it can be ranged over more than once.
func ExtractFields(source string) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		Parse(source).Walk(func(n *Node) bool {
			switch n.Kind {
			case KindField:
				name := strings.ToLower(n.child(KindFieldName).Text())
				return yield(name, n.child(KindFieldBody).Text())
			case KindAuthor, KindDate:
				return yield(string(n.Kind), n.Text())
			}
			return true
		})
	}
}
