package stories

import (
	"iter"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/lysyi3m/content-comb/app/markup"
	"github.com/lysyi3m/content-comb/app/rst"
)

// contentFields yields the structured fields of a page body. Imported legacy
// pages hold the rendered HTML of their source, so for html bodies the field
// tables written by the rst renderer are read back.
func contentFields(content markup.Content) iter.Seq2[string, string] {
	if content.Dialect != markup.DialectHTML {
		return rst.ExtractFields(content.Raw)
	}

	return func(yield func(string, string) bool) {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(content.Raw))
		if err != nil {
			return
		}
		doc.Find("table.docinfo tr, table.field-list tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
			name := strings.TrimSuffix(strings.TrimSpace(row.Find("th").First().Text()), ":")
			if name == "" {
				return true
			}
			value := strings.TrimSpace(row.Find("td").First().Text())
			return yield(strings.ToLower(name), value)
		})
	}
}

type fieldSet map[string]string

func collectFields(seq iter.Seq2[string, string]) fieldSet {
	fields := make(fieldSet)
	for name, value := range seq {
		fields[name] = value
	}
	return fields
}

func (f fieldSet) first(names ...string) string {
	for _, name := range names {
		if v := f[name]; v != "" {
			return v
		}
	}
	return ""
}
