package formats

import (
	"regexp"
	"strings"
)

var xwikiTitleRegex = regexp.MustCompile(`^=\s+(.+?)\s+=\s*$`)

// XWiki writes the title as a level one heading of the xwiki/2.1 syntax.
var XWiki = &Format{
	Name:      "xwiki",
	Extension: ".xwiki",
	Serialize: func(title, content string, meta Metadata) string {
		var b strings.Builder
		writeHeader(&b, meta)
		if title != "" {
			b.WriteString("= " + title + " =\n\n")
		}
		b.WriteString(content)
		return b.String()
	},
	Deserialize: func(text string) (string, string, Metadata, error) {
		meta, lines := readHeader(strings.Split(text, "\n"))
		title, content, err := splitTitle(lines, func(line string) (string, bool) {
			m := xwikiTitleRegex.FindStringSubmatch(line)
			if m == nil {
				return "", false
			}
			return m[1], true
		})
		return title, content, meta, err
	},
}
