package formats

import (
	"regexp"
	"strings"
)

// markdownTitleRegex matches an h1 header at the very start of a line
var markdownTitleRegex = regexp.MustCompile(`^#\s+(.+?)\s*$`)

// Markdown writes YAML front matter, a "# Title" line, a blank line and
// the content.
var Markdown = &Format{
	Name:      "markdown",
	Extension: ".md",
	Serialize: func(title, content string, meta Metadata) string {
		var b strings.Builder
		writeFrontMatter(&b, meta)
		if title != "" {
			b.WriteString("# " + title + "\n\n")
		}
		b.WriteString(content)
		return b.String()
	},
	Deserialize: func(text string) (string, string, Metadata, error) {
		meta, lines, err := readFrontMatter(strings.Split(text, "\n"))
		if err != nil {
			return "", "", nil, err
		}
		title, content, err := splitTitle(lines, func(line string) (string, bool) {
			m := markdownTitleRegex.FindStringSubmatch(line)
			if m == nil {
				return "", false
			}
			return strings.TrimSpace(m[1]), true
		})
		return title, content, meta, err
	},
}
