package formats

import "strings"

// PlainText writes an optional "key: value" header closed by "---", the
// title on its own line, a blank line and the content. A document without
// a title starts with a blank line.
var PlainText = &Format{
	Name:      "plaintext",
	Extension: ".txt",
	Serialize: func(title, content string, meta Metadata) string {
		var b strings.Builder
		writeHeader(&b, meta)
		b.WriteString(title)
		b.WriteString("\n\n")
		b.WriteString(content)
		return b.String()
	},
	Deserialize: func(text string) (string, string, Metadata, error) {
		meta, lines := readHeader(strings.Split(text, "\n"))
		// the title is the first line when a blank line follows it
		titled := len(lines) >= 2 && isBlankLine(lines[1])
		title, content, err := splitTitle(lines, func(line string) (string, bool) {
			if isBlankLine(line) {
				return "", true
			}
			return strings.TrimSpace(line), titled
		})
		return title, content, meta, err
	},
}
