package formats

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

const separator = "---"

var headerLineRegex = regexp.MustCompile(`^([a-z][a-z0-9_.-]*): (.*)$`)

// writeHeader writes meta as "key: value" lines closed by a separator line.
func writeHeader(b *strings.Builder, meta Metadata) {
	if len(meta) == 0 {
		return
	}
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(meta[k])
		b.WriteString("\n")
	}
	b.WriteString(separator + "\n\n")
}

// readHeader parses a leading "key: value" block. The block is only taken
// as a header when every line up to the separator is a header line.
func readHeader(lines []string) (Metadata, []string) {
	for i, line := range lines {
		if strings.TrimSpace(line) == separator {
			if i == 0 {
				return nil, lines
			}
			meta := Metadata{}
			for _, l := range lines[:i] {
				m := headerLineRegex.FindStringSubmatch(l)
				meta[m[1]] = strings.TrimSpace(m[2])
			}
			return meta, dropSeparatorGap(lines[i+1:])
		}
		if !headerLineRegex.MatchString(line) {
			return nil, lines
		}
	}
	return nil, lines
}

// writeFrontMatter writes meta as a YAML block fenced by separator lines.
func writeFrontMatter(b *strings.Builder, meta Metadata) {
	if len(meta) == 0 {
		return
	}
	data, err := yaml.Marshal(map[string]string(meta))
	if err != nil {
		// a map of strings always marshals
		panic(fmt.Sprintf("failed to marshal front matter: %v", err))
	}
	b.WriteString(separator + "\n")
	b.Write(data)
	b.WriteString(separator + "\n\n")
}

func readFrontMatter(lines []string) (Metadata, []string, error) {
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != separator {
		return nil, lines, nil
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != separator {
			continue
		}
		var raw map[string]any
		if err := yaml.Unmarshal([]byte(strings.Join(lines[1:i], "\n")), &raw); err != nil {
			return nil, nil, fmt.Errorf("invalid front matter: %w", err)
		}
		meta := Metadata{}
		for k, v := range raw {
			meta[k] = fmt.Sprint(v)
		}
		return meta, dropSeparatorGap(lines[i+1:]), nil
	}
	return nil, nil, fmt.Errorf("invalid front matter: missing closing %q", separator)
}

// splitTitle extracts the title from the first line using match and
// returns the remaining lines as content.
func splitTitle(lines []string, match func(line string) (string, bool)) (string, string, error) {
	if len(lines) == 0 {
		return "", "", ErrEmptyDocument
	}
	title, ok := match(lines[0])
	if !ok {
		content := strings.TrimSpace(strings.Join(lines, "\n"))
		if content == "" {
			return "", "", ErrEmptyDocument
		}
		return "", content, nil
	}
	content := strings.TrimSpace(strings.Join(skipBlank(lines[1:]), "\n"))
	if title == "" && content == "" {
		return "", "", ErrEmptyDocument
	}
	return title, content, nil
}

// dropSeparatorGap removes the single blank line written after a header.
func dropSeparatorGap(lines []string) []string {
	if len(lines) > 0 && isBlankLine(lines[0]) {
		return lines[1:]
	}
	return lines
}

func skipBlank(lines []string) []string {
	for len(lines) > 0 && isBlankLine(lines[0]) {
		lines = lines[1:]
	}
	return lines
}

func isBlankLine(line string) bool {
	return strings.TrimSpace(line) == ""
}
