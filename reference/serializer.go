package reference

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"
)

const escapeChar = '\\'

// separators maps each type to the character preceding its name in the full
// string form. Wikis are the root and have none.
var separators = map[EntityType]byte{
	TypeSpace:          ':',
	TypeDocument:       '.',
	TypeAttachment:     '@',
	TypeObject:         '^',
	TypeObjectProperty: '.',
}

// Serialize returns the full string form, e.g. "wiki:space.page@file.txt".
// Objects are introduced by '^' and their properties by '.'. Every name
// escapes backslashes and its own separator.
func Serialize(ref Reference) string {
	return serialize(entityOf(ref), true)
}

// SerializeLocal is Serialize without the wiki part. A bare wiki reference
// serializes to the empty string.
func SerializeLocal(ref Reference) string {
	return serialize(entityOf(ref), false)
}

func serialize(e *EntityReference, withWiki bool) string {
	if e == nil {
		return ""
	}
	var sb strings.Builder
	first := true
	for _, node := range e.Chain() {
		if node.typ == TypeWiki && !withWiki {
			continue
		}
		sep, hasSep := separators[node.typ]
		if !first && hasSep {
			sb.WriteByte(sep)
		}
		sb.WriteString(escape(node.name, sep, hasSep))
		first = false
	}
	return sb.String()
}

func escape(name string, sep byte, hasSep bool) string {
	if !strings.ContainsRune(name, escapeChar) && (!hasSep || strings.IndexByte(name, sep) < 0) {
		return name
	}
	var sb strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == escapeChar || (hasSep && c == sep) {
			sb.WriteByte(escapeChar)
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// SerializeUID returns the length prefixed form "<len>:<name>" of every level,
// root first. Lengths count UTF-16 code units so the output stays byte stable
// with ids computed by older installations.
func SerializeUID(ref Reference) string {
	return serializeUID(entityOf(ref), true)
}

// SerializeLocalUID is SerializeUID without the wiki level.
func SerializeLocalUID(ref Reference) string {
	return serializeUID(entityOf(ref), false)
}

func serializeUID(e *EntityReference, withWiki bool) string {
	if e == nil {
		return ""
	}
	var sb strings.Builder
	for _, node := range e.Chain() {
		if node.typ == TypeWiki && !withWiki {
			continue
		}
		writeUIDToken(&sb, node.name)
	}
	return sb.String()
}

// AppendUIDToken appends a single "<len>:<value>" token to s.
func AppendUIDToken(s, value string) string {
	var sb strings.Builder
	sb.WriteString(s)
	writeUIDToken(&sb, value)
	return sb.String()
}

func writeUIDToken(sb *strings.Builder, value string) {
	sb.WriteString(strconv.Itoa(len(utf16.Encode([]rune(value)))))
	sb.WriteByte(':')
	sb.WriteString(value)
}

// Resolve parses the full string form into a reference of type t. The string
// is split right to left so that the most specific levels are taken from it;
// levels it omits are taken from the first base reference providing them. A
// result without its top levels is relative.
func Resolve(s string, t EntityType, base ...Reference) (*EntityReference, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("%w: cannot resolve [%s] to entity type %s", ErrInvalidArgument, s, t)
	}
	names := map[EntityType]string{}
	rest := s
	for typ := range IterateAt(t) {
		if rest == "" {
			break
		}
		sep, hasSep := separators[typ]
		i := -1
		if hasSep {
			i = lastUnescaped(rest, sep)
		}
		if i < 0 {
			names[typ] = unescape(rest)
			rest = ""
			break
		}
		names[typ] = unescape(rest[i+1:])
		rest = rest[:i]
	}

	types := slices.Collect(IterateAt(t))
	slices.Reverse(types)
	var parent *EntityReference
	for _, typ := range types {
		name := names[typ]
		if name == "" {
			name = baseName(typ, base)
		}
		if name == "" {
			if parent != nil || typ == t {
				return nil, fmt.Errorf("%w: [%s] does not define a %s name", ErrInvalidArgument, s, typ)
			}
			continue
		}
		ref, err := newEntityReference(name, typ, parent, nil)
		if err != nil {
			return nil, err
		}
		parent = ref
	}
	return parent, nil
}

// ResolveDocument resolves s as an absolute document reference.
func ResolveDocument(s string, base ...Reference) (DocumentReference, error) {
	e, err := Resolve(s, TypeDocument, base...)
	if err != nil {
		return DocumentReference{}, err
	}
	return AsDocumentReference(e)
}

func baseName(typ EntityType, base []Reference) string {
	for _, b := range base {
		if e := entityOf(b); e != nil {
			if x, ok := e.ExtractRef(typ); ok {
				return x.name
			}
		}
	}
	return ""
}

// lastUnescaped returns the index of the last occurrence of sep in s that is
// not preceded by an odd number of escape characters.
func lastUnescaped(s string, sep byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] != sep {
			continue
		}
		n := 0
		for j := i - 1; j >= 0 && s[j] == escapeChar; j-- {
			n++
		}
		if n%2 == 0 {
			return i
		}
	}
	return -1
}

func unescape(s string) string {
	if strings.IndexByte(s, escapeChar) < 0 {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == escapeChar && i+1 < len(s) {
			i++
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
