package bibtex

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Serializer renders records as canonical BibTeX text.
type Serializer struct {
	// CollapseHyphens turns every "--" in the output into "-", page ranges
	// and titles alike. Longer runs of hyphens are left alone.
	CollapseHyphens bool
}

// DefaultSerializer is the serializer used by Serialize.
var DefaultSerializer = Serializer{CollapseHyphens: true}

// Serialize renders r with DefaultSerializer.
func Serialize(r *Record) string {
	return DefaultSerializer.Serialize(r)
}

// SerializeText parses raw text and renders its first entry canonically.
func SerializeText(raw string) (string, error) {
	return DefaultSerializer.SerializeText(raw)
}

// SerializeText parses raw text and renders its first entry.
func (s Serializer) SerializeText(raw string) (string, error) {
	r, err := FirstRecord(raw)
	if err != nil {
		return "", err
	}
	return s.Serialize(r), nil
}

// Serialize renders r as
//
//	@type{key,
//	  name  = {value},
//	  other = {value}
//	}
//
// Field names are padded to the longest emitted name. Empty values are
// skipped.
func (s Serializer) Serialize(r *Record) string {
	type line struct{ name, value string }
	var lines []line
	width := 0
	for name, value := range r.Fields.All() {
		if name == KeyEntryType || name == KeyCitationKey {
			continue
		}
		value = strings.Join(strings.Fields(value), " ")
		if value == "" {
			continue
		}
		lines = append(lines, line{name, StripOuterBraces(value)})
		width = max(width, utf8.RuneCountInString(name))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s,\n", strings.ToLower(r.EntryType), r.CitationKey)
	for _, l := range lines {
		fmt.Fprintf(&b, "  %-*s = {%s},\n", width, l.name, l.value)
	}
	out := b.String()
	if len(lines) > 0 {
		out = strings.TrimSuffix(out, ",\n")
	} else {
		out = strings.TrimSuffix(out, "\n")
	}
	out += "\n}"

	out = strings.ReplaceAll(out, "\t", "  ")
	if s.CollapseHyphens {
		out = collapseDoubleHyphens(out)
	}
	return out
}

// collapseDoubleHyphens replaces runs of exactly two hyphens with one.
func collapseDoubleHyphens(s string) string {
	if !strings.Contains(s, "--") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '-' {
			b.WriteByte(s[i])
			i++
			continue
		}
		j := i
		for j < len(s) && s[j] == '-' {
			j++
		}
		if j-i == 2 {
			b.WriteByte('-')
		} else {
			b.WriteString(s[i:j])
		}
		i = j
	}
	return b.String()
}
