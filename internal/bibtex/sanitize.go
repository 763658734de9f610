package bibtex

import (
	"strings"
	"unicode"
)

// keySegmentEnd finds the end of the citation-key segment starting at start:
// the first top-level ','. It returns false when a top-level '=' or the
// directive's closing brace comes first, i.e. the entry has no key.
func keySegmentEnd(text string, start int) (int, bool) {
	depth := 0
	escaped := false
	for i := start; i < len(text); i++ {
		if escaped {
			escaped = false
			continue
		}
		switch text[i] {
		case '\\':
			escaped = true
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return 0, false
			}
			depth--
		case ',':
			if depth == 0 {
				return i, true
			}
		case '=':
			if depth == 0 {
				return 0, false
			}
		}
	}
	return 0, false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// SanitizeKey cleans a raw citation key: whitespace is dropped, and a key
// carrying brace groups (LaTeX accents such as {\'a}) is reduced to its
// word characters.
//
//	hern{\'a}ndez-garc{\'\i}a2021rethinking -> hernandezgarcia2021rethinking
func SanitizeKey(raw string) string {
	grouped := strings.ContainsAny(raw, "{}")
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case unicode.IsSpace(r):
		case grouped && !isWordRune(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// sanitizeKeySegment rewrites the citation key that follows the cursor.
// The cleaned key is spliced into a new input text and scanning continues
// over that text, so the cursor never observes a half-rewritten input.
func sanitizeKeySegment(c *Cursor) {
	end, ok := keySegmentEnd(c.text, c.pos)
	if !ok {
		return
	}
	raw := c.text[c.pos:end]
	if clean := SanitizeKey(raw); clean != raw {
		c.splice(c.pos, end, clean)
	}
}
