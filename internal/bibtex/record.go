package bibtex

import (
	"strings"
)

// Names under which a Record exposes its entry type and citation key.
const (
	KeyEntryType   = "entryType"
	KeyCitationKey = "citationKey"
)

// Record is the canonical, flattened form of an entry handed to storage and
// export code.
type Record struct {
	EntryType   string
	CitationKey string
	Fields      *Fields
}

// NewRecord returns an empty record of the given type and key.
func NewRecord(entryType, citationKey string) *Record {
	return &Record{EntryType: entryType, CitationKey: citationKey, Fields: NewFields()}
}

// Value resolves entryType, citationKey or a field name.
func (r *Record) Value(name string) (string, bool) {
	switch name {
	case KeyEntryType:
		return r.EntryType, true
	case KeyCitationKey:
		return r.CitationKey, true
	}
	return r.Fields.Get(name)
}

// Keys returns entryType, citationKey and every field name, in that order.
func (r *Record) Keys() []string {
	keys := []string{KeyEntryType, KeyCitationKey}
	for _, n := range r.Fields.Names() {
		if n != KeyEntryType && n != KeyCitationKey {
			keys = append(keys, n)
		}
	}
	return keys
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	return &Record{EntryType: r.EntryType, CitationKey: r.CitationKey, Fields: r.Fields.Clone()}
}

// Equal reports whether two records hold the same data in the same order.
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.EntryType == other.EntryType &&
		r.CitationKey == other.CitationKey &&
		r.Fields.Equal(other.Fields)
}

// Normalize flattens an entry into a record: a safe outer brace pair is
// stripped from every value and fully upper-case field names are folded to
// lower case.
func Normalize(e *Entry) *Record {
	r := NewRecord(e.EntryType, e.CitationKey)
	for name, value := range e.Fields.All() {
		r.Fields.Set(name, StripOuterBraces(value))
	}
	for _, name := range r.Fields.Names() {
		if !isUpperName(name) {
			continue
		}
		value, _ := r.Fields.Get(name)
		r.Fields.Delete(name)
		r.Fields.Set(strings.ToLower(name), value)
	}
	return r
}

// Records normalizes every entry of a parse result.
func Records(res *Result) []*Record {
	out := make([]*Record, 0, len(res.Entries))
	for _, e := range res.Entries {
		out = append(out, Normalize(e))
	}
	return out
}

// isUpperName reports names such as URL or ISSN, but not Url or 2020.
func isUpperName(name string) bool {
	return name == strings.ToUpper(name) && name != strings.ToLower(name)
}

// StripOuterBraces removes the braces around v when they wrap the whole
// value. "{a} and {b}" keeps its braces: the first '}' closes the opening
// brace before the end, so there is no single wrapping pair.
func StripOuterBraces(v string) string {
	if len(v) < 2 || v[0] != '{' || v[len(v)-1] != '}' {
		return v
	}
	inner := v[1 : len(v)-1]
	open, closed := 0, 0
	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '{':
			open++
		case '}':
			closed++
			if closed > open {
				return v
			}
		}
	}
	return inner
}
