package bibtex

import "strings"

// FirstRecord parses raw and normalizes its first entry.
func FirstRecord(raw string) (*Record, error) {
	res, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	e, err := res.First()
	if err != nil {
		return nil, err
	}
	return Normalize(e), nil
}

// ExtractValue returns the normalized value of name in the first entry of
// raw, or "" when the entry has no such field.
func ExtractValue(raw, name string) (string, error) {
	v, _, err := LookupValue(raw, name)
	return v, err
}

// LookupValue is ExtractValue that also reports whether the field exists.
func LookupValue(raw, name string) (string, bool, error) {
	r, err := FirstRecord(raw)
	if err != nil {
		return "", false, err
	}
	v, ok := r.Value(name)
	return v, ok, nil
}

// ExtractAuthors returns the author list of the first entry in reading
// order: "Doe, Jane and Roe, R." becomes "Jane Doe and R. Roe". Braces and
// backslashes are dropped.
func ExtractAuthors(raw string) (string, error) {
	v, err := ExtractValue(raw, "author")
	if err != nil {
		return "", err
	}
	return FormatAuthors(v), nil
}

var authorCleaner = strings.NewReplacer("{", "", "}", "", `\`, "")

// FormatAuthors rewrites a BibTeX author list as "First Last and ...".
func FormatAuthors(authors string) string {
	if authors == "" {
		return ""
	}
	names := strings.Split(authorCleaner.Replace(authors), " and ")
	for i, name := range names {
		parts := strings.Split(name, ", ")
		for l, r := 0, len(parts)-1; l < r; l, r = l+1, r-1 {
			parts[l], parts[r] = parts[r], parts[l]
		}
		names[i] = strings.Join(parts, " ")
	}
	return strings.Join(names, " and ")
}

// SetKey replaces the citation key of the first entry in raw and returns
// the entry as canonical text.
func SetKey(raw, key string) (string, error) {
	return DefaultSerializer.SetKey(raw, key)
}

// SetKey re-keys the first entry in raw and renders it with s.
func (s Serializer) SetKey(raw, key string) (string, error) {
	r, err := FirstRecord(raw)
	if err != nil {
		return "", err
	}
	r.CitationKey = key
	return s.Serialize(r), nil
}

// IsPreprint reports whether any value of r mentions arXiv.
func IsPreprint(r *Record) bool {
	for _, v := range r.Fields.All() {
		if strings.Contains(strings.ToLower(v), "arxiv") {
			return true
		}
	}
	return strings.Contains(strings.ToLower(r.CitationKey), "arxiv")
}
