package bibtex

import "iter"

// Fields is a field-name to value map that remembers insertion order.
// Setting an existing name replaces its value in place.
type Fields struct {
	names  []string
	values map[string]string
}

// NewFields returns an empty ordered field map.
func NewFields() *Fields {
	return &Fields{values: make(map[string]string)}
}

// Set stores value under name.
func (f *Fields) Set(name, value string) {
	if _, ok := f.values[name]; !ok {
		f.names = append(f.names, name)
	}
	f.values[name] = value
}

// Get returns the value stored under name.
func (f *Fields) Get(name string) (string, bool) {
	if f == nil {
		return "", false
	}
	v, ok := f.values[name]
	return v, ok
}

// Delete removes name, keeping the order of the others.
func (f *Fields) Delete(name string) {
	if _, ok := f.values[name]; !ok {
		return
	}
	delete(f.values, name)
	for i, n := range f.names {
		if n == name {
			f.names = append(f.names[:i], f.names[i+1:]...)
			break
		}
	}
}

// Len returns the number of fields.
func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.names)
}

// Names returns the field names in insertion order.
func (f *Fields) Names() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// All yields name/value pairs in insertion order.
func (f *Fields) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if f == nil {
			return
		}
		for _, n := range f.names {
			if !yield(n, f.values[n]) {
				return
			}
		}
	}
}

// Clone returns an independent copy.
func (f *Fields) Clone() *Fields {
	out := NewFields()
	if f == nil {
		return out
	}
	for _, n := range f.names {
		out.Set(n, f.values[n])
	}
	return out
}

// Equal reports whether both maps hold the same names, values and order.
func (f *Fields) Equal(other *Fields) bool {
	if f.Len() != other.Len() {
		return false
	}
	for i, n := range f.Names() {
		if other.names[i] != n || other.values[n] != f.values[n] {
			return false
		}
	}
	return true
}
