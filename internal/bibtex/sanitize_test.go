package bibtex

import "testing"

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`hern{\'a}ndez-garc{\'\i}a2021rethinking`, "hernandezgarcia2021rethinking"},
		{`m{\"u}ller2019`, "muller2019"},
		{"  smith2020 ", "smith2020"},
		{"smith:2020-deep", "smith:2020-deep"},
		{"van der\nberg", "vanderberg"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := SanitizeKey(tt.in); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestKeySegmentEnd(t *testing.T) {
	tests := []struct {
		name string
		text string
		end  int
		ok   bool
	}{
		{"plain key", "key, title = {x}}", 3, true},
		{"comma inside group", "a{,}b, x = 1}", 5, true},
		{"no key", "title = {a, b}}", 0, false},
		{"closed before comma", "key}", 0, false},
		{"unterminated", "key", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end, ok := keySegmentEnd(tt.text, 0)
			if end != tt.end || ok != tt.ok {
				t.Errorf("expected (%d, %v), got (%d, %v)", tt.end, tt.ok, end, ok)
			}
		})
	}
}
