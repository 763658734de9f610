package bibtex

import "strings"

var months = map[string]bool{
	"jan": true, "feb": true, "mar": true, "apr": true, "may": true, "jun": true,
	"jul": true, "aug": true, "sep": true, "oct": true, "nov": true, "dec": true,
}

// isKeyTerminator reports the bytes that end a bare key or token.
func isKeyTerminator(b byte) bool {
	switch b {
	case ',', '{', '}', ' ', '=':
		return true
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// scanKey reads a key. With optional set, a key that is not followed by a
// comma is rolled back and reported as absent (ok == false).
func scanKey(c *Cursor, optional bool) (key string, ok bool, err error) {
	start := c.pos
	c.SkipInsignificant(true)
	from := c.pos
	for {
		if c.AtEnd() {
			return "", false, c.errorf(ErrRunawayKey, "", "input ended inside a key")
		}
		if isKeyTerminator(c.text[c.pos]) {
			break
		}
		c.pos++
	}
	if optional && c.text[c.pos] != ',' {
		c.pos = start
		return "", false, nil
	}
	return c.text[from:c.pos], true, nil
}

// scanDelimited reads a brace-delimited body after the opening '{' has been
// consumed, up to and including the zero-depth closing brace.
func scanDelimited(c *Cursor) (string, error) {
	start := c.pos
	depth := 0
	escaped := false
	for ; c.pos < len(c.text); c.pos++ {
		ch := c.text[c.pos]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			escaped = true
		case '{':
			depth++
		case '}':
			if depth == 0 {
				v := c.text[start:c.pos]
				c.pos++
				return v, nil
			}
			depth--
		}
	}
	c.pos = start
	return "", c.errorf(ErrUnterminatedValue, "}", "brace-delimited value")
}

func scanBraces(c *Cursor) (string, error) {
	if err := c.Advance("{", false); err != nil {
		return "", err
	}
	return scanDelimited(c)
}

// scanQuotes reads a quote-delimited value. Braces inside must balance and a
// '"' only closes the value at depth zero, so {"} is part of the text.
func scanQuotes(c *Cursor) (string, error) {
	if err := c.Advance(`"`, false); err != nil {
		return "", err
	}
	start := c.pos
	depth := 0
	escaped := false
	for ; c.pos < len(c.text); c.pos++ {
		ch := c.text[c.pos]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			escaped = true
		case '{':
			depth++
		case '}':
			if depth == 0 {
				err := c.errorf(ErrUnterminatedValue, `"`, "unbalanced '}' in quote-delimited value")
				c.pos = start
				return "", err
			}
			depth--
		case '"':
			if depth > 0 {
				continue
			}
			v := c.text[start:c.pos]
			c.pos++
			return v, nil
		}
	}
	c.pos = start
	return "", c.errorf(ErrUnterminatedValue, `"`, "quote-delimited value")
}

// scanSingleValue reads one brace, quote or bare value.
func scanSingleValue(c *Cursor) (string, error) {
	switch {
	case c.Peek("{", true):
		return scanBraces(c)
	case c.Peek(`"`, true):
		return scanQuotes(c)
	}
	start := c.pos
	tok, _, err := scanKey(c, false)
	if err != nil {
		return "", err
	}
	tok = strings.TrimSpace(tok)
	if isDigits(tok) {
		return tok, nil
	}
	if lower := strings.ToLower(tok); months[lower] {
		return lower, nil
	}
	c.pos = start
	return "", c.errorf(ErrValueExpected, "", "bare value must be a number or a month abbreviation, got "+excerpt(tok))
}

// scanValue reads a value and any '#' concatenations that follow it.
func scanValue(c *Cursor) (string, error) {
	v, err := scanSingleValue(c)
	if err != nil {
		return "", err
	}
	if !c.Peek("#", true) {
		return v, nil
	}
	var b strings.Builder
	b.WriteString(v)
	for c.Peek("#", true) {
		c.pos++
		v, err = scanSingleValue(c)
		if err != nil {
			return "", err
		}
		b.WriteString(v)
	}
	return b.String(), nil
}

// scanKeyValue reads `name = value`.
func scanKeyValue(c *Cursor) (name, value string, err error) {
	name, _, err = scanKey(c, false)
	if err != nil {
		return "", "", err
	}
	name = strings.TrimSpace(name)
	if !c.Peek("=", true) {
		return "", "", c.errorf(ErrTokenMismatch, "=", "equals sign missing after "+excerpt(name))
	}
	c.pos++
	value, err = scanValue(c)
	if err != nil {
		return "", "", err
	}
	return name, value, nil
}
