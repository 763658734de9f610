package bibtex

import "strings"

// Cursor is the read position over one input text. Each parse owns its own
// cursor; nothing is shared between parses.
type Cursor struct {
	text string
	pos  int
}

// NewCursor returns a cursor at the start of text.
func NewCursor(text string) *Cursor {
	return &Cursor{text: text}
}

// Pos returns the current byte offset.
func (c *Cursor) Pos() int { return c.pos }

// Text returns the (possibly rewritten) input text.
func (c *Cursor) Text() string { return c.text }

// Remainder returns the unread part of the input.
func (c *Cursor) Remainder() string { return c.text[c.pos:] }

// AtEnd reports whether the whole input has been consumed.
func (c *Cursor) AtEnd() bool { return c.pos >= len(c.text) }

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\r' || b == '\t' || b == '\n'
}

// SkipInsignificant skips whitespace and, when comments is set,
// %-comments running to the end of the line.
func (c *Cursor) SkipInsignificant(comments bool) {
	for c.pos < len(c.text) {
		switch ch := c.text[c.pos]; {
		case isWhitespace(ch):
			c.pos++
		case ch == '%' && comments:
			if nl := strings.IndexByte(c.text[c.pos:], '\n'); nl >= 0 {
				c.pos += nl + 1
			} else {
				c.pos = len(c.text)
			}
		default:
			return
		}
	}
}

// Peek skips insignificant text and reports whether literal comes next.
// The literal itself is not consumed.
func (c *Cursor) Peek(literal string, comments bool) bool {
	c.SkipInsignificant(comments)
	return strings.HasPrefix(c.text[c.pos:], literal)
}

// Advance skips insignificant text and consumes literal.
func (c *Cursor) Advance(literal string, comments bool) error {
	if !c.Peek(literal, comments) {
		return c.errorf(ErrTokenMismatch, literal, "")
	}
	c.pos += len(literal)
	return nil
}

// SkipToAt discards every byte up to the next '@'. Unlike SkipInsignificant
// it drops arbitrary text, which is how junk between directives is ignored.
func (c *Cursor) SkipToAt() bool {
	idx := strings.IndexByte(c.text[c.pos:], '@')
	if idx < 0 {
		c.pos = len(c.text)
		return false
	}
	c.pos += idx
	return true
}

// splice replaces text[start:end] with repl and moves the cursor to start.
func (c *Cursor) splice(start, end int, repl string) {
	c.text = c.text[:start] + repl + c.text[end:]
	c.pos = start
}

// errorf builds a ParseError located at the current position.
func (c *Cursor) errorf(kind error, expected, msg string) *ParseError {
	line, col := c.lineCol(c.pos)
	return &ParseError{
		Kind:     kind,
		Offset:   c.pos,
		Line:     line,
		Column:   col,
		Expected: expected,
		Found:    excerpt(c.Remainder()),
		Msg:      msg,
	}
}

func (c *Cursor) lineCol(offset int) (line, col int) {
	if offset > len(c.text) {
		offset = len(c.text)
	}
	prefix := c.text[:offset]
	line = strings.Count(prefix, "\n") + 1
	col = offset - strings.LastIndexByte(prefix, '\n')
	return line, col
}
