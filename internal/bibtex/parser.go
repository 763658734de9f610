package bibtex

import (
	"errors"
	"io"
	"log/slog"
	"strings"
)

// DirectiveKind identifies the variant of a Directive.
type DirectiveKind int

const (
	KindEntry DirectiveKind = iota
	KindString
	KindPreamble
	KindComment
)

func (k DirectiveKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindPreamble:
		return "preamble"
	case KindComment:
		return "comment"
	default:
		return "entry"
	}
}

// Directive is one top-level @name{...} construct.
type Directive interface {
	Kind() DirectiveKind
	directive()
}

// StringDef is an @string{name = value} macro definition. Macros are kept
// but never expanded.
type StringDef struct {
	Name  string
	Value string
}

// Preamble is the verbatim body of an @preamble directive.
type Preamble struct {
	Text string
}

// Comment is the verbatim body of an @comment directive.
type Comment struct {
	Text string
}

// Entry is a bibliographic entry with raw (unnormalized) field values.
type Entry struct {
	EntryType   string
	CitationKey string // empty until FillMissingKeys when the source had none
	Fields      *Fields
}

func (StringDef) Kind() DirectiveKind { return KindString }
func (Preamble) Kind() DirectiveKind  { return KindPreamble }
func (Comment) Kind() DirectiveKind   { return KindComment }
func (*Entry) Kind() DirectiveKind    { return KindEntry }

func (StringDef) directive() {}
func (Preamble) directive()  {}
func (Comment) directive()   {}
func (*Entry) directive()    {}

// Result holds everything parsed from one input text.
type Result struct {
	Directives []Directive
	Entries    []*Entry
}

// First returns the first entry, the one most callers care about.
func (r *Result) First() (*Entry, error) {
	if r == nil || len(r.Entries) == 0 {
		return nil, ErrNoEntries
	}
	return r.Entries[0], nil
}

// Parser turns BibTeX text into directives and entries.
type Parser struct {
	cur    *Cursor
	logger *slog.Logger
	result *Result
}

// NewParser creates a parser over text. A nil logger discards output.
func NewParser(text string, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Parser{
		cur:    NewCursor(text),
		logger: logger.With(slog.String("component", "bibtex")),
		result: &Result{},
	}
}

// Parse parses text with a silent logger.
func Parse(text string) (*Result, error) {
	return NewParser(text, nil).ParseAll()
}

// ParseAll parses every directive in the input and assigns fallback keys.
// Any scanning error aborts the whole parse.
func (p *Parser) ParseAll() (*Result, error) {
	for p.cur.SkipToAt() {
		if err := p.parseDirective(); err != nil {
			p.logger.Debug("parse failed", slog.Int("offset", p.cur.Pos()), slog.Any("error", err))
			return nil, err
		}
	}
	FillMissingKeys(p.result.Entries)
	p.logger.Debug("parse complete",
		slog.Int("directives", len(p.result.Directives)),
		slog.Int("entries", len(p.result.Entries)))
	return p.result, nil
}

func (p *Parser) parseDirective() error {
	c := p.cur
	if err := c.Advance("@", true); err != nil {
		return err
	}
	name, _, err := scanKey(c, false)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if err := c.Advance("{", true); err != nil {
		return err
	}

	var d Directive
	switch strings.ToUpper(name) {
	case "STRING":
		key, value, err := scanKeyValue(c)
		if err != nil {
			return err
		}
		d = StringDef{Name: key, Value: value}
	case "PREAMBLE":
		text, err := p.verbatim()
		if err != nil {
			return err
		}
		d = Preamble{Text: text}
	case "COMMENT":
		text, err := p.verbatim()
		if err != nil {
			return err
		}
		d = Comment{Text: text}
	default:
		entry, err := p.entry(name)
		if err != nil {
			return err
		}
		p.result.Entries = append(p.result.Entries, entry)
		d = entry
	}

	// verbatim bodies already consumed their closing brace
	if d.Kind() == KindEntry || d.Kind() == KindString {
		if err := c.Advance("}", true); err != nil {
			if c.AtEnd() {
				return c.errorf(ErrUnterminatedInput, "}", "directive @"+name+" is not closed")
			}
			return err
		}
	}
	p.result.Directives = append(p.result.Directives, d)
	p.logger.Debug("directive", slog.String("kind", d.Kind().String()), slog.String("name", name))
	return nil
}

// verbatim captures a preamble or comment body up to its matching brace.
func (p *Parser) verbatim() (string, error) {
	text, err := scanDelimited(p.cur)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Kind = ErrUnterminatedInput
		}
		return "", err
	}
	return text, nil
}

func (p *Parser) entry(entryType string) (*Entry, error) {
	c := p.cur
	sanitizeKeySegment(c)

	e := &Entry{EntryType: entryType, Fields: NewFields()}
	key, ok, err := scanKey(c, true)
	if err != nil {
		return nil, err
	}
	if ok {
		e.CitationKey = key
		if err := c.Advance(",", true); err != nil {
			return nil, err
		}
	}
	if err := p.keyValueList(e.Fields); err != nil {
		return nil, err
	}
	return e, nil
}

// keyValueList reads `name = value` pairs separated by commas. One trailing
// comma before the closing brace is allowed.
func (p *Parser) keyValueList(fields *Fields) error {
	c := p.cur
	if c.Peek("}", true) {
		return nil
	}
	for {
		name, value, err := scanKeyValue(c)
		if err != nil {
			return err
		}
		fields.Set(name, value)
		if !c.Peek(",", true) {
			return nil
		}
		c.pos++
		if c.Peek("}", true) {
			return nil
		}
	}
}

// FillMissingKeys gives every entry without a citation key one built from
// the first author's surname and the year: "Smith, 2020". Existing keys are
// left alone.
func FillMissingKeys(entries []*Entry) {
	for _, e := range entries {
		if e.CitationKey != "" {
			continue
		}
		e.CitationKey = fallbackKey(e.Fields)
	}
}

func fallbackKey(fields *Fields) string {
	author, hasAuthor := fields.Get("author")
	year, hasYear := fields.Get("year")
	surname, _, _ := strings.Cut(author, ",")
	switch {
	case hasAuthor && hasYear:
		return surname + ", " + year
	case hasAuthor:
		return surname
	case hasYear:
		return year
	}
	return ""
}
