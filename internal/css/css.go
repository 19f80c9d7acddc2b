// internal/css/css.go
package css

import (
	"fmt"
	"strings"
)

// Declaration is one property: value pair, e.g. display: none.
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// Rule is a selector list with the declarations it applies.
type Rule struct {
	Selectors    []Selector
	Declarations []Declaration
}

// Sheet is a parsed style sheet. At-rules are skipped.
type Sheet struct {
	Rules []Rule
}

// Combinator joins two compound selectors.
type Combinator uint8

const (
	CombinatorNone Combinator = iota
	CombinatorDescendant
	CombinatorChild
	CombinatorAdjacentSibling
	CombinatorGeneralSibling
)

// Selector is a complex selector: compounds joined by combinators, left
// to right. Parts[i].Combinator relates Parts[i] to Parts[i-1].
type Selector struct {
	Parts []Part
}

// Part pairs a compound selector with its preceding combinator.
type Part struct {
	Combinator Combinator
	Compound   Compound
}

// Compound is a sequence of simple selectors, e.g. td.num[colspan]:first-child.
type Compound struct {
	Tag        string
	ID         string
	Classes    []string
	Attributes []AttributeSelector
	Pseudo     []string
}

// AttributeSelector is [name], [name=value] or one of the substring
// operators ~= |= ^= $= *=.
type AttributeSelector struct {
	Name     string
	Operator string
	Value    string
}

// Specificity is the (ids, classes, types) triple.
type Specificity [3]int

// Less orders specificities lexicographically.
func (s Specificity) Less(o Specificity) bool {
	for i := range s {
		if s[i] != o[i] {
			return s[i] < o[i]
		}
	}
	return false
}

// Specificity sums the specificity of every compound.
func (s Selector) Specificity() Specificity {
	var out Specificity
	for _, p := range s.Parts {
		c := p.Compound
		if c.ID != "" {
			out[0]++
		}
		out[1] += len(c.Classes) + len(c.Attributes) + len(c.Pseudo)
		if c.Tag != "" && c.Tag != "*" {
			out[2]++
		}
	}
	return out
}

func (c Compound) empty() bool {
	return c.Tag == "" && c.ID == "" && len(c.Classes) == 0 && len(c.Attributes) == 0 && len(c.Pseudo) == 0
}

// supportedPseudo lists the structural pseudo-classes the matcher knows.
// Selectors using anything else are dropped at parse time.
var supportedPseudo = map[string]bool{
	"root":        true,
	"first-child": true,
	"last-child":  true,
	"only-child":  true,
	"empty":       true,
}

// Parser is a cursor over CSS source.
type Parser struct {
	input string
	pos   int
}

// NewParser returns a parser for input.
func NewParser(input string) *Parser {
	return &Parser{input: input}
}

// Parse parses a whole style sheet. Malformed rules are skipped.
func Parse(input string) Sheet {
	return NewParser(input).Parse()
}

// Parse reads rules until the end of the input.
func (p *Parser) Parse() Sheet {
	var sheet Sheet
	for {
		p.skipSpaceAndComments()
		if p.eof() {
			return sheet
		}
		if p.current() == '@' {
			p.skipAtRule()
			continue
		}
		if p.current() == '}' {
			p.pos++
			continue
		}

		selectors, ok := p.parseSelectorList()
		p.skipTo('{')
		if p.eof() {
			return sheet
		}
		decls := p.parseBlock()
		if ok && len(decls) > 0 {
			sheet.Rules = append(sheet.Rules, Rule{Selectors: selectors, Declarations: decls})
		}
	}
}

// parseSelectorList parses a comma separated selector list up to '{'.
// A list with any invalid selector is invalid as a whole.
func (p *Parser) parseSelectorList() ([]Selector, bool) {
	start := p.pos
	p.skipTo('{')
	text := p.input[start:p.pos]
	p.pos = start

	var out []Selector
	for _, raw := range splitTopLevel(text, ',') {
		sel, err := ParseSelector(raw)
		if err != nil {
			return nil, false
		}
		out = append(out, sel)
	}
	return out, len(out) > 0
}

// ParseSelector parses one complex selector.
func ParseSelector(text string) (Selector, error) {
	sp := &Parser{input: strings.TrimSpace(text)}
	var sel Selector
	comb := CombinatorNone
	for {
		sp.skipSpace()
		if sp.eof() {
			break
		}
		switch sp.current() {
		case '>':
			comb = CombinatorChild
			sp.pos++
			continue
		case '+':
			comb = CombinatorAdjacentSibling
			sp.pos++
			continue
		case '~':
			comb = CombinatorGeneralSibling
			sp.pos++
			continue
		}
		if len(sel.Parts) > 0 && comb == CombinatorNone {
			comb = CombinatorDescendant
		}
		c, err := sp.parseCompound()
		if err != nil {
			return Selector{}, err
		}
		sel.Parts = append(sel.Parts, Part{Combinator: comb, Compound: c})
		comb = CombinatorNone
	}
	if len(sel.Parts) == 0 {
		return Selector{}, fmt.Errorf("empty selector %q", text)
	}
	if comb != CombinatorNone {
		return Selector{}, fmt.Errorf("dangling combinator in %q", text)
	}
	return sel, nil
}

func (p *Parser) parseCompound() (Compound, error) {
	var c Compound
	if p.current() == '*' {
		p.pos++
		c.Tag = "*"
	} else if isIdentStart(p.current()) {
		c.Tag = strings.ToLower(p.parseIdent())
	}
	for !p.eof() {
		switch p.current() {
		case '#':
			p.pos++
			c.ID = p.parseIdent()
		case '.':
			p.pos++
			c.Classes = append(c.Classes, p.parseIdent())
		case '[':
			p.pos++
			attr, err := p.parseAttribute()
			if err != nil {
				return c, err
			}
			c.Attributes = append(c.Attributes, attr)
		case ':':
			p.pos++
			name := strings.ToLower(p.parseIdent())
			if !supportedPseudo[name] {
				return c, fmt.Errorf("unsupported pseudo-class %q", name)
			}
			c.Pseudo = append(c.Pseudo, name)
		default:
			if c.empty() {
				return c, fmt.Errorf("unexpected %q in selector", p.current())
			}
			return c, nil
		}
	}
	if c.empty() {
		return c, fmt.Errorf("empty compound selector")
	}
	return c, nil
}

// parseAttribute parses the inside of [...]; the '[' is already consumed.
func (p *Parser) parseAttribute() (AttributeSelector, error) {
	p.skipSpace()
	name := strings.ToLower(p.parseIdent())
	p.skipSpace()
	if p.eof() || name == "" {
		return AttributeSelector{}, fmt.Errorf("malformed attribute selector")
	}
	if p.current() == ']' {
		p.pos++
		return AttributeSelector{Name: name}, nil
	}

	var op strings.Builder
	if p.current() != '=' {
		op.WriteByte(p.current())
		p.pos++
	}
	if p.eof() || p.current() != '=' {
		return AttributeSelector{}, fmt.Errorf("expected '=' in attribute selector")
	}
	op.WriteByte('=')
	p.pos++
	p.skipSpace()

	var value string
	if q := p.current(); q == '"' || q == '\'' {
		p.pos++
		start := p.pos
		for !p.eof() && p.current() != q {
			p.pos++
		}
		value = p.input[start:p.pos]
		p.pos++
	} else {
		value = p.parseIdent()
	}
	p.skipSpace()
	if p.eof() || p.current() != ']' {
		return AttributeSelector{}, fmt.Errorf("expected ']' to close attribute selector")
	}
	p.pos++
	return AttributeSelector{Name: name, Operator: op.String(), Value: value}, nil
}

// parseBlock parses { declarations } including the braces.
func (p *Parser) parseBlock() []Declaration {
	p.pos++ // '{'
	start := p.pos
	depth := 1
	for !p.eof() && depth > 0 {
		switch c := p.current(); c {
		case '{':
			depth++
		case '}':
			depth--
		case '"', '\'':
			p.skipQuoted(c)
			continue
		}
		p.pos++
	}
	end := p.pos - 1
	if depth > 0 {
		end = p.pos
	}
	return ParseDeclarations(p.input[start:end])
}

// ParseDeclarations parses a declaration list such as the contents of a
// style attribute. Declarations without a property or value are dropped.
func ParseDeclarations(text string) []Declaration {
	var out []Declaration
	for _, part := range splitTopLevel(stripComments(text), ';') {
		prop, val, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		val = strings.TrimSpace(val)
		important := false
		if i := strings.LastIndex(strings.ToLower(val), "!important"); i >= 0 && strings.TrimSpace(val[i+len("!important"):]) == "" {
			important = true
			val = strings.TrimSpace(val[:i])
		}
		if prop == "" || val == "" || !isIdentStart(prop[0]) {
			continue
		}
		out = append(out, Declaration{Property: prop, Value: val, Important: important})
	}
	return out
}

// splitTopLevel splits s on sep outside parentheses, brackets and quotes.
func splitTopLevel(s string, sep byte) []string {
	var out []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			depth--
		case c == sep && depth == 0:
			if part := strings.TrimSpace(s[start:i]); part != "" {
				out = append(out, part)
			}
			start = i + 1
		}
	}
	if part := strings.TrimSpace(s[start:]); part != "" {
		out = append(out, part)
	}
	return out
}

func stripComments(s string) string {
	for {
		i := strings.Index(s, "/*")
		if i < 0 {
			return s
		}
		j := strings.Index(s[i+2:], "*/")
		if j < 0 {
			return s[:i]
		}
		s = s[:i] + " " + s[i+2+j+2:]
	}
}

// -- Cursor helpers --

func (p *Parser) eof() bool { return p.pos >= len(p.input) }

func (p *Parser) current() byte {
	if p.eof() {
		return 0
	}
	return p.input[p.pos]
}

// skipSpace reports whether any whitespace was consumed.
func (p *Parser) skipSpace() bool {
	start := p.pos
	for !p.eof() && isSpace(p.current()) {
		p.pos++
	}
	return p.pos > start
}

func (p *Parser) skipSpaceAndComments() {
	for {
		p.skipSpace()
		if !strings.HasPrefix(p.input[p.pos:], "/*") {
			return
		}
		end := strings.Index(p.input[p.pos+2:], "*/")
		if end < 0 {
			p.pos = len(p.input)
			return
		}
		p.pos += end + 4
	}
}

func (p *Parser) skipTo(targets ...byte) {
	for !p.eof() {
		for _, t := range targets {
			if p.current() == t {
				return
			}
		}
		p.pos++
	}
}

func (p *Parser) skipQuoted(quote byte) {
	p.pos++
	for !p.eof() {
		c := p.current()
		p.pos++
		if c == '\\' {
			p.pos = min(p.pos+1, len(p.input))
		} else if c == quote {
			return
		}
	}
}

// skipAtRule skips an at-rule statement or block.
func (p *Parser) skipAtRule() {
	p.pos++
	for !p.eof() {
		switch p.current() {
		case ';':
			p.pos++
			return
		case '{':
			p.parseBlock()
			return
		}
		p.pos++
	}
}

func (p *Parser) parseIdent() string {
	start := p.pos
	for !p.eof() && isIdentChar(p.current()) {
		p.pos++
	}
	return p.input[start:p.pos]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' || c == '-'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
