package rust

import (
	"fmt"
	"strings"
)

// ParseFile parses the item-level structure of a Rust source file.
// Function bodies and items that aren't modules, structs, enums or
// functions are skipped over by matching delimiters; they must still be
// lexically valid.
func ParseFile(filename string, src []byte) (*File, error) {
	p, err := newParser(filename, string(src))
	if err != nil {
		return nil, err
	}
	f := &File{Filename: filename}
	f.Attrs, err = p.parseInnerAttrs()
	if err != nil {
		return nil, err
	}
	for !p.atEOF() {
		item, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		f.Items = append(f.Items, item)
	}
	return f, nil
}

// ParseType parses a single type expression such as "Option<Vec<u8>>".
func ParseType(s string) (Type, error) {
	p, err := newParser("<type>", s)
	if err != nil {
		return nil, err
	}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if !p.atEOF() {
		return nil, p.errorf("unexpected %v after type", p.peek())
	}
	return t, nil
}

type parser struct {
	filename string
	toks     []Token
	pos      int
}

func newParser(filename, src string) (*parser, error) {
	toks, err := Tokenize(filename, src)
	if err != nil {
		return nil, err
	}
	return &parser{filename: filename, toks: toks}, nil
}

func (p *parser) peek() Token { return p.peekAt(0) }

func (p *parser) peekAt(n int) Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() Token {
	tok := p.peek()
	if tok.Type != EOF {
		p.pos++
	}
	return tok
}

func (p *parser) atEOF() bool { return p.peek().Type == EOF }

func (p *parser) isPunct(s string) bool { return p.peek().Is(PUNCT, s) }

func (p *parser) isKeyword(s string) bool { return p.peek().Is(IDENT, s) }

func (p *parser) eatPunct(s string) bool {
	if p.isPunct(s) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) eatKeyword(s string) bool {
	if p.isKeyword(s) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expectPunct(s string) error {
	if !p.eatPunct(s) {
		return p.errorf("expected %q, got %v", s, p.peek())
	}
	return nil
}

func (p *parser) expectIdent() (Token, error) {
	tok := p.peek()
	if tok.Type != IDENT {
		return Token{}, p.errorf("expected identifier, got %v", tok)
	}
	p.pos++
	return tok, nil
}

func (p *parser) errorf(format string, args ...any) error {
	tok := p.peek()
	return &Error{Filename: p.filename, Line: tok.Line, Col: tok.Col, Msg: fmt.Sprintf(format, args...)}
}

func posOf(tok Token) Pos { return Pos{Line: tok.Line, Col: tok.Col} }

func (p *parser) parseInnerAttrs() ([]Attribute, error) {
	var attrs []Attribute
	for {
		tok := p.peek()
		switch {
		case tok.Type == DOC && tok.Inner:
			p.pos++
			attrs = append(attrs, p.docAttr(tok))
		case tok.Is(PUNCT, "#") && p.peekAt(1).Is(PUNCT, "!") && p.peekAt(2).Is(PUNCT, "["):
			p.pos += 2
			attr, err := p.parseAttrBody(tok, true)
			if err != nil {
				return nil, err
			}
			attrs = append(attrs, attr)
		default:
			return attrs, nil
		}
	}
}

func (p *parser) parseOuterAttrs() ([]Attribute, error) {
	var attrs []Attribute
	for {
		tok := p.peek()
		switch {
		case tok.Type == DOC && !tok.Inner:
			p.pos++
			attrs = append(attrs, p.docAttr(tok))
		case tok.Is(PUNCT, "#") && p.peekAt(1).Is(PUNCT, "["):
			p.pos++
			attr, err := p.parseAttrBody(tok, false)
			if err != nil {
				return nil, err
			}
			attrs = append(attrs, attr)
		case tok.Type == DOC:
			return nil, p.errorf("inner doc comment is not permitted here")
		default:
			return attrs, nil
		}
	}
}

func (p *parser) docAttr(tok Token) Attribute {
	return Attribute{
		Filename: p.filename,
		Inner:    tok.Inner,
		Path:     []string{"doc"},
		Tokens: []Token{
			{Type: PUNCT, Lexeme: "=", Line: tok.Line, Col: tok.Col},
			{Type: LITERAL, Lexeme: quoteDoc(tok.Lexeme), Line: tok.Line, Col: tok.Col},
		},
		Pos: posOf(tok),
	}
}

// parseAttrBody parses "[path tokens...]" after "#" or "#!".
func (p *parser) parseAttrBody(start Token, inner bool) (Attribute, error) {
	if err := p.expectPunct("["); err != nil {
		return Attribute{}, err
	}
	attr := Attribute{Filename: p.filename, Inner: inner, Pos: posOf(start)}
	attr.Global = p.eatPunct("::")
	for {
		id, err := p.expectIdent()
		if err != nil {
			return Attribute{}, err
		}
		attr.Path = append(attr.Path, id.Lexeme)
		if !p.eatPunct("::") {
			break
		}
	}
	depth := 0
	for {
		tok := p.peek()
		switch {
		case tok.Type == EOF:
			return Attribute{}, p.errorf("unterminated attribute")
		case tok.Is(PUNCT, "]") && depth == 0:
			p.pos++
			return attr, nil
		case isOpen(tok):
			depth++
		case isClose(tok):
			depth--
		}
		attr.Tokens = append(attr.Tokens, tok)
		p.pos++
	}
}

func isOpen(tok Token) bool {
	return tok.Type == PUNCT && (tok.Lexeme == "(" || tok.Lexeme == "[" || tok.Lexeme == "{")
}

func isClose(tok Token) bool {
	return tok.Type == PUNCT && (tok.Lexeme == ")" || tok.Lexeme == "]" || tok.Lexeme == "}")
}

// skipGroup skips a delimited group starting at the current open delimiter.
func (p *parser) skipGroup() error {
	open := p.next()
	var stack []string
	stack = append(stack, closerOf(open.Lexeme))
	for len(stack) > 0 {
		tok := p.next()
		switch {
		case tok.Type == EOF:
			return &Error{Filename: p.filename, Line: open.Line, Col: open.Col, Msg: fmt.Sprintf("unclosed delimiter %q", open.Lexeme)}
		case isOpen(tok):
			stack = append(stack, closerOf(tok.Lexeme))
		case isClose(tok):
			if tok.Lexeme != stack[len(stack)-1] {
				return &Error{Filename: p.filename, Line: tok.Line, Col: tok.Col, Msg: fmt.Sprintf("mismatched closing delimiter %q", tok.Lexeme)}
			}
			stack = stack[:len(stack)-1]
		}
	}
	return nil
}

func closerOf(open string) string {
	switch open {
	case "(":
		return ")"
	case "[":
		return "]"
	default:
		return "}"
	}
}

func (p *parser) parseVisibility() (string, error) {
	if !p.isKeyword("pub") {
		if p.isKeyword("crate") && !p.peekAt(1).Is(PUNCT, "::") {
			p.pos++
			return "crate", nil
		}
		return "", nil
	}
	p.pos++
	if !p.isPunct("(") {
		return "pub", nil
	}
	switch kw := p.peekAt(1); {
	case kw.Is(IDENT, "crate"), kw.Is(IDENT, "self"), kw.Is(IDENT, "super"), kw.Is(IDENT, "in"):
	default:
		// tuple struct field type: "pub (A, B)"
		return "pub", nil
	}
	start := p.pos
	if err := p.skipGroup(); err != nil {
		return "", err
	}
	return "pub" + joinTokens(p.toks[start:p.pos]), nil
}

func joinTokens(toks []Token) string {
	var b strings.Builder
	for i, tok := range toks {
		if i > 0 && needsSpace(toks[i-1], tok) {
			b.WriteByte(' ')
		}
		if tok.Raw {
			b.WriteString("r#")
		}
		b.WriteString(tok.Lexeme)
	}
	return b.String()
}

func needsSpace(prev, tok Token) bool {
	wordLike := func(t Token) bool { return t.Type == IDENT || t.Type == LITERAL || t.Type == LIFETIME }
	return wordLike(prev) && wordLike(tok)
}

func (p *parser) parseItem() (Item, error) {
	attrs, err := p.parseOuterAttrs()
	if err != nil {
		return nil, err
	}
	start := p.peek()
	vis, err := p.parseVisibility()
	if err != nil {
		return nil, err
	}
	base := itemBase{Attrs: attrs, Vis: vis, Pos: posOf(start)}

	switch {
	case p.isKeyword("mod"):
		return p.parseMod(base)
	case p.isKeyword("struct"):
		return p.parseStruct(base)
	case p.isKeyword("enum"):
		return p.parseEnum(base)
	case p.isFnStart():
		return p.parseFn(base)
	}

	kind := p.peek()
	if kind.Type == EOF {
		return nil, p.errorf("expected item after attributes")
	}
	if kind.Type != IDENT {
		return nil, p.errorf("expected item, got %v", kind)
	}
	other := &ItemOther{itemBase: base, Kind: kind.Lexeme}
	switch kind.Lexeme {
	case "union", "trait", "type", "const", "static":
		id := p.peekAt(1)
		if id.Is(IDENT, "mut") {
			id = p.peekAt(2)
		}
		if id.Type == IDENT {
			other.Name = id.Lexeme
		}
	}
	if err := p.skipItem(); err != nil {
		return nil, err
	}
	return other, nil
}

// isFnStart looks past function qualifiers for the "fn" keyword.
func (p *parser) isFnStart() bool {
	for i := 0; ; i++ {
		tok := p.peekAt(i)
		switch {
		case tok.Is(IDENT, "fn"):
			return true
		case tok.Is(IDENT, "const"), tok.Is(IDENT, "async"), tok.Is(IDENT, "unsafe"),
			tok.Is(IDENT, "extern"), tok.Is(IDENT, "default"):
		case tok.Type == LITERAL && i > 0 && p.peekAt(i-1).Is(IDENT, "extern"):
		default:
			return false
		}
	}
}

// skipItem skips an item up to and including its terminating ";" or its
// top-level closing brace.
func (p *parser) skipItem() error {
	for {
		tok := p.peek()
		switch {
		case tok.Type == EOF:
			return p.errorf("unexpected end of file in item")
		case tok.Is(PUNCT, ";"):
			p.pos++
			return nil
		case tok.Is(PUNCT, "{"):
			if err := p.skipGroup(); err != nil {
				return err
			}
			// "macro_rules! m { ... }" and "impl X {}" end here; a braced
			// macro invocation may be followed by ";".
			p.eatPunct(";")
			return nil
		case isOpen(tok):
			if err := p.skipGroup(); err != nil {
				return err
			}
		case isClose(tok):
			return p.errorf("unexpected %v", tok)
		default:
			p.pos++
		}
	}
}

func (p *parser) parseMod(base itemBase) (Item, error) {
	p.pos++ // mod
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	base.Name = name.Lexeme
	m := &ItemMod{itemBase: base}
	if p.eatPunct(";") {
		return m, nil
	}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	m.Content = &ModContent{}
	m.Content.Attrs, err = p.parseInnerAttrs()
	if err != nil {
		return nil, err
	}
	for !p.eatPunct("}") {
		if p.atEOF() {
			return nil, p.errorf("unclosed module %v", base.Name)
		}
		item, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		m.Content.Items = append(m.Content.Items, item)
	}
	return m, nil
}

func (p *parser) parseStruct(base itemBase) (Item, error) {
	p.pos++ // struct
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	base.Name = name.Lexeme
	s := &ItemStruct{itemBase: base}
	if s.Generics, err = p.parseGenerics(); err != nil {
		return nil, err
	}
	switch {
	case p.isPunct("("):
		if s.Fields, err = p.parseTupleFields(); err != nil {
			return nil, err
		}
		if s.Generics.Where, err = p.skipWhere(); err != nil {
			return nil, err
		}
		return s, p.expectPunct(";")
	default:
		if s.Generics.Where, err = p.skipWhere(); err != nil {
			return nil, err
		}
		if p.eatPunct(";") {
			return s, nil
		}
		s.Fields, err = p.parseNamedFields()
		return s, err
	}
}

func (p *parser) parseEnum(base itemBase) (Item, error) {
	p.pos++ // enum
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	base.Name = name.Lexeme
	e := &ItemEnum{itemBase: base}
	if e.Generics, err = p.parseGenerics(); err != nil {
		return nil, err
	}
	if e.Generics.Where, err = p.skipWhere(); err != nil {
		return nil, err
	}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	for !p.eatPunct("}") {
		attrs, err := p.parseOuterAttrs()
		if err != nil {
			return nil, err
		}
		if _, err := p.parseVisibility(); err != nil {
			return nil, err
		}
		vname, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		v := Variant{Attrs: attrs, Name: vname.Lexeme, Pos: posOf(vname)}
		switch {
		case p.isPunct("{"):
			v.Fields, err = p.parseNamedFields()
		case p.isPunct("("):
			v.Fields, err = p.parseTupleFields()
		}
		if err != nil {
			return nil, err
		}
		if p.eatPunct("=") {
			v.Discriminant = p.collectUntil(",", "}")
			if v.Discriminant == "" {
				return nil, p.errorf("expected discriminant expression")
			}
		}
		e.Variants = append(e.Variants, v)
		if !p.eatPunct(",") && !p.isPunct("}") {
			return nil, p.errorf("expected \",\" or \"}\" after variant, got %v", p.peek())
		}
	}
	return e, nil
}

// collectUntil consumes tokens up to (not including) any of the stop
// punctuations at nesting depth 0 and returns their joined text.
func (p *parser) collectUntil(stops ...string) string {
	start := p.pos
	depth := 0
	for {
		tok := p.peek()
		if tok.Type == EOF {
			break
		}
		if depth == 0 && tok.Type == PUNCT {
			stop := false
			for _, s := range stops {
				if tok.Lexeme == s {
					stop = true
				}
			}
			if stop {
				break
			}
		}
		switch {
		case isOpen(tok):
			depth++
		case isClose(tok):
			if depth == 0 {
				return joinTokens(p.toks[start:p.pos])
			}
			depth--
		}
		p.pos++
	}
	return joinTokens(p.toks[start:p.pos])
}

func (p *parser) parseNamedFields() (Fields, error) {
	if err := p.expectPunct("{"); err != nil {
		return Fields{}, err
	}
	fields := Fields{Kind: FieldsNamed}
	for !p.eatPunct("}") {
		attrs, err := p.parseOuterAttrs()
		if err != nil {
			return Fields{}, err
		}
		vis, err := p.parseVisibility()
		if err != nil {
			return Fields{}, err
		}
		name, err := p.expectIdent()
		if err != nil {
			return Fields{}, err
		}
		if err := p.expectPunct(":"); err != nil {
			return Fields{}, err
		}
		typ, err := p.parseType()
		if err != nil {
			return Fields{}, err
		}
		fields.List = append(fields.List, Field{Attrs: attrs, Vis: vis, Name: name.Lexeme, Type: typ, Pos: posOf(name)})
		if !p.eatPunct(",") && !p.isPunct("}") {
			return Fields{}, p.errorf("expected \",\" or \"}\" after field, got %v", p.peek())
		}
	}
	return fields, nil
}

func (p *parser) parseTupleFields() (Fields, error) {
	if err := p.expectPunct("("); err != nil {
		return Fields{}, err
	}
	fields := Fields{Kind: FieldsUnnamed}
	for !p.eatPunct(")") {
		attrs, err := p.parseOuterAttrs()
		if err != nil {
			return Fields{}, err
		}
		start := p.peek()
		vis, err := p.parseVisibility()
		if err != nil {
			return Fields{}, err
		}
		typ, err := p.parseType()
		if err != nil {
			return Fields{}, err
		}
		fields.List = append(fields.List, Field{Attrs: attrs, Vis: vis, Type: typ, Pos: posOf(start)})
		if !p.eatPunct(",") && !p.isPunct(")") {
			return Fields{}, p.errorf("expected \",\" or \")\" after field, got %v", p.peek())
		}
	}
	return fields, nil
}

// parseGenerics parses "<...>" parameters. Bounds and defaults are skipped.
func (p *parser) parseGenerics() (Generics, error) {
	var g Generics
	if !p.eatPunct("<") {
		return g, nil
	}
	for !p.eatPunct(">") {
		if _, err := p.parseOuterAttrs(); err != nil {
			return g, err
		}
		tok := p.next()
		switch {
		case tok.Type == LIFETIME:
			g.Params = append(g.Params, GenericParam{Kind: GenericLifetime, Name: tok.Lexeme})
		case tok.Is(IDENT, "const"):
			name, err := p.expectIdent()
			if err != nil {
				return g, err
			}
			g.Params = append(g.Params, GenericParam{Kind: GenericConst, Name: name.Lexeme})
		case tok.Type == IDENT:
			g.Params = append(g.Params, GenericParam{Kind: GenericType, Name: tok.Lexeme})
		default:
			p.pos--
			return g, p.errorf("expected generic parameter, got %v", tok)
		}
		if err := p.skipBounds(); err != nil {
			return g, err
		}
		if !p.eatPunct(",") && !p.isPunct(">") {
			return g, p.errorf("expected \",\" or \">\" in generics, got %v", p.peek())
		}
	}
	return g, nil
}

// skipBounds skips ": bounds" and "= default" of a generic parameter,
// stopping at "," or ">" at angle depth 0.
func (p *parser) skipBounds() error {
	angle := 0
	for {
		tok := p.peek()
		switch {
		case tok.Type == EOF:
			return p.errorf("unexpected end of file in generics")
		case tok.Is(PUNCT, "<"):
			angle++
		case tok.Is(PUNCT, ">"):
			if angle == 0 {
				return nil
			}
			angle--
		case tok.Is(PUNCT, ",") && angle == 0:
			return nil
		case isOpen(tok):
			if err := p.skipGroup(); err != nil {
				return err
			}
			continue
		}
		p.pos++
	}
}

// skipWhere skips a where clause up to "{" or ";" at depth 0.
func (p *parser) skipWhere() (bool, error) {
	if !p.eatKeyword("where") {
		return false, nil
	}
	for {
		tok := p.peek()
		switch {
		case tok.Type == EOF:
			return true, p.errorf("unexpected end of file in where clause")
		case tok.Is(PUNCT, "{"), tok.Is(PUNCT, ";"):
			return true, nil
		case tok.Is(PUNCT, "("), tok.Is(PUNCT, "["):
			if err := p.skipGroup(); err != nil {
				return true, err
			}
			continue
		}
		p.pos++
	}
}

func (p *parser) parseFn(base itemBase) (Item, error) {
	fn := &ItemFn{itemBase: base}
	for !p.eatKeyword("fn") {
		tok := p.next()
		switch {
		case tok.Is(IDENT, "const"):
			fn.Const = true
		case tok.Is(IDENT, "async"):
			fn.Async = true
		case tok.Is(IDENT, "unsafe"):
			fn.Unsafe = true
		case tok.Is(IDENT, "extern"):
			fn.ABI = `"C"`
			if p.peek().Type == LITERAL {
				fn.ABI = p.next().Lexeme
			}
		}
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	fn.Name = name.Lexeme
	if fn.Generics, err = p.parseGenerics(); err != nil {
		return nil, err
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	for !p.eatPunct(")") {
		arg, err := p.parseFnArg()
		if err != nil {
			return nil, err
		}
		fn.Inputs = append(fn.Inputs, arg)
		if !p.eatPunct(",") && !p.isPunct(")") {
			return nil, p.errorf("expected \",\" or \")\" after parameter, got %v", p.peek())
		}
	}
	if p.eatPunct("->") {
		if fn.Output, err = p.parseType(); err != nil {
			return nil, err
		}
		if IsUnit(fn.Output) {
			fn.Output = nil
		}
	}
	if fn.Generics.Where, err = p.skipWhere(); err != nil {
		return nil, err
	}
	if p.eatPunct(";") {
		return fn, nil
	}
	if !p.isPunct("{") {
		return nil, p.errorf("expected function body, got %v", p.peek())
	}
	fn.HasBody = true
	return fn, p.skipGroup()
}

func (p *parser) parseFnArg() (FnArg, error) {
	attrs, err := p.parseOuterAttrs()
	if err != nil {
		return FnArg{}, err
	}
	arg := FnArg{Attrs: attrs}

	// shorthand receivers: self, mut self, &self, &mut self, &'a self, &'a mut self
	i := 0
	if p.peekAt(i).Is(PUNCT, "&") {
		i++
		if p.peekAt(i).Type == LIFETIME {
			i++
		}
	}
	if p.peekAt(i).Is(IDENT, "mut") {
		i++
	}
	if p.peekAt(i).Is(IDENT, "self") {
		arg.Self = true
		arg.Pattern = joinTokens(p.toks[p.pos : p.pos+i+1])
		arg.Name = "self"
		p.pos += i + 1
		if p.eatPunct(":") {
			if arg.Type, err = p.parseType(); err != nil {
				return FnArg{}, err
			}
		}
		return arg, nil
	}

	if p.isPunct(".") && p.peekAt(1).Is(PUNCT, ".") && p.peekAt(2).Is(PUNCT, ".") {
		p.pos += 3
		arg.Pattern = "..."
		return arg, nil
	}

	start := p.pos
	pattern := p.collectUntil(":", ",", ")")
	if pattern == "" {
		return FnArg{}, p.errorf("expected parameter pattern, got %v", p.peek())
	}
	arg.Pattern = pattern
	patToks := p.toks[start:p.pos]
	switch {
	case len(patToks) == 1 && patToks[0].Type == IDENT && patToks[0].Lexeme != "_":
		arg.Name = patToks[0].Lexeme
	case len(patToks) == 2 && patToks[0].Is(IDENT, "mut") && patToks[1].Type == IDENT && patToks[1].Lexeme != "_":
		arg.Name = patToks[1].Lexeme
	}
	if err := p.expectPunct(":"); err != nil {
		return FnArg{}, err
	}
	if arg.Type, err = p.parseType(); err != nil {
		return FnArg{}, err
	}
	return arg, nil
}
