package rust

func (p *parser) parseType() (Type, error) {
	tok := p.peek()
	switch {
	case tok.Is(PUNCT, "&"):
		p.pos++
		ref := &RefType{}
		if p.peek().Type == LIFETIME {
			ref.Lifetime = p.next().Lexeme
		}
		ref.Mut = p.eatKeyword("mut")
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		ref.Elem = elem
		return ref, nil
	case tok.Is(PUNCT, "*"):
		p.pos++
		ptr := &PtrType{}
		switch {
		case p.eatKeyword("mut"):
			ptr.Mut = true
		case p.eatKeyword("const"):
		default:
			return nil, p.errorf("expected \"const\" or \"mut\" after \"*\", got %v", p.peek())
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		ptr.Elem = elem
		return ptr, nil
	case tok.Is(PUNCT, "["):
		p.pos++
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if p.eatPunct(";") {
			n := p.collectUntil("]")
			if n == "" {
				return nil, p.errorf("expected array length")
			}
			if err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			return &ArrayType{Elem: elem, Len: n}, nil
		}
		if err := p.expectPunct("]"); err != nil {
			return nil, err
		}
		return &SliceType{Elem: elem}, nil
	case tok.Is(PUNCT, "("):
		return p.parseTupleType()
	case tok.Is(PUNCT, "!"):
		p.pos++
		return &NeverType{}, nil
	case tok.Is(IDENT, "_"):
		p.pos++
		return &InferType{}, nil
	case tok.Is(IDENT, "dyn"), tok.Is(IDENT, "impl"):
		p.pos++
		bounds, err := p.parseBounds()
		if err != nil {
			return nil, err
		}
		return &TraitObjectType{Impl: tok.Lexeme == "impl", Bounds: bounds}, nil
	case tok.Is(IDENT, "for") && p.peekAt(1).Is(PUNCT, "<"):
		p.pos++
		if _, err := p.parseGenerics(); err != nil {
			return nil, err
		}
		return p.parseType()
	case tok.Is(IDENT, "fn"), tok.Is(IDENT, "unsafe"), tok.Is(IDENT, "extern"):
		return p.parseFnPtr()
	case tok.Is(PUNCT, "<"):
		return p.parseQualifiedPath()
	case tok.Is(PUNCT, "::"), tok.Type == IDENT:
		return p.parsePath()
	}
	return nil, p.errorf("expected type, got %v", tok)
}

func (p *parser) parseTupleType() (Type, error) {
	p.pos++ // (
	var elems []Type
	trailing := false
	for !p.eatPunct(")") {
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
		trailing = p.eatPunct(",")
		if !trailing && !p.isPunct(")") {
			return nil, p.errorf("expected \",\" or \")\" in tuple type, got %v", p.peek())
		}
	}
	if len(elems) == 1 && !trailing {
		return elems[0], nil // parenthesized
	}
	return &TupleType{Elems: elems}, nil
}

func (p *parser) parseFnPtr() (Type, error) {
	fp := &FnPtrType{}
	fp.Unsafe = p.eatKeyword("unsafe")
	if p.eatKeyword("extern") {
		fp.ABI = `"C"`
		if p.peek().Type == LITERAL {
			fp.ABI = p.next().Lexeme
		}
	}
	if !p.eatKeyword("fn") {
		return nil, p.errorf("expected \"fn\", got %v", p.peek())
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	for !p.eatPunct(")") {
		if _, err := p.parseOuterAttrs(); err != nil {
			return nil, err
		}
		if p.isPunct(".") {
			p.pos += 3 // variadic "..."
			continue
		}
		if (p.peek().Type == IDENT) && p.peekAt(1).Is(PUNCT, ":") {
			p.pos += 2 // named parameter
		}
		in, err := p.parseType()
		if err != nil {
			return nil, err
		}
		fp.Inputs = append(fp.Inputs, in)
		if !p.eatPunct(",") && !p.isPunct(")") {
			return nil, p.errorf("expected \",\" or \")\" in fn pointer, got %v", p.peek())
		}
	}
	if p.eatPunct("->") {
		out, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if !IsUnit(out) {
			fp.Output = out
		}
	}
	return fp, nil
}

// parseBounds parses "A + B + 'a" after "dyn", "impl" or "T:".
func (p *parser) parseBounds() ([]string, error) {
	var bounds []string
	for {
		bound, err := p.parseBound()
		if err != nil {
			return nil, err
		}
		bounds = append(bounds, bound)
		if !p.eatPunct("+") {
			return bounds, nil
		}
		// trailing "+"
		if tok := p.peek(); tok.Type != IDENT && tok.Type != LIFETIME && !tok.Is(PUNCT, "?") &&
			!tok.Is(PUNCT, "(") && !tok.Is(PUNCT, "::") && !tok.Is(PUNCT, "<") {
			return bounds, nil
		}
	}
}

func (p *parser) parseBound() (string, error) {
	if tok := p.peek(); tok.Type == LIFETIME {
		p.pos++
		return tok.Lexeme, nil
	}
	if p.eatPunct("(") {
		b, err := p.parseBound()
		if err != nil {
			return "", err
		}
		return "(" + b + ")", p.expectPunct(")")
	}
	prefix := ""
	if p.eatPunct("?") {
		prefix = "?"
	}
	if p.isKeyword("for") && p.peekAt(1).Is(PUNCT, "<") {
		p.pos++
		if _, err := p.parseGenerics(); err != nil {
			return "", err
		}
	}
	path, err := p.parsePath()
	if err != nil {
		return "", err
	}
	return prefix + path.String(), nil
}

// parseQualifiedPath parses "<T as Trait>::Rest" and "<T>::Rest".
func (p *parser) parseQualifiedPath() (Type, error) {
	p.pos++ // <
	self, err := p.parseType()
	if err != nil {
		return nil, err
	}
	q := &QSelf{Type: self}
	if p.eatKeyword("as") {
		trait, err := p.parsePath()
		if err != nil {
			return nil, err
		}
		q.Trait = trait
	}
	if err := p.expectPunct(">"); err != nil {
		return nil, err
	}
	if err := p.expectPunct("::"); err != nil {
		return nil, err
	}
	rest, err := p.parsePath()
	if err != nil {
		return nil, err
	}
	rest.QSelf = q
	return rest, nil
}

func (p *parser) parsePath() (*PathType, error) {
	path := &PathType{Global: p.eatPunct("::")}
	for {
		id, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		seg := PathSegment{Name: id.Lexeme}
		switch {
		case p.isPunct("<"), p.isPunct("::") && p.peekAt(1).Is(PUNCT, "<"):
			p.eatPunct("::")
			if err := p.parseGenericArgs(&seg); err != nil {
				return nil, err
			}
		case p.isPunct("("):
			if err := p.parseParenArgs(&seg); err != nil {
				return nil, err
			}
		}
		path.Segments = append(path.Segments, seg)
		if !(p.isPunct("::") && p.peekAt(1).Type == IDENT) {
			return path, nil
		}
		p.pos++
	}
}

func (p *parser) parseGenericArgs(seg *PathSegment) error {
	p.pos++ // <
	for !p.eatPunct(">") {
		tok := p.peek()
		switch {
		case tok.Type == LIFETIME:
			p.pos++
			seg.Lifetimes = append(seg.Lifetimes, tok.Lexeme)
		case tok.Type == LITERAL, tok.Is(PUNCT, "-"):
			p.pos++
			c := tok.Lexeme
			if tok.Lexeme == "-" {
				c += p.next().Lexeme
			}
			seg.Consts = append(seg.Consts, c)
		case tok.Is(PUNCT, "{"):
			start := p.pos
			if err := p.skipGroup(); err != nil {
				return err
			}
			seg.Consts = append(seg.Consts, joinTokens(p.toks[start:p.pos]))
		case tok.Type == IDENT && p.peekAt(1).Is(PUNCT, "=") && !p.peekAt(2).Is(PUNCT, "="):
			p.pos += 2
			typ, err := p.parseType()
			if err != nil {
				return err
			}
			seg.Bindings = append(seg.Bindings, Binding{Name: tok.Lexeme, Type: typ})
		case tok.Type == IDENT && p.peekAt(1).Is(PUNCT, ":"):
			// associated type constraint: "Item: Bound"
			p.pos += 2
			if _, err := p.parseBounds(); err != nil {
				return err
			}
		default:
			typ, err := p.parseType()
			if err != nil {
				return err
			}
			seg.Args = append(seg.Args, typ)
		}
		if !p.eatPunct(",") && !p.isPunct(">") {
			return p.errorf("expected \",\" or \">\" in generic arguments, got %v", p.peek())
		}
	}
	return nil
}

// parseParenArgs parses Fn-sugar arguments: "(A, B) -> C".
func (p *parser) parseParenArgs(seg *PathSegment) error {
	p.pos++ // (
	seg.Parenthesized = true
	for !p.eatPunct(")") {
		typ, err := p.parseType()
		if err != nil {
			return err
		}
		seg.Args = append(seg.Args, typ)
		if !p.eatPunct(",") && !p.isPunct(")") {
			return p.errorf("expected \",\" or \")\", got %v", p.peek())
		}
	}
	if p.eatPunct("->") {
		out, err := p.parseType()
		if err != nil {
			return err
		}
		if !IsUnit(out) {
			seg.Output = out
		}
	}
	return nil
}
