package rust

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Attribute is an outer ("#[...]", "///") or inner ("#![...]", "//!")
// attribute. Doc comments are represented as `doc = "..."` attributes.
type Attribute struct {
	Filename string
	Inner    bool
	Global   bool // path starts with "::"
	Path     []string
	// Tokens are the tokens following the path inside the brackets.
	Tokens []Token
	Pos    Pos
}

// IsIdent reports whether the attribute path is exactly the single
// identifier name ("#[name ...]" but not "#[a::name ...]").
func (a *Attribute) IsIdent(name string) bool {
	return !a.Global && len(a.Path) == 1 && a.Path[0] == name
}

func (a *Attribute) PathString() string {
	s := strings.Join(a.Path, "::")
	if a.Global {
		s = "::" + s
	}
	return s
}

// Doc returns the text of a doc attribute.
func (a *Attribute) Doc() (string, bool) {
	if !a.IsIdent("doc") {
		return "", false
	}
	nv, ok := mustMeta(a.ParseMeta()).(*MetaNameValue)
	if !ok {
		return "", false
	}
	s, err := StringValue(nv.Lit)
	if err != nil {
		return "", false
	}
	return s, true
}

// DocString joins the outer doc attributes of attrs into a single string,
// one line per attribute, with the conventional leading space removed.
func DocString(attrs []Attribute) string {
	var lines []string
	for i := range attrs {
		if attrs[i].Inner {
			continue
		}
		if s, ok := attrs[i].Doc(); ok {
			lines = append(lines, strings.TrimPrefix(s, " "))
		}
	}
	return strings.Join(lines, "\n")
}

func mustMeta(m Meta, err error) Meta {
	if err != nil {
		return nil
	}
	return m
}

// Meta is the structured content of an attribute. Implemented by
// *MetaPath, *MetaList and *MetaNameValue.
type Meta interface {
	MetaPath() []string
}

// MetaPath is a bare path: "#[test]".
type MetaPath struct {
	Path []string
}

// MetaList is a path followed by a parenthesized list: "#[derive(A, B)]".
type MetaList struct {
	Path   []string
	Nested []NestedMeta
}

// MetaNameValue is a path followed by "=" and a literal: `#[path = "x.rs"]`.
type MetaNameValue struct {
	Path []string
	Lit  Token
}

func (m *MetaPath) MetaPath() []string      { return m.Path }
func (m *MetaList) MetaPath() []string      { return m.Path }
func (m *MetaNameValue) MetaPath() []string { return m.Path }

// NestedMeta is an element of a MetaList: either a Meta or a literal.
type NestedMeta struct {
	Meta Meta
	Lit  *Token
}

// IsPathIdent reports whether m is a single-identifier MetaPath equal to name.
func IsPathIdent(m Meta, name string) bool {
	p, ok := m.(*MetaPath)
	return ok && len(p.Path) == 1 && p.Path[0] == name
}

// ParseMeta interprets the attribute as a Meta. Attributes whose content
// doesn't follow the meta grammar (e.g. "#[rustfmt::skip::attributes(a b)]")
// return an error.
func (a *Attribute) ParseMeta() (Meta, error) {
	if a.Global {
		return nil, a.errorf("meta path cannot start with \"::\"")
	}
	mp := metaParser{attr: a, toks: a.Tokens}
	m, err := mp.parseRest(a.Path)
	if err != nil {
		return nil, err
	}
	if mp.pos < len(mp.toks) {
		return nil, mp.errorf("unexpected token %v", mp.toks[mp.pos])
	}
	return m, nil
}

func (a *Attribute) errorf(format string, args ...any) error {
	return &Error{Filename: a.Filename, Line: a.Pos.Line, Col: a.Pos.Col, Msg: fmt.Sprintf(format, args...)}
}

type metaParser struct {
	attr *Attribute
	toks []Token
	pos  int
}

func (mp *metaParser) errorf(format string, args ...any) error {
	if mp.pos < len(mp.toks) {
		tok := mp.toks[mp.pos]
		return &Error{Filename: mp.attr.Filename, Line: tok.Line, Col: tok.Col, Msg: fmt.Sprintf(format, args...)}
	}
	return mp.attr.errorf(format, args...)
}

func (mp *metaParser) peek() (Token, bool) {
	if mp.pos >= len(mp.toks) {
		return Token{}, false
	}
	return mp.toks[mp.pos], true
}

// parseRest parses whatever follows an already consumed meta path.
func (mp *metaParser) parseRest(path []string) (Meta, error) {
	tok, ok := mp.peek()
	switch {
	case !ok || tok.Is(PUNCT, ",") || tok.Is(PUNCT, ")"):
		return &MetaPath{Path: path}, nil
	case tok.Is(PUNCT, "="):
		mp.pos++
		lit, ok := mp.peek()
		if !ok || lit.Type != LITERAL {
			return nil, mp.errorf("expected literal after \"=\"")
		}
		mp.pos++
		return &MetaNameValue{Path: path, Lit: lit}, nil
	case tok.Is(PUNCT, "("):
		mp.pos++
		list := &MetaList{Path: path}
		for {
			tok, ok := mp.peek()
			if !ok {
				return nil, mp.errorf("expected \")\"")
			}
			if tok.Is(PUNCT, ")") {
				mp.pos++
				return list, nil
			}
			nested, err := mp.parseNested()
			if err != nil {
				return nil, err
			}
			list.Nested = append(list.Nested, nested)
			tok, ok = mp.peek()
			if ok && tok.Is(PUNCT, ",") {
				mp.pos++
			} else if !ok || !tok.Is(PUNCT, ")") {
				return nil, mp.errorf("expected \",\" or \")\"")
			}
		}
	default:
		return nil, mp.errorf("unexpected token %v", tok)
	}
}

func (mp *metaParser) parseNested() (NestedMeta, error) {
	tok, _ := mp.peek()
	if tok.Type == LITERAL {
		mp.pos++
		return NestedMeta{Lit: &tok}, nil
	}
	var path []string
	for {
		tok, ok := mp.peek()
		if !ok || tok.Type != IDENT {
			return NestedMeta{}, mp.errorf("expected identifier")
		}
		path = append(path, tok.Lexeme)
		mp.pos++
		if next, ok := mp.peek(); ok && next.Is(PUNCT, "::") {
			mp.pos++
			continue
		}
		break
	}
	m, err := mp.parseRest(path)
	if err != nil {
		return NestedMeta{}, err
	}
	return NestedMeta{Meta: m}, nil
}

// StringValue returns the value of a (raw) string literal token.
func StringValue(lit Token) (string, error) {
	s := lit.Lexeme
	if lit.Type != LITERAL || s == "" {
		return "", fmt.Errorf("not a string literal: %v", lit)
	}
	if strings.HasPrefix(s, "r") {
		s = strings.TrimPrefix(s, "r")
		hashes := len(s) - len(strings.TrimLeft(s, "#"))
		s = s[hashes:]
		end := strings.LastIndex(s, `"`+strings.Repeat("#", hashes))
		if !strings.HasPrefix(s, `"`) || end < 1 {
			return "", fmt.Errorf("invalid raw string literal: %v", lit)
		}
		return s[1:end], nil
	}
	if !strings.HasPrefix(s, `"`) {
		return "", fmt.Errorf("not a string literal: %v", lit)
	}
	end := strings.LastIndex(s, `"`)
	if end < 1 {
		return "", fmt.Errorf("invalid string literal: %v", lit)
	}
	return unescape(s[1:end])
}

func unescape(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", fmt.Errorf("trailing backslash in %q", s)
		}
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case '0':
			b.WriteByte(0)
		case '\\', '"', '\'':
			b.WriteByte(s[i])
		case 'x':
			if i+2 >= len(s) {
				return "", fmt.Errorf("invalid \\x escape in %q", s)
			}
			v, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
			if err != nil {
				return "", fmt.Errorf("invalid \\x escape in %q", s)
			}
			b.WriteByte(byte(v))
			i += 2
		case 'u':
			end := strings.IndexByte(s[i:], '}')
			if i+1 >= len(s) || s[i+1] != '{' || end == -1 {
				return "", fmt.Errorf("invalid \\u escape in %q", s)
			}
			hex := strings.ReplaceAll(s[i+2:i+end], "_", "")
			v, err := strconv.ParseUint(hex, 16, 32)
			if err != nil || !utf8.ValidRune(rune(v)) {
				return "", fmt.Errorf("invalid \\u escape in %q", s)
			}
			b.WriteRune(rune(v))
			i += end
		case '\n':
			// line continuation: skip the newline and leading whitespace
			for i+1 < len(s) && strings.IndexByte(" \t\r\n", s[i+1]) != -1 {
				i++
			}
		default:
			return "", fmt.Errorf("unknown escape \\%c in %q", s[i], s)
		}
	}
	return b.String(), nil
}

// quoteDoc turns doc comment text into a string literal lexeme.
func quoteDoc(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return `"` + r.Replace(s) + `"`
}
