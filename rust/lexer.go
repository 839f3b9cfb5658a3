package rust

import (
	"fmt"
	"strings"
	"unicode"
)

type TokenType int

const (
	EOF TokenType = iota
	IDENT
	LIFETIME
	LITERAL
	PUNCT
	// DOC is a doc comment ("///", "//!", "/**", "/*!"). Lexeme holds the
	// comment text without its markers.
	DOC
)

func (t TokenType) String() string {
	switch t {
	case EOF:
		return "end of file"
	case IDENT:
		return "identifier"
	case LIFETIME:
		return "lifetime"
	case LITERAL:
		return "literal"
	case PUNCT:
		return "punctuation"
	case DOC:
		return "doc comment"
	default:
		return fmt.Sprintf("TokenType(%d)", int(t))
	}
}

type Token struct {
	Type   TokenType
	Lexeme string
	Inner  bool // inner doc comment ("//!" or "/*!")
	Line   int
	Col    int
	// Raw marks a raw identifier such as r#type. Lexeme is the name without
	// the "r#" prefix.
	Raw bool
}

// Is reports whether the token has the given type and lexeme. Raw
// identifiers never match, so r#fn is not the keyword fn.
func (t Token) Is(typ TokenType, lexeme string) bool {
	return t.Type == typ && t.Lexeme == lexeme && !t.Raw
}

func (t Token) String() string {
	if t.Type == EOF {
		return t.Type.String()
	}
	return fmt.Sprintf("%q", t.Lexeme)
}

// Error is a syntax error at a position in a source file.
type Error struct {
	Filename string
	Line     int
	Col      int
	Msg      string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v:%v:%v: %v", e.Filename, e.Line, e.Col, e.Msg)
}

// Lexer splits Rust source into tokens. Whitespace and non-doc comments are
// dropped. Punctuation is emitted one character at a time, except for "::",
// "->" and "=>", so that ">>" closing nested generics needs no special case.
type Lexer struct {
	filename string
	source   []rune
	pos      int
	line     int
	col      int
}

func NewLexer(filename, source string) *Lexer {
	return &Lexer{
		filename: filename,
		source:   []rune(source),
		line:     1,
		col:      1,
	}
}

// Tokenize returns all tokens of source, terminated by an EOF token.
func Tokenize(filename, source string) ([]Token, error) {
	l := NewLexer(filename, source)
	var toks []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Type == EOF {
			return toks, nil
		}
	}
}

func (l *Lexer) Next() (Token, error) {
	for {
		l.skipWhitespace()
		if l.isAtEnd() {
			return Token{Type: EOF, Line: l.line, Col: l.col}, nil
		}

		line, col := l.line, l.col
		if l.peek() == '/' && l.peekAt(1) == '/' {
			if tok, ok := l.lineComment(line, col); ok {
				return tok, nil
			}
			continue
		}
		if l.peek() == '/' && l.peekAt(1) == '*' {
			tok, ok, err := l.blockComment(line, col)
			if err != nil {
				return Token{}, err
			}
			if ok {
				return tok, nil
			}
			continue
		}
		return l.scanToken(line, col)
	}
}

func (l *Lexer) scanToken(line, col int) (Token, error) {
	start := l.pos
	c := l.peek()

	switch {
	case c == 'r' && l.peekAt(1) == '#' && isIdentStart(l.peekAt(2)):
		l.advance()
		l.advance()
		for !l.isAtEnd() && isIdentContinue(l.peek()) {
			l.advance()
		}
		tok := l.token(IDENT, start+2, line, col)
		tok.Raw = true
		return tok, nil
	case c == 'r' && (l.peekAt(1) == '"' || l.peekAt(1) == '#'),
		(c == 'b' || c == 'c') && l.peekAt(1) == 'r' && (l.peekAt(2) == '"' || l.peekAt(2) == '#'):
		if c != 'r' {
			l.advance()
		}
		l.advance()
		if err := l.rawString(line, col); err != nil {
			return Token{}, err
		}
		return l.token(LITERAL, start, line, col), nil
	case (c == 'b' || c == 'c') && l.peekAt(1) == '"':
		l.advance()
		if err := l.quoted('"', line, col); err != nil {
			return Token{}, err
		}
		return l.token(LITERAL, start, line, col), nil
	case c == 'b' && l.peekAt(1) == '\'':
		l.advance()
		if err := l.quoted('\'', line, col); err != nil {
			return Token{}, err
		}
		return l.token(LITERAL, start, line, col), nil
	case isIdentStart(c):
		for !l.isAtEnd() && isIdentContinue(l.peek()) {
			l.advance()
		}
		return l.token(IDENT, start, line, col), nil
	case unicode.IsDigit(c):
		l.number()
		return l.token(LITERAL, start, line, col), nil
	case c == '"':
		if err := l.quoted('"', line, col); err != nil {
			return Token{}, err
		}
		return l.token(LITERAL, start, line, col), nil
	case c == '\'':
		if l.peekAt(1) == '\\' || (l.peekAt(2) == '\'' && l.peekAt(1) != '\n') {
			if err := l.quoted('\'', line, col); err != nil {
				return Token{}, err
			}
			return l.token(LITERAL, start, line, col), nil
		}
		if !isIdentStart(l.peekAt(1)) {
			return Token{}, l.errorAt(line, col, "invalid character literal")
		}
		l.advance()
		for !l.isAtEnd() && isIdentContinue(l.peek()) {
			l.advance()
		}
		return l.token(LIFETIME, start, line, col), nil
	}

	switch {
	case c == ':' && l.peekAt(1) == ':',
		c == '-' && l.peekAt(1) == '>',
		c == '=' && l.peekAt(1) == '>':
		l.advance()
		l.advance()
		return l.token(PUNCT, start, line, col), nil
	case strings.ContainsRune("#!$%&()*+,-./:;<=>?@[]^{|}~", c):
		l.advance()
		return l.token(PUNCT, start, line, col), nil
	}
	return Token{}, l.errorAt(line, col, fmt.Sprintf("unexpected character %q", c))
}

func (l *Lexer) lineComment(line, col int) (Token, bool) {
	l.advance()
	l.advance()
	doc, inner := false, false
	switch {
	case l.peek() == '/' && l.peekAt(1) != '/':
		doc = true
		l.advance()
	case l.peek() == '!':
		doc, inner = true, true
		l.advance()
	}
	start := l.pos
	for !l.isAtEnd() && l.peek() != '\n' {
		l.advance()
	}
	if !doc {
		return Token{}, false
	}
	text := strings.TrimSuffix(string(l.source[start:l.pos]), "\r")
	return Token{Type: DOC, Lexeme: text, Inner: inner, Line: line, Col: col}, true
}

func (l *Lexer) blockComment(line, col int) (Token, bool, error) {
	l.advance()
	l.advance()
	doc, inner := false, false
	switch {
	case l.peek() == '*' && l.peekAt(1) != '*' && l.peekAt(1) != '/':
		doc = true
		l.advance()
	case l.peek() == '!':
		doc, inner = true, true
		l.advance()
	}
	start := l.pos
	depth := 1
	for depth > 0 {
		if l.isAtEnd() {
			return Token{}, false, l.errorAt(line, col, "unterminated block comment")
		}
		switch {
		case l.peek() == '/' && l.peekAt(1) == '*':
			l.advance()
			l.advance()
			depth++
		case l.peek() == '*' && l.peekAt(1) == '/':
			l.advance()
			l.advance()
			depth--
		default:
			l.advance()
		}
	}
	if !doc {
		return Token{}, false, nil
	}
	text := string(l.source[start : l.pos-2])
	return Token{Type: DOC, Lexeme: text, Inner: inner, Line: line, Col: col}, true, nil
}

// quoted consumes a string or character literal delimited by quote.
func (l *Lexer) quoted(quote rune, line, col int) error {
	l.advance() // opening quote
	for {
		if l.isAtEnd() {
			return l.errorAt(line, col, "unterminated literal")
		}
		c := l.advance()
		if c == '\\' {
			if l.isAtEnd() {
				return l.errorAt(line, col, "unterminated literal")
			}
			l.advance()
			continue
		}
		if c == quote {
			break
		}
	}
	l.suffix()
	return nil
}

// rawString consumes r#"..."# after the leading 'r' (or "br"/"cr").
func (l *Lexer) rawString(line, col int) error {
	hashes := 0
	for l.peek() == '#' {
		hashes++
		l.advance()
	}
	if l.peek() != '"' {
		return l.errorAt(line, col, "invalid raw string literal")
	}
	l.advance()
	for {
		if l.isAtEnd() {
			return l.errorAt(line, col, "unterminated raw string literal")
		}
		if l.advance() != '"' {
			continue
		}
		n := 0
		for n < hashes && l.peek() == '#' {
			n++
			l.advance()
		}
		if n == hashes {
			break
		}
	}
	l.suffix()
	return nil
}

func (l *Lexer) number() {
	for !l.isAtEnd() && isIdentContinue(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && unicode.IsDigit(l.peekAt(1)) {
		l.advance()
		for !l.isAtEnd() && isIdentContinue(l.peek()) {
			l.advance()
		}
	}
}

// suffix consumes a literal suffix such as the "u8" in b'a'u8.
func (l *Lexer) suffix() {
	if isIdentStart(l.peek()) {
		for !l.isAtEnd() && isIdentContinue(l.peek()) {
			l.advance()
		}
	}
}

func (l *Lexer) skipWhitespace() {
	for !l.isAtEnd() && unicode.IsSpace(l.peek()) {
		l.advance()
	}
}

func (l *Lexer) token(typ TokenType, start, line, col int) Token {
	return Token{
		Type:   typ,
		Lexeme: string(l.source[start:l.pos]),
		Line:   line,
		Col:    col,
	}
}

func (l *Lexer) errorAt(line, col int, msg string) error {
	return &Error{Filename: l.filename, Line: line, Col: col, Msg: msg}
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

func (l *Lexer) peek() rune {
	return l.peekAt(0)
}

func (l *Lexer) peekAt(n int) rune {
	if l.pos+n >= len(l.source) {
		return 0
	}
	return l.source[l.pos+n]
}

func (l *Lexer) advance() rune {
	c := l.source[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func isIdentStart(c rune) bool {
	return c == '_' || unicode.IsLetter(c)
}

func isIdentContinue(c rune) bool {
	return c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c)
}
