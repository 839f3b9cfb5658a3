package rust

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	require := require.New(t)

	toks, err := Tokenize("a.rs", "pub fn r#match<'a>(x: &'a str) -> Vec<Vec<u8>> { b'x'; r#\"raw\"#; 'c' }")
	require.NoError(err)

	var lexemes []string
	for _, tok := range toks {
		lexemes = append(lexemes, tok.Lexeme)
	}
	require.Equal([]string{
		"pub", "fn", "match", "<", "'a", ">", "(", "x", ":", "&", "'a", "str", ")",
		"->", "Vec", "<", "Vec", "<", "u8", ">", ">", "{", "b'x'", ";", `r#"raw"#`, ";", "'c'", "}", "",
	}, lexemes)
	require.True(toks[2].Raw)
	require.False(toks[2].Is(IDENT, "match"))
	require.Equal(LIFETIME, toks[4].Type)
	require.Equal(LITERAL, toks[22].Type)
	require.Equal(EOF, toks[len(toks)-1].Type)
}

func TestTokenizeComments(t *testing.T) {
	require := require.New(t)

	src := "//! crate doc\n// plain\n/* nested /* block */ comment */\n/// item doc\n/** block doc */\nstruct A;"
	toks, err := Tokenize("a.rs", src)
	require.NoError(err)
	require.Len(toks, 7)

	require.Equal(DOC, toks[0].Type)
	require.True(toks[0].Inner)
	require.Equal(" crate doc", toks[0].Lexeme)
	require.Equal(DOC, toks[1].Type)
	require.False(toks[1].Inner)
	require.Equal(" item doc", toks[1].Lexeme)
	require.Equal(4, toks[1].Line)
	require.Equal(" block doc ", toks[2].Lexeme)
	require.True(toks[3].Is(IDENT, "struct"))
}

func TestTokenizeErrors(t *testing.T) {
	for _, src := range []string{
		`"unterminated`,
		"/* unterminated",
		"let x = \u00a7;",
	} {
		_, err := Tokenize("bad.rs", src)
		var rerr *Error
		require.ErrorAs(t, err, &rerr, src)
		require.Equal(t, "bad.rs", rerr.Filename)
	}
}

func TestParseFile(t *testing.T) {
	require := require.New(t)

	src := `
#![allow(dead_code)]
//! Crate docs.

use std::time::Duration;

/// A point.
#[derive(Clone, FFIShim)]
pub struct Point {
    /// X coordinate.
    pub x: f64,
    pub(crate) y: f64,
}

#[derive(FFIShim)]
pub struct Wrapper(pub u32, Option<String>);

pub struct Unit;

#[derive(FFIShim)]
pub enum Shape {
    Empty,
    Circle { radius: f64 },
    Poly(Vec<Point>),
    Tagged = 1 << 2,
}

impl Point {
    pub fn norm(&self) -> f64 { (self.x * self.x + self.y * self.y).sqrt() }
}

#[ffishim_function]
pub fn add(a: u8, mut b: u8) -> u8 { a + b }

pub unsafe extern "C" fn raw(p: *const u8) {}

mod inner {
    pub struct Hidden<T> where T: Clone { t: T }
}

mod external;

macro_rules! m { () => {}; }
m!();
const MAX: usize = 3;
`
	f, err := ParseFile("lib.rs", []byte(src))
	require.NoError(err)
	require.Len(f.Attrs, 2)
	require.Equal("Crate docs.", DocString([]Attribute{{Path: []string{"doc"}, Tokens: f.Attrs[1].Tokens}}))

	var kinds []string
	for _, item := range f.Items {
		switch it := item.(type) {
		case *ItemOther:
			kinds = append(kinds, it.Kind)
		case *ItemStruct:
			kinds = append(kinds, "struct")
		case *ItemEnum:
			kinds = append(kinds, "enum")
		case *ItemFn:
			kinds = append(kinds, "fn")
		case *ItemMod:
			kinds = append(kinds, "mod")
		}
	}
	require.Equal([]string{"use", "struct", "struct", "struct", "enum", "impl", "fn", "fn", "mod", "mod", "macro_rules", "m", "const"}, kinds)

	point := f.Items[1].(*ItemStruct)
	require.Equal("Point", point.Name)
	require.Equal("pub", point.Vis)
	require.Equal("A point.", DocString(point.Attrs))
	require.Equal(FieldsNamed, point.Fields.Kind)
	require.Len(point.Fields.List, 2)
	require.Equal("x", point.Fields.List[0].Name)
	require.Equal("X coordinate.", DocString(point.Fields.List[0].Attrs))
	require.Equal("f64", point.Fields.List[0].Type.String())
	require.Equal("pub(crate)", point.Fields.List[1].Vis)

	wrapper := f.Items[2].(*ItemStruct)
	require.Equal(FieldsUnnamed, wrapper.Fields.Kind)
	require.Equal("u32", wrapper.Fields.List[0].Type.String())
	require.Equal("Option<String>", wrapper.Fields.List[1].Type.String())

	require.Equal(FieldsUnit, f.Items[3].(*ItemStruct).Fields.Kind)

	shape := f.Items[4].(*ItemEnum)
	require.Len(shape.Variants, 4)
	require.Equal(FieldsUnit, shape.Variants[0].Fields.Kind)
	require.Equal(FieldsNamed, shape.Variants[1].Fields.Kind)
	require.Equal("Vec<Point>", shape.Variants[2].Fields.List[0].Type.String())
	require.Equal("1<<2", shape.Variants[3].Discriminant)

	add := f.Items[6].(*ItemFn)
	require.Equal("add", add.Name)
	require.True(add.HasBody)
	require.Len(add.Inputs, 2)
	require.Equal("a", add.Inputs[0].Name)
	require.Equal("b", add.Inputs[1].Name)
	require.Equal("mut b", add.Inputs[1].Pattern)
	require.Equal("u8", add.Output.String())
	require.True(add.Attrs[0].IsIdent("ffishim_function"))

	raw := f.Items[7].(*ItemFn)
	require.True(raw.Unsafe)
	require.Equal(`"C"`, raw.ABI)
	require.Nil(raw.Output)
	require.Equal("*const u8", raw.Inputs[0].Type.String())

	inner := f.Items[8].(*ItemMod)
	require.NotNil(inner.Content)
	hidden := inner.Content.Items[0].(*ItemStruct)
	require.False(hidden.Generics.IsEmpty())
	require.True(hidden.Generics.Where)

	require.Nil(f.Items[9].(*ItemMod).Content)
	require.Equal("MAX", f.Items[12].ItemName())
}

func TestParseFnReceivers(t *testing.T) {
	require := require.New(t)

	f, err := ParseFile("a.rs", []byte(`
fn a(&self) {}
fn b(&'a mut self, x: u8) {}
fn c(self: Box<Self>) {}
fn d((x, y): (u8, u8), _: u8) {}
`))
	require.NoError(err)

	a := f.Items[0].(*ItemFn)
	require.True(a.Inputs[0].Self)
	require.Equal("&self", a.Inputs[0].Pattern)

	b := f.Items[1].(*ItemFn)
	require.True(b.Inputs[0].Self)
	require.False(b.Inputs[1].Self)

	c := f.Items[2].(*ItemFn)
	require.True(c.Inputs[0].Self)
	require.Equal("Box<Self>", c.Inputs[0].Type.String())

	d := f.Items[3].(*ItemFn)
	require.Equal("", d.Inputs[0].Name)
	require.Equal("(x,y)", d.Inputs[0].Pattern)
	require.Equal("(u8, u8)", d.Inputs[0].Type.String())
	require.Equal("", d.Inputs[1].Name)
}

func TestParseRawIdentifiers(t *testing.T) {
	require := require.New(t)

	f, err := ParseFile("a.rs", []byte(`
pub struct r#struct {
    pub r#type: u8,
}

pub fn r#fn(r#in: r#struct, mut r#as: u8) {}

pub mod r#mod {}
`))
	require.NoError(err)
	require.Len(f.Items, 3)

	st := f.Items[0].(*ItemStruct)
	require.Equal("struct", st.Name)
	require.Equal("type", st.Fields.List[0].Name)

	fn := f.Items[1].(*ItemFn)
	require.Equal("fn", fn.Name)
	require.Equal("in", fn.Inputs[0].Name)
	require.Equal("r#in", fn.Inputs[0].Pattern)
	require.Equal("struct", fn.Inputs[0].Type.String())
	require.Equal("as", fn.Inputs[1].Name)

	require.Equal("mod", f.Items[2].(*ItemMod).Name)
}

func TestParseFileErrors(t *testing.T) {
	for _, src := range []string{
		"struct A {",
		"pub struct A { x u8 }",
		"fn f(x: u8",
		"mod m { struct A; ",
		"#[derive(Clone)]",
		"impl A { ) }",
	} {
		_, err := ParseFile("bad.rs", []byte(src))
		var rerr *Error
		require.True(t, errors.As(err, &rerr), src)
	}
}

func TestParseType(t *testing.T) {
	for _, tc := range []struct {
		in, out string
	}{
		{"u8", "u8"},
		{"Option < Vec<u8> >", "Option<Vec<u8>>"},
		{"::std::time::Duration", "::std::time::Duration"},
		{"&'a mut [u8]", "&'a mut [u8]"},
		{"[u8; 4]", "[u8; 4]"},
		{"()", "()"},
		{"(u8,)", "(u8,)"},
		{"(u8)", "u8"},
		{"Result<(), String>", "Result<(), String>"},
		{"Box<dyn Fn(u8) -> u8 + Send + 'static>", "Box<dyn Fn(u8) -> u8 + Send + 'static>"},
		{"impl Iterator<Item = u8>", "impl Iterator<Item = u8>"},
		{"<T as Trait>::Assoc", "<T as Trait>::Assoc"},
		{"unsafe extern \"C\" fn(x: u8, ...) -> u8", "unsafe extern \"C\" fn(u8) -> u8"},
		{"Vec::<u8>", "Vec<u8>"},
		{"Foo<'a, 3, {N}>", "Foo<'a, 3, {N}>"},
		{"!", "!"},
		{"*mut *const u8", "*mut *const u8"},
	} {
		typ, err := ParseType(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.out, typ.String(), tc.in)
	}
}

func TestPathTypeIsIdent(t *testing.T) {
	require := require.New(t)

	typ, err := ParseType("String")
	require.NoError(err)
	require.True(typ.(*PathType).IsIdent("String"))

	typ, err = ParseType("std::string::String")
	require.NoError(err)
	require.False(typ.(*PathType).IsIdent("String"))
	require.Equal("String", typ.(*PathType).Last().Name)

	typ, err = ParseType("Vec<u8>")
	require.NoError(err)
	require.False(typ.(*PathType).IsIdent("Vec"))
}

func TestParseMeta(t *testing.T) {
	require := require.New(t)

	f, err := ParseFile("a.rs", []byte(`
#[derive(Debug, serde::Serialize, FFIShim)]
#[path = "other.rs"]
#[ffishim(opaque)]
#[cfg(all(unix, feature = "x"))]
struct A;
`))
	require.NoError(err)
	attrs := f.Items[0].ItemAttrs()
	require.Len(attrs, 4)

	m, err := attrs[0].ParseMeta()
	require.NoError(err)
	list := m.(*MetaList)
	require.Equal([]string{"derive"}, list.Path)
	require.Len(list.Nested, 3)
	require.True(IsPathIdent(list.Nested[0].Meta, "Debug"))
	require.False(IsPathIdent(list.Nested[1].Meta, "Serialize"))
	require.True(IsPathIdent(list.Nested[2].Meta, "FFIShim"))

	m, err = attrs[1].ParseMeta()
	require.NoError(err)
	nv := m.(*MetaNameValue)
	s, err := StringValue(nv.Lit)
	require.NoError(err)
	require.Equal("other.rs", s)

	m, err = attrs[2].ParseMeta()
	require.NoError(err)
	require.True(IsPathIdent(m.(*MetaList).Nested[0].Meta, "opaque"))

	m, err = attrs[3].ParseMeta()
	require.NoError(err)
	all := m.(*MetaList).Nested[0].Meta.(*MetaList)
	require.Len(all.Nested, 2)
	require.IsType(&MetaNameValue{}, all.Nested[1].Meta)
}

func TestStringValue(t *testing.T) {
	for _, tc := range []struct {
		lit, want string
	}{
		{`"plain"`, "plain"},
		{`"a\tb\n\"q\""`, "a\tb\n\"q\""},
		{`"\x41\u{1F600}"`, "A\U0001F600"},
		{`r"C:\dir"`, `C:\dir`},
		{`r#"say "hi""#`, `say "hi"`},
		{"\"one \\\n    two\"", "one two"},
	} {
		got, err := StringValue(Token{Type: LITERAL, Lexeme: tc.lit})
		require.NoError(t, err, tc.lit)
		require.Equal(t, tc.want, got, tc.lit)
	}

	_, err := StringValue(Token{Type: LITERAL, Lexeme: "42"})
	require.Error(t, err)
}
