package rust

import (
	"slices"
	"strings"
)

// Type is a type expression. Implemented by *PathType, *RefType, *PtrType,
// *SliceType, *ArrayType, *TupleType, *NeverType, *InferType,
// *TraitObjectType and *FnPtrType.
//
// Type values are immutable once parsed.
type Type interface {
	// String returns the canonical source form of the type.
	String() string
	typeNode()
}

type PathType struct {
	// QSelf is the self type of a qualified path ("<T as Trait>::Name").
	QSelf *QSelf
	// Global is true for paths starting with "::".
	Global   bool
	Segments []PathSegment
}

type QSelf struct {
	Type  Type
	Trait *PathType // nil for "<T>::Name"
}

type PathSegment struct {
	Name string
	// Args are the generic type arguments ("Option<T>" -> [T]). Lifetime and
	// const arguments are kept in Lifetimes and Consts.
	Args      []Type
	Lifetimes []string
	Consts    []string
	// Bindings are associated type bindings ("Iterator<Item = T>").
	Bindings []Binding
	// Parenthesized is set for Fn-sugar arguments ("Fn(A, B) -> C").
	Parenthesized bool
	Output        Type
}

type Binding struct {
	Name string
	Type Type
}

type RefType struct {
	Lifetime string
	Mut      bool
	Elem     Type
}

type PtrType struct {
	Mut  bool
	Elem Type
}

type SliceType struct {
	Elem Type
}

type ArrayType struct {
	Elem Type
	Len  string
}

// TupleType with no elements is the unit type "()".
type TupleType struct {
	Elems []Type
}

type NeverType struct{}

type InferType struct{}

type TraitObjectType struct {
	Impl   bool // "impl Trait" instead of "dyn Trait"
	Bounds []string
}

type FnPtrType struct {
	Unsafe bool
	ABI    string
	Inputs []Type
	Output Type
}

func (*PathType) typeNode()        {}
func (*RefType) typeNode()         {}
func (*PtrType) typeNode()         {}
func (*SliceType) typeNode()       {}
func (*ArrayType) typeNode()       {}
func (*TupleType) typeNode()       {}
func (*NeverType) typeNode()       {}
func (*InferType) typeNode()       {}
func (*TraitObjectType) typeNode() {}
func (*FnPtrType) typeNode()       {}

// Last returns the last path segment, or nil for an empty path.
func (t *PathType) Last() *PathSegment {
	if len(t.Segments) == 0 {
		return nil
	}
	return &t.Segments[len(t.Segments)-1]
}

// IsIdent reports whether the path is exactly the single identifier name,
// without generic arguments, like syn's Path::is_ident.
func (t *PathType) IsIdent(name string) bool {
	return t.QSelf == nil && !t.Global && len(t.Segments) == 1 &&
		t.Segments[0].Name == name && !t.Segments[0].hasArgs()
}

func (s *PathSegment) hasArgs() bool {
	return len(s.Args) > 0 || len(s.Lifetimes) > 0 || len(s.Consts) > 0 ||
		len(s.Bindings) > 0 || s.Parenthesized
}

func (t *PathType) String() string {
	var b strings.Builder
	if t.QSelf != nil {
		b.WriteString("<")
		b.WriteString(t.QSelf.Type.String())
		if t.QSelf.Trait != nil {
			b.WriteString(" as ")
			b.WriteString(t.QSelf.Trait.String())
		}
		b.WriteString(">")
	}
	if t.Global || t.QSelf != nil {
		b.WriteString("::")
	}
	for i, seg := range t.Segments {
		if i > 0 {
			b.WriteString("::")
		}
		b.WriteString(seg.Name)
		if seg.Parenthesized {
			b.WriteString("(")
			writeTypes(&b, seg.Args)
			b.WriteString(")")
			if seg.Output != nil {
				b.WriteString(" -> ")
				b.WriteString(seg.Output.String())
			}
			continue
		}
		if !seg.hasArgs() {
			continue
		}
		args := slices.Clone(seg.Lifetimes)
		for _, arg := range seg.Args {
			args = append(args, arg.String())
		}
		args = append(args, seg.Consts...)
		for _, bnd := range seg.Bindings {
			args = append(args, bnd.Name+" = "+bnd.Type.String())
		}
		b.WriteString("<")
		b.WriteString(strings.Join(args, ", "))
		b.WriteString(">")
	}
	return b.String()
}

func (t *RefType) String() string {
	s := "&"
	if t.Lifetime != "" {
		s += t.Lifetime + " "
	}
	if t.Mut {
		s += "mut "
	}
	return s + t.Elem.String()
}

func (t *PtrType) String() string {
	if t.Mut {
		return "*mut " + t.Elem.String()
	}
	return "*const " + t.Elem.String()
}

func (t *SliceType) String() string { return "[" + t.Elem.String() + "]" }

func (t *ArrayType) String() string { return "[" + t.Elem.String() + "; " + t.Len + "]" }

func (t *TupleType) String() string {
	var b strings.Builder
	b.WriteString("(")
	writeTypes(&b, t.Elems)
	if len(t.Elems) == 1 {
		b.WriteString(",")
	}
	b.WriteString(")")
	return b.String()
}

func (*NeverType) String() string { return "!" }

func (*InferType) String() string { return "_" }

func (t *TraitObjectType) String() string {
	kw := "dyn "
	if t.Impl {
		kw = "impl "
	}
	return kw + strings.Join(t.Bounds, " + ")
}

func (t *FnPtrType) String() string {
	var b strings.Builder
	if t.Unsafe {
		b.WriteString("unsafe ")
	}
	if t.ABI != "" {
		b.WriteString("extern " + t.ABI + " ")
	}
	b.WriteString("fn(")
	writeTypes(&b, t.Inputs)
	b.WriteString(")")
	if t.Output != nil {
		b.WriteString(" -> ")
		b.WriteString(t.Output.String())
	}
	return b.String()
}

// IsUnit reports whether t is the unit type "()".
func IsUnit(t Type) bool {
	tt, ok := t.(*TupleType)
	return ok && len(tt.Elems) == 0
}

func writeTypes(b *strings.Builder, ts []Type) {
	for i, t := range ts {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(t.String())
	}
}

// TypeString returns the canonical form of t, or "()" for a nil type.
func TypeString(t Type) string {
	if t == nil {
		return "()"
	}
	return t.String()
}
