// Package types maps Rust type expressions to their FFI shim and Dart
// representations.
//
// Each supported type shape is handled by a [Behavior]. Behaviors are
// looked up through a [Registry], which tries them in registration order
// and returns the first one that recognizes a type.
package types

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ffishim/dustr/rust"
)

var (
	ErrUnrecognizedType        = errors.New("unrecognized type")
	ErrUnsupportedShape        = errors.New("unsupported type shape")
	ErrUnimplementedConversion = errors.New("unimplemented conversion")
)

// CallSite is the position a type appears at.
type CallSite uint8

const (
	Argument CallSite = iota
	Return
	Field
)

func (cs CallSite) String() string {
	switch cs {
	case Argument:
		return "argument"
	case Return:
		return "return"
	case Field:
		return "field"
	default:
		panic("invalid call site")
	}
}

func (cs CallSite) MarshalText() ([]byte, error) {
	return []byte(cs.String()), nil
}

// FFIType is a Dart type in dart:ffi notation, e.g. "Pointer<Utf8>" or "Int64".
type FFIType string

// NativeType is an idiomatic Dart type, e.g. "List<int>".
type NativeType string

// Behavior describes how one type shape crosses the FFI boundary.
//
// Is must be pure and total. All other methods may assume Is returned true
// for their argument.
type Behavior interface {
	// Kind is a short lowercase identifier of the behavior ("scalar", "vec", ...).
	Kind() string
	Is(t rust.Type) bool
	// Imports returns the Dart imports needed to use the type in a binding
	// file of Dart package pkg generated for crate crateName.
	Imports(t rust.Type, pkg, crateName string) ([]string, error)
	// Name returns the canonical lowercase name used in generated identifiers.
	Name(t rust.Type) (string, error)
	// Shim returns the dart:ffi type used in NativeFunction signatures.
	Shim(t rust.Type, cs CallSite) (FFIType, error)
	// FFI returns the Dart type of the looked-up FFI function.
	FFI(t rust.Type, cs CallSite) (FFIType, error)
	Native(t rust.Type, cs CallSite) (NativeType, error)
	NativeToFFI(t rust.Type, expr string) (string, error)
	FFIToNative(t rust.Type, expr string) (string, error)
}

// lastSegment returns the last path segment of t, or nil if t is not a
// path type.
func lastSegment(t rust.Type) *rust.PathSegment {
	pt, ok := t.(*rust.PathType)
	if !ok {
		return nil
	}
	return pt.Last()
}

// isSameID reports whether t is a path type whose last segment is one of
// names. Qualification is not checked: "foo::Duration" matches "Duration".
func isSameID(t rust.Type, names ...string) bool {
	seg := lastSegment(t)
	return seg != nil && slices.Contains(names, seg.Name)
}

// subtype returns the first generic type argument of t, as in "T" for
// "Option<T>".
func subtype(t rust.Type) (rust.Type, error) {
	seg := lastSegment(t)
	if seg == nil || seg.Parenthesized || len(seg.Args) == 0 {
		return nil, fmt.Errorf("%w: %v: missing type argument", ErrUnsupportedShape, rust.TypeString(t))
	}
	return seg.Args[0], nil
}

// appendImports appends the imports in add not already contained in dst.
func appendImports(dst []string, add ...string) []string {
	for _, imp := range add {
		if !slices.Contains(dst, imp) {
			dst = append(dst, imp)
		}
	}
	return dst
}

func unimplemented(b Behavior, t rust.Type, what string) error {
	return fmt.Errorf("%w: %v %v: %v", ErrUnimplementedConversion, b.Kind(), what, rust.TypeString(t))
}
