package types

import (
	"github.com/ffishim/dustr/rust"
)

type scalarInfo struct {
	shim FFIType
	dart NativeType
}

// usize and isize are left out on purpose: their width depends on the
// target, so there is no fixed dart:ffi type for them.
var scalars = map[string]scalarInfo{
	"f32": {"Float", "double"},
	"f64": {"Double", "double"},
	"u8":  {"Uint8", "int"},
	"u16": {"Uint16", "int"},
	"u32": {"Uint32", "int"},
	"u64": {"Uint64", "int"},
	"i8":  {"Int8", "int"},
	"i16": {"Int16", "int"},
	"i32": {"Int32", "int"},
	"i64": {"Int64", "int"},
}

// Scalar handles the fixed-width numeric primitives. Values cross the
// boundary unchanged.
//
// Only the last path segment is compared, so a user type named like a
// scalar ("mymod::u8") is treated as that scalar.
type Scalar struct{}

func NewScalar(Dispatcher) Behavior { return Scalar{} }

func (Scalar) Kind() string { return "scalar" }

func (Scalar) Is(t rust.Type) bool {
	seg := lastSegment(t)
	if seg == nil || len(seg.Args) > 0 || seg.Parenthesized {
		return false
	}
	_, ok := scalars[seg.Name]
	return ok
}

func (Scalar) info(t rust.Type) scalarInfo {
	return scalars[lastSegment(t).Name]
}

func (Scalar) Imports(rust.Type, string, string) ([]string, error) { return nil, nil }

func (Scalar) Name(t rust.Type) (string, error) { return lastSegment(t).Name, nil }

func (s Scalar) Shim(t rust.Type, _ CallSite) (FFIType, error) { return s.info(t).shim, nil }

func (s Scalar) FFI(t rust.Type, _ CallSite) (FFIType, error) { return FFIType(s.info(t).dart), nil }

func (s Scalar) Native(t rust.Type, _ CallSite) (NativeType, error) { return s.info(t).dart, nil }

func (Scalar) NativeToFFI(_ rust.Type, expr string) (string, error) { return expr, nil }

func (Scalar) FFIToNative(_ rust.Type, expr string) (string, error) { return expr, nil }
