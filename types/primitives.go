package types

import (
	"fmt"

	"github.com/ffishim/dustr/rust"
)

// Bool is passed as a Uint8 that is 0 or 1.
type Bool struct{}

func NewBool(Dispatcher) Behavior { return Bool{} }

func (Bool) Kind() string { return "bool" }

func (Bool) Is(t rust.Type) bool {
	pt, ok := t.(*rust.PathType)
	return ok && pt.IsIdent("bool")
}

func (Bool) Imports(rust.Type, string, string) ([]string, error) { return nil, nil }

func (Bool) Name(rust.Type) (string, error) { return "bool", nil }

func (Bool) Shim(rust.Type, CallSite) (FFIType, error) { return "Uint8", nil }

func (Bool) FFI(rust.Type, CallSite) (FFIType, error) { return "int", nil }

func (Bool) Native(rust.Type, CallSite) (NativeType, error) { return "bool", nil }

func (Bool) NativeToFFI(_ rust.Type, expr string) (string, error) {
	return fmt.Sprintf("(%v ? 1 : 0)", expr), nil
}

func (Bool) FFIToNative(_ rust.Type, expr string) (string, error) {
	return fmt.Sprintf("%v != 0", expr), nil
}

// String handles owned "String" and borrowed "&str", both passed as a
// NUL-terminated UTF-8 pointer.
type String struct{}

func NewString(Dispatcher) Behavior { return String{} }

func (String) Kind() string { return "string" }

func (String) Is(t rust.Type) bool {
	if ref, ok := t.(*rust.RefType); ok {
		pt, ok := ref.Elem.(*rust.PathType)
		return ok && !ref.Mut && pt.IsIdent("str")
	}
	seg := lastSegment(t)
	return seg != nil && seg.Name == "String" && len(seg.Args) == 0
}

func (String) Imports(rust.Type, string, string) ([]string, error) {
	return []string{"package:ffi/ffi.dart"}, nil
}

func (String) Name(rust.Type) (string, error) { return "string", nil }

func (String) Shim(rust.Type, CallSite) (FFIType, error) { return "Pointer<Utf8>", nil }

func (String) FFI(rust.Type, CallSite) (FFIType, error) { return "Pointer<Utf8>", nil }

func (String) Native(rust.Type, CallSite) (NativeType, error) { return "String", nil }

func (String) NativeToFFI(_ rust.Type, expr string) (string, error) {
	return fmt.Sprintf("%v.toNativeUtf8()", expr), nil
}

func (String) FFIToNative(_ rust.Type, expr string) (string, error) {
	return fmt.Sprintf("%v.toDartString()", expr), nil
}

// Duration is std::time::Duration, passed as whole milliseconds.
type Duration struct{}

func NewDuration(Dispatcher) Behavior { return Duration{} }

func (Duration) Kind() string { return "duration" }

func (Duration) Is(t rust.Type) bool { return isSameID(t, "Duration") }

func (Duration) Imports(rust.Type, string, string) ([]string, error) { return nil, nil }

func (Duration) Name(rust.Type) (string, error) { return "duration", nil }

func (Duration) Shim(rust.Type, CallSite) (FFIType, error) { return "Int64", nil }

func (Duration) FFI(rust.Type, CallSite) (FFIType, error) { return "int", nil }

func (Duration) Native(rust.Type, CallSite) (NativeType, error) { return "Duration", nil }

func (Duration) NativeToFFI(_ rust.Type, expr string) (string, error) {
	return fmt.Sprintf("%v.inMilliseconds", expr), nil
}

func (Duration) FFIToNative(_ rust.Type, expr string) (string, error) {
	return fmt.Sprintf("Duration(milliseconds: %v)", expr), nil
}
