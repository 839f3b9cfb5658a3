package types

import (
	"fmt"
	"strings"

	"github.com/ffishim/dustr/rust"
)

// inner dispatches the first type argument of t.
func inner(d Dispatcher, t rust.Type) (rust.Type, Behavior, error) {
	sub, err := subtype(t)
	if err != nil {
		return nil, nil, err
	}
	b, err := d.Dispatch(sub)
	if err != nil {
		return nil, nil, err
	}
	return sub, b, nil
}

func innerImports(d Dispatcher, t rust.Type, own []string, pkg, crateName string) ([]string, error) {
	sub, b, err := inner(d, t)
	if err != nil {
		return nil, err
	}
	imps, err := b.Imports(sub, pkg, crateName)
	if err != nil {
		return nil, err
	}
	return appendImports(appendImports(nil, own...), imps...), nil
}

func isPointer(t FFIType) bool { return strings.HasPrefix(string(t), "Pointer<") }

// Option is passed as a nullable pointer. Inner types that are not already
// pointers are boxed in a heap-allocated cell.
type Option struct {
	d Dispatcher
}

func NewOption(d Dispatcher) Behavior { return &Option{d: d} }

func (*Option) Kind() string { return "option" }

func (*Option) Is(t rust.Type) bool { return isSameID(t, "Option") }

func (b *Option) Imports(t rust.Type, pkg, crateName string) ([]string, error) {
	return innerImports(b.d, t, []string{"dart:ffi", "package:ffi/ffi.dart"}, pkg, crateName)
}

func (b *Option) Name(t rust.Type) (string, error) {
	sub, ib, err := inner(b.d, t)
	if err != nil {
		return "", err
	}
	if _, ok := ib.(*Result); ok {
		return "", fmt.Errorf("%w: %v: option of results not supported", ErrUnsupportedShape, rust.TypeString(t))
	}
	name, err := ib.Name(sub)
	if err != nil {
		return "", err
	}
	return "option_" + name, nil
}

func (b *Option) Shim(t rust.Type, cs CallSite) (FFIType, error) {
	sub, ib, err := inner(b.d, t)
	if err != nil {
		return "", err
	}
	shim, err := ib.Shim(sub, cs)
	if err != nil {
		return "", err
	}
	if isPointer(shim) {
		return shim, nil
	}
	return "Pointer<" + shim + ">", nil
}

func (b *Option) FFI(t rust.Type, cs CallSite) (FFIType, error) {
	return b.Shim(t, cs)
}

func (b *Option) Native(t rust.Type, cs CallSite) (NativeType, error) {
	sub, ib, err := inner(b.d, t)
	if err != nil {
		return "", err
	}
	native, err := ib.Native(sub, cs)
	if err != nil {
		return "", err
	}
	return native + "?", nil
}

func (b *Option) NativeToFFI(t rust.Type, expr string) (string, error) {
	sub, ib, err := inner(b.d, t)
	if err != nil {
		return "", err
	}
	conv, err := ib.NativeToFFI(sub, expr+"!")
	if err != nil {
		return "", err
	}
	shim, err := ib.Shim(sub, Field)
	if err != nil {
		return "", err
	}
	if isPointer(shim) {
		return fmt.Sprintf("%v == null ? nullptr : %v", expr, conv), nil
	}
	return fmt.Sprintf("%v == null ? nullptr : (calloc<%v>()..value = %v)", expr, shim, conv), nil
}

func (b *Option) FFIToNative(t rust.Type, expr string) (string, error) {
	sub, ib, err := inner(b.d, t)
	if err != nil {
		return "", err
	}
	shim, err := ib.Shim(sub, Field)
	if err != nil {
		return "", err
	}
	value := expr
	if !isPointer(shim) {
		value = expr + ".value"
	}
	conv, err := ib.FFIToNative(sub, value)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%v == nullptr ? null : %v", expr, conv), nil
}

// Result is passed as a pointer to a Result struct holding either the
// value or an error message. Results only travel from Rust to Dart.
//
// "Result<(), E>" maps to Result<void>.
type Result struct {
	d Dispatcher
}

func NewResult(d Dispatcher) Behavior { return &Result{d: d} }

func (*Result) Kind() string { return "result" }

func (*Result) Is(t rust.Type) bool { return isSameID(t, "Result") }

func isUnitArg(t rust.Type) bool {
	sub, err := subtype(t)
	return err == nil && rust.IsUnit(sub)
}

func (b *Result) Imports(t rust.Type, pkg, crateName string) ([]string, error) {
	own := []string{"dart:ffi", fmt.Sprintf("package:%v/dustr/result.dart", pkg)}
	if isUnitArg(t) {
		return own, nil
	}
	return innerImports(b.d, t, own, pkg, crateName)
}

func (b *Result) Name(t rust.Type) (string, error) {
	if isUnitArg(t) {
		return "result_void", nil
	}
	sub, ib, err := inner(b.d, t)
	if err != nil {
		return "", err
	}
	switch ib.(type) {
	case *Option, *Result:
		return "", fmt.Errorf("%w: %v: result of %vs not supported", ErrUnsupportedShape, rust.TypeString(t), ib.Kind())
	}
	name, err := ib.Name(sub)
	if err != nil {
		return "", err
	}
	return "result_" + name, nil
}

func (*Result) Shim(rust.Type, CallSite) (FFIType, error) { return "Pointer<Result>", nil }

func (*Result) FFI(rust.Type, CallSite) (FFIType, error) { return "Pointer<Result>", nil }

func (b *Result) Native(t rust.Type, cs CallSite) (NativeType, error) {
	if isUnitArg(t) {
		return "Result<void>", nil
	}
	sub, ib, err := inner(b.d, t)
	if err != nil {
		return "", err
	}
	native, err := ib.Native(sub, cs)
	if err != nil {
		return "", err
	}
	return "Result<" + native + ">", nil
}

func (b *Result) NativeToFFI(t rust.Type, _ string) (string, error) {
	return "", unimplemented(b, t, "native to ffi")
}

func (b *Result) FFIToNative(t rust.Type, expr string) (string, error) {
	if isUnitArg(t) {
		return fmt.Sprintf("unwrapResult(%v, (v) {})", expr), nil
	}
	sub, ib, err := inner(b.d, t)
	if err != nil {
		return "", err
	}
	conv, err := ib.FFIToNative(sub, "v")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("unwrapResult(%v, (v) => %v)", expr, conv), nil
}

// Vec is passed as a pointer to an Array of converted elements.
type Vec struct {
	d Dispatcher
}

func NewVec(d Dispatcher) Behavior { return &Vec{d: d} }

func (*Vec) Kind() string { return "vec" }

func (*Vec) Is(t rust.Type) bool { return isSameID(t, "Vec") }

func (b *Vec) Imports(t rust.Type, pkg, crateName string) ([]string, error) {
	own := []string{"dart:ffi", fmt.Sprintf("package:%v/dustr/array.dart", pkg)}
	return innerImports(b.d, t, own, pkg, crateName)
}

func (b *Vec) Name(t rust.Type) (string, error) {
	sub, ib, err := inner(b.d, t)
	if err != nil {
		return "", err
	}
	name, err := ib.Name(sub)
	if err != nil {
		return "", err
	}
	return "vec_" + name, nil
}

func (*Vec) Shim(rust.Type, CallSite) (FFIType, error) { return "Pointer<Array>", nil }

func (*Vec) FFI(rust.Type, CallSite) (FFIType, error) { return "Pointer<Array>", nil }

func (b *Vec) Native(t rust.Type, cs CallSite) (NativeType, error) {
	sub, ib, err := inner(b.d, t)
	if err != nil {
		return "", err
	}
	native, err := ib.Native(sub, cs)
	if err != nil {
		return "", err
	}
	return "List<" + native + ">", nil
}

func (b *Vec) NativeToFFI(t rust.Type, expr string) (string, error) {
	sub, ib, err := inner(b.d, t)
	if err != nil {
		return "", err
	}
	conv, err := ib.NativeToFFI(sub, "v")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Array.fromList(%v.map((v) => %v).toList())", expr, conv), nil
}

func (b *Vec) FFIToNative(t rust.Type, expr string) (string, error) {
	sub, ib, err := inner(b.d, t)
	if err != nil {
		return "", err
	}
	conv, err := ib.FFIToNative(sub, "v")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%v.ref.toList().map((v) => %v).toList()", expr, conv), nil
}
