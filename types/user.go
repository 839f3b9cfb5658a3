package types

import (
	"fmt"
	"maps"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/ffishim/dustr/rust"
)

// UserType is a struct or enum exposed by the crate.
type UserType struct {
	// Module is the module path below the crate root.
	Module []string
	// DartName is the name of the Dart class wrapping the type. Defaults to
	// the Rust name.
	DartName string
}

// User handles structs and enums exposed by the crate itself. They are
// passed by pointer to a generated FFI struct and wrapped in a Dart class.
type User struct {
	types map[string]UserType
}

// NewUser returns a factory for a User behavior recognizing the keys of
// userTypes, which are Rust type names.
func NewUser(userTypes map[string]UserType) Factory {
	uts := maps.Clone(userTypes)
	return func(Dispatcher) Behavior { return &User{types: uts} }
}

func (*User) Kind() string { return "user" }

func (b *User) Is(t rust.Type) bool {
	seg := lastSegment(t)
	if seg == nil || len(seg.Args) > 0 || seg.Parenthesized {
		return false
	}
	_, ok := b.types[seg.Name]
	return ok
}

// dartName returns the Dart class name of t.
func (b *User) dartName(t rust.Type) string {
	name := lastSegment(t).Name
	if ut := b.types[name]; ut.DartName != "" {
		return ut.DartName
	}
	return name
}

func (b *User) Imports(t rust.Type, pkg, crateName string) ([]string, error) {
	path := append([]string{crateName}, b.types[lastSegment(t).Name].Module...)
	return []string{fmt.Sprintf("package:%v/%v.dart", pkg, strings.Join(path, "/"))}, nil
}

func (*User) Name(t rust.Type) (string, error) {
	return strcase.ToSnake(lastSegment(t).Name), nil
}

func (b *User) Shim(t rust.Type, _ CallSite) (FFIType, error) {
	return FFIType("Pointer<" + b.dartName(t) + ">"), nil
}

func (b *User) FFI(t rust.Type, cs CallSite) (FFIType, error) { return b.Shim(t, cs) }

func (b *User) Native(t rust.Type, _ CallSite) (NativeType, error) {
	return NativeType(b.dartName(t)), nil
}

func (*User) NativeToFFI(_ rust.Type, expr string) (string, error) {
	return expr + ".toFFI()", nil
}

func (b *User) FFIToNative(t rust.Type, expr string) (string, error) {
	return fmt.Sprintf("%v.fromFFI(%v)", b.dartName(t), expr), nil
}
