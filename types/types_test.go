package types

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ffishim/dustr/rust"
)

func mustType(t *testing.T, s string) rust.Type {
	t.Helper()
	typ, err := rust.ParseType(s)
	require.NoError(t, err, s)
	return typ
}

func TestDispatchScalars(t *testing.T) {
	for _, name := range []string{"f32", "f64", "u8", "u16", "u32", "u64", "i8", "i16", "i32", "i64"} {
		b, err := Default.Dispatch(mustType(t, name))
		require.NoError(t, err, name)
		require.IsType(t, Scalar{}, b, name)
	}
	for _, name := range []string{"usize", "isize", "Unknown", "char", "&mut str", "[u8; 4]", "(u8, u8)"} {
		_, err := Default.Dispatch(mustType(t, name))
		require.ErrorIs(t, err, ErrUnrecognizedType, name)
	}
}

func TestDispatchOrder(t *testing.T) {
	require := require.New(t)

	var kinds []string
	for _, b := range Default.WithUserTypes(map[string]UserType{"Point": {}}).Behaviors() {
		kinds = append(kinds, b.Kind())
	}
	require.Equal([]string{"result", "option", "vec", "duration", "string", "bool", "scalar", "user"}, kinds)

	for in, kind := range map[string]string{
		"Result<u8, String>":    "result",
		"Option<Vec<u8>>":       "option",
		"Vec<Option<u8>>":       "vec",
		"std::time::Duration":   "duration",
		"String":                "string",
		"&'a str":               "string",
		"bool":                  "bool",
		"mymod::u8":             "scalar",
		"::core::primitive::u8": "scalar",
	} {
		b, err := Default.Dispatch(mustType(t, in))
		require.NoError(err, in)
		require.Equal(kind, b.Kind(), in)
	}
}

func TestIsPure(t *testing.T) {
	for _, b := range Default.Behaviors() {
		for _, s := range []string{"u8", "Option<u8>", "Duration", "usize"} {
			a, c := mustType(t, s), mustType(t, s)
			require.Equal(t, b.Is(a), b.Is(c), "%v %v", b.Kind(), s)
			require.Equal(t, b.Is(a), b.Is(a), "%v %v", b.Kind(), s)
		}
	}
}

func TestScalar(t *testing.T) {
	require := require.New(t)

	for _, tc := range []struct {
		name   string
		shim   FFIType
		native NativeType
	}{
		{"f32", "Float", "double"},
		{"f64", "Double", "double"},
		{"u16", "Uint16", "int"},
		{"i64", "Int64", "int"},
	} {
		typ := mustType(t, tc.name)
		b, err := Default.Dispatch(typ)
		require.NoError(err)

		name, err := b.Name(typ)
		require.NoError(err)
		require.Equal(tc.name, name)

		shim, err := b.Shim(typ, Argument)
		require.NoError(err)
		require.Equal(tc.shim, shim)

		ffi, err := b.FFI(typ, Argument)
		require.NoError(err)
		require.Equal(FFIType(tc.native), ffi)

		native, err := b.Native(typ, Return)
		require.NoError(err)
		require.Equal(tc.native, native)

		imps, err := b.Imports(typ, "app", "geo")
		require.NoError(err)
		require.Empty(imps)
	}
}

func TestRoundTrip(t *testing.T) {
	for in, want := range map[string]string{
		"u8":       "x",
		"f64":      "x",
		"i32":      "x",
		"Duration": "Duration(milliseconds: x.inMilliseconds)",
		"bool":     "(x ? 1 : 0) != 0",
		"String":   "x.toNativeUtf8().toDartString()",
	} {
		typ := mustType(t, in)
		b, err := Default.Dispatch(typ)
		require.NoError(t, err, in)

		toFFI, err := b.NativeToFFI(typ, "x")
		require.NoError(t, err, in)
		back, err := b.FFIToNative(typ, toFFI)
		require.NoError(t, err, in)
		require.Equal(t, want, back, in)
	}
}

func TestDuration(t *testing.T) {
	require := require.New(t)

	typ := mustType(t, "Duration")
	b, err := Default.Dispatch(typ)
	require.NoError(err)

	shim, err := b.Shim(typ, Field)
	require.NoError(err)
	require.Equal(FFIType("Int64"), shim)
	ffi, err := b.FFI(typ, Field)
	require.NoError(err)
	require.Equal(FFIType("int"), ffi)
	native, err := b.Native(typ, Field)
	require.NoError(err)
	require.Equal(NativeType("Duration"), native)

	conv, err := b.NativeToFFI(typ, "d")
	require.NoError(err)
	require.Equal("d.inMilliseconds", conv)
	conv, err = b.FFIToNative(typ, "ms")
	require.NoError(err)
	require.Equal("Duration(milliseconds: ms)", conv)
}

func TestResultNaming(t *testing.T) {
	require := require.New(t)

	typ := mustType(t, "Result<Option<i32>, String>")
	b, err := Default.Dispatch(typ)
	require.NoError(err)
	require.Equal("result", b.Kind())
	_, err = b.Name(typ)
	require.ErrorIs(err, ErrUnsupportedShape)

	typ = mustType(t, "Option<Result<i32, String>>")
	b, err = Default.Dispatch(typ)
	require.NoError(err)
	_, err = b.Name(typ)
	require.ErrorIs(err, ErrUnsupportedShape)

	typ = mustType(t, "Result<Vec<u8>, String>")
	b, err = Default.Dispatch(typ)
	require.NoError(err)
	name, err := b.Name(typ)
	require.NoError(err)
	require.Equal("result_vec_u8", name)

	typ = mustType(t, "Result<(), String>")
	name, err = b.Name(typ)
	require.NoError(err)
	require.Equal("result_void", name)
	native, err := b.Native(typ, Return)
	require.NoError(err)
	require.Equal(NativeType("Result<void>"), native)
}

func TestResultConversions(t *testing.T) {
	require := require.New(t)

	typ := mustType(t, "Result<Duration, String>")
	b, err := Default.Dispatch(typ)
	require.NoError(err)

	_, err = b.NativeToFFI(typ, "x")
	require.ErrorIs(err, ErrUnimplementedConversion)

	conv, err := b.FFIToNative(typ, "r")
	require.NoError(err)
	require.Equal("unwrapResult(r, (v) => Duration(milliseconds: v))", conv)

	native, err := b.Native(typ, Return)
	require.NoError(err)
	require.Equal(NativeType("Result<Duration>"), native)
	shim, err := b.Shim(typ, Return)
	require.NoError(err)
	require.Equal(FFIType("Pointer<Result>"), shim)

	imps, err := b.Imports(typ, "app", "geo")
	require.NoError(err)
	require.Equal([]string{"dart:ffi", "package:app/dustr/result.dart"}, imps)
}

func TestOption(t *testing.T) {
	require := require.New(t)

	typ := mustType(t, "Option<u8>")
	b, err := Default.Dispatch(typ)
	require.NoError(err)

	shim, err := b.Shim(typ, Argument)
	require.NoError(err)
	require.Equal(FFIType("Pointer<Uint8>"), shim)
	native, err := b.Native(typ, Argument)
	require.NoError(err)
	require.Equal(NativeType("int?"), native)
	conv, err := b.NativeToFFI(typ, "x")
	require.NoError(err)
	require.Equal("x == null ? nullptr : (calloc<Uint8>()..value = x!)", conv)
	conv, err = b.FFIToNative(typ, "p")
	require.NoError(err)
	require.Equal("p == nullptr ? null : p.value", conv)
	name, err := b.Name(typ)
	require.NoError(err)
	require.Equal("option_u8", name)

	typ = mustType(t, "Option<String>")
	shim, err = b.Shim(typ, Field)
	require.NoError(err)
	require.Equal(FFIType("Pointer<Utf8>"), shim)
	conv, err = b.NativeToFFI(typ, "s")
	require.NoError(err)
	require.Equal("s == null ? nullptr : s!.toNativeUtf8()", conv)
	conv, err = b.FFIToNative(typ, "p")
	require.NoError(err)
	require.Equal("p == nullptr ? null : p.toDartString()", conv)

	_, err = b.Name(mustType(t, "Option"))
	require.ErrorIs(err, ErrUnsupportedShape)
	_, err = b.Native(mustType(t, "Option<usize>"), Field)
	require.ErrorIs(err, ErrUnrecognizedType)
}

func TestVec(t *testing.T) {
	require := require.New(t)

	typ := mustType(t, "Vec<bool>")
	b, err := Default.Dispatch(typ)
	require.NoError(err)

	native, err := b.Native(typ, Field)
	require.NoError(err)
	require.Equal(NativeType("List<bool>"), native)
	conv, err := b.NativeToFFI(typ, "xs")
	require.NoError(err)
	require.Equal("Array.fromList(xs.map((v) => (v ? 1 : 0)).toList())", conv)
	conv, err = b.FFIToNative(typ, "p")
	require.NoError(err)
	require.Equal("p.ref.toList().map((v) => v != 0).toList()", conv)
}

func TestImportsDeduplicated(t *testing.T) {
	require := require.New(t)

	typ := mustType(t, "Option<Vec<String>>")
	b, err := Default.Dispatch(typ)
	require.NoError(err)
	imps, err := b.Imports(typ, "app", "geo")
	require.NoError(err)
	require.Equal([]string{"dart:ffi", "package:ffi/ffi.dart", "package:app/dustr/array.dart"}, imps)
}

func TestUserTypes(t *testing.T) {
	require := require.New(t)

	reg := Default.WithUserTypes(map[string]UserType{
		"Point":     {},
		"ShapeKind": {Module: []string{"shapes", "kinds"}},
		"Kind":      {Module: []string{"shapes"}, DartName: "GeoKind"},
	})

	_, err := Default.Dispatch(mustType(t, "Point"))
	require.ErrorIs(err, ErrUnrecognizedType)

	typ := mustType(t, "Vec<Point>")
	b, err := reg.Dispatch(typ)
	require.NoError(err)
	native, err := b.Native(typ, Field)
	require.NoError(err)
	require.Equal(NativeType("List<Point>"), native)
	imps, err := b.Imports(typ, "app", "geo")
	require.NoError(err)
	require.Equal([]string{"dart:ffi", "package:app/dustr/array.dart", "package:app/geo.dart"}, imps)

	typ = mustType(t, "ShapeKind")
	b, err = reg.Dispatch(typ)
	require.NoError(err)
	require.Equal("user", b.Kind())
	name, err := b.Name(typ)
	require.NoError(err)
	require.Equal("shape_kind", name)
	shim, err := b.Shim(typ, Argument)
	require.NoError(err)
	require.Equal(FFIType("Pointer<ShapeKind>"), shim)
	imps, err = b.Imports(typ, "app", "geo")
	require.NoError(err)
	require.Equal([]string{"package:app/geo/shapes/kinds.dart"}, imps)
	conv, err := b.NativeToFFI(typ, "k")
	require.NoError(err)
	require.Equal("k.toFFI()", conv)
	conv, err = b.FFIToNative(typ, "p")
	require.NoError(err)
	require.Equal("ShapeKind.fromFFI(p)", conv)

	typ = mustType(t, "Option<Kind>")
	b, err = reg.Dispatch(typ)
	require.NoError(err)
	native, err = b.Native(typ, Return)
	require.NoError(err)
	require.Equal(NativeType("GeoKind?"), native)
	b, err = reg.Dispatch(mustType(t, "Kind"))
	require.NoError(err)
	shim, err = b.Shim(mustType(t, "Kind"), Field)
	require.NoError(err)
	require.Equal(FFIType("Pointer<GeoKind>"), shim)
	conv, err = b.FFIToNative(mustType(t, "Kind"), "p")
	require.NoError(err)
	require.Equal("GeoKind.fromFFI(p)", conv)
	name, err = b.Name(mustType(t, "Kind"))
	require.NoError(err)
	require.Equal("kind", name)

	// user types never shadow builtins
	b, err = reg.Dispatch(mustType(t, "u8"))
	require.NoError(err)
	require.Equal("scalar", b.Kind())
}

func TestCallSiteString(t *testing.T) {
	require.Equal(t, "argument", Argument.String())
	require.Equal(t, "return", Return.String())
	require.Equal(t, "field", Field.String())
}
