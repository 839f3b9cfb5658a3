package binding

import (
	"errors"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/ffishim/dustr/config"
	"github.com/ffishim/dustr/config/rules"
	"github.com/ffishim/dustr/module"
	"github.com/ffishim/dustr/rust"
	"github.com/ffishim/dustr/types"
)

const geoSource = `
/// A point.
#[derive(FFIShim)]
pub struct Point {
    pub x: f32,
    pub y: f32,
}

#[derive(FFIShim)]
pub enum Shape {
    Circle(Point, f64),
    Empty,
}

#[ffishim_function]
pub fn make_point(x: f32, y: f32) -> Point {
    Point { x, y }
}

/// Loads shapes from a file.
#[ffishim_function]
pub fn load(file_path: String) -> Result<Vec<Shape>, String> {
    todo!()
}

#[ffishim_function]
pub fn parse(input: Result<u8, String>) -> u8 {
    0
}

#[ffishim_function]
pub fn maybe(x: u8) -> Option<Result<u8, String>> {
    None
}

pub mod internal {
    #[ffishim_function]
    pub fn secret() -> bool {
        true
    }
}
`

func buildModule(t *testing.T, src string) *module.Module {
	t.Helper()
	f, err := rust.ParseFile("src/lib.rs", []byte(src))
	require.NoError(t, err)
	m, err := (&module.Builder{}).FromItems("geo", "geo", "src/lib.rs", f.Items)
	require.NoError(t, err)
	return m
}

func keys(items []*Item) []string {
	var res []string
	for _, it := range items {
		res = append(res, it.Key)
	}
	return res
}

func TestCollect(t *testing.T) {
	require := require.New(t)

	var rename config.Rule
	rename.Select.Kind = "enum"
	rename.Select.Name = regexp.MustCompile(`Shape`)
	rename.Actions.Rename = "GeoShape"

	bl := config.NewBindingList()
	bl.Enabled["geo::internal::secret"] = false
	bl.Renames["geo::make_point"] = "newPoint"

	set, err := Collect(buildModule(t, geoSource), types.Default, Options{
		Config:      &config.Config{Rules: []config.Rule{rename}},
		BindingList: bl,
	})
	require.NotNil(set)
	require.Equal("geo", set.Crate)
	require.Equal("geo", set.Package)
	require.Equal([]string{"geo::Point", "geo::Shape", "geo::make_point", "geo::load"}, keys(set.Items))
	require.Equal([]string{"geo::parse", "geo::maybe"}, keys(set.Skipped))
	require.Equal([]string{"geo::internal::secret"}, keys(set.Disabled))

	var bErr *Error
	require.ErrorAs(err, &bErr)
	require.ErrorIs(err, types.ErrUnimplementedConversion)
	require.ErrorIs(err, types.ErrUnsupportedShape)
	require.False(errors.Is(err, types.ErrUnrecognizedType))
	require.Equal("2 errors, 2 items skipped", err.Error())
	require.Contains(bErr.String(), "Skipped 2 items:\n  geo::parse: argument \"input\": ")
	require.Contains(bErr.String(), "\n  geo::maybe: return: ")

	point := set.Items[0]
	require.Equal(rules.ItemStruct, point.Kind)
	require.Equal("Point", point.DartName)
	require.Equal("A point.", point.Doc)
	require.Empty(point.Imports)
	require.Equal([]Member{
		{Name: "x", DartName: "x", Mapping: Mapping{
			Site: types.Field, Type: "f32", Kind: "scalar", Name: "f32",
			Shim: "Float", FFI: "double", Native: "double", ToFFI: "x", ToNative: "x",
		}},
		{Name: "y", DartName: "y", Mapping: Mapping{
			Site: types.Field, Type: "f32", Kind: "scalar", Name: "f32",
			Shim: "Float", FFI: "double", Native: "double", ToFFI: "y", ToNative: "y",
		}},
	}, point.Members)

	shape := set.Items[1]
	require.Equal(rules.ItemEnum, shape.Kind)
	require.Equal("GeoShape", shape.DartName)
	require.Len(shape.Members, 2)
	circle := shape.Members[0]
	require.Equal("Circle", circle.Variant)
	require.Equal("field0", circle.DartName)
	require.Equal("user", circle.Mapping.Kind)
	require.Equal("field0.toFFI()", circle.Mapping.ToFFI)
	require.Equal("Point.fromFFI(field0)", circle.Mapping.ToNative)
	require.Equal([]string{"package:geo/geo.dart"}, shape.Imports)

	makePoint := set.Items[2]
	require.Equal("newPoint", makePoint.DartName)
	require.Len(makePoint.Members, 3)
	require.Equal(types.Argument, makePoint.Members[0].Mapping.Site)
	require.Equal("x", makePoint.Members[0].Mapping.ToFFI)
	require.Empty(makePoint.Members[0].Mapping.ToNative)
	ret := makePoint.Members[2]
	require.Equal("", ret.Name)
	require.Equal("result", ret.DartName)
	require.Equal(types.Return, ret.Mapping.Site)
	require.Empty(ret.Mapping.ToFFI)
	require.Equal("Point.fromFFI(result)", ret.Mapping.ToNative)

	load := set.Items[3]
	require.Equal("load", load.DartName)
	require.Equal("Loads shapes from a file.", load.Doc)
	require.Equal("filePath", load.Members[0].DartName)
	require.Equal("filePath.toNativeUtf8()", load.Members[0].Mapping.ToFFI)
	require.Equal("result_vec_shape", load.Members[1].Mapping.Name)
	require.Equal(types.NativeType("Result<List<GeoShape>>"), load.Members[1].Mapping.Native)
	require.Equal("unwrapResult(result, (v) => v.ref.toList().map((v) => GeoShape.fromFFI(v)).toList())",
		load.Members[1].Mapping.ToNative)
	want := []string{
		"dart:ffi",
		"package:ffi/ffi.dart",
		"package:geo/dustr/array.dart",
		"package:geo/dustr/result.dart",
		"package:geo/geo.dart",
	}
	require.Equal(want, load.Imports)
	require.Equal(want, set.Imports())

	require.Empty(set.Skipped[0].Members)

	docs := set.Docs()
	require.Len(docs, 7)
	require.Equal("Loads shapes from a file.", docs["geo::load"])
	require.Contains(docs, "geo::internal::secret")
	require.Contains(docs, "geo::maybe")
}

func TestCollectPackage(t *testing.T) {
	require := require.New(t)

	set, err := Collect(buildModule(t, `
#[derive(FFIShim)]
pub struct Line {
    pub points: Vec<Point>,
}

pub mod geom {
    #[derive(FFIShim)]
    pub struct Point(f64, f64);
}
`), types.Default, Options{Package: "geo_dart"})
	require.NoError(err)
	require.Equal("geo_dart", set.Package)
	require.Equal([]string{
		"dart:ffi",
		"package:geo_dart/dustr/array.dart",
		"package:geo_dart/geo/geom.dart",
	}, set.Imports())
	require.Equal([]string{"field0", "field1"}, []string{
		set.Items[1].Members[0].DartName,
		set.Items[1].Members[1].DartName,
	})
}

func TestCollectUnrecognizedType(t *testing.T) {
	require := require.New(t)

	set, err := Collect(buildModule(t, `
#[derive(FFIShim)]
pub struct Fine {
    pub x: u8,
}

#[ffishim_function]
pub fn count(items: usize) -> u8 {
    0
}
`), types.Default, Options{})
	require.Nil(set)
	require.ErrorIs(err, types.ErrUnrecognizedType)
	require.ErrorContains(err, `geo::count: argument "items": unrecognized type: usize`)
	var bErr *Error
	require.False(errors.As(err, &bErr))
}

func TestCollectNameConflict(t *testing.T) {
	require := require.New(t)

	_, err := Collect(buildModule(t, `
#[derive(FFIShim)]
pub struct Point {}

#[derive(FFIShim)]
#[ffishim(rename = "Point")]
pub struct Vertex {}
`), types.Default, Options{})
	require.ErrorContains(err, "duplicate struct: geo::Point")
}

func TestCollectSingleError(t *testing.T) {
	require := require.New(t)

	set, err := Collect(buildModule(t, `
#[ffishim_function]
pub fn check(r: Result<(), String>) {}
`), types.Default, Options{})
	require.NotNil(set)
	require.Empty(set.Items)
	require.Equal(
		`geo::check: argument "r": unimplemented conversion: result native to ffi: Result<(), String>`,
		err.Error(),
	)
}

func TestMapType(t *testing.T) {
	require := require.New(t)

	ty, err := rust.ParseType("Option<Duration>")
	require.NoError(err)

	mp, err := MapType(types.Default, ty, types.Argument, "timeout", "app", "app")
	require.NoError(err)
	require.Equal("option_duration", mp.Name)
	require.Equal(types.FFIType("Pointer<Int64>"), mp.Shim)
	require.Equal(types.NativeType("Duration?"), mp.Native)
	require.Equal("timeout == null ? nullptr : (calloc<Int64>()..value = timeout!.inMilliseconds)", mp.ToFFI)
	require.Empty(mp.ToNative)

	mp, err = MapType(types.Default, ty, types.Return, "ret", "app", "app")
	require.NoError(err)
	require.Empty(mp.ToFFI)
	require.Equal("ret == nullptr ? null : Duration(milliseconds: ret.value)", mp.ToNative)

	require.True(IsRecoverable(types.ErrUnsupportedShape))
	require.False(IsRecoverable(types.ErrUnrecognizedType))
}

func findItem(items []*Item, key string) *Item {
	for _, it := range items {
		if it.Key == key {
			return it
		}
	}
	return nil
}

func buildLayout(t *testing.T) *module.Module {
	t.Helper()
	ar, err := txtar.ParseFile("../module/testdata/layout.txtar")
	require.NoError(t, err)
	fsys := fstest.MapFS{}
	for _, f := range ar.Files {
		fsys[f.Name] = &fstest.MapFile{Data: f.Data}
	}
	m, err := (&module.Builder{FS: fsys}).FromCrate("shapes")
	require.NoError(t, err)
	return m
}

func TestCollectRenamedUserType(t *testing.T) {
	require := require.New(t)

	set, _ := Collect(buildLayout(t), types.Default, Options{})
	require.NotNil(set)
	require.Equal("ShapeKind", findItem(set.Items, "shapes::Kind").DartName)

	area := findItem(set.Items, "shapes::dir::area")
	require.NotNil(area)
	kind := area.Members[0]
	require.Equal("kind", kind.Name)
	require.Equal(types.NativeType("ShapeKind"), kind.Mapping.Native)
	require.Equal(types.FFIType("Pointer<ShapeKind>"), kind.Mapping.Shim)
	require.Equal("kind.toFFI()", kind.Mapping.ToFFI)
	require.Equal("kind", kind.Mapping.Name)
	require.Equal([]string{"package:shapes/shapes.dart"}, kind.Mapping.Imports)

	bl := config.NewBindingList()
	bl.Renames["shapes::Kind"] = "Form"
	set, _ = Collect(buildLayout(t), types.Default, Options{BindingList: bl})
	require.NotNil(set)
	require.Equal("Form", findItem(set.Items, "shapes::Kind").DartName)
	area = findItem(set.Items, "shapes::dir::area")
	require.Equal(types.NativeType("Form"), area.Members[0].Mapping.Native)
	require.Equal(types.FFIType("Pointer<Form>"), area.Members[0].Mapping.FFI)
}


func TestCollectRawIdentifiers(t *testing.T) {
	require := require.New(t)

	set, err := Collect(buildModule(t, `
#[ffishim_function]
pub fn r#type(r#in: u8, max_len: u8) -> u8 {
    0
}
`), types.Default, Options{})
	require.NoError(err)
	require.Equal([]string{"geo::type"}, keys(set.Items))
	fn := set.Items[0]
	require.Equal("type", fn.RustName)
	require.Equal("type", fn.DartName)
	require.Equal("in", fn.Members[0].Name)
	require.Equal("in", fn.Members[0].DartName)
	require.Equal("maxLen", fn.Members[1].DartName)
}
