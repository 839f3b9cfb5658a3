// Package binding evaluates the type behaviors of every exposed item of a
// module tree. The result is the data a renderer needs to generate the FFI
// shim and the Dart wrapper of each item.
package binding

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/iancoleman/strcase"
	"github.com/rs/zerolog"

	"github.com/ffishim/dustr/config"
	"github.com/ffishim/dustr/config/rules"
	"github.com/ffishim/dustr/module"
	"github.com/ffishim/dustr/rust"
	"github.com/ffishim/dustr/types"
)

// Mapping is the result of dispatching one type expression at one call
// site.
type Mapping struct {
	Site    types.CallSite   `json:"site" yaml:"site"`
	Type    string           `json:"type" yaml:"type"`
	Kind    string           `json:"kind" yaml:"kind"`
	Name    string           `json:"name" yaml:"name"`
	Imports []string         `json:"imports,omitempty" yaml:"imports,omitempty"`
	Shim    types.FFIType    `json:"shim" yaml:"shim"`
	FFI     types.FFIType    `json:"ffi" yaml:"ffi"`
	Native  types.NativeType `json:"native" yaml:"native"`
	// ToFFI converts the member's Dart value to its FFI representation.
	// Set for arguments and fields.
	ToFFI string `json:"toFFI,omitempty" yaml:"to_ffi,omitempty"`
	// ToNative converts the member's FFI value to Dart. Set for return
	// values and fields.
	ToNative string `json:"toNative,omitempty" yaml:"to_native,omitempty"`
}

// Member is a struct field, variant field, function parameter or return
// value.
type Member struct {
	// Variant is the enum variant the field belongs to.
	Variant string `json:"variant,omitempty" yaml:"variant,omitempty"`
	// Name is the Rust name, "" for return values.
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	DartName string  `json:"dartName" yaml:"dart_name"`
	Mapping  Mapping `json:"mapping" yaml:"mapping"`
}

// Item is an exposed struct, enum or function.
type Item struct {
	// Key is the Rust path of the item, e.g. "geo::shapes::Circle".
	Key      string         `json:"key" yaml:"key"`
	Kind     rules.ItemKind `json:"kind" yaml:"kind"`
	RustName string         `json:"rustName" yaml:"rust_name"`
	DartName string         `json:"dartName" yaml:"dart_name"`
	Doc      string         `json:"doc,omitempty" yaml:"doc,omitempty"`
	Opaque   bool           `json:"opaque,omitempty" yaml:"opaque,omitempty"`
	Members  []Member       `json:"members,omitempty" yaml:"members,omitempty"`
	// Imports is the sorted union of the imports of all members.
	Imports []string `json:"imports,omitempty" yaml:"imports,omitempty"`

	mod  *module.Module
	data *module.Data
	fn   *module.Function
	spec rules.ItemSpec
}

// Set is the outcome of [Collect].
type Set struct {
	Crate   string  `json:"crate" yaml:"crate"`
	Package string  `json:"package" yaml:"package"`
	Items   []*Item `json:"items" yaml:"items"`
	// Disabled items were excluded by a rule or the bindings list.
	Disabled []*Item `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	// Skipped items have a member whose type cannot be bound yet.
	Skipped []*Item `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Imports returns the sorted union of the imports of all bound items.
func (s *Set) Imports() []string {
	imports := map[string]struct{}{}
	for _, it := range s.Items {
		for _, imp := range it.Imports {
			imports[imp] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(imports))
}

// Docs maps the key of every item, bound or not, to its doc comment.
func (s *Set) Docs() map[string]string {
	res := map[string]string{}
	for _, items := range [][]*Item{s.Items, s.Disabled, s.Skipped} {
		for _, it := range items {
			res[it.Key] = it.Doc
		}
	}
	return res
}

type Options struct {
	// Package is the Dart package imports are generated for. Defaults to
	// the crate name.
	Package string
	// Config supplies the rename and include rules. Optional.
	Config *config.Config
	// BindingList disables and renames items by key. Optional.
	BindingList *config.BindingList
	// Logger defaults to a no-op logger.
	Logger zerolog.Logger
}

// Collect evaluates the behavior of every member of every exposed item in
// m. The structs and enums of m are added to reg as user types, under their
// final Dart names.
//
// An unrecognized type aborts collection. Unsupported shapes and
// unimplemented conversions only skip the affected item: a *[Error]
// listing them is returned together with the Set.
func Collect(m *module.Module, reg *types.Registry, opts Options) (*Set, error) {
	pkg := opts.Package
	if pkg == "" {
		pkg = m.CrateName
	}
	set := &Set{Crate: m.CrateName, Package: pkg}

	items := newItems(m)
	specs := make([]rules.ItemSpec, 0, len(items))
	for _, it := range items {
		specs = append(specs, it.spec)
	}
	c := opts.Config
	if c == nil {
		c = &config.Config{}
	}
	names, included, err := rules.Execute(c, specs)
	if err != nil {
		return nil, err
	}

	enabled := make(map[*Item]bool, len(items))
	dartNames := map[string]string{}
	for _, it := range items {
		it.DartName = names[it.spec.Key()]
		enabled[it] = included[it.spec.Key()]
		if bl := opts.BindingList; bl != nil {
			if rename, ok := bl.Renames[it.Key]; ok {
				it.DartName = rename
			}
			if !bl.IsEnabled(it.Key) {
				enabled[it] = false
			}
		}
		dartNames[it.Key] = it.DartName
	}
	reg = reg.WithUserTypes(userTypes(m, dartNames))

	var resErr *multierror.Error
	for _, it := range items {
		if !enabled[it] {
			opts.Logger.Debug().Str("item", it.Key).Msg("Binding disabled")
			set.Disabled = append(set.Disabled, it)
			continue
		}

		errs, err := it.evaluate(reg, pkg, m.CrateName)
		if err != nil {
			return nil, err
		}
		if len(errs) > 0 {
			opts.Logger.Warn().Str("item", it.Key).Int("errors", len(errs)).Msg("Skipping item")
			resErr = multierror.Append(resErr, errs...)
			set.Skipped = append(set.Skipped, it)
			continue
		}
		set.Items = append(set.Items, it)
	}

	if resErr != nil {
		return set, newError(resErr, len(set.Skipped))
	}
	return set, nil
}

// userTypes returns the user types of m with the Dart names of their
// items, keyed by item key.
func userTypes(m *module.Module, dartNames map[string]string) map[string]types.UserType {
	res := map[string]types.UserType{}
	for name, path := range m.UserTypes() {
		key := strings.Join(append([]string{m.CrateName}, path...), "::") + "::" + name
		res[name] = types.UserType{Module: path, DartName: dartNames[key]}
	}
	return res
}

func newItems(m *module.Module) []*Item {
	var items []*Item
	for mod := range m.All() {
		modName := mod.QualifiedName("")
		add := func(it *Item) {
			it.mod = mod
			it.Key = mod.QualifiedName(it.RustName)
			it.spec = rules.ItemSpec{Module: modName, Name: it.DartName, Kind: it.Kind}
			items = append(items, it)
		}
		for _, ds := range [][]module.Data{mod.Structs, mod.Enums} {
			for i := range ds {
				d := &ds[i]
				kind := rules.ItemStruct
				if d.Kind == module.EnumKind {
					kind = rules.ItemEnum
				}
				dartName := d.Name
				if d.Rename != "" {
					dartName = d.Rename
				}
				add(&Item{
					Kind:     kind,
					RustName: d.Name,
					DartName: dartName,
					Doc:      d.Doc,
					Opaque:   d.Opaque,
					data:     d,
				})
			}
		}
		for i := range mod.Functions {
			fn := &mod.Functions[i]
			add(&Item{
				Kind:     rules.ItemFunction,
				RustName: fn.Name,
				DartName: strcase.ToLowerCamel(fn.Name),
				Doc:      fn.Doc,
				fn:       fn,
			})
		}
	}
	return items
}

// evaluate fills in the members of it. Recoverable errors are returned as
// errs, everything else as err.
func (it *Item) evaluate(reg types.Dispatcher, pkg, crateName string) (errs []error, err error) {
	add := func(variant, name, dartName string, t rust.Type, site types.CallSite) error {
		mp, err := MapType(reg, t, site, dartName, pkg, crateName)
		if err != nil {
			desc := site.String()
			if name != "" {
				desc += " " + strconv.Quote(name)
			}
			if variant != "" {
				desc = "variant " + variant + ": " + desc
			}
			err = fmt.Errorf("%v: %v: %w", it.Key, desc, err)
			if !IsRecoverable(err) {
				return err
			}
			errs = append(errs, err)
			return nil
		}
		it.Members = append(it.Members, Member{Variant: variant, Name: name, DartName: dartName, Mapping: mp})
		return nil
	}

	switch {
	case it.fn != nil:
		for _, p := range it.fn.Params {
			if err := add("", p.Name, strcase.ToLowerCamel(p.Name), p.Type, types.Argument); err != nil {
				return nil, err
			}
		}
		if it.fn.Output != nil {
			if err := add("", "", "result", it.fn.Output, types.Return); err != nil {
				return nil, err
			}
		}
	case it.data.Kind == module.StructKind:
		for _, f := range it.data.Fields {
			if err := add("", f.Name, fieldName(f.Name), f.Type, types.Field); err != nil {
				return nil, err
			}
		}
	default:
		for _, v := range it.data.Variants {
			for _, f := range v.Fields {
				if err := add(v.Name, f.Name, fieldName(f.Name), f.Type, types.Field); err != nil {
					return nil, err
				}
			}
		}
	}
	if len(errs) > 0 {
		it.Members = nil
		return errs, nil
	}

	imports := map[string]struct{}{}
	for _, m := range it.Members {
		for _, imp := range m.Mapping.Imports {
			imports[imp] = struct{}{}
		}
	}
	it.Imports = slices.Sorted(maps.Keys(imports))
	return nil, nil
}

// fieldName returns the Dart name of a field. Positional fields are named
// field0, field1, ...
func fieldName(name string) string {
	if _, err := strconv.Atoi(name); err == nil {
		return "field" + name
	}
	return strcase.ToLowerCamel(name)
}

// IsRecoverable reports whether err only affects the item it occurred in.
func IsRecoverable(err error) bool {
	return errors.Is(err, types.ErrUnsupportedShape) ||
		errors.Is(err, types.ErrUnimplementedConversion)
}

// MapType dispatches t and evaluates its behavior at site. value is the Dart
// expression the conversions are applied to.
func MapType(d types.Dispatcher, t rust.Type, site types.CallSite, value, pkg, crateName string) (Mapping, error) {
	b, err := d.Dispatch(t)
	if err != nil {
		return Mapping{}, err
	}
	mp := Mapping{Site: site, Type: rust.TypeString(t), Kind: b.Kind()}
	if mp.Name, err = b.Name(t); err != nil {
		return Mapping{}, err
	}
	if mp.Imports, err = b.Imports(t, pkg, crateName); err != nil {
		return Mapping{}, err
	}
	if mp.Shim, err = b.Shim(t, site); err != nil {
		return Mapping{}, err
	}
	if mp.FFI, err = b.FFI(t, site); err != nil {
		return Mapping{}, err
	}
	if mp.Native, err = b.Native(t, site); err != nil {
		return Mapping{}, err
	}
	if site != types.Return {
		if mp.ToFFI, err = b.NativeToFFI(t, value); err != nil {
			return Mapping{}, err
		}
	}
	if site != types.Argument {
		if mp.ToNative, err = b.FFIToNative(t, value); err != nil {
			return Mapping{}, err
		}
	}
	return mp, nil
}
