package module

import (
	"fmt"
	"strconv"

	"github.com/ffishim/dustr/rust"
)

// IsMarkedForBinding reports whether attrs contain a derive list with the
// bare FFIShim marker, as in #[derive(Clone, FFIShim)].
func IsMarkedForBinding(attrs []rust.Attribute) bool {
	for i := range attrs {
		if !attrs[i].IsIdent("derive") {
			continue
		}
		m, err := attrs[i].ParseMeta()
		if err != nil {
			continue
		}
		list, ok := m.(*rust.MetaList)
		if !ok {
			continue
		}
		for _, nested := range list.Nested {
			if nested.Meta != nil && rust.IsPathIdent(nested.Meta, "FFIShim") {
				return true
			}
		}
	}
	return false
}

// IsMarkedFunction reports whether attrs contain the #[ffishim_function]
// marker.
func IsMarkedFunction(attrs []rust.Attribute) bool {
	for i := range attrs {
		if attrs[i].IsIdent("ffishim_function") {
			return true
		}
	}
	return false
}

type extractError struct {
	file string
	pos  rust.Pos
	item string
	msg  string
}

func (e *extractError) Error() string {
	return fmt.Sprintf("%v:%v: %v: %v", e.file, e.pos.Line, e.item, e.msg)
}

func (e *extractError) Unwrap() error { return ErrDescriptorExtraction }

func extractErrorf(file string, pos rust.Pos, item, format string, args ...any) error {
	return &extractError{file: file, pos: pos, item: item, msg: fmt.Sprintf(format, args...)}
}

type dataOptions struct {
	opaque bool
	rename string
}

// parseOptions reads the #[ffishim(...)] attributes of an item.
func parseOptions(attrs []rust.Attribute, file, item string) (dataOptions, error) {
	var opts dataOptions
	seen := map[string]bool{}
	for i := range attrs {
		attr := &attrs[i]
		if !attr.IsIdent("ffishim") {
			continue
		}
		m, err := attr.ParseMeta()
		if err != nil {
			return opts, extractErrorf(file, attr.Pos, item, "malformed ffishim attribute: %v", err)
		}
		list, ok := m.(*rust.MetaList)
		if !ok {
			return opts, extractErrorf(file, attr.Pos, item, "expected #[ffishim(...)]")
		}
		for _, nested := range list.Nested {
			if nested.Meta == nil {
				return opts, extractErrorf(file, attr.Pos, item, "unexpected literal %v in ffishim attribute", nested.Lit.Lexeme)
			}
			path := nested.Meta.MetaPath()
			if len(path) != 1 {
				return opts, extractErrorf(file, attr.Pos, item, "unknown ffishim option %v", path)
			}
			name := path[0]
			if seen[name] {
				return opts, extractErrorf(file, attr.Pos, item, "conflicting ffishim option %v: set more than once", name)
			}
			seen[name] = true
			switch m := nested.Meta.(type) {
			case *rust.MetaPath:
				if name != "opaque" {
					return opts, extractErrorf(file, attr.Pos, item, "unknown ffishim option %v", name)
				}
				opts.opaque = true
			case *rust.MetaNameValue:
				if name != "rename" {
					return opts, extractErrorf(file, attr.Pos, item, "unknown ffishim option %v", name)
				}
				s, err := rust.StringValue(m.Lit)
				if err != nil || s == "" {
					return opts, extractErrorf(file, attr.Pos, item, "rename expects a non-empty string")
				}
				opts.rename = s
			default:
				return opts, extractErrorf(file, attr.Pos, item, "unknown ffishim option %v", name)
			}
		}
	}
	return opts, nil
}

func checkGenerics(g rust.Generics, file string, pos rust.Pos, item string) error {
	if !g.IsEmpty() {
		return extractErrorf(file, pos, item, "generic parameters are not supported")
	}
	return nil
}

func extractFields(fields rust.Fields) []Field {
	res := make([]Field, 0, len(fields.List))
	for i, f := range fields.List {
		name := f.Name
		if fields.Kind == rust.FieldsUnnamed {
			name = strconv.Itoa(i)
		}
		res = append(res, Field{Name: name, Type: f.Type, Doc: rust.DocString(f.Attrs)})
	}
	return res
}

func extractStruct(is *rust.ItemStruct, file string) (Data, error) {
	if err := checkGenerics(is.Generics, file, is.Pos, is.Name); err != nil {
		return Data{}, err
	}
	opts, err := parseOptions(is.Attrs, file, is.Name)
	if err != nil {
		return Data{}, err
	}
	d := Data{
		Name:   is.Name,
		Kind:   StructKind,
		Doc:    rust.DocString(is.Attrs),
		Opaque: opts.opaque,
		Rename: opts.rename,
		Pos:    is.Pos,
	}
	if !d.Opaque {
		d.Fields = extractFields(is.Fields)
	}
	return d, nil
}

func extractEnum(ie *rust.ItemEnum, file string) (Data, error) {
	if err := checkGenerics(ie.Generics, file, ie.Pos, ie.Name); err != nil {
		return Data{}, err
	}
	opts, err := parseOptions(ie.Attrs, file, ie.Name)
	if err != nil {
		return Data{}, err
	}
	if opts.opaque {
		return Data{}, extractErrorf(file, ie.Pos, ie.Name, "opaque is only supported on structs")
	}
	d := Data{
		Name:   ie.Name,
		Kind:   EnumKind,
		Doc:    rust.DocString(ie.Attrs),
		Rename: opts.rename,
		Pos:    ie.Pos,
	}
	for _, v := range ie.Variants {
		d.Variants = append(d.Variants, Variant{
			Name:         v.Name,
			Doc:          rust.DocString(v.Attrs),
			Fields:       extractFields(v.Fields),
			Discriminant: v.Discriminant,
		})
	}
	return d, nil
}

func extractFunction(fn *rust.ItemFn, file string) (Function, error) {
	if err := checkGenerics(fn.Generics, file, fn.Pos, fn.Name); err != nil {
		return Function{}, err
	}
	if fn.Async {
		return Function{}, extractErrorf(file, fn.Pos, fn.Name, "async functions are not supported")
	}
	f := Function{
		Name:   fn.Name,
		Doc:    rust.DocString(fn.Attrs),
		Output: fn.Output,
		Pos:    fn.Pos,
	}
	for _, in := range fn.Inputs {
		switch {
		case in.Self:
			return Function{}, extractErrorf(file, fn.Pos, fn.Name, "self parameter in free function")
		case in.Name == "":
			return Function{}, extractErrorf(file, fn.Pos, fn.Name, "parameter pattern %v is not an identifier", in.Pattern)
		}
		f.Params = append(f.Params, Param{Name: in.Name, Type: in.Type})
	}
	return f, nil
}
