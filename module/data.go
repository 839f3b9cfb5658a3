package module

import (
	"github.com/ffishim/dustr/rust"
)

type DataKind int

const (
	StructKind DataKind = iota
	EnumKind
)

func (k DataKind) String() string {
	switch k {
	case StructKind:
		return "struct"
	case EnumKind:
		return "enum"
	default:
		panic("invalid data kind")
	}
}

// Data describes a struct or enum marked for binding.
type Data struct {
	Name string
	Kind DataKind
	Doc  string
	// Opaque structs are exposed as a handle; their fields are not bound.
	Opaque bool
	// Rename is the binding name set with #[ffishim(rename = "...")], or "".
	Rename   string
	Fields   []Field   // structs only
	Variants []Variant // enums only
	Pos      rust.Pos
}

// Field is a struct or variant field. Fields of tuple structs and tuple
// variants are named by their position ("0", "1", ...).
type Field struct {
	Name string
	Type rust.Type
	Doc  string
}

type Variant struct {
	Name   string
	Doc    string
	Fields []Field
	// Discriminant is the source text of an explicit discriminant, or "".
	Discriminant string
}

// Function describes a free function marked for binding.
type Function struct {
	Name   string
	Doc    string
	Params []Param
	Output rust.Type // nil for ()
	Pos    rust.Pos
}

type Param struct {
	Name string
	Type rust.Type
}
