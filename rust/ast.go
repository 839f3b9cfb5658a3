package rust

// Pos is a position in a source file.
type Pos struct {
	Line int
	Col  int
}

type File struct {
	Filename string
	Attrs    []Attribute // inner attributes ("#![...]", "//!")
	Items    []Item
}

// Item is a top-level declaration. Implemented by *ItemMod, *ItemStruct,
// *ItemEnum, *ItemFn and *ItemOther.
type Item interface {
	ItemName() string
	ItemAttrs() []Attribute
	ItemPos() Pos
}

type itemBase struct {
	Attrs []Attribute
	Vis   string // "" (private), "pub", "pub(crate)", ...
	Name  string
	Pos   Pos
}

func (b *itemBase) ItemName() string        { return b.Name }
func (b *itemBase) ItemAttrs() []Attribute { return b.Attrs }
func (b *itemBase) ItemPos() Pos            { return b.Pos }

type ItemMod struct {
	itemBase
	// Content is nil for a file-backed module ("mod name;").
	Content *ModContent
}

type ModContent struct {
	Attrs []Attribute // inner attributes of the block
	Items []Item
}

type ItemStruct struct {
	itemBase
	Generics Generics
	Fields   Fields
}

type ItemEnum struct {
	itemBase
	Generics Generics
	Variants []Variant
}

type Variant struct {
	Attrs        []Attribute
	Name         string
	Fields       Fields
	Discriminant string // raw expression text, "" if absent
	Pos          Pos
}

type FieldsKind int

const (
	FieldsUnit FieldsKind = iota
	FieldsNamed
	FieldsUnnamed
)

type Fields struct {
	Kind FieldsKind
	List []Field
}

type Field struct {
	Attrs []Attribute
	Vis   string
	Name  string // "" for tuple fields
	Type  Type
	Pos   Pos
}

type GenericParamKind int

const (
	GenericLifetime GenericParamKind = iota
	GenericType
	GenericConst
)

type GenericParam struct {
	Kind GenericParamKind
	Name string
}

type Generics struct {
	Params []GenericParam
	Where  bool // has a where clause
}

// IsEmpty reports whether there are no generic parameters.
func (g Generics) IsEmpty() bool {
	return len(g.Params) == 0
}

type ItemFn struct {
	itemBase
	Const    bool
	Async    bool
	Unsafe   bool
	ABI      string // extern "C" -> `"C"`; "" if not extern
	Generics Generics
	Inputs   []FnArg
	Output   Type // nil for "()"
	HasBody  bool
}

type FnArg struct {
	Attrs []Attribute
	// Self is true for a receiver ("self", "&self", "mut self", "self: T").
	Self bool
	// Pattern is the raw text of the argument pattern.
	Pattern string
	// Name is set if the pattern is a plain (optionally "mut") identifier.
	Name string
	Type Type // nil for shorthand receivers
}

// ItemOther is any item that is not parsed in detail (use, impl, trait,
// const, static, type alias, macro invocation, extern block ...).
type ItemOther struct {
	itemBase
	Kind string // introducing keyword, e.g. "impl" or "use"
}
