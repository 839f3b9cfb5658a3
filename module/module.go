// Package module builds the tree of Rust modules of a crate, keeping only
// the items marked for binding.
package module

import (
	"errors"
	"iter"
	"slices"
	"strings"
)

var (
	ErrSourceParse          = errors.New("cannot parse source")
	ErrInvalidModulePath    = errors.New("invalid module path")
	ErrDescriptorExtraction = errors.New("cannot extract descriptor")
)

// Module is a Rust module and its marked items, in source order.
type Module struct {
	Name      string
	CrateName string
	// Path is the module path below the crate root; empty for the root.
	Path []string
	// File is the source file the module is declared in.
	File      string
	Structs   []Data
	Enums     []Data
	Functions []Function
	// Subs are the non-empty submodules.
	Subs []*Module
}

// IsEmpty reports whether m has no marked items and no submodules.
func (m *Module) IsEmpty() bool {
	return len(m.Structs) == 0 &&
		len(m.Enums) == 0 &&
		len(m.Functions) == 0 &&
		len(m.Subs) == 0
}

// QualifiedName returns the Rust path of an item declared in m, e.g.
// "geo::shapes::Circle".
func (m *Module) QualifiedName(item string) string {
	elems := make([]string, 0, len(m.Path)+2)
	elems = append(elems, m.CrateName)
	elems = append(elems, m.Path...)
	if item != "" {
		elems = append(elems, item)
	}
	return strings.Join(elems, "::")
}

// All yields m and all of its submodules, depth-first in source order.
func (m *Module) All() iter.Seq[*Module] {
	return func(yield func(*Module) bool) {
		m.walk(yield)
	}
}

func (m *Module) walk(yield func(*Module) bool) bool {
	if !yield(m) {
		return false
	}
	for _, sub := range m.Subs {
		if !sub.walk(yield) {
			return false
		}
	}
	return true
}

// UserTypes maps the name of every marked struct and enum in the tree to
// the module path it is declared in. If a name is declared more than once,
// the first declaration wins.
func (m *Module) UserTypes() map[string][]string {
	res := map[string][]string{}
	for mod := range m.All() {
		for _, ds := range [][]Data{mod.Structs, mod.Enums} {
			for _, d := range ds {
				if _, ok := res[d.Name]; !ok {
					res[d.Name] = slices.Clone(mod.Path)
				}
			}
		}
	}
	return res
}
