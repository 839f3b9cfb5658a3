// Package report prints module trees and binding sets.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ffishim/dustr/binding"
	"github.com/ffishim/dustr/module"
	"github.com/ffishim/dustr/rust"
)

// Write prints set in the given format ("text", "yaml", "json" or "dot").
// The text format follows the layout of the module tree m; dot prints the
// import graph between modules.
func Write(w io.Writer, format string, m *module.Module, set *binding.Set) error {
	switch format {
	case "", "text":
		_, err := io.WriteString(w, Text(m, set))
		return err
	case "yaml":
		return YAML(w, set)
	case "json":
		return JSON(w, set)
	case "dot":
		return DOT(w, NewGraph(set), nil)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func YAML(w io.Writer, set *binding.Set) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(set)
}

func JSON(w io.Writer, set *binding.Set) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(set)
}

// Text renders the module tree with the mappings of every item in set.
func Text(m *module.Module, set *binding.Set) string {
	items := map[string]*binding.Item{}
	status := map[string]string{}
	for _, it := range set.Items {
		items[it.Key] = it
	}
	for _, it := range set.Disabled {
		items[it.Key] = it
		status[it.Key] = "disabled"
	}
	for _, it := range set.Skipped {
		items[it.Key] = it
		status[it.Key] = "skipped"
	}

	var tb TextBuilder
	writeItem := func(mod *module.Module, name, head string, opaque bool) {
		key := mod.QualifiedName(name)
		it := items[key]
		var sb strings.Builder
		sb.WriteString(head)
		if it != nil && it.DartName != name {
			sb.WriteString(" as " + it.DartName)
		}
		if opaque {
			sb.WriteString(" (opaque)")
		}
		if s, ok := status[key]; ok {
			sb.WriteString(" [" + s + "]")
		}
		tb.Linef("%v", sb.String())
		if it == nil {
			return
		}
		tb.Indent++
		for _, mem := range it.Members {
			label := mem.Name
			if label == "" {
				label = "return"
			}
			if mem.Variant != "" {
				label = mem.Variant + "." + label
			}
			tb.Linef("%v: %v => %v [%v %v]", label, mem.Mapping.Type, mem.Mapping.Native, mem.Mapping.Kind, mem.Mapping.Shim)
		}
		tb.Indent--
	}

	var walk func(mod *module.Module)
	walk = func(mod *module.Module) {
		tb.Linef("mod %v (%v)", mod.QualifiedName(""), mod.File)
		tb.Indent++
		for _, d := range mod.Structs {
			writeItem(mod, d.Name, "struct "+d.Name, d.Opaque)
		}
		for _, d := range mod.Enums {
			writeItem(mod, d.Name, "enum "+d.Name, false)
		}
		for i := range mod.Functions {
			fn := &mod.Functions[i]
			writeItem(mod, fn.Name, Signature(fn), false)
		}
		for _, sub := range mod.Subs {
			walk(sub)
		}
		tb.Indent--
	}
	walk(m)
	return tb.String()
}

// Signature returns the Rust signature of fn, e.g. "fn add(a: i32, b: i32) -> i32".
func Signature(fn *module.Function) string {
	params := make([]string, 0, len(fn.Params))
	for _, p := range fn.Params {
		params = append(params, p.Name+": "+rust.TypeString(p.Type))
	}
	res := "fn " + fn.Name + "(" + strings.Join(params, ", ") + ")"
	if fn.Output != nil {
		res += " -> " + rust.TypeString(fn.Output)
	}
	return res
}
