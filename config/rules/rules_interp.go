package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/ffishim/dustr/config"
)

type ItemKind int

const (
	ItemStruct ItemKind = iota
	ItemEnum
	ItemFunction
)

func (k ItemKind) String() string {
	switch k {
	case ItemStruct:
		return "struct"
	case ItemEnum:
		return "enum"
	case ItemFunction:
		return "function"
	default:
		panic("invalid item kind")
	}
}

func (k ItemKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func ItemKindFromString(s string) (ItemKind, bool) {
	switch strings.ToLower(s) {
	case "struct":
		return ItemStruct, true
	case "enum":
		return ItemEnum, true
	case "function":
		return ItemFunction, true
	default:
		return -1, false
	}
}

type ItemSpec struct {
	// Module is the Rust module path, e.g. "geo::shapes".
	Module string
	// Name is the initial binding name.
	Name string
	Kind ItemKind
}

// Key returns the Rust path of the item, e.g. "geo::shapes::Circle".
func (s ItemSpec) Key() string {
	return s.Module + "::" + s.Name
}

// Execute executes the rules of c on the given items.
// Return value names maps an item key (see [ItemSpec.Key]) to its new
// binding name, while included is whether the item should be included.
func Execute(c *config.Config, items []ItemSpec) (names map[string]string, included map[string]bool, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("execute rules: %w", err)
		}
	}()

	names = map[string]string{}
	included = map[string]bool{}
	// Binding names are unique per module and namespace (types or functions).
	type scopedName struct {
		module, name string
		fn           bool
	}
	existingNames := map[scopedName]bool{} // to avoid collisions
	for _, it := range items {
		if _, ok := names[it.Key()]; ok {
			return nil, nil, fmt.Errorf("duplicate %v: %v", it.Kind, it.Key())
		}
		names[it.Key()] = it.Name
		included[it.Key()] = true
		existingNames[scopedName{it.Module, it.Name, it.Kind == ItemFunction}] = true
	}

	// Backrefs represents the '\1', '\2' etc.,
	// which are created by making a capture
	// group in the module and/or name selector.
	var backrefs [][]byte

	for _, rule := range c.Rules {
		for _, it := range items {
			backrefs = backrefs[:0]
			if rule.Select.Kind != "" {
				kind, ok := ItemKindFromString(rule.Select.Kind)
				if !ok {
					return nil, nil, fmt.Errorf("select: unknown item kind: %v", rule.Select.Kind)
				}
				if kind != it.Kind {
					continue
				}
			}
			if rule.Select.Module != nil {
				m := rule.Select.Module.FindSubmatch([]byte(it.Module))
				if len(m) == 0 || len(m[0]) != len(it.Module) {
					continue
				}
				backrefs = append(backrefs, m[1:]...)
			}
			if rule.Select.Name != nil {
				name := names[it.Key()]
				m := rule.Select.Name.FindSubmatch([]byte(name))
				if len(m) == 0 || len(m[0]) != len(name) {
					continue
				}
				backrefs = append(backrefs, m[1:]...)
			}

			renameTo := func(newName string) error {
				oldName := names[it.Key()]
				if newName == oldName {
					return nil
				}
				newScoped := scopedName{it.Module, newName, it.Kind == ItemFunction}
				if existingNames[newScoped] {
					return fmt.Errorf("renaming %v to %v would cause a conflict",
						strconv.Quote(oldName), strconv.Quote(newName))
				}
				names[it.Key()] = newName
				existingNames[scopedName{it.Module, oldName, it.Kind == ItemFunction}] = false
				existingNames[newScoped] = true
				return nil
			}

			if rule.Actions.Rename != "" {
				oldnew := [2 * 9]string{
					`\1`, "",
					`\2`, "",
					`\3`, "",
					`\4`, "",
					`\5`, "",
					`\6`, "",
					`\7`, "",
					`\8`, "",
					`\9`, "",
				}
				for i := range min(len(backrefs), 9) {
					oldnew[2*i+1] = string(backrefs[i])
				}
				newName := strings.NewReplacer(oldnew[:]...).
					Replace(rule.Actions.Rename)
				if err := renameTo(newName); err != nil {
					return nil, nil, err
				}
			}

			if rule.Actions.Include != nil {
				included[it.Key()] = *rule.Actions.Include
			}

			if rule.Actions.ToCasing != "" {
				name := names[it.Key()]
				var newName string
				switch rule.Actions.ToCasing {
				case "camel":
					newName = strcase.ToCamel(name)
				case "lower-camel":
					newName = strcase.ToLowerCamel(name)
				case "snake":
					newName = strcase.ToSnake(name)
				default:
					return nil, nil, fmt.Errorf("action: unknown casing: %v", rule.Actions.ToCasing)
				}
				if err := renameTo(newName); err != nil {
					return nil, nil, err
				}
			}
		}
	}

	return
}
