package config

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"maps"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// BindingList is the user-edited list of bound items, keyed by their Rust
// path ("crate::module::Item").
type BindingList struct {
	Enabled map[string]bool
	Renames map[string]string
}

func NewBindingList() *BindingList {
	return &BindingList{
		Enabled: make(map[string]bool),
		Renames: make(map[string]string),
	}
}

// IsEnabled reports whether the item is enabled. Items not in the list
// are enabled.
func (bl *BindingList) IsEnabled(name string) bool {
	enabled, ok := bl.Enabled[name]
	return !ok || enabled
}

var dartIdent = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

func LoadBindingListFromFile(filename string) (*BindingList, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadBindingList(f, filename)
}

// LoadBindingList parses a bindings list. filename is used in errors.
func LoadBindingList(r io.Reader, filename string) (*BindingList, error) {
	res := NewBindingList()

	type section int
	const (
		sectionNone section = iota
		sectionEnabled
		sectionDisabled
	)

	currSection := sectionNone
	sc := bufio.NewScanner(r)
	for lineNum := 1; sc.Scan(); lineNum++ {
		makeErr := func(format string, a ...any) error {
			return fmt.Errorf("%v: line %v: %v", filename, lineNum, fmt.Errorf(format, a...))
		}

		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			switch line {
			case "[enabled]":
				currSection = sectionEnabled
			case "[disabled]":
				currSection = sectionDisabled
			default:
				return nil, makeErr("invalid section name %v", line)
			}
			continue
		}
		fields := strings.FieldsFunc(line, func(r rune) bool {
			return unicode.IsSpace(r)
		})
		name := fields[0]
		if currSection == sectionNone {
			return nil, makeErr("expected binding name \"%v\" to be under a section ([enabled] or [disabled])", name)
		}
		if len(fields) >= 2 && fields[1] == "=>" {
			if len(fields) < 3 {
				return nil, makeErr("expected new name after \"=>\" (rename)")
			}
			rename := fields[2]
			if !dartIdent.MatchString(rename) {
				return nil, makeErr("rename %v is not a valid Dart identifier", strconv.Quote(rename))
			}
			res.Renames[name] = rename
		}
		switch currSection {
		case sectionEnabled:
			if v, ok := res.Enabled[name]; ok && !v {
				return nil, makeErr("cannot have binding \"%v\" in both [enabled] and [disabled] sections", name)
			}
			res.Enabled[name] = true
		case sectionDisabled:
			if v, ok := res.Enabled[name]; ok && v {
				return nil, makeErr("cannot have binding \"%v\" in both [enabled] and [disabled] sections", name)
			}
			res.Enabled[name] = false
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%v: %w", filename, err)
	}
	return res, nil
}

func (bl *BindingList) SaveToFile(filename string, itemsToDocstrs map[string]string) error {
	var res bytes.Buffer
	bl.Write(&res, itemsToDocstrs)
	return os.WriteFile(filename, res.Bytes(), 0666)
}

// Write writes the list of all items in itemsToDocstrs, sorted, with the
// first line of their doc comment. Items that are no longer present are
// dropped; new items are enabled.
func (bl *BindingList) Write(w io.Writer, itemsToDocstrs map[string]string) {
	isEnabled := map[string]bool{}
	for name := range itemsToDocstrs {
		isEnabled[name] = bl.IsEnabled(name)
	}

	var enabledBindings []string
	var disabledBindings []string
	for name, enabled := range isEnabled {
		if enabled {
			enabledBindings = append(enabledBindings, name)
		} else {
			disabledBindings = append(disabledBindings, name)
		}
	}
	slices.Sort(enabledBindings)
	slices.Sort(disabledBindings)

	fmt.Fprintln(w, "# This file contains a list of bindings, which can be enabled/disabled by placing them under the according section.")
	fmt.Fprintln(w, "# Re-run `dustr bindings` to update and sort the list.")
	fmt.Fprintln(w, "# Renaming a binding: e.g. `geo::shapes::Circle => Disc`")

	writeBindings := func(bs []string) {
		getRenameStr := func(name string) string {
			if s, ok := bl.Renames[name]; ok {
				return " => " + s
			}
			return ""
		}

		maxCol0Len := 0
		for _, name := range bs {
			maxCol0Len = max(maxCol0Len, len(name+getRenameStr(name)))
		}

		for _, name := range bs {
			col0 := name + getRenameStr(name)
			docstr, _, _ := strings.Cut(itemsToDocstrs[name], "\n")
			if docstr == "" {
				fmt.Fprintln(w, col0)
				continue
			}
			fmt.Fprintf(
				w,
				"%v %v%v\n",
				col0,
				strings.Repeat(" ", maxCol0Len-len(col0)),
				strconv.Quote(docstr),
			)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "[enabled]")
	writeBindings(enabledBindings)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "[disabled]")
	writeBindings(disabledBindings)
}

// Names returns the sorted names of all items in the list.
func (bl *BindingList) Names() []string {
	return slices.Sorted(maps.Keys(bl.Enabled))
}
