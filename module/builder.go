package module

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ffishim/dustr/config"
	"github.com/ffishim/dustr/rust"
)

// Builder builds module trees from crate sources read through FS.
//
// All paths are slash-separated and relative to the root of FS.
type Builder struct {
	FS fs.FS
	// Logger defaults to a no-op logger.
	Logger zerolog.Logger
	// Cache is optional.
	Cache *ParseCache
}

// FromCrate builds the module tree of the crate in dir. The lower-cased
// package name from dir/Cargo.toml names both the root module and the
// crate; the root source file is dir/src/lib.rs unless [lib] path says
// otherwise.
func (b *Builder) FromCrate(dir string) (*Module, error) {
	man, err := config.LoadManifest(b.FS, path.Join(dir, "Cargo.toml"))
	if err != nil {
		return nil, err
	}
	name := strings.ToLower(man.Package.Name)
	return b.FromFile(name, name, path.Join(dir, man.LibPath()))
}

// FromFile builds the module tree rooted at the given source file.
func (b *Builder) FromFile(name, crateName, file string) (*Module, error) {
	bs := b.newBuild(crateName)
	return bs.fromFile(name, nil, file)
}

// FromItems builds a module from already parsed items. file is the source
// file the items were declared in; file-backed submodules are resolved
// relative to its directory.
func (b *Builder) FromItems(name, crateName, file string, items []rust.Item) (*Module, error) {
	bs := b.newBuild(crateName)
	bs.visited[path.Clean(file)] = true
	return bs.fromItems(name, nil, file, items)
}

// build is the state of a single FromCrate, FromFile or FromItems call.
type build struct {
	*Builder
	crateName string
	visited   map[string]bool
}

func (b *Builder) newBuild(crateName string) *build {
	return &build{Builder: b, crateName: crateName, visited: map[string]bool{}}
}

func (bs *build) fromFile(name string, modPath []string, file string) (*Module, error) {
	file = path.Clean(file)
	if bs.visited[file] {
		return nil, fmt.Errorf("%w: module %v: file %v is included more than once", ErrInvalidModulePath, name, file)
	}
	bs.visited[file] = true

	src, err := fs.ReadFile(bs.FS, file)
	if err != nil {
		return nil, fmt.Errorf("%w: module %v: %w", ErrInvalidModulePath, name, err)
	}
	f, err := bs.Cache.Parse(file, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceParse, err)
	}
	bs.Logger.Debug().
		Str("module", strings.Join(append([]string{bs.crateName}, modPath...), "::")).
		Str("file", file).
		Msg("Resolved module")
	return bs.fromItems(name, modPath, file, f.Items)
}

func (bs *build) fromItems(name string, modPath []string, file string, items []rust.Item) (*Module, error) {
	m := &Module{
		Name:      name,
		CrateName: bs.crateName,
		Path:      modPath,
		File:      file,
	}
	for _, item := range items {
		switch it := item.(type) {
		case *rust.ItemMod:
			sub, err := bs.fromItemMod(modPath, file, it)
			if err != nil {
				return nil, err
			}
			if !sub.IsEmpty() {
				m.Subs = append(m.Subs, sub)
			}
		case *rust.ItemStruct:
			if !IsMarkedForBinding(it.Attrs) {
				bs.skipped(m, it)
				continue
			}
			d, err := extractStruct(it, file)
			if err != nil {
				return nil, err
			}
			m.Structs = append(m.Structs, d)
		case *rust.ItemEnum:
			if !IsMarkedForBinding(it.Attrs) {
				bs.skipped(m, it)
				continue
			}
			d, err := extractEnum(it, file)
			if err != nil {
				return nil, err
			}
			m.Enums = append(m.Enums, d)
		case *rust.ItemFn:
			if !IsMarkedFunction(it.Attrs) {
				bs.skipped(m, it)
				continue
			}
			f, err := extractFunction(it, file)
			if err != nil {
				return nil, err
			}
			m.Functions = append(m.Functions, f)
		}
	}
	return m, nil
}

func (bs *build) skipped(m *Module, item rust.Item) {
	bs.Logger.Trace().
		Str("item", m.QualifiedName(item.ItemName())).
		Msg("Skipping unmarked item")
}

func (bs *build) fromItemMod(parentPath []string, file string, im *rust.ItemMod) (*Module, error) {
	modPath := append(slices.Clone(parentPath), im.Name)
	if im.Content != nil {
		return bs.fromItems(im.Name, modPath, file, im.Content.Items)
	}
	modFile, err := bs.resolve(file, im)
	if err != nil {
		return nil, err
	}
	return bs.fromFile(im.Name, modPath, modFile)
}

// resolve finds the file backing "mod name;" declared in file: a #[path]
// attribute if present, otherwise name.rs or name/mod.rs next to file.
func (bs *build) resolve(file string, im *rust.ItemMod) (string, error) {
	parent, err := parentDir(file)
	if err != nil {
		return "", fmt.Errorf("%w: module %v: %w", ErrInvalidModulePath, im.Name, err)
	}

	if p, ok, err := pathAttr(im.Attrs); err != nil {
		return "", fmt.Errorf("%w: module %v: %w", ErrInvalidModulePath, im.Name, err)
	} else if ok {
		res := path.Join(parent, p)
		if !fs.ValidPath(res) {
			return "", fmt.Errorf("%w: module %v: path %v leaves the source tree", ErrInvalidModulePath, im.Name, p)
		}
		if _, err := fs.Stat(bs.FS, res); err != nil {
			return "", fmt.Errorf("%w: module %v: %w", ErrInvalidModulePath, im.Name, err)
		}
		return res, nil
	}

	candidates := []string{
		path.Join(parent, im.Name+".rs"),
		path.Join(parent, im.Name, "mod.rs"),
	}
	for _, c := range candidates {
		_, err := fs.Stat(bs.FS, c)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: module %v: %w", ErrInvalidModulePath, im.Name, err)
		}
	}
	return "", fmt.Errorf("%w: module %v: neither %v nor %v exists", ErrInvalidModulePath, im.Name, candidates[0], candidates[1])
}

func parentDir(file string) (string, error) {
	switch file {
	case "", ".", "/":
		return "", fmt.Errorf("cannot get parent of %q", file)
	}
	return path.Dir(file), nil
}

// pathAttr returns the value of a #[path = "..."] attribute.
func pathAttr(attrs []rust.Attribute) (string, bool, error) {
	for i := range attrs {
		if !attrs[i].IsIdent("path") {
			continue
		}
		m, err := attrs[i].ParseMeta()
		if err != nil {
			return "", false, err
		}
		nv, ok := m.(*rust.MetaNameValue)
		if !ok {
			return "", false, fmt.Errorf("expected #[path = \"...\"]")
		}
		s, err := rust.StringValue(nv.Lit)
		if err != nil {
			return "", false, err
		}
		return s, true, nil
	}
	return "", false, nil
}
