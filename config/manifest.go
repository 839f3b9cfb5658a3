package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/semver"
)

var (
	ErrManifestMissing   = errors.New("crate manifest missing")
	ErrManifestMalformed = errors.New("crate manifest malformed")
)

// Manifest is the subset of a Cargo.toml that dustr reads.
type Manifest struct {
	Package *Package `toml:"package"`
	Lib     *Lib     `toml:"lib"`
}

type Package struct {
	Name string `toml:"name"`
	// Version is a string, or a table for "version.workspace = true".
	RawVersion any `toml:"version"`
	// Version is the validated package version, "" if inherited from the
	// workspace or not set.
	Version string `toml:"-"`
}

type Lib struct {
	Path string `toml:"path"`
}

// LibPath returns the crate root source file relative to the crate
// directory.
func (m *Manifest) LibPath() string {
	if m.Lib != nil && m.Lib.Path != "" {
		return m.Lib.Path
	}
	return "src/lib.rs"
}

// LoadManifest reads and validates the Cargo.toml at name in fsys.
func LoadManifest(fsys fs.FS, name string) (*Manifest, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", ErrManifestMissing, name)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	m := &Manifest{}
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("%w: %v: %w", ErrManifestMalformed, name, err)
	}
	if m.Package == nil {
		return nil, fmt.Errorf("%w: %v: empty [package] section", ErrManifestMalformed, name)
	}
	if m.Package.Name == "" {
		return nil, fmt.Errorf("%w: %v: missing package name", ErrManifestMalformed, name)
	}

	switch v := m.Package.RawVersion.(type) {
	case nil:
	case string:
		if !validVersion(v) {
			return nil, fmt.Errorf("%w: %v: invalid package version %q", ErrManifestMalformed, name, v)
		}
		m.Package.Version = v
	case map[string]any:
		if v["workspace"] != true {
			return nil, fmt.Errorf("%w: %v: invalid package version table", ErrManifestMalformed, name)
		}
	default:
		return nil, fmt.Errorf("%w: %v: invalid package version %v", ErrManifestMalformed, name, v)
	}
	return m, nil
}

// validVersion reports whether v is a full semantic version such as
// "1.2.3" or "0.1.0-alpha.1+build".
func validVersion(v string) bool {
	v, _, _ = strings.Cut(v, "+")
	return semver.IsValid("v"+v) && semver.Canonical("v"+v) == "v"+v
}
