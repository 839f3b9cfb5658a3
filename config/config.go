package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"dario.cat/mergo"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

// Rule selects items by regular expressions and changes how they are
// bound. Rules run in file order; imported rules run after local ones.
type Rule struct {
	Select struct {
		// Module matches the Rust module path, e.g. "geo::shapes".
		Module *regexp.Regexp `toml:"module"`
		Name   *regexp.Regexp `toml:"name"`
		// Kind is "struct", "enum" or "function".
		Kind string `toml:"kind"`
	} `toml:"select"`
	Actions struct {
		Include  *bool  `toml:"include"`
		Rename   string `toml:"rename"`
		ToCasing string `toml:"to-casing"`
	} `toml:"action"`
}

// Config is the contents of a dustr.toml file.
type Config struct {
	Imports []string `toml:"imports"`
	// Crate is the crate directory, relative to the config file.
	Crate string `toml:"crate"`
	// Package is the Dart package imports are generated for. Defaults to
	// the crate name.
	Package string `toml:"package"`
	// Bindings is the bindings list file, relative to the config file.
	Bindings string `toml:"bindings"`
	Format   string `toml:"format"`
	LogLevel string `toml:"log-level"`
	Rules    []Rule `toml:"rule"`
}

// Default returns the configuration used without a dustr.toml.
func Default() *Config {
	return &Config{
		Crate:    ".",
		Format:   "text",
		LogLevel: "info",
	}
}

var formats = []string{"text", "yaml", "json", "dot"}

// Validate checks values that the decoder cannot.
func (c *Config) Validate() error {
	if c.Format != "" {
		if !slices.Contains(formats, c.Format) {
			return fmt.Errorf("format: expected one of %v, got %q", formats, c.Format)
		}
	}
	if c.LogLevel != "" {
		if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("log-level: %w", err)
		}
	}
	for i, r := range c.Rules {
		switch r.Select.Kind {
		case "", "struct", "enum", "function":
		default:
			return fmt.Errorf("rule %v: select: unknown kind: %v", i+1, r.Select.Kind)
		}
		switch r.Actions.ToCasing {
		case "", "camel", "lower-camel", "snake":
		default:
			return fmt.Errorf("rule %v: action: unknown casing: %v", i+1, r.Actions.ToCasing)
		}
	}
	return nil
}

type Error struct {
	filePath string
	err      error  // short, single-line error
	str      string // full, multi-line error string, or err string, if none
}

// Error returns a short error message.
func (e *Error) Error() string {
	return e.filePath + ": " + e.err.Error()
}

// String returns the full multi-line error string.
func (e *Error) String() string {
	if e.str != "" {
		return "Error in file " + strconv.Quote(e.filePath) + ":\n" + e.str
	} else {
		return e.Error()
	}
}

func (e *Error) Unwrap() error {
	return e.err
}

// Load reads the dustr.toml at path, merging in its imports. Relative
// import paths are relative to the importing file. Values set in a file
// take precedence over imported ones; imported rules are appended.
func Load(path string) (*Config, error) {
	return load(path, nil)
}

func load(path string, importedBy []string) (_ *Config, err error) {
	path = filepath.Clean(path)
	defer func() {
		if err != nil {
			var cErr *Error
			if errors.As(err, &cErr) {
				return
			}
			if tErr := (&toml.DecodeError{}); errors.As(err, &tErr) {
				err = &Error{filePath: path, err: err, str: tErr.String()}
			} else if tErr := (&toml.StrictMissingError{}); errors.As(err, &tErr) {
				err = &Error{filePath: path, err: err, str: tErr.String()}
			} else {
				err = &Error{filePath: path, err: err}
			}
		}
	}()

	for _, p := range importedBy {
		if p == path {
			return nil, fmt.Errorf("import cycle: %v", strings.Join(append(importedBy, path), " -> "))
		}
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := &Config{}
	err = toml.NewDecoder(bytes.NewReader(file)).
		DisallowUnknownFields().
		Decode(c)
	if err != nil {
		return nil, err
	}

	var importedCs []*Config // collect imported files first so their imports don't leak into our file's imports
	for _, imp := range c.Imports {
		if !filepath.IsAbs(imp) {
			imp = filepath.Join(filepath.Dir(path), imp)
		}
		newC, err := load(imp, append(slices.Clone(importedBy), path))
		if err != nil {
			return nil, err
		}
		importedCs = append(importedCs, newC)
	}
	for _, newC := range importedCs {
		if err := mergo.Merge(c, newC, mergo.WithAppendSlice); err != nil {
			return nil, err
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// DefaultFile returns the contents of a new dustr.toml for the crate in
// directory crate, generating imports for Dart package pkg.
func DefaultFile(crate, pkg string) string {
	return fmt.Sprintf(`# Crate directory, relative to this file.
crate = %v
# Dart package the generated imports refer to.
package = %v
# Enabled, disabled and renamed items. Refresh with "dustr bindings".
bindings = "bindings.txt"
# Output of "dustr inspect": text, yaml, json or dot.
format = "text"
log-level = "info"

# Rules select items by module, name and kind, e.g.:
#
# [[rule]]
# select.module = "geo::internal(::.*)?"
# action.include = false
#
# [[rule]]
# select.kind = "function"
# select.name = "geo_(.*)"
# action.rename = '\1'
`, strconv.Quote(crate), strconv.Quote(pkg))
}
