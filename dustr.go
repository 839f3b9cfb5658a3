package dustr

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"github.com/rs/zerolog"

	"github.com/ffishim/dustr/binding"
	"github.com/ffishim/dustr/config"
	"github.com/ffishim/dustr/module"
	"github.com/ffishim/dustr/report"
	"github.com/ffishim/dustr/types"
)

const (
	DefaultConfigFile   = "dustr.toml"
	DefaultBindingsFile = "bindings.txt"
)

type Options struct {
	Config *config.Config
	// BaseDir is the directory the paths in Config are relative to.
	BaseDir string
	// Crate overrides Config.Crate. It is relative to the working
	// directory.
	Crate  string
	Logger zerolog.Logger
	// Cache is optional. Reusing it across calls avoids parsing unchanged
	// files again.
	Cache *module.ParseCache
}

// CrateDir returns the directory of the crate to generate bindings for.
func (o Options) CrateDir() string {
	if o.Crate != "" {
		return o.Crate
	}
	crate := "."
	if o.Config != nil && o.Config.Crate != "" {
		crate = o.Config.Crate
	}
	return filepath.Join(o.BaseDir, crate)
}

type Result struct {
	Module *module.Module
	Set    *binding.Set
	// BindingList is nil if no bindings list exists yet.
	BindingList *config.BindingList
	// BindingsPath is where the bindings list is read from and written to.
	BindingsPath string
	Timings      []report.Task
}

// LoadConfig loads the dustr.toml at path and fills in defaults for unset
// values. With an empty path, dustr.toml in the working directory is used
// if it exists. baseDir is the directory of the loaded file.
func LoadConfig(path string) (c *config.Config, baseDir string, err error) {
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return config.Default(), ".", nil
			}
			return nil, "", err
		}
		path = DefaultConfigFile
	}
	c, err = config.Load(path)
	if err != nil {
		return nil, "", err
	}
	if err := mergo.Merge(c, config.Default()); err != nil {
		return nil, "", err
	}
	return c, filepath.Dir(path), nil
}

// Generate builds the module tree of the crate and collects the bindings
// of its items.
//
// If a *[binding.Error] is returned, that error is non-fatal and the Result
// is complete except for the skipped items.
func Generate(opts Options) (*Result, error) {
	c := opts.Config
	if c == nil {
		c = config.Default()
	}
	crateDir := opts.CrateDir()
	res := &Result{}

	timeStart := time.Now()
	b := &module.Builder{
		FS:     os.DirFS(crateDir),
		Logger: opts.Logger,
		Cache:  opts.Cache,
	}
	m, err := b.FromCrate(".")
	if err != nil {
		return nil, fmt.Errorf("crate %v: %w", crateDir, err)
	}
	res.Module = m
	res.Timings = append(res.Timings, report.Task{Name: "Build module tree", Time: time.Since(timeStart)})

	timeStart = time.Now()
	bindings := c.Bindings
	if bindings == "" {
		bindings = DefaultBindingsFile
	}
	res.BindingsPath = filepath.Join(opts.BaseDir, bindings)
	res.BindingList, err = config.LoadBindingListFromFile(res.BindingsPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		res.BindingList = nil
	}
	res.Timings = append(res.Timings, report.Task{Name: "Read bindings.txt", Time: time.Since(timeStart)})

	timeStart = time.Now()
	set, err := binding.Collect(m, types.Default, binding.Options{
		Package:     c.Package,
		Config:      c,
		BindingList: res.BindingList,
		Logger:      opts.Logger,
	})
	if set == nil {
		return nil, err
	}
	res.Set = set
	res.Timings = append(res.Timings, report.Task{Name: "Collect bindings", Time: time.Since(timeStart)})
	return res, err
}

// WriteBindingList writes the bindings list of res to res.BindingsPath.
// Items that are new are enabled, items that no longer exist are dropped.
func WriteBindingList(res *Result) error {
	bl := res.BindingList
	if bl == nil {
		bl = config.NewBindingList()
	}
	return bl.SaveToFile(res.BindingsPath, res.Set.Docs())
}
