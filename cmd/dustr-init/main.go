package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ffishim/dustr/config"
)

// ffiVersion is the version constraint added for package:ffi.
const ffiVersion = "^2.1.0"

var (
	optConfig  string
	optPackage string
)

func init() {
	flag.StringVar(&optConfig, "config", "dustr.toml", "config file to create")
	flag.StringVar(&optPackage, "package", "", "Dart package name (default: name in pubspec.yaml, or the crate name)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), `usage: dustr-init <crate dir> [options...]

options:
`)
		flag.PrintDefaults()
		fmt.Fprintf(flag.CommandLine.Output(), `
examples:
  dustr-init ../geo
  	Create dustr.toml for the crate in ../geo
  dustr-init -package geo_dart ../geo
  	Same, generating imports for the Dart package geo_dart

If a pubspec.yaml exists next to the config file, dustr-init adds the ffi
package to its dependencies.
`)
	}
}

var dartPackageName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

type initOptions struct {
	ConfigPath string
	CrateDir   string
	// Package is optional.
	Package string
}

type initResult struct {
	Crate   string
	Package string
	// PubspecUpdated is whether package:ffi was added to pubspec.yaml.
	PubspecUpdated bool
}

// initConfig creates the config file for the crate in opts.CrateDir.
func initConfig(opts initOptions) (initResult, error) {
	var res initResult

	if _, err := os.Lstat(opts.ConfigPath); err == nil {
		return res, fmt.Errorf("%v already exists", opts.ConfigPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return res, err
	}

	man, err := config.LoadManifest(os.DirFS(opts.CrateDir), "Cargo.toml")
	if err != nil {
		return res, fmt.Errorf("crate %v: %w", opts.CrateDir, err)
	}
	res.Crate = strings.ToLower(man.Package.Name)

	baseDir := filepath.Dir(opts.ConfigPath)
	pubspecPath := filepath.Join(baseDir, "pubspec.yaml")
	pubspec, err := os.ReadFile(pubspecPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return res, err
	}

	res.Package = opts.Package
	if res.Package == "" && pubspec != nil {
		res.Package, err = pubspecName(pubspec)
		if err != nil {
			return res, fmt.Errorf("%v: %w", pubspecPath, err)
		}
	}
	if res.Package == "" {
		res.Package = strings.ReplaceAll(res.Crate, "-", "_")
	}
	if !dartPackageName.MatchString(res.Package) {
		return res, fmt.Errorf("invalid Dart package name %q", res.Package)
	}

	crateDir, err := relPath(baseDir, opts.CrateDir)
	if err != nil {
		return res, err
	}
	if err := os.WriteFile(opts.ConfigPath, []byte(config.DefaultFile(crateDir, res.Package)), 0666); err != nil {
		return res, err
	}

	if pubspec != nil {
		updated, changed, err := addFFIDependency(pubspec)
		if err != nil {
			return res, fmt.Errorf("%v: %w", pubspecPath, err)
		}
		if changed {
			if err := os.WriteFile(pubspecPath, updated, 0666); err != nil {
				return res, err
			}
			res.PubspecUpdated = true
		}
	}
	return res, nil
}

func relPath(base, target string) (string, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", err
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func pubspecName(data []byte) (string, error) {
	var ps struct {
		Name string `yaml:"name"`
	}
	if err := yaml.Unmarshal(data, &ps); err != nil {
		return "", err
	}
	return ps.Name, nil
}

// addFFIDependency adds package:ffi to the dependencies of a pubspec.yaml,
// keeping comments and order. changed is false if it is already there.
func addFFIDependency(data []byte) (_ []byte, changed bool, err error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, false, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, false, errors.New("expected a mapping")
	}
	root := doc.Content[0]

	var deps *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == "dependencies" {
			deps = root.Content[i+1]
			break
		}
	}
	if deps == nil {
		deps = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "dependencies"},
			deps,
		)
	}
	if deps.Kind == yaml.ScalarNode && deps.Tag == "!!null" {
		*deps = yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	}
	if deps.Kind != yaml.MappingNode {
		return nil, false, errors.New("dependencies: expected a mapping")
	}
	for i := 0; i+1 < len(deps.Content); i += 2 {
		if deps.Content[i].Value == "ffi" {
			return data, false, nil
		}
	}
	deps.Content = append(deps.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "ffi"},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: ffiVersion},
	)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, false, err
	}
	if err := enc.Close(); err != nil {
		return nil, false, err
	}
	return buf.Bytes(), true, nil
}

func run(args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return errors.New("expected crate directory (e.g. dustr-init ../geo)")
	}
	res, err := initConfig(initOptions{
		ConfigPath: optConfig,
		CrateDir:   args[0],
		Package:    optPackage,
	})
	if err != nil {
		return err
	}
	if res.PubspecUpdated {
		fmt.Fprintf(stdout, "Added ffi %v to pubspec.yaml\n", ffiVersion)
	}
	fmt.Fprintf(stdout, "Successfully set up dustr for crate %v (Dart package %v)!\n", res.Crate, res.Package)
	fmt.Fprintln(stdout, "You may now run \"dustr bindings\" to create the bindings list.")
	return nil
}

func main() {
	flag.Parse()
	if err := run(flag.Args(), os.Stdout); err != nil {
		fmt.Println("Error:", err)
		if flag.NArg() != 1 {
			fmt.Println()
			flag.Usage()
		}
		os.Exit(1)
	}
}
