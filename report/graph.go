package report

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/ffishim/dustr/binding"
)

// Graph is the import graph between the Dart libraries of the modules with
// bound items.
type Graph struct {
	// Modules holds qualified module names in order of first appearance.
	Modules []string
	// Imports maps a module to the modules its items use types of.
	Imports map[string][]string
}

func moduleOf(key string) string {
	i := strings.LastIndex(key, "::")
	if i < 0 {
		return key
	}
	return key[:i]
}

// NewGraph builds the import graph of set.
func NewGraph(set *binding.Set) *Graph {
	g := &Graph{Imports: map[string][]string{}}
	libs := map[string]string{} // Dart import to module
	for _, it := range set.Items {
		mod := moduleOf(it.Key)
		if _, ok := g.Imports[mod]; !ok {
			g.Modules = append(g.Modules, mod)
			g.Imports[mod] = nil
			lib := fmt.Sprintf("package:%v/%v.dart", set.Package, strings.ReplaceAll(mod, "::", "/"))
			libs[lib] = mod
		}
	}
	for _, it := range set.Items {
		mod := moduleOf(it.Key)
		for _, imp := range it.Imports {
			dep, ok := libs[imp]
			if !ok || dep == mod || slices.Contains(g.Imports[mod], dep) {
				continue
			}
			g.Imports[mod] = append(g.Imports[mod], dep)
		}
	}
	for _, deps := range g.Imports {
		slices.Sort(deps)
	}
	return g
}

// Reachable returns the modules reachable from roots, including roots.
func (g *Graph) Reachable(roots []string) map[string]struct{} {
	reachable := map[string]struct{}{}
	nodes := slices.Clone(roots)
	var newNodes []string
	for len(nodes) > 0 {
		for _, node := range nodes {
			if _, ok := reachable[node]; ok {
				continue
			}
			reachable[node] = struct{}{}
			newNodes = append(newNodes, g.Imports[node]...)
		}
		nodes, newNodes = newNodes, nodes[:0]
	}
	return reachable
}

// DOT writes graphviz DOT code for g. If roots is not empty, only modules
// reachable from roots are included.
func DOT(w io.Writer, g *Graph, roots []string) error {
	nodes := g.Modules
	if len(roots) > 0 {
		reachable := g.Reachable(roots)
		nodes = slices.DeleteFunc(slices.Clone(nodes), func(mod string) bool {
			_, ok := reachable[mod]
			return !ok
		})
	}

	var b bytes.Buffer
	b.WriteString("digraph imports {\n")
	b.WriteString(IndentString("rankdir=LR\nnode [shape=box]", "  ", 1))
	b.WriteByte('\n')
	nodeIDs := map[string]int{}
	for id, mod := range nodes {
		fmt.Fprintf(&b, "  %v [label=%v]\n", id, strconv.Quote(mod))
		nodeIDs[mod] = id
	}
	for id, mod := range nodes {
		var ids []string
		for _, dep := range g.Imports[mod] {
			if depID, ok := nodeIDs[dep]; ok {
				ids = append(ids, strconv.Itoa(depID))
			}
		}
		if len(ids) == 0 {
			continue
		}
		fmt.Fprintf(&b, "  %v -> {%v}\n", id, strings.Join(ids, " "))
	}
	b.WriteString("}\n")
	_, err := w.Write(b.Bytes())
	return err
}
