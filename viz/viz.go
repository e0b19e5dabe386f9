// Package viz renders a registered state tree for inspection: Graphviz DOT
// with the active path highlighted, or a plain indented tree.
package viz

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/tinyhsm/tinyhsm"
)

// DOT generates Graphviz source for the registry's tree. States listed in
// active are filled; pass a machine's ActivePath, or nil for a bare tree.
func DOT(reg *tinyhsm.Registry, active []tinyhsm.StateID) string {
	activeSet := make(map[tinyhsm.StateID]bool, len(active))
	for _, id := range active {
		activeSet[id] = true
	}

	var buf bytes.Buffer
	buf.WriteString("digraph hsm {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, fontsize=10, style=rounded];\n")

	descs := reg.Descriptors()
	for _, d := range descs {
		style := ""
		if activeSet[d.ID] {
			style = `, style="rounded,filled", fillcolor=lightgreen`
		}
		fmt.Fprintf(&buf, "  n%d [label=\"%s\\nid=%d level=%d\"%s];\n",
			d.ID, d.Name, d.ID, d.Level, style)
	}
	for _, d := range descs {
		if d.Root() {
			continue
		}
		fmt.Fprintf(&buf, "  n%d -> n%d;\n", d.Parent, d.ID)
	}
	buf.WriteString("}\n")
	return buf.String()
}

// Tree renders the registry as an indented text tree, roots first, children
// in id order.
func Tree(reg *tinyhsm.Registry) string {
	descs := reg.Descriptors()
	children := make(map[tinyhsm.StateID][]tinyhsm.Descriptor)
	var roots []tinyhsm.Descriptor
	for _, d := range descs {
		if d.Root() {
			roots = append(roots, d)
		} else {
			children[d.Parent] = append(children[d.Parent], d)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].ID < roots[j].ID })

	var buf strings.Builder
	var render func(d tinyhsm.Descriptor, depth int)
	render = func(d tinyhsm.Descriptor, depth int) {
		fmt.Fprintf(&buf, "%s%s (id=%d, %d bytes)\n",
			strings.Repeat("  ", depth), d.Name, d.ID, d.Size)
		kids := children[d.ID]
		sort.Slice(kids, func(i, j int) bool { return kids[i].ID < kids[j].ID })
		for _, k := range kids {
			render(k, depth+1)
		}
	}
	for _, root := range roots {
		render(root, 0)
	}
	return buf.String()
}
