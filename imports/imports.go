// Package imports implements the directed import graph of spec §3.5/§4.4:
// file-to-file edges, cycle detection on every insertion, and a topological
// emission order.
package imports

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/tide-lang/tidec/ast"
)

// Metadata is attached to a graph node once its file has been parsed
// (spec §3.5 "optional parsed metadata").
type Metadata struct {
	Block           []ast.Statement
	PublicFunctions []string
}

// node is one file in the graph.
type node struct {
	edges []string // outgoing import targets
	meta  *Metadata
}

// Graph is an adjacency-list directed graph keyed by file path, with cycle
// detection performed eagerly on every AddEdge (spec §3.5 invariant: "no
// cycles reachable from the entry file").
type Graph struct {
	nodes map[string]*node
	entry string
}

func New(entryPath string) *Graph {
	g := &Graph{nodes: make(map[string]*node), entry: entryPath}
	g.ensure(entryPath)
	return g
}

func (g *Graph) ensure(path string) *node {
	n, ok := g.nodes[path]
	if !ok {
		n = &node{}
		g.nodes[path] = n
	}
	return n
}

// AddEdge inserts the dst node if new, inserts the edge, then re-runs the
// whole-graph DFS cycle check (hasCycle). On a detected cycle the edge is rolled back and a
// loud error returned. dst is the already-resolved file path the import
// target lives at; validating the shape of the as-written import string is
// the caller's job (spec §4.4), since by the time a path reaches this graph
// it is a filesystem path, not a logical import path, and the two have
// different syntax (a resolved path is routinely absolute, which no
// import-path grammar permits).
func (g *Graph) AddEdge(src, dst string) error {
	g.ensure(src)
	dstNode := g.ensure(dst)
	srcNode := g.nodes[src]

	srcNode.edges = append(srcNode.edges, dst)
	if g.hasCycle() {
		srcNode.edges = srcNode.edges[:len(srcNode.edges)-1]
		return errors.Errorf("circular import: %q imports %q", src, dst)
	}
	_ = dstNode
	return nil
}

// hasCycle runs a colored DFS (white/gray/black) over the whole graph,
// cheap enough to re-run after every edge insertion for graphs of the size
// this compiler handles (one node per source file).
func (g *Graph) hasCycle() bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(g.nodes))
	var visit func(path string) bool
	visit = func(path string) bool {
		color[path] = gray
		for _, next := range g.nodes[path].edges {
			switch color[next] {
			case gray:
				return true
			case white:
				if visit(next) {
					return true
				}
			}
		}
		color[path] = black
		return false
	}
	for path := range g.nodes {
		if color[path] == white {
			if visit(path) {
				return true
			}
		}
	}
	return false
}

// StoreMetadata attaches parsed content to path. Public functions imported
// from another file are, per spec §4.4, injected into the importer's scope
// separately (by the driver, which has access to both files' scope.Context
// values) with is_public cleared locally; this method only records the
// source file's own metadata for later lookup and topological emission.
func (g *Graph) StoreMetadata(path string, block []ast.Statement, publicFuncs []string) {
	g.ensure(path).meta = &Metadata{Block: block, PublicFunctions: publicFuncs}
}

// Metadata returns the stored metadata for path, if any.
func (g *Graph) Metadata(path string) (*Metadata, bool) {
	n, ok := g.nodes[path]
	if !ok || n.meta == nil {
		return nil, false
	}
	return n.meta, true
}

// TopologicalSort returns every known file path such that each appears after
// every file it imports (spec §4.4, §4.7 "Function definitions are emitted
// in topological order").
func (g *Graph) TopologicalSort() ([]string, error) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(g.nodes))
	var order []string
	var visit func(path string) error
	visit = func(path string) error {
		color[path] = gray
		for _, next := range g.nodes[path].edges {
			switch color[next] {
			case gray:
				return fmt.Errorf("circular import detected during topological sort at %q", next)
			case white:
				if err := visit(next); err != nil {
					return err
				}
			}
		}
		color[path] = black
		order = append(order, path)
		return nil
	}
	for path := range g.nodes {
		if color[path] == white {
			if err := visit(path); err != nil {
				return nil, err
			}
		}
	}
	return order, nil
}
