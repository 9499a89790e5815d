// Package graph holds the in-memory type graph: every indexed type
// declaration, its direct inheritance edges, and the per-file declaration
// trees. It implements hierarchy.Provider; all reads run under one RWMutex
// read section so a search step always sees a consistent view.
package graph

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/substratelabs/hsi/internal/hierarchy"
	"github.com/substratelabs/hsi/internal/types"
)

// Graph is the mutable symbol graph. Nodes are immutable once created;
// re-indexing a file replaces its nodes with fresh ones, which is what
// makes handles held by in-flight traversals safely stale instead of
// dangling.
type Graph struct {
	mu sync.RWMutex

	nodes          map[types.NodeID]*types.TypeNode
	children       map[types.NodeID][]types.NodeID
	parents        map[types.NodeID][]types.NodeID
	declaredSupers map[types.NodeID][]string // supertype names as written in source

	byQualified map[string]types.NodeID
	bySimple    map[string][]types.NodeID

	fileDecls   map[types.FileID][]hierarchy.DeclTree
	fileNodes   map[types.FileID][]types.NodeID
	filesByPath map[string]types.FileID
	pathsByFile map[types.FileID]string

	universalBase string // qualified or simple name, empty disables the special case

	epoch      uint64
	nextFileID uint32

	// Atomic counters - read without the lock
	childrenFetches int64
	resolves        int64
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:          make(map[types.NodeID]*types.TypeNode),
		children:       make(map[types.NodeID][]types.NodeID),
		parents:        make(map[types.NodeID][]types.NodeID),
		declaredSupers: make(map[types.NodeID][]string),
		byQualified:    make(map[string]types.NodeID),
		bySimple:       make(map[string][]types.NodeID),
		fileDecls:      make(map[types.FileID][]hierarchy.DeclTree),
		fileNodes:      make(map[types.FileID][]types.NodeID),
		filesByPath:    make(map[string]types.FileID),
		pathsByFile:    make(map[types.FileID]string),
	}
}

// SetUniversalBase designates the universal base type of the graph's type
// system (e.g. java.lang.Object). Empty disables the whole-graph-scan
// special case.
func (g *Graph) SetUniversalBase(name string) {
	g.mu.Lock()
	g.universalBase = name
	g.mu.Unlock()
}

// Epoch returns a counter that increments on every mutation. Callers use
// it to detect that cached derived data is out of date.
func (g *Graph) Epoch() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.epoch
}

// nodeID derives a stable identity for a declaration. Named types hash by
// file path plus qualified name so the ID survives the declaration moving
// within its file; anonymous types have no usable name and hash by
// position as well.
func nodeID(path, qualified string, anonymous bool, line, column int) types.NodeID {
	d := xxhash.New()
	_, _ = d.WriteString(path)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(qualified)
	if anonymous {
		_, _ = d.WriteString(fmt.Sprintf("\x00%d:%d", line, column))
	}
	return types.NodeID(d.Sum64())
}

// AddFile installs (or replaces) every type declaration of one source
// file. It returns the file's ID, which stays stable across re-indexing.
func (g *Graph) AddFile(path string, pkg string, decls []types.TypeDecl) types.FileID {
	g.mu.Lock()
	defer g.mu.Unlock()

	fileID, known := g.filesByPath[path]
	if known {
		g.removeFileLocked(fileID)
	} else {
		g.nextFileID++
		fileID = types.FileID(g.nextFileID)
		g.filesByPath[path] = fileID
		g.pathsByFile[fileID] = path
	}

	trees := make([]hierarchy.DeclTree, 0, len(decls))
	for _, decl := range decls {
		trees = append(trees, g.installDecl(path, pkg, fileID, decl, decl.Local))
	}
	g.fileDecls[fileID] = trees

	g.rebuildEdges()
	g.epoch++
	return fileID
}

// installDecl creates the node for one declaration and recurses into its
// nested declarations. Caller holds the write lock.
func (g *Graph) installDecl(path, prefix string, fileID types.FileID, decl types.TypeDecl, local bool) hierarchy.DeclTree {
	anonymous := decl.Name == "" || decl.Kind == types.KindAnonymous

	var qualified string
	switch {
	case anonymous:
		qualified = fmt.Sprintf("%s$%d_%d", prefix, decl.Line, decl.Column)
	case prefix == "":
		qualified = decl.Name
	default:
		qualified = prefix + "." + decl.Name
	}

	id := nodeID(path, qualified, anonymous, decl.Line, decl.Column)
	node := &types.TypeNode{
		ID:            id,
		Name:          decl.Name,
		QualifiedName: qualified,
		Kind:          decl.Kind,
		Extensibility: decl.Extensibility,
		FileID:        fileID,
		Line:          decl.Line,
		Column:        decl.Column,
	}
	g.nodes[id] = node
	g.fileNodes[fileID] = append(g.fileNodes[fileID], id)
	g.byQualified[qualified] = id
	if decl.Name != "" {
		g.bySimple[decl.Name] = append(g.bySimple[decl.Name], id)
	}
	if len(decl.Supertypes) > 0 {
		supers := make([]string, len(decl.Supertypes))
		copy(supers, decl.Supertypes)
		g.declaredSupers[id] = supers
	}

	tree := hierarchy.DeclTree{
		Node:  hierarchy.NodeHandle{ID: id},
		Local: local,
	}
	for _, nested := range decl.Nested {
		tree.Nested = append(tree.Nested, g.installDecl(path, qualified, fileID, nested, nested.Local))
	}
	return tree
}

// RemoveFile drops a file and all its declarations. It reports whether the
// path was indexed.
func (g *Graph) RemoveFile(path string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	fileID, known := g.filesByPath[path]
	if !known {
		return false
	}
	g.removeFileLocked(fileID)
	delete(g.filesByPath, path)
	delete(g.pathsByFile, fileID)
	g.rebuildEdges()
	g.epoch++
	return true
}

// removeFileLocked drops a file's nodes but keeps its file ID reserved.
// Caller holds the write lock and rebuilds edges afterwards.
func (g *Graph) removeFileLocked(fileID types.FileID) {
	for _, id := range g.fileNodes[fileID] {
		node := g.nodes[id]
		if node == nil {
			continue
		}
		delete(g.nodes, id)
		delete(g.declaredSupers, id)
		if g.byQualified[node.QualifiedName] == id {
			delete(g.byQualified, node.QualifiedName)
		}
		if node.Name != "" {
			ids := g.bySimple[node.Name]
			for i, other := range ids {
				if other == id {
					g.bySimple[node.Name] = append(ids[:i], ids[i+1:]...)
					break
				}
			}
			if len(g.bySimple[node.Name]) == 0 {
				delete(g.bySimple, node.Name)
			}
		}
	}
	delete(g.fileNodes, fileID)
	delete(g.fileDecls, fileID)
}

// rebuildEdges recomputes the inheritance adjacency from the declared
// supertype names. Supertype references resolve by qualified name first,
// then by simple name; unresolved names stay pending until the named type
// is indexed. Caller holds the write lock.
func (g *Graph) rebuildEdges() {
	g.children = make(map[types.NodeID][]types.NodeID, len(g.children))
	g.parents = make(map[types.NodeID][]types.NodeID, len(g.parents))

	for id, supers := range g.declaredSupers {
		for _, name := range supers {
			superID, ok := g.resolveNameLocked(name)
			if !ok || superID == id {
				continue
			}
			g.children[superID] = append(g.children[superID], id)
			g.parents[id] = append(g.parents[id], superID)
		}
	}
}

// resolveNameLocked maps a type name to a node. Qualified matches win;
// otherwise the unqualified trailing segment is tried against simple
// names, picking the lowest ID for determinism when the name is ambiguous.
func (g *Graph) resolveNameLocked(name string) (types.NodeID, bool) {
	if id, ok := g.byQualified[name]; ok {
		return id, true
	}
	simple := name
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			simple = name[i+1:]
			break
		}
	}
	ids := g.bySimple[simple]
	if len(ids) == 0 {
		return 0, false
	}
	best := ids[0]
	for _, id := range ids[1:] {
		if id < best {
			best = id
		}
	}
	return best, true
}

// LookupType finds a node by qualified or simple name, for query entry
// points such as the CLI.
func (g *Graph) LookupType(name string) (hierarchy.NodeHandle, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	id, ok := g.resolveNameLocked(name)
	return hierarchy.NodeHandle{ID: id}, ok
}

// FileIDForPath returns the ID assigned to an indexed path.
func (g *Graph) FileIDForPath(path string) (types.FileID, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	id, ok := g.filesByPath[path]
	return id, ok
}

// PathForFileID returns the path behind a file ID.
func (g *Graph) PathForFileID(fileID types.FileID) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	path, ok := g.pathsByFile[fileID]
	return path, ok
}

// Stats describes the current graph contents.
type Stats struct {
	Files           int    `json:"files"`
	Types           int    `json:"types"`
	Edges           int    `json:"edges"`
	Epoch           uint64 `json:"epoch"`
	ChildrenFetches int64  `json:"children_fetches"`
	Resolves        int64  `json:"resolves"`
}

// Stats returns a snapshot of graph size and query counters.
func (g *Graph) Stats() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()
	edges := 0
	for _, kids := range g.children {
		edges += len(kids)
	}
	return Stats{
		Files:           len(g.filesByPath),
		Types:           len(g.nodes),
		Edges:           edges,
		Epoch:           g.epoch,
		ChildrenFetches: atomic.LoadInt64(&g.childrenFetches),
		Resolves:        atomic.LoadInt64(&g.resolves),
	}
}
