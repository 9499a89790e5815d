package hierarchy

import (
	"sync"

	"github.com/substratelabs/hsi/internal/types"
)

// fakeGraph is an in-memory Provider for tests. It counts DirectChildren
// calls per node so cache-sharing tests can assert that expansion work is
// never repeated.
type fakeGraph struct {
	mu        sync.RWMutex
	nodes     map[types.NodeID]*types.TypeNode
	children  map[types.NodeID][]NodeHandle
	parents   map[types.NodeID][]types.NodeID
	fileDecls map[types.FileID][]DeclTree
	universal types.NodeID

	fetchMu      sync.Mutex
	fetches      map[types.NodeID]int
	failChildren map[types.NodeID]error
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		nodes:        make(map[types.NodeID]*types.TypeNode),
		children:     make(map[types.NodeID][]NodeHandle),
		parents:      make(map[types.NodeID][]types.NodeID),
		fileDecls:    make(map[types.FileID][]DeclTree),
		fetches:      make(map[types.NodeID]int),
		failChildren: make(map[types.NodeID]error),
	}
}

func (g *fakeGraph) addNode(id uint64, name string, kind types.TypeKind, ext types.Extensibility, file uint32) NodeHandle {
	node := &types.TypeNode{
		ID:            types.NodeID(id),
		Name:          name,
		QualifiedName: name,
		Kind:          kind,
		Extensibility: ext,
		FileID:        types.FileID(file),
		Line:          1,
	}
	g.mu.Lock()
	g.nodes[node.ID] = node
	g.mu.Unlock()
	return NodeHandle{ID: node.ID}
}

func (g *fakeGraph) addClass(id uint64, name string, file uint32) NodeHandle {
	return g.addNode(id, name, types.KindClass, types.ExtensibleOpen, file)
}

func (g *fakeGraph) addEdge(parent, child NodeHandle) {
	g.mu.Lock()
	g.children[parent.ID] = append(g.children[parent.ID], child)
	g.parents[child.ID] = append(g.parents[child.ID], parent.ID)
	g.mu.Unlock()
}

// removeNode makes a handle stale: edges stay, the node is gone.
func (g *fakeGraph) removeNode(h NodeHandle) {
	g.mu.Lock()
	delete(g.nodes, h.ID)
	g.mu.Unlock()
}

func (g *fakeGraph) fetchCount(h NodeHandle) int {
	g.fetchMu.Lock()
	defer g.fetchMu.Unlock()
	return g.fetches[h.ID]
}

// fetchSnapshot copies the per-node DirectChildren call counts.
func (g *fakeGraph) fetchSnapshot() map[types.NodeID]int {
	g.fetchMu.Lock()
	defer g.fetchMu.Unlock()
	snap := make(map[types.NodeID]int, len(g.fetches))
	for id, n := range g.fetches {
		snap[id] = n
	}
	return snap
}

func (g *fakeGraph) Read(fn func(Snapshot) error) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return fn(fakeSnap{g: g})
}

type fakeSnap struct {
	g *fakeGraph
}

func (s fakeSnap) Resolve(h NodeHandle) (*types.TypeNode, bool) {
	node, ok := s.g.nodes[h.ID]
	return node, ok
}

func (s fakeSnap) DirectChildren(id types.NodeID) ([]NodeHandle, error) {
	s.g.fetchMu.Lock()
	s.g.fetches[id]++
	err := s.g.failChildren[id]
	s.g.fetchMu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.g.children[id], nil
}

func (s fakeSnap) AllTypes(pred func(string) bool, fn func(NodeHandle) bool) error {
	for id, node := range s.g.nodes {
		if node.Name != "" && !pred(node.Name) {
			continue
		}
		if !fn(NodeHandle{ID: id}) {
			return nil
		}
	}
	return nil
}

func (s fakeSnap) IsSubtypeOf(candidate, root types.NodeID) (bool, error) {
	if candidate == root {
		return false, nil
	}
	visited := map[types.NodeID]struct{}{candidate: {}}
	stack := append([]types.NodeID(nil), s.g.parents[candidate]...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == root {
			return true, nil
		}
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}
		stack = append(stack, s.g.parents[id]...)
	}
	return false, nil
}

func (s fakeSnap) FileDeclarations(fileID types.FileID) []DeclTree {
	return s.g.fileDecls[fileID]
}

func (s fakeSnap) UniversalBase() (NodeHandle, bool) {
	if s.g.universal == 0 {
		return NodeHandle{}, false
	}
	return NodeHandle{ID: s.g.universal}, true
}

// collectNames runs a search to completion and returns the matched names.
func collectNames(nodes []*types.TypeNode) []string {
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.Name)
	}
	return names
}
