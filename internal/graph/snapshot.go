package graph

import (
	"sync/atomic"

	"github.com/substratelabs/hsi/internal/hierarchy"
	"github.com/substratelabs/hsi/internal/types"
)

// Read runs fn against a consistent view of the graph. The read lock is
// held for the duration of fn, so fn must not block on anything outside
// the graph and must not call back into mutating Graph methods.
func (g *Graph) Read(fn func(hierarchy.Snapshot) error) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return fn(snapshot{g: g})
}

// snapshot is the read-locked view handed to hierarchy code. Its methods
// touch graph maps directly; the lock is already held by Read.
type snapshot struct {
	g *Graph
}

func (s snapshot) Resolve(h hierarchy.NodeHandle) (*types.TypeNode, bool) {
	atomic.AddInt64(&s.g.resolves, 1)
	node, ok := s.g.nodes[h.ID]
	return node, ok
}

func (s snapshot) DirectChildren(id types.NodeID) ([]hierarchy.NodeHandle, error) {
	atomic.AddInt64(&s.g.childrenFetches, 1)
	kids := s.g.children[id]
	if len(kids) == 0 {
		return nil, nil
	}
	handles := make([]hierarchy.NodeHandle, len(kids))
	for i, kid := range kids {
		handles[i] = hierarchy.NodeHandle{ID: kid}
	}
	return handles, nil
}

func (s snapshot) AllTypes(pred func(string) bool, fn func(hierarchy.NodeHandle) bool) error {
	for id, node := range s.g.nodes {
		if node.Name != "" && !pred(node.Name) {
			continue
		}
		if !fn(hierarchy.NodeHandle{ID: id}) {
			return nil
		}
	}
	return nil
}

// IsSubtypeOf walks the parent edges upward from candidate with a visited
// set, so malformed inputs with inheritance cycles terminate.
func (s snapshot) IsSubtypeOf(candidate, root types.NodeID) (bool, error) {
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

func (s snapshot) FileDeclarations(fileID types.FileID) []hierarchy.DeclTree {
	return s.g.fileDecls[fileID]
}

func (s snapshot) UniversalBase() (hierarchy.NodeHandle, bool) {
	if s.g.universalBase == "" {
		return hierarchy.NodeHandle{}, false
	}
	id, ok := s.g.resolveNameLocked(s.g.universalBase)
	if !ok {
		return hierarchy.NodeHandle{}, false
	}
	return hierarchy.NodeHandle{ID: id}, true
}
