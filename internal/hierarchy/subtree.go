package hierarchy

import (
	"context"
	"sync"

	hsierrors "github.com/substratelabs/hsi/internal/errors"
)

// SubtreeCollection is the lazily discovered set of transitive subtypes of
// one root node. It is append-only: once a handle is appended it is never
// removed or reordered, so independent cursors advancing at different rates
// always observe a consistent prefix. Construction is cheap; all traversal
// work happens in expansion steps driven by cursors.
//
// The traversal excludes the root itself. Nodes that are final, sealed or
// anonymous still appear in the output but are never expanded further.
type SubtreeCollection struct {
	provider Provider
	root     NodeHandle

	// expandMu serializes expansion steps so concurrent cursors never
	// duplicate children fetches or corrupt the frontier.
	expandMu sync.Mutex
	frontier *frontier
	drained  bool

	// mu guards nodes; appends happen under expandMu as well, reads only
	// need the read side.
	mu    sync.RWMutex
	nodes []NodeHandle
}

func newSubtreeCollection(provider Provider, root NodeHandle) *SubtreeCollection {
	return &SubtreeCollection{
		provider: provider,
		root:     root,
		frontier: newFrontier(root),
	}
}

// Root returns the handle this collection was seeded with.
func (sc *SubtreeCollection) Root() NodeHandle {
	return sc.root
}

// Len returns the number of descendants discovered so far.
func (sc *SubtreeCollection) Len() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return len(sc.nodes)
}

func (sc *SubtreeCollection) at(index int) (NodeHandle, bool) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	if index < len(sc.nodes) {
		return sc.nodes[index], true
	}
	return NodeHandle{}, false
}

func (sc *SubtreeCollection) append(h NodeHandle) {
	sc.mu.Lock()
	sc.nodes = append(sc.nodes, h)
	sc.mu.Unlock()
}

// expandStep runs expansion until one new descendant has been appended or
// the frontier drains. It reports whether anything was appended.
//
// Cancellation is observed only between steps, never after a handle has
// been popped, so an aborted traversal leaves the frontier intact and the
// collection stays valid for later callers.
func (sc *SubtreeCollection) expandStep(ctx context.Context) (bool, error) {
	sc.expandMu.Lock()
	defer sc.expandMu.Unlock()

	if sc.drained {
		return false, nil
	}

	appended := false
	err := sc.provider.Read(func(snap Snapshot) error {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			h, ok := sc.frontier.pop()
			if !ok {
				sc.drained = true
				sc.frontier.releaseProcessed()
				return nil
			}
			if !sc.frontier.markProcessed(h) {
				continue
			}

			node, live := snap.Resolve(h)
			if !live {
				// Stale handle: the node vanished between discovery and
				// expansion. Tolerated, not an error.
				continue
			}

			if node.Extensibility.Expandable() {
				children, err := snap.DirectChildren(h.ID)
				if err != nil {
					return hsierrors.NewProviderError("direct children", err).WithNode(h.ID)
				}
				for _, child := range children {
					sc.frontier.push(child)
				}
			}

			if h != sc.root {
				sc.append(h)
				appended = true
				// One new element is enough; the rest of the frontier
				// waits for the next step.
				return nil
			}
		}
	})
	return appended, err
}

// Cursor is one reader's position in the collection. Cursors are cheap and
// independent; a fresh cursor always observes the full prefix discovered so
// far and pulls further expansion on demand. A Cursor must not be shared
// between goroutines.
type Cursor struct {
	coll  *SubtreeCollection
	index int
}

// Cursor opens a new cursor at the start of the collection.
func (sc *SubtreeCollection) Cursor() *Cursor {
	return &Cursor{coll: sc}
}

// Next returns the next descendant handle, expanding the traversal if no
// buffered element remains. It reports false when the subtree is exhausted.
func (c *Cursor) Next(ctx context.Context) (NodeHandle, bool, error) {
	for {
		if h, ok := c.coll.at(c.index); ok {
			c.index++
			return h, true, nil
		}
		appended, err := c.coll.expandStep(ctx)
		if err != nil {
			return NodeHandle{}, false, err
		}
		if appended {
			continue
		}
		// Nothing appended by this step; another cursor may still have
		// filled our slot between the length check and the expansion.
		if _, ok := c.coll.at(c.index); ok {
			continue
		}
		return NodeHandle{}, false, nil
	}
}
