// Package hierarchy answers descendant queries against a mutable type
// graph: every transitive subtype of a root node, discovered lazily,
// shared across concurrent callers, filtered by scope and name.
package hierarchy

import (
	"github.com/substratelabs/hsi/internal/types"
)

// NodeHandle is a lightweight, revalidatable reference to a type node. It
// stays comparable and hashable after the underlying node is invalidated;
// Resolve either returns the live node or reports it gone. A handle never
// resolves to a different node than the one it was created from.
type NodeHandle struct {
	ID types.NodeID
}

// Consumer receives matching nodes one at a time. Returning false stops the
// search; that is the normal early-exit outcome, not an error.
type Consumer func(node *types.TypeNode) bool

// DeclTree is one type declaration in a source unit together with the
// declarations lexically nested inside it. Local marks declarations inside
// a code block (anonymous and local types); the local scanner descends into
// those only when anonymous inclusion is requested.
type DeclTree struct {
	Node   NodeHandle
	Local  bool
	Nested []DeclTree
}

// Snapshot is one consistent view of the type graph. All methods are only
// valid for the duration of the Read call that produced the snapshot.
// Returned *types.TypeNode values are immutable and may outlive the
// snapshot; re-indexing replaces nodes, it never mutates them in place.
type Snapshot interface {
	// Resolve revalidates a handle against the live graph. It reports
	// false for a stale handle and never fails.
	Resolve(h NodeHandle) (*types.TypeNode, bool)

	// DirectChildren returns the immediate subtypes of a node across the
	// whole graph, no transitive closure. Scope filtering is the caller's
	// job.
	DirectChildren(id types.NodeID) ([]NodeHandle, error)

	// AllTypes calls fn for every node, in unspecified order, until fn
	// returns false. Named nodes are filtered through pred; unnamed nodes
	// always pass, the caller applies its own anonymous gate. Used only
	// for the universal-base special case.
	AllTypes(pred func(name string) bool, fn func(h NodeHandle) bool) error

	// IsSubtypeOf is a single-shot reachability test: does candidate
	// transitively inherit from root.
	IsSubtypeOf(candidate, root types.NodeID) (bool, error)

	// FileDeclarations returns the declaration tree of one source unit.
	FileDeclarations(fileID types.FileID) []DeclTree

	// UniversalBase returns the configured universal base type of the
	// graph, if any (e.g. java.lang.Object).
	UniversalBase() (NodeHandle, bool)
}

// Provider grants read access to the type graph. Read runs fn under one
// consistent view; implementations typically hold a read lock for the
// duration of fn, so fn must never block on consumers or other searches.
type Provider interface {
	Read(fn func(snap Snapshot) error) error
}
