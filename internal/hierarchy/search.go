package hierarchy

import (
	"context"
	"fmt"

	"github.com/substratelabs/hsi/internal/types"
)

// SearchParams describes one descendant query. Created per invocation and
// discarded after the call returns.
type SearchParams struct {
	// Root is the type whose transitive subtypes are wanted.
	Root NodeHandle
	// Scope restricts which nodes may be reported. A local scope (explicit
	// file set) switches to the file-scan strategy.
	Scope types.SearchScope
	// NamePredicate filters named candidates; nil matches everything.
	// Anonymous candidates bypass the name predicate.
	NamePredicate func(name string) bool
	// IncludeAnonymous also reports anonymous and local types.
	IncludeAnonymous bool
	// Progress, if set, receives a human-readable status line when the
	// search starts.
	Progress func(status string)
}

// Search is the entry point for descendant queries. It owns no graph data;
// it coordinates the provider, the shared subtree cache, and the caller's
// consumer.
type Search struct {
	provider Provider
	cache    *SubtreeCache
}

// NewSearch creates a search front end over provider, sharing traversals
// through cache.
func NewSearch(provider Provider, cache *SubtreeCache) *Search {
	return &Search{provider: provider, cache: cache}
}

// Cache exposes the shared subtree cache, mainly for invalidation and
// stats.
func (s *Search) Cache() *SubtreeCache {
	return s.cache
}

// FindDescendants streams every transitive subtype of params.Root that
// passes scope and name filtering to consumer. It returns true if the full
// result set was delivered and false if the consumer stopped early.
// Cooperative cancellation surfaces as ctx.Err(); a provider failure
// surfaces as *errors.ProviderError. Both leave shared state valid for
// later callers.
func (s *Search) FindDescendants(ctx context.Context, params SearchParams, consumer Consumer) (bool, error) {
	pred := params.NamePredicate
	if pred == nil {
		pred = matchAll
	}

	var root *types.TypeNode
	var universal bool
	err := s.provider.Read(func(snap Snapshot) error {
		node, live := snap.Resolve(params.Root)
		if !live {
			return nil
		}
		root = node
		if base, ok := snap.UniversalBase(); ok && base == params.Root {
			universal = true
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if root == nil {
		// The root itself no longer resolves; there is nothing to search.
		return true, nil
	}

	if params.Progress != nil {
		if root.Name != "" {
			params.Progress(fmt.Sprintf("searching subtypes of %s", root.Name))
		} else {
			params.Progress("searching subtypes")
		}
	}

	// No traversal is possible below an anonymous, final or sealed root.
	if root.IsAnonymous() || !root.Extensibility.Expandable() {
		return true, nil
	}

	if universal {
		return s.scanEverything(ctx, params, pred, consumer)
	}
	if params.Scope.IsLocal() {
		return s.localScan(ctx, params, pred, consumer)
	}
	return s.traverseSubtree(ctx, params, pred, consumer)
}

// scanEverything handles a root that is the universal base type:
// everything inherits from it, so a hierarchy walk is pointless. Instead
// the whole graph is scanned through the name predicate, excluding the
// universal base itself.
func (s *Search) scanEverything(ctx context.Context, params SearchParams, pred func(string) bool, consumer Consumer) (bool, error) {
	var candidates []NodeHandle
	err := s.provider.Read(func(snap Snapshot) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return snap.AllTypes(pred, func(h NodeHandle) bool {
			if h != params.Root {
				candidates = append(candidates, h)
			}
			return true
		})
	})
	if err != nil {
		return false, err
	}

	for _, h := range candidates {
		node, err := s.checkCandidate(ctx, h, params, pred)
		if err != nil {
			return false, err
		}
		if node == nil {
			continue
		}
		if !consumer(node) {
			return false, nil
		}
	}
	return true, nil
}

// traverseSubtree is the general case: pull the shared lazy subtree of the
// root one node at a time and feed survivors of filtering to the consumer.
func (s *Search) traverseSubtree(ctx context.Context, params SearchParams, pred func(string) bool, consumer Consumer) (bool, error) {
	cursor := s.cache.GetOrCompute(params.Root).Cursor()
	for {
		h, ok, err := cursor.Next(ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			return true, nil
		}

		node, err := s.checkCandidate(ctx, h, params, pred)
		if err != nil {
			return false, err
		}
		if node == nil {
			continue
		}
		if !consumer(node) {
			return false, nil
		}
	}
}

// checkCandidate resolves a discovered handle and applies the anonymous
// gate and the scope/name filter under one graph read. It returns nil for
// candidates to skip; the consumer is invoked outside the read.
func (s *Search) checkCandidate(ctx context.Context, h NodeHandle, params SearchParams, pred func(string) bool) (*types.TypeNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var node *types.TypeNode
	err := s.provider.Read(func(snap Snapshot) error {
		n, live := snap.Resolve(h)
		if !live {
			return nil
		}
		if n.IsAnonymous() && !params.IncludeAnonymous {
			return nil
		}
		if !acceptCandidate(n, params.Scope, pred) {
			return nil
		}
		node = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}
