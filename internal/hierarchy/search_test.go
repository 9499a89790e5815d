package hierarchy

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hsierrors "github.com/substratelabs/hsi/internal/errors"
	"github.com/substratelabs/hsi/internal/types"
)

// diamondGraph builds:
//
//	Base <- Left <- Deep
//	Base <- Right (final)
//	Left and Right both also have Diamond as a child.
func diamondGraph() (*fakeGraph, NodeHandle) {
	g := newFakeGraph()
	base := g.addClass(1, "Base", 1)
	left := g.addClass(2, "Left", 1)
	right := g.addNode(3, "Right", types.KindClass, types.ExtensibleFinal, 1)
	deep := g.addClass(4, "Deep", 2)
	diamond := g.addClass(5, "Diamond", 2)
	g.addEdge(base, left)
	g.addEdge(base, right)
	g.addEdge(left, deep)
	g.addEdge(left, diamond)
	g.addEdge(right, diamond)
	return g, base
}

func runSearch(t *testing.T, g *fakeGraph, params SearchParams) ([]*types.TypeNode, bool) {
	t.Helper()
	search := NewSearch(g, NewSubtreeCache(g))
	var results []*types.TypeNode
	complete, err := search.FindDescendants(context.Background(), params, func(node *types.TypeNode) bool {
		results = append(results, node)
		return true
	})
	require.NoError(t, err)
	return results, complete
}

func TestFindDescendantsReportsEveryTransitiveSubtype(t *testing.T) {
	g, base := diamondGraph()

	results, complete := runSearch(t, g, SearchParams{
		Root:  base,
		Scope: types.EverythingScope(),
	})

	assert.True(t, complete)
	names := collectNames(results)
	sort.Strings(names)
	assert.Equal(t, []string{"Deep", "Diamond", "Left", "Right"}, names)
}

func TestDiamondReportedOncePerTraversal(t *testing.T) {
	g, base := diamondGraph()

	results, _ := runSearch(t, g, SearchParams{
		Root:  base,
		Scope: types.EverythingScope(),
	})

	seen := make(map[string]int)
	for _, n := range results {
		seen[n.Name]++
	}
	assert.Equal(t, 1, seen["Diamond"], "node reachable through two parents must be reported once")
}

func TestRootItselfNeverReported(t *testing.T) {
	g, base := diamondGraph()

	results, _ := runSearch(t, g, SearchParams{
		Root:  base,
		Scope: types.EverythingScope(),
	})
	for _, n := range results {
		assert.NotEqual(t, base.ID, n.ID)
	}
}

func TestFinalChildReportedButNotExpanded(t *testing.T) {
	g := newFakeGraph()
	base := g.addClass(1, "Base", 1)
	sealed := g.addNode(2, "Sealed", types.KindClass, types.ExtensibleFinal, 1)
	hidden := g.addClass(3, "Hidden", 1)
	g.addEdge(base, sealed)
	g.addEdge(sealed, hidden)

	results, complete := runSearch(t, g, SearchParams{
		Root:  base,
		Scope: types.EverythingScope(),
	})

	assert.True(t, complete)
	assert.Equal(t, []string{"Sealed"}, collectNames(results))
	assert.Equal(t, 0, g.fetchCount(sealed), "final node must not have its children fetched")
}

func TestFinalRootHasNoDescendants(t *testing.T) {
	g := newFakeGraph()
	root := g.addNode(1, "Leaf", types.KindClass, types.ExtensibleFinal, 1)
	child := g.addClass(2, "Bogus", 1)
	g.addEdge(root, child)

	results, complete := runSearch(t, g, SearchParams{
		Root:  root,
		Scope: types.EverythingScope(),
	})
	assert.True(t, complete)
	assert.Empty(t, results)
}

func TestUnresolvedRootIsEmptySuccess(t *testing.T) {
	g := newFakeGraph()
	results, complete := runSearch(t, g, SearchParams{
		Root:  NodeHandle{ID: 99},
		Scope: types.EverythingScope(),
	})
	assert.True(t, complete)
	assert.Empty(t, results)
}

func TestEarlyTerminationStopsSearch(t *testing.T) {
	g, base := diamondGraph()
	search := NewSearch(g, NewSubtreeCache(g))

	var count int
	var fetchesAtStop map[types.NodeID]int
	complete, err := search.FindDescendants(context.Background(), SearchParams{
		Root:  base,
		Scope: types.EverythingScope(),
	}, func(node *types.TypeNode) bool {
		count++
		if count == 2 {
			fetchesAtStop = g.fetchSnapshot()
			return false
		}
		return true
	})

	require.NoError(t, err)
	assert.False(t, complete, "consumer stop must report an incomplete search")
	assert.Equal(t, 2, count)

	// Declining further results must stop expansion cold: no provider call
	// may happen after the stopping point, and nodes still sitting in the
	// frontier (Deep, Diamond) must never have been fetched at all.
	assert.Equal(t, fetchesAtStop, g.fetchSnapshot(),
		"children fetched after the consumer declined")
	assert.Equal(t, 0, g.fetchCount(NodeHandle{ID: 4}))
	assert.Equal(t, 0, g.fetchCount(NodeHandle{ID: 5}))
}

func TestNamePredicateFiltersResults(t *testing.T) {
	g, base := diamondGraph()

	results, complete := runSearch(t, g, SearchParams{
		Root:          base,
		Scope:         types.EverythingScope(),
		NamePredicate: func(name string) bool { return name == "Deep" },
	})

	assert.True(t, complete)
	assert.Equal(t, []string{"Deep"}, collectNames(results))
}

func TestAnonymousNodesGatedByIncludeAnonymous(t *testing.T) {
	g := newFakeGraph()
	base := g.addClass(1, "Base", 1)
	anon := g.addNode(2, "", types.KindAnonymous, types.ExtensibleAnonymous, 1)
	named := g.addClass(3, "Named", 1)
	g.addEdge(base, anon)
	g.addEdge(base, named)

	results, _ := runSearch(t, g, SearchParams{
		Root:  base,
		Scope: types.EverythingScope(),
	})
	assert.Equal(t, []string{"Named"}, collectNames(results))

	results, _ = runSearch(t, g, SearchParams{
		Root:             base,
		Scope:            types.EverythingScope(),
		IncludeAnonymous: true,
	})
	assert.Len(t, results, 2)
}

func TestAnonymousNodesBypassNamePredicate(t *testing.T) {
	g := newFakeGraph()
	base := g.addClass(1, "Base", 1)
	anon := g.addNode(2, "", types.KindAnonymous, types.ExtensibleAnonymous, 1)
	g.addEdge(base, anon)

	results, _ := runSearch(t, g, SearchParams{
		Root:             base,
		Scope:            types.EverythingScope(),
		NamePredicate:    func(string) bool { return false },
		IncludeAnonymous: true,
	})
	assert.Len(t, results, 1, "anonymous candidates must not be name-filtered")
}

func TestStaleHandleSkippedSilently(t *testing.T) {
	g := newFakeGraph()
	base := g.addClass(1, "Base", 1)
	gone := g.addClass(2, "Gone", 1)
	kept := g.addClass(3, "Kept", 1)
	orphan := g.addClass(4, "Orphan", 1)
	g.addEdge(base, gone)
	g.addEdge(base, kept)
	g.addEdge(gone, orphan)
	g.removeNode(gone)

	results, complete := runSearch(t, g, SearchParams{
		Root:  base,
		Scope: types.EverythingScope(),
	})

	assert.True(t, complete, "stale handles are dropped, not failed")
	assert.Equal(t, []string{"Kept"}, collectNames(results))
}

func TestProviderFailureSurfacesAsProviderError(t *testing.T) {
	g, base := diamondGraph()
	g.failChildren[2] = errors.New("index corrupted") // Left's children fetch

	search := NewSearch(g, NewSubtreeCache(g))
	_, err := search.FindDescendants(context.Background(), SearchParams{
		Root:  base,
		Scope: types.EverythingScope(),
	}, func(*types.TypeNode) bool { return true })

	require.Error(t, err)
	var perr *hsierrors.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, types.NodeID(2), perr.Node)
}

func TestUniversalBaseScansWholeGraph(t *testing.T) {
	g := newFakeGraph()
	object := g.addClass(1, "Object", 1)
	a := g.addClass(2, "A", 1)
	b := g.addClass(3, "B", 2)
	g.universal = object.ID
	// No edges at all: everything is still a descendant of the universal
	// base by definition.
	_ = a
	_ = b

	results, complete := runSearch(t, g, SearchParams{
		Root:  object,
		Scope: types.EverythingScope(),
	})

	assert.True(t, complete)
	names := collectNames(results)
	sort.Strings(names)
	assert.Equal(t, []string{"A", "B"}, names, "universal base itself must be excluded")
	assert.Equal(t, 0, g.fetchCount(object), "universal base must not be traversed edge by edge")
}

func TestCancellationPropagatesAndCollectionStaysReusable(t *testing.T) {
	g, base := diamondGraph()
	cache := NewSubtreeCache(g)
	search := NewSearch(g, cache)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := search.FindDescendants(ctx, SearchParams{
		Root:  base,
		Scope: types.EverythingScope(),
	}, func(*types.TypeNode) bool {
		cancel() // abort mid-traversal
		return true
	})
	require.ErrorIs(t, err, context.Canceled)

	// The shared collection must still complete for the next caller.
	results, complete := func() ([]*types.TypeNode, bool) {
		var out []*types.TypeNode
		complete, err := search.FindDescendants(context.Background(), SearchParams{
			Root:  base,
			Scope: types.EverythingScope(),
		}, func(node *types.TypeNode) bool {
			out = append(out, node)
			return true
		})
		require.NoError(t, err)
		return out, complete
	}()

	assert.True(t, complete)
	names := collectNames(results)
	sort.Strings(names)
	assert.Equal(t, []string{"Deep", "Diamond", "Left", "Right"}, names)
}

func TestRepeatedQueryReusesExpansion(t *testing.T) {
	g, base := diamondGraph()
	cache := NewSubtreeCache(g)
	search := NewSearch(g, cache)

	run := func() []string {
		var out []string
		_, err := search.FindDescendants(context.Background(), SearchParams{
			Root:  base,
			Scope: types.EverythingScope(),
		}, func(node *types.TypeNode) bool {
			out = append(out, node.Name)
			return true
		})
		require.NoError(t, err)
		sort.Strings(out)
		return out
	}

	first := run()
	fetchesAfterFirst := g.fetchCount(base)
	second := run()

	assert.Equal(t, first, second)
	assert.Equal(t, fetchesAfterFirst, g.fetchCount(base),
		"second traversal must be served from the cached collection")
	assert.Equal(t, 1, g.fetchCount(base))
}
