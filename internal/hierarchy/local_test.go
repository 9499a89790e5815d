package hierarchy

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/substratelabs/hsi/internal/types"
)

// localFixture builds two files:
//
//	file 1: Base, A extends Base, with a local class LocalA under A and an
//	        anonymous subtype of Base nested in a code block.
//	file 2: B extends A, Unrelated.
func localFixture() (*fakeGraph, NodeHandle) {
	g := newFakeGraph()
	base := g.addClass(1, "Base", 1)
	a := g.addClass(2, "A", 1)
	localA := g.addClass(3, "LocalA", 1)
	anon := g.addNode(4, "", types.KindAnonymous, types.ExtensibleAnonymous, 1)
	b := g.addClass(5, "B", 2)
	unrelated := g.addClass(6, "Unrelated", 2)

	g.addEdge(base, a)
	g.addEdge(a, localA)
	g.addEdge(base, anon)
	g.addEdge(a, b)

	g.fileDecls[1] = []DeclTree{
		{Node: base},
		{Node: a, Nested: []DeclTree{
			{Node: localA, Local: true},
			{Node: anon, Local: true},
		}},
	}
	g.fileDecls[2] = []DeclTree{
		{Node: b},
		{Node: unrelated},
	}
	return g, base
}

func runLocal(t *testing.T, g *fakeGraph, params SearchParams) ([]*types.TypeNode, bool) {
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

func TestLocalScopeScansOnlyScopeFiles(t *testing.T) {
	g, base := localFixture()

	results, complete := runLocal(t, g, SearchParams{
		Root:  base,
		Scope: types.FileScope(2),
	})

	assert.True(t, complete)
	assert.Equal(t, []string{"B"}, collectNames(results))
}

func TestLocalScopeSkipsCodeBlocksWithoutAnonymous(t *testing.T) {
	g, base := localFixture()

	results, _ := runLocal(t, g, SearchParams{
		Root:  base,
		Scope: types.FileScope(1),
	})
	names := collectNames(results)
	sort.Strings(names)
	assert.Equal(t, []string{"A"}, names,
		"local declarations are invisible unless anonymous inclusion is on")

	results, _ = runLocal(t, g, SearchParams{
		Root:             base,
		Scope:            types.FileScope(1),
		IncludeAnonymous: true,
	})
	assert.Len(t, results, 3, "A, LocalA and the anonymous subtype")
}

func TestLocalScopeMatchesTraversalFiltering(t *testing.T) {
	g, base := localFixture()

	local, _ := runLocal(t, g, SearchParams{
		Root:             base,
		Scope:            types.FileScope(1, 2),
		IncludeAnonymous: true,
	})

	full, _ := runLocal(t, g, SearchParams{
		Root:             base,
		Scope:            types.EverythingScope(),
		IncludeAnonymous: true,
	})

	localIDs := make(map[types.NodeID]bool)
	for _, n := range local {
		localIDs[n.ID] = true
	}
	fullIDs := make(map[types.NodeID]bool)
	for _, n := range full {
		fullIDs[n.ID] = true
	}
	assert.Equal(t, fullIDs, localIDs,
		"a scope covering every file must agree with the hierarchy traversal")
}

func TestLocalScopeConsumerStop(t *testing.T) {
	g, base := localFixture()
	search := NewSearch(g, NewSubtreeCache(g))

	var count int
	complete, err := search.FindDescendants(context.Background(), SearchParams{
		Root:  base,
		Scope: types.FileScope(1, 2),
	}, func(*types.TypeNode) bool {
		count++
		return false
	})

	require.NoError(t, err)
	assert.False(t, complete)
	assert.Equal(t, 1, count)
}

func TestLocalScopeCancellation(t *testing.T) {
	g, base := localFixture()
	search := NewSearch(g, NewSubtreeCache(g))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := search.FindDescendants(ctx, SearchParams{
		Root:  base,
		Scope: types.FileScope(1, 2),
	}, func(*types.TypeNode) bool { return true })

	require.ErrorIs(t, err, context.Canceled)
}

func TestLocalScopeExcludesNonSubtypes(t *testing.T) {
	g, base := localFixture()

	results, _ := runLocal(t, g, SearchParams{
		Root:  base,
		Scope: types.FileScope(2),
	})
	for _, n := range results {
		assert.NotEqual(t, "Unrelated", n.Name)
	}
}
