package hierarchy

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/substratelabs/hsi/internal/types"
)

func TestGetOrComputeReturnsSharedInstance(t *testing.T) {
	g, base := diamondGraph()
	cache := NewSubtreeCache(g)

	first := cache.GetOrCompute(base)
	second := cache.GetOrCompute(base)
	assert.Same(t, first, second)

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
}

func TestConcurrentCallersShareOneExpansion(t *testing.T) {
	g, base := diamondGraph()
	cache := NewSubtreeCache(g)
	search := NewSearch(g, cache)

	var eg errgroup.Group
	for range [8]struct{}{} {
		eg.Go(func() error {
			var names []string
			_, err := search.FindDescendants(context.Background(), SearchParams{
				Root:  base,
				Scope: types.EverythingScope(),
			}, func(node *types.TypeNode) bool {
				names = append(names, node.Name)
				return true
			})
			if err != nil {
				return err
			}
			sort.Strings(names)
			assert.Equal(t, []string{"Deep", "Diamond", "Left", "Right"}, names)
			return nil
		})
	}
	require.NoError(t, eg.Wait())

	// Expansion work is shared: each expandable node's children were
	// fetched exactly once across all eight callers.
	assert.Equal(t, 1, g.fetchCount(base))
	assert.Equal(t, 1, g.fetchCount(NodeHandle{ID: 2})) // Left
}

func TestInvalidateDropsEntries(t *testing.T) {
	g, base := diamondGraph()
	cache := NewSubtreeCache(g)

	stale := cache.GetOrCompute(base)
	cache.Invalidate()
	assert.Equal(t, 0, cache.Stats().Entries)

	fresh := cache.GetOrCompute(base)
	assert.NotSame(t, stale, fresh, "invalidation must force a fresh collection")
}

func TestConcurrentGetOrComputeInstallsOneCollection(t *testing.T) {
	g, base := diamondGraph()
	cache := NewSubtreeCache(g)

	results := make([]*SubtreeCollection, 16)
	var eg errgroup.Group
	for i := range results {
		eg.Go(func() error {
			results[i] = cache.GetOrCompute(base)
			return nil
		})
	}
	require.NoError(t, eg.Wait())

	for _, coll := range results[1:] {
		assert.Same(t, results[0], coll)
	}
	stats := cache.Stats()
	assert.Equal(t, int64(16), stats.Hits+stats.Misses+stats.RaceJoins)
	assert.Equal(t, int64(1), stats.Misses)
}
