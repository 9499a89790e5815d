package hierarchy

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	hsierrors "github.com/substratelabs/hsi/internal/errors"
	"github.com/substratelabs/hsi/internal/types"
)

// errConsumerStop aborts the remaining scope files once the consumer has
// declined further results. It never escapes localScan.
var errConsumerStop = errors.New("consumer stopped")

// localScan handles a finite explicit file scope: enumerating the scope
// files and testing each declaration directly against the root is cheaper
// than walking a potentially huge global hierarchy and filtering almost all
// of it away. Files are scanned concurrently; order across files is
// unspecified, each file's structure is read under one graph snapshot, and
// consumer calls are serialized.
func (s *Search) localScan(ctx context.Context, params SearchParams, pred func(string) bool, consumer Consumer) (bool, error) {
	g, gctx := errgroup.WithContext(ctx)
	var consumerMu sync.Mutex
	var stopped atomic.Bool

	for _, fileID := range params.Scope.Files() {
		g.Go(func() error {
			if stopped.Load() {
				return nil
			}
			var matches []*types.TypeNode
			err := s.provider.Read(func(snap Snapshot) error {
				return collectFileMatches(gctx, snap, snap.FileDeclarations(fileID), params, pred, &matches)
			})
			if err != nil {
				return err
			}

			for _, node := range matches {
				if err := gctx.Err(); err != nil {
					return err
				}
				consumerMu.Lock()
				if stopped.Load() {
					consumerMu.Unlock()
					return nil
				}
				ok := consumer(node)
				if !ok {
					stopped.Store(true)
				}
				consumerMu.Unlock()
				if !ok {
					return errConsumerStop
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, errConsumerStop) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// collectFileMatches walks one file's declaration tree and gathers every
// declaration that transitively inherits from the root and passes
// filtering. Declarations local to code blocks (anonymous and local types)
// are descended into only when anonymous inclusion is requested.
func collectFileMatches(ctx context.Context, snap Snapshot, decls []DeclTree, params SearchParams, pred func(string) bool, out *[]*types.TypeNode) error {
	for _, decl := range decls {
		if err := ctx.Err(); err != nil {
			return err
		}
		if decl.Local && !params.IncludeAnonymous {
			continue
		}

		if node, live := snap.Resolve(decl.Node); live {
			if params.IncludeAnonymous || !node.IsAnonymous() {
				isSub, err := snap.IsSubtypeOf(node.ID, params.Root.ID)
				if err != nil {
					return hsierrors.NewProviderError("subtype check", err).WithNode(node.ID)
				}
				if isSub && acceptCandidate(node, params.Scope, pred) {
					*out = append(*out, node)
				}
			}
		}

		if err := collectFileMatches(ctx, snap, decl.Nested, params, pred, out); err != nil {
			return err
		}
	}
	return nil
}
