package hierarchy

import (
	"github.com/substratelabs/hsi/internal/types"
)

// acceptCandidate is the pure scope-and-name predicate: a candidate is
// accepted iff it lies within the caller's scope and either is anonymous
// (anonymous nodes bypass name filtering) or carries a name satisfying the
// name predicate.
func acceptCandidate(node *types.TypeNode, scope types.SearchScope, namePred func(string) bool) bool {
	if !scope.Contains(node.FileID) {
		return false
	}
	if node.IsAnonymous() {
		return true
	}
	return node.Name != "" && namePred(node.Name)
}

// matchAll is the default name predicate.
func matchAll(string) bool { return true }
