package hierarchy

// frontier is the explicit worklist of a subtree traversal: a LIFO stack of
// handles still to visit plus the set of handles already taken off the
// stack. A handle is expanded at most once per traversal. Both fields are
// guarded by the owning collection's expansion lock.
type frontier struct {
	stack     []NodeHandle
	processed map[NodeHandle]struct{}
}

func newFrontier(seed NodeHandle) *frontier {
	return &frontier{
		stack:     []NodeHandle{seed},
		processed: make(map[NodeHandle]struct{}),
	}
}

func (f *frontier) push(h NodeHandle) {
	f.stack = append(f.stack, h)
}

func (f *frontier) pop() (NodeHandle, bool) {
	if len(f.stack) == 0 {
		return NodeHandle{}, false
	}
	h := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return h, true
}

// markProcessed records that a handle was taken for expansion. It reports
// false if the handle was already processed in this traversal.
func (f *frontier) markProcessed(h NodeHandle) bool {
	if _, seen := f.processed[h]; seen {
		return false
	}
	f.processed[h] = struct{}{}
	return true
}

func (f *frontier) empty() bool {
	return len(f.stack) == 0
}

// releaseProcessed drops the processed set once the stack is fully drained.
// Nothing can be re-pushed for an exhausted traversal, so the set only
// retains memory at that point.
func (f *frontier) releaseProcessed() {
	f.processed = nil
}
