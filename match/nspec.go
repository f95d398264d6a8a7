package match

import "github.com/vnsched/vnsched/vnode"
import "github.com/vnsched/vnsched/resource"

// Nspec is one vnode's share of a chunk's allocation: the vnode, the
// per-resource amounts taken from it, and the bookkeeping the
// node-release engine and exec_vnode builder need to reconstruct chunk
// boundaries.
type Nspec struct {
	Vnode *vnode.Vnode
	Alloc resource.List

	// EndOfChunk marks the last nspec produced for one chunk instance;
	// concatenating nspecs up to and including an EndOfChunk entry
	// reconstructs that chunk's full allocation.
	EndOfChunk bool
	SeqNum     int
	SubSeqNum  int

	// GoProvision is set on the first nspec of an allocation that
	// requires the vnode to provision a different AOE before running.
	GoProvision bool
}
