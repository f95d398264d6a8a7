package match

import (
	"github.com/mitchellh/copystructure"
	"github.com/vnsched/vnsched/resource"
	"github.com/vnsched/vnsched/schederr"
	"github.com/vnsched/vnsched/selspec"
	"github.com/vnsched/vnsched/vnode"
)

// MatchChunk matches one instance of chunk against candidateNodes,
// producing up to one chunk's worth of nspecs (eval_simple_selspec).
// nextSubSeq is the sub_seq_num to use for the first nspec emitted;
// the caller threads the returned value into the next call so
// sub_seq_num stays monotonic across chunks.
func MatchChunk(nodes []*vnode.Vnode, chunk *selspec.Chunk, req *Request, want ExclusivityWanted, allowBreak bool, seqNum, nextSubSeq int) ([]*Nspec, int, *schederr.Error) {
	// Prefer a single vnode that can satisfy the whole chunk, whether
	// or not breaking is allowed: a whole-chunk fit never needs to be
	// split.
	if n, errs := firstWholeFit(nodes, chunk, req, want); n != nil {
		alloc := chunk.ResourceReq.Clone()
		n.Resources = resource.AddResourceList(n.Resources, alloc, resource.AddAssigned)
		nspec := &Nspec{Vnode: n, Alloc: alloc, EndOfChunk: true, SeqNum: seqNum, SubSeqNum: nextSubSeq}
		applyProvisioning(n, req, nspec)
		return []*Nspec{nspec}, nextSubSeq + 1, nil
	} else if !allowBreak {
		if len(errs) > 0 {
			return nil, nextSubSeq, errs[len(errs)-1]
		}
		return nil, nextSubSeq, schederr.New(schederr.InsufficientResource, schederr.Transient)
	}

	return matchBroken(nodes, chunk, req, want, seqNum, nextSubSeq)
}

// firstWholeFit returns the first eligible vnode able to satisfy
// chunk's entire resource requirement on its own, or nil with the
// mismatch errors observed along the way.
func firstWholeFit(nodes []*vnode.Vnode, chunk *selspec.Chunk, req *Request, want ExclusivityWanted) (*vnode.Vnode, []*schederr.Error) {
	var errs []*schederr.Error
	for _, n := range nodes {
		if n.Scratch.Ineligible || n.Scratch.Visited {
			continue
		}
		if err := IsVnodeEligible(n, req, want, chunk); err != nil {
			errs = append(errs, err)
			// Only a mismatch against the chunk's static resources holds
			// for every vnode with the same nodesig; state and run-limit
			// failures belong to this vnode alone.
			if IsVnodeEligible(n, req, want, nil) == nil {
				markSiblingsVisited(nodes, n)
			}
			continue
		}
		var checkErrs schederr.List
		count := resource.CheckAvailResources(n.Resources, chunk.ResourceReq, resource.OnlyCompCons, nil, &checkErrs)
		if count >= 1 {
			return n, nil
		}
		if !checkErrs.Empty() {
			errs = append(errs, checkErrs.Errors()...)
		}
	}
	return nil, errs
}

// markSiblingsVisited implements the nodesig short-circuit: once a
// vnode proves ineligible for this chunk, every vnode sharing its
// structural hash is skipped for the remainder of the cycle.
func markSiblingsVisited(nodes []*vnode.Vnode, failed *vnode.Vnode) {
	sig := failed.Sig()
	for _, n := range nodes {
		if n.Sig() == sig {
			n.Scratch.Visited = true
		}
	}
}

// matchBroken splits a chunk's requirement across multiple vnodes of
// candidateNodes. It duplicates the vnode list first via copystructure
// so a failed attempt never leaves partial consumption visible to the
// caller — the duplicate is simply discarded.
func matchBroken(nodes []*vnode.Vnode, chunk *selspec.Chunk, req *Request, want ExclusivityWanted, seqNum, nextSubSeq int) ([]*Nspec, int, *schederr.Error) {
	// Eligibility is read-only, so the pre-pass that narrows the
	// candidate list runs concurrently before the sequential,
	// order-sensitive consumption loop below.
	eligibleNodes, preErrs := preFilterEligible(nodes, req, want, chunk)
	var lastPreErr *schederr.Error
	if len(preErrs) > 0 {
		lastPreErr = preErrs[len(preErrs)-1]
	}

	dup, err := duplicateNodes(eligibleNodes)
	if err != nil {
		return nil, nextSubSeq, schederr.New(schederr.SchdError, schederr.Permanent, err.Error())
	}

	remaining := chunk.ResourceReq.Clone()
	type taking struct {
		rank  int
		taken resource.List
	}
	var takings []taking
	lastErr := lastPreErr

	for _, n := range dup {
		if allSatisfied(remaining) {
			break
		}
		if n.Scratch.Ineligible || n.Scratch.Visited {
			continue
		}
		taken, any := takeAsMuchAsPossible(n, remaining)
		if !any {
			markSiblingsVisited(dup, n)
			continue
		}
		remaining = subtractTaken(remaining, taken)
		takings = append(takings, taking{rank: n.Rank, taken: taken})
	}

	if !allSatisfied(remaining) {
		// Discard dup: nothing was ever applied to the real nodes, so
		// the failed attempt leaves no trace to roll back.
		if lastErr == nil {
			lastErr = schederr.New(schederr.InsufficientResource, schederr.Transient)
		}
		return nil, nextSubSeq, lastErr
	}

	// Commit each successful partial allocation onto the real node
	// objects (not the duplicate), so later chunks in the same
	// evaluation see the reduced availability.
	subSeq := nextSubSeq
	nspecs := make([]*Nspec, 0, len(takings))
	for _, t := range takings {
		real := findByRank(nodes, t.rank)
		real.Resources = resource.AddResourceList(real.Resources, t.taken, resource.AddAssigned)
		nspec := &Nspec{Vnode: real, Alloc: t.taken, SeqNum: seqNum, SubSeqNum: subSeq}
		applyProvisioning(real, req, nspec)
		nspecs = append(nspecs, nspec)
		subSeq++
	}
	if len(nspecs) > 0 {
		nspecs[len(nspecs)-1].EndOfChunk = true
	}
	return nspecs, subSeq, nil
}

func findByRank(nodes []*vnode.Vnode, rank int) *vnode.Vnode {
	for _, n := range nodes {
		if n.Rank == rank {
			return n
		}
	}
	return nil
}

func duplicateNodes(nodes []*vnode.Vnode) ([]*vnode.Vnode, error) {
	raw, err := copystructure.Copy(nodes)
	if err != nil {
		return nil, err
	}
	return raw.([]*vnode.Vnode), nil
}

func allSatisfied(reqs resource.List) bool {
	for _, r := range reqs {
		if r.Def.Consumable() && r.Avail > 0 {
			return false
		}
	}
	return true
}

// takeAsMuchAsPossible consumes as much of each remaining consumable
// as n can cover, returning the per-resource amounts taken and whether
// it took anything at all.
func takeAsMuchAsPossible(n *vnode.Vnode, remaining resource.List) (resource.List, bool) {
	var taken resource.List
	any := false
	for _, r := range remaining {
		if !r.Def.Consumable() || r.Avail <= 0 {
			continue
		}
		avail := n.Resources.FindByName(r.Def.Name)
		if avail == nil {
			continue
		}
		have := avail.DynamicAvail()
		if have <= 0 {
			continue
		}
		amount := have
		if amount > r.Avail {
			amount = r.Avail
		}
		taken = taken.Set(&resource.Value{Def: r.Def, Avail: amount})
		avail.Assigned += amount
		any = true
	}
	return taken, any
}

func subtractTaken(remaining, taken resource.List) resource.List {
	return resource.AddResourceList(remaining, taken, resource.AddSubtract)
}

// applyProvisioning marks the nspec go_provision=true and advances the
// vnode's tentative current AOE when the chunk requests a different
// AOE than the vnode currently runs; scatter/vscatter evaluate against
// the live vnode and skip this mutation.
func applyProvisioning(n *vnode.Vnode, req *Request, nspec *Nspec) {
	if req.AOE == "" || !n.NeedsProvisioning(req.AOE) {
		return
	}
	if !n.AdvertisesAOE(req.AOE) {
		return
	}
	nspec.GoProvision = true
	if !req.SkipAOEUpdate {
		n.CurrentAOE = req.AOE
	}
}
