package match

import (
	"github.com/mitchellh/copystructure"

	"github.com/vnsched/vnsched/pset"
	"github.com/vnsched/vnsched/resource"
	"github.com/vnsched/vnsched/schederr"
	"github.com/vnsched/vnsched/selspec"
	"github.com/vnsched/vnsched/vnode"
)

// Evaluator is the top-level selspec driver: it tries placement sets
// in order, applies the pack/scatter/vscatter/free rules, and falls
// back to spanning the whole pool when the server permits it.
type Evaluator struct {
	Pool      *vnode.Pool
	Cache     *pset.Cache
	AllowSpan bool

	bucket *pset.Bucket
}

// NewEvaluator builds an Evaluator for one scheduling cycle's node
// pool snapshot.
func NewEvaluator(pool *vnode.Pool, cache *pset.Cache, allowSpan bool) *Evaluator {
	return &Evaluator{Pool: pool, Cache: cache, AllowSpan: allowSpan}
}

// Evaluate matches sp against the pool under place, returning a
// complete solution or the strongest failure observed.
func (e *Evaluator) Evaluate(sp *selspec.Selspec, place *selspec.Place, req *Request) ([]*Nspec, *schederr.Error) {
	req.NeedsMultinode = needsMultinode(sp, place)

	want := ExclusivityWanted{Excl: place.Excl, ExclHost: place.ExclHost}

	if bucketEligible(sp, place, want) {
		if nspecs, err, ok := e.tryBucket(sp, place, req, want); ok {
			return nspecs, err
		}
	}

	sets := e.candidateSets(place)
	var lastErr *schederr.Error
	for _, s := range sets {
		nspecs, err := e.tryVnodes(s.Vnodes, sp, place, req, want)
		if err == nil {
			return nspecs, nil
		}
		if err.Severity == schederr.Permanent {
			return nil, err
		}
		lastErr = err
	}

	if place.Grouping == "" {
		if lastErr == nil {
			lastErr = schederr.New(schederr.NoFreeNodes, schederr.Transient)
		}
		return nil, lastErr
	}

	if !e.AllowSpan {
		return nil, schederr.New(schederr.CantSpanPset, schederr.Permanent)
	}
	nspecs, err := e.tryVnodes(e.Pool.Nodes, sp, place, req, want)
	if err == nil {
		return nspecs, nil
	}
	return nil, schederr.New(schederr.CantSpanPset, schederr.Permanent)
}

// tryVnodes evaluates sp against a shadow copy of nodes so a failed
// attempt — including one that partially consumed resources on some
// host before giving up on it, as evalPack's per-host loop does —
// never leaks into the real pool. On success, the matched allocations
// are committed onto the real vnodes (found by rank) and the returned
// nspecs reference those real vnodes rather than the shadow copies.
func (e *Evaluator) tryVnodes(nodes []*vnode.Vnode, sp *selspec.Selspec, place *selspec.Place, req *Request, want ExclusivityWanted) ([]*Nspec, *schederr.Error) {
	dup, cerr := copystructure.Copy(nodes)
	if cerr != nil {
		return nil, schederr.New(schederr.SchdError, schederr.Permanent, cerr.Error())
	}
	shadow := dup.([]*vnode.Vnode)

	nspecs, err := e.evalOnVnodes(shadow, sp, place, req, want)
	if err != nil {
		return nil, err
	}
	return e.commit(nspecs), nil
}

// commit applies each nspec's allocation to the real pool vnode with
// the same rank and rewrites the nspec to point at that real vnode.
func (e *Evaluator) commit(nspecs []*Nspec) []*Nspec {
	for _, ns := range nspecs {
		real := e.Pool.Nodes[ns.Vnode.Rank]
		real.Resources = resource.AddResourceList(real.Resources, ns.Alloc, resource.AddAssigned)
		if ns.GoProvision {
			real.CurrentAOE = ns.Vnode.CurrentAOE
		}
		ns.Vnode = real
		if e.bucket != nil {
			e.bucket.MarkBusy(real)
		}
	}
	return nspecs
}

// bucketSnapshot lazily builds, and memoizes for this Evaluator's
// lifetime, the node_bucket fast-path view of the pool. commit keeps it
// in sync as vnodes are allocated, whichever path produced them.
func (e *Evaluator) bucketSnapshot() *pset.Bucket {
	if e.bucket == nil {
		e.bucket = pset.NewBucket(e.Pool)
	}
	return e.bucket
}

// bucketEligible reports whether sp reduces to counting interchangeable
// free nodes: a single chunk shape, no grouping or host-breaking
// directive, and no exclusivity requirement. Exclusive placement needs
// the per-vnode running-job check that bucket membership alone can't
// answer, so it always falls back to the full eligibility/matching path.
func bucketEligible(sp *selspec.Selspec, place *selspec.Place, want ExclusivityWanted) bool {
	if len(sp.Chunks) != 1 {
		return false
	}
	if place.Kind != selspec.PlaceFree || place.Grouping != "" {
		return false
	}
	return !want.Excl && !want.ExclHost
}

// tryBucket is the node_bucket fast path: it answers a bucket-eligible
// selspec from the Free pool's aggregated totals, rejecting outright
// when they can't cover the request and otherwise matching only against
// the vnodes the bucket already knows are free. ok is false when the
// bucket can't settle the request on its own (a whole-chunk aggregate
// that nonetheless doesn't fit any single free vnode's layout), leaving
// Evaluate to fall back to the full placement-set search.
func (e *Evaluator) tryBucket(sp *selspec.Selspec, place *selspec.Place, req *Request, want ExclusivityWanted) (nspecs []*Nspec, schedErr *schederr.Error, ok bool) {
	b := e.bucketSnapshot()
	chunk := sp.Chunks[0]

	var need resource.List
	for i := 0; i < chunk.Count; i++ {
		need = resource.AddResourceList(need, chunk.ResourceReq, 0)
	}

	var errs schederr.List
	if resource.CheckAvailResources(b.FreeTotal, need, resource.OnlyCompCons, nil, &errs) < 1 {
		return nil, schederr.New(schederr.NoFreeNodes, schederr.Transient), true
	}

	free := make([]*vnode.Vnode, 0, b.Count())
	for _, n := range e.Pool.Nodes {
		if b.Eligible(n) {
			free = append(free, n)
		}
	}

	nspecs, err := e.tryVnodes(free, sp, place, req, want)
	if err != nil {
		return nil, nil, false
	}
	return nspecs, nil, true
}

// candidateSets returns the ordered placement sets to try, or a single
// set wrapping the whole pool when no grouping directive is in force.
func (e *Evaluator) candidateSets(place *selspec.Place) []*pset.Set {
	if place.Grouping == "" {
		return []*pset.Set{{Vnodes: e.Pool.Nodes}}
	}
	return e.Cache.BuildOrGet(e.Pool, place.Grouping, pset.CreateRest)
}

func needsMultinode(sp *selspec.Selspec, place *selspec.Place) bool {
	if sp.TotalChunks > 1 {
		return true
	}
	return place.Kind == selspec.PlaceScatter || place.Kind == selspec.PlaceVScatter
}

// evalOnVnodes dispatches to the placement-kind-specific strategy.
func (e *Evaluator) evalOnVnodes(nodes []*vnode.Vnode, sp *selspec.Selspec, place *selspec.Place, req *Request, want ExclusivityWanted) ([]*Nspec, *schederr.Error) {
	switch place.Kind {
	case selspec.PlacePack:
		return e.evalPack(nodes, sp, req, want)
	case selspec.PlaceVScatter:
		return e.evalVScatter(nodes, sp, req, want)
	case selspec.PlaceScatter:
		return e.evalScatter(nodes, sp, req, want)
	default:
		return e.evalFree(nodes, sp, req, want)
	}
}

// evalPack requires the entire selspec to fit within a single host's
// vnodes, breaking across them freely.
func (e *Evaluator) evalPack(nodes []*vnode.Vnode, sp *selspec.Selspec, req *Request, want ExclusivityWanted) ([]*Nspec, *schederr.Error) {
	hosts := groupByHost(nodes)
	var lastErr *schederr.Error
	for _, hostNodes := range hosts {
		nspecs, err := e.matchAllChunks(hostNodes, sp, req, want, true)
		if err == nil {
			return nspecs, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = schederr.New(schederr.NoFreeNodes, schederr.Transient)
	}
	return nil, lastErr
}

// evalVScatter allows at most one chunk per vnode: it walks the
// hostset, repeatedly calling the chunk matcher against the
// not-yet-scattered vnodes and marking each allocated vnode scattered
// so later chunks skip it.
func (e *Evaluator) evalVScatter(nodes []*vnode.Vnode, sp *selspec.Selspec, req *Request, want ExclusivityWanted) ([]*Nspec, *schederr.Error) {
	req.SkipAOEUpdate = true
	defer func() { req.SkipAOEUpdate = false }()

	var all []*Nspec
	subSeq := 0
	for _, chunk := range sp.Chunks {
		for i := 0; i < chunk.Count; i++ {
			candidates := unscattered(nodes)
			nspecs, next, err := MatchChunk(candidates, chunk, req, want, false, chunk.SeqNum, subSeq)
			if err != nil {
				return nil, err
			}
			subSeq = next
			for _, ns := range nspecs {
				ns.Vnode.Scratch.Scattered = true
			}
			all = append(all, nspecs...)
		}
	}
	return all, nil
}

// evalScatter allows at most one chunk per host: per host, it tries
// each sub-chunk once with breaking allowed.
func (e *Evaluator) evalScatter(nodes []*vnode.Vnode, sp *selspec.Selspec, req *Request, want ExclusivityWanted) ([]*Nspec, *schederr.Error) {
	req.SkipAOEUpdate = true
	defer func() { req.SkipAOEUpdate = false }()

	hosts := groupByHost(nodes)
	var all []*Nspec
	subSeq := 0
	hostIdx := 0
	for _, chunk := range sp.Chunks {
		for i := 0; i < chunk.Count; i++ {
			if hostIdx >= len(hosts) {
				return nil, schederr.New(schederr.NoFreeNodes, schederr.Transient)
			}
			placed := false
			for ; hostIdx < len(hosts); hostIdx++ {
				nspecs, next, err := MatchChunk(hosts[hostIdx], chunk, req, want, true, chunk.SeqNum, subSeq)
				if err == nil {
					subSeq = next
					all = append(all, nspecs...)
					hostIdx++
					placed = true
					break
				}
			}
			if !placed {
				return nil, schederr.New(schederr.NoFreeNodes, schederr.Transient)
			}
		}
	}
	return all, nil
}

// evalFree allocates each chunk in turn from nodes (the shadow copy
// tryVnodes made), mutating their assigned amounts until the selspec
// is exhausted or a chunk cannot be placed.
func (e *Evaluator) evalFree(nodes []*vnode.Vnode, sp *selspec.Selspec, req *Request, want ExclusivityWanted) ([]*Nspec, *schederr.Error) {
	return e.matchAllChunks(nodes, sp, req, want, true)
}

// matchAllChunks matches every chunk instance of sp in turn against
// nodes, threading sub_seq_num across calls.
func (e *Evaluator) matchAllChunks(nodes []*vnode.Vnode, sp *selspec.Selspec, req *Request, want ExclusivityWanted, allowBreak bool) ([]*Nspec, *schederr.Error) {
	var all []*Nspec
	subSeq := 0
	for _, chunk := range sp.Chunks {
		for i := 0; i < chunk.Count; i++ {
			nspecs, next, err := MatchChunk(nodes, chunk, req, want, allowBreak, chunk.SeqNum, subSeq)
			if err != nil {
				return nil, err
			}
			subSeq = next
			all = append(all, nspecs...)
		}
	}
	return all, nil
}

func groupByHost(nodes []*vnode.Vnode) [][]*vnode.Vnode {
	byHost := make(map[string][]*vnode.Vnode)
	var order []string
	for _, n := range nodes {
		if _, ok := byHost[n.ParentHost]; !ok {
			order = append(order, n.ParentHost)
		}
		byHost[n.ParentHost] = append(byHost[n.ParentHost], n)
	}
	out := make([][]*vnode.Vnode, 0, len(order))
	for _, h := range order {
		out = append(out, byHost[h])
	}
	return out
}

func unscattered(nodes []*vnode.Vnode) []*vnode.Vnode {
	out := make([]*vnode.Vnode, 0, len(nodes))
	for _, n := range nodes {
		if !n.Scratch.Scattered {
			out = append(out, n)
		}
	}
	return out
}
