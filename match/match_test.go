package match

import (
	"testing"

	"github.com/shoenig/test/must"
	"github.com/vnsched/vnsched/resource"
	"github.com/vnsched/vnsched/selspec"
	"github.com/vnsched/vnsched/vnode"
)

func ncpusDef() *resource.Def {
	return &resource.Def{Name: "ncpus", Kind: resource.KindNumber, Flags: resource.FlagConsumable}
}

func mkNode(t *testing.T, name, host string, ncpus float64) *vnode.Vnode {
	t.Helper()
	return &vnode.Vnode{
		Name: name, ParentHost: host,
		State:     vnode.StateFree,
		Resources: resource.List{{Def: ncpusDef(), Avail: ncpus}},
	}
}

func TestIsVnodeEligible_RejectsNonFreeState(t *testing.T) {
	n := mkNode(t, "n1", "n1", 8)
	n.State = vnode.StateDown
	err := IsVnodeEligible(n, &Request{}, ExclusivityWanted{}, nil)
	must.NotNil(t, err)
}

func TestIsVnodeEligible_RejectsExclWhenRunning(t *testing.T) {
	n := mkNode(t, "n1", "n1", 8)
	n.Running = []*vnode.RunningJob{{ID: "j1"}}
	err := IsVnodeEligible(n, &Request{}, ExclusivityWanted{Excl: true}, nil)
	must.NotNil(t, err)
}

func TestIsVnodeEligible_RejectsMultinodeForbidden(t *testing.T) {
	n := mkNode(t, "n1", "n1", 8)
	n.MultinodeJobsAllowed = false
	err := IsVnodeEligible(n, &Request{NeedsMultinode: true}, ExclusivityWanted{}, nil)
	must.NotNil(t, err)
}

func TestIsVnodeEligible_AdminForcedSkipsLimits(t *testing.T) {
	n := mkNode(t, "n1", "n1", 8)
	n.MaxRunningJobs = 1
	n.Running = []*vnode.RunningJob{{ID: "j1"}}
	err := IsVnodeEligible(n, &Request{AdminForced: true}, ExclusivityWanted{}, nil)
	must.Nil(t, err)
}

func TestMatchChunk_WholeFitOnSingleVnode(t *testing.T) {
	nodes := []*vnode.Vnode{mkNode(t, "n1", "n1", 8), mkNode(t, "n2", "n2", 8)}
	_, err := vnode.NewPool(nodes)
	must.NoError(t, err)

	chunk := &selspec.Chunk{Count: 1, ResourceReq: resource.List{{Def: ncpusDef(), Avail: 4}}}
	nspecs, _, merr := MatchChunk(nodes, chunk, &Request{}, ExclusivityWanted{}, true, 0, 0)
	must.Nil(t, merr)
	must.Eq(t, 1, len(nspecs))
	must.True(t, nspecs[0].EndOfChunk)
	must.Eq(t, 4.0, nspecs[0].Vnode.Resources.FindByName("ncpus").Assigned)
}

func TestMatchChunk_BreaksAcrossVnodesWhenAllowed(t *testing.T) {
	nodes := []*vnode.Vnode{mkNode(t, "n1", "n1", 2), mkNode(t, "n2", "n2", 2)}
	_, err := vnode.NewPool(nodes)
	must.NoError(t, err)

	chunk := &selspec.Chunk{Count: 1, ResourceReq: resource.List{{Def: ncpusDef(), Avail: 4}}}
	nspecs, _, merr := MatchChunk(nodes, chunk, &Request{}, ExclusivityWanted{}, true, 0, 0)
	must.Nil(t, merr)
	must.Eq(t, 2, len(nspecs))
	must.True(t, nspecs[1].EndOfChunk)
	must.False(t, nspecs[0].EndOfChunk)
}

func TestMatchChunk_FailsWithoutBreakWhenNoSingleFit(t *testing.T) {
	nodes := []*vnode.Vnode{mkNode(t, "n1", "n1", 2), mkNode(t, "n2", "n2", 2)}
	_, err := vnode.NewPool(nodes)
	must.NoError(t, err)

	chunk := &selspec.Chunk{Count: 1, ResourceReq: resource.List{{Def: ncpusDef(), Avail: 4}}}
	_, _, merr := MatchChunk(nodes, chunk, &Request{}, ExclusivityWanted{}, false, 0, 0)
	must.NotNil(t, merr)
}

func TestMatchChunk_InsufficientAcrossAllVnodesFails(t *testing.T) {
	nodes := []*vnode.Vnode{mkNode(t, "n1", "n1", 1), mkNode(t, "n2", "n2", 1)}
	_, err := vnode.NewPool(nodes)
	must.NoError(t, err)

	chunk := &selspec.Chunk{Count: 1, ResourceReq: resource.List{{Def: ncpusDef(), Avail: 10}}}
	_, _, merr := MatchChunk(nodes, chunk, &Request{}, ExclusivityWanted{}, true, 0, 0)
	must.NotNil(t, merr)
	// original nodes must be untouched on failure
	must.Eq(t, 0.0, nodes[0].Resources.FindByName("ncpus").Assigned)
}

func TestEvaluator_FreePlacement_PacksSingleChunkOntoOneNode(t *testing.T) {
	nodes := []*vnode.Vnode{mkNode(t, "n1", "n1", 8), mkNode(t, "n2", "n2", 8)}
	pool, err := vnode.NewPool(nodes)
	must.NoError(t, err)

	sp, perr := selspec.Parse("1:ncpus=4", func(n string) *resource.Def {
		if n == "ncpus" {
			return ncpusDef()
		}
		return nil
	})
	must.NoError(t, perr)
	place, perr := selspec.ParsePlace("free")
	must.NoError(t, perr)

	ev := NewEvaluator(pool, nil, false)
	nspecs, merr := ev.Evaluate(sp, place, &Request{})
	must.Nil(t, merr)
	must.Eq(t, 1, len(nspecs))
}

func TestEvaluator_CantSpanPsetWhenGroupingFailsAndSpanDisallowed(t *testing.T) {
	rackDef := &resource.Def{Name: "rack", Kind: resource.KindString}
	nodes := []*vnode.Vnode{
		{Name: "n1", ParentHost: "n1", State: vnode.StateFree, Resources: resource.List{
			{Def: rackDef, Str: "A"}, {Def: ncpusDef(), Avail: 2},
		}},
		{Name: "n2", ParentHost: "n2", State: vnode.StateFree, Resources: resource.List{
			{Def: rackDef, Str: "B"}, {Def: ncpusDef(), Avail: 2},
		}},
	}
	pool, err := vnode.NewPool(nodes)
	must.NoError(t, err)

	sp, perr := selspec.Parse("1:ncpus=4", func(n string) *resource.Def {
		switch n {
		case "ncpus":
			return ncpusDef()
		case "rack":
			return rackDef
		}
		return nil
	})
	must.NoError(t, perr)
	place, perr := selspec.ParsePlace("free:group=rack")
	must.NoError(t, perr)

	ev := NewEvaluator(pool, newTestCache(), false)
	_, merr := ev.Evaluate(sp, place, &Request{})
	must.NotNil(t, merr)
}
