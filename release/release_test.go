package release

import (
	"testing"

	"github.com/shoenig/test/must"
	"github.com/vnsched/vnsched/resource"
)

func ncpusDef() *resource.Def {
	return &resource.Def{Name: "ncpus", Kind: resource.KindNumber, Flags: resource.FlagConsumable}
}

func memDef() *resource.Def {
	return &resource.Def{Name: "mem", Kind: resource.KindSize, Flags: resource.FlagConsumable}
}

func testDefOf(n string) *resource.Def {
	switch n {
	case "ncpus":
		return ncpusDef()
	case "mem":
		return memDef()
	}
	return nil
}

type fakeNodes struct {
	mom   map[string]string
	vtype map[string]string
}

func (f fakeNodes) ParentMom(vnode string) string { return f.mom[vnode] }
func (f fakeNodes) VType(vnode string) string     { return f.vtype[vnode] }

func TestReleaseByVnodeList_DropsNonPrimarySuperChunk(t *testing.T) {
	a := Assignment{
		ExecVnode:   "(v1:ncpus=2)+(v2:ncpus=2)",
		ExecHost:    "(n1/0)+(n2/0)",
		ExecHost2:   "(n1.example.com/0)+(n2.example.com/0)",
		Schedselect: "1:ncpus=2+1:ncpus=2",
	}
	nodes := fakeNodes{mom: map[string]string{"v1": "n1.example.com", "v2": "n2.example.com"}}

	res, err := ReleaseByVnodeList(a, []string{"v2"}, "", nodes, testDefOf)
	must.NoError(t, err)
	must.Eq(t, "(v1:ncpus=2)", res.ExecVnode)
	must.Eq(t, "1:ncpus=2", res.Schedselect)
	must.Eq(t, "(v2:ncpus=2)", res.Deallocated)
}

func TestReleaseByVnodeList_RejectsReleasingPrimaryHost(t *testing.T) {
	a := Assignment{
		ExecVnode:   "(v1:ncpus=2)+(v2:ncpus=2)",
		ExecHost:    "(n1/0)+(n2/0)",
		ExecHost2:   "(n1.example.com/0)+(n2.example.com/0)",
		Schedselect: "1:ncpus=2+1:ncpus=2",
	}
	// v1 lives on the primary host, so an explicit request to release it
	// must fail rather than silently keep it.
	nodes := fakeNodes{mom: map[string]string{"v1": "n1.example.com", "v2": "n2.example.com"}}
	_, err := ReleaseByVnodeList(a, []string{"v1"}, "", nodes, testDefOf)
	must.Error(t, err)
}

func TestReleaseByVnodeList_KeepsPrimaryHostWhenNotRequested(t *testing.T) {
	a := Assignment{
		ExecVnode:   "(v1:ncpus=2)+(v2:ncpus=2)",
		ExecHost:    "(n1/0)+(n2/0)",
		ExecHost2:   "(n1.example.com/0)+(n2.example.com/0)",
		Schedselect: "1:ncpus=2+1:ncpus=2",
	}
	// v1 lives on the primary host and is absent from vnodelist, so it
	// stays — only v2 is dropped.
	nodes := fakeNodes{mom: map[string]string{"v1": "n1.example.com", "v2": "n2.example.com"}}
	res, err := ReleaseByVnodeList(a, []string{"v2"}, "", nodes, testDefOf)
	must.NoError(t, err)
	must.Eq(t, "(v1:ncpus=2)", res.ExecVnode)
}

func TestReleaseByVnodeList_RejectsCrayVnode(t *testing.T) {
	a := Assignment{
		ExecVnode:   "(v1:ncpus=2)+(v2:ncpus=2)",
		ExecHost:    "(n1/0)+(n2/0)",
		ExecHost2:   "(n1.example.com/0)+(n2.example.com/0)",
		Schedselect: "1:ncpus=2+1:ncpus=2",
	}
	nodes := fakeNodes{
		mom:   map[string]string{"v1": "n1.example.com", "v2": "n2.example.com"},
		vtype: map[string]string{"v2": "cray_compute"},
	}
	_, err := ReleaseByVnodeList(a, []string{"v2"}, "", nodes, testDefOf)
	must.Error(t, err)
}

func TestDoSchedselect_CanonicalizesBooleanAndSize(t *testing.T) {
	boolDef := &resource.Def{Name: "fast", Kind: resource.KindBoolean}
	defOf := func(n string) *resource.Def {
		if n == "fast" {
			return boolDef
		}
		return testDefOf(n)
	}
	out, err := DoSchedselect("1:ncpus=2:mem=4gb:fast=true", defOf, QueueServerDefaults{}, false)
	must.NoError(t, err)
	must.StrContains(t, out, "fast=True")
}

func TestDoSchedselect_RejectsUnknownResourceOutsideRoute(t *testing.T) {
	_, err := DoSchedselect("1:bogus=2", testDefOf, QueueServerDefaults{}, false)
	must.Error(t, err)
}

func TestDoSchedselect_AppliesServerDefaultSkippingExplicit(t *testing.T) {
	defaults := QueueServerDefaults{
		Server: resource.List{{Def: memDef(), Avail: 8 * 1024 * 1024}},
	}
	out, err := DoSchedselect("1:ncpus=2", testDefOf, defaults, false)
	must.NoError(t, err)
	must.StrContains(t, out, "ncpus=2")
	must.StrContains(t, out, "mem=")
}

func TestReleaseBySelect_SatisfiesFromSucceededMoms(t *testing.T) {
	a := Assignment{
		ExecVnode:   "(v1:ncpus=4)+(v2:ncpus=4)",
		ExecHost:    "(n1/0)+(n2/0)",
		ExecHost2:   "(n1.example.com/0)+(n2.example.com/0)",
		Schedselect: "1:ncpus=4+1:ncpus=4",
	}
	momOf := func(v string) string {
		if v == "v1" {
			return "n1.example.com"
		}
		return "n2.example.com"
	}
	failed := map[string]bool{"n2.example.com": true}
	succeeded := map[string]bool{"n1.example.com": true}

	res, err := ReleaseBySelect(a, "1:ncpus=2", failed, succeeded, momOf, testDefOf, nil)
	must.NoError(t, err)
	must.StrContains(t, res.ExecVnode, "v1")
	must.StrContains(t, res.ExecVnode, "ncpus=2")
}

func TestReleaseBySelect_FailsWhenPrimaryHostCannotBeSatisfied(t *testing.T) {
	a := Assignment{
		ExecVnode:   "(v1:ncpus=1)",
		ExecHost:    "(n1/0)",
		ExecHost2:   "(n1.example.com/0)",
		Schedselect: "1:ncpus=1",
	}
	momOf := func(v string) string { return "n1.example.com" }
	_, err := ReleaseBySelect(a, "1:ncpus=4", nil, nil, momOf, testDefOf, nil)
	must.Error(t, err)
}
