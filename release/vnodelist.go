package release

import (
	"fmt"
	"strings"

	"github.com/vnsched/vnsched/resource"
	"github.com/vnsched/vnsched/selspec"
)

// NodeLookup resolves per-vnode facts the release-by-vnodelist
// algorithm needs but that don't appear in the assignment strings
// themselves.
type NodeLookup interface {
	// ParentMom returns the mom host that owns vnode.
	ParentMom(vnode string) string
	// VType returns the vnode's vntype resource value, if any.
	VType(vnode string) string
}

// Assignment bundles a running job's four wire-format assignment
// strings.
type Assignment struct {
	ExecVnode   string
	ExecHost    string
	ExecHost2   string
	Schedselect string
}

// VnodeListResult is the rebuilt assignment after releasing the
// requested vnodes, plus the accumulated deallocated-vnode string.
type VnodeListResult struct {
	Assignment
	Deallocated string
}

// ReleaseByVnodeList implements release-by-explicit-vnode-list: a
// vnode is kept iff its super-chunk's lead vnode lives on the primary
// host, or its name is absent from vnodelist; every other super-chunk
// is released.
func ReleaseByVnodeList(a Assignment, vnodelist []string, deallocatedOrig string, nodes NodeLookup, defOf DefOf) (VnodeListResult, error) {
	sp, err := selspec.Parse(a.Schedselect, func(n string) *resource.Def { return defOf(n) })
	if err != nil {
		return VnodeListResult{}, fmt.Errorf("release: parsing schedselect: %w", err)
	}
	expanded := ExpandSchedselect(sp)

	ev, err := ParseExecVnode(a.ExecVnode, defOf)
	if err != nil {
		return VnodeListResult{}, fmt.Errorf("release: parsing exec_vnode: %w", err)
	}
	eh, err := ParseHostList(a.ExecHost)
	if err != nil {
		return VnodeListResult{}, fmt.Errorf("release: parsing exec_host: %w", err)
	}
	eh2, err := ParseHostList(a.ExecHost2)
	if err != nil {
		return VnodeListResult{}, fmt.Errorf("release: parsing exec_host2: %w", err)
	}
	if len(ev) != len(eh) || len(ev) != len(eh2) || len(ev) != len(expanded) {
		return VnodeListResult{}, fmt.Errorf("release: exec_vnode/exec_host/exec_host2/schedselect super-chunk counts disagree")
	}

	primary, err := PrimaryHost(a.ExecHost2)
	if err != nil {
		return VnodeListResult{}, err
	}

	release := make(map[string]bool, len(vnodelist))
	for _, v := range vnodelist {
		release[v] = true
	}

	var keptEV, keptEH, keptEH2 []string
	var keptSchedselect []string
	var releasedEV []string

	for i, sc := range ev {
		if len(sc.Vnodes) == 0 {
			continue
		}
		lead := sc.Vnodes[0].Name
		onPrimary := nodes.ParentMom(lead) == primary
		if release[lead] && onPrimary {
			return VnodeListResult{}, fmt.Errorf("release: cannot release vnode %q on the primary execution host", lead)
		}
		keep := onPrimary || !release[lead]

		if !keep {
			if strings.HasPrefix(nodes.VType(lead), "cray_") {
				return VnodeListResult{}, fmt.Errorf("release: cannot release cray vnode %q", lead)
			}
			releasedEV = append(releasedEV, "("+sc.String()+")")
			continue
		}

		keptEV = append(keptEV, "("+sc.String()+")")
		keptEH = append(keptEH, "("+eh[i]+")")
		keptEH2 = append(keptEH2, "("+eh2[i]+")")
		keptSchedselect = append(keptSchedselect, summarizeSuperChunk(sc, expanded[i]))
	}

	dealloc := dedupDeallocated(strings.Join(releasedEV, "+"), deallocatedOrig)

	return VnodeListResult{
		Assignment: Assignment{
			ExecVnode:   strings.Join(keptEV, "+"),
			ExecHost:    strings.Join(keptEH, "+"),
			ExecHost2:   strings.Join(keptEH2, "+"),
			Schedselect: strings.Join(keptSchedselect, "+"),
		},
		Deallocated: dealloc,
	}, nil
}

// summarizeSuperChunk sums sc's per-vnode resources (consumables add,
// non-consumables take the common value) into a single "1:..." chunk,
// then appends any resource present in orig but absent from sc
// verbatim — e.g. a non-consumable not replicated onto the vnode
// allocation itself.
func summarizeSuperChunk(sc SuperChunk, orig *selspec.Chunk) string {
	var sum resource.List
	for _, va := range sc.Vnodes {
		for _, r := range va.Resources {
			sum = addNative(sum, r)
		}
	}
	for _, r := range orig.ResourceReq {
		if sum.Find(r.Def) == nil {
			sum = sum.Set(r.Clone())
		}
	}

	parts := make([]string, 0, len(sum))
	for _, r := range sum {
		parts = append(parts, r.Def.Name+"="+canonicalValue(r))
	}
	return "1:" + strings.Join(parts, ":")
}

// addNative sums r into list using the resource definition's native
// aggregation: consumables add, everything else keeps whichever value
// is seen first.
func addNative(list resource.List, r *resource.Value) resource.List {
	existing := list.Find(r.Def)
	if existing == nil {
		return list.Set(r.Clone())
	}
	if !r.Def.Consumable() {
		return list
	}
	nv := existing.Clone()
	nv.Avail += r.Avail
	return list.Set(nv)
}

// dedupDeallocated concatenates released, then origDeallocated,
// dropping any vnode from origDeallocated already named in released
// (matched by its "(vnode:" / "+vnode:" prefix).
func dedupDeallocated(released, origDeallocated string) string {
	if released == "" {
		return origDeallocated
	}
	if origDeallocated == "" {
		return released
	}
	seen := make(map[string]bool)
	for _, name := range supersChunkLeadNames(released) {
		seen[name] = true
	}
	var keepOrig []string
	for _, group := range strings.Split(origDeallocated, "+") {
		name := leadNameOf(group)
		if !seen[name] {
			keepOrig = append(keepOrig, group)
		}
	}
	if len(keepOrig) == 0 {
		return released
	}
	return released + "+" + strings.Join(keepOrig, "+")
}

func supersChunkLeadNames(s string) []string {
	var out []string
	for _, group := range strings.Split(s, "+") {
		if name := leadNameOf(group); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func leadNameOf(group string) string {
	g := strings.TrimPrefix(group, "(")
	g = strings.TrimSuffix(g, ")")
	g = strings.SplitN(g, "+", 2)[0]
	return strings.SplitN(g, ":", 2)[0]
}
