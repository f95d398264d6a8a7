package vnode

import (
	"fmt"

	"github.com/vnsched/vnsched/resource"
)

// Pool is the full set of vnodes visible to one scheduling cycle.
type Pool struct {
	Nodes  []*Vnode
	byName map[string]*Vnode
	hosts  map[string]*HostSet
}

// NewPool indexes nodes by name and host, groups them into HostSets,
// and validates that every indirect resource reference resolves to a
// real vnode in exactly one hop: indirection is never chained.
func NewPool(nodes []*Vnode) (*Pool, error) {
	p := &Pool{
		Nodes:  nodes,
		byName: make(map[string]*Vnode, len(nodes)),
		hosts:  make(map[string]*HostSet),
	}
	for i, n := range nodes {
		n.Rank = i
		if _, dup := p.byName[n.Name]; dup {
			return nil, fmt.Errorf("vnode: duplicate vnode name %q", n.Name)
		}
		p.byName[n.Name] = n
	}
	for _, n := range nodes {
		hs, ok := p.hosts[n.ParentHost]
		if !ok {
			hs = &HostSet{Host: n.ParentHost}
			p.hosts[n.ParentHost] = hs
		}
		hs.Vnodes = append(hs.Vnodes, n)
		n.Hostset = hs
	}
	if err := p.validateIndirection(); err != nil {
		return nil, err
	}
	return p, nil
}

// ByName returns the vnode named name, or nil.
func (p *Pool) ByName(name string) *Vnode { return p.byName[name] }

// validateIndirection rejects unresolvable or chained (two-hop)
// indirect resource references: indirection is never chained past one
// hop.
func (p *Pool) validateIndirection() error {
	for _, n := range p.Nodes {
		for _, v := range n.Resources {
			if v.Indirect == "" {
				continue
			}
			target := p.byName[v.Indirect]
			if target == nil {
				return fmt.Errorf("vnode %s: resource %s indirects to unknown vnode %q", n.Name, v.Def.Name, v.Indirect)
			}
			if tv := target.Resources.Find(v.Def); tv != nil && tv.Indirect != "" {
				return fmt.Errorf("vnode %s: resource %s indirects through %s, which itself indirects (chained indirection is not permitted)", n.Name, v.Def.Name, v.Indirect)
			}
		}
	}
	return nil
}

// Resolve returns the owning vnode's name and the authoritative Value
// for named resource resName on v: v's own value unless it is marked
// Indirect, in which case the target vnode's value is returned instead
// (one hop only).
func (p *Pool) Resolve(v *Vnode, resName string) (owner string, val *resource.Value) {
	val = v.Resources.FindByName(resName)
	if val == nil || val.Indirect == "" {
		return v.Name, val
	}
	target := p.byName[val.Indirect]
	if target == nil {
		return v.Name, nil
	}
	return target.Name, target.Resources.FindByName(resName)
}

// ResetScratch clears every vnode's per-cycle scratch bits, for a
// caller starting a new evaluation cycle; match.Evaluator does not
// call it.
func (p *Pool) ResetScratch() {
	for _, n := range p.Nodes {
		n.Scratch.Reset()
	}
}
