package config

import "github.com/vnsched/vnsched/resource"

// builtinDefSet is the handful of resources every scheduling cycle
// understands without any configuration: the RASSN consumables a
// chunk always contributes to (ncpus, mem, vmem), and the
// identity/provisioning resources placement and AOE/EOE matching read
// directly (host, vnode, arch, aoe, eoe).
type builtinDefSet struct {
	defs map[string]*resource.Def
}

func (b builtinDefSet) Len() int { return len(b.defs) }

var builtinDefs = builtinDefSet{defs: map[string]*resource.Def{
	"ncpus": {Name: "ncpus", Kind: resource.KindNumber,
		Flags: resource.FlagConsumable | resource.FlagRASSN | resource.FlagVisibleBySelect},
	"mem": {Name: "mem", Kind: resource.KindSize,
		Flags: resource.FlagConsumable | resource.FlagRASSN | resource.FlagVisibleBySelect | resource.FlagMemNormalize},
	"vmem": {Name: "vmem", Kind: resource.KindSize,
		Flags: resource.FlagConsumable | resource.FlagRASSN | resource.FlagMemNormalize},
	"host": {Name: "host", Kind: resource.KindString,
		Flags: resource.FlagHost},
	"vnode": {Name: "vnode", Kind: resource.KindString},
	"arch":  {Name: "arch", Kind: resource.KindString},
	"aoe":   {Name: "aoe", Kind: resource.KindString},
	"eoe":   {Name: "eoe", Kind: resource.KindString},
}}
