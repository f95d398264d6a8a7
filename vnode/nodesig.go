package vnode

import (
	"sort"

	"github.com/mitchellh/hashstructure"
)

// staticKey is the part of a resource value that defines a vnode's
// equivalence class for nodesig purposes: its schema identity and its
// available quantity, but never its assigned/dynamic portion (two
// otherwise-identical vnodes at different load are still the same
// shape) and never a provisioning-related resource (aoe/eoe), since
// two vnodes differing only in current provisioning state should still
// short-circuit together during the free pass.
type staticKey struct {
	Name   string
	Kind   int
	Avail  float64
	Bool   bool
	Str    string
	StrSet []string
}

// Sig returns the vnode's structural hash: two vnodes with the same
// Sig are interchangeable for matching purposes and the matcher may
// skip re-evaluating one once the other has been tried and failed.
// The result is cached on the vnode and invalidated by ResetScratch
// only indirectly — callers that mutate Resources must call
// invalidateSig.
func (v *Vnode) Sig() uint64 {
	if v.sigOK {
		return v.sig
	}
	keys := make([]staticKey, 0, len(v.Resources))
	for _, r := range v.Resources {
		if r.Def.Name == "aoe" || r.Def.Name == "eoe" {
			continue
		}
		k := staticKey{Name: r.Def.Name, Kind: int(r.Def.Kind), Bool: r.Bool, Str: r.Str}
		if r.Def.Consumable() {
			k.Avail = r.Avail
		}
		if r.StrSet != nil {
			k.StrSet = append([]string(nil), r.StrSet...)
			sort.Strings(k.StrSet)
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Name < keys[j].Name })

	type sigInput struct {
		Sharing int
		Keys    []staticKey
	}
	h, err := hashstructure.Hash(sigInput{Sharing: int(v.Sharing), Keys: keys}, nil)
	if err != nil {
		// hashstructure only errors on unsupported field types, which
		// staticKey never contains; fall back to the rank so matching
		// degrades to "never short-circuit" rather than panicking.
		return uint64(v.Rank)
	}
	v.sig = h
	v.sigOK = true
	return h
}
