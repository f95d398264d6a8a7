// Package pset builds placement sets — partitions of the node pool by
// a grouping resource's value — and the memoization cache and bucket
// fast-path representation that keep repeated placement evaluation
// against the same pool cheap.
package pset

import (
	"sort"

	"github.com/vnsched/vnsched/resource"
	"github.com/vnsched/vnsched/vnode"
)

// Set is one placement set: every non-stale vnode sharing a value for
// the grouping resources, plus its aggregated availability.
type Set struct {
	// Key is the grouping value this set was built for, e.g. "A" for a
	// grouping resource named "rack". IsRest sets have an empty Key.
	Key     string
	Vnodes  []*vnode.Vnode
	Avail   resource.List
	// OkBreak is true iff every member vnode shares the same "host"
	// resource value, permitting a chunk to be split across the set's
	// vnodes rather than requiring single-host placement.
	OkBreak bool
	// IsRest marks the synthetic NP_CREATE_REST partition gathering
	// vnodes that carry no value at all for the grouping resource.
	IsRest bool
}

// BuildFlag controls BuildPlacementSets.
type BuildFlag uint8

const (
	// CreateRest additionally emits a synthetic "unset" partition for
	// vnodes lacking any value of the grouping resource (NP_CREATE_REST).
	CreateRest BuildFlag = 1 << iota
)

// BuildPlacementSets partitions pool's non-stale vnodes by their value
// of groupingRes (a single resource name, e.g. "rack" or "vnode_group"),
// one Set per distinct value observed, sorted by Less so the evaluator
// tries the tightest-fitting sets first.
func BuildPlacementSets(pool *vnode.Pool, groupingRes string, flags BuildFlag) []*Set {
	byKey := make(map[string]*Set)
	var order []string
	var rest []*vnode.Vnode

	for _, n := range pool.Nodes {
		if n.State == vnode.StateStale {
			continue
		}
		val := n.Resources.FindByName(groupingRes)
		if val == nil || !hasValue(val) {
			rest = append(rest, n)
			continue
		}
		key := keyOf(val)
		s, ok := byKey[key]
		if !ok {
			s = &Set{Key: key, OkBreak: true}
			byKey[key] = s
			order = append(order, key)
		}
		s.Vnodes = append(s.Vnodes, n)
	}

	sets := make([]*Set, 0, len(order)+1)
	for _, k := range order {
		sets = append(sets, byKey[k])
	}
	if flags&CreateRest != 0 && len(rest) > 0 {
		sets = append(sets, &Set{IsRest: true, Vnodes: rest, OkBreak: true})
	}

	for _, s := range sets {
		finalize(s)
	}
	sort.SliceStable(sets, func(i, j int) bool { return Less(sets[i], sets[j]) })
	return sets
}

func hasValue(v *resource.Value) bool {
	switch v.Def.Kind {
	case resource.KindString:
		return v.Str != ""
	case resource.KindStringSet:
		return len(v.StrSet) > 0
	case resource.KindBoolean:
		return v.Bool
	default:
		return v.Avail != 0
	}
}

func keyOf(v *resource.Value) string {
	return v.String()
}

// finalize aggregates member availability and determines ok_break.
func finalize(s *Set) {
	var avail resource.List
	host := ""
	sameHost := true
	for i, n := range s.Vnodes {
		avail = resource.AddResourceList(avail, n.Resources, 0)
		h := n.ParentHost
		if i == 0 {
			host = h
		} else if h != host {
			sameHost = false
		}
	}
	s.Avail = avail
	s.OkBreak = sameHost
}

// Less orders sets so tighter-fitting candidates (fewer vnodes, i.e.
// less slack for the search to waste time on) are tried first; the
// synthetic rest partition always sorts last.
func Less(a, b *Set) bool {
	if a.IsRest != b.IsRest {
		return !a.IsRest
	}
	return len(a.Vnodes) < len(b.Vnodes)
}
