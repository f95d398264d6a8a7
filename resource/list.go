package resource

// List is an ordered list of resource values, kept with
// non-consumables first, matching a chunk's resource_req_list
// ordering.
type List []*Value

// Find returns the Value for def in the list, or nil.
func (l List) Find(def *Def) *Value {
	for _, v := range l {
		if v.Def == def || v.Def.Name == def.Name {
			return v
		}
	}
	return nil
}

// FindByName returns the Value named name in the list, or nil.
func (l List) FindByName(name string) *Value {
	for _, v := range l {
		if v.Def.Name == name {
			return v
		}
	}
	return nil
}

// Set inserts or replaces the value for def, preserving the
// non-consumables-first ordering invariant.
func (l List) Set(v *Value) List {
	for i, existing := range l {
		if existing.Def.Name == v.Def.Name {
			out := append(List(nil), l...)
			out[i] = v
			return out
		}
	}
	if v.Def.Consumable() {
		return append(l, v)
	}
	// Non-consumable: insert before the first consumable entry.
	idx := len(l)
	for i, existing := range l {
		if existing.Def.Consumable() {
			idx = i
			break
		}
	}
	out := make(List, 0, len(l)+1)
	out = append(out, l[:idx]...)
	out = append(out, v)
	out = append(out, l[idx:]...)
	return out
}

// Clone deep-copies the list and every value in it.
func (l List) Clone() List {
	out := make(List, len(l))
	for i, v := range l {
		out[i] = v.Clone()
	}
	return out
}

// AddFlag controls AddResourceList's aggregation semantics.
type AddFlag uint8

const (
	// AddAssigned sums into Assigned rather than Avail (used when
	// booking a running job's consumption onto a vnode).
	AddAssigned AddFlag = 1 << iota
	// AddSubtract reverses the operation (used by update_node_on_end).
	AddSubtract
)

// AddResourceList returns a with b accumulated into it, leaving a's
// values unmodified (changed entries are clones): consumables sum (or
// subtract), booleans OR, string-sets union. Non-summing kinds
// (String) are left as a's existing value — consumables aggregate,
// but non-consumables only ever compare, so addition is a no-op for
// those kinds here.
func AddResourceList(a List, b List, flags AddFlag) List {
	out := a
	for _, bv := range b {
		av := out.FindByName(bv.Def.Name)
		if av == nil {
			nv := bv.Clone()
			if flags&AddAssigned != 0 {
				nv.Assigned = bv.Avail
				nv.Avail = 0
			}
			out = out.Set(nv)
			continue
		}
		switch bv.Def.Kind {
		case KindNumber, KindSize:
			sign := 1.0
			if flags&AddSubtract != 0 {
				sign = -1.0
			}
			nv := av.Clone()
			if flags&AddAssigned != 0 {
				nv.Assigned += sign * bv.Avail
			} else {
				nv.Avail += sign * bv.Avail
			}
			out = out.Set(nv)
		case KindBoolean:
			nv := av.Clone()
			nv.Bool = av.Bool || bv.Bool
			out = out.Set(nv)
		case KindStringSet:
			nv := av.Clone()
			nv.StrSet = unionStrings(av.StrSet, bv.StrSet)
			out = out.Set(nv)
		}
	}
	return out
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string(nil), a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
