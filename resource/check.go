package resource

import (
	"math"

	"github.com/vnsched/vnsched/schederr"
)

// CheckFlag governs CheckAvailResources and MatchResource behavior.
type CheckFlag uint8

const (
	// CheckAllBools matches every boolean request even if it is not
	// named in the caller's checklist.
	CheckAllBools CheckFlag = 1 << iota
	// UnsetResZero treats a resource missing from the available list
	// as its kind's zero value; without it, a missing resource is
	// matched as absent (a mismatch for any non-trivial request).
	UnsetResZero
	// CompareTotal compares against Avail, ignoring Assigned.
	CompareTotal
	// ReturnAllErr collects every mismatch rather than stopping at
	// the first.
	ReturnAllErr
	// OnlyCompCons restricts checking to consumable requests.
	OnlyCompCons
	// OnlyCompNoncons restricts checking to non-consumable requests.
	OnlyCompNoncons
)

// Unbounded is MatchResource's chunk-count result when a request
// imposes no effective bound (a zero/absent consumable amount, a
// satisfied boolean/string/string-set match).
const Unbounded int64 = math.MaxInt64

func zeroValue(def *Def) *Value {
	return &Value{Def: def}
}

// MatchResource returns the number of whole chunks of req obtainable
// from res. res may be nil, meaning the resource is entirely absent.
func MatchResource(res, req *Value, compareTotal bool) (int64, *schederr.Error) {
	if req == nil {
		return Unbounded, nil
	}
	switch req.Def.Kind {
	case KindBoolean:
		if !req.Bool {
			return Unbounded, nil
		}
		if res != nil && res.Bool {
			return Unbounded, nil
		}
		return 0, mismatchNonConsumable(req, res)
	case KindString:
		if res != nil && res.Str == req.Str {
			return Unbounded, nil
		}
		return 0, mismatchNonConsumable(req, res)
	case KindStringSet:
		if res != nil && res.ContainsAll(req.StrSet) {
			return Unbounded, nil
		}
		return 0, mismatchNonConsumable(req, res)
	case KindNumber, KindSize:
		if req.Avail <= 0 {
			return Unbounded, nil
		}
		if res == nil {
			return 0, mismatchConsumable(req, zeroValue(req.Def))
		}
		avail := res.DynamicAvail()
		if compareTotal {
			avail = res.Avail
		}
		if avail == Unlimited {
			return Unbounded, nil
		}
		count := int64(math.Floor(avail / req.Avail))
		if count <= 0 {
			return 0, mismatchConsumable(req, res)
		}
		return count, nil
	default:
		return 0, mismatchNonConsumable(req, res)
	}
}

func mismatchConsumable(req, res *Value) *schederr.Error {
	e := schederr.New(schederr.InsufficientResource, schederr.Transient, req.Def.Name)
	e.Resource = req.Def.Name
	e.Requested = req.String()
	e.Available = res.String()
	total := res.Avail
	if total == Unlimited {
		e.Total = "unlimited"
	} else {
		e.Total = res.String()
	}
	return e
}

func mismatchNonConsumable(req, res *Value) *schederr.Error {
	e := schederr.New(schederr.InsufficientResource, schederr.Transient, req.Def.Name)
	e.Resource = req.Def.Name
	e.Requested = req.String()
	if res != nil {
		e.Available = res.String()
	}
	return e
}

// CheckAvailResources returns the minimum chunk count obtainable
// across every checked request in reqlist, collecting mismatches into
// errs when flags&ReturnAllErr is set (otherwise it returns as soon as
// a mismatch is found, with a single error already appended to errs if
// errs != nil).
func CheckAvailResources(avail List, reqlist List, flags CheckFlag, checklist map[string]bool, errs *schederr.List) int64 {
	min := Unbounded
	for _, req := range reqlist {
		cons := req.Def.Consumable()
		if flags&OnlyCompCons != 0 && !cons {
			continue
		}
		if flags&OnlyCompNoncons != 0 && cons {
			continue
		}
		checked := checklist == nil || checklist[req.Def.Name]
		if !checked && req.Def.Kind == KindBoolean && flags&CheckAllBools != 0 {
			checked = true
		}
		if !checked {
			continue
		}

		res := avail.Find(req.Def)
		if res == nil {
			if flags&UnsetResZero == 0 {
				// Resource entirely undefined on the target: treat
				// as a hard mismatch rather than silently skipping.
				res = nil
			} else {
				res = zeroValue(req.Def)
			}
		}

		count, err := MatchResource(res, req, flags&CompareTotal != 0)
		if count < min {
			min = count
		}
		if err != nil && errs != nil {
			errs.Add(err)
			if flags&ReturnAllErr == 0 {
				return min
			}
		}
		if count == 0 && errs == nil && flags&ReturnAllErr == 0 {
			return 0
		}
	}
	return min
}
