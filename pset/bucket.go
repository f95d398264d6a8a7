package pset

import (
	"github.com/hashicorp/go-set/v3"
	"github.com/vnsched/vnsched/calendar"
	"github.com/vnsched/vnsched/resource"
	"github.com/vnsched/vnsched/vnode"
)

// Bucket is the fast-path representation for requests whose matching
// reduces to counting interchangeable nodes: three bitmaps over node
// rank (free, busy, busy_later) plus the aggregated consumable totals
// for each, kept in sync as nodes transition between them.
type Bucket struct {
	pool *vnode.Pool

	Free      *set.Set[int]
	Busy      *set.Set[int]
	BusyLater *set.Set[int]

	FreeTotal      resource.List
	BusyTotal      resource.List
	BusyLaterTotal resource.List
}

// NewBucket classifies every vnode in pool into free, busy, or
// busy_later (free now but with at least one future run event already
// on its calendar) and totals each bucket's availability.
func NewBucket(pool *vnode.Pool) *Bucket {
	b := &Bucket{
		pool:      pool,
		Free:      set.New[int](0),
		Busy:      set.New[int](0),
		BusyLater: set.New[int](0),
	}
	for _, n := range pool.Nodes {
		switch {
		case n.State != vnode.StateFree:
			b.Busy.Insert(n.Rank)
			b.BusyTotal = resource.AddResourceList(b.BusyTotal, n.Resources, 0)
		case hasFutureRun(n):
			b.BusyLater.Insert(n.Rank)
			b.BusyLaterTotal = resource.AddResourceList(b.BusyLaterTotal, n.Resources, 0)
		default:
			b.Free.Insert(n.Rank)
			b.FreeTotal = resource.AddResourceList(b.FreeTotal, n.Resources, 0)
		}
	}
	return b
}

func hasFutureRun(n *vnode.Vnode) bool {
	for _, e := range n.Events {
		if e.Type == calendar.EventRun {
			return true
		}
	}
	return false
}

// Eligible reports whether rank n currently sits in the free bucket.
func (b *Bucket) Eligible(n *vnode.Vnode) bool { return b.Free.Contains(n.Rank) }

// MarkBusy moves a vnode from free (or busy_later) into busy, e.g.
// after a chunk is placed on it; totals are updated to match.
func (b *Bucket) MarkBusy(n *vnode.Vnode) {
	if b.Free.Remove(n.Rank) {
		b.FreeTotal = resource.AddResourceList(b.FreeTotal, n.Resources, resource.AddSubtract)
	} else if b.BusyLater.Remove(n.Rank) {
		b.BusyLaterTotal = resource.AddResourceList(b.BusyLaterTotal, n.Resources, resource.AddSubtract)
	}
	b.Busy.Insert(n.Rank)
	b.BusyTotal = resource.AddResourceList(b.BusyTotal, n.Resources, 0)
}

// MarkFree moves a vnode back into the free bucket, e.g. after a run
// ends and no future run is scheduled.
func (b *Bucket) MarkFree(n *vnode.Vnode) {
	if b.Busy.Remove(n.Rank) {
		b.BusyTotal = resource.AddResourceList(b.BusyTotal, n.Resources, resource.AddSubtract)
	}
	b.Free.Insert(n.Rank)
	b.FreeTotal = resource.AddResourceList(b.FreeTotal, n.Resources, 0)
}

// Count returns the number of vnodes currently in the free bucket.
func (b *Bucket) Count() int { return b.Free.Size() }
