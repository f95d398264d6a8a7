package calendar

import (
	"time"

	"github.com/vnsched/vnsched/resource"
	"github.com/vnsched/vnsched/schederr"
)

// WalkRequest describes the job whose future feasibility is being
// tested against a vnode's event list.
type WalkRequest struct {
	ResvID        string
	Universe      string
	InReservation bool
	ChunkReq      resource.List
}

// Result carries the outcome of a single Walk: the minimum achievable
// chunk count seen over the walk, and the first hard conflict
// encountered, if any.
type Result struct {
	MinChunks int64
	Err       *schederr.Error
}

// Walk replays events (already time-sorted; see Sort) from now through
// end against a shadow copy of avail, returning the minimum achievable
// chunk count for req.ChunkReq over the interval. Jobs running inside
// a reservation skip the walk entirely since their universe is already
// isolated from the rest of the calendar.
func Walk(avail resource.List, events []*Event, req WalkRequest, now, end time.Time) Result {
	if req.InReservation {
		return Result{MinChunks: resource.Unbounded}
	}

	shadow := avail.Clone()
	min := achievableChunks(shadow, req.ChunkReq)

	for _, ev := range events {
		if ev.Disabled {
			continue
		}
		if ev.Time.Before(now) || ev.Time.After(end) {
			continue
		}
		if ev.ResvID == req.ResvID {
			continue
		}
		if ev.Type != EventRun {
			// An end event only ever releases capacity (raises Avail
			// relative to Assigned), so it can't introduce a new
			// minimum; it still must mutate shadow correctly, since
			// later events in this same walk are applied against it.
			shadow = resource.AddResourceList(shadow, ev.Delta, resource.AddAssigned|resource.AddSubtract)
			continue
		}
		if ev.Universe != req.Universe {
			continue
		}
		if ev.Exclusive || ev.ExclHost {
			code := schederr.ReservationConflict
			if ev.ProvisioningConflict {
				code = schederr.ProvResresvConflict
			}
			return Result{MinChunks: 0, Err: schederr.New(code, schederr.Permanent)}
		}
		shadow = resource.AddResourceList(shadow, ev.Delta, resource.AddAssigned)
		if c := achievableChunks(shadow, req.ChunkReq); c < min {
			min = c
		}
	}

	return Result{MinChunks: min}
}

// achievableChunks is the whole-number chunk count avail can still
// cover for req, used after each run-event application to track the
// running minimum over the walk.
func achievableChunks(avail, req resource.List) int64 {
	var errs schederr.List
	return resource.CheckAvailResources(avail, req, resource.OnlyCompCons, nil, &errs)
}
