// Package calendar implements the timed-event walk that tests whether
// a job can run for its full requested duration without conflicting
// with future runs, ends, reservations, or dedicated/prime-time
// boundaries.
package calendar

import (
	"sort"
	"time"

	"github.com/vnsched/vnsched/resource"
)

// EventType distinguishes a resource-reservation's start from its end.
type EventType int

const (
	// EventRun marks a future job/reservation start; at equal times,
	// runs are applied before ends.
	EventRun EventType = iota
	EventEnd
)

// Event is one entry in the globally time-ordered event list touching
// a vnode (a "Timed event").
type Event struct {
	Type EventType
	Time time.Time

	// ResvID identifies the resource-reservation (job or PBS
	// reservation) this event belongs to.
	ResvID string
	// Universe identifies the reservation universe the event belongs
	// to; Walk applies a run event only when its Universe equals the
	// requester's, while end events are applied whatever their
	// Universe (see Walk).
	Universe string
	// Exclusive/ExclHost mark that the reservation this event belongs
	// to holds the node(s) exclusively.
	Exclusive bool
	ExclHost  bool
	// ProvisioningConflict marks that this event's exclusivity
	// conflict crosses an AOE boundary (the running reservation
	// provisioned a different AOE than the requester needs), which
	// surfaces PROV_RESRESV_CONFLICT instead of RESERVATION_CONFLICT.
	ProvisioningConflict bool
	// Disabled events are skipped entirely (e.g. a reservation that
	// was degraded/deleted but not yet purged from the calendar).
	Disabled bool
	// Delta is the per-resource amount this event adds (Run) or
	// removes (End) from the vnode's assigned quantities.
	Delta resource.List
}

// Sort orders events by time, with Run events preceding End events at
// equal times.
func Sort(events []*Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Time.Equal(events[j].Time) {
			return events[i].Type == EventRun && events[j].Type == EventEnd
		}
		return events[i].Time.Before(events[j].Time)
	})
}
