package calendar

import (
	"testing"
	"time"

	"github.com/shoenig/test/must"
	"github.com/vnsched/vnsched/resource"
)

func ncpusDef() *resource.Def {
	return &resource.Def{Name: "ncpus", Kind: resource.KindNumber, Flags: resource.FlagConsumable}
}

func TestWalk_SkipsOwnReservation(t *testing.T) {
	now := time.Unix(1000, 0)
	avail := resource.List{{Def: ncpusDef(), Avail: 8}}
	events := []*Event{
		{Type: EventRun, Time: now.Add(time.Hour), ResvID: "job1", Delta: resource.List{{Def: ncpusDef(), Avail: 8, Assigned: 8}}},
	}
	res := Walk(avail, events, WalkRequest{ResvID: "job1", ChunkReq: resource.List{{Def: ncpusDef(), Avail: 2}}}, now, now.Add(2*time.Hour))
	must.Nil(t, res.Err)
	must.Eq(t, int64(4), res.MinChunks)
}

func TestWalk_RunEventReducesMinChunks(t *testing.T) {
	now := time.Unix(1000, 0)
	avail := resource.List{{Def: ncpusDef(), Avail: 8}}
	events := []*Event{
		{Type: EventRun, Time: now.Add(time.Hour), ResvID: "other", Delta: resource.List{{Def: ncpusDef(), Avail: 6, Assigned: 6}}},
	}
	res := Walk(avail, events, WalkRequest{ResvID: "job1", ChunkReq: resource.List{{Def: ncpusDef(), Avail: 2}}}, now, now.Add(2*time.Hour))
	must.Nil(t, res.Err)
	must.Eq(t, int64(1), res.MinChunks)
}

// An end event must restore capacity (lower Assigned), not consume it
// a second time (lower Avail). The initial busy state already pins
// MinChunks at 1, so the only way to observe the delta's direction is
// through a later event evaluated against the shadow it leaves behind:
// a wrong direction drives the shadow negative, and the run event that
// follows reads back an impossibly low (0) chunk count instead of the
// true 1.
func TestWalk_EndEventRestoresCapacityForLaterEvents(t *testing.T) {
	now := time.Unix(1000, 0)
	avail := resource.List{{Def: ncpusDef(), Avail: 8, Assigned: 6}}
	events := []*Event{
		{Type: EventEnd, Time: now.Add(10 * time.Minute), ResvID: "other", Delta: resource.List{{Def: ncpusDef(), Avail: 6, Assigned: 6}}},
		{Type: EventRun, Time: now.Add(40 * time.Minute), ResvID: "another", Delta: resource.List{{Def: ncpusDef(), Avail: 2, Assigned: 2}}},
	}
	res := Walk(avail, events, WalkRequest{ResvID: "job1", ChunkReq: resource.List{{Def: ncpusDef(), Avail: 2}}}, now, now.Add(time.Hour))
	must.Nil(t, res.Err)
	must.Eq(t, int64(1), res.MinChunks)
}

func TestWalk_ExclusiveConflictAborts(t *testing.T) {
	now := time.Unix(1000, 0)
	avail := resource.List{{Def: ncpusDef(), Avail: 8}}
	events := []*Event{
		{Type: EventRun, Time: now.Add(time.Hour), ResvID: "other", Exclusive: true},
	}
	res := Walk(avail, events, WalkRequest{ResvID: "job1", ChunkReq: resource.List{{Def: ncpusDef(), Avail: 2}}}, now, now.Add(2*time.Hour))
	must.NotNil(t, res.Err)
	must.Eq(t, int64(0), res.MinChunks)
}

func TestWalk_ReservationJobSkipsEntirely(t *testing.T) {
	now := time.Unix(1000, 0)
	avail := resource.List{{Def: ncpusDef(), Avail: 8}}
	events := []*Event{
		{Type: EventRun, Time: now.Add(time.Hour), ResvID: "other", Exclusive: true},
	}
	res := Walk(avail, events, WalkRequest{ResvID: "job1", InReservation: true, ChunkReq: resource.List{{Def: ncpusDef(), Avail: 2}}}, now, now.Add(2*time.Hour))
	must.Nil(t, res.Err)
	must.Eq(t, resource.Unbounded, res.MinChunks)
}
