// Package vnode models a single schedulable node and the pool of nodes
// a placement pass searches. It owns the node's static/dynamic resource
// list (including one-hop indirection), its running-job bookkeeping,
// and the per-cycle scratch bits the matcher flips while it works.
package vnode

import (
	"fmt"

	"github.com/hashicorp/go-set/v3"
	"github.com/vnsched/vnsched/calendar"
	"github.com/vnsched/vnsched/resource"
)

// RunningJob records one job or reservation currently holding resources
// on a vnode, enough to enforce per-node/user/group run limits and to
// find the assignment to release later.
type RunningJob struct {
	ID        string
	User      string
	Group     string
	Exclusive bool
	ExclHost  bool
	Resources resource.List
}

// Vnode is one scheduling target: a PBS vnode, which may be a whole
// host or a host's sub-partition (a "super-chunk").
type Vnode struct {
	Rank       int
	Name       string
	ParentHost string

	Sharing SharingPolicy
	State   State
	Scratch Scratch

	Licensed             bool
	ReservationsEnabled  bool
	MultinodeJobsAllowed bool

	MaxRunningJobs      int // 0 means unlimited
	MaxRunningPerUser   int
	MaxRunningPerGroup  int

	CurrentAOE string
	AvailAOEs  []string
	AvailEOEs  []string

	Resources resource.List
	Running   []*RunningJob
	Events    []*calendar.Event

	// Hostset names the group of vnodes sharing ParentHost; set by Pool
	// at construction time.
	Hostset *HostSet

	sig     uint64
	sigOK   bool
}

// HostSet is the set of vnodes belonging to one physical host, used to
// enforce exclhost placement and host-level resource visibility.
type HostSet struct {
	Host   string
	Vnodes []*Vnode
}

// IsFree reports whether the vnode carries no exclusionary state.
func (v *Vnode) IsFree() bool { return v.State == StateFree }

// IsExclusivelyHeld reports whether a running job or reservation holds
// this vnode (or its host) exclusively, making it ineligible for any
// further placement regardless of leftover capacity.
func (v *Vnode) IsExclusivelyHeld() bool {
	return v.State == StateJobExclusive || v.State == StateReserveExcl
}

// EffectiveExclusive resolves the chunk-requested placement sharing
// against the vnode's own sharing policy: force_* always wins,
// ignore_excl always yields shared, otherwise the chunk's request is
// honored.
func (v *Vnode) EffectiveExclusive(chunkWantsExcl, chunkWantsExclHost bool) (excl, exclHost bool) {
	switch v.Sharing {
	case ForceExcl:
		return true, false
	case ForceExclHost:
		return false, true
	case IgnoreExcl:
		return false, false
	case DefaultExcl:
		if !chunkWantsExcl && !chunkWantsExclHost {
			return true, false
		}
	case DefaultExclHost:
		if !chunkWantsExcl && !chunkWantsExclHost {
			return false, true
		}
	}
	return chunkWantsExcl, chunkWantsExclHost
}

// RunningCount returns the number of jobs/reservations currently
// running on the vnode, for NODE_RUN_LIMIT_REACHED-style checks.
func (v *Vnode) RunningCount() int { return len(v.Running) }

// RunningCountForUser/RunningCountForGroup support the per-user and
// per-group run-limit checks.
func (v *Vnode) RunningCountForUser(user string) int {
	n := 0
	for _, r := range v.Running {
		if r.User == user {
			n++
		}
	}
	return n
}

func (v *Vnode) RunningCountForGroup(group string) int {
	n := 0
	for _, r := range v.Running {
		if r.Group == group {
			n++
		}
	}
	return n
}

// AdvertisesAOE reports whether aoe is among the vnode's provisionable
// application operating environments.
func (v *Vnode) AdvertisesAOE(aoe string) bool {
	for _, a := range v.AvailAOEs {
		if a == aoe {
			return true
		}
	}
	return false
}

// AdvertisesEOE is AdvertisesAOE's energy-operating-environment analog.
func (v *Vnode) AdvertisesEOE(eoe string) bool {
	for _, e := range v.AvailEOEs {
		if e == eoe {
			return true
		}
	}
	return false
}

// NeedsProvisioning reports whether running aoe on this vnode would
// require a provisioning event (its current AOE differs).
func (v *Vnode) NeedsProvisioning(aoe string) bool {
	return aoe != "" && aoe != v.CurrentAOE
}

// invalidateSig clears the cached nodesig, for use after a resource
// list mutation.
func (v *Vnode) invalidateSig() { v.sigOK = false }

// Clone returns a deep copy of the vnode, suitable as a base for
// shadow/tentative mutation; Running and Events are copied by
// reference since release/match logic replaces them wholesale rather
// than mutating in place.
func (v *Vnode) Clone() *Vnode {
	cp := *v
	cp.Resources = v.Resources.Clone()
	cp.Running = append([]*RunningJob(nil), v.Running...)
	cp.Events = append([]*calendar.Event(nil), v.Events...)
	cp.Scratch = Scratch{}
	return &cp
}

// ScratchSet is a reusable go-set/v3 bitset of vnode ranks, used by the
// matcher for the visited/scattered/ineligible/cycle_ineligible
// working sets the matcher needs, keyed by
// Vnode.Rank rather than pointer identity so it survives shadow
// duplication.
type ScratchSet struct {
	ranks *set.Set[int]
}

// NewScratchSet returns an empty rank set.
func NewScratchSet() *ScratchSet { return &ScratchSet{ranks: set.New[int](0)} }

func (s *ScratchSet) Add(v *Vnode)      { s.ranks.Insert(v.Rank) }
func (s *ScratchSet) Remove(v *Vnode)   { s.ranks.Remove(v.Rank) }
func (s *ScratchSet) Contains(v *Vnode) bool { return s.ranks.Contains(v.Rank) }
func (s *ScratchSet) Size() int         { return s.ranks.Size() }

func (v *Vnode) String() string {
	return fmt.Sprintf("%s(rank=%d,state=%s,sharing=%s)", v.Name, v.Rank, v.State, v.Sharing)
}
