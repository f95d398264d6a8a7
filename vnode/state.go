package vnode

// State is the vnode's mutually-exclusive state: at most one of these
// holds at a time, and the zero value means free.
type State int

const (
	StateFree State = iota
	StateOffline
	StateDown
	StateJobBusy
	StateJobExclusive
	StateReserveExcl
	StateProvisioning
	StateStale
	StateUnknown
)

func (s State) String() string {
	switch s {
	case StateFree:
		return "free"
	case StateOffline:
		return "offline"
	case StateDown:
		return "down"
	case StateJobBusy:
		return "job-busy"
	case StateJobExclusive:
		return "job-exclusive"
	case StateReserveExcl:
		return "resv-exclusive"
	case StateProvisioning:
		return "provisioning"
	case StateStale:
		return "stale"
	default:
		return "unknown"
	}
}

// SharingPolicy is the vnode's sharing configuration.
type SharingPolicy int

const (
	DefaultShared SharingPolicy = iota
	DefaultExcl
	DefaultExclHost
	ForceExcl
	ForceExclHost
	IgnoreExcl
)

func (s SharingPolicy) String() string {
	switch s {
	case DefaultShared:
		return "default_shared"
	case DefaultExcl:
		return "default_excl"
	case DefaultExclHost:
		return "default_exclhost"
	case ForceExcl:
		return "force_excl"
	case ForceExclHost:
		return "force_exclhost"
	case IgnoreExcl:
		return "ignore_excl"
	default:
		return "default_shared"
	}
}

// Scratch holds the per-cycle scratch bits the matcher flips during a
// single evaluation pass: reset at cycle start,
// never persisted across cycles.
type Scratch struct {
	Visited         bool
	Scattered       bool
	Ineligible      bool
	CycleIneligible bool
}

func (s *Scratch) Reset() { *s = Scratch{} }
