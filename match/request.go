package match

// Request carries the job/reservation-level context eligibility and
// matching need beyond the selspec/place themselves: identity for
// per-user/per-group limits, the provisioning/exclusivity environment,
// and flags the evaluator derives once per cycle.
type Request struct {
	JobID string
	User  string
	Group string

	EOE string
	AOE string

	IsReservation bool
	Universe      string

	// AdminForced, set for an admin qrun, skips the per-node run/user/
	// group limit checks.
	AdminForced bool

	// NeedsMultinode is true when satisfying the selspec requires more
	// than one vnode; computed once per cycle by the evaluator and
	// never mutated afterward.
	NeedsMultinode bool

	// SkipAOEUpdate is set while evaluating under scatter/vscatter,
	// whose per-chunk placement decisions must be judged against the
	// vnode's live current_aoe rather than a tentative one set earlier
	// in the same pass.
	SkipAOEUpdate bool
}
