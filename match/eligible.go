package match

import (
	"github.com/vnsched/vnsched/resource"
	"github.com/vnsched/vnsched/schederr"
	"github.com/vnsched/vnsched/selspec"
	"github.com/vnsched/vnsched/vnode"
)

// ExclusivityWanted describes what a placement is asking of a
// candidate vnode, after the vnode's own sharing policy has already
// been folded in via Vnode.EffectiveExclusive.
type ExclusivityWanted struct {
	Excl     bool
	ExclHost bool
}

// IsVnodeEligible runs the seven per-vnode rejection rules plus the
// chunk-level non-consumable check against n, in the order a caller
// should report them in. It returns nil when n is eligible.
func IsVnodeEligible(n *vnode.Vnode, req *Request, want ExclusivityWanted, chunk *selspec.Chunk) *schederr.Error {
	if (want.Excl || want.ExclHost) && n.RunningCount() > 0 {
		return schederr.New(schederr.NodeNotExcl, schederr.Transient, n.Name)
	}
	if req.EOE != "" && !n.AdvertisesEOE(req.EOE) {
		return schederr.New(schederr.EOENotAvalbl, schederr.Transient, req.EOE, n.Name)
	}
	if n.State == vnode.StateProvisioning {
		return schederr.New(schederr.InvalidNodeState, schederr.Transient, "provisioning", n.Name)
	}
	if n.State != vnode.StateFree {
		return schederr.New(schederr.InvalidNodeState, schederr.Transient, n.State.String(), n.Name)
	}
	if req.IsReservation && !n.ReservationsEnabled {
		return schederr.New(schederr.NodeResvEnable, schederr.Transient, n.Name)
	}
	if !req.AdminForced {
		if n.MaxRunningJobs > 0 && n.RunningCount() >= n.MaxRunningJobs {
			return schederr.New(schederr.NodeRunLimitReached, schederr.Transient, n.Name)
		}
		if n.MaxRunningPerUser > 0 && n.RunningCountForUser(req.User) >= n.MaxRunningPerUser {
			return schederr.New(schederr.NodeUserLimitReached, schederr.Transient, n.Name, req.User)
		}
		if n.MaxRunningPerGroup > 0 && n.RunningCountForGroup(req.Group) >= n.MaxRunningPerGroup {
			return schederr.New(schederr.NodeGroupLimitReached, schederr.Transient, n.Name, req.Group)
		}
	}
	if req.NeedsMultinode && !n.MultinodeJobsAllowed {
		return schederr.New(schederr.NodeNoMultJobs, schederr.Transient, n.Name)
	}

	if chunk != nil {
		var errs schederr.List
		count := resource.CheckAvailResources(n.Resources, chunk.ResourceReq,
			resource.CheckAllBools|resource.OnlyCompNoncons|resource.UnsetResZero, nil, &errs)
		if count == 0 && !errs.Empty() {
			return errs.Errors()[0]
		}
	}
	return nil
}
