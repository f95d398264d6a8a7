package command

import (
	"fmt"

	"github.com/vnsched/vnsched/config"
	"github.com/vnsched/vnsched/resource"
	"github.com/vnsched/vnsched/vnode"
	"github.com/vnsched/vnsched/vnodefile"
)

var stateByName = map[string]vnode.State{
	"free":           vnode.StateFree,
	"offline":        vnode.StateOffline,
	"down":           vnode.StateDown,
	"job-busy":       vnode.StateJobBusy,
	"job-exclusive":  vnode.StateJobExclusive,
	"resv-exclusive": vnode.StateReserveExcl,
	"provisioning":   vnode.StateProvisioning,
	"stale":          vnode.StateStale,
}

var sharingByName = map[string]vnode.SharingPolicy{
	"default_shared":   vnode.DefaultShared,
	"default_excl":     vnode.DefaultExcl,
	"default_exclhost": vnode.DefaultExclHost,
	"force_excl":       vnode.ForceExcl,
	"force_exclhost":   vnode.ForceExclHost,
	"ignore_excl":      vnode.IgnoreExcl,
}

// buildPool turns a parsed vnode-definition file into a vnode.Pool,
// resolving resource values against cfg's resource definitions. A
// handful of attribute names are recognized as vnode metadata rather
// than resources (host, state, sharing); everything else is treated
// as a resource value looked up through cfg.DefOf.
func buildPool(f *vnodefile.File, cfg *config.Scheduler) (*vnode.Pool, error) {
	nodes := make([]*vnode.Vnode, 0, len(f.Vnodes))
	for _, vd := range f.Vnodes {
		n := &vnode.Vnode{Name: vd.ID, ParentHost: vd.ID}
		for _, a := range vd.Attrs {
			switch a.Name {
			case "host":
				n.ParentHost = a.Value
			case "state":
				s, ok := stateByName[a.Value]
				if !ok {
					return nil, fmt.Errorf("vnodefile: vnode %q: unknown state %q", vd.ID, a.Value)
				}
				n.State = s
			case "sharing":
				sp, ok := sharingByName[a.Value]
				if !ok {
					return nil, fmt.Errorf("vnodefile: vnode %q: unknown sharing policy %q", vd.ID, a.Value)
				}
				n.Sharing = sp
			default:
				def := cfg.DefOf(a.Name)
				if def == nil {
					return nil, fmt.Errorf("vnodefile: vnode %q: unknown resource %q", vd.ID, a.Name)
				}
				v, err := resource.ParseValue(def, a.Value)
				if err != nil {
					return nil, fmt.Errorf("vnodefile: vnode %q: %w", vd.ID, err)
				}
				n.Resources = n.Resources.Set(v)
			}
		}
		nodes = append(nodes, n)
	}
	return vnode.NewPool(nodes)
}
