package command

import (
	"github.com/vnsched/vnsched/match"
	"github.com/vnsched/vnsched/release"
)

// renderExecVnode regroups a flat nspec list back into its
// super-chunk structure (split on EndOfChunk) and renders it as an
// exec_vnode string.
func renderExecVnode(nspecs []*match.Nspec) string {
	var ev release.ExecVnode
	var cur release.SuperChunk
	for _, ns := range nspecs {
		cur.Vnodes = append(cur.Vnodes, release.VnodeAlloc{Name: ns.Vnode.Name, Resources: ns.Alloc})
		if ns.EndOfChunk {
			ev = append(ev, cur)
			cur = release.SuperChunk{}
		}
	}
	return ev.String()
}
