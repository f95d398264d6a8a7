package command

import "github.com/vnsched/vnsched/vnodefile"

// vnodeFileLookup answers per-vnode facts the release algorithms need
// (parent mom, vntype) directly from a parsed vnode-definition file,
// without needing a full resource pool built.
type vnodeFileLookup struct {
	host  map[string]string
	vtype map[string]string
}

// fileNodeLookup indexes f's vnodes by name for release.NodeLookup use.
func fileNodeLookup(f *vnodefile.File) *vnodeFileLookup {
	l := &vnodeFileLookup{
		host:  make(map[string]string, len(f.Vnodes)),
		vtype: make(map[string]string, len(f.Vnodes)),
	}
	for _, vd := range f.Vnodes {
		host := vd.ID
		var vtype string
		for _, a := range vd.Attrs {
			switch a.Name {
			case "host":
				host = a.Value
			case "vntype":
				vtype = a.Value
			}
		}
		l.host[vd.ID] = host
		l.vtype[vd.ID] = vtype
	}
	return l
}

func (l *vnodeFileLookup) ParentMom(vnode string) string { return l.host[vnode] }
func (l *vnodeFileLookup) VType(vnode string) string     { return l.vtype[vnode] }

// momOf returns a momOf-shaped closure (vnode name -> parent mom host)
// backed by the same lookup, for release.ReleaseBySelect.
func (l *vnodeFileLookup) momOf(vnode string) string { return l.host[vnode] }
