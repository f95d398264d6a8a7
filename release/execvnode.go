// Package release implements the node-release engine: rebuilding a
// running job's exec_vnode/exec_host/exec_host2/schedselect assignment
// strings after some of its vnodes are freed, either by an explicit
// vnode list or by fitting a reduced target select against what
// remains.
package release

import (
	"fmt"
	"strings"

	"github.com/vnsched/vnsched/resource"
)

// VnodeAlloc is one vnode's allocation within a super-chunk.
type VnodeAlloc struct {
	Name      string
	Resources resource.List
}

// SuperChunk is one parenthesized group of exec_vnode — the (possibly
// broken-across-vnodes) allocation of a single select chunk.
type SuperChunk struct {
	Vnodes []VnodeAlloc
}

// ExecVnode is the parsed form of an exec_vnode assignment string.
type ExecVnode []SuperChunk

// DefOf resolves a resource name to its schema definition.
type DefOf func(name string) *resource.Def

// ParseExecVnode parses "(v1:ncpus=2:mem=4gb+v2:ncpus=1)+(v3:ncpus=4)"
// into its super-chunks.
func ParseExecVnode(s string, defOf DefOf) (ExecVnode, error) {
	groups, err := splitTopLevelParens(s)
	if err != nil {
		return nil, err
	}
	out := make(ExecVnode, 0, len(groups))
	for _, g := range groups {
		sc, err := parseSuperChunkBody(g, defOf)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

func parseSuperChunkBody(body string, defOf DefOf) (SuperChunk, error) {
	var sc SuperChunk
	for _, part := range strings.Split(body, "+") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Split(part, ":")
		va := VnodeAlloc{Name: fields[0]}
		for _, f := range fields[1:] {
			kv := strings.SplitN(f, "=", 2)
			if len(kv) != 2 {
				return SuperChunk{}, fmt.Errorf("release: malformed resource field %q", f)
			}
			def := defOf(kv[0])
			if def == nil {
				return SuperChunk{}, fmt.Errorf("release: unknown resource %q", kv[0])
			}
			val, err := resource.ParseValue(def, kv[1])
			if err != nil {
				return SuperChunk{}, err
			}
			va.Resources = va.Resources.Set(val)
		}
		sc.Vnodes = append(sc.Vnodes, va)
	}
	return sc, nil
}

// splitTopLevelParens returns the inner content of each top-level
// "(...)" group in a "+"-joined string of parenthesized groups.
func splitTopLevelParens(s string) ([]string, error) {
	var out []string
	depth := 0
	start := -1
	for i, r := range s {
		switch r {
		case '(':
			if depth == 0 {
				start = i + 1
			}
			depth++
		case ')':
			depth--
			if depth == 0 {
				if start < 0 {
					return nil, fmt.Errorf("release: unbalanced parentheses in %q", s)
				}
				out = append(out, s[start:i])
				start = -1
			}
			if depth < 0 {
				return nil, fmt.Errorf("release: unbalanced parentheses in %q", s)
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("release: unbalanced parentheses in %q", s)
	}
	return out, nil
}

// String renders ev back to wire form.
func (ev ExecVnode) String() string {
	groups := make([]string, len(ev))
	for i, sc := range ev {
		groups[i] = "(" + sc.String() + ")"
	}
	return strings.Join(groups, "+")
}

// String renders a super-chunk's vnode allocations joined by "+".
func (sc SuperChunk) String() string {
	parts := make([]string, len(sc.Vnodes))
	for i, va := range sc.Vnodes {
		parts[i] = va.String()
	}
	return strings.Join(parts, "+")
}

// String renders one vnode allocation as "name:res=val:res=val".
func (va VnodeAlloc) String() string {
	var b strings.Builder
	b.WriteString(va.Name)
	for _, r := range va.Resources {
		b.WriteString(":")
		b.WriteString(r.Def.Name)
		b.WriteString("=")
		b.WriteString(r.String())
	}
	return b.String()
}

// HostList is the parsed form of an exec_host/exec_host2 string: one
// parenthesized group per super-chunk, each a "+"-joined list of
// host[:port] tokens.
type HostList []string

// ParseHostList splits a "(h1/0+h1/1)+(h2/0)" style string into its
// per-super-chunk raw bodies, leaving the host/slot tokens unparsed
// since release only ever copies or concatenates them.
func ParseHostList(s string) (HostList, error) {
	groups, err := splitTopLevelParens(s)
	if err != nil {
		return nil, err
	}
	return HostList(groups), nil
}

// String re-joins the per-super-chunk bodies with their parentheses.
func (h HostList) String() string {
	groups := make([]string, len(h))
	for i, g := range h {
		groups[i] = "(" + g + ")"
	}
	return strings.Join(groups, "+")
}

// PrimaryHost returns the hostname portion (before the first "/") of
// the first host[:port] token of exec_host2's first super-chunk — the
// job's primary execution host (the mother superior).
func PrimaryHost(execHost2 string) (string, error) {
	groups, err := splitTopLevelParens(execHost2)
	if err != nil {
		return "", err
	}
	if len(groups) == 0 {
		return "", fmt.Errorf("release: empty exec_host2")
	}
	first := strings.SplitN(groups[0], "+", 2)[0]
	hostPort := strings.SplitN(first, "/", 2)[0]
	host := strings.SplitN(hostPort, ":", 2)[0]
	return host, nil
}
