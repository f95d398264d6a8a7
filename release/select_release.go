package release

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/vnsched/vnsched/resource"
	"github.com/vnsched/vnsched/selspec"
)

// rescLimit is one super-chunk of the original exec_vnode, paired with
// its exec_host/exec_host2 text and the mom that owns it — the "have"
// or "failed" pool release-by-select draws from.
type rescLimit struct {
	ExecVnode string
	ExecHost  string
	ExecHost2 string
	Resources resource.List
	Mom       string
	consumed  bool
}

// buildRescLimits parses a's super-chunks into rescLimit entries,
// ordered with the primary host first and the remainder sorted by
// ascending tightness (resource-count, then ncpus, then mem) so small
// requests aren't greedily matched against the richest chunks first.
func buildRescLimits(a Assignment, momOf func(vnode string) string, defOf DefOf) ([]rescLimit, error) {
	ev, err := ParseExecVnode(a.ExecVnode, defOf)
	if err != nil {
		return nil, err
	}
	eh, err := ParseHostList(a.ExecHost)
	if err != nil {
		return nil, err
	}
	eh2, err := ParseHostList(a.ExecHost2)
	if err != nil {
		return nil, err
	}
	if len(ev) != len(eh) || len(ev) != len(eh2) {
		return nil, fmt.Errorf("release: exec_vnode/exec_host/exec_host2 super-chunk counts disagree")
	}

	primary, err := PrimaryHost(a.ExecHost2)
	if err != nil {
		return nil, err
	}

	limits := make([]rescLimit, len(ev))
	for i, sc := range ev {
		var sum resource.List
		var mom string
		for _, va := range sc.Vnodes {
			if mom == "" {
				mom = momOf(va.Name)
			}
			for _, r := range va.Resources {
				sum = addNative(sum, r)
			}
		}
		limits[i] = rescLimit{
			ExecVnode: "(" + sc.String() + ")",
			ExecHost:  "(" + eh[i] + ")",
			ExecHost2: "(" + eh2[i] + ")",
			Resources: sum,
			Mom:       mom,
		}
	}

	for i, l := range limits {
		if l.Mom == primary && i != 0 {
			limits[0], limits[i] = limits[i], limits[0]
			break
		}
	}
	sortByTightness(limits)
	return limits, nil
}

// SelectReleaseResult is the rebuilt assignment. It does not list the
// vnodes of failed moms separately.
type SelectReleaseResult struct {
	Assignment
}

// ReleaseBySelect implements release-given-a-target-select: it keeps
// as much of the job as still satisfies target against the chunks
// owned by succeededMoms, dropping the chunks owned by failedMoms.
func ReleaseBySelect(a Assignment, target string, failedMoms, succeededMoms map[string]bool, momOf func(vnode string) string, defOf DefOf, logger hclog.Logger) (SelectReleaseResult, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	limits, err := buildRescLimits(a, momOf, defOf)
	if err != nil {
		return SelectReleaseResult{}, err
	}

	var have []*rescLimit
	for i := range limits {
		l := &limits[i]
		if failedMoms[l.Mom] {
			continue
		}
		if succeededMoms == nil || succeededMoms[l.Mom] {
			have = append(have, l)
		}
	}

	sp, err := selspec.Parse(target, func(n string) *resource.Def { return defOf(n) })
	if err != nil {
		return SelectReleaseResult{}, fmt.Errorf("release: parsing target select: %w", err)
	}
	needs := ExpandSchedselect(sp)

	var outEV, outEH, outEH2, outBody []string
	for idx, need := range needs {
		var satisfied bool
		for _, l := range have {
			if l.consumed {
				continue
			}
			vnodeChunk, ok := satisfyChunkNeed(need.ResourceReq, l)
			if !ok {
				continue
			}
			l.consumed = true
			outEV = append(outEV, vnodeChunk)
			outEH = append(outEH, l.ExecHost)
			outEH2 = append(outEH2, l.ExecHost2)
			outBody = append(outBody, chunkBody(need.ResourceReq))
			satisfied = true
			break
		}
		if !satisfied {
			if idx == 0 {
				return SelectReleaseResult{}, fmt.Errorf("release: cannot preserve the primary execution host against target select")
			}
			logger.Trace("could not satisfy select chunk",
				"need", chunkBody(need.ResourceReq),
				"have", haveSummary(have),
				"failed_moms", momSetString(failedMoms),
				"succeeded_moms", momSetString(succeededMoms))
			return SelectReleaseResult{}, fmt.Errorf("release: could not satisfy select chunk %q", chunkBody(need.ResourceReq))
		}
	}

	newSchedselect, err := DoSchedselect(strings.Join(groupIdenticalChunks(outBody), "+"), defOf, QueueServerDefaults{}, false)
	if err != nil {
		return SelectReleaseResult{}, err
	}

	return SelectReleaseResult{Assignment: Assignment{
		ExecVnode:   strings.Join(outEV, "+"),
		ExecHost:    strings.Join(outEH, "+"),
		ExecHost2:   strings.Join(outEH2, "+"),
		Schedselect: newSchedselect,
	}}, nil
}

// satisfyChunkNeed returns a parenthesized exec_vnode sub-chunk
// allocating exactly need's resources, or ok=false if have cannot
// fully cover need (any consumable shortfall, or a non-consumable
// mismatch).
func satisfyChunkNeed(need resource.List, have *rescLimit) (string, bool) {
	var alloc resource.List
	for _, n := range need {
		if !n.Def.Consumable() {
			hv := have.Resources.Find(n.Def)
			if hv == nil || !matchesNonConsumable(n, hv) {
				return "", false
			}
			alloc = alloc.Set(n.Clone())
			continue
		}
		hv := have.Resources.Find(n.Def)
		if hv == nil || hv.Avail < n.Avail {
			return "", false
		}
		alloc = alloc.Set(n.Clone())
	}

	vnodeName := leadNameOf(have.ExecVnode)
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(vnodeName)
	for _, v := range alloc {
		b.WriteString(":")
		b.WriteString(v.Def.Name)
		b.WriteString("=")
		b.WriteString(canonicalValue(v))
	}
	b.WriteString(")")
	return b.String(), true
}

func matchesNonConsumable(need, have *resource.Value) bool {
	switch need.Def.Kind {
	case resource.KindBoolean:
		return !need.Bool || have.Bool
	case resource.KindString:
		return have.Str == need.Str
	case resource.KindStringSet:
		return have.ContainsAll(need.StrSet)
	default:
		return true
	}
}

func chunkBody(req resource.List) string {
	parts := make([]string, 0, len(req))
	for _, r := range req {
		parts = append(parts, r.Def.Name+"="+canonicalValue(r))
	}
	return strings.Join(parts, ":")
}

func haveSummary(have []*rescLimit) string {
	parts := make([]string, 0, len(have))
	for _, l := range have {
		if !l.consumed {
			parts = append(parts, l.ExecVnode)
		}
	}
	return strings.Join(parts, ",")
}

func momSetString(set map[string]bool) string {
	names := make([]string, 0, len(set))
	for m := range set {
		names = append(names, m)
	}
	return strings.Join(names, ",")
}
