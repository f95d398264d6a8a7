package release

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/vnsched/vnsched/resource"
	"github.com/vnsched/vnsched/selspec"
)

// ExpandSchedselect rewrites sp so every chunk's implicit instance
// count becomes an explicit "1:..." block, giving it one text block
// per super-chunk of exec_vnode — the shape release-by-vnodelist needs
// to walk the two structures in lockstep.
func ExpandSchedselect(sp *selspec.Selspec) []*selspec.Chunk {
	out := make([]*selspec.Chunk, 0, sp.TotalChunks)
	for _, c := range sp.Chunks {
		for i := 0; i < c.Count; i++ {
			out = append(out, &selspec.Chunk{
				Count:       1,
				ResourceReq: c.ResourceReq,
				SeqNum:      c.SeqNum,
			})
		}
	}
	return out
}

// QueueServerDefaults carries the per-chunk default resources applied
// by do_schedselect, queue defaults first, then server defaults,
// skipping any resource the chunk already set.
type QueueServerDefaults struct {
	Queue  resource.List
	Server resource.List
}

// DoSchedselect parses text, rejects chunks with repeated or unknown
// resources (unless isRoute is set), merges in queue then server
// defaults, consumes the special "nchunk" default as the chunk's
// instance count when the chunk didn't supply one, and re-emits each
// chunk in canonical form.
func DoSchedselect(text string, defOf DefOf, defaults QueueServerDefaults, isRoute bool) (string, error) {
	blocks := strings.Split(text, "+")
	chunks := make([]string, 0, len(blocks))
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		rendered, err := canonicalChunk(block, defOf, defaults, isRoute)
		if err != nil {
			return "", err
		}
		chunks = append(chunks, rendered)
	}
	return strings.Join(chunks, "+"), nil
}

func canonicalChunk(block string, defOf DefOf, defaults QueueServerDefaults, isRoute bool) (string, error) {
	count, body, err := splitCount(block)
	if err != nil {
		return "", err
	}

	seen := make(map[string]bool)
	var fields resource.List
	for _, f := range strings.Split(body, ":") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		kv := strings.SplitN(f, "=", 2)
		if len(kv) != 2 {
			return "", fmt.Errorf("release: malformed select field %q", f)
		}
		name := kv[0]
		if seen[name] {
			if !isRoute {
				return "", fmt.Errorf("release: repeated resource %q in select chunk", name)
			}
			continue
		}
		def := defOf(name)
		if def == nil {
			if !isRoute {
				return "", fmt.Errorf("release: unknown resource %q in select chunk", name)
			}
			continue
		}
		seen[name] = true
		val, err := resource.ParseValue(def, kv[1])
		if err != nil {
			return "", err
		}
		fields = fields.Set(val)
	}

	nchunkDef := defOf("nchunk")
	count, fields = applyDefaults(count, fields, seen, defaults.Queue, nchunkDef)
	count, fields = applyDefaults(count, fields, seen, defaults.Server, nchunkDef)

	return renderChunk(count, fields), nil
}

// applyDefaults merges defaults into fields, skipping resources
// already present, and consumes an "nchunk" default into count rather
// than emitting it as a resource.
func applyDefaults(count int, fields resource.List, seen map[string]bool, defaults resource.List, nchunkDef *resource.Def) (int, resource.List) {
	for _, d := range defaults {
		if seen[d.Def.Name] {
			continue
		}
		if nchunkDef != nil && d.Def == nchunkDef {
			if count == 0 {
				count = int(d.Avail)
			}
			continue
		}
		seen[d.Def.Name] = true
		fields = fields.Set(d.Clone())
	}
	return count, fields
}

func splitCount(block string) (int, string, error) {
	if idx := strings.Index(block, ":"); idx >= 0 {
		if n, err := strconv.Atoi(block[:idx]); err == nil {
			return n, block[idx+1:], nil
		}
	}
	if n, err := strconv.Atoi(block); err == nil {
		return n, "", nil
	}
	return 0, block, nil
}

func renderChunk(count int, fields resource.List) string {
	if count == 0 {
		count = 1
	}
	parts := make([]string, 0, len(fields))
	for _, v := range fields {
		parts = append(parts, v.Def.Name+"="+canonicalValue(v))
	}
	body := strings.Join(parts, ":")
	if body == "" {
		return strconv.Itoa(count)
	}
	return strconv.Itoa(count) + ":" + body
}

// canonicalValue renders one field per do_schedselect's canonical-form
// rules: booleans as True/False, unit-less sizes suffixed with "b",
// and strings containing any of "'+:=()" quoted with the opposite
// quote character.
func canonicalValue(v *resource.Value) string {
	switch v.Def.Kind {
	case resource.KindBoolean:
		if v.Bool {
			return "True"
		}
		return "False"
	case resource.KindSize:
		s := v.String()
		if s != "" && s[len(s)-1] >= '0' && s[len(s)-1] <= '9' {
			s += "b"
		}
		return s
	case resource.KindString:
		if strings.ContainsAny(v.Str, `"'+:=()`) {
			quote := `"`
			if strings.Contains(v.Str, `"`) {
				quote = `'`
			}
			return quote + v.Str + quote
		}
		return v.Str
	default:
		return v.String()
	}
}

// groupIdenticalChunks collapses consecutive identical chunk bodies
// into "N:..." blocks, used when emitting a new schedselect from a set
// of per-need resource blocks built by release-by-select.
func groupIdenticalChunks(bodies []string) []string {
	var out []string
	i := 0
	for i < len(bodies) {
		j := i + 1
		for j < len(bodies) && bodies[j] == bodies[i] {
			j++
		}
		out = append(out, fmt.Sprintf("%d:%s", j-i, bodies[i]))
		i = j
	}
	return out
}

func sortByTightness(limits []rescLimit) {
	sort.SliceStable(limits[1:], func(i, j int) bool {
		a, b := limits[1:][i], limits[1:][j]
		if len(a.Resources) != len(b.Resources) {
			return len(a.Resources) < len(b.Resources)
		}
		an := a.Resources.FindByName("ncpus")
		bn := b.Resources.FindByName("ncpus")
		av, bv := 0.0, 0.0
		if an != nil {
			av = an.Avail
		}
		if bn != nil {
			bv = bn.Avail
		}
		if av != bv {
			return av < bv
		}
		am := a.Resources.FindByName("mem")
		bm := b.Resources.FindByName("mem")
		amv, bmv := 0.0, 0.0
		if am != nil {
			amv = am.Avail
		}
		if bm != nil {
			bmv = bm.Avail
		}
		return amv < bmv
	})
}
