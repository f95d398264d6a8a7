// Package selspec parses the select/place request grammar: a chunk
// list of the form "N1:k=v:k=v+N2:k=v…" and a place directive of the
// form "pack:excl" / "scatter:shared" / "free" / etc.
//
// This grammar has no natural fit among the example pack's
// dependencies — it is a small, domain-specific line grammar, not JSON,
// HCL, or a general config format — so it is a deliberate stdlib-only
// exception (see DESIGN.md).
package selspec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vnsched/vnsched/resource"
)

// Chunk is one "N:k=v:k=v" segment of a select string.
type Chunk struct {
	Count         int
	ResourceReq   resource.List
	SeqNum        int
	OriginalText  string
}

// Selspec is a parsed select string.
type Selspec struct {
	Chunks     []*Chunk
	TotalChunks int
	TotalCPUs   float64
	Defs        map[string]*resource.Def
}

// PlaceKind is the mutually-exclusive grouping directive.
type PlaceKind int

const (
	PlaceFree PlaceKind = iota
	PlacePack
	PlaceScatter
	PlaceVScatter
)

func (k PlaceKind) String() string {
	switch k {
	case PlacePack:
		return "pack"
	case PlaceScatter:
		return "scatter"
	case PlaceVScatter:
		return "vscatter"
	default:
		return "free"
	}
}

// Place is a parsed place string.
type Place struct {
	Kind     PlaceKind
	Excl     bool
	ExclHost bool
	Share    bool
	Grouping string // resource name following "group="
}

// Parse parses a select string given a resource definition lookup.
// defOf must return the Def for a resource name, creating one on first
// use if the caller wants unknown resources to be accepted (as
// do_schedselect's queue/server default merge does); a nil return
// rejects the resource name.
func Parse(text string, defOf func(name string) *resource.Def) (*Selspec, error) {
	sp := &Selspec{Defs: make(map[string]*resource.Def)}
	for i, seg := range strings.Split(text, "+") {
		chunk, err := parseChunk(seg, defOf)
		if err != nil {
			return nil, fmt.Errorf("select chunk %d: %w", i+1, err)
		}
		chunk.SeqNum = i
		if i == 0 {
			chunk.OriginalText = seg
		}
		sp.Chunks = append(sp.Chunks, chunk)
		sp.TotalChunks += chunk.Count
		if ncpus := chunk.ResourceReq.FindByName("ncpus"); ncpus != nil {
			sp.TotalCPUs += float64(chunk.Count) * ncpus.Avail
		}
		for _, r := range chunk.ResourceReq {
			sp.Defs[r.Def.Name] = r.Def
		}
	}
	return sp, nil
}

func parseChunk(seg string, defOf func(string) *resource.Def) (*Chunk, error) {
	parts := strings.Split(seg, ":")
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty chunk")
	}
	count := 1
	fields := parts
	if n, err := strconv.Atoi(parts[0]); err == nil {
		count = n
		fields = parts[1:]
	}
	if count < 1 {
		return nil, fmt.Errorf("chunk count must be >= 1, got %d", count)
	}

	chunk := &Chunk{Count: count}
	for _, f := range fields {
		if f == "" {
			continue
		}
		kv := strings.SplitN(f, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("malformed resource field %q", f)
		}
		name, text := kv[0], kv[1]
		def := defOf(name)
		if def == nil {
			return nil, fmt.Errorf("unknown resource %q", name)
		}
		val, err := resource.ParseValue(def, text)
		if err != nil {
			return nil, fmt.Errorf("resource %s: %w", name, err)
		}
		chunk.ResourceReq = chunk.ResourceReq.Set(val)
	}
	return chunk, nil
}

// ParsePlace parses a place string, enforcing mutual exclusion among
// pack/scatter/vscatter/free (defaulting to free) and exclhost implying
// excl.
func ParsePlace(text string) (*Place, error) {
	p := &Place{Kind: PlaceFree}
	seenKind := false
	for _, f := range strings.Split(text, ":") {
		f = strings.TrimSpace(f)
		switch {
		case f == "":
			continue
		case f == "pack" || f == "scatter" || f == "vscatter" || f == "free":
			if seenKind {
				return nil, fmt.Errorf("place: multiple placement kinds specified")
			}
			seenKind = true
			switch f {
			case "pack":
				p.Kind = PlacePack
			case "scatter":
				p.Kind = PlaceScatter
			case "vscatter":
				p.Kind = PlaceVScatter
			case "free":
				p.Kind = PlaceFree
			}
		case f == "excl":
			p.Excl = true
		case f == "exclhost":
			p.ExclHost = true
		case f == "shared" || f == "share":
			p.Share = true
		case strings.HasPrefix(f, "group="):
			p.Grouping = strings.TrimPrefix(f, "group=")
		default:
			return nil, fmt.Errorf("place: unknown directive %q", f)
		}
	}
	if p.ExclHost {
		p.Excl = true
	}
	return p, nil
}
