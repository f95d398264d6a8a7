// Package resource implements the typed resource-value model shared by
// every other package in this repository: boolean, number, byte-size,
// string, and string-set values, each carrying an available and an
// assigned quantity, with support for one level of cross-vnode
// indirection.
package resource

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Kind is the tag of the Value union.
type Kind int

const (
	KindBoolean Kind = iota
	KindNumber
	KindSize
	KindString
	KindStringSet
)

func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindSize:
		return "size"
	case KindString:
		return "string"
	case KindStringSet:
		return "string_set"
	default:
		return "unknown"
	}
}

// DefFlag marks schema-level properties of a Def.
type DefFlag uint8

const (
	// FlagConsumable marks a resource whose available/assigned
	// quantities aggregate across a placement set rather than simply
	// matching.
	FlagConsumable DefFlag = 1 << iota
	// FlagHost marks a resource defined at host granularity (shared
	// by every vnode of the same host).
	FlagHost
	// FlagRASSN marks a resource summed across a job's whole select
	// (ncpus, mem, ...).
	FlagRASSN
	// FlagVisibleBySelect marks a resource that participates in
	// resources_available/resources_assigned listing order.
	FlagVisibleBySelect
	// FlagMemNormalize marks a size resource whose value is always
	// normalized downward to whole mebibytes (e.g. "mem", "vmem").
	FlagMemNormalize
)

// Def is a resource's schema entry: its name, type, and flags.
type Def struct {
	Name  string
	Kind  Kind
	Flags DefFlag
}

func (d *Def) Consumable() bool       { return d.Flags&FlagConsumable != 0 }
func (d *Def) HostLevel() bool        { return d.Flags&FlagHost != 0 }
func (d *Def) RASSN() bool            { return d.Flags&FlagRASSN != 0 }
func (d *Def) VisibleBySelect() bool  { return d.Flags&FlagVisibleBySelect != 0 }
func (d *Def) MemNormalized() bool    { return d.Flags&FlagMemNormalize != 0 }

// Unlimited represents an unbounded "available" quantity on a
// consumable resource; it is preserved through arithmetic rather than
// collapsing to a large finite number.
const Unlimited = math.MaxFloat64

// Value is one vnode's (or placement set's) value of one resource.
// Exactly one of the Bool/Str/StrSet/quantity fields is meaningful,
// selected by Def.Kind.
type Value struct {
	Def *Def

	// Avail/Assigned carry the consumable quantity for KindNumber and
	// KindSize (kilobytes for KindSize). 0 <= Assigned <= Avail always
	// holds except when Avail == Unlimited.
	Avail    float64
	Assigned float64

	Bool   bool
	Str    string
	StrSet []string

	// Indirect, when non-empty, names the vnode whose value of this
	// same resource is authoritative; reads and writes against this
	// Value must instead be forwarded there (vnode package resolves
	// this; at most one hop is permitted, enforced at pool-build time).
	Indirect string
}

// Clone returns a deep copy so shadow/tentative mutation never aliases
// the original (used by match's copystructure-based duplication path
// for the scalar fields copystructure doesn't need to touch, and
// directly by unit tests).
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	cp := *v
	if v.StrSet != nil {
		cp.StrSet = append([]string(nil), v.StrSet...)
	}
	return &cp
}

// DynamicAvail returns max(0, avail-assigned), preserving Unlimited.
func (v *Value) DynamicAvail() float64 {
	if v.Avail == Unlimited {
		return Unlimited
	}
	d := v.Avail - v.Assigned
	if d < 0 {
		return 0
	}
	return d
}

// SizeMiB floors a KindSize value (stored in kilobytes) down to whole
// mebibytes, the normalization memory-like resources require.
func (v *Value) SizeMiB() uint64 {
	kb := uint64(v.Avail)
	return kb / 1024
}

// ParseValue parses the wire/text representation of a resource value
// according to def.Kind. Size values are parsed with go-humanize and
// stored internally in kilobytes; if def is flagged FlagMemNormalize
// the parsed quantity is floored to a whole mebibyte.
func ParseValue(def *Def, text string) (*Value, error) {
	v := &Value{Def: def}
	text = strings.TrimSpace(text)
	switch def.Kind {
	case KindBoolean:
		b, err := parseBool(text)
		if err != nil {
			return nil, fmt.Errorf("resource %s: %w", def.Name, err)
		}
		v.Bool = b
	case KindNumber:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("resource %s: %w", def.Name, err)
		}
		v.Avail = f
	case KindSize:
		// Unit letters are binary multiples (1kb = 1024 bytes), so
		// "kb"/"k" reach go-humanize as "kib"/"ki", and so on up to "e".
		sized := strings.ToLower(withDefaultByteSuffix(text))
		if n := len(sized); n >= 2 && sized[n-1] == 'b' && strings.ContainsRune("kmgtpe", rune(sized[n-2])) {
			sized = sized[:n-1] + "ib"
		} else if n > 0 && strings.ContainsRune("kmgtpe", rune(sized[n-1])) {
			sized += "i"
		}
		bytes, err := humanize.ParseBytes(sized)
		if err != nil {
			return nil, fmt.Errorf("resource %s: %w", def.Name, err)
		}
		kb := float64(bytes) / 1024
		if def.MemNormalized() {
			kb = math.Floor(kb/1024) * 1024
		}
		v.Avail = kb
	case KindString:
		v.Str = unquote(text)
	case KindStringSet:
		v.StrSet = splitStringSet(text)
	default:
		return nil, fmt.Errorf("resource %s: unknown kind", def.Name)
	}
	return v, nil
}

func parseBool(text string) (bool, error) {
	switch strings.ToLower(text) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return strconv.ParseBool(text)
}

// withDefaultByteSuffix appends "b" to a bare numeric size so
// humanize.ParseBytes treats it as raw bytes rather than failing —
// mirrors do_schedselect's "size values without an explicit unit are
// suffixed with b" rule at the parsing boundary too.
func withDefaultByteSuffix(text string) string {
	if text == "" {
		return "0b"
	}
	last := text[len(text)-1]
	if last >= '0' && last <= '9' {
		return text + "b"
	}
	return text
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func splitStringSet(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// String renders a Value for diagnostics; it is not necessarily the
// canonical wire form (see the release package's do_schedselect for
// that).
func (v *Value) String() string {
	switch v.Def.Kind {
	case KindBoolean:
		if v.Bool {
			return "True"
		}
		return "False"
	case KindNumber:
		return strconv.FormatFloat(v.Avail, 'g', -1, 64)
	case KindSize:
		if v.Avail == Unlimited {
			return "unlimited"
		}
		return humanize.IBytes(uint64(v.Avail) * 1024)
	case KindString:
		return v.Str
	case KindStringSet:
		return strings.Join(v.StrSet, ",")
	default:
		return ""
	}
}

// ContainsAll reports whether every element of want is present in v's
// string-set (used for non-consumable string-set matching).
func (v *Value) ContainsAll(want []string) bool {
	have := make(map[string]bool, len(v.StrSet))
	for _, s := range v.StrSet {
		have[s] = true
	}
	for _, w := range want {
		if !have[w] {
			return false
		}
	}
	return true
}
