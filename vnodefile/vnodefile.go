// Package vnodefile parses vnode-definition files: the line-oriented
// "<id> : <attrname> = <value> [ type = <typename> ]" format used to
// hand a scheduler a fixed list of vnodes without a live server
// connection. There is no ecosystem format this maps onto — the
// grammar, its quoting rules, and its "type=" trailer are bespoke to
// this file kind, so bufio.Scanner plus a small hand-written tokenizer
// is the natural fit.
package vnodefile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/vnsched/vnsched/resource"
)

// Attr is one "<attrname> = <value> [type = <typename>]" line.
type Attr struct {
	Name  string
	Value string

	// Type is the typename given in an explicit "type = ..." trailer,
	// or "" if the line carried none.
	Type string
	// Kind is the resolved resource.Kind for Type, valid only when
	// Type != "".
	Kind resource.Kind
}

// VnodeDef collects every attribute line seen for one vnode ID, in the
// order they appeared in the file.
type VnodeDef struct {
	ID    string
	Attrs []Attr
}

// File is a fully parsed vnode-definition file.
type File struct {
	ModTime time.Time
	Vnodes  []VnodeDef
}

// Options controls the small set of caller-selectable grammar
// variants the original format supports.
type Options struct {
	// AllowDot permits '.' in a vnode ID in addition to the always-
	// legal letters/digits/-_@[]#^/\, set.
	AllowDot bool
}

// knownTypes maps the "type = <typename>" trailer's typename to the
// resource kind it denotes. Names follow the original format's
// long/size/float/string/string_array/boolean vocabulary.
var knownTypes = map[string]resource.Kind{
	"long":         resource.KindNumber,
	"float":        resource.KindNumber,
	"size":         resource.KindSize,
	"string":       resource.KindString,
	"string_array": resource.KindStringSet,
	"boolean":      resource.KindBoolean,
}

const maxIDLen = 64

// Parse reads a vnode-definition file from r. Line numbers in returned
// errors begin at 2, since the format assumes line 1 was already
// consumed as a "$configversion" header by the caller.
func Parse(r io.Reader, opts Options) (*File, error) {
	f := &File{}
	byID := make(map[string]int)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	linenum := 1
	for sc.Scan() {
		linenum++
		line := sc.Text()

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		id, name, value, typeName, err := parseLine(line)
		if err != nil {
			return f, fmt.Errorf("vnodefile: line %d: %w", linenum, err)
		}
		if err := validateID(id, opts.AllowDot); err != nil {
			return f, fmt.Errorf("vnodefile: line %d: %w", linenum, err)
		}

		attr := Attr{Name: name, Value: value}
		if typeName != "" {
			kind, ok := knownTypes[typeName]
			if !ok {
				return f, fmt.Errorf("vnodefile: line %d: invalid type %q", linenum, typeName)
			}
			attr.Type = typeName
			attr.Kind = kind
		}

		idx, ok := byID[id]
		if !ok {
			idx = len(f.Vnodes)
			byID[id] = idx
			f.Vnodes = append(f.Vnodes, VnodeDef{ID: id})
		}
		f.Vnodes[idx].Attrs = append(f.Vnodes[idx].Attrs, attr)
	}
	if err := sc.Err(); err != nil {
		return f, fmt.Errorf("vnodefile: reading: %w", err)
	}
	return f, nil
}

// ParseFile opens path and parses it, stamping the returned File's
// ModTime from the file's mtime.
func ParseFile(path string, opts Options) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vnodefile: %w", err)
	}
	defer fh.Close()

	info, err := fh.Stat()
	if err != nil {
		return nil, fmt.Errorf("vnodefile: %w", err)
	}

	f, perr := Parse(fh, opts)
	if f != nil {
		f.ModTime = info.ModTime()
	}
	return f, perr
}

// parseLine splits one non-blank line into its id, attrname, value,
// and optional type-trailer typename.
func parseLine(line string) (id, name, value, typeName string, err error) {
	idDelim := strings.IndexByte(line, ':')
	if idDelim < 0 {
		return "", "", "", "", fmt.Errorf("missing ':'")
	}
	id = strings.TrimSpace(line[:idDelim])
	if id == "" {
		return "", "", "", "", fmt.Errorf("no vnode id")
	}

	rest := line[idDelim+1:]
	attrDelim := strings.IndexByte(rest, '=')
	if attrDelim < 0 {
		return "", "", "", "", fmt.Errorf("missing '='")
	}
	name = strings.TrimSpace(rest[:attrDelim])
	if name == "" {
		return "", "", "", "", fmt.Errorf("no attribute name")
	}
	if strings.ContainsAny(name, " \t.") {
		return "", "", "", "", fmt.Errorf("illegal character in attribute name %q", name)
	}

	valuePart := rest[attrDelim+1:]
	valuePart = strings.TrimLeft(valuePart, " \t")
	if valuePart == "" {
		return "", "", "", "", fmt.Errorf("no attribute value")
	}

	if valuePart[0] == '"' || valuePart[0] == '\'' {
		value, tail, qerr := parseQuoted(valuePart)
		if qerr != nil {
			return "", "", "", "", qerr
		}
		tail = strings.TrimSpace(tail)
		if tail == "" {
			return id, name, value, "", nil
		}
		typeName, terr := parseTypeTrailer(tail)
		if terr != nil {
			return "", "", "", "", terr
		}
		return id, name, value, typeName, nil
	}

	value, typeName, verr := splitValueAndType(valuePart)
	if verr != nil {
		return "", "", "", "", verr
	}
	return id, name, value, typeName, nil
}

// splitValueAndType separates an unquoted value from an optional
// trailing "type = <typename>" clause. An unquoted value runs to the
// end of line, or up to a trailing whitespace-delimited "type ="
// clause; any other '=' appearing in it is illegal.
func splitValueAndType(s string) (value, typeName string, err error) {
	nextEq := strings.IndexByte(s, '=')
	if nextEq < 0 {
		return strings.TrimRight(s, " \t"), "", nil
	}

	before := strings.TrimRight(s[:nextEq], " \t")
	fields := strings.Fields(before)
	if len(fields) == 0 || fields[len(fields)-1] != "type" {
		return "", "", fmt.Errorf("illegal character '=' in value")
	}
	// value is everything before the "type" keyword.
	kwIdx := strings.LastIndex(before, "type")
	value = strings.TrimRight(before[:kwIdx], " \t")

	typeName = strings.TrimSpace(s[nextEq+1:])
	if typeName == "" {
		return "", "", fmt.Errorf("no keyword value")
	}
	if fs := strings.Fields(typeName); len(fs) > 0 {
		typeName = fs[0]
	}
	return value, typeName, nil
}

func parseTypeTrailer(s string) (string, error) {
	fields := strings.Fields(s)
	if len(fields) < 3 || fields[0] != "type" || fields[1] != "=" {
		return "", fmt.Errorf("invalid keyword %q", s)
	}
	return fields[2], nil
}

// parseQuoted consumes a quoted token beginning at s[0] (a '"' or
// '\''), returning the unescaped interior and whatever text follows
// the closing quote.
func parseQuoted(s string) (value, tail string, err error) {
	quote := s[0]
	i := 1
	var b strings.Builder
	for i < len(s) {
		c := s[i]
		if c == '\\' && i+1 < len(s) && s[i+1] == quote {
			b.WriteByte(quote)
			i += 2
			continue
		}
		if c == quote {
			return b.String(), s[i+1:], nil
		}
		b.WriteByte(c)
		i++
	}
	return "", "", fmt.Errorf("unterminated quoted value")
}

// validateID enforces the vnode ID character set and length limit.
func validateID(id string, allowDot bool) error {
	if len(id) > maxIDLen {
		return fmt.Errorf("vnode id %q exceeds %d characters", id, maxIDLen)
	}
	for _, r := range id {
		if legalIDChar(r, allowDot) {
			continue
		}
		return fmt.Errorf("illegal character %q in vnode id %q", r, id)
	}
	return nil
}

func legalIDChar(r rune, allowDot bool) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case '-', '_', '@', '[', ']', '#', '^', '/', '\\', ',':
		return true
	case '.':
		return allowDot
	}
	return false
}
