// Package wire implements the over-the-wire DIS (Data Is Strings)
// encoding of a vnode list: a counted-string/counted-int format used
// to ship a node pool snapshot between processes. Versions 3 and 4 are
// decoded; only version 4 is ever encoded.
//
// DIS is not an ecosystem wire format — there is no ready-made codec
// for it in the broader Go ecosystem, so this package reads and
// writes it directly against encoding/binary.
package wire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

const (
	Version3 = 3
	Version4 = 4
)

// Resource is one decoded (or to-be-encoded) resource entry on a
// vnode. Type/Flags are only meaningful (and only ever sent) at
// version 4.
type Resource struct {
	Name  string
	Value string
	Type  int32
	Flags int32
}

// Vnode is one decoded (or to-be-encoded) vnode entry.
type Vnode struct {
	ID        string
	Resources []Resource
}

// List is a full decoded vnode-list payload.
type List struct {
	Version int
	ModTime time.Time
	Vnodes  []Vnode
}

// Decode reads a DIS-encoded vnode list from r, recognizing both
// version 3 and version 4 payloads. On any sub-field failure it
// returns the partial List decoded so far (up to, but not including,
// the element that failed) alongside the error — mirroring the
// original decoder's cur-mark bookkeeping (vnl_cur/vnal_cur), which
// exists so a caller can free exactly the elements actually
// constructed rather than guessing from a nominal count that was
// never reached.
func Decode(r io.Reader) (*List, error) {
	br := bufio.NewReader(r)

	version, err := readUint(br)
	if err != nil {
		return nil, fmt.Errorf("wire: reading version: %w", err)
	}
	if version != Version3 && version != Version4 {
		return nil, fmt.Errorf("wire: unsupported version %d", version)
	}

	modSecs, err := readInt64(br)
	if err != nil {
		return &List{Version: int(version)}, fmt.Errorf("wire: reading modtime: %w", err)
	}
	list := &List{Version: int(version), ModTime: time.Unix(modSecs, 0)}

	nvnodes, err := readUint(br)
	if err != nil {
		return list, fmt.Errorf("wire: reading nvnodes: %w", err)
	}

	list.Vnodes = make([]Vnode, 0, nvnodes)
	for i := uint64(0); i < nvnodes; i++ {
		vn, err := decodeVnode(br, version)
		if err != nil {
			// cur-mark equivalent: list.Vnodes already holds exactly
			// the vnodes fully decoded before this failure.
			return list, fmt.Errorf("wire: decoding vnode %d: %w", i, err)
		}
		list.Vnodes = append(list.Vnodes, *vn)
	}
	return list, nil
}

func decodeVnode(r *bufio.Reader, version uint64) (*Vnode, error) {
	id, err := readCountedString(r)
	if err != nil {
		return nil, fmt.Errorf("reading id: %w", err)
	}
	vn := &Vnode{ID: id}

	nres, err := readUint(r)
	if err != nil {
		return vn, fmt.Errorf("reading nresources: %w", err)
	}

	vn.Resources = make([]Resource, 0, nres)
	for j := uint64(0); j < nres; j++ {
		res, err := decodeResource(r, version)
		if err != nil {
			// vnal_cur equivalent: vn.Resources holds exactly the
			// resources fully decoded for this vnode so far.
			return vn, fmt.Errorf("decoding resource %d: %w", j, err)
		}
		vn.Resources = append(vn.Resources, *res)
	}
	return vn, nil
}

func decodeResource(r *bufio.Reader, version uint64) (*Resource, error) {
	name, err := readCountedString(r)
	if err != nil {
		return nil, fmt.Errorf("reading name: %w", err)
	}
	value, err := readCountedString(r)
	if err != nil {
		return nil, fmt.Errorf("reading value: %w", err)
	}
	res := &Resource{Name: name, Value: value}
	if version == Version4 {
		typ, err := readInt32(r)
		if err != nil {
			return res, fmt.Errorf("reading type: %w", err)
		}
		res.Type = typ
		flags, err := readInt32(r)
		if err != nil {
			return res, fmt.Errorf("reading flags: %w", err)
		}
		res.Flags = flags
	}
	return res, nil
}

// Encode writes list in version 4 DIS form regardless of the version
// it was originally decoded at — version 3 payloads are only ever
// read, never re-emitted.
func Encode(w io.Writer, list *List) error {
	bw := bufio.NewWriter(w)
	if err := writeUint(bw, Version4); err != nil {
		return err
	}
	if err := writeInt64(bw, list.ModTime.Unix()); err != nil {
		return err
	}
	if err := writeUint(bw, uint64(len(list.Vnodes))); err != nil {
		return err
	}
	for _, vn := range list.Vnodes {
		if err := encodeVnode(bw, vn); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func encodeVnode(w *bufio.Writer, vn Vnode) error {
	if err := writeCountedString(w, vn.ID); err != nil {
		return err
	}
	if err := writeUint(w, uint64(len(vn.Resources))); err != nil {
		return err
	}
	for _, res := range vn.Resources {
		if err := writeCountedString(w, res.Name); err != nil {
			return err
		}
		if err := writeCountedString(w, res.Value); err != nil {
			return err
		}
		if err := writeInt32(w, res.Type); err != nil {
			return err
		}
		if err := writeInt32(w, res.Flags); err != nil {
			return err
		}
	}
	return nil
}

func readUint(r *bufio.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

func readInt64(r *bufio.Reader) (int64, error) {
	v, err := readUint(r)
	return int64(v), err
}

func readInt32(r *bufio.Reader) (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(buf[:])), nil
}

func readCountedString(r *bufio.Reader) (string, error) {
	n, err := readUint(r)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeUint(w *bufio.Writer, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeInt64(w *bufio.Writer, v int64) error {
	return writeUint(w, uint64(v))
}

func writeInt32(w *bufio.Writer, v int32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	_, err := w.Write(buf[:])
	return err
}

func writeCountedString(w *bufio.Writer, s string) error {
	if err := writeUint(w, uint64(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}
