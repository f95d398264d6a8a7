package wire

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/shoenig/test/must"
)

func TestEncodeDecode_Roundtrip(t *testing.T) {
	in := &List{
		Version: Version4,
		ModTime: time.Unix(1700000000, 0),
		Vnodes: []Vnode{
			{ID: "v1", Resources: []Resource{
				{Name: "ncpus", Value: "8", Type: 1, Flags: 0},
				{Name: "mem", Value: "16gb", Type: 2, Flags: 0},
			}},
			{ID: "v2", Resources: nil},
		},
	}

	var buf bytes.Buffer
	must.NoError(t, Encode(&buf, in))

	out, err := Decode(&buf)
	must.NoError(t, err)
	must.Eq(t, Version4, out.Version)
	must.Eq(t, in.ModTime.Unix(), out.ModTime.Unix())
	must.Eq(t, 2, len(out.Vnodes))
	must.Eq(t, "v1", out.Vnodes[0].ID)
	must.Eq(t, 2, len(out.Vnodes[0].Resources))
	must.Eq(t, "ncpus", out.Vnodes[0].Resources[0].Name)
	must.Eq(t, "8", out.Vnodes[0].Resources[0].Value)
}

func TestDecode_RejectsUnsupportedVersion(t *testing.T) {
	var buf bytes.Buffer
	must.NoError(t, binary.Write(&buf, binary.BigEndian, uint64(99)))
	_, err := Decode(&buf)
	must.Error(t, err)
}

func TestDecode_TruncatedPayloadReturnsPartialListAndError(t *testing.T) {
	var full bytes.Buffer
	in := &List{
		Version: Version4,
		ModTime: time.Unix(1700000000, 0),
		Vnodes: []Vnode{
			{ID: "v1", Resources: []Resource{{Name: "ncpus", Value: "8"}}},
			{ID: "v2", Resources: []Resource{{Name: "ncpus", Value: "4"}}},
		},
	}
	must.NoError(t, Encode(&full, in))

	// Truncate partway through the second vnode so decoding fails
	// after the first vnode is fully constructed.
	truncated := bytes.NewReader(full.Bytes()[:full.Len()-4])
	out, err := Decode(truncated)
	must.Error(t, err)
	must.NotNil(t, out)
	must.Eq(t, 1, len(out.Vnodes))
	must.Eq(t, "v1", out.Vnodes[0].ID)
}
