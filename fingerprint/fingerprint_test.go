package fingerprint

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shoenig/test/must"

	"github.com/vnsched/vnsched/vnodefile"
)

func TestDetect_ReturnsPositiveCPUAndMemory(t *testing.T) {
	r, err := Detect(nil)
	must.NoError(t, err)
	must.Greater(t, 0, r.NumCPUs)
	must.Greater(t, uint64(0), r.MemBytes)
	must.NotEq(t, "", r.Hostname)
}

func TestWriteVnodeDef_RoundTripsThroughParser(t *testing.T) {
	r := &Result{Hostname: "h1", NumCPUs: 4, Brand: `Weird "Brand"`, Arch: "amd64", MemBytes: 8 * 1024 * 1024 * 1024}

	var buf bytes.Buffer
	must.NoError(t, r.WriteVnodeDef(&buf, "vn1"))

	f, err := vnodefile.Parse(strings.NewReader(buf.String()), vnodefile.Options{})
	must.NoError(t, err)
	must.Eq(t, 1, len(f.Vnodes))
	must.Eq(t, "vn1", f.Vnodes[0].ID)

	byName := map[string]vnodefile.Attr{}
	for _, a := range f.Vnodes[0].Attrs {
		byName[a.Name] = a
	}
	must.Eq(t, "4", byName["ncpus"].Value)
	must.Eq(t, "amd64", byName["arch"].Value)
	must.Eq(t, "size", byName["mem"].Type)
	must.Eq(t, `Weird "Brand"`, byName["cpu_brand"].Value)
}
