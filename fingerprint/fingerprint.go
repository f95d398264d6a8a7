// Package fingerprint detects the resources of the host it runs on
// and renders them as a vnode-definition file stanza: an external
// collaborator producing input for the scheduler, not part of the
// evaluator itself.
package fingerprint

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/hashicorp/go-hclog"
	"github.com/klauspost/cpuid/v2"
	"github.com/shirou/gopsutil/v3/mem"
)

// Result is the detected resource set for one host.
type Result struct {
	Hostname string
	NumCPUs  int
	Brand    string
	Arch     string
	MemBytes uint64
}

// Detect probes the local host's CPU (via cpuid) and memory (via
// gopsutil) and returns the result, logging what it found at Debug.
func Detect(logger hclog.Logger) (*Result, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("fingerprint: hostname: %w", err)
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return nil, fmt.Errorf("fingerprint: memory: %w", err)
	}

	r := &Result{
		Hostname: host,
		NumCPUs:  cpuid.CPU.LogicalCores,
		Brand:    cpuid.CPU.BrandName,
		Arch:     runtime.GOARCH,
		MemBytes: vm.Total,
	}
	logger.Debug("detected host resources",
		"hostname", r.Hostname, "ncpus", r.NumCPUs, "brand", r.Brand,
		"arch", r.Arch, "mem_bytes", r.MemBytes)
	return r, nil
}

// WriteVnodeDef renders r as vnode-definition lines for vnodeName,
// in the grammar the vnodefile package parses: one
// "<id> : <attrname> = <value> [type = <typename>]" line per
// resource, with the size-valued "mem" attribute explicitly typed.
func (r *Result) WriteVnodeDef(w io.Writer, vnodeName string) error {
	lines := []string{
		fmt.Sprintf("%s: ncpus = %d\n", vnodeName, r.NumCPUs),
		fmt.Sprintf("%s: mem = %dkb type = size\n", vnodeName, r.MemBytes/1024),
		fmt.Sprintf("%s: arch = %s\n", vnodeName, r.Arch),
	}
	if r.Brand != "" {
		lines = append(lines, fmt.Sprintf("%s: cpu_brand = %q type = string\n", vnodeName, r.Brand))
	}
	for _, line := range lines {
		if _, err := io.WriteString(w, line); err != nil {
			return fmt.Errorf("fingerprint: writing vnode-definition stanza: %w", err)
		}
	}
	return nil
}
