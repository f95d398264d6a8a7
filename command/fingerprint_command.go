package command

import (
	"os"
	"strings"

	"github.com/vnsched/vnsched/fingerprint"
)

// FingerprintCommand detects the local host's resources and prints
// them as a vnode-definition-file fragment.
type FingerprintCommand struct {
	Meta
}

func (c *FingerprintCommand) Help() string {
	return strings.TrimSpace(`
Usage: vnsched fingerprint [options]

  Detects the local host's CPU count, brand, architecture, and memory
  size, and prints them as vnode-definition lines.

Options:

  -vnode=<name>   vnode id to emit lines for (default: the host's own name)
  -out=<path>     write to path instead of stdout
`)
}

func (c *FingerprintCommand) Synopsis() string { return "Detect and print local host resources" }

func (c *FingerprintCommand) Run(args []string) int {
	fs := c.FlagSet("fingerprint")
	var vnodeName, out string
	fs.StringVar(&vnodeName, "vnode", "", "")
	fs.StringVar(&out, "out", "", "")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	res, err := fingerprint.Detect(c.Logger)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	if vnodeName == "" {
		vnodeName = res.Hostname
	}

	w := os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			c.Ui.Error(err.Error())
			return 1
		}
		defer f.Close()
		if err := res.WriteVnodeDef(f, vnodeName); err != nil {
			c.Ui.Error(err.Error())
			return 1
		}
		return 0
	}

	if err := res.WriteVnodeDef(w, vnodeName); err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	return 0
}
