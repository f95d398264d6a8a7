package command

import (
	"fmt"
	"strings"

	"github.com/ryanuber/columnize"

	"github.com/vnsched/vnsched/vnodefile"
)

// VnodefileCommand validates a vnode-definition file and prints a
// tabular summary of what it parsed to.
type VnodefileCommand struct {
	Meta
}

func (c *VnodefileCommand) Help() string {
	return strings.TrimSpace(`
Usage: vnsched vnodefile [options] <path>

  Parses a vnode-definition file and prints one row per vnode
  attribute. A parse error is reported with its line number and
  nothing is printed.

Options:

  -allow-dot   permit "." in vnode ids (default false)
`)
}

func (c *VnodefileCommand) Synopsis() string { return "Validate and list a vnode-definition file" }

func (c *VnodefileCommand) Run(args []string) int {
	fs := c.FlagSet("vnodefile")
	var allowDot bool
	fs.BoolVar(&allowDot, "allow-dot", false, "")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	rest := fs.Args()
	if len(rest) != 1 {
		c.Ui.Error("vnodefile: exactly one <path> argument is required")
		return 1
	}

	f, err := vnodefile.ParseFile(rest[0], vnodefile.Options{AllowDot: allowDot})
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}

	rows := []string{"VNODE | ATTRIBUTE | VALUE | TYPE"}
	for _, vd := range f.Vnodes {
		if len(vd.Attrs) == 0 {
			rows = append(rows, fmt.Sprintf("%s | | |", vd.ID))
			continue
		}
		for _, a := range vd.Attrs {
			typeName := a.Type
			if typeName == "" {
				typeName = "-"
			}
			rows = append(rows, fmt.Sprintf("%s | %s | %s | %s", vd.ID, a.Name, a.Value, typeName))
		}
	}

	c.Ui.Output(columnize.SimpleFormat(rows))
	c.Ui.Output(fmt.Sprintf("\n%d vnode(s), parsed as of %s", len(f.Vnodes), f.ModTime.Format("2006-01-02T15:04:05Z07:00")))
	return 0
}
