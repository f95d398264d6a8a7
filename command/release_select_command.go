package command

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/vnsched/vnsched/config"
	"github.com/vnsched/vnsched/release"
	"github.com/vnsched/vnsched/vnodefile"
)

// ReleaseSelectCommand releases a job given a reduced target select,
// preserving as much of its assignment as target still allows.
type ReleaseSelectCommand struct {
	Meta
}

func (c *ReleaseSelectCommand) Help() string {
	return strings.TrimSpace(`
Usage: vnsched release-select [options]

  Rebuilds a job's assignment strings against a reduced target select,
  dropping the super-chunks owned by -failed-moms and keeping only
  what -succeeded-moms (if given) still offers.

Options:

  -config=<path>        HCL scheduler configuration file (required)
  -vnodefile=<path>     vnode-definition file, for parent-mom lookups (required)
  -exec-vnode=<text>    current exec_vnode (required)
  -exec-host=<text>     current exec_host (required)
  -exec-host2=<text>    current exec_host2 (required)
  -schedselect=<text>   current schedselect (required)
  -target=<text>        reduced target select string (required)
  -failed-moms=<list>   comma-separated mom hosts that failed
  -succeeded-moms=<list> comma-separated mom hosts known to have succeeded
                        (if empty, every non-failed mom is assumed available)
`)
}

func (c *ReleaseSelectCommand) Synopsis() string { return "Release a job against a reduced target select" }

func (c *ReleaseSelectCommand) Run(args []string) int {
	fs := c.FlagSet("release-select")
	var configPath, vnodefilePath, execVnode, execHost, execHost2, schedselect, target, failedMoms, succeededMoms string
	fs.StringVar(&configPath, "config", "", "")
	fs.StringVar(&vnodefilePath, "vnodefile", "", "")
	fs.StringVar(&execVnode, "exec-vnode", "", "")
	fs.StringVar(&execHost, "exec-host", "", "")
	fs.StringVar(&execHost2, "exec-host2", "", "")
	fs.StringVar(&schedselect, "schedselect", "", "")
	fs.StringVar(&target, "target", "", "")
	fs.StringVar(&failedMoms, "failed-moms", "", "")
	fs.StringVar(&succeededMoms, "succeeded-moms", "", "")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if configPath == "" || vnodefilePath == "" || execVnode == "" || target == "" {
		c.Ui.Error("release-select: -config, -vnodefile, -exec-vnode, and -target are required")
		return 1
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	f, err := vnodefile.ParseFile(vnodefilePath, vnodefile.Options{AllowDot: true})
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	lookup := fileNodeLookup(f)

	logger := c.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	a := release.Assignment{
		ExecVnode:   execVnode,
		ExecHost:    execHost,
		ExecHost2:   execHost2,
		Schedselect: schedselect,
	}
	res, rerr := release.ReleaseBySelect(a, target, stringSet(failedMoms), stringSetOrNil(succeededMoms), lookup.momOf, cfg.DefOf, logger)
	if rerr != nil {
		c.Ui.Error(rerr.Error())
		return 1
	}

	c.Ui.Output(fmt.Sprintf("exec_vnode  = %s", res.ExecVnode))
	c.Ui.Output(fmt.Sprintf("exec_host   = %s", res.ExecHost))
	c.Ui.Output(fmt.Sprintf("exec_host2  = %s", res.ExecHost2))
	c.Ui.Output(fmt.Sprintf("schedselect = %s", res.Schedselect))
	return 0
}

// stringSet splits a comma-separated list into a membership set,
// returning an empty (non-nil) set for an empty string.
func stringSet(s string) map[string]bool {
	set := make(map[string]bool)
	if s == "" {
		return set
	}
	for _, v := range strings.Split(s, ",") {
		set[v] = true
	}
	return set
}

// stringSetOrNil is stringSet but returns nil for an empty string, so
// callers can distinguish "no succeeded-moms given" from "given but empty".
func stringSetOrNil(s string) map[string]bool {
	if s == "" {
		return nil
	}
	return stringSet(s)
}
