package command

import (
	"fmt"
	"strings"

	"github.com/vnsched/vnsched/config"
	"github.com/vnsched/vnsched/release"
	"github.com/vnsched/vnsched/vnodefile"
)

// ReleaseVnodelistCommand releases a job's super-chunks that lie on a
// named set of vnodes, rebuilding exec_vnode/exec_host/exec_host2/
// schedselect for what remains.
type ReleaseVnodelistCommand struct {
	Meta
}

func (c *ReleaseVnodelistCommand) Help() string {
	return strings.TrimSpace(`
Usage: vnsched release-vnodelist [options]

  Releases the super-chunks of a running job/reservation that lie on
  the vnodes named by -release, rebuilding its assignment strings.

Options:

  -config=<path>        HCL scheduler configuration file (required)
  -vnodefile=<path>     vnode-definition file, for parent-mom lookups (required)
  -exec-vnode=<text>    current exec_vnode (required)
  -exec-host=<text>     current exec_host (required)
  -exec-host2=<text>    current exec_host2 (required)
  -schedselect=<text>   current schedselect (required)
  -deallocated=<text>   current deallocated_execvnode
  -release=<list>       comma-separated vnode names to release (required)
`)
}

func (c *ReleaseVnodelistCommand) Synopsis() string { return "Release a job from a named vnode list" }

func (c *ReleaseVnodelistCommand) Run(args []string) int {
	fs := c.FlagSet("release-vnodelist")
	var configPath, vnodefilePath, execVnode, execHost, execHost2, schedselect, deallocated, releaseList string
	fs.StringVar(&configPath, "config", "", "")
	fs.StringVar(&vnodefilePath, "vnodefile", "", "")
	fs.StringVar(&execVnode, "exec-vnode", "", "")
	fs.StringVar(&execHost, "exec-host", "", "")
	fs.StringVar(&execHost2, "exec-host2", "", "")
	fs.StringVar(&schedselect, "schedselect", "", "")
	fs.StringVar(&deallocated, "deallocated", "", "")
	fs.StringVar(&releaseList, "release", "", "")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if configPath == "" || vnodefilePath == "" || execVnode == "" || releaseList == "" {
		c.Ui.Error("release-vnodelist: -config, -vnodefile, -exec-vnode, and -release are required")
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

	a := release.Assignment{
		ExecVnode:   execVnode,
		ExecHost:    execHost,
		ExecHost2:   execHost2,
		Schedselect: schedselect,
	}
	res, rerr := release.ReleaseByVnodeList(a, strings.Split(releaseList, ","), deallocated, lookup, cfg.DefOf)
	if rerr != nil {
		c.Ui.Error(rerr.Error())
		return 1
	}

	c.Ui.Output(fmt.Sprintf("exec_vnode            = %s", res.ExecVnode))
	c.Ui.Output(fmt.Sprintf("exec_host             = %s", res.ExecHost))
	c.Ui.Output(fmt.Sprintf("exec_host2            = %s", res.ExecHost2))
	c.Ui.Output(fmt.Sprintf("schedselect           = %s", res.Schedselect))
	c.Ui.Output(fmt.Sprintf("deallocated_execvnode = %s", res.Deallocated))
	return 0
}
