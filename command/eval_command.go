package command

import (
	"fmt"
	"strings"

	"github.com/vnsched/vnsched/config"
	"github.com/vnsched/vnsched/match"
	"github.com/vnsched/vnsched/pset"
	"github.com/vnsched/vnsched/release"
	"github.com/vnsched/vnsched/selspec"
	"github.com/vnsched/vnsched/vnodefile"
)

// EvalCommand matches one select/place request against a vnode-
// definition file and prints the resulting exec_vnode and schedselect
// strings, or the failure reason. No exec_host string is printed.
type EvalCommand struct {
	Meta
}

func (c *EvalCommand) Help() string {
	return strings.TrimSpace(`
Usage: vnsched eval [options]

  Matches a select/place request against a vnode-definition file and
  prints the resulting exec_vnode and schedselect strings.

Options:

  -vnodefile=<path>   vnode-definition file to match against (required)
  -config=<path>      HCL scheduler configuration file (required)
  -select=<text>       select string, e.g. "2:ncpus=4:mem=8gb" (required)
  -place=<text>       place string, e.g. "pack:excl" (default "free")
  -queue=<name>       queue name, for default-resource merging
  -allow-span         allow spanning the whole pool when no placement
                      set fits (default false)
`)
}

func (c *EvalCommand) Synopsis() string { return "Match a select/place request against a vnode pool" }

func (c *EvalCommand) Run(args []string) int {
	fs := c.FlagSet("eval")
	var vnodefilePath, configPath, selectText, placeText, queue string
	var allowSpan bool
	fs.StringVar(&vnodefilePath, "vnodefile", "", "")
	fs.StringVar(&configPath, "config", "", "")
	fs.StringVar(&selectText, "select", "", "")
	fs.StringVar(&placeText, "place", "free", "")
	fs.StringVar(&queue, "queue", "", "")
	fs.BoolVar(&allowSpan, "allow-span", false, "")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if vnodefilePath == "" || configPath == "" || selectText == "" {
		c.Ui.Error("eval: -vnodefile, -config, and -select are required")
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

	pool, err := buildPool(f, cfg)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}

	defaults := cfg.QueueDefaults(queue)
	canonical, err := release.DoSchedselect(selectText, cfg.DefOf, defaults, cfg.IsRouteQueue(queue))
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}

	sp, err := selspec.Parse(canonical, cfg.DefOf)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}
	place, err := selspec.ParsePlace(placeText)
	if err != nil {
		c.Ui.Error(err.Error())
		return 1
	}

	ev := match.NewEvaluator(pool, pset.NewCache(), allowSpan)
	nspecs, serr := ev.Evaluate(sp, place, &match.Request{})
	if serr != nil {
		c.Ui.Error(fmt.Sprintf("no match: %s", serr.Error()))
		return 1
	}

	execVnode := renderExecVnode(nspecs)
	c.Ui.Output(fmt.Sprintf("exec_vnode   = %s", execVnode))
	c.Ui.Output(fmt.Sprintf("schedselect  = %s", canonical))
	return 0
}
