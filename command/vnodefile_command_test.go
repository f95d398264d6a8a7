package command

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/cli"
	"github.com/shoenig/test/must"
)

func TestVnodefileCommand_Implements(t *testing.T) {
	var _ cli.Command = &VnodefileCommand{}
}

func TestVnodefileCommand_RequiresExactlyOnePath(t *testing.T) {
	ui := cli.NewMockUi()
	cmd := &VnodefileCommand{Meta: Meta{Ui: ui}}

	code := cmd.Run(nil)
	must.Eq(t, 1, code)
	must.StrContains(t, ui.ErrorWriter.String(), "exactly one")
}

func TestVnodefileCommand_ListsAttributes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vnodes")
	must.Nil(t, os.WriteFile(path, []byte("n1: ncpus = 4\nn1: mem = 8gb type = size\n"), 0o644))

	ui := cli.NewMockUi()
	cmd := &VnodefileCommand{Meta: Meta{Ui: ui}}

	code := cmd.Run([]string{path})
	must.Eq(t, 0, code)
	out := ui.OutputWriter.String()
	must.StrContains(t, out, "n1")
	must.StrContains(t, out, "ncpus")
	must.StrContains(t, out, "1 vnode(s)")
}

func TestVnodefileCommand_ParseErrorReported(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vnodes")
	must.Nil(t, os.WriteFile(path, []byte("not a valid line\n"), 0o644))

	ui := cli.NewMockUi()
	cmd := &VnodefileCommand{Meta: Meta{Ui: ui}}

	code := cmd.Run([]string{path})
	must.Eq(t, 1, code)
	must.StrContains(t, ui.ErrorWriter.String(), "line")
}
