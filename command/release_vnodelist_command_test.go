package command

import (
	"testing"

	"github.com/hashicorp/cli"
	"github.com/shoenig/test/must"
)

func TestReleaseVnodelistCommand_Implements(t *testing.T) {
	var _ cli.Command = &ReleaseVnodelistCommand{}
}

func TestReleaseVnodelistCommand_DropsReleasedSuperChunk(t *testing.T) {
	vnodePath := writeFile(t, "v1: host = n1.example.com\nv2: host = n2.example.com\n")
	configPath := writeFile(t, "")

	ui := cli.NewMockUi()
	cmd := &ReleaseVnodelistCommand{Meta: Meta{Ui: ui}}

	code := cmd.Run([]string{
		"-config=" + configPath,
		"-vnodefile=" + vnodePath,
		"-exec-vnode=(v1:ncpus=2)+(v2:ncpus=2)",
		"-exec-host=(n1/0)+(n2/0)",
		"-exec-host2=(n1.example.com/0)+(n2.example.com/0)",
		"-schedselect=1:ncpus=2+1:ncpus=2",
		"-release=v2",
	})
	must.Eq(t, 0, code)
	out := ui.OutputWriter.String()
	must.StrContains(t, out, "v1")
	must.StrContains(t, out, "exec_vnode")
}

func TestReleaseVnodelistCommand_RequiresFlags(t *testing.T) {
	ui := cli.NewMockUi()
	cmd := &ReleaseVnodelistCommand{Meta: Meta{Ui: ui}}

	code := cmd.Run(nil)
	must.Eq(t, 1, code)
	must.StrContains(t, ui.ErrorWriter.String(), "required")
}
