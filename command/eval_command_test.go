package command

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/cli"
	"github.com/shoenig/test/must"
)

func TestEvalCommand_Implements(t *testing.T) {
	var _ cli.Command = &EvalCommand{}
}

func writeFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	// config.Load picks its syntax from the file suffix, so the fixture
	// carries ".hcl"; the vnode-definition parser ignores the name.
	path := filepath.Join(dir, "f.hcl")
	must.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestEvalCommand_MatchesAndPrintsExecVnode(t *testing.T) {
	vnodePath := writeFile(t, "n1: ncpus = 4\nn1: mem = 8gb type = size\n")
	configPath := writeFile(t, "")

	ui := cli.NewMockUi()
	cmd := &EvalCommand{Meta: Meta{Ui: ui}}

	code := cmd.Run([]string{
		"-vnodefile=" + vnodePath,
		"-config=" + configPath,
		"-select=1:ncpus=2",
		"-place=free",
	})
	must.Eq(t, 0, code)
	must.StrContains(t, ui.OutputWriter.String(), "exec_vnode")
	must.StrContains(t, ui.OutputWriter.String(), "n1")
}

func TestEvalCommand_NoMatchReportsError(t *testing.T) {
	vnodePath := writeFile(t, "n1: ncpus = 1\n")
	configPath := writeFile(t, "")

	ui := cli.NewMockUi()
	cmd := &EvalCommand{Meta: Meta{Ui: ui}}

	code := cmd.Run([]string{
		"-vnodefile=" + vnodePath,
		"-config=" + configPath,
		"-select=1:ncpus=99",
	})
	must.Eq(t, 1, code)
	must.StrContains(t, ui.ErrorWriter.String(), "no match")
}

func TestEvalCommand_RequiresFlags(t *testing.T) {
	ui := cli.NewMockUi()
	cmd := &EvalCommand{Meta: Meta{Ui: ui}}

	code := cmd.Run(nil)
	must.Eq(t, 1, code)
	must.StrContains(t, ui.ErrorWriter.String(), "required")
}
