// Command vnsched is a standalone command-line front end for the
// chunk-placement and node-release engine: no server process, no
// persistent daemon, just one evaluation per invocation against a
// vnode-definition file and an HCL configuration file.
package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/cli"
	"github.com/hashicorp/go-hclog"

	"github.com/vnsched/vnsched/command"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ui := &cli.BasicUi{
		Reader:      os.Stdin,
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}
	level := hclog.Info
	if s := os.Getenv("VNSCHED_LOG_LEVEL"); s != "" {
		level = hclog.LevelFromString(s)
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "vnsched",
		Level:  level,
		Output: os.Stderr,
	})
	meta := command.Meta{Ui: ui, Logger: logger}

	c := cli.NewCLI("vnsched", version)
	c.Args = args
	c.Commands = map[string]cli.CommandFactory{
		"eval": func() (cli.Command, error) {
			return &command.EvalCommand{Meta: meta}, nil
		},
		"release-vnodelist": func() (cli.Command, error) {
			return &command.ReleaseVnodelistCommand{Meta: meta}, nil
		},
		"release-select": func() (cli.Command, error) {
			return &command.ReleaseSelectCommand{Meta: meta}, nil
		},
		"fingerprint": func() (cli.Command, error) {
			return &command.FingerprintCommand{Meta: meta}, nil
		},
		"vnodefile": func() (cli.Command, error) {
			return &command.VnodefileCommand{Meta: meta}, nil
		},
	}

	exitStatus, err := c.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return exitStatus
}

// version is overridden at build time via -ldflags.
var version = "dev"
