// Package command implements the vnsched CLI: one Command per
// operation (eval, release-vnodelist, release-select, fingerprint,
// vnodefile), each sharing a single Meta struct for its UI and common
// flags.
package command

import (
	"flag"

	"github.com/hashicorp/cli"
	"github.com/hashicorp/go-hclog"
)

// Meta holds state shared by every subcommand: its UI, logger, and the
// common "-no-color"/"-force-color" flags.
type Meta struct {
	Ui     cli.Ui
	Logger hclog.Logger

	flagNoColor    bool
	flagForceColor bool
}

// FlagSet returns a flag.FlagSet pre-populated with the common flags
// every subcommand accepts, named for error messages as name.
func (m *Meta) FlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.BoolVar(&m.flagNoColor, "no-color", false, "disable colored output")
	fs.BoolVar(&m.flagForceColor, "force-color", false, "force colored output")
	return fs
}

// Colorize reports whether this invocation's output should be
// colorized, "-no-color" taking precedence over "-force-color".
func (m *Meta) Colorize() bool {
	if m.flagNoColor {
		return false
	}
	return m.flagForceColor
}
