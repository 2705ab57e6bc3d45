package exec

import (
	"strings"

	"github.com/Justype/qadapter/internal/config"
)

// DefaultErrorFile receives the output of a failed command inside its working directory.
const DefaultErrorFile = "qadapter.err"

// Options describes one command invocation.
//
// Args runs directly unless Shell is set, in which case the arguments are
// joined with spaces and handed to /bin/sh. Line is always run by the shell.
type Options struct {
	Args       []string
	Line       string
	WorkingDir string
	Shell      bool
	ErrorFile  string
}

func (o Options) ensureDefaults() Options {
	if o.ErrorFile == "" {
		if config.Global.ErrorFile != "" {
			o.ErrorFile = config.Global.ErrorFile
		} else {
			o.ErrorFile = DefaultErrorFile
		}
	}
	if o.Line == "" && o.Shell && len(o.Args) > 0 {
		o.Line = strings.Join(o.Args, " ")
	}
	return o
}

// String renders the command the way it would be typed in a shell.
func (o Options) String() string {
	if o.Line != "" {
		return o.Line
	}
	return strings.Join(o.Args, " ")
}

// Output is the captured stdout (with stderr merged) of a successful command.
type Output struct {
	Text string
}

// Lines splits the output on "\n"; a trailing newline yields a final "".
func (o *Output) Lines() []string {
	return strings.Split(o.Text, "\n")
}

// FirstLine returns the first line of the output.
func (o *Output) FirstLine() string {
	return o.Lines()[0]
}
