// Package exec runs scheduler commands and records failed invocations.
package exec

import (
	"errors"
	"fmt"
	"os"
	osexec "os/exec"
	"path/filepath"

	"github.com/Justype/qadapter/internal/utils"
)

// Executor runs one command.
//
// A command that exits non-zero is not an error: its output is written to
// the error file and Execute returns a nil Output. Errors are reserved for
// commands that could not be started and for failures writing the error file.
type Executor interface {
	Execute(opts Options) (*Output, error)
}

// Func adapts a plain function to the Executor interface.
type Func func(opts Options) (*Output, error)

// Execute calls f.
func (f Func) Execute(opts Options) (*Output, error) { return f(opts) }

// ExecError reports a command that could not be run at all.
type ExecError struct {
	Cmd string // Command line
	Err error  // Underlying error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("failed to run %q: %v", e.Cmd, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// Local runs commands on this host.
type Local struct {
	// Shell used for Line and Shell=true commands.
	Shell string
}

// NewLocal returns an executor using /bin/sh.
func NewLocal() *Local {
	return &Local{Shell: "/bin/sh"}
}

// Execute runs the command and captures stdout and stderr together.
func (l *Local) Execute(opts Options) (*Output, error) {
	opts = opts.ensureDefaults()

	var cmd *osexec.Cmd
	if opts.Line != "" {
		shell := l.Shell
		if shell == "" {
			shell = "/bin/sh"
		}
		cmd = osexec.Command(shell, "-c", opts.Line)
	} else {
		if len(opts.Args) == 0 {
			return nil, &ExecError{Cmd: "", Err: errors.New("empty command")}
		}
		cmd = osexec.Command(opts.Args[0], opts.Args[1:]...)
	}
	cmd.Dir = opts.WorkingDir

	utils.PrintDebug("Executing: %s", utils.StyleCommand(opts.String()))
	out, err := cmd.CombinedOutput()
	if err == nil {
		return &Output{Text: string(out)}, nil
	}

	var exitErr *osexec.ExitError
	if !errors.As(err, &exitErr) {
		return nil, &ExecError{Cmd: opts.String(), Err: err}
	}

	errPath, werr := WriteErrorFile(opts.WorkingDir, opts.ErrorFile, string(out))
	if werr != nil {
		return nil, werr
	}
	utils.PrintWarning("Command %s exited with code %s, output saved to %s",
		utils.StyleCommand(opts.String()), utils.StyleNumber(exitErr.ExitCode()), utils.StylePath(errPath))
	return nil, nil
}

// WriteErrorFile stores the output of a failed command as <dir>/<name>.
func WriteErrorFile(dir, name, output string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if name == "" {
		name = DefaultErrorFile
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(output+"\n"), utils.PermFile); err != nil {
		return "", fmt.Errorf("failed to write error file %s: %w", path, err)
	}
	return path, nil
}
