package adapter

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Justype/qadapter/internal/config"
	execpkg "github.com/Justype/qadapter/internal/exec"
	"github.com/Justype/qadapter/internal/normalize"
	"github.com/Justype/qadapter/internal/scheduler"
	"github.com/Justype/qadapter/internal/script"
	"github.com/Justype/qadapter/internal/utils"
)

// Core drives a scheduler with its built-in submission template and no
// queue configuration.
type Core struct {
	commands scheduler.Commands
	template *script.Template
	executor execpkg.Executor
}

// NewCore creates an adapter for queue type t. A nil executor runs commands locally.
func NewCore(t scheduler.Type, executor execpkg.Executor) (*Core, error) {
	commands, err := scheduler.ForType(t)
	if err != nil {
		return nil, err
	}
	tmpl, err := script.Parse(strings.ToLower(string(t))+" (built-in)", commands.DefaultTemplate())
	if err != nil {
		return nil, err
	}
	return newCore(commands, tmpl, executor), nil
}

func newCore(commands scheduler.Commands, tmpl *script.Template, executor execpkg.Executor) *Core {
	if executor == nil {
		executor = execpkg.NewLocal()
	}
	return &Core{commands: commands, template: tmpl, executor: executor}
}

// Commands returns the scheduler command table.
func (c *Core) Commands() scheduler.Commands { return c.commands }

func (c *Core) Config() *config.QueueConfig  { return nil }
func (c *Core) QueueList() []string          { return nil }
func (c *Core) QueueView() []config.QueueRow { return nil }
func (c *Core) RemoteFlag() bool             { return false }

// DeleteFileOnRemote is true for local adapters, the ssh_delete_file_on_remote default.
func (c *Core) DeleteFileOnRemote() bool { return true }

// SubmitJob renders the built-in template and submits it. Unset cores request one core.
func (c *Core) SubmitJob(req SubmitRequest) (int64, bool, error) {
	if req.Queue != "" {
		return 0, false, &QueueNotFoundError{Queue: req.Queue}
	}
	if err := normalize.RequireCommand(req.Command); err != nil {
		return 0, false, err
	}
	cores := req.Cores
	if !cores.IsSet() {
		cores = normalize.Int(1)
	}
	params := script.Params{
		JobName:          req.JobName,
		WorkingDirectory: req.WorkingDirectory,
		Cores:            cores,
		MemoryMax:        req.MemoryMax,
		RunTimeMax:       req.RunTimeMax,
		DependencyList:   req.DependencyList,
		Command:          req.Command,
		Extra:            req.Extra,
	}
	return c.submit("", c.template, params)
}

func (c *Core) EnableReservation(id int64) (string, bool, error) {
	args, err := c.commands.ReservationCommand()
	if err != nil {
		return "", false, err
	}
	return c.runWithID("", args, id)
}

func (c *Core) DeleteJob(id int64) (string, bool, error) {
	return c.runWithID("", c.commands.DeleteCommand(), id)
}

// GetQueueStatus lists the queue, restricted to one user unless user is empty.
func (c *Core) GetQueueStatus(user string) (*scheduler.StatusTable, error) {
	table, err := c.status("")
	if err != nil || table == nil {
		return table, err
	}
	return table.ForUser(user), nil
}

func (c *Core) GetStatusOfMyJobs() (*scheduler.StatusTable, error) {
	return c.GetQueueStatus(currentUser())
}

// GetStatusOfJob returns false when the job is not in the queue.
func (c *Core) GetStatusOfJob(id int64) (string, bool, error) {
	table, err := c.GetQueueStatus("")
	if err != nil {
		return "", false, err
	}
	status, ok := jobStatus(table, id)
	return status, ok, nil
}

// GetStatusOfJobs reports jobs missing from the queue as finished.
func (c *Core) GetStatusOfJobs(ids []int64) ([]string, error) {
	table, err := c.GetQueueStatus("")
	if err != nil {
		return nil, err
	}
	return jobStatuses(table, ids), nil
}

// CheckQueueParameters returns the values unchanged; there are no limits without a configuration.
func (c *Core) CheckQueueParameters(queue string, cores, runTime, memory normalize.Quantity) (normalize.Quantity, normalize.Quantity, normalize.Quantity, error) {
	return cores, runTime, memory, nil
}

func (c *Core) ConvertPathToRemote(path string) (string, error) {
	return "", fmt.Errorf("%w: convert path to remote", ErrNotImplemented)
}

func (c *Core) TransferFile(file string, back, deleteOnRemote bool) (*TransferReport, error) {
	return nil, fmt.Errorf("%w: transfer file", ErrNotImplemented)
}

func (c *Core) GetJobFromRemote(workingDirectory string) (*TransferReport, error) {
	return nil, fmt.Errorf("%w: get job from remote", ErrNotImplemented)
}

func (c *Core) Close() error { return nil }

// --- Command helpers shared with the adapters built on Core ---

// options builds the executor call. A non-empty prefix (a shell statement
// such as a module swap) turns the call into a shell line.
func (c *Core) options(prefix string, args []string, dir string) execpkg.Options {
	if prefix == "" {
		return execpkg.Options{Args: args, WorkingDir: dir}
	}
	return execpkg.Options{Line: prefix + " " + shellJoin(args), WorkingDir: dir}
}

// submit writes the rendered script into the working directory and hands it
// to the submit command there.
func (c *Core) submit(prefix string, tmpl *script.Template, p script.Params) (int64, bool, error) {
	dir := p.WorkingDirectory
	if dir == "" {
		dir = "."
	}
	if err := checkWorkdir(dir); err != nil {
		return 0, false, err
	}
	deps, err := c.commands.Dependencies(p.DependencyList)
	if err != nil {
		return 0, false, err
	}

	content, err := script.Render(tmpl, p)
	if err != nil {
		return 0, false, err
	}
	path, err := script.WriteScript(dir, content)
	if err != nil {
		return 0, false, fmt.Errorf("failed to write submission script: %w", err)
	}
	if path, err = filepath.Abs(path); err != nil {
		return 0, false, err
	}

	args := append(append(c.commands.SubmitCommand(), deps...), path)
	out, err := c.executor.Execute(c.options(prefix, args, dir))
	if err != nil || out == nil {
		return 0, false, err
	}
	id, err := c.commands.JobIDFromOutput(out.Text)
	if err != nil {
		return 0, false, err
	}
	utils.PrintDebug("Submitted job %s from %s", utils.StyleNumber(id), utils.StylePath(dir))
	return id, true, nil
}

// runWithID appends the job id to args and returns the first output line.
func (c *Core) runWithID(prefix string, args []string, id int64) (string, bool, error) {
	args = append(append([]string{}, args...), strconv.FormatInt(id, 10))
	out, err := c.executor.Execute(c.options(prefix, args, ""))
	if err != nil || out == nil {
		return "", false, err
	}
	return out.FirstLine(), true, nil
}

// status runs the status command. A failed command yields a nil table.
func (c *Core) status(prefix string) (*scheduler.StatusTable, error) {
	out, err := c.executor.Execute(c.options(prefix, c.commands.StatusCommand(), ""))
	if err != nil || out == nil {
		return nil, err
	}
	return c.commands.ParseStatus(out.Text)
}

// currentUser is the login name used to filter "my" jobs.
func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return os.Getenv("LOGNAME")
}
