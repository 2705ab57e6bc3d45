package adapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Justype/qadapter/internal/config"
	execpkg "github.com/Justype/qadapter/internal/exec"
	"github.com/Justype/qadapter/internal/normalize"
	"github.com/Justype/qadapter/internal/scheduler"
	"github.com/Justype/qadapter/internal/utils"
)

// Transport is a connection to the remote host.
type Transport interface {
	// Run executes a shell command. A non-zero exit is reported as *RemoteExitError
	// together with the captured output.
	Run(command string) (stdout, stderr string, err error)
	Upload(local, remote string) error
	Download(remote, local string) error
	// Stat reports whether a remote path exists.
	Stat(remote string) (bool, error)
	Close() error
}

// TransportFactory opens a Transport for an ssh_* configuration.
type TransportFactory func(cfg config.SSHConfig) (Transport, error)

// RemoteExitError reports a remote command that exited non-zero.
type RemoteExitError struct {
	Command string
	Status  int
}

func (e *RemoteExitError) Error() string {
	return fmt.Sprintf("remote command %q exited with status %d", e.Command, e.Status)
}

// Remote relays every operation to this program on another host, over SSH.
// Working directories are mirrored below ssh_remote_path.
type Remote struct {
	*Basic
	ssh           config.SSHConfig
	localPath     string
	remoteCommand string
	dial          TransportFactory
	conn          Transport // Kept open with ssh_continous_connection
}

// NewRemote creates the adapter. A nil dial uses DialSSH.
func NewRemote(cfg *config.QueueConfig, dial TransportFactory) (*Remote, error) {
	basic, err := NewBasic(cfg, execpkg.NewLocal())
	if err != nil {
		return nil, err
	}
	if dial == nil {
		dial = DialSSH
	}
	local, err := utils.AbsPath(cfg.SSH.LocalPath)
	if err != nil {
		return nil, err
	}
	remoteCommand := cfg.SSH.RemoteCommand
	if remoteCommand == "" {
		remoteCommand = config.Global.RemoteCommand
	}
	if remoteCommand == "" {
		remoteCommand = "qadapter"
	}
	return &Remote{
		Basic:         basic,
		ssh:           cfg.SSH,
		localPath:     local,
		remoteCommand: remoteCommand,
		dial:          dial,
	}, nil
}

func (r *Remote) RemoteFlag() bool         { return true }
func (r *Remote) DeleteFileOnRemote() bool { return r.ssh.DeleteFileOnRemote }

// --- Relay commands ---

func (r *Remote) relay(args ...string) string {
	return r.remoteCommand + " --config_directory " + shellQuote(r.ssh.RemoteConfigDir) + " " + shellJoin(args)
}

func (r *Remote) submitCommand(queue, jobName, workdir string, cores, memory, runTime normalize.Quantity, command string) string {
	args := []string{"--submit"}
	if queue != "" {
		args = append(args, "--queue", queue)
	}
	if jobName != "" {
		args = append(args, "--job_name", jobName)
	}
	if workdir != "" {
		args = append(args, "--working_directory", workdir)
	}
	if cores.IsSet() {
		args = append(args, "--cores", cores.String())
	}
	if memory.IsSet() {
		args = append(args, "--memory", memory.String())
	}
	if runTime.IsSet() {
		args = append(args, "--run_time", runTime.String())
	}
	args = append(args, "--command", command)
	return r.relay(args...)
}

func (r *Remote) statusCommand() string { return r.relay("--status") }

func (r *Remote) deleteCommand(id int64) string {
	return r.relay("--delete", "--id", strconv.FormatInt(id, 10))
}

func (r *Remote) reservationCommand(id int64) string {
	return r.relay("--reservation", "--id", strconv.FormatInt(id, 10))
}

// --- Adapter operations ---

// SubmitJob uploads the working directory and submits it on the remote host.
func (r *Remote) SubmitJob(req SubmitRequest) (int64, bool, error) {
	if len(req.DependencyList) > 0 {
		return 0, false, fmt.Errorf("%w: submitting jobs with dependencies to a remote cluster", ErrNotImplemented)
	}
	if err := normalize.RequireCommand(req.Command); err != nil {
		return 0, false, err
	}
	q, err := r.queue(req.Queue)
	if err != nil {
		return 0, false, err
	}
	workdir := req.WorkingDirectory
	if workdir == "" {
		workdir = "."
	}
	if err := checkWorkdir(workdir); err != nil {
		return 0, false, err
	}

	report, remoteDir, err := r.transferDataToRemote(workdir)
	if err != nil {
		return 0, false, err
	}
	if err := report.Err(); err != nil {
		return 0, false, fmt.Errorf("upload of %s incomplete: %w", workdir, err)
	}

	out, ok, err := r.run(r.submitCommand(q.Name, req.JobName, remoteDir, req.Cores, req.MemoryMax, req.RunTimeMax, req.Command))
	if err != nil || !ok {
		return 0, false, err
	}
	fields := strings.Fields(out)
	if len(fields) == 0 || fields[len(fields)-1] == "None" {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(fields[len(fields)-1], 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w (%s): %q", scheduler.ErrJobIDParseFailed, scheduler.TypeRemote, out)
	}
	return id, true, nil
}

func (r *Remote) EnableReservation(id int64) (string, bool, error) {
	return r.firstLine(r.reservationCommand(id))
}

func (r *Remote) DeleteJob(id int64) (string, bool, error) {
	return r.firstLine(r.deleteCommand(id))
}

func (r *Remote) firstLine(command string) (string, bool, error) {
	out, ok, err := r.run(command)
	if err != nil || !ok {
		return "", false, err
	}
	line := strings.TrimSpace(strings.SplitN(strings.TrimSpace(out), "\n", 2)[0])
	if line == "None" {
		return "", false, nil
	}
	return line, true, nil
}

// GetQueueStatus reads the JSON table printed by the remote --status.
func (r *Remote) GetQueueStatus(user string) (*scheduler.StatusTable, error) {
	out, ok, err := r.run(r.statusCommand())
	if err != nil || !ok {
		return nil, err
	}
	if strings.TrimSpace(out) == "null" {
		return nil, nil
	}
	table := new(scheduler.StatusTable)
	if err := json.Unmarshal([]byte(out), table); err != nil {
		return nil, err
	}
	return table.ForUser(user), nil
}

// GetStatusOfMyJobs filters on ssh_username.
func (r *Remote) GetStatusOfMyJobs() (*scheduler.StatusTable, error) {
	return r.GetQueueStatus(r.ssh.Username)
}

func (r *Remote) GetStatusOfJob(id int64) (string, bool, error) {
	table, err := r.GetQueueStatus("")
	if err != nil {
		return "", false, err
	}
	status, ok := jobStatus(table, id)
	return status, ok, nil
}

func (r *Remote) GetStatusOfJobs(ids []int64) ([]string, error) {
	table, err := r.GetQueueStatus("")
	if err != nil {
		return nil, err
	}
	return jobStatuses(table, ids), nil
}

// ConvertPathToRemote maps a local path below ssh_local_path to the same
// relative path below ssh_remote_path.
func (r *Remote) ConvertPathToRemote(p string) (string, error) {
	abs, err := utils.AbsPath(p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(r.localPath, abs)
	if err != nil {
		return "", fmt.Errorf("cannot map %s to the remote host: %w", abs, err)
	}
	return path.Join(r.ssh.RemotePath, filepath.ToSlash(rel)), nil
}

// TransferFile copies one file to the remote host, or back with back set.
// The remote copy is removed only when back, deleteOnRemote and
// ssh_delete_file_on_remote are all true.
func (r *Remote) TransferFile(file string, back, deleteOnRemote bool) (*TransferReport, error) {
	local, err := utils.AbsPath(file)
	if err != nil {
		return nil, err
	}
	remote, err := r.ConvertPathToRemote(local)
	if err != nil {
		return nil, err
	}
	if _, _, err := r.run("mkdir -p " + shellQuote(path.Dir(remote))); err != nil {
		return nil, err
	}

	report := &TransferReport{Back: back}
	err = r.withTransport(func(t Transport) error {
		if back {
			download(t, report, remote, local)
		} else {
			report.add(local, remote, t.Upload(local, remote))
		}
		return nil
	})
	if err != nil {
		return report, err
	}

	if r.ssh.DeleteFileOnRemote && back && deleteOnRemote {
		if _, _, err := r.run("rm " + shellQuote(remote)); err != nil {
			return report, err
		}
	}
	return report, report.Err()
}

// GetJobFromRemote copies the remote mirror of workingDirectory back. The
// remote directory is removed afterwards when ssh_delete_file_on_remote is
// set and every file arrived.
func (r *Remote) GetJobFromRemote(workingDirectory string) (*TransferReport, error) {
	local, err := utils.AbsPath(workingDirectory)
	if err != nil {
		return nil, err
	}
	remote, err := r.ConvertPathToRemote(local)
	if err != nil {
		return nil, err
	}

	out, ok, err := r.run(r.relay("--list", "--working_directory", remote))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("failed to list %s on %s", remote, r.ssh.Host)
	}
	var tree utils.Tree
	if err := json.Unmarshal([]byte(out), &tree); err != nil {
		return nil, fmt.Errorf("invalid listing of %s: %w", remote, err)
	}

	for _, d := range tree.Dirs {
		dir, err := rebase(d, remote, local)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(dir, utils.PermDir); err != nil {
			return nil, err
		}
	}

	report := &TransferReport{Back: true}
	err = r.withTransport(func(t Transport) error {
		for _, f := range tree.Files {
			target, err := rebase(f, remote, local)
			if err != nil {
				report.add(f, f, err)
				continue
			}
			download(t, report, f, target)
		}
		return nil
	})
	if err != nil {
		return report, err
	}
	utils.PrintDebug("Fetched %s files from %s (%s skipped)",
		utils.StyleNumber(report.Count(Transferred)), utils.StylePath(remote), utils.StyleNumber(report.Count(Skipped)))

	if err := report.Err(); err != nil {
		utils.PrintWarning("Keeping %s on the remote host, %d files failed", utils.StylePath(remote), report.Count(Failed))
		return report, err
	}
	if r.ssh.DeleteFileOnRemote {
		if _, _, err := r.run("rm -r " + shellQuote(remote)); err != nil {
			return report, err
		}
	}
	return report, nil
}

// Close drops a continuous connection.
func (r *Remote) Close() error {
	if r.conn == nil {
		return nil
	}
	err := r.conn.Close()
	r.conn = nil
	return err
}

// --- Transfers ---

// transferDataToRemote mirrors a local directory tree: one mkdir -p for all
// directories, then one upload per file.
func (r *Remote) transferDataToRemote(workdir string) (*TransferReport, string, error) {
	local, err := utils.AbsPath(workdir)
	if err != nil {
		return nil, "", err
	}
	remote, err := r.ConvertPathToRemote(local)
	if err != nil {
		return nil, "", err
	}
	tree, err := utils.WalkTree(local)
	if err != nil {
		return nil, "", err
	}

	dirs := make([]string, 0, len(tree.Dirs))
	for _, d := range tree.Dirs {
		rd, err := rebase(d, local, remote)
		if err != nil {
			return nil, "", err
		}
		dirs = append(dirs, rd)
	}
	if _, _, err := r.run("mkdir -p " + shellJoin(dirs)); err != nil {
		return nil, "", err
	}

	report := &TransferReport{}
	err = r.withTransport(func(t Transport) error {
		for _, f := range tree.Files {
			target, err := rebase(f, local, remote)
			if err != nil {
				report.add(f, "", err)
				continue
			}
			report.add(f, target, t.Upload(f, target))
		}
		return nil
	})
	return report, remote, err
}

// download skips files that do not exist remotely so that no empty local
// copy is created.
func download(t Transport, report *TransferReport, remote, local string) {
	exists, err := t.Stat(remote)
	switch {
	case err != nil:
		report.add(local, remote, err)
	case !exists:
		report.skip(local, remote)
	default:
		report.add(local, remote, t.Download(remote, local))
	}
}

// rebase moves p from below the from directory to below the to directory.
func rebase(p, from, to string) (string, error) {
	rel, err := filepath.Rel(from, p)
	if err != nil {
		return "", err
	}
	return filepath.Join(to, rel), nil
}

// --- Connection handling ---

// withTransport runs fn on the continuous connection, or on a connection
// opened for this call only.
func (r *Remote) withTransport(fn func(Transport) error) error {
	if r.ssh.ContinuousConnection {
		if r.conn == nil {
			t, err := r.dial(r.ssh)
			if err != nil {
				return err
			}
			r.conn = t
		}
		return fn(r.conn)
	}
	t, err := r.dial(r.ssh)
	if err != nil {
		return err
	}
	defer t.Close()
	return fn(t)
}

// run executes a command on the remote host. ok is false when the command
// exited non-zero; remote stderr is shown as a warning.
func (r *Remote) run(command string) (string, bool, error) {
	var stdout, stderr string
	var runErr error
	err := r.withTransport(func(t Transport) error {
		utils.PrintDebug("Executing on %s: %s", utils.StyleName(r.ssh.Host), utils.StyleCommand(command))
		stdout, stderr, runErr = t.Run(command)
		return nil
	})
	if err != nil {
		return "", false, err
	}
	if strings.TrimSpace(stderr) != "" {
		utils.PrintWarning("%s", strings.TrimSpace(stderr))
	}
	var exitErr *RemoteExitError
	if errors.As(runErr, &exitErr) {
		utils.PrintWarning("Command %s exited with code %s on %s",
			utils.StyleCommand(command), utils.StyleNumber(exitErr.Status), utils.StyleName(r.ssh.Host))
		return stdout, false, nil
	}
	if runErr != nil {
		return "", false, runErr
	}
	return stdout, true, nil
}
