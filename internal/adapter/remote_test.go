package adapter

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/Justype/qadapter/internal/config"
	"github.com/Justype/qadapter/internal/normalize"
	"github.com/Justype/qadapter/internal/scheduler"
)

// fakeHost stands in for the SSH server: it records commands and keeps
// uploaded files in memory.
type fakeHost struct {
	respond  func(cmd string) (string, string, error)
	commands []string
	files    map[string]string // Remote path to content
	dials    int
	closes   int
}

func newFakeHost(respond func(cmd string) (string, string, error)) *fakeHost {
	if respond == nil {
		respond = func(string) (string, string, error) { return "", "", nil }
	}
	return &fakeHost{respond: respond, files: make(map[string]string)}
}

func (h *fakeHost) dial(config.SSHConfig) (Transport, error) {
	h.dials++
	return &fakeConn{h}, nil
}

type fakeConn struct{ *fakeHost }

func (c *fakeConn) Run(cmd string) (string, string, error) {
	c.commands = append(c.commands, cmd)
	return c.respond(cmd)
}

func (c *fakeConn) Upload(local, remote string) error {
	data, err := os.ReadFile(local)
	if err != nil {
		return err
	}
	c.files[remote] = string(data)
	return nil
}

func (c *fakeConn) Download(remote, local string) error {
	return os.WriteFile(local, []byte(c.files[remote]), 0o644)
}

func (c *fakeConn) Stat(remote string) (bool, error) {
	_, ok := c.files[remote]
	return ok, nil
}

func (c *fakeConn) Close() error {
	c.closes++
	return nil
}

func newTestRemote(t *testing.T, mutate func(cfg *config.QueueConfig), host *fakeHost) *Remote {
	t.Helper()
	cfg := loadConfig(t, "remote")
	if mutate != nil {
		mutate(cfg)
	}
	r, err := NewRemote(cfg, host.dial)
	if err != nil {
		t.Fatalf("NewRemote() failed: %v", err)
	}
	return r
}

// sandbox maps ssh_local_path to a temporary directory and the remote side to /remote.
func sandbox(local string, deleteOnRemote, continuous bool) func(cfg *config.QueueConfig) {
	return func(cfg *config.QueueConfig) {
		cfg.SSH.LocalPath = local
		cfg.SSH.RemotePath = "/remote"
		cfg.SSH.DeleteFileOnRemote = deleteOnRemote
		cfg.SSH.ContinuousConnection = continuous
	}
}

func TestRemoteConfig(t *testing.T) {
	r := newTestRemote(t, nil, newFakeHost(nil))
	if r.Config().QueueType != "REMOTE" || r.Config().QueuePrimary != "remote" {
		t.Errorf("Config() = %+v", r.Config())
	}
	if !r.RemoteFlag() {
		t.Error("RemoteFlag() = false")
	}
	if r.DeleteFileOnRemote() {
		t.Error("DeleteFileOnRemote() = true; the config disables it")
	}
	if !r.ssh.ContinuousConnection {
		t.Error("ssh_continous_connection should be read from the config")
	}
}

func TestRemoteRelayCommands(t *testing.T) {
	r := newTestRemote(t, nil, newFakeHost(nil))
	const prefix = "qadapter --config_directory /u/share/qadapter/queues/ "

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"submit", r.submitCommand("remote", "test", "/home/localuser/projects/test",
			normalize.Int(1), normalize.Str("1"), normalize.Int(1), "/bin/true"),
			prefix + "--submit --queue remote --job_name test --working_directory /home/localuser/projects/test --cores 1 --memory 1 --run_time 1 --command /bin/true"},
		{"submit quoting", r.submitCommand("remote", "", "/w", normalize.Unset(), normalize.Unset(), normalize.Unset(), "python test.py"),
			prefix + "--submit --queue remote --working_directory /w --command 'python test.py'"},
		{"status", r.statusCommand(), prefix + "--status"},
		{"delete", r.deleteCommand(123), prefix + "--delete --id 123"},
		{"reservation", r.reservationCommand(123), prefix + "--reservation --id 123"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s:\n got %q\nwant %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestRemoteConvertPathToRemote(t *testing.T) {
	r := newTestRemote(t, nil, newFakeHost(nil))
	got, err := r.ConvertPathToRemote("/home/localuser/projects/test")
	if err != nil {
		t.Fatalf("ConvertPathToRemote() failed: %v", err)
	}
	if got != "/u/hpcuser/remote/test" {
		t.Errorf("ConvertPathToRemote() = %q", got)
	}
}

func TestRemoteSubmitJob(t *testing.T) {
	local := t.TempDir()
	job := filepath.Join(local, "job")
	if err := os.MkdirAll(filepath.Join(job, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join(job, "input.txt"), []byte("in"), 0o644)
	os.WriteFile(filepath.Join(job, "sub", "data.txt"), []byte("data"), 0o644)

	host := newFakeHost(func(cmd string) (string, string, error) {
		if strings.Contains(cmd, "--submit") {
			return "1234\n", "", nil
		}
		return "", "", nil
	})
	r := newTestRemote(t, sandbox(local, false, false), host)

	id, ok, err := r.SubmitJob(SubmitRequest{WorkingDirectory: job, Cores: normalize.Int(4), Command: "python test.py"})
	if err != nil || !ok || id != 1234 {
		t.Fatalf("SubmitJob() = %d, %v, %v", id, ok, err)
	}

	if host.commands[0] != "mkdir -p /remote/job /remote/job/sub" {
		t.Errorf("first command = %q", host.commands[0])
	}
	submit := host.commands[len(host.commands)-1]
	for _, part := range []string{"--queue remote", "--working_directory /remote/job", "--cores 4", "--command 'python test.py'"} {
		if !strings.Contains(submit, part) {
			t.Errorf("submit command %q missing %q", submit, part)
		}
	}
	want := map[string]string{"/remote/job/input.txt": "in", "/remote/job/sub/data.txt": "data"}
	if !reflect.DeepEqual(host.files, want) {
		t.Errorf("uploaded files = %v; want %v", host.files, want)
	}
	if host.dials != host.closes {
		t.Errorf("every connection should be closed: %d dials, %d closes", host.dials, host.closes)
	}
}

func TestRemoteSubmitJobRejected(t *testing.T) {
	host := newFakeHost(nil)
	r := newTestRemote(t, sandbox(t.TempDir(), false, false), host)

	_, _, err := r.SubmitJob(SubmitRequest{DependencyList: []string{"1"}, Command: "true"})
	if !errors.Is(err, ErrNotImplemented) {
		t.Errorf("dependencies: err = %v; want ErrNotImplemented", err)
	}
	var qerr *QueueNotFoundError
	if _, _, err := r.SubmitJob(SubmitRequest{Queue: "missing", Command: "true"}); !errors.As(err, &qerr) {
		t.Errorf("unknown queue: err = %v", err)
	}
	if len(host.commands) != 0 {
		t.Errorf("nothing should run remotely, got %v", host.commands)
	}
}

func TestRemoteSubmitJobNone(t *testing.T) {
	host := newFakeHost(func(cmd string) (string, string, error) {
		if strings.Contains(cmd, "--submit") {
			return "None\n", "", nil
		}
		return "", "", nil
	})
	local := t.TempDir()
	r := newTestRemote(t, sandbox(local, false, false), host)
	id, ok, err := r.SubmitJob(SubmitRequest{WorkingDirectory: local, Command: "true"})
	if id != 0 || ok || err != nil {
		t.Errorf("SubmitJob() = %d, %v, %v; want 0, false, nil", id, ok, err)
	}
}

func TestRemoteDeleteJob(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
		err    error
		want   string
		wantOK bool
	}{
		{"deleted", "Job 123 deleted\n", nil, "Job 123 deleted", true},
		{"relay failed", "None\n", nil, "", false},
		{"non-zero exit", "", &RemoteExitError{Command: "x", Status: 2}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := newFakeHost(func(string) (string, string, error) { return tt.stdout, "warning on stderr", tt.err })
			r := newTestRemote(t, nil, host)
			out, ok, err := r.DeleteJob(123)
			if err != nil || out != tt.want || ok != tt.wantOK {
				t.Errorf("DeleteJob() = %q, %v, %v; want %q, %v", out, ok, err, tt.want, tt.wantOK)
			}
		})
	}

	host := newFakeHost(func(string) (string, string, error) { return "", "", errors.New("connection reset") })
	r := newTestRemote(t, nil, host)
	if _, _, err := r.EnableReservation(1); err == nil {
		t.Error("transport errors should be returned")
	}
}

func TestRemoteQueueStatus(t *testing.T) {
	host := newFakeHost(func(string) (string, string, error) {
		return `{"jobid": [1, 2], "user": ["hpcuser", "other"], "jobname": ["a", "b"], "status": ["running", "pending"]}` + "\n", "", nil
	})
	r := newTestRemote(t, nil, host)

	mine, err := r.GetStatusOfMyJobs()
	if err != nil {
		t.Fatalf("GetStatusOfMyJobs() failed: %v", err)
	}
	if mine.Len() != 1 || mine.Jobs[0].JobID != 1 {
		t.Errorf("GetStatusOfMyJobs() = %+v", mine)
	}

	status, ok, err := r.GetStatusOfJob(2)
	if err != nil || !ok || status != scheduler.StatusPending {
		t.Errorf("GetStatusOfJob(2) = %q, %v, %v", status, ok, err)
	}
	statuses, err := r.GetStatusOfJobs([]int64{1, 3})
	if err != nil || !reflect.DeepEqual(statuses, []string{scheduler.StatusRunning, scheduler.StatusFinished}) {
		t.Errorf("GetStatusOfJobs() = %v, %v", statuses, err)
	}
	if host.dials != 1 {
		t.Errorf("a continuous connection is dialled once, got %d", host.dials)
	}
	if err := r.Close(); err != nil || host.closes != 1 {
		t.Errorf("Close() = %v with %d closes", err, host.closes)
	}
}

func TestRemoteQueueStatusInvalid(t *testing.T) {
	host := newFakeHost(func(string) (string, string, error) { return "Traceback (most recent call last)", "", nil })
	r := newTestRemote(t, nil, host)
	if _, err := r.GetQueueStatus(""); err == nil {
		t.Error("expected an error for non-JSON output")
	}

	host = newFakeHost(func(string) (string, string, error) { return "null\n", "", nil })
	r = newTestRemote(t, nil, host)
	if table, err := r.GetQueueStatus(""); table != nil || err != nil {
		t.Errorf("GetQueueStatus() = %v, %v; want nil, nil", table, err)
	}
}

func TestRemoteGetJobFromRemote(t *testing.T) {
	local := t.TempDir()
	job := filepath.Join(local, "job")

	host := newFakeHost(func(cmd string) (string, string, error) {
		if strings.Contains(cmd, "--list") {
			return `{"dirs": ["/remote/job", "/remote/job/out"], "files": ["/remote/job/missing.txt", "/remote/job/out/result.txt"]}`, "", nil
		}
		return "", "", nil
	})
	host.files["/remote/job/out/result.txt"] = "42"
	r := newTestRemote(t, sandbox(local, true, true), host)

	report, err := r.GetJobFromRemote(job)
	if err != nil {
		t.Fatalf("GetJobFromRemote() failed: %v", err)
	}
	if report.Count(Transferred) != 1 || report.Count(Skipped) != 1 || report.Count(Failed) != 0 {
		t.Errorf("report = %+v", report.Files)
	}
	data, err := os.ReadFile(filepath.Join(job, "out", "result.txt"))
	if err != nil || string(data) != "42" {
		t.Errorf("result.txt = %q, %v", data, err)
	}
	if _, err := os.Stat(filepath.Join(job, "missing.txt")); !os.IsNotExist(err) {
		t.Error("a file missing on the remote host must not be created locally")
	}

	wantList := "qadapter --config_directory /u/share/qadapter/queues/ --list --working_directory /remote/job"
	if host.commands[0] != wantList {
		t.Errorf("list command = %q; want %q", host.commands[0], wantList)
	}
	if last := host.commands[len(host.commands)-1]; last != "rm -r /remote/job" {
		t.Errorf("last command = %q; want the remote directory removed", last)
	}
}

func TestRemoteTransferFile(t *testing.T) {
	local := t.TempDir()
	file := filepath.Join(local, "data", "x.txt")
	os.MkdirAll(filepath.Dir(file), 0o755)
	os.WriteFile(file, []byte("payload"), 0o644)

	tests := []struct {
		name           string
		deleteConfig   bool
		back, deleteIt bool
		wantRemove     bool
	}{
		{"upload", true, false, true, false},
		{"download keep", true, true, false, false},
		{"download delete", true, true, true, true},
		{"delete disabled in config", false, true, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := newFakeHost(nil)
			host.files["/remote/data/x.txt"] = "payload"
			r := newTestRemote(t, sandbox(local, tt.deleteConfig, false), host)

			report, err := r.TransferFile(file, tt.back, tt.deleteIt)
			if err != nil {
				t.Fatalf("TransferFile() failed: %v", err)
			}
			if report.Count(Transferred) != 1 || report.Back != tt.back {
				t.Errorf("report = %+v", report)
			}
			if host.commands[0] != "mkdir -p /remote/data" {
				t.Errorf("first command = %q", host.commands[0])
			}
			removed := host.commands[len(host.commands)-1] == "rm /remote/data/x.txt"
			if removed != tt.wantRemove {
				t.Errorf("remote file removed = %v; want %v (commands %v)", removed, tt.wantRemove, host.commands)
			}
		})
	}
}

func TestRemoteVersion(t *testing.T) {
	tests := []struct {
		out        string
		compatible bool
	}{
		{"qadapter version " + config.VERSION + "\n", true},
		{"qadapter version 99.0.0\n", false},
	}
	for _, tt := range tests {
		host := newFakeHost(func(string) (string, string, error) { return tt.out, "", nil })
		r := newTestRemote(t, nil, host)
		_, ok, err := r.CheckRemoteVersion()
		if err != nil || ok != tt.compatible {
			t.Errorf("CheckRemoteVersion(%q) = %v, %v; want %v", tt.out, ok, err, tt.compatible)
		}
		if host.commands[0] != "qadapter --version" {
			t.Errorf("command = %q", host.commands[0])
		}
	}
}

func TestSameMajorMinor(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"0.4.0", "0.4.7", true},
		{"v0.4.0", "0.4.0-rc1", true},
		{"0.4.0", "0.5.0", false},
		{"1.0.0", "0.4.0", false},
		{"dev", "dev", false},
	}
	for _, tt := range tests {
		if got := SameMajorMinor(tt.a, tt.b); got != tt.want {
			t.Errorf("SameMajorMinor(%q, %q) = %v; want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
