package adapter

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	execpkg "github.com/Justype/qadapter/internal/exec"
	"github.com/Justype/qadapter/internal/scheduler"
)

// gentCluster answers squeue per cluster module, keyed on the module swap prefix.
func gentCluster(outputs map[string]string) func(string) (string, bool) {
	return func(cmd string) (string, bool) {
		for cluster, out := range outputs {
			if strings.HasPrefix(cmd, switchClusterCommand(cluster)) {
				return out, true
			}
		}
		return "", false
	}
}

func newTestModular(t *testing.T, respond func(string) (string, bool)) (*Modular, *[]execpkg.Options) {
	t.Helper()
	calls, executor := recorder(respond)
	m, err := NewModular(loadConfig(t, "gent"), executor)
	if err != nil {
		t.Fatalf("NewModular() failed: %v", err)
	}
	return m, calls
}

func TestModularSubmitJob(t *testing.T) {
	dir := t.TempDir()
	m, calls := newTestModular(t, reply("1234;victini\n"))

	id, ok, err := m.SubmitJob(SubmitRequest{Queue: "slurm2", WorkingDirectory: dir, Command: "python test.py"})
	if err != nil || !ok {
		t.Fatalf("SubmitJob() = %d, %v, %v", id, ok, err)
	}
	if id != 12341 {
		t.Errorf("id = %d; want 12341 (native 1234 on cluster 1)", id)
	}

	got := (*calls)[0]
	if len(got.Args) != 0 {
		t.Errorf("modular commands run through the shell, got Args %v", got.Args)
	}
	if !strings.HasPrefix(got.Line, "module --quiet swap cluster/victini; sbatch --parsable ") {
		t.Errorf("Line = %q", got.Line)
	}
	if got.WorkingDir != dir {
		t.Errorf("WorkingDir = %q; want %q", got.WorkingDir, dir)
	}
}

func TestModularSubmitRejectsDependencies(t *testing.T) {
	m, calls := newTestModular(t, reply("1;golett"))
	_, _, err := m.SubmitJob(SubmitRequest{WorkingDirectory: t.TempDir(), DependencyList: []string{"1"}, Command: "true"})
	if !errors.Is(err, ErrNotImplemented) {
		t.Errorf("err = %v; want ErrNotImplemented", err)
	}
	if len(*calls) != 0 {
		t.Errorf("no command should run, got %d", len(*calls))
	}
}

func TestModularDeleteJob(t *testing.T) {
	m, calls := newTestModular(t, reply("deleted\n"))

	out, ok, err := m.DeleteJob(12341)
	if err != nil || !ok || out != "deleted" {
		t.Fatalf("DeleteJob() = %q, %v, %v", out, ok, err)
	}
	if want := "module --quiet swap cluster/victini; scancel 1234"; (*calls)[0].Line != want {
		t.Errorf("Line = %q; want %q", (*calls)[0].Line, want)
	}

	if _, _, err := m.EnableReservation(50); err != nil {
		t.Fatalf("EnableReservation() failed: %v", err)
	}
	if want := "module --quiet swap cluster/golett; qalter -W 5"; (*calls)[1].Line != want {
		t.Errorf("Line = %q; want %q", (*calls)[1].Line, want)
	}

	if _, _, err := m.DeleteJob(12345); err == nil {
		t.Error("expected an error for a cluster index outside the configured list")
	}
}

func TestModularQueueStatus(t *testing.T) {
	m, calls := newTestModular(t, gentCluster(map[string]string{
		"golett":  "cluster: golett\n1|janj|R|pi_1\n3|maxi|R|pi_3\n",
		"victini": "cluster: victini\n2|janj|PD|pi_2\n",
	}))

	table, err := m.GetQueueStatus("")
	if err != nil {
		t.Fatalf("GetQueueStatus() failed: %v", err)
	}
	if table.Len() != 3 {
		t.Fatalf("Len() = %d; want 3", table.Len())
	}
	if !table.HasColumn(scheduler.ColumnCluster) {
		t.Errorf("Columns = %v; want a cluster column", table.Columns)
	}
	if table.Jobs[2].Cluster != "victini" || table.Jobs[2].JobID != 2 {
		t.Errorf("clusters should be concatenated in order, got %+v", table.Jobs)
	}
	if !strings.Contains((*calls)[0].Line, "'%A|%u|%t|%j'") {
		t.Errorf("the squeue format must be quoted for the shell: %q", (*calls)[0].Line)
	}

	mine, err := m.GetQueueStatus("janj")
	if err != nil || mine.Len() != 2 {
		t.Errorf("GetQueueStatus(janj) = %v, %v", mine, err)
	}

	status, ok, err := m.GetStatusOfJob(21)
	if err != nil || !ok || status != "pd" {
		t.Errorf("GetStatusOfJob(21) = %q, %v, %v; want pd", status, ok, err)
	}
	// native 2 exists only on victini
	if _, ok, _ := m.GetStatusOfJob(20); ok {
		t.Error("job 2 on golett should not be found")
	}

	statuses, err := m.GetStatusOfJobs([]int64{10, 21, 30, 31})
	if err != nil {
		t.Fatalf("GetStatusOfJobs() failed: %v", err)
	}
	want := []string{"r", "pd", "r", scheduler.StatusFinished}
	if !reflect.DeepEqual(statuses, want) {
		t.Errorf("GetStatusOfJobs() = %v; want %v", statuses, want)
	}
}

func TestModularQueueStatusEmpty(t *testing.T) {
	m, _ := newTestModular(t, gentCluster(map[string]string{
		"golett":  "cluster: golett\n",
		"victini": "cluster: victini\n",
	}))
	table, err := m.GetQueueStatus("")
	if err != nil || table != nil {
		t.Errorf("GetQueueStatus() = %v, %v; want nil, nil", table, err)
	}
}

func TestModularNeedsClusters(t *testing.T) {
	cfg := loadConfig(t, "slurm")
	if _, err := NewModular(cfg, nil); err == nil {
		t.Error("expected an error for a configuration without clusters")
	}
	cfg.Clusters = []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"}
	if _, err := NewModular(cfg, nil); !errors.Is(err, scheduler.ErrTooManyClusters) {
		t.Errorf("err = %v; want ErrTooManyClusters", err)
	}
}
