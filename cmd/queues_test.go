package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Justype/qadapter/internal/adapter"
	"github.com/Justype/qadapter/internal/config"
	"github.com/Justype/qadapter/internal/scheduler"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestPrintQueues(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "queue.yaml", `queue_type: SLURM
queue_primary: slurm
queues:
  slurm: {cores_min: 10, cores_max: 100, run_time_max: 259200, memory_max: 60G}
  express: {cores_max: 4}
`)
	qa, err := adapter.New(dir)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer qa.Close()

	var out bytes.Buffer
	printQueues(&out, qa.ActiveCluster(), qa.Config(), qa.QueueView())
	got := out.String()

	for _, want := range []string{"Type:      SLURM", "Primary:   slurm", "QUEUE", "10-100", "259200", "60G", "1-4"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	lines := strings.Split(strings.TrimSpace(got), "\n")
	if !strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "slurm") {
		t.Errorf("queues should be listed in name order:\n%s", got)
	}
}

func TestPrintClusters(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "clusters.yaml", "cluster_primary: beta\ncluster:\n  alpha: a.yaml\n  beta: b.yaml\n")
	writeFile(t, dir, "a.yaml", "queue_type: SGE\nqueue_primary: short\nqueues:\n  short: {cores_max: 8}\n")
	writeFile(t, dir, "b.yaml", "queue_type: TORQUE\nqueue_primary: batch\nqueues:\n  batch: {cores_max: 8}\n")

	qa, err := adapter.New(dir)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer qa.Close()

	var out bytes.Buffer
	printClusters(&out, qa)
	if got, want := out.String(), "  alpha\n* beta\n"; got != want {
		t.Errorf("printClusters() = %q; want %q", got, want)
	}
}

func TestCoreRange(t *testing.T) {
	tests := []struct{ lo, hi, want string }{
		{"", "", "-"},
		{"", "8", "1-8"},
		{"4", "", "4+"},
		{"2", "16", "2-16"},
	}
	for _, tt := range tests {
		if got := coreRange(tt.lo, tt.hi); got != tt.want {
			t.Errorf("coreRange(%q, %q) = %q; want %q", tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestPrintJobs(t *testing.T) {
	table := scheduler.NewStatusTable(scheduler.ColumnJobID, scheduler.ColumnUser, scheduler.ColumnStatus)
	table.Jobs = []scheduler.Job{
		{JobID: 5322019, User: "janj", Status: scheduler.StatusRunning},
		{JobID: 7, User: "maxi", Status: scheduler.StatusPending},
	}
	var out bytes.Buffer
	printJobs(&out, table)
	want := "JOBID    USER  STATUS\n" +
		"5322019  janj  running\n" +
		"7        maxi  pending\n"
	if out.String() != want {
		t.Errorf("printJobs():\n%s\nwant:\n%s", out.String(), want)
	}
}

func TestSubmitBinaryFound(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	bin, ok := submitBinaryFound(&config.QueueConfig{QueueType: "SLURM"})
	if ok || bin != "sbatch" {
		t.Errorf("submitBinaryFound(SLURM) = %q, %v; want sbatch, false", bin, ok)
	}
	if _, ok := submitBinaryFound(&config.QueueConfig{QueueType: "REMOTE"}); !ok {
		t.Error("REMOTE needs no local submit program")
	}
}
