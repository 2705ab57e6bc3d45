package scheduler

import (
	"reflect"
	"testing"
)

func TestLsfParseStatus(t *testing.T) {
	table, err := NewLsf().ParseStatus(readFixture(t, "bjobs"))
	if err != nil {
		t.Fatalf("ParseStatus failed: %v", err)
	}
	want := []Job{
		{JobID: 5136563, User: "testuse", JobName: "pi_None", Status: StatusRunning},
		{JobID: 5136570, User: "testuse", JobName: "pi_None", Status: StatusRunning},
		{JobID: 5136571, User: "testuse", JobName: "pi_None", Status: StatusRunning},
	}
	if !reflect.DeepEqual(table.Jobs, want) {
		t.Errorf("Jobs =\n%+v\nwant\n%+v", table.Jobs, want)
	}
}

func TestLsfParseStatusPendingWithoutHost(t *testing.T) {
	output := "JOBID   USER    STAT  QUEUE      FROM_HOST   EXEC_HOST   JOB_NAME   SUBMIT_TIME\n" +
		"1001    alice   PEND  normal     login1                  wait_me    Oct 14 14:05\n" +
		"1002    alice   RUN   normal     login1      4*node01    crunch     Oct 14 14:06\n" +
		"                                             4*node02\n" +
		"1003    bob     EXIT  normal     login1      node03      failed     Oct 14 14:07\n"

	table, err := NewLsf().ParseStatus(output)
	if err != nil {
		t.Fatalf("ParseStatus failed: %v", err)
	}
	want := []Job{
		{JobID: 1001, User: "alice", JobName: "wait_me", Status: StatusPending},
		{JobID: 1002, User: "alice", JobName: "crunch", Status: StatusRunning},
		{JobID: 1003, User: "bob", JobName: "failed", Status: StatusError},
	}
	if !reflect.DeepEqual(table.Jobs, want) {
		t.Errorf("Jobs =\n%+v\nwant\n%+v", table.Jobs, want)
	}
}

func TestLsfParseStatusNoJobs(t *testing.T) {
	table, err := NewLsf().ParseStatus("No unfinished job found\n")
	if err != nil {
		t.Fatal(err)
	}
	if table == nil || table.Len() != 0 {
		t.Errorf("expected an empty table, got %+v", table)
	}
}

func TestLsfJobIDFromOutput(t *testing.T) {
	got, err := NewLsf().JobIDFromOutput("Job <5136563> is submitted to queue <s_short>.\n")
	if err != nil || got != 5136563 {
		t.Errorf("JobIDFromOutput = %d, %v; want 5136563", got, err)
	}
	if _, err := NewLsf().JobIDFromOutput("Bad resource requirement syntax"); err == nil {
		t.Error("expected an error")
	}
}
