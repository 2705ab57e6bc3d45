// Package adapter submits, inspects and cancels batch jobs through one
// interface regardless of the scheduler behind it.
package adapter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Justype/qadapter/internal/config"
	"github.com/Justype/qadapter/internal/normalize"
	"github.com/Justype/qadapter/internal/scheduler"
)

// Common errors
var (
	// ErrNoConfig indicates a directory without queue.yaml or clusters.yaml
	ErrNoConfig = errors.New("neither a queue.yaml file nor a clusters.yaml file was found")

	// ErrNotImplemented indicates the adapter does not support the operation
	ErrNotImplemented = scheduler.ErrNotImplemented

	// ErrWhitespaceWorkdir indicates a working directory containing spaces
	ErrWhitespaceWorkdir = errors.New("whitespaces in the working directory name are not supported")

	// ErrUnsupportedAuth indicates an ssh_* combination with no authentication method
	ErrUnsupportedAuth = errors.New("unsupported authentication method")
)

// QueueNotFoundError reports a submission to a queue the configuration does not list.
type QueueNotFoundError struct {
	Queue     string
	Available []string
}

func (e *QueueNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("queue %s cannot be used without a queue configuration", e.Queue)
	}
	return fmt.Sprintf("the queue %s was not found in the list of queues: %v", e.Queue, e.Available)
}

// Adapter is implemented by every queue adapter.
//
// The boolean results of SubmitJob, DeleteJob and EnableReservation are false
// when the scheduler command itself failed; its output is then in the error file.
type Adapter interface {
	Config() *config.QueueConfig
	QueueList() []string
	QueueView() []config.QueueRow
	RemoteFlag() bool
	DeleteFileOnRemote() bool

	SubmitJob(req SubmitRequest) (int64, bool, error)
	EnableReservation(id int64) (string, bool, error)
	DeleteJob(id int64) (string, bool, error)

	GetQueueStatus(user string) (*scheduler.StatusTable, error)
	GetStatusOfMyJobs() (*scheduler.StatusTable, error)
	GetStatusOfJob(id int64) (string, bool, error)
	GetStatusOfJobs(ids []int64) ([]string, error)

	CheckQueueParameters(queue string, cores, runTime, memory normalize.Quantity) (normalize.Quantity, normalize.Quantity, normalize.Quantity, error)

	ConvertPathToRemote(path string) (string, error)
	TransferFile(file string, back, deleteOnRemote bool) (*TransferReport, error)
	GetJobFromRemote(workingDirectory string) (*TransferReport, error)

	Close() error
}

// SubmitRequest describes one job.
type SubmitRequest struct {
	Queue            string // Empty selects queue_primary
	JobName          string
	WorkingDirectory string
	Cores            normalize.Quantity
	MemoryMax        normalize.Quantity
	RunTimeMax       normalize.Quantity
	DependencyList   []string
	Command          string
	Extra            map[string]any // Additional template keys
}

func checkWorkdir(dir string) error {
	if strings.Contains(dir, " ") {
		return fmt.Errorf("%w: %q", ErrWhitespaceWorkdir, dir)
	}
	return nil
}

// jobStatus looks a job up by id; false when it is not in the table.
func jobStatus(table *scheduler.StatusTable, id int64) (string, bool) {
	job, ok := table.Find(id)
	if !ok {
		return "", false
	}
	return job.Status, true
}

// jobStatuses reports jobs missing from the table as finished.
func jobStatuses(table *scheduler.StatusTable, ids []int64) []string {
	statuses := make([]string, len(ids))
	for i, id := range ids {
		if status, ok := jobStatus(table, id); ok {
			statuses[i] = status
		} else {
			statuses[i] = scheduler.StatusFinished
		}
	}
	return statuses
}

// --- Shell quoting ---

var shellSafe = regexp.MustCompile(`^[A-Za-z0-9_@%+=:,./-]+$`)

// shellQuote returns s unchanged when the shell would read it as one word,
// otherwise single-quoted.
func shellQuote(s string) string {
	if shellSafe.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func shellJoin(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = shellQuote(a)
	}
	return strings.Join(quoted, " ")
}

var (
	_ Adapter = (*Core)(nil)
	_ Adapter = (*Basic)(nil)
	_ Adapter = (*Modular)(nil)
	_ Adapter = (*Remote)(nil)
	_ Adapter = (*QueueAdapter)(nil)
)
