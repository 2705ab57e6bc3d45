package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/Justype/qadapter/internal/adapter"
	"github.com/Justype/qadapter/internal/normalize"
	"github.com/Justype/qadapter/internal/utils"
)

// noResult is printed instead of a job id or message when the scheduler
// command failed. The REMOTE adapter reads it as a failed call.
const noResult = "None"

var errMissingID = errors.New("--id is required for --delete and --reservation")

// relayFlags holds the root command flags.
type relayFlags struct {
	configDirectory string

	submit, reservation, deleteJob, status, list bool

	queue            string
	jobName          string
	workingDirectory string
	cores            string
	memory           string
	runTime          string
	dependencies     []string
	command          string
	id               int64
	idSet            bool
}

func (f relayFlags) anyMode() bool {
	return f.submit || f.reservation || f.deleteJob || f.status || f.list
}

func (f relayFlags) request() adapter.SubmitRequest {
	return adapter.SubmitRequest{
		Queue:            f.queue,
		JobName:          f.jobName,
		WorkingDirectory: f.workingDirectory,
		Cores:            normalize.ParseInt(f.cores),
		MemoryMax:        normalize.ParseInt(f.memory),
		RunTimeMax:       normalize.ParseInt(f.runTime),
		DependencyList:   f.dependencies,
		Command:          f.command,
	}
}

// opener loads the adapter for a configuration directory.
type opener func(dir string) (adapter.Adapter, error)

func openAdapter(dir string) (adapter.Adapter, error) {
	return adapter.New(dir)
}

// runRelay performs the one mode selected by f and writes its machine-readable
// result to w.
func runRelay(w io.Writer, f relayFlags, open opener) error {
	if f.list {
		return printTree(w, f.workingDirectory)
	}

	a, err := open(f.configDirectory)
	if err != nil {
		return err
	}
	defer a.Close()

	switch {
	case f.submit:
		id, ok, err := a.SubmitJob(f.request())
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(w, noResult)
			return nil
		}
		fmt.Fprintln(w, strconv.FormatInt(id, 10))

	case f.deleteJob, f.reservation:
		if !f.idSet {
			return errMissingID
		}
		call := a.DeleteJob
		if f.reservation {
			call = a.EnableReservation
		}
		line, ok, err := call(f.id)
		if err != nil {
			return err
		}
		if !ok {
			line = noResult
		}
		fmt.Fprintln(w, line)

	case f.status:
		table, err := a.GetQueueStatus("")
		if err != nil {
			return err
		}
		return writeJSON(w, table)
	}
	return nil
}

// printTree lists dir recursively. It needs no queue configuration.
func printTree(w io.Writer, dir string) error {
	abs, err := utils.AbsPath(dir)
	if err != nil {
		return err
	}
	tree, err := utils.WalkTree(abs)
	if err != nil {
		return err
	}
	return writeJSON(w, tree)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
