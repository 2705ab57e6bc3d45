package adapter

import (
	"errors"
	"fmt"
)

// TransferStatus is the outcome for one file.
type TransferStatus string

const (
	Transferred TransferStatus = "transferred"
	Skipped     TransferStatus = "skipped" // Missing on the remote side
	Failed      TransferStatus = "failed"
)

// FileTransfer records one copy between the local and the remote host.
type FileTransfer struct {
	Local  string
	Remote string
	Status TransferStatus
	Err    error
}

// TransferReport collects the results of a batch of copies. A failed file
// does not stop the batch.
type TransferReport struct {
	Back  bool // true when files were copied from the remote host
	Files []FileTransfer
}

func (r *TransferReport) add(local, remote string, err error) {
	ft := FileTransfer{Local: local, Remote: remote, Status: Transferred}
	if err != nil {
		ft.Status = Failed
		ft.Err = err
	}
	r.Files = append(r.Files, ft)
}

func (r *TransferReport) skip(local, remote string) {
	r.Files = append(r.Files, FileTransfer{Local: local, Remote: remote, Status: Skipped})
}

// Count returns the number of files with the given status.
func (r *TransferReport) Count(status TransferStatus) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, f := range r.Files {
		if f.Status == status {
			n++
		}
	}
	return n
}

// Err joins the errors of every failed file; nil if none failed.
func (r *TransferReport) Err() error {
	if r == nil {
		return nil
	}
	var errs []error
	for _, f := range r.Files {
		if f.Status == Failed {
			errs = append(errs, fmt.Errorf("%s <-> %s: %w", f.Local, f.Remote, f.Err))
		}
	}
	return errors.Join(errs...)
}
