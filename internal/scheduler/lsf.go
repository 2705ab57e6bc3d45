package scheduler

import (
	"regexp"
	"strconv"
	"strings"
)

// Lsf implements Commands for IBM Spectrum LSF
type Lsf struct {
	jobIDRe   *regexp.Regexp
	statusMap map[string]string
}

// NewLsf creates the LSF command table
func NewLsf() *Lsf {
	return &Lsf{
		jobIDRe: regexp.MustCompile(`<(\d+)>`),
		statusMap: map[string]string{
			"RUN":   StatusRunning,
			"PEND":  StatusPending,
			"PSUSP": StatusPending,
			"USUSP": StatusPending,
			"SSUSP": StatusPending,
			"EXIT":  StatusError,
			"DONE":  StatusFinished,
		},
	}
}

func (l *Lsf) Type() Type { return TypeLSF }

func (l *Lsf) SubmitCommand() []string { return []string{"bsub"} }

func (l *Lsf) DeleteCommand() []string { return []string{"bkill"} }

func (l *Lsf) StatusCommand() []string { return []string{"bjobs"} }

func (l *Lsf) ReservationCommand() ([]string, error) {
	return nil, ErrNotImplemented
}

func (l *Lsf) Dependencies(ids []string) ([]string, error) {
	return noDependencies(ids)
}

// JobIDFromOutput parses "Job <12345> is submitted to queue <normal>."
func (l *Lsf) JobIDFromOutput(out string) (int64, error) {
	m := l.jobIDRe.FindStringSubmatch(out)
	if m == nil {
		return 0, jobIDError(TypeLSF, out)
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, jobIDError(TypeLSF, out)
	}
	return id, nil
}

// ParseStatus reads the bjobs table. EXEC_HOST is blank for pending jobs,
// so JOB_NAME is located by its offset in the header instead of by field count.
// Continuation lines listing extra hosts are skipped.
func (l *Lsf) ParseStatus(out string) (*StatusTable, error) {
	table := NewStatusTable(ColumnJobID, ColumnUser, ColumnJobName, ColumnStatus)

	lines := strings.Split(out, "\n")
	headerAt := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "JOBID") {
			headerAt = i
			break
		}
	}
	if headerAt == -1 {
		// "No unfinished job found"
		return table, nil
	}
	nameOffset := strings.Index(lines[headerAt], "JOB_NAME")
	if nameOffset == -1 {
		return nil, NewParseError(TypeLSF, headerAt+1, lines[headerAt], "missing JOB_NAME column")
	}

	for i, line := range lines[headerAt+1:] {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		id, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			continue
		}
		name := ""
		if len(line) > nameOffset {
			if nameFields := strings.Fields(line[nameOffset:]); len(nameFields) > 0 {
				name = nameFields[0]
			}
		}
		if name == "" {
			return nil, NewParseError(TypeLSF, headerAt+i+2, line, "missing job name")
		}
		table.Jobs = append(table.Jobs, Job{
			JobID:   id,
			User:    fields[1],
			JobName: name,
			Status:  mapStatus(fields[2], l.statusMap),
		})
	}
	return table, nil
}

func (l *Lsf) DefaultTemplate() string { return lsfTemplate }
