package scheduler

import (
	"regexp"
	"strconv"
	"strings"
)

// Torque implements Commands for PBS/Torque
type Torque struct {
	nameRe    *regexp.Regexp
	ownerRe   *regexp.Regexp
	stateRe   *regexp.Regexp
	workdirRe *regexp.Regexp
	statusMap map[string]string
}

// NewTorque creates the TORQUE command table
func NewTorque() *Torque {
	return &Torque{
		nameRe:    regexp.MustCompile(`Job_Name=(.+?)Job_Owner`),
		ownerRe:   regexp.MustCompile(`Job_Owner=(.+?)@`),
		stateRe:   regexp.MustCompile(`job_state=([A-Z])`),
		workdirRe: regexp.MustCompile(`PBS_O_WORKDIR=([^,]+)`),
		statusMap: map[string]string{
			"R": StatusRunning,
			"E": StatusRunning,
			"Q": StatusPending,
			"H": StatusPending,
			"W": StatusPending,
		},
	}
}

func (p *Torque) Type() Type { return TypeTorque }

func (p *Torque) SubmitCommand() []string { return []string{"qsub"} }

func (p *Torque) DeleteCommand() []string { return []string{"qdel"} }

func (p *Torque) StatusCommand() []string { return []string{"qstat", "-f"} }

func (p *Torque) ReservationCommand() ([]string, error) {
	return nil, ErrNotImplemented
}

func (p *Torque) Dependencies(ids []string) ([]string, error) {
	return noDependencies(ids)
}

// JobIDFromOutput reads "id.server".
func (p *Torque) JobIDFromOutput(out string) (int64, error) {
	return dottedJobID(TypeTorque, out)
}

// ParseStatus reads "qstat -f" output. Long values wrap across lines, so all
// whitespace is removed before the attributes are matched.
func (p *Torque) ParseStatus(out string) (*StatusTable, error) {
	compact := strings.Join(strings.Fields(out), "")

	table := NewStatusTable(ColumnJobID, ColumnUser, ColumnJobName, ColumnStatus, ColumnWorkingDirectory)
	for i, block := range strings.Split(compact, "JobId:") {
		if block == "" {
			continue
		}
		head := strings.SplitN(block, ".", 2)[0]
		id, err := strconv.ParseInt(head, 10, 64)
		if err != nil {
			return nil, NewParseError(TypeTorque, i, head, "invalid job id")
		}

		job := Job{JobID: id}
		if m := p.nameRe.FindStringSubmatch(block); m != nil {
			job.JobName = m[1]
		}
		if m := p.ownerRe.FindStringSubmatch(block); m != nil {
			job.User = m[1]
		}
		if m := p.stateRe.FindStringSubmatch(block); m != nil {
			job.Status = mapStatus(m[1], p.statusMap)
		}
		if m := p.workdirRe.FindStringSubmatch(block); m != nil {
			job.WorkingDirectory = m[1]
		}
		table.Jobs = append(table.Jobs, job)
	}
	return table, nil
}

func (p *Torque) DefaultTemplate() string { return torqueTemplate }
