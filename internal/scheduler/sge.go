package scheduler

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// SGE implements Commands for Sun/Univa Grid Engine
type SGE struct {
	statusMap map[string]string
}

// NewSGE creates the SGE command table
func NewSGE() *SGE {
	return &SGE{
		statusMap: map[string]string{
			"r":   StatusRunning,
			"qw":  StatusPending,
			"Eqw": StatusError,
		},
	}
}

func (s *SGE) Type() Type { return TypeSGE }

func (s *SGE) SubmitCommand() []string { return []string{"qsub", "-terse"} }

func (s *SGE) DeleteCommand() []string { return []string{"qdel"} }

func (s *SGE) StatusCommand() []string { return []string{"qstat", "-xml"} }

func (s *SGE) ReservationCommand() ([]string, error) {
	return []string{"qalter", "-R", "y"}, nil
}

func (s *SGE) Dependencies(ids []string) ([]string, error) {
	return noDependencies(ids)
}

// JobIDFromOutput reads "-terse" output; array jobs print "id.range".
func (s *SGE) JobIDFromOutput(out string) (int64, error) {
	return dottedJobID(TypeSGE, out)
}

func dottedJobID(t Type, out string) (int64, error) {
	head := strings.SplitN(lastLine(out), ".", 2)[0]
	id, err := strconv.ParseInt(strings.TrimSpace(head), 10, 64)
	if err != nil {
		return 0, jobIDError(t, out)
	}
	return id, nil
}

type sgeJob struct {
	Number string `xml:"JB_job_number"`
	Owner  string `xml:"JB_owner"`
	Name   string `xml:"JB_name"`
	State  string `xml:"state"`
}

// sgeQstat mirrors "qstat -xml": running jobs sit under queue_info,
// waiting jobs under the nested job_info element.
type sgeQstat struct {
	XMLName xml.Name `xml:"job_info"`
	Running []sgeJob `xml:"queue_info>job_list"`
	Pending []sgeJob `xml:"job_info>job_list"`
}

func (s *SGE) ParseStatus(out string) (*StatusTable, error) {
	var qstat sgeQstat
	if err := xml.Unmarshal([]byte(out), &qstat); err != nil {
		return nil, NewParseError(TypeSGE, 0, "", err.Error())
	}

	table := NewStatusTable(ColumnJobID, ColumnUser, ColumnJobName, ColumnStatus, ColumnWorkingDirectory)
	for _, job := range append(qstat.Running, qstat.Pending...) {
		id, err := strconv.ParseInt(strings.TrimSpace(job.Number), 10, 64)
		if err != nil {
			return nil, NewParseError(TypeSGE, 0, job.Number, "invalid job id")
		}
		table.Jobs = append(table.Jobs, Job{
			JobID:   id,
			User:    strings.TrimSpace(job.Owner),
			JobName: strings.TrimSpace(job.Name),
			Status:  mapStatus(strings.TrimSpace(job.State), s.statusMap),
		})
	}
	return table, nil
}

func (s *SGE) DefaultTemplate() string { return sgeTemplate }
