package scheduler

import (
	"strconv"
	"strings"
)

// Slurm implements Commands for SLURM
type Slurm struct {
	statusMap map[string]string
}

// NewSlurm creates the SLURM command table
func NewSlurm() *Slurm {
	return &Slurm{
		statusMap: map[string]string{
			"r":   StatusRunning,
			"cg":  StatusRunning,
			"pd":  StatusPending,
			"f":   StatusError,
			"nf":  StatusError,
			"oom": StatusError,
			"to":  StatusError,
		},
	}
}

func (s *Slurm) Type() Type { return TypeSLURM }

func (s *Slurm) SubmitCommand() []string { return []string{"sbatch", "--parsable"} }

func (s *Slurm) DeleteCommand() []string { return []string{"scancel"} }

// StatusCommand prints one "jobid|user|state|name|workdir" row per job.
func (s *Slurm) StatusCommand() []string {
	return []string{"squeue", "--format", "%A|%u|%t|%.15j|%Z", "--noheader"}
}

// ReservationCommand uses the TORQUE-compatible qalter shipped on many SLURM sites.
func (s *Slurm) ReservationCommand() ([]string, error) {
	return []string{"qalter", "-W"}, nil
}

// Dependencies returns "--dependency=afterok:a,b".
func (s *Slurm) Dependencies(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return []string{"--dependency=afterok:" + strings.Join(ids, ",")}, nil
}

// JobIDFromOutput reads "--parsable" output: "id" or "id;cluster".
func (s *Slurm) JobIDFromOutput(out string) (int64, error) {
	return parsableJobID(TypeSLURM, out)
}

func parsableJobID(t Type, out string) (int64, error) {
	line := lastLine(out)
	fields := strings.Fields(strings.Split(line, ";")[0])
	if len(fields) == 0 {
		return 0, jobIDError(t, out)
	}
	id, err := strconv.ParseInt(fields[len(fields)-1], 10, 64)
	if err != nil {
		return 0, jobIDError(t, out)
	}
	return id, nil
}

func (s *Slurm) ParseStatus(out string) (*StatusTable, error) {
	table := NewStatusTable(ColumnJobID, ColumnUser, ColumnJobName, ColumnStatus, ColumnWorkingDirectory)
	for i, line := range splitLines(out) {
		fields := strings.Split(line, "|")
		if len(fields) != 5 {
			return nil, NewParseError(TypeSLURM, i+1, line, "expected 5 fields separated by |")
		}
		id, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
		if err != nil {
			return nil, NewParseError(TypeSLURM, i+1, line, "invalid job id")
		}
		table.Jobs = append(table.Jobs, Job{
			JobID:            id,
			User:             strings.TrimSpace(fields[1]),
			Status:           mapStatus(strings.ToLower(strings.TrimSpace(fields[2])), s.statusMap),
			JobName:          strings.TrimSpace(fields[3]),
			WorkingDirectory: strings.TrimSpace(fields[4]),
		})
	}
	return table, nil
}

func (s *Slurm) DefaultTemplate() string { return slurmTemplate }
