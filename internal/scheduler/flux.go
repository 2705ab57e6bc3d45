package scheduler

import "strings"

// Flux implements Commands for the Flux framework
type Flux struct {
	statusMap map[string]string
}

// NewFlux creates the FLUX command table
func NewFlux() *Flux {
	return &Flux{
		statusMap: map[string]string{
			"R":      StatusRunning,
			"RUN":    StatusRunning,
			"S":      StatusPending,
			"PD":     StatusPending,
			"DEPEND": StatusPending,
			"SCHED":  StatusPending,
			"C":      StatusError,
			"CA":     StatusError,
			"F":      StatusError,
			"TO":     StatusError,
			"CD":     StatusFinished,
		},
	}
}

func (f *Flux) Type() Type { return TypeFlux }

func (f *Flux) SubmitCommand() []string { return []string{"flux", "batch"} }

func (f *Flux) DeleteCommand() []string { return []string{"flux", "cancel"} }

func (f *Flux) StatusCommand() []string { return []string{"flux", "jobs", "-a", "--no-header"} }

func (f *Flux) ReservationCommand() ([]string, error) {
	return nil, ErrNotImplemented
}

func (f *Flux) Dependencies(ids []string) ([]string, error) {
	return noDependencies(ids)
}

// JobIDFromOutput decodes the last word printed by "flux batch".
func (f *Flux) JobIDFromOutput(out string) (int64, error) {
	fields := strings.Fields(lastLine(out))
	if len(fields) == 0 {
		return 0, jobIDError(TypeFlux, out)
	}
	return ParseFluxJobID(fields[len(fields)-1])
}

// ParseStatus reads "flux jobs" rows: JOBID USER NAME ST ...
func (f *Flux) ParseStatus(out string) (*StatusTable, error) {
	table := NewStatusTable(ColumnJobID, ColumnUser, ColumnJobName, ColumnStatus)
	for i, line := range splitLines(out) {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, NewParseError(TypeFlux, i+1, line, "expected at least 4 columns")
		}
		id, err := ParseFluxJobID(fields[0])
		if err != nil {
			return nil, NewParseError(TypeFlux, i+1, line, err.Error())
		}
		table.Jobs = append(table.Jobs, Job{
			JobID:   id,
			User:    fields[1],
			JobName: fields[2],
			Status:  mapStatus(fields[3], f.statusMap),
		})
	}
	return table, nil
}

func (f *Flux) DefaultTemplate() string { return fluxTemplate }
