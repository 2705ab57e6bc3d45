package scheduler

import (
	"fmt"
	"strconv"
	"strings"
)

// Gent implements Commands for the multi-cluster SLURM installation at
// Ghent University. Output of squeue is prefixed with a "cluster: NAME" line.
type Gent struct {
	Slurm
}

// NewGent creates the GENT command table
func NewGent() *Gent {
	return &Gent{Slurm: *NewSlurm()}
}

func (g *Gent) Type() Type { return TypeGENT }

func (g *Gent) StatusCommand() []string {
	return []string{"squeue", "--format", "%A|%u|%t|%j", "--noheader"}
}

func (g *Gent) Dependencies(ids []string) ([]string, error) {
	return noDependencies(ids)
}

// JobIDFromOutput reads "id;cluster".
func (g *Gent) JobIDFromOutput(out string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(strings.Split(lastLine(out), ";")[0]), 10, 64)
	if err != nil {
		return 0, jobIDError(TypeGENT, out)
	}
	return id, nil
}

// QueueFromOutput returns the cluster part of "id;cluster".
func (g *Gent) QueueFromOutput(out string) (string, error) {
	parts := strings.Split(lastLine(out), ";")
	if len(parts) < 2 {
		return "", fmt.Errorf("%w: no cluster in %q", ErrJobIDParseFailed, out)
	}
	return strings.TrimSpace(parts[1]), nil
}

// ParseStatus returns nil when the output holds no job rows.
// States are lower-cased but not translated.
func (g *Gent) ParseStatus(out string) (*StatusTable, error) {
	lines := splitLines(out)
	if len(lines) == 0 {
		return nil, nil
	}
	header := strings.SplitN(lines[0], ":", 2)
	if len(header) != 2 {
		return nil, NewParseError(TypeGENT, 1, lines[0], `expected "cluster: NAME"`)
	}
	cluster := strings.TrimSpace(header[1])
	if len(lines) == 1 {
		return nil, nil
	}

	table := NewStatusTable(ColumnCluster, ColumnJobID, ColumnUser, ColumnJobName, ColumnStatus)
	for i, line := range lines[1:] {
		fields := strings.Split(line, "|")
		if len(fields) != 4 {
			return nil, NewParseError(TypeGENT, i+2, line, "expected 4 fields separated by |")
		}
		id, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
		if err != nil {
			return nil, NewParseError(TypeGENT, i+2, line, "invalid job id")
		}
		table.Jobs = append(table.Jobs, Job{
			Cluster: cluster,
			JobID:   id,
			User:    fields[1],
			Status:  strings.ToLower(fields[2]),
			JobName: fields[3],
		})
	}
	return table, nil
}
