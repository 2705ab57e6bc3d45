package scheduler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Column names of a status table, as printed by "qadapter --status".
const (
	ColumnJobID            = "jobid"
	ColumnUser             = "user"
	ColumnJobName          = "jobname"
	ColumnStatus           = "status"
	ColumnWorkingDirectory = "working_directory"
	ColumnCluster          = "cluster"
)

var knownColumns = map[string]bool{
	ColumnJobID:            true,
	ColumnUser:             true,
	ColumnJobName:          true,
	ColumnStatus:           true,
	ColumnWorkingDirectory: true,
	ColumnCluster:          true,
}

// Job is one row of a queue listing.
type Job struct {
	JobID            int64
	User             string
	JobName          string
	Status           string
	WorkingDirectory string
	Cluster          string
}

func (j Job) field(column string) any {
	switch column {
	case ColumnJobID:
		return j.JobID
	case ColumnUser:
		return j.User
	case ColumnJobName:
		return j.JobName
	case ColumnStatus:
		return j.Status
	case ColumnWorkingDirectory:
		return j.WorkingDirectory
	case ColumnCluster:
		return j.Cluster
	}
	return nil
}

func (j *Job) setField(column string, raw json.RawMessage) error {
	if column == ColumnJobID {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return err
		}
		id, err := n.Int64()
		if err != nil {
			return err
		}
		j.JobID = id
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return err
	}
	switch column {
	case ColumnUser:
		j.User = s
	case ColumnJobName:
		j.JobName = s
	case ColumnStatus:
		j.Status = s
	case ColumnWorkingDirectory:
		j.WorkingDirectory = s
	case ColumnCluster:
		j.Cluster = s
	}
	return nil
}

// StatusTable is the parsed queue listing of one scheduler.
// Columns keeps the order in which the scheduler reports its fields.
type StatusTable struct {
	Columns []string
	Jobs    []Job
}

// NewStatusTable creates an empty table with the given columns.
func NewStatusTable(columns ...string) *StatusTable {
	return &StatusTable{Columns: columns, Jobs: []Job{}}
}

// Len returns the number of jobs; a nil table has none.
func (t *StatusTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Jobs)
}

// HasColumn reports whether the table carries the column.
func (t *StatusTable) HasColumn(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Filter returns a new table holding the jobs for which keep returns true.
func (t *StatusTable) Filter(keep func(Job) bool) *StatusTable {
	out := NewStatusTable(t.Columns...)
	for _, job := range t.Jobs {
		if keep(job) {
			out.Jobs = append(out.Jobs, job)
		}
	}
	return out
}

// ForUser keeps the jobs of one user. An empty user keeps everything.
func (t *StatusTable) ForUser(user string) *StatusTable {
	if user == "" {
		return t
	}
	return t.Filter(func(j Job) bool { return j.User == user })
}

// Find returns the first job with the given id.
func (t *StatusTable) Find(id int64) (Job, bool) {
	if t == nil {
		return Job{}, false
	}
	for _, job := range t.Jobs {
		if job.JobID == id {
			return job, true
		}
	}
	return Job{}, false
}

// Append adds the rows of other. Columns missing from t are added at the end.
func (t *StatusTable) Append(other *StatusTable) {
	if other == nil {
		return
	}
	for _, c := range other.Columns {
		if !t.HasColumn(c) {
			t.Columns = append(t.Columns, c)
		}
	}
	t.Jobs = append(t.Jobs, other.Jobs...)
}

// MarshalJSON writes the table as {"column": [values...], ...} in column order.
func (t *StatusTable) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, column := range t.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(column)
		if err != nil {
			return nil, err
		}
		values := make([]any, len(t.Jobs))
		for r, job := range t.Jobs {
			values[r] = job.field(column)
		}
		list, err := json.Marshal(values)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(list)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the column object written by MarshalJSON.
// Unknown columns are ignored; all known columns must have the same length.
func (t *StatusTable) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: expected a JSON object", ErrStatusParseFailed)
	}

	table := StatusTable{Jobs: []Job{}}
	rows := -1
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		column, _ := tok.(string)

		var values []json.RawMessage
		if err := dec.Decode(&values); err != nil {
			return fmt.Errorf("%w: column %s: %v", ErrStatusParseFailed, column, err)
		}
		if !knownColumns[column] {
			continue
		}
		if rows == -1 {
			rows = len(values)
			table.Jobs = make([]Job, rows)
		} else if rows != len(values) {
			return fmt.Errorf("%w: column %s has %d values, expected %d",
				ErrStatusParseFailed, column, len(values), rows)
		}
		for r, raw := range values {
			if err := table.Jobs[r].setField(column, raw); err != nil {
				return fmt.Errorf("%w: column %s row %d: %v", ErrStatusParseFailed, column, r, err)
			}
		}
		table.Columns = append(table.Columns, column)
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return err
	}

	*t = table
	return nil
}
