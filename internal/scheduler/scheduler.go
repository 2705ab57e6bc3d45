// Package scheduler provides a unified interface for HPC job schedulers
package scheduler

import (
	"fmt"
	"sort"
	"strings"
)

// Type represents the type of job scheduler
type Type string

const (
	TypeSGE    Type = "SGE"
	TypeTorque Type = "TORQUE"
	TypeSLURM  Type = "SLURM"
	TypeLSF    Type = "LSF"
	TypeMOAB   Type = "MOAB"
	TypeGENT   Type = "GENT"
	TypeFlux   Type = "FLUX"
	// TypeRemote relays every operation to another host; it has no command table.
	TypeRemote Type = "REMOTE"
)

// Types lists every supported queue_type in a stable order.
func Types() []Type {
	return []Type{TypeSGE, TypeTorque, TypeSLURM, TypeLSF, TypeMOAB, TypeGENT, TypeFlux, TypeRemote}
}

// ParseType converts a queue_type value. Matching ignores case.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Types() {
		if t == known {
			return t, nil
		}
	}
	names := make([]string, 0, len(Types()))
	for _, known := range Types() {
		names = append(names, string(known))
	}
	sort.Strings(names)
	return "", fmt.Errorf("%w: %q (supported: %s)", ErrUnknownType, s, strings.Join(names, ", "))
}

// Normalized job states
const (
	StatusRunning  = "running"
	StatusPending  = "pending"
	StatusError    = "error"
	StatusFinished = "finished"
)

// Commands describes how to drive one scheduler from the command line
// and how to read its answers.
type Commands interface {
	Type() Type

	// SubmitCommand is the program and flags used to submit a script.
	SubmitCommand() []string

	// DeleteCommand cancels a job; the job id is appended.
	DeleteCommand() []string

	// StatusCommand lists the queue.
	StatusCommand() []string

	// ReservationCommand enables a reservation for a job; the job id is appended.
	// Returns ErrNotImplemented when the scheduler has no such command.
	ReservationCommand() ([]string, error)

	// Dependencies converts job ids into submit flags.
	// An empty list yields no flags.
	Dependencies(ids []string) ([]string, error)

	// JobIDFromOutput reads the job id printed by the submit command.
	JobIDFromOutput(out string) (int64, error)

	// ParseStatus converts the output of the status command.
	// A nil table means the output carried no job rows at all.
	ParseStatus(out string) (*StatusTable, error)

	// DefaultTemplate is the submission script used without a queue config.
	DefaultTemplate() string
}

// noDependencies is shared by schedulers that cannot chain jobs.
func noDependencies(ids []string) ([]string, error) {
	if len(ids) > 0 {
		return nil, fmt.Errorf("%w: job dependencies", ErrNotImplemented)
	}
	return nil, nil
}

// lastLine returns the last non-empty line of out, trimmed.
func lastLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// splitLines returns the trimmed non-empty lines of out.
func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// mapStatus translates a native state code; unknown codes pass through.
func mapStatus(code string, table map[string]string) string {
	if status, ok := table[code]; ok {
		return status
	}
	return code
}
