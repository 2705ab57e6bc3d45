package scheduler

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrNotImplemented indicates the scheduler does not support the operation
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnknownType indicates an unsupported queue_type
	ErrUnknownType = errors.New("unknown queue type")

	// ErrJobIDParseFailed indicates parsing job ID from output failed
	ErrJobIDParseFailed = errors.New("failed to parse job ID from scheduler output")

	// ErrStatusParseFailed indicates the queue status output could not be read
	ErrStatusParseFailed = errors.New("failed to parse queue status output")

	// ErrTooManyClusters indicates a cluster index that does not fit the job id encoding
	ErrTooManyClusters = errors.New("at most 10 clusters are supported")
)

// ParseError represents an error parsing scheduler output
type ParseError struct {
	Scheduler Type   // Scheduler that produced the output
	Line      int    // Line number where error occurred
	Content   string // Line content
	Reason    string // Reason for parse failure
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s parse error at line %d (%s): %s",
			e.Scheduler, e.Line, e.Content, e.Reason)
	}
	return fmt.Sprintf("%s parse error: %s", e.Scheduler, e.Reason)
}

// Is lets errors.Is match ParseError against ErrStatusParseFailed
func (e *ParseError) Is(target error) bool {
	return target == ErrStatusParseFailed
}

// NewParseError creates a new ParseError
func NewParseError(scheduler Type, line int, content string, reason string) *ParseError {
	return &ParseError{
		Scheduler: scheduler,
		Line:      line,
		Content:   content,
		Reason:    reason,
	}
}

// IsParseError checks if an error is a ParseError
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

func jobIDError(t Type, out string) error {
	return fmt.Errorf("%w (%s): %q", ErrJobIDParseFailed, t, out)
}
