package normalize

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrMissingCommand is returned when a job is submitted without a command.
var ErrMissingCommand = errors.New("command cannot be empty")

var memorySpecRe = regexp.MustCompile(`^([0-9]+)([bBkKmMgGtT]?)$`)

var magnitudes = map[string]int{"b": 0, "k": 1, "m": 2, "g": 3, "t": 4}

// Limits are the per-queue bounds; unset fields do not constrain.
type Limits struct {
	CoresMin   Quantity
	CoresMax   Quantity
	RunTimeMax Quantity
	MemoryMax  Quantity
}

// IsMemoryString reports whether s is "<digits>" with an optional b/k/m/g/t unit.
func IsMemoryString(s string) bool {
	return memorySpecRe.MatchString(s)
}

// MemoryToValue converts a memory string into targetUnit. A bare integer is
// read in defaultUnit. The second result is false when s is not a memory string.
func MemoryToValue(s, defaultUnit, targetUnit string) (float64, bool) {
	m := memorySpecRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	unit := strings.ToLower(m[2])
	if unit == "" {
		unit = strings.ToLower(defaultUnit)
	}
	from, ok := magnitudes[unit]
	if !ok {
		return 0, false
	}
	to, ok := magnitudes[strings.ToLower(targetUnit)]
	if !ok {
		return 0, false
	}
	return n * math.Pow(1024, float64(from)) / math.Pow(1024, float64(to)), true
}

// InRange clamps value into [min, max].
//
// An unset value takes min, then max. Integers compare as plain numbers while
// memory strings compare in bytes, with a bare numeric string read as
// megabytes. A clamp returns the bound exactly as configured. Operands that
// are not comparable (for example "1GB") skip that comparison.
func InRange(value, min, max Quantity) Quantity {
	if !value.IsSet() {
		if min.IsSet() {
			return min
		}
		if max.IsSet() {
			return max
		}
		return value
	}
	v, ok := value.comparable()
	if !ok {
		return value
	}
	if lo, ok := min.comparable(); ok && v < lo {
		return min
	}
	if hi, ok := max.comparable(); ok && v > hi {
		return max
	}
	return value
}

// CheckQueueParameters applies the queue limits: cores within
// [CoresMin, CoresMax], run time and memory capped from above only.
func CheckQueueParameters(limits Limits, cores, runTime, memory Quantity) (Quantity, Quantity, Quantity) {
	cores = InRange(cores, limits.CoresMin, limits.CoresMax)
	runTime = InRange(runTime, Unset(), limits.RunTimeMax)
	memory = InRange(memory, Unset(), limits.MemoryMax)
	return cores, runTime, memory
}

// RequireCommand fails fast on an empty job command.
func RequireCommand(command string) error {
	if strings.TrimSpace(command) == "" {
		return ErrMissingCommand
	}
	return nil
}
