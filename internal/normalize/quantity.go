// Package normalize clamps requested job resources against queue limits.
package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type kind uint8

const (
	kindUnset kind = iota
	kindInt
	kindString
)

// Quantity is a resource amount that is unset, a plain integer, or a string
// such as "60000M". It keeps its original form so a clamped result can be
// reported exactly as the bound was written in the queue configuration.
type Quantity struct {
	kind kind
	n    int64
	s    string
}

// Int returns an integer quantity.
func Int(n int64) Quantity { return Quantity{kind: kindInt, n: n} }

// Str returns a string quantity.
func Str(s string) Quantity { return Quantity{kind: kindString, s: s} }

// Unset returns the empty quantity.
func Unset() Quantity { return Quantity{} }

// FromAny converts a decoded YAML/JSON scalar. nil is unset.
func FromAny(v any) (Quantity, error) {
	switch x := v.(type) {
	case nil:
		return Unset(), nil
	case Quantity:
		return x, nil
	case int:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		if x > math.MaxInt64 {
			return Unset(), fmt.Errorf("quantity %d overflows int64", x)
		}
		return Int(int64(x)), nil
	case float64:
		if x != math.Trunc(x) {
			return Unset(), fmt.Errorf("quantity %v is not an integer", x)
		}
		return Int(int64(x)), nil
	case string:
		return Str(x), nil
	default:
		return Unset(), fmt.Errorf("unsupported quantity type %T", v)
	}
}

// ParseInt reads a command-line value: digits become an integer quantity,
// anything else stays a string, and "" is unset.
func ParseInt(s string) Quantity {
	s = strings.TrimSpace(s)
	if s == "" {
		return Unset()
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(n)
	}
	return Str(s)
}

// IsSet reports whether the quantity carries a value.
func (q Quantity) IsSet() bool { return q.kind != kindUnset }

// IsString reports whether the quantity was given as a string.
func (q Quantity) IsString() bool { return q.kind == kindString }

// Int64 returns the integer form. Strings holding a bare integer convert too.
func (q Quantity) Int64() (int64, bool) {
	switch q.kind {
	case kindInt:
		return q.n, true
	case kindString:
		n, err := strconv.ParseInt(strings.TrimSpace(q.s), 10, 64)
		return n, err == nil
	}
	return 0, false
}

// Value is the template and JSON form: nil, int64 or string.
func (q Quantity) Value() any {
	switch q.kind {
	case kindInt:
		return q.n
	case kindString:
		return q.s
	}
	return nil
}

// String renders the quantity as it was given; unset renders as "".
func (q Quantity) String() string {
	switch q.kind {
	case kindInt:
		return strconv.FormatInt(q.n, 10)
	case kindString:
		return q.s
	}
	return ""
}

// Equal compares kind and value.
func (q Quantity) Equal(o Quantity) bool {
	return q.kind == o.kind && q.n == o.n && q.s == o.s
}

// comparable returns the numeric form used for range checks. Integers
// compare as-is; memory strings are converted to bytes.
func (q Quantity) comparable() (float64, bool) {
	switch q.kind {
	case kindInt:
		return float64(q.n), true
	case kindString:
		return MemoryToValue(q.s, "m", "b")
	}
	return 0, false
}
