package scheduler

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const f58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// f58Prefixes mark base58 Flux ids. Terminals without UTF-8 use a plain "f".
var f58Prefixes = []string{"ƒ", "f"}

// ParseFluxJobID decodes a Flux job id in any of the encodings printed by
// flux tools: f58 ("ƒWZEQa8X"), decimal, hex ("0x..."), dotted hex
// ("0000.0106.0000.0000") and KVS path ("job.0000.0106.0000.0000").
func ParseFluxJobID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty flux job id", ErrJobIDParseFailed)
	}

	for _, prefix := range f58Prefixes {
		if strings.HasPrefix(s, prefix) {
			return decodeF58(strings.TrimPrefix(s, prefix))
		}
	}

	switch {
	case strings.HasPrefix(s, "0x"):
		return parseFluxUint(s[2:], 16, s)
	case strings.HasPrefix(s, "job."):
		return decodeDotHex(strings.TrimPrefix(s, "job."), s)
	case strings.Contains(s, "."):
		return decodeDotHex(s, s)
	}
	return parseFluxUint(s, 10, s)
}

// FormatFluxJobID renders id in the f58 form flux prints by default.
func FormatFluxJobID(id int64) string {
	if id == 0 {
		return "ƒ1"
	}
	var digits []byte
	n := uint64(id)
	for n > 0 {
		digits = append(digits, f58Alphabet[n%58])
		n /= 58
	}
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	return "ƒ" + string(digits)
}

func decodeF58(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty f58 job id", ErrJobIDParseFailed)
	}
	var n uint64
	for _, r := range s {
		digit := strings.IndexRune(f58Alphabet, r)
		if digit < 0 {
			return 0, fmt.Errorf("%w: invalid f58 digit %q in %q", ErrJobIDParseFailed, r, s)
		}
		if n > (math.MaxInt64-uint64(digit))/58 {
			return 0, fmt.Errorf("%w: f58 job id %q overflows", ErrJobIDParseFailed, s)
		}
		n = n*58 + uint64(digit)
	}
	return int64(n), nil
}

func decodeDotHex(s, orig string) (int64, error) {
	groups := strings.Split(s, ".")
	if len(groups) != 4 {
		return 0, fmt.Errorf("%w: %q is not dotted hex", ErrJobIDParseFailed, orig)
	}
	var n uint64
	for _, g := range groups {
		v, err := strconv.ParseUint(g, 16, 16)
		if err != nil || len(g) != 4 {
			return 0, fmt.Errorf("%w: %q is not dotted hex", ErrJobIDParseFailed, orig)
		}
		n = n<<16 | v
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q overflows", ErrJobIDParseFailed, orig)
	}
	return int64(n), nil
}

func parseFluxUint(s string, base int, orig string) (int64, error) {
	n, err := strconv.ParseInt(s, base, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrJobIDParseFailed, orig)
	}
	return n, nil
}
