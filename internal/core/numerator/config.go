// Package numerator provides domain contracts for invoice auto-numbering.
package numerator

import (
	"fmt"
	"strconv"
	"strings"
)

// Strategy defines how the next serial of a scope is obtained.
type Strategy string

const (
	// StrategyCounter advances a stored per-scope counter atomically.
	// Concurrent allocations in one scope never receive the same serial.
	StrategyCounter Strategy = "counter"

	// StrategyScan derives the serial from the highest existing number in
	// the scope. Two concurrent allocations can observe the same maximum,
	// so it is kept for previews and legacy data only.
	StrategyScan Strategy = "scan"
)

// ParseStrategy validates a configured strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyCounter:
		return StrategyCounter, nil
	case StrategyScan:
		return StrategyScan, nil
	}
	return "", fmt.Errorf("unknown numbering strategy %q", s)
}

// DefaultPadWidth is the minimum number of serial digits.
const DefaultPadWidth = 3

// Separator joins prefix, scope and serial.
const Separator = "-"

// Key identifies one independently numbered sequence.
type Key struct {
	// OwnerID is the company the sequence belongs to.
	OwnerID string
	// Prefix is the company-level part, e.g. "ABC".
	Prefix string
	// Scope is the department code, e.g. "ROB".
	Scope string
}

// Stem returns "PREFIX-SCOPE", the part shared by every number in the key.
func (k Key) Stem() string {
	return k.Prefix + Separator + k.Scope
}

// Format renders a full invoice number, e.g. "ABC-ROB-007".
func Format(k Key, serial int64, padWidth int) string {
	if padWidth <= 0 {
		padWidth = DefaultPadWidth
	}
	return fmt.Sprintf("%s%s%0*d", k.Stem(), Separator, padWidth, serial)
}

// ParseSerial extracts the serial of number when it belongs to k.
// Numbers of other scopes and malformed suffixes report ok=false.
func ParseSerial(k Key, number string) (serial int64, ok bool) {
	stem := k.Stem() + Separator
	if !strings.HasPrefix(number, stem) {
		return 0, false
	}
	suffix := number[len(stem):]
	if len(suffix) < DefaultPadWidth {
		return 0, false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	v, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
