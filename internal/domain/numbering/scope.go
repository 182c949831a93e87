// Package numbering derives invoice numbers of the form PREFIX-SCOPE-NNN.
package numbering

import (
	"strings"
	"unicode"
)

// FallbackScope is used for departments without a known code.
const FallbackScope = "GEN"

// DepartmentCodes maps well-known department identifiers to their scope code.
var DepartmentCodes = map[string]string{
	"robotics":   "ROB",
	"it_arvr":    "IT",
	"3dprinting": "3DP",
}

// ScopeFor returns the scope code for a department identifier.
// A non-empty custom code wins over the built-in table.
func ScopeFor(department, custom string) string {
	if c := strings.ToUpper(strings.TrimSpace(custom)); c != "" {
		return c
	}
	if c, ok := DepartmentCodes[strings.ToLower(strings.TrimSpace(department))]; ok {
		return c
	}
	return FallbackScope
}

// CompanyPrefix takes the first three letters of a display name,
// uppercased, with whitespace removed. "abc robotics" -> "ABC".
func CompanyPrefix(name string) string {
	var b strings.Builder
	n := 0
	for _, r := range name {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
		n++
		if n == 3 {
			break
		}
	}
	return b.String()
}
