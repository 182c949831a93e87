package numerator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSerial(t *testing.T) {
	k := Key{Prefix: "ABC", Scope: "ROB"}

	tests := []struct {
		number string
		want   int64
		ok     bool
	}{
		{"ABC-ROB-001", 1, true},
		{"ABC-ROB-042", 42, true},
		{"ABC-ROB-1234", 1234, true},
		{"ABC-ROB-+05", 0, false},
		{"ABC-ROB--05", 0, false},
		{"ABC-ROB- 05", 0, false},
		{"ABC-ROB-0x1", 0, false},
		{"ABC-ROB-01", 0, false},
		{"ABC-IT-001", 0, false},
		{"ABC-ROB-", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			got, ok := ParseSerial(k, tt.number)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_RoundTrips(t *testing.T) {
	k := Key{Prefix: "ACM", Scope: "GEN"}
	n := Format(k, 7, 0)
	assert.Equal(t, "ACM-GEN-007", n)

	serial, ok := ParseSerial(k, n)
	assert.True(t, ok)
	assert.Equal(t, int64(7), serial)
}
