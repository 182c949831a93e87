package render

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// monoMeasurer gives every rune half the font size.
type monoMeasurer struct{}

func (monoMeasurer) Width(f Font, text string) float64 {
	return float64(len([]rune(text))) * f.Size * 0.5
}

func TestWrap_Law(t *testing.T) {
	m := monoMeasurer{}
	f := Font{"Helvetica", "", 10}

	inputs := []string{
		"",
		"single",
		"KITS, 1st Floor, Mukta Plaza, KITS Square, Income Tax Chowk, Akola",
		"  leading and   irregular\twhitespace\nacross lines  ",
		strings.Repeat("lorem ipsum dolor ", 40),
	}
	widths := []float64{60, 100, 195, 460}

	for _, in := range inputs {
		for _, w := range widths {
			t.Run(fmt.Sprintf("%.0f/%d", w, len(in)), func(t *testing.T) {
				lines := Wrap(m, f, in, w)

				for _, line := range lines {
					assert.LessOrEqual(t, m.Width(f, line), w, "line %q", line)
					assert.NotEmpty(t, line)
				}
				assert.Equal(t, strings.Join(strings.Fields(in), " "), strings.Join(lines, " "))
			})
		}
	}
}

func TestWrap_GreedyFill(t *testing.T) {
	// 5 points per rune: 10 runes per 50 point line.
	lines := Wrap(monoMeasurer{}, Font{Size: 10}, "aaaa bbbb cccc dd e", 50)
	assert.Equal(t, []string{"aaaa bbbb", "cccc dd e"}, lines)
}

func TestWrap_OversizedWordGetsOwnLine(t *testing.T) {
	lines := Wrap(monoMeasurer{}, Font{Size: 10}, "a supercalifragilistic b", 40)
	require.Len(t, lines, 3)
	assert.Equal(t, "supercalifragilistic", lines[1])
}

func TestEllipsize(t *testing.T) {
	m := monoMeasurer{}
	f := Font{Size: 10}

	assert.Equal(t, "short", Ellipsize(m, f, "short", 100))

	got := Ellipsize(m, f, "a very long service description", 60)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, m.Width(f, got), 60.0)
}

func TestChunk_Law(t *testing.T) {
	for rows := 0; rows <= 40; rows++ {
		for k := 1; k <= 7; k++ {
			in := make([]int, rows)
			for i := range in {
				in[i] = i
			}

			chunks := Chunk(in, k)

			assert.Len(t, chunks, (rows+k-1)/k, "R=%d K=%d", rows, k)
			var flat []int
			for _, c := range chunks {
				assert.NotEmpty(t, c)
				assert.LessOrEqual(t, len(c), k)
				flat = append(flat, c...)
			}
			if rows == 0 {
				assert.Empty(t, flat)
			} else {
				assert.Equal(t, in, flat)
			}
		}
	}
}

func TestRowsPerPage(t *testing.T) {
	assert.Equal(t, 15, RowsPerPage(271.9, 18))
	assert.Equal(t, 1, RowsPerPage(5, 18))
	assert.Equal(t, 1, RowsPerPage(100, 0))
}
