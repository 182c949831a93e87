package render

import "strings"

// Wrap breaks text into lines no wider than maxWidth using greedy word
// filling. Whitespace is normalized to single spaces. A word that is wider
// than maxWidth on its own gets a line of its own.
func Wrap(m Measurer, f Font, text string, maxWidth float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, w := range words[1:] {
		candidate := current + " " + w
		if m.Width(f, candidate) <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = w
	}
	return append(lines, current)
}

// Ellipsize shortens text with a trailing "..." until it fits maxWidth.
func Ellipsize(m Measurer, f Font, text string, maxWidth float64) string {
	if m.Width(f, text) <= maxWidth {
		return text
	}
	const dots = "..."
	r := []rune(text)
	for len(r) > 0 {
		r = r[:len(r)-1]
		s := strings.TrimRight(string(r), " ") + dots
		if m.Width(f, s) <= maxWidth {
			return s
		}
	}
	return dots
}
