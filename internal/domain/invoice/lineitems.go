package invoice

import (
	"fmt"
	"strconv"
	"strings"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/money"
)

// Policy decides what happens to malformed line item rows.
type Policy string

const (
	// PolicyStrict rejects the whole submission at the first malformed row.
	PolicyStrict Policy = "strict"
	// PolicyPermissive drops malformed rows and keeps the rest.
	PolicyPermissive Policy = "permissive"
)

// ParsePolicy validates a configured policy name.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyStrict:
		return PolicyStrict, nil
	case PolicyPermissive:
		return PolicyPermissive, nil
	}
	return "", fmt.Errorf("unknown line item policy %q", s)
}

// RawLines are the parallel form arrays of a submission.
type RawLines struct {
	Names      []string
	Quantities []string
	Prices     []string
}

// Normalized is the outcome of Normalize.
type Normalized struct {
	Items    []LineItem
	Subtotal money.Money
	// Skipped lists the 1-based row numbers dropped by the permissive policy.
	Skipped []int
}

// Normalizer converts raw rows into line items.
type Normalizer struct {
	policy Policy
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(policy Policy) Normalizer {
	return Normalizer{policy: policy}
}

// Policy returns the configured policy.
func (n Normalizer) Policy() Policy {
	return n.policy
}

// Normalize parses every row. Rows whose three fields are all blank are
// unused form slots and are ignored under both policies.
func (n Normalizer) Normalize(raw RawLines) (Normalized, error) {
	if len(raw.Names) != len(raw.Quantities) || len(raw.Names) != len(raw.Prices) {
		return Normalized{}, apperror.NewValidation("line item fields have different lengths").
			WithDetail("names", len(raw.Names)).
			WithDetail("quantities", len(raw.Quantities)).
			WithDetail("prices", len(raw.Prices))
	}

	out := Normalized{Subtotal: money.Zero()}
	for i := range raw.Names {
		row := i + 1
		if isBlankRow(raw.Names[i], raw.Quantities[i], raw.Prices[i]) {
			continue
		}

		item, err := parseRow(raw.Names[i], raw.Quantities[i], raw.Prices[i])
		if err != nil {
			if n.policy == PolicyPermissive {
				out.Skipped = append(out.Skipped, row)
				continue
			}
			return Normalized{}, apperror.NewValidation(fmt.Sprintf("line item %d: %v", row, err)).
				WithDetail("row", row)
		}

		item.LineNo = len(out.Items) + 1
		out.Items = append(out.Items, item)
		out.Subtotal = out.Subtotal.Add(item.Total)
	}
	return out, nil
}

func parseRow(name, qty, price string) (LineItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return LineItem{}, fmt.Errorf("name is required")
	}
	q, err := strconv.ParseInt(strings.TrimSpace(qty), 10, 64)
	if err != nil || q < 0 {
		return LineItem{}, fmt.Errorf("quantity %q is not a non-negative integer", qty)
	}
	p, err := money.ParseNonNegative(price)
	if err != nil {
		return LineItem{}, fmt.Errorf("unit price: %w", err)
	}
	p = money.Round(p)
	return LineItem{
		Name:      name,
		Quantity:  q,
		UnitPrice: p,
		Total:     money.Round(p.Mul(money.NewFromInt(q))),
	}, nil
}

func isBlankRow(fields ...string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
