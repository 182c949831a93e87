package invoice

import (
	"github.com/shopspring/decimal"

	"invoicer/internal/core/money"
)

// DefaultCombinedRate is the nominal GST rate (percent) charged when both
// components are selected. Each component alone charges half of it.
const DefaultCombinedRate = 18

var hundred = decimal.NewFromInt(100)

// Totals is the outcome of a tax computation.
type Totals struct {
	Subtotal   money.Money
	TaxRate    money.Money
	TaxAmount  money.Money
	FinalTotal money.Money
}

// TaxEngine computes GST for a subtotal.
type TaxEngine struct {
	combined money.Money
}

// NewTaxEngine creates an engine for a combined rate given in percent.
func NewTaxEngine(combinedRate money.Money) TaxEngine {
	return TaxEngine{combined: combinedRate}
}

// DefaultTaxEngine uses DefaultCombinedRate.
func DefaultTaxEngine() TaxEngine {
	return NewTaxEngine(decimal.NewFromInt(DefaultCombinedRate))
}

// CombinedRate returns the configured rate for both components.
func (e TaxEngine) CombinedRate() money.Money {
	return e.combined
}

// Rate returns the percentage applied for sel: the combined rate for both
// components, half of it for one, zero for none.
func (e TaxEngine) Rate(sel TaxSelection) money.Money {
	switch {
	case sel.CGST && sel.SGST:
		return e.combined
	case sel.CGST || sel.SGST:
		return e.combined.Div(decimal.NewFromInt(2))
	default:
		return money.Zero()
	}
}

// Compute returns rate, tax and final total for subtotal.
// tax = round(subtotal*rate/100, 2); final = round(subtotal+tax, 2).
func (e TaxEngine) Compute(subtotal money.Money, sel TaxSelection) Totals {
	rate := e.Rate(sel)
	tax := money.Round(subtotal.Mul(rate).Div(hundred))
	return Totals{
		Subtotal:   subtotal,
		TaxRate:    rate,
		TaxAmount:  tax,
		FinalTotal: money.Round(subtotal.Add(tax)),
	}
}

// Label names the applied GST components for display.
func (sel TaxSelection) Label() string {
	switch {
	case sel.CGST && sel.SGST:
		return "CGST + SGST"
	case sel.CGST:
		return "CGST"
	case sel.SGST:
		return "SGST"
	default:
		return "None"
	}
}
