package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"invoicer/internal/core/money"
)

func TestTaxEngine_Compute(t *testing.T) {
	engine := DefaultTaxEngine()

	tests := []struct {
		name     string
		subtotal string
		sel      TaxSelection
		rate     string
		tax      string
		final    string
	}{
		{"both components", "1000", TaxSelection{CGST: true, SGST: true}, "18", "180.00", "1180.00"},
		{"cgst only", "500", TaxSelection{CGST: true}, "9", "45.00", "545.00"},
		{"sgst only", "500", TaxSelection{SGST: true}, "9", "45.00", "545.00"},
		{"no tax", "750.50", TaxSelection{}, "0", "0.00", "750.50"},
		{"rounds half up", "0.25", TaxSelection{CGST: true}, "9", "0.02", "0.27"},
		{"rounds tax to cents", "333.33", TaxSelection{CGST: true, SGST: true}, "18", "60.00", "393.33"},
		{"zero subtotal", "0", TaxSelection{CGST: true, SGST: true}, "18", "0.00", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Compute(money.MustParse(tt.subtotal), tt.sel)

			assert.True(t, got.TaxRate.Equal(money.MustParse(tt.rate)), "rate %s", got.TaxRate)
			assert.Equal(t, tt.tax, got.TaxAmount.StringFixed(2))
			assert.Equal(t, tt.final, got.FinalTotal.StringFixed(2))
			assert.True(t, got.FinalTotal.Equal(got.Subtotal.Add(got.TaxAmount)))
		})
	}
}

func TestTaxEngine_ConfiguredRate(t *testing.T) {
	engine := NewTaxEngine(money.MustParse("12"))

	assert.True(t, engine.Rate(TaxSelection{CGST: true, SGST: true}).Equal(money.MustParse("12")))
	assert.True(t, engine.Rate(TaxSelection{SGST: true}).Equal(money.MustParse("6")))
	assert.True(t, engine.Rate(TaxSelection{}).IsZero())

	got := engine.Compute(money.MustParse("200"), TaxSelection{CGST: true})
	assert.Equal(t, "12.00", got.TaxAmount.StringFixed(2))
}

func TestTaxSelection_Label(t *testing.T) {
	assert.Equal(t, "CGST + SGST", TaxSelection{CGST: true, SGST: true}.Label())
	assert.Equal(t, "CGST", TaxSelection{CGST: true}.Label())
	assert.Equal(t, "SGST", TaxSelection{SGST: true}.Label())
	assert.Equal(t, "None", TaxSelection{}.Label())
}
