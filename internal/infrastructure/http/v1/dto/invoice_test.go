package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckbox(t *testing.T) {
	for _, v := range []string{"on", "true", "1", "YES", " on "} {
		var b Checkbox
		require.NoError(t, b.UnmarshalParam(v))
		assert.True(t, bool(b), v)
	}
	var b Checkbox = true
	require.NoError(t, b.UnmarshalParam("off"))
	assert.False(t, bool(b))

	var req struct {
		A Checkbox `json:"a"`
		B Checkbox `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":true,"b":"on"}`), &req))
	assert.True(t, bool(req.A))
	assert.True(t, bool(req.B))
	assert.Error(t, json.Unmarshal([]byte(`{"a":5}`), &req))
}

func TestInvoiceRequest_ToSubmission(t *testing.T) {
	t.Run("form arrays", func(t *testing.T) {
		r := InvoiceRequest{
			ClientName:   "Globex",
			Departments:  []string{"ops, hr", "", "fin"},
			ServiceNames: []string{"Audit"},
			Quantities:   []string{"2"},
			Amounts:      []string{"10.50"},
		}
		sub := r.ToSubmission()
		assert.Equal(t, []string{"ops", "hr", "fin"}, sub.Departments)
		assert.Equal(t, []string{"Audit"}, sub.Lines.Names)
		assert.Equal(t, []string{"10.50"}, sub.Lines.Prices)
	})

	t.Run("json items win over form arrays", func(t *testing.T) {
		var r InvoiceRequest
		require.NoError(t, json.Unmarshal([]byte(`{
			"clientName": "Globex",
			"sgst": true,
			"lineItems": [{"name": "Audit", "quantity": 3, "unitPrice": 12.5}]
		}`), &r))
		r.ServiceNames = []string{"ignored"}

		sub := r.ToSubmission()
		assert.True(t, sub.Tax.SGST)
		assert.Equal(t, []string{"Audit"}, sub.Lines.Names)
		assert.Equal(t, []string{"3"}, sub.Lines.Quantities)
		assert.Equal(t, []string{"12.5"}, sub.Lines.Prices)
	})
}
