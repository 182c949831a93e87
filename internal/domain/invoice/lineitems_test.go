package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/core/apperror"
	"invoicer/internal/core/money"
)

func TestNormalize_ComputesTotals(t *testing.T) {
	n := NewNormalizer(PolicyStrict)

	got, err := n.Normalize(RawLines{
		Names:      []string{" Arduino kit ", "Sensor"},
		Quantities: []string{"3", "2"},
		Prices:     []string{"499.99", "10.005"},
	})
	require.NoError(t, err)
	require.Len(t, got.Items, 2)

	assert.Equal(t, "Arduino kit", got.Items[0].Name)
	assert.Equal(t, 1, got.Items[0].LineNo)
	assert.Equal(t, "1499.97", got.Items[0].Total.StringFixed(2))
	assert.Equal(t, 2, got.Items[1].LineNo)
	assert.Equal(t, "10.01", got.Items[1].UnitPrice.String())
	assert.Equal(t, "20.02", got.Items[1].Total.StringFixed(2))
	assert.Equal(t, "1519.99", got.Subtotal.StringFixed(2))
	assert.Empty(t, got.Skipped)
}

func TestNormalize_IgnoresBlankRows(t *testing.T) {
	for _, policy := range []Policy{PolicyStrict, PolicyPermissive} {
		t.Run(string(policy), func(t *testing.T) {
			got, err := NewNormalizer(policy).Normalize(RawLines{
				Names:      []string{"Service", "", "  "},
				Quantities: []string{"1", "", ""},
				Prices:     []string{"100", "", " "},
			})
			require.NoError(t, err)
			assert.Len(t, got.Items, 1)
			assert.Empty(t, got.Skipped)
		})
	}
}

func TestNormalize_MalformedRows(t *testing.T) {
	raw := RawLines{
		Names:      []string{"Good", "Bad qty", "Neg price", "", "Frac qty", "Also good"},
		Quantities: []string{"2", "two", "1", "3", "1.5", "1"},
		Prices:     []string{"50", "10", "-1", "5", "10", "25.50"},
	}

	t.Run("strict rejects", func(t *testing.T) {
		_, err := NewNormalizer(PolicyStrict).Normalize(raw)
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))

		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, 2, appErr.Details["row"])
	})

	t.Run("permissive skips", func(t *testing.T) {
		got, err := NewNormalizer(PolicyPermissive).Normalize(raw)
		require.NoError(t, err)
		require.Len(t, got.Items, 2)
		assert.Equal(t, []int{2, 3, 4, 5}, got.Skipped)
		assert.Equal(t, "Also good", got.Items[1].Name)
		assert.Equal(t, 2, got.Items[1].LineNo)
		assert.Equal(t, "125.50", got.Subtotal.StringFixed(2))
	})
}

func TestNormalize_ZeroQuantityAllowed(t *testing.T) {
	got, err := NewNormalizer(PolicyStrict).Normalize(RawLines{
		Names:      []string{"Free sample"},
		Quantities: []string{"0"},
		Prices:     []string{"99"},
	})
	require.NoError(t, err)
	assert.True(t, got.Items[0].Total.IsZero())
}

func TestNormalize_UnitPriceMatchesStoredPrecision(t *testing.T) {
	got, err := NewNormalizer(PolicyStrict).Normalize(RawLines{
		Names:      []string{"Resistor", "Capacitor", "Board"},
		Quantities: []string{"3", "7", "1"},
		Prices:     []string{"0.125", "0.3333", "12.5"},
	})
	require.NoError(t, err)
	require.Len(t, got.Items, 3)

	for _, li := range got.Items {
		assert.LessOrEqual(t, -li.UnitPrice.Exponent(), int32(2), li.Name)
		qty := money.NewFromInt(li.Quantity)
		assert.True(t, li.Total.Equal(money.Round(li.UnitPrice.Mul(qty))), li.Name)
	}
	assert.Equal(t, "0.13", got.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "0.39", got.Items[0].Total.StringFixed(2))
	assert.Equal(t, "2.31", got.Items[1].Total.StringFixed(2))
	assert.Equal(t, "15.20", got.Subtotal.StringFixed(2))
}

func TestNormalize_LengthMismatch(t *testing.T) {
	_, err := NewNormalizer(PolicyPermissive).Normalize(RawLines{
		Names:      []string{"a", "b"},
		Quantities: []string{"1"},
		Prices:     []string{"1", "2"},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy(" Permissive ")
	require.NoError(t, err)
	assert.Equal(t, PolicyPermissive, p)

	_, err = ParsePolicy("lenient")
	assert.Error(t, err)
}
