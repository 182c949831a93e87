package company_repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/domain/company"
	"invoicer/internal/infrastructure/storage/postgres"
)

func TestCompanyRow_ToDomain(t *testing.T) {
	logo := []byte("\x89PNG\r\n\x1a\nlogo-bytes")

	tests := []struct {
		name    string
		logoZst []byte
		want    []byte
	}{
		{"no logo", nil, nil},
		{"stored logo", postgres.CompressBlob(logo), logo},
		{"corrupt logo is dropped", []byte("not zstd at all"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := &companyRow{Company: *company.New("Acme", "billing@acme.test"), LogoZst: tt.logoZst}

			c := row.toDomain(context.Background())
			require.NotNil(t, c)
			assert.Equal(t, "Acme", c.Name)
			assert.Equal(t, tt.want, c.Logo)
		})
	}
}
