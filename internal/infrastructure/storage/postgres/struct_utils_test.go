package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"invoicer/internal/core/entity"
	"invoicer/internal/core/id"
	"invoicer/internal/domain/company"
	"invoicer/internal/domain/invoice"
)

type sample struct {
	entity.BaseEntity
	Code   string `db:"code"`
	Name   string `db:"name"`
	Hidden []byte `db:"-"`
	Plain  string
}

func TestColumns(t *testing.T) {
	assert.Equal(t,
		[]string{"id", "version", "created_at", "updated_at", "code", "name"},
		Columns[sample]())
}

func TestColumns_FlattensNestedEmbeds(t *testing.T) {
	cols := Columns[invoice.Invoice]()

	for _, c := range []string{"id", "company_id", "number", "client_name", "purchase_order", "cgst", "sgst", "final_total"} {
		assert.Contains(t, cols, c)
	}
	assert.NotContains(t, cols, "-")
}

func TestColumnsExcept(t *testing.T) {
	cols := ColumnsExcept[company.Company]("password_hash")
	assert.Contains(t, cols, "login_email")
	assert.NotContains(t, cols, "password_hash")
}

func TestStructToMap(t *testing.T) {
	now := time.Now().UTC()
	s := sample{
		BaseEntity: entity.BaseEntity{ID: id.New(), Version: 5, CreatedAt: now},
		Code:       "RBT",
		Name:       "Robotics",
		Hidden:     []byte("x"),
	}

	m := StructToMap(&s)

	assert.Equal(t, s.ID, m["id"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, now, m["created_at"])
	assert.Equal(t, "RBT", m["code"])
	assert.Len(t, m, 6)
	assert.Nil(t, StructToMap(42))
}

func TestPick(t *testing.T) {
	m := map[string]any{"a": 1, "b": 2, "c": 3}
	assert.Equal(t, map[string]any{"a": 1, "c": 3}, Pick(m, []string{"a", "c", "z"}))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now`, EscapeLike("50% off_now"))
	assert.Equal(t, `a\\b`, EscapeLike(`a\b`))
	assert.Equal(t, "ACM-ROB", EscapeLike("ACM-ROB"))
}
