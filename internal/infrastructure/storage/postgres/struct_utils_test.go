package postgres

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"loomledger/internal/core/entity"
)

type mockEntity struct {
	entity.Base
	Name     string          `db:"name" json:"name"`
	WeightKg decimal.Decimal `db:"weight_kg" json:"weightKg"`
	Skipped  string          `db:"-" json:"-"`
	NoTag    string
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[mockEntity]()

	expected := []string{"id", "version", "created_at", "updated_at", "name", "weight_kg"}
	for _, c := range expected {
		assert.Contains(t, cols, c)
	}
	assert.NotContains(t, cols, "-")
	assert.Len(t, cols, len(expected))
}

func TestStructToMap(t *testing.T) {
	e := mockEntity{
		Base:     entity.NewBase(),
		Name:     "Shakti Knits",
		WeightKg: decimal.NewFromInt(160),
		Skipped:  "ignored",
		NoTag:    "ignored",
	}

	m := StructToMap(e)

	assert.Equal(t, e.ID, m["id"])
	assert.Equal(t, e.Version, m["version"])
	assert.Equal(t, "Shakti Knits", m["name"])
	assert.Equal(t, e.WeightKg, m["weight_kg"])
	assert.NotContains(t, m, "-")
	assert.Len(t, m, 6)
}

func TestStructToMap_PointerInput(t *testing.T) {
	e := &mockEntity{Base: entity.NewBase(), Name: "Rainbow Dyeing"}

	m := StructToMap(e)
	assert.Equal(t, "Rainbow Dyeing", m["name"])
}
