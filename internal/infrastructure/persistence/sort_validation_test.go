package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	cases := map[string]string{
		"":          "DESC",
		"asc":       "ASC",
		"  ASC  ":   "ASC",
		"desc":      "DESC",
		"upward":    "DESC",
		"ASC, id":   "DESC",
		"ASC;--":    "DESC",
		"\tasc\n":   "ASC",
		"ascending": "DESC",
	}
	for in, want := range cases {
		assert.Equal(t, want, ValidateSortOrder(in), "order %q", in)
	}
}

func TestValidateSortField_Counts(t *testing.T) {
	t.Run("listed columns pass through", func(t *testing.T) {
		for field := range countSortFields {
			assert.Equal(t, field, ValidateSortField(" "+field+" ", countSortFields, "created_at"))
		}
	})

	t.Run("anything else falls back", func(t *testing.T) {
		for _, field := range []string{
			"",
			"COUNT_NUMBER",
			"tenant_id",
			"conducted_by_name",
			"count_date desc",
			"count_number; DELETE FROM inventory_count_items",
			"(SELECT 1)",
			"variance_count,id",
		} {
			assert.Equal(t, "created_at", ValidateSortField(field, countSortFields, "created_at"), "field %q", field)
		}
	})
}

func TestValidateSortField_Templates(t *testing.T) {
	assert.Equal(t, "name", ValidateSortField("warehouse_id", templateSortFields, "name"))
	assert.Equal(t, "updated_at", ValidateSortField("updated_at", templateSortFields, "name"))
	assert.Empty(t, ValidateSortField("is_active", templateSortFields, ""))
}

func TestSortFieldWhitelists(t *testing.T) {
	for name, whitelist := range map[string]map[string]bool{
		"counts":    countSortFields,
		"templates": templateSortFields,
	} {
		assert.True(t, whitelist["created_at"], name)
		assert.False(t, whitelist["tenant_id"], "%s: tenant scoping column must not be sortable", name)
	}
}
