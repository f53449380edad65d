package inventory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountTemplate(t *testing.T) {
	tenantID, warehouseID := uuid.New(), uuid.New()

	t.Run("validates name", func(t *testing.T) {
		_, err := NewCountTemplate(tenantID, warehouseID, "  ", "")
		assert.Error(t, err)
	})

	t.Run("builds count inputs with stock fallback", func(t *testing.T) {
		tpl, err := NewCountTemplate(tenantID, warehouseID, "Cold room", "weekly")
		require.NoError(t, err)

		explicit, fromStock, missing := uuid.New(), uuid.New(), uuid.New()
		_, err = tpl.AddItem(TemplateItemInput{ProductID: explicit, ProductName: "Milk", ExpectedQuantity: decPtr("12"), MinimumQuantity: decPtr("2")})
		require.NoError(t, err)
		_, err = tpl.AddItem(TemplateItemInput{ProductID: fromStock})
		require.NoError(t, err)
		_, err = tpl.AddItem(TemplateItemInput{ProductID: missing, ProductName: "Ice"})
		require.NoError(t, err)

		stock := map[uuid.UUID]StockLevel{
			explicit:  {ProductID: explicit, Quantity: dec("40"), UnitCost: dec("1.2")},
			fromStock: {ProductID: fromStock, ProductName: "Butter", Quantity: dec("7"), UnitCost: dec("3")},
		}
		inputs := tpl.CountItemInputs(stock)

		require.Len(t, inputs, 3)
		assert.True(t, inputs[0].ExpectedQuantity.Equal(dec("12")))
		assert.True(t, inputs[0].UnitCost.Equal(dec("1.2")))
		assert.NotNil(t, inputs[0].MinimumQuantity)
		assert.True(t, inputs[1].ExpectedQuantity.Equal(dec("7")))
		assert.Equal(t, "Butter", inputs[1].ProductName)
		assert.True(t, inputs[2].ExpectedQuantity.IsZero())

		expected := tpl.ExpectedQuantities(stock)
		assert.True(t, expected[fromStock].Equal(dec("7")))
	})

	t.Run("rejects bad lines", func(t *testing.T) {
		tpl, err := NewCountTemplate(tenantID, warehouseID, "T", "")
		require.NoError(t, err)
		p := uuid.New()

		_, err = tpl.AddItem(TemplateItemInput{ProductID: p, MinimumQuantity: decPtr("5"), MaximumQuantity: decPtr("1")})
		assert.Error(t, err)
		_, err = tpl.AddItem(TemplateItemInput{ProductID: p, ExpectedQuantity: decPtr("-1")})
		assert.Error(t, err)
		item, err := tpl.AddItem(TemplateItemInput{ProductID: p})
		require.NoError(t, err)
		_, err = tpl.AddItem(TemplateItemInput{ProductID: p})
		assert.Error(t, err)

		require.NoError(t, tpl.RemoveItem(item.ID))
		assert.Empty(t, tpl.Items)
	})

	t.Run("inactive templates are read only", func(t *testing.T) {
		tpl, err := NewCountTemplate(tenantID, warehouseID, "T", "")
		require.NoError(t, err)
		require.NoError(t, tpl.Deactivate())

		_, err = tpl.AddItem(TemplateItemInput{ProductID: uuid.New()})
		assert.Error(t, err)
		assert.Error(t, tpl.Deactivate())
	})
}

func TestStockLevelAndAdjustment(t *testing.T) {
	ic := pendingCount(t)
	item := &ic.Items[1]
	level, err := NewStockLevel(ic.TenantID, ic.WarehouseID, item.ProductID, item.ProductName, dec("5"), dec("2"))
	require.NoError(t, err)

	before, err := level.AdjustTo(item.ActualQuantity.OrZero())
	require.NoError(t, err)
	adj := NewCountAdjustment(ic, item, level, before, uuid.New())

	assert.True(t, level.Quantity.Equal(dec("8")))
	assert.True(t, adj.Difference.Equal(dec("3")))
	assert.True(t, adj.DifferenceAmount.Equal(dec("6")))
	assert.Equal(t, AdjustmentReasonCount, adj.Reason)

	_, err = level.AdjustTo(dec("-1"))
	assert.Error(t, err)
	_, err = NewStockLevel(ic.TenantID, ic.WarehouseID, uuid.New(), "x", dec("-1"), dec("0"))
	assert.Error(t, err)
}
