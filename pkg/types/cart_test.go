package types

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func assertTotalIsFold(t *testing.T, cart Cart) {
	t.Helper()
	want := 0
	for _, line := range cart.Lines {
		want += line.UnitPriceCents * line.Quantity
	}
	assert.Equal(t, want, cart.TotalCents, "total must equal the fold over lines")
}

func TestAddLineMergesUncustomizedDuplicates(t *testing.T) {
	itemID := uuid.New()
	cart := Cart{}

	cart.AddLine(CartLine{MenuItemID: itemID, Name: "Chips", UnitPriceCents: 300, Quantity: 2})
	cart.AddLine(CartLine{MenuItemID: itemID, Name: "Chips", UnitPriceCents: 300, Quantity: 1})

	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 3, cart.Lines[0].Quantity)
	assert.Equal(t, 900, cart.TotalCents)
	assertTotalIsFold(t, cart)
}

func TestAddLineCustomizationForcesNewLine(t *testing.T) {
	itemID := uuid.New()
	cart := Cart{}

	cart.AddLine(CartLine{MenuItemID: itemID, Name: "Burger", UnitPriceCents: 500, Quantity: 1})
	cart.AddLine(CartLine{
		MenuItemID:     itemID,
		Name:           "Burger",
		UnitPriceCents: 650,
		Quantity:       1,
		VariantName:    strPtr("Large"),
	})
	// instructions alone also count as customization
	cart.AddLine(CartLine{
		MenuItemID:     itemID,
		Name:           "Burger",
		UnitPriceCents: 500,
		Quantity:       1,
		Instructions:   "no onions",
	})

	require.Len(t, cart.Lines, 3)
	assertTotalIsFold(t, cart)
}

func TestAddLineDoesNotMergeIntoCustomizedLine(t *testing.T) {
	itemID := uuid.New()
	cart := Cart{}

	cart.AddLine(CartLine{
		MenuItemID:     itemID,
		Name:           "Latte",
		UnitPriceCents: 450,
		Quantity:       1,
		Addons:         []AddonSelection{{AddonID: uuid.New(), Name: "Extra shot", PriceCents: 50}},
	})
	cart.AddLine(CartLine{MenuItemID: itemID, Name: "Latte", UnitPriceCents: 400, Quantity: 1})

	require.Len(t, cart.Lines, 2)
	assertTotalIsFold(t, cart)
}

func TestSetQuantityRecomputesTotal(t *testing.T) {
	cart := Cart{}
	cart.AddLine(CartLine{MenuItemID: uuid.New(), Name: "A", UnitPriceCents: 500, Quantity: 2})
	cart.AddLine(CartLine{MenuItemID: uuid.New(), Name: "B", UnitPriceCents: 300, Quantity: 1})

	require.NoError(t, cart.SetQuantity(1, 5))
	assert.Equal(t, 5*500+300, cart.TotalCents)
	assertTotalIsFold(t, cart)
}

func TestSetQuantityBounds(t *testing.T) {
	cart := Cart{}
	cart.AddLine(CartLine{MenuItemID: uuid.New(), Name: "A", UnitPriceCents: 500, Quantity: 2})

	assert.Error(t, cart.SetQuantity(1, 0))
	assert.Error(t, cart.SetQuantity(1, 11))
	assert.Error(t, cart.SetQuantity(2, 3), "out-of-range index")
	assert.Error(t, cart.SetQuantity(0, 3))

	assert.Equal(t, 2, cart.Lines[0].Quantity, "failed mutations must not touch the cart")
	assert.Equal(t, 1000, cart.TotalCents)
}

func TestRemoveLine(t *testing.T) {
	cart := Cart{}
	cart.AddLine(CartLine{MenuItemID: uuid.New(), Name: "A", UnitPriceCents: 500, Quantity: 1})
	cart.AddLine(CartLine{MenuItemID: uuid.New(), Name: "B", UnitPriceCents: 300, Quantity: 2})

	require.NoError(t, cart.RemoveLine(1))
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, "B", cart.Lines[0].Name)
	assert.Equal(t, 600, cart.TotalCents)

	assert.Error(t, cart.RemoveLine(5))
	assertTotalIsFold(t, cart)
}

func TestClearEmptiesCart(t *testing.T) {
	cart := Cart{}
	cart.AddLine(CartLine{MenuItemID: uuid.New(), Name: "A", UnitPriceCents: 500, Quantity: 1})
	cart.Clear()

	assert.True(t, cart.IsEmpty())
	assert.Zero(t, cart.TotalCents)
}

func TestPendingItemUnitPrice(t *testing.T) {
	pending := PendingItem{
		BasePriceCents: 500,
		VariantAdjust:  150,
		Addons: []AddonSelection{
			{AddonID: uuid.New(), Name: "Cheese", PriceCents: 100},
			{AddonID: uuid.New(), Name: "Bacon", PriceCents: 200},
		},
	}
	assert.Equal(t, 950, pending.UnitPriceCents())
}

func TestPendingItemToggleAddon(t *testing.T) {
	addon := AddonSelection{AddonID: uuid.New(), Name: "Cheese", PriceCents: 100}
	pending := PendingItem{}

	removed := pending.ToggleAddon(addon)
	assert.False(t, removed)
	require.Len(t, pending.Addons, 1)

	removed = pending.ToggleAddon(addon)
	assert.True(t, removed)
	assert.Empty(t, pending.Addons)
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "KES 28.00", FormatCents(2800, "KES"))
	assert.Equal(t, "5.50", FormatCents(550, ""))
	assert.Equal(t, "USD 0.05", FormatCents(5, "USD"))
}
