package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartService_AddItems_MergesQuantities(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	userID := uuid.New()
	a := f.addMenuItem("A", "100")

	_, err := f.cartSvc.AddItems(ctx, userID, []CartEntry{{MenuItemID: a.ID, Quantity: 2}})
	require.NoError(t, err)
	cart, err := f.cartSvc.AddItems(ctx, userID, []CartEntry{{MenuItemID: a.ID, Quantity: 3}})
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assertDecimal(t, "500", cart.TotalPrice)
	assertDecimal(t, "500", f.carts.carts[userID].TotalPrice)
}

func TestCartService_AddItems_BatchKeepsOrderAndMergesDuplicates(t *testing.T) {
	f := newFixture()
	userID := uuid.New()
	a := f.addMenuItem("A", "100")
	b := f.addMenuItem("B", "50")

	cart, err := f.cartSvc.AddItems(context.Background(), userID, []CartEntry{
		{MenuItemID: b.ID, Quantity: 1},
		{MenuItemID: a.ID, Quantity: 1},
		{MenuItemID: b.ID, Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, b.ID, cart.Items[0].MenuItemID)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, a.ID, cart.Items[1].MenuItemID)
	assertDecimal(t, "250", cart.TotalPrice)
}

func TestCartService_AddItems_UnknownItemWritesNothing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	userID := uuid.New()
	a := f.addMenuItem("A", "100")
	_, err := f.cartSvc.AddItems(ctx, userID, []CartEntry{{MenuItemID: a.ID, Quantity: 1}})
	require.NoError(t, err)
	version := f.carts.carts[userID].Version

	unknown := uuid.New()
	_, err = f.cartSvc.AddItems(ctx, userID, []CartEntry{
		{MenuItemID: a.ID, Quantity: 1},
		{MenuItemID: unknown, Quantity: 1},
	})
	require.ErrorIs(t, err, ErrNotFound)
	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, []uuid.UUID{unknown}, svcErr.Missing)

	stored := f.carts.carts[userID]
	assert.Equal(t, version, stored.Version)
	assert.Equal(t, 1, stored.Items[0].Quantity)
}

func TestCartService_AddItems_Validation(t *testing.T) {
	f := newFixture()
	a := f.addMenuItem("A", "100")

	tests := []struct {
		name    string
		entries []CartEntry
	}{
		{"empty batch", nil},
		{"zero quantity", []CartEntry{{MenuItemID: a.ID, Quantity: 0}}},
		{"negative quantity", []CartEntry{{MenuItemID: a.ID, Quantity: -2}}},
		{"missing id", []CartEntry{{Quantity: 1}}},
		{"over line cap", []CartEntry{{MenuItemID: a.ID, Quantity: MaxLineQuantity + 1}}},
		{"overflowing quantity", []CartEntry{{MenuItemID: a.ID, Quantity: 1 << 40}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.cartSvc.AddItems(context.Background(), uuid.New(), tt.entries)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestCartService_QuantityCap(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	userID := uuid.New()
	a := f.addMenuItem("A", "100")
	_, err := f.cartSvc.AddItems(ctx, userID, []CartEntry{{MenuItemID: a.ID, Quantity: MaxLineQuantity - 1}})
	require.NoError(t, err)
	version := f.carts.carts[userID].Version

	_, err = f.cartSvc.AddItems(ctx, userID, []CartEntry{{MenuItemID: a.ID, Quantity: 2}})
	assert.ErrorIs(t, err, ErrQuantityTooLarge)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, version, f.carts.carts[userID].Version)
	assert.Equal(t, MaxLineQuantity-1, f.carts.carts[userID].Items[0].Quantity)

	cart, err := f.cartSvc.AddItems(ctx, userID, []CartEntry{{MenuItemID: a.ID, Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, MaxLineQuantity, cart.Items[0].Quantity)

	_, err = f.cartSvc.SetItemQuantity(ctx, userID, a.ID, MaxLineQuantity+1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCartService_SetItemQuantity(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	userID := uuid.New()
	a := f.addMenuItem("A", "100")
	_, err := f.cartSvc.AddItems(ctx, userID, []CartEntry{{MenuItemID: a.ID, Quantity: 2}})
	require.NoError(t, err)

	cart, err := f.cartSvc.SetItemQuantity(ctx, userID, a.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Items[0].Quantity)
	assertDecimal(t, "400", cart.TotalPrice)

	_, err = f.cartSvc.SetItemQuantity(ctx, userID, a.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.cartSvc.SetItemQuantity(ctx, userID, uuid.New(), 1)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestCartService_RemoveItemAndClear(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	userID := uuid.New()
	a := f.addMenuItem("A", "100")
	b := f.addMenuItem("B", "50")
	_, err := f.cartSvc.AddItems(ctx, userID, []CartEntry{{MenuItemID: a.ID, Quantity: 1}, {MenuItemID: b.ID, Quantity: 1}})
	require.NoError(t, err)

	cart, err := f.cartSvc.RemoveItem(ctx, userID, a.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, b.ID, cart.Items[0].MenuItemID)
	assertDecimal(t, "50", cart.TotalPrice)

	_, err = f.cartSvc.RemoveItem(ctx, userID, a.ID)
	assert.ErrorIs(t, err, ErrCartItemNotFound)

	cart, err = f.cartSvc.Clear(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assertDecimal(t, "0", cart.TotalPrice)
}

func TestCartService_TotalFollowsCurrentPrices(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	userID := uuid.New()
	a := f.addMenuItem("A", "100")
	b := f.addMenuItem("B", "50")
	_, err := f.cartSvc.AddItems(ctx, userID, []CartEntry{{MenuItemID: a.ID, Quantity: 2}, {MenuItemID: b.ID, Quantity: 1}})
	require.NoError(t, err)

	f.setPrice(a.ID, "110")
	cart, err := f.cartSvc.GetCart(ctx, userID)
	require.NoError(t, err)
	assertDecimal(t, "270", cart.TotalPrice)

	cart, err = f.cartSvc.SetItemQuantity(ctx, userID, b.ID, 2)
	require.NoError(t, err)
	assertDecimal(t, "320", cart.TotalPrice)
	assertDecimal(t, "320", f.carts.carts[userID].TotalPrice)
}

func TestCartService_DeletedMenuItemIsUnavailable(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	userID := uuid.New()
	a := f.addMenuItem("A", "100")
	b := f.addMenuItem("B", "50")
	_, err := f.cartSvc.AddItems(ctx, userID, []CartEntry{{MenuItemID: a.ID, Quantity: 1}, {MenuItemID: b.ID, Quantity: 1}})
	require.NoError(t, err)

	delete(f.menu.items, b.ID)
	cart, err := f.cartSvc.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.True(t, cart.Items[0].Available)
	assert.False(t, cart.Items[1].Available)
	assertDecimal(t, "100", cart.TotalPrice)
}

func TestCartService_ConcurrentWriteIsConflict(t *testing.T) {
	f := newFixture()
	a := f.addMenuItem("A", "100")
	f.carts.staleSaves = 1

	_, err := f.cartSvc.AddItems(context.Background(), uuid.New(), []CartEntry{{MenuItemID: a.ID, Quantity: 1}})
	assert.ErrorIs(t, err, ErrConflict)
}
