package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxygen78/BOT.github.io/internal/domain"
)

func invoicedOrder(t *testing.T, store *mockStore, userID int64, itemNames ...string) string {
	t.Helper()
	carts := NewCartService(store, newMockCache())
	checkout := NewCheckoutService(store)
	ctx := context.Background()

	for _, name := range itemNames {
		_, err := carts.AddItem(ctx, userID, name)
		require.NoError(t, err)
	}
	invoice, err := checkout.BuildInvoice(ctx, userID)
	require.NoError(t, err)
	return invoice.Payload
}

func TestValidatePreConfirmation_AcceptsExactlyOnce(t *testing.T) {
	store := newMockStore(catalogItems()...)
	gate := NewPaymentGate(store)
	ctx := context.Background()

	payload := invoicedOrder(t, store, 42, "Server", "Server")

	err := gate.ValidatePreConfirmation(ctx, payload, 20000)
	require.NoError(t, err)

	order, err := store.GetOrderByPayload(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaymentPending, order.Status)

	// the token is consumed; a replayed pre-confirmation must not pass
	err = gate.ValidatePreConfirmation(ctx, payload, 20000)
	assert.ErrorIs(t, err, ErrUnknownOrder)
}

func TestValidatePreConfirmation_UnknownPayload(t *testing.T) {
	store := newMockStore(catalogItems()...)
	gate := NewPaymentGate(store)

	err := gate.ValidatePreConfirmation(context.Background(), "no-such-token", 100)
	assert.ErrorIs(t, err, ErrUnknownOrder)
}

func TestValidatePreConfirmation_AmountMismatchRejectsTerminally(t *testing.T) {
	store := newMockStore(catalogItems()...)
	gate := NewPaymentGate(store)
	ctx := context.Background()

	payload := invoicedOrder(t, store, 42, "Server")

	err := gate.ValidatePreConfirmation(ctx, payload, 9999)
	assert.ErrorIs(t, err, ErrAmountMismatch)

	order, err := store.GetOrderByPayload(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusRejected, order.Status)

	// cart is untouched, the user can re-checkout for a fresh token
	lines, err := store.GetCartLines(ctx, 42)
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	// the rejected token can never be revalidated, even with the right amount
	err = gate.ValidatePreConfirmation(ctx, payload, 10000)
	assert.ErrorIs(t, err, ErrUnknownOrder)
}

func TestConfirmPayment_RequiresAcceptedPreConfirmation(t *testing.T) {
	store := newMockStore(catalogItems()...)
	gate := NewPaymentGate(store)
	ctx := context.Background()

	payload := invoicedOrder(t, store, 42, "Server")

	err := gate.ConfirmPayment(ctx, payload)
	assert.ErrorIs(t, err, ErrUnknownOrder)
}

func TestConfirmPayment_NoDoubleSettlement(t *testing.T) {
	store := newMockStore(catalogItems()...)
	gate := NewPaymentGate(store)
	ctx := context.Background()

	payload := invoicedOrder(t, store, 42, "Server")
	require.NoError(t, gate.ValidatePreConfirmation(ctx, payload, 10000))

	require.NoError(t, gate.ConfirmPayment(ctx, payload))

	order, err := store.GetOrderByPayload(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusSettled, order.Status)

	err = gate.ConfirmPayment(ctx, payload)
	assert.ErrorIs(t, err, ErrUnknownOrder)
}

func TestConfirmPayment_EnqueuesSettledEvent(t *testing.T) {
	store := newMockStore(catalogItems()...)
	gate := NewPaymentGate(store)
	ctx := context.Background()

	payload := invoicedOrder(t, store, 42, "Cloud")
	require.NoError(t, gate.ValidatePreConfirmation(ctx, payload, 15000))
	require.NoError(t, gate.ConfirmPayment(ctx, payload))

	events, err := store.GetUnsentEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "order-settled", events[0].Topic)
	assert.Equal(t, payload, events[0].Key)
}
