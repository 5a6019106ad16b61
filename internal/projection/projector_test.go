package projection

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/infrastructure/store"
	"github.com/example/ec-storefront/internal/infrastructure/store/mocks"
	"github.com/example/ec-storefront/internal/pricing"
	"github.com/example/ec-storefront/internal/readmodel"
)

func newTestProjector() (*Projector, *mocks.MockReadStore) {
	readStore := mocks.NewMockReadStore()
	projector := NewProjector(readStore)
	return projector, readStore
}

func makeEvent(aggregateID, aggregateType, eventType string, version int, data any) []byte {
	jsonData, _ := json.Marshal(data)
	event := store.Event{
		ID:            "event-" + eventType,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now(),
		Version:       version,
	}
	result, _ := json.Marshal(event)
	return result
}

func itemAdded(productID, price string, stock int) cart.ItemAddedToCart {
	return cart.ItemAddedToCart{
		CartID:       "cart-user-1",
		OwnerID:      "user-1",
		ProductID:    productID,
		Name:         "Product " + productID,
		SellingPrice: decimal.RequireFromString(price),
		Stock:        stock,
		AddedAt:      time.Now(),
	}
}

func cartModel(t *testing.T, readStore *mocks.MockReadStore) *readmodel.CartReadModel {
	t.Helper()
	data, ok := readStore.GetData(store.CollectionCarts, "cart-user-1")
	require.True(t, ok)
	return data.(*readmodel.CartReadModel)
}

// ============================================
// Cart Event Tests
// ============================================

func TestProjector_CartTotalsFollowEvents(t *testing.T) {
	projector, readStore := newTestProjector()
	ctx := context.Background()

	require.NoError(t, projector.HandleEvent(ctx, nil, makeEvent("cart-user-1", cart.AggregateType, cart.EventItemAdded, 1, itemAdded("p1", "100", 5))))
	require.NoError(t, projector.HandleEvent(ctx, nil, makeEvent("cart-user-1", cart.AggregateType, cart.EventQuantityChanged, 2, cart.ItemQuantityChanged{
		CartID: "cart-user-1", OwnerID: "user-1", ProductID: "p1", Quantity: 2,
	})))
	require.NoError(t, projector.HandleEvent(ctx, nil, makeEvent("cart-user-1", cart.AggregateType, cart.EventItemAdded, 3, itemAdded("p2", "50", 5))))

	model := cartModel(t, readStore)
	assert.Equal(t, "user-1", model.OwnerID)
	assert.Equal(t, 3, model.ItemCount)
	require.Len(t, model.Items, 2)
	assert.Equal(t, "200.00", model.Items[0].LineTotal)
	assert.Equal(t, pricing.Display{
		Subtotal: "250.00",
		Tax:      "12.50",
		Shipping: "50.00",
		Discount: "0.00",
		Total:    "312.50",
	}, model.Totals)

	require.NoError(t, projector.HandleEvent(ctx, nil, makeEvent("cart-user-1", cart.AggregateType, cart.EventCouponApplied, 4, cart.CouponApplied{
		CartID: "cart-user-1", OwnerID: "user-1", Code: "SAVE10", Percent: 10,
	})))

	model = cartModel(t, readStore)
	assert.Equal(t, "SAVE10", model.CouponCode)
	assert.Equal(t, "25.00", model.Totals.Discount)
	assert.Equal(t, "287.50", model.Totals.Total)
}

func TestProjector_CartClearedAndItemRemoved(t *testing.T) {
	projector, readStore := newTestProjector()
	ctx := context.Background()

	require.NoError(t, projector.HandleEvent(ctx, nil, makeEvent("cart-user-1", cart.AggregateType, cart.EventItemAdded, 1, itemAdded("p1", "10", 5))))
	require.NoError(t, projector.HandleEvent(ctx, nil, makeEvent("cart-user-1", cart.AggregateType, cart.EventItemAdded, 2, itemAdded("p2", "10", 5))))
	require.NoError(t, projector.HandleEvent(ctx, nil, makeEvent("cart-user-1", cart.AggregateType, cart.EventItemRemoved, 3, cart.ItemRemovedFromCart{
		CartID: "cart-user-1", ProductID: "p1",
	})))

	model := cartModel(t, readStore)
	require.Len(t, model.Items, 1)
	assert.Equal(t, "p2", model.Items[0].ProductID)

	require.NoError(t, projector.HandleEvent(ctx, nil, makeEvent("cart-user-1", cart.AggregateType, cart.EventCartCleared, 4, cart.CartCleared{CartID: "cart-user-1"})))

	model = cartModel(t, readStore)
	assert.Empty(t, model.Items)
	assert.NotNil(t, model.Items)
	assert.Equal(t, "50.00", model.Totals.Total)
}

func TestProjector_IgnoresRedeliveredEvents(t *testing.T) {
	projector, readStore := newTestProjector()
	ctx := context.Background()
	added := makeEvent("cart-user-1", cart.AggregateType, cart.EventItemAdded, 1, itemAdded("p1", "10", 5))
	bump := makeEvent("cart-user-1", cart.AggregateType, cart.EventQuantityChanged, 2, cart.ItemQuantityChanged{
		CartID: "cart-user-1", ProductID: "p1", Quantity: 2,
	})

	for _, v := range [][]byte{added, bump, added, bump} {
		require.NoError(t, projector.HandleEvent(ctx, nil, v))
	}

	model := cartModel(t, readStore)
	assert.Equal(t, 2, model.ItemCount)
	assert.Equal(t, 2, model.Version)
	assert.Len(t, readStore.SetCalls, 2)
}

func TestProjector_InvalidJSON(t *testing.T) {
	projector, _ := newTestProjector()

	err := projector.HandleEvent(context.Background(), nil, []byte("{broken"))

	assert.Error(t, err)
}

func TestProjector_UnknownAggregateIsIgnored(t *testing.T) {
	projector, readStore := newTestProjector()

	err := projector.HandleEvent(context.Background(), nil, makeEvent("x-1", "Unknown", "Whatever", 1, struct{}{}))

	require.NoError(t, err)
	assert.Empty(t, readStore.SetCalls)
}

// ============================================
// Order Event Tests
// ============================================

func TestProjector_OrderPlaced(t *testing.T) {
	projector, readStore := newTestProjector()
	totals := pricing.ComputeTotals([]pricing.Line{{UnitPrice: decimal.NewFromInt(100), Quantity: 2}}, nil)

	err := projector.HandleEvent(context.Background(), nil, makeEvent("order-1", order.AggregateType, order.EventOrderPlaced, 1, order.OrderPlaced{
		OrderID:   "order-1",
		OwnerID:   "user-1",
		BackendID: "b-9",
		Status:    "pending",
		Items:     []order.Item{{ProductID: "p1", Name: "Phone", UnitPrice: decimal.NewFromInt(100), Quantity: 2}},
		Customer:  order.Customer{Name: "Ana", Phone: "1", Address: "x"},
		Totals:    totals,
		PlacedAt:  time.Now(),
	}))

	require.NoError(t, err)
	data, ok := readStore.GetData(store.CollectionOrders, "order-1")
	require.True(t, ok)
	model := data.(*readmodel.OrderReadModel)
	assert.Equal(t, "b-9", model.BackendID)
	assert.Equal(t, "Ana", model.CustomerName)
	assert.Equal(t, "100.00", model.Items[0].UnitPrice)
	assert.Equal(t, "260.00", model.Totals.Total)
}

// ============================================
// Delivery Tests
// ============================================

func TestInlinePublisher_ProjectsAppendedEvents(t *testing.T) {
	readStore := store.NewReadStore()
	projector := NewProjector(readStore)
	eventStore := store.NewEventStore(&InlinePublisher{Projector: projector})
	service := cart.NewService(eventStore, nil)
	ctx := context.Background()

	_, err := service.ApplyCoupon(ctx, "user-1", "SAVE20")
	require.NoError(t, err)

	data, ok := readStore.Get(store.CollectionCarts, "cart-user-1")
	require.True(t, ok)
	assert.Equal(t, "SAVE20", data.(*readmodel.CartReadModel).CouponCode)
}

func TestProjector_ReplayRebuildsReadModels(t *testing.T) {
	eventStore := mocks.NewMockEventStore()
	service := cart.NewService(eventStore, nil)
	ctx := context.Background()
	_, err := service.ApplyCoupon(ctx, "user-1", "SAVE10")
	require.NoError(t, err)
	_, err = service.ApplyCoupon(ctx, "user-2", "SAVE20")
	require.NoError(t, err)

	projector, readStore := newTestProjector()
	n, err := projector.Replay(ctx, eventStore)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, readStore.GetAll(store.CollectionCarts), 2)
}
