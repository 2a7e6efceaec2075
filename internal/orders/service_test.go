package orders

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/caskettrack/internal/barcode"
	"github.com/angelmondragon/caskettrack/internal/inventory"
	"github.com/angelmondragon/caskettrack/pkg/backoff"
	"github.com/angelmondragon/caskettrack/pkg/config"
	"github.com/angelmondragon/caskettrack/pkg/db"
	"github.com/angelmondragon/caskettrack/pkg/db/models"
	pkgerrors "github.com/angelmondragon/caskettrack/pkg/errors"
	"github.com/angelmondragon/caskettrack/pkg/migrate"
	"github.com/angelmondragon/caskettrack/pkg/notify"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Notify(_ context.Context, ev notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

type orderCounter map[string]int

func (c orderCounter) IncOrder(result string) { c[result]++ }

type fixture struct {
	client    *db.Client
	inventory inventory.Service
	svc       *service
	notifier  *recordingNotifier
	counts    orderCounter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client, err := db.OpenSQLite(filepath.Join(t.TempDir(), "orders.db"), config.DBConfig{BusyTimeout: 5 * time.Second, JournalMode: "WAL"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, migrate.Up(context.Background(), client))

	notifier := &recordingNotifier{}
	inv, err := inventory.NewService(
		inventory.NewRepository(client.DB()),
		client,
		barcode.NewResolver(nil, nil),
		notifier,
		inventory.Options{Policy: backoff.Policy{MaxAttempts: 3}},
	)
	require.NoError(t, err)

	counts := orderCounter{}
	svc, err := NewService(NewRepository(client.DB()), inv, notifier, counts, nil)
	require.NoError(t, err)

	return &fixture{client: client, inventory: inv, svc: svc.(*service), notifier: notifier, counts: counts}
}

func (f *fixture) stock(t *testing.T, name string, qty int) {
	t.Helper()
	_, err := f.inventory.CreateItem(context.Background(), inventory.CreateItemInput{ProductName: name, Quantity: qty})
	require.NoError(t, err)
	f.notifier.events = nil
}

func (f *fixture) quantity(t *testing.T, name string) int {
	t.Helper()
	var item models.InventoryItem
	require.NoError(t, f.client.DB().Where("product_name = ?", name).First(&item).Error)
	return item.Quantity
}

func (f *fixture) purchaseCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.client.DB().Model(&models.Purchase{}).Count(&n).Error)
	return n
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	_, err := NewService(nil, nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestPlaceOrder_DecrementsAndRecordsPurchases(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "Roseboro", 5)
	f.stock(t, "Silver Rose", 2)

	order, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		Customer: "Hillside Funeral Home",
		Items: []LineInput{
			{ProductName: "Roseboro", Quantity: 1},
			{ProductName: "Silver Rose", Quantity: 2},
			{ProductName: "Roseboro", Quantity: 2},
		},
	})
	require.NoError(t, err)

	require.NotNil(t, order.Ref)
	require.Len(t, order.Lines, 2, "duplicate lines are merged")
	assert.Equal(t, 3, order.Lines[0].Quantity)
	assert.Equal(t, 2, *order.Lines[0].Remaining)
	assert.Equal(t, 0, *order.Lines[1].Remaining)

	assert.Equal(t, 2, f.quantity(t, "Roseboro"))
	assert.Equal(t, 0, f.quantity(t, "Silver Rose"))
	assert.EqualValues(t, 2, f.purchaseCount(t))

	var rows []models.Purchase
	require.NoError(t, f.client.DB().Find(&rows).Error)
	for _, r := range rows {
		assert.Equal(t, *order.Ref, r.OrderRef)
		assert.Equal(t, "Hillside Funeral Home", r.Customer)
	}

	require.Len(t, f.notifier.events, 2)
	assert.Equal(t, notify.ActionUpdated, f.notifier.events[0].Action)
	assert.Equal(t, "Roseboro", f.notifier.events[0].Data.ProductName)
	assert.Equal(t, 2, f.notifier.events[0].Data.Quantity)
	assert.Equal(t, 1, f.counts["placed"])

	assert.Contains(t, order.Slip, "Customer: Hillside Funeral Home")
	assert.Contains(t, order.Slip, "- Roseboro - Quantity: 3")
	assert.Contains(t, order.Slip, "Order: "+order.Ref.String())
}

func TestPlaceOrder_InsufficientStockRollsBackWholeOrder(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "Roseboro", 5)
	f.stock(t, "Silver Rose", 1)

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		Customer: "Hillside Funeral Home",
		Items: []LineInput{
			{ProductName: "Roseboro", Quantity: 2},
			{ProductName: "Silver Rose", Quantity: 3},
		},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInsufficientStock))
	assert.Equal(t, "Insufficient stock for Silver Rose. Available: 1", pkgerrors.As(err).Message())

	assert.Equal(t, 5, f.quantity(t, "Roseboro"))
	assert.Equal(t, 1, f.quantity(t, "Silver Rose"))
	assert.Zero(t, f.purchaseCount(t))
	assert.Empty(t, f.notifier.events)
	assert.Equal(t, 1, f.counts["rejected"])
}

func TestPlaceOrder_UnknownProduct(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		Customer: "Hillside Funeral Home",
		Items:    []LineInput{{ProductName: "Masterpiece", Quantity: 1}},
	})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
	assert.Equal(t, "Casket Masterpiece not found in inventory", pkgerrors.As(err).Message())
}

func TestPlaceOrder_Validation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name  string
		input PlaceOrderInput
	}{
		{name: "missing customer", input: PlaceOrderInput{Items: []LineInput{{ProductName: "Roseboro", Quantity: 1}}}},
		{name: "no items", input: PlaceOrderInput{Customer: "Hillside"}},
		{name: "zero quantity", input: PlaceOrderInput{Customer: "Hillside", Items: []LineInput{{ProductName: "Roseboro"}}}},
		{name: "blank product", input: PlaceOrderInput{Customer: "Hillside", Items: []LineInput{{ProductName: " ", Quantity: 1}}}},
		{name: "merged quantity overflows", input: PlaceOrderInput{Customer: "Hillside", Items: []LineInput{
			{ProductName: "Roseboro", Quantity: math.MaxInt},
			{ProductName: "Roseboro", Quantity: 1},
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.PlaceOrder(context.Background(), tc.input)
			assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}

func TestSummarizeDoesNotMutate(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "Roseboro", 1)

	order, err := f.svc.Summarize(PlaceOrderInput{
		Customer: "Hillside Funeral Home",
		Items:    []LineInput{{ProductName: "Roseboro", Quantity: 4}},
	})
	require.NoError(t, err)
	assert.Nil(t, order.Ref)
	assert.Equal(t, "Order Summary\nCustomer: Hillside Funeral Home\n\n- Roseboro - Quantity: 4\n\nTotal caskets: 4\n", order.Slip)
	assert.Equal(t, 1, f.quantity(t, "Roseboro"))
	assert.Zero(t, f.purchaseCount(t))
}

func TestSlip(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "Roseboro", 3)
	f.svc.now = func() time.Time { return time.Date(2026, 3, 2, 15, 4, 5, 0, time.UTC) }

	placed, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		Customer: "Hillside Funeral Home",
		Items:    []LineInput{{ProductName: "Roseboro", Quantity: 2}},
	})
	require.NoError(t, err)

	slip, err := f.svc.Slip(context.Background(), *placed.Ref)
	require.NoError(t, err)
	assert.Equal(t, placed.Slip, slip.Slip)
	assert.True(t, strings.Contains(slip.Slip, "Date: 2026-03-02 15:04:05 UTC"), slip.Slip)

	_, err = f.svc.Slip(context.Background(), uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestRecentPurchases(t *testing.T) {
	f := newFixture(t)
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	rows := []models.Purchase{
		{OrderRef: uuid.New(), Customer: "Hillside", ProductName: "Roseboro", Quantity: 1, PurchasedAt: now.AddDate(0, 0, -40)},
		{OrderRef: uuid.New(), Customer: "Hillside", ProductName: "Roseboro", Quantity: 2, PurchasedAt: now.AddDate(0, 0, -10)},
		{OrderRef: uuid.New(), Customer: "Oakwood", ProductName: "Silver Rose", Quantity: 1, PurchasedAt: now.AddDate(0, 0, -2)},
	}
	require.NoError(t, f.client.DB().Create(&rows).Error)

	all, err := f.svc.RecentPurchases(context.Background(), PurchaseFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Oakwood", all[0].Customer, "newest first")

	byCustomer, err := f.svc.RecentPurchases(context.Background(), PurchaseFilter{Customers: []string{"Hillside", ""}})
	require.NoError(t, err)
	require.Len(t, byCustomer, 1)
	assert.Equal(t, 2, byCustomer[0].Quantity)

	byProduct, err := f.svc.RecentPurchases(context.Background(), PurchaseFilter{Products: []string{"Roseboro"}, Days: 60})
	require.NoError(t, err)
	assert.Len(t, byProduct, 2)

	_, err = f.svc.RecentPurchases(context.Background(), PurchaseFilter{Days: -1})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	dtos := ToPurchaseDTOs(all)
	assert.Equal(t, all[0].OrderRef, dtos[0].OrderRef)
}
