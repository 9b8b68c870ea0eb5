package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_cart/storefront/internal/gateway"
	"github.com/fjod/go_cart/storefront/internal/publisher"
	"github.com/fjod/go_cart/storefront/internal/session"

	d "github.com/fjod/go_cart/storefront/domain"
)

// MockGateway implements gateway.Gateway for testing
type MockGateway struct {
	mu sync.Mutex

	Inventory    *d.InventorySnapshot
	InventoryErr error
	Confirmation *gateway.OrderConfirmation
	SubmitErr    error
	SubmitDelay  time.Duration
	CustomerData *d.Customer
	History      *d.OrderHistory
	CustomerErr  error

	InventoryCalls int
	Submitted      []d.OrderRequest
	SubmitCtxErr   error
	CustomerIDs    []int64
}

func (m *MockGateway) FetchInventory(_ context.Context) (*d.InventorySnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InventoryCalls++
	return m.Inventory, m.InventoryErr
}

func (m *MockGateway) SubmitOrder(ctx context.Context, request d.OrderRequest) (*gateway.OrderConfirmation, error) {
	if m.SubmitDelay > 0 {
		time.Sleep(m.SubmitDelay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Submitted = append(m.Submitted, request)
	m.SubmitCtxErr = ctx.Err()
	if m.SubmitErr != nil {
		return nil, m.SubmitErr
	}
	return m.Confirmation, nil
}

func (m *MockGateway) FetchCustomer(_ context.Context, id int64) (*d.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CustomerIDs = append(m.CustomerIDs, id)
	return m.CustomerData, m.CustomerErr
}

func (m *MockGateway) FetchOrderHistory(_ context.Context, id int64) (*d.OrderHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CustomerIDs = append(m.CustomerIDs, id)
	return m.History, m.CustomerErr
}

func (m *MockGateway) submissions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Submitted)
}

// MockPublisher implements EventPublisher for testing
type MockPublisher struct {
	mu     sync.Mutex
	Events []publisher.OrderPlaced
	Err    error
}

func (m *MockPublisher) PublishOrderPlaced(_ context.Context, event publisher.OrderPlaced) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return m.Err
}

// --- helpers ---

func testInventory() *d.InventorySnapshot {
	return d.NewInventorySnapshot([]d.Product{
		{ProductID: 1, Name: "Widget", QuantityAvailable: 10, UnitPrice: decimal.RequireFromString("10.00")},
		{ProductID: 3, Name: "Gadget", QuantityAvailable: 5, UnitPrice: decimal.RequireFromString("5.00")},
	}, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
}

func testConfirmation() *gateway.OrderConfirmation {
	return &gateway.OrderConfirmation{
		Order: d.Order{
			OrderID:     42,
			CustomerID:  7,
			Status:      "pending",
			TotalAmount: decimal.RequireFromString("25.00"),
			Lines:       []d.OrderLine{{ProductID: 1, Quantity: 2}, {ProductID: 3, Quantity: 1}},
		},
		Message: "Order created successfully",
	}
}

var errStoreDown = errors.New("store down")

// flakyStore fails exactly one Set, the n-th since creation.
type flakyStore struct {
	session.Store
	mu    sync.Mutex
	sets  int
	failN int
}

func (f *flakyStore) Set(ctx context.Context, st *session.State) error {
	f.mu.Lock()
	f.sets++
	fail := f.sets == f.failN
	f.mu.Unlock()
	if fail {
		return errStoreDown
	}
	return f.Store.Set(ctx, st)
}

func newFlakyStore(t *testing.T) *flakyStore {
	t.Helper()
	mem := session.NewMemoryStore(time.Hour)
	t.Cleanup(func() { _ = mem.Close() })
	return &flakyStore{Store: mem}
}

func (f *flakyStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets
}

func (f *flakyStore) failAt(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failN = n
}

func newServiceWithStore(t *testing.T, gw *MockGateway, store session.Store) *StorefrontService {
	t.Helper()
	svc := NewStorefrontService(gw, session.NewManager(store), nil, nil)
	var key int
	var keyMu sync.Mutex
	svc.newKey = func() string {
		keyMu.Lock()
		defer keyMu.Unlock()
		key++
		return fmt.Sprintf("key-%d", key)
	}
	return svc
}

func setupService(t *testing.T, gw *MockGateway, events EventPublisher) (*StorefrontService, *session.Manager) {
	t.Helper()
	store := session.NewMemoryStore(time.Hour)
	t.Cleanup(func() { _ = store.Close() })

	sessions := session.NewManager(store)
	svc := NewStorefrontService(gw, sessions, events, nil)
	key := 0
	var keyMu sync.Mutex
	svc.newKey = func() string {
		keyMu.Lock()
		defer keyMu.Unlock()
		key++
		return fmt.Sprintf("key-%d", key)
	}
	return svc, sessions
}

func fillCart(t *testing.T, sessions *session.Manager, sessionID string, customerID int64, inv *d.InventorySnapshot, entries ...d.CartEntry) {
	t.Helper()
	err := sessions.Update(context.Background(), sessionID, func(st *session.State) error {
		st.CustomerID = customerID
		st.Inventory = inv
		for _, e := range entries {
			for i := 0; i < e.Quantity; i++ {
				st.Cart.Add(e.ProductID)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("fill cart: %v", err)
	}
}
