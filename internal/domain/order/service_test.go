package order

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/caremarket/caremarket/internal/domain/cart"
	"github.com/caremarket/caremarket/internal/domain/catalog"
)

type mockOrderRepo struct {
	orders map[uuid.UUID]*Order
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*Order)}
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	o.ID = uuid.New()
	for _, it := range o.Items {
		it.ID = uuid.New()
		it.OrderID = o.ID
	}
	m.orders[o.ID] = o
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]*Order, int, error) {
	var out []*Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, len(out), nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	o, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	return nil
}

type lineKey struct {
	user    uuid.UUID
	product uuid.UUID
}

type mockCartRepo struct {
	lines map[lineKey]*cart.Line
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{lines: make(map[lineKey]*cart.Line)}
}

func (m *mockCartRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*cart.Line, error) {
	var out []*cart.Line
	for k, l := range m.lines {
		if k.user == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockCartRepo) Get(_ context.Context, userID, productID uuid.UUID) (*cart.Line, error) {
	l, ok := m.lines[lineKey{userID, productID}]
	if !ok {
		return nil, cart.ErrLineNotFound
	}
	return l, nil
}

func (m *mockCartRepo) Upsert(_ context.Context, l *cart.Line) error {
	m.lines[lineKey{l.UserID, l.ProductID}] = l
	return nil
}

func (m *mockCartRepo) Delete(_ context.Context, userID, productID uuid.UUID) error {
	delete(m.lines, lineKey{userID, productID})
	return nil
}

func (m *mockCartRepo) Clear(_ context.Context, userID uuid.UUID) error {
	for k := range m.lines {
		if k.user == userID {
			delete(m.lines, k)
		}
	}
	return nil
}

type mockProductRepo struct {
	products map[uuid.UUID]*catalog.Product
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: make(map[uuid.UUID]*catalog.Product)}
}

func (m *mockProductRepo) Create(_ context.Context, p *catalog.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return p, nil
}

func (m *mockProductRepo) GetBySKU(_ context.Context, _ string) (*catalog.Product, error) {
	return nil, errors.New("not found")
}

func (m *mockProductRepo) Update(_ context.Context, p *catalog.Product) error {
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.products, id)
	return nil
}

func (m *mockProductRepo) ListByOwner(_ context.Context, _ uuid.UUID, _, _ int) ([]*catalog.Product, int, error) {
	return nil, 0, nil
}

func (m *mockProductRepo) Search(_ context.Context, _, _ string, _, _ int) ([]*catalog.Product, int, error) {
	return nil, 0, nil
}

func (m *mockProductRepo) DecrementStock(_ context.Context, id uuid.UUID, qty int) error {
	p, ok := m.products[id]
	if !ok {
		return errors.New("not found")
	}
	if p.Stock < qty {
		return catalog.ErrInsufficientStock
	}
	p.Stock -= qty
	return nil
}

type recordedEvent struct {
	kind     string
	orderID  uuid.UUID
	previous string
}

type mockEvents struct {
	events []recordedEvent
}

func (m *mockEvents) OrderPlaced(_ context.Context, o *Order) {
	m.events = append(m.events, recordedEvent{kind: "placed", orderID: o.ID})
}

func (m *mockEvents) OrderStatusChanged(_ context.Context, o *Order, previous string) {
	m.events = append(m.events, recordedEvent{kind: "status", orderID: o.ID, previous: previous})
}

// passthroughTx stands in for a database transaction in tests.
func passthroughTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	svc      *Service
	carts    *cart.Service
	products *mockProductRepo
	orders   *mockOrderRepo
	events   *mockEvents
	userID   uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	products := newMockProductRepo()
	orders := newMockOrderRepo()
	events := &mockEvents{}
	carts := cart.NewService(newMockCartRepo(), products, nil, zerolog.Nop())
	return &fixture{
		svc:      NewService(orders, carts, products, passthroughTx, events, zerolog.Nop()),
		carts:    carts,
		products: products,
		orders:   orders,
		events:   events,
		userID:   uuid.New(),
	}
}

func (f *fixture) seedCart(t *testing.T, price float64, stock, qty int) *catalog.Product {
	t.Helper()
	p := &catalog.Product{
		SKU:    "SKU-" + uuid.NewString()[:8],
		Name:   "Vitamin D3",
		Price:  price,
		Stock:  stock,
		Active: true,
	}
	if err := f.products.Create(context.Background(), p); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if _, err := f.carts.Add(context.Background(), f.userID, p.ID, qty); err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	return p
}

func TestPlace(t *testing.T) {
	f := newFixture(t)
	p := f.seedCart(t, 12.50, 10, 2)

	o, err := f.svc.Place(context.Background(), f.userID)
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}
	if o.Status != StatusPending {
		t.Errorf("expected pending, got %s", o.Status)
	}
	if o.Total != 25 {
		t.Errorf("expected total 25, got %v", o.Total)
	}
	if len(o.Items) != 1 || o.Items[0].ProductID != p.ID || o.Items[0].Qty != 2 {
		t.Errorf("unexpected items: %+v", o.Items)
	}

	// Stock decremented and cart cleared.
	if p.Stock != 8 {
		t.Errorf("expected stock 8 after checkout, got %d", p.Stock)
	}
	c, _ := f.carts.Get(context.Background(), f.userID)
	if c.Count != 0 {
		t.Errorf("expected empty cart after checkout, got count %d", c.Count)
	}

	if len(f.events.events) != 1 || f.events.events[0].kind != "placed" {
		t.Errorf("expected a placed event, got %+v", f.events.events)
	}
}

func TestPlace_EmptyCart(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Place(context.Background(), f.userID); err == nil {
		t.Fatal("expected error for empty cart")
	}
}

func TestPlace_StockRanOut(t *testing.T) {
	f := newFixture(t)
	p := f.seedCart(t, 5, 3, 3)

	// Someone else bought the stock between add and checkout.
	p.Stock = 1

	if _, err := f.svc.Place(context.Background(), f.userID); !errors.Is(err, catalog.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// The cart survives a failed checkout.
	c, _ := f.carts.Get(context.Background(), f.userID)
	if c.Count != 3 {
		t.Errorf("expected cart intact after failed checkout, got count %d", c.Count)
	}
}

func TestPlace_UsesCurrentEffectivePrice(t *testing.T) {
	f := newFixture(t)
	p := f.seedCart(t, 10, 10, 2)

	// A discount applied after the add shows up in the order total.
	d := 6.0
	p.DiscountedPrice = &d

	o, err := f.svc.Place(context.Background(), f.userID)
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}
	if o.Total != 12 {
		t.Errorf("expected total 12 at discounted price, got %v", o.Total)
	}
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, 5, 10, 1)

	o, err := f.svc.Place(context.Background(), f.userID)
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}

	for _, status := range []string{StatusConfirmed, StatusShipped, StatusDelivered} {
		o, err = f.svc.UpdateStatus(context.Background(), o.ID, status)
		if err != nil {
			t.Fatalf("UpdateStatus(%s) failed: %v", status, err)
		}
		if o.Status != status {
			t.Errorf("expected %s, got %s", status, o.Status)
		}
	}

	// placed + three status changes
	if len(f.events.events) != 4 {
		t.Errorf("expected 4 events, got %d", len(f.events.events))
	}
}

func TestUpdateStatus_InvalidTransition(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, 5, 10, 1)

	o, err := f.svc.Place(context.Background(), f.userID)
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}

	if _, err := f.svc.UpdateStatus(context.Background(), o.ID, StatusDelivered); err == nil {
		t.Error("pending order must not jump straight to delivered")
	}

	if _, err := f.svc.UpdateStatus(context.Background(), o.ID, StatusCancelled); err != nil {
		t.Fatalf("cancel should be allowed from pending: %v", err)
	}
	if _, err := f.svc.UpdateStatus(context.Background(), o.ID, StatusConfirmed); err == nil {
		t.Error("cancelled is terminal")
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},
		{StatusPending, StatusShipped, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
