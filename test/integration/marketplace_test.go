package integration

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/caremarket/caremarket/internal/domain/account"
	"github.com/caremarket/caremarket/internal/domain/cart"
	"github.com/caremarket/caremarket/internal/domain/catalog"
	"github.com/caremarket/caremarket/internal/domain/order"
	"github.com/caremarket/caremarket/internal/platform/auth"
	"github.com/caremarket/caremarket/internal/platform/db"
)

// nopMirror satisfies the cart's redis mirror without a running redis.
type nopMirror struct{}

func (nopMirror) SetJSON(context.Context, string, interface{}, time.Duration) error { return nil }

func newCartService() *cart.Service {
	return cart.NewService(
		cart.NewRepoPG(globalPool),
		catalog.NewProductRepoPG(globalPool),
		nopMirror{},
		zerolog.Nop(),
	)
}

func newOrderService(carts *cart.Service) *order.Service {
	inTx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.InTx(ctx, globalPool, fn)
	}
	return order.NewService(
		order.NewRepoPG(globalPool),
		carts,
		catalog.NewProductRepoPG(globalPool),
		inTx,
		nil,
		zerolog.Nop(),
	)
}

func TestAccountRepo_EmailUnique(t *testing.T) {
	ctx := context.Background()
	u := createTestUser(t, ctx, auth.RolePatient)

	repo := account.NewRepoPG(globalPool)
	dup := *u
	if err := repo.Create(ctx, &dup); err == nil {
		t.Fatal("expected duplicate email to be rejected")
	}

	got, err := repo.GetByEmail(ctx, u.Email)
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("id = %s, want %s", got.ID, u.ID)
	}
}

func TestCheckout_DecrementsStockAndClearsCart(t *testing.T) {
	ctx := context.Background()
	patient := createTestUser(t, ctx, auth.RolePatient)
	seller := createTestUser(t, ctx, auth.RolePharmacy)
	product := createTestProduct(t, ctx, seller.ID, 4.50, 10)

	carts := newCartService()
	if _, err := carts.Add(ctx, patient.ID, product.ID, 3); err != nil {
		t.Fatalf("add to cart: %v", err)
	}

	orders := newOrderService(carts)
	placed, err := orders.Place(ctx, patient.ID)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	if placed.Total != 13.50 {
		t.Fatalf("total = %v, want 13.50", placed.Total)
	}
	if len(placed.Items) != 1 || placed.Items[0].Qty != 3 {
		t.Fatalf("unexpected items: %+v", placed.Items)
	}

	products := catalog.NewProductRepoPG(globalPool)
	p, err := products.GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if p.Stock != 7 {
		t.Fatalf("stock = %d, want 7", p.Stock)
	}

	c, err := carts.Get(ctx, patient.ID)
	if err != nil {
		t.Fatalf("reload cart: %v", err)
	}
	if len(c.Lines) != 0 {
		t.Fatalf("cart not cleared: %d lines", len(c.Lines))
	}
}

func TestCheckout_StockRanOutKeepsCart(t *testing.T) {
	ctx := context.Background()
	patient := createTestUser(t, ctx, auth.RolePatient)
	seller := createTestUser(t, ctx, auth.RolePharmacy)
	product := createTestProduct(t, ctx, seller.ID, 2.00, 5)

	carts := newCartService()
	if _, err := carts.Add(ctx, patient.ID, product.ID, 5); err != nil {
		t.Fatalf("add to cart: %v", err)
	}

	// Another buyer drains the stock before checkout.
	products := catalog.NewProductRepoPG(globalPool)
	if err := products.DecrementStock(ctx, product.ID, 4); err != nil {
		t.Fatalf("drain stock: %v", err)
	}

	orders := newOrderService(carts)
	if _, err := orders.Place(ctx, patient.ID); err == nil {
		t.Fatal("expected checkout to fail on insufficient stock")
	}

	// The transaction rolled back: stock untouched beyond the drain, cart intact.
	p, err := products.GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if p.Stock != 1 {
		t.Fatalf("stock = %d, want 1", p.Stock)
	}
	c, err := carts.Get(ctx, patient.ID)
	if err != nil {
		t.Fatalf("reload cart: %v", err)
	}
	if len(c.Lines) != 1 || c.Lines[0].Qty != 5 {
		t.Fatalf("cart changed: %+v", c.Lines)
	}
}

func TestCartLine_SnapshotSurvivesCatalogEdits(t *testing.T) {
	ctx := context.Background()
	patient := createTestUser(t, ctx, auth.RolePatient)
	seller := createTestUser(t, ctx, auth.RolePharmacy)
	product := createTestProduct(t, ctx, seller.ID, 9.99, 3)

	carts := newCartService()
	if _, err := carts.Add(ctx, patient.ID, product.ID, 1); err != nil {
		t.Fatalf("add to cart: %v", err)
	}

	products := catalog.NewProductRepoPG(globalPool)
	product.Price = 19.99
	product.Name = "Renamed"
	if err := products.Update(ctx, product); err != nil {
		t.Fatalf("update product: %v", err)
	}

	c, err := carts.Get(ctx, patient.ID)
	if err != nil {
		t.Fatalf("reload cart: %v", err)
	}
	if c.Lines[0].Price != 9.99 {
		t.Fatalf("price = %v, want snapshot 9.99", c.Lines[0].Price)
	}
	if c.Lines[0].Name == "Renamed" {
		t.Fatal("name snapshot was overwritten")
	}
}

func TestOrderLifecycle_Persisted(t *testing.T) {
	ctx := context.Background()
	patient := createTestUser(t, ctx, auth.RolePatient)
	seller := createTestUser(t, ctx, auth.RolePharmacy)
	product := createTestProduct(t, ctx, seller.ID, 1.00, 2)

	carts := newCartService()
	if _, err := carts.Add(ctx, patient.ID, product.ID, 1); err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	orders := newOrderService(carts)
	placed, err := orders.Place(ctx, patient.ID)
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	for _, status := range []string{order.StatusConfirmed, order.StatusShipped, order.StatusDelivered} {
		if _, err := orders.UpdateStatus(ctx, placed.ID, status); err != nil {
			t.Fatalf("transition to %s: %v", status, err)
		}
	}
	if _, err := orders.UpdateStatus(ctx, placed.ID, order.StatusCancelled); err == nil {
		t.Fatal("expected delivered order to reject cancellation")
	}

	got, err := orders.Get(ctx, placed.ID)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if got.Status != order.StatusDelivered {
		t.Fatalf("status = %s, want delivered", got.Status)
	}
	if len(got.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(got.Items))
	}
}
