package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/caremarket/caremarket/internal/domain/cart"
	"github.com/caremarket/caremarket/internal/domain/catalog"
)

// TxRunner executes fn atomically. The production wiring runs fn inside a
// database transaction attached to the context.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// EventSink receives order lifecycle events for notification fan-out.
type EventSink interface {
	OrderPlaced(ctx context.Context, o *Order)
	OrderStatusChanged(ctx context.Context, o *Order, previous string)
}

type Service struct {
	orders   Repository
	carts    *cart.Service
	products catalog.ProductRepository
	inTx     TxRunner
	events   EventSink
	log      zerolog.Logger
}

func NewService(orders Repository, carts *cart.Service, products catalog.ProductRepository,
	inTx TxRunner, events EventSink, log zerolog.Logger) *Service {
	return &Service{orders: orders, carts: carts, products: products,
		inTx: inTx, events: events, log: log}
}

// Place turns the user's cart into an order. Inside one transaction it
// re-reads every product, re-checks and decrements stock, snapshots the
// lines into order items priced at the current effective price, and clears
// the cart. The server-computed total is authoritative.
func (s *Service) Place(ctx context.Context, userID uuid.UUID) (*Order, error) {
	var placed *Order
	err := s.inTx(ctx, func(ctx context.Context) error {
		c, err := s.carts.Get(ctx, userID)
		if err != nil {
			return err
		}
		if len(c.Lines) == 0 {
			return fmt.Errorf("cart is empty")
		}

		o := &Order{UserID: userID, Status: StatusPending}
		for _, line := range c.Lines {
			p, err := s.products.GetByID(ctx, line.ProductID)
			if err != nil {
				return fmt.Errorf("product %s no longer exists", line.ProductID)
			}
			if !p.Active {
				return fmt.Errorf("product %q is no longer available", p.Name)
			}
			if err := s.products.DecrementStock(ctx, p.ID, line.Qty); err != nil {
				return fmt.Errorf("product %q: %w", p.Name, err)
			}
			item := &Item{
				ProductID: p.ID,
				SKU:       p.SKU,
				Name:      p.Name,
				UnitPrice: p.EffectivePrice(),
				Qty:       line.Qty,
			}
			o.Total += item.Subtotal()
			o.Items = append(o.Items, item)
		}

		if err := s.orders.Create(ctx, o); err != nil {
			return err
		}
		if _, err := s.carts.Clear(ctx, userID); err != nil {
			return err
		}
		placed = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.OrderPlaced(ctx, placed)
	}
	s.log.Info().Str("order_id", placed.ID.String()).
		Str("user_id", userID.String()).Float64("total", placed.Total).
		Msg("order placed")
	return placed, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Order, int, error) {
	return s.orders.ListByUser(ctx, userID, limit, offset)
}

// UpdateStatus moves the order along its lifecycle, rejecting transitions
// the status machine does not allow.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, status) {
		return nil, fmt.Errorf("cannot move order from %s to %s", o.Status, status)
	}

	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	previous := o.Status
	o.Status = status

	if s.events != nil {
		s.events.OrderStatusChanged(ctx, o, previous)
	}
	return o, nil
}
