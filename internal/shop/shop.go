// Package shop couples the catalog and the order ledger so that stock and
// orders only ever change together.
package shop

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"beautybot/internal/catalog"
	"beautybot/internal/orders"
)

// Placement is the result of a successful order.
type Placement struct {
	Product catalog.Product
	Order   orders.Order
}

type Shop struct {
	// mu serialises product lookup with the stock take that follows it.
	mu      sync.Mutex
	catalog *catalog.Store
	ledger  *orders.Ledger
	log     *zap.Logger
}

func New(c *catalog.Store, l *orders.Ledger, logger *zap.Logger) *Shop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Shop{catalog: c, ledger: l, log: logger}
}

func (s *Shop) Catalog() *catalog.Store { return s.catalog }
func (s *Shop) Ledger() *orders.Ledger  { return s.ledger }

// Place orders the first catalog product mentioned in utterance. It returns
// catalog.ErrUnknownProduct when nothing matches and catalog.ErrOutOfStock when
// the product has no stock left; in both cases nothing is changed.
func (s *Shop) Place(utterance string) (Placement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.catalog.Find(utterance)
	if !ok {
		return Placement{}, catalog.ErrUnknownProduct
	}

	// The order is created inside the catalog's stock lock; the unit is only
	// taken once the ledger has accepted the order.
	var o orders.Order
	left, err := s.catalog.TakeStock(p.Key, func(p catalog.Product) error {
		var err error
		o, err = s.ledger.Create(p.Name, p.Price)
		return err
	})
	switch {
	case errors.Is(err, catalog.ErrOutOfStock):
		s.log.Info("order rejected, out of stock", zap.String("product", p.Name))
		return Placement{Product: left}, err
	case err != nil:
		return Placement{Product: p}, fmt.Errorf("create order for %s: %w", p.Name, err)
	}

	s.log.Info("order placed",
		zap.String("order_id", o.ID),
		zap.String("product", left.Name),
		zap.Int("price", left.Price),
		zap.Int("stock_left", left.Stock))
	return Placement{Product: left, Order: o}, nil
}

// Track advances simulated shipping for all orders and returns the current
// state of id. Unknown ids yield orders.ErrOrderNotFound and advance nothing.
func (s *Shop) Track(id string) (orders.Order, error) {
	if _, ok := s.ledger.Find(id); !ok {
		return orders.Order{}, fmt.Errorf("%w: %s", orders.ErrOrderNotFound, id)
	}
	if n := s.ledger.AdvanceAll(); n > 0 {
		s.log.Debug("shipping advanced", zap.Int("orders", n))
	}
	o, ok := s.ledger.Find(id)
	if !ok {
		return orders.Order{}, fmt.Errorf("%w: %s", orders.ErrOrderNotFound, id)
	}
	return o, nil
}
