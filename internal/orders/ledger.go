package orders

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrIDSpaceExhausted = errors.New("could not allocate a free order id")
)

const (
	idAttempts = 32

	shipProbability    = 0.3
	deliverProbability = 0.2
)

// Store persists the whole ledger. Save always receives the full set of orders.
type Store interface {
	Load() (map[string]Order, error)
	Save(orders map[string]Order) error
}

type Option func(*Ledger)

// WithClock overrides the time source used for creation and delivery dates.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithRandom overrides the random sources: intN for id suffixes and float for
// status advancement rolls.
func WithRandom(intN func(int) int, float func() float64) Option {
	return func(l *Ledger) {
		if intN != nil {
			l.intN = intN
		}
		if float != nil {
			l.float = float
		}
	}
}

// Ledger owns every placed order. Callers only ever receive copies.
type Ledger struct {
	mu     sync.RWMutex
	orders map[string]Order
	store  Store
	log    *zap.Logger

	now   func() time.Time
	intN  func(int) int
	float func() float64
}

// NewLedger loads the persisted orders from store. Whatever the store could
// read is kept even when it also reports an error.
func NewLedger(store Store, logger *zap.Logger, opts ...Option) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Ledger{
		orders: make(map[string]Order),
		store:  store,
		log:    logger,
		now:    time.Now,
		intN:   rand.IntN,
		float:  rand.Float64,
	}
	for _, opt := range opts {
		opt(l)
	}
	if store != nil {
		loaded, err := store.Load()
		if err != nil {
			l.log.Warn("failed to load some orders", zap.Int("loaded", len(loaded)), zap.Error(err))
		}
		for id, o := range loaded {
			o.ID = id
			l.orders[id] = o
		}
	}
	l.log.Info("ledger ready", zap.Int("orders", len(l.orders)))
	return l
}

// Create records a new Confirmed order and flushes the ledger.
func (l *Ledger) Create(product string, price int) (Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id, err := l.freeIDLocked()
	if err != nil {
		return Order{}, err
	}
	created := l.now()
	o := Order{
		ID:           id,
		Product:      product,
		Price:        price,
		Status:       StatusConfirmed,
		DeliveryDate: created.AddDate(0, 0, deliveryDays).Format(DeliveryDateLayout),
		CreatedAt:    created,
	}
	l.orders[id] = o
	l.persistLocked()
	return o, nil
}

func (l *Ledger) freeIDLocked() (string, error) {
	for i := 0; i < idAttempts; i++ {
		id := formatID(1000 + l.intN(9000))
		if _, taken := l.orders[id]; !taken {
			return id, nil
		}
		l.log.Debug("order id collision, retrying", zap.String("id", id))
	}
	return "", fmt.Errorf("%w after %d attempts", ErrIDSpaceExhausted, idAttempts)
}

func (l *Ledger) Find(id string) (Order, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	o, ok := l.orders[strings.ToUpper(id)]
	return o, ok
}

// AdvanceAll simulates carrier progress: each undelivered order moves one step
// forward with a fixed probability. It returns how many orders changed and only
// persists when that number is positive.
func (l *Ledger) AdvanceAll() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	changed := 0
	for id, o := range l.orders {
		next, ok := o.Status.next()
		if !ok {
			continue
		}
		p := shipProbability
		if o.Status == StatusShipped {
			p = deliverProbability
		}
		if l.float() < p {
			o.Status = next
			l.orders[id] = o
			changed++
			l.log.Debug("order advanced", zap.String("id", id), zap.String("status", string(next)))
		}
	}
	if changed > 0 {
		l.persistLocked()
	}
	return changed
}

// All returns every order sorted by creation time.
func (l *Ledger) All() []Order {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Order, 0, len(l.orders))
	for _, o := range l.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.orders)
}

// persistLocked flushes the ledger. Failures are logged; memory stays authoritative.
func (l *Ledger) persistLocked() {
	if l.store == nil {
		return
	}
	snapshot := make(map[string]Order, len(l.orders))
	for id, o := range l.orders {
		snapshot[id] = o
	}
	if err := l.store.Save(snapshot); err != nil {
		l.log.Warn("failed to persist orders", zap.Int("orders", len(snapshot)), zap.Error(err))
	}
}
