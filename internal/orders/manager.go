package orders

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/foodgocafe/orderflow/internal/stock"
)

// StockChecker resolves the live availability of a menu item by name.
type StockChecker interface {
	GetStockLevel(ctx context.Context, name string) (stock.Level, error)
}

// Repository persists orders. Implementations must apply SaveTransition
// atomically against the stored status so concurrent writers (two staff
// devices accepting the same order) cannot lose updates.
type Repository interface {
	Load(ctx context.Context) ([]Order, error)
	Create(ctx context.Context, o Order) error
	SaveTransition(ctx context.Context, o Order, from Status) error
}

// Manager owns the order collection and is the only writer to it. All status
// changes go through the transition table; a rejected operation leaves both
// the in-memory collection and the repository untouched.
type Manager struct {
	mu      sync.Mutex
	byID    map[string]*Order
	seq     []*Order // insertion order, backs ListByStatus
	numbers map[string]struct{}

	repo  Repository
	stock StockChecker

	nowFunc  func() time.Time
	randFunc func(n int) int
}

// NewManager creates a Manager over a repository and a stock source.
func NewManager(repo Repository, checker StockChecker) *Manager {
	return &Manager{
		byID:     map[string]*Order{},
		numbers:  map[string]struct{}{},
		repo:     repo,
		stock:    checker,
		nowFunc:  time.Now,
		randFunc: rand.Intn,
	}
}

// Load primes the in-memory collection from the repository. Call once at
// startup, before serving requests.
func (m *Manager) Load(ctx context.Context) error {
	loaded, err := m.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load orders: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range loaded {
		o := loaded[i]
		if _, exists := m.byID[o.ID]; exists {
			continue
		}
		m.byID[o.ID] = &o
		m.seq = append(m.seq, &o)
		m.numbers[o.Number] = struct{}{}
	}
	return nil
}

// CreateOrder validates the request, assigns an id and a display number, and
// persists the order in status new.
func (m *Manager) CreateOrder(ctx context.Context, items []Item, customer Customer, orderType OrderType, priority Priority) (Order, error) {
	if len(items) == 0 {
		return Order{}, ErrEmptyCart
	}
	for _, it := range items {
		if it.Quantity < 1 {
			return Order{}, fmt.Errorf("item %q: quantity must be at least 1", it.Name)
		}
	}
	if customer.Name == "" || customer.Phone == "" {
		return Order{}, ErrIncompleteCustomerInfo
	}
	if orderType != TypeDelivery && orderType != TypePickup {
		return Order{}, fmt.Errorf("unknown order type %q", orderType)
	}
	if orderType == TypeDelivery && customer.Address == "" {
		return Order{}, fmt.Errorf("%w: delivery requires an address", ErrIncompleteCustomerInfo)
	}
	if priority == "" {
		priority = PriorityNormal
	}

	now := m.nowFunc().UTC()
	o := Order{
		ID:        uuid.NewString(),
		Items:     append([]Item(nil), items...),
		Customer:  customer,
		Type:      orderType,
		Status:    StatusNew,
		Total:     ComputeTotal(items),
		Priority:  priority,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	o.Number = m.reserveNumberLocked()
	m.mu.Unlock()

	if err := m.repo.Create(ctx, o); err != nil {
		m.mu.Lock()
		delete(m.numbers, o.Number)
		m.mu.Unlock()
		return Order{}, fmt.Errorf("persist order: %w", err)
	}

	m.mu.Lock()
	stored := o
	m.byID[stored.ID] = &stored
	m.seq = append(m.seq, &stored)
	m.mu.Unlock()

	return o, nil
}

// reserveNumberLocked picks an unused FGC-#### display number. Four random
// digits, regenerated on collision; uniqueness matters, unpredictability
// does not.
func (m *Manager) reserveNumberLocked() string {
	for {
		n := fmt.Sprintf("FGC-%04d", m.randFunc(10000))
		if _, taken := m.numbers[n]; !taken {
			m.numbers[n] = struct{}{}
			return n
		}
	}
}

// Transition moves an order to target if the transition table allows it.
// The new -> accepted edge additionally requires every line item to be in
// stock. The reason is recorded on cancellation only.
func (m *Manager) Transition(ctx context.Context, id string, target Status, reason string) (Order, error) {
	m.mu.Lock()
	cur, ok := m.byID[id]
	if !ok {
		m.mu.Unlock()
		return Order{}, ErrOrderNotFound
	}
	snapshot := *cur
	m.mu.Unlock()

	if !snapshot.CanTransition(target) {
		return Order{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, snapshot.Status, target)
	}
	if target == StatusAccepted {
		if err := m.checkStock(ctx, snapshot.Items); err != nil {
			return Order{}, err
		}
	}

	from := snapshot.Status
	next := snapshot
	next.Status = target
	next.UpdatedAt = m.nowFunc().UTC()
	switch target {
	case StatusCancelled:
		next.CancelReason = reason
	case StatusReady:
		// progress should read 100 once the kitchen is done
		if next.Progress < 100 {
			next.Progress = 100
		}
	}

	if err := m.repo.SaveTransition(ctx, next, from); err != nil {
		return Order{}, fmt.Errorf("persist transition: %w", err)
	}

	m.mu.Lock()
	*cur = next
	m.mu.Unlock()
	return next, nil
}

// checkStock rejects the admission when any line resolves to an out item.
func (m *Manager) checkStock(ctx context.Context, items []Item) error {
	for _, it := range items {
		level, err := m.stock.GetStockLevel(ctx, it.Name)
		if err != nil {
			return fmt.Errorf("stock lookup for %q: %w", it.Name, err)
		}
		if level == stock.LevelOut {
			return fmt.Errorf("%w: %s", ErrStockUnavailable, it.Name)
		}
	}
	return nil
}

// SetProgress updates the advisory preparation progress. It only means
// anything while the order is being prepared, so any other status is
// rejected.
func (m *Manager) SetProgress(ctx context.Context, id string, progress int) (Order, error) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	m.mu.Lock()
	cur, ok := m.byID[id]
	if !ok {
		m.mu.Unlock()
		return Order{}, ErrOrderNotFound
	}
	snapshot := *cur
	m.mu.Unlock()

	if snapshot.Status != StatusPreparing {
		return Order{}, fmt.Errorf("%w: progress only applies while preparing, order is %s", ErrInvalidTransition, snapshot.Status)
	}

	next := snapshot
	next.Progress = progress
	next.UpdatedAt = m.nowFunc().UTC()
	if err := m.repo.SaveTransition(ctx, next, StatusPreparing); err != nil {
		return Order{}, fmt.Errorf("persist progress: %w", err)
	}

	m.mu.Lock()
	*cur = next
	m.mu.Unlock()
	return next, nil
}

// Get returns a copy of the order.
func (m *Manager) Get(id string) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return *o, nil
}

// ListByStatus returns orders in that status, in insertion order.
func (m *Manager) ListByStatus(status Status) []Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Order
	for _, o := range m.seq {
		if o.Status == status {
			out = append(out, *o)
		}
	}
	return out
}

// Snapshot returns a copy of all orders in insertion order.
func (m *Manager) Snapshot() []Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Order, 0, len(m.seq))
	for _, o := range m.seq {
		out = append(out, *o)
	}
	return out
}
