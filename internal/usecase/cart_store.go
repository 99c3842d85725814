package usecase

import (
	"sync"
	"sync/atomic"

	"shopcart-backend/internal/domain"
	"shopcart-backend/pkg/metrics"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type cartSnapshot struct {
	version uint64
	state   domain.CartState
}

// CartStore owns one cart. Dispatches are serialized by mu; reads load the
// latest published snapshot and never block on a writer.
type CartStore struct {
	mu        sync.Mutex
	current   atomic.Pointer[cartSnapshot]
	listeners map[uint64]domain.CartListener
	nextID    uint64
	log       *zerolog.Logger
	metrics   *metrics.CartMetrics
}

// NewCartStore returns an empty cart at version 0. m may be nil.
func NewCartStore(log *zerolog.Logger, m *metrics.CartMetrics) *CartStore {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	s := &CartStore{
		listeners: make(map[uint64]domain.CartListener),
		log:       log,
		metrics:   m,
	}
	s.current.Store(&cartSnapshot{state: domain.CartState{Items: []domain.CartLineItem{}}})
	return s
}

// Dispatch applies action and returns the resulting state, its version and
// whether it changed. Listeners have been notified by the time Dispatch returns.
func (s *CartStore) Dispatch(action domain.CartAction) (domain.CartState, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current.Load()
	next, noop := reduceCart(prev.state, action)
	if noop != "" {
		s.metrics.IncAction(string(action.Type), metrics.OutcomeNoop)
		s.log.Debug().
			Str("action", string(action.Type)).
			Int("product_id", action.ProductID).
			Str("reason", noop).
			Uint64("version", prev.version).
			Msg("Cart action ignored")
		return prev.state.Clone(), prev.version, false
	}

	snap := &cartSnapshot{version: prev.version + 1, state: next}
	s.current.Store(snap)

	subtotal := next.Subtotal()
	s.metrics.IncAction(string(action.Type), metrics.OutcomeApplied)
	s.metrics.SetCart(next.ItemCount(), subtotal.InexactFloat64())
	s.log.Debug().
		Str("action", string(action.Type)).
		Int("product_id", action.ProductID).
		Uint64("version", snap.version).
		Int("item_count", next.ItemCount()).
		Str("subtotal", subtotal.StringFixed(2)).
		Msg("Cart action applied")

	for _, l := range s.listeners {
		l(domain.CartChange{Version: snap.version, Action: action, State: next.Clone()})
	}
	return next.Clone(), snap.version, true
}

func (s *CartStore) AddToCart(product domain.Product) domain.CartState {
	state, _, _ := s.Dispatch(domain.AddToCart(product))
	return state
}

func (s *CartStore) RemoveFromCart(productID int) domain.CartState {
	state, _, _ := s.Dispatch(domain.RemoveFromCart(productID))
	return state
}

func (s *CartStore) IncreaseQuantity(productID int) domain.CartState {
	state, _, _ := s.Dispatch(domain.IncreaseQuantity(productID))
	return state
}

func (s *CartStore) DecreaseQuantity(productID int) domain.CartState {
	state, _, _ := s.Dispatch(domain.DecreaseQuantity(productID))
	return state
}

// --- Queries ---

// State returns a copy of the current cart.
func (s *CartStore) State() domain.CartState {
	return s.current.Load().state.Clone()
}

// Snapshot returns the current cart together with its version.
func (s *CartStore) Snapshot() (domain.CartState, uint64) {
	snap := s.current.Load()
	return snap.state.Clone(), snap.version
}

func (s *CartStore) Version() uint64 {
	return s.current.Load().version
}

func (s *CartStore) ItemCount() int {
	return s.current.Load().state.ItemCount()
}

func (s *CartStore) Subtotal() decimal.Decimal {
	return s.current.Load().state.Subtotal()
}

// LineTotal returns price * quantity for productID, and false if it is not in the cart.
func (s *CartStore) LineTotal(productID int) (decimal.Decimal, bool) {
	state := s.current.Load().state
	idx := state.IndexOf(productID)
	if idx < 0 {
		return decimal.Zero, false
	}
	return state.Items[idx].LineTotal(), true
}

// --- Subscriptions ---

// Subscribe registers l for every future change. The returned func removes it
// and is safe to call more than once, but not from inside a listener.
func (s *CartStore) Subscribe(l domain.CartListener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()
	s.metrics.AddSubscribers(1)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
			s.metrics.AddSubscribers(-1)
		})
	}
}
