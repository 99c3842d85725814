package usecase

import (
	"strings"
	"sync"
	"testing"

	"shopcart-backend/internal/domain"
	"shopcart-backend/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
)

type CartStoreSuite struct {
	suite.Suite
	reg   *prometheus.Registry
	store *CartStore
}

func TestCartStoreSuite(t *testing.T) {
	suite.Run(t, new(CartStoreSuite))
}

func (s *CartStoreSuite) SetupTest() {
	s.reg = prometheus.NewRegistry()
	s.store = NewCartStore(nil, metrics.NewCartMetrics(s.reg))
}

func (s *CartStoreSuite) TestStartsEmpty() {
	state, version := s.store.Snapshot()
	s.Empty(state.Items)
	s.NotNil(state.Items)
	s.Equal(uint64(0), version)
	s.Equal(0, s.store.ItemCount())
	s.True(s.store.Subtotal().IsZero())
}

func (s *CartStoreSuite) TestScenario() {
	headphones := product(1, "Headphones", "59.99")

	s.store.AddToCart(headphones)
	state := s.store.AddToCart(headphones)
	s.Require().Len(state.Items, 1)
	s.Equal(2, state.Items[0].Quantity)
	s.Equal(1, s.store.ItemCount())
	s.Equal("119.98", s.store.Subtotal().StringFixed(2))

	s.store.IncreaseQuantity(1)
	s.Equal("179.97", s.store.Subtotal().StringFixed(2))
	total, ok := s.store.LineTotal(1)
	s.True(ok)
	s.Equal("179.97", total.StringFixed(2))

	for range 3 {
		s.store.DecreaseQuantity(1)
	}
	s.Equal(1, s.store.State().Items[0].Quantity)

	state = s.store.RemoveFromCart(1)
	s.Empty(state.Items)
	s.Equal(0, s.store.ItemCount())
	s.True(s.store.Subtotal().IsZero())

	_, ok = s.store.LineTotal(1)
	s.False(ok)
}

func (s *CartStoreSuite) TestVersionOnlyMovesOnChange() {
	s.store.AddToCart(product(1, "a", "1.00"))
	s.Equal(uint64(1), s.store.Version())

	_, _, changed := s.store.Dispatch(domain.RemoveFromCart(99))
	s.False(changed)
	_, _, changed = s.store.Dispatch(domain.DecreaseQuantity(1))
	s.False(changed)
	s.Equal(uint64(1), s.store.Version())

	_, version, changed := s.store.Dispatch(domain.IncreaseQuantity(1))
	s.True(changed)
	s.Equal(uint64(2), version)
	s.Equal(uint64(2), s.store.Version())
}

func (s *CartStoreSuite) TestReturnedStateIsACopy() {
	state := s.store.AddToCart(product(1, "a", "1.00"))
	state.Items[0].Quantity = 50

	s.Equal(1, s.store.State().Items[0].Quantity)

	read := s.store.State()
	read.Items[0].Quantity = 70
	s.Equal(1, s.store.State().Items[0].Quantity)
}

func (s *CartStoreSuite) TestListenersSeeEveryChangeInOrder() {
	var got []domain.CartChange
	unsubscribe := s.store.Subscribe(func(change domain.CartChange) {
		got = append(got, change)
	})

	s.store.AddToCart(product(1, "a", "2.00"))
	s.store.RemoveFromCart(7) // no-op, not delivered
	s.store.IncreaseQuantity(1)

	s.Require().Len(got, 2)
	s.Equal(uint64(1), got[0].Version)
	s.Equal(domain.ActionAddToCart, got[0].Action.Type)
	s.Equal(1, got[0].State.Items[0].Quantity)
	s.Equal(uint64(2), got[1].Version)
	s.Equal(domain.ActionIncreaseQuantity, got[1].Action.Type)
	s.Equal(2, got[1].State.Items[0].Quantity)

	unsubscribe()
	unsubscribe()
	s.store.IncreaseQuantity(1)
	s.Len(got, 2)
}

func (s *CartStoreSuite) TestListenerMayReadStore() {
	var seen []int
	s.store.Subscribe(func(change domain.CartChange) {
		seen = append(seen, s.store.ItemCount())
	})

	s.store.AddToCart(product(1, "a", "1.00"))
	s.store.AddToCart(product(2, "b", "1.00"))

	s.Equal([]int{1, 2}, seen)
}

func (s *CartStoreSuite) TestMetrics() {
	unsubscribe := s.store.Subscribe(func(domain.CartChange) {})
	s.store.AddToCart(product(1, "a", "59.99"))
	s.store.AddToCart(product(1, "a", "59.99"))
	s.store.DecreaseQuantity(3)

	expected := `
# HELP cart_actions_total Cart actions dispatched, by action type and outcome.
# TYPE cart_actions_total counter
cart_actions_total{action="cart/addToCart",outcome="applied"} 2
cart_actions_total{action="cart/decreaseQuantity",outcome="noop"} 1
# HELP cart_line_items Distinct products currently in the cart.
# TYPE cart_line_items gauge
cart_line_items 1
`
	s.NoError(testutil.GatherAndCompare(s.reg, strings.NewReader(expected), "cart_actions_total", "cart_line_items"))

	unsubscribe()
	subscribers := `
# HELP cart_subscribers Active cart change listeners.
# TYPE cart_subscribers gauge
cart_subscribers 0
`
	s.NoError(testutil.GatherAndCompare(s.reg, strings.NewReader(subscribers), "cart_subscribers"))
}

// Concurrent producers must not break the one-line-item-per-id rule or lose updates.
func (s *CartStoreSuite) TestConcurrentDispatch() {
	const workers, perWorker = 8, 250
	p := product(1, "a", "0.50")

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				s.store.AddToCart(p)
				_ = s.store.Subtotal()
			}
		}()
	}
	wg.Wait()

	state, version := s.store.Snapshot()
	s.Require().Len(state.Items, 1)
	s.Equal(workers*perWorker, state.Items[0].Quantity)
	s.Equal(uint64(workers*perWorker), version)
}
