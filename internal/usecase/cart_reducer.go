package usecase

import (
	"slices"

	"shopcart-backend/internal/domain"
)

// Reasons reported when an action leaves the cart untouched.
const (
	NoopNotInCart       = "product not in cart"
	NoopQuantityAtFloor = "quantity already at 1"
	NoopUnknownAction   = "unknown action"
)

// ReduceCart applies one action to state and returns the next state.
// The input is never modified; a no-op returns state as-is.
func ReduceCart(state domain.CartState, action domain.CartAction) domain.CartState {
	next, _ := reduceCart(state, action)
	return next
}

// reduceCart also reports why nothing changed; the reason is empty when the action applied.
func reduceCart(state domain.CartState, action domain.CartAction) (domain.CartState, string) {
	switch action.Type {
	case domain.ActionAddToCart:
		return addToCart(state, action.Product), ""
	case domain.ActionRemoveFromCart:
		return removeFromCart(state, action.ProductID)
	case domain.ActionIncreaseQuantity:
		return increaseQuantity(state, action.ProductID)
	case domain.ActionDecreaseQuantity:
		return decreaseQuantity(state, action.ProductID)
	default:
		return state, NoopUnknownAction
	}
}

// addToCart bumps an existing line-item without refreshing its stored
// title/price/image, or appends a new one with quantity 1.
func addToCart(state domain.CartState, product domain.Product) domain.CartState {
	idx := state.IndexOf(product.ID)
	if idx < 0 {
		items := make([]domain.CartLineItem, 0, len(state.Items)+1)
		items = append(items, state.Items...)
		items = append(items, domain.CartLineItem{Product: product, Quantity: 1})
		return domain.CartState{Items: items}
	}
	return withQuantity(state, idx, state.Items[idx].Quantity+1)
}

func removeFromCart(state domain.CartState, productID int) (domain.CartState, string) {
	idx := state.IndexOf(productID)
	if idx < 0 {
		return state, NoopNotInCart
	}
	items := slices.Delete(slices.Clone(state.Items), idx, idx+1)
	return domain.CartState{Items: items}, ""
}

func increaseQuantity(state domain.CartState, productID int) (domain.CartState, string) {
	idx := state.IndexOf(productID)
	if idx < 0 {
		return state, NoopNotInCart
	}
	return withQuantity(state, idx, state.Items[idx].Quantity+1), ""
}

// decreaseQuantity never drops below 1 and never removes the item.
func decreaseQuantity(state domain.CartState, productID int) (domain.CartState, string) {
	idx := state.IndexOf(productID)
	if idx < 0 {
		return state, NoopNotInCart
	}
	if state.Items[idx].Quantity <= 1 {
		return state, NoopQuantityAtFloor
	}
	return withQuantity(state, idx, state.Items[idx].Quantity-1), ""
}

func withQuantity(state domain.CartState, idx, quantity int) domain.CartState {
	next := state.Clone()
	next.Items[idx].Quantity = quantity
	return next
}
