package domain

import (
	"slices"

	"github.com/shopspring/decimal"
)

// --- Cart Entities ---

// CartLineItem is a product plus how many of it sit in the cart. Quantity is always >= 1.
type CartLineItem struct {
	Product
	Quantity int `json:"quantity"`
}

// LineTotal is price * quantity.
func (i CartLineItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartState is the ordered list of line-items, at most one per product id.
// A CartState value is never modified once published; reducers build a new one.
type CartState struct {
	Items []CartLineItem `json:"items"`
}

// ItemCount is the number of distinct products, not the sum of quantities.
func (s CartState) ItemCount() int {
	return len(s.Items)
}

func (s CartState) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// IndexOf returns the position of the line-item for productID, or -1.
func (s CartState) IndexOf(productID int) int {
	return slices.IndexFunc(s.Items, func(item CartLineItem) bool {
		return item.ID == productID
	})
}

// Clone returns a copy whose Items slice does not alias s.
func (s CartState) Clone() CartState {
	return CartState{Items: slices.Clone(s.Items)}
}

// --- Actions ---

type CartActionType string

const (
	ActionAddToCart        CartActionType = "cart/addToCart"
	ActionRemoveFromCart   CartActionType = "cart/removeFromCart"
	ActionIncreaseQuantity CartActionType = "cart/increaseQuantity"
	ActionDecreaseQuantity CartActionType = "cart/decreaseQuantity"
)

// CartAction is one mutation request. Product is only read for ActionAddToCart,
// ProductID for the other three.
type CartAction struct {
	Type      CartActionType `json:"type"`
	Product   Product        `json:"product"`
	ProductID int            `json:"productId"`
}

func AddToCart(p Product) CartAction {
	return CartAction{Type: ActionAddToCart, Product: p, ProductID: p.ID}
}

func RemoveFromCart(productID int) CartAction {
	return CartAction{Type: ActionRemoveFromCart, ProductID: productID}
}

func IncreaseQuantity(productID int) CartAction {
	return CartAction{Type: ActionIncreaseQuantity, ProductID: productID}
}

func DecreaseQuantity(productID int) CartAction {
	return CartAction{Type: ActionDecreaseQuantity, ProductID: productID}
}

// --- Change notification ---

// CartChange is delivered to listeners after an action changed the cart.
type CartChange struct {
	Version uint64     `json:"version"`
	Action  CartAction `json:"action"`
	State   CartState  `json:"state"`
}

// CartListener receives changes in version order. It runs on the dispatching
// goroutine and must not dispatch back into the store.
type CartListener func(change CartChange)
