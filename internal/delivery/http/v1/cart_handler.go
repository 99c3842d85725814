package v1

import (
	"errors"
	"net/http"

	"shopcart-backend/internal/domain"
	"shopcart-backend/internal/usecase"
	"shopcart-backend/pkg/logger"
	"shopcart-backend/pkg/utils"
)

type CartHandler struct {
	store     *usecase.CartStore
	catalogUC *usecase.CatalogUsecase
}

func NewCartHandler(store *usecase.CartStore, catalogUC *usecase.CatalogUsecase) *CartHandler {
	return &CartHandler{
		store:     store,
		catalogUC: catalogUC,
	}
}

type cartItemResponse struct {
	domain.CartLineItem
	LineTotal string `json:"lineTotal"`
}

type cartResponse struct {
	Items     []cartItemResponse `json:"items"`
	ItemCount int                `json:"itemCount"`
	Subtotal  string             `json:"subtotal"`
	Version   uint64             `json:"version"`
}

func newCartResponse(state domain.CartState, version uint64) cartResponse {
	items := make([]cartItemResponse, 0, len(state.Items))
	for _, item := range state.Items {
		items = append(items, cartItemResponse{
			CartLineItem: item,
			LineTotal:    item.LineTotal().StringFixed(2),
		})
	}
	return cartResponse{
		Items:     items,
		ItemCount: state.ItemCount(),
		Subtotal:  state.Subtotal().StringFixed(2),
		Version:   version,
	}
}

// --- Queries ---

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	state, version := h.store.Snapshot()
	utils.WriteJSON(w, http.StatusOK, newCartResponse(state, version))
}

func (h *CartHandler) GetCount(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]int{"itemCount": h.store.ItemCount()})
}

// --- Mutations ---

type addToCartReq struct {
	ProductID int `json:"productId" validate:"gt=0"`
}

func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartReq
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := h.catalogUC.GetProduct(r.Context(), req.ProductID)
	if errors.Is(err, domain.ErrProductNotFound) {
		utils.WriteError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		logger.WithContext(r.Context()).Error().Err(err).Int("product_id", req.ProductID).Msg("Failed to load product for cart")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load product")
		return
	}

	h.dispatch(w, r, domain.AddToCart(*product))
}

func (h *CartHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDFromPath(w, r)
	if !ok {
		return
	}
	h.dispatch(w, r, domain.RemoveFromCart(id))
}

func (h *CartHandler) IncreaseQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDFromPath(w, r)
	if !ok {
		return
	}
	h.dispatch(w, r, domain.IncreaseQuantity(id))
}

func (h *CartHandler) DecreaseQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDFromPath(w, r)
	if !ok {
		return
	}
	h.dispatch(w, r, domain.DecreaseQuantity(id))
}

// dispatch applies action and answers with the resulting cart. Ignored actions
// still return 200 with the unchanged cart.
func (h *CartHandler) dispatch(w http.ResponseWriter, r *http.Request, action domain.CartAction) {
	state, version, changed := h.store.Dispatch(action)
	logger.WithContext(r.Context()).Info().
		Str("action", string(action.Type)).
		Int("product_id", action.ProductID).
		Bool("changed", changed).
		Uint64("version", version).
		Msg("Cart action")

	utils.WriteJSON(w, http.StatusOK, newCartResponse(state, version))
}

func productIDFromPath(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := utils.ParseID(r.PathValue("productId"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid product ID")
		return 0, false
	}
	return id, true
}
