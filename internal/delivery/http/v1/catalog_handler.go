package v1

import (
	"errors"
	"net/http"

	"shopcart-backend/internal/domain"
	"shopcart-backend/internal/usecase"
	"shopcart-backend/pkg/logger"
	"shopcart-backend/pkg/utils"
)

type CatalogHandler struct {
	catalogUC *usecase.CatalogUsecase
}

func NewCatalogHandler(uc *usecase.CatalogUsecase) *CatalogHandler {
	return &CatalogHandler{catalogUC: uc}
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalogUC.ListProducts(r.Context())
	if err != nil {
		logger.WithContext(r.Context()).Error().Err(err).Msg("Failed to list products")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load catalog")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data":  products,
		"total": len(products),
	})
}

func (h *CatalogHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseID(r.PathValue("id"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := h.catalogUC.GetProduct(r.Context(), id)
	if errors.Is(err, domain.ErrProductNotFound) {
		utils.WriteError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		logger.WithContext(r.Context()).Error().Err(err).Int("product_id", id).Msg("Failed to load product")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load product")
		return
	}

	utils.WriteJSON(w, http.StatusOK, product)
}
